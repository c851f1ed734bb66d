package submissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	database "github.com/atlvibes/atl-vibes-views/internal/db"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository defines persistence for submissions.
type Repository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetStatusBySessionID(ctx context.Context, sessionID string) (*models.SubmissionStatusView, error)
	AttachCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	Approve(ctx context.Context, approval models.SubmissionApproval) (bool, error)
}

// RepositoryImpl writes through the service-role pool and serves public reads from the anonymous pool.
type RepositoryImpl struct {
	logger *zap.Logger
	writer database.DBTX
	reader database.DBTX
}

// NewRepository wires both trust levels explicitly. reader may be nil when no anonymous role is configured.
func NewRepository(writer, reader database.DBTX, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		writer: writer,
		reader: reader,
	}
}

// Create inserts a new submission row.
func (r *RepositoryImpl) Create(ctx context.Context, s *models.Submission) error {
	query := `
        INSERT INTO submissions (
            id, submission_type, submitter_name, submitter_email, data, tier, status, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9
        )
    `
	_, err := r.writer.Exec(ctx, query,
		s.ID, s.SubmissionType, s.SubmitterName, s.SubmitterEmail, s.Data, s.Tier, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create submission", zap.String("submission_id", s.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID loads a submission through the service-role pool.
func (r *RepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	query := `
        SELECT id, submission_type, submitter_name, submitter_email, data, tier, status,
               stripe_session_id, stripe_customer_id, created_at, updated_at
        FROM submissions
        WHERE id = $1
    `
	var s models.Submission
	err := r.writer.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.SubmissionType, &s.SubmitterName, &s.SubmitterEmail, &s.Data, &s.Tier, &s.Status,
		&s.StripeSessionID, &s.StripeCustomerID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Failed to get submission", zap.String("submission_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &s, nil
}

// GetStatusBySessionID returns the public status projection for a checkout session.
func (r *RepositoryImpl) GetStatusBySessionID(ctx context.Context, sessionID string) (*models.SubmissionStatusView, error) {
	if r.reader == nil {
		return nil, models.ErrDatabaseUnavailable
	}
	query := `
        SELECT id, submission_type, status, tier
        FROM submissions
        WHERE stripe_session_id = $1
    `
	var v models.SubmissionStatusView
	err := r.reader.QueryRow(ctx, query, sessionID).Scan(&v.ID, &v.SubmissionType, &v.Status, &v.Tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("submission for session %s: %w", sessionID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get submission by session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission by session: %w", err)
	}
	return &v, nil
}

// AttachCheckoutSession records the most recent checkout session on a still-pending submission.
func (r *RepositoryImpl) AttachCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `
        UPDATE submissions
        SET stripe_session_id = $2, updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `
	_, err := r.writer.Exec(ctx, query, id, sessionID)
	if err != nil {
		r.logger.Error("Failed to attach checkout session", zap.String("submission_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to attach checkout session: %w", err)
	}
	return nil
}

// Approve overwrites the approval fields. The statement sets absolute values so
// re-delivery converges on the same row state; rejected submissions never match.
// It reports whether a row matched.
func (r *RepositoryImpl) Approve(ctx context.Context, a models.SubmissionApproval) (bool, error) {
	query := `
        UPDATE submissions
        SET status = 'approved', tier = $3, stripe_session_id = $4, stripe_customer_id = $5, updated_at = NOW()
        WHERE id = $1 AND submission_type = $2 AND status IN ('pending', 'approved')
    `
	tag, err := r.writer.Exec(ctx, query,
		a.SubmissionID, a.SubmissionType, a.Tier, nullable(a.StripeSessionID), nullable(a.StripeCustomerID),
	)
	if err != nil {
		r.logger.Error("Failed to approve submission", zap.String("submission_id", a.SubmissionID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to approve submission: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
