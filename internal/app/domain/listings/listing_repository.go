// Package listings owns the billing-driven updates to published listings and subscriptions.
package listings

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	database "github.com/atlvibes/atl-vibes-views/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// DowngradeByCustomer resets every listing owned by the customer to the free tier.
	DowngradeByCustomer(ctx context.Context, customerID string) (int64, error)
	// MarkPastDue moves the customer's active subscriptions to past_due.
	MarkPastDue(ctx context.Context, customerID string) (int64, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     database.DBTX
	psql   sq.StatementBuilderType
}

func NewRepository(db database.DBTX, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// DowngradeByCustomer is a single bulk statement. Rows already on the free tier with the
// default pin are excluded, so a replay or a customer without listings writes nothing.
func (r *RepositoryImpl) DowngradeByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, span := otel.Tracer("ListingsRepository").Start(ctx, "DowngradeByCustomer", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "business_listings"),
	))
	defer span.End()

	query, args, err := r.psql.Update("business_listings").
		Set("tier", models.ListingTierFree).
		Set("map_pin_style", models.MapPinStyleDefault).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"stripe_customer_id": customerID}).
		Where(sq.Or{
			sq.NotEq{"tier": models.ListingTierFree},
			sq.NotEq{"map_pin_style": models.MapPinStyleDefault},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build downgrade query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to downgrade listings", zap.String("customer_id", customerID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "downgrade failed")
		return 0, fmt.Errorf("failed to downgrade listings: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

// MarkPastDue only touches active rows; canceled and already past_due subscriptions are left alone.
func (r *RepositoryImpl) MarkPastDue(ctx context.Context, customerID string) (int64, error) {
	ctx, span := otel.Tracer("ListingsRepository").Start(ctx, "MarkPastDue", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "subscriptions"),
	))
	defer span.End()

	query, args, err := r.psql.Update("subscriptions").
		Set("status", string(models.SubscriptionStatusPastDue)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"stripe_customer_id": customerID,
			"status":             string(models.SubscriptionStatusActive),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build past_due query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to mark subscription past due", zap.String("customer_id", customerID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "past_due update failed")
		return 0, fmt.Errorf("failed to mark subscription past due: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
