package listings

import (
	"context"
	"errors"
	"regexp"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const (
	downgradeSQL = `UPDATE business_listings SET tier = $1, map_pin_style = $2, updated_at = NOW() WHERE stripe_customer_id = $3 AND (tier <> $4 OR map_pin_style <> $5)`
	pastDueSQL   = `UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE status = $2 AND stripe_customer_id = $3`
)

type ListingRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo *RepositoryImpl
	ctx  context.Context
}

func (s *ListingRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewRepository(mock, zap.NewNop())
	s.ctx = context.Background()
}

func (s *ListingRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestListingRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ListingRepoTestSuite))
}

func (s *ListingRepoTestSuite) TestDowngradeByCustomer() {
	s.mock.ExpectExec(regexp.QuoteMeta(downgradeSQL)).
		WithArgs("Free", "gray", "cus_1", "Free", "gray").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := s.repo.DowngradeByCustomer(s.ctx, "cus_1")
	s.NoError(err)
	s.Equal(int64(3), n)
}

func (s *ListingRepoTestSuite) TestDowngradeByCustomer_NothingToChange() {
	s.mock.ExpectExec(regexp.QuoteMeta(downgradeSQL)).
		WithArgs("Free", "gray", "cus_none", "Free", "gray").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	n, err := s.repo.DowngradeByCustomer(s.ctx, "cus_none")
	s.NoError(err)
	s.Zero(n)
}

func (s *ListingRepoTestSuite) TestDowngradeByCustomer_Error() {
	s.mock.ExpectExec(regexp.QuoteMeta(downgradeSQL)).
		WithArgs("Free", "gray", "cus_1", "Free", "gray").
		WillReturnError(errors.New("deadlock detected"))

	_, err := s.repo.DowngradeByCustomer(s.ctx, "cus_1")
	s.ErrorContains(err, "failed to downgrade listings")
}

func (s *ListingRepoTestSuite) TestMarkPastDue() {
	s.mock.ExpectExec(regexp.QuoteMeta(pastDueSQL)).
		WithArgs("past_due", "active", "cus_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := s.repo.MarkPastDue(s.ctx, "cus_1")
	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *ListingRepoTestSuite) TestMarkPastDue_AlreadyPastDue() {
	s.mock.ExpectExec(regexp.QuoteMeta(pastDueSQL)).
		WithArgs("past_due", "active", "cus_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	n, err := s.repo.MarkPastDue(s.ctx, "cus_1")
	s.NoError(err)
	s.Zero(n)
}
