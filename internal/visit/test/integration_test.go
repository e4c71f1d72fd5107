package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	e "github.com/snyce/visitgate/internal/visit/errors"
	"github.com/snyce/visitgate/internal/visit/events"
	"github.com/snyce/visitgate/internal/visit/lifecycle"
	"github.com/snyce/visitgate/internal/visit/models"
	"github.com/snyce/visitgate/internal/visit/report"
	"github.com/snyce/visitgate/internal/visit/store"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// noopProducer satisfies the engine's producer without a broker.
type noopProducer struct{}

func (noopProducer) Produce(events.EventType, *models.Visit) {}

// IntegrationTestSuite exercises the lifecycle engine and the report
// engine end to end against a real SQLite-backed record store.
type IntegrationTestSuite struct {
	suite.Suite
	repo    *store.Repository
	engine  *lifecycle.Engine
	reports *report.Engine
	ctx     context.Context
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupTest() {
	repo, err := store.NewSQLiteRepository(":memory:")
	s.Require().NoError(err, "store initialization failed")

	s.repo = repo
	s.engine = lifecycle.NewEngine(repo, noopProducer{}, zap.NewNop())
	s.reports = report.NewEngine(time.UTC)
	s.ctx = context.Background()
}

func (s *IntegrationTestSuite) submit() (*models.Visit, *models.Approval) {
	visit, approval, err := s.engine.Submit(s.ctx, &models.VisitSubmission{
		Name:      "Charlie Davis",
		Email:     "charlie@freelance.com",
		Phone:     "555-0103",
		Gender:    "MALE",
		IDProof:   "DL-44",
		CompanyID: uuid.New(),
		HostID:    uuid.New(),
		Type:      models.TypeInterview,
	})
	s.Require().NoError(err)
	return visit, approval
}

// TestWalkInFlow drives the composite walk-in path through the real
// store: the approval id goes in, a checked-in visit comes out.
func (s *IntegrationTestSuite) TestWalkInFlow() {
	visit, approval := s.submit()

	result := s.engine.ApproveAndCheckIn(s.ctx, approval.ID)
	s.Require().Equal(lifecycle.FullSuccess, result.Outcome)
	s.Equal(visit.ID, result.Visit.ID)
	s.Equal(models.StatusCheckedIn, result.Visit.Status)
	s.Require().NotNil(result.Visit.InTime)

	// The composite is not idempotent: running it again hits the guard.
	again := s.engine.ApproveAndCheckIn(s.ctx, approval.ID)
	s.Equal(lifecycle.ApproveFailed, again.Outcome)
	s.ErrorIs(again.Err, e.ErrInvalidTransition)
}

// TestPreRegisteredFlow walks the two-step path: approve now, check in
// on arrival, check out on departure.
func (s *IntegrationTestSuite) TestPreRegisteredFlow() {
	visit, approval := s.submit()

	approved, err := s.engine.Approve(s.ctx, approval.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)

	_, err = s.engine.Reject(s.ctx, approval.ID)
	s.ErrorIs(err, e.ErrInvalidTransition, "a decided visit cannot be re-decided")

	checkedIn, err := s.engine.CheckIn(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Require().NotNil(checkedIn.InTime)

	checkedOut, err := s.engine.CheckOut(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCheckedOut, checkedOut.Status)
	s.Require().NotNil(checkedOut.OutTime)
}

// TestBulkCheckOut clears several on-site visitors and verifies the
// per-id outcome against the store.
func (s *IntegrationTestSuite) TestBulkCheckOut() {
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		visit, approval := s.submit()
		res := s.engine.ApproveAndCheckIn(s.ctx, approval.ID)
		s.Require().Equal(lifecycle.FullSuccess, res.Outcome)
		ids = append(ids, visit.ID)
	}
	pendingVisit, _ := s.submit() // never checked in, must fail

	result := s.engine.CheckOutAll(s.ctx, append(ids, pendingVisit.ID))
	s.Len(result.Succeeded, 4)
	s.Len(result.Failed, 1)
	s.ErrorIs(result.Failed[pendingVisit.ID], e.ErrInvalidTransition)

	active, err := s.repo.FetchActiveVisits(s.ctx)
	s.Require().NoError(err)
	s.Empty(active, "no visitor should remain on-site")
}

// TestReportOverStore aggregates and exports real store data.
func (s *IntegrationTestSuite) TestReportOverStore() {
	_, approval := s.submit()
	res := s.engine.ApproveAndCheckIn(s.ctx, approval.ID)
	s.Require().Equal(lifecycle.FullSuccess, res.Outcome)
	s.submit() // stays pending

	visits, err := s.repo.FetchHistory(s.ctx)
	s.Require().NoError(err)

	stats := s.reports.Stats(visits)
	s.Equal(1, stats.TotalToday)
	s.Equal(1, stats.Active)
	s.Equal(1, stats.Pending)

	rows := s.reports.Rows(visits, nil, nil)
	s.Require().Len(rows, 2)

	data, err := report.Export(rows)
	s.Require().NoError(err)
	s.NotEmpty(data)
}
