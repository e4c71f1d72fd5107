// Package lifecycle implements the core business logic for visit state
// transitions, orchestrating record store operations and sending
// relevant events. The status guard itself lives store-side; the
// engine sequences the calls, classifies the failures, and never
// retries on its own.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	e "github.com/snyce/visitgate/internal/visit/errors"
	"github.com/snyce/visitgate/internal/visit/events"
	"github.com/snyce/visitgate/internal/visit/models"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, visit *models.Visit)
}

// Store defines the record store interface the engine drives. The
// transition methods enforce the status guard and return
// ErrInvalidTransition when the current status disallows the move.
type Store interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	SubmitVisit(ctx context.Context, sub *models.VisitSubmission) (*models.Visit, *models.Approval, error)
	ResolveApproval(ctx context.Context, approvalID uuid.UUID) (uuid.UUID, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	CheckIn(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	CheckOut(ctx context.Context, id uuid.UUID) (*models.Visit, error)
}

// Outcome enumerates the result variants of the composite
// approve-and-check-in operation.
type Outcome string

const (
	// FullSuccess means both the approval and the check-in landed.
	FullSuccess Outcome = "FULL_SUCCESS"
	// ApproveFailed means the approval step failed and nothing changed.
	ApproveFailed Outcome = "APPROVE_FAILED"
	// ApprovedButCheckInFailed means the visit is now APPROVED but the
	// check-in did not land; the operator must retry check-in manually.
	ApprovedButCheckInFailed Outcome = "APPROVED_BUT_CHECKIN_FAILED"
)

// CompositeResult reports the outcome of ApproveAndCheckIn. Visit holds
// the latest known state of the record (approved or checked in); Err is
// the step error for the two failure variants.
type CompositeResult struct {
	Outcome Outcome
	Visit   *models.Visit
	Err     error
}

// Engine validates and executes state transitions on visits.
type Engine struct {
	store    Store
	producer EventProducer
	validate *validator.Validate
	logger   *zap.Logger
}

// NewEngine constructs an Engine with a record store, an event
// producer, and a logger.
func NewEngine(store Store, producer EventProducer, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		producer: producer,
		validate: validator.New(),
		logger:   logger.Named("lifecycle_engine"),
	}
}

// Submit validates a submission and creates a PENDING visit with its
// approval shadow record.
func (en *Engine) Submit(ctx context.Context, sub *models.VisitSubmission) (*models.Visit, *models.Approval, error) {
	if err := en.validate.Struct(sub); err != nil {
		fields := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return nil, nil, &e.ValidationError{Fields: fields}
	}

	visit, approval, err := en.store.SubmitVisit(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		en.producer.Produce(events.VisitSubmitted, visit)
	}()
	return visit, approval, nil
}

// Approve moves a PENDING visit to APPROVED. The id may be either a
// visit id or an approval id; an approval is resolved to its visit
// first. Applying approve to an already-decided visit is a hard error,
// not a no-op.
func (en *Engine) Approve(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	visit, err := en.store.Approve(ctx, en.resolve(ctx, id))
	if err != nil {
		return nil, err
	}
	go func() {
		en.producer.Produce(events.VisitApproved, visit)
	}()
	return visit, nil
}

// Reject moves a PENDING visit to REJECTED. Accepts a visit or
// approval id like Approve.
func (en *Engine) Reject(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	visit, err := en.store.Reject(ctx, en.resolve(ctx, id))
	if err != nil {
		return nil, err
	}
	go func() {
		en.producer.Produce(events.VisitRejected, visit)
	}()
	return visit, nil
}

// resolve maps an approval id to its visit id when the caller handed
// one in; ids that are not approvals pass through unchanged and fail,
// if at all, at the transition guard.
func (en *Engine) resolve(ctx context.Context, id uuid.UUID) uuid.UUID {
	visitID, err := en.store.ResolveApproval(ctx, id)
	if err != nil {
		return id
	}
	return visitID
}

// CheckIn moves an APPROVED visit to CHECKED_IN.
func (en *Engine) CheckIn(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	visit, err := en.store.CheckIn(ctx, id)
	if err != nil {
		return nil, err
	}
	go func() {
		en.producer.Produce(events.VisitCheckedIn, visit)
	}()
	return visit, nil
}

// CheckOut moves a CHECKED_IN visit to CHECKED_OUT.
func (en *Engine) CheckOut(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	visit, err := en.store.CheckOut(ctx, id)
	if err != nil {
		return nil, err
	}
	go func() {
		en.producer.Produce(events.VisitCheckedOut, visit)
	}()
	return visit, nil
}

// ApproveAndCheckIn runs approve and, only if it succeeds, check-in on
// the visit the approval resolves to. The two steps are not atomic: a
// check-in failure leaves the visit APPROVED and is reported as the
// distinct ApprovedButCheckInFailed outcome rather than a generic
// error, so the operator knows a manual check-in retry is still needed.
func (en *Engine) ApproveAndCheckIn(ctx context.Context, approvalID uuid.UUID) *CompositeResult {
	approved, err := en.Approve(ctx, approvalID)
	if err != nil {
		return &CompositeResult{Outcome: ApproveFailed, Err: err}
	}

	// The approval result is authoritative for the downstream id.
	checkInID := approved.ID
	if checkInID == uuid.Nil {
		en.logger.Warn("approved visit carries no identifier for check-in",
			zap.String("approval_id", approvalID.String()),
		)
		return &CompositeResult{
			Outcome: ApprovedButCheckInFailed,
			Visit:   approved,
			Err:     fmt.Errorf("%w: approval %s", e.ErrMissingVisitReference, approvalID),
		}
	}

	checkedIn, err := en.CheckIn(ctx, checkInID)
	if err != nil {
		en.logger.Warn("visit approved but check-in failed",
			zap.Error(err),
			zap.String("visit_id", checkInID.String()),
		)
		return &CompositeResult{Outcome: ApprovedButCheckInFailed, Visit: approved, Err: err}
	}

	return &CompositeResult{Outcome: FullSuccess, Visit: checkedIn}
}
