// Package handlers exposes the visit service over HTTP, bridging the
// transport layer and the lifecycle, reporting, and live-feed
// components, and translating domain errors into status codes.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snyce/visitgate/internal/visit/lifecycle"
	"github.com/snyce/visitgate/internal/visit/live"
	"github.com/snyce/visitgate/internal/visit/models"
	"github.com/snyce/visitgate/internal/visit/report"
	"go.uber.org/zap"
)

// LifecycleController defines the business logic interface the HTTP
// handlers invoke for transitions.
type LifecycleController interface {
	Submit(ctx context.Context, sub *models.VisitSubmission) (*models.Visit, *models.Approval, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	CheckIn(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	CheckOut(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	ApproveAndCheckIn(ctx context.Context, approvalID uuid.UUID) *lifecycle.CompositeResult
	CheckOutAll(ctx context.Context, ids []uuid.UUID) *lifecycle.BulkResult
}

// RecordReader is the read/lookup surface of the record store the
// handlers serve directly.
type RecordReader interface {
	FetchHistory(ctx context.Context) ([]models.Visit, error)
	FetchPendingApprovals(ctx context.Context) ([]models.Visit, error)
	FetchActiveVisits(ctx context.Context) ([]models.Visit, error)
	FetchCompanies(ctx context.Context) ([]models.Company, error)
	FetchHosts(ctx context.Context) ([]models.Host, error)
	FetchHostsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Host, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	CreateHost(ctx context.Context, host *models.Host) error
}

// VisitHandler wires the HTTP routes to the service components.
type VisitHandler struct {
	engine  LifecycleController
	store   RecordReader
	reports *report.Engine
	feed    *live.Feed
	logger  *zap.Logger
}

func NewVisitHandler(engine LifecycleController, store RecordReader, reports *report.Engine, feed *live.Feed, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		engine:  engine,
		store:   store,
		reports: reports,
		feed:    feed,
		logger:  logger.Named("http_handler"),
	}
}

// Register handles visit submission. The photo travels as an opaque
// URL handle inside the payload.
func (h *VisitHandler) Register(c *gin.Context) {
	var sub models.VisitSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed submission: " + err.Error()})
		return
	}

	visit, approval, err := h.engine.Submit(c.Request.Context(), &sub)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visit": visit, "approval": approval})
}

func (h *VisitHandler) GetVisit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	visit, err := h.store.GetVisit(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (h *VisitHandler) Approve(c *gin.Context) {
	h.transition(c, h.engine.Approve)
}

func (h *VisitHandler) Reject(c *gin.Context) {
	h.transition(c, h.engine.Reject)
}

func (h *VisitHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.engine.CheckIn)
}

func (h *VisitHandler) CheckOut(c *gin.Context) {
	h.transition(c, h.engine.CheckOut)
}

func (h *VisitHandler) transition(c *gin.Context, op func(context.Context, uuid.UUID) (*models.Visit, error)) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	visit, err := op(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// ApproveAndCheckIn runs the composite walk-in operation. The partial
// success variant is reported with 200 and a distinct outcome so the
// client can tell the operator a manual check-in is still required.
func (h *VisitHandler) ApproveAndCheckIn(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	result := h.engine.ApproveAndCheckIn(c.Request.Context(), id)
	switch result.Outcome {
	case lifecycle.FullSuccess:
		c.JSON(http.StatusOK, gin.H{"outcome": result.Outcome, "visit": result.Visit})
	case lifecycle.ApprovedButCheckInFailed:
		c.JSON(http.StatusOK, gin.H{
			"outcome": result.Outcome,
			"visit":   result.Visit,
			"error":   result.Err.Error(),
		})
	default:
		h.abortWithError(c, result.Err)
	}
}

// CheckOutAll clears a set of on-site visitors with per-id outcomes.
func (h *VisitHandler) CheckOutAll(c *gin.Context) {
	var body struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed id list: " + err.Error()})
		return
	}

	result := h.engine.CheckOutAll(c.Request.Context(), body.IDs)
	failed := map[string]string{}
	for id, err := range result.Failed {
		failed[id.String()] = err.Error()
	}
	c.JSON(http.StatusOK, gin.H{"succeeded": result.Succeeded, "failed": failed})
}

func (h *VisitHandler) History(c *gin.Context) {
	h.listVisits(c, h.store.FetchHistory)
}

func (h *VisitHandler) ActiveVisits(c *gin.Context) {
	h.listVisits(c, h.store.FetchActiveVisits)
}

func (h *VisitHandler) PendingApprovals(c *gin.Context) {
	h.listVisits(c, h.store.FetchPendingApprovals)
}

func (h *VisitHandler) listVisits(c *gin.Context, fetch func(context.Context) ([]models.Visit, error)) {
	visits, err := fetch(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

// Stats serves the dashboard scalar counts.
func (h *VisitHandler) Stats(c *gin.Context) {
	visits, err := h.store.FetchHistory(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.reports.Stats(visits))
}

// StatusCounts serves per-status tallies for the status chart.
func (h *VisitHandler) StatusCounts(c *gin.Context) {
	visits, err := h.store.FetchHistory(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.reports.StatusCounts(visits))
}

// LiveChart serves the live feed's last-good snapshot.
func (h *VisitHandler) LiveChart(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Snapshot())
}

// Reports serves the filtered, newest-first report rows.
func (h *VisitHandler) Reports(c *gin.Context) {
	rows, filter, err := h.filteredRows(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	// Dropdown values come from the unfiltered rows so narrowing one
	// filter does not hide the other options.
	c.JSON(http.StatusOK, gin.H{
		"rows":      filter.Apply(rows),
		"filter":    filter,
		"hosts":     report.UniqueHosts(rows),
		"companies": report.UniqueCompanies(rows),
	})
}

// ExportReports streams the filtered view as an xlsx attachment. An
// empty filtered set reports "no data" instead of producing a file.
func (h *VisitHandler) ExportReports(c *gin.Context) {
	rows, filter, err := h.filteredRows(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	data, err := report.Export(filter.Apply(rows))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("Visitor_Report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *VisitHandler) filteredRows(c *gin.Context) ([]report.Row, *report.Filter, error) {
	var filter report.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return nil, nil, err
	}

	ctx := c.Request.Context()
	visits, err := h.store.FetchHistory(ctx)
	if err != nil {
		return nil, nil, err
	}
	companies, err := h.store.FetchCompanies(ctx)
	if err != nil {
		return nil, nil, err
	}
	hosts, err := h.store.FetchHosts(ctx)
	if err != nil {
		return nil, nil, err
	}

	return h.reports.Rows(visits, companies, hosts), &filter, nil
}

func (h *VisitHandler) ListCompanies(c *gin.Context) {
	companies, err := h.store.FetchCompanies(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *VisitHandler) CreateCompany(c *gin.Context) {
	var company models.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed company: " + err.Error()})
		return
	}
	if err := h.store.CreateCompany(c.Request.Context(), &company); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

// ListHosts returns all hosts, or only a company's hosts when the
// companyId query parameter is present. An empty result is valid.
func (h *VisitHandler) ListHosts(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("companyId"); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company ID"})
			return
		}
		hosts, err := h.store.FetchHostsByCompany(ctx, companyID)
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, hosts)
		return
	}

	hosts, err := h.store.FetchHosts(ctx)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, hosts)
}

func (h *VisitHandler) CreateHost(c *gin.Context) {
	var host models.Host
	if err := c.ShouldBindJSON(&host); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed host: " + err.Error()})
		return
	}
	if err := h.store.CreateHost(c.Request.Context(), &host); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, host)
}

func (h *VisitHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}
