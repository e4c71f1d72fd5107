// Package store implements the Visit Record Store on top of GORM. It
// is the single authority for visit status guards: every transition is
// a conditional update keyed on the current status, so a stale caller
// gets ErrInvalidTransition instead of silently re-applying a move.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	e "github.com/snyce/visitgate/internal/visit/errors"
	"github.com/snyce/visitgate/internal/visit/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

// NewSQLiteRepository opens a SQLite-backed store, used for local
// development and integration tests. ":memory:" gives a throwaway
// database.
func NewSQLiteRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from splitting per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Visit{},
		&models.Approval{},
		&models.Company{},
		&models.Host{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// FetchHistory returns every visit on record, newest submissions first.
func (r *Repository) FetchHistory(ctx context.Context) ([]models.Visit, error) {
	var visits []models.Visit
	result := r.db.WithContext(ctx).Order("request_time DESC").Find(&visits)
	if result.Error != nil {
		return nil, result.Error
	}
	return visits, nil
}

// FetchPendingApprovals returns visits still awaiting a decision.
func (r *Repository) FetchPendingApprovals(ctx context.Context) ([]models.Visit, error) {
	return r.fetchByStatus(ctx, models.StatusPending)
}

// FetchActiveVisits returns visits currently on-site.
func (r *Repository) FetchActiveVisits(ctx context.Context) ([]models.Visit, error) {
	return r.fetchByStatus(ctx, models.StatusCheckedIn)
}

func (r *Repository) fetchByStatus(ctx context.Context, status models.VisitStatus) ([]models.Visit, error) {
	var visits []models.Visit
	result := r.db.WithContext(ctx).Where("status = ?", status).
		Order("request_time DESC").Find(&visits)
	if result.Error != nil {
		return nil, result.Error
	}
	return visits, nil
}

func (r *Repository) GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	var visit models.Visit
	result := r.db.WithContext(ctx).First(&visit, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &visit, nil
}

// SubmitVisit creates a PENDING visit and its approval shadow record.
// The returned approval carries both its own id and the visit id.
func (r *Repository) SubmitVisit(ctx context.Context, sub *models.VisitSubmission) (*models.Visit, *models.Approval, error) {
	visit := &models.Visit{
		ID:          uuid.New(),
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Gender:      sub.Gender,
		IDProof:     sub.IDProof,
		PhotoURL:    sub.PhotoURL,
		CompanyID:   sub.CompanyID,
		HostID:      sub.HostID,
		Type:        sub.Type,
		Status:      models.StatusPending,
		RequestTime: r.now(),
	}
	approval := &models.Approval{
		ID:      uuid.New(),
		VisitID: visit.ID,
	}

	err := r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.Create(visit).Error; err != nil {
			return err
		}
		return tx.db.Create(approval).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to submit visit: %w", err)
	}
	return visit, approval, nil
}

// ResolveApproval maps an approval id to its visit id. Some callers
// hold only the approval id after a decision; the composite check-in
// needs the visit id.
func (r *Repository) ResolveApproval(ctx context.Context, approvalID uuid.UUID) (uuid.UUID, error) {
	var approval models.Approval
	result := r.db.WithContext(ctx).First(&approval, "id = ?", approvalID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return uuid.Nil, e.ErrNotFound
		}
		return uuid.Nil, result.Error
	}
	if approval.VisitID == uuid.Nil {
		return uuid.Nil, e.ErrMissingVisitReference
	}
	return approval.VisitID, nil
}

// Approve moves a PENDING visit to APPROVED.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	return r.transition(ctx, id, models.StatusPending, map[string]interface{}{
		"status": models.StatusApproved,
	})
}

// Reject moves a PENDING visit to REJECTED.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	return r.transition(ctx, id, models.StatusPending, map[string]interface{}{
		"status": models.StatusRejected,
	})
}

// CheckIn moves an APPROVED visit to CHECKED_IN and stamps InTime.
func (r *Repository) CheckIn(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	return r.transition(ctx, id, models.StatusApproved, map[string]interface{}{
		"status":  models.StatusCheckedIn,
		"in_time": r.now(),
	})
}

// CheckOut moves a CHECKED_IN visit to CHECKED_OUT and stamps OutTime.
func (r *Repository) CheckOut(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	return r.transition(ctx, id, models.StatusCheckedIn, map[string]interface{}{
		"status":   models.StatusCheckedOut,
		"out_time": r.now(),
	})
}

// transition performs a conditional update guarded on the current
// status. Zero rows affected means either the visit does not exist or
// its status disallows the move; a follow-up probe tells the two apart.
func (r *Repository) transition(ctx context.Context, id uuid.UUID, from models.VisitStatus, updates map[string]interface{}) (*models.Visit, error) {
	result := r.db.WithContext(ctx).Model(&models.Visit{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Visit{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("%w: visit %s is not %s", e.ErrInvalidTransition, id, from)
	}
	return r.GetVisit(ctx, id)
}

func (r *Repository) FetchCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).Order("name").Find(&companies)
	if result.Error != nil {
		return nil, result.Error
	}
	return companies, nil
}

func (r *Repository) FetchHosts(ctx context.Context) ([]models.Host, error) {
	var hosts []models.Host
	result := r.db.WithContext(ctx).Order("name").Find(&hosts)
	if result.Error != nil {
		return nil, result.Error
	}
	return hosts, nil
}

// FetchHostsByCompany filters hosts by company. Zero rows is a valid
// result, not an error.
func (r *Repository) FetchHostsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Host, error) {
	var hosts []models.Host
	result := r.db.WithContext(ctx).Where("company_id = ?", companyID).
		Order("name").Find(&hosts)
	if result.Error != nil {
		return nil, result.Error
	}
	return hosts, nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	company.ID = uuid.New()
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: duplicate company name", e.ErrInvalidInput)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) CreateHost(ctx context.Context, host *models.Host) error {
	host.ID = uuid.New()
	result := r.db.WithContext(ctx).Create(host)
	return result.Error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, now: r.now})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
