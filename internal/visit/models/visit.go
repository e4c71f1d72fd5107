// Package models defines the core domain models for the visitor
// management service: Visit, Approval, Company, Host and the
// VisitStatus and VisitorType enumerations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus represents the lifecycle state of a visit.
type VisitStatus string

const (
	// StatusPending is the initial state of every submitted visit.
	StatusPending    VisitStatus = "PENDING"
	StatusApproved   VisitStatus = "APPROVED"
	StatusRejected   VisitStatus = "REJECTED"
	StatusCheckedIn  VisitStatus = "CHECKED_IN"
	StatusCheckedOut VisitStatus = "CHECKED_OUT"
)

// VisitorType classifies the visitor on a visit.
type VisitorType string

const (
	TypeGuest      VisitorType = "GUEST"
	TypeContractor VisitorType = "CONTRACTOR"
	TypeInterview  VisitorType = "INTERVIEW"
	TypeVendor     VisitorType = "VENDOR"
	TypeVIP        VisitorType = "VIP"
	TypeDelegate   VisitorType = "DELEGATE"
)

// Visit is a single attendance event for one visitor.
type Visit struct {
	// ID is the store-assigned identifier for the visit.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Name is the visitor's full name.
	Name    string `gorm:"size:120" json:"name"`
	Email   string `gorm:"size:254" json:"email"`
	Phone   string `gorm:"size:32" json:"phone"`
	Gender  string `gorm:"size:16" json:"gender"`
	IDProof string `gorm:"size:64" json:"idProof"`
	// PhotoURL is an opaque handle to the visitor photo; the core never
	// interprets it.
	PhotoURL string `gorm:"size:512" json:"photoUrl"`
	// CompanyID and HostID are weak references: lookup only, no ownership.
	CompanyID uuid.UUID   `gorm:"type:uuid;index" json:"companyId"`
	HostID    uuid.UUID   `gorm:"type:uuid;index" json:"hostId"`
	Type      VisitorType `gorm:"size:16" json:"visitorType"`
	Status    VisitStatus `gorm:"size:16;index" json:"status"`
	// RequestTime is set at submission. InTime and OutTime are set by the
	// check-in and check-out transitions respectively.
	RequestTime time.Time  `json:"requestTime"`
	InTime      *time.Time `json:"inTime"`
	OutTime     *time.Time `json:"outTime"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// PrimaryInstant is the instant a visit is reported under: InTime when
// present, RequestTime otherwise. The boolean is false when the visit
// carries no usable instant at all.
func (v *Visit) PrimaryInstant() (time.Time, bool) {
	if v.InTime != nil {
		return *v.InTime, true
	}
	if !v.RequestTime.IsZero() {
		return v.RequestTime, true
	}
	return time.Time{}, false
}

// Approval is the administrative decision record shadowing a Visit.
// Its ID is distinct from the visit's; callers holding an approval id
// must resolve VisitID before acting on the visit itself.
type Approval struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID   uuid.UUID `gorm:"type:uuid;index" json:"visitId"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Company is an organization visitors belong to.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex" json:"name"`
	Address   string    `gorm:"size:512" json:"address"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Host is an employee who receives visitors. Every host belongs to
// exactly one company.
type Host struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"size:120" json:"name"`
	Email      string    `gorm:"size:254" json:"email"`
	Phone      string    `gorm:"size:32" json:"phone"`
	Department string    `gorm:"size:120" json:"department"`
	CompanyID  uuid.UUID `gorm:"type:uuid;index" json:"companyId"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// VisitSubmission carries the fields a visitor supplies when requesting
// a visit. PhotoURL is optional and treated as an opaque blob handle.
type VisitSubmission struct {
	Name      string      `json:"name" validate:"required,min=2"`
	Email     string      `json:"email" validate:"required,email"`
	Phone     string      `json:"phone" validate:"required"`
	Gender    string      `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	IDProof   string      `json:"idProof" validate:"required"`
	PhotoURL  string      `json:"photoUrl" validate:"omitempty"`
	CompanyID uuid.UUID   `json:"companyId" validate:"required"`
	HostID    uuid.UUID   `json:"hostId" validate:"required"`
	Type      VisitorType `json:"visitorType" validate:"required,oneof=GUEST CONTRACTOR INTERVIEW VENDOR VIP DELEGATE"`
}
