package report

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a report. Transitions only move forward:
// pending → approved|denied, approved → resolved. Denied and resolved are
// terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusResolved Status = "resolved"
	StatusDenied   Status = "denied"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusResolved, StatusDenied:
		return true
	}
	return false
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusDenied
	case StatusApproved:
		return to == StatusResolved
	}
	return false
}

// Category classifies an incident report.
type Category string

const (
	CategoryTheft      Category = "theft"
	CategoryAssault    Category = "assault"
	CategoryVandalism  Category = "vandalism"
	CategorySuspicious Category = "suspicious"
	CategoryNoise      Category = "noise"
	CategoryOther      Category = "other"
)

// Valid reports whether the category is one of the known incident kinds.
func (c Category) Valid() bool {
	switch c {
	case CategoryTheft, CategoryAssault, CategoryVandalism, CategorySuspicious, CategoryNoise, CategoryOther:
		return true
	}
	return false
}

// Report is an incident filed by a resident. AuthorID is set at creation and
// never changes. EvidenceRef is an opaque string; the service never decodes it.
type Report struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Category      Category  `json:"category"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	EvidenceRef   string    `json:"evidence_ref,omitempty"`
	VictimName    string    `json:"victim_name,omitempty"`
	VictimContact string    `json:"victim_contact,omitempty"`
	Status        Status    `json:"status"`
	AdminResponse string    `json:"admin_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateInput carries the fields a resident submits with a new report.
type CreateInput struct {
	Category      Category
	Title         string
	Description   string
	Location      string
	EvidenceRef   string
	VictimName    string
	VictimContact string
}

var (
	ErrNotFound          = errors.New("report: not found")
	ErrInvalidInput      = errors.New("report: invalid input")
	ErrInvalidTransition = errors.New("report: invalid transition")
)
