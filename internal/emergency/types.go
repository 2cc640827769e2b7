package emergency

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an emergency. Transitions only move
// active → responded → resolved; resolved is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusResponded Status = "responded"
	StatusResolved  Status = "resolved"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResponded, StatusResolved:
		return true
	}
	return false
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusResponded
	case StatusResponded:
		return to == StatusResolved
	}
	return false
}

// Type classifies the alert a resident triggered.
type Type string

const (
	TypeFire     Type = "fire"
	TypeAccident Type = "accident"
	TypeViolence Type = "violence"
	TypeMedical  Type = "medical"
	TypeGeneral  Type = "general"
)

// Valid reports whether the type is one of the known alert kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeFire, TypeAccident, TypeViolence, TypeMedical, TypeGeneral:
		return true
	}
	return false
}

// Emergency is an alert triggered by a resident. RespondingAdminID is bound
// by the first admin transition and never changes afterwards; ResolvedAt is
// stamped exactly once, when the status becomes resolved.
type Emergency struct {
	ID                string     `json:"id"`
	AuthorID          string     `json:"author_id"`
	Type              Type       `json:"type"`
	Location          string     `json:"location"`
	Status            Status     `json:"status"`
	RespondingAdminID string     `json:"responding_admin_id,omitempty"`
	ResponseNotes     string     `json:"response_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

var (
	ErrNotFound          = errors.New("emergency: not found")
	ErrInvalidInput      = errors.New("emergency: invalid input")
	ErrInvalidTransition = errors.New("emergency: invalid transition")
)
