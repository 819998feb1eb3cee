package model

import "time"

// Contact is a voter or supporter record in the office's base.
type Contact struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Neighborhood string    `json:"neighborhood" db:"neighborhood"`
	City         string    `json:"city" db:"city"`
	Tags         string    `json:"tags" db:"tags"` // comma separated
	Notes        string    `json:"notes" db:"notes"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Demand statuses form the columns of the kanban board. Transitions are free
// between any two statuses; the set itself is closed.
const (
	DemandOpen       = "aberta"
	DemandInProgress = "em_andamento"
	DemandResolved   = "resolvida"
	DemandArchived   = "arquivada"
)

// ValidDemandStatus reports whether s is a known demand status.
func ValidDemandStatus(s string) bool {
	switch s {
	case DemandOpen, DemandInProgress, DemandResolved, DemandArchived:
		return true
	}
	return false
}

// Demand is a constituent request or ticket tracked by the office.
type Demand struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	Priority    int       `json:"priority" db:"priority"`
	ContactID   *int64    `json:"contact_id,omitempty" db:"contact_id"`
	AssigneeID  *int64    `json:"assignee_id,omitempty" db:"assignee_id"`
	CreatedBy   int64     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Event is an entry in the office's shared agenda.
type Event struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Location  string    `json:"location" db:"location"`
	Notes     string    `json:"notes" db:"notes"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time `json:"ends_at" db:"ends_at"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Lead is a prospect captured through a public landing page, submitted by an
// API-key-authenticated integration.
type Lead struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Source    string    `json:"source" db:"source"`
	APIKeyID  int64     `json:"api_key_id" db:"api_key_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SurveyResponse is a single answer set submitted against a public survey
// landing page. Answers are stored as raw JSON; survey templates themselves
// are managed elsewhere.
type SurveyResponse struct {
	ID         int64     `json:"id" db:"id"`
	SurveySlug string    `json:"survey_slug" db:"survey_slug"`
	Answers    string    `json:"answers" db:"answers"`
	APIKeyID   int64     `json:"api_key_id" db:"api_key_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
