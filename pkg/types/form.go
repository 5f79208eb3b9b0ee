package types

import (
	"time"
)

type FormStatus string

const (
	FormStatusSubmitted FormStatus = "SUBMITTED"
	FormStatusApproved  FormStatus = "APPROVED"
	FormStatusRejected  FormStatus = "REJECTED"
)

// Valid reports whether s is one of the known submission states.
func (s FormStatus) Valid() bool {
	switch s {
	case FormStatusSubmitted, FormStatusApproved, FormStatusRejected:
		return true
	}
	return false
}

// Decided reports whether s is a coordinator decision, as opposed to
// the initial SUBMITTED state.
func (s FormStatus) Decided() bool {
	return s == FormStatusApproved || s == FormStatusRejected
}

// Form is a volunteer's post-activity submission for a single program.
// A volunteer files at most one form per program; its status is
// mutated only by a coordinator decision.
type Form struct {
	ID            string     `db:"id" json:"id"`
	VolunteerID   string     `db:"volunteer_id" json:"volunteerId"`
	ProgramID     string     `db:"program_id" json:"programId"`
	DateCompleted time.Time  `db:"date_completed" json:"dateCompleted"`
	Feedback      string     `db:"feedback" json:"feedback"`
	Images        []string   `db:"images" json:"images"` // object-storage keys
	Status        FormStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}
