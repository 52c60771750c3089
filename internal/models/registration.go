package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a team registration for the event. The leader email is
// the registering identity: at most one registration exists per email,
// and the ticket id is the public handle scanned at the door.
type Registration struct {
	ID          uuid.UUID  `json:"id"`
	TicketID    string     `json:"ticket_id"`
	TeamName    string     `json:"team_name"`
	Idea        string     `json:"idea"`
	LeaderName  string     `json:"leader_name"`
	LeaderEmail string     `json:"leader_email"`
	Members     []string   `json:"members"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CheckinSummary is the slice of a registration shown to the scanner when
// a ticket was already used (who checked in, and when).
type CheckinSummary struct {
	TicketID    string     `json:"ticket_id"`
	TeamName    string     `json:"team_name"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// Summary returns the check-in view of the registration.
func (r *Registration) Summary() CheckinSummary {
	return CheckinSummary{
		TicketID:    r.TicketID,
		TeamName:    r.TeamName,
		CheckedInAt: r.CheckedInAt,
	}
}
