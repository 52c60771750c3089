package registrations

import (
	"regexp"
	"strings"
)

// Matches the local@domain.tld shape; anything stricter belongs to a
// verification email, not an input check.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest is the body for POST /register.
type RegisterRequest struct {
	TeamName    string   `json:"team_name"`
	Idea        string   `json:"idea"`
	LeaderName  string   `json:"leader_name"`
	LeaderEmail string   `json:"leader_email"`
	Members     []string `json:"members"`
}

// Normalize trims every field and lowercases the leader email.
func (r *RegisterRequest) Normalize() {
	r.TeamName = strings.TrimSpace(r.TeamName)
	r.Idea = strings.TrimSpace(r.Idea)
	r.LeaderName = strings.TrimSpace(r.LeaderName)
	r.LeaderEmail = strings.ToLower(strings.TrimSpace(r.LeaderEmail))
	for i, m := range r.Members {
		r.Members[i] = strings.TrimSpace(m)
	}
}

// Validate checks required fields on an already-normalized request.
func (r *RegisterRequest) Validate() *ValidationError {
	switch {
	case r.TeamName == "":
		return &ValidationError{Field: "team_name", Message: "Team name is required"}
	case r.Idea == "":
		return &ValidationError{Field: "idea", Message: "Idea is required"}
	case r.LeaderName == "":
		return &ValidationError{Field: "leader_name", Message: "Leader name is required"}
	case r.LeaderEmail == "":
		return &ValidationError{Field: "leader_email", Message: "Leader email is required"}
	case !emailPattern.MatchString(r.LeaderEmail):
		return &ValidationError{Field: "leader_email", Message: "Invalid email format"}
	}
	for _, m := range r.Members {
		if m == "" {
			return &ValidationError{Field: "members", Message: "Member names must not be blank"}
		}
	}
	return nil
}
