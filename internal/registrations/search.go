package registrations

import (
	"strings"

	"github.com/gdg-soe/ticketing/internal/models"
)

// Filter returns the registrations whose team name, ticket id or leader
// name contains term, case-insensitively. An empty term returns the input
// unchanged. The match runs over the already-fetched set; at event scale
// there is nothing to index.
func Filter(list []models.Registration, term string) []models.Registration {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var out []models.Registration
	for _, reg := range list {
		if strings.Contains(strings.ToLower(reg.TeamName), term) ||
			strings.Contains(strings.ToLower(reg.TicketID), term) ||
			strings.Contains(strings.ToLower(reg.LeaderName), term) {
			out = append(out, reg)
		}
	}
	return out
}
