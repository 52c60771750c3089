package registrations

import (
	"testing"

	"github.com/gdg-soe/ticketing/internal/models"
)

func TestFilter(t *testing.T) {
	list := []models.Registration{
		{TeamName: "Bit Benders", TicketID: "GDG_SOE-AB12CD34", LeaderName: "Ana"},
		{TeamName: "Null Pointers", TicketID: "GDG_SOE-ZZ99YY88", LeaderName: "Ben"},
		{TeamName: "Stack Smashers", TicketID: "GDG_SOE-QQ11WW22", LeaderName: "Anaïs"},
	}

	tests := []struct {
		name string
		term string
		want int
	}{
		{"empty term returns all", "", 3},
		{"whitespace term returns all", "   ", 3},
		{"team name substring", "bend", 1},
		{"case-insensitive team name", "NULL", 1},
		{"ticket id substring", "zz99", 1},
		{"leader name substring", "ana", 2},
		{"no match", "does-not-exist", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(list, tt.term)
			if len(got) != tt.want {
				t.Errorf("Filter(%q) returned %d records, want %d", tt.term, len(got), tt.want)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	list := []models.Registration{
		{TeamName: "Team B", LeaderName: "Ana"},
		{TeamName: "Team A", LeaderName: "Ana"},
	}
	got := Filter(list, "ana")
	if len(got) != 2 || got[0].TeamName != "Team B" {
		t.Errorf("Filter reordered results: %v", got)
	}
}
