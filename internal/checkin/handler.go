// Package checkin marks tickets as used at the door and verifies them.
package checkin

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gdg-soe/ticketing/internal/models"
	"github.com/gdg-soe/ticketing/internal/registrations"
	"github.com/gdg-soe/ticketing/pkg/response"
)

// Store is the slice of the registration store check-in needs.
type Store interface {
	CheckIn(ctx context.Context, ticketID string) (*models.Registration, error)
	GetByTicketID(ctx context.Context, ticketID string) (*models.Registration, error)
}

// Feed broadcasts events to the admin dashboard. Optional.
type Feed interface {
	Publish(ctx context.Context, event string, payload any) error
}

// CheckInRequest is the body for POST /checkin.
type CheckInRequest struct {
	TicketID string `json:"ticket_id"`
}

// Handler handles check-in HTTP endpoints.
type Handler struct {
	store  Store
	feed   Feed
	logger *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// SetFeed wires the optional admin event feed.
func (h *Handler) SetFeed(feed Feed) { h.feed = feed }

// CheckIn handles POST /checkin. The pending-to-checked-in transition is a
// single conditional write in the store, so a ticket scanned by two admins
// at once checks in exactly once; the loser gets the conflict with the
// earlier record.
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ticketID := strings.TrimSpace(req.TicketID)
	if ticketID == "" {
		response.BadRequest(c, "Ticket ID is required")
		return
	}

	reg, err := h.store.CheckIn(c.Request.Context(), ticketID)
	if err != nil {
		var conflict *registrations.AlreadyCheckedInError
		switch {
		case errors.Is(err, registrations.ErrNotFound):
			response.NotFound(c, "Invalid ticket ID - Team not found")
		case errors.As(err, &conflict):
			response.ConflictData(c, "Team already checked in", gin.H{"team": conflict.Registration.Summary()})
		default:
			h.logger.Error("check in", zap.Error(err), zap.String("ticket_id", ticketID))
			response.Internal(c, "Check-in failed. Please try again.")
		}
		return
	}

	h.logger.Info("ticket checked in",
		zap.String("ticket_id", reg.TicketID),
		zap.String("team_name", reg.TeamName),
	)
	h.publish(c.Request.Context(), "checkin.completed", gin.H{
		"ticket_id":     reg.TicketID,
		"team_name":     reg.TeamName,
		"checked_in_at": reg.CheckedInAt,
	})
	response.OK(c, gin.H{"message": "Check-in successful", "team": reg})
}

// Verify handles GET /verify?ticketId=. Read-only lookup for the scanner;
// never mutates the record.
func (h *Handler) Verify(c *gin.Context) {
	ticketID := strings.TrimSpace(c.Query("ticketId"))
	if ticketID == "" {
		response.BadRequest(c, "Ticket ID is required")
		return
	}

	reg, err := h.store.GetByTicketID(c.Request.Context(), ticketID)
	if errors.Is(err, registrations.ErrNotFound) {
		response.NotFound(c, "Invalid ticket ID")
		return
	}
	if err != nil {
		h.logger.Error("verify ticket", zap.Error(err), zap.String("ticket_id", ticketID))
		response.Internal(c, "Verification failed")
		return
	}
	response.OK(c, gin.H{"team": reg})
}

func (h *Handler) publish(ctx context.Context, event string, payload any) {
	if h.feed == nil {
		return
	}
	if err := h.feed.Publish(ctx, event, payload); err != nil {
		h.logger.Warn("publish event", zap.Error(err), zap.String("event", event))
	}
}
