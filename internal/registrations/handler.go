package registrations

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gdg-soe/ticketing/internal/middleware"
	"github.com/gdg-soe/ticketing/internal/models"
	"github.com/gdg-soe/ticketing/internal/ticket"
	"github.com/gdg-soe/ticketing/pkg/response"
)

// maxTicketAttempts bounds regeneration when a generated ticket id hits
// the unique index. At 36^8 ids a single collision is already unlikely.
const maxTicketAttempts = 3

// Feed broadcasts events to the admin dashboard. Optional.
type Feed interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Archive stores ticket QR images and issues download URLs. Optional.
type Archive interface {
	PutTicketImage(ctx context.Context, ticketID string, png []byte) error
	TicketImageURL(ctx context.Context, ticketID string) (string, error)
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	store   Store
	gen     *ticket.Generator
	enc     *ticket.Encoder
	limit   int
	feed    Feed
	archive Archive
	logger  *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(store Store, gen *ticket.Generator, enc *ticket.Encoder, limit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, gen: gen, enc: enc, limit: limit, logger: logger}
}

// SetFeed wires the optional admin event feed.
func (h *Handler) SetFeed(feed Feed) { h.feed = feed }

// SetArchive wires the optional S3 ticket-image archive.
func (h *Handler) SetArchive(archive Archive) { h.archive = archive }

// Register handles POST /register. Validates the team profile, allocates a
// unique ticket id and returns it with its QR code.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Normalize()
	if verr := req.Validate(); verr != nil {
		response.BadRequest(c, verr.Message)
		return
	}

	reg := &models.Registration{
		TeamName:    req.TeamName,
		Idea:        req.Idea,
		LeaderName:  req.LeaderName,
		LeaderEmail: req.LeaderEmail,
		Members:     req.Members,
	}
	if reg.Members == nil {
		reg.Members = []string{}
	}

	created := false
	for attempt := 1; attempt <= maxTicketAttempts; attempt++ {
		id, err := h.gen.NewID()
		if err != nil {
			h.logger.Error("generate ticket id", zap.Error(err))
			response.Internal(c, "Registration failed. Please try again.")
			return
		}
		reg.TicketID = id

		err = h.store.Create(c.Request.Context(), reg, h.limit)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, ErrTicketIDTaken) {
			h.logger.Warn("ticket id collision, regenerating", zap.String("ticket_id", id), zap.Int("attempt", attempt))
			continue
		}
		switch {
		case errors.Is(err, ErrCapacityReached):
			response.Forbidden(c, "Registration closed: limit reached")
		case errors.Is(err, ErrDuplicateEmail):
			response.Conflict(c, "This email is already registered")
		default:
			h.logger.Error("create registration", zap.Error(err), zap.String("leader_email", reg.LeaderEmail))
			response.Internal(c, "Registration failed. Please try again.")
		}
		return
	}
	if !created {
		h.logger.Error("ticket id attempts exhausted", zap.Int("attempts", maxTicketAttempts))
		response.Internal(c, "Registration failed. Please try again.")
		return
	}

	qr, err := h.enc.DataURL(reg.TicketID)
	if err != nil {
		h.logger.Error("encode ticket qr", zap.Error(err), zap.String("ticket_id", reg.TicketID))
		response.Internal(c, "Failed to generate ticket code")
		return
	}

	h.archiveTicket(c.Request.Context(), reg.TicketID)
	h.publish(c.Request.Context(), "registration.created", gin.H{
		"ticket_id": reg.TicketID,
		"team_name": reg.TeamName,
	})

	response.Created(c, gin.H{
		"ticket_id": reg.TicketID,
		"qr":        qr,
	})
}

// GetTicket handles GET /ticket. Identity-scoped: the registration is
// looked up by the authenticated account's email.
func (h *Handler) GetTicket(c *gin.Context) {
	email := c.GetString(middleware.ContextUserEmail)
	if email == "" {
		response.Unauthorized(c, "missing user context")
		return
	}

	total, err := h.store.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("count registrations", zap.Error(err))
		response.Internal(c, "Failed to fetch ticket")
		return
	}

	reg, err := h.store.GetByLeaderEmail(c.Request.Context(), email)
	if errors.Is(err, ErrNotFound) {
		response.NotFoundData(c, "Not registered", gin.H{
			"registered":          false,
			"total_registrations": total,
			"registration_limit":  h.limit,
		})
		return
	}
	if err != nil {
		h.logger.Error("get registration", zap.Error(err))
		response.Internal(c, "Failed to fetch ticket")
		return
	}

	qr, err := h.enc.DataURL(reg.TicketID)
	if err != nil {
		h.logger.Error("encode ticket qr", zap.Error(err), zap.String("ticket_id", reg.TicketID))
		response.Internal(c, "Failed to generate ticket code")
		return
	}

	data := gin.H{
		"registered":          true,
		"ticket_id":           reg.TicketID,
		"qr":                  qr,
		"team_name":           reg.TeamName,
		"idea":                reg.Idea,
		"leader_name":         reg.LeaderName,
		"leader_email":        reg.LeaderEmail,
		"members":             reg.Members,
		"created_at":          reg.CreatedAt,
		"total_registrations": total,
		"registration_limit":  h.limit,
	}
	if h.archive != nil {
		if url, err := h.archive.TicketImageURL(c.Request.Context(), reg.TicketID); err == nil {
			data["download_url"] = url
		}
	}
	response.OK(c, data)
}

// ListTeams handles GET /teams: all registrations newest first, optionally
// filtered by the q query over team name, ticket id and leader name.
func (h *Handler) ListTeams(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrations", zap.Error(err))
		response.Internal(c, "Failed to fetch teams")
		return
	}
	list = Filter(list, c.Query("q"))
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, gin.H{"teams": list})
}

// Count handles GET /registrations/count.
func (h *Handler) Count(c *gin.Context) {
	total, err := h.store.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("count registrations", zap.Error(err))
		response.Internal(c, "Failed to fetch count")
		return
	}
	response.OK(c, gin.H{"count": total, "limit": h.limit})
}

// archiveTicket uploads the ticket PNG to S3 when an archive is wired.
// Best-effort: the registration already exists, a missing archive copy
// costs nothing.
func (h *Handler) archiveTicket(ctx context.Context, ticketID string) {
	if h.archive == nil {
		return
	}
	png, err := h.enc.PNG(ticketID)
	if err != nil {
		h.logger.Warn("encode ticket png for archive", zap.Error(err), zap.String("ticket_id", ticketID))
		return
	}
	if err := h.archive.PutTicketImage(ctx, ticketID, png); err != nil {
		h.logger.Warn("archive ticket image", zap.Error(err), zap.String("ticket_id", ticketID))
	}
}

func (h *Handler) publish(ctx context.Context, event string, payload any) {
	if h.feed == nil {
		return
	}
	if err := h.feed.Publish(ctx, event, payload); err != nil {
		h.logger.Warn("publish event", zap.Error(err), zap.String("event", event))
	}
}
