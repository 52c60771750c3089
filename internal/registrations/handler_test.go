package registrations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gdg-soe/ticketing/internal/middleware"
	"github.com/gdg-soe/ticketing/internal/models"
	"github.com/gdg-soe/ticketing/internal/ticket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory Store with the same constraint semantics as
// the PostgreSQL repository.
type fakeStore struct {
	mu             sync.Mutex
	records        []*models.Registration
	ticketCollides int // first N creates fail with ErrTicketIDTaken
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) Create(_ context.Context, reg *models.Registration, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) >= limit {
		return ErrCapacityReached
	}
	for _, r := range f.records {
		if r.LeaderEmail == reg.LeaderEmail {
			return ErrDuplicateEmail
		}
	}
	if f.ticketCollides > 0 {
		f.ticketCollides--
		return ErrTicketIDTaken
	}
	for _, r := range f.records {
		if r.TicketID == reg.TicketID {
			return ErrTicketIDTaken
		}
	}
	reg.ID = uuid.New()
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	stored := *reg
	f.records = append(f.records, &stored)
	return nil
}

func (f *fakeStore) GetByLeaderEmail(_ context.Context, email string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.LeaderEmail == email {
			out := *r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) GetByTicketID(_ context.Context, ticketID string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.TicketID == ticketID {
			out := *r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) CheckIn(_ context.Context, ticketID string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.TicketID == ticketID {
			if r.CheckedIn {
				out := *r
				return nil, &AlreadyCheckedInError{Registration: &out}
			}
			now := time.Now()
			r.CheckedIn = true
			r.CheckedInAt = &now
			out := *r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) List(_ context.Context) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Registration, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0; i-- { // newest first
		out = append(out, *f.records[i])
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

func newTestRouter(store Store, limit int, email string) *gin.Engine {
	h := NewHandler(store, ticket.NewGenerator("GDG_SOE", 8), ticket.NewEncoder(128), limit, nil)
	r := gin.New()
	r.POST("/register", h.Register)
	r.GET("/registrations/count", h.Count)
	r.GET("/teams", h.ListTeams)
	r.GET("/ticket", func(c *gin.Context) {
		if email != "" {
			c.Set(middleware.ContextUserEmail, email)
		}
		h.GetTicket(c)
	})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, env
}

func validRequest() map[string]any {
	return map[string]any{
		"team_name":    "Bit Benders",
		"idea":         "Campus lost-and-found app",
		"leader_name":  "Ana",
		"leader_email": "ana@x.com",
		"members":      []string{"Raj", "Mei"},
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "")

	w, env := doJSON(t, r, http.MethodPost, "/register", validRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}
	ticketID, _ := env.Data["ticket_id"].(string)
	if !strings.HasPrefix(ticketID, "GDG_SOE-") {
		t.Errorf("ticket_id = %q, want GDG_SOE- prefix", ticketID)
	}
	qr, _ := env.Data["qr"].(string)
	if !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Errorf("qr %.40q is not a PNG data URL", qr)
	}

	stored, err := store.GetByTicketID(context.Background(), ticketID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if stored.CheckedIn || stored.CheckedInAt != nil {
		t.Error("new registration must not be checked in")
	}
	if len(stored.Members) != 2 {
		t.Errorf("members = %v, want 2 entries", stored.Members)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantMsg string
	}{
		{"empty team name", func(m map[string]any) { m["team_name"] = "  " }, "Team name is required"},
		{"empty idea", func(m map[string]any) { m["idea"] = "" }, "Idea is required"},
		{"empty leader name", func(m map[string]any) { m["leader_name"] = "" }, "Leader name is required"},
		{"empty email", func(m map[string]any) { m["leader_email"] = "" }, "Leader email is required"},
		{"malformed email", func(m map[string]any) { m["leader_email"] = "ana@x" }, "Invalid email format"},
		{"email with spaces", func(m map[string]any) { m["leader_email"] = "a na@x.com" }, "Invalid email format"},
		{"blank member", func(m map[string]any) { m["members"] = []string{"Raj", " "} }, "Member names must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r := newTestRouter(store, 70, "")
			body := validRequest()
			tt.mutate(body)

			w, env := doJSON(t, r, http.MethodPost, "/register", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
			if env.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", env.Error, tt.wantMsg)
			}
			if n, _ := store.Count(context.Background()); n != 0 {
				t.Errorf("count = %d after rejected request, want 0", n)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "")

	if w, _ := doJSON(t, r, http.MethodPost, "/register", validRequest()); w.Code != http.StatusCreated {
		t.Fatalf("first register: status %d", w.Code)
	}
	body := validRequest()
	body["team_name"] = "Other Team"
	w, env := doJSON(t, r, http.MethodPost, "/register", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env.Error != "This email is already registered" {
		t.Errorf("error = %q", env.Error)
	}
	if n, _ := store.Count(context.Background()); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestRegisterCapacity(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 1, "")

	if w, _ := doJSON(t, r, http.MethodPost, "/register", validRequest()); w.Code != http.StatusCreated {
		t.Fatalf("first register: status %d", w.Code)
	}
	body := validRequest()
	body["leader_email"] = "ben@x.com"
	w, env := doJSON(t, r, http.MethodPost, "/register", body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if env.Error != "Registration closed: limit reached" {
		t.Errorf("error = %q", env.Error)
	}
	if n, _ := store.Count(context.Background()); n != 1 {
		t.Errorf("count = %d after capacity rejection, want 1", n)
	}
}

func TestRegisterRetriesTicketCollision(t *testing.T) {
	store := newFakeStore()
	store.ticketCollides = 2 // two collisions, third attempt lands
	r := newTestRouter(store, 70, "")

	w, _ := doJSON(t, r, http.MethodPost, "/register", validRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 after retries", w.Code)
	}
	if n, _ := store.Count(context.Background()); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestRegisterExhaustsTicketRetries(t *testing.T) {
	store := newFakeStore()
	store.ticketCollides = maxTicketAttempts
	r := newTestRouter(store, 70, "")

	w, _ := doJSON(t, r, http.MethodPost, "/register", validRequest())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 after exhausted retries", w.Code)
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestGetTicketRegistered(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "ana@x.com")

	if w, _ := doJSON(t, r, http.MethodPost, "/register", validRequest()); w.Code != http.StatusCreated {
		t.Fatal("register failed")
	}
	w, env := doJSON(t, r, http.MethodGet, "/ticket", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if reg, _ := env.Data["registered"].(bool); !reg {
		t.Error("registered = false, want true")
	}
	if env.Data["team_name"] != "Bit Benders" {
		t.Errorf("team_name = %v", env.Data["team_name"])
	}
	if total, _ := env.Data["total_registrations"].(float64); total != 1 {
		t.Errorf("total_registrations = %v, want 1", env.Data["total_registrations"])
	}
	if limit, _ := env.Data["registration_limit"].(float64); limit != 70 {
		t.Errorf("registration_limit = %v, want 70", env.Data["registration_limit"])
	}
}

func TestGetTicketNotRegistered(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "ghost@x.com")

	w, env := doJSON(t, r, http.MethodGet, "/ticket", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if reg, ok := env.Data["registered"].(bool); !ok || reg {
		t.Errorf("registered = %v, want false", env.Data["registered"])
	}
	if _, ok := env.Data["registration_limit"]; !ok {
		t.Error("404 body must still report the registration limit")
	}
}

func TestCount(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "")

	doJSON(t, r, http.MethodPost, "/register", validRequest())
	w, env := doJSON(t, r, http.MethodGet, "/registrations/count", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if n, _ := env.Data["count"].(float64); n != 1 {
		t.Errorf("count = %v, want 1", env.Data["count"])
	}
	if limit, _ := env.Data["limit"].(float64); limit != 70 {
		t.Errorf("limit = %v, want 70", env.Data["limit"])
	}
}

func TestListTeams(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, 70, "")

	first := validRequest()
	doJSON(t, r, http.MethodPost, "/register", first)
	second := validRequest()
	second["team_name"] = "Null Pointers"
	second["leader_email"] = "ben@x.com"
	doJSON(t, r, http.MethodPost, "/register", second)

	w, env := doJSON(t, r, http.MethodGet, "/teams", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	teams, _ := env.Data["teams"].([]any)
	if len(teams) != 2 {
		t.Fatalf("teams = %d, want 2", len(teams))
	}
	newest, _ := teams[0].(map[string]any)
	if newest["team_name"] != "Null Pointers" {
		t.Errorf("first team = %v, want newest registration first", newest["team_name"])
	}

	w, env = doJSON(t, r, http.MethodGet, "/teams?q=null+po", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	teams, _ = env.Data["teams"].([]any)
	if len(teams) != 1 {
		t.Fatalf("filtered teams = %d, want 1", len(teams))
	}
}
