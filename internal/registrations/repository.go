package registrations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gdg-soe/ticketing/internal/models"
)

const registrationColumns = `id, ticket_id, team_name, idea, leader_name, leader_email, members, checked_in, checked_in_at, created_at, updated_at`

// Store is the registration record store consumed by the HTTP handlers.
// The production implementation is Repository (PostgreSQL); tests use an
// in-memory fake.
type Store interface {
	// Create inserts the registration only while the total record count is
	// below limit. Returns ErrCapacityReached, ErrDuplicateEmail or
	// ErrTicketIDTaken on the corresponding constraint failure.
	Create(ctx context.Context, reg *models.Registration, limit int) error
	GetByLeaderEmail(ctx context.Context, email string) (*models.Registration, error)
	GetByTicketID(ctx context.Context, ticketID string) (*models.Registration, error)
	// CheckIn atomically flips checked_in from false to true. Returns
	// ErrNotFound for an unknown ticket and *AlreadyCheckedInError when the
	// ticket was used before.
	CheckIn(ctx context.Context, ticketID string) (*models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	Count(ctx context.Context) (int, error)
}

// Repository persists registrations in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration. The capacity check and the insert are a
// single statement so the check cannot go stale between a count query and
// the write. pgx.ErrNoRows means the SELECT produced nothing, i.e. the
// limit is reached.
func (r *Repository) Create(ctx context.Context, reg *models.Registration, limit int) error {
	const q = `INSERT INTO registrations (ticket_id, team_name, idea, leader_name, leader_email, members)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE (SELECT COUNT(*) FROM registrations) < $7
		RETURNING id, checked_in, checked_in_at, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		reg.TicketID, reg.TeamName, reg.Idea, reg.LeaderName, reg.LeaderEmail, reg.Members, limit).
		Scan(&reg.ID, &reg.CheckedIn, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCapacityReached
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "registrations_leader_email_key":
			return ErrDuplicateEmail
		case "registrations_ticket_id_key":
			return ErrTicketIDTaken
		}
	}
	return err
}

// GetByLeaderEmail returns the registration for a leader email.
func (r *Repository) GetByLeaderEmail(ctx context.Context, email string) (*models.Registration, error) {
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE leader_email = $1`, email)
}

// GetByTicketID returns the registration for a ticket id.
func (r *Repository) GetByTicketID(ctx context.Context, ticketID string) (*models.Registration, error) {
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE ticket_id = $1`, ticketID)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*models.Registration, error) {
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&reg.ID, &reg.TicketID, &reg.TeamName, &reg.Idea, &reg.LeaderName, &reg.LeaderEmail,
		&reg.Members, &reg.CheckedIn, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CheckIn marks a ticket as checked in. The transition is a single
// conditional UPDATE keyed on checked_in = FALSE, so of any number of
// concurrent calls exactly one matches the predicate; the rest fall
// through to the lookup that distinguishes an unknown ticket from an
// already-used one. A used ticket never reverts, so that follow-up read
// is stable.
func (r *Repository) CheckIn(ctx context.Context, ticketID string) (*models.Registration, error) {
	const q = `UPDATE registrations
		SET checked_in = TRUE, checked_in_at = NOW(), updated_at = NOW()
		WHERE ticket_id = $1 AND checked_in = FALSE
		RETURNING ` + registrationColumns
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, ticketID).Scan(
		&reg.ID, &reg.TicketID, &reg.TeamName, &reg.Idea, &reg.LeaderName, &reg.LeaderEmail,
		&reg.Members, &reg.CheckedIn, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, lookupErr := r.GetByTicketID(ctx, ticketID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, &AlreadyCheckedInError{Registration: existing}
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// List returns all registrations, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.ID, &reg.TicketID, &reg.TeamName, &reg.Idea, &reg.LeaderName, &reg.LeaderEmail,
			&reg.Members, &reg.CheckedIn, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// Count returns the total number of registrations.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&n)
	return n, err
}
