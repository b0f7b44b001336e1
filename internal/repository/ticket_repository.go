package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bridge/internal/domain"
)

// ErrForeignKeyViolation is returned when an insert references a missing row.
var ErrForeignKeyViolation = errors.New("foreign key violation")

// ErrDuplicateMapping is returned when a uniqueness-constrained insert loses
// a race; callers re-read the winner instead of surfacing the conflict.
var ErrDuplicateMapping = errors.New("duplicate room mapping")

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByDisplayCode(ctx context.Context, code string) (*domain.Ticket, error)
	List(ctx context.Context, requesterRef *string, limit, offset int) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (display_code, requester_ref, guest_email, subject, category, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.DisplayCode,
		ticket.RequesterRef,
		ticket.GuestEmail,
		ticket.Subject,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if isPgCode(err, "23503") {
		return ErrForeignKeyViolation
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET requester_ref=$1, guest_email=$2, subject=$3, category=$4,
            status=$5, priority=$6, closed_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.RequesterRef,
		ticket.GuestEmail,
		ticket.Subject,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, display_code, requester_ref, guest_email, subject, category,
               status, priority, created_at, updated_at, closed_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByDisplayCode(ctx context.Context, code string) (*domain.Ticket, error) {
	const query = `
        SELECT id, display_code, requester_ref, guest_email, subject, category,
               status, priority, created_at, updated_at, closed_at
        FROM tickets WHERE display_code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.DisplayCode,
		&ticket.RequesterRef,
		&ticket.GuestEmail,
		&ticket.Subject,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, requesterRef *string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const base = `
        SELECT id, display_code, requester_ref, guest_email, subject, category,
               status, priority, created_at, updated_at, closed_at
        FROM tickets`

	var rows pgx.Rows
	var err error
	if requesterRef != nil {
		rows, err = r.pool.Query(ctx, base+` WHERE requester_ref=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			*requesterRef, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.DisplayCode,
			&ticket.RequesterRef,
			&ticket.GuestEmail,
			&ticket.Subject,
			&ticket.Category,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
