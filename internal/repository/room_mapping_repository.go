package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bridge/internal/domain"
)

// RoomMappingRepository persists the ticket to external-room association.
// Create surfaces ErrDuplicateMapping when the ticket already has a room, so
// a racing second writer can re-read the winner instead of erroring.
type RoomMappingRepository interface {
	Create(ctx context.Context, mapping *domain.RoomMapping) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.RoomMapping, error)
	GetByRoom(ctx context.Context, roomID string) (*domain.RoomMapping, error)
	UpdateState(ctx context.Context, ticketID string, state domain.RoomState) error
	Delete(ctx context.Context, ticketID string) error
}

type roomMappingRepository struct {
	pool *pgxpool.Pool
}

// NewRoomMappingRepository builds repository.
func NewRoomMappingRepository(pool *pgxpool.Pool) RoomMappingRepository {
	return &roomMappingRepository{pool: pool}
}

func (r *roomMappingRepository) Create(ctx context.Context, mapping *domain.RoomMapping) error {
	const query = `
        INSERT INTO room_mappings (ticket_id, room_id, parent_id, room_state)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	if mapping.RoomState == "" {
		mapping.RoomState = domain.RoomStateActive
	}
	err := r.pool.QueryRow(ctx, query,
		mapping.TicketID,
		mapping.RoomID,
		mapping.ParentID,
		mapping.RoomState,
	).Scan(&mapping.CreatedAt)
	if isPgCode(err, "23505") {
		return ErrDuplicateMapping
	}
	if isPgCode(err, "23503") {
		return ErrForeignKeyViolation
	}
	return err
}

func (r *roomMappingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.RoomMapping, error) {
	const query = `
        SELECT ticket_id, room_id, parent_id, room_state, created_at
        FROM room_mappings WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *roomMappingRepository) GetByRoom(ctx context.Context, roomID string) (*domain.RoomMapping, error) {
	const query = `
        SELECT ticket_id, room_id, parent_id, room_state, created_at
        FROM room_mappings WHERE room_id=$1`
	return r.fetchSingle(ctx, query, roomID)
}

func (r *roomMappingRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.RoomMapping, error) {
	var mapping domain.RoomMapping
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&mapping.TicketID,
		&mapping.RoomID,
		&mapping.ParentID,
		&mapping.RoomState,
		&mapping.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *roomMappingRepository) UpdateState(ctx context.Context, ticketID string, state domain.RoomState) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE room_mappings SET room_state=$1 WHERE ticket_id=$2`, state, ticketID)
	return err
}

func (r *roomMappingRepository) Delete(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM room_mappings WHERE ticket_id=$1`, ticketID)
	return err
}
