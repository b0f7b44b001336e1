package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bridge/internal/domain"
)

// MessageRepository manages the append-only message log. No update or delete
// is exposed; immutability keeps any prefix of the log a stable transcript
// input.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	DeleteByTicket(ctx context.Context, ticketID string) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, sender_role, content, attachments)
        VALUES ($1,$2,$3,$4)
        RETURNING id, seq, created_at`
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	err := r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.SenderRole,
		msg.Content,
		attachments,
	).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt)
	if isPgCode(err, "23503") {
		return ErrForeignKeyViolation
	}
	return err
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, seq, sender_role, content, attachments, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Seq,
			&msg.SenderRole,
			&msg.Content,
			&msg.Attachments,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

// DeleteByTicket exists only for the administrative purge path.
func (r *messageRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE ticket_id=$1`, ticketID)
	return err
}
