package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

const messageColumns = `id, conversation_id, sender, content, read_by, created_at, seq`

type postgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) repository.MessageRepository {
	return &postgresMessageRepository{pool: pool}
}

func scanMessage(row pgx.Row) (*entity.Message, error) {
	var m entity.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.ReadBy, &m.CreatedAt, &m.Seq); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender, content, read_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`,
		message.ID, message.ConversationID, message.Sender, message.Content, message.ReadBy, message.CreatedAt,
	).Scan(&message.Seq)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *postgresMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1 AND conversation_id = $2`, messageID, conversationID)
	m, err := scanMessage(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return m, nil
}

func (r *postgresMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = $1 ORDER BY created_at, seq`,
		conversationID,
	)
	if err != nil {
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Internal("Failed to scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	return messages, nil
}

func (r *postgresMessageRepository) MarkSeen(ctx context.Context, conversationID, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET read_by = array_append(read_by, $2)
		 WHERE conversation_id = $1 AND NOT ($2 = ANY(read_by))`,
		conversationID, userID,
	)
	if err != nil {
		return 0, errors.Internal("Failed to update read status", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *postgresMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE conversation_id = $1 AND NOT ($2 = ANY(read_by))`,
		conversationID, userID,
	).Scan(&n)
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}
	return n, nil
}
