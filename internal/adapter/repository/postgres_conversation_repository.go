package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

const conversationColumns = `id, participants, COALESCE(pair_key, ''), COALESCE(last_message_id, ''), last_message_at, created_at, updated_at`

type postgresConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresConversationRepository(pool *pgxpool.Pool) repository.ConversationRepository {
	return &postgresConversationRepository{pool: pool}
}

func scanConversation(row pgx.Row) (*entity.Conversation, error) {
	var (
		c             entity.Conversation
		lastMessageAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.Participants, &c.PairKey, &c.LastMessageID, &lastMessageAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if lastMessageAt != nil {
		c.LastMessageAt = *lastMessageAt
	}
	return &c, nil
}

func (r *postgresConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return c, nil
}

func (r *postgresConversationRepository) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	return r.list(ctx, `SELECT `+conversationColumns+` FROM conversations`)
}

func (r *postgresConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return r.list(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE $1 = ANY(participants)`, userID)
}

func (r *postgresConversationRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Conversation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	defer rows.Close()

	var conversations []*entity.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, errors.Internal("Failed to scan conversation", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	return conversations, nil
}

// FindOrCreateDirect relies on the UNIQUE constraint on pair_key.
func (r *postgresConversationRepository) FindOrCreateDirect(ctx context.Context, a, b string) (*entity.Conversation, bool, error) {
	return findOrCreatePairRow(ctx, r.pool, a, b)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// findOrCreatePairRow: the losing insert of a race does nothing and the
// follow-up select sees the winner.
func findOrCreatePairRow(ctx context.Context, db rowQuerier, a, b string) (*entity.Conversation, bool, error) {
	key := entity.PairKey(a, b)
	now := time.Now().UTC()

	row := db.QueryRow(ctx, `
		INSERT INTO conversations (id, participants, pair_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING `+conversationColumns,
		uuid.New().String(), []string{a, b}, key, now,
	)
	c, err := scanConversation(row)
	if err == nil {
		return c, true, nil
	}
	if !stderrors.Is(err, pgx.ErrNoRows) {
		return nil, false, errors.Internal("Failed to create conversation", err)
	}

	c, err = scanConversation(db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE pair_key = $1`, key))
	if err != nil {
		return nil, false, errors.Internal("Failed to resolve conversation", err)
	}
	return c, false, nil
}

func (r *postgresConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conversations SET last_message_id = $2, last_message_at = $3, updated_at = $4 WHERE id = $1`,
		conversationID, messageID, at, time.Now().UTC(),
	)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Conversation", nil)
	}
	return nil
}
