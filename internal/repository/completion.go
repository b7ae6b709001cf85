package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daily_quest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type completionRow struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	QuestID   string    `db:"quest_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c *completionRow) toModel() *model.Completion {
	return &model.Completion{
		ID:        c.ID,
		SessionID: c.SessionID,
		QuestID:   c.QuestID,
		Status:    model.QuestStatus(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// RecordCompletion inserts the completion record and applies the quest's
// reward to the session in a single transaction. It returns
// ErrAlreadyCompleted when the session already has a record for the quest;
// nothing is written in that case.
func (r *Repository) RecordCompletion(ctx context.Context, completion *model.Completion, reward model.Reward) (*model.Session, error) {
	var updated *model.Session

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := completion.CreatedAt.UTC()

		// the items list is rewritten below, so concurrent grants must queue
		// on the session row before reading it
		if err := r.lockSession(ctx, tx, completion.SessionID, now); err != nil {
			return err
		}

		query, args, err := squirrel.
			Insert("completions").
			SetMap(map[string]interface{}{
				"id":         completion.ID,
				"session_id": completion.SessionID,
				"quest_id":   completion.QuestID,
				"status":     string(completion.Status),
				"created_at": now,
				"updated_at": completion.UpdatedAt.UTC(),
			}).
			PlaceholderFormat(r.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build completion insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to insert completion: %w", err)
		}

		session, err := r.getSessionWithTx(ctx, tx, completion.SessionID)
		if err != nil {
			return err
		}

		items := append(append([]string{}, session.Items...), reward.Items...)

		updateQuery, updateArgs, err := squirrel.
			Update("sessions").
			Set("xp", squirrel.Expr("xp + ?", reward.Gold)).
			Set("items", stringList(items)).
			Where(squirrel.Eq{"id": completion.SessionID}).
			PlaceholderFormat(r.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build session reward query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to apply reward: %w", err)
		}

		updated, err = r.getSessionWithTx(ctx, tx, completion.SessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// lockSession bumps updated_at as the transaction's first write. Postgres
// holds the row lock and SQLite the database write lock until commit.
func (r *Repository) lockSession(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, now time.Time) error {
	query, args, err := squirrel.
		Update("sessions").
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session lock query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *Repository) GetCompletion(ctx context.Context, sessionID uuid.UUID, questID string) (*model.Completion, error) {
	query, args, err := squirrel.
		Select("id", "session_id", "quest_id", "status", "created_at", "updated_at").
		From("completions").
		Where(squirrel.Eq{"session_id": sessionID, "quest_id": questID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row completionRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

// LatestCompletion returns the session's most recently completed quest.
func (r *Repository) LatestCompletion(ctx context.Context, sessionID uuid.UUID) (*model.QuestState, error) {
	columns := append(append([]string{}, questColumns...),
		"c.id AS completion_id",
		"c.status AS completion_status",
		"c.created_at AS completion_created_at",
		"c.updated_at AS completion_updated_at",
	)

	query, args, err := squirrel.
		Select(columns...).
		From("completions c").
		Join("quests q ON q.id = c.quest_id").
		Where(squirrel.Eq{"c.session_id": sessionID}).
		OrderBy("c.created_at DESC", "c.id DESC").
		Limit(1).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row questStateRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	state := row.toModel(sessionID)
	return &state, nil
}
