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

type sessionRow struct {
	ID        uuid.UUID  `db:"id"`
	XP        int        `db:"xp"`
	Items     stringList `db:"items"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (s *sessionRow) toModel() *model.Session {
	return &model.Session{
		ID:        s.ID,
		XP:        s.XP,
		Items:     []string(s.Items),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *Repository) CreateSession(ctx context.Context, session *model.Session) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("sessions").
			SetMap(map[string]interface{}{
				"id":         session.ID,
				"xp":         session.XP,
				"items":      stringList(session.Items),
				"created_at": session.CreatedAt.UTC(),
				"updated_at": session.UpdatedAt.UTC(),
			}).
			PlaceholderFormat(r.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build session insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return r.getSession(ctx, r.db, id)
}

func (r *Repository) getSessionWithTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Session, error) {
	return r.getSession(ctx, tx, id)
}

func (r *Repository) getSession(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*model.Session, error) {
	query, args, err := squirrel.
		Select("id", "xp", "items", "created_at", "updated_at").
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row sessionRow
	err = sqlx.GetContext(ctx, q, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}
