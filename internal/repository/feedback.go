package repository

import (
	"context"
	"fmt"

	"daily_quest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// CreateFeedback appends a feedback record. Records are never updated except
// for the delivery flag.
func (r *Repository) CreateFeedback(ctx context.Context, feedback *model.Feedback) error {
	var sessionID uuid.NullUUID
	if feedback.SessionID != nil {
		sessionID = uuid.NullUUID{UUID: *feedback.SessionID, Valid: true}
	}

	query, args, err := squirrel.
		Insert("feedback").
		SetMap(map[string]interface{}{
			"id":         feedback.ID,
			"session_id": sessionID,
			"message":    feedback.Message,
			"delivered":  feedback.Delivered,
			"created_at": feedback.CreatedAt.UTC(),
		}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build feedback insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *Repository) MarkFeedbackDelivered(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Update("feedback").
		Set("delivered", true).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
