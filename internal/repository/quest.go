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

var questColumns = []string{
	"q.id",
	"q.title",
	"q.objectives",
	"q.reward_gold",
	"q.reward_items",
	"q.release_date",
	"q.story_order",
	"q.created_at",
	"q.updated_at",
}

type questRow struct {
	ID          string        `db:"id"`
	Title       string        `db:"title"`
	Objectives  stringList    `db:"objectives"`
	RewardGold  int           `db:"reward_gold"`
	RewardItems stringList    `db:"reward_items"`
	ReleaseDate string        `db:"release_date"`
	StoryOrder  sql.NullInt64 `db:"story_order"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func (q *questRow) toModel() model.Quest {
	quest := model.Quest{
		ID:          q.ID,
		Title:       q.Title,
		Objectives:  []string(q.Objectives),
		ReleaseDate: q.ReleaseDate,
		Reward: model.Reward{
			Gold:  q.RewardGold,
			Items: []string(q.RewardItems),
		},
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	if q.StoryOrder.Valid {
		order := int(q.StoryOrder.Int64)
		quest.StoryOrder = &order
	}
	return quest
}

type questStateRow struct {
	questRow
	CompletionID        uuid.NullUUID  `db:"completion_id"`
	CompletionStatus    sql.NullString `db:"completion_status"`
	CompletionCreatedAt sql.NullTime   `db:"completion_created_at"`
	CompletionUpdatedAt sql.NullTime   `db:"completion_updated_at"`
}

func (r *questStateRow) toModel(sessionID uuid.UUID) model.QuestState {
	state := model.QuestState{Quest: r.questRow.toModel()}
	if r.CompletionID.Valid {
		state.Completion = &model.Completion{
			ID:        r.CompletionID.UUID,
			SessionID: sessionID,
			QuestID:   r.ID,
			Status:    model.QuestStatus(r.CompletionStatus.String),
			CreatedAt: r.CompletionCreatedAt.Time,
			UpdatedAt: r.CompletionUpdatedAt.Time,
		}
	}
	return state
}

type UpsertResult struct {
	Inserted int
	Updated  int
}

// UpsertQuests updates existing quests in place and inserts new ones. Quests
// missing from the input are left untouched.
func (r *Repository) UpsertQuests(ctx context.Context, quests []model.Quest, now time.Time) (UpsertResult, error) {
	var result UpsertResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result = UpsertResult{}

		for _, q := range quests {
			exists, err := r.questExistsWithTx(ctx, tx, q.ID)
			if err != nil {
				return err
			}

			values := map[string]interface{}{
				"title":        q.Title,
				"objectives":   stringList(q.Objectives),
				"reward_gold":  q.Reward.Gold,
				"reward_items": stringList(q.Reward.Items),
				"release_date": q.ReleaseDate,
				"story_order":  storyOrderValue(q.StoryOrder),
				"updated_at":   now.UTC(),
			}

			var (
				query string
				args  []interface{}
			)
			if exists {
				query, args, err = squirrel.
					Update("quests").
					SetMap(values).
					Where(squirrel.Eq{"id": q.ID}).
					PlaceholderFormat(r.placeholder).
					ToSql()
			} else {
				values["id"] = q.ID
				values["created_at"] = now.UTC()
				query, args, err = squirrel.
					Insert("quests").
					SetMap(values).
					PlaceholderFormat(r.placeholder).
					ToSql()
			}
			if err != nil {
				return fmt.Errorf("failed to build quest upsert query: %w", err)
			}

			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert quest %q: %w", q.ID, err)
			}

			if exists {
				result.Updated++
			} else {
				result.Inserted++
			}
		}

		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}

	return result, nil
}

func (r *Repository) questExistsWithTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := tx.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) GetQuest(ctx context.Context, id string) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests q").
		Where(squirrel.Eq{"q.id": id}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row questRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	quest := row.toModel()
	return &quest, nil
}

func (r *Repository) ListQuests(ctx context.Context) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests q").
		OrderBy("q.release_date ASC", "COALESCE(q.story_order, 0) ASC", "q.id ASC").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []questRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]*model.Quest, len(rows))
	for i := range rows {
		q := rows[i].toModel()
		quests[i] = &q
	}
	return quests, nil
}

// ListQuestStates returns the quests released on date plus the quests named
// in extraIDs, each joined with the session's completion record if any.
func (r *Repository) ListQuestStates(ctx context.Context, sessionID uuid.UUID, date string, extraIDs ...string) ([]model.QuestState, error) {
	var cond squirrel.Sqlizer = squirrel.Eq{"q.release_date": date}
	if len(extraIDs) > 0 {
		cond = squirrel.Or{
			squirrel.Eq{"q.release_date": date},
			squirrel.Eq{"q.id": extraIDs},
		}
	}

	columns := append(append([]string{}, questColumns...),
		"c.id AS completion_id",
		"c.status AS completion_status",
		"c.created_at AS completion_created_at",
		"c.updated_at AS completion_updated_at",
	)

	query, args, err := squirrel.
		Select(columns...).
		From("quests q").
		LeftJoin("completions c ON c.quest_id = q.id AND c.session_id = ?", sessionID).
		Where(cond).
		OrderBy("q.release_date ASC", "COALESCE(q.story_order, 0) ASC", "q.id ASC").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quest states query: %w", err)
	}

	var rows []questStateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quest states: %w", err)
	}

	states := make([]model.QuestState, len(rows))
	for i := range rows {
		states[i] = rows[i].toModel(sessionID)
	}
	return states, nil
}

func storyOrderValue(order *int) interface{} {
	if order == nil {
		return nil
	}
	return *order
}
