package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"
	"daily_quest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTutorialID = "tutorial"

type QuestConfig struct {
	TutorialID string
	Location   *time.Location
	Clock      Clock
}

type QuestService struct {
	repo       QuestRepository
	tutorialID string
	loc        *time.Location
	now        Clock
}

func NewQuestService(repo QuestRepository, cfg QuestConfig) *QuestService {
	s := &QuestService{
		repo:       repo,
		tutorialID: cfg.TutorialID,
		loc:        cfg.Location,
		now:        cfg.Clock,
	}
	if s.tutorialID == "" {
		s.tutorialID = DefaultTutorialID
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *QuestService) TutorialID() string {
	return s.tutorialID
}

// Date returns today's calendar date in the configured timezone.
func (s *QuestService) Date() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

// Today returns the quests released today, plus the tutorial while the
// session still qualifies for it, with the session's completion state.
func (s *QuestService) Today(ctx context.Context, session *model.Session) (*model.Board, error) {
	today := s.Date()

	states, err := s.repo.ListQuestStates(ctx, session.ID, today, s.tutorialID)
	if err != nil {
		return nil, err
	}

	active := make([]model.QuestState, 0, len(states))
	for _, state := range states {
		if state.Quest.ReleasedOn(today) {
			active = append(active, state)
			continue
		}
		if state.Quest.ID == s.tutorialID && s.ShowTutorial(session, state.Quest) {
			active = append(active, state)
		}
	}

	return &model.Board{
		Date:   today,
		Quests: active,
		Done:   AllDone(active),
	}, nil
}

// ShowTutorial keeps the tutorial on the board while the session lacks any of
// its reward items, or has not been updated since the day it was created.
// This is an approximation of "has not finished onboarding".
func (s *QuestService) ShowTutorial(session *model.Session, tutorial model.Quest) bool {
	for _, item := range tutorial.Reward.Items {
		if !session.HasItem(item) {
			return true
		}
	}
	return session.UpdatedOnCreationDay(s.loc)
}

// AllDone reports whether every quest in states has been completed. An empty
// board counts as done.
func AllDone(states []model.QuestState) bool {
	done := true
	for _, state := range states {
		done = done && state.Completion.IsDone()
	}
	return done
}

// Tutorial returns the tutorial quest and, for a known session, its
// completion record.
func (s *QuestService) Tutorial(ctx context.Context, session *model.Session) (*model.QuestState, error) {
	quest, err := s.getQuest(ctx, s.tutorialID)
	if err != nil {
		return nil, err
	}

	state := &model.QuestState{Quest: *quest}
	if session == nil {
		return state, nil
	}

	completion, err := s.repo.GetCompletion(ctx, session.ID, quest.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	state.Completion = completion
	return state, nil
}

// Complete marks the quest done for the session and grants its reward. A
// quest can be completed once per session; repeating it returns the existing
// record with Granted set to false.
func (s *QuestService) Complete(ctx context.Context, session *model.Session, questID string) (*model.CompletionResult, error) {
	log := logger.Logger()

	quest, err := s.getQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	today := s.Date()
	if quest.ID != s.tutorialID && !quest.ReleasedOn(today) {
		return nil, fmt.Errorf("%w: %q is not available on %s", ErrQuestNotFound, questID, today)
	}

	if quest.Reward.Gold < 0 {
		log.Error("quest reward would lower experience",
			zap.Bool("invariant_violation", true),
			zap.String("session_id", session.ID.String()),
			zap.String("quest_id", quest.ID),
			zap.Int("gold", quest.Reward.Gold),
		)
		return nil, fmt.Errorf("%w: quest %q has negative gold", ErrInvariantViolation, quest.ID)
	}

	now := s.now().UTC()
	completion := &model.Completion{
		ID:        uuid.New(),
		SessionID: session.ID,
		QuestID:   quest.ID,
		Status:    model.QuestStatusDone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	updated, err := s.repo.RecordCompletion(ctx, completion, quest.Reward)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyCompleted):
			return s.alreadyCompleted(ctx, session, quest)
		case errors.Is(err, repository.ErrSessionNotFound):
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	// session holds the state read before the write; concurrent grants can only add to it
	if updated.XP < session.XP+quest.Reward.Gold || len(updated.Items) < len(session.Items)+len(quest.Reward.Items) {
		log.Error("completion post-condition failed",
			zap.Bool("invariant_violation", true),
			zap.String("session_id", session.ID.String()),
			zap.String("quest_id", quest.ID),
			zap.Int("xp_before", session.XP),
			zap.Int("xp", updated.XP),
			zap.Int("gold", quest.Reward.Gold),
			zap.Int("items", len(updated.Items)),
			zap.Int("reward_items", len(quest.Reward.Items)),
		)
		return nil, fmt.Errorf("%w: quest %q", ErrInvariantViolation, quest.ID)
	}

	log.Info("quest completed",
		zap.String("session_id", session.ID.String()),
		zap.String("quest_id", quest.ID),
		zap.Int("xp", updated.XP),
	)

	return &model.CompletionResult{
		Quest:      *quest,
		Completion: *completion,
		Session:    *updated,
		Granted:    true,
	}, nil
}

func (s *QuestService) alreadyCompleted(ctx context.Context, session *model.Session, quest *model.Quest) (*model.CompletionResult, error) {
	existing, err := s.repo.GetCompletion(ctx, session.ID, quest.ID)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetSession(ctx, session.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	logger.Logger().Debug("quest already completed",
		zap.String("session_id", session.ID.String()),
		zap.String("quest_id", quest.ID),
	)

	return &model.CompletionResult{
		Quest:      *quest,
		Completion: *existing,
		Session:    *current,
		Granted:    false,
	}, nil
}

// Latest returns the session's most recent completion, or nil when it has
// none.
func (s *QuestService) Latest(ctx context.Context, session *model.Session) (*model.QuestState, error) {
	state, err := s.repo.LatestCompletion(ctx, session.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// ImportCatalog reconciles stored quests with a loaded catalog. Quests are
// updated in place or inserted, never deleted.
func (s *QuestService) ImportCatalog(ctx context.Context, quests []model.Quest) (repository.UpsertResult, error) {
	result, err := s.repo.UpsertQuests(ctx, quests, s.now().UTC())
	if err != nil {
		return repository.UpsertResult{}, err
	}

	logger.Logger().Info("quest catalog imported",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

func (s *QuestService) getQuest(ctx context.Context, id string) (*model.Quest, error) {
	quest, err := s.repo.GetQuest(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrQuestNotFound, id)
		}
		return nil, err
	}
	return quest, nil
}
