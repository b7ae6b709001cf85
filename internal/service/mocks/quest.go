package mocks

import (
	"context"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) UpsertQuests(ctx context.Context, quests []model.Quest, now time.Time) (repository.UpsertResult, error) {
	args := m.Called(ctx, quests, now)
	return args.Get(0).(repository.UpsertResult), args.Error(1)
}

func (m *MockQuestRepository) GetQuest(ctx context.Context, id string) (*model.Quest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) ListQuestStates(ctx context.Context, sessionID uuid.UUID, date string, extraIDs ...string) ([]model.QuestState, error) {
	args := m.Called(ctx, sessionID, date, extraIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QuestState), args.Error(1)
}

func (m *MockQuestRepository) RecordCompletion(ctx context.Context, completion *model.Completion, reward model.Reward) (*model.Session, error) {
	args := m.Called(ctx, completion, reward)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockQuestRepository) GetCompletion(ctx context.Context, sessionID uuid.UUID, questID string) (*model.Completion, error) {
	args := m.Called(ctx, sessionID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Completion), args.Error(1)
}

func (m *MockQuestRepository) LatestCompletion(ctx context.Context, sessionID uuid.UUID) (*model.QuestState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestState), args.Error(1)
}

func (m *MockQuestRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}
