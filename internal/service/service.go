package service

import (
	"context"
	"errors"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrMissingSession     = errors.New("session cookie is missing")
	ErrUnknownSession     = errors.New("session does not exist")
	ErrQuestNotFound      = errors.New("quest not found")
	ErrInvariantViolation = errors.New("completion post-condition violated")
	ErrEmptyFeedback      = errors.New("feedback message is empty")
	ErrFeedbackTooLong    = errors.New("feedback message is too long")
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

type Service struct {
	*SessionService
	*QuestService
	*FeedbackService
}

func NewService(sessionService *SessionService, questService *QuestService, feedbackService *FeedbackService) *Service {
	return &Service{
		SessionService:  sessionService,
		QuestService:    questService,
		FeedbackService: feedbackService,
	}
}

type SessionServiceI interface {
	Resolve(ctx context.Context, token string, allowCreate bool) (*model.Session, bool, error)
	Lookup(ctx context.Context, token string) (*model.Session, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

type QuestServiceI interface {
	TutorialID() string
	Today(ctx context.Context, session *model.Session) (*model.Board, error)
	Tutorial(ctx context.Context, session *model.Session) (*model.QuestState, error)
	Complete(ctx context.Context, session *model.Session, questID string) (*model.CompletionResult, error)
	Latest(ctx context.Context, session *model.Session) (*model.QuestState, error)
	ImportCatalog(ctx context.Context, quests []model.Quest) (repository.UpsertResult, error)
}

type QuestRepository interface {
	UpsertQuests(ctx context.Context, quests []model.Quest, now time.Time) (repository.UpsertResult, error)
	GetQuest(ctx context.Context, id string) (*model.Quest, error)
	ListQuestStates(ctx context.Context, sessionID uuid.UUID, date string, extraIDs ...string) ([]model.QuestState, error)
	RecordCompletion(ctx context.Context, completion *model.Completion, reward model.Reward) (*model.Session, error)
	GetCompletion(ctx context.Context, sessionID uuid.UUID, questID string) (*model.Completion, error)
	LatestCompletion(ctx context.Context, sessionID uuid.UUID) (*model.QuestState, error)
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

type FeedbackServiceI interface {
	Submit(ctx context.Context, session *model.Session, message string) (*model.Feedback, error)
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, feedback *model.Feedback) error
	MarkFeedbackDelivered(ctx context.Context, id uuid.UUID) error
}

// Notifier relays a feedback message to the team.
type Notifier interface {
	Notify(ctx context.Context, feedback model.Feedback) error
}
