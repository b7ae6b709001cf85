package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"daily_quest/internal/model"
	"daily_quest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxFeedbackLength caps a stored feedback message, in characters.
const MaxFeedbackLength = 2000

type FeedbackService struct {
	repo     FeedbackRepository
	notifier Notifier
	now      Clock
}

func NewFeedbackService(repo FeedbackRepository, notifier Notifier, clock Clock) *FeedbackService {
	if clock == nil {
		clock = time.Now
	}
	return &FeedbackService{
		repo:     repo,
		notifier: notifier,
		now:      clock,
	}
}

// Submit stores the message and relays it. A relay failure is returned to the
// caller; the stored record stays undelivered.
func (s *FeedbackService) Submit(ctx context.Context, session *model.Session, message string) (*model.Feedback, error) {
	log := logger.Logger()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyFeedback
	}
	if utf8.RuneCountInString(message) > MaxFeedbackLength {
		return nil, ErrFeedbackTooLong
	}

	feedback := &model.Feedback{
		ID:        uuid.New(),
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if session != nil {
		id := session.ID
		feedback.SessionID = &id
	}

	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, *feedback); err != nil {
		log.Error("failed to relay feedback", zap.String("feedback_id", feedback.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("relay feedback: %w", err)
	}

	if err := s.repo.MarkFeedbackDelivered(ctx, feedback.ID); err != nil {
		log.Warn("feedback relayed but not marked delivered", zap.String("feedback_id", feedback.ID.String()), zap.Error(err))
	} else {
		feedback.Delivered = true
	}

	return feedback, nil
}
