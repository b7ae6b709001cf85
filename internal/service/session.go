package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"
	"daily_quest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionService struct {
	repo SessionRepository
	now  Clock
}

func NewSessionService(repo SessionRepository, clock Clock) *SessionService {
	if clock == nil {
		clock = time.Now
	}
	return &SessionService{
		repo: repo,
		now:  clock,
	}
}

// Resolve maps a cookie token to a session. When allowCreate is set an
// absent or unknown token yields a fresh session and created is true.
// Resolving never touches the session's updated_at.
func (s *SessionService) Resolve(ctx context.Context, token string, allowCreate bool) (*model.Session, bool, error) {
	token = strings.TrimSpace(token)

	if token != "" {
		session, err := s.find(ctx, token)
		if err != nil {
			return nil, false, err
		}
		if session != nil {
			return session, false, nil
		}
		if !allowCreate {
			return nil, false, ErrUnknownSession
		}
	} else if !allowCreate {
		return nil, false, ErrMissingSession
	}

	session := model.NewSession(s.now().UTC())
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, false, err
	}

	logger.Logger().Info("session created", zap.String("session_id", session.ID.String()))
	return session, true, nil
}

// Lookup is Resolve without creation or client errors: a missing or unknown
// token returns nil, nil.
func (s *SessionService) Lookup(ctx context.Context, token string) (*model.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return s.find(ctx, token)
}

func (s *SessionService) find(ctx context.Context, token string) (*model.Session, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, nil
	}

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}
