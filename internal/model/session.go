package model

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        uuid.UUID
	XP        int
	Items     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		XP:        0,
		Items:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) HasItem(name string) bool {
	for _, item := range s.Items {
		if item == name {
			return true
		}
	}
	return false
}

// UpdatedOnCreationDay reports whether the last update happened on the same
// calendar day (in loc) as the creation.
func (s *Session) UpdatedOnCreationDay(loc *time.Location) bool {
	return s.UpdatedAt.In(loc).Format(DateLayout) == s.CreatedAt.In(loc).Format(DateLayout)
}

type Feedback struct {
	ID        uuid.UUID
	SessionID *uuid.UUID
	Message   string
	Delivered bool
	CreatedAt time.Time
}
