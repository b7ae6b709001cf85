package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for release dates.
const DateLayout = "2006-01-02"

type Reward struct {
	Gold  int
	Items []string
}

// String renders a reward the way quest cards show it, e.g. "10 gold, The Master Sword".
func (r Reward) String() string {
	parts := make([]string, 0, len(r.Items)+1)
	if r.Gold > 0 {
		parts = append(parts, fmt.Sprintf("%d gold", r.Gold))
	}
	for _, item := range r.Items {
		if item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, ", ")
}

func (r Reward) IsEmpty() bool {
	return r.Gold == 0 && len(r.Items) == 0
}

type Quest struct {
	ID          string
	Title       string
	Objectives  []string
	Reward      Reward
	ReleaseDate string
	StoryOrder  *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReleasedOn reports whether the quest is a daily quest for the given date.
func (q *Quest) ReleasedOn(date string) bool {
	return q.ReleaseDate == date
}

type QuestStatus string

const (
	QuestStatusDone       QuestStatus = "done"
	QuestStatusInProgress QuestStatus = "in_progress"
)

type Completion struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	QuestID   string
	Status    QuestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Completion) IsDone() bool {
	return c != nil && c.Status == QuestStatusDone
}

// QuestState pairs a quest with the session's completion record, nil when
// the session has not completed it yet.
type QuestState struct {
	Quest      Quest
	Completion *Completion
}

// Board is the set of quests shown to a session for one day.
type Board struct {
	Date   string
	Quests []QuestState
	Done   bool
}

type CompletionResult struct {
	Quest      Quest
	Completion Completion
	Session    Session
	// Granted is false when the quest had already been completed and no
	// reward was applied.
	Granted bool
}
