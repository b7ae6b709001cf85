// Package notify relays user feedback to the team's chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"daily_quest/internal/model"
)

var ErrNotConfigured = errors.New("notification channel is not configured")

const (
	feedbackTitle  = "📝 New Feedback"
	feedbackFooter = "Daily Quest Feedback"
	unknownSession = "UNKNOWN"

	// MaxMessageLength is the number of characters of a message that is relayed.
	MaxMessageLength = 512
)

type Notifier interface {
	Notify(ctx context.Context, feedback model.Feedback) error
}

// Multi sends feedback to every channel. It fails when there are no channels
// or when any channel fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, feedback model.Feedback) error {
	if len(m) == 0 {
		return ErrNotConfigured
	}

	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, feedback); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sessionLabel(feedback model.Feedback) string {
	if feedback.SessionID == nil {
		return unknownSession
	}
	return feedback.SessionID.String()
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

type statusError struct {
	channel string
	status  int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.channel, e.status)
}
