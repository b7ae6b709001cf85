package testutil

import (
	"context"
	"testing"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"

	"github.com/stretchr/testify/require"
)

// SetupTestRepository opens a private in-memory SQLite database with all
// migrations applied. It needs no external services.
func SetupTestRepository(t *testing.T) *repository.Repository {
	t.Helper()
	repo, err := repository.New(repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    repository.MemoryDSN,
	})
	require.NoError(t, err, "SetupTestRepository: New")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// SeedQuests stores quests through the regular upsert path.
func SeedQuests(t *testing.T, repo *repository.Repository, quests ...model.Quest) {
	t.Helper()
	_, err := repo.UpsertQuests(context.Background(), quests, time.Now().UTC())
	require.NoError(t, err, "SeedQuests")
}

// Tutorial returns the onboarding quest used across tests.
func Tutorial() model.Quest {
	return model.Quest{
		ID:          "tutorial",
		Title:       "It's dangerous to go alone!",
		Objectives:  []string{"Take this."},
		Reward:      model.Reward{Items: []string{"The Master Sword"}},
		ReleaseDate: "2024-01-01",
	}
}

// Daily returns a daily quest released on date with a gold reward.
func Daily(id, date string, gold int) model.Quest {
	return model.Quest{
		ID:          id,
		Title:       "Enter the dragon's lair",
		Objectives:  []string{"Do something new and uncomfortable"},
		Reward:      model.Reward{Gold: gold, Items: []string{}},
		ReleaseDate: date,
	}
}

// Clock is a settable time source.
type Clock struct {
	Now time.Time
}

func (c *Clock) Time() time.Time {
	return c.Now
}

func (c *Clock) Advance(d time.Duration) {
	c.Now = c.Now.Add(d)
}
