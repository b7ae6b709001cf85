package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"daily_quest/internal/model"
	"daily_quest/internal/repository"
	"daily_quest/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func newSession(t *testing.T, repo *repository.Repository) *model.Session {
	t.Helper()
	s := model.NewSession(now)
	require.NoError(t, repo.CreateSession(context.Background(), s))
	return s
}

func newCompletion(sessionID uuid.UUID, questID string, at time.Time) *model.Completion {
	return &model.Completion{
		ID:        uuid.New(),
		SessionID: sessionID,
		QuestID:   questID,
		Status:    model.QuestStatusDone,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := repository.New(repository.Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConfig_DSN(t *testing.T) {
	cfg := repository.Config{}
	assert.Equal(t, repository.MemoryDSN, cfg.GetSQLiteDSN())

	cfg = repository.Config{DSN: "/tmp/quests.db"}
	assert.Contains(t, cfg.GetSQLiteDSN(), "busy_timeout")

	cfg = repository.Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "quests"}
	assert.Equal(t, "postgres://u:p@db:5432/quests?sslmode=disable", cfg.GetDatabaseURL())

	cfg = repository.Config{DSN: "postgres://x"}
	assert.Equal(t, "postgres://x", cfg.GetDatabaseURL())
}

func TestNew_FileDatabaseMigratesOnce(t *testing.T) {
	path := t.TempDir() + "/quests.db"
	cfg := repository.Config{Driver: repository.DriverSQLite, DSN: path}

	repo, err := repository.New(cfg)
	require.NoError(t, err)
	testutil.SeedQuests(t, repo, testutil.Tutorial())
	require.NoError(t, repo.Close())

	reopened, err := repository.New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	q, err := reopened.GetQuest(context.Background(), "tutorial")
	require.NoError(t, err)
	assert.Equal(t, "It's dangerous to go alone!", q.Title)
}

func TestUpsertQuests_InsertThenUpdate(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()

	order := 2
	daily := testutil.Daily("daily1", "2024-05-02", 10)
	daily.StoryOrder = &order

	res, err := repo.UpsertQuests(ctx, []model.Quest{testutil.Tutorial(), daily}, now)
	require.NoError(t, err)
	assert.Equal(t, repository.UpsertResult{Inserted: 2}, res)

	daily.Title = "Renamed"
	daily.Objectives = []string{"a", "b"}
	daily.Reward = model.Reward{Gold: 20, Items: []string{"Shield"}}
	daily.ReleaseDate = "2024-05-03"
	daily.StoryOrder = nil

	res, err = repo.UpsertQuests(ctx, []model.Quest{daily}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, repository.UpsertResult{Updated: 1}, res)

	got, err := repo.GetQuest(ctx, "daily1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"a", "b"}, got.Objectives)
	assert.Equal(t, 20, got.Reward.Gold)
	assert.Equal(t, []string{"Shield"}, got.Reward.Items)
	assert.Equal(t, "2024-05-03", got.ReleaseDate)
	assert.Nil(t, got.StoryOrder)

	// quests absent from the input survive
	all, err := repo.ListQuests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertQuests_Idempotent(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	quests := []model.Quest{testutil.Tutorial(), testutil.Daily("daily1", "2024-05-02", 10)}

	_, err := repo.UpsertQuests(ctx, quests, now)
	require.NoError(t, err)
	first, err := repo.ListQuests(ctx)
	require.NoError(t, err)

	_, err = repo.UpsertQuests(ctx, quests, now)
	require.NoError(t, err)
	second, err := repo.ListQuests(ctx)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].Objectives, second[i].Objectives)
		assert.Equal(t, first[i].Reward, second[i].Reward)
		assert.Equal(t, first[i].ReleaseDate, second[i].ReleaseDate)
	}
}

func TestGetQuest_NotFound(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	_, err := repo.GetQuest(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrQuestNotFound)
}

func TestSessions_CreateAndGet(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()

	s := newSession(t, repo)

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 0, got.XP)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
	assert.True(t, got.CreatedAt.Equal(now))

	_, err = repo.GetSession(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRecordCompletion_AppliesReward(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo, testutil.Tutorial(), testutil.Daily("daily1", "2024-05-02", 10))
	s := newSession(t, repo)

	updated, err := repo.RecordCompletion(ctx, newCompletion(s.ID, "tutorial", now), testutil.Tutorial().Reward)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Master Sword"}, updated.Items)
	assert.Equal(t, 0, updated.XP)

	later := now.Add(time.Minute)
	updated, err = repo.RecordCompletion(ctx, newCompletion(s.ID, "daily1", later), model.Reward{Gold: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.XP)
	assert.Equal(t, []string{"The Master Sword"}, updated.Items)
	assert.True(t, updated.UpdatedAt.Equal(later))

	c, err := repo.GetCompletion(ctx, s.ID, "daily1")
	require.NoError(t, err)
	assert.Equal(t, model.QuestStatusDone, c.Status)
	assert.Equal(t, s.ID, c.SessionID)
}

func TestRecordCompletion_DuplicateIsRejected(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo, testutil.Daily("daily1", "2024-05-02", 10))
	s := newSession(t, repo)

	_, err := repo.RecordCompletion(ctx, newCompletion(s.ID, "daily1", now), model.Reward{Gold: 10})
	require.NoError(t, err)

	_, err = repo.RecordCompletion(ctx, newCompletion(s.ID, "daily1", now), model.Reward{Gold: 10})
	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.XP, "reward must be granted once")
}

func TestRecordCompletion_ConcurrentAttemptsGrantOnce(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo, testutil.Daily("daily1", "2024-05-02", 10))
	s := newSession(t, repo)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordCompletion(ctx, newCompletion(s.ID, "daily1", now), model.Reward{Gold: 10})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.XP)
}

// grantConcurrently completes n distinct item-rewarding quests for one session
// at the same time and checks that no reward was lost.
func grantConcurrently(t *testing.T, repo *repository.Repository, n int) {
	t.Helper()
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	quests := make([]model.Quest, n)
	items := make([]string, n)
	for i := range quests {
		quests[i] = testutil.Daily(fmt.Sprintf("relic-%s-%d", suffix, i), "2024-05-02", 5)
		items[i] = fmt.Sprintf("Relic %d", i)
		quests[i].Reward.Items = []string{items[i]}
	}
	testutil.SeedQuests(t, repo, quests...)
	s := newSession(t, repo)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, q := range quests {
		wg.Add(1)
		go func(q model.Quest) {
			defer wg.Done()
			_, err := repo.RecordCompletion(ctx, newCompletion(s.ID, q.ID, now), q.Reward)
			errs <- err
		}(q)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5*n, got.XP)
	assert.ElementsMatch(t, items, got.Items)
}

func TestRecordCompletion_ConcurrentQuestsKeepEveryItem(t *testing.T) {
	repo, err := repository.New(repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    t.TempDir() + "/quests.db",
	})
	require.NoError(t, err)
	defer repo.Close()

	grantConcurrently(t, repo, 6)
}

func TestRecordCompletion_ConcurrentQuestsKeepEveryItem_Postgres(t *testing.T) {
	dsn := os.Getenv("APP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("APP_TEST_POSTGRES_DSN not set")
	}

	repo, err := repository.New(repository.Config{Driver: repository.DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	defer repo.Close()

	grantConcurrently(t, repo, 6)
}

func TestRecordCompletion_UnknownSessionRollsBack(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo, testutil.Daily("daily1", "2024-05-02", 10))
	ghost := uuid.New()

	_, err := repo.RecordCompletion(ctx, newCompletion(ghost, "daily1", now), model.Reward{Gold: 10})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = repo.GetCompletion(ctx, ghost, "daily1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListQuestStates_OuterJoin(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo,
		testutil.Tutorial(),
		testutil.Daily("daily1", "2024-05-02", 10),
		testutil.Daily("daily2", "2024-05-02", 5),
		testutil.Daily("old", "2024-05-01", 5),
	)
	s := newSession(t, repo)
	_, err := repo.RecordCompletion(ctx, newCompletion(s.ID, "daily2", now), model.Reward{Gold: 5})
	require.NoError(t, err)

	states, err := repo.ListQuestStates(ctx, s.ID, "2024-05-02")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "daily1", states[0].Quest.ID)
	assert.Nil(t, states[0].Completion)
	assert.Equal(t, "daily2", states[1].Quest.ID)
	require.NotNil(t, states[1].Completion)
	assert.True(t, states[1].Completion.IsDone())

	withTutorial, err := repo.ListQuestStates(ctx, s.ID, "2024-05-02", "tutorial")
	require.NoError(t, err)
	require.Len(t, withTutorial, 3)
	assert.Equal(t, "tutorial", withTutorial[0].Quest.ID, "ordered by release date")

	// another session's completions are not visible
	other := newSession(t, repo)
	states, err = repo.ListQuestStates(ctx, other.ID, "2024-05-02")
	require.NoError(t, err)
	for _, st := range states {
		assert.Nil(t, st.Completion)
	}

	empty, err := repo.ListQuestStates(ctx, s.ID, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLatestCompletion(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	testutil.SeedQuests(t, repo, testutil.Tutorial(), testutil.Daily("daily1", "2024-05-02", 10))
	s := newSession(t, repo)

	_, err := repo.LatestCompletion(ctx, s.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.RecordCompletion(ctx, newCompletion(s.ID, "tutorial", now), testutil.Tutorial().Reward)
	require.NoError(t, err)
	_, err = repo.RecordCompletion(ctx, newCompletion(s.ID, "daily1", now.Add(time.Hour)), model.Reward{Gold: 10})
	require.NoError(t, err)

	latest, err := repo.LatestCompletion(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "daily1", latest.Quest.ID)
	require.NotNil(t, latest.Completion)
	assert.Equal(t, 10, latest.Quest.Reward.Gold)
}

func TestFeedback_CreateAndDeliver(t *testing.T) {
	repo := testutil.SetupTestRepository(t)
	ctx := context.Background()
	sessionID := uuid.New()

	anonymous := &model.Feedback{ID: uuid.New(), Message: "hi", CreatedAt: now}
	require.NoError(t, repo.CreateFeedback(ctx, anonymous))

	withSession := &model.Feedback{ID: uuid.New(), SessionID: &sessionID, Message: "hello", CreatedAt: now}
	require.NoError(t, repo.CreateFeedback(ctx, withSession))

	assert.NoError(t, repo.MarkFeedbackDelivered(ctx, withSession.ID))
	assert.ErrorIs(t, repo.MarkFeedbackDelivered(ctx, uuid.New()), repository.ErrNotFound)
}
