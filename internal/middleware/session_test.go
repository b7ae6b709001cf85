package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"daily_quest/internal/model"
	"daily_quest/internal/service"
	"daily_quest/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sessionFixture struct {
	router   *gin.Engine
	sessions *service.SessionService
	seen     *model.Session
}

func newSessionFixture(t *testing.T, cookie CookieConfig) *sessionFixture {
	t.Helper()
	repo := testutil.SetupTestRepository(t)
	f := &sessionFixture{sessions: service.NewSessionService(repo, nil)}
	mw := NewSessions(f.sessions, cookie)

	record := func(c *gin.Context) {
		f.seen = CurrentSession(c)
	}

	r := gin.New()
	r.GET("/require", mw.Require(), func(c *gin.Context) {
		record(c)
		c.String(http.StatusOK, "ok")
	})
	r.POST("/create", mw.Create(), func(c *gin.Context) {
		record(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/create-fail", mw.Create(), func(c *gin.Context) {
		record(c)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
	r.POST("/create-redirect", mw.Create(), func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/")
	})
	r.POST("/create-empty", mw.Create(), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	r.GET("/optional", mw.Optional(), func(c *gin.Context) {
		record(c)
		c.String(http.StatusOK, "ok")
	})
	f.router = r
	return f
}

func (f *sessionFixture) do(method, path, token string) *httptest.ResponseRecorder {
	f.seen = nil
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessions_RequireRejects(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{})

	w := f.do(http.MethodGet, "/require", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, sessionCookie(w))

	w = f.do(http.MethodGet, "/require", uuid.New().String())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w))

	w = f.do(http.MethodGet, "/require", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, f.seen)
}

func TestSessions_CreateThenRequire(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{})

	w := f.do(http.MethodPost, "/create", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.seen)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, f.seen.ID.String(), cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, sessionMaxAge, cookie.MaxAge)

	created := f.seen.ID
	w = f.do(http.MethodGet, "/require", cookie.Value)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, created, f.seen.ID)
	assert.Equal(t, cookie.Value, sessionCookie(w).Value)
}

func TestSessions_CreateReplacesUnknownToken(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{})
	stale := uuid.New().String()

	w := f.do(http.MethodPost, "/create", stale)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.NotEqual(t, stale, cookie.Value)
}

func TestSessions_NoCookieOnFailure(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{})

	w := f.do(http.MethodPost, "/create-fail", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotNil(t, f.seen)
	assert.Nil(t, sessionCookie(w))
}

func TestSessions_CookieOnRedirectAndEmptyBody(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{Secure: true})

	w := f.do(http.MethodPost, "/create-redirect", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)

	w = f.do(http.MethodPost, "/create-empty", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotNil(t, sessionCookie(w))
}

func TestSessions_Optional(t *testing.T) {
	f := newSessionFixture(t, CookieConfig{})

	w := f.do(http.MethodGet, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.seen)
	assert.Nil(t, sessionCookie(w))

	w = f.do(http.MethodGet, "/optional", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.seen)

	session, _, err := f.sessions.Resolve(context.Background(), "", true)
	require.NoError(t, err)

	w = f.do(http.MethodGet, "/optional", session.ID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, session.ID, f.seen.ID)
	assert.NotNil(t, sessionCookie(w))
}

func TestCurrentSession_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentSession(c))
}
