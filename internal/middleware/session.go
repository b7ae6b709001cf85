package middleware

import (
	"errors"
	"net/http"

	"daily_quest/internal/model"
	"daily_quest/internal/service"
	"daily_quest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "session_id"
	SessionKey        = "session"

	sessionMaxAge = 365 * 24 * 60 * 60
)

type sessionMode int

const (
	modeRequire sessionMode = iota
	modeCreate
	modeOptional
)

type CookieConfig struct {
	Secure bool `mapstructure:"secure"`
}

// Sessions resolves the session_id cookie before the handler runs and
// refreshes the cookie after it, but only when the handler succeeded.
type Sessions struct {
	sessionService service.SessionServiceI
	cookie         CookieConfig
}

func NewSessions(sessionService service.SessionServiceI, cookie CookieConfig) *Sessions {
	return &Sessions{
		sessionService: sessionService,
		cookie:         cookie,
	}
}

// Require rejects requests without a valid session.
func (s *Sessions) Require() gin.HandlerFunc {
	return s.handle(modeRequire)
}

// Create resolves the session or starts a new one.
func (s *Sessions) Create() gin.HandlerFunc {
	return s.handle(modeCreate)
}

// Optional resolves the session if there is one and never rejects.
func (s *Sessions) Optional() gin.HandlerFunc {
	return s.handle(modeOptional)
}

func (s *Sessions) handle(mode sessionMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()
		ctx := c.Request.Context()

		token, _ := c.Cookie(SessionCookieName)

		var (
			session *model.Session
			err     error
		)
		if mode == modeOptional {
			session, err = s.sessionService.Lookup(ctx, token)
		} else {
			session, _, err = s.sessionService.Resolve(ctx, token, mode == modeCreate)
		}
		if err != nil {
			switch {
			case errors.Is(err, service.ErrMissingSession):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session"})
			case errors.Is(err, service.ErrUnknownSession):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown session"})
			default:
				log.Error("failed to resolve session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			return
		}

		if session == nil {
			c.Next()
			return
		}

		c.Set(SessionKey, session)

		w := &sessionCookieWriter{
			ResponseWriter: c.Writer,
			cookie:         s.newCookie(session),
		}
		c.Writer = w
		c.Next()
		w.attach()
		c.Writer = w.ResponseWriter
	}
}

func (s *Sessions) newCookie(session *model.Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID.String(),
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CurrentSession returns the session resolved by Sessions, or nil.
func CurrentSession(c *gin.Context) *model.Session {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil
	}
	session, _ := v.(*model.Session)
	return session
}

// sessionCookieWriter sets the cookie right before the headers go out.
type sessionCookieWriter struct {
	gin.ResponseWriter
	cookie   *http.Cookie
	attached bool
}

func (w *sessionCookieWriter) attach() {
	if w.attached || w.ResponseWriter.Written() {
		return
	}
	w.attached = true
	if w.ResponseWriter.Status() < http.StatusBadRequest {
		http.SetCookie(w.ResponseWriter, w.cookie)
	}
}

func (w *sessionCookieWriter) WriteHeaderNow() {
	w.attach()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionCookieWriter) Write(data []byte) (int, error) {
	w.attach()
	return w.ResponseWriter.Write(data)
}

func (w *sessionCookieWriter) WriteString(s string) (int, error) {
	w.attach()
	return w.ResponseWriter.WriteString(s)
}
