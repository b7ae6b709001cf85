package api

import (
	"fmt"
	"net/http"
	"time"

	"daily_quest/internal/middleware"
	"daily_quest/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Sessions service.SessionServiceI
	Quests   service.QuestServiceI
	Feedback service.FeedbackServiceI
	Hub      *Hub

	Cookie  middleware.CookieConfig
	Contact string

	// FeedbackLimit guards POST /feedback. Nil disables limiting.
	FeedbackLimit gin.HandlerFunc
}

func NewRouter(d Dependencies) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	hub := d.Hub
	if hub == nil {
		hub = NewHub()
	}
	limit := d.FeedbackLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	router := gin.New()
	router.Use(middleware.TraceID(), middleware.RequestLogger(), middleware.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
	}
	config.AllowHeaders = []string{"*"}
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))
	router.SetHTMLTemplate(tmpl)

	sessions := middleware.NewSessions(d.Sessions, d.Cookie)

	root := router.Group("/")
	NewHealthRoutes(root)
	NewQuestRoutes(root, d.Quests, sessions, hub, d.Contact)
	NewComponentRoutes(root, d.Quests, sessions)
	NewFeedbackRoutes(root, d.Feedback, sessions, limit)
	NewWebSocketRoutes(root, hub, sessions)

	return router, nil
}
