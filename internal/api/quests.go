package api

import (
	"errors"
	"net/http"

	"daily_quest/internal/middleware"
	"daily_quest/internal/model"
	"daily_quest/internal/service"
	"daily_quest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type questRoutes struct {
	qs      service.QuestServiceI
	hub     *Hub
	contact string
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, sessions *middleware.Sessions, hub *Hub, contact string) {
	r := &questRoutes{qs: qs, hub: hub, contact: contact}

	handler.GET("/", sessions.Optional(), r.Index)
	handler.GET("/tutorial", sessions.Optional(), r.Tutorial)
	handler.POST("/register", sessions.Create(), r.Register)
	handler.POST("/quest/:id", sessions.Require(), r.CompleteQuest)
}

type indexPage struct {
	Contact string
	Board   *model.Board
	Session *model.Session
}

type tutorialPage struct {
	Contact string
	State   *model.QuestState
}

func (r *questRoutes) Index(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/tutorial")
		return
	}

	board, err := r.qs.Today(c.Request.Context(), session)
	if err != nil {
		abortWithError(c, err, "load today's quests")
		return
	}

	c.HTML(http.StatusOK, pageIndex, indexPage{
		Contact: r.contact,
		Board:   board,
		Session: session,
	})
}

func (r *questRoutes) Tutorial(c *gin.Context) {
	log := logger.Logger()

	state, err := r.qs.Tutorial(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		if !errors.Is(err, service.ErrQuestNotFound) {
			abortWithError(c, err, "load tutorial")
			return
		}
		log.Warn("tutorial quest missing from catalog", zap.String("quest_id", r.qs.TutorialID()))
		state = nil
	}

	c.HTML(http.StatusOK, pageTutorial, tutorialPage{
		Contact: r.contact,
		State:   state,
	})
}

// Register completes the tutorial for a new or returning session and sends
// the visitor to the board.
func (r *questRoutes) Register(c *gin.Context) {
	log := logger.Logger()
	session := middleware.CurrentSession(c)

	_, err := r.qs.Complete(c.Request.Context(), session, r.qs.TutorialID())
	if err != nil {
		if !errors.Is(err, service.ErrQuestNotFound) {
			abortWithError(c, err, "register session")
			return
		}
		log.Warn("tutorial quest missing from catalog", zap.String("quest_id", r.qs.TutorialID()))
	}

	if isHTMXRequest(c.Request) {
		c.Header(headerHXRedirect, "/")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	session := middleware.CurrentSession(c)
	questID := c.Param("id")

	result, err := r.qs.Complete(c.Request.Context(), session, questID)
	if err != nil {
		abortWithError(c, err, "complete quest")
		return
	}

	if result.Granted {
		c.Header(headerHXTrigger, eventQuestCompleted)
		r.hub.Publish(session.ID, Event{
			Type: eventQuestCompleted,
			Payload: map[string]any{
				"quest_id": result.Quest.ID,
				"xp":       result.Session.XP,
				"items":    result.Session.Items,
			},
		})
	}

	completion := result.Completion
	c.HTML(http.StatusOK, partialQuest, model.QuestState{
		Quest:      result.Quest,
		Completion: &completion,
	})
}
