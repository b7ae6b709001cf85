package api

import (
	"net/http"

	"daily_quest/internal/middleware"
	"daily_quest/internal/service"

	"github.com/gin-gonic/gin"
)

type componentRoutes struct {
	qs service.QuestServiceI
}

func NewComponentRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, sessions *middleware.Sessions) {
	r := &componentRoutes{qs: qs}
	h := handler.Group("/components")
	h.Use(sessions.Require())
	{
		h.GET("/inventory", r.Inventory)
		h.GET("/notification", r.Notification)
	}
}

func (r *componentRoutes) Inventory(c *gin.Context) {
	c.HTML(http.StatusOK, partialInventory, middleware.CurrentSession(c))
}

// Notification renders the most recent completion, or nothing.
func (r *componentRoutes) Notification(c *gin.Context) {
	state, err := r.qs.Latest(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		abortWithError(c, err, "load notification")
		return
	}
	c.HTML(http.StatusOK, partialNotice, state)
}
