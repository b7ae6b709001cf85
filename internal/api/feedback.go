package api

import (
	"net/http"

	"daily_quest/internal/middleware"
	"daily_quest/internal/service"

	"github.com/gin-gonic/gin"
)

type feedbackRoutes struct {
	fs service.FeedbackServiceI
}

func NewFeedbackRoutes(handler *gin.RouterGroup, fs service.FeedbackServiceI, sessions *middleware.Sessions, limit gin.HandlerFunc) {
	r := &feedbackRoutes{fs: fs}
	handler.POST("/feedback", limit, sessions.Optional(), r.SubmitFeedback)
}

type FeedbackRequest struct {
	// matches service.MaxFeedbackLength
	Message string `form:"message" json:"message" binding:"max=2000"`
}

func (r *feedbackRoutes) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	_, err := r.fs.Submit(c.Request.Context(), middleware.CurrentSession(c), req.Message)
	if err != nil {
		abortWithError(c, err, "submit feedback")
		return
	}

	c.HTML(http.StatusOK, partialFeedbackOK, nil)
}
