package handlers

import (
	"net/http"
	"strings"

	"leetclone/internal/models"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DoubtHandler struct {
	doubts *services.DoubtService
	auth   *services.AuthService
}

func NewDoubtHandler(doubts *services.DoubtService, auth *services.AuthService) *DoubtHandler {
	return &DoubtHandler{doubts: doubts, auth: auth}
}

func requiredTitleSlug(c *gin.Context) (string, bool) {
	titleSlug := strings.TrimSpace(c.Query("titleSlug"))
	if titleSlug == "" {
		badRequest(c, "titleSlug query parameter is required")
		return "", false
	}
	return titleSlug, true
}

func (h *DoubtHandler) AskDoubt(c *gin.Context) {
	var req models.DoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session := mustSession(c)
	doubt, err := h.doubts.AskDoubt(c.Request.Context(), h.auth.Author(c.Request.Context(), session), req)
	if err != nil {
		respondError(c, err, "Failed to answer doubt", zap.String("title_slug", req.TitleSlug))
		return
	}
	c.JSON(http.StatusCreated, doubt)
}

func (h *DoubtHandler) ListDoubts(c *gin.Context) {
	titleSlug, ok := requiredTitleSlug(c)
	if !ok {
		return
	}
	doubts, err := h.doubts.ListDoubts(c.Request.Context(), titleSlug, c.Query("sort"))
	if err != nil {
		respondError(c, err, "Failed to list doubts", zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, doubts)
}

func (h *DoubtHandler) DeleteDoubt(c *gin.Context) {
	id := c.Param("id")
	if err := h.doubts.DeleteDoubt(c.Request.Context(), mustSession(c).UserID, id); err != nil {
		respondError(c, err, "Failed to delete doubt", zap.String("doubt_id", id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DoubtHandler) ToggleDoubtLike(c *gin.Context) {
	id := c.Param("id")
	doubt, err := h.doubts.ToggleDoubtLike(c.Request.Context(), mustSession(c).UserID, id)
	if err != nil {
		respondError(c, err, "Failed to toggle doubt like", zap.String("doubt_id", id))
		return
	}
	c.JSON(http.StatusOK, doubt)
}

func (h *DoubtHandler) CreateThread(c *gin.Context) {
	var req models.DoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session := mustSession(c)
	thread, err := h.doubts.CreateThread(c.Request.Context(), h.auth.Author(c.Request.Context(), session), req)
	if err != nil {
		respondError(c, err, "Failed to create thread", zap.String("title_slug", req.TitleSlug))
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *DoubtHandler) ListThreads(c *gin.Context) {
	titleSlug, ok := requiredTitleSlug(c)
	if !ok {
		return
	}
	threads, err := h.doubts.ListThreads(c.Request.Context(), titleSlug, c.Query("sort"))
	if err != nil {
		respondError(c, err, "Failed to list threads", zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *DoubtHandler) DeleteThread(c *gin.Context) {
	id := c.Param("id")
	if err := h.doubts.DeleteThread(c.Request.Context(), mustSession(c).UserID, id); err != nil {
		respondError(c, err, "Failed to delete thread", zap.String("thread_id", id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DoubtHandler) ToggleThreadLike(c *gin.Context) {
	id := c.Param("id")
	thread, err := h.doubts.ToggleThreadLike(c.Request.Context(), mustSession(c).UserID, id)
	if err != nil {
		respondError(c, err, "Failed to toggle thread like", zap.String("thread_id", id))
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *DoubtHandler) AddThreadComment(c *gin.Context) {
	var req models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	session := mustSession(c)
	comment, err := h.doubts.AddThreadComment(c.Request.Context(), id, h.auth.Author(c.Request.Context(), session), req.Content)
	if err != nil {
		respondError(c, err, "Failed to add thread comment", zap.String("thread_id", id))
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *DoubtHandler) ToggleThreadCommentLike(c *gin.Context) {
	id, commentID := c.Param("id"), c.Param("commentId")
	comment, err := h.doubts.ToggleThreadCommentLike(c.Request.Context(), mustSession(c).UserID, id, commentID)
	if err != nil {
		respondError(c, err, "Failed to toggle thread comment like",
			zap.String("thread_id", id),
			zap.String("comment_id", commentID))
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *DoubtHandler) DeleteThreadComment(c *gin.Context) {
	id, commentID := c.Param("id"), c.Param("commentId")
	if err := h.doubts.DeleteThreadComment(c.Request.Context(), mustSession(c).UserID, id, commentID); err != nil {
		respondError(c, err, "Failed to delete thread comment",
			zap.String("thread_id", id),
			zap.String("comment_id", commentID))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DoubtHandler) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	doubtGroup := router.Group("/doubts")
	{
		doubtGroup.GET("", h.ListDoubts)
		doubtGroup.POST("", requireAuth, h.AskDoubt)
		doubtGroup.DELETE("/:id", requireAuth, h.DeleteDoubt)
		doubtGroup.POST("/:id/like", requireAuth, h.ToggleDoubtLike)
	}

	threadGroup := router.Group("/threads")
	{
		threadGroup.GET("", h.ListThreads)
		threadGroup.POST("", requireAuth, h.CreateThread)
		threadGroup.DELETE("/:id", requireAuth, h.DeleteThread)
		threadGroup.POST("/:id/like", requireAuth, h.ToggleThreadLike)
		threadGroup.POST("/:id/comments", requireAuth, h.AddThreadComment)
		threadGroup.POST("/:id/comments/:commentId/like", requireAuth, h.ToggleThreadCommentLike)
		threadGroup.DELETE("/:id/comments/:commentId", requireAuth, h.DeleteThreadComment)
	}
}
