package handlers

import (
	"net/http"

	"leetclone/internal/models"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NoteHandler struct {
	notes *services.NoteService
}

func NewNoteHandler(notes *services.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	titleSlug := c.Param("titleSlug")
	note, err := h.notes.GetNote(c.Request.Context(), mustSession(c).UserID, titleSlug)
	if err != nil {
		respondError(c, err, "Failed to get note", zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) SaveNote(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	titleSlug := c.Param("titleSlug")
	note, err := h.notes.SaveNote(c.Request.Context(), mustSession(c).UserID, titleSlug, req.Content)
	if err != nil {
		respondError(c, err, "Failed to save note", zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) ListNotes(c *gin.Context) {
	notes, err := h.notes.ListNotes(c.Request.Context(), mustSession(c).UserID)
	if err != nil {
		respondError(c, err, "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	noteGroup := router.Group("/notes", requireAuth)
	{
		noteGroup.GET("", h.ListNotes)
		noteGroup.GET("/:titleSlug", h.GetNote)
		noteGroup.PUT("/:titleSlug", h.SaveNote)
	}
}
