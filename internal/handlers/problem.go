package handlers

import (
	"net/http"

	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProblemHandler struct {
	problems *services.ProblemService
}

func NewProblemHandler(problems *services.ProblemService) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

// GetProblem returns the question metadata and the public fixture test cases.
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	titleSlug := c.Param("titleSlug")
	problem, err := h.problems.GetProblem(c.Request.Context(), titleSlug)
	if err != nil {
		respondError(c, err, "Failed to get problem", zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, problem)
}

func (h *ProblemHandler) GetSnippet(c *gin.Context) {
	titleSlug := c.Param("titleSlug")
	language := c.Query("language")
	if language == "" {
		badRequest(c, "language query parameter is required")
		return
	}

	code, err := h.problems.Snippet(c.Request.Context(), titleSlug, language)
	if err != nil {
		respondError(c, err, "Failed to get snippet",
			zap.String("title_slug", titleSlug),
			zap.String("language", language))
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": language, "code": code})
}

func (h *ProblemHandler) RegisterRoutes(router gin.IRouter) {
	problemGroup := router.Group("/problems")
	{
		problemGroup.GET("/:titleSlug", h.GetProblem)
		problemGroup.GET("/:titleSlug/snippet", h.GetSnippet)
	}
}
