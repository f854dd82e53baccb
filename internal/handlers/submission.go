package handlers

import (
	"net/http"
	"strings"

	"leetclone/internal/models"
	"leetclone/internal/repositories"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	problems    *services.ProblemService
	evaluator   *services.Evaluator
	submissions repositories.SubmissionRepository
	progress    repositories.ProgressRepository
	chat        services.Completer
}

func NewSubmissionHandler(problems *services.ProblemService, evaluator *services.Evaluator,
	submissions repositories.SubmissionRepository, progress repositories.ProgressRepository,
	chat services.Completer) *SubmissionHandler {
	return &SubmissionHandler{
		problems:    problems,
		evaluator:   evaluator,
		submissions: submissions,
		progress:    progress,
		chat:        chat,
	}
}

// Run executes the code against the fixture cases plus any custom cases
// and returns the per-case results without persisting anything.
func (h *SubmissionHandler) Run(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := req.ValidateRequest(); err != nil {
		badRequest(c, err.Error())
		return
	}

	cases, err := h.problems.CasesForRun(req.TitleSlug, req.TestCases)
	if err != nil {
		respondError(c, err, "Failed to load test cases", zap.String("title_slug", req.TitleSlug))
		return
	}

	results := h.evaluator.Run(c.Request.Context(), cases, req.Language, req.Code)
	c.JSON(http.StatusOK, gin.H{"testCases": results})
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := req.ValidateRequest(); err != nil {
		badRequest(c, err.Error())
		return
	}

	cases, err := h.problems.CasesForSubmit(req.TitleSlug)
	if err != nil {
		respondError(c, err, "Failed to load test cases", zap.String("title_slug", req.TitleSlug))
		return
	}

	results, result := h.evaluator.Submit(c.Request.Context(), mustSession(c), req.TitleSlug, cases, req.Language, req.Code)
	c.JSON(http.StatusOK, gin.H{
		"testCases": results,
		"result":    result,
	})
}

func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	titleSlug := strings.TrimSpace(c.Query("titleSlug"))
	if titleSlug == "" {
		badRequest(c, "titleSlug query parameter is required")
		return
	}

	session := mustSession(c)
	records, err := h.submissions.ListSubmissions(c.Request.Context(), session.UserID, titleSlug)
	if err != nil {
		respondError(c, services.StoreError(err, "submissions"), "Failed to list submissions",
			zap.String("user_id", session.UserID),
			zap.String("title_slug", titleSlug))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": records,
		"count":       len(records),
	})
}

func (h *SubmissionHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	content, err := h.chat.Complete(c.Request.Context(), services.AnalyzePrompt(req.Mode, req.Code))
	if err != nil {
		respondError(c, err, "Code analysis failed", zap.String("mode", req.Mode))
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (h *SubmissionHandler) ListProgress(c *gin.Context) {
	session := mustSession(c)
	progress, err := h.progress.ListProgress(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, services.StoreError(err, "progress"), "Failed to list progress",
			zap.String("user_id", session.UserID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *SubmissionHandler) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	submissionGroup := router.Group("/submissions")
	{
		submissionGroup.POST("/run", h.Run)
		submissionGroup.POST("/analyze", h.Analyze)
		submissionGroup.POST("", requireAuth, h.Submit)
		submissionGroup.GET("", requireAuth, h.ListSubmissions)
	}
	router.GET("/progress", requireAuth, h.ListProgress)
}
