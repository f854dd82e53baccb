package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"leetclone/internal/logger"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpstreamHandler exposes the execution, chat and profile APIs to the
// browser client.
type UpstreamHandler struct {
	piston   *services.PistonClient
	chat     services.Completer
	leetcode *services.LeetCodeClient
}

func NewUpstreamHandler(piston *services.PistonClient, chat services.Completer, leetcode *services.LeetCodeClient) *UpstreamHandler {
	return &UpstreamHandler{piston: piston, chat: chat, leetcode: leetcode}
}

type executeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
	Stdin    string `json:"stdin"`
}

// Execute relays one execution. Upstream error statuses are passed through.
func (h *UpstreamHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	raw, err := h.piston.ExecuteRaw(c.Request.Context(), h.piston.BuildRequest(req.Language, req.Code, req.Stdin))
	if err != nil {
		relayUpstreamError(c, err, "Code execution failed")
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *UpstreamHandler) Runtimes(c *gin.Context) {
	raw, err := h.piston.Runtimes(c.Request.Context())
	if err != nil {
		relayUpstreamError(c, err, "Failed to fetch runtimes")
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *UpstreamHandler) Completion(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	content, err := h.chat.Complete(c.Request.Context(), req.Content)
	if err != nil {
		respondError(c, err, "Chat completion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (h *UpstreamHandler) Profile(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	raw, err := h.leetcode.Profile(c.Request.Context(), username)
	if err != nil {
		relayUpstreamError(c, err, "Failed to fetch profile", zap.String("username", username))
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func relayUpstreamError(c *gin.Context, err error, msg string, fields ...zap.Field) {
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		respondError(c, err, msg, fields...)
		return
	}
	respondLogger(c).Warn(msg, append(fields, zap.Int("upstream_status", upstream.Status))...)
	c.JSON(upstream.Status, gin.H{"error": json.RawMessage(upstream.Body)})
}

func respondLogger(c *gin.Context) *zap.Logger {
	return logger.FromContext(c.Request.Context())
}

func (h *UpstreamHandler) RegisterRoutes(router gin.IRouter) {
	pistonGroup := router.Group("/piston")
	{
		pistonGroup.POST("/execute", h.Execute)
		pistonGroup.GET("/runtimes", h.Runtimes)
	}
	router.POST("/ai-completion", h.Completion)
	router.GET("/leetcode/profile/:username", h.Profile)
}
