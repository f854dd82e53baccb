package handlers

import (
	"net/http"
	"strings"

	"leetclone/internal/middlewares"
	"leetclone/internal/models"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const anonymousName = "Anonymous"

type ForumHandler struct {
	forum *services.ForumService
	auth  *services.AuthService
}

func NewForumHandler(forum *services.ForumService, auth *services.AuthService) *ForumHandler {
	return &ForumHandler{forum: forum, auth: auth}
}

// author is the session user or, for anonymous callers, the username query
// parameter.
func (h *ForumHandler) author(c *gin.Context) models.Author {
	if session, ok := middlewares.CurrentSession(c); ok {
		return h.auth.Author(c.Request.Context(), session)
	}
	name := strings.TrimSpace(c.Query("username"))
	if name == "" {
		name = anonymousName
	}
	return models.Author{Name: name}
}

func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	post, err := h.forum.CreatePost(c.Request.Context(), h.author(c), req)
	if err != nil {
		respondError(c, err, "Failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *ForumHandler) ListPosts(c *gin.Context) {
	posts, err := h.forum.ListPosts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *ForumHandler) AddComment(c *gin.Context) {
	var req models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	postID := c.Param("id")
	comment, err := h.forum.AddComment(c.Request.Context(), postID, h.author(c), req.Content)
	if err != nil {
		respondError(c, err, "Failed to add comment", zap.String("post_id", postID))
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *ForumHandler) Reply(c *gin.Context) {
	var req models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	commentID := c.Param("id")
	reply, err := h.forum.Reply(c.Request.Context(), commentID, h.author(c), req.Content)
	if err != nil {
		respondError(c, err, "Failed to add reply", zap.String("comment_id", commentID))
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// ToggleLike keys the like on the user id, or on the display name for
// anonymous callers.
func (h *ForumHandler) ToggleLike(c *gin.Context) {
	author := h.author(c)
	liker := author.ID
	if liker == "" {
		liker = author.Name
	}

	postID, commentID := c.Param("id"), c.Param("commentId")
	comment, err := h.forum.ToggleCommentLike(c.Request.Context(), postID, commentID, liker)
	if err != nil {
		respondError(c, err, "Failed to toggle like",
			zap.String("post_id", postID),
			zap.String("comment_id", commentID))
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *ForumHandler) RegisterRoutes(router gin.IRouter, optionalAuth gin.HandlerFunc) {
	postGroup := router.Group("/api/posts", optionalAuth)
	{
		postGroup.POST("", h.CreatePost)
		postGroup.GET("", h.ListPosts)
		postGroup.POST("/comments/:id", h.AddComment)
		postGroup.POST("/comments/:id/reply", h.Reply)
		postGroup.POST("/:id/comments/:commentId/like", h.ToggleLike)
	}
}
