package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// BlogPostRequest is the admin create/update payload
type BlogPostRequest struct {
	Title     string `json:"title" binding:"required"`
	Slug      string `json:"slug" binding:"required" validate:"required,slug"`
	Excerpt   string `json:"excerpt"`
	Body      string `json:"body" binding:"required"`
	Author    string `json:"author"`
	Published bool   `json:"published"`
}

// @Summary List published blog posts
// @Tags blog
// @Produce json
// @Success 200 {array} models.BlogPost
// @Router /api/blog [get]
func (s *Server) listBlogPosts(c *gin.Context) {
	var posts []models.BlogPost
	err := s.db.Where("published = ?", true).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list blog posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// @Summary Get blog post
// @Tags blog
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.BlogPost
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/{slug} [get]
func (s *Server) getBlogPost(c *gin.Context) {
	var post models.BlogPost
	err := s.db.Where("slug = ? AND published = ?", c.Param("slug"), true).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Create blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BlogPostRequest true "Post"
// @Success 201 {object} models.BlogPost
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/blog [post]
func (s *Server) createBlogPost(c *gin.Context) {
	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	post := models.BlogPost{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Author:    req.Author,
		Published: req.Published,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := s.db.Create(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// @Summary Update blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body BlogPostRequest true "Post"
// @Success 200 {object} models.BlogPost
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/blog/{id} [put]
func (s *Server) updateBlogPost(c *gin.Context) {
	var post models.BlogPost
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	// Stamp first publication
	if req.Published && !post.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	post.Title = req.Title
	post.Slug = req.Slug
	post.Excerpt = req.Excerpt
	post.Body = req.Body
	post.Author = req.Author
	post.Published = req.Published

	if err := s.db.Save(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Delete blog post
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/blog/{id} [delete]
func (s *Server) deleteBlogPost(c *gin.Context) {
	var post models.BlogPost
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.Status(http.StatusNoContent)
}
