package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// TravelGuideRequest is the admin create/update payload
type TravelGuideRequest struct {
	Title     string `json:"title" binding:"required"`
	Slug      string `json:"slug" binding:"required" validate:"required,slug"`
	Region    string `json:"region"`
	Summary   string `json:"summary"`
	Body      string `json:"body" binding:"required"`
	Published bool   `json:"published"`
}

// @Summary List travel guides
// @Tags guides
// @Produce json
// @Param region query string false "Filter by region"
// @Success 200 {array} models.TravelGuide
// @Router /api/guides [get]
func (s *Server) listGuides(c *gin.Context) {
	query := s.db.Where("published = ?", true)
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	var guides []models.TravelGuide
	if err := query.Order("title ASC").Find(&guides).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list travel guides")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, guides)
}

// @Summary Get travel guide
// @Tags guides
// @Produce json
// @Param slug path string true "Guide slug"
// @Success 200 {object} models.TravelGuide
// @Failure 404 {object} map[string]interface{}
// @Router /api/guides/{slug} [get]
func (s *Server) getGuide(c *gin.Context) {
	var guide models.TravelGuide
	err := s.db.Where("slug = ? AND published = ?", c.Param("slug"), true).
		First(&guide).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, guide)
}

// @Summary Create travel guide
// @Tags guides
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TravelGuideRequest true "Guide"
// @Success 201 {object} models.TravelGuide
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/guides [post]
func (s *Server) createGuide(c *gin.Context) {
	var req TravelGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	guide := models.TravelGuide{
		Title:     req.Title,
		Slug:      req.Slug,
		Region:    req.Region,
		Summary:   req.Summary,
		Body:      req.Body,
		Published: req.Published,
	}

	if err := s.db.Create(&guide).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guide"})
		return
	}

	c.JSON(http.StatusCreated, guide)
}

// @Summary Update travel guide
// @Tags guides
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Guide ID"
// @Param request body TravelGuideRequest true "Guide"
// @Success 200 {object} models.TravelGuide
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/guides/{id} [put]
func (s *Server) updateGuide(c *gin.Context) {
	var guide models.TravelGuide
	if err := models.FindByID(s.db, c.Param("id"), &guide); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req TravelGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	guide.Title = req.Title
	guide.Slug = req.Slug
	guide.Region = req.Region
	guide.Summary = req.Summary
	guide.Body = req.Body
	guide.Published = req.Published

	if err := s.db.Save(&guide).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guide"})
		return
	}

	c.JSON(http.StatusOK, guide)
}

// @Summary Delete travel guide
// @Tags guides
// @Produce json
// @Security BearerAuth
// @Param id path string true "Guide ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/guides/{id} [delete]
func (s *Server) deleteGuide(c *gin.Context) {
	var guide models.TravelGuide
	if err := models.FindByID(s.db, c.Param("id"), &guide); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&guide).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete travel guide")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guide"})
		return
	}

	c.Status(http.StatusNoContent)
}
