package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// CreateReviewRequest is the public review submission payload
type CreateReviewRequest struct {
	AuthorName string `json:"author_name" binding:"required,max=120"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" binding:"required,max=2000"`
}

// @Summary List approved reviews
// @Tags reviews
// @Produce json
// @Success 200 {array} models.Review
// @Router /api/reviews [get]
func (s *Server) listReviews(c *gin.Context) {
	var reviews []models.Review
	err := s.db.Where("approved = ?", true).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// @Summary Submit review
// @Description Reviews are moderated: they appear publicly once approved
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} map[string]interface{}
// @Router /api/reviews [post]
func (s *Server) createReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := models.Review{
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Approved:   false,
	}

	if err := s.db.Create(&review).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// @Summary List all reviews
// @Description Admin moderation queue including unapproved reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Review
// @Router /api/admin/reviews [get]
func (s *Server) adminListReviews(c *gin.Context) {
	query := s.db.Order("created_at DESC")
	if c.Query("pending") == "true" {
		query = query.Where("approved = ?", false)
	}

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// @Summary Approve review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/reviews/{id}/approve [post]
func (s *Server) approveReview(c *gin.Context) {
	var review models.Review
	if err := models.FindByID(s.db, c.Param("id"), &review); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Model(&review).Update("approved", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to approve review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve review"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("review_id", review.ID).
		Str("approved_by", sessionData.UserID).
		Msg("Review approved")

	review.Approved = true
	c.JSON(http.StatusOK, review)
}

// @Summary Delete review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/reviews/{id} [delete]
func (s *Server) deleteReview(c *gin.Context) {
	var review models.Review
	if err := models.FindByID(s.db, c.Param("id"), &review); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&review).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		return
	}

	c.Status(http.StatusNoContent)
}
