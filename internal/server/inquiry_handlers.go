package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
	"github.com/makao-homes/makao/internal/tasks"
)

// CreateInquiryRequest is the public contact-form payload
type CreateInquiryRequest struct {
	Name       string `json:"name" binding:"required,max=120"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"max=32"`
	Subject    string `json:"subject" binding:"max=200"`
	Message    string `json:"message" binding:"required,max=5000"`
	PropertyID string `json:"property_id"`
}

// @Summary Submit contact inquiry
// @Description Persists the inquiry and enqueues a staff notification
// @Tags inquiries
// @Accept json
// @Produce json
// @Param request body CreateInquiryRequest true "Inquiry"
// @Success 201 {object} models.ContactInquiry
// @Failure 400 {object} map[string]interface{}
// @Router /api/inquiries [post]
func (s *Server) createInquiry(c *gin.Context) {
	var req CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inquiry := models.ContactInquiry{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}

	// An inquiry may reference the listing it was sent from
	if req.PropertyID != "" {
		var property models.Property
		if err := models.FindByID(s.db, req.PropertyID, &property); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown property"})
				return
			}
			s.logger.Error().Err(err).Msg("Failed to check property")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		inquiry.PropertyID = &property.ID
	}

	if err := s.db.Create(&inquiry).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create inquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit inquiry"})
		return
	}

	// Notification delivery happens out of band; a queue failure must
	// not lose the already persisted inquiry
	task, err := tasks.NewNotifyInquiryTask(inquiry.ID)
	if err == nil {
		_, err = s.asynqClient.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(5))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("inquiry_id", inquiry.ID).Msg("Failed to enqueue inquiry notification")
	}

	c.JSON(http.StatusCreated, inquiry)
}

// @Summary List inquiries
// @Description Admin triage list, newest first
// @Tags inquiries
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ContactInquiry
// @Router /api/admin/inquiries [get]
func (s *Server) listInquiries(c *gin.Context) {
	query := s.db.Preload("Property").Order("created_at DESC")
	if c.Query("open") == "true" {
		query = query.Where("handled = ?", false)
	}

	var inquiries []models.ContactInquiry
	if err := query.Find(&inquiries).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list inquiries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, inquiries)
}

// @Summary Mark inquiry handled
// @Tags inquiries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inquiry ID"
// @Success 200 {object} models.ContactInquiry
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/inquiries/{id}/handled [post]
func (s *Server) markInquiryHandled(c *gin.Context) {
	var inquiry models.ContactInquiry
	if err := models.FindByID(s.db, c.Param("id"), &inquiry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load inquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Model(&inquiry).Update("handled", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark inquiry handled")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inquiry"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("handled_by", sessionData.UserID).
		Msg("Inquiry marked handled")

	inquiry.Handled = true
	c.JSON(http.StatusOK, inquiry)
}
