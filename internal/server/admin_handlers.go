package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/makao-homes/makao/internal/models"
	"github.com/makao-homes/makao/internal/tasks"
)

// SummaryResponse is the dashboard landing data
type SummaryResponse struct {
	Properties       int64 `json:"properties"`
	PublishedListing int64 `json:"published_listings"`
	BlogPosts        int64 `json:"blog_posts"`
	PendingReviews   int64 `json:"pending_reviews"`
	OpenInquiries    int64 `json:"open_inquiries"`
	TravelGuides     int64 `json:"travel_guides"`
}

// UpdateSettingsRequest is the admin settings payload
type UpdateSettingsRequest struct {
	SiteName             *string `json:"site_name"`
	RatesRefreshSchedule *string `json:"rates_refresh_schedule"`
}

// @Summary Dashboard summary
// @Description Counts backing the admin dashboard landing view
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SummaryResponse
// @Router /api/admin/summary [get]
func (s *Server) getSummary(c *gin.Context) {
	var summary SummaryResponse

	counts := []struct {
		dest  *int64
		model interface{}
		where []interface{}
	}{
		{&summary.Properties, &models.Property{}, nil},
		{&summary.PublishedListing, &models.Property{}, []interface{}{"published = ?", true}},
		{&summary.BlogPosts, &models.BlogPost{}, nil},
		{&summary.PendingReviews, &models.Review{}, []interface{}{"approved = ?", false}},
		{&summary.OpenInquiries, &models.ContactInquiry{}, []interface{}{"handled = ?", false}},
		{&summary.TravelGuides, &models.TravelGuide{}, nil},
	}

	for _, count := range counts {
		query := s.db.Model(count.model)
		if count.where != nil {
			query = query.Where(count.where[0], count.where[1:]...)
		}
		if err := query.Count(count.dest).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to build summary")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary Get settings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Router /api/admin/settings [get]
func (s *Server) getSettings(c *gin.Context) {
	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary Update settings
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateSettingsRequest true "Settings patch"
// @Success 200 {object} models.Settings
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/settings [patch]
func (s *Server) updateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}

	if req.SiteName != nil {
		if *req.SiteName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Site name cannot be empty"})
			return
		}
		updates["site_name"] = *req.SiteName
	}

	if req.RatesRefreshSchedule != nil {
		schedule := *req.RatesRefreshSchedule
		if schedule != "" {
			// Validate the cron expression before persisting it
			parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
			if _, err := parser.Parse(schedule); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh schedule", "details": err.Error()})
				return
			}
		}
		updates["rates_refresh_schedule"] = schedule
		// Force the scheduler to recompute from the new expression
		updates["next_rates_refresh_at"] = nil
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, settings)
		return
	}

	if err := s.db.Model(&settings).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	if err := s.db.First(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to reload settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary Trigger rate refresh
// @Description Enqueue an immediate exchange-rate refresh
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]interface{}
// @Router /api/admin/rates/refresh [post]
func (s *Server) triggerRateRefresh(c *gin.Context) {
	task, err := tasks.NewRefreshRatesTask(true)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build rate refresh task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger refresh"})
		return
	}

	info, err := s.asynqClient.Enqueue(task, asynq.Queue("critical"))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue rate refresh task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger refresh"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("task_id", info.ID).
		Str("triggered_by", sessionData.UserID).
		Msg("Manual rate refresh enqueued")

	c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID})
}
