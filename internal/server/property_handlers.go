package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/currency"
	"github.com/makao-homes/makao/internal/models"
)

// PropertyRequest is the admin create/update payload. Prices are always
// submitted in KES.
type PropertyRequest struct {
	Title       string  `json:"title" binding:"required"`
	Slug        string  `json:"slug" binding:"required" validate:"required,slug"`
	Description string  `json:"description"`
	Location    string  `json:"location" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=house apartment land commercial"`
	Bedrooms    int     `json:"bedrooms" binding:"min=0"`
	Bathrooms   int     `json:"bathrooms" binding:"min=0"`
	AreaSqm     float64 `json:"area_sqm" binding:"min=0"`
	PriceKES    float64 `json:"price_kes" binding:"required,gt=0"`
	Featured    bool    `json:"featured"`
	Published   bool    `json:"published"`
}

// PropertyResponse is a listing plus its display price in the caller's
// currency
type PropertyResponse struct {
	models.Property
	DisplayPrice    string            `json:"display_price"`
	DisplayCurrency currency.Currency `json:"display_currency"`
}

func toPropertyResponse(p models.Property, store *currency.Store) PropertyResponse {
	return PropertyResponse{
		Property:        p,
		DisplayPrice:    store.FormatPrice(p.PriceKES, currency.KES, false),
		DisplayCurrency: store.Active(),
	}
}

// @Summary List published properties
// @Description Public listing search with optional filters
// @Tags properties
// @Produce json
// @Param location query string false "Location substring"
// @Param type query string false "Property type"
// @Param min_price query number false "Minimum price in KES"
// @Param max_price query number false "Maximum price in KES"
// @Success 200 {array} PropertyResponse
// @Router /api/properties [get]
func (s *Server) listProperties(c *gin.Context) {
	query := s.db.Where("published = ?", true)

	if location := strings.TrimSpace(c.Query("location")); location != "" {
		query = query.Where("location LIKE ?", "%"+location+"%")
	}
	if propertyType := c.Query("type"); propertyType != "" {
		query = query.Where("type = ?", propertyType)
	}
	if minPrice, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		query = query.Where("price_kes >= ?", minPrice)
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		query = query.Where("price_kes <= ?", maxPrice)
	}
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}

	var properties []models.Property
	if err := query.Order("created_at DESC").Find(&properties).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	store := s.currencyStore(c)
	out := make([]PropertyResponse, len(properties))
	for i, p := range properties {
		out[i] = toPropertyResponse(p, store)
	}

	c.JSON(http.StatusOK, out)
}

// @Summary Get property
// @Description Fetch one published listing by ID or slug
// @Tags properties
// @Produce json
// @Param id path string true "Property ID or slug"
// @Success 200 {object} PropertyResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/properties/{id} [get]
func (s *Server) getProperty(c *gin.Context) {
	id := c.Param("id")

	var property models.Property
	err := s.db.Where("published = ?", true).
		Where("id = ? OR slug = ?", id, id).
		First(&property).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, toPropertyResponse(property, s.currencyStore(c)))
}

// @Summary List all properties
// @Description Admin listing including unpublished drafts
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Property
// @Router /api/admin/properties [get]
func (s *Server) adminListProperties(c *gin.Context) {
	var properties []models.Property
	if err := s.db.Order("created_at DESC").Find(&properties).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

// @Summary Create property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PropertyRequest true "Property"
// @Success 201 {object} models.Property
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/properties [post]
func (s *Server) createProperty(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	property := models.Property{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqm:     req.AreaSqm,
		PriceKES:    req.PriceKES,
		Featured:    req.Featured,
		Published:   req.Published,
	}

	if err := s.db.Create(&property).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("property_id", property.ID).
		Str("created_by", sessionData.UserID).
		Msg("Property created")

	c.JSON(http.StatusCreated, property)
}

// @Summary Update property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param request body PropertyRequest true "Property"
// @Success 200 {object} models.Property
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/properties/{id} [put]
func (s *Server) updateProperty(c *gin.Context) {
	var property models.Property
	if err := models.FindByID(s.db, c.Param("id"), &property); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	property.Title = req.Title
	property.Slug = req.Slug
	property.Description = req.Description
	property.Location = req.Location
	property.Type = req.Type
	property.Bedrooms = req.Bedrooms
	property.Bathrooms = req.Bathrooms
	property.AreaSqm = req.AreaSqm
	property.PriceKES = req.PriceKES
	property.Featured = req.Featured
	property.Published = req.Published

	if err := s.db.Save(&property).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// @Summary Delete property
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/properties/{id} [delete]
func (s *Server) deleteProperty(c *gin.Context) {
	var property models.Property
	if err := models.FindByID(s.db, c.Param("id"), &property); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&property).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		return
	}

	c.Status(http.StatusNoContent)
}
