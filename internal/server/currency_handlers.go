package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/makao-homes/makao/internal/currency"
)

// cookiePersistence binds the currency store's single key/value slot to
// the preferredCurrency cookie of the current request
type cookiePersistence struct {
	c *gin.Context
}

func (p *cookiePersistence) Load() (string, bool) {
	value, err := p.c.Cookie(currency.PersistKey)
	return value, err == nil && value != ""
}

func (p *cookiePersistence) Save(value string) error {
	maxAge := int((365 * 24 * time.Hour).Seconds())
	p.c.SetCookie(currency.PersistKey, value, maxAge, "/", "", false, false)
	return nil
}

// currencyStore builds the per-request currency store: persisted choice
// (or locale detection) plus one rate-table snapshot. Initialize and
// LoadRates are independent; a failed load degrades to identity display.
func (s *Server) currencyStore(c *gin.Context) *currency.Store {
	store := currency.NewStore(s.rateSource, &cookiePersistence{c: c}, s.logger)
	store.Initialize(c.GetHeader("Accept-Language"))
	store.LoadRates(c.Request.Context())
	return store
}

// CurrencyResponse describes the active currency and the supported set
type CurrencyResponse struct {
	Active      currency.Currency `json:"active"`
	Supported   []currency.Info   `json:"supported"`
	RatesLoaded bool              `json:"rates_loaded"`
}

// SetCurrencyRequest selects the display currency
type SetCurrencyRequest struct {
	Currency string `json:"currency" binding:"required"`
}

// @Summary Get currency selection
// @Tags currency
// @Produce json
// @Success 200 {object} CurrencyResponse
// @Router /api/currency [get]
func (s *Server) getCurrency(c *gin.Context) {
	store := s.currencyStore(c)

	supported := make([]currency.Info, 0, len(currency.Supported()))
	for _, code := range currency.Supported() {
		info, _ := currency.Lookup(code)
		supported = append(supported, info)
	}

	c.JSON(http.StatusOK, CurrencyResponse{
		Active:      store.Active(),
		Supported:   supported,
		RatesLoaded: store.HasRates(),
	})
}

// @Summary Set display currency
// @Tags currency
// @Accept json
// @Produce json
// @Param request body SetCurrencyRequest true "Currency selection"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/currency [put]
func (s *Server) setCurrency(c *gin.Context) {
	var req SetCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, ok := currency.Parse(req.Currency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported currency"})
		return
	}

	store := currency.NewStore(s.rateSource, &cookiePersistence{c: c}, s.logger)
	if err := store.SetCurrency(parsed); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist currency choice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save currency"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": parsed})
}

// @Summary List exchange rates
// @Description Current rate table relative to the KES base
// @Tags currency
// @Produce json
// @Success 200 {array} currency.Rate
// @Router /api/rates [get]
func (s *Server) listRates(c *gin.Context) {
	rates, err := s.rateSource.FetchRates(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load rates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rates"})
		return
	}

	c.JSON(http.StatusOK, rates)
}
