package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// Rate is one entry of the exchange-rate table: units of Currency per
// one unit of the base (KES)
type Rate struct {
	Currency Currency `json:"currency"`
	Rate     float64  `json:"rate"`
}

// Source is the exchange-rate boundary
type Source interface {
	FetchRates(ctx context.Context) ([]Rate, error)
}

// HTTPSource fetches rates from an upstream JSON endpoint with a bounded
// per-request budget
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the given endpoint
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// ratesResponse is the upstream payload shape:
// {"base": "KES", "rates": {"USD": 0.0077, ...}}
type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRates fetches and filters the table down to supported currencies
func (s *HTTPSource) FetchRates(ctx context.Context) ([]Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "makao-server")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload ratesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.Base != string(Base) {
		return nil, fmt.Errorf("unexpected base currency %q", payload.Base)
	}

	rates := make([]Rate, 0, len(Supported()))
	for _, c := range Supported() {
		if c == Base {
			continue
		}
		value, ok := payload.Rates[string(c)]
		if !ok || value <= 0 {
			continue
		}
		rates = append(rates, Rate{Currency: c, Rate: value})
	}
	return rates, nil
}

// DBSource reads the rate table the worker keeps refreshed. This is the
// page-load path: one cheap local read per store construction.
type DBSource struct {
	db *gorm.DB
}

// NewDBSource creates a source over the exchange_rates table
func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

// FetchRates loads all persisted rates for supported currencies
func (s *DBSource) FetchRates(ctx context.Context) ([]Rate, error) {
	var rows []models.ExchangeRate
	if err := s.db.WithContext(ctx).Order("currency ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}

	rates := make([]Rate, 0, len(rows))
	for _, row := range rows {
		c, ok := Parse(row.Currency)
		if !ok || row.Rate <= 0 {
			continue
		}
		rates = append(rates, Rate{Currency: c, Rate: row.Rate})
	}
	return rates, nil
}
