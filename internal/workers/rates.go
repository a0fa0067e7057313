package workers

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/currency"
	"github.com/makao-homes/makao/internal/models"
	"github.com/makao-homes/makao/internal/tasks"
)

// HandleRefreshRates fetches the exchange-rate table from the upstream
// source and upserts it into the database
func HandleRefreshRates(ctx context.Context, t *asynq.Task, db *gorm.DB, source currency.Source, logger zerolog.Logger) error {
	payload, err := tasks.ParseRefreshRatesPayload(t)
	if err != nil {
		return err
	}

	rates, err := source.FetchRates(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Exchange-rate fetch failed")
		return err
	}
	if len(rates) == 0 {
		logger.Warn().Msg("Exchange-rate fetch returned no supported currencies")
		return nil
	}

	now := time.Now().UTC()
	for _, rate := range rates {
		var existing models.ExchangeRate
		err := db.WithContext(ctx).Where("currency = ?", string(rate.Currency)).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.ExchangeRate{
				Currency:  string(rate.Currency),
				Rate:      rate.Rate,
				FetchedAt: now,
			}
			if err := db.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{"rate": rate.Rate, "fetched_at": now}
			if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
		}
	}

	// Record completion so the scheduler can compute the next run
	var settings models.Settings
	if err := db.WithContext(ctx).First(&settings).Error; err == nil {
		updates := map[string]interface{}{"last_rates_refresh_at": now}
		if next := nextScheduledTime(settings.RatesRefreshSchedule, now); next != nil {
			updates["next_rates_refresh_at"] = next
		}
		if err := db.WithContext(ctx).Model(&settings).Updates(updates).Error; err != nil {
			logger.Warn().Err(err).Msg("Failed to record refresh completion")
		}
	}

	logger.Info().
		Int("currencies", len(rates)).
		Bool("manual", payload.Manual).
		Msg("Exchange rates refreshed")
	return nil
}
