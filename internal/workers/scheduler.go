package workers

import (
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
	"github.com/makao-homes/makao/internal/tasks"
)

// StartRatesScheduler runs a periodic check (every minute) for a due
// exchange-rate refresh, gated by the cron schedule in Settings
func StartRatesScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueRefresh(client, db, logger)

	for range ticker.C {
		checkAndEnqueueRefresh(client, db, logger)
	}
}

func checkAndEnqueueRefresh(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	var settings models.Settings
	if err := db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("No settings found - skipping rate refresh check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query settings for rate refresh")
		return
	}

	if settings.RatesRefreshSchedule == "" {
		logger.Debug().Msg("No rate refresh schedule configured")
		return
	}

	if settings.NextRatesRefreshAt != nil && settings.NextRatesRefreshAt.After(time.Now()) {
		logger.Debug().
			Time("next_refresh_at", *settings.NextRatesRefreshAt).
			Msg("Rate refresh not due yet")
		return
	}

	task, err := tasks.NewRefreshRatesTask(false)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build rate refresh task")
		return
	}

	info, err := client.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(3))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue rate refresh task")
		return
	}

	// Advance the schedule immediately so the next tick does not
	// enqueue a duplicate while the task is still running
	now := time.Now()
	if next := nextScheduledTime(settings.RatesRefreshSchedule, now); next != nil {
		if err := db.Model(&settings).Update("next_rates_refresh_at", next).Error; err != nil {
			logger.Warn().Err(err).Msg("Failed to update next refresh time")
		}
	}

	logger.Info().
		Str("task_id", info.ID).
		Str("schedule", settings.RatesRefreshSchedule).
		Msg("Rate refresh task enqueued")
}

// nextScheduledTime calculates the next run from a cron schedule
// (standard 5-field format: minute hour day-of-month month day-of-week)
func nextScheduledTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
