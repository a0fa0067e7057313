package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
	"github.com/makao-homes/makao/internal/tasks"
)

// HandleNotifyInquiry records and logs the staff notification for a new
// contact inquiry. Actual mail/webhook delivery is an external
// collaborator; this handler owns the dispatch bookkeeping.
func HandleNotifyInquiry(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseNotifyInquiryPayload(t)
	if err != nil {
		return err
	}

	var inquiry models.ContactInquiry
	if err := db.WithContext(ctx).Where("id = ?", payload.InquiryID).First(&inquiry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted before the task ran; nothing to notify about
			logger.Warn().Str("inquiry_id", payload.InquiryID).Msg("Inquiry not found, skipping notification")
			return nil
		}
		return fmt.Errorf("failed to load inquiry: %w", err)
	}

	if inquiry.NotifiedAt != nil {
		logger.Debug().Str("inquiry_id", inquiry.ID).Msg("Inquiry already notified")
		return nil
	}

	logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("from", inquiry.Email).
		Str("subject", inquiry.Subject).
		Msg("Dispatching inquiry notification")

	now := time.Now().UTC()
	if err := db.WithContext(ctx).Model(&inquiry).Update("notified_at", now).Error; err != nil {
		return fmt.Errorf("failed to mark inquiry notified: %w", err)
	}

	return nil
}
