package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Exchange-rate refresh (enqueued by the scheduler)
	TypeRefreshRates = "rates:refresh"
	// Contact-inquiry notification (enqueued by the inquiry endpoint)
	TypeNotifyInquiry = "inquiry:notify"
)

// RefreshRatesPayload is the payload for rate refresh tasks
type RefreshRatesPayload struct {
	// Manual marks operator-triggered refreshes (vs scheduled ones)
	Manual bool `json:"manual,omitempty"`
}

// NotifyInquiryPayload is the payload for inquiry notification tasks
type NotifyInquiryPayload struct {
	InquiryID string `json:"inquiry_id"`
}

// NewRefreshRatesTask creates a task to refresh the exchange-rate table
func NewRefreshRatesTask(manual bool) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshRatesPayload{Manual: manual})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeRefreshRates, payload), nil
}

// NewNotifyInquiryTask creates a task to notify staff of a new inquiry
func NewNotifyInquiryTask(inquiryID string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotifyInquiryPayload{InquiryID: inquiryID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeNotifyInquiry, payload), nil
}

// ParseRefreshRatesPayload parses a rate refresh task payload
func ParseRefreshRatesPayload(task *asynq.Task) (RefreshRatesPayload, error) {
	var payload RefreshRatesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseNotifyInquiryPayload parses an inquiry notification task payload
func ParseNotifyInquiryPayload(task *asynq.Task) (NotifyInquiryPayload, error) {
	var payload NotifyInquiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
