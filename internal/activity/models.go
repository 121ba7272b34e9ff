package activity

import (
	"time"

	"github.com/i474232898/raincheck/internal/weather"
)

// FeedbackType is the thumbs-up / thumbs-down verdict.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// Feedback is one append-only feedback submission.
type Feedback struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id" validate:"required,max=64"`
	Type          FeedbackType `json:"type" validate:"required,oneof=positive negative"`
	Message       string       `json:"message" validate:"max=1000"`
	ProfanityMode bool         `json:"profanity_mode"`
	CreatedAt     time.Time    `json:"created_at"`
}

// AnonymousUser is recorded for checks made without a user id. It is not counted as a user.
const AnonymousUser = "anonymous"

// Usage is one append-only weather check.
type Usage struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id" validate:"required,max=64"`
	WeatherType   weather.Type `json:"weather_type" validate:"required"`
	ProfanityMode bool         `json:"profanity_mode"`
	TempUnit      weather.Unit `json:"temp_unit" validate:"required,oneof=C F"`
	IsRaining     bool         `json:"is_raining"`
	Temperature   float64      `json:"temperature"`
	Location      string       `json:"location" validate:"max=200"`
	CreatedAt     time.Time    `json:"created_at"`
}
