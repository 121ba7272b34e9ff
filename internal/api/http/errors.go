package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/admin"
	"github.com/i474232898/raincheck/internal/sponsorship"
)

// NewErrorHandler renders every error as {"error": true, "message": ...}.
// Internal errors get a generic message; their cause is only logged.
func NewErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)
		msg := err.Error()
		if status == fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
			msg = "internal server error"
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, sponsorship.ErrInvalidContent),
		errors.Is(err, sponsorship.ErrInvalidSubmission),
		errors.Is(err, activity.ErrInvalidActivity):
		return fiber.StatusBadRequest
	case errors.Is(err, sponsorship.ErrNotFound), errors.Is(err, admin.ErrUnknownExport):
		return fiber.StatusNotFound
	case errors.Is(err, sponsorship.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
