package httpapi

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/admin"
	"github.com/i474232898/raincheck/internal/sponsorship"
	"github.com/i474232898/raincheck/internal/weather"
)

// DefaultSubmitLimit is the per-client submissions allowed per minute.
const DefaultSubmitLimit = 20

var validate = validator.New()

// Submitter accepts sponsor requests.
type Submitter interface {
	Submit(ctx context.Context, in sponsorship.SubmitInput) (sponsorship.Sponsorship, error)
}

// MessageSelector picks the sponsored message for a category, if any.
type MessageSelector interface {
	Select(ctx context.Context, wt weather.Type, now time.Time) (sponsorship.Sponsored, bool)
}

// ActivityRecorder appends feedback and usage records.
type ActivityRecorder interface {
	RecordFeedback(ctx context.Context, fb activity.Feedback) (activity.Feedback, error)
	RecordUsage(ctx context.Context, u activity.Usage) (activity.Usage, error)
}

// Deps is everything the HTTP layer needs.
type Deps struct {
	Sponsorships Submitter
	Selector     MessageSelector
	Activity     ActivityRecorder
	Admin        *admin.Service

	// AdminSecret is the shared bearer token for /api/v1/admin.
	AdminSecret string
	SubmitLimit int

	Clock  sponsorship.Clock
	Picker weather.Picker
	Log    *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Clock == nil {
		d.Clock = sponsorship.SystemClock{}
	}
	if d.Picker == nil {
		d.Picker = sharedRand{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	log := d.Log.Named("http")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "raincheck",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/message", func(c *fiber.Ctx) error {
		var q messageQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := c.UserContext()
		resp := messageResponse{
			WeatherType: q.WeatherType,
			IsRaining:   q.WeatherType.IsRain(),
			Unit:        q.Unit,
		}
		if q.Temperature != nil {
			t := weather.ConvertTemperature(*q.Temperature, q.Unit)
			resp.Temperature = &t
		}
		if sp, ok := d.Selector.Select(ctx, q.WeatherType, d.Clock.Now()); ok {
			resp.Message = sp.Message
			resp.Sponsor = sp.Sponsor
			resp.Sponsored = true
		} else {
			resp.Message = weather.FallbackMessage(q.WeatherType, q.Profanity, d.Picker)
		}

		usage := activity.Usage{
			UserID:        q.UserID,
			WeatherType:   q.WeatherType,
			ProfanityMode: q.Profanity,
			TempUnit:      q.Unit,
			IsRaining:     resp.IsRaining,
			Location:      q.Location,
		}
		if q.Temperature != nil {
			usage.Temperature = *q.Temperature
		}
		if _, err := d.Activity.RecordUsage(ctx, usage); err != nil {
			log.Warn("usage not recorded", zap.String("user_id", q.UserID), zap.Error(err))
		}

		return c.JSON(resp)
	})

	v1.Post("/sponsorships", SubmitLimiter(d.SubmitLimit), func(c *fiber.Ctx) error {
		var in sponsorship.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		s, err := d.Sponsorships.Submit(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	})

	v1.Post("/feedback", func(c *fiber.Ctx) error {
		var req feedbackRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		fb, err := d.Activity.RecordFeedback(c.UserContext(), activity.Feedback{
			UserID:        req.UserID,
			Type:          activity.FeedbackType(req.Type),
			Message:       strings.TrimSpace(req.Message),
			ProfanityMode: req.ProfanityMode,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fb)
	})

	registerAdminRoutes(v1.Group("/admin", AdminAuth(d.AdminSecret)), d.Admin)
}

// messageQuery holds query parameters for the message endpoint. Either
// weatherType or a description/temperature pair to classify is required.
type messageQuery struct {
	WeatherType weather.Type
	Temperature *float64
	Unit        weather.Unit
	Profanity   bool
	UserID      string
	Location    string
}

func (q *messageQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("temperature"); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("temperature must be a number in celsius")
		}
		q.Temperature = &t
	}

	if s := c.Query("weatherType"); s != "" {
		wt, ok := weather.ParseType(s)
		if !ok {
			return errors.New("unknown weatherType")
		}
		q.WeatherType = wt
	} else {
		desc := c.Query("description")
		if desc == "" && q.Temperature == nil {
			return errors.New("weatherType or description/temperature is required")
		}
		var temp float64
		if q.Temperature != nil {
			temp = *q.Temperature
		}
		q.WeatherType = weather.Classify(desc, temp)
	}

	unit, err := weather.ParseUnit(c.Query("unit"))
	if err != nil {
		return err
	}
	q.Unit = unit
	q.Profanity = c.QueryBool("profanity", false)

	q.UserID = c.Query("userId")
	if q.UserID == "" {
		q.UserID = activity.AnonymousUser
	}
	q.Location = c.Query("location")
	return nil
}

type messageResponse struct {
	WeatherType weather.Type `json:"weather_type"`
	IsRaining   bool         `json:"is_raining"`
	Message     string       `json:"message"`
	Sponsored   bool         `json:"sponsored"`
	Sponsor     string       `json:"sponsor,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Unit        weather.Unit `json:"unit"`
}

type feedbackRequest struct {
	UserID        string `json:"user_id" validate:"required,max=64"`
	Type          string `json:"type" validate:"required,oneof=positive negative"`
	Message       string `json:"message" validate:"max=1000"`
	ProfanityMode bool   `json:"profanity_mode"`
}

// sharedRand uses the package-level math/rand source, which is safe for concurrent use.
type sharedRand struct{}

func (sharedRand) Intn(n int) int {
	return rand.Intn(n)
}
