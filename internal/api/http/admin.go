package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/raincheck/internal/admin"
	"github.com/i474232898/raincheck/internal/sponsorship"
	"github.com/i474232898/raincheck/internal/weather"
)

func registerAdminRoutes(g fiber.Router, svc *admin.Service) {
	g.Get("/sponsorships/pending", func(c *fiber.Ctx) error {
		pending, err := svc.Pending(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"sponsorships": pending})
	})

	g.Get("/sponsorships/active", func(c *fiber.Ctx) error {
		active, err := svc.Active(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"sponsorships": active})
	})

	g.Post("/sponsorships", func(c *fiber.Ctx) error {
		var in sponsorship.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		s, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	})

	g.Post("/sponsorships/:id/approve", func(c *fiber.Ctx) error {
		s, err := svc.Approve(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, sponsorship.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "sponsorship not found")
			}
			return err
		}
		return c.JSON(s)
	})

	g.Delete("/sponsorships/:id", func(c *fiber.Ctx) error {
		if err := svc.Reject(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, sponsorship.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "sponsorship not found")
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	g.Get("/dashboard", func(c *fiber.Ctx) error {
		m, err := svc.Dashboard(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(m)
	})

	g.Get("/preview", func(c *fiber.Ctx) error {
		wt, ok := weather.ParseType(c.Query("weatherType"))
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown weatherType")
		}
		sp, _ := svc.Preview(c.UserContext(), wt)
		return c.JSON(fiber.Map{
			"weather_type": wt,
			"sponsored":    sp.Sponsored,
			"message":      sp.Message,
			"sponsor":      sp.Sponsor,
		})
	})

	g.Get("/export/:kind", func(c *fiber.Ctx) error {
		rows, err := svc.Export(c.UserContext(), c.Params("kind"))
		if err != nil {
			return err
		}
		c.Attachment(c.Params("kind") + ".json")
		return c.JSON(rows)
	})
}
