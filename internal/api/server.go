package api

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"launchscope/internal/engine"
)

// NewApp builds the HTTP application with all routes registered.
func NewApp(eng *engine.Engine, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "launchscope",
	})

	quoteHandler := NewQuoteHandler(eng, logger)
	app.Get("/v1/quote", quoteHandler.HandleQuote())
	app.Get("/v1/spot", quoteHandler.HandleSpot())

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}
