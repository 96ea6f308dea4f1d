package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"analytics-query-service/internal/controller"
)

// Register attaches all HTTP routes to the Fiber app.
func Register(app *fiber.App, analyticsController controller.AnalyticsController, gatherer prometheus.Gatherer) {
	v1 := app.Group("/v1")
	v1.Post("/query/:parameter", analyticsController.ExecuteQuery)
	v1.Post("/batch", analyticsController.ExecuteBatch)
	v1.Post("/funnels/analytics", analyticsController.AnalyzeFunnel)
	v1.Get("/parameters", analyticsController.ListParameters)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
