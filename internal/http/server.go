package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"analytics-query-service/internal/config"
	"analytics-query-service/internal/controller"
	"analytics-query-service/internal/routes"
)

// Server wraps the Fiber application setup.
type Server struct {
	app *fiber.App
}

// NewServer configures routes and middleware.
func NewServer(appCfg *config.Config, analyticsController controller.AnalyticsController, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	fiberCfg := fiber.Config{
		DisableStartupMessage: true,
		Prefork:               appCfg.FiberPrefork,
		ErrorHandler:          errorHandler(logger),
	}
	app := fiber.New(fiberCfg)
	app.Use(recover.New())
	app.Use(requestid.New())

	routes.Register(app, analyticsController, gatherer)

	return &Server{app: app}
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen runs the server on provided addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler renders every error as {"success": false, "error": msg}.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		msg := err.Error()
		if code == fiber.StatusInternalServerError && fe == nil {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			msg = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
	}
}
