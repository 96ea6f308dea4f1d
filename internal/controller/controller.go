package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/service"
)

type AnalyticsController interface {
	ExecuteQuery(c *fiber.Ctx) error
	ExecuteBatch(c *fiber.Ctx) error
	AnalyzeFunnel(c *fiber.Ctx) error
	ListParameters(c *fiber.Ctx) error
}

// analyticsController exposes HTTP handlers for the query engine.
type analyticsController struct {
	dispatcher service.Dispatcher
	batch      service.BatchService
	funnels    service.FunnelService
	registry   *builders.Registry
}

// NewAnalyticsController builds an AnalyticsController.
func NewAnalyticsController(dispatcher service.Dispatcher, batch service.BatchService, funnels service.FunnelService, registry *builders.Registry) AnalyticsController {
	return &analyticsController{
		dispatcher: dispatcher,
		batch:      batch,
		funnels:    funnels,
		registry:   registry,
	}
}

// ExecuteQuery runs one named parameter query.
func (h *analyticsController) ExecuteQuery(c *fiber.Ctx) error {
	name := utils.Trim(c.Params("parameter"), ' ')

	var req model.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	if req.WebsiteID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "website_id is required")
	}
	dates, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return toHTTPError(err)
	}

	rows, err := h.dispatcher.Execute(c.UserContext(), name, req.WebsiteID, dates, req.Filters, req.Limit, req.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	if rows == nil {
		rows = []model.Row{}
	}

	return c.JSON(model.QueryResponse{Success: true, Data: rows})
}

// ExecuteBatch runs a batch of parameter requests.
func (h *analyticsController) ExecuteBatch(c *fiber.Ctx) error {
	var req model.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	dates, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return toHTTPError(err)
	}

	resp, err := h.batch.ExecuteBatch(c.UserContext(), req.WebsiteID, dates, req.Queries)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(resp)
}

// AnalyzeFunnel computes conversion analytics for an ordered funnel.
func (h *analyticsController) AnalyzeFunnel(c *fiber.Ctx) error {
	var req model.FunnelRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	if req.WindowSeconds < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "window_seconds must not be negative")
	}
	dates, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return toHTTPError(err)
	}

	window := time.Duration(req.WindowSeconds) * time.Second
	metrics, err := h.funnels.Analyze(c.UserContext(), req.WebsiteID, dates, req.Steps, window, req.Filters)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(metrics)
}

// ListParameters returns every registered parameter and group expansion.
func (h *analyticsController) ListParameters(c *fiber.Ctx) error {
	return c.JSON(model.ParametersResponse{
		Parameters: h.registry.Names(),
		Expansions: h.registry.Expansions(),
	})
}

func toHTTPError(err error) error {
	var validationErr *service.ValidationError
	var notFoundErr *service.BuilderNotFoundError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, service.ErrQueryExecution.Error())
	}
}
