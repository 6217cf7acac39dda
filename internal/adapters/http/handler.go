package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mdevran/porthole/internal/core/actions"
	"github.com/mdevran/porthole/internal/core/domain"
	"github.com/mdevran/porthole/internal/core/ports"
	"github.com/mdevran/porthole/internal/core/registry"
)

// ServiceHandler is the HTTP face of the control plane: a thin layer that
// validates input, dispatches to the action controller or the projector, and
// maps error kinds to statuses. Every listing hits the runtime fresh; nothing
// is cached between polls.
type ServiceHandler struct {
	runtime   ports.ContainerRuntime
	projector *registry.Projector
	actions   *actions.Controller
	log       logrus.FieldLogger
}

func NewServiceHandler(runtime ports.ContainerRuntime, projector *registry.Projector, controller *actions.Controller, log logrus.FieldLogger) *ServiceHandler {
	return &ServiceHandler{
		runtime:   runtime,
		projector: projector,
		actions:   controller,
		log:       log,
	}
}

// Register mounts the API routes.
func (h *ServiceHandler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/services", h.ListServices)
	api.Post("/services/add", h.CreateService)
	api.Post("/services/:name/start", h.StartService)
	api.Post("/services/:name/exit", h.StopService)
	app.Get("/healthz", h.Health)
}

func (h *ServiceHandler) ListServices(c *fiber.Ctx) error {
	raw, err := h.runtime.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.projector.Project(raw))
}

func (h *ServiceHandler) StartService(c *fiber.Ctx) error {
	if err := h.actions.Start(c.Context(), c.Params("name")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ServiceHandler) StopService(c *fiber.Ctx) error {
	if err := h.actions.Stop(c.Context(), c.Params("name")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ServiceHandler) CreateService(c *fiber.Ctx) error {
	var req domain.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := h.actions.Create(c.Context(), req); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ServiceHandler) Health(c *fiber.Ctx) error {
	if err := h.runtime.Ping(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// fail translates domain error kinds into the wire taxonomy.
func (h *ServiceHandler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case domain.IsInvalidSpec(err), errors.Is(err, domain.ErrImageNotFound):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrNameConflict), errors.Is(err, domain.ErrActionInFlight):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrRuntimeUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	if status >= 500 {
		h.log.WithError(err).WithFields(logrus.Fields{
			"path": c.Path(),
		}).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
