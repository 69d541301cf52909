package isolation

import (
	"errors"

	"hw-isolation/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for hardware isolation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the hardware isolation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/hardware_isolation")
	group.Post("/entries", h.HandleCreate)
	group.Post("/entries/entity_path", h.HandleCreateByPath)
	group.Get("/entries", h.HandleList)
	group.Get("/entries/:id", h.HandleGet)
	group.Delete("/entries/:id", h.HandleDelete)
	group.Delete("/entries", h.HandleDeleteAll)
	group.Get("/record_info", h.HandleRecordInfo)
	group.Post("/sync", h.HandleSync)
}

// statusOf maps manager errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleCreate isolates hardware by inventory path.
// @Summary Isolate Hardware
// @Description Creates a guard record and its entry. With error_log the isolation is attributed to that log.
// @Tags hardware_isolation
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Hardware and severity"
// @Success 201 {object} map[string]string "Entry object path"
// @Failure 400 {object} map[string]string "Invalid argument"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 503 {object} map[string]string "Isolation disabled"
// @Failure 500 {object} map[string]string "Internal failure"
// @Router /hardware_isolation/entries [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	path, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, l, "Failed to isolate hardware", err)
	}

	l.Info("Isolated hardware", zap.String("hardware", req.IsolateHardware), zap.String("entry", path))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": path})
}

// HandleCreateByPath isolates hardware by raw entity path.
// @Summary Isolate Hardware By Entity Path
// @Description Creates a guard record for a hex-encoded entity path.
// @Tags hardware_isolation
// @Accept json
// @Produce json
// @Param request body CreateByPathRequest true "Entity path and severity"
// @Success 201 {object} map[string]string "Entry object path"
// @Failure 400 {object} map[string]string "Invalid argument"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 503 {object} map[string]string "Isolation disabled"
// @Failure 500 {object} map[string]string "Internal failure"
// @Router /hardware_isolation/entries/entity_path [post]
func (h *Handler) HandleCreateByPath(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req CreateByPathRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	path, err := h.service.CreateByPath(c.UserContext(), req)
	if err != nil {
		return h.fail(c, l, "Failed to isolate hardware by entity path", err)
	}

	l.Info("Isolated hardware", zap.String("entity_path", req.EntityPath), zap.String("entry", path))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": path})
}

// HandleList lists entries.
// @Summary List Isolation Entries
// @Tags hardware_isolation
// @Produce json
// @Success 200 {array} entry.View
// @Router /hardware_isolation/entries [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.service.List())
}

// HandleGet returns one entry.
// @Summary Get Isolation Entry
// @Tags hardware_isolation
// @Produce json
// @Param id path int true "Record id"
// @Success 200 {object} entry.View
// @Failure 400 {object} map[string]string "Invalid record id"
// @Failure 404 {object} map[string]string "Not found"
// @Router /hardware_isolation/entries/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	v, err := h.service.Get(c.Params("id"))
	if err != nil {
		return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(v)
}

// HandleDelete de-isolates one entry.
// @Summary Delete Isolation Entry
// @Description Clears the guard record and resolves its entry. Requires chassis power off.
// @Tags hardware_isolation
// @Param id path int true "Record id"
// @Success 204
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 503 {object} map[string]string "Isolation disabled"
// @Router /hardware_isolation/entries/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, l, "Failed to delete entry", err)
	}

	l.Info("Deleted isolation entry", zap.String("id", c.Params("id")))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteAll de-isolates every entry.
// @Summary Delete All Isolation Entries
// @Tags hardware_isolation
// @Success 204
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 503 {object} map[string]string "Isolation disabled"
// @Router /hardware_isolation/entries [delete]
func (h *Handler) HandleDeleteAll(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.DeleteAll(c.UserContext()); err != nil {
		return h.fail(c, l, "Failed to delete all entries", err)
	}

	l.Info("Deleted all isolation entries")
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRecordInfo returns the isolation state of one inventory object.
// @Summary Isolated Hardware Record Info
// @Tags hardware_isolation
// @Produce json
// @Param inventory_path query string true "Inventory object path"
// @Success 200 {object} RecordInfo
// @Failure 404 {object} map[string]string "Not isolated"
// @Router /hardware_isolation/record_info [get]
func (h *Handler) HandleRecordInfo(c *fiber.Ctx) error {
	info, err := h.service.RecordInfo(c.Query("inventory_path"))
	if err != nil {
		return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(info)
}

// HandleSync schedules a reconciliation pass.
// @Summary Trigger Reconciliation
// @Description Raises the debounced guard file change signal.
// @Tags hardware_isolation
// @Success 202
// @Router /hardware_isolation/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	h.service.Sync()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "scheduled"})
}
