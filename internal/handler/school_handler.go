package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/service"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

// SchoolHandler exposes school management endpoints.
type SchoolHandler struct {
	service service.SchoolService
	logger  zerolog.Logger
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(service service.SchoolService, logger zerolog.Logger) *SchoolHandler {
	return &SchoolHandler{
		service: service,
		logger:  logger.With().Str("component", "school_handler").Logger(),
	}
}

// Register wires school routes. Mutations are additionally gated by the
// administrator role middleware at the router.
func (h *SchoolHandler) Register(router fiber.Router, adminGate fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", adminGate, h.create)
	router.Patch("/:id", adminGate, h.update)
	router.Delete("/:id", adminGate, h.remove)
}

func (h *SchoolHandler) create(c *fiber.Ctx) error {
	var req dto.SchoolCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), actorFromContext(c), req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "school created", result)
}

func (h *SchoolHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.SchoolListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	}

	result, err := h.service.List(c.Context(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "schools retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *SchoolHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	result, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "school retrieved", result)
}

func (h *SchoolHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req dto.SchoolUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.Context(), actorFromContext(c), id, req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "school updated", result)
}

func (h *SchoolHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id, networkMeta(c)); err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "school deleted", nil)
}
