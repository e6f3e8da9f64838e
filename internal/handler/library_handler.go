package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/service"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

// LibraryHandler exposes the content library endpoints.
type LibraryHandler struct {
	service service.LibraryService
	logger  zerolog.Logger
}

// NewLibraryHandler constructs a library handler.
func NewLibraryHandler(service service.LibraryService, logger zerolog.Logger) *LibraryHandler {
	return &LibraryHandler{
		service: service,
		logger:  logger.With().Str("component", "library_handler").Logger(),
	}
}

// Register wires library routes. The approval surface is gated by the
// administrator role middleware at the router.
func (h *LibraryHandler) Register(router fiber.Router, adminGate fiber.Handler) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/pending", adminGate, h.listPending)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/approve", adminGate, h.approve)
	router.Delete("/:id", h.remove)
}

func (h *LibraryHandler) create(c *fiber.Ctx) error {
	var req dto.LibraryCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), actorFromContext(c), req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "library item created", result)
}

func (h *LibraryHandler) list(c *fiber.Ctx) error {
	req, err := parseLibraryListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.Context(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	meta := fiber.Map{"pagination": result.Pagination, "cache_hit": result.CacheHit}
	return utils.OK(c, result.Items, "library items retrieved", meta)
}

func (h *LibraryHandler) listPending(c *fiber.Ctx) error {
	req, err := parseLibraryListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.ListPending(c.Context(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "pending library items retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *LibraryHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	result, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "library item retrieved", result)
}

func (h *LibraryHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req dto.LibraryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.Context(), actorFromContext(c), id, req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "library item updated", result)
}

func (h *LibraryHandler) approve(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	result, err := h.service.Approve(c.Context(), actorFromContext(c), id, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "library item approved", result)
}

func (h *LibraryHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id, networkMeta(c)); err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "library item deleted", nil)
}

func parseLibraryListRequest(c *fiber.Ctx) (dto.LibraryListRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.LibraryListRequest{}, errInvalidPage
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.LibraryListRequest{}, errInvalidPageSize
	}
	schoolID, err := parseQueryUint(c, "school_id")
	if err != nil {
		return dto.LibraryListRequest{}, errInvalidSchoolID
	}

	return dto.LibraryListRequest{
		Page:       page,
		PageSize:   pageSize,
		Visibility: c.Query("visibility"),
		SchoolID:   schoolID,
		Search:     c.Query("search"),
	}, nil
}
