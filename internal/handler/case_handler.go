package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/service"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

// CaseHandler exposes case management endpoints.
type CaseHandler struct {
	service service.CaseService
	logger  zerolog.Logger
}

// NewCaseHandler constructs a case handler.
func NewCaseHandler(service service.CaseService, logger zerolog.Logger) *CaseHandler {
	return &CaseHandler{
		service: service,
		logger:  logger.With().Str("component", "case_handler").Logger(),
	}
}

// Register wires case routes.
func (h *CaseHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.remove)
}

func (h *CaseHandler) create(c *fiber.Ctx) error {
	var req dto.CaseCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), actorFromContext(c), req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "case created", result)
}

func (h *CaseHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	schoolID, err := parseQueryUint(c, "school_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid school id")
	}

	req := dto.CaseListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		SchoolID: schoolID,
		Search:   c.Query("search"),
	}

	result, err := h.service.List(c.Context(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "cases retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *CaseHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	result, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "case retrieved", result)
}

func (h *CaseHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req dto.CaseUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.Context(), actorFromContext(c), id, req, networkMeta(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "case updated", result)
}

func (h *CaseHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id, networkMeta(c)); err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "case deleted", nil)
}
