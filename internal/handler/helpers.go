package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/middleware"
	"github.com/noah-isme/sima-go-api/internal/service"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

var (
	errInvalidPage     = errors.New("invalid page")
	errInvalidPageSize = errors.New("invalid page size")
	errInvalidSchoolID = errors.New("invalid school id")
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	id := uint(parsed)
	return &id, nil
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(parsed), nil
}

// actorFromContext reconstructs the authenticated actor from the locals the
// JWT middleware populated.
func actorFromContext(c *fiber.Ctx) authz.Actor {
	actor := authz.Actor{}
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			actor.ID = id
		}
	}
	if v := c.Locals("user_role"); v != nil {
		if raw, ok := v.(string); ok {
			if role, ok := authz.ParseRole(raw); ok {
				actor.Role = role
			}
		}
	}
	if v := c.Locals("school_id"); v != nil {
		if id, ok := v.(uint); ok {
			actor.SchoolID = &id
		}
	}
	return actor
}

func networkMeta(c *fiber.Ctx) service.NetworkMeta {
	return service.NetworkMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// respondError maps service errors onto HTTP statuses. Permission denials and
// precondition failures carry reasons that are safe to echo back.
func respondError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	switch {
	case service.IsPermissionDenied(err):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case service.IsPreconditionFailed(err):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "resource not found")
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefreshToken):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
