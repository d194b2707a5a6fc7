package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

const codeInternal = "INTERNAL_ERROR"

var domainStatus = map[string]int{
	service.ErrPermissionDenied.Code:         fiber.StatusForbidden,
	service.ErrNotEnrolled.Code:              fiber.StatusForbidden,
	service.ErrTaskNotFound.Code:             fiber.StatusNotFound,
	service.ErrSubmissionNotFound.Code:       fiber.StatusNotFound,
	service.ErrCourseNotFound.Code:           fiber.StatusNotFound,
	service.ErrUserNotFound.Code:             fiber.StatusNotFound,
	service.ErrSubmissionWindowClosed.Code:   fiber.StatusConflict,
	service.ErrGradingClosed.Code:            fiber.StatusConflict,
	service.ErrInvalidTransition.Code:        fiber.StatusConflict,
	service.ErrConcurrencyConflict.Code:      fiber.StatusConflict,
	service.ErrAlreadySubmitted.Code:         fiber.StatusConflict,
	service.ErrGradingLocked.Code:            fiber.StatusConflict,
	service.ErrInvalidGradeDistribution.Code: fiber.StatusUnprocessableEntity,
	service.ErrUnknownAssignment.Code:        fiber.StatusUnprocessableEntity,
	service.ErrUnsupportedFileType.Code:      fiber.StatusUnsupportedMediaType,
	service.ErrFileTooLarge.Code:             fiber.StatusRequestEntityTooLarge,
	service.ErrInvalidInput.Code:             fiber.StatusBadRequest,
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

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

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:        userIDFromContext(c),
		Role:      userRoleFromContext(c),
		Superuser: middleware.IsSuperuser(c),
	}
}

// requestContext carries the correlation id into service calls.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
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

// respondError renders domain errors with their stable code and hides everything else behind a 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainStatus[domainErr.Code]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return utils.Fail(c, status, domainErr.Code, err.Error(), nil)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.Fail(c, fiber.StatusBadRequest, service.ErrInvalidInput.Code, validationErrors.Error(), nil)
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return utils.Fail(c, fiber.StatusInternalServerError, codeInternal, "internal server error", nil)
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.Fail(c, fiber.StatusBadRequest, service.ErrInvalidInput.Code, message, nil)
}
