package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-airquality-be/pkg/fallback"
	"ai-airquality-be/pkg/session"
)

// APIError is the uniform error body returned by every endpoint.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(code int, message string) APIError {
	return APIError{Code: code, Message: message}
}

// ErrorHandlerMiddleware maps typed domain errors onto HTTP statuses so
// controllers can simply return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var allFailed *fallback.AllSourcesFailedError
		if errors.As(err, &allFailed) {
			return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"code":       fiber.StatusBadGateway,
				"message":    allFailed.Error(),
				"failures":   allFailed.Failures,
				"suggestion": allFailed.Suggestion,
			})
		}

		var docCap *session.DocumentCapacityError
		if errors.As(err, &docCap) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, docCap.Error()))
		}

		var sessCap *session.SessionCapacityError
		if errors.As(err, &sessCap) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, sessCap.Error()))
		}

		if errors.Is(err, session.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
