package api

import (
	stderrors "errors"

	"mock-response-service/internal/common/errors"
	"mock-response-service/internal/common/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every non-OAuth error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler maps StandardError codes to HTTP statuses.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
		}

		stdErr := errors.Normalize(err)
		status := stdErr.HTTPStatus()
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"error":  err,
			})
		}
		return c.Status(status).JSON(ErrorResponse{
			Error:   stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		})
	}
}
