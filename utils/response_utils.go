package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"videoreview/internal/apperrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string      `json:"status" example:"error"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorResponse{
		Status:  "error",
		Error:   message,
		Details: details,
	})
}

// RespondWithAppError picks status, message and details from a classified error.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, apperrors.StatusCode(err), apperrors.Message(err), apperrors.Details(err))
}

// RespondWithJSON sends a JSON success response. The payload is the entity itself.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var messages []string
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			messages = append(messages, err.Error())
		}
		return messages
	}
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		messages = append(messages, element)
	}
	return messages
}
