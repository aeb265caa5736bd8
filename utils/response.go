package utils

import (
	"time"

	"flowcrm/store"

	"github.com/gofiber/fiber/v2"
)

// FieldError is a single field-level validation failure, shaped for form
// binding on the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SuccessResponse writes the uniform success envelope.
func SuccessResponse(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// PaginatedResponse writes the success envelope plus pagination metadata.
func PaginatedResponse(c *fiber.Ctx, message string, data interface{}, pagination store.Pagination) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    message,
		"data":       data,
		"pagination": pagination,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse writes the uniform error envelope. errs is optional
// field-level detail for validation failures.
func ErrorResponse(c *fiber.Ctx, status int, message string, errs []FieldError) error {
	body := fiber.Map{
		"success": false,
		"message": message,
	}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	return c.Status(status).JSON(body)
}
