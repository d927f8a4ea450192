package api

import (
	"github.com/gofiber/fiber/v3"
)

// Envelope is the body of every /api/v1 response.
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitzero"`
	Error  string `json:"error,omitempty"`
}

// Envelope status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Success writes data with a 200 status.
func Success(c fiber.Ctx, data any) error {
	return c.JSON(Envelope{Status: StatusOK, Data: data})
}

// Fail writes an error envelope with the given HTTP status code.
func Fail(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Status: StatusError, Error: message})
}
