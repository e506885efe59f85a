package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{Success: true, Code: fiber.StatusOK, Message: message, Data: data}
}

func ErrorResponse(code int, message string) Response {
	return Response{Success: false, Code: code, Message: message}
}

// ErrorResponseWithData is used when the failure still carries a payload (e.g. an error turn)
func ErrorResponseWithData(code int, message string, data interface{}) Response {
	return Response{Success: false, Code: code, Message: message, Data: data}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
