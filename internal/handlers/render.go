package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/middleware"
	"shoppingtop/internal/views"

	"github.com/gofiber/fiber/v2"
)

// wantsJSON reports whether the client prefers JSON over an HTML page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// page renders view inside the site layout. The layout needs the current
// username, so it is added to data.
func page(c *fiber.Ctx, status int, view string, data fiber.Map) error {
	if username := middleware.CurrentUsername(c); username != "" {
		data["Username"] = username
	}
	return c.Status(status).Render(view, data, views.Layout)
}

// ErrorHandler maps errors returned by handlers to a status code and renders
// them as JSON or as an error page. Internal details are logged, not shown.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}

		if wantsJSON(c) {
			return c.Status(status).JSON(fiber.Map{
				"message": message,
			})
		}
		return page(c, status, "errors/error", fiber.Map{
			"Title":   http.StatusText(status),
			"Status":  status,
			"Message": message,
		})
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			return fiber.StatusNotFound, capitalize(appErr.Message)
		case errors.Is(err, apperror.ErrValidation):
			return fiber.StatusBadRequest, appErr.Message
		case errors.Is(err, apperror.ErrConflict):
			return fiber.StatusConflict, appErr.Message
		case errors.Is(err, apperror.ErrUnauthorized):
			return fiber.StatusUnauthorized, appErr.Message
		}
	}
	return fiber.StatusInternalServerError, "An internal error occurred"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
