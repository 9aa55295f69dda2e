package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"checkout/model"
)

// AccessLog writes one line per request once the handler has finished.
func AccessLog(log *logrus.Logger) fiber.Handler {
	entry := log.WithField("component", "http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		fields := logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"elapsed": time.Since(start),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			fields["request_id"] = id
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.WithFields(fields).Error("request handled")
		case status >= fiber.StatusBadRequest:
			entry.WithFields(fields).Warn("request handled")
		default:
			entry.WithFields(fields).Info("request handled")
		}
		return err
	}
}

// ErrorHandler keeps the relay's error body for errors that escape a handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return c.Status(status).JSON(errorBody("Request", err.Error()))
}

func errorBody(op string, detail any) model.ErrorResponse {
	return model.ErrorResponse{Message: op + " Failed", Error: detail}
}
