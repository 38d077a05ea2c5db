package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vidtube/internal/models"
	"vidtube/pkg/logger"
)

// Response is the envelope of every API response.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorResponse is the envelope of a failed request.
type ErrorResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors"`
}

func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < fiber.StatusBadRequest,
	})
}

var kindStatus = map[models.ErrorKind]int{
	models.KindInvalidArgument: fiber.StatusBadRequest,
	models.KindUnauthenticated: fiber.StatusUnauthorized,
	models.KindForbidden:       fiber.StatusForbidden,
	models.KindNotFound:        fiber.StatusNotFound,
	models.KindConflict:        fiber.StatusConflict,
	models.KindTooManyRequests: fiber.StatusTooManyRequests,
	models.KindInternal:        fiber.StatusInternalServerError,
}

// ErrorHandler renders any error returned by a handler or middleware as a
// failure envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	var details []string

	var appErr *models.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = kindStatus[appErr.Kind]
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		message = appErr.Message
		details = appErr.Details
		if appErr.Kind == models.KindInternal {
			logger.Error("request failed",
				zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	default:
		logger.Error("unhandled error",
			zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	}

	if details == nil {
		details = []string{}
	}
	return c.Status(status).JSON(ErrorResponse{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

// validationError turns validator failures into an InvalidArgument error
// listing every failed field.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return models.NewInvalidArgumentError("Invalid request body")
	}
	details := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return models.NewInvalidArgumentError("Validation failed", details...)
}

// bind parses the request body into req and validates it.
func bind(c *fiber.Ctx, validate *validator.Validate, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return models.NewInvalidArgumentError("Invalid request body", err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// ownerFirst returns payloadErr unless checkOwner fails, so a caller who may
// not modify the resource learns that before anything about the body.
func ownerFirst(payloadErr error, checkOwner func() error) error {
	if payloadErr == nil {
		return nil
	}
	if err := checkOwner(); err != nil {
		return err
	}
	return payloadErr
}
