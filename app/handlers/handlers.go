// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/middleware"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/amirphl/dentalcare/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

var mobileRegex = regexp.MustCompile(`^\+989\d{9}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mobile_format", func(fl validator.FieldLevel) bool {
		return mobileRegex.MatchString(fl.Field().String())
	})
	return v
}

// baseHandler carries the response envelope and request plumbing shared by all handlers
type baseHandler struct {
	validator *validator.Validate
}

func newBaseHandler() baseHandler {
	return baseHandler{validator: newValidator()}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validate runs struct validation and writes a 400 response on failure.
// It returns false when the response has already been written.
func (h *baseHandler) validate(c fiber.Ctx, req any) (bool, error) {
	err := h.validator.Struct(req)
	if err == nil {
		return true, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}
	details := make([]string, 0, len(ves))
	for _, fe := range ves {
		details = append(details, getValidationErrorMessage(fe))
	}
	return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
}

// requestContext builds the flow context. The returned cancel must be called by the handler.
func (h *baseHandler) requestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, requestTimeout)
	if staffID, ok := middleware.GetStaffIDFromContext(c); ok {
		ctx = context.WithValue(ctx, utils.StaffIDKey, staffID)
	}
	return ctx, cancel
}

func (h *baseHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	md := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	md.SetRequestID(requestID(c))
	if staffID, ok := middleware.GetStaffIDFromContext(c); ok {
		md.SetStaffID(staffID)
	}
	return md
}

func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get(businessflow.RequestIDKey)
}

// handleFlowError maps business errors onto HTTP statuses
func (h *baseHandler) handleFlowError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	code := businessflow.BusinessErrorCode(err)
	if code == "" {
		code = fallbackCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return h.ErrorResponse(c, fiber.StatusGatewayTimeout, "Request timed out", "REQUEST_TIMEOUT", nil)
	case businessflow.IsStaffInactive(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Staff account is inactive", code, nil)
	case businessflow.IsStaffNotFound(err), businessflow.IsIncorrectPassword(err):
		// unknown user and wrong password are indistinguishable to the client
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", nil)
	case businessflow.IsInvalidCaptcha(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid captcha", code, nil)
	case businessflow.IsInvalidToken(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", code, nil)
	case errors.Is(err, businessflow.ErrCaptchaUnavailable):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Captcha is not available", code, nil)
	case businessflow.IsNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, err.Error(), code, nil)
	case businessflow.IsFileTooLarge(err):
		return h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "File too large", code, err.Error())
	case businessflow.IsValidationError(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request", code, err.Error())
	case businessflow.IsConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), code, nil)
	}

	utils.Logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"path":       c.Path(),
		"code":       code,
	}).WithError(err).Error(fallbackMessage)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, code, nil)
}

// pageQuery reads page/limit query parameters; invalid values become zero and the flow applies defaults
func pageQuery(c fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "required_without":
		return err.Field() + " is required when " + err.Param() + " is empty"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "mobile_format":
		return "Mobile number must be in format +989xxxxxxxxx"
	case "datetime":
		return err.Field() + " must be a date in format " + err.Param()
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "ne":
		return fmt.Sprintf("%s must not be %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
