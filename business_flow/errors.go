// Package businessflow contains the core business logic and use cases of the clinic API
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Staff/authentication errors
	ErrStaffNotFound      = errors.New("staff not found")
	ErrStaffInactive      = errors.New("staff account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrInvalidCaptcha     = errors.New("invalid captcha")
	ErrInvalidToken       = errors.New("invalid token")
	ErrCaptchaUnavailable = errors.New("captcha not available")

	// Code generation errors
	ErrCodeGenerationFailed = errors.New("code generation failed")
	ErrCodeConflict         = errors.New("generated code already exists")
	ErrInvalidCodeFormat    = errors.New("invalid code format")

	// Inventory errors
	ErrInventoryItemNotFound        = errors.New("inventory item not found")
	ErrInventoryRequestNotFound     = errors.New("inventory request not found")
	ErrInsufficientStock            = errors.New("insufficient stock")
	ErrInvalidStatusTransition      = errors.New("invalid status transition")
	ErrInvalidInventoryRequestState = errors.New("invalid inventory request status")

	// Patient errors
	ErrPatientNotFound     = errors.New("patient not found")
	ErrMobileAlreadyExists = errors.New("mobile number already exists")
	ErrInvalidDateOfBirth  = errors.New("date of birth cannot be in the future")

	// Appointment errors
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrAppointmentOverlap    = errors.New("appointment overlaps another appointment")
	ErrAppointmentNotActive  = errors.New("appointment is not scheduled")
	ErrAppointmentInPast     = errors.New("appointment cannot be scheduled in the past")
	ErrInvalidAppointmentArg = errors.New("invalid appointment status")

	// Feedback/inquiry errors
	ErrFeedbackNotFound       = errors.New("feedback not found")
	ErrInquiryNotFound        = errors.New("inquiry not found")
	ErrInquiryAlreadyAnswered = errors.New("inquiry already answered")

	// Radiograph errors
	ErrRadiographNotFound = errors.New("radiograph not found")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrInvalidFilePath    = errors.New("invalid file path")

	// Request validation errors
	ErrValidationFailed      = errors.New("validation failed")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
	ErrInvalidUUID           = errors.New("invalid uuid")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// BusinessErrorCode returns the code of the outermost BusinessError in err's chain, or ""
func BusinessErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsStaffNotFound(err error) bool {
	return errors.Is(err, ErrStaffNotFound)
}

func IsStaffInactive(err error) bool {
	return errors.Is(err, ErrStaffInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsCodeGenerationFailed(err error) bool {
	return errors.Is(err, ErrCodeGenerationFailed)
}

func IsCodeConflict(err error) bool {
	return errors.Is(err, ErrCodeConflict)
}

func IsInvalidCodeFormat(err error) bool {
	return errors.Is(err, ErrInvalidCodeFormat)
}

func IsInventoryItemNotFound(err error) bool {
	return errors.Is(err, ErrInventoryItemNotFound)
}

func IsInventoryRequestNotFound(err error) bool {
	return errors.Is(err, ErrInventoryRequestNotFound)
}

func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsPatientNotFound(err error) bool {
	return errors.Is(err, ErrPatientNotFound)
}

func IsMobileAlreadyExists(err error) bool {
	return errors.Is(err, ErrMobileAlreadyExists)
}

func IsAppointmentNotFound(err error) bool {
	return errors.Is(err, ErrAppointmentNotFound)
}

func IsAppointmentOverlap(err error) bool {
	return errors.Is(err, ErrAppointmentOverlap)
}

func IsAppointmentNotActive(err error) bool {
	return errors.Is(err, ErrAppointmentNotActive)
}

func IsFeedbackNotFound(err error) bool {
	return errors.Is(err, ErrFeedbackNotFound)
}

func IsInquiryNotFound(err error) bool {
	return errors.Is(err, ErrInquiryNotFound)
}

func IsInquiryAlreadyAnswered(err error) bool {
	return errors.Is(err, ErrInquiryAlreadyAnswered)
}

func IsRadiographNotFound(err error) bool {
	return errors.Is(err, ErrRadiographNotFound)
}

func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsInvalidFileType(err error) bool {
	return errors.Is(err, ErrInvalidFileType)
}

// IsNotFound reports whether err wraps any of the not-found sentinels
func IsNotFound(err error) bool {
	return IsStaffNotFound(err) ||
		IsInventoryItemNotFound(err) ||
		IsInventoryRequestNotFound(err) ||
		IsPatientNotFound(err) ||
		IsAppointmentNotFound(err) ||
		IsFeedbackNotFound(err) ||
		IsInquiryNotFound(err) ||
		IsRadiographNotFound(err)
}

// IsValidationError reports whether err is caused by bad client input
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrValidationFailed,
		ErrInvalidCodeFormat,
		ErrInvalidStatusTransition,
		ErrInvalidInventoryRequestState,
		ErrInvalidDateOfBirth,
		ErrAppointmentInPast,
		ErrInvalidAppointmentArg,
		ErrInvalidFileType,
		ErrFileTooLarge,
		ErrInvalidFilePath,
		ErrStartDateAfterEndDate,
		ErrInvalidUUID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err is a uniqueness or state conflict
func IsConflict(err error) bool {
	return IsCodeConflict(err) ||
		IsMobileAlreadyExists(err) ||
		IsAppointmentOverlap(err) ||
		IsInsufficientStock(err) ||
		IsInquiryAlreadyAnswered(err) ||
		IsAppointmentNotActive(err)
}
