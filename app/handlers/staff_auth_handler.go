package handlers

import (
	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/middleware"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/gofiber/fiber/v3"
)

// StaffAuthHandlerInterface defines the contract for staff authentication handlers
type StaffAuthHandlerInterface interface {
	InitCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
}

// StaffAuthHandler handles staff login and session endpoints
type StaffAuthHandler struct {
	baseHandler
	flow businessflow.StaffAuthFlow
}

func NewStaffAuthHandler(flow businessflow.StaffAuthFlow) *StaffAuthHandler {
	return &StaffAuthHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// InitCaptcha generates a rotate captcha challenge for the login form
// @Summary Staff Captcha Init
// @Tags Staff Auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StaffCaptchaInitResponse}
// @Failure 503 {object} dto.APIResponse "Captcha disabled"
// @Router /api/v1/auth/captcha [get]
func (h *StaffAuthHandler) InitCaptcha(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/auth/captcha")
	defer cancel()

	resp, err := h.flow.InitCaptcha(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to generate captcha", "CAPTCHA_INIT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated", resp)
}

// Login authenticates a staff member
// @Summary Staff Login
// @Description Authenticate with username, password and (when enabled) the rotate captcha answer
// @Tags Staff Auth
// @Accept json
// @Produce json
// @Param request body dto.StaffLoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.StaffLoginResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials or captcha"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Router /api/v1/auth/login [post]
func (h *StaffAuthHandler) Login(c fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/login")
	defer cancel()

	resp, err := h.flow.Login(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Login failed", "LOGIN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", resp)
}

// Refresh rotates a refresh token
// @Summary Refresh Staff Session
// @Tags Staff Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.StaffSessionDTO}
// @Failure 401 {object} dto.APIResponse "Invalid token"
// @Router /api/v1/auth/refresh [post]
func (h *StaffAuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	session, err := h.flow.Refresh(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Token refresh failed", "REFRESH_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Token refreshed", session)
}

// Logout revokes the current access token and, if supplied, the refresh token
// @Summary Staff Logout
// @Tags Staff Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/auth/logout [post]
func (h *StaffAuthHandler) Logout(c fiber.Ctx) error {
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if err := h.flow.Logout(ctx, middleware.GetAccessTokenFromContext(c), &req, h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Logout failed", "LOGOUT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}

// Me returns the authenticated staff profile
// @Summary Current Staff
// @Tags Staff Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StaffDTO}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/me [get]
func (h *StaffAuthHandler) Me(c fiber.Ctx) error {
	staffID, ok := middleware.GetStaffIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff ID not found in context", "MISSING_STAFF_ID", nil)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/me")
	defer cancel()

	staff, err := h.flow.Me(ctx, staffID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to load profile", "GET_PROFILE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved", staff)
}
