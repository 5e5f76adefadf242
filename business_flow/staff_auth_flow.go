package businessflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// StaffAuthFlow represents the staff authentication flow used by handlers
type StaffAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.StaffSessionDTO, error)
	Logout(ctx context.Context, accessToken string, req *dto.LogoutRequest, metadata *ClientMetadata) error
	Me(ctx context.Context, staffID uint) (*dto.StaffDTO, error)
}

// StaffAuthFlowImpl verifies captcha and credentials and issues JWTs.
// A nil captcha service disables the captcha step.
type StaffAuthFlowImpl struct {
	staffRepo    repository.StaffRepository
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	accessTTL    time.Duration
}

func NewStaffAuthFlow(staffRepo repository.StaffRepository, tokenService services.TokenService, captchaSvc services.CaptchaService, accessTTL time.Duration) StaffAuthFlow {
	return &StaffAuthFlowImpl{
		staffRepo:    staffRepo,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		accessTTL:    accessTTL,
	}
}

func (af *StaffAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCaptchaUnavailable)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.StaffCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
		ExpiresAt:         ch.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (af *StaffAuthFlowImpl) Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error) {
	// Validate request
	if req == nil {
		return nil, NewBusinessError("STAFF_LOGIN_VALIDATION_FAILED", "Staff login validation failed", ErrValidationFailed)
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return nil, NewBusinessError("STAFF_LOGIN_VALIDATION_FAILED", "Staff login validation failed", ErrIncorrectPassword)
	}

	// Verify captcha first
	if af.captchaSvc != nil {
		if req.ChallengeID == "" {
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha challenge missing", ErrInvalidCaptcha)
		}
		if !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
		}
	}

	log := utils.Logger.WithFields(metadata.logFields()).WithField("username", username)

	// Lookup staff
	staff, err := af.staffRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff", err)
	}
	if staff == nil {
		log.Warn("login attempt for unknown staff")
		return nil, NewBusinessError("STAFF_NOT_FOUND", "Staff not found", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		return nil, NewBusinessError("STAFF_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("login attempt with incorrect password")
		return nil, NewBusinessError("STAFF_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateStaffTokens(staff.ID, staff.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	now := utils.UTCNow()
	if err := af.staffRepo.UpdateLastLogin(ctx, staff.ID, now); err != nil {
		log.WithError(err).Warn("failed to record last login")
	} else {
		staff.LastLoginAt = &now
	}

	log.WithField("role", staff.Role).Info("staff logged in")

	return &dto.StaffLoginResponse{
		Staff:   ToStaffDTO(*staff),
		Session: ToStaffSessionDTO(accessToken, refreshToken, af.accessTTL),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (af *StaffAuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.StaffSessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError("REFRESH_VALIDATION_FAILED", "refresh_token is required", ErrValidationFailed)
	}

	claims, err := af.tokenService.ValidateStaffToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", errors.Join(ErrInvalidToken, err))
	}

	staff, err := af.staffRepo.ByID(ctx, claims.StaffID)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff", err)
	}
	if staff == nil {
		return nil, NewBusinessError("STAFF_NOT_FOUND", "Staff not found", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		return nil, NewBusinessError("STAFF_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}

	accessToken, refreshToken, err := af.tokenService.RefreshStaffTokens(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", errors.Join(ErrInvalidToken, err))
	}

	utils.Logger.WithFields(metadata.logFields()).WithField("staff_id", staff.ID).Debug("staff tokens refreshed")

	session := ToStaffSessionDTO(accessToken, refreshToken, af.accessTTL)
	return &session, nil
}

// Logout revokes the access token and, when given, the refresh token
func (af *StaffAuthFlowImpl) Logout(ctx context.Context, accessToken string, req *dto.LogoutRequest, metadata *ClientMetadata) error {
	if accessToken != "" {
		if err := af.tokenService.RevokeToken(accessToken); err != nil {
			return NewBusinessError("LOGOUT_FAILED", "Failed to revoke token", errors.Join(ErrInvalidToken, err))
		}
	}
	if req != nil && req.RefreshToken != "" {
		if err := af.tokenService.RevokeToken(req.RefreshToken); err != nil {
			utils.Logger.WithFields(metadata.logFields()).WithError(err).Debug("refresh token not revoked on logout")
		}
	}
	utils.Logger.WithFields(metadata.logFields()).Info("staff logged out")
	return nil
}

func (af *StaffAuthFlowImpl) Me(ctx context.Context, staffID uint) (*dto.StaffDTO, error) {
	staff, err := af.staffRepo.ByID(ctx, staffID)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff", err)
	}
	if staff == nil {
		return nil, NewBusinessError("STAFF_NOT_FOUND", "Staff not found", ErrStaffNotFound)
	}
	resp := ToStaffDTO(*staff)
	return &resp, nil
}

// SeedStaff creates the configured staff account when it does not exist yet.
// An existing account is left untouched.
func SeedStaff(ctx context.Context, staffRepo repository.StaffRepository, username, password, fullName, role string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return false, nil
	}
	existing, err := staffRepo.ByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	staff := models.Staff{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}
	if err := staffRepo.Save(ctx, &staff); err != nil {
		return false, err
	}
	utils.Logger.WithFields(logrus.Fields{"username": username, "role": role}).Info("staff account seeded")
	return true, nil
}
