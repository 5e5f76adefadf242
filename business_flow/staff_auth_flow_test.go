package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	staff  *fakeStaffRepo
	tokens services.TokenService
	flow   StaffAuthFlow
}

func newAuthFixture(t *testing.T, captcha services.CaptchaService) *authFixture {
	t.Helper()
	tokens, err := services.NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "test-secret")
	require.NoError(t, err)

	fx := &authFixture{staff: newFakeStaffRepo(), tokens: tokens}
	fx.flow = NewStaffAuthFlow(fx.staff, tokens, captcha, time.Hour)

	created, err := SeedStaff(context.Background(), fx.staff, " Reception ", "S3cretPass!", "Front Desk", models.StaffRoleReceptionist)
	require.NoError(t, err)
	require.True(t, created)
	return fx
}

func TestSeedStaff(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStaffRepo()

	created, err := SeedStaff(ctx, repo, "admin", "AdminPass123", "Admin", models.StaffRoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedStaff(ctx, repo, "ADMIN", "other-password", "Admin", models.StaffRoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = SeedStaff(ctx, repo, "", "", "", models.StaffRoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.ByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "AdminPass123", stored.PasswordHash)
}

func TestStaffAuthFlow(t *testing.T) {
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")

	t.Run("LoginWithoutCaptcha", func(t *testing.T) {
		fx := newAuthFixture(t, nil)

		resp, err := fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "RECEPTION", Password: "S3cretPass!"}, meta)
		require.NoError(t, err)
		assert.Equal(t, "reception", resp.Staff.Username)
		assert.Equal(t, models.StaffRoleReceptionist, resp.Staff.Role)
		assert.NotNil(t, resp.Staff.LastLoginAt)
		assert.Equal(t, 3600, resp.Session.ExpiresIn)

		claims, err := fx.tokens.ValidateStaffToken(resp.Session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.Staff.ID, claims.StaffID)
		assert.Equal(t, services.TokenTypeAccess, claims.TokenType)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		_, err := fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "reception", Password: "wrong-password"}, meta)
		assert.True(t, IsIncorrectPassword(err))
	})

	t.Run("UnknownStaff", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		_, err := fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "nobody", Password: "S3cretPass!"}, meta)
		assert.True(t, IsStaffNotFound(err))
	})

	t.Run("InactiveStaff", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		s, err := fx.staff.ByUsername(ctx, "reception")
		require.NoError(t, err)
		inactive := false
		fx.staff.rows[s.ID].IsActive = &inactive

		_, err = fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "reception", Password: "S3cretPass!"}, meta)
		assert.True(t, IsStaffInactive(err))
	})

	t.Run("Captcha", func(t *testing.T) {
		fx := newAuthFixture(t, &fakeCaptcha{angle: 90})

		ch, err := fx.flow.InitCaptcha(ctx)
		require.NoError(t, err)
		assert.Equal(t, "challenge-1", ch.ChallengeID)

		_, err = fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "reception", Password: "S3cretPass!"}, meta)
		assert.True(t, IsInvalidCaptcha(err))

		_, err = fx.flow.Login(ctx, &dto.StaffLoginRequest{ChallengeID: ch.ChallengeID, UserAngle: 45, Username: "reception", Password: "S3cretPass!"}, meta)
		assert.True(t, IsInvalidCaptcha(err))

		_, err = fx.flow.Login(ctx, &dto.StaffLoginRequest{ChallengeID: ch.ChallengeID, UserAngle: 90, Username: "reception", Password: "S3cretPass!"}, meta)
		require.NoError(t, err)
	})

	t.Run("CaptchaDisabled", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		_, err := fx.flow.InitCaptcha(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCaptchaUnavailable)
	})

	t.Run("RefreshRotates", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		resp, err := fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "reception", Password: "S3cretPass!"}, meta)
		require.NoError(t, err)

		session, err := fx.flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: resp.Session.RefreshToken}, meta)
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)

		_, err = fx.flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: resp.Session.RefreshToken}, meta)
		assert.True(t, IsInvalidToken(err))

		_, err = fx.flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: session.AccessToken}, meta)
		assert.True(t, IsInvalidToken(err))
	})

	t.Run("LogoutRevokes", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		resp, err := fx.flow.Login(ctx, &dto.StaffLoginRequest{Username: "reception", Password: "S3cretPass!"}, meta)
		require.NoError(t, err)

		require.NoError(t, fx.flow.Logout(ctx, resp.Session.AccessToken, &dto.LogoutRequest{RefreshToken: resp.Session.RefreshToken}, meta))

		_, err = fx.tokens.ValidateStaffToken(resp.Session.AccessToken)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
		_, err = fx.tokens.ValidateStaffToken(resp.Session.RefreshToken)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})

	t.Run("Me", func(t *testing.T) {
		fx := newAuthFixture(t, nil)
		s, err := fx.staff.ByUsername(ctx, "reception")
		require.NoError(t, err)

		me, err := fx.flow.Me(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Front Desk", me.FullName)

		_, err = fx.flow.Me(ctx, 999)
		assert.True(t, IsStaffNotFound(err))
	})
}
