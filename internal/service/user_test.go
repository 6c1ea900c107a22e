package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/models"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Test User",
		Email:    "a@x.com",
		Password: "Secret123",
		Phone:    "010-0000-0000",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{
		Name:     "Other",
		Email:    "a@x.com",
		Password: "Secret456",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUserAlreadyExists)
}

func TestAuthService_DeleteUser(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	user := registerTestUser(t, svc, "a@x.com", "p")

	_, err := svc.Login(ctx, "a@x.com", "p", testRequestInfo())
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, user.ID, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, svc.DeleteUser(ctx, user.ID, "p"))

	var users, accessRows, refreshRows, logRows int64
	require.NoError(t, svc.Repo.DB.Model(&models.User{}).Where("id = ?", user.ID).Count(&users).Error)
	require.NoError(t, svc.Repo.DB.Model(&models.AccessToken{}).Where("user_id = ?", user.ID).Count(&accessRows).Error)
	require.NoError(t, svc.Repo.DB.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&refreshRows).Error)
	require.NoError(t, svc.Repo.DB.Model(&models.AccessLog{}).Where("user_id = ?", user.ID).Count(&logRows).Error)
	assert.Zero(t, users)
	assert.Zero(t, accessRows)
	assert.Zero(t, refreshRows)
	assert.Zero(t, logRows)
}
