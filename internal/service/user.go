package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/hash"
	"github.com/checkmoa/auth-service/internal/logging"
	"github.com/checkmoa/auth-service/internal/models"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Register creates a password account. The email may coexist with federated
// accounts under the same address; only the (email, empty-provider) pair must
// be free.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if _, err := s.Repo.FindUserByEmail(ctx, in.Email, ""); err == nil {
		l.Warn("register_failed", "reason", "email taken")
		return nil, apperr.ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: pwHash,
		Phone:        in.Phone,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("register_successful", "user_id", user.ID)
	return user, nil
}

// DeleteUser removes an account after re-checking its password. Token and
// access-log rows go with it.
func (s *AuthService) DeleteUser(ctx context.Context, userID uuid.UUID, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.delete_user")

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrInvalidCredentials
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return apperr.ErrInvalidCredentials
	}

	if err := s.Repo.DeleteUser(ctx, user); err != nil {
		return err
	}
	l.Info("user_deleted", "user_id", userID)
	return nil
}
