package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/models"
)

// FindUserByEmail looks up the user registered under (email, provider).
// Password accounts use an empty provider.
func (r *GormRepo) FindUserByEmail(ctx context.Context, email, provider string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ? AND provider = ?", email, provider).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteUser removes the user together with its tokens and access logs.
func (r *GormRepo) DeleteUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Select(clause.Associations).Delete(u).Error
}
