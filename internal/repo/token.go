package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/models"
)

// FindActiveAccessToken returns the newest non-revoked access token row for
// the user, or gorm.ErrRecordNotFound. Older superseded rows may still exist.
func (r *GormRepo) FindActiveAccessToken(ctx context.Context, userID uuid.UUID) (*models.AccessToken, error) {
	var row models.AccessToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) FindAccessTokenByJTI(ctx context.Context, jti string) (*models.AccessToken, error) {
	var row models.AccessToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ReplaceAccessToken revokes the user's currently active access rows and
// inserts the new one in a single transaction. A uniqueness violation on the
// one-active-per-user index means a concurrent login won the race and is
// surfaced as AlreadyLoggedIn.
func (r *GormRepo) ReplaceAccessToken(ctx context.Context, row *models.AccessToken) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AccessToken{}).
			Where("user_id = ? AND is_revoked = ?", row.UserID, false).
			Update("is_revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrAlreadyLoggedIn
		}
		return err
	}
	return nil
}

func (r *GormRepo) CreateRefreshToken(ctx context.Context, row *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(row).Error
}
