package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/checkmoa/auth-service/internal/models"
)

func (r *GormRepo) AppendAccessLog(ctx context.Context, log *models.AccessLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *GormRepo) CountAccessLogs(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.AccessLog{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
