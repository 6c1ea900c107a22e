package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/checkmoa/auth-service/internal/models"
)

// UpsertBlacklistedToken inserts the revocation record for (jti, kind).
// Re-adding the same pair overwrites the entry instead of erroring.
func (r *GormRepo) UpsertBlacklistedToken(ctx context.Context, row *models.BlacklistedToken) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at"}),
	}).Create(row).Error
}

// IsJTIBlacklisted reports whether any revocation record exists for the jti,
// regardless of kind.
func (r *GormRepo) IsJTIBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
