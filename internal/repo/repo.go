package repo

import (
	"gorm.io/gorm"

	"github.com/checkmoa/auth-service/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Migrate creates the schema plus the partial unique index that enforces at
// most one non-revoked access token per user. The index is what turns the
// single-session guard from check-then-act into an atomic constraint.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AccessToken{},
		&models.RefreshToken{},
		&models.BlacklistedToken{},
		&models.AccessLog{},
	); err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_access_tokens_one_active
		 ON access_tokens (user_id) WHERE is_revoked = false`,
	).Error
}
