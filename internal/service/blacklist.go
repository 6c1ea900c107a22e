package service

import (
	"context"
	"time"

	"github.com/checkmoa/auth-service/internal/models"
	"github.com/checkmoa/auth-service/internal/repo"
)

// BlacklistService records revoked jtis. Signed tokens are stateless and
// self-verifying, so this denylist is the only revocation mechanism the
// system has before natural expiry.
type BlacklistService struct {
	Repo *repo.GormRepo
}

// Add records the revocation. Re-adding an already blacklisted (jti, kind)
// pair overwrites the entry and does not error.
func (s *BlacklistService) Add(ctx context.Context, jti, kind, token string, expiresAt time.Time) error {
	return s.Repo.UpsertBlacklistedToken(ctx, &models.BlacklistedToken{
		JTI:       jti,
		Kind:      kind,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (s *BlacklistService) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.Repo.IsJTIBlacklisted(ctx, jti)
}
