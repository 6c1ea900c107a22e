package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Token kinds stored in the blacklist.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// User is unique per (email, provider); the same email registered with a
// password and again through a federated provider yields two distinct rows.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                          json:"id"`
	Name         string    `gorm:"not null"                                      json:"name"`
	Email        string    `gorm:"not null;uniqueIndex:idx_users_email_provider" json:"email"`
	PasswordHash string    `gorm:"not null"                                      json:"-"`
	Phone        string    `gorm:"size:50"                                       json:"phone"`
	Provider     string    `gorm:"size:50;uniqueIndex:idx_users_email_provider"  json:"provider"`
	ProviderID   string    `gorm:"size:100"                                      json:"provider_id"`
	Role         string    `gorm:"size:50;not null"                              json:"role"`
	IsVerified   bool      `gorm:"default:false"                                 json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	AccessTokens  []AccessToken  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AccessLogs    []AccessLog    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type AccessToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	Token     string    `gorm:"not null"               json:"token"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	IsRevoked bool      `gorm:"default:false"          json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	Token     string    `gorm:"not null"               json:"token"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	IsRevoked bool      `gorm:"default:false"          json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// BlacklistedToken is keyed purely by jti so revocation checks do not depend
// on the original token row still existing.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"                                       json:"id"`
	JTI       string    `gorm:"index;uniqueIndex:idx_blacklist_jti_kind;not null" json:"jti"`
	Kind      string    `gorm:"size:20;uniqueIndex:idx_blacklist_jti_kind;not null" json:"kind"`
	Token     string    `gorm:"not null"             json:"token"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessLog is an append-only audit row, one per successful login.
type AccessLog struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	UserAgent string    `json:"user_agent"`
	Endpoint  string    `json:"endpoint"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}
