package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/expiry"
	"github.com/checkmoa/auth-service/internal/federation"
	"github.com/checkmoa/auth-service/internal/hash"
	"github.com/checkmoa/auth-service/internal/logging"
	"github.com/checkmoa/auth-service/internal/models"
	"github.com/checkmoa/auth-service/internal/repo"
	"github.com/checkmoa/auth-service/pkg/tokens"
)

// EventPublisher pushes auth events to the broker. Publishing is best-effort:
// a failed publish is logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// AuditIndexer mirrors access logs into the audit search index.
type AuditIndexer interface {
	IndexAccessLog(ctx context.Context, log *models.AccessLog) error
}

// RequestInfo carries the request metadata recorded per login. The strings
// are opaque to this service.
type RequestInfo struct {
	IP        string
	UserAgent string
	Endpoint  string
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

type AuthService struct {
	Repo      *repo.GormRepo
	Codec     *tokens.Codec
	Blacklist *BlacklistService

	AccessTokenExpiry  string
	RefreshTokenExpiry string

	// RefreshChecksBlacklist makes RefreshAccessToken reject refresh tokens
	// whose jti has been blacklisted by a logout. Off by default: the
	// observed behavior trusts refresh-token validity alone.
	RefreshChecksBlacklist bool

	Events EventPublisher
	Audit  AuditIndexer
}

// Login authenticates a password account and issues a fresh token pair.
// A still-verifiable access token for the user fails with AlreadyLoggedIn;
// an expired one is superseded.
func (s *AuthService) Login(ctx context.Context, email, password string, req RequestInfo) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.validateCredentials(ctx, email, password)
	if err != nil {
		l.Warn("login_failed", "reason", "invalid credentials")
		return nil, err
	}

	if err := s.guardSingleSession(ctx, user.ID); err != nil {
		return nil, err
	}

	payload := tokens.NewPayload(user.ID.String())
	accessToken, refreshToken, err := s.issueTokenPair(ctx, user.ID, payload)
	if err != nil {
		l.Error("login_failed", "reason", "token issuance", "error", err)
		return nil, err
	}

	log := &models.AccessLog{
		UserID:    user.ID,
		UserAgent: req.UserAgent,
		Endpoint:  req.Endpoint,
		IP:        req.IP,
	}
	if err := s.Repo.AppendAccessLog(ctx, log); err != nil {
		l.Error("login_failed", "reason", "access log", "error", err)
		return nil, err
	}
	s.indexAccessLog(ctx, log)
	s.publish(ctx, "login", user.ID.String())

	l.Info("login_successful", "user_id", user.ID)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserSummary{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Phone: user.Phone,
		},
	}, nil
}

// Logout blacklists both tokens of the pair. Tokens that expired moments ago
// are still accepted: their claims are recovered with an unverified decode,
// since the caller's intent is unambiguous. Malformed or badly signed tokens
// propagate their verification failure.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	accessPayload, err := s.claimsForRevocation(accessToken)
	if err != nil {
		return err
	}
	refreshPayload, err := s.claimsForRevocation(refreshToken)
	if err != nil {
		return err
	}

	blacklisted, err := s.Blacklist.IsBlacklisted(ctx, accessPayload.JTI)
	if err != nil {
		return err
	}
	if blacklisted {
		l.Warn("logout_failed", "reason", "already logged out")
		return apperr.ErrAlreadyLoggedOut
	}

	var (
		wg                    sync.WaitGroup
		accessErr, refreshErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		accessErr = s.blacklistToken(ctx, accessPayload.JTI, models.TokenKindAccess, accessToken, s.AccessTokenExpiry)
	}()
	go func() {
		defer wg.Done()
		refreshErr = s.blacklistToken(ctx, refreshPayload.JTI, models.TokenKindRefresh, refreshToken, s.RefreshTokenExpiry)
	}()
	wg.Wait()
	if accessErr != nil {
		return accessErr
	}
	if refreshErr != nil {
		return refreshErr
	}

	s.publish(ctx, "logout", accessPayload.Subject)
	l.Info("logout_successful", "user_id", accessPayload.Subject)
	return nil
}

// RefreshAccessToken mints a new access token for the subject of a valid
// refresh token. The refresh token itself is not rotated. Every verification
// failure is surfaced uniformly as InvalidRefreshToken.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	verified, err := s.Codec.Verify(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "verification", "error", err)
		return "", apperr.ErrInvalidRefreshToken
	}

	if s.RefreshChecksBlacklist {
		blacklisted, err := s.Blacklist.IsBlacklisted(ctx, verified.JTI)
		if err != nil {
			return "", err
		}
		if blacklisted {
			l.Warn("refresh_failed", "reason", "blacklisted jti")
			return "", apperr.ErrInvalidRefreshToken
		}
	}

	userID, err := uuid.Parse(verified.Subject)
	if err != nil {
		return "", apperr.ErrInvalidRefreshToken
	}
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "reason", "user not found", "user_id", verified.Subject)
			return "", apperr.ErrUserNotFound
		}
		return "", err
	}

	payload := tokens.NewPayload(user.ID.String())
	accessToken, err := s.issueAccessToken(ctx, user.ID, payload)
	if err != nil {
		return "", err
	}

	s.publish(ctx, "refresh", user.ID.String())
	return accessToken, nil
}

// HandleFederatedCallback logs a user in through a normalized provider
// identity, creating the account on first contact. Federated login does not
// run the single-session guard: it always issues a fresh pair.
func (s *AuthService) HandleFederatedCallback(ctx context.Context, id federation.Identity) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.federated", "provider", id.Provider)

	user, err := s.findOrCreateFederatedUser(ctx, id)
	if err != nil {
		l.Error("federated_login_failed", "error", err)
		return nil, err
	}

	payload := tokens.NewPayload(user.ID.String())
	accessToken, refreshToken, err := s.issueTokenPair(ctx, user.ID, payload)
	if err != nil {
		l.Error("federated_login_failed", "reason", "token issuance", "error", err)
		return nil, err
	}

	s.publish(ctx, "login", user.ID.String())
	l.Info("federated_login_successful", "user_id", user.ID)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateUser confirms that a bearer token's subject still exists and that
// its access-token row has not been revoked. Used by request middleware.
func (s *AuthService) ValidateUser(ctx context.Context, id, jti string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.ErrUserNotFound
	}

	var (
		wg                sync.WaitGroup
		user              *models.User
		row               *models.AccessToken
		userErr, tokenErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = s.Repo.FindUserByID(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		row, tokenErr = s.Repo.FindAccessTokenByJTI(ctx, jti)
	}()
	wg.Wait()

	if userErr != nil {
		if errors.Is(userErr, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, userErr
	}
	if tokenErr != nil {
		if errors.Is(tokenErr, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrRevokedToken
		}
		return nil, tokenErr
	}
	if row.IsRevoked {
		return nil, apperr.ErrRevokedToken
	}
	return user, nil
}

func (s *AuthService) validateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.FindUserByEmail(ctx, email, "")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	// Federated-only accounts store an empty hash and can never pass here.
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// guardSingleSession fails with AlreadyLoggedIn while the user's newest
// non-revoked access token still verifies. An expired token lets the login
// proceed; any other verification failure is fatal.
func (s *AuthService) guardSingleSession(ctx context.Context, userID uuid.UUID) error {
	existing, err := s.Repo.FindActiveAccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	_, verr := s.Codec.Verify(existing.Token)
	switch {
	case verr == nil:
		return apperr.ErrAlreadyLoggedIn
	case errors.Is(verr, tokens.ErrExpired):
		return nil
	default:
		return verr
	}
}

// issueTokenPair signs and persists both tokens of a pair concurrently. The
// two writes have no ordering dependency; if either fails the whole call
// fails and no partial pair is returned.
func (s *AuthService) issueTokenPair(ctx context.Context, userID uuid.UUID, payload tokens.Payload) (string, string, error) {
	var (
		wg                    sync.WaitGroup
		access, refresh       string
		accessErr, refreshErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		access, accessErr = s.issueAccessToken(ctx, userID, payload)
	}()
	go func() {
		defer wg.Done()
		refresh, refreshErr = s.issueRefreshToken(ctx, userID, payload)
	}()
	wg.Wait()

	if accessErr != nil {
		return "", "", accessErr
	}
	if refreshErr != nil {
		return "", "", refreshErr
	}
	return access, refresh, nil
}

func (s *AuthService) issueAccessToken(ctx context.Context, userID uuid.UUID, payload tokens.Payload) (string, error) {
	ttl, err := expiry.Duration(s.AccessTokenExpiry)
	if err != nil {
		return "", err
	}
	raw, err := s.Codec.Sign(payload, ttl)
	if err != nil {
		return "", err
	}
	expiresAt, err := expiry.Absolute(s.AccessTokenExpiry)
	if err != nil {
		return "", err
	}

	row := models.AccessToken{
		UserID:    userID,
		JTI:       payload.JTI,
		Token:     raw,
		ExpiresAt: expiresAt,
	}
	if err := s.Repo.ReplaceAccessToken(ctx, &row); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, userID uuid.UUID, payload tokens.Payload) (string, error) {
	ttl, err := expiry.Duration(s.RefreshTokenExpiry)
	if err != nil {
		return "", err
	}
	raw, err := s.Codec.Sign(payload, ttl)
	if err != nil {
		return "", err
	}
	expiresAt, err := expiry.Absolute(s.RefreshTokenExpiry)
	if err != nil {
		return "", err
	}

	row := models.RefreshToken{
		UserID:    userID,
		JTI:       payload.JTI,
		Token:     raw,
		ExpiresAt: expiresAt,
	}
	if err := s.Repo.CreateRefreshToken(ctx, &row); err != nil {
		return "", err
	}
	return raw, nil
}

// claimsForRevocation verifies the token, falling back to an unverified
// decode only when the failure is expiry.
func (s *AuthService) claimsForRevocation(raw string) (tokens.Payload, error) {
	p, err := s.Codec.Verify(raw)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, tokens.ErrExpired) {
		return s.Codec.DecodeUnverified(raw)
	}
	return tokens.Payload{}, err
}

// blacklistToken computes the entry's TTL from the kind's configured expiry,
// counted from now, so the entry outlives the token's own validity window.
func (s *AuthService) blacklistToken(ctx context.Context, jti, kind, raw, expiryExpr string) error {
	expiresAt, err := expiry.Absolute(expiryExpr)
	if err != nil {
		return err
	}
	return s.Blacklist.Add(ctx, jti, kind, raw, expiresAt)
}

func (s *AuthService) findOrCreateFederatedUser(ctx context.Context, id federation.Identity) (*models.User, error) {
	user, err := s.Repo.FindUserByEmail(ctx, id.Email, id.Provider)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &models.User{
		Name:         id.Name,
		Email:        id.Email,
		PasswordHash: "",
		Phone:        "",
		Provider:     id.Provider,
		ProviderID:   id.ProviderID,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, typ, userID string) {
	if s.Events == nil {
		return
	}
	event := AuthEvent{Type: typ, UserID: userID, At: time.Now()}
	if err := s.Events.Publish(ctx, userID, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) indexAccessLog(ctx context.Context, log *models.AccessLog) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.IndexAccessLog(ctx, log); err != nil {
		logging.FromContext(ctx).Warn("audit_index_failed", "error", err)
	}
}
