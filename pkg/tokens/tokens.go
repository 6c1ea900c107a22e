package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired means the signature checked out but the exp claim is in the past.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers every other verification failure.
	ErrInvalid = errors.New("invalid token")
)

// Payload is the claim set carried by every issued token. The JTI is freshly
// generated per payload and never reused across tokens.
type Payload struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	JTI       string
}

func NewPayload(userID string) Payload {
	return Payload{
		Subject:  userID,
		IssuedAt: time.Now(),
		JTI:      uuid.NewString(),
	}
}

// Codec signs and verifies HS256 tokens over a process-wide shared secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

type signedClaims struct {
	jwt.RegisteredClaims
}

func (c *Codec) Sign(p Payload, ttl time.Duration) (string, error) {
	cl := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.IssuedAt.Add(ttl)),
			ID:        p.JTI,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return t.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the embedded payload.
// Expired tokens fail with ErrExpired, everything else with ErrInvalid.
func (c *Codec) Verify(raw string) (Payload, error) {
	var cl signedClaims
	tkn, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrExpired
		}
		return Payload{}, ErrInvalid
	}
	if !tkn.Valid {
		return Payload{}, ErrInvalid
	}
	return payloadFromClaims(&cl), nil
}

// DecodeUnverified recovers claims without checking the signature. It exists
// only so logout can blacklist a token that expired moments ago; never use it
// for authorization decisions.
func (c *Codec) DecodeUnverified(raw string) (Payload, error) {
	var cl signedClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &cl); err != nil {
		return Payload{}, ErrInvalid
	}
	return payloadFromClaims(&cl), nil
}

func payloadFromClaims(cl *signedClaims) Payload {
	p := Payload{
		Subject: cl.Subject,
		JTI:     cl.ID,
	}
	if cl.IssuedAt != nil {
		p.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		p.ExpiresAt = cl.ExpiresAt.Time
	}
	return p
}
