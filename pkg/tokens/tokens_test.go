package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return NewCodec([]byte("test-jwt-secret"))
}

func TestCodec_SignVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	userID := uuid.NewString()
	p := NewPayload(userID)
	require.NotEmpty(t, p.JTI)

	raw, err := c.Sign(p, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, got.Subject)
	assert.Equal(t, p.JTI, got.JTI)
	assert.WithinDuration(t, p.IssuedAt, got.IssuedAt, time.Second)
	assert.WithinDuration(t, p.IssuedAt.Add(15*time.Minute), got.ExpiresAt, time.Second)
}

func TestNewPayload_FreshJTIPerCall(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	a := NewPayload(userID)
	b := NewPayload(userID)
	assert.NotEqual(t, a.JTI, b.JTI)
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	raw, err := c.Sign(NewPayload(uuid.NewString()), -time.Minute)
	require.NoError(t, err)

	_, err = c.Verify(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := newTestCodec().Sign(NewPayload(uuid.NewString()), 15*time.Minute)
	require.NoError(t, err)

	_, err = NewCodec([]byte("another-secret")).Verify(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_Verify_Garbage(t *testing.T) {
	t.Parallel()

	_, err := newTestCodec().Verify("not-a-jwt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_DecodeUnverified_RecoversExpiredClaims(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	p := NewPayload(uuid.NewString())
	raw, err := c.Sign(p, -time.Minute)
	require.NoError(t, err)

	got, err := c.DecodeUnverified(raw)
	require.NoError(t, err)
	assert.Equal(t, p.Subject, got.Subject)
	assert.Equal(t, p.JTI, got.JTI)
}
