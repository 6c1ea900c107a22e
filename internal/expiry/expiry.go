package expiry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/checkmoa/auth-service/internal/apperr"
)

// millisecond factors for the supported trailing units
const (
	msSecond = int64(1000)
	msMinute = 60 * msSecond
	msHour   = 60 * msMinute
	msDay    = 24 * msHour
)

// Duration parses a trailing-unit expression like "30s", "15m", "12h" or "7d"
// into a time.Duration. Anything else fails with apperr.ErrInvalidExpiry.
func Duration(expr string) (time.Duration, error) {
	if len(expr) < 2 {
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidExpiry, expr)
	}

	var factor int64
	switch expr[len(expr)-1] {
	case 'd':
		factor = msDay
	case 'h':
		factor = msHour
	case 'm':
		factor = msMinute
	case 's':
		factor = msSecond
	default:
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidExpiry, expr)
	}

	n, err := strconv.Atoi(expr[:len(expr)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidExpiry, expr)
	}

	return time.Duration(int64(n)*factor) * time.Millisecond, nil
}

// Absolute converts the expression into an absolute expiry counted from now.
// It is used both when minting tokens and when computing a blacklist entry's
// own TTL, so a blacklist entry always outlives the token it revokes.
func Absolute(expr string) (time.Time, error) {
	d, err := Duration(expr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(d), nil
}
