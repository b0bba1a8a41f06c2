package booking

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"yoyaku/internal/metrics"
)

// Reservation codes avoid the glyphs I, O, 0 and 1, which customers confuse
// when reading a code back over the phone.
const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 6
	maxCodeAttempts = 10
)

// CodeChecker reports whether a code is already taken. Codes are unique
// across all studios and dates.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// fallbackCode derives a code from the current timestamp. It trades the
// uniform look of random codes for guaranteed progress when the random
// attempts keep colliding, which only happens when the code space is close
// to exhausted or the database is misbehaving.
func fallbackCode(now time.Time) string {
	n := now.UnixNano()
	buf := make([]byte, codeLength)
	for i := codeLength - 1; i >= 0; i-- {
		buf[i] = codeAlphabet[n%int64(len(codeAlphabet))]
		n /= int64(len(codeAlphabet))
	}
	return string(buf)
}

// generateCode produces an unused reservation code: up to maxCodeAttempts
// random draws checked against the store, then the timestamp fallback. The
// fallback is counted so operators notice a saturating code space.
func (s *Service) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", &StorageError{Op: "check code", Err: err}
		}
		if !exists {
			return code, nil
		}
	}

	code := fallbackCode(time.Now())
	exists, err := s.store.CodeExists(ctx, code)
	if err != nil {
		return "", &StorageError{Op: "check code", Err: err}
	}
	if exists {
		return "", &StorageError{Op: "generate code", Err: fmt.Errorf("fallback code %s already taken", code)}
	}

	metrics.IncCodeFallback()
	s.logger.Warn().
		Str("code", code).
		Int("attempts", maxCodeAttempts).
		Msg("random code generation exhausted retries, used timestamp fallback")
	return code, nil
}
