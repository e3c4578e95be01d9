package helpers

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"
)

var (
	otpSpace   = big.NewInt(1_000_000)
	otpPattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// GenOTPCode generates a uniformly random 6-digit code as a zero-padded string
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidOTPCode reports whether code is exactly six ASCII digits.
func ValidOTPCode(code string) bool {
	return otpPattern.MatchString(code)
}

// CooldownRemaining returns the whole seconds left before another code may be
// issued, rounding up, or 0 when the cooldown has passed.
func CooldownRemaining(issuedAt, now time.Time, cooldown time.Duration) int {
	elapsed := now.Sub(issuedAt)
	if elapsed >= cooldown {
		return 0
	}
	return int(math.Ceil((cooldown - elapsed).Seconds()))
}
