package entity

import (
	"crypto/subtle"
	"time"
)

// PendingRegistration holds a signup until its email is confirmed by OTP.
// Keyed by the normalized email; a repeated signup overwrites it.
type PendingRegistration struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	OTP          string
	OTPExpiresAt time.Time
	OTPIssuedAt  time.Time
	OTPAttempts  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CodeActive reports whether the current code can still be redeemed.
func (p *PendingRegistration) CodeActive(now time.Time, maxAttempts int) bool {
	if maxAttempts > 0 && p.OTPAttempts >= maxAttempts {
		return false
	}
	return now.Before(p.OTPExpiresAt)
}

func (p *PendingRegistration) Matches(code string, now time.Time, maxAttempts int) bool {
	return p.CodeActive(now, maxAttempts) && codesEqual(p.OTP, code)
}

// RotateOTP replaces the code, invalidating the previous one.
func (p *PendingRegistration) RotateOTP(code string, now, expiresAt time.Time) {
	p.OTP = code
	p.OTPIssuedAt = now
	p.OTPExpiresAt = expiresAt
	p.OTPAttempts = 0
	p.UpdatedAt = now
}

// OneTimeCode is a standalone verification code for an existing, unverified account.
// At most one row exists per user.
type OneTimeCode struct {
	ID        string
	UserID    string
	Email     string
	OTP       string
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

func (c *OneTimeCode) Active(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}

func (c *OneTimeCode) Matches(code string, now time.Time) bool {
	return c.Active(now) && codesEqual(c.OTP, code)
}

func codesEqual(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// AuditEvent is one row of the authentication audit trail.
type AuditEvent struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}
