package helpers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Legacy hashes imported from the previous storefront: hex(salt):hex(key),
// PBKDF2-SHA256 with 100k iterations and a 32-byte key.
const (
	legacyIterations = 100_000
	legacyKeyLen     = 32
)

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword checks a bcrypt or legacy PBKDF2 hash against a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	if IsLegacyHash(hash) {
		return compareLegacy(hash, plain)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsLegacyHash reports whether hash uses the PBKDF2 format and should be rehashed.
func IsLegacyHash(hash string) bool {
	return !strings.HasPrefix(hash, "$2") && strings.Count(hash, ":") == 1
}

func compareLegacy(hash, plain string) bool {
	saltHex, keyHex, _ := strings.Cut(hash, ":")
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(keyHex)
	if err != nil || len(stored) != legacyKeyLen {
		return false
	}
	derived := pbkdf2.Key([]byte(plain), salt, legacyIterations, legacyKeyLen, sha256.New)
	return subtle.ConstantTimeCompare(derived, stored) == 1
}
