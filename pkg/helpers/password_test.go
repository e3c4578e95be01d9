package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestBcryptHash(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if IsLegacyHash(hash) {
		t.Fatal("bcrypt hash reported as legacy")
	}
	if !CompareHashAndPassword(hash, "Passw0rd!") {
		t.Fatal("correct password rejected")
	}
	if CompareHashAndPassword(hash, "passw0rd!") {
		t.Fatal("wrong password accepted")
	}
}

func TestLegacyPBKDF2Hash(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := pbkdf2.Key([]byte("Passw0rd!"), salt, 100_000, 32, sha256.New)
	hash := hex.EncodeToString(salt) + ":" + hex.EncodeToString(key)

	if !IsLegacyHash(hash) {
		t.Fatal("expected legacy format")
	}
	if !CompareHashAndPassword(hash, "Passw0rd!") {
		t.Fatal("correct legacy password rejected")
	}
	if CompareHashAndPassword(hash, "nope") {
		t.Fatal("wrong legacy password accepted")
	}
	if CompareHashAndPassword("zz:zz", "Passw0rd!") {
		t.Fatal("malformed legacy hash accepted")
	}
}
