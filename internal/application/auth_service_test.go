package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/oksasatya/go-storefront/pkg/apperror"
	"github.com/oksasatya/go-storefront/pkg/mailer"
)

func codeSeq(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func signupAnn(t *testing.T, h *harness) {
	t.Helper()
	_, err := h.auth.Signup(context.Background(), SignupInput{Email: "A@B.com", Username: "ann", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
}

func TestSignupStoresPendingAndSendsCode(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("123456")

	p, err := h.auth.Signup(context.Background(), SignupInput{Email: " A@B.com ", Username: "ann", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if p.Email != "a@b.com" {
		t.Fatalf("email = %q, want normalized", p.Email)
	}
	if len(h.db.users) != 0 {
		t.Fatal("signup must not create a user")
	}
	stored, ok := h.db.pending["a@b.com"]
	if !ok || stored.OTP != "123456" {
		t.Fatalf("pending = %+v", stored)
	}
	if !stored.OTPExpiresAt.Equal(h.clock.Now().Add(30 * time.Minute)) {
		t.Fatalf("expires at %v", stored.OTPExpiresAt)
	}
	msg := h.sender.last(t)
	if msg.To != "a@b.com" || msg.Code != "123456" || msg.Purpose != mailer.PurposeSignup {
		t.Fatalf("sent %+v", msg)
	}
}

func TestSignupExistingEmail(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "u1", "a@b.com", "Passw0rd!", true)

	_, err := h.auth.Signup(context.Background(), SignupInput{Email: "A@b.com", Username: "ann", Password: "Passw0rd!"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestSignupMailFailureKeepsRegistration(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("broker down")

	_, err := h.auth.Signup(context.Background(), SignupInput{Email: "a@b.com", Username: "ann", Password: "Passw0rd!"})
	if apperror.KindOf(err) != apperror.KindUnavailable {
		t.Fatalf("kind = %v, want unavailable", apperror.KindOf(err))
	}
	if _, ok := h.db.pending["a@b.com"]; !ok {
		t.Fatal("pending registration should survive a mail failure")
	}
}

func TestSendOTPCooldown(t *testing.T) {
	h := newHarness(t)
	signupAnn(t, h)

	_, err := h.auth.SendOTP(context.Background(), "a@b.com")
	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindRateLimited || ae.RetryAfter != 60 {
		t.Fatalf("err = %v, want rate limited with 60s", err)
	}

	h.clock.Advance(15*time.Second + 500*time.Millisecond)
	_, err = h.auth.SendOTP(context.Background(), "a@b.com")
	ae, ok = apperror.As(err)
	if !ok || ae.RetryAfter != 45 {
		t.Fatalf("err = %v, want retry after 45", err)
	}

	h.clock.Advance(45 * time.Second)
	if _, err := h.auth.SendOTP(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestSendOTPUnknownAndVerified(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "u1", "done@b.com", "Passw0rd!", true)

	if _, err := h.auth.SendOTP(context.Background(), "nobody@b.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("unknown: err = %v", err)
	}
	_, err := h.auth.SendOTP(context.Background(), "DONE@b.com")
	if !errors.Is(err, ErrNothingToVerify) {
		t.Fatalf("verified: err = %v", err)
	}
	if k := apperror.KindOf(err); k != apperror.KindValidation || k.HTTPStatus() != http.StatusBadRequest {
		t.Fatalf("verified: kind = %v status = %d", k, k.HTTPStatus())
	}
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("111111", "222222")
	signupAnn(t, h)

	h.clock.Advance(61 * time.Second)
	id, err := h.auth.SendOTP(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if id != h.db.pending["a@b.com"].ID {
		t.Fatalf("returned id %q, want pending id", id)
	}
	if got := h.sender.last(t).Code; got != "222222" {
		t.Fatalf("sent %q", got)
	}

	if _, err := h.auth.Verify(context.Background(), "a@b.com", "111111"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("old code: err = %v", err)
	}
	if _, err := h.auth.Verify(context.Background(), "a@b.com", "222222"); err != nil {
		t.Fatalf("new code: %v", err)
	}
}

func TestSendOTPForUnverifiedUser(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("314159", "271828")
	u := h.addUser(t, "u1", "seed@b.com", "Passw0rd!", false)

	id, err := h.auth.SendOTP(context.Background(), "seed@b.com")
	if err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if id != u.ID {
		t.Fatalf("id = %q", id)
	}
	if c := h.db.codes[u.ID]; c.OTP != "314159" {
		t.Fatalf("stored code %+v", c)
	}
	if _, err := h.auth.SendOTP(context.Background(), "seed@b.com"); apperror.KindOf(err) != apperror.KindRateLimited {
		t.Fatalf("second send: err = %v", err)
	}

	h.clock.Advance(2 * time.Minute)
	if _, err := h.auth.SendOTP(context.Background(), "seed@b.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(h.db.codes) != 1 || h.db.codes[u.ID].OTP != "271828" {
		t.Fatalf("codes = %+v", h.db.codes)
	}

	if _, err := h.auth.Verify(context.Background(), "seed@b.com", "314159"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("old code: err = %v", err)
	}
	res, err := h.auth.Verify(context.Background(), "seed@b.com", "271828")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.User.Verified || !h.db.users[u.ID].Verified {
		t.Fatal("user should be verified")
	}
	if h.db.users[u.ID].RefreshToken != res.RefreshToken {
		t.Fatal("refresh token not stored")
	}
	if !h.db.codes[u.ID].Used {
		t.Fatal("code should be marked used")
	}
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	h := newHarness(t)
	for _, code := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		if _, err := h.auth.Verify(context.Background(), "a@b.com", code); !errors.Is(err, ErrOTPFormat) {
			t.Errorf("code %q: err = %v", code, err)
		}
	}
}

func TestVerifyCreatesVerifiedUser(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)

	res, err := h.auth.Verify(context.Background(), "A@B.COM", "654321")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.User.Verified || res.User.Email != "a@b.com" || res.User.Username != "ann" {
		t.Fatalf("user = %+v", res.User)
	}
	if _, ok := h.db.pending["a@b.com"]; ok {
		t.Fatal("pending registration should be deleted")
	}
	claims, err := h.jwt.ParseAccessToken(res.AccessToken)
	if err != nil || claims.UserID != res.User.ID {
		t.Fatalf("access token claims = %+v, err = %v", claims, err)
	}
	if h.db.users[res.User.ID].RefreshToken != res.RefreshToken {
		t.Fatal("refresh token not stored")
	}
}

func TestVerifyDoubleSubmitCreatesOneUser(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)

	if _, err := h.auth.Verify(context.Background(), "a@b.com", "654321"); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := h.auth.Verify(context.Background(), "a@b.com", "654321"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("second verify: err = %v", err)
	}
	if len(h.db.users) != 1 {
		t.Fatalf("users = %d, want 1", len(h.db.users))
	}
}

func TestVerifyPendingForExistingUser(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)
	h.addUser(t, "u1", "a@b.com", "Passw0rd!", true)

	if _, err := h.auth.Verify(context.Background(), "a@b.com", "654321"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := h.db.pending["a@b.com"]; ok {
		t.Fatal("stale pending registration should be deleted")
	}
	if len(h.db.users) != 1 {
		t.Fatalf("users = %d", len(h.db.users))
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)

	h.clock.Advance(30*time.Minute + time.Second)
	if _, err := h.auth.Verify(context.Background(), "a@b.com", "654321"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifyLocksAfterFailedAttempts(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)

	for i := 0; i < 5; i++ {
		if _, err := h.auth.Verify(context.Background(), "a@b.com", "000000"); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if got := h.db.pending["a@b.com"].OTPAttempts; got != 5 {
		t.Fatalf("attempts = %d", got)
	}
	if _, err := h.auth.Verify(context.Background(), "a@b.com", "654321"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("locked code: err = %v", err)
	}
}

func TestVerifyWrongEmail(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("654321")
	signupAnn(t, h)

	if _, err := h.auth.Verify(context.Background(), "other@b.com", "654321"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignin(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "u1", "ok@b.com", "Passw0rd!", true)
	h.addUser(t, "u2", "new@b.com", "Passw0rd!", false)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "nobody@b.com", "Passw0rd!", ErrInvalidCredentials},
		{"wrong password", "ok@b.com", "nope12345", ErrInvalidCredentials},
		{"unverified", "new@b.com", "Passw0rd!", ErrEmailNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.auth.Signin(context.Background(), tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	res, err := h.auth.Signin(context.Background(), "OK@b.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if res.User.ID != "u1" || h.db.users["u1"].RefreshToken != res.RefreshToken {
		t.Fatal("refresh token not stored")
	}
}

func TestSigninUpgradesLegacyHash(t *testing.T) {
	h := newHarness(t)
	salt := []byte("0123456789abcdef")
	key := pbkdf2.Key([]byte("Passw0rd!"), salt, 100_000, 32, sha256.New)
	u := h.addUser(t, "u1", "old@b.com", "unused", true)
	u.PasswordHash = hex.EncodeToString(salt) + ":" + hex.EncodeToString(key)
	h.db.users[u.ID] = u

	if _, err := h.auth.Signin(context.Background(), "old@b.com", "Passw0rd!"); err != nil {
		t.Fatalf("signin: %v", err)
	}
	if !strings.HasPrefix(h.db.users[u.ID].PasswordHash, "$2") {
		t.Fatalf("hash not upgraded: %q", h.db.users[u.ID].PasswordHash)
	}
	if _, err := h.auth.Signin(context.Background(), "old@b.com", "Passw0rd!"); err != nil {
		t.Fatalf("signin after upgrade: %v", err)
	}
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "u1", "ok@b.com", "Passw0rd!", true)
	first, err := h.auth.Signin(context.Background(), "ok@b.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}

	if _, err := h.auth.Refresh(context.Background(), first.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}

	second, err := h.auth.Refresh(context.Background(), "Bearer "+first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token not rotated")
	}
	if h.db.users["u1"].RefreshToken != second.RefreshToken {
		t.Fatal("rotated token not stored")
	}
	if _, err := h.auth.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("old refresh token: err = %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "u1", "ok@b.com", "Passw0rd!", true)
	res, err := h.auth.Signin(context.Background(), "ok@b.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if err := h.auth.Logout(context.Background(), "u1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := h.auth.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("err = %v", err)
	}
	if err := h.auth.Logout(context.Background(), "missing"); err != nil {
		t.Fatalf("logout unknown user: %v", err)
	}
}

func TestSignupToEmptyCart(t *testing.T) {
	h := newHarness(t)
	h.auth.GenCode = codeSeq("111111", "222222")
	signupAnn(t, h)

	h.clock.Advance(61 * time.Second)
	if _, err := h.auth.SendOTP(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	code := h.sender.last(t).Code
	if len(code) != 6 {
		t.Fatalf("code %q", code)
	}

	res, err := h.auth.Verify(context.Background(), "a@b.com", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.User.Verified {
		t.Fatal("user not verified")
	}
	claims := h.jwt.Verify("Bearer " + res.AccessToken)
	if claims == nil {
		t.Fatal("access token rejected")
	}

	cart, err := h.cart.Get(context.Background(), claims.UserID)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if !cart.IsEmpty() || !cart.Total.IsZero() {
		t.Fatalf("cart = %+v", cart)
	}
}
