package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
	"github.com/oksasatya/go-storefront/pkg/apperror"
	"github.com/oksasatya/go-storefront/pkg/helpers"
	"github.com/oksasatya/go-storefront/pkg/mailer"
)

// CodeSender delivers verification codes. Implemented by mailer.QueueSender and mailer.LogSender.
type CodeSender interface {
	SendCode(ctx context.Context, msg mailer.OTPMessage) error
}

type OTPPolicy struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{TTL: 30 * time.Minute, Cooldown: 60 * time.Second, MaxAttempts: 5}
}

type AuthService struct {
	Users   repo.UserRepository
	Pending repo.PendingRegistrationRepository
	Codes   repo.OneTimeCodeRepository
	Tx      repo.Transactor
	JWT     *helpers.JWTManager
	Sender  CodeSender
	Policy  OTPPolicy
	Logger  *logrus.Logger

	Now     func() time.Time
	GenCode func() (string, error)
}

func NewAuthService(users repo.UserRepository, pending repo.PendingRegistrationRepository, codes repo.OneTimeCodeRepository,
	tx repo.Transactor, jwt *helpers.JWTManager, sender CodeSender, policy OTPPolicy, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:   users,
		Pending: pending,
		Codes:   codes,
		Tx:      tx,
		JWT:     jwt,
		Sender:  sender,
		Policy:  policy,
		Logger:  logger,
		Now:     time.Now,
		GenCode: helpers.GenOTPCode,
	}
}

// AuthResult is a signed-in user with a fresh token pair.
type AuthResult struct {
	User               *entity.User
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type SignupInput struct {
	Email    string
	Username string
	Password string
}

// Signup stores a pending registration and mails its first code.
// The account itself is created by Verify.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*entity.PendingRegistration, error) {
	email := entity.NormalizeEmail(in.Email)
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, internal("lookup user", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	code, err := s.GenCode()
	if err != nil {
		return nil, internal("generate code", err)
	}

	now := s.Now()
	p := &entity.PendingRegistration{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     in.Username,
		PasswordHash: hash,
		OTP:          code,
		OTPIssuedAt:  now,
		OTPExpiresAt: now.Add(s.Policy.TTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Pending.Upsert(ctx, p); err != nil {
		return nil, internal("save registration", err)
	}
	metricSignups.Add(1)

	if err := s.deliver(ctx, mailer.OTPMessage{
		To: email, Name: in.Username, Code: code, Purpose: mailer.PurposeSignup, ExpiresAt: p.OTPExpiresAt,
	}); err != nil {
		return p, err
	}
	return p, nil
}

// SendOTP issues a fresh code for an unverified account or a pending registration
// and returns the id of the record it belongs to.
func (s *AuthService) SendOTP(ctx context.Context, email string) (string, error) {
	email = entity.NormalizeEmail(email)
	code, err := s.GenCode()
	if err != nil {
		return "", internal("generate code", err)
	}

	var (
		ownerID string
		msg     mailer.OTPMessage
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.Now()
		expires := now.Add(s.Policy.TTL)

		u, err := s.Users.GetByEmailForUpdate(ctx, email)
		switch {
		case err == nil:
			if u.Verified {
				return ErrNothingToVerify
			}
			prev, err := s.Codes.GetByUserID(ctx, u.ID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return internal("lookup code", err)
			}
			if prev != nil {
				if wait := helpers.CooldownRemaining(prev.CreatedAt, now, s.Policy.Cooldown); wait > 0 {
					return apperror.RateLimited("please wait before requesting another code", wait)
				}
			}
			if err := s.Codes.DeleteByUserID(ctx, u.ID); err != nil {
				return internal("delete code", err)
			}
			if err := s.Codes.Create(ctx, &entity.OneTimeCode{
				ID:        uuid.NewString(),
				UserID:    u.ID,
				Email:     u.Email,
				OTP:       code,
				ExpiresAt: expires,
				CreatedAt: now,
			}); err != nil {
				return internal("save code", err)
			}
			ownerID = u.ID
			msg = mailer.OTPMessage{To: u.Email, Name: u.Username, Code: code, Purpose: mailer.PurposeResend, ExpiresAt: expires}
			return nil
		case !errors.Is(err, repo.ErrNotFound):
			return internal("lookup user", err)
		}

		p, err := s.Pending.GetByEmailForUpdate(ctx, email)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return internal("lookup registration", err)
		}
		if wait := helpers.CooldownRemaining(p.OTPIssuedAt, now, s.Policy.Cooldown); wait > 0 {
			return apperror.RateLimited("please wait before requesting another code", wait)
		}
		p.RotateOTP(code, now, expires)
		if err := s.Pending.Update(ctx, p); err != nil {
			return internal("save registration", err)
		}
		ownerID = p.ID
		msg = mailer.OTPMessage{To: p.Email, Name: p.Username, Code: code, Purpose: mailer.PurposeSignup, ExpiresAt: expires}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.deliver(ctx, msg); err != nil {
		return ownerID, err
	}
	return ownerID, nil
}

type verifyOutcome int

const (
	verifyOK verifyOutcome = iota
	verifyInvalid
	verifyAlreadyVerified
)

// Verify redeems a code. A pending registration becomes a verified account;
// an existing unverified account is marked verified. Both sign the user in.
func (s *AuthService) Verify(ctx context.Context, email, code string) (*AuthResult, error) {
	if !helpers.ValidOTPCode(code) {
		return nil, ErrOTPFormat
	}
	email = entity.NormalizeEmail(email)

	var (
		outcome verifyOutcome
		res     *AuthResult
	)
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.Now()

		p, err := s.Pending.GetByEmailForUpdate(ctx, email)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return internal("lookup registration", err)
		}
		if p != nil {
			if !p.Matches(code, now, s.Policy.MaxAttempts) {
				if err := s.Pending.IncrementAttempts(ctx, email); err != nil {
					return internal("record attempt", err)
				}
				outcome = verifyInvalid
				return nil
			}
			if _, err := s.Users.GetByEmailForUpdate(ctx, email); err == nil {
				if err := s.Pending.DeleteByEmail(ctx, email); err != nil {
					return internal("delete registration", err)
				}
				outcome = verifyAlreadyVerified
				return nil
			} else if !errors.Is(err, repo.ErrNotFound) {
				return internal("lookup user", err)
			}

			u := &entity.User{
				ID:           uuid.NewString(),
				Email:        p.Email,
				Username:     p.Username,
				PasswordHash: p.PasswordHash,
				Verified:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			res, err = s.issue(u)
			if err != nil {
				return err
			}
			u.RefreshToken = res.RefreshToken
			if err := s.Users.Create(ctx, u); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					outcome = verifyAlreadyVerified
					return err
				}
				return internal("create user", err)
			}
			if err := s.Pending.DeleteByEmail(ctx, email); err != nil {
				return internal("delete registration", err)
			}
			return nil
		}

		u, err := s.Users.GetByEmailForUpdate(ctx, email)
		if errors.Is(err, repo.ErrNotFound) {
			outcome = verifyInvalid
			return nil
		}
		if err != nil {
			return internal("lookup user", err)
		}
		if u.Verified {
			outcome = verifyAlreadyVerified
			return nil
		}
		c, err := s.Codes.GetByUserID(ctx, u.ID)
		if errors.Is(err, repo.ErrNotFound) {
			outcome = verifyInvalid
			return nil
		}
		if err != nil {
			return internal("lookup code", err)
		}
		if !c.Matches(code, now) {
			outcome = verifyInvalid
			return nil
		}
		if err := s.Codes.MarkUsed(ctx, c.ID); err != nil {
			return internal("mark code used", err)
		}
		u.Verified = true
		if err := s.Users.Update(ctx, u); err != nil {
			return internal("verify user", err)
		}
		res, err = s.issue(u)
		if err != nil {
			return err
		}
		if err := s.Users.SetRefreshToken(ctx, u.ID, res.RefreshToken); err != nil {
			return internal("store refresh token", err)
		}
		u.RefreshToken = res.RefreshToken
		return nil
	})
	if outcome == verifyAlreadyVerified {
		return nil, ErrAlreadyVerified
	}
	if err != nil {
		return nil, err
	}
	if outcome == verifyInvalid {
		metricOTPFailed.Add(1)
		return nil, ErrInvalidOTP
	}
	metricVerifications.Add(1)
	return res, nil
}

// Signin checks credentials and rotates the stored refresh token.
// Legacy password hashes are upgraded to bcrypt on success.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, internal("lookup user", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrEmailNotVerified
	}

	if helpers.IsLegacyHash(u.PasswordHash) {
		if hash, err := helpers.HashPassword(password); err == nil {
			if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
				s.Logger.WithError(err).WithField("user_id", u.ID).Warn("rehash legacy password failed")
			} else {
				u.PasswordHash = hash
			}
		}
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, u.ID, res.RefreshToken); err != nil {
		return nil, internal("store refresh token", err)
	}
	u.RefreshToken = res.RefreshToken
	metricSignins.Add(1)
	return res, nil
}

// Refresh exchanges the stored refresh token for a new pair. Any other token,
// including a previously rotated one, is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = helpers.StripBearer(refreshToken)
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, internal("lookup user", err)
	}
	if u.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, ErrInvalidRefreshToken
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, u.ID, res.RefreshToken); err != nil {
		return nil, internal("store refresh token", err)
	}
	u.RefreshToken = res.RefreshToken
	return res, nil
}

// Logout revokes the stored refresh token. Unknown users are ignored.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.Users.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return internal("revoke refresh token", err)
	}
	return nil
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, internal("issue token", err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return nil, internal("issue token", err)
	}
	return &AuthResult{User: u, AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// deliver hands the code to the mail collaborator. The stored code is kept when
// delivery fails so a later resend can succeed.
func (s *AuthService) deliver(ctx context.Context, msg mailer.OTPMessage) error {
	if err := s.Sender.SendCode(ctx, msg); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"to": msg.To, "purpose": msg.Purpose}).Error("send otp failed")
		return apperror.Wrap(apperror.KindUnavailable, ErrCodeDelivery.Message, err)
	}
	metricOTPIssued.Add(1)
	return nil
}
