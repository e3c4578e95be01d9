package application

import (
	"github.com/oksasatya/go-storefront/pkg/apperror"
)

// Client-facing failures. Auth messages stay generic.
var (
	ErrInvalidCredentials  = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrEmailNotVerified    = apperror.New(apperror.KindForbidden, "email not verified")
	ErrEmailExists         = apperror.New(apperror.KindConflict, "email already registered")
	ErrAccountNotFound     = apperror.New(apperror.KindNotFound, "account not found")
	ErrAlreadyVerified     = apperror.New(apperror.KindConflict, "email already verified")
	ErrNothingToVerify     = apperror.New(apperror.KindValidation, "email already verified")
	ErrInvalidOTP          = apperror.New(apperror.KindValidation, "invalid or expired code")
	ErrOTPFormat           = apperror.Validation("invalid code", map[string]string{"otp": "must be exactly 6 digits"})
	ErrCodeDelivery        = apperror.New(apperror.KindUnavailable, "could not send verification code, try again shortly")
	ErrInvalidRefreshToken = apperror.New(apperror.KindUnauthorized, "invalid refresh token")
	ErrUserNotFound        = apperror.New(apperror.KindNotFound, "user not found")

	ErrInvalidProductID      = apperror.Validation("invalid product id", map[string]string{"product_id": "is invalid"})
	ErrProductNotFound       = apperror.New(apperror.KindNotFound, "product not found")
	ErrEmptyCart             = apperror.New(apperror.KindValidation, "cart is empty")
	ErrOrderNotFound         = apperror.New(apperror.KindNotFound, "order not found")
	ErrAddressNotFound       = apperror.New(apperror.KindNotFound, "address not found")
	ErrInvalidRating         = apperror.Validation("invalid rating", map[string]string{"rating": "must be between 1 and 5"})
	ErrMissingCheckoutFields = apperror.New(apperror.KindValidation, "shipping address and payment method are required")
)

func internal(msg string, err error) error {
	return apperror.Wrap(apperror.KindInternal, msg, err)
}
