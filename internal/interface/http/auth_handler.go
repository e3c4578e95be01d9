package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
	"github.com/oksasatya/go-storefront/pkg/apperror"
	"github.com/oksasatya/go-storefront/pkg/helpers"
	"github.com/oksasatya/go-storefront/pkg/response"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Audit   repo.AuditRepository
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, audit repo.AuditRepository, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: audit, Cookies: cookies, Logger: logger}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=50"`
	Password string `json:"password" binding:"required,pwd"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// audit records an auth event; failures are logged and never block the request.
func (h *AuthHandler) audit(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(c.Request.Context(), entity.AuditEvent{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
	if err != nil {
		helpers.RequestLogger(h.Logger, c).WithError(err).WithField("action", action).Warn("audit write failed")
	}
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	p, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.audit(c, "", entity.NormalizeEmail(req.Email), "signup_failed", map[string]any{"kind": apperror.KindOf(err).String()})
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "", p.Email, "signup", nil)
	response.Success(c, http.StatusCreated, gin.H{"email": p.Email}, "verification code sent", nil)
}

// SendOTP POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	email := entity.NormalizeEmail(req.Email)
	id, err := h.Svc.SendOTP(c.Request.Context(), email)
	if err != nil {
		h.audit(c, "", email, "otp_issue_failed", map[string]any{"kind": apperror.KindOf(err).String()})
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, "", email, "otp_issue", nil)
	response.Success(c, http.StatusOK, gin.H{"user_id": id}, "verification code sent", nil)
}

// Verify POST /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.Svc.Verify(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.audit(c, "", entity.NormalizeEmail(req.Email), "verify_failed", map[string]any{"kind": apperror.KindOf(err).String()})
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, res.AccessToken, res.AccessTokenExpiry, res.RefreshToken, res.RefreshTokenExpiry)
	h.audit(c, res.User.ID, res.User.Email, "verify", nil)
	response.Success(c, http.StatusOK, gin.H{
		"user":         toUserResponse(res.User),
		"access_token": res.AccessToken,
	}, "email verified", gin.H{"access_expires_at": res.AccessTokenExpiry})
}

// Signin POST /api/auth/signin
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.Svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit(c, "", entity.NormalizeEmail(req.Email), "signin_failed", map[string]any{"kind": apperror.KindOf(err).String()})
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, res.AccessToken, res.AccessTokenExpiry, res.RefreshToken, res.RefreshTokenExpiry)
	h.audit(c, res.User.ID, res.User.Email, "signin", nil)
	response.Success(c, http.StatusOK, gin.H{
		"user":          toUserResponse(res.User),
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	}, "signed in", gin.H{
		"access_expires_at":  res.AccessTokenExpiry,
		"refresh_expires_at": res.RefreshTokenExpiry,
	})
}

// Refresh POST /api/auth/refresh, token from the refresh cookie or the body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badPayload(c, err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	res, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindUnauthorized {
			h.Cookies.Clear(c)
		}
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, res.AccessToken, res.AccessTokenExpiry, res.RefreshToken, res.RefreshTokenExpiry)
	h.audit(c, res.User.ID, res.User.Email, "refresh", nil)
	response.Success(c, http.StatusOK, gin.H{"access_token": res.AccessToken}, "token refreshed", gin.H{
		"access_expires_at":  res.AccessTokenExpiry,
		"refresh_expires_at": res.RefreshTokenExpiry,
	})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := middleware.UserID(c)
	h.Cookies.Clear(c)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, uid, "", "logout", nil)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}
