package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Manager sets and clears the session cookies.
// The access cookie is readable by the storefront's scripts; the refresh cookie is
// HTTP-only and only sent to the refresh endpoint.
type Manager struct {
	Domain      string
	Secure      bool
	RefreshPath string
}

func NewCookie(domain string, secure bool, refreshPath string) *Manager {
	if refreshPath == "" {
		refreshPath = "/"
	}
	return &Manager{Domain: domain, Secure: secure, RefreshPath: refreshPath}
}

func (m *Manager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, access, maxAgeFrom(aexp), "/", m.Domain, m.Secure, false)
	c.SetCookie(RefreshCookie, refresh, maxAgeFrom(rexp), m.RefreshPath, m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", m.Domain, m.Secure, false)
	c.SetCookie(RefreshCookie, "", -1, m.RefreshPath, m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
