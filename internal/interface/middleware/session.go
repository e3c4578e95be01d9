package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/pkg/helpers"
	"github.com/oksasatya/go-storefront/pkg/response"
)

const CtxUserIDKey = "userID"

// PublicRoute exempts requests from the session gate. An empty Method matches any
// method. Prefix matches whole path segments; "/" matches only the root.
type PublicRoute struct {
	Method string
	Prefix string
}

func (r PublicRoute) Matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	if r.Prefix == "/" {
		return path == "/"
	}
	prefix := strings.TrimSuffix(r.Prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// DefaultPublicRoutes are reachable without a session.
func DefaultPublicRoutes() []PublicRoute {
	return []PublicRoute{
		{Method: http.MethodPost, Prefix: "/api/auth/signup"},
		{Method: http.MethodPost, Prefix: "/api/auth/send-otp"},
		{Method: http.MethodPost, Prefix: "/api/auth/verify"},
		{Method: http.MethodPost, Prefix: "/api/auth/signin"},
		{Method: http.MethodPost, Prefix: "/api/auth/refresh"},
		{Method: http.MethodGet, Prefix: "/api/products"},
		{Method: http.MethodGet, Prefix: "/api/health"},
		{Method: http.MethodGet, Prefix: "/api/debug/vars"},
		{Method: http.MethodGet, Prefix: "/"},
		{Method: http.MethodGet, Prefix: "/Auth"},
	}
}

type SessionConfig struct {
	JWT        *helpers.JWTManager
	Cookies    *helpers.Manager
	Public     []PublicRoute
	SignInPath string
	Logger     *logrus.Logger
}

// Session authenticates every non-public request with the access token from the
// accessToken cookie or the Authorization header. API requests without a valid
// token get a 401 envelope; page requests are redirected to the sign-in page.
func Session(cfg SessionConfig) gin.HandlerFunc {
	signIn := cfg.SignInPath
	if signIn == "" {
		signIn = "/Auth"
	}
	return func(c *gin.Context) {
		method, path := c.Request.Method, c.Request.URL.Path
		if method == http.MethodOptions || isPublic(cfg.Public, method, path) {
			c.Next()
			return
		}

		token := accessToken(c)
		if token == "" {
			reject(c, signIn, "missing access token")
			return
		}
		claims, err := cfg.JWT.ParseAccessToken(token)
		if err != nil {
			if cfg.Logger != nil {
				helpers.RequestLogger(cfg.Logger, c).WithError(err).Debug("rejected access token")
			}
			if cfg.Cookies != nil {
				cfg.Cookies.Clear(c)
			}
			reject(c, signIn, "invalid access token")
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the identity set by Session, or "".
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func isPublic(routes []PublicRoute, method, path string) bool {
	for _, r := range routes {
		if r.Matches(method, path) {
			return true
		}
	}
	return false
}

func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(helpers.AccessCookie); err == nil && v != "" {
		return v
	}
	return helpers.StripBearer(c.GetHeader("Authorization"))
}

func reject(c *gin.Context, signIn, msg string) {
	path := c.Request.URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		response.Error[any](c, http.StatusUnauthorized, msg, nil)
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, signIn+"?mode=signin&from="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}
