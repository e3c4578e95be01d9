package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-storefront/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newGatedEngine(jwt *helpers.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(Session(SessionConfig{
		JWT:        jwt,
		Cookies:    helpers.NewCookie("", false, "/api/auth/refresh"),
		Public:     DefaultPublicRoutes(),
		SignInPath: "/Auth",
	}))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "user=%s", UserID(c)) }
	r.GET("/api/cart", ok)
	r.GET("/api/products/:id", ok)
	r.POST("/api/products/:id/reviews", ok)
	r.POST("/api/auth/signin", ok)
	r.GET("/account", ok)
	r.GET("/", ok)
	return r
}

func TestPublicRouteMatches(t *testing.T) {
	tests := []struct {
		route        PublicRoute
		method, path string
		want         bool
	}{
		{PublicRoute{Method: "GET", Prefix: "/api/products"}, "GET", "/api/products", true},
		{PublicRoute{Method: "GET", Prefix: "/api/products"}, "GET", "/api/products/abc", true},
		{PublicRoute{Method: "GET", Prefix: "/api/products"}, "POST", "/api/products/abc/reviews", false},
		{PublicRoute{Method: "GET", Prefix: "/api/products"}, "GET", "/api/productsx", false},
		{PublicRoute{Prefix: "/api/health"}, "HEAD", "/api/health", true},
		{PublicRoute{Method: "GET", Prefix: "/"}, "GET", "/", true},
		{PublicRoute{Method: "GET", Prefix: "/"}, "GET", "/account", false},
	}
	for _, tt := range tests {
		if got := tt.route.Matches(tt.method, tt.path); got != tt.want {
			t.Errorf("%+v.Matches(%s %s) = %v, want %v", tt.route, tt.method, tt.path, got, tt.want)
		}
	}
}

func TestSessionGate(t *testing.T) {
	jwt := helpers.NewJWTManager("gate-secret", time.Hour, 24*time.Hour)
	r := newGatedEngine(jwt)

	access, _, err := jwt.GenerateAccessToken("u-1")
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	refresh, _, err := jwt.GenerateRefreshToken("u-1")
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	expired, _, err := helpers.NewJWTManager("gate-secret", -time.Minute, time.Hour).GenerateAccessToken("u-1")
	if err != nil {
		t.Fatalf("expired token: %v", err)
	}

	tests := []struct {
		name         string
		method, path string
		cookie       string
		header       string
		wantStatus   int
		wantBody     string
		wantLocation string
		wantCleared  bool
	}{
		{name: "public product read", method: "GET", path: "/api/products/p1", wantStatus: 200, wantBody: "user="},
		{name: "public signin", method: "POST", path: "/api/auth/signin", wantStatus: 200},
		{name: "public root page", method: "GET", path: "/", wantStatus: 200},
		{name: "review needs auth", method: "POST", path: "/api/products/p1/reviews", wantStatus: 401},
		{name: "api without token", method: "GET", path: "/api/cart", wantStatus: 401},
		{name: "page without token", method: "GET", path: "/account", wantStatus: 302, wantLocation: "/Auth?mode=signin&from=%2Faccount"},
		{name: "page keeps query in from", method: "GET", path: "/account?tab=orders&page=2", wantStatus: 302,
			wantLocation: "/Auth?mode=signin&from=%2Faccount%3Ftab%3Dorders%26page%3D2"},
		{name: "cookie token", method: "GET", path: "/api/cart", cookie: access, wantStatus: 200, wantBody: "user=u-1"},
		{name: "bearer token", method: "GET", path: "/api/cart", header: "Bearer " + access, wantStatus: 200, wantBody: "user=u-1"},
		{name: "lowercase bearer", method: "GET", path: "/api/cart", header: "bearer " + access, wantStatus: 200, wantBody: "user=u-1"},
		{name: "refresh token rejected", method: "GET", path: "/api/cart", header: "Bearer " + refresh, wantStatus: 401, wantCleared: true},
		{name: "expired token", method: "GET", path: "/api/cart", cookie: expired, wantStatus: 401, wantCleared: true},
		{name: "garbage token on page", method: "GET", path: "/account", cookie: "garbage", wantStatus: 302, wantCleared: true,
			wantLocation: "/Auth?mode=signin&from=%2Faccount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Fatalf("location = %q, want %q", w.Header().Get("Location"), tt.wantLocation)
			}
			accessCleared, refreshCleared := false, false
			for _, sc := range w.Header().Values("Set-Cookie") {
				if !strings.Contains(sc, "Max-Age=0") {
					continue
				}
				switch {
				case strings.HasPrefix(sc, helpers.AccessCookie+"=;") && strings.Contains(sc, "Path=/;"):
					accessCleared = true
				case strings.HasPrefix(sc, helpers.RefreshCookie+"=;") && strings.Contains(sc, "Path=/api/auth/refresh;"):
					refreshCleared = true
				}
			}
			if accessCleared != refreshCleared {
				t.Fatalf("access cleared = %v, refresh cleared = %v (%v)", accessCleared, refreshCleared, w.Header().Values("Set-Cookie"))
			}
			if cleared := accessCleared && refreshCleared; cleared != tt.wantCleared {
				t.Fatalf("cookies cleared = %v, want %v (%v)", cleared, tt.wantCleared, w.Header().Values("Set-Cookie"))
			}
		})
	}
}

func TestSessionAPIErrorEnvelope(t *testing.T) {
	r := newGatedEngine(helpers.NewJWTManager("gate-secret", time.Hour, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/cart", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"success":false`) || !strings.Contains(body, `"status":401`) {
		t.Fatalf("body = %s", body)
	}
}
