package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestRegistry() *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	reg := NewRegistry(e)
	reg.Use(func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	})
	reg.Add(pingModule{})
	reg.RegisterAll()
	return e
}

func serve(e *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRegistryMountsModulesUnderAPI(t *testing.T) {
	e := newTestRegistry()
	w := serve(e, http.MethodGet, "/api/ping")
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Api") != "1" {
		t.Fatal("api middleware did not run")
	}
}

func TestRegistryUnknownRoutes(t *testing.T) {
	e := newTestRegistry()

	w := serve(e, http.MethodGet, "/api/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("api 404 should be json: %v", err)
	}
	if body["message"] != "route not found" || body["success"] != false {
		t.Fatalf("body = %v", body)
	}

	if w := serve(e, http.MethodPost, "/api/ping"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method status = %d", w.Code)
	}
	if w := serve(e, http.MethodGet, "/somewhere"); w.Code != http.StatusNotFound || w.Body.String() != "404 page not found" {
		t.Fatalf("page 404 = %d %q", w.Code, w.Body.String())
	}
}
