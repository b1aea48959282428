package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-supplied" {
		t.Fatalf("response request id = %q, want the caller's", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	rid := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("generated request id %q is not a uuid: %v", rid, err)
	}
}

func TestIdentityHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString("user")
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(IdentityHeader, "  tanaka  ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "tanaka" {
		t.Fatalf("user = %q, want trimmed header value", seen)
	}
}
