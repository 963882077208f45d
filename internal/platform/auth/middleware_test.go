package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	cfg := JWTConfig{Secret: "test-secret", Issuer: "hms"}

	token, err := IssueToken(cfg, "dr.mehta", []string{"doctor"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e := echo.New()
	var gotSubject string
	var gotRoles []string
	handler := JWTMiddleware(cfg)(func(c echo.Context) error {
		ctx := c.Request().Context()
		gotSubject = UserIDFromContext(ctx)
		gotRoles = RolesFromContext(ctx)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if gotSubject != "dr.mehta" {
		t.Fatalf("subject = %q, want dr.mehta", gotSubject)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "doctor" {
		t.Fatalf("roles = %v, want [doctor]", gotRoles)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	cfg := JWTConfig{Secret: "test-secret", Issuer: "hms"}
	handler := JWTMiddleware(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	serve := func(authz string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := serve(""); err == nil {
		t.Fatal("missing header accepted")
	}

	// Token signed with a different secret.
	other, err := IssueToken(JWTConfig{Secret: "wrong-secret", Issuer: "hms"},
		"dr.mehta", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	err = serve("Bearer " + other)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}
