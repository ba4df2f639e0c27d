package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSignAndVerifyToken(t *testing.T) {
	t.Parallel()
	token, err := SignToken(testSecret, TokenClaims{
		Sub:    "u1",
		Locale: "es",
		Exp:    time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}

	claims, err := VerifyToken(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if claims.Sub != "u1" || claims.Locale != "es" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	t.Parallel()
	token, _ := SignToken(testSecret, TokenClaims{Sub: "u1"})

	if _, err := VerifyToken("other-secret", token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
	if _, err := VerifyToken(testSecret, token+"x"); err == nil {
		t.Fatal("modified token must be rejected")
	}
	if _, err := VerifyToken(testSecret, "not.a.token.at.all"); err == nil {
		t.Fatal("malformed token must be rejected")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	token, _ := SignToken(testSecret, TokenClaims{
		Sub: "u1",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if _, err := VerifyToken(testSecret, token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	t.Parallel()
	var sawUser string
	handler := OptionalAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, anonymous requests must pass", rec.Code)
	}
	if sawUser != "" {
		t.Fatalf("user id = %q, want empty for anonymous", sawUser)
	}
}

func TestOptionalAuthExtractsUser(t *testing.T) {
	t.Parallel()
	token, _ := SignToken(testSecret, TokenClaims{Sub: "u1", Locale: "es"})
	var sawUser, sawLocale string
	handler := OptionalAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser = UserIDFromContext(r.Context())
		sawLocale = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if sawUser != "u1" {
		t.Fatalf("user id = %q, want u1", sawUser)
	}
	if sawLocale != "es" {
		t.Fatalf("locale = %q, want es from token claims", sawLocale)
	}
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	t.Parallel()
	handler := OptionalAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
}
