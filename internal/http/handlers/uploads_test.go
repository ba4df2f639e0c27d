package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

func TestUploadsCreateAnonymousIssuesNonce(t *testing.T) {
	t.Parallel()
	fake := newFakeSQL()
	registerInsertReturningTime(fake, sqlinline.QInsertUploadClaim, 1)
	app := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewReader([]byte("jpeg-bytes")))
	rec := httptest.NewRecorder()
	app.UploadsCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Nonce == "" {
		t.Fatal("anonymous upload must receive a nonce")
	}
	if !strings.HasPrefix(resp.StorageKey, "public/uploads/") {
		t.Fatalf("storage_key = %q, want public prefix", resp.StorageKey)
	}
}

func TestUploadsCreateAuthenticatedOmitsNonce(t *testing.T) {
	t.Parallel()
	fake := newFakeSQL()
	registerInsertReturningTime(fake, sqlinline.QInsertUploadClaim, 1)
	app := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewReader([]byte("jpeg-bytes")))
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	app.UploadsCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Nonce != "" {
		t.Fatal("authenticated upload must not expose a nonce")
	}
	if !strings.HasPrefix(resp.StorageKey, "users/u1/uploads/") {
		t.Fatalf("storage_key = %q, want user prefix", resp.StorageKey)
	}
}

func TestUploadsCreateCountsRequestByCountry(t *testing.T) {
	t.Parallel()
	fake := newFakeSQL()
	registerInsertReturningTime(fake, sqlinline.QInsertUploadClaim, 1)
	var gotCountry any
	fake.execs[sqlinline.QUpsertCountryRequests] = func(args []any) (pgconn.CommandTag, error) {
		gotCountry = args[1]
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	app := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewReader([]byte("jpeg-bytes")))
	req = req.WithContext(context.WithValue(req.Context(), middleware.CountryKey, "ES"))
	rec := httptest.NewRecorder()
	app.UploadsCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if gotCountry != "ES" {
		t.Fatalf("country counter wrote %v, want ES", gotCountry)
	}
}

func TestUploadsCreateRejectsOversizedBody(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, newFakeSQL())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewReader(make([]byte, maxUploadBytes+1)))
	rec := httptest.NewRecorder()
	app.UploadsCreate(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestUploadsCreateRejectsEmptyBody(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, newFakeSQL())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	app.UploadsCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadsClaimRequiresAuth(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, newFakeSQL())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/claim", strings.NewReader(`{"nonce":"n1"}`))
	rec := httptest.NewRecorder()
	app.UploadsClaim(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUploadsClaimConflictOnUsedNonce(t *testing.T) {
	t.Parallel()
	fake := newFakeSQL()
	claimedAt := time.Now().UTC()
	fake.rows[sqlinline.QGetUploadByNonce] = func(args []any) simpleRow {
		return simpleRow{scan: func(dest ...any) error {
			*(dest[0].(*string)) = "up-1"
			*(dest[1].(*string)) = "users/u1/uploads/a.jpg"
			owner := "u1"
			*(dest[2].(**string)) = &owner
			*(dest[3].(**time.Time)) = &claimedAt
			*(dest[4].(*time.Time)) = claimedAt
			return nil
		}}
	}
	app := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/claim", strings.NewReader(`{"nonce":"n1"}`))
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u2"))
	rec := httptest.NewRecorder()
	app.UploadsClaim(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestUploadsClaimUnknownNonceConflicts(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, newFakeSQL())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/claim", strings.NewReader(`{"nonce":"no-such"}`))
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	app.UploadsClaim(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
