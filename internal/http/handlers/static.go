package handlers

import (
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// StaticFile serves stored assets. Keys under the shared public prefix are
// open; every other key sits in a user prefix and must present a valid
// signature and expiry, the same pair SignedURL issues. Without the check a
// key guess would bypass the ownership split the claim flow establishes.
func (a *App) StaticFile(baseDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
		if key == "" || key == "." || strings.HasPrefix(key, "..") {
			a.error(w, http.StatusNotFound, "not_found", "no such asset")
			return
		}

		if !strings.HasPrefix(key, "public/") {
			expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
			if err != nil {
				a.error(w, http.StatusForbidden, "forbidden", "signed url required")
				return
			}
			if err := a.URLs.VerifySignature(key, r.URL.Query().Get("sig"), expires); err != nil {
				a.error(w, http.StatusForbidden, "forbidden", "signed url invalid or expired")
				return
			}
		}

		http.ServeFile(w, r, filepath.Join(baseDir, filepath.FromSlash(key)))
	}
}
