package httpx

import (
	"net/http"

	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

// AdminAuth checks the shared back-office token. No token configured means
// the check is disabled (local development).
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("X-Admin-Token")
			if got == "" {
				writeError(w, &shipping.AuthorizationError{Missing: true})
				return
			}
			if got != token {
				writeError(w, &shipping.AuthorizationError{})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor identifies the admin for the audit trail.
func actor(r *http.Request) string {
	if u := r.Header.Get("X-Admin-User"); u != "" {
		return u
	}
	return "admin"
}
