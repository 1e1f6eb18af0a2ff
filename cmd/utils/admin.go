package utils

import (
    "net/http"
    "os"
)

// RequireAdmin guards operational endpoints with the ADMIN_TOKEN secret.
// Fails closed when the token is unset.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        required := os.Getenv("ADMIN_TOKEN")
        if required == "" {
            http.Error(w, "Admin access not configured", http.StatusForbidden)
            return
        }
        if r.Header.Get("X-Admin-Token") != required {
            http.Error(w, "Forbidden", http.StatusForbidden)
            return
        }
        next(w, r)
    }
}
