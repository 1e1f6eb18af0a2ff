package utils

import (
    "context"
    "errors"
    "net/http"
    "net/url"
    "os"
    "strconv"
    "strings"

    "github.com/golang-jwt/jwt/v4"
)

type contextKey string

const UserIDKey contextKey = "userID"

// LoginPath is where unauthenticated writers get redirected. The original
// request URI is preserved in the "next" query parameter.
const LoginPath = "/login"

// APIPrefix is the path every service is mounted under. Redirect targets
// are built against it.
const APIPrefix = "/api/v1"


func GetUserIDFromContext(ctx context.Context) (uint, error) {
    userID, ok := ctx.Value(UserIDKey).(uint)
    if !ok {
        return 0, errors.New("user ID not found in context")
    }
    return userID, nil
}

// userIDFromRequest parses the bearer token and returns the subject user ID,
// or 0 when the request carries no valid token.
func userIDFromRequest(r *http.Request) uint {
    authHeader := r.Header.Get("Authorization")
    if authHeader == "" {
        return 0
    }
    tokenString := strings.TrimPrefix(authHeader, "Bearer ")

    claims := &jwt.RegisteredClaims{}
    token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
        return []byte(os.Getenv("SECRET_KEY")), nil
    })
    if err != nil || !token.Valid {
        return 0
    }

    userID, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil {
        return 0
    }
    return uint(userID)
}

// CurrentUserID identifies the caller without forcing authentication.
// Read paths use it to personalize responses; 0 means anonymous.
func CurrentUserID(r *http.Request) uint {
    return userIDFromRequest(r)
}

// RequireLogin guards write paths. Anonymous or invalid-token callers are
// redirected to the login flow with the original URL as the return path;
// no downstream handler runs, so nothing is persisted.
func RequireLogin(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        userID := userIDFromRequest(r)
        if userID == 0 {
            RedirectToLogin(w, r)
            return
        }
        ctx := context.WithValue(r.Context(), UserIDKey, userID)
        next(w, r.WithContext(ctx))
    }
}

func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
    target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
    http.Redirect(w, r, target, http.StatusFound)
}
