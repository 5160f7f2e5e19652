package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier defines the interface for validating bearer tokens.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*Claims, error)
}

// Claims represents the principal we expect from the token verifier.
type Claims struct {
	SubjectID int64
	Login     string
}

// Context keys for storing the authenticated principal.
type contextKeySubjectID struct{}
type contextKeyLogin struct{}

var (
	ContextKeySubjectID = contextKeySubjectID{}
	ContextKeyLogin     = contextKeyLogin{}
)

// GetSubjectID retrieves the authenticated staff ID from the context.
func GetSubjectID(ctx context.Context) int64 {
	id, ok := ctx.Value(ContextKeySubjectID).(int64)
	if !ok {
		return 0
	}
	return id
}

// GetLogin retrieves the authenticated login from the context.
func GetLogin(ctx context.Context) string {
	login, ok := ctx.Value(ContextKeyLogin).(string)
	if !ok {
		return ""
	}
	return login
}

// RequireAuth enforces `Authorization: Bearer <token>` on every request it
// wraps. CORS preflight requests pass through; the login endpoint is mounted
// outside this middleware. Failures are always a JSON `{error}` body with 401.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			tokenString, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || tokenString == "" {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeAuthError(w, "Missing Bearer token")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeAuthError(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeySubjectID, claims.SubjectID)
			ctx = context.WithValue(ctx, ContextKeyLogin, claims.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
