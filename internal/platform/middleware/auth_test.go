package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims *Claims
	err    error
}

func (f *fakeVerifier) VerifyToken(string) (*Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protected(v TokenVerifier) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(v, discardLogger())(next)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	handler := protected(&fakeVerifier{claims: &Claims{SubjectID: 1}})

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Missing Bearer token"}`, rec.Body.String())
}

func TestRequireAuthNotBearerScheme(t *testing.T) {
	handler := protected(&fakeVerifier{claims: &Claims{SubjectID: 1}})

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("Authorization", "Basic deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	handler := protected(&fakeVerifier{err: errors.New("bad signature")})

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, rec.Body.String())
}

func TestRequireAuthPutsClaimsInContext(t *testing.T) {
	verifier := &fakeVerifier{claims: &Claims{SubjectID: 42, Login: "anna"}}
	var gotID int64
	var gotLogin string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetSubjectID(r.Context())
		gotLogin = GetLogin(r.Context())
	})
	handler := RequireAuth(verifier, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotID)
	assert.Equal(t, "anna", gotLogin)
}

func TestRequireAuthLetsPreflightThrough(t *testing.T) {
	handler := protected(&fakeVerifier{err: errors.New("should not be called")})

	req := httptest.NewRequest(http.MethodOptions, "/menu", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
