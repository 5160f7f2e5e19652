package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/testutil"

	"gastro/internal/auth"
	"gastro/internal/platform/metrics"
)

type fakeService struct {
	result *auth.Result
	err    error
}

func (f *fakeService) Login(context.Context, string, string) (*auth.Result, error) {
	return f.result, f.err
}

func newServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	New(logger, svc, metrics.New(prometheus.NewRegistry())).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginSuccess(t *testing.T) {
	svc := &fakeService{result: &auth.Result{
		StaffID: 9, Login: "anna", FirstName: "Anna", LastName: "Nowak",
		PasswordHash: "abc", Token: "tok",
	}}
	srv := newServer(t, svc)

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/login",
		map[string]string{"login": "anna", "password": "secret"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := testutil.UnmarshalResponse[map[string]any](t, resp)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, float64(9), out["id"])
	assert.Equal(t, "Anna", out["imie"])
	assert.Equal(t, "Nowak", out["nazwisko"])
	assert.Equal(t, "abc", out["hash"])
	assert.Equal(t, "tok", out["token"])
}

func TestLoginMissingFields(t *testing.T) {
	srv := newServer(t, &fakeService{})

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/login",
		map[string]string{"login": "anna"}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing login or password", testutil.UnmarshalErrorResponse(t, resp))
}

func TestLoginUnknownLogin(t *testing.T) {
	srv := newServer(t, &fakeService{err: dErrors.New(dErrors.CodeNotFound, "Unknown login")})

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/login",
		map[string]string{"login": "ghost", "password": "x"}))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Unknown login", testutil.UnmarshalErrorResponse(t, resp))
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newServer(t, &fakeService{err: dErrors.New(dErrors.CodeForbidden, "Invalid password")})

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/login",
		map[string]string{"login": "anna", "password": "bad"}))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid password", testutil.UnmarshalErrorResponse(t, resp))
}
