package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastro/pkg/platform/sentinel"
	"gastro/pkg/testutil"

	"gastro/internal/table"
)

type fakeStore struct {
	views      []table.View
	synced     []table.SyncItem
	seats      int
	seatsID    int64
	updateErr  error
	syncResult int
}

func (f *fakeStore) List(context.Context) ([]table.View, error) { return f.views, nil }

func (f *fakeStore) Sync(_ context.Context, items []table.SyncItem) (int, error) {
	f.synced = items
	return f.syncResult, nil
}

func (f *fakeStore) UpdateSeats(_ context.Context, id int64, seats int) error {
	f.seatsID = id
	f.seats = seats
	return f.updateErr
}

func newServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), store).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListTables(t *testing.T) {
	store := &fakeStore{views: []table.View{
		{ID: 1, Name: "Stolik 1", Width: 80, Height: 160, Seats: 4, Status: "wolny"},
	}}
	srv := newServer(t, store)

	resp := testutil.DoRequest(t, testutil.NewRequest(t, http.MethodGet, srv.URL+"/tables"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	views := testutil.UnmarshalResponse[[]table.View](t, resp)
	require.Len(t, views, 1)
	assert.Equal(t, 80, views[0].Width)
	assert.Equal(t, "wolny", views[0].Status)
}

func TestSyncTables(t *testing.T) {
	store := &fakeStore{syncResult: 3}
	srv := newServer(t, store)

	one := int64(1)
	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/tables/sync",
		[]table.SyncItem{{ID: &one, Name: "S1", X: 10, Y: 20}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := testutil.UnmarshalResponse[map[string]any](t, resp)
	assert.Equal(t, float64(3), out["applied"])
	require.Len(t, store.synced, 1)
}

func TestUpdateSeats(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(t, store)

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPatch, srv.URL+"/tables/4",
		map[string]int{"Ile_osob": 6}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(4), store.seatsID)
	assert.Equal(t, 6, store.seats)
}

func TestUpdateSeatsValidation(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing", map[string]any{}, "Missing Ile_osob"},
		{"zero", map[string]any{"Ile_osob": 0}, "Ile_osob must be between 1 and 50"},
		{"too many", map[string]any{"Ile_osob": 51}, "Ile_osob must be between 1 and 50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPatch, srv.URL+"/tables/1", tc.body))
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.want, testutil.UnmarshalErrorResponse(t, resp))
		})
	}
}

func TestUpdateSeatsNotFound(t *testing.T) {
	srv := newServer(t, &fakeStore{updateErr: sentinel.ErrNotFound})

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPatch, srv.URL+"/tables/99",
		map[string]int{"Ile_osob": 2}))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
