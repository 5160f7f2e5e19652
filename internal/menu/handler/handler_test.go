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

	"gastro/internal/menu"
)

type fakeStore struct {
	items     []menu.Item
	synced    []menu.SyncItem
	deleteErr error
}

func (f *fakeStore) List(context.Context) ([]menu.Item, error) { return f.items, nil }

func (f *fakeStore) Sync(_ context.Context, items []menu.SyncItem) (int, int, error) {
	f.synced = items
	return len(items), 2, nil
}

func (f *fakeStore) Delete(context.Context, int64) error { return f.deleteErr }

func newServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), store).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListMenu(t *testing.T) {
	store := &fakeStore{items: []menu.Item{
		{ID: 1, Name: "Pierogi", Category: "Dania", Price: 24.5, IsActive: true},
	}}
	srv := newServer(t, store)

	resp := testutil.DoRequest(t, testutil.NewRequest(t, http.MethodGet, srv.URL+"/menu"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := testutil.UnmarshalResponse[[]menu.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "Pierogi", items[0].Name)
	assert.Equal(t, 24.5, items[0].Price)
}

func TestSyncMenu(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(t, store)

	one := int64(1)
	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/menu/sync",
		[]menu.SyncItem{{ID: &one, Name: "Zupa", Price: 12}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := testutil.UnmarshalResponse[map[string]any](t, resp)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(1), out["kept"])
	assert.Equal(t, float64(2), out["removed"])
	require.Len(t, store.synced, 1)
}

func TestSyncMenuRejectsObject(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp := testutil.DoRequest(t, testutil.NewJSONRequest(t, http.MethodPost, srv.URL+"/menu/sync",
		map[string]any{"Id": 1}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Expected a JSON array", testutil.UnmarshalErrorResponse(t, resp))
}

func TestDeleteMenuItemNotFound(t *testing.T) {
	srv := newServer(t, &fakeStore{deleteErr: sentinel.ErrNotFound})

	resp := testutil.DoRequest(t, testutil.NewRequest(t, http.MethodDelete, srv.URL+"/menu/9"))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Menu item not found", testutil.UnmarshalErrorResponse(t, resp))
}
