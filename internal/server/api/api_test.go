package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/segment"
	"github.com/ayusman/depthportrait/internal/store"
)

// fakeRuntime applies updates immediately and records snapshots in a store.
type fakeRuntime struct {
	mu       sync.Mutex
	settings control.Settings
	events   []control.Event
	people   []blob.Blob
	store    *store.Store
}

func newFakeRuntime(s *store.Store) *fakeRuntime {
	return &fakeRuntime{settings: control.Default(), store: s}
}

func (f *fakeRuntime) Settings() control.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeRuntime) UpdateSettings(s control.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
}

func (f *fakeRuntime) Apply(e control.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeRuntime) People() []blob.Blob { return f.people }

func (f *fakeRuntime) FrameCount() uint64 { return 7 }

func (f *fakeRuntime) SaveSnapshot() (*store.Snapshot, error) {
	snap := &store.Snapshot{Path: "snap.png", People: []store.SnapshotPerson{{Area: 12000}}}
	return snap, f.store.Snapshots().Create(snap)
}

func (f *fakeRuntime) DeleteSnapshot(id string) error {
	return f.store.Snapshots().Delete(id)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSettingsHandler_Get(t *testing.T) {
	h := NewSettingsHandler(newFakeRuntime(nil))

	rec := do(t, h, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got control.Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, control.Default(), got)
}

func TestSettingsHandler_Put(t *testing.T) {
	rt := newFakeRuntime(nil)
	h := NewSettingsHandler(rt)

	rec := do(t, h, http.MethodPut, "/api/settings", `{"near_threshold": 300, "near_polarity": "normal", "show_depth": true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	want := control.Default()
	want.NearThreshold = control.MaxThreshold
	want.NearPolarity = segment.Normal
	want.ShowDepth = true
	assert.Equal(t, want, rt.Settings(), "partial update, clamped")

	var got control.Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, want, got)
}

func TestSettingsHandler_PutInvalid(t *testing.T) {
	rt := newFakeRuntime(nil)
	h := NewSettingsHandler(rt)

	for _, body := range []string{`not json`, `{"far_polarity": "sideways"}`} {
		rec := do(t, h, http.MethodPut, "/api/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, control.Default(), rt.Settings())
}

func TestSettingsHandler_Events(t *testing.T) {
	rt := newFakeRuntime(nil)
	h := NewSettingsHandler(rt)

	rec := do(t, h, http.MethodPost, "/api/settings/events", `{"event": "near_up"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"event": "near_up", "queued": true}`, rec.Body.String(),
		"no settings are reported before the event is applied")
	assert.Equal(t, control.Default(), rt.Settings())
	assert.Equal(t, []control.Event{control.NearUp}, rt.events)

	rec = do(t, h, http.MethodPost, "/api/settings/events", `{"event": "jump"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/settings/events", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/settings/other", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	h := NewSettingsHandler(newFakeRuntime(nil))

	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPatch} {
		rec := do(t, h, method, "/api/settings", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestPeopleHandler(t *testing.T) {
	rt := newFakeRuntime(nil)
	rt.people = []blob.Blob{blob.SquareBlob(200, 120, 120), blob.SquareBlob(0, 0, 110)}
	h := NewPeopleHandler(rt)

	rec := do(t, h, http.MethodGet, "/api/people", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got PeopleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, uint64(7), got.Frame)
	require.Len(t, got.People, 2)
	assert.Equal(t, PersonResponse{
		Area: 14400, CentroidX: 259.5, CentroidY: 179.5,
		X: 200, Y: 120, Width: 120, Height: 120,
	}, got.People[0])
	assert.Equal(t, 12100, got.People[1].Area)

	rec = do(t, h, http.MethodPost, "/api/people", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPeopleHandler_Empty(t *testing.T) {
	h := NewPeopleHandler(newFakeRuntime(nil))

	rec := do(t, h, http.MethodGet, "/api/people", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"frame": 7, "people": []}`, rec.Body.String())
}

func TestSnapshotsHandler_Workflow(t *testing.T) {
	s := newTestStore(t)
	h := NewSnapshotsHandler(s, newFakeRuntime(s))

	rec := do(t, h, http.MethodGet, "/api/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"snapshots": []}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/snapshots", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created store.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	rec = do(t, h, http.MethodGet, "/api/snapshots/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []store.SnapshotPerson{{Area: 12000}}, got.People)

	rec = do(t, h, http.MethodGet, "/api/snapshots", "")
	var list struct {
		Snapshots []store.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Snapshots, 1)

	rec = do(t, h, http.MethodDelete, "/api/snapshots/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/snapshots/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/snapshots/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotsHandler_NoTaker(t *testing.T) {
	h := NewSnapshotsHandler(newTestStore(t), nil)

	rec := do(t, h, http.MethodPost, "/api/snapshots", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/snapshots/abc", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
