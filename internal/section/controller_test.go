package section

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aethra/misight/internal/backend"
	"github.com/aethra/misight/internal/cache"
	"github.com/aethra/misight/internal/config"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/models"
	"github.com/aethra/misight/internal/reference"
	"github.com/aethra/misight/internal/schema"
	"github.com/aethra/misight/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Body   map[string]any
}

// stubBackend serves an in-memory resource store and records every request
type stubBackend struct {
	mu     sync.Mutex
	calls  []call
	data   map[string][]map[string]any
	failOn map[string]int
}

func newStubBackend() *stubBackend {
	return &stubBackend{data: map[string][]map[string]any{}, failOn: map[string]int{}}
}

func (s *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := call{Method: r.Method, Path: r.URL.Path}
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &c.Body)
	}
	s.calls = append(s.calls, c)

	if status, ok := s.failOn[r.Method+" "+r.URL.Path]; ok {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"message":"backend refused"}`)
		return
	}

	resource, id := splitPath(r.URL.Path)
	switch {
	case r.Method == http.MethodGet && id == "":
		_ = json.NewEncoder(w).Encode(s.data[resource])
	case r.Method == http.MethodPost:
		c.Body["id"] = len(s.data[resource]) + 100
		s.data[resource] = append(s.data[resource], c.Body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c.Body)
	case r.Method == http.MethodPut:
		for i, rec := range s.data[resource] {
			if jsonID(rec) == id {
				c.Body["id"] = rec["id"]
				s.data[resource][i] = c.Body
			}
		}
		_ = json.NewEncoder(w).Encode(c.Body)
	case r.Method == http.MethodDelete:
		kept := s.data[resource][:0]
		for _, rec := range s.data[resource] {
			if jsonID(rec) != id {
				kept = append(kept, rec)
			}
		}
		s.data[resource] = kept
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (s *stubBackend) Calls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func (s *stubBackend) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func splitPath(p string) (string, string) {
	p = p[len("/api/"):]
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			return p[:i], p[i+1:]
		}
	}
	return p, ""
}

func jsonID(rec map[string]any) string {
	return schema.Display(rec["id"])
}

func newTestRegistry(t *testing.T, sb *stubBackend) *Registry {
	t.Helper()
	srv := httptest.NewServer(sb)
	t.Cleanup(srv.Close)

	metrics := backend.NewMetrics(prometheus.NewRegistry())
	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger.Nop(), metrics)
	store, err := cache.New(nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	catalog, err := reference.Default()
	require.NoError(t, err)
	reg, err := NewRegistry(Definitions(catalog), backend.NewCollections(client, store, time.Minute, metrics), logger.Nop())
	require.NoError(t, err)
	return reg
}

func TestController_IronMetalDeleteScenario(t *testing.T) {
	sb := newStubBackend()
	sb.data["minerals"] = []map[string]any{{"id": 1, "name": "Iron", "type": "METAL"}}
	reg := newTestRegistry(t, sb)
	minerals, ok := reg.Get("minerals")
	require.True(t, ok)
	ctx := context.Background()

	view := minerals.Load(ctx)
	require.NoError(t, view.Err)

	r, err := ui.NewRenderer()
	require.NoError(t, err)
	tbl := ui.BuildTable(view.Collection, view.Columns, nil)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Iron", tbl.Rows[0].Cells[0])
	assert.Equal(t, "METAL", tbl.Rows[0].Cells[1])
	_, err = r.Table(view.Collection, view.Columns, nil)
	require.NoError(t, err)

	sb.Reset()
	require.NoError(t, minerals.Delete(ctx, "1", true))

	calls := sb.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, call{Method: "DELETE", Path: "/api/minerals/1"}, calls[0])
	assert.Equal(t, call{Method: "GET", Path: "/api/minerals"}, calls[1])

	after := minerals.Load(ctx)
	require.NoError(t, after.Err)
	assert.Empty(t, after.Collection)
	assert.Len(t, sb.Calls(), 2, "reload after delete should be served from cache")
}

func TestController_DeleteWithoutConfirmationNeverCallsBackend(t *testing.T) {
	sb := newStubBackend()
	sb.data["minerals"] = []map[string]any{{"id": 1, "name": "Iron", "type": "METAL"}}
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")

	err := minerals.Delete(context.Background(), "1", false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, sb.Calls())
}

func TestController_LoadFetchesLookupsAndJoins(t *testing.T) {
	sb := newStubBackend()
	sb.data["provinces"] = []map[string]any{{"id": 1, "name": "Katanga"}}
	sb.data["minerals"] = []map[string]any{{"id": 1, "name": "Iron"}, {"id": 2, "name": "Copper"}}
	sb.data["mines"] = []map[string]any{{"id": 5, "name": "Kamoto", "provinceId": 1, "mineralIds": []int{1, 2}, "status": "ACTIVE"}}
	reg := newTestRegistry(t, sb)
	mines, _ := reg.Get("mines")

	view := mines.Load(context.Background())
	require.NoError(t, view.Err)
	assert.Empty(t, view.LookupErrs)

	tbl := ui.BuildTable(view.Collection, view.Columns, nil)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"Kamoto", "Katanga", "Iron, Copper", "Active", "", ""}, tbl.Rows[0].Cells)

	var province schema.Select
	for _, f := range view.Fields {
		if f.Attributes().Name == "provinceId" {
			province = f.(schema.Select)
		}
	}
	assert.Equal(t, []schema.Option{{Value: "1", Label: "Katanga"}}, province.Options)
}

func TestController_FailedFetchShowsErrorAndEmptyTable(t *testing.T) {
	sb := newStubBackend()
	sb.failOn["GET /api/pollutants"] = http.StatusServiceUnavailable
	reg := newTestRegistry(t, sb)
	pollutants, _ := reg.Get("pollutants")

	view := pollutants.Load(context.Background())
	require.Error(t, view.Err)
	assert.NotNil(t, view.Collection)
	assert.Empty(t, view.Collection)
	assert.Equal(t, "backend refused", apperrors.UserMessage(view.Err))
}

func TestController_LookupFailureKeepsCollection(t *testing.T) {
	sb := newStubBackend()
	sb.data["mines"] = []map[string]any{{"id": 5, "name": "Kamoto", "provinceId": 1}}
	sb.data["minerals"] = []map[string]any{}
	sb.failOn["GET /api/provinces"] = http.StatusForbidden
	reg := newTestRegistry(t, sb)
	mines, _ := reg.Get("mines")

	view := mines.Load(context.Background())
	require.NoError(t, view.Err)
	assert.Contains(t, view.LookupErrs, "provinces")
	tbl := ui.BuildTable(view.Collection, view.Columns, nil)
	assert.Equal(t, "1", tbl.Rows[0].Cells[1])
}

func TestController_AddAndEditRefetch(t *testing.T) {
	sb := newStubBackend()
	sb.data["minerals"] = []map[string]any{}
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")
	ctx := context.Background()

	require.NoError(t, minerals.Add(ctx, schema.Values{"name": "Gold", "type": "PRECIOUS_METAL", "description": ""}))
	view := minerals.Load(ctx)
	require.Len(t, view.Collection, 1)
	assert.Equal(t, "Gold", view.Collection[0]["name"])

	id, _ := view.Collection[0].ID()
	require.NoError(t, minerals.Edit(ctx, id, schema.Values{"name": "Gold ore", "type": "PRECIOUS_METAL", "description": ""}))
	view = minerals.Load(ctx)
	assert.Equal(t, "Gold ore", view.Collection[0]["name"])

	methods := []string{}
	for _, c := range sb.Calls() {
		methods = append(methods, c.Method)
	}
	assert.Equal(t, []string{"POST", "GET", "PUT", "GET"}, methods)
}

func TestController_MutationErrorIsReturnedOnce(t *testing.T) {
	sb := newStubBackend()
	sb.failOn["POST /api/minerals"] = http.StatusConflict
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")

	err := minerals.Add(context.Background(), schema.Values{"name": "Iron", "type": "METAL", "description": ""})
	var up *apperrors.UpstreamError
	require.True(t, stderrors.As(err, &up))
	assert.Equal(t, http.StatusConflict, up.HTTPStatus())
	assert.Len(t, sb.Calls(), 1, "no retry and no refetch after a failed mutation")
}

func TestController_LoadRangeRequiresDateField(t *testing.T) {
	sb := newStubBackend()
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")

	view := minerals.LoadRange(context.Background(), "2024-01-01", "2024-01-31")
	require.Error(t, view.Err)
	assert.Empty(t, sb.Calls())
}

func TestRegistry_PolicyFollowsDefinitions(t *testing.T) {
	reg := newTestRegistry(t, newStubBackend())
	policy := reg.Policy()

	assert.True(t, policy.GetUserPermission(models.RoleAdmin, "users").CanDelete)
	assert.False(t, policy.GetUserPermission(models.RoleMineAdmin, "users").CanView)
	assert.True(t, policy.GetUserPermission(models.RoleMineAdmin, "mines").CanEdit)
	assert.True(t, policy.GetUserPermission(models.RoleUser, "minerals").CanView)
	assert.False(t, policy.GetUserPermission(models.RoleUser, "minerals").CanEdit)
	assert.False(t, policy.GetUserPermission(models.RoleUser, "minerals").CanDelete)
	assert.True(t, policy.GetUserPermission(models.RoleUser, "environmental").CanExport)
	assert.False(t, policy.GetUserPermission(models.RoleUser, "safety").CanView)

	var keys []string
	for _, c := range reg.Visible(models.RoleUser) {
		keys = append(keys, c.Definition().Key)
	}
	assert.Equal(t, []string{"minerals", "mines", "environmental"}, keys)
}

func TestController_FindMissingRecordIsNotFound(t *testing.T) {
	sb := newStubBackend()
	sb.data["minerals"] = []map[string]any{}
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")

	_, err := minerals.Find(context.Background(), nil, "9")
	var nf *apperrors.NotFoundError
	require.True(t, stderrors.As(err, &nf))
	assert.Equal(t, "mineral not found", nf.Message)
	assert.Equal(t, []call{{Method: "GET", Path: "/api/minerals/9"}}, sb.Calls())
}

func TestController_FindPrefersLoadedCollection(t *testing.T) {
	sb := newStubBackend()
	sb.data["minerals"] = []map[string]any{{"id": 1, "name": "Iron", "type": "METAL"}}
	reg := newTestRegistry(t, sb)
	minerals, _ := reg.Get("minerals")
	ctx := context.Background()

	view := minerals.Load(ctx)
	sb.Reset()
	rec, err := minerals.Find(ctx, view, "1")
	require.NoError(t, err)
	assert.Equal(t, "Iron", rec["name"])
	assert.Empty(t, sb.Calls())
}

func TestRegistry_RejectsDuplicateFieldNames(t *testing.T) {
	def := Definition{
		Key: "twice",
		Fields: func(Lookups) []schema.Field {
			return []schema.Field{
				schema.Text{Attrs: schema.Attrs{Name: "name"}},
				schema.Text{Attrs: schema.Attrs{Name: "name"}},
			}
		},
		Columns: func(Lookups) []schema.Column { return nil },
	}

	_, err := NewRegistry([]Definition{def}, nil, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `declares field "name" twice`)
}
