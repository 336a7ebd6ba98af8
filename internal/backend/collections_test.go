package backend

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aethra/misight/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollections(t *testing.T, fb *fakeBackend) *Collections {
	t.Helper()
	c, metrics := newTestClient(t, fb, "")
	store, err := cache.New(nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return NewCollections(c, store, time.Minute, metrics)
}

func TestCollections_ServesFromCacheUntilInvalidated(t *testing.T) {
	var version atomic.Int32
	version.Store(1)
	fb := &fakeBackend{routes: map[string]func(http.ResponseWriter){
		"GET /api/minerals": func(w http.ResponseWriter) {
			if version.Load() == 1 {
				jsonReply(200, `[{"id":1,"name":"Iron"}]`)(w)
				return
			}
			jsonReply(200, `[{"id":1,"name":"Iron"},{"id":2,"name":"Copper"}]`)(w)
		},
	}}
	cols := newTestCollections(t, fb)
	ctx := context.Background()

	first, err := cols.Load(ctx, "minerals")
	require.NoError(t, err)
	assert.Len(t, first, 1)

	again, err := cols.Load(ctx, "minerals")
	require.NoError(t, err)
	assert.Len(t, again, 1)
	assert.Len(t, fb.Calls(), 1, "second load should be a cache hit")

	version.Store(2)
	fresh, err := cols.Reload(ctx, "minerals")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Len(t, fb.Calls(), 2)
}

func TestCollections_ErrorsAreNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	fb := &fakeBackend{routes: map[string]func(http.ResponseWriter){
		"GET /api/pollutants": func(w http.ResponseWriter) {
			if fail.Load() {
				jsonReply(503, `{"message":"maintenance"}`)(w)
				return
			}
			jsonReply(200, `[{"id":4}]`)(w)
		},
	}}
	cols := newTestCollections(t, fb)

	_, err := cols.Load(context.Background(), "pollutants")
	require.Error(t, err)

	fail.Store(false)
	got, err := cols.Load(context.Background(), "pollutants")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCollections_WaiterRefetchesWhenLeaderTimesOut(t *testing.T) {
	var n atomic.Int32
	fb := &fakeBackend{routes: map[string]func(http.ResponseWriter){
		"GET /api/mines": func(w http.ResponseWriter) {
			if n.Add(1) == 1 {
				time.Sleep(500 * time.Millisecond)
			}
			jsonReply(200, `[{"id":5,"name":"Kamoto"}]`)(w)
		},
	}}
	cols := newTestCollections(t, fb)

	leaderCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cols.Load(leaderCtx, "mines")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, time.Millisecond)

	got, err := cols.Load(context.Background(), "mines")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.ErrorIs(t, <-leaderErr, context.DeadlineExceeded)
	assert.Len(t, fb.Calls(), 2)
}
