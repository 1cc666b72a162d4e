package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/session"
)

func TestAcquireCreatesAndReuses(t *testing.T) {
	store := session.NewStore(time.Minute)

	first, created := store.Acquire("")
	require.True(t, created)
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)

	again, created := store.Acquire(first.ID)
	require.False(t, created)
	require.Same(t, first, again)

	bogus, created := store.Acquire("not-a-uuid")
	require.True(t, created)
	require.NotEqual(t, "not-a-uuid", bogus.ID)
	require.Equal(t, 2, store.Len())
}

func TestSweepDropsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewStore(10 * time.Minute)
	store.Now = func() time.Time { return now }

	stale, _ := store.Acquire("")
	now = now.Add(5 * time.Minute)
	fresh, _ := store.Acquire("")

	now = now.Add(6 * time.Minute)
	require.Equal(t, 1, store.Sweep())

	_, ok := store.Get(stale.ID)
	require.False(t, ok)
	_, ok = store.Get(fresh.ID)
	require.True(t, ok)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	store := session.NewStore(time.Nanosecond)
	store.Acquire("")

	ctx, cancel := context.WithCancel(context.Background())
	var removed atomic.Int64
	done := make(chan struct{})
	go func() {
		store.RunSweeper(ctx, time.Millisecond, func(n int) { removed.Add(int64(n)) })
		close(done)
	}()

	require.Eventually(t, func() bool { return removed.Load() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, 0, store.Len())
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessionDoSerialisesAccess(t *testing.T) {
	store := session.NewStore(time.Minute)
	sess, _ := store.Acquire("")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Do(func(st *session.State) { st.Cart.AddItem("Mug", "1") })
		}()
	}
	wg.Wait()

	sess.Do(func(st *session.State) { require.Equal(t, 50, st.Cart.Len()) })
}

func TestMiddlewareEchoesSessionID(t *testing.T) {
	store := session.NewStore(time.Minute)
	var seen string
	handler := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		require.True(t, ok)
		seen = sess.ID
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	id := rr.Header().Get(session.HeaderName)
	require.NotEmpty(t, id)
	require.Equal(t, id, seen)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(session.HeaderName, id)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, id, rr.Header().Get(session.HeaderName))
	require.Equal(t, 1, store.Len())
}

func TestFromContextMissing(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	require.False(t, ok)
}

func TestEstablishedIDOnlyForExistingSessions(t *testing.T) {
	store := session.NewStore(time.Minute)
	var established []bool
	handler := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := session.EstablishedID(r)
		established = append(established, ok)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rr.Header().Get(session.HeaderName)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(session.HeaderName, id)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(session.HeaderName, uuid.NewString())
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, []bool{false, true, false}, established)
}

func TestRotatingSessionHeadersShareIPLimit(t *testing.T) {
	store := session.NewStore(time.Minute)
	limit := ratelimit.Handler{
		Limiter: ratelimit.NewMemoryLimiter(),
		Config: ratelimit.Config{
			Key:    ratelimit.KeyBySessionOrIP(session.EstablishedID),
			Window: time.Minute,
			Max:    2,
		},
	}
	handler := store.Middleware(limit.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set(session.HeaderName, "junk-"+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	require.Equal(t, 18, limited)
}

func TestCreateGuardCapsNewSessions(t *testing.T) {
	store := session.NewStore(time.Minute)
	allowed := 3
	store.CreateGuard = func(*http.Request) bool {
		allowed--
		return allowed >= 0
	}
	handler := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var first string
	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set(session.HeaderName, "junk-"+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes[rr.Code]++
		if first == "" {
			first = rr.Header().Get(session.HeaderName)
		}
	}
	require.Equal(t, map[int]int{http.StatusNoContent: 3, http.StatusTooManyRequests: 2}, codes)
	require.Equal(t, 3, store.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(session.HeaderName, first)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code, "existing sessions bypass the guard")
}
