// Package storetest is the conformance suite every session.Store back-end
// must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// StoreFactory creates a new, empty Store instance for testing.
type StoreFactory func(t *testing.T) session.Store

// shortTTL is long enough for remote back-ends to accept the write and
// short enough to keep the suite fast.
const shortTTL = 300 * time.Millisecond

// RunStoreTests runs the complete Store test suite against the provided factory.
func RunStoreTests(t *testing.T, factory StoreFactory) {
	t.Run("Get_MissingReturnsNotFound", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run("Set_RoundTrip", func(t *testing.T) { testRoundTrip(t, factory) })
	t.Run("Set_ReplacesRecord", func(t *testing.T) { testSetReplaces(t, factory) })
	t.Run("Get_ReturnsCopy", func(t *testing.T) { testGetReturnsCopy(t, factory) })
	t.Run("Set_IsolationBetweenSessions", func(t *testing.T) { testIsolation(t, factory) })
	t.Run("Destroy_RemovesRecord", func(t *testing.T) { testDestroy(t, factory) })
	t.Run("Destroy_AbsentIsNoop", func(t *testing.T) { testDestroyAbsent(t, factory) })

	t.Run("Expire_RemovesAfterTTL", func(t *testing.T) { testExpire(t, factory) })
	t.Run("Expire_NonPositiveDestroysNow", func(t *testing.T) { testExpireNonPositive(t, factory) })
	t.Run("Expire_AbsentIsNoop", func(t *testing.T) { testExpireAbsent(t, factory) })
	t.Run("Expire_SurvivesSet", func(t *testing.T) { testExpireSurvivesSet(t, factory) })
	t.Run("Expire_EarliestDeadlineWins", func(t *testing.T) { testEarliestDeadline(t, factory) })
	t.Run("Expire_DistantDeadlineKeepsRecord", func(t *testing.T) { testDistantDeadline(t, factory) })

	t.Run("Concurrency_ParallelWriters", func(t *testing.T) { testParallelWriters(t, factory) })
}

func newID() string {
	return "test-" + uuid.NewString()
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// toFloat normalises numbers that came back from stores serialising to JSON.
func toFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		t.Fatalf("unexpected numeric type %T", v)
		return 0
	}
}

func requireGone(t *testing.T, s session.Store, id string, within time.Duration) {
	t.Helper()
	ctx := testContext(t)
	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, id)
		return err != nil
	}, within, 25*time.Millisecond, "record %q should have expired", id)

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func testGetMissing(t *testing.T, factory StoreFactory) {
	s := factory(t)

	_, err := s.Get(testContext(t), newID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func testRoundTrip(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	rec := session.NewRecord(id)
	rec["hello"] = "world"
	rec["count"] = 7
	rec["admin"] = true
	require.NoError(t, s.Set(ctx, id, rec))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID())
	assert.Equal(t, "world", got["hello"])
	assert.Equal(t, true, got["admin"])
	assert.InDelta(t, 7, toFloat(t, got["count"]), 0)
	assert.Len(t, got, 4)
}

func testSetReplaces(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.Record{"a": "1", "b": "2"}))
	require.NoError(t, s.Set(ctx, id, session.Record{"c": "3"}))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Record{"c": "3"}, got)
}

func testGetReturnsCopy(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	rec := session.Record{"key": "value"}
	require.NoError(t, s.Set(ctx, id, rec))
	rec["key"] = "changed after set"

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	got["key"] = "changed after get"

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "value", again["key"])
}

func testIsolation(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	a, b := newID(), newID()

	require.NoError(t, s.Set(ctx, a, session.Record{"owner": "a"}))
	require.NoError(t, s.Set(ctx, b, session.Record{"owner": "b"}))
	require.NoError(t, s.Destroy(ctx, a))

	_, err := s.Get(ctx, a)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	got, err := s.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "b", got["owner"])
}

func testDestroy(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.NewRecord(id)))
	require.NoError(t, s.Destroy(ctx, id))

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func testDestroyAbsent(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	assert.NoError(t, s.Destroy(ctx, id))
	assert.NoError(t, s.Destroy(ctx, id))
}

func testExpire(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.Record{"hello": "world"}))
	require.NoError(t, s.Expire(ctx, id, shortTTL))

	got, err := s.Get(ctx, id)
	require.NoError(t, err, "record must be visible before its deadline")
	assert.Equal(t, "world", got["hello"])

	requireGone(t, s, id, 5*time.Second)
}

func testExpireNonPositive(t *testing.T, factory StoreFactory) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		t.Run(fmt.Sprintf("ttl=%s", ttl), func(t *testing.T) {
			s := factory(t)
			ctx := testContext(t)
			id := newID()

			require.NoError(t, s.Set(ctx, id, session.NewRecord(id)))
			require.NoError(t, s.Expire(ctx, id, ttl))

			_, err := s.Get(ctx, id)
			assert.ErrorIs(t, err, session.ErrSessionNotFound)
		})
	}
}

func testExpireAbsent(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Expire(ctx, id, shortTTL))
	require.NoError(t, s.Set(ctx, id, session.Record{"late": "write"}))

	time.Sleep(3 * shortTTL)

	got, err := s.Get(ctx, id)
	require.NoError(t, err, "expiring an absent id must not affect a later record")
	assert.Equal(t, "write", got["late"])
}

func testExpireSurvivesSet(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.Record{"v": "1"}))
	require.NoError(t, s.Expire(ctx, id, shortTTL))
	require.NoError(t, s.Set(ctx, id, session.Record{"v": "2"}))

	requireGone(t, s, id, 5*time.Second)
}

func testEarliestDeadline(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.NewRecord(id)))
	require.NoError(t, s.Expire(ctx, id, shortTTL))
	require.NoError(t, s.Expire(ctx, id, time.Hour))

	requireGone(t, s, id, 5*time.Second)
}

func testDistantDeadline(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	id := newID()

	require.NoError(t, s.Set(ctx, id, session.NewRecord(id)))
	require.NoError(t, s.Expire(ctx, id, time.Hour))

	time.Sleep(shortTTL)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID())
}

func testParallelWriters(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	const writers = 16
	ids := make([]string, writers)
	for i := range ids {
		ids[i] = newID()
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, id, session.Record{"n": i}))
		}()
	}
	wg.Wait()

	for i, id := range ids {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.InDelta(t, float64(i), toFloat(t, got["n"]), 0)
	}
}
