package registry_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/DYAI2025/stoppclock/internal/engine"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memBackend is an in-memory storage.Backend that can be told to fail.
type memBackend struct {
	data    map[string][]byte
	saveErr error
	saves   int
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[string][]byte)} }

func (m *memBackend) Load(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memBackend) Save(key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBackend) Path() string { return "mem" }
func (m *memBackend) Close() error { return nil }

// generateEntity produces a valid entity whose id is drawn from a small pool
// so that collisions are common.
func generateEntity(t *rapid.T, label string) timer.Entity {
	kind := rapid.SampledFrom(timer.Kinds).Draw(t, label+"_kind")
	e := timer.Entity{
		ID:      fmt.Sprintf("%s-%d", kind, rapid.IntRange(1, 3).Draw(t, label+"_n")),
		Kind:    kind,
		Name:    rapid.StringN(0, 20, -1).Draw(t, label+"_name"),
		Current: rapid.Int64Range(0, 3_600_000).Draw(t, label+"_current"),
		Running: rapid.Bool().Draw(t, label+"_running"),
		Path:    "/" + string(kind),
	}
	switch kind {
	case timer.KindRounds:
		e.Working = timer.Bool(rapid.Bool().Draw(t, label+"_working"))
		e.Rounds = &timer.RoundsMeta{
			RoundSeconds: rapid.IntRange(0, 59).Draw(t, label+"_work"),
			RestSeconds:  rapid.IntRange(0, 59).Draw(t, label+"_rest"),
			TotalRounds:  rapid.IntRange(1, 99).Draw(t, label+"_total"),
			CurrentRound: 1,
		}
	case timer.KindChess:
		e.Chess = &timer.ChessMeta{
			ActiveSide: rapid.SampledFrom([]timer.Side{timer.SideLeft, timer.SideRight}).Draw(t, label+"_side"),
			LeftMs:     rapid.Int64Range(0, 600_000).Draw(t, label+"_left"),
			RightMs:    rapid.Int64Range(0, 600_000).Draw(t, label+"_right"),
		}
	}
	return e
}

// Feature: stoppclock, Property 1: upsert is idempotent and ids stay unique
func TestUpsertIdempotentAndUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := registry.Open(nil)
		defer s.Close()

		n := rapid.IntRange(0, 20).Draw(rt, "n")
		want := make(map[string]timer.Entity)
		for i := 0; i < n; i++ {
			e := generateEntity(rt, "e")
			s.Upsert(e)
			if rapid.Bool().Draw(rt, "twice") {
				s.Upsert(e)
			}
			want[e.ID] = e
		}

		list := s.List()
		if len(list) != len(want) {
			rt.Fatalf("got %d entities, want %d", len(list), len(want))
		}
		seen := make(map[string]bool)
		for _, e := range list {
			if seen[e.ID] {
				rt.Fatalf("duplicate id %q", e.ID)
			}
			seen[e.ID] = true
			if diff := cmp.Diff(want[e.ID], e); diff != "" {
				rt.Fatalf("entity %s mismatch (-want +got):\n%s", e.ID, diff)
			}
		}
	})
}

// Feature: stoppclock, Property 2: removed ids are absent and the rest keep their order
func TestRemovePreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := registry.Open(nil)
		defer s.Close()

		ids := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}-[0-9]`), 1, 10, rapid.ID[string]).Draw(rt, "ids")
		for _, id := range ids {
			s.Upsert(timer.Entity{ID: id, Kind: timer.KindStopwatch})
		}
		victim := rapid.SampledFrom(ids).Draw(rt, "victim")
		s.Remove(victim)
		s.Remove(victim)

		if _, ok := s.Get(victim); ok {
			rt.Fatalf("%q still present", victim)
		}
		var got []string
		for _, e := range s.List() {
			got = append(got, e.ID)
		}
		var want []string
		for _, id := range ids {
			if id != victim {
				want = append(want, id)
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			rt.Fatalf("order mismatch (-want +got):\n%s", diff)
		}
	})
}

// Feature: stoppclock, Property 3: a closed store is restored exactly on reopen
func TestPersistenceRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := newMemBackend()
		s := registry.Open(b, registry.WithPersistInterval(0))
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			s.Upsert(generateEntity(rt, "e"))
		}
		want := s.List()
		s.Close()

		reopened := registry.Open(b)
		defer reopened.Close()
		if diff := cmp.Diff(want, reopened.List()); diff != "" {
			rt.Fatalf("restored list mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := registry.Open(nil)
	defer s.Close()

	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch})
	s.Upsert(timer.Entity{ID: "b", Kind: timer.KindStopwatch})
	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch, Current: 500})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, int64(500), list[0].Current)
}

func TestUpsertIgnoresInvalidEntity(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := registry.Open(nil, registry.WithLogger(zap.New(core)))
	defer s.Close()

	s.Upsert(timer.Entity{Kind: timer.KindStopwatch})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, logs.FilterMessage("ignoring invalid timer").Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := registry.Open(nil)
	defer s.Close()

	s.Upsert(timer.Entity{ID: "lap-1", Kind: timer.KindLap, Laps: &timer.LapMeta{Laps: []timer.Lap{{Time: 1}}}})
	got, ok := s.Get("lap-1")
	require.True(t, ok)
	got.Laps.Laps[0].Time = 42

	again, _ := s.Get("lap-1")
	assert.Equal(t, int64(1), again.Laps.Laps[0].Time)
}

func TestUpdate(t *testing.T) {
	s := registry.Open(nil)
	defer s.Close()

	got, ok := s.Update("countdown-1", func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		assert.False(t, ok)
		return timer.Entity{Kind: timer.KindCountdown, Current: 1000, Target: 1000}, true
	})
	require.True(t, ok)
	assert.Equal(t, "countdown-1", got.ID)

	s.Update("countdown-1", func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		assert.True(t, ok)
		cur.Running = true
		return cur, true
	})
	e, _ := s.Get("countdown-1")
	assert.True(t, e.Running)

	_, ok = s.Update("countdown-1", func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		return cur, false
	})
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestAdvanceAll(t *testing.T) {
	s := registry.Open(nil)
	defer s.Close()

	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch, Running: true})
	s.Upsert(timer.Entity{ID: "b", Kind: timer.KindStopwatch})

	n := s.AdvanceAll(func(e timer.Entity) (timer.Entity, bool) {
		if !e.Running {
			return e, false
		}
		e.Current += 10
		return e, true
	})
	assert.Equal(t, 1, n)
	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, int64(10), a.Current)
	assert.Equal(t, int64(0), b.Current)
}

func TestSubscribeReceivesListAndClosesOnClose(t *testing.T) {
	s := registry.Open(nil)
	ch := s.Subscribe(4)

	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch})
	select {
	case list := <-ch:
		require.Len(t, list, 1)
		assert.Equal(t, "a", list[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}

	s.Close()
	_, open := <-ch
	assert.False(t, open)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := registry.Open(nil)
	defer s.Close()
	_ = s.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch, Current: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("upsert blocked on a full subscriber")
	}
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	b := newMemBackend()
	b.data[registry.Key] = []byte(`{"not":"an array"}`)
	core, logs := observer.New(zapcore.WarnLevel)

	s := registry.Open(b, registry.WithLogger(zap.New(core)))
	defer s.Close()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable timer snapshot").Len())
}

func TestSnapshotDropsInvalidEntries(t *testing.T) {
	b := newMemBackend()
	b.data[registry.Key] = []byte(`[
		{"id":"stopwatch-1","type":"stopwatch","currentTime":5,"isRunning":false,"path":"/stopwatch"},
		{"id":"","type":"stopwatch"},
		{"id":"x","type":"sundial"},
		42
	]`)
	core, logs := observer.New(zapcore.WarnLevel)

	s := registry.Open(b, registry.WithLogger(zap.New(core)))
	defer s.Close()

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "stopwatch-1", list[0].ID)
	assert.Equal(t, 3, logs.FilterMessage("dropping invalid timer from snapshot").Len())
}

func TestSaveFailureIsLoggedNotFatal(t *testing.T) {
	b := newMemBackend()
	b.saveErr = errors.New("disk full")
	core, logs := observer.New(zapcore.WarnLevel)

	s := registry.Open(b, registry.WithLogger(zap.New(core)), registry.WithPersistInterval(0))
	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch})
	s.Close()

	assert.Equal(t, 1, s.Len())
	assert.GreaterOrEqual(t, logs.FilterMessage("failed to persist timers").Len(), 1)
}

func TestFlushSkipsUnchangedState(t *testing.T) {
	b := newMemBackend()
	s := registry.Open(b, registry.WithPersistInterval(time.Hour))
	defer s.Close()

	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch})
	s.Flush()
	s.Flush()
	s.Upsert(timer.Entity{ID: "a", Kind: timer.KindStopwatch})
	s.Flush()

	assert.Equal(t, 1, b.saves)
}

func TestFileBackendRoundTrip(t *testing.T) {
	b, err := storage.Open(storage.KindFile, t.TempDir())
	require.NoError(t, err)

	s := registry.Open(b)
	s.Upsert(timer.Entity{ID: "countdown-1", Kind: timer.KindCountdown, Current: 60000, Target: 60000, Path: "/countdown"})
	s.Close()

	reopened := registry.Open(b)
	defer reopened.Close()
	e, ok := reopened.Get("countdown-1")
	require.True(t, ok)
	assert.Equal(t, int64(60000), e.Current)
}

func TestSubscribeAfterCloseIsClosed(t *testing.T) {
	s := registry.Open(nil)
	s.Close()

	select {
	case _, open := <-s.Subscribe(1):
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription after close never closed")
	}
}

// openShared opens a store on dir the way one stoppclock process does.
func openShared(t *testing.T, dir string) *registry.Store {
	t.Helper()
	return registry.Open(storage.NewFile(dir), registry.WithPersistInterval(0))
}

func TestChangesFromAnotherStoreSurviveFlush(t *testing.T) {
	dir := t.TempDir()

	// A long-lived store with a running stopwatch, advanced by the engine.
	host := openShared(t, dir)
	tools.NewStopwatch(host).Start()
	host.Flush()

	// A short-lived store starts a countdown and exits.
	cli := openShared(t, dir)
	tools.NewCountdown(cli).Start()
	cli.Close()

	engine.New(host, 10*time.Millisecond, nil).Tick()
	host.Close()

	reopened := openShared(t, dir)
	defer reopened.Close()
	cd, ok := reopened.Get(tools.CountdownTool.ID)
	require.True(t, ok, "countdown started elsewhere was overwritten")
	assert.True(t, cd.Running)
	sw, ok := reopened.Get(tools.StopwatchTool.ID)
	require.True(t, ok)
	assert.Equal(t, int64(10), sw.Current)
}

func TestReloadFollowsOtherWriter(t *testing.T) {
	dir := t.TempDir()

	host := openShared(t, dir)
	defer host.Close()
	tools.NewStopwatch(host).Start()
	tools.NewCountdown(host).Start()
	host.Flush()
	assert.False(t, host.Reload(), "own saves are not reloaded")

	cli := openShared(t, dir)
	tools.NewStopwatch(cli).Pause()
	cli.Remove(tools.CountdownTool.ID)
	tools.NewRounds(cli).Start()
	cli.Close()

	// Ticks alone do not make the host's copy win.
	engine.New(host, 10*time.Millisecond, nil).Tick()
	host.Reload()

	sw, ok := host.Get(tools.StopwatchTool.ID)
	require.True(t, ok)
	assert.False(t, sw.Running, "pause from the other writer applies")
	_, ok = host.Get(tools.CountdownTool.ID)
	assert.False(t, ok, "removal from the other writer applies")
	rounds, ok := host.Get(tools.RoundsTool.ID)
	require.True(t, ok)
	assert.True(t, rounds.Running)
}

func TestLocalChangeWinsOverOtherWriter(t *testing.T) {
	dir := t.TempDir()

	host := openShared(t, dir)
	tools.NewCountdown(host).Apply(0, 1, 0)
	host.Flush()

	cli := openShared(t, dir)
	tools.NewCountdown(cli).Start()
	cli.Close()

	tools.NewCountdown(host).Apply(0, 2, 0)
	host.Close()

	reopened := openShared(t, dir)
	defer reopened.Close()
	cd, ok := reopened.Get(tools.CountdownTool.ID)
	require.True(t, ok)
	assert.False(t, cd.Running)
	assert.Equal(t, int64(120_000), cd.Target)
}
