// Package registry holds the shared collection of active timers. It is the
// single source of truth for which timers exist: tool adapters and the tick
// engine read and write entities only through a Store.
package registry

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/timer"
)

// DefaultPersistInterval is the minimum spacing between snapshot writes.
const DefaultPersistInterval = 250 * time.Millisecond

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPersistInterval sets the minimum spacing between snapshot writes.
func WithPersistInterval(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// Store is an insertion-ordered collection of entities addressable by id.
// All methods are safe for concurrent use and each call is atomic with
// respect to every other call.
type Store struct {
	mu      sync.Mutex
	entries []timer.Entity
	index   map[string]int
	subs    []chan []timer.Entity
	version uint64 // bumped on every mutation
	saved   uint64 // version last written to the backend
	closed  bool

	// What the backend held after our last load or save, used to tell
	// another process's writes apart from our own.
	lastData []byte
	lastByID map[string]timer.Entity
	// Ids changed through Upsert, Remove or Update since the last save.
	// Ticks do not count: a concurrent writer's version of a timer that
	// was only ticked here replaces it.
	touched map[string]bool

	backend  storage.Backend
	log      *zap.Logger
	interval time.Duration

	saveMu    sync.Mutex
	dirty     chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open creates a Store seeded from the snapshot in backend and starts the
// background writer. A nil backend keeps the store in memory only. Read
// failures are logged and leave the store empty.
func Open(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		index:    make(map[string]int),
		touched:  make(map[string]bool),
		backend:  backend,
		log:      zap.NewNop(),
		interval: DefaultPersistInterval,
		dirty:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rehydrate()
	go s.writeLoop()
	return s
}

func (s *Store) rehydrate() {
	if s.backend == nil {
		return
	}
	data, err := s.backend.Load(Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to restore timers", zap.String("key", Key), zap.Error(err))
		}
		return
	}
	s.lastData = data
	entities, rejected, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("discarding unreadable timer snapshot", zap.String("key", Key), zap.Error(err))
		return
	}
	for _, r := range rejected {
		s.log.Warn("dropping invalid timer from snapshot",
			zap.Int("index", r.Index), zap.String("id", r.ID), zap.Error(r.Err))
	}
	for _, e := range entities {
		s.upsertLocked(e)
	}
	s.lastByID = byID(entities)
	s.log.Debug("timers restored", zap.Int("count", len(s.entries)))
}

// Reload merges changes another process saved to the backend since this
// store last loaded or saved. Snapshots this store wrote itself are
// ignored. It reports whether the collection changed.
func (s *Store) Reload() bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.mergeExternal()
}

// mergeExternal applies a foreign snapshot by id: timers the other writer
// added, changed or removed follow it, unless this store changed the same
// id itself since its last save. Callers hold saveMu.
func (s *Store) mergeExternal() bool {
	if s.backend == nil {
		return false
	}
	data, err := s.backend.Load(Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to reload timers", zap.String("key", Key), zap.Error(err))
		}
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastData) {
		return false
	}
	s.lastData = data
	entities, _, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("ignoring unreadable timer snapshot", zap.String("key", Key), zap.Error(err))
		return false
	}

	changed := false
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		seen[e.ID] = true
		if prev, ok := s.lastByID[e.ID]; ok && reflect.DeepEqual(prev, e) {
			continue
		}
		if s.touched[e.ID] {
			continue
		}
		if s.upsertLocked(e) {
			changed = true
		}
	}
	for id := range s.lastByID {
		if seen[id] || s.touched[id] {
			continue
		}
		if s.removeLocked(id) {
			changed = true
		}
	}
	s.lastByID = byID(entities)
	if changed {
		s.log.Debug("merged timers saved elsewhere", zap.Int("count", len(s.entries)))
		s.changedLocked()
	}
	return changed
}

func byID(entities []timer.Entity) map[string]timer.Entity {
	m := make(map[string]timer.Entity, len(entities))
	for _, e := range entities {
		m[e.ID] = e
	}
	return m
}

// Upsert inserts e, or replaces the entity with the same id in place.
// Upserting identical content is a no-op. Invalid entities are logged and
// ignored.
func (s *Store) Upsert(e timer.Entity) {
	if err := e.Validate(); err != nil {
		s.log.Warn("ignoring invalid timer", zap.String("id", e.ID), zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertLocked(e.Clone()) {
		s.touched[e.ID] = true
		s.changedLocked()
	}
}

// Remove deletes the entity with the given id; absent ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeLocked(id) {
		s.touched[id] = true
		s.changedLocked()
	}
}

// Get returns a copy of the entity with the given id.
func (s *Store) Get(id string) (timer.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return timer.Entity{}, false
	}
	return s.entries[i].Clone(), true
}

// List returns copies of all entities in insertion order.
func (s *Store) List() []timer.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Len returns the number of entities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Update atomically reads the entity with the given id (ok reports presence)
// and stores what fn returns. Returning keep=false removes the entity. The
// id of the returned entity is forced to id. Update returns the stored
// entity and whether one is present afterwards.
func (s *Store) Update(id string, fn func(cur timer.Entity, ok bool) (next timer.Entity, keep bool)) (timer.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur timer.Entity
	i, ok := s.index[id]
	if ok {
		cur = s.entries[i].Clone()
	}
	next, keep := fn(cur, ok)
	if !keep {
		if s.removeLocked(id) {
			s.touched[id] = true
			s.changedLocked()
		}
		return timer.Entity{}, false
	}
	next.ID = id
	if err := next.Validate(); err != nil {
		s.log.Warn("ignoring invalid timer update", zap.String("id", id), zap.Error(err))
		return cur, ok
	}
	if s.upsertLocked(next.Clone()) {
		s.touched[id] = true
		s.changedLocked()
	}
	return next, true
}

// AdvanceAll applies fn to every entity as one atomic pass and stores the
// results fn marks as changed. fn must not mutate its argument. It returns
// the number of changed entities.
func (s *Store) AdvanceAll(fn func(timer.Entity) (timer.Entity, bool)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i, e := range s.entries {
		next, ok := fn(e)
		if !ok {
			continue
		}
		next.ID = e.ID
		s.entries[i] = next
		changed++
	}
	if changed > 0 {
		s.changedLocked()
	}
	return changed
}

// Subscribe returns a channel receiving the full list after every mutation.
// Sends never block: a subscriber that falls behind misses intermediate
// lists but always sees a later one. Channels are closed by Close; a
// subscription made after Close is already closed.
func (s *Store) Subscribe(buffer int) <-chan []timer.Entity {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan []timer.Entity, buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Flush writes the current collection to the backend if it changed since
// the last write. Changes another process saved in the meantime are merged
// first so they are not overwritten. Failures are logged; the in-memory
// state stays authoritative.
func (s *Store) Flush() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mergeExternal()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return
	}
	version := s.version
	touched := s.touched
	s.touched = make(map[string]bool)
	data, err := EncodeSnapshot(s.entries)
	s.mu.Unlock()

	if err == nil && s.backend != nil {
		err = s.backend.Save(Key, data)
	}
	if err != nil {
		s.log.Warn("failed to persist timers", zap.String("key", Key), zap.Error(err))
		s.mu.Lock()
		for id := range touched {
			s.touched[id] = true
		}
		s.mu.Unlock()
		return
	}
	saved, _, _ := DecodeSnapshot(data)

	s.mu.Lock()
	s.saved = version
	s.lastData = data
	s.lastByID = byID(saved)
	s.mu.Unlock()
}

// Close stops the background writer, performs a final flush and closes
// subscriber channels. It does not close the backend.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.Flush()

		s.mu.Lock()
		subs := s.subs
		s.subs = nil
		s.closed = true
		s.mu.Unlock()
		for _, ch := range subs {
			close(ch)
		}
	})
}

func (s *Store) writeLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.dirty:
			s.Flush()
		}
		if s.interval > 0 {
			wait := time.NewTimer(s.interval)
			select {
			case <-s.stop:
				wait.Stop()
				return
			case <-wait.C:
			}
		}
	}
}

// upsertLocked reports whether the collection changed.
func (s *Store) upsertLocked(e timer.Entity) bool {
	if i, ok := s.index[e.ID]; ok {
		if reflect.DeepEqual(s.entries[i], e) {
			return false
		}
		s.entries[i] = e
		return true
	}
	s.index[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return true
}

func (s *Store) removeLocked(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].ID] = j
	}
	return true
}

func (s *Store) listLocked() []timer.Entity {
	out := make([]timer.Entity, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// changedLocked schedules a write and notifies subscribers.
func (s *Store) changedLocked() {
	s.version++
	select {
	case s.dirty <- struct{}{}:
	default:
	}
	if len(s.subs) == 0 {
		return
	}
	list := s.listLocked()
	for _, ch := range s.subs {
		select {
		case ch <- list:
		default:
		}
	}
}
