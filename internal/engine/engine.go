// Package engine drives every running timer from one shared periodic tick.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

const (
	// DefaultPeriod is used when no period is configured.
	DefaultPeriod = 10 * time.Millisecond
	// MaxPeriod keeps stopwatch displays smooth.
	MaxPeriod = 50 * time.Millisecond
)

// Registry is the part of the registry store the engine writes through.
// AdvanceAll must apply fn to every entity as one atomic pass and return the
// number of entities that changed.
type Registry interface {
	AdvanceAll(fn func(timer.Entity) (timer.Entity, bool)) int
}

// Engine advances all running entities in lockstep.
type Engine struct {
	registry Registry
	period   time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// ClampPeriod maps a configured period into (0, MaxPeriod].
func ClampPeriod(period time.Duration) time.Duration {
	if period <= 0 {
		return DefaultPeriod
	}
	if period > MaxPeriod {
		return MaxPeriod
	}
	return period
}

// New creates an Engine. The period is clamped with ClampPeriod.
func New(registry Registry, period time.Duration, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		period:   ClampPeriod(period),
		log:      log,
		warned:   make(map[string]bool),
	}
}

// Period returns the tick length.
func (e *Engine) Period() time.Duration { return e.period }

// Tick performs one advancement pass and returns how many entities changed.
// Every entity in the pass sees the same delta.
func (e *Engine) Tick() int {
	return e.registry.AdvanceAll(func(ent timer.Entity) (timer.Entity, bool) {
		if ent.Running && Malformed(ent) {
			e.warnMalformed(ent)
			return ent, false
		}
		return Advance(ent, e.period)
	})
}

// Run ticks until ctx is cancelled. It returns nil on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	e.log.Debug("tick engine started", zap.Duration("period", e.period))
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("tick engine stopped")
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// warnMalformed logs a skipped entity once per id.
func (e *Engine) warnMalformed(ent timer.Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.warned[ent.ID] {
		return
	}
	e.warned[ent.ID] = true
	e.log.Warn("skipping malformed timer",
		zap.String("id", ent.ID),
		zap.String("kind", string(ent.Kind)))
}
