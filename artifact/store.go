// Package artifact owns the fitted scaler and classifier for each condition.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"medpredict/ml"
)

var ErrUnavailable = errors.New("artifacts not available")

// Pair is an immutable snapshot of one condition's fitted artifacts. Version is
// unique per successful load across the whole store.
type Pair struct {
	Condition  ml.Condition
	Scaler     ml.Scaler
	Classifier ml.Classifier
	Version    uint64
	LoadedAt   time.Time
}

// Status reports the availability of one condition.
type Status struct {
	Condition ml.Condition `json:"condition"`
	Available bool         `json:"available"`
	Version   uint64       `json:"version,omitempty"`
	LoadedAt  *time.Time   `json:"loaded_at,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type slotState struct {
	pair *Pair
	err  error
}

// Store maps each condition to its current Pair. The slot map is built once in
// NewStore and never mutated, each slot is swapped atomically.
type Store struct {
	loader  Loader
	slots   map[ml.Condition]*atomic.Pointer[slotState]
	group   singleflight.Group
	version atomic.Uint64
	logger  *zap.Logger
}

func NewStore(loader Loader, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		loader: loader,
		slots:  make(map[ml.Condition]*atomic.Pointer[slotState]),
		logger: logger,
	}
	for _, c := range ml.Conditions() {
		s.slots[c] = &atomic.Pointer[slotState]{}
	}
	return s
}

// Get returns the loaded pair for c. On a miss it attempts every condition
// that has no pair (concurrent misses share that attempt) and reports
// ErrUnavailable if c is still absent afterwards. Loaded pairs are not touched.
func (s *Store) Get(ctx context.Context, c ml.Condition) (*Pair, error) {
	slot, ok := s.slots[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ml.ErrUnknownCondition, c)
	}
	if state := slot.Load(); state != nil && state.pair != nil {
		return state.pair, nil
	}

	// Loads run to completion even if this request goes away, other waiters
	// share the result.
	loadCtx := context.WithoutCancel(ctx)
	_, _, _ = s.group.Do("load", func() (any, error) {
		s.loadMissing(loadCtx)
		return nil, nil
	})

	state := slot.Load()
	if state != nil && state.pair != nil {
		return state.pair, nil
	}
	if state != nil && state.err != nil {
		return nil, fmt.Errorf("%s: %w: %w", c, ErrUnavailable, state.err)
	}
	return nil, fmt.Errorf("%s: %w", c, ErrUnavailable)
}

// Load loads every condition concurrently. A failure for one condition does not
// affect the others.
func (s *Store) Load(ctx context.Context) []Status {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range ml.Conditions() {
		g.Go(func() error {
			_ = s.Reload(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return s.Status()
}

// loadMissing loads, concurrently, every condition that currently has no pair.
func (s *Store) loadMissing(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range ml.Conditions() {
		if s.Available(c) {
			continue
		}
		g.Go(func() error {
			_ = s.Reload(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
}

// Reload replaces c's pair with freshly loaded artifacts. When loading fails
// the condition becomes unavailable, unless the failure is ctx being done.
func (s *Store) Reload(ctx context.Context, c ml.Condition) error {
	slot, ok := s.slots[c]
	if !ok {
		return fmt.Errorf("%w: %s", ml.ErrUnknownCondition, c)
	}

	start := time.Now()
	pair, err := s.loadPair(ctx, c)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slot.Store(&slotState{err: err})
		s.logger.Error("artifacts unavailable",
			zap.String("condition", c.String()),
			zap.Error(err),
		)
		return err
	}

	slot.Store(&slotState{pair: pair})
	s.logger.Info("artifacts loaded",
		zap.String("condition", c.String()),
		zap.Uint64("version", pair.Version),
		zap.String("scaler", fmt.Sprintf("%T", pair.Scaler)),
		zap.String("classifier", fmt.Sprintf("%T", pair.Classifier)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (s *Store) loadPair(ctx context.Context, c ml.Condition) (*Pair, error) {
	scaler, classifier, err := s.loader.Load(ctx, c)
	if err != nil {
		return nil, err
	}
	if scaler == nil || classifier == nil {
		return nil, errors.New("loader returned no artifacts")
	}
	want := ml.FeatureCount(c)
	if n := scaler.NumFeatures(); n != want {
		return nil, fmt.Errorf("scaler expects %d features, %s has %d", n, c, want)
	}
	if n := classifier.NumFeatures(); n != want {
		return nil, fmt.Errorf("classifier expects %d features, %s has %d", n, c, want)
	}
	return &Pair{
		Condition:  c,
		Scaler:     scaler,
		Classifier: classifier,
		Version:    s.version.Add(1),
		LoadedAt:   time.Now(),
	}, nil
}

// Available reports whether c currently has a loaded pair, without loading.
func (s *Store) Available(c ml.Condition) bool {
	slot, ok := s.slots[c]
	if !ok {
		return false
	}
	state := slot.Load()
	return state != nil && state.pair != nil
}

func (s *Store) Status() []Status {
	statuses := make([]Status, 0, len(s.slots))
	for _, c := range ml.Conditions() {
		st := Status{Condition: c}
		if state := s.slots[c].Load(); state != nil {
			if state.pair != nil {
				loadedAt := state.pair.LoadedAt
				st.Available = true
				st.Version = state.pair.Version
				st.LoadedAt = &loadedAt
			} else if state.err != nil {
				st.Error = state.err.Error()
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}
