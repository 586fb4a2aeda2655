// Package task runs fetches whose results belong to a page request. A result
// that arrives after the request is gone is dropped instead of applied.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/patientor/pkg/metrics"
)

// ErrDropped is returned when the owning context ended before the fetch
// completed. The fetch result was discarded.
var ErrDropped = errors.New("fetch completed after owner was gone")

// Fetch loads a value.
type Fetch[T any] func(ctx context.Context) (T, error)

// Tracker counts dropped completions. A nil Tracker is valid and counts nothing.
type Tracker struct {
	metrics *metrics.Metrics
}

func NewTracker(m *metrics.Metrics) *Tracker {
	return &Tracker{metrics: m}
}

func (t *Tracker) dropped(name string) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.DroppedCompletions.WithLabelValues(name).Inc()
}

// Run calls fetch and passes its result to apply, unless ctx ended while the
// fetch was in flight. Fetch errors are returned without calling apply.
func Run[T any](ctx context.Context, t *Tracker, name string, fetch Fetch[T], apply func(T)) error {
	v, err := fetch(ctx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		t.dropped(name)
		log.Debug().Str("task", name).Err(ctxErr).Msg("Dropping late fetch completion")
		return fmt.Errorf("%s: %w: %w", name, ErrDropped, ctxErr)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	apply(v)
	return nil
}

// Group runs several fetches for the same owner concurrently. A failing
// fetch does not cancel the others.
type Group struct {
	ctx     context.Context
	tracker *Tracker
	eg      errgroup.Group
}

func NewGroup(ctx context.Context, t *Tracker) *Group {
	return &Group{ctx: ctx, tracker: t}
}

// Go starts fetch in g. Failures are logged and reported by Wait.
func Go[T any](g *Group, name string, fetch Fetch[T], apply func(T)) {
	g.eg.Go(func() error {
		err := Run(g.ctx, g.tracker, name, fetch, apply)
		if err != nil && !errors.Is(err, ErrDropped) {
			log.Error().Err(err).Str("task", name).Msg("Fetch failed")
		}
		return err
	})
}

// Wait blocks until every fetch started with Go has finished and returns the
// first error.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
