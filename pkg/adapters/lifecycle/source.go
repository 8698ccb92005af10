// Package lifecycle exposes extraction events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/emlapp/pkg/core"
)

type watchSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	filter func(core.Event) bool
}

// SourceOption configures NewSource.
type SourceOption func(*watchSource)

// WithEventFilter drops events for which keep returns false.
func WithEventFilter(keep func(core.Event) bool) SourceOption {
	return func(s *watchSource) {
		s.filter = keep
	}
}

// NewSource adapts the channel returned by core.Service.Watch to a
// lifecycle.Source. The output channel closes when events closes or the
// context passed to Start is canceled.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &watchSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *watchSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *watchSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.filter != nil && !s.filter(e) {
					continue
				}
				// core.Event satisfies lifecycle.Event through String().
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
