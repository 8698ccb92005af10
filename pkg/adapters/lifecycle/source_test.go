package lifecycle

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/aretw0/emlapp/pkg/core"
)

func TestSourceForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventExtracted, Source: "a.sh"}
	in <- core.Event{Type: core.EventModify, Source: "a.sh"}
	in <- core.Event{Type: core.EventRemoved, Source: "a.sh"}
	close(in)

	src := NewSource(in, WithEventFilter(func(e core.Event) bool {
		return e.Type != core.EventModify
	}))
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var got []core.EventType
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				if len(got) != 2 || got[0] != core.EventExtracted || got[1] != core.EventRemoved {
					t.Fatalf("unexpected events: %v", got)
				}
				return
			}
			ce, isCore := e.(core.Event)
			if !isCore {
				t.Fatalf("expected core.Event, got %T", e)
			}
			got = append(got, ce.Type)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestSourceStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	src := NewSource(make(chan core.Event))
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-src.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}
