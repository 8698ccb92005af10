package platform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/emlapp/pkg/core"
)

func TestWatchEvents(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	svc, err := New(out, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	src := filepath.Join(t.TempDir(), "demo.sh")
	write := func(content string) func(t *testing.T) {
		return func(t *testing.T) {
			if err := os.WriteFile(src, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	write(minimalPackage)(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := svc.Watch(ctx, src, core.ExtractOptions{})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	modified := strings.Replace(minimalPackage, "<h1>hi</h1>", "<h1>v2</h1>", 1)

	// An empty want means no event may arrive.
	steps := []struct {
		name   string
		action func(t *testing.T)
		want   core.EventType
		html   string
	}{
		{"Initial Extraction", func(*testing.T) {}, core.EventExtracted, "<h1>hi</h1>\n"},
		{"Unchanged Rewrite", write(minimalPackage), "", ""},
		{"Modified Package", write(modified), core.EventExtracted, "<h1>v2</h1>\n"},
		{"Broken Package", write("not a package\n"), core.EventFailed, ""},
		{"Removed Package", func(t *testing.T) {
			if err := os.Remove(src); err != nil {
				t.Fatal(err)
			}
		}, core.EventRemoved, ""},
	}

	var last core.EventType
	for _, step := range steps {
		step.action(t)

		if step.want == "" {
			select {
			case e := <-events:
				t.Fatalf("%s: unexpected event %s", step.name, e)
			case <-time.After(400 * time.Millisecond):
			}
			continue
		}

		var got core.Event
		for {
			select {
			case e, ok := <-events:
				if !ok {
					t.Fatalf("%s: channel closed", step.name)
				}
				got = e
			case <-time.After(5 * time.Second):
				t.Fatalf("%s: timed out waiting for %s", step.name, step.want)
			}
			// A write can land as more than one burst; a broken package then fails twice.
			if got.Type == core.EventFailed && last == core.EventFailed && step.want != core.EventFailed {
				continue
			}
			break
		}
		last = got.Type

		if got.Type != step.want {
			t.Fatalf("%s: got %s, want %s", step.name, got.Type, step.want)
		}
		if step.html != "" {
			if got.Manifest == nil {
				t.Fatalf("%s: event carries no manifest", step.name)
			}
			data, err := os.ReadFile(filepath.Join(out, "index.html"))
			if err != nil {
				t.Fatalf("%s: %v", step.name, err)
			}
			if string(data) != step.html {
				t.Errorf("%s: index.html = %q, want %q", step.name, data, step.html)
			}
		}
		if step.want == core.EventFailed && got.Err == nil {
			t.Errorf("%s: failed event carries no error", step.name)
		}
	}
}
