package platform

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/emlapp/pkg/core"
)

// TestConcurrentRewriteAndWatch rewrites a package while it is watched and
// extracted from another goroutine. Half-written packages may fail to parse;
// the service must not panic and the last write must win.
func TestConcurrentRewriteAndWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	out := filepath.Join(t.TempDir(), "out")
	svc, err := New(out, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	src := filepath.Join(t.TempDir(), "noisy.sh")
	write := func(n int) {
		content := strings.Replace(minimalPackage, "<h1>hi</h1>", fmt.Sprintf("<h1>v%d</h1>", n), 1)
		_ = os.WriteFile(src, []byte(content), 0644)
	}
	write(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := svc.Watch(ctx, src, core.ExtractOptions{})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	last := 0

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			mu.Lock()
			write(n)
			last = n
			mu.Unlock()
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		}
	}()

	// Direct extractions racing the watcher
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, _ = svc.Extract(context.Background(), src, core.ExtractOptions{})
				time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
			}
		}
	}()

	// Watch consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range events {
		}
	}()

	wg.Wait()

	mu.Lock()
	want := fmt.Sprintf("<h1>v%d</h1>", last)
	mu.Unlock()

	m, err := svc.Extract(context.Background(), src, core.ExtractOptions{Force: true})
	if err != nil {
		t.Fatalf("final Extract failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(m.OutputDir, "index.html"))
	if err != nil {
		t.Fatalf("read index.html: %v", err)
	}
	if !strings.Contains(string(data), want) {
		t.Errorf("index.html = %q, want %s", data, want)
	}
}
