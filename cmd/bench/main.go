package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/emlapp"
	"github.com/aretw0/emlapp/pkg/pack"
)

func main() {
	count := flag.Int("count", 500, "Number of assets to pack")
	size := flag.Int("size", 4096, "Approximate size of each asset in bytes")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "emlapp_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	// 1. Generate assets and pack them
	srcDir := filepath.Join(benchDir, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		panic(err)
	}
	fmt.Printf("Generating %d assets in %s...\n", *count, srcDir)
	startGen := time.Now()
	line := strings.Repeat("x", 79) + "\n"
	body := strings.Repeat(line, *size/len(line)+1)
	if err := os.WriteFile(filepath.Join(srcDir, "index.html"), []byte("<h1>bench</h1>\n"), 0644); err != nil {
		panic(err)
	}
	for i := 0; i < *count; i++ {
		name := fmt.Sprintf("asset_%d.css", i)
		content := fmt.Sprintf("/* %d */\n%s", i, body)
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644); err != nil {
			panic(err)
		}
	}

	pkgPath := filepath.Join(benchDir, "bench.eml.sh")
	if err := pack.BuildFile(srcDir, pkgPath, pack.Options{Name: "bench"}); err != nil {
		panic(err)
	}
	info, err := os.Stat(pkgPath)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v (package: %d bytes)\n", time.Since(startGen), info.Size())

	// 2. Extract into a fresh directory
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	outDir := filepath.Join(benchDir, "out")
	ctx := context.Background()

	service, err := emlapp.New(outDir, emlapp.WithLogger(logger))
	if err != nil {
		panic(err)
	}

	fmt.Println("Running Extract (Run 1 - Cold)...")
	start := time.Now()
	m, err := service.Extract(ctx, pkgPath, emlapp.ExtractOptions{RewriteCIDs: true})
	if err != nil {
		panic(err)
	}
	cold := time.Since(start)
	fmt.Printf("Run 1 Result: %v (Files: %d)\n", cold, len(m.Entries))

	// 3. Re-instantiate to simulate a new CLI run. The manifest cache should
	// make this a hash check.
	service2, err := emlapp.New(outDir, emlapp.WithLogger(logger))
	if err != nil {
		panic(err)
	}

	fmt.Println("Running Extract (Run 2 - Warm)...")
	start = time.Now()
	m2, err := service2.Extract(ctx, pkgPath, emlapp.ExtractOptions{RewriteCIDs: true})
	if err != nil {
		panic(err)
	}
	warm := time.Since(start)
	fmt.Printf("Run 2 Result: %v (Skipped: %t)\n", warm, m2.Skipped)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d assets):\n", *count)
	fmt.Printf("  Cold: %v\n", cold)
	fmt.Printf("  Warm: %v\n", warm)
	fmt.Printf("--------------------------------------------------\n")
}
