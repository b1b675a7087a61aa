package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/nooga/specjs/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		testPath   = flag.String("path", "", "Path to test262 directory (overrides test262.root)")
		subPath    = flag.String("subpath", "", "Subdirectory within test/ (e.g. 'built-ins/Array')")
		pattern    = flag.String("pattern", "*.js", "File pattern for test files")
		limit      = flag.Int("limit", 0, "Limit number of tests to run (0 = no limit)")
		workers    = flag.Int("workers", 0, "Worker count (0 keeps the config value)")
		timeout    = flag.Duration("timeout", 0, "Timeout per test (0 keeps the config value)")
		verbose    = flag.Bool("verbose", false, "Print skips and passes too")
		suiteMode  = flag.Bool("suite", false, "Show pass rates per suite directory")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(78)
		}
	}
	if *testPath != "" {
		cfg.Test262.Root = *testPath
	}
	if *workers > 0 {
		cfg.Test262.Workers = *workers
	}
	if *timeout > 0 {
		cfg.Test262.Timeout = *timeout
	}
	cfg.ConfigureLogging()

	if cfg.Test262.Root == "" {
		fmt.Fprintf(os.Stderr, "Error: test262 path not specified\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -path /path/to/test262\n", os.Args[0])
		os.Exit(64)
	}
	testDir := filepath.Join(cfg.Test262.Root, "test")
	if _, err := os.Stat(testDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: test262 test directory not found at %s\n", testDir)
		os.Exit(66)
	}

	searchDir := testDir
	if *subPath != "" {
		searchDir = filepath.Join(testDir, strings.TrimSuffix(*subPath, "/**"))
	}
	testFiles, err := findTestFiles(searchDir, *pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding test files: %v\n", err)
		os.Exit(1)
	}
	if *limit > 0 && len(testFiles) > *limit {
		testFiles = testFiles[:*limit]
	}
	fmt.Printf("Running %s test262 files from %s with %d workers\n",
		humanize.Comma(int64(len(testFiles))), cfg.Test262.Root, cfg.Test262.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := runTests(ctx, cfg, testFiles, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stats := summarize(results)
	stats.Duration = time.Since(start)

	if *suiteMode {
		printSuiteSummary(results, testDir)
	}
	printSummary(&stats)
	if stats.Failed > 0 || stats.Timeouts > 0 {
		os.Exit(1)
	}
}

// findTestFiles discovers test files matching pattern, skipping harness
// fixtures.
func findTestFiles(dir, pattern string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(filepath.Base(path), "_FIXTURE") {
			return nil
		}
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if matched {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

type testFile struct {
	path    string
	content string
	meta    *testMetadata
}

// runTests reads every test, loads the harness once and runs the tests on
// a bounded worker pool. Results come back in file order.
func runTests(ctx context.Context, cfg *config.Config, paths []string, verbose bool) ([]TestResult, error) {
	tests := make([]testFile, 0, len(paths))
	metas := make([]*testMetadata, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		meta, err := parseMetadata(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		tests = append(tests, testFile{path: path, content: string(data), meta: meta})
		metas = append(metas, meta)
	}
	r := newRunner(cfg, cfg.Test262.Root)
	if err := r.loadHarness(metas); err != nil {
		return nil, err
	}

	results := make([]TestResult, len(tests))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Test262.Workers, 1))
	for i, t := range tests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.runFile(gctx, t.path, t.content, t.meta)
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Outcome == outcomeFail || res.Outcome == outcomeTimeout:
				fmt.Printf("%s %d/%d %s - %s\n", res.Outcome, i+1, len(tests), t.path, res.Reason)
			case verbose:
				fmt.Printf("%s %d/%d %s %s\n", res.Outcome, i+1, len(tests), t.path, res.Reason)
			}
			log.Debugf("%s %s in %s", res.Outcome, t.path, res.Duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TestStats tracks test statistics.
type TestStats struct {
	Total    int
	Passed   int
	Failed   int
	Timeouts int
	Skipped  int
	Duration time.Duration
}

func (s *TestStats) add(res TestResult) {
	s.Total++
	switch res.Outcome {
	case outcomePass:
		s.Passed++
	case outcomeFail:
		s.Failed++
	case outcomeSkip:
		s.Skipped++
	case outcomeTimeout:
		s.Timeouts++
	}
}

func summarize(results []TestResult) TestStats {
	var stats TestStats
	for _, res := range results {
		stats.add(res)
	}
	return stats
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// printSummary prints the final test summary.
func printSummary(stats *TestStats) {
	fmt.Printf("\n=== Test262 Summary ===\n")
	fmt.Printf("Total:    %s\n", humanize.Comma(int64(stats.Total)))
	fmt.Printf("Passed:   %s (%.1f%%)\n", humanize.Comma(int64(stats.Passed)), percent(stats.Passed, stats.Total))
	fmt.Printf("Failed:   %s (%.1f%%)\n", humanize.Comma(int64(stats.Failed)), percent(stats.Failed, stats.Total))
	fmt.Printf("Timeouts: %s (%.1f%%)\n", humanize.Comma(int64(stats.Timeouts)), percent(stats.Timeouts, stats.Total))
	fmt.Printf("Skipped:  %s (%.1f%%)\n", humanize.Comma(int64(stats.Skipped)), percent(stats.Skipped, stats.Total))
	fmt.Printf("Duration: %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("======================\n")
}

// suiteKey groups a test by its first two directories below test/.
func suiteKey(testDir, path string) string {
	rel, err := filepath.Rel(testDir, path)
	if err != nil {
		return "other"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	} else {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// printSuiteSummary prints per-suite pass rates.
func printSuiteSummary(results []TestResult, testDir string) {
	suites := make(map[string]*TestStats)
	for _, res := range results {
		key := suiteKey(testDir, res.Path)
		if suites[key] == nil {
			suites[key] = &TestStats{}
		}
		suites[key].add(res)
		suites[key].Duration += res.Duration
	}
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Println("\n=== Test262 Suite Results ===")
	fmt.Printf("%-40s %8s %8s %8s %8s %8s %8s %12s\n",
		"Suite", "Total", "Passed", "Failed", "Skip", "Timeout", "% Pass", "Duration")
	fmt.Println(strings.Repeat("-", 110))
	for _, name := range names {
		s := suites[name]
		fmt.Printf("%-40s %8d %8d %8d %8d %8d %7.1f%% %12s\n",
			name, s.Total, s.Passed, s.Failed, s.Skipped, s.Timeouts,
			percent(s.Passed, s.Total-s.Skipped), s.Duration.Round(time.Millisecond))
	}
}
