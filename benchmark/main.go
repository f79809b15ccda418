// Package main provides a performance benchmarking tool for the discomfort CLI.
// It generates synthetic street networks of increasing size and measures scoring times,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - discomfort binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic networks are written
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Network     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Networks    map[string]int // name -> segment count
	Order       []string
	Modes       []string
}

var (
	highways = []string{"primary", "secondary", "tertiary", "residential", "service", "cycleway", "footway", "living_street"}
	lits     = []string{"yes", "no", ""}
	speeds   = []string{"20", "30", "50", "70", ""}
)

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Networks: map[string]int{
			"small":  1_000,
			"medium": 25_000,
			"large":  250_000,
		},
		Order: []string{"small", "medium", "large"},
		Modes: []string{"bike", "walk"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	for _, name := range config.Order {
		path := networkPath(config, name)
		if err := generateNetwork(path, config.Networks[name]); err != nil {
			fmt.Printf("Failed to generate %s network: %v\n", name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("discomfort", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the discomfort binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("discomfort"); err != nil {
		return fmt.Errorf("discomfort binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

func networkPath(config BenchmarkConfig, name string) string {
	return filepath.Join(config.WorkDir, "network_"+name+".csv")
}

// generateNetwork writes a deterministic synthetic segment table with n rows.
func generateNetwork(path string, n int) error {
	fmt.Printf("Generating %d segments at %s\n", n, path)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	rng := rand.New(rand.NewPCG(uint64(n), 42))
	w := csv.NewWriter(file)
	if err := w.Write([]string{"u", "v", "key", "length", "region", "highway", "bicycle", "lit", "maxspeed", "width"}); err != nil {
		return err
	}
	for i := range n {
		bicycle := ""
		if rng.IntN(20) == 0 {
			bicycle = "dismount"
		}
		rec := []string{
			strconv.Itoa(i),
			strconv.Itoa(i + 1),
			"0",
			strconv.FormatFloat(10+rng.Float64()*190, 'f', 1, 64),
			"region-" + strconv.Itoa(i%12),
			highways[rng.IntN(len(highways))],
			bicycle,
			lits[rng.IntN(len(lits))],
			speeds[rng.IntN(len(speeds))],
			strconv.FormatFloat(1+rng.Float64()*9, 'f', 1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// runBenchmarks executes all benchmark tests across configured networks
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d networks, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		fmt.Printf("Benchmarking %s\n", name)
		for _, mode := range config.Modes {
			results = append(results, runBenchmarkSuite(config, name, mode))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for one network and mode
func runBenchmarkSuite(config BenchmarkConfig, name, mode string) BenchmarkResult {
	command := "score --mode " + mode
	fmt.Printf("Running %s on %s\n", command, name)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, name, mode, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Network:     name,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark scores a network multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, name, mode, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"score", networkPath(config, name),
		"--mode", mode,
		"--cache-backend", cacheBackend,
		"--workers", strconv.Itoa(config.Workers),
		"--output", "csv",
		"--output-file", os.DevNull,
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()
		cmd := exec.Command("discomfort", args...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.CombinedOutput()
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("discomfort_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"network", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Network, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, mode := range config.Modes {
		fmt.Printf("Score (%s):\n", mode)
		for _, result := range results {
			if result.Command == "score --mode "+mode {
				fmt.Printf("  %-8s (%7d segments): No-cache: %s, Cold: %s, Warm: %s\n",
					result.Network, config.Networks[result.Network], result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
