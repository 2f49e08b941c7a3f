// Package main provides a performance benchmarking tool for the pulsecheck CLI.
// It generates sample data sets of increasing length, runs each command several
// times without a cache and with the SQLite cache, treating the first cached
// run as cold and averaging the rest as warm, and writes the timings to CSV.
//
// Prerequisites:
// - pulsecheck binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory to generate sample data into (default: a temp dir)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Days        int
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	End         string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	DaySizes    []int
	Commands    []string
}

func main() {
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := ""
	if len(os.Args) == 2 {
		workDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "pulsecheck-bench-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir:     workDir,
		End:         "2026-01-15",
		Timeout:     2 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		DaySizes:    []int{30, 180, 730, 1825},
		Commands:    []string{"report", "trends", "buckets"},
	}

	if _, err := exec.LookPath("pulsecheck"); err != nil {
		fmt.Printf("Prerequisites check failed: pulsecheck binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// dataDir returns the sample directory for one range length.
func dataDir(config BenchmarkConfig, days int) string {
	return filepath.Join(config.WorkDir, fmt.Sprintf("days-%d", days))
}

// runBenchmarks generates the data sets and times every command against them.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d data sets, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.DaySizes), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, days := range config.DaySizes {
		dir := dataDir(config, days)
		fmt.Printf("Generating %d days of sample data in %s\n", days, dir)
		gen := exec.Command("pulsecheck", "sample", "--data-dir", dir, "--days", strconv.Itoa(days), "--end", config.End)
		if output, err := gen.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to generate sample: %v\nOutput: %s\n", err, string(output))
			continue
		}

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, days, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, days int, command string) BenchmarkResult {
	fmt.Printf("Running %s over %d days\n", command, days)

	cacheDB := filepath.Join(config.WorkDir, fmt.Sprintf("cache-%d-%s.db", days, command))
	_ = os.Remove(cacheDB)

	runPhase := func(cacheBackend, cacheConnect string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, days, command, cacheBackend, cacheConnect, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", "", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", cacheDB, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Days:        days,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a pulsecheck command multiple times and returns the cold time and warm times.
// With the none backend every run is a cold run; the first time is still split off.
func runBenchmark(config BenchmarkConfig, days int, command, cacheBackend, cacheConnect string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--data-dir", dataDir(config, days),
		"--days", strconv.Itoa(days),
		"--end", config.End,
		"--output", "json",
		"--cache-backend", cacheBackend,
	}
	if cacheConnect != "" {
		args = append(args, "--cache-db-connect", cacheConnect)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		err := exec.CommandContext(ctx, "pulsecheck", args...).Run()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil {
			times = append(times, elapsed)
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
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("pulsecheck_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"days", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{strconv.Itoa(result.Days), result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %5d days: No-cache: %s, Cold: %s, Warm: %s\n", result.Days, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
