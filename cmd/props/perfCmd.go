package props

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the property store",
		Long:    "Runs the benchmarks on a scratch object. The database file is not modified.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfPathPrefix       = "/__test"
	perfLargeValueSizeKB = 100
	perfPathSpread       = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "paths"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different property paths to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfPathSpread = max(viper.GetInt("paths"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	defer database.Close()

	fmt.Println("Performance testing tool for the property store")
	fmt.Println()
	fmt.Printf("Database: %s (%s, %d objects)\n", database.Path(), database.Info().DbType, database.Len())
	fmt.Printf("Paths: %d\n", perfPathSpread)
	fmt.Println()

	fmt.Println("staring tests...")

	// scratch object, never saved
	obj := database.NewObject("perf scratch", db.TypeThing, prop.Nothing, prop.Nothing)

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	setResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set") {
			return
		}

		getPath, iter := getPaths("set")
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "set") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := propStore.SetString(obj, getPath(i), "test"); err != nil {
				log.Printf("(set) - error setting property: %v\n", err)
			}
		}
	})

	results["set"] = setResult
	printResult("set", setResult)

	setLargeValueResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set-large") {
			return
		}

		// prepare large value
		largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

		getPath, iter := getPaths("set-large")
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "set-large") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := propStore.SetString(obj, getPath(i), largeValue); err != nil {
				log.Printf("(set-large) - error setting property: %v", err)
			}
		}
	})

	results["set-large"] = setLargeValueResult
	printResult("large-set", setLargeValueResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		getPath, iter := getPaths("get")
		iter(func(p string) { setPath(obj, p, "get") })
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "get") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			propStore.GetString(obj, getPath(i))
		}
	})

	results["get"] = getResult
	printResult("get", getResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("delete") {
			return
		}

		getPath, iter := getPaths("delete")
		iter(func(p string) { setPath(obj, p, "delete") })
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "delete") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := propStore.Remove(obj, getPath(i), false); err != nil {
				log.Printf("(delete) - error removing property: %v\n", err)
			}
		}
	})

	results["delete"] = deleteResult
	printResult("delete", deleteResult)

	existsResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("exists") {
			return
		}

		getPath, iter := getPaths("exists")
		iter(func(p string) { setPath(obj, p, "exists") })
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "exists") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			propStore.Exists(obj, getPath(i))
		}
	})

	results["exists"] = existsResult
	printResult("exists", existsResult)

	listResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("list") {
			return
		}

		_, iter := getPaths("list")
		iter(func(p string) { setPath(obj, p, "list") })
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "list") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			propStore.List(obj, perfPathPrefix+"-list", prop.AccessMortal)
		}
	})

	results["list"] = listResult
	printResult("list", listResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		getPath, iter := getPaths("mixed")
		iter(func(p string) { setPath(obj, p, "mixed") })
		b.Cleanup(func() { iter(func(p string) { removePath(obj, p, "mixed") }) })

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			path := getPath(i)
			var err error
			switch i % 4 {
			case 0: // set
				err = propStore.SetInt(obj, path, i+1)
			case 1: // get
				propStore.GetInt(obj, path)
			case 2: // delete
				err = propStore.Remove(obj, path, false)
			case 3: // exists
				propStore.Exists(obj, path)
			}

			if err != nil {
				log.Printf("(mixed) - error performing operation (%d): %v\n", i%4, err)
			}
		}
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test paths and functions to work with them
func getPaths(test string) (func(int) string, func(func(string))) {
	paths := make([]string, perfPathSpread)
	for i := 0; i < perfPathSpread; i++ {
		paths[i] = fmt.Sprintf("%s-%s/%d", perfPathPrefix, test, i)
	}

	// Function to get a path by index (with wraparound)
	getPath := func(i int) string {
		return paths[i%perfPathSpread]
	}

	// Function to iterate over all paths and apply a function to each
	iteratePaths := func(fn func(string)) {
		for _, path := range paths {
			fn(path)
		}
	}

	return getPath, iteratePaths
}

func setPath(obj prop.DBRef, path, test string) {
	if err := propStore.SetString(obj, path, "test"); err != nil {
		log.Printf("(%s) - error setting property: %v\n", test, err)
	}
}

func removePath(obj prop.DBRef, path, test string) {
	if err := propStore.Remove(obj, path, false); err != nil {
		log.Printf("(%s) - error removing property: %v\n", test, err)
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Database", "Implementation", "Objects", "LargeValueSizeKB", "Paths",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	info := database.Info()

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			database.Path(),
			string(info.DbType),
			strconv.Itoa(database.Len()),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfPathSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
