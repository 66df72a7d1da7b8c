package main

import (
	"cmp"
	"errors"
	"fmt"
	"log"
	"runtime"
	"slices"

	"github.com/wisdom-oss/nlwkn-go/internal/cadenza"
	"github.com/wisdom-oss/nlwkn-go/internal/config"
	"github.com/wisdom-oss/nlwkn-go/internal/export"
	"github.com/wisdom-oss/nlwkn-go/internal/report"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadParserFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	var selected *waterright.WaterRightNo
	if cfg.No != 0 {
		selected = &cfg.No
	}

	reports, broken, loadWarnings, err := report.LoadReports(cfg.ReportsDir, selected)
	if err != nil {
		return err
	}
	log.Printf("loaded %d reports from %s", len(reports), cfg.ReportsDir)

	var table *cadenza.Table
	if cfg.TablePath != "" {
		table, err = cadenza.LoadTable(cfg.TablePath)
		if err != nil {
			return fmt.Errorf("loading cadenza table: %w", err)
		}
		table.Sanitize()
		log.Printf("loaded cadenza table with %d rows", len(table.Rows()))
	} else {
		log.Printf("no cadenza table given, records stay unenriched")
	}

	results := report.ProcessReports(reports, table, cfg.Workers, report.DefaultSegmentOptions())
	summary := report.Summarize(results, loadWarnings)

	paths, err := report.SaveResults(cfg.ReportsDir, summary, broken)
	if err != nil {
		return err
	}

	if cfg.CSVPath != "" {
		if err := exportCSV(cfg.CSVPath, summary); err != nil {
			return err
		}
	}

	printSummary(summary, broken, paths)
	return nil
}

// exportCSV flattens all parsed water rights, enriched or not, into one
// table with a row per usage location.
func exportCSV(path string, summary *report.Summary) error {
	rights := make([]*waterright.WaterRight, 0, len(summary.WaterRights)+len(summary.PDFOnly))
	rights = append(rights, summary.WaterRights...)
	rights = append(rights, summary.PDFOnly...)
	slices.SortFunc(rights, func(a, b *waterright.WaterRight) int {
		return cmp.Compare(a.No, b.No)
	})

	flat := export.Flatten(rights)
	if err := flat.WriteFile(path); err != nil {
		return err
	}
	log.Printf("exported %d usage location rows to %s", flat.Len(), path)
	return nil
}

func printSummary(summary *report.Summary, broken []report.BrokenReport, paths *report.ResultPaths) {
	fmt.Printf("\nParsed %d water rights\n", len(summary.WaterRights)+len(summary.PDFOnly))
	fmt.Printf("  enriched:       %d\n", len(summary.WaterRights))
	fmt.Printf("  pdf only:       %d\n", len(summary.PDFOnly))
	fmt.Printf("  broken reports: %d\n", len(broken))
	fmt.Printf("  parsing issues: %d\n", len(summary.ParsingIssues))
	fmt.Printf("  warnings:       %d\n", len(summary.Warnings))

	fmt.Printf("\nResults written to:\n")
	fmt.Printf("  %s\n", paths.Reports)
	fmt.Printf("  %s\n", paths.PDFOnly)
	fmt.Printf("  %s\n", paths.Broken)
	fmt.Printf("  %s\n", paths.ParsingIssues)
	fmt.Printf("  %s\n", paths.Warnings)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("NLWKN Cadenza Report Parser\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
