package report

import (
	"cmp"
	"fmt"
	"log"
	"runtime"
	"slices"
	"sync"

	"github.com/wisdom-oss/nlwkn-go/internal/cadenza"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Result is the outcome of processing one report document.
type Result struct {
	No         waterright.WaterRightNo
	WaterRight *waterright.WaterRight
	Enriched   bool
	Warnings   []Warning
	Err        error
}

// ProcessReport runs the pipeline for one report: parse the document,
// enrich the water right from the overview table and clean up the result.
// A nil table skips enrichment.
func ProcessReport(report Report, table *cadenza.Table, options SegmentOptions) Result {
	waterRight := waterright.NewWaterRight(report.No)

	notes, err := parseDocument(report, waterRight, options)
	for _, note := range notes {
		log.Printf("report %d: %s", report.No, note)
	}
	if err != nil {
		return Result{No: report.No, Err: err}
	}

	enriched, warnings := Enrich(waterRight, table)
	warnings = append(warnings, PostProcess(waterRight)...)

	return Result{
		No:         report.No,
		WaterRight: waterRight,
		Enriched:   enriched,
		Warnings:   warnings,
	}
}

// parseDocument shields ParseDocument against panics, which the PDF
// libraries can raise on malformed files deep inside a batch.
func parseDocument(report Report, waterRight *waterright.WaterRight, options SegmentOptions) (notes []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return ParseDocument(report.Document, waterRight, options)
}

// ProcessReports runs the pipeline for all reports on the given number of
// workers, zero meaning one worker per CPU. Reports are independent of
// each other, so the results only need to be reordered by water right
// number at the end.
func ProcessReports(reports []Report, table *cadenza.Table, workers int, options SegmentOptions) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan Report)
	results := make(chan Result)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for report := range jobs {
				results <- ProcessReport(report, table, options)
			}
		}()
	}

	go func() {
		for _, report := range reports {
			jobs <- report
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]Result, 0, len(reports))
	for result := range results {
		collected = append(collected, result)
		log.Printf("parsed report %d (%d/%d)", result.No, len(collected), len(reports))
		for _, warning := range result.Warnings {
			log.Printf("warning: %s", warning)
		}
	}

	slices.SortFunc(collected, func(a, b Result) int {
		return cmp.Compare(a.No, b.No)
	})
	return collected
}
