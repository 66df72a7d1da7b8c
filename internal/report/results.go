package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Summary partitions a parser run into enriched water rights, rights only
// backed by their report document and failed parses, with all warnings
// folded into one list.
type Summary struct {
	WaterRights   []*waterright.WaterRight
	PDFOnly       []*waterright.WaterRight
	ParsingIssues map[waterright.WaterRightNo]string
	Warnings      []Warning
}

// Summarize folds processed results and the load warnings into a summary.
// Failed parses are recorded both as parsing issue and as warning.
func Summarize(results []Result, loadWarnings []Warning) *Summary {
	summary := &Summary{
		WaterRights:   []*waterright.WaterRight{},
		PDFOnly:       []*waterright.WaterRight{},
		ParsingIssues: map[waterright.WaterRightNo]string{},
		Warnings:      append([]Warning{}, loadWarnings...),
	}

	for _, result := range results {
		if result.Err != nil {
			warning := CouldNotParseWarning{WaterRightNo: result.No, Err: result.Err}
			log.Printf("warning: %s", warning)
			summary.ParsingIssues[result.No] = result.Err.Error()
			summary.Warnings = append(summary.Warnings, warning)
			continue
		}

		summary.Warnings = append(summary.Warnings, result.Warnings...)
		if result.Enriched {
			summary.WaterRights = append(summary.WaterRights, result.WaterRight)
		} else {
			summary.PDFOnly = append(summary.PDFOnly, result.WaterRight)
		}
	}

	return summary
}

// ResultPaths lists the files one parser run writes.
type ResultPaths struct {
	Reports       string
	PDFOnly       string
	Broken        string
	ParsingIssues string
	Warnings      string
}

const (
	reportsAppendix       = ".reports.json"
	pdfOnlyAppendix       = ".pdf-only-reports.json"
	brokenAppendix        = ".broken-reports.json"
	parsingIssuesAppendix = ".parsing-issues.json"
	warningsAppendix      = ".warnings.json"
)

// SaveResults writes the outcome of a parser run next to the reports
// directory, named after it. The water right collections are written
// compact, the diagnostic files are pretty printed.
func SaveResults(reportsDir string, summary *Summary, broken []BrokenReport) (*ResultPaths, error) {
	parent := filepath.Dir(reportsDir)
	dirName := filepath.Base(reportsDir)
	outFilePath := func(appendix string) string {
		return filepath.Join(parent, dirName+appendix)
	}

	paths := &ResultPaths{
		Reports:       outFilePath(reportsAppendix),
		PDFOnly:       outFilePath(pdfOnlyAppendix),
		Broken:        outFilePath(brokenAppendix),
		ParsingIssues: outFilePath(parsingIssuesAppendix),
		Warnings:      outFilePath(warningsAppendix),
	}

	brokenNos := make([]waterright.WaterRightNo, 0, len(broken))
	for _, report := range broken {
		brokenNos = append(brokenNos, report.No)
	}

	if err := writeJSON(paths.Reports, summary.WaterRights, false); err != nil {
		return nil, err
	}
	if err := writeJSON(paths.PDFOnly, summary.PDFOnly, false); err != nil {
		return nil, err
	}
	if err := writeJSON(paths.Broken, brokenNos, true); err != nil {
		return nil, err
	}
	if err := writeJSON(paths.ParsingIssues, summary.ParsingIssues, true); err != nil {
		return nil, err
	}
	if err := writeJSON(paths.Warnings, summary.Warnings, true); err != nil {
		return nil, err
	}

	return paths, nil
}

func writeJSON(path string, value any, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
