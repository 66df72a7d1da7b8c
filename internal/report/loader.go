package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/wisdom-oss/nlwkn-go/internal/pdf"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// reportFileRe matches downloaded report file names and captures the
// water right number.
var reportFileRe = regexp.MustCompile(`^rep(?P<no>\d+)\.pdf$`)

// maxReportSize caps how large a single report file may be before it is
// rejected as broken.
const maxReportSize = 100 << 20

var validator = pdf.NewValidator(maxReportSize)

// Report is a loaded report document tagged with its water right number.
type Report struct {
	No       waterright.WaterRightNo
	Document *pdf.Document
}

// BrokenReport is a report file that could not be opened.
type BrokenReport struct {
	No  waterright.WaterRightNo
	Err error
}

// LoadReport opens a single report document. The water right number is
// taken from the file name where it matches the downloaded naming scheme
// and stays zero otherwise.
func LoadReport(path string) (Report, error) {
	name := filepath.Base(path)

	var no waterright.WaterRightNo
	if match := reportFileRe.FindStringSubmatch(name); match != nil {
		parsed, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return Report{}, fmt.Errorf("parsing water right number from %q: %w", name, err)
		}
		no = parsed
	}

	if err := validator.ValidateFile(path); err != nil {
		return Report{}, fmt.Errorf("invalid report: %w", err)
	}

	document, err := pdf.OpenFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("opening report: %w", err)
	}
	return Report{No: no, Document: document}, nil
}

// LoadReports opens all report documents in a directory. Files not named
// like downloaded reports are skipped with a warning, files that fail to
// open are collected separately. When selected is set, only the matching
// report is loaded.
func LoadReports(dir string, selected *waterright.WaterRightNo) ([]Report, []BrokenReport, []Warning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading reports directory: %w", err)
	}

	var reports []Report
	var broken []BrokenReport
	var warnings []Warning

	for _, entry := range entries {
		name := entry.Name()
		match := reportFileRe.FindStringSubmatch(name)
		if match == nil {
			warnings = append(warnings, CouldNotExtractWaterRightNoWarning{FileName: name})
			continue
		}
		no, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, nil, warnings, fmt.Errorf("parsing water right number from %q: %w", name, err)
		}
		if selected != nil && *selected != no {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			broken = append(broken, BrokenReport{No: no, Err: err})
			continue
		}
		if err := validator.ValidateFileInfo(path, info); err != nil {
			broken = append(broken, BrokenReport{No: no, Err: err})
			continue
		}

		document, err := pdf.OpenFile(path)
		if err != nil {
			broken = append(broken, BrokenReport{No: no, Err: err})
			continue
		}
		reports = append(reports, Report{No: no, Document: document})
	}

	if len(broken) > 0 {
		warnings = append(warnings, CouldNotLoadReportsWarning{Count: len(broken)})
	}

	return reports, broken, warnings, nil
}
