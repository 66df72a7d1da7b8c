// Package report reconstructs structured water rights from cadenza report
// documents. The drawing operations of each page are folded into text
// blocks, paired into labeled values, segmented into the water right root
// and its legal departments and finally parsed field by field.
package report

import (
	"github.com/wisdom-oss/nlwkn-go/internal/pdf"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// ParseBlocks builds a water right from per page text blocks. A returned
// error means the report could not be understood at all.
func ParseBlocks(pages [][]TextBlock, waterRight *waterright.WaterRight, options SegmentOptions) error {
	record, err := Segment(GroupKeyValues(pages), options)
	if err != nil {
		return err
	}
	if err := parseRoot(record.Root, waterRight); err != nil {
		return err
	}
	if err := parseDepartments(record.Departments, waterRight); err != nil {
		return err
	}
	waterRight.Annotation = record.Annotation
	return nil
}

// ParseDocument builds a water right from all pages of a report document.
// It returns non-fatal anomaly messages alongside the result.
func ParseDocument(document *pdf.Document, waterRight *waterright.WaterRight, options SegmentOptions) ([]string, error) {
	pageCount := document.PageCount()
	pages := make([][]TextBlock, 0, pageCount)
	var warnings []string

	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		operations, err := document.PageOperations(pageNr)
		if err != nil {
			return warnings, err
		}
		blocks, notes := AssembleTextBlocks(operations)
		warnings = append(warnings, notes...)
		pages = append(pages, blocks)
	}

	return warnings, ParseBlocks(pages, waterRight, options)
}
