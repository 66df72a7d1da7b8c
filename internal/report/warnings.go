package report

import (
	"encoding/json"
	"fmt"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Warning is a non-fatal anomaly recorded while loading, parsing or
// enriching reports. Warnings serialize as tagged objects so downstream
// tooling can filter them by type.
type Warning interface {
	fmt.Stringer
	json.Marshaler

	warning()
}

// CouldNotParseWarning records a report that could not be parsed and was
// skipped.
type CouldNotParseWarning struct {
	WaterRightNo waterright.WaterRightNo
	Err          error
}

func (w CouldNotParseWarning) warning() {}

func (w CouldNotParseWarning) String() string {
	return fmt.Sprintf("could not parse report for %d, %v, will be skipped", w.WaterRightNo, w.Err)
}

// MarshalJSON implements json.Marshaler.
func (w CouldNotParseWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string                  `json:"type"`
		WaterRightNo waterright.WaterRightNo `json:"water_right_no"`
		Error        string                  `json:"error"`
	}{"CouldNotParse", w.WaterRightNo, w.Err.Error()})
}

// CouldNotExtractWaterRightNoWarning records a file in the reports
// directory whose name carries no water right number.
type CouldNotExtractWaterRightNoWarning struct {
	FileName string
}

func (w CouldNotExtractWaterRightNoWarning) warning() {}

func (w CouldNotExtractWaterRightNoWarning) String() string {
	return fmt.Sprintf("could not extract water right number from %q, will be ignored", w.FileName)
}

// MarshalJSON implements json.Marshaler.
func (w CouldNotExtractWaterRightNoWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		FileName string `json:"file_name"`
	}{"CouldNotExtractWaterRightNo", w.FileName})
}

// CouldNotLoadReportsWarning sums up the report files that failed to load.
type CouldNotLoadReportsWarning struct {
	Count int
}

func (w CouldNotLoadReportsWarning) warning() {}

func (w CouldNotLoadReportsWarning) String() string {
	return fmt.Sprintf("could not load %d reports", w.Count)
}

// MarshalJSON implements json.Marshaler.
func (w CouldNotLoadReportsWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Count int    `json:"count"`
	}{"CouldNotLoadReports", w.Count})
}

// CouldNotFindUsageLocationWarning records a parsed usage location that
// matched no row of the overview table.
type CouldNotFindUsageLocationWarning struct {
	WaterRightNo waterright.WaterRightNo
}

func (w CouldNotFindUsageLocationWarning) warning() {}

func (w CouldNotFindUsageLocationWarning) String() string {
	return fmt.Sprintf(
		"could not find usage location no for report %d, enrichment may be missing values",
		w.WaterRightNo,
	)
}

// MarshalJSON implements json.Marshaler.
func (w CouldNotFindUsageLocationWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string                  `json:"type"`
		WaterRightNo waterright.WaterRightNo `json:"water_right_no"`
	}{"CouldNotFindUsageLocation", w.WaterRightNo})
}

// MissingLocationsWarning records usage locations listed in the overview
// table but absent from the parsed report.
type MissingLocationsWarning struct {
	WaterRightNo     waterright.WaterRightNo
	MissingLocations []uint64
}

func (w MissingLocationsWarning) warning() {}

func (w MissingLocationsWarning) String() string {
	return fmt.Sprintf(
		"in the report %d the usage locations %v are missing",
		w.WaterRightNo, w.MissingLocations,
	)
}

// MarshalJSON implements json.Marshaler.
func (w MissingLocationsWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type             string                  `json:"type"`
		WaterRightNo     waterright.WaterRightNo `json:"water_right_no"`
		MissingLocations []uint64                `json:"missing_locations"`
	}{"MissingLocations", w.WaterRightNo, w.MissingLocations})
}

// InvalidDateFormatWarning records a date field that does not follow the
// dotted day, month, year layout.
type InvalidDateFormatWarning struct {
	WaterRightNo waterright.WaterRightNo
}

func (w InvalidDateFormatWarning) warning() {}

func (w InvalidDateFormatWarning) String() string {
	return fmt.Sprintf("a date in %d has an invalid format", w.WaterRightNo)
}

// MarshalJSON implements json.Marshaler.
func (w InvalidDateFormatWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string                  `json:"type"`
		WaterRightNo waterright.WaterRightNo `json:"water_right_no"`
	}{"InvalidDateFormat", w.WaterRightNo})
}
