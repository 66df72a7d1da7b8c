// Package cadenza reads the xlsx tables exported from the cadenza portal and
// provides diffing between two exports of the water right master data.
package cadenza

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Row is one line of a cadenza table export. The JSON field names mirror the
// column headers of the export so diff files keep the original vocabulary.
type Row struct {
	No                  waterright.WaterRightNo `json:"Wasserrecht Nr."`
	RightsHolder        *string                 `json:"Rechtsinhaber"`
	ValidUntil          *string                 `json:"Gültig Bis"`
	Status              *string                 `json:"Zustand"`
	ValidFrom           *string                 `json:"Gültig Ab"`
	LegalDepartments    *string                 `json:"Rechtsabteilungen"`
	LegalTitle          *string                 `json:"Rechtstitel"`
	WaterAuthority      *string                 `json:"Wasserbehoerde"`
	GrantingAuthority   *string                 `json:"Erteilende Behoerde"`
	DateOfChange        *string                 `json:"Aenderungsdatum"`
	FileReference       *string                 `json:"Aktenzeichen"`
	ExternalIdentifier  *string                 `json:"Externe Kennung"`
	Subject             *string                 `json:"Betreff"`
	Address             *string                 `json:"Adresse"`
	UsageLocationNo     uint64                  `json:"Nutzungsort Nr."`
	UsageLocation       *string                 `json:"Nutzungsort"`
	LegalDepartment     string                  `json:"Rechtsabteilung"`
	LegalPurpose        *string                 `json:"Rechtszweck"`
	County              *string                 `json:"Landkreis"`
	RiverBasin          *string                 `json:"Flussgebiet"`
	GroundwaterBody     *string                 `json:"Grundwasserkörper"`
	FloodArea           *string                 `json:"Überschwemmungsgebiet"`
	WaterProtectionArea *string                 `json:"Wasserschutzgebiet"`
	UTMEasting          *uint64                 `json:"UTM-Rechtswert"`
	UTMNorthing         *uint64                 `json:"UTM-Hochwert"`
}

// key identifies a row by water right number and usage location number.
func (r *Row) key() [2]uint64 {
	return [2]uint64{r.No, r.UsageLocationNo}
}

type columnSetter func(row *Row, cell string) error

// columnSetters maps the known column headers onto row fields. Any header
// outside this set makes the table load fail so silent schema drift of the
// export cannot slip through.
var columnSetters = map[string]columnSetter{
	"Wasserrecht Nr.": func(row *Row, cell string) (err error) {
		row.No, err = requiredUint(cell)
		return err
	},
	"Rechtsinhaber": func(row *Row, cell string) error {
		row.RightsHolder = optionalString(cell)
		return nil
	},
	"Gültig Bis": func(row *Row, cell string) (err error) {
		row.ValidUntil, err = dateCell(cell)
		return err
	},
	"Zustand": func(row *Row, cell string) error {
		row.Status = optionalString(cell)
		return nil
	},
	"Gültig Ab": func(row *Row, cell string) (err error) {
		row.ValidFrom, err = dateCell(cell)
		return err
	},
	"Rechtsabteilungen": func(row *Row, cell string) error {
		row.LegalDepartments = optionalString(cell)
		return nil
	},
	"Rechtstitel": func(row *Row, cell string) error {
		row.LegalTitle = optionalString(cell)
		return nil
	},
	"Wasserbehoerde": func(row *Row, cell string) error {
		row.WaterAuthority = optionalString(cell)
		return nil
	},
	"Erteilende Behoerde": func(row *Row, cell string) error {
		row.GrantingAuthority = optionalString(cell)
		return nil
	},
	"Aenderungsdatum": func(row *Row, cell string) (err error) {
		row.DateOfChange, err = dateCell(cell)
		return err
	},
	"Aktenzeichen": func(row *Row, cell string) error {
		row.FileReference = optionalString(cell)
		return nil
	},
	"Externe Kennung": func(row *Row, cell string) error {
		row.ExternalIdentifier = optionalString(cell)
		return nil
	},
	"Betreff": func(row *Row, cell string) error {
		row.Subject = optionalString(cell)
		return nil
	},
	"Adresse": func(row *Row, cell string) error {
		row.Address = optionalString(cell)
		return nil
	},
	"Nutzungsort Nr.": func(row *Row, cell string) (err error) {
		row.UsageLocationNo, err = requiredUint(cell)
		return err
	},
	"Nutzungsort": func(row *Row, cell string) error {
		row.UsageLocation = optionalString(cell)
		return nil
	},
	"Rechtsabteilung": func(row *Row, cell string) error {
		row.LegalDepartment = cell
		return nil
	},
	"Rechtszweck": func(row *Row, cell string) error {
		row.LegalPurpose = optionalString(cell)
		return nil
	},
	"Landkreis": func(row *Row, cell string) error {
		row.County = optionalString(cell)
		return nil
	},
	"Flussgebiet": func(row *Row, cell string) error {
		row.RiverBasin = optionalString(cell)
		return nil
	},
	"Grundwasserkörper": func(row *Row, cell string) error {
		row.GroundwaterBody = optionalString(cell)
		return nil
	},
	"Überschwemmungsgebiet": func(row *Row, cell string) error {
		row.FloodArea = optionalString(cell)
		return nil
	},
	"Wasserschutzgebiet": func(row *Row, cell string) error {
		row.WaterProtectionArea = optionalString(cell)
		return nil
	},
	"UTM-Rechtswert": func(row *Row, cell string) (err error) {
		row.UTMEasting, err = utmCell(cell)
		return err
	},
	"UTM-Hochwert": func(row *Row, cell string) (err error) {
		row.UTMNorthing, err = utmCell(cell)
		return err
	},
}

// requiredColumns must be present in the header row, everything else may be
// left out of an export.
var requiredColumns = []string{"Wasserrecht Nr.", "Nutzungsort Nr.", "Rechtsabteilung"}

// Table is one parsed cadenza xlsx export.
type Table struct {
	path string
	rows []Row
}

// LoadTable reads the first worksheet of a cadenza xlsx export.
func LoadTable(path string) (*Table, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s is empty", path)
	}

	raw, err := workbook.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheets[0], err)
	}
	if len(raw) == 0 {
		return &Table{path: path}, nil
	}

	headers := raw[0]
	setters := make([]columnSetter, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, header := range headers {
		setter, ok := columnSetters[header]
		if !ok {
			return nil, fmt.Errorf("unknown column %q in %s", header, path)
		}
		setters[i] = setter
		seen[header] = true
	}
	for _, required := range requiredColumns {
		if !seen[required] {
			return nil, fmt.Errorf("missing column %q in %s", required, path)
		}
	}

	rows := make([]Row, 0, len(raw)-1)
	for rowIdx, cells := range raw[1:] {
		var row Row
		for colIdx, setter := range setters {
			cell := ""
			if colIdx < len(cells) {
				cell = cells[colIdx]
			}
			if err := setter(&row, cell); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", rowIdx+2, headers[colIdx], err)
			}
		}
		rows = append(rows, row)
	}

	return &Table{path: path, rows: rows}, nil
}

// NewTable builds a table from already parsed rows.
func NewTable(rows []Row) *Table {
	return &Table{rows: rows}
}

// Rows returns the parsed rows in their current order.
func (t *Table) Rows() []Row {
	return t.rows
}

// WaterRightNos returns every distinct water right number, ordered by first
// occurrence. Sort the table beforehand if a different order is needed.
func (t *Table) WaterRightNos() []waterright.WaterRightNo {
	nos := make([]waterright.WaterRightNo, 0, len(t.rows))
	known := make(map[waterright.WaterRightNo]bool, len(t.rows))
	for i := range t.rows {
		if no := t.rows[i].No; !known[no] {
			known[no] = true
			nos = append(nos, no)
		}
	}
	return nos
}

// SortBy sorts the rows with the given comparison, keeping equal rows in
// their current order.
func (t *Table) SortBy(compare func(a, b *Row) int) {
	slices.SortStableFunc(t.rows, func(a, b Row) int {
		return compare(&a, &b)
	})
}

// Sanitize trims all free-text cells and drops the ones that carry no
// content, i.e. are empty or a placeholder dash.
func (t *Table) Sanitize() {
	for i := range t.rows {
		row := &t.rows[i]
		row.RightsHolder = sanitize(row.RightsHolder)
		row.ValidUntil = sanitize(row.ValidUntil)
		row.Status = sanitize(row.Status)
		row.ValidFrom = sanitize(row.ValidFrom)
		row.LegalDepartments = sanitize(row.LegalDepartments)
		row.LegalTitle = sanitize(row.LegalTitle)
		row.WaterAuthority = sanitize(row.WaterAuthority)
		row.GrantingAuthority = sanitize(row.GrantingAuthority)
		row.DateOfChange = sanitize(row.DateOfChange)
		row.FileReference = sanitize(row.FileReference)
		row.ExternalIdentifier = sanitize(row.ExternalIdentifier)
		row.Subject = sanitize(row.Subject)
		row.Address = sanitize(row.Address)
		row.UsageLocation = sanitize(row.UsageLocation)
		row.LegalPurpose = sanitize(row.LegalPurpose)
		row.County = sanitize(row.County)
		row.RiverBasin = sanitize(row.RiverBasin)
		row.GroundwaterBody = sanitize(row.GroundwaterBody)
		row.FloodArea = sanitize(row.FloodArea)
		row.WaterProtectionArea = sanitize(row.WaterProtectionArea)
	}
}

// IsoDate converts the default cadenza file name into an ISO 8601 timestamp.
//
// For example "table04042024125645598.xlsx" results in
// "2024-04-04T12:56:45.598". File names in another shape yield nil.
func (t *Table) IsoDate() *string {
	stem := strings.TrimSuffix(filepath.Base(t.path), filepath.Ext(t.path))
	digits, found := strings.CutPrefix(stem, "table")
	if !found || len(digits) != 17 || !isASCII(digits) {
		return nil
	}

	date := fmt.Sprintf(
		"%s-%s-%sT%s:%s:%s.%s",
		digits[4:8], digits[2:4], digits[0:2],
		digits[8:10], digits[10:12], digits[12:14], digits[14:17],
	)
	return &date
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize trims a free-text value and drops it entirely when nothing of
// substance remains.
func sanitize(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || trimmed == "-" {
		return nil
	}
	return &trimmed
}

func optionalString(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}

func requiredUint(cell string) (uint64, error) {
	if cell == "" {
		return 0, fmt.Errorf("missing required numeric cell")
	}
	if parsed, err := strconv.ParseUint(cell, 10, 64); err == nil {
		return parsed, nil
	}
	parsed, err := strconv.ParseFloat(cell, 64)
	if err != nil || parsed < 0 || parsed != math.Trunc(parsed) {
		return 0, fmt.Errorf("cannot convert %q to an unsigned integer", cell)
	}
	return uint64(parsed), nil
}

func utmCell(cell string) (*uint64, error) {
	if cell == "" {
		return nil, nil
	}
	parsed, err := requiredUint(cell)
	if err != nil {
		return nil, err
	}
	if parsed == 0 {
		return nil, nil
	}
	return &parsed, nil
}

// excelEpoch is day zero of the 1900 date system, chosen so the historic
// leap year bug of that system stays accounted for.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateCell converts a serial date cell into a "YYYY-MM-DD" string.
func dateCell(cell string) (*string, error) {
	if cell == "" {
		return nil, nil
	}
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %q to a date", cell)
	}
	date := excelEpoch.AddDate(0, 0, int(serial)).Format("2006-01-02")
	return &date, nil
}
