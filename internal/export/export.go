// Package export flattens parsed water rights into a csv table with one row
// per usage location.
package export

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Column names keep the vocabulary of the report documents.
const (
	colNo                     = "Wasserrecht Nr."
	colHolder                 = "Rechtsinhaber"
	colValidFrom              = "Gültig Ab/erteilt am"
	colValidUntil             = "Gültig Bis"
	colStatus                 = "Zustand"
	colLegalTitle             = "Rechtstitel"
	colWaterAuthority         = "Wasserbehörde"
	colRegisteringAuthority   = "eingetragen durch"
	colGrantingAuthority      = "Erteilende Behörde"
	colInitiallyGranted       = "erstmalig erteilt am"
	colLastChange             = "Änderungsdatum"
	colFileReference          = "Aktenzeichen"
	colExternalIdentifier     = "Externe Kennung"
	colSubject                = "Betreff"
	colAddress                = "Adresse"
	colDepartmentAbbreviation = "Abteilungskürzel"
	colDepartmentDescription  = "Abteilungsbezeichnung"
	colLocationNo             = "Nutzungsort Nr."
	colLocationName           = "Nutzungsort/Bezeichnung"
	colLocationSerial         = "Nutzungsort Lfd. Nr."
	colActive                 = "aktiv/inaktiv"
	colReal                   = "real/virtuell"
	colLegalPurpose           = "Rechtszweck"
	colMapExcerpt             = "Top. Karte 1:25.000"
	colMunicipalArea          = "Gemeindegebiet"
	colCounty                 = "Landkreis"
	colLandRecord             = "Gemarkung, Flur"
	colPlot                   = "Flurstück"
	colMaintenanceAssociation = "Unterhaltungsverband"
	colEUSurveyArea           = "EU-Bearbeitungsgebiet"
	colCatchmentAreaCode      = "Einzugsgebietskennzahl"
	colRegulationCitation     = "Verordnungszitat"
	colRiverBasin             = "Flussgebiet"
	colGroundwaterBody        = "Grundwasserkörper"
	colWaterBody              = "Gewässer"
	colFloodArea              = "Überschwemmungsgebiet"
	colWaterProtectionArea    = "Wasserschutzgebiet"
	colIrrigationArea         = "Beregnungsfläche"
	colUTMEasting             = "UTM-Rechtswert"
	colUTMNorthing            = "UTM-Hochwert"
	colAnnotation             = "Bemerkung"

	colWithdrawalRates      = "Entnahmemenge"
	colPumpingRates         = "Förderleistung"
	colInjectionRates       = "Einleitungsmenge"
	colWasteWaterFlowVolume = "Abwasservolumenstrom"
	colFluidDischarge       = "Ableitungsmenge"
	colRainSupplement       = "Zusatzregen"
	colDamTargetDefault     = "Stauziel"
	colDamTargetSteady      = "Dauerstau"
	colDamTargetMax         = "Höchststau"
	colPHMin                = "pH-Werte min"
	colPHMax                = "pH-Werte max"
)

// wellKnownColumns come first in the written table, in the order the report
// documents present them. Columns outside this list, the expanded rate,
// dam target, pH and substance columns, follow sorted lexically.
var wellKnownColumns = []string{
	colNo,
	colHolder,
	colValidFrom,
	colValidUntil,
	colStatus,
	colLegalTitle,
	colWaterAuthority,
	colRegisteringAuthority,
	colGrantingAuthority,
	colInitiallyGranted,
	colLastChange,
	colFileReference,
	colExternalIdentifier,
	colSubject,
	colAddress,
	colDepartmentAbbreviation,
	colDepartmentDescription,
	colLocationNo,
	colLocationName,
	colLocationSerial,
	colActive,
	colReal,
	colLegalPurpose,
	colMapExcerpt,
	colMunicipalArea,
	colCounty,
	colLandRecord,
	colPlot,
	colMaintenanceAssociation,
	colEUSurveyArea,
	colCatchmentAreaCode,
	colRegulationCitation,
	colRiverBasin,
	colGroundwaterBody,
	colWaterBody,
	colFloodArea,
	colWaterProtectionArea,
	colIrrigationArea,
	colUTMEasting,
	colUTMNorthing,
	colAnnotation,
}

// row holds the populated cells of one usage location.
type row map[string]string

func (r row) set(column, value string) {
	r[column] = value
}

func (r row) setString(column string, value *string) {
	if value != nil {
		r[column] = *value
	}
}

func (r row) setUint(column string, value *uint64) {
	if value != nil {
		r[column] = strconv.FormatUint(*value, 10)
	}
}

func (r row) setBool(column string, value *bool) {
	if value != nil {
		r[column] = strconv.FormatBool(*value)
	}
}

// setRates expands the typed entries of a rate record into one column per
// time span, e.g. "Entnahmemenge/a". Fallback entries carry no span to key
// a column on and are left out.
func (r row) setRates(column string, record waterright.RateRecord) {
	for _, entry := range record {
		if entry.IsFallback() {
			continue
		}
		rate := entry.Expected
		r[column+"/"+rate.Per.String()] = formatFloat(rate.Value) + " " + rate.Measurement
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Table is the flattened form of a set of water rights: one row per usage
// location with the fields of its water right repeated.
type Table struct {
	rows []row
	keys map[string]bool
}

// Flatten builds the flat table of all usage locations of the given rights.
func Flatten(rights []*waterright.WaterRight) *Table {
	table := &Table{keys: make(map[string]bool)}
	for _, right := range rights {
		table.flattenWaterRight(right)
	}
	return table
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) add(r row) {
	for key := range r {
		t.keys[key] = true
	}
	t.rows = append(t.rows, r)
}

func (t *Table) flattenWaterRight(right *waterright.WaterRight) {
	abbreviations := make([]waterright.LegalDepartmentAbbreviation, 0, len(right.LegalDepartments))
	for abbreviation := range right.LegalDepartments {
		abbreviations = append(abbreviations, abbreviation)
	}
	slices.Sort(abbreviations)

	for _, abbreviation := range abbreviations {
		department := right.LegalDepartments[abbreviation]
		for i := range department.UsageLocations {
			r := flattenUsageLocation(&department.UsageLocations[i])
			r.set(colDepartmentAbbreviation, department.Abbreviation.String())
			r.set(colDepartmentDescription, department.Description)
			flattenWaterRightInto(r, right)
			t.add(r)
		}
	}
}

func flattenWaterRightInto(r row, right *waterright.WaterRight) {
	r.set(colNo, strconv.FormatUint(right.No, 10))
	r.setString(colHolder, right.Holder)
	r.setString(colValidUntil, right.ValidUntil)
	r.setString(colStatus, right.Status)
	r.setString(colValidFrom, right.ValidFrom)
	r.setString(colLegalTitle, right.LegalTitle)
	r.setString(colWaterAuthority, right.WaterAuthority)
	r.setString(colRegisteringAuthority, right.RegisteringAuthority)
	r.setString(colGrantingAuthority, right.GrantingAuthority)
	r.setString(colInitiallyGranted, right.InitiallyGranted)
	r.setString(colLastChange, right.LastChange)
	r.setString(colFileReference, right.FileReference)
	r.setString(colExternalIdentifier, right.ExternalIdentifier)
	r.setString(colSubject, right.Subject)
	r.setString(colAddress, right.Address)
	r.setString(colAnnotation, right.Annotation)
}

func flattenUsageLocation(location *waterright.UsageLocation) row {
	r := make(row)

	r.setUint(colLocationNo, location.No)
	r.setString(colLocationSerial, location.Serial)
	r.setBool(colActive, location.Active)
	r.setBool(colReal, location.Real)
	r.setString(colLocationName, location.Name)
	if location.LegalPurpose != nil {
		r.set(colLegalPurpose, location.LegalPurpose.String())
	}
	if location.MapExcerpt != nil {
		r.set(colMapExcerpt, location.MapExcerpt.String())
	}
	if location.MunicipalArea != nil {
		r.set(colMunicipalArea, location.MunicipalArea.String())
	}
	r.setString(colCounty, location.County)
	if location.LandRecord != nil {
		r.set(colLandRecord, location.LandRecord.String())
	}
	r.setString(colPlot, location.Plot)
	if location.MaintenanceAssociation != nil {
		r.set(colMaintenanceAssociation, location.MaintenanceAssociation.String())
	}
	if location.EUSurveyArea != nil {
		r.set(colEUSurveyArea, location.EUSurveyArea.String())
	}
	if location.CatchmentAreaCode != nil {
		r.set(colCatchmentAreaCode, location.CatchmentAreaCode.String())
	}
	r.setString(colRegulationCitation, location.RegulationCitation)

	r.setRates(colWithdrawalRates, location.WithdrawalRates)
	r.setRates(colPumpingRates, location.PumpingRates)
	r.setRates(colInjectionRates, location.InjectionRates)
	r.setRates(colWasteWaterFlowVolume, location.WasteWaterFlowVolume)
	r.setRates(colFluidDischarge, location.FluidDischarge)
	r.setRates(colRainSupplement, location.RainSupplement)

	r.setString(colRiverBasin, location.RiverBasin)
	r.setString(colGroundwaterBody, location.GroundwaterBody)
	r.setString(colWaterBody, location.WaterBody)
	r.setString(colFloodArea, location.FloodArea)
	r.setString(colWaterProtectionArea, location.WaterProtectionArea)

	if targets := location.DamTargetLevels; targets != nil {
		if targets.Default != nil {
			r.set(colDamTargetDefault, targets.Default.String())
		}
		if targets.Steady != nil {
			r.set(colDamTargetSteady, targets.Steady.String())
		}
		if targets.Max != nil {
			r.set(colDamTargetMax, targets.Max.String())
		}
	}

	if location.IrrigationArea != nil {
		r.set(colIrrigationArea, location.IrrigationArea.String())
	}
	if values := location.PHValues; values != nil {
		r.setUint(colPHMin, values.Min)
		r.setUint(colPHMax, values.Max)
	}
	for _, limit := range location.InjectionLimits {
		r.set(limit.Substance, limit.Quantity.String())
	}
	r.setUint(colUTMEasting, location.UTMEasting)
	r.setUint(colUTMNorthing, location.UTMNorthing)

	return r
}

// Columns returns the populated column names: the well known columns in
// document order first, then the dynamic columns sorted lexically.
func (t *Table) Columns() []string {
	order := make(map[string]int, len(wellKnownColumns))
	for i, name := range wellKnownColumns {
		order[name] = i
	}

	var fixed, dynamic []string
	for key := range t.keys {
		if _, ok := order[key]; ok {
			fixed = append(fixed, key)
		} else {
			dynamic = append(dynamic, key)
		}
	}
	slices.SortFunc(fixed, func(a, b string) int { return cmp.Compare(order[a], order[b]) })
	slices.Sort(dynamic)
	return append(fixed, dynamic...)
}

// WriteCSV writes the table with a semicolon separator, absent cells stay
// empty.
func (t *Table) WriteCSV(w io.Writer) error {
	columns := t.Columns()

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, r := range t.rows {
		for i, column := range columns {
			record[i] = r[column]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the csv table into path.
func (t *Table) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv export: %w", err)
	}
	if err := t.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("writing csv export: %w", err)
	}
	return file.Close()
}
