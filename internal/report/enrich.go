package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/cadenza"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Enrich backfills a parsed water right with the overview table columns
// the report itself does not carry. It reports whether any table row
// belongs to the water right and returns warnings for locations and rows
// that could not be matched up.
func Enrich(waterRight *waterright.WaterRight, table *cadenza.Table) (bool, []Warning) {
	if table == nil {
		return false, nil
	}

	var warnings []Warning
	enriched := false

	rows := table.Rows()
	for i := range rows {
		row := &rows[i]
		if row.No != waterRight.No {
			continue
		}
		enriched = true
		updateIfNil(&waterRight.Holder, row.RightsHolder)
		updateIfNil(&waterRight.ValidUntil, row.ValidUntil)
		updateIfNil(&waterRight.Status, row.Status)
		updateIfNil(&waterRight.ValidFrom, row.ValidFrom)
		updateIfNil(&waterRight.LegalTitle, row.LegalTitle)
		updateIfNil(&waterRight.WaterAuthority, row.WaterAuthority)
		updateIfNil(&waterRight.GrantingAuthority, row.GrantingAuthority)
		updateIfNil(&waterRight.LastChange, row.DateOfChange)
		updateIfNil(&waterRight.FileReference, row.FileReference)
		updateIfNil(&waterRight.ExternalIdentifier, row.ExternalIdentifier)
		updateIfNil(&waterRight.Address, row.Address)
	}

	relevant, order := relevantRows(rows, waterRight.No)

	for _, location := range waterRight.UsageLocations() {
		row := matchRow(location, relevant, order)
		if row == nil {
			warnings = append(warnings, CouldNotFindUsageLocationWarning{
				WaterRightNo: waterRight.No,
			})
			continue
		}
		// a row enriches exactly one location
		delete(relevant, row.UsageLocationNo)

		enrichUsageLocation(location, row)
	}

	if len(relevant) > 0 {
		missing := make([]uint64, 0, len(relevant))
		for no := range relevant {
			missing = append(missing, no)
		}
		slices.Sort(missing)
		warnings = append(warnings, MissingLocationsWarning{
			WaterRightNo:     waterRight.No,
			MissingLocations: missing,
		})
	}

	return enriched, warnings
}

// relevantRows indexes the rows of one water right by usage location
// number, keeping the table order for deterministic matching.
func relevantRows(rows []cadenza.Row, no waterright.WaterRightNo) (map[uint64]*cadenza.Row, []uint64) {
	relevant := make(map[uint64]*cadenza.Row)
	var order []uint64
	for i := range rows {
		row := &rows[i]
		if row.No != no {
			continue
		}
		if _, seen := relevant[row.UsageLocationNo]; !seen {
			order = append(order, row.UsageLocationNo)
		}
		relevant[row.UsageLocationNo] = row
	}
	return relevant, order
}

// matchRow finds the table row describing a usage location. A matching
// name wins over matching coordinates.
func matchRow(
	location *waterright.UsageLocation,
	relevant map[uint64]*cadenza.Row,
	order []uint64,
) *cadenza.Row {
	var byCoordinates *cadenza.Row
	for _, no := range order {
		row, ok := relevant[no]
		if !ok {
			continue
		}
		if location.Name != nil && row.UsageLocation != nil && *row.UsageLocation == *location.Name {
			return row
		}
		if byCoordinates == nil && coordinatesMatch(location, row) {
			byCoordinates = row
		}
	}
	return byCoordinates
}

func coordinatesMatch(location *waterright.UsageLocation, row *cadenza.Row) bool {
	return location.UTMEasting != nil && row.UTMEasting != nil &&
		*location.UTMEasting == *row.UTMEasting &&
		location.UTMNorthing != nil && row.UTMNorthing != nil &&
		*location.UTMNorthing == *row.UTMNorthing
}

func enrichUsageLocation(location *waterright.UsageLocation, row *cadenza.Row) {
	no := row.UsageLocationNo
	if location.No == nil {
		location.No = &no
	}
	if location.LegalPurpose == nil && row.LegalPurpose != nil {
		if code, name, found := strings.Cut(*row.LegalPurpose, " "); found {
			location.LegalPurpose = &waterright.StringPair{code, name}
		}
	}
	updateIfNil(&location.County, row.County)
	updateIfNil(&location.RiverBasin, row.RiverBasin)
	updateIfNil(&location.GroundwaterBody, row.GroundwaterBody)
	updateIfNil(&location.FloodArea, row.FloodArea)
	updateIfNil(&location.WaterProtectionArea, row.WaterProtectionArea)
	updateIfNil(&location.UTMEasting, row.UTMEasting)
	updateIfNil(&location.UTMNorthing, row.UTMNorthing)

	// a zero coordinate means the value is unknown
	if location.UTMEasting != nil && *location.UTMEasting == 0 {
		location.UTMEasting = nil
	}
	if location.UTMNorthing != nil && *location.UTMNorthing == 0 {
		location.UTMNorthing = nil
	}
}

// PostProcess cleans up a parsed and enriched water right: the annotation
// label is stripped, a missing granting authority falls back to the
// registering authority, which then also granted the right, and dates are
// reordered into ISO form.
func PostProcess(waterRight *waterright.WaterRight) []Warning {
	var warnings []Warning

	if annotation := waterRight.Annotation; annotation != nil {
		switch {
		case *annotation == "Bemerkung:":
			waterRight.Annotation = nil
		case strings.HasPrefix(*annotation, "Bemerkung: "):
			stripped := strings.TrimPrefix(*annotation, "Bemerkung: ")
			waterRight.Annotation = &stripped
		}
	}

	if waterRight.GrantingAuthority == nil && waterRight.RegisteringAuthority != nil {
		granting := *waterRight.RegisteringAuthority
		waterRight.GrantingAuthority = &granting
	}

	for _, date := range []**string{
		&waterRight.ValidUntil,
		&waterRight.ValidFrom,
		&waterRight.InitiallyGranted,
		&waterRight.LastChange,
	} {
		if *date == nil {
			continue
		}
		parts := strings.Split(**date, ".")
		if len(parts) > 3 {
			warnings = append(warnings, InvalidDateFormatWarning{WaterRightNo: waterRight.No})
			continue
		}
		if len(parts) == 3 {
			iso := fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
			*date = &iso
		}
	}

	return warnings
}

// updateIfNil copies the source value into the target if the target has
// no value yet.
func updateIfNil[T any](target **T, source *T) {
	if *target == nil && source != nil {
		value := *source
		*target = &value
	}
}
