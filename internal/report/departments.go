package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

var (
	usageLocationRe = regexp.MustCompile(`^(?P<serial>.*) \((?P<active>\w+), (?P<real>\w+)\)$`)
	landRecordRe    = regexp.MustCompile(`^(?P<district>\D+)\s*(?P<field>\d+)$`)
)

// parseDepartments applies the department sections to the water right.
// Department labels carry the abbreviation, a dash and the description.
func parseDepartments(departments []DepartmentGroup, waterRight *waterright.WaterRight) error {
	for _, department := range departments {
		parts := strings.SplitN(department.Label, " ", 3)
		abbreviation, err := waterright.ParseLegalDepartmentAbbreviation(parts[0])
		if err != nil {
			return err
		}
		if len(parts) < 3 {
			return errors.New("department is missing description")
		}

		legalDepartment := waterright.NewLegalDepartment(abbreviation, parts[2])
		for _, pairs := range department.UsageLocations {
			var location waterright.UsageLocation
			if err := parseUsageLocation(pairs, &location, abbreviation); err != nil {
				return err
			}
			legalDepartment.UsageLocations = append(legalDepartment.UsageLocations, location)
		}
		waterRight.LegalDepartments[abbreviation] = legalDepartment
	}

	return nil
}

func parseUsageLocation(
	pairs []KeyValuePair,
	location *waterright.UsageLocation,
	department waterright.LegalDepartmentAbbreviation,
) error {
	for _, pair := range pairs {
		first := valueAt(pair.Values, 0)
		second := valueAt(pair.Values, 1)

		switch pair.Key {
		case usageLocationKey:
			if first == nil {
				return usageLocationEntryError(pair.Key, first, second)
			}
			match := usageLocationRe.FindStringSubmatch(*first)
			if match == nil {
				return fmt.Errorf("'Nutzungsort' has invalid format: %s", *first)
			}
			serial := match[1]
			active := match[2] == "aktiv"
			real := match[3] == "real"
			location.Serial = &serial
			location.Active = &active
			location.Real = &real

		case "Bezeichnung:":
			if first != nil {
				name := strings.ReplaceAll(*first, "\n", " ")
				location.Name = &name
			}

		case "Rechtszweck:":
			if first == nil {
				return usageLocationEntryError(pair.Key, first, second)
			}
			if code, name, found := strings.Cut(*first, " "); found {
				location.LegalPurpose = &waterright.StringPair{code, name}
			}

		case "East und North:":
			if first == nil {
				return usageLocationEntryError(pair.Key, first, second)
			}
			easting, err := strconv.ParseUint(*first, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid easting: %w", err)
			}
			location.UTMEasting = &easting

		case "(ETRS89/UTM 32N)":
			if first == nil {
				return usageLocationEntryError(pair.Key, first, second)
			}
			northing, err := strconv.ParseUint(*first, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid northing: %w", err)
			}
			location.UTMNorthing = &northing

		case "Top. Karte 1:25.000:":
			switch {
			case first == nil && second == nil:
			case first == nil:
				return usageLocationEntryError(pair.Key, first, second)
			default:
				code, err := strconv.ParseUint(strings.ReplaceAll(*first, " ", ""), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid map excerpt: %w", err)
				}
				location.MapExcerpt = &waterright.SingleOrPair{Code: code, Name: second}
			}

		case "Gemeindegebiet:":
			municipalArea, err := parseCodePair(pair.Key, first, second)
			if err != nil {
				return err
			}
			if municipalArea != nil {
				location.MunicipalArea = municipalArea
			}

		case "Gemarkung, Flur:":
			switch {
			case first == nil && second == nil:
			case first == nil:
				return usageLocationEntryError(pair.Key, first, second)
			default:
				record, err := parseLandRecord(*first)
				if err != nil {
					return err
				}
				location.LandRecord = record
			}

		case "Flurstück:":
			switch {
			case first == nil && second == nil:
			case first == nil:
				return usageLocationEntryError(pair.Key, first, second)
			default:
				location.Plot = first
			}

		case "Unterhaltungsverband:":
			maintenanceAssociation, err := parseCodePair(pair.Key, first, second)
			if err != nil {
				return err
			}
			if maintenanceAssociation != nil {
				location.MaintenanceAssociation = maintenanceAssociation
			}

		case "EU-Bearbeitungsgebiet:":
			euSurveyArea, err := parseCodePair(pair.Key, first, second)
			if err != nil {
				return err
			}
			if euSurveyArea != nil {
				location.EUSurveyArea = euSurveyArea
			}

		case "Gewässer:":
			location.WaterBody = first

		case "Einzugsgebietskennzahl:":
			switch {
			case first == nil && second == nil:
			case first == nil:
				return usageLocationEntryError(pair.Key, first, second)
			default:
				code, err := strconv.ParseUint(strings.ReplaceAll(*first, " ", ""), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid catchment area code: %w", err)
				}
				location.CatchmentAreaCode = &waterright.SingleOrPair{Code: code, Name: second}
			}

		case "Verordnungszitat:":
			location.RegulationCitation = first

		case "Erlaubniswert:":
			if first == nil {
				return usageLocationEntryError(pair.Key, first, second)
			}
			if err := parseAllowanceValue(*first, location, department); err != nil {
				return err
			}

		default:
			return usageLocationEntryError(pair.Key, first, second)
		}
	}

	return nil
}

// parseCodePair handles the keys pairing a numeric code with a name. A
// fully empty pair is skipped, a half filled one is malformed.
func parseCodePair(key string, first, second *string) (*waterright.CodePair, error) {
	switch {
	case first == nil && second == nil:
		return nil, nil
	case first == nil || second == nil:
		return nil, usageLocationEntryError(key, first, second)
	}
	code, err := strconv.ParseUint(*first, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid code in %q: %w", key, err)
	}
	return &waterright.CodePair{Code: code, Name: *second}, nil
}

// parseLandRecord splits a "Gemarkung, Flur" value into the register
// district and the field number. Values not matching the expected shape
// are kept as fallback text.
func parseLandRecord(value string) (*waterright.OrFallback[waterright.LandRecord], error) {
	stripped := strings.ReplaceAll(value, " ", "")
	match := landRecordRe.FindStringSubmatch(stripped)
	if match == nil {
		fallback := waterright.FallbackOf[waterright.LandRecord](stripped)
		return &fallback, nil
	}
	field, err := strconv.ParseUint(match[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid field number: %w", err)
	}
	record := waterright.Expect(waterright.LandRecord{
		District: match[1],
		Field:    uint32(field),
	})
	return &record, nil
}

func parseAllowanceValue(
	value string,
	location *waterright.UsageLocation,
	department waterright.LegalDepartmentAbbreviation,
) error {
	rest, unit, found := cutLast(value, " ")
	if !found {
		return errors.New("'Erlaubniswert' has no value")
	}
	kind, amount, found := cutLast(rest, " ")
	if !found {
		return errors.New("'Erlaubniswert' has no specifier")
	}

	rateText := amount + " " + unit
	var rate waterright.OrFallback[waterright.Rate]
	if parsed, err := waterright.ParseRate(rateText); err == nil {
		rate = waterright.Expect(parsed)
	} else {
		rate = waterright.FallbackOf[waterright.Rate](rateText)
	}

	switch kind {
	case "Entnahmemenge":
		location.WithdrawalRates.Insert(rate)

	case "Förderleistung":
		location.PumpingRates.Insert(rate)

	case "Einleitungsmenge":
		location.InjectionRates.Insert(rate)

	case "Stauziel, bezogen auf NN":
		quantity, err := parseQuantity(amount, unit)
		if err != nil {
			return err
		}
		location.DamTargets().Default = quantity

	case "Stauziel (Höchststau), bezogen auf NN":
		quantity, err := parseQuantity(amount, unit)
		if err != nil {
			return err
		}
		location.DamTargets().Max = quantity

	case "Stauziel (Dauerstau), bezogen auf NN":
		quantity, err := parseQuantity(amount, unit)
		if err != nil {
			return err
		}
		location.DamTargets().Steady = quantity

	case "Abwasservolumenstrom, Sekunde",
		"Abwasservolumenstrom, RW, Sekunde",
		"Abwasservolumenstrom, Std.",
		"Abwasservolumenstrom, Tag",
		"Abwasservolumenstrom, Jahr",
		"Abwasservolumenstrom, RW, Jahr":
		location.WasteWaterFlowVolume.Insert(rate)

	case "Beregnungsfläche":
		quantity, err := parseQuantity(amount, unit)
		if err != nil {
			return err
		}
		location.IrrigationArea = quantity

	case "Zusatzregen":
		location.RainSupplement.Insert(rate)

	case "Ableitungsmenge":
		location.FluidDischarge.Insert(rate)

	default:
		switch department {
		case waterright.DepartmentB, waterright.DepartmentC, waterright.DepartmentF:
			quantity, err := parseQuantity(amount, unit)
			if err != nil {
				return err
			}
			location.InjectionLimits = append(location.InjectionLimits, waterright.InjectionLimit{
				Substance: kind,
				Quantity:  *quantity,
			})
		default:
			return fmt.Errorf("unknown allow value: %q", kind)
		}
	}

	return nil
}

// parseQuantity parses a plain measured amount with its unit.
func parseQuantity(amount, unit string) (*waterright.Quantity, error) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return &waterright.Quantity{Value: value, Unit: unit}, nil
}

// cutLast slices s around the last occurrence of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func usageLocationEntryError(key string, first, second *string) error {
	return fmt.Errorf(
		"invalid entry for the usage location, key: %q, first: %s, second: %s",
		key, optionalDebug(first), optionalDebug(second),
	)
}
