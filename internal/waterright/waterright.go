// Package waterright defines the typed record model for water rights
// extracted from NLWKN cadenza report documents, together with the value
// grammars (rates, durations, quantities) those records are built from.
package waterright

import (
	"fmt"
	"slices"
)

// WaterRightNo identifies a single water right across all data sources.
type WaterRightNo = uint64

// WaterRight is the aggregate record for one water right. Every field except
// the number may be missing in the source document; absent fields stay nil
// and are omitted from the JSON representation.
type WaterRight struct {
	// "Wasserrecht Nr."
	No WaterRightNo `json:"no"`

	// "Rechtsinhaber"
	Holder *string `json:"holder,omitempty"`

	// "Gültig Bis"
	ValidUntil *string `json:"validUntil,omitempty"`

	// "Zustand"
	Status *string `json:"status,omitempty"`

	// "Gültig Ab/erteilt am"
	ValidFrom *string `json:"validFrom,omitempty"`

	// "Rechtstitel"
	LegalTitle *string `json:"legalTitle,omitempty"`

	// "Wasserbehörde"
	WaterAuthority *string `json:"waterAuthority,omitempty"`

	// "eingetragen durch"
	RegisteringAuthority *string `json:"registeringAuthority,omitempty"`

	// "Erteilende Behörde/erteilt durch"
	GrantingAuthority *string `json:"grantingAuthority,omitempty"`

	// "erstmalig erteilt am"
	InitiallyGranted *string `json:"initiallyGranted,omitempty"`

	// "Änderungsdatum"
	LastChange *string `json:"lastChange,omitempty"`

	// "Aktenzeichen"
	FileReference *string `json:"fileReference,omitempty"`

	// "Externe Kennung"
	ExternalIdentifier *string `json:"externalIdentifier,omitempty"`

	// "Betreff"
	Subject *string `json:"subject,omitempty"`

	// "Adresse"
	Address *string `json:"address,omitempty"`

	// The usage locations of a water right are split into multiple legal
	// departments. This map holds all legal departments present in the
	// water right and their corresponding usage locations.
	LegalDepartments map[LegalDepartmentAbbreviation]*LegalDepartment `json:"legalDepartments"`

	// "Bemerkung"
	Annotation *string `json:"annotation,omitempty"`
}

// NewWaterRight returns an empty record for the given water right number.
func NewWaterRight(no WaterRightNo) *WaterRight {
	return &WaterRight{
		No:               no,
		LegalDepartments: make(map[LegalDepartmentAbbreviation]*LegalDepartment),
	}
}

// UsageLocations flattens all usage locations across the legal departments,
// ordered by department abbreviation.
func (wr *WaterRight) UsageLocations() []*UsageLocation {
	abbreviations := make([]LegalDepartmentAbbreviation, 0, len(wr.LegalDepartments))
	for abbreviation := range wr.LegalDepartments {
		abbreviations = append(abbreviations, abbreviation)
	}
	slices.Sort(abbreviations)

	var locations []*UsageLocation
	for _, abbreviation := range abbreviations {
		department := wr.LegalDepartments[abbreviation]
		for i := range department.UsageLocations {
			locations = append(locations, &department.UsageLocations[i])
		}
	}
	return locations
}

// LegalDepartment groups the usage locations of one department of a water
// right.
type LegalDepartment struct {
	// "Abteilungsbezeichnung"
	Description string `json:"description"`

	// "Abteilungskürzel"
	Abbreviation LegalDepartmentAbbreviation `json:"abbreviation"`

	// "Nutzungsorte"
	UsageLocations []UsageLocation `json:"usageLocations"`
}

// NewLegalDepartment returns an empty department with the given abbreviation
// and description.
func NewLegalDepartment(abbreviation LegalDepartmentAbbreviation, description string) *LegalDepartment {
	return &LegalDepartment{
		Description:    description,
		Abbreviation:   abbreviation,
		UsageLocations: []UsageLocation{},
	}
}

// LegalDepartmentAbbreviation is the closed set of department identifiers
// water rights are filed under.
type LegalDepartmentAbbreviation string

const (
	// DepartmentA is "Entnahme von Wasser oder Entnahmen fester Stoffe aus
	// oberirdischen Gewässern".
	DepartmentA LegalDepartmentAbbreviation = "A"

	// DepartmentB is "Einbringen und Einleiten von Stoffen in oberirdische
	// und Küstengewässer".
	DepartmentB LegalDepartmentAbbreviation = "B"

	// DepartmentC is "Aufstauen und Absenken oberirdischer Gewässer".
	DepartmentC LegalDepartmentAbbreviation = "C"

	// DepartmentD is "Andere Einwirkung auf oberirdische Gewässer".
	DepartmentD LegalDepartmentAbbreviation = "D"

	// DepartmentE is "Entnahme, Zutageförderung, Zutageleiten und Ableiten
	// von Grundwasser".
	DepartmentE LegalDepartmentAbbreviation = "E"

	// DepartmentF is "Andere Nutzungen und Einwirkungen auf das
	// Grundwasser".
	DepartmentF LegalDepartmentAbbreviation = "F"

	// DepartmentK is "Zwangsrechte".
	DepartmentK LegalDepartmentAbbreviation = "K"

	// DepartmentL is "Fischereirechte".
	DepartmentL LegalDepartmentAbbreviation = "L"
)

// ParseLegalDepartmentAbbreviation maps a department letter onto the closed
// abbreviation set.
func ParseLegalDepartmentAbbreviation(s string) (LegalDepartmentAbbreviation, error) {
	switch abbreviation := LegalDepartmentAbbreviation(s); abbreviation {
	case DepartmentA, DepartmentB, DepartmentC, DepartmentD,
		DepartmentE, DepartmentF, DepartmentK, DepartmentL:
		return abbreviation, nil
	default:
		return "", fmt.Errorf("unknown legal department abbreviation %q", s)
	}
}

func (a LegalDepartmentAbbreviation) String() string {
	return string(a)
}

// UsageLocation is one physical or administrative site of water use
// belonging to a legal department. All fields are optional; a field is
// either fully typed or, where a fallback representation exists, the
// original untyped string.
type UsageLocation struct {
	// "Nutzungsort Nr."
	No *uint64 `json:"no,omitempty"`

	// "Nutzungsort Lfd. Nr."
	Serial *string `json:"serial,omitempty"`

	// "aktiv/inaktiv"
	Active *bool `json:"active,omitempty"`

	// "real/virtuell"
	Real *bool `json:"real,omitempty"`

	// "Nutzungsort/Bezeichnung"
	Name *string `json:"name,omitempty"`

	// "Rechtszweck"
	LegalPurpose *StringPair `json:"legalPurpose,omitempty"`

	// "Top. Karte 1:25.000"
	MapExcerpt *SingleOrPair `json:"mapExcerpt,omitempty"`

	// "Gemeindegebiet"
	MunicipalArea *CodePair `json:"municipalArea,omitempty"`

	// "Landkreis"
	County *string `json:"county,omitempty"`

	// "Gemarkung, Flur"
	LandRecord *OrFallback[LandRecord] `json:"landRecord,omitempty"`

	// "Flurstück"
	Plot *string `json:"plot,omitempty"`

	// "Unterhaltungsverband"
	MaintenanceAssociation *CodePair `json:"maintenanceAssociation,omitempty"`

	// "EU-Bearbeitungsgebiet"
	EUSurveyArea *CodePair `json:"euSurveyArea,omitempty"`

	// "Einzugsgebietskennzahl"
	CatchmentAreaCode *SingleOrPair `json:"catchmentAreaCode,omitempty"`

	// "Verordnungszitat"
	RegulationCitation *string `json:"regulationCitation,omitempty"`

	// "Entnahmemenge"
	WithdrawalRates RateRecord `json:"withdrawalRates,omitempty"`

	// "Förderleistung"
	PumpingRates RateRecord `json:"pumpingRates,omitempty"`

	// "Einleitungsmenge"
	InjectionRates RateRecord `json:"injectionRates,omitempty"`

	// "Abwasservolumenstrom"
	WasteWaterFlowVolume RateRecord `json:"wasteWaterFlowVolume,omitempty"`

	// "Flussgebiet"
	RiverBasin *string `json:"riverBasin,omitempty"`

	// "Grundwasserkörper"
	GroundwaterBody *string `json:"groundwaterBody,omitempty"`

	// "Gewässer"
	WaterBody *string `json:"waterBody,omitempty"`

	// "Überschwemmungsgebiet"
	FloodArea *string `json:"floodArea,omitempty"`

	// "Wasserschutzgebiet"
	WaterProtectionArea *string `json:"waterProtectionArea,omitempty"`

	// "Stauziele"
	DamTargetLevels *DamTargets `json:"damTargetLevels,omitempty"`

	// "Ableitungsmenge"
	FluidDischarge RateRecord `json:"fluidDischarge,omitempty"`

	// "Zusatzregen"
	RainSupplement RateRecord `json:"rainSupplement,omitempty"`

	// "Beregnungsfläche"
	IrrigationArea *Quantity `json:"irrigationArea,omitempty"`

	// "pH-Werte"
	PHValues *PHValues `json:"pHValues,omitempty"`

	// "Erlaubniswert" entries that name a substance, only used by the legal
	// departments B, C and F.
	InjectionLimits []InjectionLimit `json:"injectionLimits,omitempty"`

	// "UTM-Rechtswert"
	UTMEasting *uint64 `json:"utmEasting,omitempty"`

	// "UTM-Hochwert"
	UTMNorthing *uint64 `json:"utmNorthing,omitempty"`
}

// DamTargets returns the dam target levels, allocating them on first use.
func (ul *UsageLocation) DamTargets() *DamTargets {
	if ul.DamTargetLevels == nil {
		ul.DamTargetLevels = &DamTargets{}
	}
	return ul.DamTargetLevels
}

// LandRecord is the typed form of a "Gemarkung, Flur" value.
type LandRecord struct {
	District string `json:"district"`
	Field    uint32 `json:"field"`
}

func (lr LandRecord) String() string {
	return fmt.Sprintf("%s%d", lr.District, lr.Field)
}

// PHValues is the allowed pH range of the water.
type PHValues struct {
	Min *uint64 `json:"min,omitempty"`
	Max *uint64 `json:"max,omitempty"`
}

// DamTargets are the levels a dam should be at.
type DamTargets struct {
	Default *Quantity `json:"default,omitempty"`

	// "Dauerstau"
	Steady *Quantity `json:"steady,omitempty"`

	// "Höchststau"
	Max *Quantity `json:"max,omitempty"`
}

// IsEmpty reports whether no target level is set.
func (d *DamTargets) IsEmpty() bool {
	return d == nil || (d.Default == nil && d.Steady == nil && d.Max == nil)
}
