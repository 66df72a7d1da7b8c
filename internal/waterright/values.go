package waterright

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// StringPair is a pair of related strings, e.g. the code and name of a legal
// purpose. It keeps the two-element array representation on the wire.
type StringPair [2]string

func (p StringPair) String() string {
	return fmt.Sprintf("%s %s", p[0], p[1])
}

// CodePair is a numeric key with its human readable name, e.g. a municipal
// area code and the municipality it stands for. It serializes as a
// two-element array.
type CodePair struct {
	Code uint64
	Name string
}

func (p CodePair) String() string {
	return fmt.Sprintf("%d %s", p.Code, p.Name)
}

// MarshalJSON implements json.Marshaler.
func (p CodePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Code, p.Name})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *CodePair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Code); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Name)
}

// SingleOrPair is a numeric code with an optional name. It serializes as a
// one- or two-element array depending on whether the name is present.
type SingleOrPair struct {
	Code uint64
	Name *string
}

func (p SingleOrPair) String() string {
	if p.Name == nil {
		return strconv.FormatUint(p.Code, 10)
	}
	return fmt.Sprintf("%d %s", p.Code, *p.Name)
}

// MarshalJSON implements json.Marshaler.
func (p SingleOrPair) MarshalJSON() ([]byte, error) {
	if p.Name == nil {
		return json.Marshal([1]any{p.Code})
	}
	return json.Marshal([2]any{p.Code, *p.Name})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *SingleOrPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch len(raw) {
	case 1:
		p.Name = nil
		return json.Unmarshal(raw[0], &p.Code)
	case 2:
		if err := json.Unmarshal(raw[0], &p.Code); err != nil {
			return err
		}
		p.Name = new(string)
		return json.Unmarshal(raw[1], p.Name)
	default:
		return fmt.Errorf("expected one or two elements, got %d", len(raw))
	}
}

// Quantity is a measured value with its unit, serialized as a two-element
// array.
type Quantity struct {
	Value float64
	Unit  string
}

func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", formatFloat(q.Value), q.Unit)
}

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{q.Value, q.Unit})
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &q.Value); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &q.Unit)
}

// TimeUnit is the base time span a rate relates to.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Minutes
	Hours
	Days
	Weeks
	Months
	Years
)

// secondsPerUnit uses the civil approximations of 30-day months and 365-day
// years, matching how the source documents relate their rate spans.
var secondsPerUnit = map[TimeUnit]float64{
	Seconds: 1,
	Minutes: 60,
	Hours:   3600,
	Days:    86400,
	Weeks:   604800,
	Months:  2592000,
	Years:   31536000,
}

// Duration is a time span given as a factor of a base unit, e.g. "2wo" for
// two weeks. It serializes as its string form.
type Duration struct {
	Unit   TimeUnit
	Factor float64
}

var durationRe = regexp.MustCompile(`^(?P<value>\d*)(?P<duration>\w+)$`)

// ParseDuration parses the short notation used in the documents, a base unit
// with an optional leading factor. An empty factor means one.
func ParseDuration(s string) (Duration, error) {
	match := durationRe.FindStringSubmatch(s)
	if match == nil {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	factor := 1.0
	if value := match[1]; value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid duration factor %q: %w", value, err)
		}
		factor = parsed
	}
	unit, err := parseTimeUnit(match[2])
	if err != nil {
		return Duration{}, err
	}
	return Duration{Unit: unit, Factor: factor}, nil
}

func parseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "s":
		return Seconds, nil
	case "m", "min":
		return Minutes, nil
	case "h":
		return Hours, nil
	case "d":
		return Days, nil
	case "w", "wo":
		return Weeks, nil
	case "M", "mo":
		return Months, nil
	case "a", "y":
		return Years, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", s)
	}
}

// AsSeconds returns the total span of the duration in seconds.
func (d Duration) AsSeconds() float64 {
	return d.Factor * secondsPerUnit[d.Unit]
}

func (d Duration) String() string {
	single := math.Abs(d.Factor-1) < 1e-9
	switch d.Unit {
	case Seconds:
		if single {
			return "s"
		}
		return formatFloat(d.Factor) + "s"
	case Minutes:
		if single {
			return "m"
		}
		return formatFloat(d.Factor) + "m"
	case Hours:
		if single {
			return "h"
		}
		return formatFloat(d.Factor) + "h"
	case Days:
		if single {
			return "d"
		}
		return formatFloat(d.Factor) + "d"
	case Weeks:
		if single {
			return "w"
		}
		return formatFloat(d.Factor) + "wo"
	case Months:
		if single {
			return "mo"
		}
		return formatFloat(d.Factor) + "mo"
	default:
		if single {
			return "a"
		}
		return formatFloat(d.Factor) + "a"
	}
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Rate is a measured value that occurs within a given time span, e.g.
// "1.000 m³/mo". It serializes as a three-element array of value,
// measurement and span.
type Rate struct {
	Value       float64
	Measurement string
	Per         Duration
}

var rateUnitRe = regexp.MustCompile(`^(?P<measurement>[^/]+)/(?P<factor>[\d\.,]*)(?P<time>\w+)$`)

// ParseRate parses a "value unit" string like "1.5 m³/h". Rate spans with an
// unparsable factor fall back to a factor of one, everything else that does
// not match the grammar is an error.
func ParseRate(s string) (Rate, error) {
	valueText, unitText, found := strings.Cut(s, " ")
	if !found {
		return Rate{}, fmt.Errorf("rate %q has no unit", s)
	}
	value, err := strconv.ParseFloat(valueText, 64)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate value %q: %w", valueText, err)
	}
	match := rateUnitRe.FindStringSubmatch(unitText)
	if match == nil {
		return Rate{}, fmt.Errorf("invalid rate unit %q", unitText)
	}
	factor, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		factor = 1
	}
	unit, err := parseTimeUnit(match[3])
	if err != nil {
		return Rate{}, err
	}
	return Rate{
		Value:       value,
		Measurement: match[1],
		Per:         Duration{Unit: unit, Factor: factor},
	}, nil
}

// Equal reports whether both rates carry the same value over the same time
// span. The measurement text does not take part in the comparison.
func (r Rate) Equal(other Rate) bool {
	return r.Value == other.Value && r.Per.AsSeconds() == other.Per.AsSeconds()
}

// Compare orders rates by their time span alone.
func (r Rate) Compare(other Rate) int {
	left, right := r.Per.AsSeconds(), other.Per.AsSeconds()
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

func (r Rate) String() string {
	return fmt.Sprintf("%s %s/%s", formatFloat(r.Value), r.Measurement, r.Per)
}

// MarshalJSON implements json.Marshaler.
func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{r.Value, r.Measurement, r.Per})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.Value); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &r.Measurement); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &r.Per)
}

// OrFallback holds either a value parsed into its expected shape or, when
// the text did not match the expected grammar, the original string. The wire
// form is transparent: the value's own representation or a plain string.
type OrFallback[T any] struct {
	Expected *T
	Fallback string
}

// Expect wraps a successfully parsed value.
func Expect[T any](value T) OrFallback[T] {
	return OrFallback[T]{Expected: &value}
}

// FallbackOf wraps the original text of a value that did not parse.
func FallbackOf[T any](raw string) OrFallback[T] {
	return OrFallback[T]{Fallback: raw}
}

// IsFallback reports whether the value kept its original text form.
func (o OrFallback[T]) IsFallback() bool {
	return o.Expected == nil
}

func (o OrFallback[T]) String() string {
	if o.Expected == nil {
		return o.Fallback
	}
	return fmt.Sprint(*o.Expected)
}

// MarshalJSON implements json.Marshaler.
func (o OrFallback[T]) MarshalJSON() ([]byte, error) {
	if o.Expected != nil {
		return json.Marshal(*o.Expected)
	}
	return json.Marshal(o.Fallback)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrFallback[T]) UnmarshalJSON(data []byte) error {
	var expected T
	if err := json.Unmarshal(data, &expected); err == nil {
		o.Expected = &expected
		o.Fallback = ""
		return nil
	}
	var fallback string
	if err := json.Unmarshal(data, &fallback); err != nil {
		return err
	}
	o.Expected = nil
	o.Fallback = fallback
	return nil
}

// RateRecord is an ordered set of rates. Parsed rates come first, ordered by
// their time span, followed by fallback entries in lexical order. Inserting
// an entry that compares equal to an existing one keeps the existing entry.
type RateRecord []OrFallback[Rate]

// Insert adds an entry at its ordered position and reports whether the
// record changed.
func (rr *RateRecord) Insert(entry OrFallback[Rate]) bool {
	i := sort.Search(len(*rr), func(i int) bool {
		return compareRateEntries((*rr)[i], entry) >= 0
	})
	if i < len(*rr) && compareRateEntries((*rr)[i], entry) == 0 {
		return false
	}
	*rr = append(*rr, OrFallback[Rate]{})
	copy((*rr)[i+1:], (*rr)[i:])
	(*rr)[i] = entry
	return true
}

func compareRateEntries(a, b OrFallback[Rate]) int {
	switch {
	case a.IsFallback() && !b.IsFallback():
		return 1
	case !a.IsFallback() && b.IsFallback():
		return -1
	case a.IsFallback():
		return strings.Compare(a.Fallback, b.Fallback)
	default:
		return a.Expected.Compare(*b.Expected)
	}
}

// InjectionLimit is a substance with the largest quantity of it that may be
// injected, serialized as a two-element array.
type InjectionLimit struct {
	Substance string
	Quantity  Quantity
}

// MarshalJSON implements json.Marshaler.
func (l InjectionLimit) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{l.Substance, l.Quantity})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *InjectionLimit) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &l.Substance); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &l.Quantity)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
