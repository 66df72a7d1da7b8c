package report

import (
	"fmt"
	"strings"
)

const (
	// departmentKey starts a legal department section.
	departmentKey = "Abteilung:"
	// usageLocationKey starts a usage location inside a department.
	usageLocationKey = "Nutzungsort Lfd. Nr.:"
)

// GroupedRecord is the hierarchical form of a report: pairs preceding the
// first department belong to the water right itself, the rest is split
// into departments and their usage locations.
type GroupedRecord struct {
	Root        []KeyValuePair
	Departments []DepartmentGroup
	Annotation  *string
}

// DepartmentGroup is one department section with its usage location pair
// groups. Each group starts with the usage location marker pair.
type DepartmentGroup struct {
	Label          string
	UsageLocations [][]KeyValuePair
}

// SegmentOptions control how pair sequences are segmented.
type SegmentOptions struct {
	// KeepEmptyTrailingLocation keeps the empty usage location group that
	// a department without any pairs produces. Disabling it drops only
	// that empty group, populated groups are never affected.
	KeepEmptyTrailingLocation bool
}

// DefaultSegmentOptions mirror the layout of the report generator, which
// never emits a department without usage location pairs.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{KeepEmptyTrailingLocation: true}
}

// Segment splits a flat pair sequence into the root section, the
// department sections and the trailing annotation.
func Segment(pairs []KeyValuePair, options SegmentOptions) (*GroupedRecord, error) {
	record := &GroupedRecord{}

	pairs = record.takeAnnotation(pairs)
	pairs = record.takeRoot(pairs)

	for len(pairs) > 0 {
		if pairs[0].Key != departmentKey {
			return nil, fmt.Errorf("expected a department start, got key %q", pairs[0].Key)
		}
		department := DepartmentGroup{Label: strings.Join(pairs[0].Values, "")}
		pairs = groupUsageLocations(pairs[1:], &department, options)
		record.Departments = append(record.Departments, department)
	}

	return record, nil
}

// takeAnnotation strips the trailing run of value-less pairs and joins
// their keys into the annotation text.
func (r *GroupedRecord) takeAnnotation(pairs []KeyValuePair) []KeyValuePair {
	end := len(pairs)
	for end > 0 && len(pairs[end-1].Values) == 0 {
		end--
	}
	if end == len(pairs) {
		return pairs
	}

	keys := make([]string, 0, len(pairs)-end)
	for _, pair := range pairs[end:] {
		keys = append(keys, pair.Key)
	}
	annotation := strings.Join(keys, " ")
	r.Annotation = &annotation
	return pairs[:end]
}

// takeRoot consumes the pairs preceding the first department section.
func (r *GroupedRecord) takeRoot(pairs []KeyValuePair) []KeyValuePair {
	i := 0
	for i < len(pairs) && pairs[i].Key != departmentKey {
		i++
	}
	r.Root = pairs[:i]
	return pairs[i:]
}

// groupUsageLocations consumes pairs up to the next department section
// and splits them into one group per usage location marker. The marker
// pair stays inside the group it starts. It returns the unconsumed rest.
func groupUsageLocations(pairs []KeyValuePair, department *DepartmentGroup, options SegmentOptions) []KeyValuePair {
	var location []KeyValuePair

	for len(pairs) > 0 {
		if pairs[0].Key == departmentKey {
			break
		}
		pair := pairs[0]
		pairs = pairs[1:]

		if pair.Key == usageLocationKey && len(location) > 0 {
			department.UsageLocations = append(department.UsageLocations, location)
			location = nil
		}
		location = append(location, pair)
	}

	if len(location) > 0 || options.KeepEmptyTrailingLocation {
		department.UsageLocations = append(department.UsageLocations, location)
	}
	return pairs
}
