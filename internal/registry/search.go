package registry

import (
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// Query filters the registry. All set conditions must hold for a right to
// match; text conditions match case-insensitively.
type Query struct {
	// Holder is a substring of the rights holder.
	Holder string

	// County names the county of any usage location.
	County string

	// Department is a legal department abbreviation the right files
	// locations under.
	Department string

	// Text is a substring of the holder, subject, address, annotation or
	// any usage location name.
	Text string

	// Limit caps the number of hits, zero means all.
	Limit int
}

// Search returns the rights matching the query, ordered by water right
// number.
func (r *Registry) Search(query Query) []*waterright.WaterRight {
	var hits []*waterright.WaterRight
	for _, right := range r.All() {
		if !matches(right, query) {
			continue
		}
		hits = append(hits, right)
		if query.Limit > 0 && len(hits) == query.Limit {
			break
		}
	}
	return hits
}

func matches(right *waterright.WaterRight, query Query) bool {
	if query.Holder != "" && !containsFold(right.Holder, query.Holder) {
		return false
	}

	if query.Department != "" {
		abbreviation := waterright.LegalDepartmentAbbreviation(strings.ToUpper(query.Department))
		if _, ok := right.LegalDepartments[abbreviation]; !ok {
			return false
		}
	}

	if query.County != "" && !matchesCounty(right, query.County) {
		return false
	}

	if query.Text != "" && !matchesText(right, query.Text) {
		return false
	}

	return true
}

func matchesCounty(right *waterright.WaterRight, county string) bool {
	for _, location := range right.UsageLocations() {
		if location.County != nil && strings.EqualFold(*location.County, county) {
			return true
		}
	}
	return false
}

func matchesText(right *waterright.WaterRight, text string) bool {
	for _, field := range []*string{right.Holder, right.Subject, right.Address, right.Annotation} {
		if containsFold(field, text) {
			return true
		}
	}
	for _, location := range right.UsageLocations() {
		if containsFold(location.Name, text) {
			return true
		}
	}
	return false
}

func containsFold(s *string, substr string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), strings.ToLower(substr))
}
