package registry

// Stats summarizes a registry.
type Stats struct {
	WaterRights    int `json:"waterRights"`
	UsageLocations int `json:"usageLocations"`

	// Departments counts usage locations per legal department
	// abbreviation.
	Departments map[string]int `json:"departments"`

	// Withdrawals accumulates the typed withdrawal rates, keyed by
	// measurement and interval, e.g. "m³/a".
	Withdrawals map[string]RateTotal `json:"withdrawals"`

	// Sources lists the loaded record files.
	Sources []string `json:"sources"`
}

// RateTotal accumulates rates sharing a measurement and interval.
type RateTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Stats aggregates counts and withdrawal totals over the whole registry.
// Fallback rate entries carry no comparable value and are left out of the
// totals.
func (r *Registry) Stats() Stats {
	stats := Stats{
		Departments: make(map[string]int),
		Withdrawals: make(map[string]RateTotal),
		Sources:     r.Sources(),
	}

	for _, right := range r.rights {
		stats.WaterRights++
		for abbreviation, department := range right.LegalDepartments {
			locations := department.UsageLocations
			stats.Departments[string(abbreviation)] += len(locations)
			stats.UsageLocations += len(locations)

			for i := range locations {
				for _, entry := range locations[i].WithdrawalRates {
					if entry.IsFallback() {
						continue
					}
					rate := *entry.Expected
					key := rate.Measurement + "/" + rate.Per.String()
					total := stats.Withdrawals[key]
					total.Count++
					total.Total += rate.Value
					stats.Withdrawals[key] = total
				}
			}
		}
	}

	return stats
}
