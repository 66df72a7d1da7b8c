package descriptions

// Tool descriptions with practical examples and use cases

const (
	WaterRightGetDescription = `Look up a single water right by its number and get the complete record.

**When to use:** You already know the water right number (e.g. from a search, a cadenza export or a report file name) and need the full detail.

**Why it's useful:** Returns every parsed field of the right including all legal departments and their usage locations, plus the raw record as JSON for downstream processing.

**Examples:**
• Follow up on a search hit: "Get water right 1225 to see its withdrawal rates"
• Verify a parse: "Show the record for right 104090 after reparsing its report"
• Inspect locations: "List the usage locations of right 560 with their counties"

**Common workflows:**
1. Detail lookup: waterright_search → pick a number → waterright_get
2. Data verification: report_parse → waterright_get → compare fields
3. Record export: waterright_get → take the JSON block → feed downstream

**Best practices:** Numbers are unique across the registry; if a lookup fails, check server_info for which record files are loaded.`

	WaterRightSearchDescription = `Search the loaded water rights by holder, county, legal department or free text.

**When to use:** You need to find water rights without knowing their numbers, or want to narrow the registry down to a region, holder or department.

**Why it's useful:** Filters combine, so one call answers questions like "withdrawal rights of the OOWV in Aurich". Free text covers holder, subject, address, annotations and usage location names.

**Examples:**
• By holder: "Find rights held by 'OOWV'"
• By region: "List rights with usage locations in county 'Leer'"
• By department: "Show department E rights (groundwater withdrawal)"
• Free text: "Search for 'Beregnung' across all records"

**Common workflows:**
1. Region review: search by county → waterright_get for details
2. Holder inventory: search by holder → collect numbers → export
3. Topic research: free text search → refine with department filter

**Best practices:** All criteria are optional and combine with AND; use limit to keep large result sets manageable.`

	WaterRightStatsDescription = `Summarize the loaded registry: rights, usage locations, departments and withdrawal volumes.

**When to use:** Starting analysis on a fresh record set, checking a parse run for plausibility, or reporting aggregate numbers.

**Why it's useful:** Gives counts per legal department and sums the typed withdrawal rates per unit (m³/h, m³/a), so a changed parse or a new export shows up immediately.

**Examples:**
• Plausibility check: "Do the new records still sum to roughly 2.1 billion m³/a?"
• Report figures: "How many usage locations does department E have?"
• Load verification: "Confirm all record files were picked up"

**Common workflows:**
1. Post-parse check: parse reports → load server → waterright_stats → compare to previous run
2. Reporting: waterright_stats → quote department counts and volumes
3. Debugging: stats show zero rights → server_info → check records directory

**Best practices:** Withdrawal sums only include typed rate entries; rights whose rates fell back to raw strings are counted but not summed.`

	ReportParseDescription = `Parse a single cadenza report PDF on demand and return the structured water right.

**When to use:** A report is not part of the loaded record set yet, or you want to inspect exactly what the parser extracts from one document.

**Why it's useful:** Runs the full extraction pipeline (text assembly, key-value grouping, department segmentation, field parsing) on one file and returns the typed record as JSON together with any parser warnings.

**Examples:**
• Fresh download: "Parse data/reports/rep104090.pdf that the fetcher just wrote"
• Parser debugging: "Parse rep560.pdf and show which fields fell back to raw strings"
• Spot check: "Compare the parsed record of rep1225.pdf with the registry copy"

**Common workflows:**
1. Incremental update: fetch report → report_parse → review → rerun the parser for the full set
2. Quality control: report_parse → check warnings → fix upstream data
3. Exploration: report_parse on a sample → understand the record shape

**Best practices:** Use the rep<no>.pdf naming so the water right number is taken from the file name; parsing is CPU-bound but a single report finishes quickly.`

	ServerInfoDescription = `Get server status, loaded record sources, registry size and available tools.

**When to use:** Starting a session, troubleshooting empty search results, or checking which record files the registry was built from.

**Why it's useful:** Shows the records directory, every loaded .reports.json file and the tool catalog, which is usually enough to explain why a lookup found nothing.

**Examples:**
• Session start: "Check which record set is loaded before querying"
• Troubleshooting: "Searches return nothing, verify the records directory"
• Discovery: "List the available tools and what they do"

**Common workflows:**
1. Session startup: server_info → waterright_stats → start querying
2. Debugging: server_info → fix records directory → restart server
3. Capability discovery: server_info → choose the right tool for the task

**Best practices:** Run at the start of sessions; the source list reflects the load order, later files override earlier ones for duplicated rights.`
)

// ToolDescriptions maps tool names to their detailed descriptions.
var ToolDescriptions = map[string]string{
	"waterright_get":    WaterRightGetDescription,
	"waterright_search": WaterRightSearchDescription,
	"waterright_stats":  WaterRightStatsDescription,
	"report_parse":      ReportParseDescription,
	"server_info":       ServerInfoDescription,
}

// GetToolDescription returns the detailed description for a tool.
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}
