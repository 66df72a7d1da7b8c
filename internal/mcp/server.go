// Package mcp exposes the water right registry over the model context
// protocol, on stdio or as an SSE endpoint.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wisdom-oss/nlwkn-go/internal/config"
	"github.com/wisdom-oss/nlwkn-go/internal/descriptions"
	"github.com/wisdom-oss/nlwkn-go/internal/registry"
	"github.com/wisdom-oss/nlwkn-go/internal/report"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// defaultSearchLimit caps search results when the caller gives no limit.
const defaultSearchLimit = 10

// shutdownTimeout bounds how long a stopping SSE server waits for open
// connections.
const shutdownTimeout = 5 * time.Second

// toolNames lists the registered tools in the order server_info presents
// them.
var toolNames = []string{
	"waterright_get",
	"waterright_search",
	"waterright_stats",
	"report_parse",
	"server_info",
}

// Server is the MCP server over a loaded water right registry.
type Server struct {
	config    *config.Config
	registry  *registry.Registry
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server serving the given registry.
func NewServer(cfg *config.Config, reg *registry.Registry) (*Server, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is static
	)

	s := &Server{
		config:    cfg,
		registry:  reg,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	getTool := mcp.NewTool(
		"waterright_get",
		mcp.WithDescription("Look up a single water right by its number"),
		mcp.WithNumber("no",
			mcp.Required(),
			mcp.Description("Water right number"),
		),
	)
	s.mcpServer.AddTool(getTool, s.handleWaterRightGet)

	searchTool := mcp.NewTool(
		"waterright_search",
		mcp.WithDescription("Search the loaded water rights by holder, county, legal department or free text"),
		mcp.WithString("holder",
			mcp.Description("Substring of the right holder name"),
		),
		mcp.WithString("county",
			mcp.Description("County of a usage location, e.g. Aurich"),
		),
		mcp.WithString("department",
			mcp.Description("Legal department letter (A-F, K or L)"),
		),
		mcp.WithString("text",
			mcp.Description("Free text over holder, subject, address, annotations and location names"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleWaterRightSearch)

	statsTool := mcp.NewTool(
		"waterright_stats",
		mcp.WithDescription("Summarize the loaded water rights per legal department and withdrawal volume"),
	)
	s.mcpServer.AddTool(statsTool, s.handleWaterRightStats)

	parseTool := mcp.NewTool(
		"report_parse",
		mcp.WithDescription("Parse a single cadenza report PDF into a structured water right"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the report PDF"),
		),
	)
	s.mcpServer.AddTool(parseTool, s.handleReportParse)

	infoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription("Get server information, loaded record sources and usage guidance"),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleWaterRightGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	no, ok := args["no"].(float64)
	if !ok {
		return mcp.NewToolResultError("no must be a number"), nil
	}

	right, found := s.registry.Get(waterright.WaterRightNo(no))
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no water right %d is loaded", uint64(no))), nil
	}

	return mcp.NewToolResultText(s.formatWaterRight(right)), nil
}

func (s *Server) handleWaterRightSearch(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	query := registry.Query{Limit: defaultSearchLimit}
	if holder, ok := args["holder"].(string); ok {
		query.Holder = holder
	}
	if county, ok := args["county"].(string); ok {
		query.County = county
	}
	if department, ok := args["department"].(string); ok {
		query.Department = department
	}
	if text, ok := args["text"].(string); ok {
		query.Text = text
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Limit = int(limit)
	}

	rights := s.registry.Search(query)
	return mcp.NewToolResultText(s.formatSearchResult(query, rights)), nil
}

func (s *Server) handleWaterRightStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatStats(s.registry.Stats())), nil
}

func (s *Server) handleReportParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loaded, err := report.LoadReport(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := report.ProcessReport(loaded, nil, report.DefaultSegmentOptions())
	if result.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parsing report: %s", result.Err)), nil
	}

	return mcp.NewToolResultText(s.formatParseResult(path, &result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// Formatting methods
func (s *Server) formatWaterRight(right *waterright.WaterRight) string {
	text := fmt.Sprintf("Water right %d\n", right.No)
	text += field("Holder", right.Holder)
	text += field("Status", right.Status)
	text += field("Valid from", right.ValidFrom)
	text += field("Valid until", right.ValidUntil)
	text += field("Legal title", right.LegalTitle)
	text += field("Water authority", right.WaterAuthority)
	text += field("Registering authority", right.RegisteringAuthority)
	text += field("Granting authority", right.GrantingAuthority)
	text += field("Initially granted", right.InitiallyGranted)
	text += field("Last change", right.LastChange)
	text += field("File reference", right.FileReference)
	text += field("External identifier", right.ExternalIdentifier)
	text += field("Subject", right.Subject)
	text += field("Address", right.Address)
	text += field("Annotation", right.Annotation)

	for _, abbreviation := range sortedDepartments(right) {
		department := right.LegalDepartments[abbreviation]
		text += fmt.Sprintf("\nDepartment %s: %s\n", department.Abbreviation, department.Description)
		text += fmt.Sprintf("Usage locations: %d\n", len(department.UsageLocations))
	}

	text += "\nRecord:\n"
	text += recordJSON(right)
	return text
}

func (s *Server) formatSearchResult(query registry.Query, rights []*waterright.WaterRight) string {
	if len(rights) == 0 {
		return "No water rights match the query."
	}

	text := fmt.Sprintf("Found %d water right(s)", len(rights))
	if len(rights) == query.Limit {
		text += fmt.Sprintf(" (limited to %d, adjust with limit)", query.Limit)
	}
	text += ":\n\n"

	for i, right := range rights {
		text += fmt.Sprintf("%d. Water right %d\n", i+1, right.No)
		if right.Holder != nil {
			text += fmt.Sprintf("   Holder: %s\n", *right.Holder)
		}
		if right.Status != nil {
			text += fmt.Sprintf("   Status: %s\n", *right.Status)
		}
		text += fmt.Sprintf("   Departments: %s\n", departmentList(right))
		text += fmt.Sprintf("   Usage locations: %d\n", len(right.UsageLocations()))
		if i < len(rights)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatStats(stats registry.Stats) string {
	text := "Water Right Registry Statistics\n"
	text += fmt.Sprintf("Water rights: %d\n", stats.WaterRights)
	text += fmt.Sprintf("Usage locations: %d\n", stats.UsageLocations)

	if len(stats.Departments) > 0 {
		text += "\nUsage locations per legal department:\n"
		for _, abbreviation := range sortedKeys(stats.Departments) {
			text += fmt.Sprintf("  %s: %d\n", abbreviation, stats.Departments[abbreviation])
		}
	}

	if len(stats.Withdrawals) > 0 {
		text += "\nWithdrawal totals:\n"
		for _, unit := range sortedKeys(stats.Withdrawals) {
			total := stats.Withdrawals[unit]
			text += fmt.Sprintf("  %s: %s (%d rates)\n",
				unit, strconv.FormatFloat(total.Total, 'f', -1, 64), total.Count)
		}
	}

	if len(stats.Sources) > 0 {
		text += "\nRecord sources:\n"
		for _, source := range stats.Sources {
			text += fmt.Sprintf("  %s\n", source)
		}
	}

	return text
}

func (s *Server) formatParseResult(path string, result *report.Result) string {
	text := fmt.Sprintf("Parsed report: %s\n", path)
	text += fmt.Sprintf("Water right: %d\n", result.No)
	if result.WaterRight.Holder != nil {
		text += fmt.Sprintf("Holder: %s\n", *result.WaterRight.Holder)
	}
	text += fmt.Sprintf("Usage locations: %d\n", len(result.WaterRight.UsageLocations()))

	if len(result.Warnings) > 0 {
		text += fmt.Sprintf("\n⚠️  %d warning(s):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			text += fmt.Sprintf("  • %s\n", warning)
		}
	}

	text += "\nRecord:\n"
	text += recordJSON(result.WaterRight)
	return text
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Records Directory: %s\n", s.config.RecordsDir)
	text += fmt.Sprintf("📚 Loaded Water Rights: %d\n\n", s.registry.Len())

	sources := s.registry.Sources()
	if len(sources) > 0 {
		text += fmt.Sprintf("📂 Record Sources (%d files):\n", len(sources))
		for i, source := range sources {
			text += fmt.Sprintf("   %d. %s\n", i+1, source)
		}
		text += "\n"
	} else {
		text += "📂 Record Sources: no record files loaded\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, name := range toolNames {
		text += fmt.Sprintf("\n• %s\n", name)
		text += descriptions.GetToolDescription(name) + "\n"
	}

	text += "\nGetting started:\n"
	text += "1. Check waterright_stats to see what is loaded.\n"
	text += "2. Narrow down with waterright_search, then fetch details with waterright_get.\n"
	text += "3. Parse fresh report files on demand with report_parse.\n"

	return text
}

// field renders one labeled line, or nothing when the value is absent.
func field(label string, value *string) string {
	if value == nil {
		return ""
	}
	return label + ": " + *value + "\n"
}

func recordJSON(right *waterright.WaterRight) string {
	encoded, err := json.MarshalIndent(right, "", "  ")
	if err != nil {
		return fmt.Sprintf("record could not be encoded: %s", err)
	}
	return string(encoded) + "\n"
}

func sortedDepartments(right *waterright.WaterRight) []waterright.LegalDepartmentAbbreviation {
	abbreviations := make([]waterright.LegalDepartmentAbbreviation, 0, len(right.LegalDepartments))
	for abbreviation := range right.LegalDepartments {
		abbreviations = append(abbreviations, abbreviation)
	}
	slices.Sort(abbreviations)
	return abbreviations
}

func departmentList(right *waterright.WaterRight) string {
	parts := make([]string, 0, len(right.LegalDepartments))
	for _, abbreviation := range sortedDepartments(right) {
		parts = append(parts, string(abbreviation))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Run starts the MCP server in the configured mode.
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves the protocol on stdin and stdout until the input
// closes.
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("starting %s in stdio mode", s.config.ServerName)
		log.Printf("records directory: %s", s.config.RecordsDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

// runServerMode serves the protocol over SSE until the context is
// canceled, then drains open connections.
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)

	errs := make(chan error, 1)
	go func() {
		errs <- sse.Start(s.config.Address())
	}()

	if s.config.IsDebug() {
		log.Printf("starting %s on %s", s.config.ServerName, s.config.Address())
	}

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving sse: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down sse server: %w", err)
	}
	return nil
}
