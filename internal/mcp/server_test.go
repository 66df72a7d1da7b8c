package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wisdom-oss/nlwkn-go/internal/config"
	"github.com/wisdom-oss/nlwkn-go/internal/registry"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

func ptr[T any](v T) *T {
	return &v
}

func testConfig() *config.Config {
	return &config.Config{
		Mode:       "stdio",
		Host:       "127.0.0.1",
		Port:       8080,
		RecordsDir: "data/records",
		LogLevel:   "info",
		ServerName: "waterright-mcp",
		Version:    "1.0.0",
	}
}

func testRegistry() *registry.Registry {
	oowv := waterright.NewWaterRight(1225)
	oowv.Holder = ptr("OOWV Wasserverband")
	oowv.Status = ptr("aktiv")
	withdrawal := waterright.NewLegalDepartment("E", "Entnahme von Grundwasser")
	withdrawal.UsageLocations = append(withdrawal.UsageLocations, waterright.UsageLocation{
		Name:   ptr("Brunnen 1"),
		County: ptr("Aurich"),
		WithdrawalRates: waterright.RateRecord{
			waterright.Expect(waterright.Rate{
				Value:       250000,
				Measurement: "m³",
				Per:         waterright.Duration{Unit: waterright.Years, Factor: 1},
			}),
		},
	})
	oowv.LegalDepartments[withdrawal.Abbreviation] = withdrawal

	emden := waterright.NewWaterRight(77)
	emden.Holder = ptr("Stadtwerke Emden")
	injection := waterright.NewLegalDepartment("B", "Einbringen und Einleiten von Stoffen")
	injection.UsageLocations = append(injection.UsageLocations, waterright.UsageLocation{
		Name:   ptr("Klärwerk"),
		County: ptr("Emden"),
	})
	emden.LegalDepartments[injection.Abbreviation] = injection

	reg := registry.New()
	reg.Add(oowv, emden)
	return reg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(testConfig(), testRegistry())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		registry    *registry.Registry
		expectError bool
	}{
		{name: "valid stdio mode config", mode: "stdio", registry: registry.New()},
		{name: "valid server mode config", mode: "server", registry: registry.New()},
		{name: "nil registry", mode: "stdio", registry: nil, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Mode = tt.mode

			server, err := NewServer(cfg, tt.registry)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError {
				if server == nil {
					t.Fatal("server should not be nil")
				}
				if server.config != cfg {
					t.Error("server config not set correctly")
				}
				if server.registry != tt.registry {
					t.Error("server registry not set correctly")
				}
				if server.mcpServer == nil {
					t.Error("mcpServer should be initialized")
				}
			}
		})
	}
}

func TestServer_HandleWaterRightGet(t *testing.T) {
	server := newTestServer(t)

	t.Run("returns the full record", func(t *testing.T) {
		result, err := server.handleWaterRightGet(context.Background(), callRequest(map[string]any{
			"no": float64(1225),
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		for _, want := range []string{
			"Water right 1225",
			"Holder: OOWV Wasserverband",
			"Department E: Entnahme von Grundwasser",
			`"no": 1225`,
		} {
			if !strings.Contains(text, want) {
				t.Errorf("result should contain %q, got: %s", want, text)
			}
		}
	})

	t.Run("unknown number", func(t *testing.T) {
		result, err := server.handleWaterRightGet(context.Background(), callRequest(map[string]any{
			"no": float64(404),
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "no water right 404 is loaded") {
			t.Errorf("expected lookup failure message, got: %s", text)
		}
	})

	t.Run("number argument missing", func(t *testing.T) {
		result, err := server.handleWaterRightGet(context.Background(), callRequest(map[string]any{
			"no": "abc",
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "no must be a number") {
			t.Errorf("expected argument error, got: %s", text)
		}
	})
}

func TestServer_HandleWaterRightSearch(t *testing.T) {
	server := newTestServer(t)

	t.Run("by holder", func(t *testing.T) {
		result, err := server.handleWaterRightSearch(context.Background(), callRequest(map[string]any{
			"holder": "oowv",
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "Found 1 water right(s)") {
			t.Errorf("expected one hit, got: %s", text)
		}
		if !strings.Contains(text, "Water right 1225") {
			t.Errorf("expected right 1225, got: %s", text)
		}
	})

	t.Run("without criteria lists everything", func(t *testing.T) {
		result, err := server.handleWaterRightSearch(context.Background(), callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "Found 2 water right(s)") {
			t.Errorf("expected both rights, got: %s", text)
		}
	})

	t.Run("limit is reported", func(t *testing.T) {
		result, err := server.handleWaterRightSearch(context.Background(), callRequest(map[string]any{
			"limit": float64(1),
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "(limited to 1") {
			t.Errorf("expected limit notice, got: %s", text)
		}
		if !strings.Contains(text, "Water right 77") {
			t.Errorf("expected the lowest number first, got: %s", text)
		}
	})

	t.Run("without hits", func(t *testing.T) {
		result, err := server.handleWaterRightSearch(context.Background(), callRequest(map[string]any{
			"county": "Hannover",
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if text != "No water rights match the query." {
			t.Errorf("expected empty result message, got: %s", text)
		}
	})
}

func TestServer_HandleWaterRightStats(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleWaterRightStats(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	text := extractTextFromResult(result)
	for _, want := range []string{
		"Water rights: 2",
		"Usage locations: 2",
		"B: 1",
		"E: 1",
		"m³/a: 250000 (1 rates)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("stats should contain %q, got: %s", want, text)
		}
	}
}

func TestServer_HandleReportParse(t *testing.T) {
	server := newTestServer(t)

	t.Run("path argument missing", func(t *testing.T) {
		result, err := server.handleReportParse(context.Background(), callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "required") && !strings.Contains(text, "missing") &&
			!strings.Contains(text, "path") {
			t.Errorf("expected error message for missing arguments, got: %s", text)
		}
	})

	t.Run("unreadable report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rep1.pdf")
		if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		result, err := server.handleReportParse(context.Background(), callRequest(map[string]any{
			"path": path,
		}))
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		text := extractTextFromResult(result)
		if !strings.Contains(text, "invalid report") {
			t.Errorf("expected a validation failure, got: %s", text)
		}
	})
}

func TestServer_HandleServerInfo(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleServerInfo(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	text := extractTextFromResult(result)
	for _, want := range []string{
		"waterright-mcp v1.0.0",
		"Records Directory: data/records",
		"Loaded Water Rights: 2",
		"no record files loaded",
		"waterright_get",
		"waterright_search",
		"waterright_stats",
		"report_parse",
		"server_info",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("server info should contain %q, got: %s", want, text)
		}
	}
}

func TestFormatMethods(t *testing.T) {
	server := newTestServer(t)

	t.Run("formatStats", func(t *testing.T) {
		formatted := server.formatStats(registry.Stats{
			WaterRights:    2,
			UsageLocations: 3,
			Departments:    map[string]int{"E": 2, "B": 1},
			Withdrawals:    map[string]registry.RateTotal{"m³/a": {Count: 1, Total: 250000}},
			Sources:        []string{"2024-04-04.reports.json"},
		})

		expected := "Water Right Registry Statistics\n" +
			"Water rights: 2\n" +
			"Usage locations: 3\n" +
			"\nUsage locations per legal department:\n" +
			"  B: 1\n" +
			"  E: 2\n" +
			"\nWithdrawal totals:\n" +
			"  m³/a: 250000 (1 rates)\n" +
			"\nRecord sources:\n" +
			"  2024-04-04.reports.json\n"
		if formatted != expected {
			t.Errorf("formatStats() = %q, want %q", formatted, expected)
		}
	})

	t.Run("formatSearchResult without hits", func(t *testing.T) {
		formatted := server.formatSearchResult(registry.Query{}, nil)
		if formatted != "No water rights match the query." {
			t.Errorf("unexpected empty result message: %q", formatted)
		}
	})

	t.Run("formatWaterRight skips absent fields", func(t *testing.T) {
		formatted := server.formatWaterRight(waterright.NewWaterRight(9))
		if strings.Contains(formatted, "Holder:") {
			t.Errorf("absent holder should not be rendered, got: %s", formatted)
		}
		if !strings.Contains(formatted, "Water right 9") {
			t.Errorf("expected heading, got: %s", formatted)
		}
	})
}

func TestServer_Run_ServerMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "server"
	cfg.Port = 0 // bind a free port

	server, err := NewServer(cfg, registry.New())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := server.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestServer_Run_ServerModeBindFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "server"
	cfg.Host = "256.256.256.256"

	server, err := NewServer(cfg, registry.New())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	err = server.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "serving sse") {
		t.Errorf("Run() error = %v, expected bind failure", err)
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
