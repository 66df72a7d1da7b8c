package config

import (
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TablePath != "cadenza-table.xlsx" {
		t.Errorf("Expected default table path to be 'cadenza-table.xlsx', got '%s'", cfg.TablePath)
	}

	if cfg.ReportsDir != "data/reports" {
		t.Errorf("Expected default reports dir to be 'data/reports', got '%s'", cfg.ReportsDir)
	}

	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Expected default workers to be %d, got %d", runtime.NumCPU(), cfg.Workers)
	}

	if cfg.CadenzaURL != "http://www.wasserdaten.niedersachsen.de/cadenza/" {
		t.Errorf("Expected default cadenza URL to point at the state portal, got '%s'", cfg.CadenzaURL)
	}

	if cfg.CadenzaRoot != "http://www.wasserdaten.niedersachsen.de" {
		t.Errorf("Expected default cadenza root to point at the state portal, got '%s'", cfg.CadenzaRoot)
	}

	if cfg.Retries != 5 {
		t.Errorf("Expected default retries to be 5, got %d", cfg.Retries)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.ServerName != "waterright-mcp" {
		t.Errorf("Expected default server name to be 'waterright-mcp', got '%s'", cfg.ServerName)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func(mutate func(cfg *Config)) *Config {
		cfg := DefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:   "valid defaults",
			config: DefaultConfig(),
		},
		{
			name: "valid server mode",
			config: valid(func(cfg *Config) {
				cfg.Mode = ModeServer
			}),
		},
		{
			name: "invalid mode",
			config: valid(func(cfg *Config) {
				cfg.Mode = "invalid"
			}),
			wantErr: "mode must be either 'stdio' or 'server'",
		},
		{
			name: "port too low in server mode",
			config: valid(func(cfg *Config) {
				cfg.Mode = ModeServer
				cfg.Port = 0
			}),
			wantErr: "port must be between 1 and 65535",
		},
		{
			name: "port too high in server mode",
			config: valid(func(cfg *Config) {
				cfg.Mode = ModeServer
				cfg.Port = 70000
			}),
			wantErr: "port must be between 1 and 65535",
		},
		{
			name: "invalid port ignored in stdio mode",
			config: valid(func(cfg *Config) {
				cfg.Port = 0
			}),
		},
		{
			name: "empty reports directory",
			config: valid(func(cfg *Config) {
				cfg.ReportsDir = ""
			}),
			wantErr: "reports directory cannot be empty",
		},
		{
			name: "zero retries",
			config: valid(func(cfg *Config) {
				cfg.Retries = 0
			}),
			wantErr: "retries must be at least 1",
		},
		{
			name: "negative workers",
			config: valid(func(cfg *Config) {
				cfg.Workers = -1
			}),
			wantErr: "workers cannot be negative",
		},
		{
			name: "invalid log level",
			config: valid(func(cfg *Config) {
				cfg.LogLevel = "verbose"
			}),
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Config.Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{logLevel: "debug", want: true},
		{logLevel: "info", want: false},
		{logLevel: "warn", want: false},
		{logLevel: "error", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	stdio := &Config{Mode: ModeStdio}
	server := &Config{Mode: ModeServer}

	if !stdio.IsStdioMode() || stdio.IsServerMode() {
		t.Error("stdio config should report stdio mode only")
	}
	if !server.IsServerMode() || server.IsStdioMode() {
		t.Error("server config should report server mode only")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:       "server",
		Host:       "localhost",
		Port:       8080,
		ReportsDir: "data/reports/2024-04-04",
		RecordsDir: "data/reports",
		TablePath:  "cadenza-table.xlsx",
		Workers:    4,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"ReportsDir: data/reports/2024-04-04",
		"RecordsDir: data/reports",
		"TablePath: cadenza-table.xlsx",
		"Workers: 4",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}
