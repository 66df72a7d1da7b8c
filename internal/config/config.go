// Package config loads the configuration of the nlwkn command line tools
// from flags and NLWKN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Transport modes of the MCP server.
	ModeStdio  = "stdio"
	ModeServer = "server"

	// DefaultCadenzaRoot is the scheme and host of the state water data
	// portal. Relative redirect targets are resolved against it.
	DefaultCadenzaRoot = "http://www.wasserdaten.niedersachsen.de"

	// DefaultCadenzaURL is the base URL of the cadenza web application.
	DefaultCadenzaURL = DefaultCadenzaRoot + "/cadenza/"

	// DefaultReportsBase is where the fetcher places its dated report
	// directories.
	DefaultReportsBase = "data/reports"

	DefaultRetries  = 5
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 8080
	DefaultLogLevel = "info"
)

// ErrVersionRequested short-circuits flag loading when --version is given.
var ErrVersionRequested = errors.New("version requested")

// Config holds the knobs of all nlwkn tools. Each tool defines flags for
// the subset it understands, the remaining fields keep their defaults.
type Config struct {
	// Shared between the tools.
	TablePath  string // cadenza xlsx export
	ReportsDir string // where the rep<no>.pdf reports live
	No         uint64 // restrict a run to one water right, zero means all

	// Parser.
	Workers int    // parse workers, zero means one per CPU
	CSVPath string // write a flat csv export here, empty skips it

	// Fetcher.
	CadenzaURL   string
	CadenzaRoot  string
	ProxyAddress string // host:port of a SOCKS5 proxy, empty dials directly
	Retries      int
	Force        bool
	DiffPath     string // previous xlsx export, fetch only the changed rights

	// MCP server.
	Mode       string
	Host       string
	Port       int
	RecordsDir string // directory searched for *.reports.json result files
	LogLevel   string

	// Application metadata.
	Version    string
	ServerName string
}

// tool selects which flags a binary defines and which usage text it prints.
type tool int

const (
	toolParser tool = iota
	toolFetcher
	toolServer
)

var toolNames = map[tool]string{
	toolParser:  "cadenza-parser",
	toolFetcher: "cadenza-fetcher",
	toolServer:  "waterright-mcp",
}

// DefaultConfig returns a configuration with the defaults of every tool.
func DefaultConfig() *Config {
	return &Config{
		TablePath:   "cadenza-table.xlsx",
		ReportsDir:  DefaultReportsBase,
		Workers:     runtime.NumCPU(),
		CadenzaURL:  DefaultCadenzaURL,
		CadenzaRoot: DefaultCadenzaRoot,
		Retries:     DefaultRetries,
		Mode:        ModeStdio,
		Host:        DefaultHost,
		Port:        DefaultPort,
		RecordsDir:  DefaultReportsBase,
		LogLevel:    DefaultLogLevel,
		Version:     "dev",
		ServerName:  "waterright-mcp",
	}
}

// LoadParserFlags parses the cadenza-parser command line.
func LoadParserFlags() (*Config, error) { return loadFlags(toolParser) }

// LoadFetcherFlags parses the cadenza-fetcher command line.
func LoadFetcherFlags() (*Config, error) { return loadFlags(toolFetcher) }

// LoadServerFlags parses the waterright-mcp command line.
func LoadServerFlags() (*Config, error) { return loadFlags(toolServer) }

func loadFlags(t tool) (*Config, error) {
	cfg := DefaultConfig()
	if t == toolParser {
		// Enrichment is opt-in for the parser, the fetcher always needs
		// the table.
		cfg.TablePath = ""
	}

	setupViperEnvironment(cfg)
	defineCommandLineFlags(t, cfg)
	bindFlagsToViper()
	setupUsageMessage(t)

	// Check for the version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and
// defaults. Every knob has a default so tools can read knobs they define no
// flag for.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("NLWKN")
	viper.AutomaticEnv()

	viper.SetDefault("table", cfg.TablePath)
	viper.SetDefault("reports", cfg.ReportsDir)
	viper.SetDefault("no", cfg.No)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("csv", cfg.CSVPath)
	viper.SetDefault("cadenzaurl", cfg.CadenzaURL)
	viper.SetDefault("cadenzaroot", cfg.CadenzaRoot)
	viper.SetDefault("proxy", cfg.ProxyAddress)
	viper.SetDefault("retries", cfg.Retries)
	viper.SetDefault("force", cfg.Force)
	viper.SetDefault("diff", cfg.DiffPath)
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("records", cfg.RecordsDir)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up the command line flags of one tool
func defineCommandLineFlags(t tool, cfg *Config) {
	switch t {
	case toolParser:
		pflag.String("reports", cfg.ReportsDir, "Directory holding the rep<no>.pdf reports")
		pflag.String("table", cfg.TablePath, "Cadenza xlsx export used for enrichment, empty skips enrichment")
		pflag.Int("workers", cfg.Workers, "Parallel parse workers")
		pflag.Uint64("no", cfg.No, "Parse only this water right number")
		pflag.String("csv", cfg.CSVPath, "Write a flat per-usage-location csv export to this file")

	case toolFetcher:
		pflag.String("table", cfg.TablePath, "Cadenza xlsx export listing the water rights to fetch")
		pflag.String("diff", cfg.DiffPath, "Previous xlsx export, fetch only added and changed rights")
		pflag.String("reports", cfg.ReportsDir, "Base directory for the dated report directories")
		pflag.String("cadenzaurl", cfg.CadenzaURL, "Base URL of the cadenza web application")
		pflag.String("cadenzaroot", cfg.CadenzaRoot, "Scheme and host redirect targets are resolved against")
		pflag.String("proxy", cfg.ProxyAddress, "host:port of a SOCKS5 proxy, empty connects directly")
		pflag.Int("retries", cfg.Retries, "Download attempts per report")
		pflag.Bool("force", cfg.Force, "Refetch reports that are already present")
		pflag.Uint64("no", cfg.No, "Fetch only this water right number")

	case toolServer:
		pflag.String("mode", cfg.Mode, "Transport: 'stdio' for MCP standard I/O, 'server' for SSE over HTTP")
		pflag.String("host", cfg.Host, "Server host address (server mode only)")
		pflag.Int("port", cfg.Port, "Server port (server mode only)")
		pflag.String("records", cfg.RecordsDir, "Directory searched for *.reports.json result files")
		pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	}
}

// bindFlagsToViper binds the defined command line flags to viper.
func bindFlagsToViper() {
	pflag.CommandLine.VisitAll(func(flag *pflag.Flag) {
		_ = viper.BindPFlag(flag.Name, flag)
	})
}

// setupUsageMessage configures the usage message of one tool.
func setupUsageMessage(t tool) {
	name := toolNames[t]
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", name)
		switch t {
		case toolParser:
			fmt.Fprintf(os.Stderr, "\nParses cadenza water right reports into structured JSON records\n\n")
		case toolFetcher:
			fmt.Fprintf(os.Stderr, "\nCrawls water right reports from the cadenza portal\n\n")
		case toolServer:
			fmt.Fprintf(os.Stderr, "\nServes parsed water right records over the Model Context Protocol\n\n")
		}
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		switch t {
		case toolParser:
			fmt.Fprintf(os.Stderr, "  %s --reports=data/reports/2024-04-04 --table=cadenza-table.xlsx\n", name)
			fmt.Fprintf(os.Stderr, "  %s --reports=data/reports/2024-04-04 --no=1225\n", name)
			fmt.Fprintf(os.Stderr, "  %s --reports=data/reports/2024-04-04 --csv=waterrights.csv\n", name)
		case toolFetcher:
			fmt.Fprintf(os.Stderr, "  %s --table=cadenza-table.xlsx --proxy=127.0.0.1:9050\n", name)
			fmt.Fprintf(os.Stderr, "  %s --table=new.xlsx --diff=old.xlsx\n", name)
			fmt.Fprintf(os.Stderr, "  %s --no=1225 --force\n", name)
		case toolServer:
			fmt.Fprintf(os.Stderr, "  %s --records=data/reports\n", name)
			fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081\n", name)
		}
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		switch t {
		case toolParser:
			fmt.Fprintf(os.Stderr, "  NLWKN_REPORTS      Reports directory\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_TABLE        Cadenza xlsx export\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_WORKERS      Parallel parse workers\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_NO           Single water right number\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_CSV          CSV export file\n")
		case toolFetcher:
			fmt.Fprintf(os.Stderr, "  NLWKN_TABLE        Cadenza xlsx export\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_DIFF         Previous xlsx export\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_REPORTS      Reports base directory\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_CADENZAURL   Cadenza application URL\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_CADENZAROOT  Portal scheme and host\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_PROXY        SOCKS5 proxy address\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_RETRIES      Download attempts per report\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_FORCE        Refetch present reports\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_NO           Single water right number\n")
		case toolServer:
			fmt.Fprintf(os.Stderr, "  NLWKN_MODE         Transport mode\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_HOST         Server host\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_PORT         Server port\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_RECORDS      Records directory\n")
			fmt.Fprintf(os.Stderr, "  NLWKN_LOGLEVEL     Log level\n")
		}
	}
}

// checkVersionFlag checks if the version flag was requested.
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.TablePath = viper.GetString("table")
	cfg.ReportsDir = viper.GetString("reports")
	cfg.No = viper.GetUint64("no")
	cfg.Workers = viper.GetInt("workers")
	cfg.CSVPath = viper.GetString("csv")
	cfg.CadenzaURL = viper.GetString("cadenzaurl")
	cfg.CadenzaRoot = viper.GetString("cadenzaroot")
	cfg.ProxyAddress = viper.GetString("proxy")
	cfg.Retries = viper.GetInt("retries")
	cfg.Force = viper.GetBool("force")
	cfg.DiffPath = viper.GetString("diff")
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.RecordsDir = viper.GetString("records")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.ReportsDir == "" {
		return errors.New("reports directory cannot be empty")
	}

	if c.Retries < 1 {
		return errors.New("retries must be at least 1")
	}

	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsServerMode returns true if the MCP server runs over SSE.
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP server speaks over standard I/O.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Mode: %s, Host: %s, Port: %d, ReportsDir: %s, RecordsDir: %s, TablePath: %s, Workers: %d}",
		c.Mode, c.Host, c.Port, c.ReportsDir, c.RecordsDir, c.TablePath, c.Workers,
	)
}
