package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wisdom-oss/nlwkn-go/internal/cadenza"
	"github.com/wisdom-oss/nlwkn-go/internal/config"
	"github.com/wisdom-oss/nlwkn-go/internal/fetch"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadFetcherFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	nos, isoDate, err := selectWaterRights(cfg)
	if err != nil {
		return err
	}
	if len(nos) == 0 {
		log.Printf("nothing to fetch")
		return nil
	}

	client, err := fetch.NewClient(fetch.ClientOptions{
		CadenzaURL:   cfg.CadenzaURL,
		CadenzaRoot:  cfg.CadenzaRoot,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return err
	}

	log.Printf("waiting for the cadenza portal")
	if err := client.WaitReady(ctx); err != nil {
		return fmt.Errorf("cadenza portal not reachable: %w", err)
	}

	reportsDir := fetch.ReportsDir(cfg.ReportsDir, isoDate)
	log.Printf("fetching %d reports into %s", len(nos), reportsDir)

	summary, err := client.FetchReports(ctx, nos, reportsDir, fetch.Options{
		Force:   cfg.Force,
		Retries: cfg.Retries,
	})
	if summary != nil {
		printFetchSummary(summary, reportsDir)
	}
	return err
}

// selectWaterRights determines which reports to fetch: a single number, the
// rights added or changed since a previous export, or the whole table with
// active rights first. The iso date of the table names the target directory.
func selectWaterRights(cfg *config.Config) ([]waterright.WaterRightNo, *string, error) {
	if cfg.No != 0 {
		return []waterright.WaterRightNo{cfg.No}, nil, nil
	}

	if cfg.TablePath == "" {
		return nil, nil, errors.New("a cadenza table is required, pass --table or --no")
	}

	table, err := cadenza.LoadTable(cfg.TablePath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading cadenza table: %w", err)
	}
	table.Sanitize()

	if cfg.DiffPath != "" {
		previous, err := cadenza.LoadTable(cfg.DiffPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading previous cadenza table: %w", err)
		}
		previous.Sanitize()

		diff := previous.Diff(table)
		nos := diff.WaterRightNos()
		log.Printf("%d water rights added or changed since %s", len(nos), cfg.DiffPath)
		return nos, table.IsoDate(), nil
	}

	fetch.Prioritize(table)
	return table.WaterRightNos(), table.IsoDate(), nil
}

func printFetchSummary(summary *fetch.Summary, reportsDir string) {
	fmt.Printf("\nReports in %s\n", reportsDir)
	fmt.Printf("  fetched:    %d\n", len(summary.Fetched))
	fmt.Printf("  skipped:    %d\n", len(summary.Skipped))
	fmt.Printf("  no results: %d\n", len(summary.NoResults))
	fmt.Printf("  failed:     %d\n", len(summary.Failed))
	if len(summary.Failed) > 0 {
		fmt.Printf("\nFailed water rights: %v\n", summary.Failed)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("NLWKN Cadenza Report Fetcher\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
