package fetch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wisdom-oss/nlwkn-go/internal/cadenza"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// defaultRetries is how often a report download is attempted before the
// water right is given up for this run.
const defaultRetries = 5

var reportFileRe = regexp.MustCompile(`^rep(?P<no>\d+)\.pdf$`)

// Options control a fetch run.
type Options struct {
	// Force refetches reports already present in the reports directory.
	Force bool

	// Retries is the number of attempts per report, zero meaning the
	// default.
	Retries int

	// Sleep pauses between retries, nil meaning time.Sleep.
	Sleep func(time.Duration)
}

// Summary lists how each requested water right went.
type Summary struct {
	Fetched   []waterright.WaterRightNo
	Skipped   []waterright.WaterRightNo
	NoResults []waterright.WaterRightNo
	Failed    []waterright.WaterRightNo
}

// FetchReports downloads the reports for the given water rights into
// reportsDir, creating it if needed. Already fetched reports are skipped
// unless forced. Failed downloads are retried with quadratically growing
// pauses; a water right without results is terminal and not retried.
func (c *Client) FetchReports(
	ctx context.Context,
	nos []waterright.WaterRightNo,
	reportsDir string,
	options Options,
) (*Summary, error) {
	retries := options.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	sleep := options.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}

	fetched := make(map[waterright.WaterRightNo]bool)
	if !options.Force {
		var err error
		fetched, err = fetchedReports(reportsDir)
		if err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	for _, no := range nos {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if fetched[no] {
			log.Printf("skipped %d, already fetched", no)
			summary.Skipped = append(summary.Skipped, no)
			continue
		}

		switch err := c.fetchWithRetries(ctx, no, reportsDir, retries, sleep); {
		case err == nil:
			log.Printf("fetched %d", no)
			fetched[no] = true
			summary.Fetched = append(summary.Fetched, no)
		case errors.Is(err, ErrNoResults):
			log.Printf("warning: no results found for %d", no)
			summary.NoResults = append(summary.NoResults, no)
		default:
			log.Printf("warning: exceeded amount of retries, will skip %d", no)
			summary.Failed = append(summary.Failed, no)
		}
	}

	return summary, nil
}

func (c *Client) fetchWithRetries(
	ctx context.Context,
	no waterright.WaterRightNo,
	reportsDir string,
	retries int,
	sleep func(time.Duration),
) error {
	var lastErr error
	for retry := 1; retry <= retries; retry++ {
		err := c.DownloadReport(ctx, no, reportsDir)
		if err == nil || errors.Is(err, ErrNoResults) {
			return err
		}
		lastErr = err

		if retry == retries {
			break
		}
		wait := time.Duration(1<<uint(retry)) * time.Second
		log.Printf("failed to fetch %d, %v, will try again in %s", no, err, wait)
		sleep(wait)
	}
	return lastErr
}

// fetchedReports scans a reports directory for already downloaded reports.
func fetchedReports(dir string) (map[waterright.WaterRightNo]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading reports directory: %w", err)
	}

	fetched := make(map[waterright.WaterRightNo]bool)
	for _, entry := range entries {
		match := reportFileRe.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		no, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing water right number from %q: %w", entry.Name(), err)
		}
		fetched[no] = true
	}
	return fetched, nil
}

// prioritizedCounties are fetched before the rest of the state.
var prioritizedCounties = []string{"Aurich", "Wittmund", "Friesland", "Leer"}

// CompareRows orders table rows into fetch order: groundwater withdrawal
// rights first, among those the prioritized counties, everything else by
// water right number.
func CompareRows(a, b *cadenza.Row) int {
	// the department abbreviation column is unreliable, the description
	// prefix is not
	aWithdrawal := strings.HasPrefix(a.LegalDepartment, "Entnahme")
	bWithdrawal := strings.HasPrefix(b.LegalDepartment, "Entnahme")
	aPrioritized := prioritizedCounty(a.County)
	bPrioritized := prioritizedCounty(b.County)

	switch {
	case aWithdrawal && !bWithdrawal:
		return -1
	case !aWithdrawal && bWithdrawal:
		return 1
	case aWithdrawal && bWithdrawal && aPrioritized && !bPrioritized:
		return -1
	case aWithdrawal && bWithdrawal && !aPrioritized && bPrioritized:
		return 1
	default:
		return cmp.Compare(a.No, b.No)
	}
}

func prioritizedCounty(county *string) bool {
	return county != nil && slices.Contains(prioritizedCounties, *county)
}

// Prioritize sorts a table into fetch order.
func Prioritize(table *cadenza.Table) {
	table.SortBy(CompareRows)
}

// ReportsDir names the reports directory of one table export: the export
// date under base when the table file name carries one, a plain fallback
// otherwise.
func ReportsDir(base string, isoDate *string) string {
	name := "reports"
	if isoDate != nil {
		date, _, _ := strings.Cut(*isoDate, "T")
		name = date
	}
	return filepath.Join(base, name)
}
