package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// ErrNoResults means the portal holds no report for the requested water
// right. Retrying cannot change that.
var ErrNoResults = errors.New("cadenza has no results for this request")

// noResultsMarker appears in the result page body when a query matched
// nothing.
const noResultsMarker = "Die Abfrage liefert keine Ergebnisse."

var downloadURLRe = regexp.MustCompile(`\?file=rep(?P<id>\d+)\.pdf`)

// ReportURL negotiates the download URL for the report of a water right.
// The portal answers the report command with a redirect carrying the
// session id, lets that session wait for the result and finally redirects
// to the prepared file.
func (c *Client) ReportURL(ctx context.Context, no waterright.WaterRightNo) (string, error) {
	commandURL := fmt.Sprintf(
		"%scommands.xhtml"+
			"?ShowLegacy.RepositoryItem.Id=FIS-W.WBE.wbe/wbe_net_wasserrecht.cwf"+
			"&ShowLegacy.RepositoryItem.Value='%d'"+
			"&ShowLegacy.RepositoryItem.Attribute=wbe_net_wasserrecht.wasserrecht_nr",
		c.cadenzaURL, no,
	)
	commandRes, err := c.get(ctx, commandURL)
	if err != nil {
		return "", err
	}
	commandRes.Body.Close()
	if commandRes.StatusCode != http.StatusFound {
		return "", fmt.Errorf("command responded with %d, expected 302", commandRes.StatusCode)
	}
	waitURL := commandRes.Header.Get("Location")
	if waitURL == "" {
		return "", errors.New("command response has no 'Location' header")
	}
	_, sessionID, found := strings.Cut(waitURL, ";jsessionid=")
	if !found {
		return "", errors.New("command response has no session id in 'Location' header")
	}

	waitRes, err := c.get(ctx, fmt.Sprintf("%swait.cweb;jsessionid=%s", c.cadenzaURL, sessionID))
	if err != nil {
		return "", err
	}
	waitRes.Body.Close()
	if waitRes.StatusCode != http.StatusFound {
		return "", fmt.Errorf("wait responded with %d, expected 302", waitRes.StatusCode)
	}
	finishPath := waitRes.Header.Get("Location")
	if finishPath == "" {
		return "", errors.New("wait response has no 'Location' header")
	}

	finishRes, err := c.get(ctx, c.cadenzaRoot+finishPath)
	if err != nil {
		return "", err
	}
	defer finishRes.Body.Close()
	downloadURL := finishRes.Header.Get("Location")
	if downloadURL == "" {
		body, readErr := io.ReadAll(finishRes.Body)
		if readErr == nil && strings.Contains(string(body), noResultsMarker) {
			return "", ErrNoResults
		}
		return "", errors.New("finish response has no 'Location' header")
	}

	match := downloadURLRe.FindStringSubmatch(downloadURL)
	if match == nil {
		return "", errors.New("download url does not contain a report file id")
	}
	return fmt.Sprintf(
		"%spages/download/get;jsessionid=%s?file=rep%s.pdf&mimetype=application/pdf",
		c.cadenzaURL, sessionID, match[1],
	), nil
}

// DownloadReport fetches the report of a water right into dir, named
// rep<no>.pdf.
func (c *Client) DownloadReport(ctx context.Context, no waterright.WaterRightNo, dir string) error {
	reportURL, err := c.ReportURL(ctx, no)
	if err != nil {
		return err
	}

	response, err := c.get(ctx, reportURL)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("download responded with %d, expected 200", response.StatusCode)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("rep%d.pdf", no)), data, 0o644)
}
