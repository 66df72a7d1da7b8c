package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// buildReportPDF assembles a single page PDF around the given content
// stream, encoded the way the report generator writes its text.
func buildReportPDF(t *testing.T, content string) []byte {
	t.Helper()

	encoded, err := charmap.Windows1252.NewEncoder().String(content)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObject := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	writeObject("<< /Type /Catalog /Pages 2 0 R >>")
	writeObject("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObject("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] " +
		"/Resources << /Font << /F1 4 0 R /F2 4 0 R >> >> /Contents 5 0 R >>")
	writeObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	writeObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(encoded), encoded))

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

var pdfStringEscaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

// drawText renders one text block the way the report generator does,
// position first, then font, then the text itself.
func drawText(font string, x, y float64, text string) string {
	return fmt.Sprintf("BT\n1 0 0 1 %g %g Tm\n/%s 11.25 Tf\n(%s) Tj\nET\n",
		x, y, font, pdfStringEscaper.Replace(text))
}

// sampleReport renders label and value rows into a report content stream.
func sampleReport(rows ...[2]string) string {
	var content strings.Builder
	y := 780.0
	for _, row := range rows {
		content.WriteString(drawText("F1", 56.7, y, row[0]))
		if row[1] != "" {
			content.WriteString(drawText("F2", 200, y, row[1]))
		}
		y -= 20
	}
	return content.String()
}

func writeReportFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buildReportPDF(t, content), 0o644))
}

func TestLoadReports(t *testing.T) {
	minimal := sampleReport([2]string{"Wasserbuchbehörde", "NLWKN Aurich"})

	t.Run("loads and tags reports", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "rep1225.pdf", minimal)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cadenza.xlsx"), []byte("x"), 0o644))

		reports, broken, warnings, err := LoadReports(dir, nil)

		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, waterright.WaterRightNo(1225), reports[0].No)
		assert.NotNil(t, reports[0].Document)
		assert.Empty(t, broken)
		assert.Equal(t, []Warning{
			CouldNotExtractWaterRightNoWarning{FileName: "cadenza.xlsx"},
		}, warnings)
	})

	t.Run("collects unreadable reports", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "rep1225.pdf", minimal)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rep77.pdf"), []byte("not a pdf"), 0o644))

		reports, broken, warnings, err := LoadReports(dir, nil)

		require.NoError(t, err)
		require.Len(t, reports, 1)
		require.Len(t, broken, 1)
		assert.Equal(t, waterright.WaterRightNo(77), broken[0].No)
		assert.Error(t, broken[0].Err)
		assert.Equal(t, []Warning{CouldNotLoadReportsWarning{Count: 1}}, warnings)
	})

	t.Run("collects empty report files", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "rep1225.pdf", minimal)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rep9.pdf"), nil, 0o644))

		reports, broken, _, err := LoadReports(dir, nil)

		require.NoError(t, err)
		require.Len(t, reports, 1)
		require.Len(t, broken, 1)
		assert.Equal(t, waterright.WaterRightNo(9), broken[0].No)
		assert.ErrorContains(t, broken[0].Err, "file is empty")
	})

	t.Run("loads a single selected report", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "rep1.pdf", minimal)
		writeReportFile(t, dir, "rep2.pdf", minimal)

		selected := waterright.WaterRightNo(2)
		reports, broken, warnings, err := LoadReports(dir, &selected)

		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, waterright.WaterRightNo(2), reports[0].No)
		assert.Empty(t, broken)
		assert.Empty(t, warnings)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, _, err := LoadReports(filepath.Join(t.TempDir(), "nope"), nil)

		assert.ErrorContains(t, err, "reading reports directory")
	})
}

func TestLoadReport(t *testing.T) {
	minimal := sampleReport([2]string{"Wasserbuchbehörde", "NLWKN Aurich"})

	t.Run("takes the number from the file name", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "rep1225.pdf", minimal)

		report, err := LoadReport(filepath.Join(dir, "rep1225.pdf"))

		require.NoError(t, err)
		assert.Equal(t, waterright.WaterRightNo(1225), report.No)
		assert.NotNil(t, report.Document)
	})

	t.Run("unnumbered file names load with number zero", func(t *testing.T) {
		dir := t.TempDir()
		writeReportFile(t, dir, "einzelfall.pdf", minimal)

		report, err := LoadReport(filepath.Join(dir, "einzelfall.pdf"))

		require.NoError(t, err)
		assert.Zero(t, report.No)
	})

	t.Run("unreadable files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rep1.pdf"), []byte("not a pdf"), 0o644))

		_, err := LoadReport(filepath.Join(dir, "rep1.pdf"))

		assert.ErrorContains(t, err, "invalid report")
	})
}
