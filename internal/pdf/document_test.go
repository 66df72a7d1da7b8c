package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildSamplePDF assembles a single page PDF with the given content stream
// and a correct cross reference table.
func buildSamplePDF(t *testing.T, content string) []byte {
	t.Helper()

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
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	writeObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	writeObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

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

func writeSamplePDF(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rep12345.pdf")
	if err := os.WriteFile(path, buildSamplePDF(t, content), 0o644); err != nil {
		t.Fatalf("failed to write sample PDF: %v", err)
	}
	return path
}

const sampleContent = "BT\n" +
	"/F1 11.25 Tf\n" +
	"1 0 0 1 56.7 745.6 Tm\n" +
	"0 0 0 rg\n" +
	"(Wasserbuchblatt) Tj\n" +
	"ET"

func TestOpenFile(t *testing.T) {
	path := writeSamplePDF(t, sampleContent)

	document, err := OpenFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if document.PageCount() != 1 {
		t.Errorf("expected 1 page but got %d", document.PageCount())
	}
	if document.Version() != "1.4" {
		t.Errorf("expected version 1.4 but got %s", document.Version())
	}
	if document.Encrypted() {
		t.Errorf("document should not be encrypted")
	}
	if document.Path() != path {
		t.Errorf("expected path %s but got %s", path, document.Path())
	}
}

func TestOpenFileErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{
			name: "non-existent file",
			path: "/non/existent/file.pdf",
		},
		{
			name: "not a PDF",
			path: writeTextFile(t, "just some text"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenFile(tt.path)
			if err == nil {
				t.Fatalf("expected error but got none")
			}

			var libErr *LibraryError
			if !errors.As(err, &libErr) {
				t.Fatalf("expected a LibraryError but got %T", err)
			}
			if libErr.Library != LibraryPDFCPU {
				t.Errorf("expected library %s but got %s", LibraryPDFCPU, libErr.Library)
			}
		})
	}
}

func TestPageOperations(t *testing.T) {
	path := writeSamplePDF(t, sampleContent)

	document, err := OpenFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	operations, err := document.PageOperations(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	operators := make([]string, 0, len(operations))
	for _, operation := range operations {
		operators = append(operators, operation.Operator)
	}

	want := []string{"BT", "Tf", "Tm", "rg", "Tj", "ET"}
	if len(operators) != len(want) {
		t.Fatalf("expected operators %v but got %v", want, operators)
	}
	for i := range want {
		if operators[i] != want[i] {
			t.Fatalf("expected operators %v but got %v", want, operators)
		}
	}

	font, err := operations[1].Name(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if font != "F1" {
		t.Errorf("expected font F1 but got %s", font)
	}

	x, err := operations[2].Float(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 56.7 {
		t.Errorf("expected x 56.7 but got %v", x)
	}

	text, err := operations[4].Text(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(text) != "Wasserbuchblatt" {
		t.Errorf("expected text Wasserbuchblatt but got %q", text)
	}
}

func TestPageOperationsInvalidPage(t *testing.T) {
	path := writeSamplePDF(t, sampleContent)

	document, err := OpenFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, pageNr := range []int{0, 2, -1} {
		if _, err := document.PageOperations(pageNr); err == nil {
			t.Errorf("expected error for page %d but got none", pageNr)
		}
	}
}

func TestOperations(t *testing.T) {
	path := writeSamplePDF(t, sampleContent)

	document, err := OpenFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	operations, err := document.Operations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(operations) != 6 {
		t.Errorf("expected 6 operations but got %d", len(operations))
	}
}

func writeTextFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "file.pdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
