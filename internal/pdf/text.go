package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// PlainText extracts the text content of all pages of the PDF at path.
// Pages that fail to decode are skipped so a single broken page does not
// lose the rest of the document.
func PlainText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", &LibraryError{Library: LibraryLedongthuc, Op: "open_file", Err: err}
	}
	defer file.Close()

	var builder strings.Builder
	for pageNr := 1; pageNr <= reader.NumPage(); pageNr++ {
		page := reader.Page(pageNr)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
			builder.WriteByte('\n')
		}
		builder.WriteString(content)
	}

	return builder.String(), nil
}
