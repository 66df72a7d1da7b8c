package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks that a file is a readable PDF before it is handed to
// the report parser.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator that rejects files larger than
// maxFileSize bytes.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks the file at path without parsing its full content.
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	// Opening the file parses the cross reference table, which catches
	// truncated downloads and error pages saved with a .pdf name.
	file, _, err := pdf.Open(path)
	if err != nil {
		return &LibraryError{Library: LibraryLedongthuc, Op: "validate", Err: err}
	}
	defer file.Close()

	return nil
}

// ValidateFileInfo checks already collected file metadata. It is used by
// directory scans that hold a DirEntry for every candidate file.
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// IsValidPDF reports whether the file at path passes validation.
func (v *Validator) IsValidPDF(path string) bool {
	return v.ValidateFile(path) == nil
}
