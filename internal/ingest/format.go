package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

// zipMagic prefixes every xlsx file.
var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks the upload format from the file extension. Without an
// extension it sniffs the content: xlsx is a zip archive, anything else is
// treated as delimited text.
func DetectFormat(filename string, data []byte) (domain.Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return domain.FormatCSV, nil
	case ".xlsx":
		return domain.FormatXLSX, nil
	case "":
		if bytes.HasPrefix(data, zipMagic) {
			return domain.FormatXLSX, nil
		}
		return domain.FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
}
