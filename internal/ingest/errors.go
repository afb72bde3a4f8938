package ingest

import "errors"

// Batch-level failures. Unlike per-record rejections these abort the whole
// upload and are shown to the user.
var (
	ErrEmptyInput        = errors.New("file is empty or has no header row")
	ErrMalformedInput    = errors.New("file structure is malformed")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrNoValidRecords    = errors.New("no valid records found in the file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// IsBatchError reports whether err is a user-facing batch failure rather than
// an infrastructure error.
func IsBatchError(err error) bool {
	for _, target := range []error{ErrEmptyInput, ErrMalformedInput, ErrMissingColumns, ErrNoValidRecords, ErrUnsupportedFormat} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
