package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

// Row is one data row ready for normalization. Err is set when the adapter
// already rejected the row, for example a spreadsheet date that cannot be
// rebuilt.
type Row struct {
	Record domain.RawRecord
	Err    *domain.RejectionError
}

const utf8BOM = "\ufeff"

// ParseDelimited splits text on newlines and commas without quote handling.
// The first line is the header; blank lines are skipped and short rows are
// padded with empty cells.
func ParseDelimited(text string) ([]Row, error) {
	lines := strings.Split(text, "\n")
	headers := splitCells(strings.TrimPrefix(lines[0], utf8BOM))
	if len(headers) == 1 && headers[0] == "" {
		return nil, ErrEmptyInput
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, Row{Record: zip(headers, splitCells(line))})
	}
	return rows, nil
}

// ParseQuotedDelimited is ParseDelimited with RFC 4180 quoting, so cells such
// as "Sichuan, Gansu" stay intact.
func ParseQuotedDelimited(text string) ([]Row, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	headers := trimCells(header)

	var rows []Row
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		rows = append(rows, Row{Record: zip(headers, trimCells(cells))})
	}
	return rows, nil
}

func splitCells(line string) []string {
	return trimCells(strings.Split(line, ","))
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// zip pairs headers with values positionally. Extra values are dropped.
func zip(headers, values []string) domain.RawRecord {
	rec := make(domain.RawRecord, len(headers))
	for i, h := range headers {
		if i < len(values) {
			rec[h] = values[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}
