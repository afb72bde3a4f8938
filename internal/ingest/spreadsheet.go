package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

// requiredColumns must each appear, case-insensitively, as a substring of
// some header on the first sheet.
var requiredColumns = []string{"start year", "start month", "start day", "disaster type", "country"}

// ParseSpreadsheet reads the first sheet of an xlsx workbook. Start and end
// dates are rebuilt from the split year/month/day columns and injected as
// "Start Date" and "End Date" so the normalizer sees the same shape as a CSV
// export. Rows whose start date cannot be built carry a rejection.
func ParseSpreadsheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found", ErrMalformedInput)
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedInput, sheets[0], err)
	}
	if len(cells) == 0 || allBlank(cells[0]) {
		return nil, ErrEmptyInput
	}

	headers := trimCells(cells[0])
	if missing := missingColumns(headers); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	cols := locateDateColumns(headers)

	rows := make([]Row, 0, len(cells)-1)
	for _, values := range cells[1:] {
		if allBlank(values) {
			continue
		}
		rec := zip(headers, trimCells(values))
		index := len(rows)

		start, ok := domain.BuildDate(rec[cols.startYear], rec[cols.startMonth], rec[cols.startDay])
		if !ok {
			rows = append(rows, Row{Record: rec, Err: domain.NewRejectionError(index, domain.ColStartYear,
				domain.ErrInvalidStartDate,
				fmt.Sprintf("cannot build date from year=%q month=%q day=%q",
					rec[cols.startYear], rec[cols.startMonth], rec[cols.startDay]))})
			continue
		}
		rec[domain.ColStartDate] = start
		rec[domain.ColEndDate] = ""
		if cols.endYear != "" {
			if end, ok := domain.BuildDate(rec[cols.endYear], rec[cols.endMonth], rec[cols.endDay]); ok {
				rec[domain.ColEndDate] = end
			}
		}
		rows = append(rows, Row{Record: rec})
	}
	return rows, nil
}

func missingColumns(headers []string) []string {
	var missing []string
	for _, col := range requiredColumns {
		if findColumn(headers, col) == "" {
			missing = append(missing, col)
		}
	}
	return missing
}

type dateColumns struct {
	startYear, startMonth, startDay string
	endYear, endMonth, endDay       string
}

func locateDateColumns(headers []string) dateColumns {
	return dateColumns{
		startYear:  findColumn(headers, "start year"),
		startMonth: findColumn(headers, "start month"),
		startDay:   findColumn(headers, "start day"),
		endYear:    findColumn(headers, "end year"),
		endMonth:   findColumn(headers, "end month"),
		endDay:     findColumn(headers, "end day"),
	}
}

// findColumn returns the first header containing name, ignoring case.
func findColumn(headers []string, name string) string {
	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), name) {
			return h
		}
	}
	return ""
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
