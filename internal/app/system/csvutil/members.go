// internal/app/system/csvutil/members.go

// Package csvutil pre-scans CSV uploads before any database mutation
// runs, so a bad file is rejected whole instead of half-imported.
package csvutil

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ErrTooManyRows is returned when an upload exceeds MaxRows data rows.
var ErrTooManyRows = errors.New("csv exceeds the row limit")

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// MemberRow is the normalized row produced by PreScanMembersCSV.
// Columns: full name, email (optional), phone (optional).
type MemberRow struct {
	FullName string
	Email    string
	Phone    string
}

// RowError describes why one CSV line was rejected. Line is 1-based
// and counts the header when one is present.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// PreScanMembersCSV reads every row from r, skips a header when the
// first row looks like one, and validates each line. It returns either
// the normalized rows or the list of per-line problems, never both.
func PreScanMembersCSV(r io.Reader) (rows []MemberRow, rowErrs []RowError, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	first, ferr := reader.Read()
	if ferr == io.EOF {
		first = nil
	} else if ferr != nil {
		return nil, nil, ferr
	} else {
		line = 1
	}

	type rawRow struct {
		line int
		rec  []string
	}
	var raw []rawRow
	if first != nil && !isHeader(first) {
		raw = append(raw, rawRow{line: line, rec: first})
	}
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		line++
		if e != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "malformed CSV line"})
			continue
		}
		if len(rec) == 0 {
			continue
		}
		raw = append(raw, rawRow{line: line, rec: rec})
		if len(raw) > MaxRows {
			return nil, nil, ErrTooManyRows
		}
	}

	for _, rr := range raw {
		row := normalizeRow(rr.rec)
		if row.FullName == "" && row.Email == "" && row.Phone == "" {
			continue
		}
		if row.FullName == "" {
			rowErrs = append(rowErrs, RowError{Line: rr.line, Reason: "missing full name"})
			continue
		}
		if row.Email != "" && !strings.Contains(row.Email, "@") {
			rowErrs = append(rowErrs, RowError{Line: rr.line, Reason: "malformed email"})
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrs) > 0 {
		return nil, rowErrs, nil
	}
	return rows, nil, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	h := strings.ToLower(strings.TrimSpace(rec[0]))
	return h == "full name" || h == "name" || h == "nome" || h == "nome completo"
}

func normalizeRow(rec []string) MemberRow {
	var row MemberRow
	if len(rec) > 0 {
		row.FullName = strings.TrimSpace(rec[0])
	}
	if len(rec) > 1 {
		row.Email = strings.TrimSpace(rec[1])
	}
	if len(rec) > 2 {
		row.Phone = strings.TrimSpace(rec[2])
	}
	return row
}
