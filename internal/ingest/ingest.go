// Package ingest turns pasted sheet text or uploaded spreadsheets into an
// import batch.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/yourorg/rips-import/internal/iopkg"
	"github.com/yourorg/rips-import/internal/normalize"
	"github.com/yourorg/rips-import/internal/types"
)

// RowError reports one rejected data row. Row counts the header as row 1.
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string { return e.Message }

// Result is a parsed batch plus the rows that were left out.
type Result struct {
	Header    []string
	Batch     types.Batch
	Rejected  []RowError
	Delimiter rune
}

// Messages returns the rejection messages in row order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Rejected))
	for i, e := range r.Rejected {
		out[i] = e.Message
	}
	return out
}

// Delimiter picks tab when the text has any tab, else comma.
func Delimiter(text string) (rune, error) {
	switch {
	case strings.ContainsRune(text, '\t'):
		return '\t', nil
	case strings.ContainsRune(text, ','):
		return ',', nil
	}
	return 0, ErrNoDelimiter
}

// ParseText parses pasted sheet text: a header row followed by data rows.
// Rows whose column count differs from the header are rejected one by one.
// Every line is split on its own, so a stray quote never spills into the
// rows after it.
func ParseText(text string) (Result, error) {
	if !strings.Contains(text, "\n") {
		return Result{}, ErrSingleLine
	}
	delim, err := Delimiter(text)
	if err != nil {
		return Result{}, err
	}
	var (
		rows  [][]string
		lines []int
	)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, splitLine(line, delim))
		lines = append(lines, i+1)
	}
	res, err := build(rows, lines, false)
	res.Delimiter = delim
	return res, err
}

// splitLine cuts one line into cells. Tab separated cells are taken
// literally; comma separated ones may quote a comma.
func splitLine(line string, delim rune) []string {
	if delim == ',' && strings.ContainsRune(line, '"') {
		cr := csv.NewReader(strings.NewReader(line))
		cr.FieldsPerRecord = -1
		if rec, err := cr.Read(); err == nil {
			return rec
		}
	}
	return strings.Split(line, string(delim))
}

// Parse reads a csv, tsv, xlsx or xls file. The format comes from the file
// extension or, failing that, the content signature.
func Parse(name string, b []byte) (Result, error) {
	head := b
	if len(head) > 512 {
		head = head[:512]
	}
	ext := strings.ToLower(path.Ext(name))
	ct := http.DetectContentType(head)
	switch {
	case ext == ".xlsx" || strings.HasPrefix(ct, "application/zip"):
		rows, err := readXLSX(b)
		if err != nil {
			return Result{}, fmt.Errorf("xlsx: %w", err)
		}
		return build(rows, nil, true)
	case ext == ".xls" || bytes.HasPrefix(b, []byte{0xD0, 0xCF, 0x11, 0xE0}): // OLE Compound File
		rows, err := readXLS(b)
		if err != nil {
			return Result{}, fmt.Errorf("xls: %w", err)
		}
		return build(rows, nil, true)
	default:
		return ParseText(string(b))
	}
}

// Load reads and parses a file:// or s3:// sheet.
func Load(ctx context.Context, uri string) (Result, error) {
	b, err := iopkg.ReadAll(ctx, uri)
	if err != nil {
		return Result{}, err
	}
	return Parse(uri, b)
}

// build maps data rows onto the header. lines holds the source line of each
// row; nil means rows are numbered by position. Spreadsheet rows lose their
// trailing empty cells, so with pad set short rows are filled instead of
// rejected.
func build(rows [][]string, lines []int, pad bool) (Result, error) {
	rows, lines = dropBlank(rows, lines)
	if len(rows) < 2 {
		return Result{}, ErrSingleLine
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalize.Header(h)
	}
	res := Result{Header: header}
	for i, row := range rows[1:] {
		n := i + 2
		if lines != nil {
			n = lines[i+1]
		}
		if pad && len(row) < len(header) {
			row = append(row, make([]string, len(header)-len(row))...)
		}
		if len(row) != len(header) {
			res.Rejected = append(res.Rejected, RowError{
				Row:     n,
				Message: fmt.Sprintf("ROW #%d HAS DIFFERENT # OF COLUMNS THAN HEADER", n),
			})
			continue
		}
		rec := make(types.Record, len(header))
		for c, h := range header {
			rec[h] = normalize.Value(row[c])
		}
		res.Batch = append(res.Batch, rec)
	}
	return res, nil
}

func dropBlank(rows [][]string, lines []int) ([][]string, []int) {
	outRows := rows[:0:0]
	var outLines []int
	for i, r := range rows {
		blank := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		outRows = append(outRows, r)
		if lines != nil {
			outLines = append(outLines, lines[i])
		}
	}
	return outRows, outLines
}
