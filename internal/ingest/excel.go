package ingest

import (
	"bytes"

	xls "github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// readXLSX returns the cells of the first sheet.
func readXLSX(b []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		out = append(out, cols)
	}
	return out, rows.Error()
}

// readXLS returns the cells of the first sheet of a legacy workbook.
func readXLS(b []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(b), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptySheet
	}
	sh := wb.GetSheet(0)
	if sh == nil {
		return nil, ErrEmptySheet
	}
	var out [][]string
	for i := 0; i <= int(sh.MaxRow); i++ {
		row := sh.Row(i)
		if row == nil {
			continue
		}
		cols := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cols = append(cols, row.Col(c))
		}
		out = append(out, cols)
	}
	return out, nil
}
