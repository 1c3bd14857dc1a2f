package ingest

import "errors"

var (
	ErrNoDelimiter = errors.New("CLIENT DATA MUST HAVE TABS OR COMMAS BETWEEN COLUMNS OF DATA")
	ErrSingleLine  = errors.New("ONLY 1 LINE OF DATA - NEED TITLE ROW + DATA ROW!")
	ErrEmptySheet  = errors.New("spreadsheet has no sheets")
)
