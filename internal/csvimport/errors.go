package csvimport

import "errors"

var (
	// ErrMissingColumn is returned when the header lacks variant_sku or qty.
	ErrMissingColumn = errors.New("csv header is missing a required column")

	// ErrTooManyRows is returned when the file has more data rows than allowed.
	ErrTooManyRows = errors.New("csv file has too many rows")

	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("csv file is empty")
)
