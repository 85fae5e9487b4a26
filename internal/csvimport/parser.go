// Package csvimport turns an uploaded quick-order CSV into candidate order
// lines. Parsing never looks anything up; the lines it returns still need a
// reconciliation pass.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/quickorder/internal/domain"
)

const (
	ColumnSKU      = "variant_sku"
	ColumnQuantity = "qty"

	// DefaultMaxRows caps data rows when Options.MaxRows is unset.
	DefaultMaxRows = 500

	// DefaultQuantity replaces a quantity cell that is not a positive integer.
	DefaultQuantity = 1
)

const utf8BOM = "\ufeff"

// Options controls parsing limits.
type Options struct {
	MaxRows int
}

func (o Options) maxRows() int {
	if o.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return o.MaxRows
}

// RowError describes a data row that could not become a line. The rest of
// the file is still parsed.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Parse reads a header row followed by data rows. Duplicate SKUs are kept
// as separate lines; merging them is the cart's job.
func Parse(r io.Reader, opts Options) ([]domain.OrderLine, []RowError, error) {
	const op = "csvimport.parse"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, domain.WrapError(ErrEmptyFile, domain.EINVALID, op, "The uploaded file is empty.")
	}
	if err != nil {
		return nil, nil, domain.WrapError(err, domain.EINVALID, op, "The uploaded file is not valid CSV.")
	}

	skuCol, qtyCol, err := locateColumns(header)
	if err != nil {
		return nil, nil, domain.WrapError(err, domain.EINVALID, op,
			fmt.Sprintf("The uploaded file must have %s and %s columns.", ColumnSKU, ColumnQuantity))
	}

	// Rows are numbered by their position in the file, counting blank lines,
	// so row 1 is the line right after the header.
	headerLine, _ := reader.FieldPos(0)

	limit := opts.maxRows()
	lines := make([]domain.OrderLine, 0)
	var rowErrors []RowError
	count := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, domain.WrapError(err, domain.EINVALID, op, "The uploaded file is not valid CSV.")
		}
		if blank(record) {
			continue
		}

		count++
		if count > limit {
			return nil, nil, domain.WrapError(ErrTooManyRows, domain.EINVALID, op,
				fmt.Sprintf("The uploaded file can have at most %d rows.", limit))
		}

		fileLine, _ := reader.FieldPos(0)
		row := fileLine - headerLine

		sku := strings.TrimSpace(field(record, skuCol))
		if sku == "" {
			rowErrors = append(rowErrors, RowError{Row: row, Message: ColumnSKU + " is required"})
			continue
		}

		lines = append(lines, domain.OrderLine{
			ID:        uuid.NewString(),
			SKU:       sku,
			Quantity:  parseQuantity(field(record, qtyCol)),
			SourceRow: row,
			Source:    domain.LineSourceCSV,
		})
	}

	return lines, rowErrors, nil
}

func locateColumns(header []string) (skuCol, qtyCol int, err error) {
	skuCol, qtyCol = -1, -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnSKU:
			if skuCol < 0 {
				skuCol = i
			}
		case ColumnQuantity:
			if qtyCol < 0 {
				qtyCol = i
			}
		}
	}
	if skuCol < 0 || qtyCol < 0 {
		return 0, 0, ErrMissingColumn
	}
	return skuCol, qtyCol, nil
}

func parseQuantity(s string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || qty < 1 {
		return DefaultQuantity
	}
	return qty
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
