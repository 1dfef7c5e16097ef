package loader

import (
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/segment-cli/internal/model"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads a raw supplier table from the given workbook sheet. The
// first row is treated as the header and matched case-insensitively
// against the supplier column names.
func ReadXLSX(path string, opts XLSXOptions) ([]model.Supplier, error) {
	dec, err := openXLSX(path, opts)
	if err != nil {
		return nil, err
	}

	var suppliers []model.Supplier
	for {
		var s model.Supplier
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "loader: decode %s", path)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, nil
}

// ReadClassifiedXLSX reads a previously classified table from a workbook,
// including the score and classification columns.
func ReadClassifiedXLSX(path string, opts XLSXOptions) ([]model.ScoredSupplier, error) {
	dec, err := openXLSX(path, opts)
	if err != nil {
		return nil, err
	}

	var rows []model.ScoredSupplier
	for {
		var r model.ScoredSupplier
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "loader: decode %s", path)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func openXLSX(path string, opts XLSXOptions) (*csvutil.Decoder, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		records = append(records, rowToStrings(row))
	}
	if len(records) == 0 {
		return nil, eris.Errorf("loader: %s: empty sheet", path)
	}
	for i, field := range records[0] {
		records[0][i] = strings.ToLower(strings.TrimSpace(field))
	}

	// Sheets drop trailing empty cells, so pad ragged rows to header width.
	width := len(records[0])
	for i, rec := range records {
		for len(rec) < width {
			rec = append(rec, "")
		}
		records[i] = rec[:width]
	}

	dec, err := csvutil.NewDecoder(&sliceReader{records: records})
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read header of %s", path)
	}
	return dec, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("loader: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("loader: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// sliceReader serves pre-extracted sheet rows through the record-reader
// interface the decoder expects.
type sliceReader struct {
	records [][]string
	next    int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.next >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}
