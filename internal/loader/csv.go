// Package loader reads supplier tables from CSV and XLSX files.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/sells-group/segment-cli/internal/model"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	// Encoding is an IANA charset name (e.g. "windows-1252"). Empty means UTF-8.
	Encoding string
	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// ReadCSV reads a raw supplier table from a CSV file. The header row is
// matched case-insensitively against the supplier column names.
func ReadCSV(path string, opts CSVOptions) ([]model.Supplier, error) {
	dec, closeFn, err := openCSV(path, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

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

// ReadClassifiedCSV reads a previously classified table, including the
// score and classification columns, for the analytics queries.
func ReadClassifiedCSV(path string, opts CSVOptions) ([]model.ScoredSupplier, error) {
	dec, closeFn, err := openCSV(path, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

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

func openCSV(path string, opts CSVOptions) (*csvutil.Decoder, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "loader: open %s", path)
	}

	var r io.Reader = f
	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			f.Close()
			return nil, nil, eris.Wrapf(err, "loader: unknown encoding %q", opts.Encoding)
		}
		r = transform.NewReader(f, enc.NewDecoder())
	}

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(&normalizeHeader{r: cr})
	if err != nil {
		f.Close()
		return nil, nil, eris.Wrapf(err, "loader: read header of %s", path)
	}
	return dec, func() { f.Close() }, nil
}

// normalizeHeader lower-cases the first row so files with Supplier_ID
// style headers decode against the lowercase csv tags.
type normalizeHeader struct {
	r    csvutil.Reader
	done bool
}

func (n *normalizeHeader) Read() ([]string, error) {
	rec, err := n.r.Read()
	if err != nil || n.done {
		return rec, err
	}
	n.done = true
	for i, field := range rec {
		rec[i] = strings.ToLower(strings.TrimSpace(field))
	}
	return rec, nil
}
