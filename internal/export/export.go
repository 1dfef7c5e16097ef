// Package export writes classified supplier tables to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/segment-cli/internal/model"
)

// Format names a supported output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Write writes the classified table to path in the given format.
func Write(path string, format Format, rows []model.ScoredSupplier) error {
	switch format {
	case FormatCSV:
		return WriteCSV(path, rows)
	case FormatXLSX:
		return WriteXLSX(path, rows)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// WriteCSV writes the classified table as CSV, one header row followed by
// one row per supplier in input order.
func WriteCSV(path string, rows []model.ScoredSupplier) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "export: encode row %s", rows[i].ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

var xlsxHeader = []string{
	"supplier_id", "business_unit", "annual_spend",
	"sole_source_parts", "single_source_parts", "multi_source_parts",
	"ramp_time_months", "partnership_score", "innovation_score",
	"supply_risk_score", "score", "classification",
}

// WriteXLSX writes the classified table as a single-sheet workbook with
// typed numeric cells.
func WriteXLSX(path string, rows []model.ScoredSupplier) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Suppliers")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range xlsxHeader {
		header.AddCell().SetString(name)
	}

	for i := range rows {
		r := &rows[i]
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.BusinessUnit)
		row.AddCell().SetFloat(r.AnnualSpend)
		row.AddCell().SetInt(r.SoleSourceParts)
		row.AddCell().SetInt(r.SingleSourceParts)
		row.AddCell().SetInt(r.MultiSourceParts)
		row.AddCell().SetFloat(r.RampTimeMonths)
		row.AddCell().SetInt(r.Partnership)
		row.AddCell().SetInt(r.Innovation)
		row.AddCell().SetInt(r.SupplyRisk)
		row.AddCell().SetFloat(r.Score)
		row.AddCell().SetString(string(r.Segment))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// FormatFromPath guesses the output format from a file extension, falling
// back to CSV.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}
