package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/segment-cli/internal/analytics"
	"github.com/sells-group/segment-cli/internal/loader"
	"github.com/sells-group/segment-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report spend, segment, and risk analytics for a classified table",
	Long: `Compute aggregate analytics over a classified supplier table: the
Pareto spend cutoff, per-segment profiles, per-business-unit breakdowns,
risk concentration, top suppliers, and segmentation effectiveness.

The table comes either from a classified output file or from a saved run.

Examples:
  # Analyze a classified CSV
  analyze --input classified.csv

  # Analyze a saved run
  analyze --run 6a1f0c1e-...

  # Find the 90% spend cutoff, print JSON
  analyze --input classified.csv --pareto-target 90 --format json`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("input", "", "classified table (.csv or .xlsx)")
	f.String("run", "", "saved run ID to analyze")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.Float64("pareto-target", 0, "Pareto cumulative spend target percent (default from config)")
	f.Int("top", 0, "number of top suppliers to list (default from config)")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(analyzeCmd)
}

// analysisReport bundles every aggregate for JSON output.
type analysisReport struct {
	Pareto        analytics.ParetoResult     `json:"pareto"`
	Segments      []analytics.SegmentProfile `json:"segments"`
	BusinessUnits []analytics.UnitBreakdown  `json:"business_units"`
	Risk          analytics.RiskSummary      `json:"risk"`
	Top           []model.ScoredSupplier     `json:"top_suppliers"`
	Effectiveness analytics.Effectiveness    `json:"effectiveness"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	runID, _ := cmd.Flags().GetString("run")
	sheet, _ := cmd.Flags().GetString("sheet")
	target, _ := cmd.Flags().GetFloat64("pareto-target")
	top, _ := cmd.Flags().GetInt("top")
	format, _ := cmd.Flags().GetString("format")

	if (input == "") == (runID == "") {
		return eris.New("analyze: exactly one of --input or --run is required")
	}
	if format != "table" && format != "json" {
		return eris.Errorf("analyze: --format must be table or json (got %q)", format)
	}
	if target == 0 {
		target = cfg.Engine.ParetoTarget
	}
	if top == 0 {
		top = cfg.Engine.TopSuppliers
	}

	var rows []model.ScoredSupplier
	var err error
	switch {
	case runID != "":
		st, errOpen := initStore(ctx)
		if errOpen != nil {
			return errOpen
		}
		defer st.Close() //nolint:errcheck
		rows, err = st.GetRunSuppliers(ctx, runID)
	case strings.EqualFold(filepath.Ext(input), ".xlsx"):
		rows, err = loader.ReadClassifiedXLSX(input, loader.XLSXOptions{SheetName: sheet})
	default:
		rows, err = loader.ReadClassifiedCSV(input, loader.CSVOptions{})
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return eris.New("analyze: table has no rows")
	}

	pareto, err := analytics.Pareto(rows, target)
	if err != nil {
		return err
	}

	report := analysisReport{
		Pareto:        pareto,
		Segments:      analytics.SegmentProfiles(rows, model.DefaultSegmentOrder),
		BusinessUnits: analytics.UnitBreakdowns(rows, model.SegmentStrategic),
		Risk:          analytics.RiskConcentration(rows, model.SegmentStrategic, model.SegmentCritical),
		Top:           analytics.TopSuppliers(rows, top),
		Effectiveness: analytics.EffectivenessMetrics(rows),
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	formatReport(os.Stdout, report)
	return nil
}

func formatReport(w io.Writer, r analysisReport) {
	fmt.Fprintf(w, "Pareto: %d suppliers (%.1f%% of table) hold %.0f%% of $%.0f total spend\n\n",
		r.Pareto.CutoffCount, r.Pareto.CutoffPct, r.Pareto.TargetPct, r.Pareto.TotalSpend)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tCOUNT\tAVG SCORE\tAVG SPEND\tSPEND SHARE")
	for _, p := range r.Segments {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.0f\t%.1f%%\n",
			p.Segment, p.Count, p.AvgScore, p.AvgSpend, p.SpendShare)
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUSINESS UNIT\tSUPPLIERS\tTOTAL SPEND\tAVG SCORE\tSTRATEGIC SPEND")
	for _, b := range r.BusinessUnits {
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%.1f\t%.1f%%\n",
			b.BusinessUnit, b.Suppliers, b.TotalSpend, b.AvgScore, b.StrategicSpendShare)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nRisk: %d high-risk suppliers in strategic segments, %d with high spend\n",
		r.Risk.CriticalHighRisk, r.Risk.HighSpendHighRisk)

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOP SUPPLIER\tBUSINESS UNIT\tSCORE\tSEGMENT")
	for _, s := range r.Top {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", s.ID, s.BusinessUnit, s.Score, s.Segment)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nEffectiveness: separation %.1f, variance ratio %.3f\n",
		r.Effectiveness.ScoreSeparation, r.Effectiveness.VarianceRatio)
}
