package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/segment-cli/internal/export"
	"github.com/sells-group/segment-cli/internal/loader"
	"github.com/sells-group/segment-cli/internal/model"
	"github.com/sells-group/segment-cli/internal/scoring"
	"github.com/sells-group/segment-cli/internal/segment"
	"github.com/sells-group/segment-cli/internal/store"
	"github.com/sells-group/segment-cli/internal/weights"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Score a supplier table and assign segments",
	Long: `Score every supplier with its business unit's weighted criteria, then
assign segments by score percentile against the whole table.

Scoring is per-row and order-independent; segment labels depend on the
complete score distribution, so classification only starts after every
row is scored.

Examples:
  # Classify a CSV table with the default weights file
  classify --input suppliers.csv --weights weights.yaml --output classified.csv

  # Read an XLSX workbook, skip bad rows instead of aborting
  classify --input suppliers.xlsx --sheet Data --weights weights.yaml \
    --output classified.xlsx --lenient

  # Persist the run for later analysis
  classify --input suppliers.csv --weights weights.yaml --save`,
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.String("input", "", "supplier table to classify (.csv or .xlsx)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.String("encoding", "", "CSV charset (e.g. windows-1252; default UTF-8)")
	f.String("weights", "weights.yaml", "per-business-unit weights file")
	f.String("output", "", "output file path (.csv or .xlsx; default: stdout summary only)")
	f.String("format", "", "output format: csv or xlsx (default: from output extension)")
	f.Bool("lenient", false, "skip invalid rows instead of aborting")
	f.Int("workers", 0, "concurrent scoring workers (0 = number of CPUs)")
	f.Bool("save", false, "persist the run to the configured store")
	_ = classifyCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	sheet, _ := cmd.Flags().GetString("sheet")
	encoding, _ := cmd.Flags().GetString("encoding")
	weightsPath, _ := cmd.Flags().GetString("weights")
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	lenient, _ := cmd.Flags().GetBool("lenient")
	workers, _ := cmd.Flags().GetInt("workers")
	save, _ := cmd.Flags().GetBool("save")

	if workers == 0 {
		workers = cfg.Engine.Workers
	}

	log := zap.L().With(zap.String("command", "classify"))

	suppliers, err := loadSuppliers(input, sheet, encoding)
	if err != nil {
		return err
	}
	log.Info("table loaded", zap.String("input", input), zap.Int("suppliers", len(suppliers)))

	wcfg, err := weights.Load(weightsPath)
	if err != nil {
		return err
	}

	rows, rowErrs, err := scoring.ScoreAll(ctx, suppliers, wcfg, scoring.Options{
		Lenient: lenient,
		Workers: workers,
	})
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", re.SupplierID, re.Err)
	}

	classifier, err := segment.New(wcfg.Thresholds)
	if err != nil {
		return err
	}
	if err := classifier.Classify(rows); err != nil {
		return err
	}

	if output != "" {
		outFormat := export.Format(format)
		if outFormat == "" {
			outFormat = export.FormatFromPath(output)
		}
		if err := export.Write(output, outFormat, rows); err != nil {
			return err
		}
		log.Info("table written", zap.String("output", output), zap.String("format", string(outFormat)))
	}

	if save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run := &store.Run{
			WeightsFile: filepath.Base(weightsPath),
			Source:      filepath.Base(input),
		}
		if err := st.SaveRun(ctx, run, rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Run saved: %s\n", run.ID)
	}

	printClassifySummary(os.Stdout, rows, classifier)
	return nil
}

// loadSuppliers dispatches on the input file extension.
func loadSuppliers(path, sheet, encoding string) ([]model.Supplier, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loader.ReadXLSX(path, loader.XLSXOptions{SheetName: sheet})
	case ".csv":
		return loader.ReadCSV(path, loader.CSVOptions{Encoding: encoding})
	default:
		return nil, eris.Errorf("classify: unsupported input extension on %q (want .csv or .xlsx)", path)
	}
}

func printClassifySummary(w io.Writer, rows []model.ScoredSupplier, c *segment.Classifier) {
	counts := map[model.Segment]int{}
	for i := range rows {
		counts[rows[i].Segment]++
	}

	segs := make([]model.Segment, 0, len(counts))
	for seg := range counts {
		segs = append(segs, seg)
	}
	sort.Slice(segs, func(i, j int) bool { return c.Rank(segs[i]) > c.Rank(segs[j]) })

	fmt.Fprintf(w, "Classified %d suppliers:\n", len(rows))
	for _, seg := range segs {
		n := counts[seg]
		fmt.Fprintf(w, "  %-15s %5d (%.1f%%)\n",
			seg, n, float64(n)/float64(len(rows))*100)
	}
}
