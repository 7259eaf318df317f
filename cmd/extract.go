package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/admin-areas/internal/classify"
	"github.com/sells-group/admin-areas/internal/completeness"
	"github.com/sells-group/admin-areas/internal/config"
	"github.com/sells-group/admin-areas/internal/db"
	"github.com/sells-group/admin-areas/internal/export"
	"github.com/sells-group/admin-areas/internal/importer"
	"github.com/sells-group/admin-areas/internal/model"
	"github.com/sells-group/admin-areas/internal/monitoring"
	"github.com/sells-group/admin-areas/internal/source"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Import, filter and export administrative areas",
	Long: `Scans an OSM extract (.osm.pbf or .osm) three times: once for boundary
relations, once for the ways they reference and once for the nodes of those
ways. Areas whose ways and nodes are all present are written to the output.

Flags override the extract section of config.yaml and ADMINAREAS_* env vars.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyExtractFlags(cmd.Flags(), &cfg.Extract)
		if err := cfg.Validate(); err != nil {
			return err
		}

		_, err := runExtract(ctx, cfg, cmd.OutOrStdout())
		return err
	},
}

// applyExtractFlags copies explicitly set flags over the loaded config.
func applyExtractFlags(f *pflag.FlagSet, e *config.ExtractConfig) {
	if f.Changed("input") {
		e.Input, _ = f.GetString("input")
	}
	if f.Changed("output") {
		e.Output, _ = f.GetString("output")
	}
	if f.Changed("format") {
		e.Format, _ = f.GetString("format")
	}
	if f.Changed("max-level") {
		e.MaxAdminLevel, _ = f.GetInt("max-level")
	}
	if f.Changed("lang") {
		e.Language, _ = f.GetString("lang")
	}
	if f.Changed("projection") {
		e.Projection, _ = f.GetString("projection")
	}
	if f.Changed("workers") {
		e.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("staged") {
		e.StagedSegments, _ = f.GetBool("staged")
	}
	if f.Changed("report") {
		e.ReportPath, _ = f.GetString("report")
	}
	if f.Changed("metrics") {
		e.MetricsPath, _ = f.GetString("metrics")
	}
}

func newClassifier(lang string, maxLevel uint8) (classify.Classifier, error) {
	if lang == "" {
		return classify.New(classify.Policy{NameKeys: []string{"name"}, MaxLevel: maxLevel}), nil
	}
	return classify.Localized(lang, maxLevel)
}

// newSink opens the output before the import so a bad database URL fails
// fast. The returned func releases it.
func newSink(ctx context.Context, c *config.Config, format export.Format) (export.Sink, func(), error) {
	if format != export.FormatPostGIS {
		s, err := export.FileSink(format, c.Extract.Output)
		return s, func() {}, err
	}

	pool, err := db.Connect(ctx, c.PostGIS.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return export.PostGIS{
		Pool:      pool,
		Schema:    c.PostGIS.Schema,
		BatchSize: c.PostGIS.BatchSize,
	}, pool.Close, nil
}

// runExtract runs the import, completeness filter and export described by
// c.Extract and prints the summary table to out.
func runExtract(ctx context.Context, c *config.Config, out io.Writer) (*monitoring.Report, error) {
	e := c.Extract
	log := zap.L().With(zap.String("command", "extract"))

	format, err := export.ParseFormat(e.Format)
	if err != nil {
		return nil, err
	}
	proj, err := export.ProjectionByName(e.Projection)
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier(e.Language, uint8(e.MaxAdminLevel))
	if err != nil {
		return nil, err
	}

	sink, release, err := newSink(ctx, c, format)
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := source.Open(e.Input, source.Options{Procs: e.DecoderProcs})
	if err != nil {
		return nil, err
	}
	defer src.Close() //nolint:errcheck

	report := monitoring.NewReport(e.Input, e.Output, string(format), uint8(e.MaxAdminLevel))
	metrics := monitoring.NewMetrics()

	log.Info("starting extract",
		zap.String("input", e.Input),
		zap.String("format", string(format)),
		zap.Int("max_admin_level", e.MaxAdminLevel),
		zap.String("language", e.Language),
		zap.Bool("staged_segments", e.StagedSegments),
		zap.String("run_id", report.RunID),
	)

	im := importer.New(classifier,
		importer.WithWorkers(e.Workers),
		importer.WithStagedSegments(e.StagedSegments),
		importer.WithLogger(log),
		importer.WithObserver(importer.MultiObserver{
			importer.NewLogObserver(log, 0),
			metrics,
			report,
		}),
	)

	tables, err := im.Import(ctx, src)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: import %s", e.Input)
	}

	complete, err := completeness.Filter(ctx, tables, e.Workers)
	if err != nil {
		return nil, err
	}
	metrics.SetSurviving(len(complete))

	snap, err := export.NewSnapshot(complete, tables, proj)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(ctx, snap); err != nil {
		return nil, eris.Wrapf(err, "extract: write %s output", format)
	}

	report.Finish(tables.Stats(), model.TableStats{
		Areas:    len(snap.Areas),
		Segments: len(snap.Segments),
		Points:   len(snap.Points),
	}, len(complete))

	_, _ = fmt.Fprint(out, report.Table())

	if e.ReportPath != "" {
		if err := report.WriteYAML(e.ReportPath); err != nil {
			return nil, err
		}
	}
	if e.MetricsPath != "" {
		if err := metrics.WriteTextfile(e.MetricsPath); err != nil {
			return nil, err
		}
	}

	log.Info("extract complete",
		zap.Int("areas", len(snap.Areas)),
		zap.Int("segments", len(snap.Segments)),
		zap.Int("points", len(snap.Points)),
	)
	return report, nil
}

func addExtractFlags(f *pflag.FlagSet) {
	f.StringP("input", "i", "", "OSM extract (.osm.pbf or .osm)")
	f.StringP("output", "o", "", "output file (not used for postgis)")
	f.String("format", string(export.FormatGraph), "output format: graph, geojson, shapefile, sqlite, postgis")
	f.Int("max-level", 4, "deepest admin_level to keep")
	f.String("lang", "", "prefer name:<lang> over name (BCP 47 tag)")
	f.String("projection", "identity", "graph coordinate projection: identity, mercator")
	f.Int("workers", 0, "transform goroutines per pass (0 = all CPUs)")
	f.Bool("staged", false, "resolve outer and inner ways in separate passes")
	f.String("report", "", "write a YAML run report to this path")
	f.String("metrics", "", "write prometheus metrics in textfile format to this path")
}

func init() {
	addExtractFlags(extractCmd.Flags())
	_ = extractCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(extractCmd)
}
