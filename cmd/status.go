package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/mapdata"
)

var (
	statusFile string
	statusJSON bool

	exportFile   string
	exportOut    string
	exportCounty string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize an enriched table by county",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := statusFile
		if path == "" {
			path = cfg.Output.Path
		}

		table, err := dataset.Load(cmd.Context(), path, outputDatasetOptions())
		if err != nil {
			return err
		}

		s := mapdata.Summarize(table.Records)
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		formatStatus(os.Stdout, s)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export resolved businesses as GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := exportFile
		if path == "" {
			path = cfg.Output.Path
		}

		table, err := dataset.Load(cmd.Context(), path, outputDatasetOptions())
		if err != nil {
			return err
		}
		fc := mapdata.FeatureCollection(table.Records, exportCounty)

		if err := writeGeoJSON(exportOut, fc); err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("file", path),
			zap.Int("features", len(fc.Features)),
		)
		return nil
	},
}

// writeGeoJSON encodes fc to path, or to stdout when path is empty or "-".
// A failed close is reported since it can lose buffered output.
func writeGeoJSON(path string, fc *geojson.FeatureCollection) error {
	if path == "" || path == "-" {
		if err := json.NewEncoder(os.Stdout).Encode(fc); err != nil {
			return eris.Wrap(err, "export: encode geojson")
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create output")
	}
	if err := json.NewEncoder(f).Encode(fc); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "export: encode geojson")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "export: close output")
	}
	return nil
}

// outputDatasetOptions reads an enriched file: written by this tool, so no
// preamble rows and the configured encoding.
func outputDatasetOptions() dataset.Options {
	return dataset.Options{Encoding: cfg.Input.Encoding}
}

func formatStatus(out io.Writer, s mapdata.Status) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Resolved:\t%d\n", s.Resolved)
	_, _ = fmt.Fprintf(w, "Unresolved:\t%d\n", len(s.Unresolved))
	if len(s.Counties) > 0 {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintln(w, "COUNTY\tBUSINESSES")
		for _, c := range s.Counties {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", c.County, c.Count)
		}
	}
	_ = w.Flush()
}

func init() {
	statusCmd.Flags().StringVar(&statusFile, "file", "", "enriched table (default output.path)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print as JSON")

	exportCmd.Flags().StringVar(&exportFile, "file", "", "enriched table (default output.path)")
	exportCmd.Flags().StringVar(&exportOut, "out", "-", "GeoJSON destination, - for stdout")
	exportCmd.Flags().StringVar(&exportCounty, "county", "", "only businesses in this county")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
}
