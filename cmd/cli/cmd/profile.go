package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mch-analysis/internal/formatter"
	"github.com/mch-analysis/internal/parser/profiler"
	"github.com/mch-analysis/internal/service"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/model"
)

var (
	// Shared profile flags
	profileLayout string
	profileJSON   bool

	// profile parse
	parseRewrite string

	// profile top
	topN int

	// profile export
	exportOutput string
	exportUpload bool
	exportName   string

	// profile import
	importName    string
	importForce   bool
	importArchive bool

	// profile history
	historyLimit int
)

// profileCmd groups the profiler dump commands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Work with profiler result dumps",
	Long: `Parse profiler result dumps written by the game server's debug profiler.

The dump layout is detected from the input unless --layout forces one of
"vanilla" (as written by the game), "legacy" (vanilla with counter
trees packed back to back) or "compact".`,
}

var profileParseCmd = &cobra.Command{
	Use:   "parse <dump>",
	Short: "Parse a dump and print its timing tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := svc.ParseReportFile(cmd.Context(), args[0], profileLayout)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case parseRewrite != "":
			layout, ok, err := profiler.LayoutByName(parseRewrite)
			if err != nil || !ok {
				return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("cannot rewrite to layout %q", parseRewrite))
			}
			if err := profiler.Write(out, results, layout); err != nil {
				return apperrors.Wrap(apperrors.CodeEncodeError, "failed to write dump", err)
			}
			return nil
		case profileJSON:
			return writeJSON(out, results)
		default:
			if err := svc.FormatReport(out, formatter.SubjectProfile, results); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return svc.FormatReport(out, formatter.SubjectCounters, results)
		}
	},
}

var profileTopCmd = &cobra.Command{
	Use:   "top <dump>",
	Short: "List the entries with the largest self time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := svc.ParseReportFile(cmd.Context(), args[0], profileLayout)
		if err != nil {
			return err
		}

		n := topN
		if !cmd.Flags().Changed("top") {
			n = cfg.Profiler.TopN
		}
		hotspots := model.TopHotspots(results, n)
		if profileJSON {
			return writeJSON(cmd.OutOrStdout(), hotspots)
		}
		return formatter.WriteHotspotTable(cmd.OutOrStdout(), hotspots)
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export <dump>",
	Short: "Export a dump as a JSON report",
	Long: `Export a dump as a JSON report with a summary and its hotspots.

The report is compressed as configured by export.compression (none, gzip or zstd).
With --upload it is also published to the configured storage.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportUpload {
			if err := svc.Initialize(ctx, service.ComponentStorage); err != nil {
				return err
			}
		}
		results, err := svc.ParseReportFile(ctx, args[0], profileLayout)
		if err != nil {
			return err
		}

		res, err := svc.ExportReport(ctx, results, service.ExportOptions{
			Name:       exportName,
			OutputPath: exportOutput,
			Upload:     exportUpload,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Path != "" {
			fmt.Fprintf(out, "Wrote %s (%s)\n", res.Path, res.Compression)
		}
		if res.Key != "" {
			fmt.Fprintf(out, "Uploaded %s\n", res.URL)
		}
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <dump>...",
	Short: "Record dumps in the history database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		components := []service.Component{service.ComponentHistory}
		if importArchive {
			components = append(components, service.ComponentStorage)
		}
		if err := svc.Initialize(ctx, components...); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var firstErr error
		for _, r := range svc.ImportReportFiles(ctx, args, service.ImportOptions{
			Name:   importName,
			Layout: profileLayout,
			Force:  importForce,
		}) {
			switch {
			case r.Error != nil:
				fmt.Fprintf(out, "%s: %s\n", r.Input, apperrors.GetErrorMessage(r.Error))
				if firstErr == nil {
					firstErr = r.Error
				}
			case r.Result.Duplicate:
				fmt.Fprintf(out, "%s: already imported as run %d\n", r.Input, r.Result.Run.ID)
			default:
				fmt.Fprintf(out, "%s: run %d (%d entries)\n", r.Input, r.Result.Run.ID, len(r.Result.Run.Entries))
			}
		}
		return firstErr
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List imported runs, or one entry path across runs",
	Long: `Without arguments, list the imported runs newest first.

With a path such as "tick.levels.minecraft:overworld.entities", print the values
of that entry in each run, oldest first. Counter tree nodes are addressed with a
leading "#", e.g. "#ticking.block ticks".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := svc.Initialize(ctx, service.ComponentHistory); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			runs, err := svc.ListRuns(ctx, historyLimit)
			if err != nil {
				return err
			}
			if profileJSON {
				return writeJSON(out, runs)
			}
			return writeRunTable(out, runs)
		}

		points, err := svc.History(ctx, args[0], historyLimit)
		if err != nil {
			return err
		}
		if profileJSON {
			return writeJSON(out, points)
		}
		if len(points) == 0 {
			fmt.Fprintf(out, "No runs contain %s\n", args[0])
			return nil
		}
		return writeHistoryTable(out, points)
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an imported run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "run id must be an integer", err)
		}

		ctx := cmd.Context()
		if err := svc.Initialize(ctx, service.ComponentHistory, service.ComponentStorage); err != nil {
			return err
		}
		if err := svc.DeleteRun(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileParseCmd, profileTopCmd, profileExportCmd,
		profileImportCmd, profileHistoryCmd, profileDeleteCmd)

	profileCmd.PersistentFlags().StringVarP(&profileLayout, "layout", "l", "", "Dump layout: auto, vanilla, legacy or compact (default from config)")
	profileCmd.PersistentFlags().BoolVar(&profileJSON, "json", false, "Print JSON instead of text")

	profileParseCmd.Flags().StringVar(&parseRewrite, "rewrite", "", "Print the dump again in the given layout")

	profileTopCmd.Flags().IntVarP(&topN, "top", "n", 10, "Number of entries to list, 0 for all (default from config)")

	profileExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Report file to write")
	profileExportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Upload the report to the configured storage")
	profileExportCmd.Flags().StringVar(&exportName, "name", "", "Report name (default \"report\")")

	profileImportCmd.Flags().StringVar(&importName, "name", "", "Run name prefix (default: file name)")
	profileImportCmd.Flags().BoolVar(&importForce, "force", false, "Import even if identical dumps were imported before")
	profileImportCmd.Flags().BoolVar(&importArchive, "archive", true, "Archive the dump in the configured storage")

	profileHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show, 0 for all")
}
