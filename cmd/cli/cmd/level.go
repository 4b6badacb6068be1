package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mch-analysis/internal/service"
)

var (
	levelJSON      bool
	toggleBackup   bool
	togglePacks    []string
	toggleDisabled bool
)

// levelCmd groups the world directory commands
var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Inspect and edit the datapack selection of a world",
	Long: `Benchmark datapacks are directory packs under <world>/datapacks whose
pack.mcmeta sets "pack": {"mch": true}. Their functions whose first line is
"# @benchmark" are the benchmarks the harness runs.`,
}

var levelDataPacksCmd = &cobra.Command{
	Use:   "datapacks <world>",
	Short: "List enabled, disabled and benchmark datapacks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := svc.ListDataPacks(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if levelJSON {
			return writeJSON(out, info)
		}

		printList(out, "Enabled", info.Enabled)
		printList(out, "Disabled", info.Disabled)
		fmt.Fprintln(out, "Benchmark packs:")
		if len(info.Benchmark) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, pack := range info.Benchmark {
			fmt.Fprintf(out, "  %s\n", pack)
			for _, fn := range info.Functions[pack] {
				fmt.Fprintf(out, "    %s\n", fn)
			}
		}
		return nil
	},
}

var levelToggleCmd = &cobra.Command{
	Use:   "toggle <world> [pack]",
	Short: "Enable one benchmark datapack and disable the others",
	Long: `Rewrite <world>/level.dat so that the given benchmark pack is enabled and
every other benchmark pack is disabled. Without a pack, or with --none, all
benchmark packs are disabled. Other datapacks keep their state.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := service.ToggleOptions{
			LevelDir:       args[0],
			BenchmarkPacks: togglePacks,
			Backup:         toggleBackup,
		}
		if len(args) == 2 && !toggleDisabled {
			opts.Pack = args[1]
		}
		if opts.Backup {
			if err := svc.Initialize(ctx, service.ComponentStorage); err != nil {
				return err
			}
		}

		res, err := svc.ToggleDataPack(ctx, opts)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if levelJSON {
			return writeJSON(out, res)
		}
		printList(out, "Enabled", res.After.Enabled)
		printList(out, "Disabled", res.After.Disabled)
		if res.BackupKey != "" {
			fmt.Fprintf(out, "Previous level.dat saved as %s\n", res.BackupKey)
		}
		return nil
	},
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(out, "%s: (none)\n", label)
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(items, ", "))
}

func init() {
	rootCmd.AddCommand(levelCmd)
	levelCmd.AddCommand(levelDataPacksCmd, levelToggleCmd)

	levelCmd.PersistentFlags().BoolVar(&levelJSON, "json", false, "Print JSON instead of text")
	levelToggleCmd.Flags().BoolVar(&toggleBackup, "backup", false, "Upload the previous level.dat to the configured storage")
	levelToggleCmd.Flags().StringSliceVar(&togglePacks, "packs", nil, "Benchmark packs to manage (default: discovered from datapacks/)")
	levelToggleCmd.Flags().BoolVar(&toggleDisabled, "none", false, "Disable every benchmark pack")
}
