package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mch-analysis/internal/formatter"
	"github.com/mch-analysis/pkg/nbt"
)

var (
	dumpCompact bool
	dumpPath    string
)

// nbtCmd groups the binary tag document commands
var nbtCmd = &cobra.Command{
	Use:   "nbt",
	Short: "Work with gzip-compressed binary tag documents such as level.dat",
}

var nbtDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print a document in stringified notation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := svc.DecodeDocumentFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tag, err := selectTag(root, dumpPath)
		if err != nil {
			return err
		}

		if dumpCompact {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSNBT(tag, ""))
			return err
		}
		return svc.FormatReport(cmd.OutOrStdout(), formatter.SubjectTag, tag)
	},
}

var nbtJSONCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Print a document as JSON",
	Long: `Print a document as JSON. Compound key order is preserved; numeric widths
(byte, short, int, long) are not.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := svc.DecodeDocumentFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tag, err := selectTag(root, dumpPath)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), tag)
	},
}

var nbtValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check that documents decode, and print their shape",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var firstErr error
		for _, path := range args {
			root, err := svc.DecodeDocumentFile(cmd.Context(), path)
			if err != nil {
				fmt.Fprintf(out, "%s: INVALID %v\n", path, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			summary := svc.Formatters().FormatSummary(formatter.SubjectTag, root)
			fmt.Fprintf(out, "%s: OK %s, %v tags, depth %v\n", path, summary["type"], summary["tags"], summary["depth"])
		}
		return firstErr
	},
}

// selectTag follows a dot-separated compound path from root. An empty path selects root.
func selectTag(root *nbt.Compound, path string) (nbt.Tag, error) {
	if path == "" {
		return root, nil
	}
	current := root
	names := splitPath(path)
	for i, name := range names {
		tag, ok := current.Get(name)
		if !ok {
			return nil, notFoundf("no entry %q under %q (have %v)", name, joinPath(names[:i]), sortedKeys(current))
		}
		if i == len(names)-1 {
			return tag, nil
		}
		next, ok := tag.(*nbt.Compound)
		if !ok {
			return nil, invalidf("%q is a %s, not a compound", joinPath(names[:i+1]), tag.Type())
		}
		current = next
	}
	return current, nil
}

func sortedKeys(c *nbt.Compound) []string {
	keys := c.Keys()
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(nbtCmd)
	nbtCmd.AddCommand(nbtDumpCmd, nbtJSONCmd, nbtValidateCmd)

	nbtCmd.PersistentFlags().StringVarP(&dumpPath, "path", "p", "", "Dot-separated path of the entry to print, e.g. Data.DataPacks")
	nbtDumpCmd.Flags().BoolVar(&dumpCompact, "compact", false, "Print on a single line")
}
