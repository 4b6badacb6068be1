package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/mch-analysis/internal/repository"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/writer"
)

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v interface{}) error {
	return writer.NewPrettyJSONWriter[interface{}]().Write(v, out)
}

func writeRunTable(out io.Writer, runs []*repository.ProfileRun) error {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Version", "Time span", "Ticks", "Entries", "Imported")
	for _, r := range runs {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Version,
			fmt.Sprintf("%d ms", r.TimeSpanMS),
			strconv.FormatInt(r.TickSpan, 10),
			strconv.Itoa(r.EntryCount + r.CounterCount),
			r.CreatedAt.Local().Format(time.DateTime),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeHistoryTable(out io.Writer, points []repository.HistoryPoint) error {
	table := tablewriter.NewWriter(out)
	table.Header("Run", "Name", "Imported", "Total", "Avg", "Local %", "Global %")
	for _, p := range points {
		row := []string{
			strconv.FormatInt(p.RunID, 10),
			p.RunName,
			p.CreatedAt.Local().Format(time.DateTime),
			strconv.FormatInt(p.TotalCount, 10),
			strconv.FormatInt(p.AverageCount, 10),
			fmt.Sprintf("%.2f", p.Percentage),
			fmt.Sprintf("%.2f", p.GlobalPercentage),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

func joinPath(names []string) string {
	return strings.Join(names, ".")
}

func notFoundf(format string, args ...interface{}) error {
	return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...interface{}) error {
	return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf(format, args...))
}
