package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/mgpai22/lecsub/internal/pipeline"
)

var (
	colorWritten  = color.New(color.FgGreen).SprintFunc()
	colorSkipped  = color.New(color.FgCyan).SprintFunc()
	colorFailed   = color.New(color.FgRed).SprintFunc()
	colorCanceled = color.New(color.FgYellow).SprintFunc()
)

func statusLabel(s pipeline.Status) string {
	switch s {
	case pipeline.StatusWritten:
		return colorWritten(string(s))
	case pipeline.StatusSkipped:
		return colorSkipped(string(s))
	case pipeline.StatusFailed:
		return colorFailed(string(s))
	case pipeline.StatusCanceled:
		return colorCanceled(string(s))
	default:
		return string(s)
	}
}

// printSummary writes one table row per item followed by the totals.
func printSummary(w io.Writer, report *pipeline.Report) {
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "Nothing to do.")
		return
	}

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		detail := res.Output
		if res.Err != nil && res.Status != pipeline.StatusSkipped {
			detail = res.Err.Error()
		}
		rows = append(rows, []string{
			res.Item.Name,
			statusLabel(res.Status),
			countCell(res.Cues, res.Status),
			countCell(res.Words, res.Status),
			elapsedCell(res.Elapsed),
			detail,
		})
	}

	fmt.Fprint(w, renderTable(
		[]string{"Name", "Status", "Cues", "Words", "Time", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%s written, %s skipped, %s failed, %s canceled\n",
		colorWritten(report.Written()),
		colorSkipped(report.Skipped()),
		colorFailed(report.Failed()),
		colorCanceled(report.Canceled()),
	)
}

func countCell(n int, status pipeline.Status) string {
	if status != pipeline.StatusWritten {
		return "-"
	}
	return strconv.Itoa(n)
}

func elapsedCell(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}
