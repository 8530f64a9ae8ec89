package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/subtitle"
)

var checkCmd = &cobra.Command{
	Use:   "check [subtitle_file...]",
	Short: "Validate subtitle files",
	Long: `Parse SRT, VTT or ASS files and verify that cues are numbered in order,
carry text, and never end before they start.

Examples:
  lecsub check lecture01_subtitle.srt
  lecsub check subs/*.vtt`,
	Args: cobra.MinimumNArgs(1),
	Annotations: map[string]string{
		annotationConfig: configNone,
	},
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rows := make([][]string, 0, len(args))
	failed := 0
	for _, path := range args {
		cues, last, err := checkFile(path)
		result := colorWritten("ok")
		if err != nil {
			failed++
			result = colorFailed(err.Error())
		}
		rows = append(rows, []string{path, strconv.Itoa(cues), last, result})
	}

	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Cues", "Ends", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}

func checkFile(path string) (int, string, error) {
	file, err := subtitle.Open(path)
	if err != nil {
		return 0, "-", err
	}
	cues := file.Subtitle().Cues
	if len(cues) == 0 {
		return 0, "-", nil
	}
	return len(cues), cues[len(cues)-1].EndTime.String(), subtitle.Validate(cues)
}
