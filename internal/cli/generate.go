package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/catalog"
)

var generateCmd = &cobra.Command{
	Use:   "generate [media...]",
	Short: "Generate subtitles for lecture videos",
	Long: `Generate timed subtitles for one or more lecture videos.

Each argument is a local path or an http(s)/ftp URL. The audio track is
extracted, recognized by the configured provider, grouped into short cues,
and written next to the output directory as <name><suffix>.<format>.
Files whose subtitle already exists are skipped.

Examples:
  lecsub generate lecture01.mp4
  lecsub generate lecture01.mp4 lecture02.mp4 -p gemini -f vtt
  lecsub generate https://media.example.edu/l1.mp4 -o subs --bin 2.5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate subtitles for every video listed in the catalog",
	Long: `Query the lecture catalog database and generate subtitles for each
listed video, in catalog order.

The query comes from [catalog] in the config file and receives the lecture id
as its only argument. Relative locators are resolved against catalog.base_url.

Examples:
  lecsub run --lecture 42
  lecsub run --driver sqlite --dsn lectures.db --lecture 7 -j 2`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runCmd)

	addPipelineFlags(generateCmd)
	addPipelineFlags(runCmd)
	addCatalogFlags(runCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return runItems(cmd, catalog.FromPaths(args...))
}

func runCatalog(cmd *cobra.Command, args []string) error {
	items, err := loadCatalog(cmd)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logger.Warnw("catalog returned no items", "lecture", cfg.Catalog.LectureID)
		return nil
	}
	return runItems(cmd, items)
}

// runItems processes items and prints a summary. It fails when any item
// failed so scripts can detect partial batches.
func runItems(cmd *cobra.Command, items []catalog.Item) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnw("release resources", "error", err)
		}
	}()

	report, err := a.driver.Run(ctx, items)
	if report != nil {
		printSummary(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d items failed", n, len(report.Results))
	}
	if report.Canceled() > 0 {
		return errors.New("run canceled")
	}
	return nil
}
