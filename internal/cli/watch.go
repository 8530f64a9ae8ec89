package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/catalog"
	"github.com/mgpai22/lecsub/internal/pipeline"
	"github.com/mgpai22/lecsub/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Generate subtitles for videos dropped into a folder",
	Long: `Watch a folder and generate subtitles for each media file that appears
in it. A file is processed once it has not changed for the debounce interval,
so partially copied recordings are not picked up. Stop with Ctrl+C.

Examples:
  lecsub watch ./incoming
  lecsub watch ./incoming --existing --debounce 10s -o ./subs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addPipelineFlags(watchCmd)

	watchCmd.Flags().
		Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed file is processed")
	watchCmd.Flags().
		Bool("existing", false, "Also process media already in the folder")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	existing, _ := cmd.Flags().GetBool("existing")

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []watch.Option{watch.WithDebounce(debounce)}
	if existing {
		opts = append(opts, watch.WithExisting())
	}

	w := watch.New(dir, logger, opts...)
	return w.Run(cmd.Context(), func(ctx context.Context, path string) {
		report, err := a.driver.Run(ctx, catalog.FromPaths(path))
		if err != nil {
			logger.Warnw("watch run stopped", "path", path, "error", err)
			return
		}
		for _, res := range report.Results {
			if res.Err != nil && res.Status != pipeline.StatusSkipped {
				logger.Errorw("subtitle generation failed", "path", path, "error", res.Err)
				continue
			}
			logger.Infow("subtitle ready", "path", path, "status", res.Status, "output", res.Output)
		}
	})
}
