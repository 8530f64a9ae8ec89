package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/speech"
	"github.com/mgpai22/lecsub/internal/subtitle"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [response.json]",
	Short: "Build subtitles from a saved recognition response",
	Long: `Group the timed words of a saved recognition response into subtitle
cues without calling any service. The response is the JSON written by
--save-response, or "-" for stdin. Output goes to stdout unless -o is given.

Examples:
  lecsub segment lecture01_subtitle.json
  lecsub segment response.json --bin 2 -f vtt -o lecture01.vtt`,
	Args: cobra.ExactArgs(1),
	Annotations: map[string]string{
		annotationConfig: configLenient,
	},
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().Float64P("bin", "b", 0, "Maximum cue window in seconds")
	segmentCmd.Flags().StringP("format", "f", "", "Output subtitle format (srt, vtt, ass)")
	segmentCmd.Flags().Int("max-line-chars", -1, "Wrap cue text into two lines above this width (0 = off)")
	segmentCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

func runSegment(cmd *cobra.Command, args []string) error {
	resp, err := readResponse(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	format, err := subtitle.ParseFormat(cfg.Subtitles.Format)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "" && !cmd.Flags().Changed("format") {
		if f, ok := subtitle.LookupExtension(output); ok {
			format = f
		}
	}

	segmenter := subtitle.NewSegmenter(cfg.BinDuration())
	segmenter.MaxLineChars = cfg.Subtitles.MaxLineChars
	sub, err := segmenter.Generate(resp)
	if err != nil {
		return err
	}
	sub.Language = cfg.Transcription.Language
	sub.Format = string(format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}

	logger.Debugw("segmented response",
		"results", len(resp.Results),
		"words", resp.WordCount(),
		"cues", len(sub.Cues),
		"bin", cfg.BinDuration(),
	)

	if output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), writer.Render(sub))
		return err
	}
	if err := writer.Write(sub, output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d cues to %s\n", len(sub.Cues), output)
	return nil
}

func readResponse(stdin io.Reader, path string) (*speech.Response, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open response: %w", err)
		}
		defer f.Close()
		r = f
	}

	var resp speech.Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
