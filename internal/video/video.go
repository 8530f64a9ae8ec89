package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/lecsub/internal/audio"
	ffmpegbin "github.com/mgpai22/lecsub/internal/ffmpeg"
)

// ErrNoAudioStream is returned when a video carries no audio track.
var ErrNoAudioStream = errors.New("media has no audio stream")

// video file information
type Info struct {
	Path       string
	Duration   time.Duration
	HasVideo   bool
	HasAudio   bool
	AudioCodec string
	Channels   int
	SampleRate int
}

// defines interface for video processing operations
type Processor interface {
	// extracts audio from video file
	ExtractAudio(
		ctx context.Context,
		videoPath, outputPath string,
		opts ExtractAudioOptions,
	) error

	// retrieves video file information
	GetInfo(ctx context.Context, videoPath string) (*Info, error)
}

// holds options for audio extraction
type ExtractAudioOptions struct {
	Format     string // Output format (wav, mp3, aac, flac)
	SampleRate int    // Sample rate in Hz; 0 keeps the source rate
	Channels   int    // Number of channels; 0 keeps the source layout
	Bitrate    string // Bitrate for lossy formats (e.g., "128k", "320k")
}

// returns sensible defaults for audio extraction
func DefaultExtractAudioOptions() ExtractAudioOptions {
	return ExtractAudioOptions{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

// default implementation using ffmpeg
type DefaultProcessor struct{}

func NewProcessor() *DefaultProcessor {
	return &DefaultProcessor{}
}

func extractArgs(opts ExtractAudioOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "", // No video
		"y":  "", // Overwrite output
	}
	if opts.SampleRate > 0 {
		kwargs["ar"] = opts.SampleRate
	}
	if opts.Channels > 0 {
		kwargs["ac"] = opts.Channels
	}

	switch opts.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
		if opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	case "aac":
		kwargs["acodec"] = "aac"
		if opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	case "flac":
		kwargs["acodec"] = "flac"
	default:
		// LINEAR16
		kwargs["acodec"] = "pcm_s16le"
	}
	return kwargs
}

// extracts audio from video file
func (p *DefaultProcessor) ExtractAudio(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractAudioOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err = ffmpeg.Input(videoPath).
		Output(outputPath, extractArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()

	if err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}

	return nil
}

// retrieves video file information
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	probed, err := audio.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	return infoFromProbe(probed)
}

func infoFromProbe(probed *audio.Info) (*Info, error) {
	if !probed.HasAudio {
		return nil, fmt.Errorf("%s: %w", probed.Path, ErrNoAudioStream)
	}
	return &Info{
		Path:       probed.Path,
		Duration:   probed.Duration,
		HasVideo:   probed.HasVideo,
		HasAudio:   probed.HasAudio,
		AudioCodec: probed.Codec,
		Channels:   probed.Channels,
		SampleRate: probed.SampleRate,
	}, nil
}
