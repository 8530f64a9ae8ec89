// Package pipeline drives work items from media locator to subtitle file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/logging"
	"github.com/mgpai22/lecsub/internal/storage"
	"github.com/mgpai22/lecsub/internal/subtitle"
	"github.com/mgpai22/lecsub/internal/transcribe"
	"github.com/mgpai22/lecsub/internal/video"
)

// Fetcher makes the media named by a locator available as a local file.
type Fetcher interface {
	Fetch(ctx context.Context, locator, dir string) (string, error)
}

// Prober reports audio properties of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*audio.Info, error)
}

// Extractor writes the audio track of a media file.
type Extractor interface {
	ExtractAudio(ctx context.Context, mediaPath, outputPath string, opts video.ExtractAudioOptions) error
}

// Chunker splits audio into consecutive pieces.
type Chunker interface {
	Chunk(ctx context.Context, audioPath string, size time.Duration, dir string) ([]audio.ChunkInfo, error)
}

// Deps are the external collaborators of a Driver.
type Deps struct {
	Fetcher    Fetcher
	Prober     Prober
	Extractor  Extractor
	Chunker    Chunker
	Uploader   storage.Uploader
	Recognizer transcribe.Recognizer
}

// Options configures a Driver.
type Options struct {
	OutputDir    string
	Suffix       string
	Format       subtitle.Format
	BinDuration  time.Duration
	MaxLineChars int
	Language     string
	SaveResponse bool

	WorkDir     string
	KeepMedia   bool
	Concurrency int

	AudioFormat string
	SampleRate  int
	Channels    int
	Bitrate     string

	// ChunkDuration > 0 splits longer audio; chunks are recognized by
	// ChunkConcurrency workers.
	ChunkDuration    time.Duration
	ChunkConcurrency int
	CleanupUploads   bool
}

// Driver runs the fetch → probe → extract → upload → recognize → segment →
// format → write sequence for each work item.
type Driver struct {
	deps      Deps
	opts      Options
	logger    *logging.Logger
	segmenter *subtitle.Segmenter
	writer    subtitle.Writer
}

// New validates options before any item is touched.
func New(deps Deps, opts Options, logger *logging.Logger) (*Driver, error) {
	if opts.BinDuration <= 0 {
		return nil, fmt.Errorf("%w: got %v", subtitle.ErrInvalidBinDuration, opts.BinDuration)
	}
	if deps.Fetcher == nil || deps.Prober == nil || deps.Extractor == nil || deps.Recognizer == nil {
		return nil, errors.New("pipeline requires fetcher, prober, extractor, and recognizer")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("pipeline requires an output directory")
	}
	if deps.Uploader == nil {
		deps.Uploader = storage.Local{}
	}
	if deps.Chunker == nil {
		deps.Chunker = MediaTools{}
	}
	if opts.Format == "" {
		opts.Format = subtitle.FormatSRT
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ChunkConcurrency <= 0 {
		opts.ChunkConcurrency = 3
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "wav"
	}
	if logger == nil {
		logger = logging.Nop()
	}

	writer, err := subtitle.NewWriter(opts.Format)
	if err != nil {
		return nil, err
	}

	segmenter := subtitle.NewSegmenter(opts.BinDuration)
	segmenter.MaxLineChars = opts.MaxLineChars

	return &Driver{
		deps:      deps,
		opts:      opts,
		logger:    logger,
		segmenter: segmenter,
		writer:    writer,
	}, nil
}

// OutputPath is where the subtitle for an item with the given name lands.
func (d *Driver) OutputPath(name string) string {
	return OutputPath(d.opts.OutputDir, name, d.opts.Suffix, d.opts.Format)
}
