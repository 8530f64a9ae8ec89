package pipeline

import (
	"context"
	"time"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/video"
)

// MediaTools implements Prober, Extractor and Chunker with ffmpeg.
type MediaTools struct {
	processor video.DefaultProcessor
}

func (m MediaTools) Probe(ctx context.Context, path string) (*audio.Info, error) {
	return audio.Probe(ctx, path)
}

func (m MediaTools) ExtractAudio(ctx context.Context, mediaPath, outputPath string, opts video.ExtractAudioOptions) error {
	return m.processor.ExtractAudio(ctx, mediaPath, outputPath, opts)
}

func (m MediaTools) Chunk(ctx context.Context, audioPath string, size time.Duration, dir string) ([]audio.ChunkInfo, error) {
	return audio.ChunkAudio(ctx, audioPath, size, dir)
}
