package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/logging"
	"github.com/mgpai22/lecsub/internal/speech"
	"github.com/mgpai22/lecsub/internal/transcribe"
)

// holds the result of recognizing a chunk
type chunkResult struct {
	index int
	resp  *speech.Response
	err   error
}

// recognizeChunks splits the audio, recognizes the chunks in parallel and
// stitches the responses back together in chunk order with timings moved
// onto the timeline of the whole file. The first failing chunk cancels the
// rest.
func (d *Driver) recognizeChunks(ctx context.Context, logger *logging.Logger, meta transcribe.Audio, dir string) (*speech.Response, error) {
	chunks, err := d.deps.Chunker.Chunk(ctx, meta.Path, d.opts.ChunkDuration, dir)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: fmt.Errorf("chunk audio: %w", err)}
	}
	logger.Infow("recognizing in chunks", "chunks", len(chunks), "chunk_duration", d.opts.ChunkDuration, "workers", d.opts.ChunkConcurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for range min(d.opts.ChunkConcurrency, max(len(chunks), 1)) {
		wg.Go(func() {
			for chunk := range workChan {
				if ctx.Err() != nil {
					resultChan <- chunkResult{index: chunk.Index, err: ctx.Err()}
					continue
				}
				started := time.Now()
				chunkMeta := meta
				chunkMeta.Path = chunk.Path
				resp, err := d.recognize(ctx, logger, chunkMeta)
				if err != nil {
					cancel()
				} else {
					resp.Shift(chunk.StartTime)
					logger.Debugw("chunk recognized",
						"chunk", chunk.Index,
						"start", chunk.StartTime,
						"words", resp.WordCount(),
						"elapsed", time.Since(started).Round(time.Millisecond),
					)
				}
				resultChan <- chunkResult{index: chunk.Index, resp: resp, err: err}
			}
		})
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	ordered := make(map[int]*speech.Response, len(chunks))
	var firstErr error
	for result := range resultChan {
		if result.err != nil {
			if firstErr == nil || (isCanceled(firstErr) && !isCanceled(result.err)) {
				firstErr = chunkError(result.index, result.err)
			}
			continue
		}
		ordered[result.index] = result.resp
	}
	if firstErr == nil && ctx.Err() != nil && len(ordered) != len(chunks) {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}

	merged := &speech.Response{}
	for _, chunk := range chunks {
		merged.Append(ordered[chunk.Index])
	}
	return merged, nil
}

func chunkError(index int, err error) error {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return &StageError{Stage: stageErr.Stage, Err: fmt.Errorf("chunk %d: %w", index, stageErr.Err)}
	}
	return &StageError{Stage: StageRecognize, Err: fmt.Errorf("chunk %d: %w", index, err)}
}

func isCanceled(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
