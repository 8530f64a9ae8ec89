package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/catalog"
	"github.com/mgpai22/lecsub/internal/logging"
	"github.com/mgpai22/lecsub/internal/speech"
	"github.com/mgpai22/lecsub/internal/transcribe"
	"github.com/mgpai22/lecsub/internal/video"
)

// Run processes items in order, or with a bounded worker pool when
// Concurrency > 1. A failing item is recorded in the report and does not
// stop the others. The returned error is reserved for run-level failures:
// the output directory lock and context cancellation.
func (d *Driver) Run(ctx context.Context, items []catalog.Item) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]ItemResult, len(items)),
	}
	logger := d.logger.With("run_id", report.RunID)

	lock, err := acquireLock(d.opts.OutputDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warnw("failed to release output lock", "error", err)
		}
	}()

	workDir, err := d.makeWorkDir(report.RunID)
	if err != nil {
		return report, err
	}
	if !d.opts.KeepMedia {
		defer os.RemoveAll(workDir)
	}

	logger.Infow("run started",
		"items", len(items),
		"output_dir", d.opts.OutputDir,
		"work_dir", workDir,
		"workers", d.opts.Concurrency,
	)

	firstOwner := d.claimOutputs(items)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(d.opts.Concurrency, max(len(items), 1)) {
		wg.Go(func() {
			for i := range jobs {
				if owner := firstOwner[i]; owner != i {
					report.Results[i] = d.skipDuplicate(logger, items[i], items[owner])
					continue
				}
				itemDir := filepath.Join(workDir, fmt.Sprintf("%03d", i+1))
				report.Results[i] = d.processItem(ctx, logger, items[i], itemDir)
			}
		})
	}

	cancelFrom := func(i int) {
		for j := i; j < len(items); j++ {
			report.Results[j] = ItemResult{Item: items[j], Status: StatusCanceled, Err: ctx.Err()}
		}
	}
dispatch:
	for i := range items {
		if ctx.Err() != nil {
			cancelFrom(i)
			break
		}
		select {
		case <-ctx.Done():
			cancelFrom(i)
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	logger.Infow("run finished",
		"written", report.Written(),
		"skipped", report.Skipped(),
		"failed", report.Failed(),
		"canceled", report.Canceled(),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// claimOutputs maps each item to the first item with the same output path.
// Later items with a taken path are skipped, as they would be when the
// first one had already been written.
func (d *Driver) claimOutputs(items []catalog.Item) []int {
	owners := make([]int, len(items))
	claimed := make(map[string]int, len(items))
	for i, item := range items {
		output := d.OutputPath(item.Name)
		if first, ok := claimed[output]; ok {
			owners[i] = first
			continue
		}
		claimed[output] = i
		owners[i] = i
	}
	return owners
}

func (d *Driver) skipDuplicate(logger *logging.Logger, item, owner catalog.Item) ItemResult {
	output := d.OutputPath(item.Name)
	logger.Infow("subtitle claimed by an earlier item, skipping",
		"item", item.Name,
		"position", item.Position,
		"claimed_by", owner.Position,
		"output", output,
	)
	return ItemResult{Item: item, Status: StatusSkipped, Output: output}
}

func (d *Driver) makeWorkDir(runID string) (string, error) {
	base := d.opts.WorkDir
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(base, "lecsub-"+runID[:8]+"-")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

func (d *Driver) processItem(ctx context.Context, logger *logging.Logger, item catalog.Item, itemDir string) ItemResult {
	started := time.Now()
	output := d.OutputPath(item.Name)
	result := ItemResult{Item: item, Output: output}
	logger = logger.With("item", item.Name, "position", item.Position)

	if err := ctx.Err(); err != nil {
		result.Status = StatusCanceled
		result.Err = err
		return result
	}

	if _, err := os.Stat(output); err == nil {
		logger.Infow("subtitle exists, skipping", "output", output)
		result.Status = StatusSkipped
		return result
	} else if !errors.Is(err, fs.ErrNotExist) {
		result.Status = StatusFailed
		result.Err = &StageError{Item: item.Name, Stage: StageWrite, Err: err}
		return result
	}

	cues, words, err := d.produce(ctx, logger, item, itemDir, output)
	result.Elapsed = time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			result.Status = StatusCanceled
		} else {
			result.Status = StatusFailed
		}
		result.Err = err
		logger.Errorw("item failed", "error", err, "elapsed", result.Elapsed)
		return result
	}

	result.Status = StatusWritten
	result.Cues = cues
	result.Words = words
	logger.Infow("subtitle written",
		"output", output,
		"cues", cues,
		"words", words,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result
}

func (d *Driver) produce(ctx context.Context, logger *logging.Logger, item catalog.Item, itemDir, output string) (int, int, error) {
	fail := func(stage Stage, err error) (int, int, error) {
		return 0, 0, &StageError{Item: item.Name, Stage: stage, Err: err}
	}

	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		return fail(StageFetch, err)
	}

	logger.Debugw("fetching media", "locator", item.Locator)
	mediaPath, err := d.deps.Fetcher.Fetch(ctx, item.Locator, itemDir)
	if err != nil {
		return fail(StageFetch, err)
	}

	info, err := d.deps.Prober.Probe(ctx, mediaPath)
	if err != nil {
		return fail(StageProbe, err)
	}
	if !info.HasAudio {
		return fail(StageProbe, video.ErrNoAudioStream)
	}
	logger.Debugw("probed media",
		"duration", info.Duration,
		"channels", info.Channels,
		"sample_rate", info.SampleRate,
		"codec", info.Codec,
	)

	extractOpts := video.ExtractAudioOptions{
		Format:     d.opts.AudioFormat,
		SampleRate: d.opts.SampleRate,
		Channels:   d.opts.Channels,
		Bitrate:    d.opts.Bitrate,
	}
	audioPath := filepath.Join(itemDir, "audio."+d.opts.AudioFormat)
	if err := d.deps.Extractor.ExtractAudio(ctx, mediaPath, audioPath, extractOpts); err != nil {
		return fail(StageExtract, err)
	}

	meta := transcribe.Audio{
		Path:       audioPath,
		MIMEType:   audio.MIMEType(audioPath),
		Channels:   firstPositive(d.opts.Channels, info.Channels),
		SampleRate: firstPositive(d.opts.SampleRate, info.SampleRate),
	}

	var resp *speech.Response
	if d.opts.ChunkDuration > 0 && info.Duration > d.opts.ChunkDuration {
		resp, err = d.recognizeChunks(ctx, logger, meta, filepath.Join(itemDir, "chunks"))
	} else {
		resp, err = d.recognize(ctx, logger, meta)
	}
	if err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stageErr.Item = item.Name
			return 0, 0, stageErr
		}
		return fail(StageRecognize, err)
	}

	sub, err := d.segmenter.Generate(resp)
	if err != nil {
		return fail(StageSegment, err)
	}
	sub.Language = d.opts.Language
	sub.Format = string(d.opts.Format)
	if len(sub.Cues) == 0 {
		logger.Warnw("recognition produced no usable words", "results", len(resp.Results))
	}

	if d.opts.SaveResponse {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fail(StageFormat, err)
		}
		if err := writeAtomic(responsePath(output), data); err != nil {
			return fail(StageWrite, err)
		}
	}

	content := d.writer.Render(sub)
	if err := writeAtomic(output, []byte(content)); err != nil {
		return fail(StageWrite, err)
	}

	return len(sub.Cues), resp.WordCount(), nil
}

// recognize uploads one audio file and runs recognition on it.
func (d *Driver) recognize(ctx context.Context, logger *logging.Logger, meta transcribe.Audio) (*speech.Response, error) {
	obj, err := d.deps.Uploader.Upload(ctx, meta.Path, meta.MIMEType)
	if err != nil {
		return nil, &StageError{Stage: StageUpload, Err: err}
	}
	if d.opts.CleanupUploads {
		defer func() {
			// the run context may already be canceled
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := d.deps.Uploader.Delete(cleanupCtx, obj); err != nil {
				logger.Warnw("failed to delete uploaded audio", "uri", obj.URI, "error", err)
			}
		}()
	}

	meta.URI = obj.URI
	if obj.MIMEType != "" {
		meta.MIMEType = obj.MIMEType
	}
	logger.Debugw("recognizing audio", "uri", meta.URI)

	resp, err := d.deps.Recognizer.Recognize(ctx, meta)
	if err != nil {
		return nil, &StageError{Stage: StageRecognize, Err: err}
	}
	if resp == nil {
		resp = &speech.Response{}
	}
	return resp, nil
}

func responsePath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".json"
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// writeAtomic replaces path through a temp file in the same directory so a
// partially written subtitle never becomes an idempotency marker.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".lecsub-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
