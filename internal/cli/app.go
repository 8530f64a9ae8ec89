package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mgpai22/lecsub/internal/config"
	"github.com/mgpai22/lecsub/internal/fetch"
	"github.com/mgpai22/lecsub/internal/logging"
	"github.com/mgpai22/lecsub/internal/pipeline"
	"github.com/mgpai22/lecsub/internal/storage"
	"github.com/mgpai22/lecsub/internal/subtitle"
	"github.com/mgpai22/lecsub/internal/transcribe"
)

// app holds a configured driver and the resources it must release.
type app struct {
	driver  *pipeline.Driver
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApp wires recognizer, uploader and fetcher from configuration.
func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{}

	rec, err := transcribe.Factory(
		ctx,
		transcribe.Provider(cfg.Transcription.Provider),
		cfg.Transcription.APIKey,
		recognitionOptions(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	if c, ok := rec.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	uploader, err := newUploader(ctx, cfg, rec)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if c, ok := uploader.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	format, err := subtitle.ParseFormat(cfg.Subtitles.Format)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	tools := pipeline.MediaTools{}
	driver, err := pipeline.New(pipeline.Deps{
		Fetcher:    newFetcher(cfg),
		Prober:     tools,
		Extractor:  tools,
		Chunker:    tools,
		Uploader:   uploader,
		Recognizer: rec,
	}, driverOptions(cfg, format), logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.driver = driver

	logger.Debugw("pipeline ready",
		"provider", cfg.Transcription.Provider,
		"language", cfg.Transcription.Language,
		"format", format,
		"bin", cfg.BinDuration(),
		"chunk", cfg.ChunkDuration(),
	)
	return a, nil
}

func recognitionOptions(cfg *config.Config) transcribe.Options {
	return transcribe.Options{
		Language:             cfg.Transcription.Language,
		Model:                cfg.Transcription.Model,
		Encoding:             cfg.Transcription.Encoding,
		AutomaticPunctuation: cfg.Transcription.AutomaticPunctuation,
		Prompt:               cfg.Transcription.Prompt,
		CredentialsFile:      cfg.Transcription.CredentialsFile,
	}
}

// newUploader picks GCS for google with a bucket, the Files API for gemini,
// and local paths otherwise.
func newUploader(ctx context.Context, cfg *config.Config, rec transcribe.Recognizer) (storage.Uploader, error) {
	switch transcribe.Provider(cfg.Transcription.Provider) {
	case transcribe.ProviderGoogle:
		if cfg.Storage.Bucket == "" {
			return storage.Local{}, nil
		}
		u, err := storage.NewGCSUploader(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Transcription.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("create gcs uploader: %w", err)
		}
		return u, nil
	case transcribe.ProviderGemini:
		if g, ok := rec.(*transcribe.GeminiRecognizer); ok {
			return storage.NewGeminiFiles(g.Client()), nil
		}
	}
	return storage.Local{}, nil
}

func newFetcher(cfg *config.Config) *fetch.Fetcher {
	f := fetch.New()
	if cfg.Workflow.FetchTimeout > 0 {
		timeout := time.Duration(cfg.Workflow.FetchTimeout) * time.Second
		f.HTTP = fetch.NewHTTPSource(&http.Client{Timeout: timeout})
		f.FTP = &fetch.FTPSource{Timeout: timeout}
	}
	return f
}

func driverOptions(cfg *config.Config, format subtitle.Format) pipeline.Options {
	return pipeline.Options{
		OutputDir:        cfg.Subtitles.OutputDir,
		Suffix:           cfg.Subtitles.Suffix,
		Format:           format,
		BinDuration:      cfg.BinDuration(),
		MaxLineChars:     cfg.Subtitles.MaxLineChars,
		Language:         cfg.Transcription.Language,
		SaveResponse:     cfg.Subtitles.SaveResponse,
		WorkDir:          cfg.Workflow.WorkDir,
		KeepMedia:        cfg.Workflow.KeepMedia,
		Concurrency:      cfg.Workflow.Concurrency,
		AudioFormat:      cfg.Audio.Format,
		SampleRate:       cfg.Audio.SampleRate,
		Channels:         cfg.Audio.Channels,
		Bitrate:          cfg.Audio.Bitrate,
		ChunkDuration:    cfg.ChunkDuration(),
		ChunkConcurrency: cfg.Transcription.Concurrency,
		CleanupUploads:   cfg.Storage.Cleanup,
	}
}
