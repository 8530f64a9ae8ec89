package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/catalog"
	"github.com/mgpai22/lecsub/internal/speech"
	"github.com/mgpai22/lecsub/internal/storage"
	"github.com/mgpai22/lecsub/internal/subtitle"
	"github.com/mgpai22/lecsub/internal/transcribe"
	"github.com/mgpai22/lecsub/internal/video"
)

func sec(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func word(text string, start, end float64) speech.Word {
	return speech.Word{Text: text, Start: sec(start), End: sec(end)}
}

func lectureResponse() *speech.Response {
	return &speech.Response{Results: []speech.Result{{
		Alternatives: []speech.Alternative{{Words: []speech.Word{
			word("hi", 0.0, 0.4),
			word("there", 0.4, 1.0),
			word("friend", 1.0, 3.2),
			word("how", 3.2, 3.5),
		}}},
	}}}
}

const lectureSRT = "1\n00:00:00,000 --> 00:00:01,000\nhi there\n\n" +
	"2\n00:00:01,000 --> 00:00:03,500\nfriend how\n\n"

type fakeFetcher struct {
	fail map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, locator, dir string) (string, error) {
	if err := f.fail[locator]; err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(locator))
	return path, os.WriteFile(path, []byte("media"), 0o644)
}

type fakeProber struct {
	info audio.Info
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*audio.Info, error) {
	info := p.info
	info.Path = path
	return &info, nil
}

type fakeExtractor struct {
	mu   sync.Mutex
	opts []video.ExtractAudioOptions
}

func (e *fakeExtractor) ExtractAudio(ctx context.Context, mediaPath, outputPath string, opts video.ExtractAudioOptions) error {
	e.mu.Lock()
	e.opts = append(e.opts, opts)
	e.mu.Unlock()
	return os.WriteFile(outputPath, []byte("pcm"), 0o644)
}

type fakeRecognizer struct {
	calls   atomic.Int32
	respond func(transcribe.Audio) (*speech.Response, error)
	mu      sync.Mutex
	seen    []transcribe.Audio
}

func (r *fakeRecognizer) Recognize(ctx context.Context, a transcribe.Audio) (*speech.Response, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.seen = append(r.seen, a)
	r.mu.Unlock()
	if r.respond != nil {
		return r.respond(a)
	}
	return lectureResponse(), nil
}

type fakeUploader struct {
	mu      sync.Mutex
	deleted []string
}

func (u *fakeUploader) Upload(ctx context.Context, localPath, mimeType string) (*storage.Object, error) {
	return &storage.Object{URI: "gs://bucket/" + filepath.Base(localPath), MIMEType: mimeType, Name: localPath}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, obj *storage.Object) error {
	u.mu.Lock()
	u.deleted = append(u.deleted, obj.Name)
	u.mu.Unlock()
	return nil
}

type fakeChunker struct {
	chunks int
	size   time.Duration
}

func (c *fakeChunker) Chunk(ctx context.Context, audioPath string, size time.Duration, dir string) ([]audio.ChunkInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var out []audio.ChunkInfo
	for i := range c.chunks {
		path := filepath.Join(dir, "chunk_"+string(rune('a'+i))+".wav")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, err
		}
		out = append(out, audio.ChunkInfo{
			Path:      path,
			Index:     i,
			StartTime: time.Duration(i) * size,
			EndTime:   time.Duration(i+1) * size,
		})
	}
	return out, nil
}

type harness struct {
	fetcher    *fakeFetcher
	prober     *fakeProber
	extractor  *fakeExtractor
	recognizer *fakeRecognizer
	uploader   *fakeUploader
	chunker    *fakeChunker
	opts       Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		fetcher:    &fakeFetcher{fail: map[string]error{}},
		prober:     &fakeProber{info: audio.Info{HasAudio: true, Duration: 90 * time.Second, Channels: 2, SampleRate: 44100}},
		extractor:  &fakeExtractor{},
		recognizer: &fakeRecognizer{},
		uploader:   &fakeUploader{},
		chunker:    &fakeChunker{chunks: 2, size: time.Minute},
		opts: Options{
			OutputDir:   filepath.Join(t.TempDir(), "subs"),
			WorkDir:     t.TempDir(),
			Suffix:      "_subtitle",
			Format:      subtitle.FormatSRT,
			BinDuration: 3 * time.Second,
			Language:    "tr-TR",
		},
	}
}

func (h *harness) driver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(Deps{
		Fetcher:    h.fetcher,
		Prober:     h.prober,
		Extractor:  h.extractor,
		Chunker:    h.chunker,
		Uploader:   h.uploader,
		Recognizer: h.recognizer,
	}, h.opts, nil)
	require.NoError(t, err)
	return d
}

func TestRunWritesSubtitle(t *testing.T) {
	h := newHarness(t)
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "Ders 1 Giriş", Locator: "/media/ders1.mp4", Position: 1}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.NotEmpty(t, report.RunID)

	res := report.Results[0]
	require.Equal(t, StatusWritten, res.Status, "err: %v", res.Err)
	assert.Equal(t, filepath.Join(h.opts.OutputDir, "Ders_1_Giriş_subtitle.srt"), res.Output)
	assert.Equal(t, 2, res.Cues)
	assert.Equal(t, 4, res.Words)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, lectureSRT, string(data))

	require.Len(t, h.recognizer.seen, 1)
	seen := h.recognizer.seen[0]
	assert.Equal(t, "gs://bucket/audio.wav", seen.URI)
	assert.Equal(t, 2, seen.Channels, "channels come from the probe when not configured")
	assert.Equal(t, 44100, seen.SampleRate)
	assert.Equal(t, "audio/wav", seen.MIMEType)

	entries, err := os.ReadDir(h.opts.OutputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestRunSkipsExistingOutput(t *testing.T) {
	h := newHarness(t)
	d := h.driver(t)

	existing := d.OutputPath("Ders 1")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))
	before, err := os.Stat(existing)
	require.NoError(t, err)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "Ders 1", Locator: "/media/ders1.mp4"}})
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, report.Results[0].Status)
	assert.Equal(t, int32(0), h.recognizer.calls.Load(), "skipped item must not reach the recognizer")

	after, err := os.Stat(existing)
	require.NoError(t, err)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestRunSecondPassIsIdempotent(t *testing.T) {
	h := newHarness(t)
	d := h.driver(t)
	items := []catalog.Item{{Name: "A", Locator: "/m/a.mp4"}, {Name: "B", Locator: "/m/b.mp4"}}

	first, err := d.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Written())

	second, err := d.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped())
	assert.Equal(t, int32(2), h.recognizer.calls.Load())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunDuplicateNamesConcurrent(t *testing.T) {
	h := newHarness(t)
	h.opts.Concurrency = 2
	h.recognizer.respond = func(transcribe.Audio) (*speech.Response, error) {
		time.Sleep(50 * time.Millisecond)
		return lectureResponse(), nil
	}
	d := h.driver(t)

	items := []catalog.Item{
		{Name: "Giris", Locator: "/m/ch1/giris.mp4", Position: 1},
		{Name: "Giris", Locator: "/m/ch2/giris.mp4", Position: 2},
	}
	report, err := d.Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, StatusWritten, report.Results[0].Status, "err: %v", report.Results[0].Err)
	assert.Equal(t, StatusSkipped, report.Results[1].Status)
	assert.Equal(t, report.Results[0].Output, report.Results[1].Output)
	assert.Equal(t, int32(1), h.recognizer.calls.Load(), "shared output must be recognized once")
}

func TestRunIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fail["/m/broken.mp4"] = errors.New("connection reset")
	h.opts.Concurrency = 3
	d := h.driver(t)

	items := []catalog.Item{
		{Name: "first", Locator: "/m/first.mp4"},
		{Name: "broken", Locator: "/m/broken.mp4"},
		{Name: "third", Locator: "/m/third.mp4"},
	}
	report, err := d.Run(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	for i, item := range items {
		assert.Equal(t, item, report.Results[i].Item, "report keeps input order")
	}
	assert.Equal(t, StatusWritten, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, StatusWritten, report.Results[2].Status)

	var stageErr *StageError
	require.ErrorAs(t, report.Results[1].Err, &stageErr)
	assert.Equal(t, StageFetch, stageErr.Stage)
	assert.Equal(t, "broken", stageErr.Item)

	_, statErr := os.Stat(d.OutputPath("broken"))
	assert.True(t, os.IsNotExist(statErr), "failed item must not leave an artifact")
}

func TestRunRecordsRecognizeStage(t *testing.T) {
	h := newHarness(t)
	h.recognizer.respond = func(transcribe.Audio) (*speech.Response, error) {
		return nil, errors.New("quota exceeded")
	}
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "x", Locator: "/m/x.mp4"}})
	require.NoError(t, err)

	var stageErr *StageError
	require.ErrorAs(t, report.Results[0].Err, &stageErr)
	assert.Equal(t, StageRecognize, stageErr.Stage)
	assert.Contains(t, stageErr.Error(), "quota exceeded")
}

func TestRunEmptyResultsWriteEmptyTrack(t *testing.T) {
	h := newHarness(t)
	h.recognizer.respond = func(transcribe.Audio) (*speech.Response, error) {
		resp := lectureResponse()
		resp.Results = append([]speech.Result{{}}, resp.Results...)
		resp.Results = append(resp.Results, speech.Result{Alternatives: []speech.Alternative{{}}})
		return resp, nil
	}
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "x", Locator: "/m/x.mp4"}})
	require.NoError(t, err)
	require.Equal(t, StatusWritten, report.Results[0].Status)

	data, err := os.ReadFile(report.Results[0].Output)
	require.NoError(t, err)
	assert.Equal(t, lectureSRT, string(data))
}

func TestRunChunkedRecognition(t *testing.T) {
	h := newHarness(t)
	h.opts.ChunkDuration = time.Minute
	h.opts.CleanupUploads = true
	h.opts.SaveResponse = true
	h.recognizer.respond = func(a transcribe.Audio) (*speech.Response, error) {
		text := strings.TrimSuffix(filepath.Base(a.Path), ".wav")
		return &speech.Response{Results: []speech.Result{{
			Alternatives: []speech.Alternative{{Words: []speech.Word{word(text, 1, 2)}}},
		}}}, nil
	}
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "long", Locator: "/m/long.mp4"}})
	require.NoError(t, err)
	require.Equal(t, StatusWritten, report.Results[0].Status, "err: %v", report.Results[0].Err)

	data, err := os.ReadFile(report.Results[0].Output)
	require.NoError(t, err)
	want := "1\n00:00:01,000 --> 00:00:02,000\nchunk_a\n\n" +
		"2\n00:01:01,000 --> 00:01:02,000\nchunk_b\n\n"
	assert.Equal(t, want, string(data))
	assert.Len(t, h.uploader.deleted, 2)

	saved, err := os.ReadFile(filepath.Join(h.opts.OutputDir, "long_subtitle.json"))
	require.NoError(t, err)
	var resp speech.Response
	require.NoError(t, json.Unmarshal(saved, &resp))
	assert.Equal(t, 2, resp.WordCount())
}

func TestRunChunkFailureFailsItem(t *testing.T) {
	h := newHarness(t)
	h.opts.ChunkDuration = time.Minute
	h.opts.ChunkConcurrency = 1
	h.chunker.chunks = 3
	h.recognizer.respond = func(a transcribe.Audio) (*speech.Response, error) {
		if strings.Contains(a.Path, "chunk_b") {
			return nil, errors.New("boom")
		}
		return lectureResponse(), nil
	}
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "long", Locator: "/m/long.mp4"}})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.ErrorContains(t, report.Results[0].Err, "chunk 1")
	assert.LessOrEqual(t, h.recognizer.calls.Load(), int32(2), "later chunks are not started after a failure")
}

func TestRunNoAudioStream(t *testing.T) {
	h := newHarness(t)
	h.prober.info.HasAudio = false
	d := h.driver(t)

	report, err := d.Run(context.Background(), []catalog.Item{{Name: "silent", Locator: "/m/silent.mp4"}})
	require.NoError(t, err)

	var stageErr *StageError
	require.ErrorAs(t, report.Results[0].Err, &stageErr)
	assert.Equal(t, StageProbe, stageErr.Stage)
	assert.ErrorIs(t, report.Results[0].Err, video.ErrNoAudioStream)
	assert.Zero(t, h.recognizer.calls.Load())
}

func TestRunCanceledContext(t *testing.T) {
	h := newHarness(t)
	d := h.driver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.Run(ctx, []catalog.Item{{Name: "a", Locator: "/m/a.mp4"}, {Name: "b", Locator: "/m/b.mp4"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Written())
}

func TestRunHoldsOutputLock(t *testing.T) {
	h := newHarness(t)
	d := h.driver(t)

	lock, err := acquireLock(h.opts.OutputDir)
	require.NoError(t, err)
	defer lock.Unlock()

	_, err = d.Run(context.Background(), []catalog.Item{{Name: "a", Locator: "/m/a.mp4"}})
	assert.ErrorIs(t, err, ErrLocked)
	assert.Zero(t, h.recognizer.calls.Load())
}

func TestNewRejectsInvalidBin(t *testing.T) {
	h := newHarness(t)
	for _, bin := range []time.Duration{0, -time.Second} {
		h.opts.BinDuration = bin
		_, err := New(Deps{
			Fetcher:    h.fetcher,
			Prober:     h.prober,
			Extractor:  h.extractor,
			Recognizer: h.recognizer,
		}, h.opts, nil)
		assert.ErrorIs(t, err, subtitle.ErrInvalidBinDuration)
	}
}
