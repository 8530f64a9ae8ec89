package audio

import (
	"fmt"
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	data := []byte(`{
  "streams": [
    {"codec_type": "video", "codec_name": "h264"},
    {"codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "44100", "bit_rate": "128000"},
    {"codec_type": "audio", "codec_name": "mp3", "channels": 1, "sample_rate": "16000"}
  ],
  "format": {"duration": "2712.480000", "bit_rate": "900000"}
}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if !info.HasAudio || !info.HasVideo {
		t.Errorf("expected audio and video streams, got %+v", info)
	}
	if info.Codec != "aac" || info.Channels != 2 || info.SampleRate != 44100 || info.BitRate != 128000 {
		t.Errorf("expected first audio stream, got %+v", info)
	}
	want := 2712*time.Second + 480*time.Millisecond
	if info.Duration != want {
		t.Errorf("expected duration %v, got %v", want, info.Duration)
	}
}

func TestParseProbeFallsBackToFormatBitRate(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"codec_type":"audio","channels":1,"sample_rate":"16000"}],"format":{"bit_rate":"256000"}}`))
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.BitRate != 256000 || info.Duration != 0 || info.HasVideo {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestParseProbeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"bad duration", `{"format":{"duration":"forever"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbe([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPlanChunks(t *testing.T) {
	jobs := planChunks(150, 60, func(i int) string { return fmt.Sprintf("c%d", i) })
	if len(jobs) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(jobs))
	}
	if jobs[2].startSeconds != 120 || jobs[2].endSeconds != 150 {
		t.Errorf("unexpected last chunk: %+v", jobs[2])
	}
	if jobs[1].chunkPath != "c1" {
		t.Errorf("unexpected chunk path %q", jobs[1].chunkPath)
	}

	if got := planChunks(0, 60, func(int) string { return "" }); len(got) != 0 {
		t.Errorf("expected no chunks for empty audio, got %d", len(got))
	}
}

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"lecture.MP4", true},
		{"lecture.mkv", true},
		{"track.flac", true},
		{"notes.pdf", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsMediaFile(tt.path); got != tt.want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMIMEType(t *testing.T) {
	if got := MIMEType("a.WAV"); got != "audio/wav" {
		t.Errorf("unexpected mime %q", got)
	}
	if got := MIMEType("a.bin"); got != "application/octet-stream" {
		t.Errorf("unexpected mime %q", got)
	}
}
