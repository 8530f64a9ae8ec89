package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseSRTFile(t *testing.T) {
	content := "\ufeff1\n00:00:01,000 --> 00:00:04,000\nMerhaba, dünya!\n\n" +
		"2\n00:00:05,500 --> 00:00:08,200\nThis is a test.\nWith multiple lines.\n\n" +
		"3\n00:00:10,000 --> 00:00:12,500\nFinal subtitle.\n"

	tmpDir := t.TempDir()
	srtPath := filepath.Join(tmpDir, "test.srt")
	if err := os.WriteFile(srtPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	file, err := Open(srtPath)
	if err != nil {
		t.Fatalf("failed to open SRT file: %v", err)
	}

	if file.Format() != FormatSRT {
		t.Errorf("expected format SRT, got %s", file.Format())
	}

	sub := file.Subtitle()
	if len(sub.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(sub.Cues))
	}

	if sub.Cues[0].StartTime != 1*time.Second {
		t.Errorf("cue 0: expected start 1s, got %v", sub.Cues[0].StartTime)
	}
	if sub.Cues[0].EndTime != 4*time.Second {
		t.Errorf("cue 0: expected end 4s, got %v", sub.Cues[0].EndTime)
	}
	if sub.Cues[0].Text != "Merhaba, dünya!" {
		t.Errorf("cue 0: expected 'Merhaba, dünya!', got %q", sub.Cues[0].Text)
	}

	expectedText := "This is a test.\nWith multiple lines."
	if sub.Cues[1].Text != expectedText {
		t.Errorf("cue 1: expected %q, got %q", expectedText, sub.Cues[1].Text)
	}

	if err := Validate(sub.Cues); err != nil {
		t.Errorf("expected parsed cues to validate, got %v", err)
	}
}

func TestParseSRTZeroLengthCue(t *testing.T) {
	content := "1\n00:00:00,000 --> 00:00:00,000\nsilence\n\n2\n00:00:01,000 --> 00:00:02,000\nnext\n"

	cues, err := ParseSRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "silence" || cues[1].Text != "next" {
		t.Errorf("unexpected cues: %+v", cues)
	}
}

func TestParseSRTMissingTimeRange(t *testing.T) {
	content := "1\nnot a time range\ntext\n"
	if _, err := ParseSRT(strings.NewReader(content)); err == nil {
		t.Error("expected error for missing time range")
	}
}

func TestParseVTTFile(t *testing.T) {
	content := `WEBVTT

NOTE generated for a test

1
00:00:01.000 --> 00:00:04.000
Hello, world!

2
00:00:05.500 --> 00:00:08.200
This is a test.
With multiple lines.

00:10.000 --> 00:12.500
No cue identifier.
`
	tmpDir := t.TempDir()
	vttPath := filepath.Join(tmpDir, "test.vtt")
	if err := os.WriteFile(vttPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	file, err := Open(vttPath)
	if err != nil {
		t.Fatalf("failed to open VTT file: %v", err)
	}

	if file.Format() != FormatVTT {
		t.Errorf("expected format VTT, got %s", file.Format())
	}

	sub := file.Subtitle()
	if len(sub.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(sub.Cues))
	}

	if sub.Cues[0].StartTime != 1*time.Second {
		t.Errorf("cue 0: expected start 1s, got %v", sub.Cues[0].StartTime)
	}
	if sub.Cues[2].StartTime != 10*time.Second || sub.Cues[2].Index != 3 {
		t.Errorf("cue 2: unexpected %+v", sub.Cues[2])
	}
	if sub.Cues[2].Text != "No cue identifier." {
		t.Errorf("cue 2: expected 'No cue identifier.', got %q", sub.Cues[2].Text)
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	txtPath := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(txtPath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := Open(txtPath)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected 'unsupported' in error, got: %v", err)
	}
}

func TestASSRoundTrip(t *testing.T) {
	sub := &Subtitle{Cues: []Cue{
		{Index: 1, StartTime: 500 * time.Millisecond, EndTime: 2 * time.Second, Text: "Merhaba, arkadaşlar"},
		{Index: 2, StartTime: 3600 * time.Millisecond, EndTime: 4200 * time.Millisecond, Text: "bugün\nders"},
	}}

	writer, err := NewWriter(FormatASS)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "lecture.ass")
	if err := writer.Write(sub, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open ASS file: %v", err)
	}
	if file.Format() != FormatASS {
		t.Errorf("expected format ASS, got %s", file.Format())
	}

	got := file.Subtitle().Cues
	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(got))
	}
	for i, want := range sub.Cues {
		if got[i] != want {
			t.Errorf("cue %d: expected %+v, got %+v", i, want, got[i])
		}
	}
}

func TestParseASSStripsOverrideTags(t *testing.T) {
	content := "[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n" +
		"Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,{\\i1}one, two{\\i0}\n"

	cues, err := ParseASS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseASS failed: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "one, two" || cues[0].EndTime != 2500*time.Millisecond {
		t.Errorf("unexpected cues: %+v", cues)
	}
}

func TestParseASSMissingFormat(t *testing.T) {
	if _, err := ParseASS(strings.NewReader("[Script Info]\nTitle: x\n")); err == nil {
		t.Error("expected error without [Events] Format line")
	}
}
