package subtitle

import (
	"errors"
	"testing"
	"time"

	"github.com/mgpai22/lecsub/internal/speech"
)

func sec(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func word(text string, start, end float64) speech.Word {
	return speech.Word{Text: text, Start: sec(start), End: sec(end)}
}

func result(words ...speech.Word) speech.Result {
	return speech.Result{Alternatives: []speech.Alternative{{Words: words}}}
}

func TestSegmentLectureExample(t *testing.T) {
	results := []speech.Result{result(
		word("hi", 0.0, 0.4),
		word("there", 0.4, 1.0),
		word("friend", 1.0, 3.2),
		word("how", 3.2, 3.5),
	)}

	cues, err := Segment(results, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	want := []Cue{
		{Index: 1, StartTime: 0, EndTime: sec(1.0), Text: "hi there"},
		{Index: 2, StartTime: sec(1.0), EndTime: sec(3.5), Text: "friend how"},
	}
	if len(cues) != len(want) {
		t.Fatalf("expected %d cues, got %d: %+v", len(want), len(cues), cues)
	}
	for i := range want {
		if cues[i] != want[i] {
			t.Errorf("cue %d: expected %+v, got %+v", i, want[i], cues[i])
		}
	}
}

func TestSegmentThresholdIsExclusive(t *testing.T) {
	results := []speech.Result{result(
		word("one", 1.0, 1.5),
		word("two", 1.5, 4.0), // ends exactly on 1.0+3.0
	)}

	cues, err := Segment(results, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "one" || cues[0].EndTime != sec(1.5) {
		t.Errorf("unexpected first cue: %+v", cues[0])
	}
	if cues[1].Text != "two" || cues[1].StartTime != sec(1.5) || cues[1].EndTime != sec(4.0) {
		t.Errorf("unexpected second cue: %+v", cues[1])
	}
}

func TestSegmentWindowStartsAtFirstWord(t *testing.T) {
	// window is measured from 10.0, not from zero
	results := []speech.Result{result(
		word("a", 10.0, 10.5),
		word("b", 11.0, 12.9),
		word("c", 12.9, 13.1),
	)}

	cues, err := Segment(results, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].StartTime != sec(10.0) || cues[0].Text != "a b" {
		t.Errorf("unexpected first cue: %+v", cues[0])
	}
}

func TestSegmentSkipsEmptyResults(t *testing.T) {
	results := []speech.Result{
		{},
		result(word("hello", 0.5, 1.0), word("world", 1.0, 1.6)),
		{Alternatives: []speech.Alternative{{Transcript: "no words"}}},
		result(word(" ", 2.0, 2.1)),
	}

	cues, err := Segment(results, 3*time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	want := Cue{Index: 1, StartTime: sec(0.5), EndTime: sec(1.6), Text: "hello world"}
	if cues[0] != want {
		t.Errorf("expected %+v, got %+v", want, cues[0])
	}
}

func TestSegmentNumberingContinuesAcrossResults(t *testing.T) {
	results := []speech.Result{
		result(word("a", 0, 1), word("b", 1, 4), word("c", 4, 8)),
		{},
		result(word("d", 8, 8.5), word("e", 8.5, 9)),
	}

	cues, err := Segment(results, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if err := Validate(cues); err != nil {
		t.Fatalf("invalid cue sequence: %v", err)
	}
	if len(cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(cues))
	}
	// contiguous results are never merged into one bin
	if cues[2].Text != "c" || cues[3].Text != "d e" {
		t.Errorf("unexpected bins at result seam: %+v %+v", cues[2], cues[3])
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d: expected index %d, got %d", i, i+1, cue.Index)
		}
	}
}

func TestSegmentWindowContainment(t *testing.T) {
	var words []speech.Word
	for i := 0; i < 60; i++ {
		start := float64(i) * 0.37
		words = append(words, word("w", start, start+0.3))
	}
	bin := 2 * time.Second

	cues, err := Segment([]speech.Result{result(words...)}, bin)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if err := Validate(cues); err != nil {
		t.Fatalf("invalid cue sequence: %v", err)
	}

	// every cue's end is the end of a word merged into it
	for _, cue := range cues {
		if cue.EndTime >= cue.StartTime+bin {
			t.Errorf("cue %d exceeds window: %v..%v", cue.Index, cue.StartTime, cue.EndTime)
		}
	}

	total := 0
	for _, cue := range cues {
		total += len(splitWords(cue.Text))
	}
	if total != len(words) {
		t.Errorf("expected %d words across cues, got %d", len(words), total)
	}
}

func TestSegmentSingleWordResult(t *testing.T) {
	cues, err := Segment([]speech.Result{result(word("tek", 0, 0.3))}, time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "tek" || cues[0].EndTime != sec(0.3) {
		t.Errorf("unexpected cues: %+v", cues)
	}
}

func TestSegmentLongWordOpensOwnCue(t *testing.T) {
	cues, err := Segment([]speech.Result{result(
		word("short", 0, 0.5),
		word("loooong", 0.5, 9.0),
		word("next", 9.0, 9.2),
	)}, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d: %+v", len(cues), cues)
	}
	if cues[1].Text != "loooong" || cues[1].EndTime != sec(9.0) {
		t.Errorf("unexpected middle cue: %+v", cues[1])
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	cues, err := Segment(nil, 3*time.Second)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(cues) != 0 {
		t.Errorf("expected no cues, got %d", len(cues))
	}
}

func TestSegmentRejectsNonPositiveBin(t *testing.T) {
	for _, bin := range []time.Duration{0, -time.Second} {
		_, err := Segment([]speech.Result{result(word("a", 0, 1))}, bin)
		if !errors.Is(err, ErrInvalidBinDuration) {
			t.Errorf("bin %v: expected ErrInvalidBinDuration, got %v", bin, err)
		}
	}
}

func TestSegmentRejectsCorruptTiming(t *testing.T) {
	tests := []struct {
		name  string
		words []speech.Word
	}{
		{
			name:  "word ends before it starts",
			words: []speech.Word{word("a", 2, 1)},
		},
		{
			name: "closing word ends before bin start",
			words: []speech.Word{
				word("a", 5, 6),
				word("b", 0.5, 1),
				word("c", 9, 10),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segment([]speech.Result{result(tt.words...)}, 3*time.Second)
			if !errors.Is(err, ErrInvalidTiming) {
				t.Errorf("expected ErrInvalidTiming, got %v", err)
			}
		})
	}
}

func TestSegmenterGenerateWraps(t *testing.T) {
	s := &Segmenter{BinDuration: 10 * time.Second, MaxLineChars: 10}
	resp := &speech.Response{Results: []speech.Result{result(
		word("merhaba", 0, 0.5),
		word("sevgili", 0.5, 1),
		word("öğrenciler", 1, 2),
	)}}

	sub, err := s.Generate(resp)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(sub.Cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(sub.Cues))
	}
	want := "merhaba sevgili\nöğrenciler"
	if sub.Cues[0].Text != want {
		t.Errorf("expected %q, got %q", want, sub.Cues[0].Text)
	}
}

func TestSegmenterGenerateNilResponse(t *testing.T) {
	sub, err := NewSegmenter(DefaultBinDuration).Generate(nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(sub.Cues) != 0 {
		t.Errorf("expected no cues, got %d", len(sub.Cues))
	}
}

func splitWords(s string) []string {
	var out []string
	field := ""
	for _, r := range s {
		if r == ' ' || r == '\n' {
			if field != "" {
				out = append(out, field)
			}
			field = ""
			continue
		}
		field += string(r)
	}
	if field != "" {
		out = append(out, field)
	}
	return out
}
