package subtitle

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/lecsub/internal/speech"
)

// DefaultBinDuration is the display window used when none is configured.
const DefaultBinDuration = 3 * time.Second

// Segmenter groups recognized words into cues of at most BinDuration,
// measured from the first word of each cue.
type Segmenter struct {
	BinDuration  time.Duration
	MaxLineChars int // 0 disables line wrapping
}

func NewSegmenter(bin time.Duration) *Segmenter {
	return &Segmenter{BinDuration: bin}
}

// converts a recognition response to a subtitle track
func (s *Segmenter) Generate(resp *speech.Response) (*Subtitle, error) {
	var results []speech.Result
	if resp != nil {
		results = resp.Results
	}

	cues, err := Segment(results, s.BinDuration)
	if err != nil {
		return nil, err
	}

	if s.MaxLineChars > 0 {
		for i := range cues {
			cues[i].Text = wrapText(cues[i].Text, s.MaxLineChars)
		}
	}

	return &Subtitle{
		Cues:   cues,
		Format: string(FormatSRT),
	}, nil
}

// Segment turns recognition results into cues. Each result is binned on its
// own; the cue index keeps counting across results. Results without usable
// words are skipped and do not consume an index.
func Segment(results []speech.Result, bin time.Duration) ([]Cue, error) {
	if bin <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBinDuration, bin)
	}

	cues := []Cue{}
	for i, result := range results {
		words, ok := result.Words()
		if !ok {
			continue
		}

		var err error
		cues, err = segmentWords(cues, words, bin)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
	}

	return cues, nil
}

// in-progress cue
type bin struct {
	start     time.Duration
	threshold time.Duration
	text      []string
}

func openBin(w speech.Word, size time.Duration) bin {
	return bin{
		start:     w.Start,
		threshold: w.Start + size,
		text:      []string{w.Text},
	}
}

// appends the cues for one result; the next index is always len(cues)+1
func segmentWords(cues []Cue, words []speech.Word, size time.Duration) ([]Cue, error) {
	for _, w := range words {
		if w.End < w.Start {
			return nil, fmt.Errorf("%w: %q ends at %v before start %v",
				ErrInvalidTiming, w.Text, w.End, w.Start)
		}
	}

	cur := openBin(words[0], size)
	for i := 1; i < len(words); i++ {
		w := words[i]
		if w.End < cur.threshold {
			cur.text = append(cur.text, w.Text)
			continue
		}

		cue, err := closeBin(cur, words[i-1].End, len(cues)+1)
		if err != nil {
			return nil, err
		}
		cues = append(cues, cue)
		cur = openBin(w, size)
	}

	cue, err := closeBin(cur, words[len(words)-1].End, len(cues)+1)
	if err != nil {
		return nil, err
	}
	return append(cues, cue), nil
}

func closeBin(b bin, end time.Duration, index int) (Cue, error) {
	if end < b.start {
		return Cue{}, fmt.Errorf("%w: cue %d ends at %v before start %v",
			ErrInvalidTiming, index, end, b.start)
	}
	return Cue{
		Index:     index,
		StartTime: b.start,
		EndTime:   end,
		Text:      strings.Join(b.text, " "),
	}, nil
}
