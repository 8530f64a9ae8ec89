package speech

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// single recognized word with its offsets from the start of the audio
type Word struct {
	Text  string        `json:"word"`
	Start time.Duration `json:"startTime"`
	End   time.Duration `json:"endTime"`
}

// one hypothesis for a recognized utterance
type Alternative struct {
	Transcript string  `json:"transcript,omitempty"`
	Confidence float32 `json:"confidence,omitempty"`
	Words      []Word  `json:"words,omitempty"`
}

// one contiguous utterance returned by the recognizer
type Result struct {
	Alternatives []Alternative `json:"alternatives"`
	ChannelTag   int32         `json:"channelTag,omitempty"`
	LanguageCode string        `json:"languageCode,omitempty"`
}

// ordered recognition output for a whole audio file
type Response struct {
	Results []Result `json:"results"`
}

// Offset builds a time offset from the seconds/nanos pair used by the
// recognition API. Sub-second precision is kept at microseconds.
func Offset(seconds int64, nanos int32) time.Duration {
	d := time.Duration(seconds)*time.Second + time.Duration(nanos)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Microsecond)
}

// Words returns the usable words of the first alternative. Words with blank
// text are dropped. The second return value is false when the result has no
// alternative or no usable word, which callers treat as "skip".
func (r Result) Words() ([]Word, bool) {
	if len(r.Alternatives) == 0 {
		return nil, false
	}

	src := r.Alternatives[0].Words
	words := make([]Word, 0, len(src))
	for _, w := range src {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		w.Text = text
		words = append(words, w)
	}

	if len(words) == 0 {
		return nil, false
	}
	return words, true
}

// Shift moves every word of the response forward by offset. Used to place
// chunk-relative timings on the timeline of the full audio.
func (r *Response) Shift(offset time.Duration) {
	if r == nil || offset == 0 {
		return
	}
	for i := range r.Results {
		for j := range r.Results[i].Alternatives {
			words := r.Results[i].Alternatives[j].Words
			for k := range words {
				words[k].Start += offset
				words[k].End += offset
			}
		}
	}
}

// Append adds the results of other after the results of r.
func (r *Response) Append(other *Response) {
	if r == nil || other == nil {
		return
	}
	r.Results = append(r.Results, other.Results...)
}

// WordCount reports the number of words across all first alternatives.
func (r *Response) WordCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, res := range r.Results {
		if len(res.Alternatives) > 0 {
			count += len(res.Alternatives[0].Words)
		}
	}
	return count
}

type wordJSON struct {
	Word      string          `json:"word"`
	Text      string          `json:"text,omitempty"`
	StartTime json.RawMessage `json:"startTime,omitempty"`
	EndTime   json.RawMessage `json:"endTime,omitempty"`
	Start     json.RawMessage `json:"start,omitempty"`
	End       json.RawMessage `json:"end,omitempty"`
}

// accepts the REST form ("1.300s"), numeric seconds, and start/end aliases
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw wordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	w.Text = raw.Word
	if w.Text == "" {
		w.Text = raw.Text
	}

	start, err := parseOffset(firstNonEmpty(raw.StartTime, raw.Start))
	if err != nil {
		return fmt.Errorf("invalid start time for %q: %w", w.Text, err)
	}
	end, err := parseOffset(firstNonEmpty(raw.EndTime, raw.End))
	if err != nil {
		return fmt.Errorf("invalid end time for %q: %w", w.Text, err)
	}

	w.Start = start
	w.End = end
	return nil
}

func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Word      string `json:"word"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}{
		Word:      w.Text,
		StartTime: formatOffset(w.Start),
		EndTime:   formatOffset(w.End),
	})
}

func firstNonEmpty(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

func parseOffset(raw json.RawMessage) (time.Duration, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		if !strings.HasSuffix(s, "s") {
			s += "s"
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		if d < 0 {
			return 0, fmt.Errorf("negative offset %s", s)
		}
		return d.Truncate(time.Microsecond), nil
	}

	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return 0, err
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative offset %v", seconds)
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Microsecond), nil
}

func formatOffset(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
