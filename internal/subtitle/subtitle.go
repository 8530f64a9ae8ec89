package subtitle

import (
	"errors"
	"fmt"
	"time"
)

// represents single caption cue
type Cue struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Cues     []Cue
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

var (
	// ErrInvalidBinDuration is returned when the bin duration is not positive.
	ErrInvalidBinDuration = errors.New("bin duration must be positive")

	// ErrInvalidTiming is returned for words or cues that end before they start.
	ErrInvalidTiming = errors.New("invalid word timing")
)

// interface for rendering and writing subtitles
type Writer interface {
	Render(subtitle *Subtitle) string
	Write(subtitle *Subtitle, path string) error
}

// parses a format name as given on the command line or in config
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSRT, FormatVTT, FormatASS:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, or ass", s)
	}
}

// Validate checks that cues are numbered 1..N in order, have non-empty text,
// and never end before they start.
func Validate(cues []Cue) error {
	for i, cue := range cues {
		if cue.Index != i+1 {
			return fmt.Errorf("cue %d: expected index %d, got %d", i, i+1, cue.Index)
		}
		if cue.EndTime < cue.StartTime {
			return fmt.Errorf("cue %d: %w: ends at %v before start %v",
				cue.Index, ErrInvalidTiming, cue.EndTime, cue.StartTime)
		}
		if cue.Text == "" {
			return fmt.Errorf("cue %d: empty text", cue.Index)
		}
	}
	return nil
}
