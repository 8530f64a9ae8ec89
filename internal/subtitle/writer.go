package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Lecture Subtitles",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// renders cues as SubRip blocks: index, time range, text, blank line
func (w *SRTWriter) Render(sub *Subtitle) string {
	var sb strings.Builder
	for _, cue := range sub.Cues {
		fmt.Fprintf(&sb, "%d\n", cue.Index)
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatSRTTime(cue.StartTime),
			formatSRTTime(cue.EndTime))
		sb.WriteString(cue.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, w.Render(sub))
}

func (w *VTTWriter) Render(sub *Subtitle) string {
	var sb strings.Builder

	sb.WriteString("WEBVTT\n\n")

	for _, cue := range sub.Cues {
		// cue identifier
		fmt.Fprintf(&sb, "%d\n", cue.Index)

		fmt.Fprintf(&sb, "%s --> %s\n",
			formatVTTTime(cue.StartTime),
			formatVTTTime(cue.EndTime))

		sb.WriteString(cue.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, w.Render(sub))
}

func (w *ASSWriter) Render(sub *Subtitle) string {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	fmt.Fprintf(&sb, "Title: %s\n", w.Title)
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, cue := range sub.Cues {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(cue.StartTime),
			formatASSTime(cue.EndTime),
			escapeASSText(cue.Text))
	}

	return sb.String()
}

func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, w.Render(sub))
}

// HH:MM:SS,mmm with milliseconds truncated
func formatSRTTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func formatASSTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, ms/10)
}

func clockParts(d time.Duration) (hours, minutes, seconds, millis int) {
	if d < 0 {
		d = 0
	}
	hours = int(d / time.Hour)
	minutes = int(d/time.Minute) % 60
	seconds = int(d/time.Second) % 60
	millis = int(d/time.Millisecond) % 1000
	return hours, minutes, seconds, millis
}

func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	if format, ok := LookupExtension(path); ok {
		return format
	}
	return FormatSRT
}

// LookupExtension reports the format for a known subtitle extension.
func LookupExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass", ".ssa":
		return FormatASS, true
	default:
		return "", false
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
