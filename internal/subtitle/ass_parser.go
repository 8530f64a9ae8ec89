package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	assTimestampRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{2})$`)
	assTagRegex       = regexp.MustCompile(`\{[^}]*\}`)
)

// parsed ASS/SSA file; only the [Events] dialogue timing and text are kept
type ASSFile struct {
	subtitle *Subtitle
}

func parseASSFile(path string) (*ASSFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cues, err := ParseASS(file)
	if err != nil {
		return nil, err
	}
	return &ASSFile{subtitle: &Subtitle{Cues: cues, Format: string(FormatASS)}}, nil
}

// ParseASS reads the Dialogue lines of the [Events] section. Cues are
// numbered in file order; override tags are dropped and \N becomes a
// line break.
func ParseASS(r io.Reader) ([]Cue, error) {
	var cues []Cue
	scanner := bufio.NewScanner(r)

	inEvents := false
	var columns []string
	startCol, endCol, textCol := -1, -1, -1
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section := strings.ToLower(strings.Trim(trimmed, "[]"))
			inEvents = section == "events"
			continue
		}
		if !inEvents {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "Format:"):
			columns = strings.Split(strings.TrimPrefix(trimmed, "Format:"), ",")
			for i, col := range columns {
				switch strings.ToLower(strings.TrimSpace(col)) {
				case "start":
					startCol = i
				case "end":
					endCol = i
				case "text":
					textCol = i
				}
			}
			if startCol < 0 || endCol < 0 || textCol < 0 {
				return nil, fmt.Errorf("line %d: Format line needs Start, End and Text columns", lineNum)
			}

		case strings.HasPrefix(trimmed, "Dialogue:"):
			if columns == nil {
				return nil, fmt.Errorf("line %d: Dialogue before Format line", lineNum)
			}
			content := strings.TrimSpace(strings.TrimPrefix(trimmed, "Dialogue:"))
			fields := splitASSFields(content, len(columns))
			if len(fields) < len(columns) {
				return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, len(columns), len(fields))
			}

			start, err := parseASSTime(fields[startCol])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := parseASSTime(fields[endCol])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}

			cues = append(cues, Cue{
				Index:     len(cues) + 1,
				StartTime: start,
				EndTime:   end,
				Text:      unescapeASSText(fields[textCol]),
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if columns == nil {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}
	return cues, nil
}

// splits on the first numFields-1 commas; the last field keeps its commas
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	return strings.SplitN(content, ",", numFields)
}

func parseASSTime(s string) (time.Duration, error) {
	m := assTimestampRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	cs, _ := strconv.Atoi(m[4])
	return time.Duration(h)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(cs)*10*time.Millisecond, nil
}

func unescapeASSText(text string) string {
	text = assTagRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\N`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	return strings.TrimSpace(text)
}

func (f *ASSFile) Format() Format {
	return FormatASS
}

func (f *ASSFile) Subtitle() *Subtitle {
	return f.subtitle
}
