package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/lecsub/internal/speech"
)

// implements Recognizer using the OpenAI audio API with word timestamps
type OpenAIRecognizer struct {
	client  openai.Client
	model   string
	options Options
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Words    []speech.Word    `json:"words"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAIRecognizer(apiKey string, opts Options) (*OpenAIRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAIRecognizer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// Recognize uploads the local file with the request; remote URIs are not
// readable by this API.
func (t *OpenAIRecognizer) Recognize(ctx context.Context, audio Audio) (*speech.Response, error) {
	if audio.Path == "" {
		return nil, ErrNoAudioSource
	}

	file, err := os.Open(audio.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}

	if lang := whisperLanguage(t.options.Language); lang != "" {
		params.Language = openai.String(lang)
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return parseVerboseJSONResponse(resp.RawJSON(), t.options.Language)
}

// whisperLanguage reduces a BCP-47 tag to the ISO-639-1 code Whisper takes.
func whisperLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	primary, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(primary)
}

// parseVerboseJSONResponse groups the word list under the segment that
// contains each word, one result per segment. Segments without words become
// a single timed word so their timing still reaches the segmenter.
func parseVerboseJSONResponse(rawJSON, language string) (*speech.Response, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Words) == 0 && len(verboseResp.Segments) == 0 {
		return nil, fmt.Errorf("no words or segments in response")
	}

	resp := &speech.Response{}
	addResult := func(transcript string, words []speech.Word) {
		if len(words) == 0 {
			return
		}
		if transcript == "" {
			transcript = joinWords(words)
		}
		resp.Results = append(resp.Results, speech.Result{
			Alternatives: []speech.Alternative{{Transcript: transcript, Words: words}},
			LanguageCode: language,
		})
	}

	if len(verboseResp.Segments) == 0 {
		addResult(strings.TrimSpace(verboseResp.Text), verboseResp.Words)
		return resp, nil
	}

	words := verboseResp.Words
	next := 0
	for i, seg := range verboseResp.Segments {
		start := secondsToDuration(seg.Start)
		end := secondsToDuration(seg.End)
		last := i == len(verboseResp.Segments)-1

		var segWords []speech.Word
		for next < len(words) && (last || words[next].Start < end) {
			segWords = append(segWords, words[next])
			next++
		}

		text := strings.TrimSpace(seg.Text)
		if len(words) == 0 && text != "" {
			segWords = []speech.Word{{Text: text, Start: start, End: end}}
		}
		addResult(text, segWords)
	}

	return resp, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(math.Round(seconds*1e6)) * time.Microsecond
}
