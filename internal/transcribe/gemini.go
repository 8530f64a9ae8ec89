package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/lecsub/internal/speech"
)

// implements Recognizer using Google Gemini
type GeminiRecognizer struct {
	client  *genai.Client
	model   string
	options Options
}

// one utterance as requested from the model
type geminiUtterance struct {
	Transcript string        `json:"transcript"`
	Words      []speech.Word `json:"words"`
}

var errNoWords = errors.New("no timed words in response")

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

func NewGeminiRecognizer(ctx context.Context, apiKey string, opts Options) (*GeminiRecognizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiRecognizer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// Client exposes the underlying client so the Files API can share it.
func (t *GeminiRecognizer) Client() *genai.Client {
	return t.client
}

// Recognize references an uploaded file when URI is set and sends the audio
// inline otherwise.
func (t *GeminiRecognizer) Recognize(ctx context.Context, audio Audio) (*speech.Response, error) {
	var audioPart *genai.Part
	switch {
	case remoteURI(audio.URI):
		audioPart = genai.NewPartFromURI(audio.URI, audio.MIMEType)
	case audio.Path != "":
		data, err := os.ReadFile(audio.Path)
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		audioPart = genai.NewPartFromBytes(data, audio.MIMEType)
	default:
		return nil, ErrNoAudioSource
	}

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		audioPart,
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	resp, err := t.parseTranscriptionResponse(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}
	return resp, nil
}

// creates the prompt for transcription
func (t *GeminiRecognizer) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a verbatim transcript of this audio with word-level timestamps. ")
	sb.WriteString("Split the transcript into utterances at natural pauses. ")
	sb.WriteString("Format your response as a JSON array of objects with a 'transcript' string and a 'words' array; ")
	sb.WriteString("each word is an object with 'word', 'start' and 'end' fields, ")
	sb.WriteString("where 'start' and 'end' are seconds from the beginning of the audio (as numbers). ")

	if t.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio is in %s; transcribe it in that language. ", t.options.Language))
	}

	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

func (t *GeminiRecognizer) parseTranscriptionResponse(result *genai.GenerateContentResponse) (*speech.Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	if responseText.Len() == 0 {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	utterances, err := extractUtterances(cleanJSONResponse(responseText.String()))
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(responseText.String(), 200))
	}

	resp := &speech.Response{Results: make([]speech.Result, 0, len(utterances))}
	for _, u := range utterances {
		transcript := strings.TrimSpace(u.Transcript)
		if transcript == "" {
			transcript = joinWords(u.Words)
		}
		resp.Results = append(resp.Results, speech.Result{
			Alternatives: []speech.Alternative{{Transcript: transcript, Words: u.Words}},
			LanguageCode: t.options.Language,
		})
	}
	return resp, nil
}

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	// remove ```json and ``` markers
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// extractUtterances finds the first JSON value in s that carries timed
// words. Models sometimes add prose around the JSON, wrap it in an object,
// or return a flat word list; all of those are accepted.
func extractUtterances(s string) ([]geminiUtterance, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			continue
		}
		if utterances, ok := interpretUtterances(raw, 0); ok {
			return utterances, nil
		}
	}
	return nil, errNoWords
}

var wrapperKeys = []string{"results", "utterances", "transcript", "segments", "words", "response", "data"}

func interpretUtterances(raw json.RawMessage, depth int) ([]geminiUtterance, bool) {
	if depth > 3 {
		return nil, false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, false
	}

	switch trimmed[0] {
	case '[':
		var utterances []geminiUtterance
		if err := json.Unmarshal(raw, &utterances); err == nil && hasTimedWords(utterances) {
			return utterances, true
		}
		var words []speech.Word
		if err := json.Unmarshal(raw, &words); err == nil {
			single := []geminiUtterance{{Words: words}}
			if hasTimedWords(single) {
				return single, true
			}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		for _, key := range wrapperKeys {
			if value, ok := obj[key]; ok {
				if utterances, ok := interpretUtterances(value, depth+1); ok {
					return utterances, true
				}
			}
		}
	}
	return nil, false
}

func hasTimedWords(utterances []geminiUtterance) bool {
	for _, u := range utterances {
		for _, w := range u.Words {
			if strings.TrimSpace(w.Text) != "" {
				return true
			}
		}
	}
	return false
}
