package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/lecsub/internal/speech"
)

// ErrNoAudioSource is returned when Audio carries neither a readable URI
// nor a local path.
var ErrNoAudioSource = errors.New("audio has no uri or local path")

// Audio is the recognizer input: an uploaded object, a local file, or both.
type Audio struct {
	Path       string
	URI        string
	MIMEType   string
	Channels   int
	SampleRate int
}

// Recognizer turns audio into word-level timings.
type Recognizer interface {
	Recognize(ctx context.Context, audio Audio) (*speech.Response, error)
}

// transcription service provider
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// recognition options
type Options struct {
	Language             string // BCP-47, e.g. tr-TR
	Model                string
	Encoding             string // LINEAR16, FLAC or MP3; google only
	AutomaticPunctuation bool
	Prompt               string
	CredentialsFile      string
}

// creates a recognizer for the given provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Recognizer, error) {
	switch provider {
	case ProviderGoogle:
		return NewGoogleRecognizer(ctx, opts)
	case ProviderGemini:
		return NewGeminiRecognizer(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIRecognizer(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// joinWords rebuilds a transcript from recognized words.
func joinWords(words []speech.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if text := strings.TrimSpace(w.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// remoteURI reports whether uri points at a service-readable object
// rather than the local filesystem.
func remoteURI(uri string) bool {
	return uri != "" && !strings.HasPrefix(uri, "file://")
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
