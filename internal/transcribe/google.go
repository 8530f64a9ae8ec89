package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/mgpai22/lecsub/internal/speech"
)

// GoogleRecognizer runs long-running recognition on Cloud Speech-to-Text
// with word time offsets enabled.
type GoogleRecognizer struct {
	client  *speechapi.Client
	options Options
}

func NewGoogleRecognizer(ctx context.Context, opts Options) (*GoogleRecognizer, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := speechapi.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client, options: opts}, nil
}

func (r *GoogleRecognizer) Recognize(ctx context.Context, audio Audio) (*speech.Response, error) {
	req, err := r.buildRequest(audio)
	if err != nil {
		return nil, err
	}

	op, err := r.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start recognition: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	return convertGoogleResponse(resp), nil
}

func (r *GoogleRecognizer) buildRequest(audio Audio) (*speechpb.LongRunningRecognizeRequest, error) {
	config := &speechpb.RecognitionConfig{
		Encoding:                   encodingFor(r.options.Encoding),
		SampleRateHertz:            int32(audio.SampleRate),
		AudioChannelCount:          int32(audio.Channels),
		LanguageCode:               r.options.Language,
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: r.options.AutomaticPunctuation,
		Model:                      r.options.Model,
	}

	var source *speechpb.RecognitionAudio
	switch {
	case strings.HasPrefix(audio.URI, "gs://"):
		source = &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audio.URI},
		}
	case audio.Path != "":
		data, err := os.ReadFile(audio.Path)
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		source = &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		}
	default:
		return nil, ErrNoAudioSource
	}

	return &speechpb.LongRunningRecognizeRequest{Config: config, Audio: source}, nil
}

func encodingFor(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToUpper(name) {
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "MP3":
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}

func convertGoogleResponse(resp *speechpb.LongRunningRecognizeResponse) *speech.Response {
	out := &speech.Response{}
	for _, res := range resp.GetResults() {
		result := speech.Result{
			ChannelTag:   res.GetChannelTag(),
			LanguageCode: res.GetLanguageCode(),
		}
		for _, alt := range res.GetAlternatives() {
			words := make([]speech.Word, 0, len(alt.GetWords()))
			for _, w := range alt.GetWords() {
				words = append(words, speech.Word{
					Text:  w.GetWord(),
					Start: speech.Offset(w.GetStartTime().GetSeconds(), w.GetStartTime().GetNanos()),
					End:   speech.Offset(w.GetEndTime().GetSeconds(), w.GetEndTime().GetNanos()),
				})
			}
			result.Alternatives = append(result.Alternatives, speech.Alternative{
				Transcript: alt.GetTranscript(),
				Confidence: alt.GetConfidence(),
				Words:      words,
			})
		}
		out.Results = append(out.Results, result)
	}
	return out
}

func (r *GoogleRecognizer) Close() error {
	return r.client.Close()
}
