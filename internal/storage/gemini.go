package storage

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const filePollInterval = 2 * time.Second

// GeminiFiles uploads audio through the Gemini Files API.
type GeminiFiles struct {
	client *genai.Client
}

func NewGeminiFiles(client *genai.Client) *GeminiFiles {
	return &GeminiFiles{client: client}
}

func (g *GeminiFiles) Upload(ctx context.Context, localPath, mimeType string) (*Object, error) {
	file, err := g.client.Files.UploadFromPath(ctx, localPath, &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	// large files are processed asynchronously before they can be referenced
	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(filePollInterval):
		}
		file, err = g.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll uploaded file: %w", err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("uploaded file %s failed processing", file.Name)
	}

	return &Object{URI: file.URI, MIMEType: file.MIMEType, Name: file.Name}, nil
}

func (g *GeminiFiles) Delete(ctx context.Context, obj *Object) error {
	if obj == nil || obj.Name == "" {
		return nil
	}
	if _, err := g.client.Files.Delete(ctx, obj.Name, nil); err != nil {
		return fmt.Errorf("delete %s: %w", obj.Name, err)
	}
	return nil
}
