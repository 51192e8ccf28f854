package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/waffieu/nyxie/internal/config"
)

const (
	imagePrompt = "Describe this image in detail: subjects, setting, mood, any visible text. Keep it under 120 words."
	videoPrompt = "Describe what happens in this video: subjects, actions, setting, any audible speech. Keep it under 120 words."
)

// Analyzer describes images and short videos with a multimodal model.
// It implements core.MediaAnalyzer.
type Analyzer struct {
	baseClient
	cfg *config.GeminiConfig
}

func NewAnalyzer(cfg *config.GeminiConfig) *Analyzer {
	return &Analyzer{
		baseClient: newBaseClient(defaultBaseURL, cfg.APIKey, cfg.Timeout),
		cfg:        cfg,
	}
}

func (a *Analyzer) DescribeImage(ctx context.Context, path string) (string, error) {
	return a.describe(ctx, path, "image/jpeg", imagePrompt)
}

func (a *Analyzer) DescribeVideo(ctx context.Context, path string) (string, error) {
	return a.describe(ctx, path, "video/mp4", videoPrompt)
}

func (a *Analyzer) describe(ctx context.Context, path, fallbackMime, prompt string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = fallbackMime
	}

	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     a.cfg.Temperature,
			TopP:            a.cfg.TopP,
			TopK:            a.cfg.TopK,
			MaxOutputTokens: a.cfg.MaxOutputTokens,
		},
		SafetySettings: defaultSafetySettings(),
	}

	return a.generate(ctx, a.cfg.MediaModel, req)
}
