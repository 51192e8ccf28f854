package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/waffieu/nyxie/internal/config"
)

const detectPrompt = `Identify the language of the following message.
Reply with a single two-letter ISO 639-1 code, nothing else.
Examples: "en" for English, "tr" for Turkish.

Message: %s`

// Detector asks a lite model for the ISO 639-1 code of a message.
// It implements core.LanguageDetector.
type Detector struct {
	baseClient
	cfg *config.GeminiConfig
}

func NewDetector(cfg *config.GeminiConfig) *Detector {
	return &Detector{
		baseClient: newBaseClient(defaultBaseURL, cfg.APIKey, cfg.Timeout),
		cfg:        cfg,
	}
}

func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: fmt.Sprintf(detectPrompt, text)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     0,
			TopP:            1,
			TopK:            1,
			MaxOutputTokens: 8,
		},
	}

	out, err := d.generate(ctx, d.cfg.DetectionModel, req)
	if err != nil {
		return "", err
	}

	code := strings.ToLower(strings.Trim(strings.TrimSpace(out), `"'.`))
	if len(code) != 2 {
		return "en", nil
	}
	return code, nil
}
