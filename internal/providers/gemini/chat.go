package gemini

import (
	"context"
	"strings"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
)

// Provider talks to the Gemini generateContent API and implements
// core.AIProvider.
type Provider struct {
	baseClient
	cfg *config.GeminiConfig
}

func NewProvider(cfg *config.GeminiConfig) *Provider {
	return &Provider{
		baseClient: newBaseClient(defaultBaseURL, cfg.APIKey, cfg.Timeout),
		cfg:        cfg,
	}
}

func (p *Provider) Generate(ctx context.Context, pc core.PromptContext) (string, error) {
	req := generateRequest{
		Contents: buildContents(pc),
		GenerationConfig: generationConfig{
			Temperature:     p.cfg.Temperature,
			TopP:            p.cfg.TopP,
			TopK:            p.cfg.TopK,
			MaxOutputTokens: p.cfg.MaxOutputTokens,
		},
		SafetySettings: defaultSafetySettings(),
	}

	system := renderSystem(pc)
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	return p.generate(ctx, p.cfg.Model, req)
}

// buildContents maps conversation history onto Gemini's alternating
// user/model turns. Recalled long-term records come first so the most
// recent exchanges sit closest to the incoming message.
func buildContents(pc core.PromptContext) []content {
	contents := make([]content, 0, len(pc.Recall)+len(pc.ShortTerm)+1)
	for _, rec := range pc.Recall {
		contents = append(contents, recordContent(rec))
	}
	for _, rec := range pc.ShortTerm {
		contents = append(contents, recordContent(rec))
	}
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: pc.Incoming}},
	})
	return contents
}

func recordContent(rec core.ConversationRecord) content {
	role := "user"
	if rec.Speaker == core.SpeakerBot {
		role = "model"
	}
	return content{Role: role, Parts: []part{{Text: rec.Text}}}
}

func renderSystem(pc core.PromptContext) string {
	if len(pc.Hints) == 0 {
		return pc.System
	}

	var sb strings.Builder
	sb.WriteString(pc.System)
	sb.WriteString("\n\nContext for this turn:\n")
	for _, hint := range pc.Hints {
		sb.WriteString("- ")
		sb.WriteString(hint)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
