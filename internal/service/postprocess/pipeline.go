package postprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

// Pipeline runs the reply rules in order and samples the length and
// language-level buckets each turn. Process never mutates shared
// state, so turns for different chats can run it concurrently.
type Pipeline struct {
	rules     []Rule
	lengths   *Sampler
	levels    *Sampler
	onRewrite func(rule string)
}

func NewPipeline(cfg *config.ResponseConfig) *Pipeline {
	seed := time.Now().UnixNano()
	return &Pipeline{
		rules:   DefaultRules(),
		lengths: NewSampler(LengthOrder(), cfg.LengthWeights(), cfg.Randomness, seed),
		levels:  NewSampler(LevelOrder(), cfg.LevelWeights(), cfg.Randomness, seed+1),
	}
}

// OnRewrite registers a callback fired once per rule that changes a
// reply, for counting rule hits.
func (p *Pipeline) OnRewrite(fn func(rule string)) {
	p.onRewrite = fn
}

// SampleLength draws the length bucket for the next reply.
func (p *Pipeline) SampleLength() string {
	return p.lengths.Pick()
}

// SampleLevel draws the CEFR language level for the next reply.
func (p *Pipeline) SampleLevel() string {
	return p.levels.Pick()
}

// Process rewrites a raw model reply through every rule and returns the
// text to send. A reply so mangled that nothing meaningful is left
// yields core.ErrDegenerateResponse so the caller can regenerate.
func (p *Pipeline) Process(ctx context.Context, text string, turn Turn) (string, error) {
	out := strings.TrimSpace(text)
	if out == "" {
		return "", fmt.Errorf("%w: empty reply", core.ErrDegenerateResponse)
	}

	for _, rule := range p.rules {
		next := rule.Apply(out, turn)
		if next != out {
			log.FromCtx(ctx).Debug().Str("rule", rule.Name).Msg("rule rewrote reply")
			if p.onRewrite != nil {
				p.onRewrite(rule.Name)
			}
			out = next
		}
	}

	out = strings.TrimSpace(out)
	if degenerate(out) {
		return "", fmt.Errorf("%w: nothing left after rules", core.ErrDegenerateResponse)
	}
	return out, nil
}

// degenerate reports whether a processed reply has no sendable content:
// empty, or punctuation with no letters or digits in it.
func degenerate(text string) bool {
	for _, r := range text {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127 {
			return false
		}
	}
	return true
}
