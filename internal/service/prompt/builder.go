package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

// Builder assembles the ephemeral per-turn context for the AI call:
// the full short-term tier, a recall excerpt from long-term, and the
// turn's signals rendered as hints. Given the same memory, signals and
// incoming message it always produces the same context.
type Builder struct {
	store   core.MemoryStore
	cfg     *config.MemoryConfig
	persona string
	enc     *tiktoken.Tiktoken
}

func NewBuilder(store core.MemoryStore, cfg *config.MemoryConfig, persona string) (*Builder, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &Builder{store: store, cfg: cfg, persona: persona, enc: enc}, nil
}

// Build loads the chat's memory and assembles the prompt context. A
// storage failure degrades to an empty history instead of failing the
// turn: the bot answers without memory rather than not at all.
func (b *Builder) Build(ctx context.Context, chatID int64, incoming string, sig core.Signals) core.PromptContext {
	mem, err := b.store.Load(ctx, chatID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("memory load failed, answering without history")
		mem = core.UserMemory{}
	}

	pc := core.PromptContext{
		System:    b.persona,
		ShortTerm: mem.ShortTerm,
		Recall:    recallExcerpt(mem, b.cfg.RecallSize),
		Hints:     renderHints(sig),
		Incoming:  incoming,
	}
	return b.trimToBudget(ctx, pc)
}

// recallExcerpt picks the newest long-term records that are no longer
// in the short-term tier. Both tiers receive every record, so anything
// still inside the short-term window would only duplicate it.
func recallExcerpt(mem core.UserMemory, limit int) []core.ConversationRecord {
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(mem.ShortTerm))
	for _, rec := range mem.ShortTerm {
		seen[recordKey(rec)] = struct{}{}
	}

	var excerpt []core.ConversationRecord
	for i := len(mem.LongTerm) - 1; i >= 0 && len(excerpt) < limit; i-- {
		if _, ok := seen[recordKey(mem.LongTerm[i])]; ok {
			continue
		}
		excerpt = append(excerpt, mem.LongTerm[i])
	}
	// Collected newest first, flip to chronological order.
	for i, j := 0, len(excerpt)-1; i < j; i, j = i+1, j-1 {
		excerpt[i], excerpt[j] = excerpt[j], excerpt[i]
	}
	return excerpt
}

func recordKey(rec core.ConversationRecord) string {
	return fmt.Sprintf("%d|%s|%s", rec.Timestamp.UnixNano(), rec.Speaker, rec.Text)
}

func renderHints(sig core.Signals) []string {
	var hints []string
	if sig.Language != "" {
		hints = append(hints, fmt.Sprintf("The user writes in %q, reply in that language.", sig.Language))
	}
	if sig.LocalTime != "" {
		hints = append(hints, fmt.Sprintf("Current local time: %s (%s).", sig.LocalTime, sig.TimeOfDay))
	}
	if sig.SinceLast != "" {
		hints = append(hints, fmt.Sprintf("The user's previous message was %s.", sig.SinceLast))
	}
	if len(sig.Environment) > 0 {
		hints = append(hints, fmt.Sprintf("You are running on: %s.", strings.Join(sig.Environment, "; ")))
	}
	if sig.MediaDescription != "" {
		hints = append(hints, fmt.Sprintf("The user attached media. What it shows: %s", sig.MediaDescription))
	}
	return hints
}

// trimToBudget drops the oldest history until the whole context fits
// the token budget. Recall goes first, then short-term; the system
// prompt, hints and incoming message are never dropped.
func (b *Builder) trimToBudget(ctx context.Context, pc core.PromptContext) core.PromptContext {
	budget := b.cfg.TokenBudget
	fixed := b.count(pc.System) + b.count(pc.Incoming)
	for _, h := range pc.Hints {
		fixed += b.count(h)
	}

	total := fixed
	for _, rec := range pc.ShortTerm {
		total += b.count(rec.Text)
	}
	for _, rec := range pc.Recall {
		total += b.count(rec.Text)
	}
	if total <= budget {
		return pc
	}

	dropped := 0
	for len(pc.Recall) > 0 && total > budget {
		total -= b.count(pc.Recall[0].Text)
		pc.Recall = pc.Recall[1:]
		dropped++
	}
	for len(pc.ShortTerm) > 1 && total > budget {
		total -= b.count(pc.ShortTerm[0].Text)
		pc.ShortTerm = pc.ShortTerm[1:]
		dropped++
	}

	log.FromCtx(ctx).Debug().
		Int("dropped", dropped).
		Int("tokens", total).
		Msg("trimmed prompt context to token budget")
	return pc
}

func (b *Builder) count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}
