package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/internal/service/postprocess"
	"github.com/waffieu/nyxie/internal/service/prompt"
	"github.com/waffieu/nyxie/internal/service/signals"
	"github.com/waffieu/nyxie/pkg/retry"
)

type fakeMemory struct {
	mem     core.UserMemory
	appends []core.ConversationRecord
	fail    bool
}

func (f *fakeMemory) Append(ctx context.Context, chatID int64, rec core.ConversationRecord) error {
	if f.fail {
		return fmt.Errorf("%w: disk gone", core.ErrStorage)
	}
	f.appends = append(f.appends, rec)
	f.mem.Add(rec, 25, 100)
	return nil
}

func (f *fakeMemory) Load(ctx context.Context, chatID int64) (core.UserMemory, error) {
	if f.fail {
		return core.UserMemory{}, fmt.Errorf("%w: disk gone", core.ErrStorage)
	}
	return f.mem, nil
}

type fakeProvider struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeProvider) Generate(ctx context.Context, pc core.PromptContext) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

type fakeDetector struct{}

func (fakeDetector) Detect(ctx context.Context, text string) (string, error) { return "en", nil }

func newTestService(t *testing.T, mem *fakeMemory, provider *fakeProvider) *Service {
	t.Helper()

	memCfg := &config.MemoryConfig{ShortTermSize: 25, LongTermSize: 100, RecallSize: 10, TokenBudget: 4000}
	builder, err := prompt.NewBuilder(mem, memCfg, "persona")
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	respCfg := &config.ResponseConfig{
		ExtremelyShortWeight: 0.35, SlightlyShortWeight: 0.30, MediumWeight: 0.25,
		SlightlyLongWeight: 0.07, LongWeight: 0.03,
		A1Weight: 0.30, A2Weight: 0.25, B1Weight: 0.20, B2Weight: 0.15, C1Weight: 0.07, C2Weight: 0.03,
		Randomness: 0,
	}

	clock, err := signals.NewClock("Europe/Istanbul")
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	langs, err := signals.NewLanguageTracker(fakeDetector{})
	if err != nil {
		t.Fatalf("NewLanguageTracker: %v", err)
	}

	return NewService(Deps{
		Memory:   mem,
		Builder:  builder,
		Provider: provider,
		Pipeline: postprocess.NewPipeline(respCfg),
		Retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    2,
			BackoffFactor: 1,
			InitialDelay:  0,
			MaxDelay:      0,
			Jitter:        0,
		}),
		Clock:     clock,
		Languages: langs,
		Awareness: &config.AwarenessConfig{TimeAwarenessEnabled: true, EnvironmentAwarenessEnabled: false},
		Timeout:   5 * time.Second,
	})
}

func TestRespondHappyPath(t *testing.T) {
	mem := &fakeMemory{}
	provider := &fakeProvider{replies: []string{"*smiles* hey there"}}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != "hey there" {
		t.Errorf("got %q, want %q", got, "hey there")
	}
	if len(mem.appends) != 2 {
		t.Fatalf("got %d appends, want user message then bot reply", len(mem.appends))
	}
	if mem.appends[0].Speaker != core.SpeakerUser || mem.appends[0].Text != "hi" {
		t.Errorf("first append should be the user message: %+v", mem.appends[0])
	}
	if mem.appends[1].Speaker != core.SpeakerBot || mem.appends[1].Text != "hey there" {
		t.Errorf("second append should be the processed reply: %+v", mem.appends[1])
	}
}

func TestRespondUpstreamFailureFallsBack(t *testing.T) {
	mem := &fakeMemory{}
	provider := &fakeProvider{err: fmt.Errorf("%w: boom", core.ErrUpstream)}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != errorMessage("en") {
		t.Errorf("expected localized fallback, got %q", got)
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", provider.calls)
	}
	// The user message is recorded, the failed reply is not.
	if len(mem.appends) != 1 || mem.appends[0].Speaker != core.SpeakerUser {
		t.Errorf("only the user message should be recorded, got %+v", mem.appends)
	}
}

func TestRespondPermanentErrorSkipsRetries(t *testing.T) {
	mem := &fakeMemory{}
	provider := &fakeProvider{err: retry.Permanent(fmt.Errorf("%w: blocked", core.ErrUpstream))}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != errorMessage("en") {
		t.Errorf("expected localized fallback, got %q", got)
	}
	if provider.calls != 1 {
		t.Errorf("permanent error must not be retried, got %d calls", provider.calls)
	}
}

func TestRespondRegeneratesOnceOnDegenerateReply(t *testing.T) {
	mem := &fakeMemory{}
	provider := &fakeProvider{replies: []string{"*sighs*", "all good!"}}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != "all good!" {
		t.Errorf("got %q, want regenerated reply", got)
	}
	if provider.calls != 2 {
		t.Errorf("expected exactly one regeneration, got %d calls", provider.calls)
	}
}

func TestRespondFallsBackAfterTwoDegenerateReplies(t *testing.T) {
	mem := &fakeMemory{}
	provider := &fakeProvider{replies: []string{"*sighs*", "..."}}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != errorMessage("en") {
		t.Errorf("expected localized fallback, got %q", got)
	}
	if provider.calls != 2 {
		t.Errorf("expected one generation and one regeneration, got %d calls", provider.calls)
	}
}

func TestRespondSurvivesStorageFailure(t *testing.T) {
	mem := &fakeMemory{fail: true}
	provider := &fakeProvider{replies: []string{"still here!"}}
	svc := newTestService(t, mem, provider)

	got := svc.Respond(context.Background(), Incoming{ChatID: 1, Text: "hi"})

	if got != "still here!" {
		t.Errorf("storage failure must not abort the turn, got %q", got)
	}
}

func TestWelcome(t *testing.T) {
	mem := &fakeMemory{}
	svc := newTestService(t, mem, &fakeProvider{replies: []string{"unused"}})

	got := svc.Welcome(context.Background(), 1, "Selin")

	if !strings.Contains(got, "Selin") {
		t.Errorf("welcome should address the user: %q", got)
	}
	if len(mem.appends) != 1 || mem.appends[0].Speaker != core.SpeakerBot {
		t.Errorf("welcome must be recorded as a bot reply: %+v", mem.appends)
	}
}
