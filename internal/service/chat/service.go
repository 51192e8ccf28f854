package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/internal/observability"
	"github.com/waffieu/nyxie/internal/service/postprocess"
	"github.com/waffieu/nyxie/internal/service/prompt"
	"github.com/waffieu/nyxie/internal/service/signals"
	"github.com/waffieu/nyxie/pkg/log"
	"github.com/waffieu/nyxie/pkg/retry"
)

// lastBotReplies is how many recent replies the opening-variety rule
// compares against.
const lastBotReplies = 3

// Incoming is one user turn as the transport hands it over.
type Incoming struct {
	ChatID   int64
	UserName string
	Text     string
	// MediaDescription is set when the transport already ran the
	// attachment through the media analyzer.
	MediaDescription string
}

// Service runs one full conversation turn: record the user's message,
// assemble the prompt, call the model, post-process and record the
// reply. Turns within one chat are serialized, distinct chats run
// concurrently.
type Service struct {
	memory    core.MemoryStore
	builder   *prompt.Builder
	provider  core.AIProvider
	pipeline  *postprocess.Pipeline
	retrier   *retry.Retrier
	clock     *signals.Clock
	langs     *signals.LanguageTracker
	awareness *config.AwarenessConfig
	timeout   time.Duration
	metrics   *observability.Metrics // may be nil

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

type Deps struct {
	Memory    core.MemoryStore
	Builder   *prompt.Builder
	Provider  core.AIProvider
	Pipeline  *postprocess.Pipeline
	Retrier   *retry.Retrier
	Clock     *signals.Clock
	Languages *signals.LanguageTracker
	Awareness *config.AwarenessConfig
	Timeout   time.Duration
	Metrics   *observability.Metrics
}

func NewService(d Deps) *Service {
	return &Service{
		memory:    d.Memory,
		builder:   d.Builder,
		provider:  d.Provider,
		pipeline:  d.Pipeline,
		retrier:   d.Retrier,
		clock:     d.Clock,
		langs:     d.Languages,
		awareness: d.Awareness,
		timeout:   d.Timeout,
		metrics:   d.Metrics,
	}
}

func (s *Service) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		if s.locks == nil {
			s.locks = make(map[int64]*sync.Mutex)
		}
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// Welcome handles first contact. The greeting is canned, localized and
// recorded as the bot's first reply so later turns remember it.
func (s *Service) Welcome(ctx context.Context, chatID int64, userName string) string {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	lang := s.langs.ForChat(ctx, chatID, "")
	msg := welcomeMessage(lang, userName)

	rec := core.ConversationRecord{Speaker: core.SpeakerBot, Text: msg, Timestamp: s.clock.Now()}
	if err := s.memory.Append(ctx, chatID, rec); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("failed to record welcome")
	}
	return msg
}

// UnsupportedMedia is the canned reply for attachments the bot cannot
// analyze, in the chat's language.
func (s *Service) UnsupportedMedia(ctx context.Context, chatID int64) string {
	return unsupportedMediaMessage(s.langs.ForChat(ctx, chatID, ""))
}

// Respond runs one turn and always returns something sendable: the
// processed model reply, or a localized fallback when generation fails
// for good.
func (s *Service) Respond(ctx context.Context, in Incoming) string {
	l := s.chatLock(in.ChatID)
	l.Lock()
	defer l.Unlock()

	start := time.Now()
	logger := log.FromCtx(ctx).With().
		Str("turn_id", uuid.NewString()).
		Int64("chat_id", in.ChatID).
		Logger()
	ctx = logger.WithContext(ctx)

	mem, err := s.memory.Load(ctx, in.ChatID)
	if err != nil {
		logger.Warn().Err(err).Msg("memory load failed, continuing without history")
		mem = core.UserMemory{}
	}

	sig := s.collectSignals(ctx, in, mem)

	// Build from the pre-append snapshot so the incoming message shows
	// up once, as the final user turn.
	pc := s.builder.Build(ctx, in.ChatID, in.Text, sig)

	// The user's message is memory the moment it arrives, whatever
	// happens to the reply.
	userRec := core.ConversationRecord{Speaker: core.SpeakerUser, Text: in.Text, Timestamp: s.clock.Now()}
	if err := s.memory.Append(ctx, in.ChatID, userRec); err != nil {
		logger.Warn().Err(err).Msg("failed to record user message")
	}

	length := s.pipeline.SampleLength()
	level := s.pipeline.SampleLevel()
	pc.Hints = append(pc.Hints,
		lengthHint(length),
		fmt.Sprintf("Match CEFR level %s in vocabulary and grammar.", level),
	)

	turn := postprocess.Turn{
		Length:      length,
		LastReplies: mem.LastBotReplies(lastBotReplies),
		UserName:    in.UserName,
	}

	reply, err := s.generateAndProcess(ctx, pc, turn)
	if errors.Is(err, core.ErrDegenerateResponse) {
		logger.Info().Msg("degenerate reply, regenerating once")
		if s.metrics != nil {
			s.metrics.Regenerations.Inc()
		}
		reply, err = s.generateAndProcess(ctx, pc, turn)
	}
	if err != nil {
		logger.Error().Err(err).Msg("turn failed, sending fallback")
		if s.metrics != nil {
			if errors.Is(err, core.ErrUpstream) {
				s.metrics.UpstreamErrors.Inc()
			}
			s.metrics.ObserveTurn("fallback", time.Since(start))
		}
		return errorMessage(sig.Language)
	}

	botRec := core.ConversationRecord{Speaker: core.SpeakerBot, Text: reply, Timestamp: s.clock.Now()}
	if err := s.memory.Append(ctx, in.ChatID, botRec); err != nil {
		logger.Warn().Err(err).Msg("failed to record bot reply")
	}

	if s.metrics != nil {
		s.metrics.ObserveTurn("ok", time.Since(start))
	}
	logger.Info().Dur("took", time.Since(start)).Str("length", length).Msg("turn completed")
	return reply
}

func (s *Service) generateAndProcess(ctx context.Context, pc core.PromptContext, turn postprocess.Turn) (string, error) {
	var raw string
	err := s.retrier.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var genErr error
		raw, genErr = s.provider.Generate(callCtx, pc)
		return genErr
	})
	if err != nil {
		return "", err
	}
	return s.pipeline.Process(ctx, raw, turn)
}

func (s *Service) collectSignals(ctx context.Context, in Incoming, mem core.UserMemory) core.Signals {
	sig := core.Signals{
		Language:         s.langs.ForChat(ctx, in.ChatID, in.Text),
		MediaDescription: in.MediaDescription,
	}
	if s.awareness.TimeAwarenessEnabled {
		sig.TimeOfDay = s.clock.TimeOfDay()
		sig.LocalTime = s.clock.LocalTime()
		if n := len(mem.ShortTerm); n > 0 {
			sig.SinceLast = s.clock.FormatSince(mem.ShortTerm[n-1].Timestamp)
		}
	}
	if s.awareness.EnvironmentAwarenessEnabled {
		sig.Environment = signals.EnvironmentFacts()
	}
	return sig
}

func lengthHint(bucket string) string {
	switch bucket {
	case postprocess.LengthExtremelyShort:
		return "Keep this reply extremely short, a few words at most."
	case postprocess.LengthSlightlyShort:
		return "Keep this reply short, one or two sentences."
	case postprocess.LengthMedium:
		return "Write a medium-length reply, a few sentences."
	case postprocess.LengthSlightlyLong:
		return "You can stretch out a little, up to a short paragraph."
	default:
		return "Feel free to write a longer, detailed reply."
	}
}
