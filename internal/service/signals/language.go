package signals

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

const (
	defaultLanguage = "en"
	languageTTL     = 12 * time.Hour

	// Detection on very short messages ("ok", "lol") is noise, keep
	// whatever we already know about the chat.
	minDetectLen = 6
)

// LanguageTracker remembers the detected language per chat so most
// turns skip the detection call entirely.
type LanguageTracker struct {
	detector core.LanguageDetector
	cache    *ristretto.Cache
}

func NewLanguageTracker(detector core.LanguageDetector) (*LanguageTracker, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LanguageTracker{detector: detector, cache: cache}, nil
}

// ForChat returns the chat's language. Once a non-English language is
// cached it is trusted for the TTL and the detector is not called
// again; while the cache is empty or still says English, substantial
// messages keep probing in case the first detection was premature.
// Detection failures fall back to the cached value or English, never
// an error.
func (t *LanguageTracker) ForChat(ctx context.Context, chatID int64, text string) string {
	cached, ok := t.cache.Get(chatID)
	if ok && cached.(string) != defaultLanguage {
		return cached.(string)
	}

	if len(text) < minDetectLen {
		if ok {
			return cached.(string)
		}
		return defaultLanguage
	}

	lang, err := t.detector.Detect(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("language detection failed")
		if ok {
			return cached.(string)
		}
		return defaultLanguage
	}

	t.cache.SetWithTTL(chatID, lang, 1, languageTTL)
	// Sets are buffered and can be dropped; Wait makes this one stick.
	t.cache.Wait()
	return lang
}
