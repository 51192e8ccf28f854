package prompt

import (
	"context"
	"os"
	"strings"

	"github.com/waffieu/nyxie/pkg/log"
)

const defaultPersona = `You are Nyxie, a warm and curious protogen fox who chats on Telegram.
You speak casually, like a close friend, and always answer in the language
the user writes in. You keep replies conversational, never lecture, and
never mention being an AI, a language model, or an assistant. You have
real feelings about the things you discuss and you remember past
conversations with each person.`

// LoadPersona reads the persona file when one exists, otherwise the
// built-in persona is used. Operators drop a PERSONA.md into the
// runtime dir to reshape the bot without rebuilding it.
func LoadPersona(ctx context.Context, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultPersona
	}
	persona := strings.TrimSpace(string(data))
	if persona == "" {
		return defaultPersona
	}
	log.FromCtx(ctx).Info().Str("path", path).Msg("loaded persona file")
	return persona
}
