package core

import "time"

const (
	BotName       = "Nyxie"
	BotVersion    = "0.2.0"
	BotRepository = "https://github.com/waffieu/nyxie"
)

// Speaker identifies which side of the conversation produced a record.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// ConversationRecord is one exchanged message. Immutable once written.
type ConversationRecord struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// UserMemory holds the two bounded, independently trimmed memory tiers
// kept per chat. Both tiers receive every record; each is trimmed to its
// own cap, oldest first.
type UserMemory struct {
	ShortTerm []ConversationRecord `json:"short_term"`
	LongTerm  []ConversationRecord `json:"long_term"`
}

// Add appends rec to both tiers and trims each to its cap.
func (m *UserMemory) Add(rec ConversationRecord, shortCap, longCap int) {
	m.ShortTerm = appendBounded(m.ShortTerm, rec, shortCap)
	m.LongTerm = appendBounded(m.LongTerm, rec, longCap)
}

// LastBotReplies returns up to n most recent bot replies, newest last.
func (m *UserMemory) LastBotReplies(n int) []string {
	var out []string
	for i := len(m.ShortTerm) - 1; i >= 0 && len(out) < n; i-- {
		if m.ShortTerm[i].Speaker == SpeakerBot {
			out = append(out, m.ShortTerm[i].Text)
		}
	}
	// Collected newest first, callers want chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func appendBounded(records []ConversationRecord, rec ConversationRecord, cap int) []ConversationRecord {
	records = append(records, rec)
	if cap > 0 && len(records) > cap {
		records = records[len(records)-cap:]
	}
	return records
}

// Signals are side-channel contextual facts attached to a turn. They are
// hints for prompt assembly, never part of the raw conversation text.
type Signals struct {
	Language         string
	TimeOfDay        string // morning, afternoon, evening, night
	LocalTime        string
	SinceLast        string // formatted gap since the chat's previous message, empty on first contact
	Environment      []string
	MediaDescription string
}

// PromptContext is the ephemeral, assembled input for one AI call.
type PromptContext struct {
	System    string
	ShortTerm []ConversationRecord
	Recall    []ConversationRecord
	Hints     []string
	Incoming  string
}
