package core

import (
	"fmt"
	"testing"
	"time"
)

func rec(i int, speaker Speaker) ConversationRecord {
	return ConversationRecord{
		Speaker:   speaker,
		Text:      fmt.Sprintf("message %d", i),
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
	}
}

func TestUserMemoryAdd(t *testing.T) {
	var m UserMemory
	for i := 0; i < 150; i++ {
		m.Add(rec(i, SpeakerUser), 25, 100)
		if len(m.ShortTerm) > 25 {
			t.Fatalf("short term exceeded cap at append %d: %d", i, len(m.ShortTerm))
		}
		if len(m.LongTerm) > 100 {
			t.Fatalf("long term exceeded cap at append %d: %d", i, len(m.LongTerm))
		}
	}

	// FIFO: both tiers keep their newest window, oldest evicted first.
	if m.ShortTerm[0].Text != "message 125" || m.ShortTerm[24].Text != "message 149" {
		t.Errorf("short term window wrong: %q .. %q", m.ShortTerm[0].Text, m.ShortTerm[24].Text)
	}
	if m.LongTerm[0].Text != "message 50" || m.LongTerm[99].Text != "message 149" {
		t.Errorf("long term window wrong: %q .. %q", m.LongTerm[0].Text, m.LongTerm[99].Text)
	}

	for i := 1; i < len(m.LongTerm); i++ {
		if m.LongTerm[i].Timestamp.Before(m.LongTerm[i-1].Timestamp) {
			t.Fatalf("long term out of order at %d", i)
		}
	}
}

func TestLastBotReplies(t *testing.T) {
	var m UserMemory
	for i := 0; i < 10; i++ {
		speaker := SpeakerUser
		if i%2 == 1 {
			speaker = SpeakerBot
		}
		m.Add(rec(i, speaker), 25, 100)
	}

	got := m.LastBotReplies(3)
	if len(got) != 3 {
		t.Fatalf("got %d replies, want 3", len(got))
	}
	// Newest last.
	want := []string{"message 5", "message 7", "message 9"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reply %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if n := len(m.LastBotReplies(100)); n != 5 {
		t.Errorf("asking for more than exist should return all: got %d", n)
	}
}
