package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/internal/storage/memfile"
)

func newTestStore(t *testing.T, shortCap, longCap int) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := memfile.NewStore(dir)
	if err != nil {
		t.Fatalf("memfile.NewStore: %v", err)
	}
	cfg := &config.MemoryConfig{ShortTermSize: shortCap, LongTermSize: longCap, RecallSize: 10, TokenBudget: 4000}
	return NewStore(cfg, files, nil), dir
}

func record(i int) core.ConversationRecord {
	speaker := core.SpeakerUser
	if i%2 == 1 {
		speaker = core.SpeakerBot
	}
	return core.ConversationRecord{
		Speaker:   speaker,
		Text:      fmt.Sprintf("message %d", i),
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
	}
}

func TestStoreCapsAndEviction(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 3, 5)

	for i := 0; i < 8; i++ {
		if err := store.Append(ctx, 1, record(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	mem, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(mem.ShortTerm) != 3 {
		t.Fatalf("short term len = %d, want 3", len(mem.ShortTerm))
	}
	if len(mem.LongTerm) != 5 {
		t.Fatalf("long term len = %d, want 5", len(mem.LongTerm))
	}
	// Oldest evicted first: each tier keeps its own newest window.
	if mem.ShortTerm[0].Text != "message 5" {
		t.Errorf("short term oldest = %q, want %q", mem.ShortTerm[0].Text, "message 5")
	}
	if mem.LongTerm[0].Text != "message 3" {
		t.Errorf("long term oldest = %q, want %q", mem.LongTerm[0].Text, "message 3")
	}
	if mem.ShortTerm[2].Text != "message 7" || mem.LongTerm[4].Text != "message 7" {
		t.Error("newest record must be present in both tiers")
	}
}

func TestStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t, 25, 100)

	for i := 0; i < 4; i++ {
		if err := store.Append(ctx, 9, record(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// A new store over the same directory simulates a process restart.
	files, err := memfile.NewStore(dir)
	if err != nil {
		t.Fatalf("memfile.NewStore: %v", err)
	}
	cfg := &config.MemoryConfig{ShortTermSize: 25, LongTermSize: 100, RecallSize: 10, TokenBudget: 4000}
	reopened := NewStore(cfg, files, nil)

	mem, err := reopened.Load(ctx, 9)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mem.ShortTerm) != 4 || len(mem.LongTerm) != 4 {
		t.Fatalf("got %d/%d records after restart, want 4/4", len(mem.ShortTerm), len(mem.LongTerm))
	}
	if mem.ShortTerm[3].Text != "message 3" {
		t.Errorf("unexpected newest record: %+v", mem.ShortTerm[3])
	}
}

func TestStoreUnknownChatIsEmpty(t *testing.T) {
	store, _ := newTestStore(t, 25, 100)

	mem, err := store.Load(context.Background(), 12345)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mem.ShortTerm) != 0 || len(mem.LongTerm) != 0 {
		t.Errorf("expected empty memory, got %+v", mem)
	}
}

func TestStoreConcurrentChats(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 25, 100)

	var wg sync.WaitGroup
	for chat := int64(1); chat <= 4; chat++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := store.Append(ctx, chatID, record(i)); err != nil {
					t.Errorf("Append chat %d: %v", chatID, err)
					return
				}
			}
		}(chat)
	}
	wg.Wait()

	for chat := int64(1); chat <= 4; chat++ {
		mem, err := store.Load(ctx, chat)
		if err != nil {
			t.Fatalf("Load chat %d: %v", chat, err)
		}
		if len(mem.ShortTerm) != 10 {
			t.Errorf("chat %d: got %d records, want 10", chat, len(mem.ShortTerm))
		}
	}
}
