package memory

import (
	"context"
	"sync"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/internal/storage/memfile"
	"github.com/waffieu/nyxie/pkg/log"
)

// Store is the working memory behind every chat: two bounded FIFO tiers
// persisted to a JSON file per chat, plus an optional write-through to
// the unbounded sqlite archive. It implements core.MemoryStore.
type Store struct {
	cfg     *config.MemoryConfig
	files   *memfile.Store
	archive core.ArchiveRepository // may be nil

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	cache map[int64]core.UserMemory
}

func NewStore(cfg *config.MemoryConfig, files *memfile.Store, archive core.ArchiveRepository) *Store {
	return &Store{
		cfg:     cfg,
		files:   files,
		archive: archive,
		locks:   make(map[int64]*sync.Mutex),
		cache:   make(map[int64]core.UserMemory),
	}
}

// chatLock returns the mutex guarding one chat's memory. Chats never
// contend with each other.
func (s *Store) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// Append adds rec to both tiers, trims each to its cap and persists the
// result before returning. The archive write is best effort: the chat's
// working memory is already safe on disk when it runs.
func (s *Store) Append(ctx context.Context, chatID int64, rec core.ConversationRecord) error {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	mem, err := s.load(ctx, chatID)
	if err != nil {
		return err
	}

	mem.Add(rec, s.cfg.ShortTermSize, s.cfg.LongTermSize)
	if err := s.files.Save(ctx, chatID, mem); err != nil {
		return err
	}
	s.cache[chatID] = mem

	if s.archive != nil {
		if err := s.archive.AddRecord(ctx, chatID, rec); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("archive write failed")
		}
	}
	return nil
}

// Load returns the chat's memory. A chat never seen before yields an
// empty memory.
func (s *Store) Load(ctx context.Context, chatID int64) (core.UserMemory, error) {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	return s.load(ctx, chatID)
}

// load assumes the chat lock is held.
func (s *Store) load(ctx context.Context, chatID int64) (core.UserMemory, error) {
	if mem, ok := s.cache[chatID]; ok {
		return mem, nil
	}
	mem, err := s.files.Load(ctx, chatID)
	if err != nil {
		return core.UserMemory{}, err
	}
	s.cache[chatID] = mem
	return mem, nil
}
