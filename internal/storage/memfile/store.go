package memfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

// Store persists one JSON document per chat under a single directory.
// Files are plain indented JSON so an operator can read and edit them.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create memory dir: %v", core.ErrStorage, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", chatID))
}

// Load returns the stored memory for a chat. A missing file means the
// chat is new and yields an empty memory, not an error. A corrupt file
// is logged and also treated as empty so one bad write cannot wedge a
// chat forever.
func (s *Store) Load(ctx context.Context, chatID int64) (core.UserMemory, error) {
	data, err := os.ReadFile(s.path(chatID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.UserMemory{}, nil
		}
		return core.UserMemory{}, fmt.Errorf("%w: read %s: %v", core.ErrStorage, s.path(chatID), err)
	}

	var mem core.UserMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		log.FromCtx(ctx).Warn().
			Err(err).
			Str("path", s.path(chatID)).
			Msg("corrupt memory file, starting fresh")
		return core.UserMemory{}, nil
	}
	return mem, nil
}

// Save writes the memory atomically: a temp file in the same directory
// followed by a rename, so a crash mid-write leaves the previous file
// intact.
func (s *Store) Save(ctx context.Context, chatID int64, mem core.UserMemory) error {
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", core.ErrStorage, err)
	}

	target := s.path(chatID)
	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".%d-*.json", chatID))
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", core.ErrStorage, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp: %v", core.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp: %v", core.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: rename: %v", core.ErrStorage, err)
	}
	return nil
}
