package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

// ArchiveRepo keeps the full unbounded transcript of every chat. The
// bounded tiers in core.UserMemory are working sets; this is the
// durable record behind them.
type ArchiveRepo struct {
	db *sql.DB
}

func NewArchiveRepo(db *sql.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

func (a *ArchiveRepo) AddRecord(ctx context.Context, chatID int64, rec core.ConversationRecord) error {
	query := `INSERT INTO archive (chat_id, speaker, text, created_at) VALUES (?, ?, ?, ?)`
	if _, err := a.db.ExecContext(ctx, query, chatID, string(rec.Speaker), rec.Text, rec.Timestamp); err != nil {
		return fmt.Errorf("%w: insert archive record: %v", core.ErrStorage, err)
	}
	return nil
}

func (a *ArchiveRepo) RecentRecords(ctx context.Context, chatID int64, limit int) ([]core.ConversationRecord, error) {
	// Fetch the LAST 'limit' records by ordering DESC
	query := `SELECT speaker, text, created_at FROM archive WHERE chat_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := a.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query archive: %v", core.ErrStorage, err)
	}
	defer rows.Close()

	var records []core.ConversationRecord
	for rows.Next() {
		var rec core.ConversationRecord
		var speaker string
		if err := rows.Scan(&speaker, &rec.Text, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan archive record: %v", core.ErrStorage, err)
		}
		rec.Speaker = core.Speaker(speaker)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorage, err)
	}

	// Rows came back newest first, flip to chronological order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(records)).Msg("loaded archive records")
	return records, nil
}
