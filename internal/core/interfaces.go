package core

import "context"

// MemoryStore is the per-chat durable memory contract. Append writes to
// both tiers and persists synchronously; Load returns an empty UserMemory
// (not an error) when nothing has been persisted yet.
type MemoryStore interface {
	Append(ctx context.Context, chatID int64, rec ConversationRecord) error
	Load(ctx context.Context, chatID int64) (UserMemory, error)
}

// ArchiveRepository keeps the unbounded full log of every record, for
// debugging and offline inspection. Archive failures never fail a turn.
type ArchiveRepository interface {
	AddRecord(ctx context.Context, chatID int64, rec ConversationRecord) error
	RecentRecords(ctx context.Context, chatID int64, limit int) ([]ConversationRecord, error)
}

type AIProvider interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// MediaAnalyzer turns an image or video file into a text description.
type MediaAnalyzer interface {
	DescribeImage(ctx context.Context, path string) (string, error)
	DescribeVideo(ctx context.Context, path string) (string, error)
}
