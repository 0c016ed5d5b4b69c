package models

import "time"

// CachedMedia is a previously delivered result keyed by normalized source
// URL. Files hold Telegram-issued file IDs, not local paths, so a hit is
// re-served without touching the downloader.
type CachedMedia struct {
	SourceURL  string
	Caption    string
	Files      []CachedFile
	CreatedAt  time.Time
	LastUsedAt time.Time
}

type CachedFile struct {
	TelegramFileID string
	Type           MediaType
	Position       int
}

// Request log statuses, one per terminal pipeline state.
const (
	StatusOK             = "ok"
	StatusCacheHit       = "cache_hit"
	StatusBusy           = "busy"
	StatusRejected       = "rejected"
	StatusDownloadFailed = "download_failed"
	StatusSendFailed     = "send_failed"
)
