package models

import (
	"time"
)

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypePhoto MediaType = "photo"
)

// DownloadRequest is created at update dispatch and consumed by the
// pipeline. It is never persisted directly; only the terminal outcome is
// written to the request log.
type DownloadRequest struct {
	ChatID     int64
	MessageID  int
	SourceURL  string
	ReceivedAt time.Time
}

// MediaItem is one downloadable unit inside a piece of media. LocalPath is
// empty until the item has been fetched.
type MediaItem struct {
	Type      MediaType `json:"media_type"`
	LocalPath string    `json:"local_path,omitempty"`
	Position  int       `json:"position"`
}

// MediaMetadata is produced by the downloader, once from the cheap probe
// and once confirmed after the fetch. Probe numbers are estimates and may
// be corrected by the fetch pass.
type MediaMetadata struct {
	Title           string      `json:"title"`
	Uploader        string      `json:"uploader"`
	Description     string      `json:"description"`
	DurationSeconds float64     `json:"duration_seconds"`
	FilesizeBytes   int64       `json:"filesize_bytes"`
	IsPlaylist      bool        `json:"is_playlist"`
	Items           []MediaItem `json:"items"`
}

// ItemCount reports how many send units this metadata resolves to. Single
// items without an entry list still count as one.
func (m *MediaMetadata) ItemCount() int {
	if len(m.Items) == 0 {
		return 1
	}
	return len(m.Items)
}
