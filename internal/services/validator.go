package services

import (
	"fmt"

	"grabberbot/internal/models"
)

// Thresholds are the configured resource limits. Zero values disable the
// corresponding check.
type Thresholds struct {
	MaxDurationSeconds    float64
	MaxFilesizeBytes      int64
	MaxVideoPlaylistItems int
	MaxImagePlaylistItems int
}

// ValidationError carries a reason formatted for direct display to the
// requesting user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

type Validator struct {
	limits Thresholds
}

func NewValidator(limits Thresholds) *Validator {
	return &Validator{limits: limits}
}

// Validate checks metadata against the configured limits. It runs twice per
// request: on probe estimates before any bandwidth is spent, and again on
// the confirmed post-fetch metadata. Values exactly at a limit pass.
func (v *Validator) Validate(meta *models.MediaMetadata) error {
	if meta.IsPlaylist {
		limit := v.limits.MaxImagePlaylistItems
		kind := "gallery"
		if isVideoPlaylist(meta) {
			limit = v.limits.MaxVideoPlaylistItems
			kind = "playlist"
		}
		if limit > 0 && len(meta.Items) > limit {
			return &ValidationError{Reason: fmt.Sprintf(
				"The %s is too long: %d items is more than the maximum of %d.",
				kind, len(meta.Items), limit,
			)}
		}
		return nil
	}

	if v.limits.MaxDurationSeconds > 0 && meta.DurationSeconds > v.limits.MaxDurationSeconds {
		return &ValidationError{Reason: fmt.Sprintf(
			"The media is too long: %.0f minutes is over the %.0f minute limit.",
			meta.DurationSeconds/60, v.limits.MaxDurationSeconds/60,
		)}
	}

	if v.limits.MaxFilesizeBytes > 0 && meta.FilesizeBytes > v.limits.MaxFilesizeBytes {
		return &ValidationError{Reason: fmt.Sprintf(
			"The media file is too large: %d MB is over the %d MB limit.",
			meta.FilesizeBytes/1024/1024, v.limits.MaxFilesizeBytes/1024/1024,
		)}
	}

	return nil
}

// A playlist counts as a video playlist when its first typed entry is a
// video; untyped entries fall back to the looser image limit.
func isVideoPlaylist(meta *models.MediaMetadata) bool {
	if len(meta.Items) == 0 {
		return false
	}
	return meta.Items[0].Type == models.MediaTypeVideo
}
