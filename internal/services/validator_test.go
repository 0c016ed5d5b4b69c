package services

import (
	"errors"
	"strings"
	"testing"

	"grabberbot/internal/models"
)

func testThresholds() Thresholds {
	return Thresholds{
		MaxDurationSeconds:    1800,
		MaxFilesizeBytes:      500 * 1024 * 1024,
		MaxVideoPlaylistItems: 5,
		MaxImagePlaylistItems: 10,
	}
}

func playlistMeta(mediaType models.MediaType, n int) *models.MediaMetadata {
	meta := &models.MediaMetadata{IsPlaylist: true}
	for i := 0; i < n; i++ {
		meta.Items = append(meta.Items, models.MediaItem{Type: mediaType, Position: i})
	}
	return meta
}

func TestValidateSingleItem(t *testing.T) {
	v := NewValidator(testThresholds())

	tests := []struct {
		name       string
		meta       *models.MediaMetadata
		wantReject bool
		wantReason string
	}{
		{"no metadata is accepted", &models.MediaMetadata{}, false, ""},
		{"under both limits", &models.MediaMetadata{DurationSeconds: 900, FilesizeBytes: 1024}, false, ""},
		{"exactly at duration limit", &models.MediaMetadata{DurationSeconds: 1800}, false, ""},
		{"one over duration limit", &models.MediaMetadata{DurationSeconds: 1801}, true, "too long"},
		{"exactly at filesize limit", &models.MediaMetadata{FilesizeBytes: 500 * 1024 * 1024}, false, ""},
		{"over filesize limit", &models.MediaMetadata{FilesizeBytes: 500*1024*1024 + 1}, true, "too large"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.meta)
			if tc.wantReject {
				if err == nil {
					t.Fatal("Expected rejection, got acceptance")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Expected ValidationError, got %T", err)
				}
				if !strings.Contains(err.Error(), tc.wantReason) {
					t.Errorf("Expected reason containing %q, got %q", tc.wantReason, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected acceptance, got %v", err)
			}
		})
	}
}

func TestValidatePlaylists(t *testing.T) {
	v := NewValidator(testThresholds())

	tests := []struct {
		name       string
		meta       *models.MediaMetadata
		wantReject bool
	}{
		{"video playlist at limit", playlistMeta(models.MediaTypeVideo, 5), false},
		{"video playlist over limit", playlistMeta(models.MediaTypeVideo, 6), true},
		{"image gallery at limit", playlistMeta(models.MediaTypePhoto, 10), false},
		{"image gallery over limit", playlistMeta(models.MediaTypePhoto, 11), true},
		{"untyped entries use image limit", playlistMeta("", 6), false},
		{"untyped entries over image limit", playlistMeta("", 11), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.meta)
			if tc.wantReject && err == nil {
				t.Error("Expected rejection, got acceptance")
			}
			if !tc.wantReject && err != nil {
				t.Errorf("Expected acceptance, got %v", err)
			}
		})
	}
}

func TestValidateReasonNamesOffendingValue(t *testing.T) {
	v := NewValidator(testThresholds())

	err := v.Validate(&models.MediaMetadata{DurationSeconds: 1801})
	if err == nil {
		t.Fatal("Expected rejection")
	}
	// 1801 s rounds to 30 minutes against a 30 minute limit; the message
	// must name the threshold in user units.
	if !strings.Contains(err.Error(), "minute") {
		t.Errorf("Expected duration reason in minutes, got %q", err.Error())
	}

	err = v.Validate(playlistMeta(models.MediaTypeVideo, 7))
	if err == nil {
		t.Fatal("Expected rejection")
	}
	if !strings.Contains(err.Error(), "7") || !strings.Contains(err.Error(), "5") {
		t.Errorf("Expected item counts in reason, got %q", err.Error())
	}
}
