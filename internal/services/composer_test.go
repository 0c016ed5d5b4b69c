package services

import (
	"strings"
	"testing"
	"unicode"

	"grabberbot/internal/models"
)

func TestComposeCaptionContents(t *testing.T) {
	c := NewComposer()

	d := c.Compose("https://example.com/watch?v=abc", &models.MediaMetadata{
		Title:    "A great video",
		Uploader: "someone",
		Items:    []models.MediaItem{{Type: models.MediaTypeVideo, Position: 0}},
	})

	if !strings.Contains(d.Caption, `<a href="https://example.com/watch?v=abc">Source</a>`) {
		t.Errorf("Caption missing source link: %q", d.Caption)
	}
	if !strings.Contains(d.Caption, "@someone") {
		t.Errorf("Caption missing uploader: %q", d.Caption)
	}
	if !strings.Contains(d.Caption, "A great video") {
		t.Errorf("Caption missing title: %q", d.Caption)
	}
	if !strings.Contains(d.Caption, "<blockquote>") {
		t.Errorf("Caption missing blockquote: %q", d.Caption)
	}
}

func TestComposeCaptionWithoutMetadataIsHeaderOnly(t *testing.T) {
	c := NewComposer()

	d := c.Compose("https://example.com/p/1", &models.MediaMetadata{
		Items: []models.MediaItem{{Type: models.MediaTypePhoto, Position: 0}},
	})

	if strings.Contains(d.Caption, "<blockquote>") {
		t.Errorf("Expected no blockquote for empty metadata, got %q", d.Caption)
	}
	if !strings.Contains(d.Caption, "Source") {
		t.Errorf("Expected source header, got %q", d.Caption)
	}
}

func TestComposeNeverExceedsCaptionLimit(t *testing.T) {
	c := NewComposer()

	d := c.Compose("https://example.com/p/2", &models.MediaMetadata{
		Title:       "word " + strings.Repeat("lorem ipsum dolor ", 200),
		Description: strings.Repeat("more text here ", 100),
		Items:       []models.MediaItem{{Type: models.MediaTypeVideo, Position: 0}},
	})

	runeLen := len([]rune(d.Caption))
	if runeLen > maxCaptionLen {
		t.Errorf("Caption length %d exceeds limit %d", runeLen, maxCaptionLen)
	}
}

func TestComposeOrdersItemsByPosition(t *testing.T) {
	c := NewComposer()

	d := c.Compose("https://example.com/gallery", &models.MediaMetadata{
		IsPlaylist: true,
		Items: []models.MediaItem{
			{Type: models.MediaTypePhoto, LocalPath: "c.jpg", Position: 2},
			{Type: models.MediaTypePhoto, LocalPath: "a.jpg", Position: 0},
			{Type: models.MediaTypePhoto, LocalPath: "b.jpg", Position: 1},
		},
	})

	if !d.IsGroup() {
		t.Fatal("Expected a grouped delivery")
	}
	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if d.Items[i].LocalPath != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, d.Items[i].LocalPath)
		}
	}
}

func TestTruncateAtWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
	}{
		{"long sentence", strings.Repeat("hello world ", 50), 100},
		{"limit inside a word", "aaa bbb cccccccccc", 10},
		{"multibyte runes", strings.Repeat("héllo wörld ", 50), 80},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateAtWhitespace(tc.input, tc.limit)

			if len([]rune(got)) > tc.limit {
				t.Errorf("Result length %d exceeds limit %d", len([]rune(got)), tc.limit)
			}

			// The cut must land on a word boundary: the next rune of the
			// original after the kept prefix is part of a space-delimited
			// tail, so the kept text may not end mid-word.
			runes := []rune(got)
			if len(runes) > 0 && unicode.IsSpace(runes[len(runes)-1]) {
				t.Errorf("Result ends with whitespace: %q", got)
			}
			rest := strings.TrimPrefix(tc.input, got)
			if rest != "" && !unicode.IsSpace([]rune(rest)[0]) {
				t.Errorf("Truncation split a word: %q + %q", got, rest)
			}
		})
	}
}

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := truncateAtWhitespace("short", 100); got != "short" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
}

func TestTruncateNoWhitespaceFallsBackToHardCut(t *testing.T) {
	input := strings.Repeat("a", 50)
	got := truncateAtWhitespace(input, 10)
	if got != strings.Repeat("a", 10) {
		t.Errorf("Expected hard cut of 10 runes, got %q", got)
	}
}
