package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"grabberbot/internal/models"
)

// Telegram rejects captions longer than this.
const maxCaptionLen = 1024

const viaLink = "https://t.me/grabberbot?start=c"

// Delivery is the send intent built from fetched metadata: a caption and
// the item list in declared order. The pipeline performs the actual sends.
type Delivery struct {
	Caption string
	Items   []models.MediaItem
}

// IsGroup reports whether the delivery needs a grouped send.
func (d *Delivery) IsGroup() bool {
	return len(d.Items) > 1
}

type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the caption from the source link, uploader and title, and
// orders the items by position. Pure; no network I/O.
func (c *Composer) Compose(sourceURL string, meta *models.MediaMetadata) Delivery {
	header := fmt.Sprintf(`<a href="%s">Source</a> ✤ <a href="%s">Via</a>`, sourceURL, viaLink)

	var quoteParts []string
	if uploader := strings.TrimSpace(meta.Uploader); uploader != "" {
		quoteParts = append(quoteParts, "@"+uploader)
	}
	if title := strings.TrimSpace(meta.Title); title != "" {
		quoteParts = append(quoteParts, title)
	}
	if desc := strings.TrimSpace(meta.Description); desc != "" && desc != strings.TrimSpace(meta.Title) {
		quoteParts = append(quoteParts, desc)
	}

	caption := header
	if len(quoteParts) > 0 {
		caption = fmt.Sprintf("%s\n\n<blockquote>%s</blockquote>", header, strings.Join(quoteParts, "\n"))
	}

	items := make([]models.MediaItem, len(meta.Items))
	copy(items, meta.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	return Delivery{
		Caption: truncateAtWhitespace(caption, maxCaptionLen),
		Items:   items,
	}
}

// truncateAtWhitespace caps s at limit runes. When a cut is needed it backs
// off to the nearest preceding whitespace so no word is split; if the text
// has no whitespace at all it falls back to a hard cut.
func truncateAtWhitespace(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := runes[:limit]
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(cut[i-1]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace)
		}
	}
	return string(cut)
}
