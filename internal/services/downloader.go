package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"grabberbot/internal/models"
)

// DownloadError is the single failure kind the downloader surfaces: missing
// tool, nonzero exit, malformed output and timeout all end up here with the
// cause embedded. Nothing is retried.
type DownloadError struct {
	Op  string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("yt-dlp %s failed: %v", e.Op, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Downloader is the two-phase extraction contract: a metadata-only probe
// followed by the actual fetch into a caller-owned working directory.
type Downloader interface {
	// Probe queries metadata for url without writing anything to disk.
	Probe(ctx context.Context, url string) (*models.MediaMetadata, error)
	// Fetch downloads url into workdir and returns confirmed metadata with
	// the local path of every item filled in.
	Fetch(ctx context.Context, url, workdir string) (*models.MediaMetadata, error)
}

// YtDlpDownloader shells out to the yt-dlp binary. A wall-clock timeout
// bounds each invocation; on expiry the subprocess is killed.
type YtDlpDownloader struct {
	binPath string
	timeout time.Duration
}

func NewYtDlpDownloader(binPath string, timeout time.Duration) *YtDlpDownloader {
	return &YtDlpDownloader{binPath: binPath, timeout: timeout}
}

func (d *YtDlpDownloader) Probe(ctx context.Context, url string) (*models.MediaMetadata, error) {
	out, err := d.run(ctx, "probe",
		"-J",
		"--no-download",
		"--no-warnings",
		"--ignore-config",
		url,
	)
	if err != nil {
		return nil, err
	}

	meta, err := parseProbeOutput(out)
	if err != nil {
		return nil, &DownloadError{Op: "probe", Err: err}
	}
	return meta, nil
}

func (d *YtDlpDownloader) Fetch(ctx context.Context, url, workdir string) (*models.MediaMetadata, error) {
	// Random filename prefix so two fetches can never collide even if they
	// are pointed at the same directory.
	template := fmt.Sprintf("%s.%%(id)s.%%(ext)s", uuid.New().String())

	out, err := d.run(ctx, "fetch",
		"--print-json",
		"--no-warnings",
		"--ignore-config",
		"-P", workdir,
		"-o", template,
		url,
	)
	if err != nil {
		return nil, err
	}

	meta, err := parseFetchOutput(workdir, out)
	if err != nil {
		return nil, &DownloadError{Op: "fetch", Err: err}
	}
	return meta, nil
}

func (d *YtDlpDownloader) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, d.binPath, args...)
	// yt-dlp spawns helpers (ffmpeg) that can outlive a kill and keep the
	// output pipe open; don't wait on them forever.
	cmd.WaitDelay = 5 * time.Second

	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, &DownloadError{Op: op, Err: fmt.Errorf("timed out after %s", d.timeout)}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, &DownloadError{Op: op, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return nil, &DownloadError{Op: op, Err: err}
	}

	return out, nil
}

// probeDoc mirrors the single JSON document `yt-dlp -J` prints. Playlists
// and galleries carry `_type: "playlist"` with an ordered entry list.
type probeDoc struct {
	Type           string     `json:"_type"`
	Title          string     `json:"title"`
	Uploader       string     `json:"uploader"`
	Description    string     `json:"description"`
	Duration       float64    `json:"duration"`
	Filesize       int64      `json:"filesize"`
	FilesizeApprox int64      `json:"filesize_approx"`
	Ext            string     `json:"ext"`
	Entries        []probeDoc `json:"entries"`
}

func parseProbeOutput(out []byte) (*models.MediaMetadata, error) {
	var doc probeDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("malformed probe output: %w", err)
	}

	meta := &models.MediaMetadata{
		Title:           doc.Title,
		Uploader:        doc.Uploader,
		Description:     doc.Description,
		DurationSeconds: doc.Duration,
		FilesizeBytes:   doc.Filesize,
	}
	if meta.FilesizeBytes == 0 {
		meta.FilesizeBytes = doc.FilesizeApprox
	}

	if doc.Type == "playlist" {
		meta.IsPlaylist = true
		for i, entry := range doc.Entries {
			meta.Items = append(meta.Items, models.MediaItem{
				Type:     mediaTypeForExt(entry.Ext),
				Position: i,
			})
		}
	}

	return meta, nil
}

// fetchRecord mirrors the per-item JSON line `yt-dlp --print-json` emits
// after each download.
type fetchRecord struct {
	Filename    string  `json:"_filename"`
	Ext         string  `json:"ext"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
}

func parseFetchOutput(workdir string, out []byte) (*models.MediaMetadata, error) {
	meta := &models.MediaMetadata{}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec fetchRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Printf("Skipping unparseable yt-dlp output line: %v", err)
			continue
		}
		if rec.Filename == "" {
			continue
		}

		path := rec.Filename
		if !filepath.IsAbs(path) {
			path = filepath.Join(workdir, path)
		}

		if len(meta.Items) == 0 {
			// First record carries the caption-relevant fields.
			meta.Title = rec.Title
			meta.Uploader = rec.Uploader
			meta.Description = rec.Description
		}
		if rec.Duration > meta.DurationSeconds {
			meta.DurationSeconds = rec.Duration
		}
		if info, err := os.Stat(path); err == nil {
			meta.FilesizeBytes += info.Size()
		}

		meta.Items = append(meta.Items, models.MediaItem{
			Type:      mediaTypeForExt(rec.Ext),
			LocalPath: path,
			Position:  len(meta.Items),
		})
	}

	if len(meta.Items) == 0 {
		return nil, fmt.Errorf("no media records in yt-dlp output")
	}

	meta.IsPlaylist = len(meta.Items) > 1
	return meta, nil
}

func mediaTypeForExt(ext string) models.MediaType {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "webp":
		return models.MediaTypePhoto
	default:
		return models.MediaTypeVideo
	}
}
