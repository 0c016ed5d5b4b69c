// Package worker runs the per-request download pipeline: gate, cache
// lookup, probe, validate, fetch, re-validate, compose, send, cache write,
// cleanup. Every terminal state releases the gate and logs one audit row.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"grabberbot/internal/gate"
	"grabberbot/internal/models"
	"grabberbot/internal/services"
)

const (
	busyReply           = "I'm already working on a request for you. Please wait until it's finished!"
	downloadFailedReply = "Sorry, I couldn't download media from that link. Please check the URL or try again later."
	sendFailedReply     = "Sorry, I fetched the media but couldn't deliver it. Please try again later."

	progressReaction = "👀"
)

// MediaCache is the slice of the cache repo the pipeline needs.
type MediaCache interface {
	Lookup(ctx context.Context, sourceURL string) (*models.CachedMedia, error)
	Upsert(ctx context.Context, sourceURL, caption string, files []models.CachedFile) error
}

// RequestLog records terminal request outcomes.
type RequestLog interface {
	Insert(ctx context.Context, chatID int64, sourceURL, status string, processingTime time.Duration) error
}

type Pipeline struct {
	gate       gate.Gate
	downloader services.Downloader
	validator  *services.Validator
	composer   *services.Composer
	api        services.TelegramAPI
	cache      MediaCache
	requests   RequestLog
	tempDir    string
}

func NewPipeline(
	g gate.Gate,
	downloader services.Downloader,
	validator *services.Validator,
	composer *services.Composer,
	api services.TelegramAPI,
	cache MediaCache,
	requests RequestLog,
	tempDir string,
) *Pipeline {
	return &Pipeline{
		gate:       g,
		downloader: downloader,
		validator:  validator,
		composer:   composer,
		api:        api,
		cache:      cache,
		requests:   requests,
		tempDir:    tempDir,
	}
}

// Process runs one request to a terminal state. It never returns an error:
// every failure kind resolves into exactly one user reply plus an audit
// row, with internal causes going to the operator log only.
func (p *Pipeline) Process(ctx context.Context, req models.DownloadRequest) {
	start := time.Now()

	token, err := p.gate.TryAcquire(ctx, req.ChatID)
	if err != nil {
		if !errors.Is(err, gate.ErrBusy) {
			// Gate backend trouble serializes to the safe side: tell the
			// user to wait rather than risk a concurrent duplicate.
			log.Printf("Gate acquire failed for chat %d: %v", req.ChatID, err)
		}
		p.reply(req, busyReply)
		p.logOutcome(req, models.StatusBusy, start)
		return
	}
	defer token.Release()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while processing %s for chat %d: %v\n%s", req.SourceURL, req.ChatID, r, debug.Stack())
		}
	}()

	// Progress signals are best-effort and never fail the request.
	if err := p.api.SendChatAction(req.ChatID, "typing"); err != nil {
		log.Printf("Failed to send chat action: %v", err)
	}
	if err := p.api.SetMessageReaction(req.ChatID, req.MessageID, progressReaction); err != nil {
		log.Printf("Failed to set reaction: %v", err)
	}
	defer func() {
		if err := p.api.SetMessageReaction(req.ChatID, req.MessageID, ""); err != nil {
			log.Printf("Failed to clear reaction: %v", err)
		}
	}()

	cached, err := p.cache.Lookup(ctx, req.SourceURL)
	if err != nil {
		// A broken cache degrades to a miss.
		log.Printf("Cache lookup failed for %s: %v", req.SourceURL, err)
	}
	if cached != nil {
		log.Printf("Cache hit for %s (chat %d)", req.SourceURL, req.ChatID)
		if err := p.sendCached(req, cached); err != nil {
			log.Printf("Cached send failed for chat %d: %v", req.ChatID, err)
			p.reply(req, sendFailedReply)
			p.logOutcome(req, models.StatusSendFailed, start)
			return
		}
		p.logOutcome(req, models.StatusCacheHit, start)
		return
	}

	probeMeta, err := p.downloader.Probe(ctx, req.SourceURL)
	if err != nil {
		log.Printf("Probe failed for %s: %v", req.SourceURL, err)
		p.reply(req, downloadFailedReply)
		p.logOutcome(req, models.StatusDownloadFailed, start)
		return
	}

	// Fast rejection on probe estimates before any bandwidth is spent.
	if err := p.validator.Validate(probeMeta); err != nil {
		p.reply(req, err.Error())
		p.logOutcome(req, models.StatusRejected, start)
		return
	}

	artifacts, err := services.NewTempArtifacts(p.tempDir)
	if err != nil {
		log.Printf("Temp dir creation failed: %v", err)
		p.reply(req, downloadFailedReply)
		p.logOutcome(req, models.StatusDownloadFailed, start)
		return
	}
	defer artifacts.Release()

	meta, err := p.downloader.Fetch(ctx, req.SourceURL, artifacts.Dir())
	if err != nil {
		log.Printf("Fetch failed for %s: %v", req.SourceURL, err)
		p.reply(req, downloadFailedReply)
		p.logOutcome(req, models.StatusDownloadFailed, start)
		return
	}
	for _, item := range meta.Items {
		artifacts.Track(item.LocalPath)
	}

	// Second validation pass on confirmed numbers. The probe can
	// underestimate; this pass cannot be skipped.
	if err := p.validator.Validate(meta); err != nil {
		p.reply(req, err.Error())
		p.logOutcome(req, models.StatusRejected, start)
		return
	}

	delivery := p.composer.Compose(req.SourceURL, meta)

	files, err := p.send(req, delivery)
	if err != nil {
		log.Printf("Send failed for chat %d: %v", req.ChatID, err)
		p.reply(req, sendFailedReply)
		p.logOutcome(req, models.StatusSendFailed, start)
		return
	}

	// The platform has accepted every file; only now may the cache learn
	// about this URL.
	if filesComplete(files) {
		if err := p.cache.Upsert(ctx, req.SourceURL, delivery.Caption, files); err != nil {
			log.Printf("Cache write failed for %s: %v", req.SourceURL, err)
		}
	} else {
		log.Printf("Incomplete file IDs for %s; skipping cache write", req.SourceURL)
	}

	p.logOutcome(req, models.StatusOK, start)
}

// send delivers a freshly fetched result: one send for a single item, one
// grouped send for galleries. Returns the platform file handles in item
// order.
func (p *Pipeline) send(req models.DownloadRequest, delivery services.Delivery) ([]models.CachedFile, error) {
	if len(delivery.Items) == 0 {
		return nil, fmt.Errorf("delivery has no items")
	}

	if !delivery.IsGroup() {
		item := delivery.Items[0]
		fileID, err := p.sendSingle(req, item.Type, services.FileRef{Path: item.LocalPath}, delivery.Caption)
		if err != nil {
			return nil, err
		}
		return []models.CachedFile{{TelegramFileID: fileID, Type: item.Type, Position: 0}}, nil
	}

	group := make([]services.GroupItem, 0, len(delivery.Items))
	for _, item := range delivery.Items {
		group = append(group, services.GroupItem{
			Type: item.Type,
			File: services.FileRef{Path: item.LocalPath},
		})
	}

	fileIDs, err := p.api.SendMediaGroup(req.ChatID, req.MessageID, delivery.Caption, group)
	if err != nil {
		return nil, err
	}
	if len(fileIDs) != len(delivery.Items) {
		return nil, fmt.Errorf("media group returned %d handles for %d items", len(fileIDs), len(delivery.Items))
	}

	files := make([]models.CachedFile, 0, len(delivery.Items))
	for i, item := range delivery.Items {
		files = append(files, models.CachedFile{
			TelegramFileID: fileIDs[i],
			Type:           item.Type,
			Position:       item.Position,
		})
	}
	return files, nil
}

// sendCached re-serves a previous delivery from platform file IDs without
// touching the downloader or the filesystem.
func (p *Pipeline) sendCached(req models.DownloadRequest, cached *models.CachedMedia) error {
	if len(cached.Files) == 1 {
		file := cached.Files[0]
		_, err := p.sendSingle(req, file.Type, services.FileRef{FileID: file.TelegramFileID}, cached.Caption)
		return err
	}

	group := make([]services.GroupItem, 0, len(cached.Files))
	for _, file := range cached.Files {
		group = append(group, services.GroupItem{
			Type: file.Type,
			File: services.FileRef{FileID: file.TelegramFileID},
		})
	}
	_, err := p.api.SendMediaGroup(req.ChatID, req.MessageID, cached.Caption, group)
	return err
}

func (p *Pipeline) sendSingle(req models.DownloadRequest, mediaType models.MediaType, file services.FileRef, caption string) (string, error) {
	if mediaType == models.MediaTypePhoto {
		return p.api.SendPhoto(req.ChatID, req.MessageID, file, caption)
	}
	return p.api.SendVideo(req.ChatID, req.MessageID, file, caption)
}

func (p *Pipeline) reply(req models.DownloadRequest, text string) {
	if err := p.api.SendText(req.ChatID, req.MessageID, text); err != nil {
		log.Printf("Failed to reply to chat %d: %v", req.ChatID, err)
	}
}

func (p *Pipeline) logOutcome(req models.DownloadRequest, status string, start time.Time) {
	// Detached context: the audit row is written even when the request
	// context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.requests.Insert(ctx, req.ChatID, req.SourceURL, status, time.Since(start)); err != nil {
		log.Printf("Failed to log request for chat %d: %v", req.ChatID, err)
	}
}

func filesComplete(files []models.CachedFile) bool {
	for _, f := range files {
		if f.TelegramFileID == "" {
			return false
		}
	}
	return len(files) > 0
}
