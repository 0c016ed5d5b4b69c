// Package bot turns Telegram updates into pipeline requests. Each update is
// handled on its own goroutine; the per-chat gate inside the pipeline is
// the only serialization between them.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grabberbot/internal/models"
	"grabberbot/internal/worker"
)

const startGuide = `Hello there! I am GrabberBot, your friendly media downloader.

I can download videos and photos from various platforms like Instagram, TikTok, YouTube Shorts, and many more!

<b>How to use me</b>
To download media, simply send me the URL of the media you want to download.
Example: <code>https://www.youtube.com/shorts/tPEE9ZwTmy0</code>

I'll try my best to fetch the media and send it back to you. I also include the original caption (limited to 1024 characters).
If you encounter any issues, please double-check the URL or try again later. Not all links may be supported, or there might be temporary issues.

These commands are supported:
/start — start interaction and display this guide
/version — show bot version
/environment — show bot environment`

type Bot struct {
	api      *tgbotapi.BotAPI
	pipeline *worker.Pipeline
	version  string
	env      string
}

func New(api *tgbotapi.BotAPI, pipeline *worker.Pipeline, version, env string) *Bot {
	return &Bot{
		api:      api,
		pipeline: pipeline,
		version:  version,
		env:      env,
	}
}

// StartPolling consumes updates over long polling until StopPolling is
// called. Used when no webhook URL is configured.
func (b *Bot) StartPolling() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	log.Printf("Listening for updates via long polling")
	for update := range b.api.GetUpdatesChan(u) {
		go b.HandleUpdate(update)
	}
}

func (b *Bot) StopPolling() {
	b.api.StopReceivingUpdates()
}

// WebhookHandler decodes one Telegram update per request and dispatches it.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			log.Printf("Failed to decode webhook update: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		go b.HandleUpdate(update)
		w.WriteHeader(http.StatusOK)
	}
}

// RegisterWebhook points Telegram at webhookURL for update delivery.
func (b *Bot) RegisterWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	log.Printf("Webhook registered: %s", webhookURL)
	return nil
}

func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if sourceURL, ok := parseSourceURL(text); ok {
		b.pipeline.Process(context.Background(), models.DownloadRequest{
			ChatID:     msg.Chat.ID,
			MessageID:  msg.MessageID,
			SourceURL:  sourceURL,
			ReceivedAt: time.Now(),
		})
		return
	}

	b.reply(msg, "Your message isn't a valid link!")
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg, startGuide)
	case "version":
		b.reply(msg, fmt.Sprintf("GrabberBot version %s", b.version))
	case "environment":
		b.reply(msg, fmt.Sprintf("GrabberBot environment %s", b.env))
	default:
		b.reply(msg, "Unknown command. Send /start for a guide.")
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(reply); err != nil {
		log.Printf("Failed to send reply to chat %d: %v", msg.Chat.ID, err)
	}
}

func parseSourceURL(text string) (string, bool) {
	if text == "" || strings.ContainsAny(text, " \n\t") {
		return "", false
	}
	u, err := url.ParseRequestURI(text)
	if err != nil {
		return "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return text, true
}
