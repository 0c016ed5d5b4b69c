package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"grabberbot/internal/bot"
	"grabberbot/internal/middleware"
)

// New builds the HTTP surface: a health endpoint and, when webhook mode is
// active, the update delivery route. The webhook path embeds the bot token,
// which is the Bot API's standard shared-secret scheme.
func New(b *bot.Bot, botToken string, webhookEnabled bool) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if webhookEnabled {
		webhookLimiter := middleware.NewRateLimiter(60, time.Minute)

		r.Group(func(r chi.Router) {
			r.Use(webhookLimiter.Middleware)
			r.Post("/webhook/"+botToken, b.WebhookHandler())
		})
	}

	return r
}
