// Package api содержит HTTP-обработчики движка лент и узкой
// коллаборационной поверхности (посты, реакции, связи, блокировки).
package api

import (
	"net/http"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/config"
	"github.com/Julianb233/better-together-live-sub001/internal/dataloader"
	"github.com/Julianb233/better-together-live-sub001/internal/feed"
	"github.com/Julianb233/better-together-live-sub001/internal/logging"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Handler держит зависимости всех обработчиков.
type Handler struct {
	store    storage.Storage
	composer *feed.Composer
	log      zerolog.Logger
	validate *validator.Validate
}

func NewHandler(store storage.Storage, composer *feed.Composer, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		composer: composer,
		log:      log.With().Str("component", "api").Logger(),
		validate: validator.New(),
	}
}

// NewRouter собирает маршрутизатор со всей цепочкой middleware.
func NewRouter(h *Handler, store storage.Storage, log zerolog.Logger, cfg config.HTTPConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
	}
	r.Use(func(next http.Handler) http.Handler {
		return dataloader.Middleware(store, next)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/feed", func(r chi.Router) {
			r.Get("/", h.GetFeed)
			r.Get("/trending", h.GetTrendingFeed)
			r.Get("/community/{communityID}", h.GetCommunityFeed)
			r.Get("/user/{targetUserID}", h.GetUserFeed)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.CreatePost)
			r.Get("/{postID}", h.GetPost)
			r.Put("/{postID}", h.UpdatePost)
			r.Delete("/{postID}", h.DeletePost)
			r.Post("/{postID}/share", h.SharePost)
			r.Put("/{postID}/reaction", h.PutReaction)
			r.Delete("/{postID}/reaction", h.DeleteReaction)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Post("/", h.CreateConnection)
			r.Post("/{followerID}/accept", h.AcceptConnection)
		})

		r.Put("/users/{userID}/block", h.BlockUser)
		r.Delete("/users/{userID}/block", h.UnblockUser)

		r.Post("/communities/{communityID}/join", h.JoinCommunity)
		r.Post("/communities/{communityID}/leave", h.LeaveCommunity)
	})

	return r
}
