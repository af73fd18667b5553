package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/api"
	"github.com/Julianb233/better-together-live-sub001/internal/config"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/feed"
	"github.com/Julianb233/better-together-live-sub001/internal/logging"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/Julianb233/better-together-live-sub001/internal/storage/inmemory"
	"github.com/Julianb233/better-together-live-sub001/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("storage", cfg.Storage.Driver).Msg("starting server")

	var store storage.Storage
	if cfg.Storage.Driver == "postgres" {
		store, err = postgres.New(cfg.Storage.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
	} else {
		memStore := inmemory.New()
		// Заполним данными для ручной проверки
		if err := fillWithMockData(memStore); err != nil {
			log.Fatal().Err(err).Msg("failed to fill mock data")
		}
		store = memStore
	}

	blocks := feed.NewBlockRegistry(store)
	composer := feed.NewComposer(store, blocks, feed.Options{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
		CandidateWindow: cfg.Feed.CandidateWindow,
	})

	handler := api.NewHandler(store, composer, log)
	router := api.NewRouter(handler, store, log, cfg.HTTP)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTP.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// fillWithMockData наполняет in-memory хранилище минимальным графом:
// два связанных пользователя, сообщество и по посту каждой видимости.
func fillWithMockData(s storage.Storage) error {
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, &domain.User{Name: "Alice"})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	bob, err := s.CreateUser(ctx, &domain.User{Name: "Bob"})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if _, err = s.CreateConnection(ctx, &domain.Connection{
		FollowerID:  bob.ID,
		FollowingID: alice.ID,
		Status:      domain.ConnectionAccepted,
	}); err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}

	community, err := s.CreateCommunity(ctx, &domain.Community{
		Name: "Weekend Hikers",
		Slug: "weekend-hikers",
	})
	if err != nil {
		return fmt.Errorf("failed to create community: %w", err)
	}
	for _, u := range []*domain.User{alice, bob} {
		if err := s.UpsertMembership(ctx, &domain.CommunityMember{
			CommunityID: community.ID,
			UserID:      u.ID,
			Role:        domain.RoleMember,
			Status:      domain.MemberActive,
		}); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
	}

	posts := []*domain.Post{
		{AuthorID: alice.ID, Content: "Hello world!", Visibility: domain.VisibilityPublic, LikeCount: 3},
		{AuthorID: alice.ID, Content: "Date night!", Visibility: domain.VisibilityConnections},
		{AuthorID: alice.ID, CommunityID: &community.ID, Content: "Trail report", Visibility: domain.VisibilityCommunity},
		{AuthorID: bob.ID, Content: "Note to self", Visibility: domain.VisibilityPrivate},
	}
	for _, p := range posts {
		p.ContentType = domain.ContentTypeText
		if _, err := s.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
	}
	return nil
}
