package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/client/centrifugo"
	"github.com/quietline/chat-service/internal/config"
	"github.com/quietline/chat-service/internal/conversation"
	"github.com/quietline/chat-service/internal/directory"
	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/infra"
	"github.com/quietline/chat-service/internal/pkg/jwt"
	"github.com/quietline/chat-service/internal/pkg/tx"
	"github.com/quietline/chat-service/internal/pkg/validator"
	"github.com/quietline/chat-service/internal/presence"
	db "github.com/quietline/chat-service/internal/repository/postgres"
	"github.com/quietline/chat-service/internal/rest"
)

func main() {
	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	dbRepo := db.New(cfg)
	defer dbRepo.Close()

	centrifugeClient := centrifugo.New(cfg)
	defer centrifugeClient.Close()

	broker := feed.NewBroker()

	presenceTracker := presence.New(dbRepo, broker, centrifugeClient, logger)
	conversationManager := conversation.New(dbRepo, logger, cfg.Chat.OpTimeout)
	listenerDirectory := directory.New(dbRepo, broker, logger, cfg.Chat.PollInterval)

	vldtr := validator.New()
	jwtGenerator := jwt.New(cfg.Centrifuge.JWTSecret)

	handler := rest.New(
		dbRepo,
		conversationManager,
		presenceTracker,
		listenerDirectory,
		broker,
		centrifugeClient,
		vldtr,
		jwtGenerator,
	)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return infra.AuthInterceptorHTTP(next)
	})
	router.Use(func(next http.Handler) http.Handler {
		return infra.LoggerHTTP(next, logger)
	})
	router.Use(func(next http.Handler) http.Handler {
		return tx.TxMiddlewareHTTP(dbRepo)(next)
	})

	rest.Attach(router, handler)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Service.Port),
		Handler: router,
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := listenerDirectory.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("listener directory error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("server error: %v", err))
	}
}
