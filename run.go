package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BatmanBruc/gembot/internal/ai"
	"github.com/BatmanBruc/gembot/internal/config"
	"github.com/BatmanBruc/gembot/internal/flow"
	"github.com/BatmanBruc/gembot/internal/handlers"
	"github.com/BatmanBruc/gembot/internal/logger"
	"github.com/BatmanBruc/gembot/internal/metrics"
	"github.com/BatmanBruc/gembot/internal/middleware"
	"github.com/BatmanBruc/gembot/internal/scheduler"
	"github.com/BatmanBruc/gembot/store"
	"github.com/BatmanBruc/gembot/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot with long polling",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conversations, err := store.OpenConversationStore(ctx, cfg.DBDriver, cfg.DBDSN, log.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	defer conversations.Close()

	var rdb *store.RedisClient
	if cfg.NeedsRedis() {
		rdb, err = store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
	}

	history, err := openHistoryStore(cfg, rdb)
	if err != nil {
		return err
	}
	sessions := openSessionStore(cfg, rdb)

	backend, err := ai.NewBackend(ctx, cfg.AI.Provider, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.VisionModel)
	if err != nil {
		return err
	}
	provider := ai.NewProvider(backend, ai.Options{
		Timeout:       cfg.AI.Timeout,
		RatePerMinute: cfg.AI.RatePerMinute,
	}, log.Named("ai"))

	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	m := metrics.New()
	controller := flow.NewController(flow.Deps{
		Conversations: conversations,
		History:       history,
		Sessions:      sessions,
		AI:            provider,
		Messenger:     handlers.NewTelegram(b),
		OwnerID:       cfg.OwnerID,
		Log:           log.Named("flow"),
		Metrics:       m,
	})
	defer controller.Shutdown()

	lanes := scheduler.NewScheduler(scheduler.Config{Workers: cfg.Workers}, log.Named("scheduler"))
	lanes.Start()
	defer lanes.Stop()

	h := handlers.NewHandlers(lanes, controller, log.Named("handlers"))
	middlewares := middleware.NewMessageAnalyzer(log.Named("middleware"))
	handlerChain := middlewares.RequestIDMiddleware(
		middlewares.AnalyzeMessageMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("Bot started", "owner", cfg.OwnerID, "provider", cfg.AI.Provider, "store", cfg.DBDriver)
		b.Start(gctx)
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, m, log)
		})
	}

	err = g.Wait()
	log.Infow("Bot stopped")
	return err
}

func openHistoryStore(cfg config.Config, rdb *store.RedisClient) (types.HistoryStore, error) {
	if cfg.HistoryBackend == config.BackendRedis {
		return store.NewRedisHistoryStore(rdb), nil
	}
	hs, err := store.NewFileHistoryStore(cfg.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history dir: %w", err)
	}
	return hs, nil
}

func openSessionStore(cfg config.Config, rdb *store.RedisClient) types.SessionStore {
	if cfg.SessionBackend == config.BackendRedis {
		return store.NewRedisSessionStore(rdb, cfg.SessionTTLHours)
	}
	return store.NewMemorySessionStore()
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, log *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infow("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
