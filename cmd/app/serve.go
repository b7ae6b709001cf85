package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily_quest/internal/api"
	"daily_quest/internal/catalog"
	"daily_quest/internal/middleware"
	"daily_quest/internal/notify"
	"daily_quest/internal/repository"
	"daily_quest/internal/service"
	"daily_quest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the quest catalog and serve the web application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(parent context.Context, cfg *Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger := logger.Logger()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Error("Failed to initialize repository", zap.Error(err))
		return err
	}
	defer repo.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	sessionService := service.NewSessionService(repo, time.Now)
	questService := service.NewQuestService(repo, service.QuestConfig{
		TutorialID: cfg.Quests.TutorialID,
		Location:   loc,
		Clock:      time.Now,
	})
	feedbackService := service.NewFeedbackService(repo, buildNotifier(cfg), time.Now)

	loadCatalog(ctx, questService, cfg.Catalog.Path)

	router, err := api.NewRouter(api.Dependencies{
		Sessions:      sessionService,
		Quests:        questService,
		Feedback:      feedbackService,
		Hub:           api.NewHub(),
		Cookie:        cfg.Cookie,
		Contact:       cfg.Contact.Discord,
		FeedbackLimit: middlewareRateLimit(ctx, cfg.Feedback),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Error("Failed to start server", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadCatalog imports the catalog file. A missing or broken catalog is
// logged and the server keeps running with whatever is already stored.
func loadCatalog(ctx context.Context, qs *service.QuestService, path string) {
	log := logger.Logger()

	quests, err := catalog.Load(path)
	if err != nil {
		log.Warn("failed to load quest catalog", zap.String("path", path), zap.Error(err))
		return
	}

	if _, err := qs.ImportCatalog(ctx, quests); err != nil {
		log.Error("failed to import quest catalog", zap.String("path", path), zap.Error(err))
	}
}

func buildNotifier(cfg *Config) notify.Multi {
	log := logger.Logger()
	var channels notify.Multi

	if cfg.Discord.WebhookURL != "" {
		channels = append(channels, notify.NewDiscord(notify.DiscordConfig{
			WebhookURL: cfg.Discord.WebhookURL,
			Timeout:    cfg.Discord.Timeout,
		}))
	} else {
		log.Warn("discord.webhookUrl is not set; feedback will not reach discord",
			zap.Error(notify.ErrNotConfigured))
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			Debug:    cfg.LogLevel == "debug",
		})
		if err != nil {
			log.Warn("telegram feedback channel disabled", zap.Error(err))
		} else {
			channels = append(channels, tg)
		}
	}

	if len(channels) == 0 {
		log.Warn("no feedback channel configured; feedback will be stored but not delivered")
	}
	return channels
}

func middlewareRateLimit(ctx context.Context, fc FeedbackConfig) gin.HandlerFunc {
	if fc.RateLimit <= 0 {
		return nil
	}
	burst := fc.Burst
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimit(ctx, rate.Limit(fc.RateLimit), burst)
}
