// Package main is the entry point of the 21-day challenge bot.
//
// The bot follows a clean layering:
//   - Domain: the challenge period/ledger model, no external dependencies
//   - Application: commands and queries orchestrating the use cases
//   - Infrastructure: PostgreSQL ledger, Redis dedup, Feishu and DeepSeek
//     clients, milestone scheduler
//   - Interface: event router and HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackathonweekly/checkin-hub/config"
	"github.com/hackathonweekly/checkin-hub/internal/application/command"
	"github.com/hackathonweekly/checkin-hub/internal/application/query"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/external/deepseek"
	feishuapi "github.com/hackathonweekly/checkin-hub/internal/infrastructure/external/feishu"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/persistence/postgres"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/persistence/redis"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/scheduler"
	"github.com/hackathonweekly/checkin-hub/internal/infrastructure/scheduler/jobs"
	"github.com/hackathonweekly/checkin-hub/internal/interface/feishu"
	httpserver "github.com/hackathonweekly/checkin-hub/internal/interface/http"
	"github.com/hackathonweekly/checkin-hub/internal/interface/http/handlers"
	"github.com/hackathonweekly/checkin-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	log.Info("starting checkin-hub",
		slog.String("version", cfg.App.Version),
		slog.String("env", string(cfg.App.Environment)),
	)

	// ── Persistence ──────────────────────────────────────────────────────

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return err
	}
	log.Info("database ready")

	repo := postgres.NewChallengeRepository(conn)

	// ── External clients ─────────────────────────────────────────────────

	feishuClient := feishuapi.NewClient(feishuapi.ClientConfig{
		BaseURL:   cfg.Feishu.BaseURL,
		AppID:     cfg.Feishu.AppID,
		AppSecret: cfg.Feishu.AppSecret,
		Timeout:   cfg.Feishu.Timeout,
		Logger:    log.With(slog.String("component", "feishu")),
	})

	feedback := deepseek.NewClient(deepseek.ClientConfig{
		BaseURL: cfg.DeepSeek.BaseURL,
		APIKey:  cfg.DeepSeek.APIKey,
		Model:   cfg.DeepSeek.Model,
		Timeout: cfg.DeepSeek.Timeout,
		Logger:  log.With(slog.String("component", "deepseek")),
	})

	// ── Application layer ────────────────────────────────────────────────

	handlersBundle := feishu.Handlers{
		OpenPeriod:    command.NewOpenPeriodHandler(repo, log),
		CloseSignup:   command.NewCloseSignupHandler(repo, feishuClient, log),
		EndPeriod:     command.NewEndPeriodHandler(repo, feedback, log),
		RecordCheckin: command.NewRecordCheckinHandler(repo, feedback, log),
		Leaderboard:   query.NewGetLeaderboardHandler(repo, feedback, log),
		Kickoff:       query.NewGetKickoffHandler(repo),
	}

	// ── Event routing ────────────────────────────────────────────────────

	var deduper feishu.Deduper
	if cfg.Redis.Enabled {
		store, err := redis.NewDedupStore(ctx, cfg.Redis.URL, cfg.Redis.DedupTTL)
		if err != nil {
			return err
		}
		defer store.Close()
		deduper = store
		log.Info("redis dedup store ready")
	} else {
		deduper = feishu.NewBoundedDeduper(cfg.Challenge.DedupCapacity)
	}

	router := feishu.NewRouter(
		feishu.Config{
			CardTitle: cfg.Challenge.SignupCardTitle,
			RoleTag:   cfg.Challenge.RosterRoleTag,
		},
		handlersBundle,
		deduper,
		feishuClient,
		feedback,
		log.With(slog.String("component", "router")),
	)

	// ── Scheduler ────────────────────────────────────────────────────────

	var loop *scheduler.Loop
	if cfg.Scheduler.Enabled {
		loop = scheduler.NewLoop(scheduler.Config{
			WakeInterval:  cfg.Scheduler.WakeInterval,
			CheckInterval: cfg.Scheduler.CheckInterval,
		}, nil, log.With(slog.String("component", "scheduler")))

		loop.Register(jobs.NewPublishRankingJob(
			repo,
			handlersBundle.Leaderboard,
			feishuClient,
			jobs.PublishRankingConfig{
				Hour:          cfg.Scheduler.DigestHour,
				Minute:        cfg.Scheduler.DigestMinute,
				WindowMinutes: cfg.Scheduler.WindowMinutes,
				DefaultChatID: cfg.Feishu.DefaultChatID,
			},
			nil,
			log.With(slog.String("component", "publish_ranking")),
		))

		loop.Start(ctx)
	}

	// ── HTTP server ──────────────────────────────────────────────────────

	server := httpserver.NewServer(
		httpserver.Config{
			Host:         cfg.HTTP.Host,
			Port:         cfg.HTTP.Port,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  60 * cfg.HTTP.ReadTimeout,
		},
		handlers.NewWebhookHandler(router, cfg.Feishu.VerificationToken, cfg.App.Name, log),
		handlers.NewHealthHandler(conn, cfg.App.Version),
		handlers.NewCertificateHandler(repo, log),
		log.With(slog.String("component", "http")),
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// ── Shutdown ─────────────────────────────────────────────────────────

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if loop != nil {
		if err := loop.Stop(shutdownCtx); err != nil {
			log.Warn("scheduler did not stop cleanly", slog.String("error", err.Error()))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server did not stop cleanly", slog.String("error", err.Error()))
	}

	log.Info("shutdown complete")
	return nil
}
