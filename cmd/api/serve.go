package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-accounts/internal/api/http"
	"github.com/spec-kit/support-accounts/internal/api/http/handlers"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/graph"
	"github.com/spec-kit/support-accounts/internal/notify"
	"github.com/spec-kit/support-accounts/internal/observability"
	"github.com/spec-kit/support-accounts/internal/persistence"
	"github.com/spec-kit/support-accounts/internal/repository"
	"github.com/spec-kit/support-accounts/internal/service"
	"github.com/spec-kit/support-accounts/internal/worker"
)

const mailWorkers = 2

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd.Context(), runServe)
		},
	}
}

func runServe(cfg *config.Config, logger *zap.Logger, pg *persistence.Postgres) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pg.Require()
	if err != nil {
		return err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("support_accounts")
	dispatcher := events.NewInMemoryDispatcher(logger)

	mailQueue := worker.NewMailQueue(notify.NewMailer(cfg.Mail, logger), logger, 0)
	mailQueue.Start(mailWorkers)
	defer mailQueue.Stop()

	notificationService := service.NewNotificationService(dispatcher, mailQueue,
		notify.Templates{BaseURL: cfg.Mail.FrontendURL}, logger)
	worker.StartNotificationWorker(notificationService)

	accountRepo := repository.NewAccountRepository(pool)
	accountService := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		AccountRepo:     accountRepo,
		ActionTokenRepo: repository.NewActionTokenRepository(pool),
		RefreshTokens:   repository.NewRedisRefreshTokenStore(redis.Client, cfg.App.Name),
		Transactor:      repository.NewTransactor(pool),
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(pool),
		AnswerRepo:  repository.NewTicketAnswerRepository(pool),
		AccountRepo: accountRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	couponService := service.NewCouponService(repository.NewCouponRepository(pool), logger)

	schema, err := graph.NewSchema(graph.NewResolver(graph.Dependencies{
		Accounts: accountService,
		Tickets:  ticketService,
		Coupons:  couponService,
		Logger:   logger,
	}))
	if err != nil {
		return err
	}

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName: cfg.App.Name,
		Timeout: cfg.App.RequestTimeout(),
		Logger:  logger,
		Metrics: metrics,
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
				"postgres": pg,
				"redis":    redis,
			}),
			GraphQL:        handlers.NewGraphQLHandler(schema, metrics),
			Metrics:        metrics,
			AuthMiddleware: auth.NewAuthMiddleware(accountService.TokenManager(), accountRepo),
		},
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.ShutdownWithContext(ctx)
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
