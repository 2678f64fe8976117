package main

import (
	"context"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/collab/api/handler"
	"github.com/fastygo/collab/internal/config"
	"github.com/fastygo/collab/internal/infrastructure/monitor"
	"github.com/fastygo/collab/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/collab/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/collab/internal/infrastructure/redis"
	"github.com/fastygo/collab/internal/middleware"
	"github.com/fastygo/collab/internal/router"
	"github.com/fastygo/collab/internal/services"
	"github.com/fastygo/collab/internal/services/lifecycle"
	"github.com/fastygo/collab/pkg/httpcontext"
	"github.com/fastygo/collab/pkg/logger"
	"github.com/fastygo/collab/repository/memory"
	redisRepo "github.com/fastygo/collab/repository/redis"
	dashboardUC "github.com/fastygo/collab/usecase/dashboard"
	deadlineUC "github.com/fastygo/collab/usecase/deadline"
	invitationUC "github.com/fastygo/collab/usecase/invitation"
	notificationUC "github.com/fastygo/collab/usecase/notification"
	synergyUC "github.com/fastygo/collab/usecase/synergy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Listen(context.Background())
	defer stop()

	var (
		pool *pgxpool.Pool
		repo stores
	)
	if cfg.UsesMemoryStore() {
		zapLogger.Warn("using in-memory store, data is lost on restart")
		repo = memoryStores(memory.New())
	} else {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		repo = postgresStores(pool)
	}

	var redisClient *goRedis.Client
	if client, err := redisInfra.NewClient(appCtx, cfg.Redis); err != nil {
		zapLogger.Warn("redis unavailable, push and scan throttling disabled", zap.Error(err))
	} else {
		redisClient = client
		manager.Register("redis", lifecycle.Closer(redisClient.Close))
	}

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "")
	if err != nil {
		zapLogger.Fatal("failed to open outbox", zap.Error(err))
	}
	manager.Register("outbox", lifecycle.Closer(outboxStore.Close))

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sink := services.NewNotificationSink(repo.notifications, outboxStore, zapLogger)

	var throttle deadlineUC.Throttle
	if redisClient != nil {
		throttle = redisRepo.NewScanThrottle(redisClient)

		relay := services.NewOutboxRelay(outboxStore, redisRepo.NewPublisher(redisClient, cfg.Redis.ChannelPrefix), zapLogger, services.RelayConfig{
			Interval:   cfg.Outbox.RelayInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  cfg.Outbox.Retention,
		})
		relay.Start()
		manager.Register("outbox_relay", relay.Stop)
	}

	synergyUseCase := synergyUC.New(repo.memberships, repo.projects, repo.synergy, zapLogger, synergyUC.Config{
		CallTimeout:        cfg.Store.CallTimeout,
		RefreshConcurrency: cfg.Synergy.RefreshConcurrency,
	})
	deadlineUseCase := deadlineUC.New(repo.projects, repo.tasks, sink, throttle, zapLogger, deadlineUC.Config{
		Window:      cfg.Scanner.Window,
		Location:    cfg.Scanner.Location,
		CallTimeout: cfg.Store.CallTimeout,
		ThrottleTTL: cfg.Scanner.Throttle,
	})
	invitationUseCase := invitationUC.New(repo.invitations, repo.projects, repo.tx, sink, zapLogger, cfg.Store.CallTimeout)
	notificationUseCase := notificationUC.New(repo.notifications, zapLogger, cfg.Store.CallTimeout)
	dashboardUseCase := dashboardUC.New(repo.dashboard, zapLogger, cfg.Store.CallTimeout)

	deadlineJob, err := services.NewDeadlineJob(repo.projects, deadlineUseCase, cfg.Scanner.Schedule, 0, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid deadline scan schedule", zap.String("schedule", cfg.Scanner.Schedule), zap.Error(err))
	}
	deadlineJob.Start()
	manager.Register("deadline_job", deadlineJob.Stop)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Synergy:      apiHandler.NewSynergyHandler(synergyUseCase, ctxAdapter, zapLogger),
		Deadline:     apiHandler.NewDeadlineHandler(deadlineUseCase, ctxAdapter, zapLogger),
		Invitation:   apiHandler.NewInvitationHandler(invitationUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUseCase, ctxAdapter, zapLogger),
		Dashboard:    apiHandler.NewDashboardHandler(dashboardUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:         r.Handler,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		Concurrency:     cfg.HTTP.MaxConn,
		Name:            cfg.AppName,
		CloseOnShutdown: true,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
