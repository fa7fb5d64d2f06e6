package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/services"
	httphandlers "mswdportal/internal/handlers/http"
	snapshots "mswdportal/internal/infrastructure/backup"
	eventbus "mswdportal/internal/infrastructure/distributed"
	"mswdportal/internal/infrastructure/identity"
	"mswdportal/internal/infrastructure/middleware"
	"mswdportal/internal/infrastructure/monitoring"
	"mswdportal/internal/infrastructure/notify"
	"mswdportal/internal/infrastructure/reliability"
	repositories "mswdportal/internal/infrastructure/repositories"
	"mswdportal/pkg/backup"
	"mswdportal/pkg/circuitbreaker"
	"mswdportal/pkg/config"
	"mswdportal/pkg/distributed"
	"mswdportal/pkg/logger"
	"mswdportal/pkg/retry"
	"mswdportal/pkg/tracing"
	"mswdportal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/mswd/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Tracing is a no-op provider when disabled.
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Warnw("failed to shut down tracer provider", "error", err)
		}
	}()

	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	roleRepo := repoFactory.CreateRoleRepository()
	if cfg.Redis.Enabled {
		// A network-backed role store gets retries and a breaker. A miss is
		// a healthy answer and never trips it.
		roleRepo = reliability.NewResilientRoleRepository(roleRepo, retry.DefaultConfig(), circuitbreaker.DefaultConfig(), log)
	}
	userRepo := repoFactory.CreateUserRepository()
	programRepo := repoFactory.CreateProgramRepository()
	appRepo := repoFactory.CreateApplicationRepository()
	auditRepo := repoFactory.CreateAuditRepository()

	// One collector serves every metrics interface. The interface variables
	// stay nil when Prometheus is disabled so the nil checks downstream see
	// a nil interface, not a typed nil.
	var (
		resolutionMetrics  services.ResolutionMetrics
		applicationMetrics services.ApplicationMetrics
		hubMetrics         notify.HubMetrics
	)
	if cfg.Monitoring.PrometheusEnabled {
		collector := monitoring.NewPrometheusCollector()
		resolutionMetrics = collector
		applicationMetrics = collector
		hubMetrics = collector
	}

	auditService := services.NewAuditService(auditRepo, log)
	programService := services.NewProgramService(programRepo, appRepo, auditService)
	if cfg.Cache.ProgramTTL > 0 {
		programService = services.NewCachedProgramService(programService, cfg.Cache.ProgramTTL)
	}
	applicationService := services.NewApplicationService(appRepo, programRepo, auditService, applicationMetrics)

	provider := identity.NewProvider(
		userRepo,
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		log,
	)
	defer provider.Close()

	resolver := services.NewRoleResolver(
		roleRepo,
		cfg.Session.ResolveTimeout,
		cfg.Session.PrivilegedEmail,
		resolutionMetrics,
		log,
	)
	sessionManager := services.NewSessionManager(resolver, resolutionMetrics, log)
	sessionManager.Watch(provider)

	hub := notify.NewHub(
		provider,
		cfg.Notify.PingInterval,
		cfg.Notify.PongTimeout,
		cfg.Notify.WriteTimeout,
		hubMetrics,
		log,
	)
	sessionManager.Subscribe(hub.Publish)

	// With Redis available, relay session events to other portal instances
	// so their websocket clients see them too.
	var bus *eventbus.SessionEventBus
	if client := repoFactory.RedisClient(); client != nil {
		bus = eventbus.NewSessionEventBus(client, utils.GenerateInstanceID(), log)
		sessionManager.Subscribe(bus.Publish)
	}

	var backupScheduler *snapshots.Scheduler
	if cfg.Backup.Enabled {
		storage, err := backup.NewFileStorage(cfg.Backup.Dir)
		if err != nil {
			log.Fatalw("failed to prepare backup storage", "error", err, "dir", cfg.Backup.Dir)
		}
		backupService := backup.NewService(storage, "1")
		snapshotter := snapshots.NewSnapshotter(backupService, userRepo, roleRepo, programRepo, appRepo, log)

		var locks *distributed.LockManager
		if client := repoFactory.RedisClient(); client != nil {
			locks = distributed.NewLockManager(client, "mswd:locks")
		}
		backupScheduler = snapshots.NewScheduler(snapshotter, backupService, locks, snapshots.SchedulerConfig{
			Interval:      cfg.Backup.Interval,
			RetentionDays: cfg.Backup.RetentionDays,
		}, log)
	}

	healthChecker := monitoring.NewHealthChecker()
	if client := repoFactory.RedisClient(); client != nil {
		healthChecker.AddRedisCheck(client, 30*time.Second, 2*time.Second)
	}
	healthChecker.AddRepositoryCheck(programRepo, 30*time.Second, 2*time.Second)

	authHandler := httphandlers.NewAuthHandler(provider, auditService)
	sessionHandler := httphandlers.NewSessionHandler(sessionManager, auditService)
	programHandler := httphandlers.NewProgramHandler(programService)
	applicationHandler := httphandlers.NewApplicationHandler(applicationService)
	userHandler := httphandlers.NewUserHandler(userRepo, roleRepo, auditService)
	auditHandler := httphandlers.NewAuditHandler(auditService)
	healthHandler := httphandlers.NewHealthHandler(healthChecker)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Auth.AllowedOrigins))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	// Public: registration, login, refresh.
	authHandler.SetupRoutes(router)

	// Authenticated routes. Authorization happens per group below against
	// the live session role, so a role switch applies on the next request.
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(provider))
	{
		authHandler.SetupProtectedRoutes(api)
		sessionHandler.SetupRoutes(api)
		programHandler.SetupPublicRoutes(api)
		applicationHandler.SetupBeneficiaryRoutes(api)
	}

	staff := api.Group("/admin", middleware.RequireRole(sessionManager, domain.RoleAdmin, domain.RoleSuperadmin))
	{
		programHandler.SetupAdminRoutes(staff)
		applicationHandler.SetupReviewRoutes(staff)
	}

	superadmin := api.Group("/admin", middleware.RequireRole(sessionManager, domain.RoleSuperadmin))
	{
		userHandler.SetupRoutes(superadmin)
		auditHandler.SetupRoutes(superadmin)
	}

	// Session events over websocket.
	router.GET("/ws", gin.WrapF(hub.HandleWebSocket))

	healthHandler.SetupRoutes(router)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("starting MSWD portal server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if bus != nil {
		g.Go(func() error {
			if err := bus.Subscribe(gCtx, hub.Publish); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("session event bus failed: %w", err)
			}
			return nil
		})
	}

	if backupScheduler != nil {
		backupScheduler.Start()
	}

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down MSWD portal server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if backupScheduler != nil {
			backupScheduler.Stop()
		}
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server exited with error", "error", err)
		return
	}
	log.Info("server stopped")
}
