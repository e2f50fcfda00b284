package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sistem-pejabat/pejabat/internal/app"
	"github.com/sistem-pejabat/pejabat/internal/audit"
	"github.com/sistem-pejabat/pejabat/internal/auth"
	"github.com/sistem-pejabat/pejabat/internal/bayaran"
	"github.com/sistem-pejabat/pejabat/internal/dashboard"
	"github.com/sistem-pejabat/pejabat/internal/observability"
	"github.com/sistem-pejabat/pejabat/internal/platform/cache"
	"github.com/sistem-pejabat/pejabat/internal/platform/db"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/roles"
	"github.com/sistem-pejabat/pejabat/internal/sharelink"
	"github.com/sistem-pejabat/pejabat/internal/shared"
	"github.com/sistem-pejabat/pejabat/internal/surat"
	"github.com/sistem-pejabat/pejabat/internal/users"
	"github.com/sistem-pejabat/pejabat/jobs"
	"github.com/sistem-pejabat/pejabat/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.DBMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "pejabat_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	redisOpts := cfg.AsynqRedis()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	rbacStore := rbac.NewStore(dbpool)
	rbacMiddleware := rbac.NewMiddleware(rbac.DefaultLegacyRoles(), logger)

	hasher := auth.NewBcryptHasher(cfg.PasswordHashCost)
	authService := auth.NewService(auth.NewRepository(dbpool), rbacStore, hasher, logger)
	authService.WithAudit(auditLogger)
	authService.WithMetrics(metrics)
	authService.WithPasswordReset(
		auth.NewResetTokens(cfg.ResetTokenSecret, cfg.ResetTokenTTL),
		jobClient,
		cfg.PublicBaseURL+"/reset-password",
	)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacMiddleware)

	rolesService := roles.NewService(roles.NewRepository(dbpool), auditLogger, logger)
	usersService := users.NewService(users.NewRepository(dbpool), hasher, authService, auditLogger, logger)
	suratService := surat.NewService(surat.NewRepository(dbpool), auditLogger, logger)
	bayaranService := bayaran.NewService(bayaran.NewRepository(dbpool), idempotencyStore, auditLogger, logger)
	shareService := sharelink.NewService(sharelink.NewRepository(dbpool), cfg.ShareLinkTTL, auditLogger, logger)
	dashboardService := dashboard.NewService(suratService, bayaranService, rbacMiddleware.Authorizer)

	shareHandler := sharelink.NewHandler(logger, shareService, rbacMiddleware, cfg.PublicBaseURL)
	shareHandler.RegisterLoader(rbac.ResourceSurat, func(ctx context.Context, id int64) (any, error) {
		item, err := suratService.Get(ctx, id)
		if errors.Is(err, surat.ErrSuratNotFound) {
			return nil, sharelink.ErrNotFound
		}
		return item, err
	})
	shareHandler.RegisterLoader(rbac.ResourceBayaran, func(ctx context.Context, id int64) (any, error) {
		item, err := bayaranService.Get(ctx, id)
		if errors.Is(err, bayaran.ErrBayaranNotFound) {
			return nil, sharelink.ErrNotFound
		}
		return item, err
	})

	auditHandler := audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware).
		WithPDF(report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacStore, rbacMiddleware),
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		SuratHandler:       surat.NewHandler(logger, suratService, rbacMiddleware),
		BayaranHandler:     bayaran.NewHandler(logger, bayaranService, rbacMiddleware),
		ShareLinkHandler:   shareHandler,
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		AuditHandler:       auditHandler,
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
