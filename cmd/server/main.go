package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"investtrack/internal/cache"
	"investtrack/internal/config"
	cronrunner "investtrack/internal/cron"
	"investtrack/internal/db"
	"investtrack/internal/handler"
	"investtrack/internal/logger"
	"investtrack/internal/marketdata"
	"investtrack/internal/models"
	"investtrack/internal/repository"
	gormrepository "investtrack/internal/repository/gorm"
	memoryrepository "investtrack/internal/repository/memory"
	"investtrack/internal/service"

	_ "investtrack/docs"
)

func main() {
	// Local .env files are optional; env vars win either way.
	_ = godotenv.Load()

	cfgPath := os.Getenv("IT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("IT_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	demo := cfg.DemoMode()

	var store repository.Repository
	var gormDB *gorm.DB
	if demo {
		logger.Info("no database configured, running in demo mode")
		store = memoryrepository.New()
	} else {
		dbConn, err := db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)

		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		gormDB = dbConn.Gorm
		store = gormrepository.New(dbConn.Gorm)
	}

	var quoteCache cache.Store
	if cfg.Cache.RedisAddr != "" {
		quoteCache = cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		logger.Info("quote cache using redis", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		quoteCache = cache.NewMemoryStore()
	}

	var provider marketdata.Provider
	if demo || strings.EqualFold(cfg.MarketData.Provider, "demo") {
		provider = marketdata.NewDemoProvider()
	} else {
		httpClient := &http.Client{Timeout: cfg.MarketData.Timeout}
		provider = marketdata.NewYahooProvider(httpClient, cfg.MarketData.BaseURL, quoteCache, cfg.Cache.QuoteTTL)
	}

	settingsSvc := &service.SettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaults(context.Background()); err != nil {
		logger.Warn("init default settings failed", zap.Error(err))
	}
	positionSvc := &service.PositionService{
		Repo:   store,
		Market: provider,
		Logger: logger,
		Flags:  settingsSvc,
	}
	builderSvc := &service.SnapshotBuilderService{
		Repo:   store,
		Market: provider,
		Logger: logger,
	}

	if demo {
		if err := seedDemoPositions(context.Background(), store); err != nil {
			logger.Warn("demo seed failed", zap.Error(err))
		}
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequireBearerMiddleware(cfg.Auth.Enabled && !demo))

	healthHandler := &handler.HealthHandler{DB: gormDB, Demo: demo}
	healthHandler.Register(engine)
	positionHandler := &handler.PositionHandler{
		Repo:    store,
		Service: positionSvc,
		Logger:  logger,
	}
	positionHandler.Register(engine)
	snapshotHandler := &handler.SnapshotHandler{
		Repo:        store,
		Builder:     builderSvc,
		ReportTitle: cfg.Report.Title,
		Logger:      logger,
	}
	snapshotHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Service: settingsSvc}
	settingsHandler.Register(engine)
	profileHandler := &handler.ProfileHandler{Repo: store}
	profileHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)

		_, err = cronRunner.Add(cfg.Cron.PriceRefresh, func(ctx context.Context) {
			if err := positionSvc.RefreshOpenPrices(ctx); err != nil {
				logger.Warn("cron price refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register price refresh failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.AutoSnapshot, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureAutoSnapshot, false) {
				return
			}
			runAutoSnapshot(ctx, builderSvc, logger)
		})
		if err != nil {
			logger.Warn("cron register auto snapshot failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.Server.HTTPAddr),
			zap.Bool("demo", demo),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// runAutoSnapshot captures today's portfolio and runs the two backfill passes
// so the snapshot comes out ready without manual steps.
func runAutoSnapshot(ctx context.Context, builder *service.SnapshotBuilderService, logger *zap.Logger) {
	name := "auto " + time.Now().UTC().Format("2006-01-02")
	snap, err := builder.Create(ctx, service.CreateSnapshotOptions{
		Name:    &name,
		EndDate: time.Now().UTC().Truncate(24 * time.Hour),
	})
	if err != nil {
		logger.Warn("auto snapshot create failed", zap.Error(err))
		return
	}
	if _, err := builder.FetchPrices(ctx, snap.ID); err != nil {
		logger.Warn("auto snapshot price fetch failed", zap.Error(err))
		return
	}
	if _, err := builder.PopulateDividends(ctx, snap.ID); err != nil {
		logger.Warn("auto snapshot dividend fill failed", zap.Error(err))
		return
	}
	logger.Info("auto snapshot complete", zap.String("snapshot_id", snap.ID))
}

// seedDemoPositions gives the demo store a few rows so the API and report
// have something to show out of the box.
func seedDemoPositions(ctx context.Context, store repository.Repository) error {
	existing, err := store.CountPositions(ctx, repository.ListPositionsParams{})
	if err != nil || existing > 0 {
		return err
	}
	year := time.Now().UTC().Year()
	start := time.Date(year, 1, 2, 0, 0, 0, 0, time.UTC)
	apple := "Apple Inc."
	vanguard := "Vanguard Total Stock Market ETF"
	cocaCola := "The Coca-Cola Company"
	override := decimal.NewFromInt(60)
	closed := time.Date(year, 6, 2, 0, 0, 0, 0, time.UTC)
	seeds := []models.Position{
		{Ticker: "AAPL", CompanyName: &apple, StartDate: start, Status: models.PositionStatusOpen},
		{Ticker: "VTI", CompanyName: &vanguard, StartDate: start, Status: models.PositionStatusOpen},
		{
			Ticker:             "KO",
			CompanyName:        &cocaCola,
			StartDate:          start,
			EndDate:            &closed,
			StartPriceOverride: &override,
			Status:             models.PositionStatusClosed,
		},
	}
	for i := range seeds {
		if err := store.CreatePosition(ctx, &seeds[i]); err != nil {
			return err
		}
	}
	return nil
}
