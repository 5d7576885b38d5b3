package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eduportal/oferta-api/api/swagger"
	"github.com/eduportal/oferta-api/internal/handler"
	"github.com/eduportal/oferta-api/internal/middleware"
	"github.com/eduportal/oferta-api/internal/repository"
	"github.com/eduportal/oferta-api/internal/service"
	"github.com/eduportal/oferta-api/pkg/cache"
	"github.com/eduportal/oferta-api/pkg/config"
	"github.com/eduportal/oferta-api/pkg/database"
	"github.com/eduportal/oferta-api/pkg/jobs"
	"github.com/eduportal/oferta-api/pkg/logger"
	corsmiddleware "github.com/eduportal/oferta-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eduportal/oferta-api/pkg/middleware/requestid"
	"github.com/eduportal/oferta-api/pkg/storage"
)

// @title Oferta Académica API
// @version 1.0.0
// @description Search, filtering and export API for the academic offerings portal
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Search.ResultCacheTTL, logr,
		cfg.Search.ResultCacheEnabled && redisClient != nil)

	offeringRepo := repository.NewOfferingRepository(db)
	searchSvc := service.NewSearchService(offeringRepo, cacheSvc, metricsSvc, logr, service.SearchServiceConfig{
		DefaultLimit:   cfg.Search.DefaultLimit,
		MaxLimit:       cfg.Search.MaxLimit,
		FacetCacheTTL:  cfg.Search.FacetCacheTTL,
		ResultCacheTTL: cfg.Search.ResultCacheTTL,
	}, time.Now)

	var completer *openai.Client
	if cfg.Chat.Enabled {
		clientCfg := openai.DefaultConfig(cfg.Chat.APIKey)
		if cfg.Chat.BaseURL != "" {
			clientCfg.BaseURL = cfg.Chat.BaseURL
		}
		completer = openai.NewClientWithConfig(clientCfg)
	}
	var chatSvc *service.ChatService
	if completer != nil {
		chatSvc = service.NewChatService(completer, searchSvc, validate, logr, service.ChatServiceConfig{
			Model:          cfg.Chat.Model,
			ContextResults: cfg.Chat.ContextResults,
			MaxTokens:      cfg.Chat.MaxTokens,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(searchSvc, store, signer, validate, logr, service.ExportServiceConfig{
			APIPrefix: cfg.APIPrefix,
			MaxRows:   cfg.Exports.MaxRows,
			FileTTL:   cfg.Exports.SignedURLTTL,
		})
		exportQueue = jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
			Workers: cfg.Exports.WorkerConcurrency,
			Logger:  logr,
		})
		exportSvc.SetQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	searchHandler := handler.NewSearchHandler(searchSvc)
	api.GET("/search", searchHandler.Search)
	api.GET("/search/filters", searchHandler.Filters)
	api.POST("/search/filters/refresh", searchHandler.RefreshFilters)
	api.GET("/ofertas/:id", searchHandler.GetByID)

	if chatSvc != nil {
		chatHandler := handler.NewChatHandler(chatSvc)
		api.POST("/chat", chatHandler.Ask)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		api.POST("/exports", exportHandler.Create)
		api.GET("/exports/download", exportHandler.Download)
		api.GET("/exports/:id", exportHandler.Status)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
