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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/handler"
	"github.com/tonylow1993/idphoto/middleware"
	"github.com/tonylow1993/idphoto/service"
	"github.com/tonylow1993/idphoto/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode, cfg.Server.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting idphoto server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	// 确保上传目录存在
	if err := os.MkdirAll(cfg.Upload.UploadDir, 0755); err != nil {
		utils.Logger.Fatal("failed to create upload directory", zap.Error(err))
	}

	// 初始化Redis
	store := service.NewRedisStore(&cfg.Redis)
	if err := store.Ping(context.Background()); err != nil {
		utils.Logger.Fatal("redis connection failed", zap.Error(err))
	}
	utils.Logger.Info("redis connected successfully")
	defer store.Close()

	maskMode, err := composite.ParseThresholdMode(cfg.Compose.ThresholdMode, cfg.Compose.Threshold)
	if err != nil {
		utils.Logger.Fatal("invalid compose threshold", zap.Error(err))
	}

	segmenter, err := service.NewSegmenter(&cfg.Segmentation, maskMode, utils.NewHTTPClient())
	if err != nil {
		utils.Logger.Fatal("invalid segmentation config", zap.Error(err))
	}
	utils.Logger.Info("segmentation configured",
		zap.String("mode", segmenter.Mode()),
		zap.String("mask_mode", maskMode.String()))

	composer, err := service.NewComposeService(&cfg.Compose, store)
	if err != nil {
		utils.Logger.Fatal("invalid compose config", zap.Error(err))
	}

	janitor, err := service.NewJanitor(&cfg.Upload)
	if err != nil {
		utils.Logger.Fatal("invalid cleanup schedule", zap.Error(err))
	}
	janitor.Start()
	defer janitor.Stop()

	decoder := service.NewDecoder(&cfg.Upload)
	sessions := service.NewSessionService(store, decoder, segmenter, maskMode)

	// 初始化Handler
	uploadHandler := handler.NewUploadHandler(cfg, sessions, decoder)
	sessionHandler := handler.NewSessionHandler(cfg, sessions, composer)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 创建路由
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize * 2

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := store.Ping(c.Request.Context()); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"version": Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API路由
	handler.RegisterRoutes(r.Group("/api/v1"), uploadHandler, sessionHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("server shutdown failed", zap.Error(err))
	}
}
