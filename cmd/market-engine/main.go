package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/launchdeck-platform/market-engine/internal/adapter/http"
	"github.com/launchdeck-platform/market-engine/internal/adapter/memory"
	"github.com/launchdeck-platform/market-engine/internal/adapter/razorpay"
	"github.com/launchdeck-platform/market-engine/internal/adapter/redisstore"
	"github.com/launchdeck-platform/market-engine/internal/adapter/render"
	"github.com/launchdeck-platform/market-engine/internal/adapter/repository"
	"github.com/launchdeck-platform/market-engine/internal/adapter/storage"
	"github.com/launchdeck-platform/market-engine/internal/adapter/vercel"
	"github.com/launchdeck-platform/market-engine/internal/adapter/verify"
	"github.com/launchdeck-platform/market-engine/internal/config"
	"github.com/launchdeck-platform/market-engine/internal/port"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

func main() {
	cfg := config.Load()

	// 数据库
	db, err := repository.OpenDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open db", "error", err)
		os.Exit(1)
	}

	// 存储层
	userRepo := repository.NewUserRepo(db)
	appRepo := repository.NewAppRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	txnRepo := repository.NewTransactionRepo(db)

	// 日志通道：有 Redis 用 Redis，否则退化为进程内存储
	var logStore port.LogStore
	if cfg.RedisURL != "" {
		rs, err := redisstore.NewLogStore(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect redis", "error", err)
			os.Exit(1)
		}
		logStore = rs
	} else {
		slog.Warn("no REDIS_URL, deployment logs will not survive restarts")
		logStore = memory.NewLogStore()
	}

	// 部署 provider（有凭证的才注册）
	var providers []port.DeployProvider
	if cfg.VercelToken != "" {
		providers = append(providers, vercel.NewClient(cfg.VercelToken))
	}
	if cfg.RenderAPIKey != "" {
		providers = append(providers, render.NewClient(cfg.RenderAPIKey))
	}
	if len(providers) == 0 {
		slog.Warn("no deploy provider credentials configured, deployments will be rejected")
	}

	artifacts := storage.NewStore(cfg.UploadDir)
	verifier := verify.NewVerifier(cfg.VerifyRetries, cfg.VerifyDelay)
	gateway := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	tokens := service.NewTokenService(cfg.JWTSecret)

	// 服务层
	userSvc := service.NewUserService(userRepo, tokens, cfg.AccessTokenTTL)
	appSvc := service.NewAppService(appRepo, subRepo, artifacts, logStore)
	deploySvc := service.NewDeployService(appRepo, artifacts, logStore, providers, verifier, cfg.DeployTimeout)
	subSvc := service.NewSubscriptionService(appRepo, subRepo, txnRepo, gateway)
	accessSvc := service.NewAccessService(appRepo, subRepo, userRepo, tokens)

	// 超时部署回收器
	reconciler := service.NewReconciler(appRepo, logStore, deploySvc)
	if err := reconciler.Start(); err != nil {
		slog.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}
	defer reconciler.Stop()

	// HTTP 路由
	handler := httpadapter.NewRouter(
		userSvc,
		httpadapter.NewUserHandler(userSvc),
		httpadapter.NewAppHandler(appSvc),
		httpadapter.NewDeploymentHandler(deploySvc),
		httpadapter.NewSubscriptionHandler(subSvc),
		httpadapter.NewAccessHandler(accessSvc),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}
