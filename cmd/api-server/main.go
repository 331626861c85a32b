// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"victoria-bet/internal/advisory/gemini"
	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/apiserver/payment"
	"victoria-bet/internal/apiserver/server"
	"victoria-bet/internal/config"
	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/cache/localfile"
	rediscache "victoria-bet/internal/shared/cache/redis"
	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/objstore"
	"victoria-bet/internal/shared/storage"
	"victoria-bet/internal/shared/storage/driver/postgres"
	"victoria-bet/internal/shared/storage/driver/sqlite"
	"victoria-bet/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 选择 YAML）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 身份策略：owner 覆盖 + 内置管理员凭据
	policy := &identity.Policy{
		OwnerEmail:    cfg.OwnerEmail,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}

	// 本地 SQLite 回退库（始终开启）
	if err := os.MkdirAll(filepath.Dir(cfg.LocalDBPath), 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}
	localDB, err := sqlite.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("Failed to open local SQLite: %v", err)
	}
	local, err := repository.Open(localDB, &sqlite.Dialect{})
	if err != nil {
		log.Fatalf("Failed to migrate local SQLite: %v", err)
	}
	log.Printf("Local store ready: %s", cfg.LocalDBPath)

	// 远端 PostgreSQL 主库（可选）
	var remote storage.PersistentStore
	if cfg.HasRemoteDB() {
		remoteDB, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Remote PostgreSQL unavailable, running local-only: %v", err)
		} else {
			r, err := repository.Open(remoteDB, &postgres.Dialect{})
			if err != nil {
				log.Printf("Remote PostgreSQL migration failed, running local-only: %v", err)
				remoteDB.Close()
			} else {
				remote = r
				log.Println("Connected to remote PostgreSQL")
			}
		}
	}

	store := storage.NewDual(remote, local, policy)
	defer store.Close()

	// 会话与分析缓存：Redis 优先，未配置时落盘到本地文件
	var sessionCache cache.Cache
	if cfg.RedisURL != "" {
		rc, err := rediscache.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		sessionCache = rc
		log.Println("Connected to Redis")
	} else {
		lc, err := localfile.NewStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open local session store: %v", err)
		}
		sessionCache = lc
		log.Println("Using local file session store")
	}
	defer sessionCache.Close()

	// 凭证图片对象存储（可选）
	var proofs *objstore.Client
	minioCfg := objstore.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Bucket:    cfg.MinIO.Bucket,
	}
	if minioCfg.Configured() {
		client, err := objstore.NewClient(minioCfg)
		if err != nil {
			log.Printf("MinIO unavailable, proofs stored inline: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := client.EnsureBucket(ctx); err != nil {
				log.Printf("MinIO bucket check failed, proofs stored inline: %v", err)
			} else {
				proofs = client
				log.Println("Connected to MinIO")
			}
			cancel()
		}
	}

	// AI 网关（未配置 API Key 时所有调用返回回退值）
	gateway := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if cfg.Gemini.APIKey == "" {
		log.Println("GEMINI_API_KEY not set, advisory runs in fallback mode")
	}

	authCfg := auth.Config{
		JWTSecret:      cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}
	details := payment.Details{
		Entidade:   cfg.Payment.Entidade,
		Referencia: cfg.Payment.Referencia,
		Valor:      cfg.Payment.Valor,
	}

	h := server.NewHandler(store, sessionCache, policy, gateway, proofs, authCfg, details)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // AI 分析请求可能较慢
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
