package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"

	"ai-calculator/internal/auth"
	"ai-calculator/internal/calculations"
	"ai-calculator/internal/config"
	"ai-calculator/internal/explain"
	"ai-calculator/internal/server"
	"ai-calculator/internal/solver"
	"ai-calculator/internal/storage"
	"ai-calculator/internal/web"
)

const explainCachePrefix = "calc:explain:"

func main() {
	cfg := config.Load(os.Getenv)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	db, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	shutdownOps := map[string]gfshutdown.Operation{}

	var cache explain.Cache = explain.NewDBCache(db, cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		rc := explain.NewRedisCache(client, explainCachePrefix, cfg.CacheTTL)
		if err := rc.Ping(context.Background()); err != nil {
			log.Warn("redis unavailable, caching explanations in the database", "addr", cfg.RedisAddr, "error", err)
			client.Close()
		} else {
			cache = rc
			shutdownOps["redis"] = func(context.Context) error { return client.Close() }
		}
	}

	var llm explain.LLM
	if cfg.LLM.Enabled {
		llm = explain.NewOllama(cfg.LLM)
	}
	explainer := explain.NewService(llm, cache, log)

	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.TokenTTL)
	pages, err := web.New(func(token string) error {
		_, err := authSvc.ParseToken(token)
		return err
	}, log)
	if err != nil {
		log.Error("failed to load page templates", "error", err)
		os.Exit(1)
	}

	handler := server.New(server.Deps{
		Auth:         authSvc,
		Calculations: calculations.NewService(calculations.NewRepository(db)),
		Solver:       solver.NewService(solver.NewRemote(cfg.SolverURL, cfg.SolverTimeout), explainer, log),
		Explainer:    explainer,
		Pages:        pages,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// the database stays open until in-flight requests are done
	shutdownOps["http-server"] = func(ctx context.Context) error {
		log.Info("shutting down http server")
		err := srv.Shutdown(ctx)
		return errors.Join(err, storage.Close(db))
	}

	go func() {
		log.Info("server listening", "addr", cfg.Addr, "solver", cfg.SolverURL,
			"explanations", cfg.LLM.Enabled, "explanation_cache", cache.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, shutdownOps)
	code := <-wait
	log.Info("server stopped", "exit_code", code)
	os.Exit(code)
}
