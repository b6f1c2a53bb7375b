package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GillesGroulard/familisapp/internal/kiosk"
	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/store"
)

func main() {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("slideshow-service: pg: %v", err)
	}
	defer pool.Close()
	if err := store.AutoMigrate(ctx, pool); err != nil {
		log.Fatalf("slideshow-service: migrate: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("slideshow-service: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("slideshow-service: warning: redis unreachable, kiosks will retry: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	feed := realtime.NewChangeFeed(rdb)
	st := store.New(pool, feed)

	manager := kiosk.NewManager(ctx, kiosk.ManagerConfig{
		Backend:   st,
		Hub:       hub,
		Feed:      feed,
		HostChime: cfg.HostChime,
		Options:   cfg.SlideshowOptions(),
	})
	srv := kiosk.NewServer(kiosk.ServerConfig{
		Manager:       manager,
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
		AllowedOrigin: cfg.AllowedWSOrigin(),
	})

	r := srv.Router(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(30*time.Second),
		corsMiddleware(cfg.CORSAllowedOrigin),
		bodySizeLimit(64<<10),
	)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("slideshow-service: shutdown: %v", err)
		}
	}()

	log.Printf("slideshow-service listening on :%s", cfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("slideshow-service: %v", err)
	}

	manager.StopAll()
	log.Printf("slideshow-service: stopped")
}
