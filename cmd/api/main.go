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

	"github.com/joho/godotenv"

	"github.com/zhouzirui/people-api/backend/internal/config"
	"github.com/zhouzirui/people-api/backend/internal/handler"
	"github.com/zhouzirui/people-api/backend/internal/model/person"
	"github.com/zhouzirui/people-api/backend/internal/service/directory"
	"github.com/zhouzirui/people-api/backend/internal/service/feed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var hub *feed.Hub
	opts := []directory.Option{directory.WithStamping(cfg.Directory.StampWrites)}
	if cfg.Feed.Enabled {
		hub = feed.NewHub()
		opts = append(opts, directory.WithPublisher(hub))
		log.Println("change feed enabled on /api/events and /api/ws")
	} else {
		log.Println("change feed disabled by configuration")
	}
	if cfg.Directory.Seed {
		opts = append(opts, directory.WithSeed(person.Seed(time.Now())))
	}

	dir := directory.New(opts...)
	log.Printf("directory initialized with %d people", dir.Len())

	router := handler.NewRouter(dir, hub, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		FeedBuffer:     cfg.Feed.Buffer,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("people API listening on %s", addr)
	if err := runServer(ctx, srv, serverCfg.ShutdownTimeout); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
