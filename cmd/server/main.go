package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/exitboard/exitboard/internal/config"
	"github.com/exitboard/exitboard/internal/crypto"
	"github.com/exitboard/exitboard/internal/database"
	"github.com/exitboard/exitboard/internal/handler"
	"github.com/exitboard/exitboard/internal/queue"
	"github.com/exitboard/exitboard/internal/repository"
	"github.com/exitboard/exitboard/internal/router"
	queue_publisher "github.com/exitboard/exitboard/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The envelope key is derived once; a bad KDF configuration must stop
	// the server rather than silently weaken the envelope.
	key, err := crypto.DeriveKey([]byte(cfg.EnvelopePassphrase), []byte(cfg.EnvelopeSalt), cfg.KDFIterations)
	if err != nil {
		log.Fatalf("derive envelope key: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables rate limiting and caching
	if rdb == nil {
		slog.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	jobs := repository.NewJobRepo(db)
	events := queue_publisher.NewSecurityPublisher(cfg.AMQPURL)

	if cfg.AMQPURL != "" {
		go func() {
			err := queue.StartSecurityConsumer(ctx, cfg.AMQPURL)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("security consumer stopped", "err", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:   cfg,
		Auth:  handler.NewAuthHandler(cfg, users, key),
		Admin: handler.NewAdminHandler(users, events),
		Jobs:  handler.NewJobHandler(jobs),
		Users: users,
		Redis: rdb,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
		}
	}()

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env)

	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
