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
	"golang.org/x/sync/errgroup"

	"busbooking/internal/clients"
	intconfig "busbooking/internal/config"
	router "busbooking/internal/http"
	"busbooking/internal/http/handlers"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

func main() {
	if err := run(); err != nil {
		utils.LogWarn("", "main", "exit", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return err
	}
	utils.SetupLogger(env.LogLevel)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, check, closeStore, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeStore()

	api := clients.NewAPIClient(env.APIBaseURL, env.APITimeout)
	r := router.NewRouter(env, &handlers.Handler{
		API:          api,
		Store:        store,
		SuccessURL:   env.PaymentSuccessURL,
		CancelURL:    env.PaymentCancelURL,
		Concurrency:  env.MaterializeConcurrency,
		JWTSecret:    []byte(env.JWTSecret),
		StoreCheckFn: check,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.LogEvent("", "main", "listen", "Server berjalan di "+env.AppAddr+" (store="+env.StoreDriver+")")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.LogEvent("", "main", "shutdown", "Mematikan server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	utils.LogEvent("", "main", "shutdown", "Server berhenti dengan aman.")
	return nil
}

// openStore picks the session store backend from STORE_DRIVER.
func openStore(ctx context.Context, env intconfig.Env) (repositories.SessionStore, func(context.Context) error, func(), error) {
	switch env.StoreDriver {
	case intconfig.StoreMySQL:
		conn, err := intconfig.ConnectDB(ctx, env.MySQLDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		store := repositories.NewMySQLStore(conn, env.SessionTTL)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
		return store, conn.PingContext, func() { _ = conn.Close() }, nil
	case intconfig.StoreRedis:
		client, err := intconfig.NewRedisClient(ctx, env.RedisAddr, env.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return repositories.NewRedisStore(client, env.SessionTTL), check, func() { _ = client.Close() }, nil
	default:
		return repositories.NewMemoryStore(), nil, func() {}, nil
	}
}
