package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/edukid/internal/account"
	api "github.com/mind-engage/edukid/internal/api/http"
	authmw "github.com/mind-engage/edukid/internal/auth/middleware"
	"github.com/mind-engage/edukid/internal/db"
	"github.com/mind-engage/edukid/internal/learning"
	"github.com/mind-engage/edukid/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	users := account.NewSQLStore(dbh)
	catalog := learning.NewSQLStore(dbh)

	if cfg.SeedOnStart {
		if _, err := applySeed(ctx, cfg.SeedFile, users, catalog, log); err != nil {
			return err
		}
	}

	ready := map[string]api.Pinger{"db": dbh}
	var sessions authmw.SessionStore
	if cfg.CacheURL != "" {
		rs, err := authmw.NewRedisSessionStore(ctx, cfg.CacheURL, cfg.SessionTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		sessions = rs
		ready["cache"] = api.PingFunc(rs.HealthCheck)
	} else {
		sessions = authmw.NewMemorySessionStore(cfg.SessionTTL)
	}

	handler := api.NewRouter(api.Deps{
		Config:   cfg,
		Users:    users,
		Learning: learning.NewService(catalog, learning.WithLogger(log)),
		Auth:     authmw.NewAuthService(cfg.AuthHMACSecret, cfg.SessionTTL),
		Sessions: sessions,
		Log:      log,
		Ready:    ready,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "reveal_answers", cfg.RevealAnswers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
