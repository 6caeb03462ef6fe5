package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amirk1998/notes-web/internal/audit"
	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/logging"
	"github.com/amirk1998/notes-web/internal/ratelimit"
	"github.com/amirk1998/notes-web/internal/repository"
	"github.com/amirk1998/notes-web/internal/security"
	"github.com/amirk1998/notes-web/internal/service"
	"github.com/amirk1998/notes-web/internal/web"
)

const (
	shutdownTimeout   = 10 * time.Second
	limiterSweepEvery = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log := logging.Pkg("cmd")

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			return err
		}

		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		tokens := identity.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
		requestLimiter := ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		loginLimiter := ratelimit.NewRateLimiter(1, 5)
		versions := web.NewViewVersions()
		auditLog := audit.NewLogger(db)

		notes := service.NewNoteService(
			repository.NewNoteRepository(db),
			identity.ContextResolver{},
			service.WithInvalidator(versions),
		)
		accounts := service.NewAccountService(
			repository.NewUserRepository(db),
			security.NewPasswordHasher(),
			loginLimiter,
			tokens,
			auditLog,
		)

		srv, err := web.NewServer(web.Options{
			Notes:         notes,
			Accounts:      accounts,
			Tokens:        tokens,
			Limiter:       requestLimiter,
			Versions:      versions,
			Store:         db,
			SecureCookies: cfg.IsProduction(),
		})
		if err != nil {
			return err
		}

		go requestLimiter.StartCleanupWorker(ctx, limiterSweepEvery)
		go loginLimiter.StartCleanupWorker(ctx, limiterSweepEvery)
		go audit.NewMonitor(auditLog).Start(ctx)

		httpServer := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("listening", "addr", cfg.ListenAddr, "dialect", db.Dialect)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}
