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

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/handler"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/router"
	"github.com/Payphone-Digital/auth-service/internal/service"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var serveCommand = cli.Command{
	Name:   "serve",
	Usage:  "run the HTTP API",
	Action: serve,
}

func serve(c *cli.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	config := a.config
	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
		zap.String("db_driver", config.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := a.openRevocation(ctx)
	if err != nil {
		return err
	}
	defer backend.closeFn()

	if config.Bootstrap.Enabled() {
		a.bootstrapAdmin(ctx)
	}

	tokens := service.NewTokenService(config.JWT, backend.store)
	authService := service.NewAuthService(a.repo, a.hasher, tokens, a.validator, service.AuthSettings{
		MinPasswordLength: config.Security.MinPasswordLength,
		RotateRefresh:     config.JWT.RotateRefresh,
	})
	userService := service.NewUserService(a.repo, a.validator)
	adminService := service.NewAdminService(a.repo, service.NewAdminGuard(), a.validator)

	engine := router.NewRouter(
		handler.NewAuthHandler(authService, userService),
		handler.NewUserHandler(userService, authService),
		handler.NewAdminHandler(adminService),
		handler.NewHealthHandler(a.db, backend.redis, backend.breaker, constants.AppVersion),
		middleware.NewJWTMiddleware(authService),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.GetLogger().Error("Failed to start server", zap.Error(err), zap.String("port", config.App.Port))
			return err
		}
	case <-ctx.Done():
	}

	logger.GetLogger().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.GetLogger().Info("Server exited")
	return nil
}

// bootstrapAdmin creates the configured first admin. An existing active
// admin is not an error; the service keeps starting either way.
func (a *app) bootstrapAdmin(ctx context.Context) {
	bootstrap := service.NewBootstrapService(a.repo, a.hasher, a.validator, a.config.Security.MinPasswordLength)

	res, err := bootstrap.ProvisionAdmin(ctx, dto.ProvisionAdminRequest{
		Username: a.config.Bootstrap.Username,
		Email:    a.config.Bootstrap.Email,
		Password: a.config.Bootstrap.Password,
	})
	switch {
	case errors.Is(err, apperrors.ErrAlreadyProvisioned):
		logger.GetLogger().Info("Bootstrap admin skipped, an active admin exists")
	case err != nil:
		logger.GetLogger().Error("Failed to provision bootstrap admin", zap.Error(err))
	default:
		logger.GetLogger().Info("Bootstrap admin provisioned",
			zap.Uint("user_id", res.User.ID),
			zap.String("username", res.User.Username),
			zap.Bool("password_generated", res.GeneratedPassword != ""),
		)
		if res.GeneratedPassword != "" {
			// shown once on the operator's terminal, never logged
			fmt.Fprintf(os.Stderr, "generated admin password: %s\n", res.GeneratedPassword)
		}
	}
}
