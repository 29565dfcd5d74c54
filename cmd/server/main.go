package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	webAdapter "procurement/internal/adapters/web"
	"procurement/internal/app"
	"procurement/internal/config"
	"procurement/internal/core"
	"procurement/internal/db"
	"procurement/internal/logger"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		db.Module,
		core.Module,
		fx.Provide(app.NewAppService),
		fx.Provide(newHandler),
		fx.Invoke(runServer),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	).Run()
}

func newHandler(svc app.ApplicationService, log *zap.Logger, cfg config.Config) http.Handler {
	return webAdapter.NewHandler(svc, log, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		BodyLimitBytes: cfg.BodyLimitBytes,
	})
}

func runServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, handler http.Handler, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
