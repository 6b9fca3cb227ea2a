package app

import (
	"context"
	"time"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/control"
	"go-job-harvester/internal/server"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Serve runs the HTTP control surface until ctx is cancelled, then shuts the
// server down and waits for an in-flight run to flush.
func Serve(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	h, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	ctrl := control.New(ctx, h.Launch, logger, h.Observer())
	srv, err := server.NewServer(cfg.ServerAddr, ctrl, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Runs share ctx, so they are already stopping; wait for the final flush.
		_, _ = ctrl.Wait()
		return nil
	})
	return g.Wait()
}
