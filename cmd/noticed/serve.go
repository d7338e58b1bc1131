package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/noticed/internal/api"
	"github.com/gyaneshwarpardhi/noticed/internal/archive"
	"github.com/gyaneshwarpardhi/noticed/internal/config"
	"github.com/gyaneshwarpardhi/noticed/internal/relay"
)

func newServeCmd(root *rootOpts) *cobra.Command {
	var cfgPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the notice projection service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), root, cfgPath, addr)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "configs/noticed.yaml", "Path to YAML config")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, root *rootOpts, cfgPath, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// ── Load config ──────────────────────────────────────────────────────────
	boot := newLogger(os.Stderr, root.logLevel, "", root.logPretty)
	loader, err := config.NewLoader(cfgPath, boot)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	log := newLogger(os.Stderr, root.logLevel, cfg.Log.Level, root.logPretty || cfg.Log.Pretty)
	if addr == "" {
		addr = cfg.Server.Addr
	}

	// ── Sinks ────────────────────────────────────────────────────────────────
	var sinks []relay.Sink
	if cfg.Relay.LogSink {
		sinks = append(sinks, relay.NewLogSink(log))
	}
	var lister api.Archive
	if cfg.Archive.Enabled {
		store, err := openArchive(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
		lister = store
		log.Info().Msg("archive enabled")
	}

	// ── Relay ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rl := relay.New(ctx, cfg.Relay, cfg.Projection, log, sinks...)
	log.Info().Int("workers", cfg.Relay.Workers).Int("queue_depth", cfg.Relay.QueueDepth).Strs("sinks", rl.Sinks()).Msg("relay started")

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		rl.SetOptions(newCfg.Projection)
		log.Info().Str("version", newCfg.Version).Strs("skip", newCfg.Projection.Skip).Msg("projection options reloaded")
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		log.Warn().Err(err).Msg("config watcher unavailable (hot-reload disabled)")
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(api.Deps{
		Relay:        rl,
		Archive:      lister,
		Reloader:     loader,
		Log:          log,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutMs) * time.Millisecond,
	}

	errC := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errC:
		return err
	case <-quit:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	rl.Shutdown()
	log.Info().Msg("goodbye")
	return nil
}

func openArchive(conf config.ArchiveConf) (*archive.Store, error) {
	if conf.PostgresDSN != "" {
		return archive.Open(archive.WithPostgres(conf.PostgresDSN))
	}
	return archive.Open(archive.WithSQLite(conf.SQLitePath))
}
