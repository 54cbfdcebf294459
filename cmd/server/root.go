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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Rendezvous/internal/adapters/audit"
	"github.com/dkeye/Rendezvous/internal/adapters/hash"
	router "github.com/dkeye/Rendezvous/internal/adapters/http"
	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/config"
	"github.com/dkeye/Rendezvous/internal/core"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "rendezvous",
		Short:         "Password-gated signaling relay for two-party WebRTC calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	flags.Int("port", 0, "listen port")
	flags.String("log-level", "", "debug|info|warn|error")
	flags.String("audit-file", "", "append audit records as CSV to this file")
	_ = v.BindPFlag("config_file", flags.Lookup("config"))
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("audit_file", flags.Lookup("audit-file"))

	return cmd
}

func run(parent context.Context, v *viper.Viper) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.LoadWith(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	sinks := audit.Multi{audit.NewLogSink(log.Logger)}
	if cfg.AuditFile != "" {
		csvSink, err := audit.OpenCSVFile(cfg.AuditFile)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
	}

	limiter := app.NewAttemptLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomDirectory(hash.NewBcryptHasher(cfg.BcryptCost)),
		Limiter:  limiter,
		Policy:   app.SimplePolicy{},
		Audit:    core.AuditSink(sinks),
	}

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled()).Msg("Rendezvous server started")
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx, cfg.RateLimit.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
