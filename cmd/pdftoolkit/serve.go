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

	"github.com/thywilljoshua/pdf-toolkit/internal/ai"
	"github.com/thywilljoshua/pdf-toolkit/internal/config"
	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
	"github.com/thywilljoshua/pdf-toolkit/internal/server"
	"github.com/thywilljoshua/pdf-toolkit/internal/store"
	"github.com/thywilljoshua/pdf-toolkit/internal/workspace"
)

type serveFlags struct {
	configPath string
	addr       string
	storePath  string
	logLevel   string
	maxUpload  int64
}

func bindServeFlags(cmd *cobra.Command) *serveFlags {
	f := &serveFlags{}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&f.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&f.storePath, "store", "", "SQLite file for page blobs (default: in memory)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "debug|info|warn|error")
	cmd.Flags().Int64Var(&f.maxUpload, "max-upload", config.DefaultMaxUploadBytes, "maximum request body in bytes")
	return f
}

// config loads file and environment settings, applies the flags the user
// set, and validates the result once.
func (f *serveFlags) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = f.addr
	}
	if flags.Changed("store") {
		cfg.StorePath = f.storePath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("max-upload") {
		cfg.MaxUploadBytes = f.maxUpload
	}
	return cfg, cfg.Validate()
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
	}
	flags := bindServeFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.config(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	}
	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	log := cfg.NewLogger()

	blobs, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer blobs.Close()

	var namer ai.Namer = ai.Noop{}
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.WithError(err).Warn("gemini unavailable, using file names for suggestions")
		} else {
			namer = g
		}
	}

	srv := server.New(workspace.New(), blobs, server.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		PDF:            pdf.Options{Strict: cfg.StrictPDF, Logger: log},
		Namer:          namer,
		Logger:         log,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
