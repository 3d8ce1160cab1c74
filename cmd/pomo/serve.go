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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/pomo/internal/config"
	"github.com/sandeepkv93/pomo/internal/offline"
	"github.com/sandeepkv93/pomo/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var (
	listenAddr  string
	originURL   string
	skipInstall bool
	inMemory    bool
	strict      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timer's web assets cache-first",
	Long:  "Install the asset manifest into the current cache generation, purge older generations, then serve requests from the cache and fall back to the origin.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&originURL, "origin", "", "Origin serving the page assets (overrides config)")
	serveCmd.Flags().BoolVar(&skipInstall, "skip-install", false, "Serve without installing the manifest first")
	serveCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Keep the cache in memory instead of SQLite")
	serveCmd.Flags().BoolVar(&strict, "strict", false, "Abort install on the first failed asset and store nothing")
}

func serveConfig() (config.RuntimeConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if listenAddr != "" {
		cfg.Cache.Listen = listenAddr
	}
	if originURL != "" {
		cfg.Cache.Origin = originURL
	}
	return cfg, cfg.Validate()
}

func openStore(cfg config.RuntimeConfig) (storage.CacheStore, error) {
	if inMemory {
		return storage.NewMemoryRepository(), nil
	}
	return storage.OpenSQLite(cfg.Cache.DBPath)
}

func newProxy(cfg config.RuntimeConfig, store storage.CacheStore, log logrus.FieldLogger) (*offline.Proxy, error) {
	manifest := offline.DefaultManifest(cfg.Cache.Prefix)
	if len(cfg.Cache.Paths) > 0 {
		manifest.Paths = cfg.Cache.Paths
	}
	if cfg.Cache.External != nil {
		manifest.External = cfg.Cache.External
	}
	return offline.NewProxy(store, cfg.Cache.Origin,
		offline.WithGeneration(cfg.Cache.Generation),
		offline.WithManifest(manifest),
		offline.WithLogger(log),
		offline.WithStrictInstall(cfg.Cache.StrictInstall || strict),
		offline.WithFallback(cfg.Cache.Fallback),
	)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	proxy, err := newProxy(cfg, store, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !skipInstall {
		if _, err := proxy.Install(ctx); err != nil {
			return err
		}
	}
	if _, err := proxy.Activate(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Cache.Listen,
		Handler:           proxy,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.WithFields(logrus.Fields{
		"listen":     cfg.Cache.Listen,
		"origin":     cfg.Cache.Origin,
		"generation": proxy.Generation(),
	}).Info("offline proxy listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
