package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aethra/misight/internal/api"
	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/backend"
	"github.com/aethra/misight/internal/cache"
	"github.com/aethra/misight/internal/reference"
	"github.com/aethra/misight/internal/section"
	"github.com/aethra/misight/internal/ui"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "listen port")
	serveCmd.Flags().String("mode", "", "gin mode: debug, release or test")
	serveCmd.Flags().String("backend-url", "", "MiSight REST backend base URL")
	serveCmd.Flags().Bool("seed-demo", false, "create the demo accounts when missing")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)
	log.Infow("MiSight starting", "version", api.Version, "mode", cfg.Server.Mode)
	if cfg.JWTSecretGenerated {
		log.Warnw("no auth.jwt_secret configured, using a random secret; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(cfg.Database, log)
	if err != nil {
		return err
	}

	store := auth.NewStore(db)
	if cfg.Auth.SeedDemoAccounts {
		password, generated := demoPassword(cfg.Auth.DemoPassword)
		created, err := store.SeedDemoAccounts(ctx, password)
		if err != nil {
			return fmt.Errorf("seed demo accounts: %w", err)
		}
		if len(created) > 0 {
			log.Infow("demo accounts created", "usernames", created, "generated_password", generated)
			if generated {
				printDemoPassword(cmd.ErrOrStderr(), created, password)
			}
		}
	}

	limiter := auth.NewLoginRateLimiter()
	authService := auth.NewService(store, auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry), limiter, log)

	janitor, err := auth.NewJanitor(store, limiter, log, cfg.Auth.JanitorSchedule)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := backend.NewMetrics(registry)

	collectionCache, err := cache.New(cache.DefaultConfig())
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer collectionCache.Close()

	client := backend.NewClient(cfg.Backend, log, metrics)
	collections := backend.NewCollections(client, collectionCache, cfg.Backend.CacheTTL, metrics)

	catalog, err := reference.Default()
	if err != nil {
		return fmt.Errorf("load reference catalog: %w", err)
	}
	log.Infow("reference catalog loaded", "directories", catalog.Names())
	sections, err := section.NewRegistry(section.Definitions(catalog), collections, log)
	if err != nil {
		return err
	}

	renderer, err := ui.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	handler := api.NewHandler(authService, sections, renderer, db, cfg.Auth, log)
	router := api.SetupRouter(handler, cfg.CORS, registry)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "port", cfg.Server.Port, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// demoPassword returns the configured demo password, or a fresh random one
func demoPassword(configured string) (string, bool) {
	if configured != "" {
		return configured, false
	}
	return randomPassword(), true
}

// printDemoPassword shows a generated password on the terminal only, never in the log stream
func printDemoPassword(w io.Writer, usernames []string, password string) {
	fmt.Fprintf(w, "Demo accounts %s created with generated password: %s\n", strings.Join(usernames, ", "), password)
}

func randomPassword() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("read random password: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
