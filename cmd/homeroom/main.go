// Command homeroom runs the integration gateway: capability probing and
// action dispatch for the agent dashboard providers.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/logging"
	"github.com/homeroomhq/homeroom/internal/metrics"
	"github.com/homeroomhq/homeroom/internal/providers/chat"
	"github.com/homeroomhq/homeroom/internal/providers/classroom"
	"github.com/homeroomhq/homeroom/internal/providers/documents"
	"github.com/homeroomhq/homeroom/internal/providers/research"
	"github.com/homeroomhq/homeroom/internal/providers/resend"
	"github.com/homeroomhq/homeroom/internal/providers/twilio"
	"github.com/homeroomhq/homeroom/internal/scheduler"
	"github.com/homeroomhq/homeroom/internal/secrets"
	"github.com/homeroomhq/homeroom/internal/server"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/mcp"
)

var version = "dev"

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("gateway exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	creds := newCredentials(ctx, cfg, st, logger)
	m := metrics.New()

	router := gateway.NewRouter(gateway.RouterDeps{
		Logger:   logger,
		Observer: m,
		Audit:    store.NewAuditRecorder(st, logger),
	})

	timeout := cfg.requestTimeout()
	providers := []gateway.Provider{
		classroom.New(classroom.Config{
			AccessToken: creds.Lookup(ctx, "HOMEROOM_CLASSROOM_ACCESS_TOKEN", "classroom.access_token"),
			Timeout:     timeout,
		}),
		twilio.New(twilio.Config{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  creds.Lookup(ctx, "HOMEROOM_TWILIO_AUTH_TOKEN", "twilio.auth_token"),
			FromNumber: cfg.Twilio.FromNumber,
			Timeout:    timeout,
		}),
		resend.New(resend.Config{
			APIKey:  creds.Lookup(ctx, "HOMEROOM_RESEND_API_KEY", "resend.api_key"),
			From:    cfg.Resend.From,
			Timeout: timeout,
		}),
		research.New(research.Config{
			APIKey: creds.Lookup(ctx, "HOMEROOM_PERPLEXITY_API_KEY", "perplexity.api_key"),
		}),
		chat.New(chat.Config{
			APIKey: creds.Lookup(ctx, "HOMEROOM_OPENAI_API_KEY", "openai.api_key"),
			Model:  cfg.OpenAI.Model,
		}),
		documents.New(st),
	}
	for _, p := range providers {
		if err := router.Register(p); err != nil {
			return err
		}
	}

	prober := gateway.NewProber(router, logger, m)

	maint := scheduler.NewMaintenance(st, scheduler.Config{}, logger)
	if err := maint.Start(ctx); err != nil {
		return err
	}
	defer maint.Stop()

	if cfg.MCP {
		gw := mcp.NewGatewayServer(mcp.GatewayServerDeps{
			Router: router,
			Prober: prober,
			Logger: logger,
		})
		logger.Info("serving MCP over stdio")
		return gw.Serve(ctx)
	}

	api := server.New(server.Deps{
		Router:  router,
		Prober:  prober,
		Store:   st,
		Metrics: m.Handler(),
		Logger:  logger,
		Version: version,
	})

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", slog.String("addr", cfg.ListenAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newCredentials builds the credential resolver. Config values win over the
// vault; the vault itself only opens when a passphrase is configured.
func newCredentials(ctx context.Context, cfg Config, st store.Store, logger *slog.Logger) *configCredentials {
	var vault secrets.Vault
	if cfg.VaultPassphrase != "" && cfg.VaultSalt != "" {
		v, err := secrets.NewAESVault(st, secrets.VaultConfig{
			Passphrase: cfg.VaultPassphrase,
			Salt:       []byte(cfg.VaultSalt),
		})
		if err != nil {
			logger.WarnContext(ctx, "vault unavailable", slog.Any("error", err))
		} else {
			vault = v
		}
	}
	return &configCredentials{cfg: cfg, resolver: secrets.NewCredentials(vault)}
}

// configCredentials layers the loaded config over the env/vault resolver.
type configCredentials struct {
	cfg      Config
	resolver *secrets.Credentials
}

// Lookup resolves env > settings.json > vault. The config already carries the
// env overrides, so the resolver only supplies the vault fallback.
func (c *configCredentials) Lookup(ctx context.Context, envVar, vaultKey string) string {
	if v := c.configValue(vaultKey); v != "" {
		return v
	}
	return c.resolver.Lookup(ctx, envVar, vaultKey)
}

func (c *configCredentials) configValue(vaultKey string) string {
	switch vaultKey {
	case "classroom.access_token":
		return c.cfg.Classroom.AccessToken
	case "twilio.auth_token":
		return c.cfg.Twilio.AuthToken
	case "resend.api_key":
		return c.cfg.Resend.APIKey
	case "perplexity.api_key":
		return c.cfg.Perplexity.APIKey
	case "openai.api_key":
		return c.cfg.OpenAI.APIKey
	}
	return ""
}
