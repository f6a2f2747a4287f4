package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/cache"
	"github.com/vedanthq/SLMGen/internal/jobs"
	"github.com/vedanthq/SLMGen/internal/projectconfig"
	"github.com/vedanthq/SLMGen/internal/publish"
	"github.com/vedanthq/SLMGen/internal/session"
	"github.com/vedanthq/SLMGen/internal/webapi"
	"github.com/vedanthq/SLMGen/internal/webserver"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		port        int
		host        string
		allowRemote bool
		sessionLog  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SLMGen HTTP API",
		Long: `Start the SLMGen HTTP API.

The server keeps uploaded datasets in memory for a limited time and writes
generated notebooks to the uploads directory. Job history endpoints require a
bearer JWT unless auth.disabled is set in .slmgen.yaml.

The server binds to loopback (127.0.0.1) by default. Use --allow-remote to
bind to all interfaces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			if port == 0 {
				port = cfg.Server.Port
			}
			if allowRemote {
				host = "0.0.0.0"
				slog.Warn("HTTP server binding to all interfaces", "port", port)
			}

			if err := os.MkdirAll(cfg.Paths.Uploads, 0o755); err != nil {
				return fmt.Errorf("creating uploads directory: %w", err)
			}

			events := session.Discard
			if sessionLog {
				journal, err := session.OpenJournal(cfg.Paths.Uploads)
				if err != nil {
					return err
				}
				defer func() {
					t := journal.Tally()
					slog.Info("Session activity",
						"created", t.Events[session.EventCreated],
						"notebooks", t.Events[session.EventNotebook],
						"downloads", t.Events[session.EventDownload],
						"rejected_tokens", t.Events[session.EventTokenFail])
					_ = journal.Close()
				}()
				slog.Info("Writing session events", "path", journal.Path())
				events = journal
			}

			sessions := session.NewStore(session.Config{
				TTL:         cfg.Sessions.TTL(),
				MaxSessions: cfg.Sessions.Max,
				OnEvict:     webapi.RemoveSessionFiles,
				Events:      events,
			})

			opts := webapi.Options{
				Sessions:       sessions,
				Engine:         a.newEngine(),
				UploadDir:      cfg.Paths.Uploads,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			}

			store, err := jobs.Open(cfg.Jobs.DBPath)
			if err != nil {
				slog.Warn("Job history disabled", "path", cfg.Jobs.DBPath, "error", err)
			} else {
				defer store.Close() //nolint:errcheck
				opts.Jobs = store
			}

			if cfg.Cache.Enabled != nil && *cfg.Cache.Enabled {
				opts.Cache = cache.New(cfg.Cache.Dir)
			}

			if cfg.Publish.AzureBlob.Enabled() {
				pub, err := publish.NewAzureBlobPublisher(cfg.Publish.AzureBlob.AccountURL, cfg.Publish.AzureBlob.Container)
				if err != nil {
					slog.Warn("Notebook publishing disabled", "error", err)
				} else {
					opts.Publisher = pub
				}
			}

			disabled := cfg.Auth.Disabled != nil && *cfg.Auth.Disabled
			if !disabled && cfg.Auth.JWTSecret == "" {
				slog.Warn("No JWT secret configured; job endpoints will return 503", "env", projectconfig.JWTSecretEnv)
			}

			srv, err := webserver.New(webserver.Config{
				Host:            host,
				Port:            port,
				API:             opts,
				Auth:            webapi.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, disabled),
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				RateLimit:       cfg.RateLimit.PerMinute,
				UploadRateLimit: cfg.RateLimit.UploadPerMinute,
				Logger:          slog.Default(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: server.port from .slmgen.yaml)")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Interface to bind")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "Bind to all interfaces")
	cmd.Flags().BoolVar(&sessionLog, "session-log", false, "Write session lifecycle events as JSONL to the uploads directory")
	return cmd
}
