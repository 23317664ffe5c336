package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/phumzea/reports/internal/config"
	"github.com/phumzea/reports/internal/mailer"
	"github.com/phumzea/reports/internal/media"
	"github.com/phumzea/reports/internal/report"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	transport mailer.Transport
	submitter *report.Submitter
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	return build(cfg, logger, transport)
}

func build(cfg *config.Config, logger *slog.Logger, transport mailer.Transport) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	encoder := media.NewEncoder(logger, media.WithMetadataStripping(cfg.StripMetadata))
	submitter := report.NewSubmitter(transport, encoder, report.Config{
		ServiceID:       cfg.EmailJSServiceID,
		TemplateID:      cfg.EmailJSTemplateID,
		Destination:     cfg.DestinationEmail,
		TimestampLayout: cfg.TimestampLayout,
		Location:        loc,
	}, logger)

	return &App{
		config:    cfg,
		logger:    logger,
		transport: transport,
		submitter: submitter,
	}, nil
}

func newTransport(cfg *config.Config) (mailer.Transport, error) {
	switch cfg.Transport {
	case config.TransportSMTP:
		var body string
		if cfg.SMTPTemplateFile != "" {
			b, err := os.ReadFile(cfg.SMTPTemplateFile)
			if err != nil {
				return nil, fmt.Errorf("reading smtp template: %w", err)
			}
			body = string(b)
		}
		return mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:         cfg.SMTPHost,
			Port:         cfg.SMTPPort,
			User:         cfg.SMTPUser,
			Pass:         cfg.SMTPPass,
			FromAddress:  cfg.SMTPFromEmail,
			FromName:     cfg.SMTPFromName,
			BodyTemplate: body,
		}), nil
	case config.TransportEmailJS:
		client, err := mailer.NewEmailJSClient(mailer.EmailJSConfig{
			Endpoint:   cfg.EmailJSEndpoint,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func (app App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "transport", app.config.Transport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or the listener to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
