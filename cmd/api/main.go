package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	appassess "github.com/bryanwahyu/footprint-shield/internal/application/assessment"
	"github.com/bryanwahyu/footprint-shield/internal/config"
	"github.com/bryanwahyu/footprint-shield/internal/domain/evidence"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
	"github.com/bryanwahyu/footprint-shield/internal/infra/httpserver"
	"github.com/bryanwahyu/footprint-shield/internal/middleware"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shield",
		Short:        "Footprint Shield digital-safety assessment API",
		SilenceUsage: true,
	}

	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to config file")

	root.AddCommand(serveCmd(), scoreCmd(), classifyCmd(), evidenceCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			app, err := wire(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
			defer limiter.Stop()

			handler := httpserver.NewRouter(app.Assessment, app.Incidents, app.AI, httpserver.Options{
				CORSOrigins:  cfg.Server.CORSOrigins,
				APIKeys:      cfg.Auth.APIKeys,
				Limiter:      limiter,
				HealthChecks: app.Checks,
				Logger:       logger,
				TrustProxy:   cfg.Server.TrustProxy,
			})

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening",
					zap.String("addr", addr),
					zap.String("store", cfg.Store.Driver),
					zap.Bool("ai", cfg.AIEnabled()),
					zap.Bool("cache", cfg.CacheEnabled()),
				)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			// graceful shutdown
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case err, ok := <-errCh:
				if ok {
					return errors.Wrap(err, "server error")
				}
			}
			logger.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}
			return nil
		},
	}
}

func scoreCmd() *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a JSON answers file ({\"question_id\": bool})",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := offlineService()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(answersPath)
			if err != nil {
				return errors.Wrapf(err, "read answers %s", answersPath)
			}
			var answers safety.Answers
			if err := json.Unmarshal(data, &answers); err != nil {
				return errors.Wrapf(err, "parse answers %s", answersPath)
			}
			return printJSON(cmd, svc.CalculateScore(answers))
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "JSON file with questionnaire answers")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify TEXT...",
		Short: "Classify a message and print the suggested responses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := offlineService()
			if err != nil {
				return err
			}
			analysis, err := svc.AnalyzeMessage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, analysis)
		},
	}
}

func evidenceCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Assess a JSON list of evidence entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := offlineService()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "read evidence %s", file)
			}
			var entries []evidence.Entry
			if err := json.Unmarshal(data, &entries); err != nil {
				return errors.Wrapf(err, "parse evidence %s", file)
			}
			return printJSON(cmd, svc.AnalyzeEvidence(entries))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with evidence entries")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Level != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.Log.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", cfg.Log.Level)
		}
		zc.Level = lvl
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

// offlineService builds the assessment service on the keyword classifier
// only; CLI commands never reach external services.
func offlineService() (*appassess.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	catalogs, err := config.LoadCatalogs(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	return &appassess.Service{
		Scorer:     safety.NewScorer(catalogs.Rubric),
		Classifier: harassment.NewKeywordClassifier(catalogs.Harassment),
		Clock:      application.SystemClock{},
	}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
