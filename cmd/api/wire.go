package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	appai "github.com/bryanwahyu/footprint-shield/internal/application/ai"
	appassess "github.com/bryanwahyu/footprint-shield/internal/application/assessment"
	appincidents "github.com/bryanwahyu/footprint-shield/internal/application/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/config"
	domai "github.com/bryanwahyu/footprint-shield/internal/domain/ai"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
	"github.com/bryanwahyu/footprint-shield/internal/infra/ai/openai"
	"github.com/bryanwahyu/footprint-shield/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/footprint-shield/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/footprint-shield/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/footprint-shield/internal/infra/db/sqlite"
	"github.com/bryanwahyu/footprint-shield/internal/infra/storage"
	"github.com/bryanwahyu/footprint-shield/internal/middleware"
)

// app is the wired object graph behind the HTTP API.
type app struct {
	Assessment *appassess.Service
	Incidents  *appincidents.Service
	AI         *appai.Service
	Checks     []middleware.Check

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	clock := application.SystemClock{}

	catalogs, err := config.LoadCatalogs(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	repo, err := openStore(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Checks = append(a.Checks, middleware.Check{Name: "store", Checker: middleware.PingChecker{Target: repo}})
	a.Incidents = &appincidents.Service{Repo: repo, Clock: clock}

	keywords := harassment.NewKeywordClassifier(catalogs.Harassment)
	var external harassment.Classifier
	var companion domai.Companion
	if cfg.AIEnabled() {
		client := openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, catalogs.Harassment.Names())
		external, companion = client, client

		if cfg.CacheEnabled() {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.Password,
				DB:       cfg.Cache.DB,
			})
			a.closers = append(a.closers, rdb.Close)
			cc := cache.NewClassificationCache(rdb, cfg.Cache.TTL)
			a.Checks = append(a.Checks, middleware.Check{Name: "cache", Checker: cc, Optional: true})
			external = &cache.Classifier{Next: client, Cache: cc, Logger: logger.Named("cache")}
		}
	} else {
		logger.Info("no AI API key configured, using keyword classifier only")
	}

	fallback := appai.NewFallbackClassifier(external, keywords, cfg.AI.Timeout, logger.Named("classifier"))
	fallback.OnFallback = func(error) { middleware.IncrementClassifierFallbacks() }

	a.Assessment = &appassess.Service{
		Scorer:     safety.NewScorer(catalogs.Rubric),
		Classifier: fallback,
		Clock:      clock,
	}
	a.AI = appai.NewService(companion)
	return a, nil
}

// openStore selects the incident backend named by store.driver.
func openStore(ctx context.Context, cfg *config.Config, a *app) (interface {
	incidents.Repository
	incidents.Pinger
}, error) {
	switch cfg.Store.Driver {
	case config.DriverFile:
		return storage.NewFileStore(cfg.Store.Path)

	case config.DriverSQLite:
		db, err := sqlitep.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return sqlitep.NewIncidentRepository(db), nil

	case config.DriverMySQL:
		db, err := mysqlp.Open(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return mysqlp.NewIncidentRepository(db), nil

	case config.DriverPostgres:
		db, err := postgresp.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return postgresp.NewIncidentRepository(db), nil

	case config.DriverMinio:
		return storage.NewObjectStore(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
	}
	return nil, errors.Errorf("unknown store driver %q", cfg.Store.Driver)
}

