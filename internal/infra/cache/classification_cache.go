package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
)

const keyPrefix = "classification:"

// ClassificationCache stores external classifier results keyed by a hash
// of the normalized message, so message text never lands in Redis.
type ClassificationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClassificationCache(client *redis.Client, ttl time.Duration) *ClassificationCache {
	return &ClassificationCache{client: client, ttl: ttl}
}

// Key derives the cache key for a message. Case and surrounding space do
// not change the keyword result, so they do not split the cache either.
func Key(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns (result, true, nil) on a hit and (zero, false, nil) on a miss.
func (c *ClassificationCache) Get(ctx context.Context, text string) (harassment.Result, bool, error) {
	data, err := c.client.Get(ctx, Key(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return harassment.Result{}, false, nil
	}
	if err != nil {
		return harassment.Result{}, false, errors.Wrap(err, "redis get")
	}
	var res harassment.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return harassment.Result{}, false, errors.Wrap(err, "decode cached classification")
	}
	return res, true, nil
}

func (c *ClassificationCache) Set(ctx context.Context, text string, res harassment.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return errors.Wrap(c.client.Set(ctx, Key(text), data, c.ttl).Err(), "redis set")
}

// Check implements middleware.HealthChecker.
func (c *ClassificationCache) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Classifier serves cached results and fills the cache from Next.
// Cache failures are not classification failures: they are logged and the
// request falls through to Next.
type Classifier struct {
	Next   harassment.Classifier
	Cache  *ClassificationCache
	Logger *zap.Logger
}

func (c *Classifier) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Classify implements harassment.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string) (harassment.Result, error) {
	res, ok, err := c.Cache.Get(ctx, text)
	switch {
	case err != nil:
		c.logger().Warn("classification cache read failed", zap.Error(err))
	case ok && res.Validate() == nil:
		return res, nil
	case ok:
		c.logger().Warn("discarding invalid cached classification", zap.String("key", Key(text)))
	}

	res, err = c.Next.Classify(ctx, text)
	if err != nil {
		return res, err
	}
	if err := c.Cache.Set(ctx, text, res); err != nil {
		c.logger().Warn("classification cache write failed", zap.Error(err))
	}
	return res, nil
}
