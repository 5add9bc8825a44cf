package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
)

func TestKeyNormalizesCaseAndSpace(t *testing.T) {
	assert.Equal(t, Key("I will find you"), Key("  i WILL find YOU\n"))
	assert.NotEqual(t, Key("I will find you"), Key("I will find them"))
}

func TestKeyDoesNotLeakText(t *testing.T) {
	k := Key("my phone number is 0700")
	assert.True(t, strings.HasPrefix(k, keyPrefix))
	assert.NotContains(t, k, "phone")
	assert.Len(t, k, len(keyPrefix)+64)
}

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Classify(context.Context, string) (harassment.Result, error) {
	c.calls++
	return harassment.Result{Severity: harassment.SeverityHigh, Categories: []string{harassment.Threats}, Score: 5}, nil
}

func TestClassifierLogsCacheFailuresAndFallsThrough(t *testing.T) {
	// nothing listens on port 1, so every redis call fails fast
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	core, logs := observer.New(zapcore.WarnLevel)
	next := &countingClassifier{}
	c := &Classifier{Next: next, Cache: NewClassificationCache(rdb, time.Minute), Logger: zap.New(core)}

	res, err := c.Classify(context.Background(), "I will hurt you")
	require.NoError(t, err)
	assert.Equal(t, harassment.SeverityHigh, res.Severity)
	assert.Equal(t, 1, next.calls)

	msgs := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"classification cache read failed", "classification cache write failed"}, msgs)
}
