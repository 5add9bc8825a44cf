package ai

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	domai "github.com/bryanwahyu/footprint-shield/internal/domain/ai"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
)

// DefaultTimeout bounds one external classification call.
const DefaultTimeout = 5 * time.Second

// FallbackClassifier tries an external classifier under a timeout and
// answers with the keyword classifier whenever that fails. Classify never
// returns an error.
type FallbackClassifier struct {
	external harassment.Classifier
	keywords *harassment.KeywordClassifier
	timeout  time.Duration
	logger   *zap.Logger

	// OnFallback, if set, is called once per fallback.
	OnFallback func(error)
}

// NewFallbackClassifier wraps external. A nil external means keyword-only.
func NewFallbackClassifier(external harassment.Classifier, keywords *harassment.KeywordClassifier, timeout time.Duration, logger *zap.Logger) *FallbackClassifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackClassifier{external: external, keywords: keywords, timeout: timeout, logger: logger}
}

// Classify implements harassment.Classifier.
func (f *FallbackClassifier) Classify(ctx context.Context, text string) (harassment.Result, error) {
	if f.external == nil {
		return f.keywords.Match(text), nil
	}
	res, err := f.tryExternal(ctx, text)
	if err == nil {
		return res, nil
	}

	f.logger.Warn("external classifier failed, using keyword classifier", zap.Error(err))
	if f.OnFallback != nil {
		f.OnFallback(err)
	}
	return f.keywords.Match(text), nil
}

type outcome struct {
	res harassment.Result
	err error
}

func (f *FallbackClassifier) tryExternal(ctx context.Context, text string) (harassment.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// buffered so the worker can always finish even after we stop waiting
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Errorf("external classifier panic: %v", r)}
			}
		}()
		res, err := f.external.Classify(ctx, text)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return harassment.Result{}, o.err
		}
		if err := o.res.Validate(); err != nil {
			return harassment.Result{}, err
		}
		return o.res, nil
	case <-ctx.Done():
		return harassment.Result{}, errors.Wrap(ctx.Err(), "external classifier")
	}
}

// Service exposes the companion chat.
type Service struct {
	companion domai.Companion
}

// NewService accepts a nil companion when no provider is configured.
func NewService(companion domai.Companion) *Service {
	return &Service{companion: companion}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool { return s != nil && s.companion != nil }

func (s *Service) Chat(ctx context.Context, history []domai.ChatTurn, message string) (string, error) {
	if !s.Enabled() {
		return "", domai.ErrDisabled
	}
	return s.companion.Reply(ctx, history, message)
}
