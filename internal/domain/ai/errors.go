package ai

import "github.com/pkg/errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrDisabled is returned when no provider credential is configured.
var ErrDisabled = errors.New("ai provider not configured")
