// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// EmbeddingDimensions is the native dimensionality of sentence embeddings
// returned by providers.
const EmbeddingDimensions = 384

// EmbeddingProvider produces sentence embeddings for issue text.
// Implementations typically wrap a remote model server and must be safe for
// concurrent use.
type EmbeddingProvider interface {
	// Embed returns a 384-dimension embedding for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// ModelName identifies the embedding model, used in cache keys so a
	// model change invalidates cached embeddings.
	ModelName() string
}

// ResilientProviderConfig configures the resilient embedding wrapper.
type ResilientProviderConfig struct {
	// RequestsPerSecond rate-limits provider calls. Default 10.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default 5.
	Burst int

	// MaxRetries bounds retry attempts per embedding call. Default 2.
	MaxRetries int

	// Timeout bounds a single provider call. Default 5s.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before the
	// circuit opens. Default 5.
	FailureThreshold uint32

	// CooldownPeriod is how long the circuit stays open. Default 30s.
	CooldownPeriod time.Duration
}

// ResilientProvider wraps an EmbeddingProvider with rate limiting, bounded
// retries, and a circuit breaker. The scoring path never blocks unboundedly
// on the embedding step: once the budget is exhausted the caller falls back
// to zero-vector embeddings.
type ResilientProvider struct {
	inner   EmbeddingProvider
	config  ResilientProviderConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]float64]
	logger  zerolog.Logger
}

// NewResilientProvider wraps the given provider.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilientProvider(inner EmbeddingProvider, cfg ResilientProviderConfig, logger zerolog.Logger) *ResilientProvider {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = 30 * time.Second
	}

	p := &ResilientProvider{
		inner:   inner,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With().Str("component", "embedding").Logger(),
	}

	p.breaker = gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:    "embedding-provider",
		Timeout: cfg.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding circuit state change")
		},
	})

	return p
}

// ModelName returns the wrapped provider's model name.
func (p *ResilientProvider) ModelName() string {
	return p.inner.ModelName()
}

// Embed calls the wrapped provider with rate limiting, per-attempt timeouts,
// and bounded retries. When the circuit is open or retries are exhausted the
// error is returned; callers degrade to zero embeddings.
func (p *ResilientProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit: %w", err)
		}

		emb, err := p.breaker.Execute(func() ([]float64, error) {
			callCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
			defer cancel()
			return p.inner.Embed(callCtx, text)
		})
		if err == nil {
			return emb, nil
		}
		lastErr = err

		// Open circuit: retrying immediately cannot help.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
	}

	return nil, fmt.Errorf("embed after %d attempts: %w", p.config.MaxRetries+1, lastErr)
}
