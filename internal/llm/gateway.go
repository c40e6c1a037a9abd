package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/credential"
	"golang.org/x/time/rate"
)

// Gateway issues one logical generation request by trying the credentials of
// a pool strictly in order. The first success wins. Quota exhaustion moves on
// to the next credential; any other failure stops rotation immediately.
type Gateway struct {
	backend  Backend
	logger   *slog.Logger
	cooldown CooldownTracker
	limiter  *rate.Limiter
	now      func() time.Time
	pool     credential.Pool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCooldownTracker injects cross-request quota memory.
func WithCooldownTracker(t CooldownTracker) Option {
	return func(g *Gateway) {
		g.cooldown = t
	}
}

// WithRateLimit throttles logical requests to rpm per minute. The limit is
// taken once per request, never between credential attempts. Zero disables it.
func WithRateLimit(rpm int) Option {
	return func(g *Gateway) {
		if rpm <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// NewGateway creates a gateway over pool using backend for each attempt.
func NewGateway(pool credential.Pool, backend Backend, opts ...Option) *Gateway {
	g := &Gateway{
		pool:    pool,
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Pool returns the credential pool the gateway rotates over.
func (g *Gateway) Pool() credential.Pool {
	return g.pool
}

// Generate runs req against the pool.
//
// Errors:
//   - *common.ConfigurationError when the pool is empty (no call is made)
//   - *common.UpstreamError for the first non-quota failure
//   - *common.AllCredentialsExhaustedError when every credential hit its quota
//   - the context error when ctx ends before or during an attempt
func (g *Gateway) Generate(ctx context.Context, req Request) (Outcome, error) {
	if g.pool.Len() == 0 {
		return Outcome{}, &common.ConfigurationError{Err: credential.ErrNoCredentials}
	}
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Outcome{}, fmt.Errorf("rate limiter canceled: %w", err)
		}
	}

	var (
		lastErr  error
		attempts int
	)

	for i := 0; i < g.pool.Len(); i++ {
		cred := g.pool.At(i)

		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("generation canceled after %d attempts: %w", attempts, err)
		}

		if g.cooldown != nil && !g.cooldown.Available(cred, g.now()) {
			g.logger.DebugContext(ctx, "Skipping credential in cooldown",
				"slot", cred.Slot,
				"index", cred.Index)
			continue
		}

		attempts++
		g.logger.DebugContext(ctx, "Calling model",
			"model", req.Model,
			"slot", cred.Slot,
			"index", cred.Index,
			"attempt", attempts)

		text, err := g.backend.GenerateContent(ctx, cred, req)
		if err == nil {
			if g.cooldown != nil {
				g.cooldown.MarkSucceeded(cred)
			}
			g.logger.InfoContext(ctx, "Model call succeeded",
				"slot", cred.Slot,
				"index", cred.Index,
				"attempts", attempts)
			return Outcome{
				Text:            text,
				Slot:            cred.Slot,
				CredentialIndex: cred.Index,
				Attempts:        attempts,
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}

		if !IsQuotaExhausted(err) {
			g.logger.ErrorContext(ctx, "Model call failed, not rotating",
				"slot", cred.Slot,
				"index", cred.Index,
				"error", err)
			return Outcome{}, &common.UpstreamError{Err: err, Credential: cred.String()}
		}

		lastErr = &common.QuotaExhaustedError{Err: err, Credential: cred.String()}
		if g.cooldown != nil {
			g.cooldown.MarkExhausted(cred, g.now())
		}
		g.logger.WarnContext(ctx, "Credential quota exhausted, switching to next",
			"slot", cred.Slot,
			"index", cred.Index)
	}

	if lastErr == nil {
		lastErr = ErrAllCoolingDown
	}

	g.logger.ErrorContext(ctx, "All credentials exhausted",
		"pool_size", g.pool.Len(),
		"attempts", attempts,
		"error", lastErr)
	return Outcome{}, &common.AllCredentialsExhaustedError{Err: lastErr, Attempts: attempts}
}
