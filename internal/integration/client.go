package integration

import (
	"context"
	"log/slog"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/cache"
	"github.com/KingInYellow18/medianest-sub018/internal/circuitbreaker"
	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/health"
	"github.com/KingInYellow18/medianest-sub018/internal/ratelimit"
	"github.com/KingInYellow18/medianest-sub018/internal/retry"
)

// Settings configures one external service's resilience behavior. Each
// service is tuned independently; nothing here is shared across
// services.
type Settings struct {
	Service          string
	FailureThreshold int
	ResetTimeout     time.Duration
	MaxAttempts      int
	BaseDelay        time.Duration
	CacheTTL         time.Duration
}

// CallOptions tunes one call. Zero values fall back to the client's
// configured defaults.
type CallOptions struct {
	CacheKey    string
	CacheTTL    time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// Client mediates all calls to one external service, composing the
// cache, rate limiter, circuit breaker and retry policy around the raw
// network operation. The breaker is owned exclusively by the client;
// cache, limiter and health monitor are shared, service-partitioned
// dependencies.
type Client struct {
	service  string
	breaker  *circuitbreaker.Breaker
	limiter  *ratelimit.Limiter
	cache    *cache.Store
	monitor  *health.Monitor
	policy   retry.Policy
	cacheTTL time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

func NewClient(
	settings Settings,
	limiter *ratelimit.Limiter,
	store *cache.Store,
	monitor *health.Monitor,
	clk clock.Clock,
	logger *slog.Logger,
) *Client {
	return &Client{
		service:  settings.Service,
		breaker:  circuitbreaker.New(settings.Service, settings.FailureThreshold, settings.ResetTimeout, clk),
		limiter:  limiter,
		cache:    store,
		monitor:  monitor,
		policy:   retry.Policy{MaxAttempts: settings.MaxAttempts, BaseDelay: settings.BaseDelay},
		cacheTTL: settings.CacheTTL,
		clock:    clk,
		logger:   logger,
	}
}

// Call performs one logical read-through call to the external service:
//
//  1. Serve from cache if a key is supplied and live — cached responses
//     consume no quota and skip the circuit check.
//  2. Check the caller's rate-limit window; rejection costs nothing
//     downstream.
//  3. Ask the circuit breaker for a permit.
//  4. Run op under the retry policy.
//  5. Record the final outcome into the breaker and the health monitor
//     exactly once, regardless of how many attempts ran underneath.
//
// Failures surface as *RateLimitError, *circuitbreaker.OpenError,
// *UpstreamError (fatal 4xx), or *retry.ExhaustedError wrapping the last
// transient cause.
func (c *Client) Call(ctx context.Context, subject string, op Operation, opts CallOptions) ([]byte, error) {
	if opts.CacheKey != "" {
		if value, ok := c.cache.Get(opts.CacheKey); ok {
			return value, nil
		}
	}

	decision := c.limiter.Allow(subject, c.service)
	if !decision.Allowed {
		return nil, &RateLimitError{Service: c.service, ResetAt: decision.ResetAt}
	}

	if err := c.breaker.BeforeCall(); err != nil {
		return nil, err
	}

	policy := c.policy
	if opts.MaxAttempts > 0 {
		policy.MaxAttempts = opts.MaxAttempts
	}
	if opts.BaseDelay > 0 {
		policy.BaseDelay = opts.BaseDelay
	}

	start := c.clock.Now()
	value, err := retry.Do(ctx, policy, op)
	elapsed := c.clock.Now().Sub(start)

	// One outcome per logical call. Every permit from BeforeCall is
	// resolved here, including cancellations, so a half-open probe slot
	// can never leak.
	if err != nil {
		c.breaker.OnFailure()
		c.monitor.Record(c.service, false, elapsed)
		c.logger.Warn("External service call failed",
			slog.String("service", c.service),
			slog.String("subject", subject),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", err))
		return nil, err
	}

	c.breaker.OnSuccess()
	c.monitor.Record(c.service, true, elapsed)

	if opts.CacheKey != "" {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = c.cacheTTL
		}
		if ttl > 0 {
			c.cache.Set(opts.CacheKey, value, ttl)
		}
	}

	return value, nil
}

func (c *Client) Service() string {
	return c.service
}

// CircuitState reports the breaker state for the health surface.
func (c *Client) CircuitState() circuitbreaker.State {
	return c.breaker.State()
}

// CircuitSnapshot exposes breaker internals for diagnostics.
func (c *Client) CircuitSnapshot() circuitbreaker.Snapshot {
	return c.breaker.Snapshot()
}
