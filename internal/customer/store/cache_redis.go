package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	customermetrics "customerapi/internal/customer/metrics"
	"customerapi/internal/customer/models"
	id "customerapi/pkg/domain"
	"customerapi/pkg/platform/circuit"
	"customerapi/pkg/platform/tx"
)

const (
	customerKeyPrefix    = "customer:"
	defaultProbeInterval = 5 * time.Second
)

// Backend is the store a CachedStore reads through to.
type Backend interface {
	Save(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindAll(ctx context.Context) ([]*models.Customer, error)
	DeleteByID(ctx context.Context, customerID id.CustomerID) error
	DeleteAll(ctx context.Context) error
}

type cachedCustomer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedStore caches FindByID results in Redis in front of a Backend.
// Redis failures never fail a call. While the breaker is open reads skip
// Redis entirely; invalidations are still attempted and their outcome drives
// the breaker back to closed.
type CachedStore struct {
	backend Backend
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *customermetrics.Metrics

	probeInterval time.Duration
	probeMu       sync.Mutex
	lastProbe     time.Time
}

type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(s *CachedStore) {
		s.logger = logger
	}
}

func WithCacheMetrics(m *customermetrics.Metrics) CacheOption {
	return func(s *CachedStore) {
		s.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(s *CachedStore) {
		if b != nil {
			s.breaker = b
		}
	}
}

// WithProbeInterval sets how often an open breaker pings Redis.
func WithProbeInterval(d time.Duration) CacheOption {
	return func(s *CachedStore) {
		if d > 0 {
			s.probeInterval = d
		}
	}
}

func NewCachedStore(backend Backend, client *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedStore {
	s := &CachedStore{
		backend:       backend,
		client:        client,
		ttl:           ttl,
		breaker:       circuit.New("customer-cache"),
		logger:        slog.Default(),
		probeInterval: defaultProbeInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func customerKey(customerID id.CustomerID) string {
	return customerKeyPrefix + customerID.String()
}

func (s *CachedStore) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	if s.readsEnabled(ctx) {
		raw, err := s.client.Get(ctx, customerKey(customerID)).Bytes()
		switch {
		case err == nil:
			s.recordSuccess(ctx)
			if c, decodeErr := decodeCustomer(raw); decodeErr == nil {
				s.metrics.IncCacheHit()
				return c, nil
			}
			s.logger.WarnContext(ctx, "discarding undecodable cache entry", "customer_id", customerID.String())
		case errors.Is(err, redis.Nil):
			s.recordSuccess(ctx)
		default:
			s.recordFailure(ctx, "get", err)
		}
	}

	s.metrics.IncCacheMiss()
	c, err := s.backend.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, c)
	return c, nil
}

func (s *CachedStore) FindAll(ctx context.Context) ([]*models.Customer, error) {
	return s.backend.FindAll(ctx)
}

func (s *CachedStore) Save(ctx context.Context, c *models.Customer) error {
	if err := s.backend.Save(ctx, c); err != nil {
		return err
	}
	s.invalidateWrite(ctx, customerKey(c.ID))
	return nil
}

func (s *CachedStore) DeleteByID(ctx context.Context, customerID id.CustomerID) error {
	if err := s.backend.DeleteByID(ctx, customerID); err != nil {
		return err
	}
	s.invalidateWrite(ctx, customerKey(customerID))
	return nil
}

func (s *CachedStore) DeleteAll(ctx context.Context) error {
	if err := s.backend.DeleteAll(ctx); err != nil {
		return err
	}
	s.dropAll(ctx)
	tx.AfterCommit(ctx, s.dropAll)
	return nil
}

func (s *CachedStore) dropAll(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, customerKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.recordFailure(ctx, "scan", err)
		return
	}
	if len(keys) > 0 {
		s.invalidate(ctx, keys...)
		return
	}
	s.recordSuccess(ctx)
}

// readsEnabled reports whether Redis should be consulted. When the breaker is
// open it pings Redis at most once per probe interval so it can recover
// without write traffic.
func (s *CachedStore) readsEnabled(ctx context.Context) bool {
	if !s.breaker.IsOpen() {
		return true
	}
	s.probeMu.Lock()
	due := time.Since(s.lastProbe) >= s.probeInterval
	if due {
		s.lastProbe = time.Now()
	}
	s.probeMu.Unlock()
	if !due {
		return false
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.recordFailure(ctx, "probe", err)
		return false
	}
	s.recordSuccess(ctx)
	return !s.breaker.IsOpen()
}

func (s *CachedStore) populate(ctx context.Context, c *models.Customer) {
	if s.breaker.IsOpen() {
		return
	}
	raw, err := encodeCustomer(c)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode customer for cache", "error", err)
		return
	}
	if err := s.client.Set(ctx, customerKey(c.ID), raw, s.ttl).Err(); err != nil {
		s.recordFailure(ctx, "set", err)
		return
	}
	s.recordSuccess(ctx)
}

// invalidateWrite drops keys now and again once the enclosing transaction,
// if any, commits.
func (s *CachedStore) invalidateWrite(ctx context.Context, keys ...string) {
	s.invalidate(ctx, keys...)
	tx.AfterCommit(ctx, func(ctx context.Context) {
		s.invalidate(ctx, keys...)
	})
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.recordFailure(ctx, "del", err)
		return
	}
	s.recordSuccess(ctx)
}

func (s *CachedStore) recordFailure(ctx context.Context, op string, err error) {
	s.metrics.IncCacheError()
	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.metrics.SetCacheBreakerOpen(true)
		s.logger.WarnContext(ctx, "customer cache circuit opened", "op", op, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "customer cache error", "op", op, "error", err)
}

func (s *CachedStore) recordSuccess(ctx context.Context) {
	_, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.metrics.SetCacheBreakerOpen(false)
		s.logger.InfoContext(ctx, "customer cache circuit closed")
	}
}

func encodeCustomer(c *models.Customer) ([]byte, error) {
	return json.Marshal(cachedCustomer{
		ID:        int64(c.ID),
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
}

func decodeCustomer(raw []byte) (*models.Customer, error) {
	var cc cachedCustomer
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode cached customer: %w", err)
	}
	return &models.Customer{
		ID:        id.CustomerID(cc.ID),
		Name:      cc.Name,
		Email:     cc.Email,
		CreatedAt: cc.CreatedAt,
		UpdatedAt: cc.UpdatedAt,
	}, nil
}
