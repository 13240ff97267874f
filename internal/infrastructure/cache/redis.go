package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

// TokenTTL bounds how long a descriptor is kept. Decimals and symbol are
// immutable, the TTL only limits storage growth.
const TokenTTL = 24 * time.Hour

// Cache stores resolved token descriptors
type Cache interface {
	GetToken(ctx context.Context, key string) (*entities.Token, error)
	SetToken(ctx context.Context, key string, token *entities.Token, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetToken retrieves a cached token, returning nil on a miss
func (c *RedisCache) GetToken(ctx context.Context, key string) (*entities.Token, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var token entities.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

// SetToken caches a token with TTL
func (c *RedisCache) SetToken(ctx context.Context, key string, token *entities.Token, ttl time.Duration) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// TokenCacheKey generates a cache key for a token descriptor. Addresses are
// lower-cased so checksummed and plain spellings share an entry.
func TokenCacheKey(chainID string, token string) string {
	return fmt.Sprintf("token:%s:%s", chainID, strings.ToLower(token))
}

// InMemoryCache implements Cache using in-memory storage (for testing/development)
type InMemoryCache struct {
	mu     sync.RWMutex
	tokens map[string]*cachedToken
}

type cachedToken struct {
	token     entities.Token
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		tokens: make(map[string]*cachedToken),
	}
}

func (c *InMemoryCache) GetToken(ctx context.Context, key string) (*entities.Token, error) {
	c.mu.RLock()
	cached, ok := c.tokens[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().Before(cached.expiresAt) {
		token := cached.token
		return &token, nil
	}

	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
	return nil, nil
}

func (c *InMemoryCache) SetToken(ctx context.Context, key string, token *entities.Token, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = &cachedToken{
		token:     *token,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}
