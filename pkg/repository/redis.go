package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/cart"
	"github.com/example/marketplace/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNoSession is returned when a session token is unknown or expired.
var ErrNoSession = errors.New("session not found")

// RedisRepository backs the session and cart stores. Sessions map an
// opaque token to a user id; carts are JSON blobs keyed by the same
// token, so each mutation is a single atomic SET.
type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func cartKey(token string) string {
	return fmt.Sprintf("cart:%s", token)
}

// CreateSession issues a fresh token. A user id of 0 marks an
// anonymous session, used for carts built before sign-in.
func (r *RedisRepository) CreateSession(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := r.Set(ctx, sessionKey(token), userID, ttl); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// BindSession attaches a user to an existing token, upgrading an
// anonymous session in place so its cart survives sign-in.
func (r *RedisRepository) BindSession(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if err := r.Set(ctx, sessionKey(token), userID, ttl); err != nil {
		return fmt.Errorf("failed to bind session: %w", err)
	}
	return nil
}

// SessionUser resolves a token to its user id (0 when anonymous).
func (r *RedisRepository) SessionUser(ctx context.Context, token string) (uint, error) {
	var userID uint
	value, err := r.Get(ctx, sessionKey(token))
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	if _, err := fmt.Sscanf(value, "%d", &userID); err != nil {
		return 0, fmt.Errorf("corrupt session value %q: %w", value, err)
	}
	return userID, nil
}

// DeleteSession drops the session and its cart.
func (r *RedisRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.Del(ctx, sessionKey(token), cartKey(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Cart loads the cart for a session token, empty when none exists.
func (r *RedisRepository) Cart(ctx context.Context, token string) (*cart.Cart, error) {
	c := cart.New()
	err := r.GetJSON(ctx, cartKey(token), c)
	if errors.Is(err, redis.Nil) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return c, nil
}

// SaveCart rewrites the whole cart in one SET. An empty cart deletes
// the key instead.
func (r *RedisRepository) SaveCart(ctx context.Context, token string, c *cart.Cart, ttl time.Duration) error {
	if c.IsEmpty() {
		if err := r.Del(ctx, cartKey(token)); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	}
	if err := r.SetJSON(ctx, cartKey(token), c, ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
