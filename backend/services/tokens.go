package services

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps issued refresh tokens in redis so they can be revoked.
// With a nil client the store accepts every token and membership checks pass;
// the JWT signature and type claim are then the only gate.
type TokenStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{Redis: client, TTL: ttl}
}

func (t *TokenStore) Save(ctx context.Context, userID uint, refreshToken string) error {
	if t.Redis == nil {
		return nil
	}
	return t.Redis.Set(ctx, "refresh_token:"+refreshToken,
		strconv.FormatUint(uint64(userID), 10), t.TTL).Err()
}

// Check reports whether the refresh token is still registered.
func (t *TokenStore) Check(ctx context.Context, refreshToken string) (bool, error) {
	if t.Redis == nil {
		return true, nil
	}
	_, err := t.Redis.Get(ctx, "refresh_token:"+refreshToken).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *TokenStore) Delete(ctx context.Context, refreshToken string) error {
	if t.Redis == nil {
		return nil
	}
	return t.Redis.Del(ctx, "refresh_token:"+refreshToken).Err()
}
