package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress, redisUsername, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// Token kinds stored with a TTL; the key layout is "<kind>:<token>".
const (
	TokenPasswordReset = "password-reset"
	TokenVerifyEmail   = "verify-email"
)

// SetToken stores value under a kind-prefixed token key with an expiry.
func SetToken(ctx context.Context, kind, token, value string, ttl time.Duration) error {
	if err := Rdb.Set(ctx, kind+":"+token, value, ttl).Err(); err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("failed to store token in redis")
		return err
	}
	return nil
}

// GetToken returns the value for a token, or "" when the token is unknown or
// expired.
func GetToken(ctx context.Context, kind, token string) (string, error) {
	value, err := Rdb.Get(ctx, kind+":"+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// DeleteToken consumes a token so it cannot be replayed.
func DeleteToken(ctx context.Context, kind, token string) error {
	return Rdb.Del(ctx, kind+":"+token).Err()
}
