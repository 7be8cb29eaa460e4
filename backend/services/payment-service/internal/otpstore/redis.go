package otpstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps OTP material in redis, one key per concern, relying on
// key TTLs for expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a redis-backed OTP store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func codeKey(txnID int64) string       { return fmt.Sprintf("otp:code:%d", txnID) }
func attemptsKey(txnID int64) string   { return fmt.Sprintf("otp:attempts:%d", txnID) }
func resendsKey(txnID int64) string    { return fmt.Sprintf("otp:resends:%d", txnID) }
func lastResendKey(txnID int64) string { return fmt.Sprintf("otp:lastresend:%d", txnID) }

func (s *RedisStore) SetCode(ctx context.Context, txnID int64, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKey(txnID), code, ttl).Err()
}

func (s *RedisStore) GetCode(ctx context.Context, txnID int64) (string, error) {
	code, err := s.client.Get(ctx, codeKey(txnID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return code, err
}

func (s *RedisStore) DeleteCode(ctx context.Context, txnID int64) error {
	return s.client.Del(ctx, codeKey(txnID)).Err()
}

func (s *RedisStore) IncrAttempts(ctx context.Context, txnID int64, ttl time.Duration) (int64, error) {
	key := attemptsKey(txnID)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *RedisStore) ResetAttempts(ctx context.Context, txnID int64) error {
	return s.client.Del(ctx, attemptsKey(txnID)).Err()
}

func (s *RedisStore) ResendCount(ctx context.Context, txnID int64) (int64, error) {
	val, err := s.client.Get(ctx, resendsKey(txnID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func (s *RedisStore) IncrResendCount(ctx context.Context, txnID int64, ttl time.Duration) (int64, error) {
	key := resendsKey(txnID)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return count, err
	}
	return count, nil
}

func (s *RedisStore) LastResend(ctx context.Context, txnID int64) (time.Time, error) {
	val, err := s.client.Get(ctx, lastResendKey(txnID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, ErrNotFound
	}
	return time.UnixMilli(millis).UTC(), nil
}

func (s *RedisStore) SetLastResend(ctx context.Context, txnID int64, at time.Time, ttl time.Duration) error {
	return s.client.Set(ctx, lastResendKey(txnID), strconv.FormatInt(at.UnixMilli(), 10), ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, txnID int64) error {
	return s.client.Del(ctx, codeKey(txnID), attemptsKey(txnID), resendsKey(txnID), lastResendKey(txnID)).Err()
}
