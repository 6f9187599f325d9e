// internal/session/storage_redis.go
package session

import (
	"context"
	"errors"
	"strconv"

	apperrors "fieldsales-console/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the session under two keys, <prefix>:token and
// <prefix>:teamId, so several console processes can share one login.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStorage(client redis.Cmdable, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "console:session"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) tokenKey() string  { return r.prefix + ":token" }
func (r *RedisStorage) teamIDKey() string { return r.prefix + ":teamId" }

func (r *RedisStorage) Load(ctx context.Context) (Persisted, error) {
	var p Persisted

	token, err := r.client.Get(ctx, r.tokenKey()).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return p, apperrors.NewStorageError("load session token", err)
	default:
		p.Token = token
	}

	raw, err := r.client.Get(ctx, r.teamIDKey()).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return p, apperrors.NewStorageError("load session team id", err)
	default:
		teamID, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			return p, apperrors.NewStorageError("parse session team id", convErr)
		}
		p.TeamID = teamID
	}

	return p, nil
}

func (r *RedisStorage) SaveToken(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.tokenKey(), token, 0).Err(); err != nil {
		return apperrors.NewStorageError("save session token", err)
	}
	return nil
}

func (r *RedisStorage) SaveTeamID(ctx context.Context, teamID int64) error {
	if err := r.client.Set(ctx, r.teamIDKey(), strconv.FormatInt(teamID, 10), 0).Err(); err != nil {
		return apperrors.NewStorageError("save session team id", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.teamIDKey()).Err(); err != nil {
		return apperrors.NewStorageError("clear session", err)
	}
	return nil
}
