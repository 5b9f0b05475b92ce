package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mixgrove/booth-service/internal/domain"
	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// UserRepository owns the user documents the moderation operations touch:
// role, username, ban state. Mutes live under their own key with a TTL so
// they expire on their own.
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	SetMute(ctx context.Context, id string, d time.Duration) error
	ClearMute(ctx context.Context, id string) error
	IsMuted(ctx context.Context, id string) (bool, error)
}

type redisUserRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisUserRepository(cli *redis.Client, l logger.Logger) UserRepository {
	return &redisUserRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisUserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	data, err := r.cli.Get(ctx, r.userKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFound("user with ID %s not found", id)
	}
	if err != nil {
		r.l.Errorf(ctx, "redisUserRepository.Get: %v", err)
		return nil, errors.Unavailable(err, "failed to read user")
	}

	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		r.l.Errorf(ctx, "redisUserRepository.Get: %v", err)
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &u, nil
}

func (r *redisUserRepository) Save(ctx context.Context, u *domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := r.cli.Set(ctx, r.userKey(u.ID), data, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisUserRepository.Save: %v", err)
		return errors.Unavailable(err, "failed to save user")
	}

	return nil
}

func (r *redisUserRepository) SetMute(ctx context.Context, id string, d time.Duration) error {
	if err := r.cli.Set(ctx, r.muteKey(id), "1", d).Err(); err != nil {
		r.l.Errorf(ctx, "redisUserRepository.SetMute: %v", err)
		return errors.Unavailable(err, "failed to mute user")
	}

	r.l.Debugf(ctx, "User muted: user_id=%s duration=%s", id, d)

	return nil
}

func (r *redisUserRepository) ClearMute(ctx context.Context, id string) error {
	if err := r.cli.Del(ctx, r.muteKey(id)).Err(); err != nil {
		r.l.Errorf(ctx, "redisUserRepository.ClearMute: %v", err)
		return errors.Unavailable(err, "failed to unmute user")
	}

	return nil
}

func (r *redisUserRepository) IsMuted(ctx context.Context, id string) (bool, error) {
	n, err := r.cli.Exists(ctx, r.muteKey(id)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisUserRepository.IsMuted: %v", err)
		return false, errors.Unavailable(err, "failed to read mute state")
	}

	return n > 0, nil
}

func (r *redisUserRepository) userKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (r *redisUserRepository) muteKey(id string) string {
	return fmt.Sprintf("mute:%s", id)
}
