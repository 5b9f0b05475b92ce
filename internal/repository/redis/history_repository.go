package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mixgrove/booth-service/internal/domain"
	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// HistoryRepository is the append-only log of booth sessions. An entry is
// appended when its session starts; Finalize stamps the closing vote
// tallies onto it once the session ends. Entries are immutable afterward.
type HistoryRepository interface {
	Append(ctx context.Context, e *domain.HistoryEntry) error
	Finalize(ctx context.Context, id string, votes domain.VoteTallies) error
	Get(ctx context.Context, id string) (*domain.HistoryEntry, error)
	// List returns entries newest first. page is 0-based; limit has no
	// upper bound by contract, callers supply the default.
	List(ctx context.Context, page, limit int) ([]domain.HistoryEntry, int64, error)
}

type redisHistoryRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisHistoryRepository(cli *redis.Client, l logger.Logger) HistoryRepository {
	return &redisHistoryRepository{
		cli: cli,
		l:   l,
	}
}

const historyListKey = "booth:history"

func (r *redisHistoryRepository) Append(ctx context.Context, e *domain.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := r.cli.TxPipeline()
	pipe.Set(ctx, r.entryKey(e.ID), data, 0)
	pipe.LPush(ctx, historyListKey, e.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.Append: %v", err)
		return errors.Unavailable(err, "failed to append history entry")
	}

	r.l.Debugf(ctx, "History entry appended: id=%s user_id=%s", e.ID, e.UserID)

	return nil
}

func (r *redisHistoryRepository) Finalize(ctx context.Context, id string, votes domain.VoteTallies) error {
	e, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	e.Votes = votes

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := r.cli.Set(ctx, r.entryKey(id), data, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.Finalize: %v", err)
		return errors.Unavailable(err, "failed to finalize history entry")
	}

	return nil
}

func (r *redisHistoryRepository) Get(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	data, err := r.cli.Get(ctx, r.entryKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFound("history entry with ID %s not found", id)
	}
	if err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.Get: %v", err)
		return nil, errors.Unavailable(err, "failed to read history entry")
	}

	var e domain.HistoryEntry
	if err := json.Unmarshal(data, &e); err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.Get: %v", err)
		return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
	}

	return &e, nil
}

func (r *redisHistoryRepository) List(ctx context.Context, page, limit int) ([]domain.HistoryEntry, int64, error) {
	total, err := r.cli.LLen(ctx, historyListKey).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.List: %v", err)
		return nil, 0, errors.Unavailable(err, "failed to read history length")
	}

	start := int64(page) * int64(limit)
	stop := start + int64(limit) - 1

	ids, err := r.cli.LRange(ctx, historyListKey, start, stop).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisHistoryRepository.List: %v", err)
		return nil, 0, errors.Unavailable(err, "failed to read history page")
	}

	entries := make([]domain.HistoryEntry, 0, len(ids))
	for _, id := range ids {
		e, err := r.Get(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, 0, err
		}
		entries = append(entries, *e)
	}

	return entries, total, nil
}

func (r *redisHistoryRepository) entryKey(id string) string {
	return fmt.Sprintf("history:%s", id)
}
