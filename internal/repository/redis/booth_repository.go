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

// BoothRepository holds the single active session snapshot and its vote
// tallies. Tallies are Redis lists in most-recent-first order; a voter
// appears at most once per list. Vote writes carry the history ID the
// caller observed and are dropped when it no longer matches the active
// session, so a vote can never land on a session that ended underneath it.
type BoothRepository interface {
	GetSession(ctx context.Context) (*domain.BoothSession, error)
	// StartSession writes the new session, points the current-history
	// marker at it and resets all tallies in one transaction.
	StartSession(ctx context.Context, s *domain.BoothSession) error
	ClearSession(ctx context.Context) error
	CurrentHistoryID(ctx context.Context) (string, error)
	Tallies(ctx context.Context) (domain.VoteTallies, error)
	// CastVote records an up or down vote. The two directions are mutually
	// exclusive per user. It returns false when historyID is stale.
	CastVote(ctx context.Context, historyID, userID string, dir domain.VoteDirection) (bool, error)
	// MarkFavorite records a favorite, refreshing recency on repeats.
	// It returns false when historyID is stale.
	MarkFavorite(ctx context.Context, historyID, userID string) (bool, error)
}

type redisBoothRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisBoothRepository(cli *redis.Client, l logger.Logger) BoothRepository {
	return &redisBoothRepository{
		cli: cli,
		l:   l,
	}
}

const (
	sessionKey   = "booth:session"
	historyIDKey = "booth:historyID"
	upvotesKey   = "booth:upvotes"
	downvotesKey = "booth:downvotes"
	favoritesKey = "booth:favorites"
)

var castVoteScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if not current or current ~= ARGV[1] then
		return 0
	end

	redis.call('LREM', KEYS[3], 0, ARGV[2])
	redis.call('LREM', KEYS[2], 0, ARGV[2])
	redis.call('LPUSH', KEYS[2], ARGV[2])
	return 1
`)

var markFavoriteScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if not current or current ~= ARGV[1] then
		return 0
	end

	redis.call('LREM', KEYS[2], 0, ARGV[2])
	redis.call('LPUSH', KEYS[2], ARGV[2])
	return 1
`)

func (r *redisBoothRepository) GetSession(ctx context.Context) (*domain.BoothSession, error) {
	data, err := r.cli.Get(ctx, sessionKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.GetSession: %v", err)
		return nil, errors.Unavailable(err, "failed to read booth session")
	}

	var s domain.BoothSession
	if err := json.Unmarshal(data, &s); err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.GetSession: %v", err)
		return nil, fmt.Errorf("failed to unmarshal booth session: %w", err)
	}

	return &s, nil
}

func (r *redisBoothRepository) StartSession(ctx context.Context, s *domain.BoothSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal booth session: %w", err)
	}

	// MULTI/EXEC so no reader sees the new session with the old tallies.
	pipe := r.cli.TxPipeline()
	pipe.Set(ctx, sessionKey, data, 0)
	pipe.Set(ctx, historyIDKey, s.HistoryID, 0)
	pipe.Del(ctx, upvotesKey, downvotesKey, favoritesKey)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.StartSession: %v", err)
		return errors.Unavailable(err, "failed to start booth session")
	}

	r.l.Debugf(ctx, "Booth session started: history_id=%s user_id=%s", s.HistoryID, s.UserID)

	return nil
}

func (r *redisBoothRepository) ClearSession(ctx context.Context) error {
	pipe := r.cli.TxPipeline()
	pipe.Del(ctx, sessionKey, historyIDKey)
	pipe.Del(ctx, upvotesKey, downvotesKey, favoritesKey)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.ClearSession: %v", err)
		return errors.Unavailable(err, "failed to clear booth session")
	}

	return nil
}

func (r *redisBoothRepository) CurrentHistoryID(ctx context.Context) (string, error) {
	id, err := r.cli.Get(ctx, historyIDKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.CurrentHistoryID: %v", err)
		return "", errors.Unavailable(err, "failed to read current history ID")
	}

	return id, nil
}

func (r *redisBoothRepository) Tallies(ctx context.Context) (domain.VoteTallies, error) {
	pipe := r.cli.Pipeline()
	up := pipe.LRange(ctx, upvotesKey, 0, -1)
	down := pipe.LRange(ctx, downvotesKey, 0, -1)
	fav := pipe.LRange(ctx, favoritesKey, 0, -1)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.Tallies: %v", err)
		return domain.VoteTallies{}, errors.Unavailable(err, "failed to read vote tallies")
	}

	return domain.VoteTallies{
		Upvotes:   up.Val(),
		Downvotes: down.Val(),
		Favorites: fav.Val(),
	}, nil
}

func (r *redisBoothRepository) CastVote(ctx context.Context, historyID, userID string, dir domain.VoteDirection) (bool, error) {
	addKey, remKey := upvotesKey, downvotesKey
	if dir == domain.VoteDown {
		addKey, remKey = downvotesKey, upvotesKey
	}

	applied, err := castVoteScript.Run(ctx, r.cli,
		[]string{historyIDKey, addKey, remKey},
		historyID, userID,
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.CastVote: %v", err)
		return false, errors.Unavailable(err, "failed to cast vote")
	}

	if applied == 0 {
		r.l.Debugf(ctx, "Dropped stale vote: history_id=%s user_id=%s", historyID, userID)
		return false, nil
	}

	return true, nil
}

func (r *redisBoothRepository) MarkFavorite(ctx context.Context, historyID, userID string) (bool, error) {
	applied, err := markFavoriteScript.Run(ctx, r.cli,
		[]string{historyIDKey, favoritesKey},
		historyID, userID,
	).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisBoothRepository.MarkFavorite: %v", err)
		return false, errors.Unavailable(err, "failed to mark favorite")
	}

	return applied == 1, nil
}
