package repository

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// ErrEmptyWaitlist is returned by PopHead when there is nothing to pop.
var ErrEmptyWaitlist = errors.Conflict("waitlist is empty")

// WaitlistRepository is the ordered sequence of user IDs waiting for the
// booth, head first, plus the lock flag gating self-joins. Every mutation
// runs as a single Lua script so concurrent writers observe one global
// order and an entry can never be duplicated or lost.
type WaitlistRepository interface {
	List(ctx context.Context) ([]string, error)
	// Append adds userID to the tail. It returns false when the user is
	// already queued, which callers treat as a recoverable condition.
	Append(ctx context.Context, userID string) (bool, error)
	// InsertAt removes any existing occurrence of userID and inserts it at
	// the given position, clamped to [0, length] of the list after removal.
	InsertAt(ctx context.Context, userID string, position int) error
	// MoveAfter reinserts userID directly behind afterUserID. When the
	// anchor is absent the user goes to the head.
	MoveAfter(ctx context.Context, userID, afterUserID string) error
	Remove(ctx context.Context, userID string) error
	PopHead(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
	// SetLock flips the lock flag and, when alsoClear is set, empties the
	// waitlist in the same atomic step.
	SetLock(ctx context.Context, locked, alsoClear bool) error
	IsLocked(ctx context.Context) (bool, error)
}

type redisWaitlistRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisWaitlistRepository(cli *redis.Client, l logger.Logger) WaitlistRepository {
	return &redisWaitlistRepository{
		cli: cli,
		l:   l,
	}
}

const (
	waitlistKey     = "booth:waitlist"
	waitlistLockKey = "booth:waitlist:lock"
)

var appendScript = redis.NewScript(`
	local key = KEYS[1]
	local id = ARGV[1]

	local list = redis.call('LRANGE', key, 0, -1)
	for _, v in ipairs(list) do
		if v == id then
			return -1
		end
	end

	return redis.call('RPUSH', key, id)
`)

var insertAtScript = redis.NewScript(`
	local key = KEYS[1]
	local id = ARGV[1]
	local pos = tonumber(ARGV[2])

	redis.call('LREM', key, 0, id)

	local len = redis.call('LLEN', key)
	if pos < 0 then
		pos = 0
	end
	if pos >= len then
		redis.call('RPUSH', key, id)
		return len
	end

	local pivot = redis.call('LINDEX', key, pos)
	redis.call('LINSERT', key, 'BEFORE', pivot, id)
	return pos
`)

var moveAfterScript = redis.NewScript(`
	local key = KEYS[1]
	local id = ARGV[1]
	local after = ARGV[2]

	redis.call('LREM', key, 0, id)

	local list = redis.call('LRANGE', key, 0, -1)
	for i, v in ipairs(list) do
		if v == after then
			redis.call('LINSERT', key, 'AFTER', after, id)
			return i
		end
	end

	redis.call('LPUSH', key, id)
	return 0
`)

var setLockScript = redis.NewScript(`
	local lockKey = KEYS[1]
	local listKey = KEYS[2]

	if ARGV[1] == '1' then
		redis.call('SET', lockKey, '1')
	else
		redis.call('DEL', lockKey)
	end
	if ARGV[2] == '1' then
		redis.call('DEL', listKey)
	end

	return redis.call('EXISTS', lockKey)
`)

func (r *redisWaitlistRepository) List(ctx context.Context) ([]string, error) {
	list, err := r.cli.LRange(ctx, waitlistKey, 0, -1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.List: %v", err)
		return nil, errors.Unavailable(err, "failed to read waitlist")
	}

	return list, nil
}

func (r *redisWaitlistRepository) Append(ctx context.Context, userID string) (bool, error) {
	res, err := appendScript.Run(ctx, r.cli, []string{waitlistKey}, userID).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.Append: %v", err)
		return false, errors.Unavailable(err, "failed to append to waitlist")
	}

	if res < 0 {
		return false, nil
	}

	r.l.Debugf(ctx, "Appended to waitlist: user_id=%s length=%d", userID, res)

	return true, nil
}

func (r *redisWaitlistRepository) InsertAt(ctx context.Context, userID string, position int) error {
	pos, err := insertAtScript.Run(ctx, r.cli, []string{waitlistKey}, userID, position).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.InsertAt: %v", err)
		return errors.Unavailable(err, "failed to insert into waitlist")
	}

	r.l.Debugf(ctx, "Inserted into waitlist: user_id=%s position=%d", userID, pos)

	return nil
}

func (r *redisWaitlistRepository) MoveAfter(ctx context.Context, userID, afterUserID string) error {
	if userID == afterUserID {
		return errors.Conflict("cannot move a user after themselves")
	}

	pos, err := moveAfterScript.Run(ctx, r.cli, []string{waitlistKey}, userID, afterUserID).Int64()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.MoveAfter: %v", err)
		return errors.Unavailable(err, "failed to move waitlist entry")
	}

	r.l.Debugf(ctx, "Moved waitlist entry: user_id=%s position=%d", userID, pos)

	return nil
}

func (r *redisWaitlistRepository) Remove(ctx context.Context, userID string) error {
	if err := r.cli.LRem(ctx, waitlistKey, 0, userID).Err(); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.Remove: %v", err)
		return errors.Unavailable(err, "failed to remove from waitlist")
	}

	return nil
}

func (r *redisWaitlistRepository) PopHead(ctx context.Context) (string, error) {
	userID, err := r.cli.LPop(ctx, waitlistKey).Result()
	if err == redis.Nil {
		return "", ErrEmptyWaitlist
	}
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.PopHead: %v", err)
		return "", errors.Unavailable(err, "failed to pop waitlist head")
	}

	r.l.Debugf(ctx, "Popped waitlist head: user_id=%s", userID)

	return userID, nil
}

func (r *redisWaitlistRepository) Clear(ctx context.Context) error {
	if err := r.cli.Del(ctx, waitlistKey).Err(); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.Clear: %v", err)
		return errors.Unavailable(err, "failed to clear waitlist")
	}

	return nil
}

func (r *redisWaitlistRepository) SetLock(ctx context.Context, locked, alsoClear bool) error {
	if err := setLockScript.Run(ctx, r.cli,
		[]string{waitlistLockKey, waitlistKey},
		boolArg(locked), boolArg(alsoClear),
	).Err(); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.SetLock: %v", err)
		return errors.Unavailable(err, "failed to update waitlist lock")
	}

	r.l.Debugf(ctx, "Waitlist lock updated: locked=%v cleared=%v", locked, alsoClear)

	return nil
}

func (r *redisWaitlistRepository) IsLocked(ctx context.Context) (bool, error) {
	n, err := r.cli.Exists(ctx, waitlistLockKey).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.IsLocked: %v", err)
		return false, errors.Unavailable(err, "failed to read waitlist lock")
	}

	return n > 0, nil
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
