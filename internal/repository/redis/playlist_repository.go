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

// ErrNoPlayableMedia is returned by NextMedia when the user has no active
// playlist or the active playlist is empty.
var ErrNoPlayableMedia = errors.NotFound("no playable media for user")

// PlaylistRepository owns playlist documents. The rotation core touches
// it in exactly two places: reading a DJ's next item on advance and
// appending a play-time snapshot on favorite.
type PlaylistRepository interface {
	Get(ctx context.Context, id string) (*domain.Playlist, error)
	Save(ctx context.Context, p *domain.Playlist) error
	// AppendItem adds item to the playlist and returns the new size.
	AppendItem(ctx context.Context, playlistID string, item domain.PlaylistItem) (int, error)
	// NextMedia returns the head item of the user's active playlist and
	// rotates it to the tail.
	NextMedia(ctx context.Context, userID string) (string, domain.PlaylistItem, error)
	SetActive(ctx context.Context, userID, playlistID string) error
}

type redisPlaylistRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisPlaylistRepository(cli *redis.Client, l logger.Logger) PlaylistRepository {
	return &redisPlaylistRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisPlaylistRepository) Get(ctx context.Context, id string) (*domain.Playlist, error) {
	data, err := r.cli.Get(ctx, r.playlistKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFound("playlist with ID %s not found", id)
	}
	if err != nil {
		r.l.Errorf(ctx, "redisPlaylistRepository.Get: %v", err)
		return nil, errors.Unavailable(err, "failed to read playlist")
	}

	var p domain.Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		r.l.Errorf(ctx, "redisPlaylistRepository.Get: %v", err)
		return nil, fmt.Errorf("failed to unmarshal playlist: %w", err)
	}

	return &p, nil
}

func (r *redisPlaylistRepository) Save(ctx context.Context, p *domain.Playlist) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	if err := r.cli.Set(ctx, r.playlistKey(p.ID), data, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisPlaylistRepository.Save: %v", err)
		return errors.Unavailable(err, "failed to save playlist")
	}

	return nil
}

func (r *redisPlaylistRepository) AppendItem(ctx context.Context, playlistID string, item domain.PlaylistItem) (int, error) {
	p, err := r.Get(ctx, playlistID)
	if err != nil {
		return 0, err
	}

	p.Items = append(p.Items, item)

	if err := r.Save(ctx, p); err != nil {
		return 0, err
	}

	r.l.Debugf(ctx, "Playlist item appended: playlist_id=%s item_id=%s", playlistID, item.ID)

	return len(p.Items), nil
}

func (r *redisPlaylistRepository) NextMedia(ctx context.Context, userID string) (string, domain.PlaylistItem, error) {
	playlistID, err := r.cli.Get(ctx, r.activeKey(userID)).Result()
	if err == redis.Nil {
		return "", domain.PlaylistItem{}, ErrNoPlayableMedia
	}
	if err != nil {
		r.l.Errorf(ctx, "redisPlaylistRepository.NextMedia: %v", err)
		return "", domain.PlaylistItem{}, errors.Unavailable(err, "failed to read active playlist")
	}

	p, err := r.Get(ctx, playlistID)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", domain.PlaylistItem{}, ErrNoPlayableMedia
		}
		return "", domain.PlaylistItem{}, err
	}

	if len(p.Items) == 0 {
		return "", domain.PlaylistItem{}, ErrNoPlayableMedia
	}

	// Rotate head to tail so repeated turns cycle through the playlist.
	item := p.Items[0]
	p.Items = append(p.Items[1:], item)

	if err := r.Save(ctx, p); err != nil {
		return "", domain.PlaylistItem{}, err
	}

	return playlistID, item, nil
}

func (r *redisPlaylistRepository) SetActive(ctx context.Context, userID, playlistID string) error {
	if err := r.cli.Set(ctx, r.activeKey(userID), playlistID, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisPlaylistRepository.SetActive: %v", err)
		return errors.Unavailable(err, "failed to set active playlist")
	}

	return nil
}

func (r *redisPlaylistRepository) playlistKey(id string) string {
	return fmt.Sprintf("playlist:%s", id)
}

func (r *redisPlaylistRepository) activeKey(userID string) string {
	return fmt.Sprintf("playlist:active:%s", userID)
}
