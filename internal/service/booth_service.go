package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mixgrove/booth-service/config"
	kafka "github.com/mixgrove/booth-service/internal/delivery/kafka"
	"github.com/mixgrove/booth-service/internal/delivery/kafka/producer"
	"github.com/mixgrove/booth-service/internal/domain"
	repo "github.com/mixgrove/booth-service/internal/repository/redis"
	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// BoothService is the rotation engine: it owns the session lifecycle and
// the votes against the active session. Session transitions (advance,
// skip, replace) are serialized by a mutex so two concurrent transitions
// can never both pop the queue; votes deliberately run outside that lock
// and rely on the repository's session-identity check instead.
type BoothService interface {
	// GetBooth returns the current state, or nil when nothing is playing.
	GetBooth(ctx context.Context) (*domain.BoothState, error)
	// Advance ends the current session and starts the next from the queue
	// head. It returns nil when the queue ran out and the booth is empty.
	Advance(ctx context.Context) (*domain.BoothSession, error)
	// Skip ends the current DJ's turn. The DJ may skip themselves; anyone
	// else needs a moderator role.
	Skip(ctx context.Context, actor domain.Actor, targetID, reason string) error
	// Replace forces targetID to the front of the waitlist and advances.
	Replace(ctx context.Context, actor domain.Actor, targetID string) ([]string, error)
	// Vote casts an up or down vote against the session identified by
	// historyID. Votes whose session has ended are rejected as stale.
	Vote(ctx context.Context, actor domain.Actor, historyID string, dir domain.VoteDirection) error
	// Favorite copies the played media snapshot into the actor's playlist
	// and records the favorite. The playing DJ cannot favorite their own
	// session.
	Favorite(ctx context.Context, actor domain.Actor, playlistID, historyID string) (*FavoriteOutput, error)
	History(ctx context.Context, page, limit int) (*HistoryPage, error)
}

type boothService struct {
	wlRepo       repo.WaitlistRepository
	boothRepo    repo.BoothRepository
	historyRepo  repo.HistoryRepository
	playlistRepo repo.PlaylistRepository
	prod         producer.Producer
	l            logger.Logger
	cfg          config.BoothConfig

	// Guards the pop-next-and-start-session sequence.
	mu sync.Mutex
}

func NewBoothService(
	wlRepo repo.WaitlistRepository,
	boothRepo repo.BoothRepository,
	historyRepo repo.HistoryRepository,
	playlistRepo repo.PlaylistRepository,
	prod producer.Producer,
	l logger.Logger,
	cfg config.BoothConfig,
) BoothService {
	return &boothService{
		wlRepo:       wlRepo,
		boothRepo:    boothRepo,
		historyRepo:  historyRepo,
		playlistRepo: playlistRepo,
		prod:         prod,
		l:            l,
		cfg:          cfg,
	}
}

func (s *boothService) GetBooth(ctx context.Context) (*domain.BoothState, error) {
	historyID, err := s.boothRepo.CurrentHistoryID(ctx)
	if err != nil {
		return nil, err
	}
	if historyID == "" {
		return nil, nil
	}

	entry, err := s.historyRepo.Get(ctx, historyID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	tallies, err := s.boothRepo.Tallies(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.BoothState{
		HistoryID:  entry.ID,
		PlaylistID: entry.PlaylistID,
		UserID:     entry.UserID,
		Media:      entry.Media,
		PlayedAt:   entry.PlayedAt,
		Votes:      tallies,
	}, nil
}

func (s *boothService) Advance(ctx context.Context) (*domain.BoothSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.advanceLocked(ctx, nil)
}

// advanceLocked runs the transition under s.mu. prePublish, when set, is
// published after the transition commits and before the advance event so
// callers can prepend their own event (skip, boothReplace) in order.
func (s *boothService) advanceLocked(ctx context.Context, prePublish func(ctx context.Context)) (*domain.BoothSession, error) {
	cur, err := s.boothRepo.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if cur != nil {
		tallies, err := s.boothRepo.Tallies(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.historyRepo.Finalize(ctx, cur.HistoryID, tallies); err != nil {
			return nil, fmt.Errorf("failed to archive booth session: %w", err)
		}
	}

	for {
		userID, err := s.wlRepo.PopHead(ctx)
		if errors.IsConflict(err) {
			// Queue ran out; the booth goes dark.
			if err := s.boothRepo.ClearSession(ctx); err != nil {
				return nil, err
			}
			if prePublish != nil {
				prePublish(ctx)
			}
			s.publish(ctx, kafka.TypeBoothAdvance, kafka.BoothAdvanceEvent{})
			s.l.Infof(ctx, "Booth advanced to empty")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		playlistID, item, err := s.playlistRepo.NextMedia(ctx, userID)
		if errors.IsNotFound(err) {
			s.l.Warnf(ctx, "Skipping DJ with no playable media: user_id=%s", userID)
			continue
		}
		if err != nil {
			return nil, err
		}

		session := &domain.BoothSession{
			HistoryID:  uuid.NewString(),
			PlaylistID: playlistID,
			ItemID:     item.ID,
			UserID:     userID,
			Media:      item.Media,
			StartedAt:  time.Now(),
		}

		entry := &domain.HistoryEntry{
			ID:         session.HistoryID,
			PlaylistID: playlistID,
			ItemID:     item.ID,
			UserID:     userID,
			Media:      item.Media,
			PlayedAt:   session.StartedAt,
		}
		if err := s.historyRepo.Append(ctx, entry); err != nil {
			return nil, err
		}

		if err := s.boothRepo.StartSession(ctx, session); err != nil {
			return nil, err
		}

		if prePublish != nil {
			prePublish(ctx)
		}
		s.publish(ctx, kafka.TypeBoothAdvance, kafka.BoothAdvanceEvent{
			HistoryID:  session.HistoryID,
			UserID:     session.UserID,
			PlaylistID: session.PlaylistID,
			Media:      session.Media,
			PlayedAt:   session.StartedAt,
		})

		s.l.Infof(ctx, "Booth advanced: user_id=%s history_id=%s", session.UserID, session.HistoryID)

		return session, nil
	}
}

func (s *boothService) Skip(ctx context.Context, actor domain.Actor, targetID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.boothRepo.GetSession(ctx)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrBoothEmpty
	}

	if actor.ID != cur.UserID && !domain.Allow(actor.Role, domain.ActionBoothSkipOther) {
		return ErrForbidden
	}

	if targetID != "" && targetID != cur.UserID {
		return errors.Conflict("user %s is not in the booth", targetID)
	}

	skipped := cur.UserID
	_, err = s.advanceLocked(ctx, func(ctx context.Context) {
		s.publish(ctx, kafka.TypeBoothSkip, kafka.BoothSkipEvent{
			ModeratorID: actor.ID,
			UserID:      skipped,
			Reason:      reason,
		})
	})
	if err != nil {
		return err
	}

	s.l.Infof(ctx, "Booth skipped: user_id=%s moderator_id=%s reason=%q", skipped, actor.ID, reason)

	return nil
}

func (s *boothService) Replace(ctx context.Context, actor domain.Actor, targetID string) ([]string, error) {
	if !domain.Allow(actor.Role, domain.ActionBoothReplace) {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repo.ErrEmptyWaitlist
	}

	// A queued target moves to the head; an absent one is inserted there.
	if err := s.wlRepo.InsertAt(ctx, targetID, 0); err != nil {
		return nil, fmt.Errorf("failed to move replacement to head: %w", err)
	}

	if _, err := s.advanceLocked(ctx, func(ctx context.Context) {
		s.publish(ctx, kafka.TypeBoothReplace, kafka.BoothReplaceEvent{
			ModeratorID: actor.ID,
			UserID:      targetID,
		})
	}); err != nil {
		return nil, err
	}

	return s.wlRepo.List(ctx)
}

func (s *boothService) Vote(ctx context.Context, actor domain.Actor, historyID string, dir domain.VoteDirection) error {
	if historyID == "" {
		current, err := s.boothRepo.CurrentHistoryID(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			return ErrBoothEmpty
		}
		historyID = current
	}

	applied, err := s.boothRepo.CastVote(ctx, historyID, actor.ID, dir)
	if err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	if !applied {
		return ErrStaleVote
	}

	s.publish(ctx, kafka.TypeBoothVote, kafka.BoothVoteEvent{
		UserID:    actor.ID,
		Direction: int(dir),
	})

	return nil
}

func (s *boothService) Favorite(ctx context.Context, actor domain.Actor, playlistID, historyID string) (*FavoriteOutput, error) {
	entry, err := s.historyRepo.Get(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if entry.UserID == actor.ID {
		return nil, ErrOwnSession
	}

	playlist, err := s.playlistRepo.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.Author != actor.ID {
		return nil, ErrNotPlaylistOwner
	}

	// Copy the snapshot recorded at play time, not the live source item.
	item := domain.PlaylistItem{
		ID:    uuid.NewString(),
		Media: entry.Media,
	}

	size, err := s.playlistRepo.AppendItem(ctx, playlistID, item)
	if err != nil {
		return nil, fmt.Errorf("failed to copy media into playlist: %w", err)
	}

	// Tally only counts toward the session that is still playing; a
	// favorite on an older entry keeps the playlist copy regardless.
	if _, err := s.boothRepo.MarkFavorite(ctx, historyID, actor.ID); err != nil {
		s.l.Errorf(ctx, "boothService.Favorite: failed to record tally: %v", err)
	}

	s.publish(ctx, kafka.TypeBoothFavorite, kafka.BoothFavoriteEvent{
		UserID:     actor.ID,
		PlaylistID: playlistID,
	})

	return &FavoriteOutput{
		PlaylistSize: size,
		Added:        []domain.PlaylistItem{item},
	}, nil
}

func (s *boothService) History(ctx context.Context, page, limit int) (*HistoryPage, error) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = s.cfg.HistoryPageSize
	}

	entries, total, err := s.historyRepo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Entries: entries,
	}, nil
}

func (s *boothService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.prod.Publish(ctx, eventType, payload); err != nil {
		s.l.Errorf(ctx, "boothService: failed to publish %s event: %v", eventType, err)
	}
}
