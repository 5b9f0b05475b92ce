package service

import (
	"context"
	"fmt"

	kafka "github.com/mixgrove/booth-service/internal/delivery/kafka"
	"github.com/mixgrove/booth-service/internal/delivery/kafka/producer"
	"github.com/mixgrove/booth-service/internal/domain"
	repo "github.com/mixgrove/booth-service/internal/repository/redis"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// WaitlistService mutates the shared DJ queue. Authorization runs before
// any store access; events go out only after the mutation committed.
type WaitlistService interface {
	GetState(ctx context.Context) (*WaitlistState, error)
	// Append adds targetID to the tail. Anyone may append themselves
	// while the waitlist is unlocked; appending someone else, or joining
	// a locked waitlist, takes a moderator.
	Append(ctx context.Context, actor domain.Actor, targetID string) ([]string, error)
	InsertAt(ctx context.Context, actor domain.Actor, targetID string, position int) ([]string, error)
	MoveTo(ctx context.Context, actor domain.Actor, targetID string, position int) ([]string, error)
	MoveAfter(ctx context.Context, actor domain.Actor, targetID, afterID string) ([]string, error)
	// Leave removes targetID. Users may remove themselves; removing
	// another user takes a moderator. Removing an absent user is a no-op.
	Leave(ctx context.Context, actor domain.Actor, targetID string) ([]string, error)
	Clear(ctx context.Context, actor domain.Actor) error
	SetLock(ctx context.Context, actor domain.Actor, locked, alsoClear bool) (*WaitlistState, error)
}

type waitlistService struct {
	wlRepo    repo.WaitlistRepository
	boothRepo repo.BoothRepository
	prod      producer.Producer
	l         logger.Logger
}

func NewWaitlistService(
	wlRepo repo.WaitlistRepository,
	boothRepo repo.BoothRepository,
	prod producer.Producer,
	l logger.Logger,
) WaitlistService {
	return &waitlistService{
		wlRepo:    wlRepo,
		boothRepo: boothRepo,
		prod:      prod,
		l:         l,
	}
}

func (s *waitlistService) GetState(ctx context.Context) (*WaitlistState, error) {
	locked, err := s.wlRepo.IsLocked(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &WaitlistState{Locked: locked, Waitlist: list}, nil
}

func (s *waitlistService) Append(ctx context.Context, actor domain.Actor, targetID string) ([]string, error) {
	isModerator := domain.Allow(actor.Role, domain.ActionWaitlistAdd)

	if actor.ID != targetID && !isModerator {
		return nil, ErrForbidden
	}

	if !isModerator {
		locked, err := s.wlRepo.IsLocked(ctx)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrLocked
		}
	}

	if err := s.checkNotInBooth(ctx, targetID); err != nil {
		return nil, err
	}

	added, err := s.wlRepo.Append(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to append to waitlist: %w", err)
	}
	if !added {
		return nil, ErrAlreadyQueued
	}

	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	ev := kafka.WaitlistJoinEvent{
		UserID:   targetID,
		Position: indexOf(list, targetID),
		Waitlist: list,
	}
	if actor.ID != targetID {
		ev.ModeratorID = actor.ID
	}
	s.publish(ctx, kafka.TypeWaitlistJoin, ev)

	s.l.Infof(ctx, "User joined waitlist: user_id=%s position=%d", targetID, ev.Position)

	return list, nil
}

func (s *waitlistService) InsertAt(ctx context.Context, actor domain.Actor, targetID string, position int) ([]string, error) {
	if !domain.Allow(actor.Role, domain.ActionWaitlistInsert) {
		return nil, ErrForbidden
	}

	if err := s.checkNotInBooth(ctx, targetID); err != nil {
		return nil, err
	}

	before, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	wasQueued := indexOf(before, targetID) >= 0

	if err := s.wlRepo.InsertAt(ctx, targetID, position); err != nil {
		return nil, fmt.Errorf("failed to insert into waitlist: %w", err)
	}

	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	pos := indexOf(list, targetID)
	if wasQueued {
		s.publish(ctx, kafka.TypeWaitlistMove, kafka.WaitlistMoveEvent{
			UserID:      targetID,
			ModeratorID: actor.ID,
			Position:    pos,
			Waitlist:    list,
		})
	} else {
		s.publish(ctx, kafka.TypeWaitlistJoin, kafka.WaitlistJoinEvent{
			UserID:      targetID,
			ModeratorID: actor.ID,
			Position:    pos,
			Waitlist:    list,
		})
	}

	return list, nil
}

func (s *waitlistService) MoveTo(ctx context.Context, actor domain.Actor, targetID string, position int) ([]string, error) {
	if !domain.Allow(actor.Role, domain.ActionWaitlistMove) {
		return nil, ErrForbidden
	}

	if err := s.wlRepo.InsertAt(ctx, targetID, position); err != nil {
		return nil, fmt.Errorf("failed to move waitlist entry: %w", err)
	}

	return s.publishMove(ctx, actor, targetID)
}

func (s *waitlistService) MoveAfter(ctx context.Context, actor domain.Actor, targetID, afterID string) ([]string, error) {
	if !domain.Allow(actor.Role, domain.ActionWaitlistMove) {
		return nil, ErrForbidden
	}

	if err := s.wlRepo.MoveAfter(ctx, targetID, afterID); err != nil {
		return nil, fmt.Errorf("failed to move waitlist entry: %w", err)
	}

	return s.publishMove(ctx, actor, targetID)
}

func (s *waitlistService) Leave(ctx context.Context, actor domain.Actor, targetID string) ([]string, error) {
	if actor.ID != targetID && !domain.Allow(actor.Role, domain.ActionWaitlistRemoveOther) {
		return nil, ErrForbidden
	}

	before, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	wasQueued := indexOf(before, targetID) >= 0

	if err := s.wlRepo.Remove(ctx, targetID); err != nil {
		return nil, fmt.Errorf("failed to leave waitlist: %w", err)
	}

	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if wasQueued {
		ev := kafka.WaitlistLeaveEvent{UserID: targetID, Waitlist: list}
		if actor.ID != targetID {
			ev.ModeratorID = actor.ID
		}
		s.publish(ctx, kafka.TypeWaitlistLeave, ev)

		s.l.Infof(ctx, "User left waitlist: user_id=%s", targetID)
	}

	return list, nil
}

func (s *waitlistService) Clear(ctx context.Context, actor domain.Actor) error {
	if !domain.Allow(actor.Role, domain.ActionWaitlistClear) {
		return ErrForbidden
	}

	if err := s.wlRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear waitlist: %w", err)
	}

	s.publish(ctx, kafka.TypeWaitlistClear, kafka.WaitlistClearEvent{ModeratorID: actor.ID})

	s.l.Infof(ctx, "Waitlist cleared: moderator_id=%s", actor.ID)

	return nil
}

func (s *waitlistService) SetLock(ctx context.Context, actor domain.Actor, locked, alsoClear bool) (*WaitlistState, error) {
	if !domain.Allow(actor.Role, domain.ActionWaitlistLock) {
		return nil, ErrForbidden
	}

	if err := s.wlRepo.SetLock(ctx, locked, alsoClear); err != nil {
		return nil, fmt.Errorf("failed to update waitlist lock: %w", err)
	}

	s.publish(ctx, kafka.TypeWaitlistLock, kafka.WaitlistLockEvent{
		ModeratorID: actor.ID,
		Locked:      locked,
		Cleared:     alsoClear,
	})

	return s.GetState(ctx)
}

// checkNotInBooth rejects queue entries for the user currently playing.
func (s *waitlistService) checkNotInBooth(ctx context.Context, userID string) error {
	session, err := s.boothRepo.GetSession(ctx)
	if err != nil {
		return err
	}
	if session != nil && session.UserID == userID {
		return ErrDJQueued
	}
	return nil
}

func (s *waitlistService) publishMove(ctx context.Context, actor domain.Actor, targetID string) ([]string, error) {
	list, err := s.wlRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeWaitlistMove, kafka.WaitlistMoveEvent{
		UserID:      targetID,
		ModeratorID: actor.ID,
		Position:    indexOf(list, targetID),
		Waitlist:    list,
	})

	return list, nil
}

func (s *waitlistService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.prod.Publish(ctx, eventType, payload); err != nil {
		// Broadcast is fire-and-forget; the mutation already committed.
		s.l.Errorf(ctx, "waitlistService: failed to publish %s event: %v", eventType, err)
	}
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
