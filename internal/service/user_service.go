package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mixgrove/booth-service/config"
	kafka "github.com/mixgrove/booth-service/internal/delivery/kafka"
	"github.com/mixgrove/booth-service/internal/delivery/kafka/producer"
	"github.com/mixgrove/booth-service/internal/domain"
	repo "github.com/mixgrove/booth-service/internal/repository/redis"
	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// UserService covers the moderation surface: role and name changes, bans,
// mutes, and the away-status flag users set on themselves.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	// ChangeRole sets the target's role level, clamped to [0, MaxRole].
	ChangeRole(ctx context.Context, actor domain.Actor, targetID string, role int) (*domain.User, error)
	// ChangeUsername renames targetID. Users may rename themselves;
	// renaming someone else takes a moderator.
	ChangeUsername(ctx context.Context, actor domain.Actor, targetID, username string) (*domain.User, error)
	// Ban bans targetID for the given duration. A non-positive duration
	// lifts an existing ban instead.
	Ban(ctx context.Context, actor domain.Actor, targetID string, d time.Duration, exiled bool) (*domain.User, error)
	// Mute silences targetID in chat for the given duration. A
	// non-positive duration unmutes instead.
	Mute(ctx context.Context, actor domain.Actor, targetID string, d time.Duration) error
	IsMuted(ctx context.Context, id string) (bool, error)
	// SetStatus sets the actor's own presence status, clamped to
	// [0, MaxStatus].
	SetStatus(ctx context.Context, actor domain.Actor, status int) (*domain.User, error)
}

type userService struct {
	userRepo repo.UserRepository
	prod     producer.Producer
	l        logger.Logger
	cfg      config.BoothConfig
}

func NewUserService(
	userRepo repo.UserRepository,
	prod producer.Producer,
	l logger.Logger,
	cfg config.BoothConfig,
) UserService {
	return &userService{
		userRepo: userRepo,
		prod:     prod,
		l:        l,
		cfg:      cfg,
	}
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.Get(ctx, id)
}

func (s *userService) ChangeRole(ctx context.Context, actor domain.Actor, targetID string, role int) (*domain.User, error) {
	if !domain.Allow(actor.Role, domain.ActionRoleChange) {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = clamp(role, 0, s.cfg.MaxRole)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}

	s.publish(ctx, kafka.TypeRoleChange, kafka.RoleChangeEvent{
		ModeratorID: actor.ID,
		UserID:      targetID,
		Role:        user.Role,
	})

	s.l.Infof(ctx, "Role changed: user_id=%s role=%d moderator_id=%s", targetID, user.Role, actor.ID)

	return user, nil
}

func (s *userService) ChangeUsername(ctx context.Context, actor domain.Actor, targetID, username string) (*domain.User, error) {
	if actor.ID != targetID && !domain.Allow(actor.Role, domain.ActionNameChangeOther) {
		return nil, ErrForbidden
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.Invalid("username must not be empty")
	}

	user, err := s.userRepo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Username = username
	user.Slug = strings.ToLower(username)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to change username: %w", err)
	}

	ev := kafka.NameChangeEvent{UserID: targetID, Username: username}
	if actor.ID != targetID {
		ev.ModeratorID = actor.ID
	}
	s.publish(ctx, kafka.TypeNameChange, ev)

	return user, nil
}

func (s *userService) Ban(ctx context.Context, actor domain.Actor, targetID string, d time.Duration, exiled bool) (*domain.User, error) {
	if !domain.Allow(actor.Role, domain.ActionBan) {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if d <= 0 {
		user.BannedAt = nil
		user.BannedMS = 0
		user.Exiled = false
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to unban user: %w", err)
		}

		s.publish(ctx, kafka.TypeUnban, kafka.BanEvent{
			ModeratorID: actor.ID,
			UserID:      targetID,
		})

		s.l.Infof(ctx, "User unbanned: user_id=%s moderator_id=%s", targetID, actor.ID)

		return user, nil
	}

	now := time.Now()
	user.BannedAt = &now
	user.BannedMS = d.Milliseconds()
	user.Exiled = exiled
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to ban user: %w", err)
	}

	s.publish(ctx, kafka.TypeBan, kafka.BanEvent{
		ModeratorID: actor.ID,
		UserID:      targetID,
		Duration:    user.BannedMS,
		Exiled:      exiled,
	})

	s.l.Infof(ctx, "User banned: user_id=%s duration=%s exiled=%t moderator_id=%s", targetID, d, exiled, actor.ID)

	return user, nil
}

func (s *userService) Mute(ctx context.Context, actor domain.Actor, targetID string, d time.Duration) error {
	if !domain.Allow(actor.Role, domain.ActionMute) {
		return ErrForbidden
	}

	if d <= 0 {
		if err := s.userRepo.ClearMute(ctx, targetID); err != nil {
			return err
		}

		s.publish(ctx, kafka.TypeUnmute, kafka.MuteEvent{
			ModeratorID: actor.ID,
			UserID:      targetID,
		})

		return nil
	}

	if err := s.userRepo.SetMute(ctx, targetID, d); err != nil {
		return err
	}

	s.publish(ctx, kafka.TypeMute, kafka.MuteEvent{
		ModeratorID: actor.ID,
		UserID:      targetID,
		ExpiresIn:   d.Milliseconds(),
	})

	return nil
}

func (s *userService) IsMuted(ctx context.Context, id string) (bool, error) {
	return s.userRepo.IsMuted(ctx, id)
}

func (s *userService) SetStatus(ctx context.Context, actor domain.Actor, status int) (*domain.User, error) {
	user, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	user.Status = clamp(status, 0, s.cfg.MaxStatus)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to set status: %w", err)
	}

	s.publish(ctx, kafka.TypeStatusChange, kafka.StatusChangeEvent{
		UserID: actor.ID,
		Status: user.Status,
	})

	return user, nil
}

func (s *userService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.prod.Publish(ctx, eventType, payload); err != nil {
		s.l.Errorf(ctx, "userService: failed to publish %s event: %v", eventType, err)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
