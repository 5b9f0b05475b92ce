package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixgrove/booth-service/config"
	kafka "github.com/mixgrove/booth-service/internal/delivery/kafka"
	"github.com/mixgrove/booth-service/internal/domain"
	"github.com/mixgrove/booth-service/pkg/logger"
)

func setupUserService() (UserService, *fakeUserRepo, *capturingProducer) {
	userRepo := newFakeUserRepo()
	prod := &capturingProducer{}
	svc := NewUserService(userRepo, prod, logger.InitializeTestZapLogger(),
		config.BoothConfig{HistoryPageSize: 25, MaxRole: 6, MaxStatus: 3})
	return svc, userRepo, prod
}

func seedUser(repo *fakeUserRepo, id string) {
	repo.users[id] = &domain.User{ID: id, Username: id, Slug: id}
}

func TestChangeRole(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")
	mod := domain.Actor{ID: "mod", Role: domain.RoleModerator}

	_, err := svc.ChangeRole(ctx, domain.Actor{ID: "user-b"}, "user-a", 2)
	assert.ErrorIs(t, err, ErrForbidden)

	user, err := svc.ChangeRole(ctx, mod, "user-a", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Role)

	ev := prod.last().Payload.(kafka.RoleChangeEvent)
	assert.Equal(t, "mod", ev.ModeratorID)
	assert.Equal(t, 3, ev.Role)
}

func TestChangeRoleClamps(t *testing.T) {
	svc, userRepo, _ := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")
	mod := domain.Actor{ID: "mod", Role: domain.RoleModerator}

	user, err := svc.ChangeRole(ctx, mod, "user-a", 99)
	require.NoError(t, err)
	assert.Equal(t, 6, user.Role)

	user, err = svc.ChangeRole(ctx, mod, "user-a", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, user.Role)
}

func TestChangeUsernameSelf(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")

	user, err := svc.ChangeUsername(ctx, domain.Actor{ID: "user-a"}, "user-a", "NewName")
	require.NoError(t, err)
	assert.Equal(t, "NewName", user.Username)
	assert.Equal(t, "newname", user.Slug)

	ev := prod.last().Payload.(kafka.NameChangeEvent)
	assert.Empty(t, ev.ModeratorID)
}

func TestChangeUsernameOtherRequiresModerator(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")

	_, err := svc.ChangeUsername(ctx, domain.Actor{ID: "user-b"}, "user-a", "Name")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ChangeUsername(ctx, domain.Actor{ID: "mod", Role: domain.RoleModerator}, "user-a", "Name")
	require.NoError(t, err)
	assert.Equal(t, "mod", prod.last().Payload.(kafka.NameChangeEvent).ModeratorID)
}

func TestChangeUsernameEmpty(t *testing.T) {
	svc, userRepo, _ := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")

	_, err := svc.ChangeUsername(ctx, domain.Actor{ID: "user-a"}, "user-a", "   ")
	assert.Error(t, err)
}

func TestBanAndUnban(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")
	mod := domain.Actor{ID: "mod", Role: domain.RoleModerator}

	_, err := svc.Ban(ctx, domain.Actor{ID: "user-b"}, "user-a", time.Hour, false)
	assert.ErrorIs(t, err, ErrForbidden)

	user, err := svc.Ban(ctx, mod, "user-a", time.Hour, true)
	require.NoError(t, err)
	require.NotNil(t, user.BannedAt)
	assert.Equal(t, time.Hour.Milliseconds(), user.BannedMS)
	assert.True(t, user.Exiled)
	assert.Equal(t, kafka.TypeBan, prod.last().Type)

	user, err = svc.Ban(ctx, mod, "user-a", 0, false)
	require.NoError(t, err)
	assert.Nil(t, user.BannedAt)
	assert.Zero(t, user.BannedMS)
	assert.False(t, user.Exiled)
	assert.Equal(t, kafka.TypeUnban, prod.last().Type)
}

func TestMuteAndUnmute(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")
	mod := domain.Actor{ID: "mod", Role: domain.RoleModerator}

	err := svc.Mute(ctx, domain.Actor{ID: "user-b"}, "user-a", time.Minute)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Mute(ctx, mod, "user-a", time.Minute))
	muted, err := svc.IsMuted(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, muted)
	assert.Equal(t, kafka.TypeMute, prod.last().Type)

	require.NoError(t, svc.Mute(ctx, mod, "user-a", 0))
	muted, err = svc.IsMuted(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, muted)
	assert.Equal(t, kafka.TypeUnmute, prod.last().Type)
}

func TestSetStatusClamps(t *testing.T) {
	svc, userRepo, prod := setupUserService()
	ctx := context.Background()
	seedUser(userRepo, "user-a")

	user, err := svc.SetStatus(ctx, domain.Actor{ID: "user-a"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Status)
	assert.Equal(t, kafka.TypeStatusChange, prod.last().Type)

	user, err = svc.SetStatus(ctx, domain.Actor{ID: "user-a"}, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Status)

	user, err = svc.SetStatus(ctx, domain.Actor{ID: "user-a"}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, user.Status)
}
