package repository

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

func setupWaitlistRepo(t *testing.T) (WaitlistRepository, redismock.ClientMock) {
	t.Helper()
	cli, mock := redismock.NewClientMock()
	return NewRedisWaitlistRepository(cli, logger.InitializeTestZapLogger()), mock
}

func TestWaitlistRepository_Append(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectEvalSha(appendScript.Hash(), []string{waitlistKey}, "user-a").SetVal(int64(1))

	added, err := repo.Append(context.Background(), "user-a")
	require.NoError(t, err)
	assert.True(t, added)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_AppendDuplicate(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectEvalSha(appendScript.Hash(), []string{waitlistKey}, "user-a").SetVal(int64(-1))

	added, err := repo.Append(context.Background(), "user-a")
	require.NoError(t, err)
	assert.False(t, added)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_InsertAt(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectEvalSha(insertAtScript.Hash(), []string{waitlistKey}, "user-b", 0).SetVal(int64(0))

	err := repo.InsertAt(context.Background(), "user-b", 0)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_MoveAfter(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectEvalSha(moveAfterScript.Hash(), []string{waitlistKey}, "user-c", "user-a").SetVal(int64(1))

	err := repo.MoveAfter(context.Background(), "user-c", "user-a")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_MoveAfterSelf(t *testing.T) {
	repo, _ := setupWaitlistRepo(t)

	err := repo.MoveAfter(context.Background(), "user-a", "user-a")
	assert.True(t, errors.IsConflict(err))
}

func TestWaitlistRepository_PopHead(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectLPop(waitlistKey).SetVal("user-a")

	userID, err := repo.PopHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_PopHeadEmpty(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectLPop(waitlistKey).RedisNil()

	_, err := repo.PopHead(context.Background())
	assert.ErrorIs(t, err, ErrEmptyWaitlist)
}

func TestWaitlistRepository_List(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectLRange(waitlistKey, 0, -1).SetVal([]string{"user-a", "user-b"})

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-a", "user-b"}, list)
}

func TestWaitlistRepository_SetLock(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectEvalSha(setLockScript.Hash(), []string{waitlistLockKey, waitlistKey}, "1", "1").SetVal(int64(1))

	err := repo.SetLock(context.Background(), true, true)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_IsLocked(t *testing.T) {
	repo, mock := setupWaitlistRepo(t)

	mock.ExpectExists(waitlistLockKey).SetVal(1)

	locked, err := repo.IsLocked(context.Background())
	require.NoError(t, err)
	assert.True(t, locked)
}
