package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

func TestEmit_SwallowsStoreFailures(t *testing.T) {
	store := repository.NewMemoryNotificationStore()
	store.FailCreateWith(errors.New("sink is down"))
	svc := NewNotificationService(store, testLogger())

	// Must not panic or surface the error in any way.
	svc.Emit(context.Background(), uuid.New(), models.NotificationLogin, "hello")
}

func TestNotificationReadLifecycle(t *testing.T) {
	store := repository.NewMemoryNotificationStore()
	svc := NewNotificationService(store, testLogger())
	ctx := context.Background()
	accountID := uuid.New()

	svc.Emit(ctx, accountID, models.NotificationLogin, "first")
	svc.Emit(ctx, accountID, models.NotificationWithdrawalSubmitted, "second")

	unread, err := svc.UnreadCount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	list, err := svc.List(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message, "newest first")

	require.NoError(t, svc.MarkRead(ctx, accountID, list[0].ID))
	unread, err = svc.UnreadCount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, svc.MarkAllRead(ctx, accountID))
	unread, err = svc.UnreadCount(ctx, accountID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMarkRead_OtherAccountsNotification(t *testing.T) {
	store := repository.NewMemoryNotificationStore()
	svc := NewNotificationService(store, testLogger())
	ctx := context.Background()

	owner := uuid.New()
	svc.Emit(ctx, owner, models.NotificationLogin, "private")
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = svc.MarkRead(ctx, uuid.New(), list[0].ID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeNotFound, svcErr.Code)
}
