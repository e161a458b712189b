package service

import (
	"testing"

	"go-study-group/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	f := setupGroupService(t)
	notifier := NewNotificationService(repository.NewNotificationRepository())

	alice := createTestUser(t, f, "notifyAlice")
	bob := createTestUser(t, f, "notifyBob")

	require.NoError(t, notifier.Notify(alice.ID, "You have a new join request.", "/groups/1/requests"))
	require.NoError(t, notifier.Notify(alice.ID, "A new member joined your group.", "/groups/1"))

	notifications, err := notifier.GetUserNotifications(alice.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	unread, err := notifier.GetUnreadCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	// Users may only mark their own notifications
	err = notifier.MarkRead(notifications[0].ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, notifier.MarkRead(notifications[0].ID, alice.ID))

	unread, err = notifier.GetUnreadCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	err = notifier.MarkRead(99999, alice.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}
