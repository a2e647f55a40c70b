package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotificationStatus_Transitions(t *testing.T) {
	allowed := []struct {
		from, to NotificationStatus
	}{
		{StatusPending, StatusSent},
		{StatusPending, StatusRead},
		{StatusPending, StatusFailed},
		{StatusPending, StatusCancelled},
		{StatusSent, StatusDelivered},
		{StatusSent, StatusRead},
		{StatusSent, StatusFailed},
		{StatusSent, StatusCancelled},
		{StatusDelivered, StatusRead},
		{StatusDelivered, StatusFailed},
		{StatusDelivered, StatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s must be legal", tc.from, tc.to)
	}

	// No regressions, no leaving terminal states.
	forbidden := []struct {
		from, to NotificationStatus
	}{
		{StatusSent, StatusPending},
		{StatusDelivered, StatusSent},
		{StatusRead, StatusSent},
		{StatusRead, StatusDelivered},
		{StatusFailed, StatusPending},
		{StatusCancelled, StatusSent},
		{StatusPending, StatusDelivered},
	}
	for _, tc := range forbidden {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s must be illegal", tc.from, tc.to)
	}
}

func TestNotificationStatus_Terminal(t *testing.T) {
	assert.True(t, StatusRead.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusSent.Terminal())
	assert.False(t, StatusDelivered.Terminal())
}

func TestNotification_DueAndExpired(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	n := &Notification{}
	assert.True(t, n.Due(now), "no schedule means due immediately")
	assert.False(t, n.Expired(now))

	n.ScheduledFor = &later
	assert.False(t, n.Due(now))
	n.ScheduledFor = &earlier
	assert.True(t, n.Due(now))

	n.ExpiresAt = &earlier
	assert.True(t, n.Expired(now))
	n.ExpiresAt = &later
	assert.False(t, n.Expired(now))
}

func TestNotification_TargetChannels(t *testing.T) {
	n := &Notification{}
	assert.Equal(t, AllChannels(), n.TargetChannels())

	n.Channels = []DeliveryChannel{ChannelPush}
	assert.Equal(t, []DeliveryChannel{ChannelPush}, n.TargetChannels())
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityNormal.Rank())
	assert.Less(t, PriorityNormal.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	// Unknown priorities sort with normal.
	assert.Equal(t, PriorityNormal.Rank(), NotificationPriority("bogus").Rank())
}
