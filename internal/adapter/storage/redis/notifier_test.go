package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Notify(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	notifier := NewNotifier(client)
	ctx := context.Background()

	userID := uuid.New()
	requestID := uuid.New()

	sub := client.Subscribe(ctx, notifier.Channel(userID.String()))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := ports.TransitionEvent{
		RequestID: requestID,
		UserID:    userID,
		Status:    domain.StatusScheduled,
		Amount:    10000,
	}
	require.NoError(t, notifier.Notify(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got ports.TransitionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, requestID, got.RequestID)
		assert.Equal(t, domain.StatusScheduled, got.Status)
		assert.Equal(t, int64(10000), got.Amount)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestNotifier_ChannelPerUser(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	notifier := NewNotifier(client)

	a := uuid.New()
	b := uuid.New()
	assert.NotEqual(t, notifier.Channel(a.String()), notifier.Channel(b.String()))
	assert.Contains(t, notifier.Channel(a.String()), a.String())
}
