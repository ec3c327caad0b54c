package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToSubscribers(t *testing.T) {
	bus := NewLocalEventBus()

	var mu sync.Mutex
	var got []PartyUpdatedEvent
	handler := func(msg *Message) {
		var ev PartyUpdatedEvent
		assert.NoError(t, msg.Decode(&ev))
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	}
	require.NoError(t, bus.Subscribe(PartyUpdated, handler))
	require.NoError(t, bus.Subscribe(PartyUpdated, handler))

	require.NoError(t, bus.Publish(context.Background(), PartyUpdated, PartyUpdatedEvent{PartyID: "p1", Changelog: "new time"}))
	require.NoError(t, bus.Publish(context.Background(), GuestInvited, GuestInvitedEvent{PartyID: "p1"}))
	bus.Wait()

	require.Len(t, got, 2)
	assert.Equal(t, "new time", got[0].Changelog)
}

func TestLocalBusQueueSubscribeOnce(t *testing.T) {
	bus := NewLocalEventBus()
	var mu sync.Mutex
	calls := 0
	h := func(*Message) {
		mu.Lock()
		calls++
		mu.Unlock()
	}
	require.NoError(t, bus.QueueSubscribe(GuestInvited, "notifier", h))
	require.NoError(t, bus.QueueSubscribe(GuestInvited, "notifier", h))

	require.NoError(t, bus.Publish(context.Background(), GuestInvited, GuestInvitedEvent{}))
	require.NoError(t, bus.Close())
	assert.Equal(t, 1, calls)
}

func TestLocalBusRejectsAfterClose(t *testing.T) {
	bus := NewLocalEventBus()
	require.NoError(t, bus.Close())
	assert.Error(t, bus.Publish(context.Background(), PartyUpdated, PartyUpdatedEvent{}))
}

func TestLocalBusSurvivesHandlerPanic(t *testing.T) {
	bus := NewLocalEventBus()
	require.NoError(t, bus.Subscribe(PartyUpdated, func(*Message) { panic("boom") }))
	require.NoError(t, bus.Publish(context.Background(), PartyUpdated, PartyUpdatedEvent{}))
	bus.Wait()
}

func TestNewWithoutURLIsLocal(t *testing.T) {
	bus, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &LocalEventBus{}, bus)
}
