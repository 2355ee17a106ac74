package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := startHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 1)}

	hub.register <- client
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- client
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 10)}
	hub.register <- client

	hub.Publish("u-1", EventAnalysisCompleted, map[string]string{"dominant_emotion": "happy"})

	select {
	case msg := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventAnalysisCompleted, event.Type)
		assert.Equal(t, "u-1", event.UID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_UIDFilter(t *testing.T) {
	hub := startHub(t)

	follower := &Client{hub: hub, uid: "u-1", send: make(chan []byte, 10)}
	other := &Client{hub: hub, uid: "u-2", send: make(chan []byte, 10)}
	hub.register <- follower
	hub.register <- other

	hub.Publish("u-1", EventRecorded, nil)

	select {
	case <-follower.send:
	case <-time.After(time.Second):
		t.Fatal("follower should receive message")
	}

	select {
	case <-other.send:
		t.Fatal("client following u-2 should not receive u-1 events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("u-1", EventUserCreated, nil)

	require.Eventually(t, func() bool { return hub.ConnectedClients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-client.send
	assert.False(t, open)

	assert.False(t, hub.join(&Client{hub: hub, send: make(chan []byte, 1)}))
}
