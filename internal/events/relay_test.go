package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/models"
)

func TestRelay_HandleDeliversDecodedEvent(t *testing.T) {
	hub := newTestHub(4)
	c := hub.Register(2, models.RoleUser)
	relay := NewRedisRelay(nil, "taskboard:events", hub, zap.NewNop())

	evt := New(TypeTaskCreated, 9, json.RawMessage(`{"id":9,"title":"Review PR"}`), Audience{UserIDs: []uint64{1, 2}})
	payload, err := encode(evt)
	require.NoError(t, err)

	relay.handle(payload)

	got, ok := receive(c)
	require.True(t, ok)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, evt.Audience, got.Audience)
	assert.JSONEq(t, `{"id":9,"title":"Review PR"}`, string(got.Task))
	assert.True(t, evt.OccurredAt.Equal(got.OccurredAt))
}

func TestRelay_HandleIgnoresMalformedPayload(t *testing.T) {
	hub := newTestHub(4)
	c := hub.Register(1, models.RoleAdmin)
	relay := NewRedisRelay(nil, "taskboard:events", hub, zap.NewNop())

	relay.handle([]byte("{not json"))

	_, ok := receive(c)
	assert.False(t, ok)
}

// startRelay runs a relay for hub against mr and waits until it is subscribed.
func startRelay(t *testing.T, ctx context.Context, mr *miniredis.Miniredis, hub *Hub) (*RedisRelay, <-chan error) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := NewRedisRelay(client, "taskboard:events", hub, zap.NewNop())
	before := mr.PubSubNumSub("taskboard:events")["taskboard:events"]

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("taskboard:events")["taskboard:events"] == before+1
	}, 2*time.Second, 10*time.Millisecond)
	return relay, done
}

func awaitEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt, ok := <-c.Events():
		require.True(t, ok)
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("relayed event not delivered")
		return Event{}
	}
}

func TestRelay_PublishReachesEveryInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := newTestHub(4)
	remote := newTestHub(4)
	relay, localDone := startRelay(t, ctx, mr, local)
	_, remoteDone := startRelay(t, ctx, mr, remote)

	localAssignee := local.Register(2, models.RoleUser)
	remoteAssignee := remote.Register(2, models.RoleUser)
	remoteAdmin := remote.Register(5, models.RoleAdmin)
	remoteStranger := remote.Register(3, models.RoleUser)

	evt := New(TypeTaskUpdated, 11, json.RawMessage(`{"id":11,"title":"Ship it"}`), Audience{UserIDs: []uint64{1, 2}, Admins: true})
	require.NoError(t, relay.Publish(ctx, evt))

	for _, c := range []*Client{localAssignee, remoteAssignee, remoteAdmin} {
		got := awaitEvent(t, c)
		assert.Equal(t, evt.ID, got.ID)
		assert.Equal(t, TypeTaskUpdated, got.Type)
		assert.Equal(t, evt.Audience, got.Audience)
		assert.JSONEq(t, `{"id":11,"title":"Ship it"}`, string(got.Task))
	}
	_, ok := receive(remoteStranger)
	assert.False(t, ok)

	cancel()
	for _, done := range []<-chan error{localDone, remoteDone} {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not stop after cancel")
		}
	}
}

func TestRelay_PublishFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	relay := NewRedisRelay(client, "taskboard:events", newTestHub(4), zap.NewNop())

	mr.Close()

	err := relay.Publish(context.Background(), New(TypeTaskDeleted, 1, nil, Audience{UserIDs: []uint64{1}}))
	assert.ErrorContains(t, err, "failed to publish event")
}
