package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/models"
)

func newTestHub(buffer int) *Hub {
	return NewHub(buffer, zap.NewNop())
}

func receive(c *Client) (Event, bool) {
	select {
	case evt, ok := <-c.Events():
		return evt, ok
	default:
		return Event{}, false
	}
}

func TestHub_DeliversOnlyToAudience(t *testing.T) {
	h := newTestHub(4)
	creator := h.Register(1, models.RoleUser)
	assignee := h.Register(2, models.RoleUser)
	outsider := h.Register(3, models.RoleUser)
	admin := h.Register(4, models.RoleAdmin)

	evt := New(TypeTaskCreated, 10, json.RawMessage(`{"id":10}`), Audience{UserIDs: []uint64{1, 2}, Admins: true})
	assert.Equal(t, 3, h.Deliver(evt))

	for _, c := range []*Client{creator, assignee, admin} {
		got, ok := receive(c)
		require.True(t, ok)
		assert.Equal(t, evt.ID, got.ID)
		assert.Equal(t, TypeTaskCreated, got.Type)
	}

	_, ok := receive(outsider)
	assert.False(t, ok)
}

func TestHub_AdminsExcludedWhenNotInAudience(t *testing.T) {
	h := newTestHub(4)
	admin := h.Register(4, models.RoleAdmin)

	h.Deliver(New(TypeTaskUpdated, 1, nil, Audience{UserIDs: []uint64{1}}))

	_, ok := receive(admin)
	assert.False(t, ok)
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	h := newTestHub(4)
	tab1 := h.Register(1, models.RoleUser)
	tab2 := h.Register(1, models.RoleUser)
	assert.NotEqual(t, tab1.ID, tab2.ID)
	assert.Equal(t, 2, h.Connections(1))

	h.Unregister(tab1)
	assert.Equal(t, 1, h.Connections(1))

	_, open := <-tab1.Events()
	assert.False(t, open)

	h.Deliver(New(TypeTaskDeleted, 5, nil, Audience{UserIDs: []uint64{1}}))
	got, ok := receive(tab2)
	require.True(t, ok)
	assert.Equal(t, uint64(5), got.TaskID)

	h.Unregister(tab1)
	h.Unregister(tab2)
	assert.Zero(t, h.Connections(1))
}

func TestHub_DropsForFullBuffer(t *testing.T) {
	h := newTestHub(1)
	slow := h.Register(1, models.RoleUser)
	audience := Audience{UserIDs: []uint64{1}}

	first := New(TypeTaskUpdated, 1, nil, audience)
	assert.Equal(t, 1, h.Deliver(first))
	assert.Equal(t, 0, h.Deliver(New(TypeTaskUpdated, 2, nil, audience)))

	got, ok := receive(slow)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
	_, ok = receive(slow)
	assert.False(t, ok)
}

func TestHub_SetRoleAndDisconnectUser(t *testing.T) {
	h := newTestHub(4)
	c := h.Register(1, models.RoleAdmin)

	h.SetRole(1, models.RoleUser)
	assert.Equal(t, 0, h.Deliver(New(TypeTaskCreated, 1, nil, Audience{Admins: true})))

	h.DisconnectUser(1)
	assert.Zero(t, h.Connections(1))
	_, open := <-c.Events()
	assert.False(t, open)

	h.Unregister(c)
}

func TestHub_CloseEndsEveryConnection(t *testing.T) {
	h := newTestHub(4)
	a1 := h.Register(1, models.RoleUser)
	a2 := h.Register(1, models.RoleUser)
	b := h.Register(2, models.RoleAdmin)

	h.Close()

	for _, c := range []*Client{a1, a2, b} {
		_, open := <-c.Events()
		assert.False(t, open, c.ID)
	}
	assert.Zero(t, h.Connections(1))
	assert.Zero(t, h.Connections(2))
	assert.Zero(t, h.Deliver(New(TypeTaskCreated, 1, nil, Audience{UserIDs: []uint64{1, 2}, Admins: true})))

	h.Unregister(a1)
	h.Close()
}

func TestHub_ConcurrentRegisterAndDeliver(t *testing.T) {
	h := newTestHub(DefaultBuffer)
	audience := Audience{UserIDs: []uint64{1, 2, 3}, Admins: true}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id uint64) {
			defer wg.Done()
			c := h.Register(id%4, models.RoleUser)
			h.Unregister(c)
		}(uint64(i))
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Publish(context.Background(), New(TypeTaskUpdated, 1, nil, audience)))
		}()
	}
	wg.Wait()

	for id := uint64(0); id < 4; id++ {
		assert.Zero(t, h.Connections(id))
	}
}

func TestNew_SortableIDs(t *testing.T) {
	a := New(TypeTaskCreated, 1, nil, Audience{})
	b := New(TypeTaskCreated, 1, nil, Audience{})
	assert.Less(t, a.ID, b.ID)
	assert.Len(t, a.ID, 26)
}

func TestEvent_JSONOmitsAudience(t *testing.T) {
	evt := New(TypeTaskDeleted, 7, nil, Audience{UserIDs: []uint64{1}, Admins: true})
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "audience")
	assert.NotContains(t, fields, "task")
	assert.Equal(t, "taskDeleted", fields["type"])
	assert.EqualValues(t, 7, fields["taskId"])
}
