package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackrun/bdicore/ident"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, _ string, message interface{}) *redis.IntCmd {
	payload, _ := message.([]byte)
	f.published = append(f.published, payload)
	cmd := redis.NewIntCmd(context.Background())
	cmd.SetVal(1)
	return cmd
}

type fakeSubscriber struct {
	ch     chan *redis.Message
	closed bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{ch: make(chan *redis.Message, 8)}
}

func (f *fakeSubscriber) Channel() <-chan *redis.Message { return f.ch }
func (f *fakeSubscriber) Close() error {
	f.closed = true
	close(f.ch)
	return nil
}

func TestRedisAdapterSendPublishesEncodedEvent(t *testing.T) {
	pub := &fakePublisher{}
	sub := newFakeSubscriber()
	addr := ident.NewBusAddress(ident.NodeAgent, "a")
	a := newRedisAdapterForTest(addr, "bdi.events", pub, sub)
	defer a.Close()

	e := ProtocolEvent{Type: EventMessage, SenderNode: addr}
	require.NoError(t, a.Send(e))
	require.Len(t, pub.published, 1)

	var got ProtocolEvent
	require.NoError(t, json.Unmarshal(pub.published[0], &got))
	assert.Equal(t, EventMessage, got.Type)
}

func TestRedisAdapterPollDeliversFromChannel(t *testing.T) {
	pub := &fakePublisher{}
	sub := newFakeSubscriber()
	addr := ident.NewBusAddress(ident.NodeAgent, "a")
	a := newRedisAdapterForTest(addr, "bdi.events", pub, sub)
	defer a.Close()

	e := ProtocolEvent{Type: EventPercept, SenderNode: ident.NewBusAddress(ident.NodeAgent, "b")}
	payload, err := json.Marshal(e)
	require.NoError(t, err)
	sub.ch <- &redis.Message{Payload: string(payload)}

	var got []ProtocolEvent
	require.Eventually(t, func() bool {
		got = append(got, a.Poll()...)
		return len(got) > 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, EventPercept, got[0].Type)
}
