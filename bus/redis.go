package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackrun/bdicore/ident"
	"github.com/redis/go-redis/v9"
)

// publisher and subscriber narrow the go-redis client surface RedisAdapter
// needs down to what can be faked in a test without a live Redis daemon.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type subscriber interface {
	Channel() <-chan *redis.Message
	Close() error
}

// redisPubSub adapts *redis.PubSub to the subscriber interface.
type redisPubSub struct{ ps *redis.PubSub }

func (r redisPubSub) Channel() <-chan *redis.Message { return r.ps.Channel() }
func (r redisPubSub) Close() error                   { return r.ps.Close() }

// RedisAdapter distributes ProtocolEvents across engine processes over a
// Redis pub/sub channel (spec §6 BusAdapter domain stack; grounded on the
// teacher's redis-backed bus transport, github.com/redis/go-redis/v9).
type RedisAdapter struct {
	addr    ident.BusAddress
	channel string
	client  publisher
	sub     subscriber

	mu     sync.Mutex
	buffer []ProtocolEvent

	cancel context.CancelFunc
}

// NewRedisAdapter subscribes to channel on client and starts draining
// messages into an internal buffer for Poll.
func NewRedisAdapter(addr ident.BusAddress, client *redis.Client, channel string) *RedisAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	ps := client.Subscribe(ctx, channel)
	a := &RedisAdapter{
		addr:    addr,
		channel: channel,
		client:  client,
		sub:     redisPubSub{ps},
		cancel:  cancel,
	}
	go a.listen(ctx)
	return a
}

// newRedisAdapterForTest builds a RedisAdapter over fake publisher/subscriber
// implementations, bypassing any network dial.
func newRedisAdapterForTest(addr ident.BusAddress, channel string, client publisher, sub subscriber) *RedisAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &RedisAdapter{addr: addr, channel: channel, client: client, sub: sub, cancel: cancel}
	go a.listen(ctx)
	return a
}

func (a *RedisAdapter) listen(ctx context.Context) {
	ch := a.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e ProtocolEvent
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue // malformed payload from a peer; drop per spec §7.4
			}
			a.mu.Lock()
			a.buffer = append(a.buffer, e)
			a.mu.Unlock()
		}
	}
}

// Address implements Adapter.
func (a *RedisAdapter) Address() ident.BusAddress { return a.addr }

// Send implements Adapter.
func (a *RedisAdapter) Send(e ProtocolEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return a.client.Publish(context.Background(), a.channel, payload).Err()
}

// Poll implements Adapter.
func (a *RedisAdapter) Poll() []ProtocolEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.buffer
	a.buffer = nil
	return out
}

// Close implements Adapter.
func (a *RedisAdapter) Close() error {
	a.cancel()
	return a.sub.Close()
}
