package cartstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/redis"
)

// Change is the versioned message broadcast after every save. Carrying
// the full cart lets subscribers resynchronize without a second read.
type Change struct {
	CartKey string     `json:"cart_key"`
	Version int64      `json:"version"`
	Items   []LineItem `json:"items"`
}

// Notifier fans out cart change notifications to interested sessions.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(cartKey string, fn func(Change)) (cancel func())
}

// LocalNotifier delivers changes to in-process subscribers only. Used
// in tests and single-instance deployments.
type LocalNotifier struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[string]map[int]func(Change)
}

// NewLocalNotifier builds an empty in-process notifier.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subscribers: map[string]map[int]func(Change){}}
}

// Publish invokes every subscriber registered for the cart key.
func (n *LocalNotifier) Publish(_ context.Context, change Change) error {
	n.mu.Lock()
	fns := make([]func(Change), 0, len(n.subscribers[change.CartKey]))
	for _, fn := range n.subscribers[change.CartKey] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
	return nil
}

// Subscribe registers fn for the cart key and returns its cancel.
func (n *LocalNotifier) Subscribe(cartKey string, fn func(Change)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.subscribers[cartKey] == nil {
		n.subscribers[cartKey] = map[int]func(Change){}
	}
	n.subscribers[cartKey][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers[cartKey], id)
	}
}

// RedisNotifier broadcasts changes over Redis pub/sub so every API
// instance observes writes from every other one.
type RedisNotifier struct {
	client *redis.Client
	logg   *logger.Logger
}

// NewRedisNotifier wraps the shared redis client.
func NewRedisNotifier(client *redis.Client, logg *logger.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logg: logg}
}

// Publish broadcasts the change on the cart's channel.
func (n *RedisNotifier) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.client.CartChannel(change.CartKey), payload)
}

// Subscribe listens on the cart's channel until cancel is called.
// Malformed messages are dropped with a warning.
func (n *RedisNotifier) Subscribe(cartKey string, fn func(Change)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := n.client.Subscribe(ctx, n.client.CartChannel(cartKey))

	go func() {
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				if n.logg != nil {
					n.logg.Warn(ctx, "dropping malformed cart change message")
				}
				continue
			}
			fn(change)
		}
	}()

	return func() {
		cancel()
		_ = pubsub.Close()
	}
}
