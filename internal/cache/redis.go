package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Storage keys mirrored from the storefront's client-side storage.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyUserID   = "userId"
	KeyCheckout = "checkoutData"
	KeyFilters  = "filters"
	KeyCart     = "cart"
	KeyFreight  = "freightQuote"
)

var (
	ErrNotFound = errors.New("cache: key not found")
	// ErrDecode marks a stored value that is not valid JSON for its type.
	ErrDecode = errors.New("cache: malformed value")
)

// Event is published on the session channel after every write or delete.
type Event struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Store is the Redis key space shared by all sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, ttl: ttl, log: log}
}

// Session scopes the store to one session id.
func (s *Store) Session(sid string) *SessionStorage {
	return &SessionStorage{store: s, sid: sid}
}

// --- Counters (rate limiting) ---

// Increment bumps key and (re)arms its expiry window.
func (s *Store) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

func (s *Store) Reset(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *Store) HasFlag(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, err
}

// SessionStorage is the durable key/value space of one browser session.
type SessionStorage struct {
	store *Store
	sid   string
}

func (s *SessionStorage) ID() string {
	return s.sid
}

func (s *SessionStorage) key(k string) string {
	return "session:" + s.sid + ":" + k
}

func (s *SessionStorage) channel() string {
	return "session:" + s.sid + ":events"
}

func (s *SessionStorage) Get(ctx context.Context, key string) (string, error) {
	val, err := s.store.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set overwrites key and notifies subscribers of the session.
func (s *SessionStorage) Set(ctx context.Context, key, value string) error {
	ev, _ := json.Marshal(Event{Key: key})

	pipe := s.store.client.Pipeline()
	pipe.Set(ctx, s.key(key), value, s.store.ttl)
	pipe.Publish(ctx, s.channel(), ev)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys and publishes one event per key.
func (s *SessionStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}

	pipe := s.store.client.Pipeline()
	pipe.Del(ctx, full...)
	for _, k := range keys {
		ev, _ := json.Marshal(Event{Key: k, Deleted: true})
		pipe.Publish(ctx, s.channel(), ev)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis del %v: %w", keys, err)
	}
	return nil
}

func (s *SessionStorage) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}
	return nil
}

func (s *SessionStorage) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Subscription delivers the events of one session until closed.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe returns once Redis confirmed the subscription, so writes made
// after it returns are guaranteed to be delivered.
func (s *SessionStorage) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := s.store.client.Subscribe(ctx, s.channel())
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &Subscription{ps: ps, events: make(chan Event, 16), done: make(chan struct{})}
	go sub.pump(s.store.log)
	return sub, nil
}

func (sub *Subscription) pump(log *zap.Logger) {
	defer close(sub.events)
	for msg := range sub.ps.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Warn("dropping malformed session event", zap.String("payload", msg.Payload), zap.Error(err))
			continue
		}
		select {
		case sub.events <- ev:
		case <-sub.done:
			return
		}
	}
}

func (sub *Subscription) Events() <-chan Event {
	return sub.events
}

func (sub *Subscription) Close() error {
	var err error
	sub.once.Do(func() {
		close(sub.done)
		err = sub.ps.Close()
	})
	return err
}
