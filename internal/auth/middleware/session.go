package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/edukid/internal/account"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side half of a login. A token is only honoured while
// its session exists.
type Session struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"userId"`
	Role      account.Role `json:"role"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type SessionStore interface {
	Create(ctx context.Context, userID int64, role account.Role) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// ---- in-memory ----

// memorySweepInterval bounds how often Create scans for expired sessions.
const memorySweepInterval = time.Minute

// MemorySessionStore keeps sessions in process. Expired entries are dropped on
// lookup and by a sweep that runs from Create at most once per interval.
type MemorySessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]Session
	lastSweep time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, now: time.Now, sessions: map[string]Session{}}
}

func (m *MemorySessionStore) Create(_ context.Context, userID int64, role account.Role) (Session, error) {
	now := m.now()
	s := Session{ID: uuid.NewString(), UserID: userID, Role: role, ExpiresAt: now.Add(m.ttl)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastSweep) >= memorySweepInterval {
		m.sweepLocked(now)
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *MemorySessionStore) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	m.lastSweep = now
}

// Len reports how many sessions are held, expired ones included until swept.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// ---- redis ----

const redisKeyPrefix = "edukid:session:"

// ParseCacheURL validates a Redis connection URL.
func ParseCacheURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

type RedisSessionStore struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore dials the cache and pings it once.
func NewRedisSessionStore(ctx context.Context, url string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := ParseCacheURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return &RedisSessionStore{Client: client, ttl: ttl}, nil
}

func (r *RedisSessionStore) Create(ctx context.Context, userID int64, role account.Role) (Session, error) {
	s := Session{ID: uuid.NewString(), UserID: userID, Role: role, ExpiresAt: time.Now().Add(r.ttl)}
	b, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	if err := r.Client.Set(ctx, redisKeyPrefix+s.ID, b, r.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("store session for user %d: %w", userID, err)
	}
	return s, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	b, err := r.Client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.Client.Del(ctx, redisKeyPrefix+id).Err()
}

// HealthCheck verifies the cache connection is alive.
func (r *RedisSessionStore) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisSessionStore) Close() error {
	return r.Client.Close()
}
