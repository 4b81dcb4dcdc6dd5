// Package localstore keeps the small amount of per-display state that
// outlives a page load: the export session id and the last saved settings.
package localstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/redis/go-redis/v9"
)

const ttlState = 30 * 24 * time.Hour

// Store is the Redis backend. Keys are scoped by the display's user so
// several displays can share one Redis.
type Store struct {
	rdb   *redis.Client
	scope string
}

func NewStore(rdb *redis.Client, scope string) *Store {
	return &Store{rdb: rdb, scope: strings.TrimSpace(scope)}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url, scope string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewStore(rdb, scope), nil
}

func (s *Store) keySession() string { return "asl:" + s.scope + ":session" }
func (s *Store) keySettings(room string) string {
	return "asl:" + s.scope + ":settings:" + strings.TrimSpace(room)
}

func (s *Store) SessionID(ctx context.Context) (string, error) {
	id, err := s.rdb.Get(ctx, s.keySession()).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (s *Store) SetSessionID(ctx context.Context, id string) error {
	return s.rdb.Set(ctx, s.keySession(), id, ttlState).Err()
}

func (s *Store) SaveSettings(ctx context.Context, roomID string, v settings.Settings) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keySettings(roomID), raw, ttlState).Err()
}

// LoadSettings returns the cached settings and whether any were found.
func (s *Store) LoadSettings(ctx context.Context, roomID string) (settings.Settings, bool, error) {
	raw, err := s.rdb.Get(ctx, s.keySettings(roomID)).Bytes()
	if err == redis.Nil {
		return settings.Settings{}, false, nil
	}
	if err != nil {
		return settings.Settings{}, false, err
	}
	var v settings.Settings
	if err := json.Unmarshal(raw, &v); err != nil {
		return settings.Settings{}, false, err
	}
	return v, true, nil
}

func (s *Store) Close() error { return s.rdb.Close() }

// Memory is the in-process backend used when no Redis is configured.
type Memory struct {
	mu       sync.Mutex
	session  string
	settings map[string]settings.Settings
}

func NewMemory() *Memory {
	return &Memory{settings: map[string]settings.Settings{}}
}

func (m *Memory) SessionID(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *Memory) SetSessionID(_ context.Context, id string) error {
	m.mu.Lock()
	m.session = id
	m.mu.Unlock()
	return nil
}

func (m *Memory) SaveSettings(_ context.Context, roomID string, v settings.Settings) error {
	m.mu.Lock()
	m.settings[strings.TrimSpace(roomID)] = v
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadSettings(_ context.Context, roomID string) (settings.Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[strings.TrimSpace(roomID)]
	return v, ok, nil
}

func (m *Memory) Close() error { return nil }
