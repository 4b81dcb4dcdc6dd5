package localstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/transfer"
	"github.com/redis/go-redis/v9"
)

var (
	_ settings.Cache    = (*Store)(nil)
	_ settings.Cache    = (*Memory)(nil)
	_ transfer.Sessions = (*Store)(nil)
	_ transfer.Sessions = (*Memory)(nil)
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb, "ada"), mr
}

func TestSessionRoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	id, err := s.SessionID(ctx)
	if err != nil { t.Fatalf("SessionID: %v", err) }
	if id != "" { t.Fatalf("expected no session yet, got %q", id) }

	if err := s.SetSessionID(ctx, "sess-1"); err != nil { t.Fatalf("SetSessionID: %v", err) }
	id, err = s.SessionID(ctx)
	if err != nil || id != "sess-1" { t.Fatalf("SessionID = %q, %v", id, err) }

	if ttl := mr.TTL("asl:ada:session"); ttl != ttlState { t.Fatalf("unexpected ttl %v", ttl) }
}

func TestSettingsAreScopedByRoom(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	v := settings.Defaults()
	v.RoomName = "Garage"
	v.VerticalScrollEnabled = true
	if err := s.SaveSettings(ctx, "room1", v); err != nil { t.Fatalf("SaveSettings: %v", err) }

	got, ok, err := s.LoadSettings(ctx, "room1")
	if err != nil || !ok { t.Fatalf("LoadSettings: ok=%v err=%v", ok, err) }
	if got != v { t.Fatalf("settings mismatch: %+v vs %+v", got, v) }

	if _, ok, _ := s.LoadSettings(ctx, "room2"); ok { t.Fatalf("room2 should be empty") }
}

func TestSettingsExpire(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveSettings(ctx, "room1", settings.Defaults()); err != nil { t.Fatalf("SaveSettings: %v", err) }
	mr.FastForward(ttlState + time.Minute)
	if _, ok, _ := s.LoadSettings(ctx, "room1"); ok { t.Fatalf("expected expired settings") }
}

func TestCorruptSettingsError(t *testing.T) {
	s, mr := newTestStore(t)
	if err := mr.Set("asl:ada:settings:room1", "{not json"); err != nil { t.Fatalf("seed: %v", err) }
	if _, _, err := s.LoadSettings(context.Background(), "room1"); err == nil { t.Fatalf("expected decode error") }
}

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	defer mr.Close()

	s, err := Open(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), "ada")
	if err != nil { t.Fatalf("Open: %v", err) }
	defer s.Close()

	mr.Close()
	if _, err := Open(context.Background(), "redis://"+mr.Addr()+"/0", "ada"); err == nil {
		t.Fatalf("expected ping failure against a closed server")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.SetSessionID(ctx, "x")
	if id, _ := m.SessionID(ctx); id != "x" { t.Fatalf("session = %q", id) }
	_ = m.SaveSettings(ctx, " room1 ", settings.Defaults())
	if _, ok, _ := m.LoadSettings(ctx, "room1"); !ok { t.Fatalf("expected settings for room1") }
}
