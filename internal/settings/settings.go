// Package settings holds the room display settings and saves changes back
// to the backend after a quiet period.
package settings

import (
	"context"
	"sync"
	"time"

	"github.com/park285/arcadescore-live/internal/scores"
	"go.uber.org/zap"
)

// Settings mirrors the room settings form.
type Settings struct {
	RoomName                string `json:"room_name"`
	DateFormat              string `json:"dateformat"`
	HorizontalScrollEnabled bool   `json:"horizontal_scroll_enabled"`
	HorizontalScrollSpeed   int    `json:"horizontal_scroll_speed"`
	HorizontalScrollDelay   int    `json:"horizontal_scroll_delay"`
	VerticalScrollEnabled   bool   `json:"vertical_scroll_enabled"`
	VerticalScrollSpeed     int    `json:"vertical_scroll_speed"`
	VerticalScrollDelay     int    `json:"vertical_scroll_delay"`
	FullscreenEnabled       bool   `json:"fullscreen_enabled"`
	TextAutofitEnabled      bool   `json:"text_autofit_enabled"`
	LongNamesEnabled        bool   `json:"long_names_enabled"`
	PublicScoresEnabled     bool   `json:"public_scores_enabled"`
	PublicScoreEntryEnabled bool   `json:"public_score_entry_enabled"`
	APIReadAccess           bool   `json:"api_read_access"`
	APIWriteAccess          bool   `json:"api_write_access"`
}

const (
	defaultScrollSpeed = 3
	defaultScrollDelay = 2000
)

func Defaults() Settings {
	return Settings{
		DateFormat:            scores.DefaultDateFormat,
		HorizontalScrollSpeed: defaultScrollSpeed,
		HorizontalScrollDelay: defaultScrollDelay,
		VerticalScrollSpeed:   defaultScrollSpeed,
		VerticalScrollDelay:   defaultScrollDelay,
		TextAutofitEnabled:    true,
	}
}

// normalize fills zero numeric fields with their defaults and drops
// unsupported date formats, as the settings form does.
func (s *Settings) normalize() {
	if s.HorizontalScrollSpeed <= 0 {
		s.HorizontalScrollSpeed = defaultScrollSpeed
	}
	if s.HorizontalScrollDelay <= 0 {
		s.HorizontalScrollDelay = defaultScrollDelay
	}
	if s.VerticalScrollSpeed <= 0 {
		s.VerticalScrollSpeed = defaultScrollSpeed
	}
	if s.VerticalScrollDelay <= 0 {
		s.VerticalScrollDelay = defaultScrollDelay
	}
	if !scores.SupportedFormat(s.DateFormat) {
		s.DateFormat = scores.DefaultDateFormat
	}
}

// Saver persists settings for a room.
type Saver interface {
	SaveSettings(ctx context.Context, roomID string, s Settings) error
}

// Cache keeps the last saved settings locally.
type Cache interface {
	SaveSettings(ctx context.Context, roomID string, s Settings) error
}

type StoreOption func(*Store)

func WithCache(c Cache) StoreOption { return func(s *Store) { s.cache = c } }
func WithLogger(l *zap.Logger) StoreOption { return func(s *Store) { s.log = l } }
func WithOnSaved(fn func(error)) StoreOption { return func(s *Store) { s.onSaved = fn } }
func WithSaveTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.timeout = d }
}

// Store is the single owner of the settings value. Update is the only
// mutation path; each effective change restarts the debounce timer and the
// latest value is saved once the timer fires.
type Store struct {
	roomID  string
	saver   Saver
	cache   Cache
	log     *zap.Logger
	delay   time.Duration
	timeout time.Duration
	onSaved func(error)

	mu      sync.Mutex
	cur     Settings
	timer   *time.Timer
	pending bool
	closed  bool
}

func NewStore(roomID string, initial Settings, saver Saver, debounce time.Duration, opts ...StoreOption) *Store {
	initial.normalize()
	s := &Store{
		roomID:  roomID,
		saver:   saver,
		log:     zap.NewNop(),
		delay:   debounce,
		timeout: 10 * time.Second,
		cur:     initial,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// DateFormat is the active score date format.
func (s *Store) DateFormat() string { return s.Get().DateFormat }

// Update applies fn to a copy of the settings. It reports whether the
// change took effect; unchanged values schedule nothing.
func (s *Store) Update(fn func(*Settings)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	next := s.cur
	fn(&next)
	next.normalize()
	if next == s.cur {
		return false
	}
	s.cur = next
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
	return true
}

// Replace installs settings from the backend without saving them.
func (s *Store) Replace(v Settings) {
	v.normalize()
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

// Pending reports whether a save is scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Store) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.Flush(ctx)
}

// Flush saves a pending change now.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	v := s.cur
	s.mu.Unlock()

	err := s.saver.SaveSettings(ctx, s.roomID, v)
	if err != nil {
		s.log.Error("settings_save_failed", zap.String("room_id", s.roomID), zap.Error(err))
	} else {
		s.log.Info("settings_saved", zap.String("room_id", s.roomID))
		if s.cache != nil {
			if cerr := s.cache.SaveSettings(ctx, s.roomID, v); cerr != nil {
				s.log.Warn("settings_cache_failed", zap.Error(cerr))
			}
		}
	}
	if s.onSaved != nil {
		s.onSaved(err)
	}
	return err
}

// Close flushes a pending change and stops accepting updates.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
