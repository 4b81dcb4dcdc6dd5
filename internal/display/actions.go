package display

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/dragorder"
	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/internal/transfer"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// Client message types.
const (
	MsgDragStart    = "dragstart"
	MsgDragOver     = "dragover"
	MsgDrop         = "drop"
	MsgDragEnd      = "dragend"
	MsgToggleHidden = "toggle_hidden"
	MsgSettings     = "settings"
	MsgStyle        = "style"
	MsgExport       = "export"
	MsgRefresh      = "refresh"
	MsgWizard       = "wizard"
)

var (
	ErrUnknownMessage = errors.New("unknown type")
	ErrMissingID      = errors.New("missing id")
	ErrUnavailable    = errors.New("action unavailable")
)

// ClientMessage is one interaction sent by a display.
type ClientMessage struct {
	Type     string             `json:"type"`
	ID       string             `json:"id,omitempty"`
	Y        float64            `json:"y,omitempty"`
	Boxes    map[string]ui.Rect `json:"boxes,omitempty"`
	Settings json.RawMessage    `json:"settings,omitempty"`

	// style actions
	Action    string `json:"action,omitempty"`
	PresetID  string `json:"preset_id,omitempty"`
	GameID    string `json:"game_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
	CSSBody   string `json:"css_body,omitempty"`
	CSSCard   string `json:"css_card,omitempty"`

	// wizard
	Enabled bool   `json:"enabled,omitempty"`
	URL     string `json:"url,omitempty"`
	Index   int    `json:"index,omitempty"`
	On      bool   `json:"on,omitempty"`

	// player, admin and helpers
	Player    *PlayerFields `json:"player,omitempty"`
	Confirmed bool          `json:"confirmed,omitempty"`
	Password  string        `json:"password,omitempty"`
	Text      string        `json:"text,omitempty"`
	Tooltip   *TooltipBox   `json:"tooltip,omitempty"`
}

// VisibilityAPI persists a game's hidden flag.
type VisibilityAPI interface {
	SetGameHidden(ctx context.Context, id scoredto.ID, hidden bool) error
}

type ActionOption func(*Actions)

func WithDrag(c *dragorder.Controller) ActionOption { return func(a *Actions) { a.drag = c } }
func WithSettings(s *settings.Store) ActionOption  { return func(a *Actions) { a.settings = s } }
func WithNotifier(n ui.Notifier, msgs *msgcat.Catalog) ActionOption {
	return func(a *Actions) { a.notify, a.msgs = n, msgs }
}
func WithLogger(l *zap.Logger) ActionOption { return func(a *Actions) { a.log = l } }
func WithStyleActions(s *styles.Actions) ActionOption { return func(a *Actions) { a.styles = s } }
func WithTransfer(t *transfer.Service) ActionOption { return func(a *Actions) { a.transfer = t } }
func WithReloader(r *Reloader) ActionOption { return func(a *Actions) { a.reload = r } }

// WithVisibility enables toggle_hidden. src, when set, is refetched after a
// successful toggle.
func WithVisibility(rec *games.Reconciler, api VisibilityAPI, src games.Source) ActionOption {
	return func(a *Actions) { a.games, a.vis, a.src = rec, api, src }
}

// Actions maps display interactions onto the page. DOM work is posted to
// the page loop; backend calls run off it.
type Actions struct {
	poster   page.Poster
	doc      *dom.Document
	drag     *dragorder.Controller
	games    *games.Reconciler
	vis      VisibilityAPI
	src      games.Source
	settings *settings.Store
	styles   *styles.Actions
	transfer *transfer.Service
	reload   *Reloader
	admin    *settings.Admin
	prober   ui.Prober
	notify   ui.Notifier
	msgs     *msgcat.Catalog
	log      *zap.Logger
	timeout  time.Duration

	playerSvc  *players.Service
	newWizard  func() *wizard.Wizard
	wizardOut  ui.Broadcaster
	wizardMu   sync.Mutex
	wizardTail chan struct{}
	pass       *wizard.Wizard
}

func NewActions(poster page.Poster, doc *dom.Document, opts ...ActionOption) *Actions {
	a := &Actions{poster: poster, doc: doc, log: zap.NewNop(), timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.notify == nil {
		a.notify = ui.LogNotifier{Log: a.log}
	}
	return a
}

func (a *Actions) Handle(m ClientMessage) error {
	switch m.Type {
	case MsgDragStart, MsgDragOver, MsgDrop, MsgDragEnd:
		return a.dragEvent(m)
	case MsgToggleHidden:
		return a.toggleHidden(strings.TrimSpace(m.ID))
	case MsgSettings:
		return a.updateSettings(m.Settings)
	case MsgStyle:
		return a.styleAction(m)
	case MsgExport:
		if a.transfer == nil {
			return ErrUnavailable
		}
		go a.background(func(ctx context.Context) { _, _ = a.transfer.Export(ctx) })
		return nil
	case MsgRefresh:
		if a.reload == nil {
			return ErrUnavailable
		}
		go a.background(func(ctx context.Context) { _ = a.reload.ReloadAll(ctx) })
		return nil
	case MsgWizard:
		return a.wizardStep(m)
	case MsgPlayer:
		return a.playerAction(m)
	case MsgAdmin:
		return a.adminAction(m)
	case MsgPreview:
		return a.preview(m.URL)
	case MsgTooltip, MsgTooltipHide:
		return a.tooltip(m)
	default:
		return ErrUnknownMessage
	}
}

func (a *Actions) dragEvent(m ClientMessage) error {
	if a.drag == nil {
		return ErrUnavailable
	}
	switch m.Type {
	case MsgDragStart:
		if strings.TrimSpace(m.ID) == "" {
			return ErrMissingID
		}
		a.poster.Post(func() { a.drag.DragStart(strings.TrimSpace(m.ID)) })
	case MsgDragOver:
		a.poster.Post(func() { a.drag.DragOver(m.Y, m.Boxes) })
	case MsgDrop:
		a.poster.Post(func() { a.drag.Drop() })
	case MsgDragEnd:
		a.poster.Post(func() { a.drag.DragEnd() })
	}
	return nil
}

// toggleHidden flips the menu item's stored flag through the backend and
// mirrors the result once the backend accepted it.
func (a *Actions) toggleHidden(id string) error {
	if id == "" {
		return ErrMissingID
	}
	if a.games == nil || a.vis == nil {
		return ErrUnavailable
	}
	gameID := scoredto.ID(id)
	a.poster.Post(func() {
		item := dom.Find(a.doc.ByID(page.GameListID), dom.DataID(id))
		if item == nil {
			a.log.Warn("toggle_hidden_target_missing", zap.String("game_id", id))
			return
		}
		hidden := !strings.EqualFold(dom.GetAttr(item, "data-hidden"), scoredto.HiddenTrue)
		go a.persistHidden(gameID, hidden)
	})
	return nil
}

func (a *Actions) persistHidden(id scoredto.ID, hidden bool) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.vis.SetGameHidden(ctx, id, hidden); err != nil {
		a.log.Error("game_visibility_save_failed", zap.String("game_id", id.String()), zap.Error(err))
		a.notify.Alert(a.msgs.T("game.visibility_failed", nil))
		return
	}
	a.poster.Post(func() { a.games.ToggleVisibility(id, hidden) })
	if a.src != nil {
		_ = a.games.FullRefresh(ctx, a.src, a.poster)
	}
}

// updateSettings merges a partial settings object into the store.
func (a *Actions) updateSettings(raw json.RawMessage) error {
	if a.settings == nil {
		return ErrUnavailable
	}
	if len(raw) == 0 {
		return nil
	}
	probe := a.settings.Get()
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if a.settings.Update(func(s *settings.Settings) { _ = json.Unmarshal(raw, s) }) {
		a.log.Debug("settings_changed")
	}
	return nil
}

// styleAction runs one style command off the page loop. styles.Actions
// alerts on every failure, so errors are only logged here.
func (a *Actions) styleAction(m ClientMessage) error {
	if a.styles == nil {
		return ErrUnavailable
	}
	var run func(ctx context.Context) error
	switch m.Action {
	case styles.ActionApplyToGame:
		run = func(ctx context.Context) error { return a.styles.ApplyToGame(ctx, m.GameID, m.PresetID) }
	case styles.ActionApplyToAll:
		run = func(ctx context.Context) error { return a.styles.ApplyToAll(ctx, m.PresetID) }
	case styles.ActionApplyGlobal:
		run = func(ctx context.Context) error { return a.styles.ApplyGlobal(ctx, m.PresetID) }
	case styles.ActionApplyBoth:
		run = func(ctx context.Context) error { return a.styles.ApplyBoth(ctx, m.PresetID) }
	case styles.ActionCopyToAll:
		run = func(ctx context.Context) error { return a.styles.CopyToAll(ctx, m.GameID) }
	case styles.ActionSaveGlobal:
		gs := scoredto.GlobalStyle{CSSBody: m.CSSBody, CSSCard: m.CSSCard}
		run = func(ctx context.Context) error { return a.styles.SaveGlobal(ctx, gs) }
	case styles.ActionSavePreset:
		run = func(ctx context.Context) error { return a.styles.SavePreset(ctx, m.GameID, m.Name, m.Overwrite) }
	default:
		return ErrUnknownMessage
	}
	go a.background(func(ctx context.Context) {
		if err := run(ctx); err != nil {
			a.log.Debug("style_action_failed", zap.String("action", m.Action), zap.Error(err))
		}
	})
	return nil
}

func (a *Actions) background(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	fn(ctx)
}
