package display

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// Form and helper message types.
const (
	MsgPlayer      = "player"
	MsgAdmin       = "admin"
	MsgPreview     = "preview"
	MsgTooltip     = "tooltip"
	MsgTooltipHide = "tooltip_hide"
)

// Player and admin actions.
const (
	PlayerSave            = "save"
	PlayerHide            = "hide"
	PlayerDelete          = "delete"
	AdminPassword         = "password"
	AdminDeleteScoreboard = "delete_scoreboard"
)

var ErrMissingPlayer = errors.New("missing player")

// PlayerFields is the player editor as sent by a display. Icons are set
// by URL; file uploads go through the REST API directly.
type PlayerFields struct {
	FullName     string   `json:"full_name"`
	Aliases      []string `json:"aliases"`
	DefaultAlias string   `json:"default_alias"`
	IconURL      string   `json:"icon_url"`
}

// TooltipBox sizes a tooltip against its target.
type TooltipBox struct {
	Target   ui.Rect `json:"target"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Viewport float64 `json:"viewport"`
}

func WithPlayers(s *players.Service) ActionOption { return func(a *Actions) { a.playerSvc = s } }
func WithAdmin(s *settings.Admin) ActionOption    { return func(a *Actions) { a.admin = s } }
func WithPreview(p ui.Prober) ActionOption        { return func(a *Actions) { a.prober = p } }

func (a *Actions) playerAction(m ClientMessage) error {
	if a.playerSvc == nil {
		return ErrUnavailable
	}
	id := scoredto.ID(strings.TrimSpace(m.ID))
	var run func(ctx context.Context) error
	switch m.Action {
	case PlayerSave:
		if m.Player == nil {
			return ErrMissingPlayer
		}
		f := players.Form{
			ID:           id,
			FullName:     m.Player.FullName,
			Aliases:      m.Player.Aliases,
			DefaultAlias: m.Player.DefaultAlias,
			IconURL:      m.Player.IconURL,
		}
		if a.settings != nil {
			f.LongNames = a.settings.Get().LongNamesEnabled
		}
		run = func(ctx context.Context) error { return a.playerSvc.Save(ctx, f) }
	case PlayerHide:
		if id.IsZero() {
			return ErrMissingID
		}
		run = func(ctx context.Context) error { return a.playerSvc.Hide(ctx, id) }
	case PlayerDelete:
		if id.IsZero() {
			return ErrMissingID
		}
		confirmed := m.Confirmed
		run = func(ctx context.Context) error { return a.playerSvc.Delete(ctx, id, confirmed) }
	default:
		return ErrUnknownMessage
	}
	go a.background(func(ctx context.Context) {
		if err := run(ctx); err != nil {
			a.log.Debug("player_action_failed", zap.String("action", m.Action), zap.Error(err))
			return
		}
		if a.reload != nil {
			_ = a.reload.ReloadPlayers(ctx)
		}
	})
	return nil
}

func (a *Actions) adminAction(m ClientMessage) error {
	if a.admin == nil {
		return ErrUnavailable
	}
	switch m.Action {
	case AdminPassword:
		password := m.Password
		go a.background(func(ctx context.Context) { _ = a.admin.SetPassword(ctx, password) })
	case AdminDeleteScoreboard:
		if !m.Confirmed {
			return nil
		}
		go a.background(func(ctx context.Context) {
			if err := a.admin.DeleteScoreboard(ctx, true); err != nil {
				return
			}
			if a.reload != nil {
				_ = a.reload.ReloadScoreboards(ctx)
			}
		})
	default:
		return ErrUnknownMessage
	}
	return nil
}

// preview probes the image off the loop and then updates the preview
// element.
func (a *Actions) preview(url string) error {
	go a.background(func(ctx context.Context) {
		pv := ui.CheckPreview(ctx, a.prober, url)
		a.poster.Post(func() { pv.Apply(a.doc, a.doc.ByID(page.ImagePreviewID)) })
	})
	return nil
}

func (a *Actions) tooltip(m ClientMessage) error {
	if m.Type == MsgTooltipHide {
		a.poster.Post(func() { ui.HideTooltip(a.doc, a.doc.ByID(page.TooltipID)) })
		return nil
	}
	if m.Tooltip == nil || strings.TrimSpace(m.Text) == "" {
		return nil
	}
	box := *m.Tooltip
	text := m.Text
	a.poster.Post(func() {
		top, left := ui.TooltipPosition(box.Target, box.Width, box.Height, box.Viewport)
		ui.PlaceTooltip(a.doc, a.doc.ByID(page.TooltipID), text, top, left)
	})
	return nil
}
