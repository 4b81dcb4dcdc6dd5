package styles

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// Style action endpoints under /api/v1/style/.
const (
	ActionApplyToGame = "apply-to-game"
	ActionApplyToAll  = "apply-to-all"
	ActionApplyGlobal = "apply-global"
	ActionApplyBoth   = "apply-both"
	ActionSavePreset  = "save-preset"
	ActionSaveGlobal  = "save-global"
	ActionCopyToAll   = "copy-to-all"
)

var (
	ErrNoPreset          = errors.New("styles: no preset selected")
	ErrNoGame            = errors.New("styles: no game selected")
	ErrPresetNameMissing = errors.New("styles: preset name required")
	ErrPresetExists      = errors.New("styles: preset name already exists")
)

// ActionAPI posts style actions and lists presets.
type ActionAPI interface {
	StyleAction(ctx context.Context, action string, body any) error
	StylePresets(ctx context.Context) ([]scoredto.StylePreset, error)
}

// Refresher reloads page state from REST after an action succeeds.
type Refresher interface {
	ReloadStyles(ctx context.Context) error
	ReloadGames(ctx context.Context) error
}

type presetBody struct {
	PresetID string `json:"presetID"`
}

type gamePresetBody struct {
	GameID   string `json:"gameID"`
	PresetID string `json:"presetID"`
}

type gameBody struct {
	GameID string `json:"gameID"`
}

type globalBody struct {
	CSSBody string `json:"cssBody"`
	CSSCard string `json:"cssCard"`
}

type savePresetBody struct {
	GameID     string `json:"gameID"`
	PresetName string `json:"presetName"`
	Overwrite  bool   `json:"overwrite"`
}

// Actions runs the operator's style commands. Validation failures alert
// and never reach the network.
type Actions struct {
	api     ActionAPI
	refresh Refresher
	notify  ui.Notifier
	msgs    *msgcat.Catalog
	log     *zap.Logger
}

func NewActions(api ActionAPI, refresh Refresher, notify ui.Notifier, msgs *msgcat.Catalog, log *zap.Logger) *Actions {
	if log == nil {
		log = zap.NewNop()
	}
	if notify == nil {
		notify = ui.LogNotifier{Log: log}
	}
	return &Actions{api: api, refresh: refresh, notify: notify, msgs: msgs, log: log}
}

func (a *Actions) ApplyToGame(ctx context.Context, gameID, presetID string) error {
	gameID, presetID = strings.TrimSpace(gameID), strings.TrimSpace(presetID)
	if gameID == "" || presetID == "" {
		a.notify.Alert(a.msgs.T("style.no_game", nil))
		if gameID == "" {
			return ErrNoGame
		}
		return ErrNoPreset
	}
	return a.run(ctx, ActionApplyToGame, gamePresetBody{GameID: gameID, PresetID: presetID}, "style.applied_game", false, true)
}

func (a *Actions) ApplyToAll(ctx context.Context, presetID string) error {
	return a.withPreset(ctx, ActionApplyToAll, presetID, "style.applied_all", false, true)
}

func (a *Actions) ApplyGlobal(ctx context.Context, presetID string) error {
	return a.withPreset(ctx, ActionApplyGlobal, presetID, "style.applied_global", true, false)
}

func (a *Actions) ApplyBoth(ctx context.Context, presetID string) error {
	return a.withPreset(ctx, ActionApplyBoth, presetID, "style.applied_both", true, true)
}

// CopyToAll copies one game's style onto every game.
func (a *Actions) CopyToAll(ctx context.Context, gameID string) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		a.notify.Alert(a.msgs.T("style.no_game_for_preset", nil))
		return ErrNoGame
	}
	return a.run(ctx, ActionCopyToAll, gameBody{GameID: gameID}, "style.copied", false, true)
}

func (a *Actions) SaveGlobal(ctx context.Context, gs scoredto.GlobalStyle) error {
	return a.run(ctx, ActionSaveGlobal, globalBody{CSSBody: gs.CSSBody, CSSCard: gs.CSSCard}, "style.global_saved", true, true)
}

// SavePreset stores a game's style as a named preset. A name that matches
// an existing preset, ignoring case, is refused unless overwrite is set.
func (a *Actions) SavePreset(ctx context.Context, gameID, name string, overwrite bool) error {
	gameID, name = strings.TrimSpace(gameID), strings.TrimSpace(name)
	if gameID == "" {
		a.notify.Alert(a.msgs.T("style.no_game_for_preset", nil))
		return ErrNoGame
	}
	if name == "" {
		a.notify.Alert(a.msgs.T("style.preset_name_required", nil))
		return ErrPresetNameMissing
	}
	presets, err := a.api.StylePresets(ctx)
	if err != nil {
		a.log.Error("style_presets_fetch_failed", zap.Error(err))
		a.notify.Alert(a.msgs.T("style.preset_failed", nil))
		return err
	}
	exists := false
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			exists = true
			break
		}
	}
	if exists && !overwrite {
		a.notify.Alert(a.msgs.T("style.preset_exists", map[string]any{"Name": name}))
		return ErrPresetExists
	}

	key := "style.preset_saved"
	if exists {
		key = "style.preset_updated"
	}
	body := savePresetBody{GameID: gameID, PresetName: name, Overwrite: exists}
	if err := a.api.StyleAction(ctx, ActionSavePreset, body); err != nil {
		a.log.Error("style_action_failed", zap.String("action", ActionSavePreset), zap.Error(err))
		a.notify.Alert(a.msgs.T("style.preset_failed", nil))
		return err
	}
	a.notify.Alert(a.msgs.T(key, nil))
	a.reload(ctx, true, false)
	return nil
}

func (a *Actions) withPreset(ctx context.Context, action, presetID, okKey string, styles, games bool) error {
	presetID = strings.TrimSpace(presetID)
	if presetID == "" {
		a.notify.Alert(a.msgs.T("style.no_preset", nil))
		return ErrNoPreset
	}
	return a.run(ctx, action, presetBody{PresetID: presetID}, okKey, styles, games)
}

func (a *Actions) run(ctx context.Context, action string, body any, okKey string, styles, games bool) error {
	if err := a.api.StyleAction(ctx, action, body); err != nil {
		a.log.Error("style_action_failed", zap.String("action", action), zap.Error(err))
		a.notify.Alert(a.msgs.T("style.failed", nil))
		return err
	}
	a.log.Info("style_action_done", zap.String("action", action))
	a.notify.Alert(a.msgs.T(okKey, nil))
	a.reload(ctx, styles, games)
	return nil
}

func (a *Actions) reload(ctx context.Context, styles, games bool) {
	if a.refresh == nil {
		return
	}
	if styles {
		if err := a.refresh.ReloadStyles(ctx); err != nil {
			a.log.Warn("style_reload_failed", zap.Error(err))
		}
	}
	if games {
		if err := a.refresh.ReloadGames(ctx); err != nil {
			a.log.Warn("game_reload_failed", zap.Error(err))
		}
	}
}
