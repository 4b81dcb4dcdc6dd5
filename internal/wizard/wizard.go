// Package wizard runs the scoreboard creation wizard and renders the
// scoreboard listing.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

type Step int

const (
	StepName Step = iota
	StepIntegrations
	StepPlayers
	StepGames
	StepPreset
	StepDone
)

var stepKeys = [...]string{
	StepName:         "wizard.title.name",
	StepIntegrations: "wizard.title.integrations",
	StepPlayers:      "wizard.title.players",
	StepGames:        "wizard.title.games",
	StepPreset:       "wizard.title.theme",
	StepDone:         "wizard.title.done",
}

var (
	ErrNameRequired    = errors.New("wizard: scoreboard name required")
	ErrGamesRequired   = errors.New("wizard: no games selected")
	ErrPresetRequired  = errors.New("wizard: no preset selected")
	ErrVPinNotVerified = errors.New("wizard: external system not verified")
	ErrVPinURLRequired = errors.New("wizard: external system url required")
	ErrNotFinished     = errors.New("wizard: not on the last step")
)

var validate = validator.New()

// CreateRequest is the POST /api/v1/scoreboards body.
type CreateRequest struct {
	ScoreboardName string         `json:"scoreboard_name" validate:"required"`
	VPinAPIEnabled bool           `json:"vpin_api_enabled"`
	VPinAPIURL     *string        `json:"vpin_api_url"`
	VPinGames      []SelectedGame `json:"vpin_games"`
	PresetID       string         `json:"preset_id" validate:"required"`
}

// API is the backend surface the wizard needs.
type API interface {
	Fetcher
	CreateScoreboard(ctx context.Context, req CreateRequest) error
	StylePresets(ctx context.Context) ([]scoredto.StylePreset, error)
	Players(ctx context.Context) ([]scoredto.Player, error)
	ImportVPinPlayer(ctx context.Context, req ImportPlayerRequest) error
	LinkVPinPlayers(ctx context.Context, req LinkRequest) error
}

// Wizard holds one pass through the creation steps. It is not safe for
// concurrent use.
type Wizard struct {
	api    API
	https  bool
	notify ui.Notifier
	msgs   *msgcat.Catalog
	log    *zap.Logger

	step        Step
	name        string
	vpinEnabled bool
	vpinURL     string
	vpinOK      bool
	players     []PlayerPlan
	games       []VPinGame
	selected    []SelectedGame
	presets     []scoredto.StylePreset
	presetID    string
}

func New(api API, https bool, notify ui.Notifier, msgs *msgcat.Catalog, log *zap.Logger) *Wizard {
	if log == nil {
		log = zap.NewNop()
	}
	if notify == nil {
		notify = ui.LogNotifier{Log: log}
	}
	return &Wizard{api: api, https: https, notify: notify, msgs: msgs, log: log}
}

func (w *Wizard) Step() Step { return w.step }

// Title is the heading of the current step.
func (w *Wizard) Title() string { return w.msgs.T(stepKeys[w.step], nil) }

// CanAdvance mirrors the enabled state of the Next control: with the
// integration switched on, the first connection test must have passed.
func (w *Wizard) CanAdvance() bool {
	if w.step == StepIntegrations && w.vpinEnabled {
		return w.vpinOK
	}
	return w.step < StepDone
}

func (w *Wizard) SetName(name string) { w.name = strings.TrimSpace(name) }

// SetVPin changes the integration switch or URL. Any change invalidates a
// previous connection test.
func (w *Wizard) SetVPin(enabled bool, rawURL string) {
	w.vpinEnabled = enabled
	w.vpinURL = strings.TrimSpace(rawURL)
	w.vpinOK = false
}

// TestVPin checks that the external system answers.
func (w *Wizard) TestVPin(ctx context.Context) error {
	if w.vpinURL == "" {
		w.vpinOK = false
		return ErrVPinURLRequired
	}
	if !strings.HasSuffix(w.vpinURL, "/") {
		w.vpinURL += "/"
	}
	var startup any
	if err := w.api.FetchJSON(ctx, VPinTarget(w.vpinURL, vpinStartupPath, w.https), &startup); err != nil {
		w.vpinOK = false
		w.log.Warn("vpin_test_failed", zap.String("url", w.vpinURL), zap.Error(err))
		w.notify.Alert(w.msgs.T("wizard.vpin_failed", map[string]any{"URL": w.vpinURL}))
		return err
	}
	w.vpinOK = true
	w.log.Info("vpin_test_ok", zap.String("url", w.vpinURL))
	return nil
}

// Next validates the current step and moves forward. Leaving a step loads
// what the following one shows. Without the integration the player and
// game import steps are skipped.
func (w *Wizard) Next(ctx context.Context) error {
	switch w.step {
	case StepName:
		if w.name == "" {
			w.notify.Alert(w.msgs.T("wizard.name_required", nil))
			return ErrNameRequired
		}
	case StepIntegrations:
		if w.vpinEnabled && !w.vpinOK {
			return ErrVPinNotVerified
		}
		if !w.vpinEnabled {
			if err := w.loadPresets(ctx); err != nil {
				return err
			}
			w.step = StepPreset
			return nil
		}
		if err := w.loadPlayers(ctx); err != nil {
			return err
		}
	case StepPlayers:
		if err := w.loadGames(ctx); err != nil {
			return err
		}
	case StepGames:
		if len(w.selected) == 0 {
			w.notify.Alert(w.msgs.T("wizard.games_required", nil))
			return ErrGamesRequired
		}
		if err := w.loadPresets(ctx); err != nil {
			return err
		}
	case StepPreset:
		if !w.validPreset() {
			w.notify.Alert(w.msgs.T("wizard.preset_required", nil))
			return ErrPresetRequired
		}
	case StepDone:
		return nil
	}
	w.step++
	return nil
}

// Prev moves back one step, jumping over the skipped import steps.
func (w *Wizard) Prev() {
	switch {
	case w.step == StepName:
	case !w.vpinEnabled && w.step == StepPreset:
		w.step = StepIntegrations
	default:
		w.step--
	}
}

func (w *Wizard) loadPlayers(ctx context.Context) error {
	var vpin []VPinPlayer
	if err := w.api.FetchJSON(ctx, VPinTarget(w.vpinURL, vpinPlayersPath, w.https), &vpin); err != nil {
		w.notify.Alert(w.msgs.T("wizard.vpin_failed", map[string]any{"URL": w.vpinURL}))
		return fmt.Errorf("load external players: %w", err)
	}
	existing, err := w.api.Players(ctx)
	if err != nil {
		w.log.Error("players_fetch_failed", zap.Error(err))
		return fmt.Errorf("load players: %w", err)
	}
	w.players = PlanPlayers(w.vpinURL, vpin, existing)
	return nil
}

func (w *Wizard) loadGames(ctx context.Context) error {
	var games []VPinGame
	if err := w.api.FetchJSON(ctx, VPinTarget(w.vpinURL, vpinGamesPath, w.https), &games); err != nil {
		w.notify.Alert(w.msgs.T("wizard.vpin_failed", map[string]any{"URL": w.vpinURL}))
		return fmt.Errorf("load external games: %w", err)
	}
	w.games = Importable(games)
	w.selected = nil
	return nil
}

func (w *Wizard) loadPresets(ctx context.Context) error {
	presets, err := w.api.StylePresets(ctx)
	if err != nil {
		w.log.Error("style_presets_fetch_failed", zap.Error(err))
		return fmt.Errorf("load presets: %w", err)
	}
	w.presets = presets
	if !w.validPreset() {
		w.presetID = ""
	}
	return nil
}

// PlayerPlans lists the external players and what importing each does.
func (w *Wizard) PlayerPlans() []PlayerPlan { return w.players }

// ApplyPlan adds or links one external player.
func (w *Wizard) ApplyPlan(ctx context.Context, i int) error {
	if i < 0 || i >= len(w.players) {
		return fmt.Errorf("wizard: no player plan %d", i)
	}
	p := w.players[i]
	var err error
	switch req := p.Request(w.vpinURL).(type) {
	case ImportPlayerRequest:
		err = w.api.ImportVPinPlayer(ctx, req)
	case LinkRequest:
		err = w.api.LinkVPinPlayers(ctx, req)
	default:
		return nil
	}
	if err != nil {
		w.log.Error("vpin_player_apply_failed", zap.String("vpin_player_id", p.VPin.ID.String()), zap.Error(err))
		w.notify.Alert(w.msgs.T("player.failed", nil))
		return err
	}
	w.players[i].Kind = PlanLinked
	w.players[i].Updates = nil
	return nil
}

// Games lists the importable external games.
func (w *Wizard) Games() []VPinGame { return w.games }

// Toggle selects or deselects an importable game by id.
func (w *Wizard) Toggle(id string, on bool) {
	for i, s := range w.selected {
		if s.ID == id {
			if !on {
				w.selected = append(w.selected[:i], w.selected[i+1:]...)
			}
			return
		}
	}
	if !on {
		return
	}
	for _, g := range w.games {
		if g.ID.String() == id {
			w.selected = append(w.selected, g.Selection())
			return
		}
	}
}

// SelectAll selects every importable game, or none.
func (w *Wizard) SelectAll(on bool) {
	w.selected = nil
	if !on {
		return
	}
	for _, g := range w.games {
		w.selected = append(w.selected, g.Selection())
	}
}

// AllSelected mirrors the select-all checkbox.
func (w *Wizard) AllSelected() bool {
	return len(w.games) > 0 && len(w.selected) == len(w.games)
}

func (w *Wizard) Selected() []SelectedGame { return w.selected }

func (w *Wizard) Presets() []scoredto.StylePreset { return w.presets }

// SelectPreset picks the theme preset.
func (w *Wizard) SelectPreset(id string) { w.presetID = strings.TrimSpace(id) }

func (w *Wizard) validPreset() bool {
	if w.presetID == "" {
		return false
	}
	for _, p := range w.presets {
		if p.ID.String() == w.presetID {
			return true
		}
	}
	return false
}

// Request builds the create request from the collected answers.
func (w *Wizard) Request() CreateRequest {
	req := CreateRequest{
		ScoreboardName: w.name,
		VPinAPIEnabled: w.vpinEnabled,
		VPinGames:      append([]SelectedGame{}, w.selected...),
		PresetID:       w.presetID,
	}
	if w.vpinEnabled {
		u := w.vpinURL
		req.VPinAPIURL = &u
	}
	return req
}

// Finish submits the scoreboard. Creation continues on the server and
// reports through progress_update.
func (w *Wizard) Finish(ctx context.Context) error {
	if w.step != StepDone {
		return ErrNotFinished
	}
	req := w.Request()
	if err := validate.Struct(req); err != nil {
		w.notify.Alert(w.msgs.T("wizard.failed", nil))
		return fmt.Errorf("wizard: %w", err)
	}
	if err := w.api.CreateScoreboard(ctx, req); err != nil {
		w.log.Error("scoreboard_create_failed", zap.String("name", req.ScoreboardName), zap.Error(err))
		w.notify.Alert(w.msgs.T("wizard.failed", nil))
		return err
	}
	w.log.Info("scoreboard_create_started", zap.String("name", req.ScoreboardName))
	return nil
}
