// Package styles applies room style broadcasts to the page and runs the
// operator's style actions.
package styles

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	placeholderValue = ""
	placeholderLabel = "-- Select Preset --"
	customValue      = "_custom"
	customLabel      = "-- Custom --"
)

// CardTemplater receives the room-wide css_card template.
type CardTemplater interface {
	SetCardTemplate(tpl string)
}

// Handler owns the style inputs, the preset selectors and the card styles.
// Its methods must run on the page loop.
type Handler struct {
	pc    page.Context
	doc   *dom.Document
	cards CardTemplater
	log   *zap.Logger
}

func NewHandler(pc page.Context, doc *dom.Document, cards CardTemplater, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{pc: pc, doc: doc, cards: cards, log: log}
}

// Apply handles a styles_updated payload. The css is applied only when the
// payload names the current room; a preset-only broadcast carries no room
// and no css. The preset selectors are refreshed in every case.
func (h *Handler) Apply(u scoredto.StylesUpdate) {
	if !u.RoomID.IsZero() && h.pc.SameRoom(u.RoomID.String()) {
		h.ApplyGlobal(scoredto.GlobalStyle{CSSBody: u.CSSBody, CSSCard: u.CSSCard})
	} else {
		h.log.Debug("styles_other_room", zap.String("room_id", u.RoomID.String()))
	}
	if u.Presets != nil {
		h.RefreshSelectors(u.Presets)
	}
}

// ApplyGlobal fills the style inputs, styles every game container with
// css_body and restyles every card from css_card.
func (h *Handler) ApplyGlobal(gs scoredto.GlobalStyle) {
	h.doc.SetValue(h.doc.ByID(page.CSSBodyInputID), gs.CSSBody)
	h.doc.SetValue(h.doc.ByID(page.CSSCardInputID), gs.CSSCard)

	for _, c := range dom.FindAll(h.doc.Root(), dom.Class("game-container")) {
		h.doc.SetStyle(c, gs.CSSBody)
	}
	restyled := 0
	for _, card := range dom.FindAll(h.doc.Root(), dom.Class("game-card")) {
		if games.ApplyCardTemplate(h.doc, card, gs.CSSCard) {
			restyled++
		}
	}
	if h.cards != nil {
		h.cards.SetCardTemplate(gs.CSSCard)
	}
	h.log.Debug("global_style_applied", zap.Int("cards_restyled", restyled))
}

// RefreshSelectors rebuilds the three preset selectors. A selection that
// is still offered survives; otherwise the placeholder is selected.
func (h *Handler) RefreshSelectors(presets []scoredto.StylePreset) {
	for _, id := range []string{page.PresetSelectorID, page.GamePresetID, page.CSSStyleSelectID} {
		sel := h.doc.ByID(id)
		if sel == nil {
			h.log.Warn("preset_selector_missing", zap.String("selector", id))
			continue
		}
		opts := make([][2]string, 0, len(presets)+2)
		if id == page.CSSStyleSelectID {
			opts = append(opts, [2]string{customValue, customLabel})
		}
		opts = append(opts, [2]string{placeholderValue, placeholderLabel})
		for _, p := range presets {
			opts = append(opts, [2]string{p.ID.String(), p.Name})
		}

		prev := dom.Value(sel)
		chosen := placeholderValue
		if hasOption(opts, prev) {
			chosen = prev
		} else {
			h.log.Warn("preset_selection_dropped", zap.String("selector", id), zap.String("previous", prev))
		}
		if _, err := h.doc.SetInnerHTML(sel, optionsMarkup(opts, chosen)); err != nil {
			h.log.Warn("preset_selector_render_failed", zap.String("selector", id), zap.Error(err))
		}
	}
}

// FillGameSelector lists the room's games in the style form's game picker.
func (h *Handler) FillGameSelector(list []scoredto.Game) {
	sel := h.doc.ByID(page.GameSelectorID)
	if sel == nil {
		return
	}
	opts := [][2]string{{"", "Select a Game"}}
	for _, g := range list {
		opts = append(opts, [2]string{g.GameID.String(), g.GameName})
	}
	prev := dom.Value(sel)
	if !hasOption(opts, prev) {
		prev = ""
	}
	if _, err := h.doc.SetInnerHTML(sel, optionsMarkup(opts, prev)); err != nil {
		h.log.Warn("game_selector_render_failed", zap.Error(err))
	}
}

// Selected reads the current value of a selector.
func (h *Handler) Selected(id string) string {
	return strings.TrimSpace(dom.Value(h.doc.ByID(id)))
}

// Inputs returns the css_body and css_card input values.
func (h *Handler) Inputs() scoredto.GlobalStyle {
	return scoredto.GlobalStyle{
		CSSBody: dom.Value(h.doc.ByID(page.CSSBodyInputID)),
		CSSCard: dom.Value(h.doc.ByID(page.CSSCardInputID)),
	}
}

func hasOption(opts [][2]string, v string) bool {
	for _, o := range opts {
		if o[0] == v {
			return true
		}
	}
	return false
}

func optionsMarkup(opts [][2]string, selected string) string {
	var b strings.Builder
	for _, o := range opts {
		opt := dom.Element("option", "value", o[0])
		if o[0] == selected {
			opt.Attr = append(opt.Attr, html.Attribute{Key: "selected", Val: "selected"})
		}
		opt.AppendChild(&html.Node{Type: html.TextNode, Data: o[1]})
		b.WriteString(dom.OuterHTML(opt))
	}
	return b.String()
}

// Source is the REST surface Reload reads from.
type Source interface {
	StylePresets(ctx context.Context) ([]scoredto.StylePreset, error)
	GlobalStyle(ctx context.Context) (scoredto.GlobalStyle, error)
}

// Reload fetches presets and the global style off the loop and applies
// them on it.
func (h *Handler) Reload(ctx context.Context, src Source, p page.Poster) error {
	presets, perr := src.StylePresets(ctx)
	if perr != nil {
		h.log.Error("style_presets_fetch_failed", zap.Error(perr))
	}
	gs, gerr := src.GlobalStyle(ctx)
	if gerr != nil {
		h.log.Error("global_style_fetch_failed", zap.Error(gerr))
	}
	p.Post(func() {
		if perr == nil {
			h.RefreshSelectors(presets)
		}
		if gerr == nil {
			h.ApplyGlobal(gs)
		}
	})
	if perr != nil {
		return fmt.Errorf("reload presets: %w", perr)
	}
	if gerr != nil {
		return fmt.Errorf("reload global style: %w", gerr)
	}
	return nil
}
