// Package games keeps the game cards and their menu entries in step with
// the room's game data.
package games

import (
	"context"
	"fmt"
	"sort"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/scores"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Source fetches the room's full game list with scores.
type Source interface {
	RoomGames(ctx context.Context) ([]scoredto.Game, error)
}

// Binder is rebound after structural menu changes.
type Binder interface {
	Bind()
}

// DateFormatter supplies the active date format.
type DateFormatter interface {
	DateFormat() string
}

type Option func(*Reconciler)

func WithBinder(b Binder) Option { return func(r *Reconciler) { r.binder = b } }
func WithTextFitter(f ui.TextFitter) Option { return func(r *Reconciler) { r.fit = f } }
func WithDates(d DateFormatter) Option { return func(r *Reconciler) { r.dates = d } }
func WithLogger(l *zap.Logger) Option { return func(r *Reconciler) { r.log = l } }
func WithCardTemplate(tpl string) Option { return func(r *Reconciler) { r.cardTemplate = tpl } }
func WithContainerIDs(cards, menu string) Option {
	return func(r *Reconciler) { r.cardsID, r.menuID = cards, menu }
}

// Reconciler patches cards under the game container and items under the
// game list. Every method must run on the page loop.
type Reconciler struct {
	doc          *dom.Document
	binder       Binder
	fit          ui.TextFitter
	dates        DateFormatter
	log          *zap.Logger
	cardTemplate string
	cardsID      string
	menuID       string
}

func New(doc *dom.Document, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:     doc,
		fit:     ui.NopFitter{},
		log:     zap.NewNop(),
		cardsID: page.GameContainerID,
		menuID:  page.GameListID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// SetCardTemplate replaces the fallback css_card used for games that do
// not carry their own.
func (r *Reconciler) SetCardTemplate(tpl string) { r.cardTemplate = tpl }

type pass struct {
	structural bool
	text       bool
}

func (r *Reconciler) dateFormat() string {
	if r.dates == nil {
		return scores.DefaultDateFormat
	}
	return r.dates.DateFormat()
}

// Refresh reconciles against a full game list. Cards for games that are
// absent or hidden are removed; menu entries are removed only for absent
// games, so a hidden game keeps a display:none entry with its dataset.
func (r *Reconciler) Refresh(games []scoredto.Game) {
	cards, menu := r.containers()
	if cards == nil || menu == nil {
		r.log.Warn("game_containers_missing")
		return
	}
	visible := make(map[string]bool, len(games))
	known := make(map[string]bool, len(games))
	for i := range games {
		id := games[i].GameID.String()
		if id == "" {
			continue
		}
		known[id] = true
		if !games[i].IsHidden() {
			visible[id] = true
		}
	}

	var p pass
	for _, card := range dom.Children(cards, cardMatcher) {
		if id := dom.GetAttr(card, "data-id"); !visible[id] {
			r.doc.Remove(card)
			r.log.Debug("game_card_removed", zap.String("game_id", id))
		}
	}
	for _, item := range dom.Children(menu, menuMatcher) {
		if id := dom.GetAttr(item, "data-id"); !known[id] {
			r.doc.Remove(item)
			p.structural = true
		}
	}
	for i := range games {
		g := &games[i]
		if g.GameID == "" {
			r.log.Warn("game_without_id", zap.String("game_name", g.GameName))
			continue
		}
		if visible[g.GameID.String()] {
			r.upsertCard(cards, g, &p, true)
		}
		r.upsertMenuItem(menu, g, &p)
	}
	r.finish(cards, menu, p)
}

// Apply reconciles one pushed game. A hidden game keeps its card with
// display:none. A payload without scores leaves the score block as is.
func (r *Reconciler) Apply(g scoredto.Game) {
	if g.GameID == "" {
		r.log.Warn("game_update_without_id")
		return
	}
	cards, menu := r.containers()
	if cards == nil || menu == nil {
		r.log.Warn("game_containers_missing", zap.String("game_id", g.GameID.String()))
		return
	}
	var p pass
	r.upsertCard(cards, &g, &p, false)
	r.upsertMenuItem(menu, &g, &p)
	r.finish(cards, menu, p)
}

// Remove drops the card and menu entry of id.
func (r *Reconciler) Remove(id scoredto.ID) {
	if card := r.card(id); card != nil {
		r.doc.Remove(card)
	}
	if item := r.menuItem(id); item != nil {
		r.doc.Remove(item)
		r.rebind()
	}
}

// ToggleVisibility hides or shows the card and menu entry of id in place.
// Showing clears display so the styles match what Apply writes.
func (r *Reconciler) ToggleVisibility(id scoredto.ID, hidden bool) {
	flag, display := scoredto.HiddenFalse, ""
	if hidden {
		flag, display = scoredto.HiddenTrue, "none"
	}
	card, item := r.card(id), r.menuItem(id)
	if card == nil && item == nil {
		r.log.Warn("game_visibility_target_missing", zap.String("game_id", id.String()))
		return
	}
	if card != nil {
		r.doc.SetAttr(card, "data-hidden", flag)
		r.doc.SetStyleProp(card, "display", display)
	}
	if item != nil {
		r.doc.SetAttr(item, "data-hidden", flag)
		r.doc.SetStyleProp(item, "display", display)
		r.setEyeIcon(item, hidden)
	}
}

// ApplyOrder writes a canonical order batch onto cards and menu entries.
func (r *Reconciler) ApplyOrder(order []scoredto.OrderEntry) {
	for _, e := range order {
		sortKey := e.GameSort.String()
		if card := r.card(e.GameID); card != nil {
			r.doc.SetAttr(card, "data-game-sort", sortKey)
			r.doc.SetStyleProp(card, "order", sortKey)
		}
		if item := r.menuItem(e.GameID); item != nil {
			r.doc.SetAttr(item, "data-game-sort", sortKey)
			r.doc.SetStyleProp(item, "order", sortKey)
		}
	}
	cards, menu := r.containers()
	r.finish(cards, menu, pass{})
}

// UpdateScores swaps the score block of one card.
func (r *Reconciler) UpdateScores(block scoredto.ScoreBlock) error {
	card := r.card(block.GameID)
	if card == nil {
		r.log.Warn("game_score_target_missing", zap.String("game_id", block.GameID.String()))
		return fmt.Errorf("game %s: card not found", block.GameID)
	}
	changed, err := scores.Apply(r.doc, card, block, r.dateFormat())
	if err != nil {
		r.log.Error("game_score_render_failed", zap.String("game_id", block.GameID.String()), zap.Error(err))
		return err
	}
	if changed {
		ui.FitCards(r.fit)
	}
	return nil
}

// FullRefresh fetches the room's games and posts a Refresh. Failures are
// logged and leave the current document untouched.
func (r *Reconciler) FullRefresh(ctx context.Context, src Source, p page.Poster) error {
	games, err := src.RoomGames(ctx)
	if err != nil {
		r.log.Error("game_refresh_failed", zap.Error(err))
		return fmt.Errorf("refresh games: %w", err)
	}
	p.Post(func() { r.Refresh(games) })
	return nil
}

func (r *Reconciler) containers() (cards, menu *html.Node) {
	return r.doc.ByID(r.cardsID), r.doc.ByID(r.menuID)
}

func (r *Reconciler) card(id scoredto.ID) *html.Node {
	return dom.Find(r.doc.ByID(r.cardsID), dom.And(cardMatcher, dom.DataID(id.String())))
}

func (r *Reconciler) menuItem(id scoredto.ID) *html.Node {
	return dom.Find(r.doc.ByID(r.menuID), dom.And(dom.Tag("li"), dom.DataID(id.String())))
}

func (r *Reconciler) upsertCard(cards *html.Node, g *scoredto.Game, p *pass, full bool) {
	card := r.card(g.GameID)
	created := card == nil
	if created {
		card = newCard(g)
		r.doc.AppendChild(cards, card)
		r.log.Debug("game_card_created", zap.String("game_id", g.GameID.String()))
	}
	tpl := g.CSSCard
	if tpl == "" {
		tpl = r.cardTemplate
	}
	d := r.doc
	d.SetAttr(card, "data-background", g.GameBackground)
	d.SetAttr(card, "data-color", g.GameColor)
	d.SetAttr(card, "data-image", g.GameImage)
	d.SetAttr(card, "data-game-sort", g.GameSort.String())
	d.SetAttr(card, "data-hidden", g.HiddenFlag())
	d.SetStyle(card, CardStyle(tpl, g.GameBackground, g.GameColor, g.GameImage, g.GameSort, g.IsHidden()))

	title := dom.Find(card, dom.Class("game-title"))
	if title == nil {
		title = dom.Element("span", "class", "game-title")
		d.Prepend(card, title)
	}
	if d.SetText(title, g.GameName) {
		p.text = true
	}
	d.SetStyle(title, g.CSSTitle)

	img := dom.Find(card, dom.Tag("img"))
	switch {
	case g.GameImage != "" && img == nil:
		img = dom.Element("img")
		d.Prepend(card, img)
		fallthrough
	case g.GameImage != "":
		d.SetAttr(img, "src", g.GameImage)
		d.SetAttr(img, "alt", g.GameName)
		d.SetStyle(img, g.CSSBox)
	case img != nil:
		d.Remove(img)
	}

	if dom.Find(card, dom.Class("score-container")) == nil {
		d.AppendChild(card, dom.Element("div", "class", "score-container"))
	}
	// partial pushes without scores keep the rendered block and only restyle it
	if !full && !created && g.Scores == nil {
		restyleScores(d, card, g)
		return
	}
	changed, err := scores.Apply(d, card, g.ScoreBlock(), r.dateFormat())
	if err != nil {
		r.log.Error("game_score_render_failed", zap.String("game_id", g.GameID.String()), zap.Error(err))
	}
	if changed {
		p.text = true
	}
}

func restyleScores(d *dom.Document, card *html.Node, g *scoredto.Game) {
	for _, n := range dom.FindAll(card, dom.Class("score-card")) {
		d.SetStyle(n, g.CSSScoreCards)
	}
	for _, n := range dom.FindAll(card, dom.Class("score-player-name")) {
		d.SetStyle(n, g.CSSInitials)
	}
	for _, n := range dom.FindAll(card, dom.Class("score-score")) {
		d.SetStyle(n, g.CSSScores)
	}
}

func (r *Reconciler) upsertMenuItem(menu *html.Node, g *scoredto.Game, p *pass) {
	item := r.menuItem(g.GameID)
	if item == nil {
		item = newMenuItem(g)
		r.doc.AppendChild(menu, item)
		p.structural = true
		r.log.Debug("game_menu_item_created", zap.String("game_id", g.GameID.String()))
	}
	for _, kv := range menuDataset(g) {
		r.doc.SetAttr(item, kv[0], kv[1])
	}
	display := ""
	if g.IsHidden() {
		display = "none"
	}
	r.doc.SetStyle(item, dom.ComposeStyle(dom.GetAttr(item, "style"),
		dom.Declaration{Prop: "order", Value: g.GameSort.String()},
		dom.Declaration{Prop: "display", Value: display},
	))
	if span := dom.Find(item, dom.Class("game-list-card-title")); span != nil {
		r.doc.SetText(span, g.GameName)
	}
	r.setEyeIcon(item, g.IsHidden())
}

func (r *Reconciler) setEyeIcon(item *html.Node, hidden bool) {
	icon := dom.Find(dom.Find(item, dom.Class("hide-button")), dom.Tag("i"))
	if icon == nil {
		return
	}
	r.doc.ToggleClass(icon, "fa-eye", !hidden)
	r.doc.ToggleClass(icon, "fa-eye-slash", hidden)
}

func (r *Reconciler) finish(cards, menu *html.Node, p pass) {
	arrange(r.doc, cards, cardMatcher)
	if arrange(r.doc, menu, menuMatcher) {
		p.structural = true
	}
	if p.structural {
		r.rebind()
	}
	if p.text {
		ui.FitCards(r.fit)
	}
}

func (r *Reconciler) rebind() {
	if r.binder != nil {
		r.binder.Bind()
	}
}

// arrange puts the matched children of parent in ascending data-game-sort
// order. Ties keep their document order and an already sorted list is not
// touched. It reports whether anything moved.
func arrange(doc *dom.Document, parent *html.Node, m dom.Matcher) bool {
	items := dom.Children(parent, m)
	if len(items) < 2 {
		return false
	}
	want := append([]*html.Node(nil), items...)
	sort.SliceStable(want, func(i, j int) bool {
		return sortOf(want[i]) < sortOf(want[j])
	})
	sorted := true
	for i := range items {
		if items[i] != want[i] {
			sorted = false
			break
		}
	}
	if sorted {
		return false
	}
	anchor := items[len(items)-1].NextSibling
	for _, n := range want {
		doc.InsertBefore(parent, n, anchor)
	}
	return true
}

func sortOf(n *html.Node) int { return atoi(dom.GetAttr(n, "data-game-sort")) }
