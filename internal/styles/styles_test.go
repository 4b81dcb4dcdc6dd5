package styles

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cards = `<div class="game-card" data-id="1" data-game-sort="2" data-background="bg.png" data-color="" data-image="" data-hidden="FALSE"></div>` +
	`<div class="game-card" data-id="2" data-game-sort="1" data-background="" data-color="#00f" data-image="" data-hidden="TRUE"></div>`

func newDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc := dom.MustParse(page.Skeleton)
	body := doc.Body()
	doc.SetAttr(body, "data-room-id", "room1")
	_, err := doc.SetInnerHTML(doc.ByID(page.GameContainerID), cards)
	require.NoError(t, err)
	return doc
}

type tplSink struct{ tpl string }

func (s *tplSink) SetCardTemplate(tpl string) { s.tpl = tpl }

var presets = []scoredto.StylePreset{{ID: "7", Name: "Neon"}, {ID: "9", Name: "Retro"}}

func TestApplyRestylesCardsKeepingOrderAndHidden(t *testing.T) {
	doc := newDoc(t)
	sink := &tplSink{}
	h := NewHandler(page.Context{RoomID: "room1"}, doc, sink, nil)

	h.Apply(scoredto.StylesUpdate{
		RoomID:  "room1",
		CSSBody: "background: black",
		CSSCard: "background: url({GameBackground}); color: {GameColor};",
		Presets: presets,
	})

	assert.Equal(t, "background: black;", dom.GetAttr(doc.ByID(page.GameContainerID), "style"))
	c1 := dom.Find(doc.Root(), dom.And(dom.Class("game-card"), dom.DataID("1")))
	c2 := dom.Find(doc.Root(), dom.And(dom.Class("game-card"), dom.DataID("2")))
	assert.Equal(t, "background: url(bg.png); color: #FFFFFF; order: 2;", dom.GetAttr(c1, "style"))
	assert.Equal(t, "background: url(); color: #00f; order: 1; display: none;", dom.GetAttr(c2, "style"))
	assert.Equal(t, "background: url({GameBackground}); color: {GameColor};", sink.tpl)
	assert.Equal(t, "background: black", h.Inputs().CSSBody)

	before := doc.Mutations()
	h.Apply(scoredto.StylesUpdate{RoomID: "room1", CSSBody: "background: black", CSSCard: sink.tpl, Presets: presets})
	assert.Equal(t, before, doc.Mutations(), "second identical broadcast must not mutate")
}

func TestOtherRoomOnlyRefreshesSelectors(t *testing.T) {
	doc := newDoc(t)
	h := NewHandler(page.Context{RoomID: "room1"}, doc, nil, nil)
	h.Apply(scoredto.StylesUpdate{RoomID: "room2", CSSBody: "color: red", Presets: presets})

	assert.Empty(t, dom.GetAttr(doc.ByID(page.GameContainerID), "style"))
	opts := dom.FindAll(doc.ByID(page.PresetSelectorID), dom.Tag("option"))
	require.Len(t, opts, 3)
	assert.Equal(t, "-- Select Preset --", dom.Text(opts[0]))
	assert.Equal(t, "Neon", dom.Text(opts[1]))
}

func TestRoomlessBroadcastKeepsRoomStyles(t *testing.T) {
	doc := newDoc(t)
	sink := &tplSink{}
	h := NewHandler(page.Context{RoomID: "room1"}, doc, sink, nil)
	h.Apply(scoredto.StylesUpdate{
		RoomID:  "room1",
		CSSBody: "background: black",
		CSSCard: "color: {GameColor};",
		Presets: presets,
	})
	c1 := dom.Find(doc.Root(), dom.And(dom.Class("game-card"), dom.DataID("1")))
	cardStyle := dom.GetAttr(c1, "style")
	require.Equal(t, "color: #FFFFFF; order: 2;", cardStyle)

	h.Apply(scoredto.StylesUpdate{Presets: []scoredto.StylePreset{{ID: "7", Name: "Neon"}, {ID: "11", Name: "Arcade"}}})

	assert.Equal(t, cardStyle, dom.GetAttr(c1, "style"))
	assert.Equal(t, "background: black;", dom.GetAttr(doc.ByID(page.GameContainerID), "style"))
	assert.Equal(t, "background: black", h.Inputs().CSSBody)
	assert.Equal(t, "color: {GameColor};", sink.tpl)
	assert.Contains(t, dom.InnerHTML(doc.ByID(page.PresetSelectorID)), "Arcade")
}

func TestSelectorsKeepValidSelection(t *testing.T) {
	doc := newDoc(t)
	h := NewHandler(page.Context{RoomID: "room1"}, doc, nil, nil)
	h.RefreshSelectors(presets)

	doc.SetValue(doc.ByID(page.PresetSelectorID), "9")
	doc.SetValue(doc.ByID(page.CSSStyleSelectID), "_custom")
	h.RefreshSelectors(presets)
	assert.Equal(t, "9", h.Selected(page.PresetSelectorID))
	assert.Equal(t, "_custom", h.Selected(page.CSSStyleSelectID))

	css := dom.FindAll(doc.ByID(page.CSSStyleSelectID), dom.Tag("option"))
	require.Len(t, css, 4)
	assert.Equal(t, "_custom", dom.GetAttr(css[0], "value"))

	// the selected preset disappears
	h.RefreshSelectors([]scoredto.StylePreset{{ID: "7", Name: "Neon"}})
	assert.Equal(t, "", h.Selected(page.PresetSelectorID))
	assert.Equal(t, "_custom", h.Selected(page.CSSStyleSelectID))
}

// fakeBackend stores a global style and applies presets to it.
type fakeBackend struct {
	global  scoredto.GlobalStyle
	presets map[string]scoredto.GlobalStyle
	calls   []string
	err     error
}

func (f *fakeBackend) StylePresets(context.Context) ([]scoredto.StylePreset, error) {
	return presets, nil
}

func (f *fakeBackend) GlobalStyle(context.Context) (scoredto.GlobalStyle, error) {
	return f.global, nil
}

func (f *fakeBackend) StyleAction(_ context.Context, action string, body any) error {
	f.calls = append(f.calls, action)
	if f.err != nil {
		return f.err
	}
	if b, ok := body.(presetBody); ok && (action == ActionApplyGlobal || action == ActionApplyBoth) {
		f.global = f.presets[b.PresetID]
	}
	return nil
}

type reloader struct {
	h      *Handler
	src    Source
	styles int
	games  int
}

func (r *reloader) ReloadStyles(ctx context.Context) error {
	r.styles++
	return r.h.Reload(ctx, r.src, page.Inline{})
}

func (r *reloader) ReloadGames(context.Context) error {
	r.games++
	return nil
}

type alerts struct{ msgs []string }

func (a *alerts) Alert(m string) { a.msgs = append(a.msgs, m) }

func TestApplyPresetThenRefetchPopulatesInputs(t *testing.T) {
	doc := newDoc(t)
	h := NewHandler(page.Context{RoomID: "room1"}, doc, nil, nil)
	be := &fakeBackend{presets: map[string]scoredto.GlobalStyle{
		"7": {CSSBody: "background: #111;", CSSCard: "border: 2px solid {GameColor};"},
	}}
	rl := &reloader{h: h, src: be}
	al := &alerts{}
	a := NewActions(be, rl, al, nil, nil)

	require.NoError(t, a.ApplyGlobal(context.Background(), "7"))
	assert.Equal(t, be.presets["7"], h.Inputs())
	assert.Equal(t, 1, rl.styles)
	assert.Equal(t, 0, rl.games)
	assert.Equal(t, []string{"Preset applied to global styles!"}, al.msgs)
}

func TestValidationNeverReachesNetwork(t *testing.T) {
	be := &fakeBackend{}
	al := &alerts{}
	a := NewActions(be, nil, al, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, a.ApplyToAll(ctx, " "), ErrNoPreset)
	assert.ErrorIs(t, a.ApplyToGame(ctx, "", "7"), ErrNoGame)
	assert.ErrorIs(t, a.ApplyToGame(ctx, "1", ""), ErrNoPreset)
	assert.ErrorIs(t, a.CopyToAll(ctx, ""), ErrNoGame)
	assert.ErrorIs(t, a.SavePreset(ctx, "1", "", false), ErrPresetNameMissing)
	assert.Empty(t, be.calls)
	assert.Len(t, al.msgs, 5)
}

func TestSavePresetDuplicateNeedsOverwrite(t *testing.T) {
	be := &fakeBackend{}
	al := &alerts{}
	a := NewActions(be, nil, al, nil, nil)
	ctx := context.Background()

	err := a.SavePreset(ctx, "1", "neon", false)
	require.ErrorIs(t, err, ErrPresetExists)
	assert.Empty(t, be.calls)
	assert.Contains(t, al.msgs[0], `"neon" already exists`)

	require.NoError(t, a.SavePreset(ctx, "1", "neon", true))
	assert.Equal(t, []string{ActionSavePreset}, be.calls)
	assert.Equal(t, "Preset updated successfully!", al.msgs[1])

	require.NoError(t, a.SavePreset(ctx, "1", "Fresh", false))
	assert.Equal(t, "Preset saved successfully!", al.msgs[2])
}

func TestActionFailureAlerts(t *testing.T) {
	be := &fakeBackend{err: errors.New("502")}
	al := &alerts{}
	rl := &reloader{}
	a := NewActions(be, rl, al, nil, nil)
	require.Error(t, a.ApplyBoth(context.Background(), "7"))
	assert.Equal(t, []string{"Style update failed."}, al.msgs)
	assert.Zero(t, rl.styles)
}

func TestFillGameSelector(t *testing.T) {
	doc := newDoc(t)
	h := NewHandler(page.Context{RoomID: "room1"}, doc, nil, nil)
	h.FillGameSelector([]scoredto.Game{{GameID: "1", GameName: "Attack <from> Mars"}})
	opts := dom.FindAll(doc.ByID(page.GameSelectorID), dom.Tag("option"))
	require.Len(t, opts, 2)
	assert.Equal(t, "Attack <from> Mars", dom.Text(opts[1]))
}
