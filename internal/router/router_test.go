package router

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/progress"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSession string

func (s fixedSession) SessionID(context.Context) (string, error) { return string(s), nil }

type stringDownloader string

func (d stringDownloader) Download(_ context.Context, _ string, w io.Writer) error {
	_, err := io.WriteString(w, string(d))
	return err
}

type fixture struct {
	doc *dom.Document
	r   *Router
	dir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	pc := page.Context{RoomID: "room1", UserID: "ada"}
	doc := dom.MustParse(page.Skeleton)
	g := games.New(doc)
	modal := progress.NewModal(doc, nil, nil)
	dir := t.TempDir()
	r := New(pc, page.Inline{}, Targets{
		Games:    g,
		Styles:   styles.NewHandler(pc, doc, g, nil),
		Players:  players.NewList(doc, nil),
		Progress: modal,
		Exports:  progress.NewExports(dir, stringDownloader("7z"), fixedSession("sess-1"), modal, page.Inline{}, nil),
	}, nil)
	return fixture{doc: doc, r: r, dir: dir}
}

func (f fixture) send(event, data string) {
	f.r.Dispatch(scoredto.Envelope{Event: event, Data: json.RawMessage(data)})
}

func cardOf(doc *dom.Document, id string) bool {
	return dom.Find(doc.ByID(page.GameContainerID), dom.DataID(id)) != nil
}

func TestGameUpdateForOtherRoomIsIgnored(t *testing.T) {
	f := newFixture(t)
	before := f.doc.Mutations()
	f.send(scoredto.EventGameUpdate, `{"gameID":"42","roomID":"room2","GameSort":3,"Hidden":"FALSE","scores":[]}`)
	assert.Equal(t, before, f.doc.Mutations())
	assert.False(t, cardOf(f.doc, "42"))
}

func TestGameUpdateArrayKeepsOwnRoomOnly(t *testing.T) {
	f := newFixture(t)
	f.send(scoredto.EventGameUpdate, `[
		{"gameID":"1","roomID":"room1","GameSort":1,"Hidden":"FALSE","scores":[]},
		{"gameID":"2","roomID":"room9","GameSort":2,"Hidden":"FALSE","scores":[]},
		{"gameID":"3","GameSort":3,"Hidden":"FALSE","scores":[]}
	]`)
	assert.True(t, cardOf(f.doc, "1"))
	assert.False(t, cardOf(f.doc, "2"))
	assert.False(t, cardOf(f.doc, "3"))
}

func TestRoomlessRecordsAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.send(scoredto.EventGameUpdate, `{"gameID":"5","roomID":"room1","gameName":"Galaga","GameSort":2,"Hidden":"FALSE","scores":[{"playerId":1,"player_name":"AAA","score":900,"timestamp":"2024-03-05 14:30"}]}`)
	card := dom.Find(f.doc.ByID(page.GameContainerID), dom.DataID("5"))
	require.NotNil(t, card)
	style, text := dom.GetAttr(card, "style"), dom.Text(card)

	before := f.doc.Mutations()
	f.send(scoredto.EventGameUpdate, `[{"gameID":"5"}]`)
	f.send(scoredto.EventGameUpdate, `{"gameID":"6","GameSort":1,"Hidden":"FALSE","scores":[]}`)
	f.send(scoredto.EventGameScoreUpdate, `{"gameID":"5","scores":[]}`)
	assert.Equal(t, before, f.doc.Mutations())
	assert.Equal(t, style, dom.GetAttr(card, "style"))
	assert.Equal(t, text, dom.Text(card))
	assert.False(t, cardOf(f.doc, "6"))
}

func TestRoomlessIDEventsApplyToCurrentRoom(t *testing.T) {
	f := newFixture(t)
	f.send(scoredto.EventGameUpdate, `{"gameID":"5","roomID":"room1","GameSort":2,"Hidden":"FALSE","scores":[]}`)
	card := dom.Find(f.doc.ByID(page.GameContainerID), dom.DataID("5"))
	require.NotNil(t, card)

	f.send(scoredto.EventVisibilityToggled, `{"gameID":"5","hidden":"TRUE"}`)
	assert.Equal(t, "none", dom.StyleProp(card, "display"))
	f.send(scoredto.EventVisibilityToggled, `{"gameID":"5","hidden":"FALSE"}`)
	assert.Empty(t, dom.StyleProp(card, "display"))

	f.send(scoredto.EventGameDeleted, `{"gameID":"5"}`)
	assert.False(t, cardOf(f.doc, "5"))
}

func TestGameLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	f.send(scoredto.EventGameUpdate, `{"gameID":"42","roomID":"room1","GameSort":3,"Hidden":"FALSE","scores":[]}`)
	require.True(t, cardOf(f.doc, "42"))
	card := dom.Find(f.doc.ByID(page.GameContainerID), dom.DataID("42"))

	f.send(scoredto.EventGameScoreUpdate, `{"gameID":"42","roomID":"room1","ScoreType":"","scores":[{"playerId":1,"player_name":"AAA","score":900,"timestamp":"2024-03-05 14:30"}]}`)
	assert.Contains(t, dom.Text(card), "AAA")

	f.send(scoredto.EventGameScoreUpdate, `{"gameID":"42","roomID":"room2","scores":[]}`)
	assert.Contains(t, dom.Text(card), "AAA")

	f.send(scoredto.EventVisibilityToggled, `{"gameID":"42","hidden":"TRUE"}`)
	assert.Equal(t, "none", dom.StyleProp(card, "display"))

	f.send(scoredto.EventGameOrderUpdate, `[{"game_id":"42","game_sort":7}]`)
	assert.Equal(t, "7", dom.GetAttr(card, "data-game-sort"))

	f.send(scoredto.EventGameDeleted, `{"gameID":"42","roomID":"room2"}`)
	assert.True(t, cardOf(f.doc, "42"))
	f.send(scoredto.EventGameDeleted, `{"gameID":"42"}`)
	assert.False(t, cardOf(f.doc, "42"))
}

func TestBadPayloadsAreDropped(t *testing.T) {
	f := newFixture(t)
	before := f.doc.Mutations()
	f.send("no_such_event", `{}`)
	f.send(scoredto.EventGameUpdate, `{"gameID":`)
	f.send(scoredto.EventGameDeleted, `{}`)
	f.send(scoredto.EventGameScoreUpdate, `{"gameID":"missing","scores":[]}`)
	f.send(scoredto.EventGameOrderUpdate, `"not a list"`)
	assert.Equal(t, before, f.doc.Mutations())
}

func TestStylesPlayersAndProgress(t *testing.T) {
	f := newFixture(t)

	f.send(scoredto.EventStylesUpdated, `{"roomID":"room2","css_body":"color: red;","presets":[{"id":1,"name":"Neon"}]}`)
	assert.Contains(t, dom.InnerHTML(f.doc.ByID(page.PresetSelectorID)), "Neon")
	assert.Empty(t, dom.Value(f.doc.ByID(page.CSSBodyInputID)))

	f.send(scoredto.EventPlayersUpdated, `{"players":[{"id":1,"full_name":"Ada","default_alias":"ADA"},{"id":2,"full_name":"Gone","hidden":true}]}`)
	list := dom.Text(f.doc.ByID(page.PlayerListID))
	assert.Contains(t, list, "Ada")
	assert.NotContains(t, list, "Gone")

	f.send(scoredto.EventPlayersUpdated, `{"players":[{"id":1,"roomID":"room1","full_name":"Ada"},{"id":3,"roomID":"room2","full_name":"Stranger"}]}`)
	list = dom.Text(f.doc.ByID(page.PlayerListID))
	assert.Contains(t, list, "Ada")
	assert.NotContains(t, list, "Stranger")

	f.send(scoredto.EventProgressUpdate, `{"progress":55,"message":"Working"}`)
	assert.Equal(t, "55%", dom.StyleProp(f.doc.ByID(page.ProgressBarID), "width"))
}

func TestFileReadyDownloadsOwnSession(t *testing.T) {
	f := newFixture(t)
	target := filepath.Join(f.dir, progress.ArchiveName)

	f.send(scoredto.EventFileReady, `{"session_id":"other","file_path":"/exports/x.7z"}`)
	f.send(scoredto.EventFileReady, `{"session_id":"sess-1","file_path":"/exports/x.7z"}`)
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(target)
		return err == nil && string(b) == "7z"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsCoverPushChannel(t *testing.T) {
	f := newFixture(t)
	got := strings.Join(f.r.Events(), ",")
	for _, name := range []string{
		scoredto.EventGameUpdate, scoredto.EventGameDeleted, scoredto.EventVisibilityToggled,
		scoredto.EventGameOrderUpdate, scoredto.EventGameScoreUpdate, scoredto.EventStylesUpdated,
		scoredto.EventPlayersUpdated, scoredto.EventProgressUpdate, scoredto.EventFileReady,
	} {
		assert.Contains(t, got, name)
	}
}
