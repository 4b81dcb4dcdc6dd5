package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVPinTarget(t *testing.T) {
	assert.Equal(t, "http://vpin:8089/api/v1/games", VPinTarget("http://vpin:8089", "api/v1/games", false))
	assert.Equal(t, "http://vpin:8089/api/v1/games", VPinTarget("http://vpin:8089/", "api/v1/games", false))
	assert.Equal(t, "/api/v1/proxy?url=http%3A%2F%2Fvpin%3A8089%2Fapi%2Fv1%2Fgames", VPinTarget("http://vpin:8089", "api/v1/games", true))
}

func TestImportableFilter(t *testing.T) {
	got := Importable([]VPinGame{
		{ID: "1", HighscoreType: "NVRam"},
		{ID: "2", HighscoreType: "  "},
		{ID: "3", HighscoreType: "EM", Disabled: true},
		{ID: "4", HighscoreType: "Text"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, scoredto.ID("1"), got[0].ID)
	assert.Equal(t, scoredto.ID("4"), got[1].ID)
	assert.Equal(t, "Unknown", got[0].Selection().Rom)
}

func TestPlanPlayers(t *testing.T) {
	existing := []scoredto.Player{
		{ID: "10", FullName: "Ada L", DefaultAlias: "ADA", Aliases: []string{"ADA"},
			VPinServers: map[string][]string{"http://vpin/": {"7"}}},
		{ID: "11", FullName: "Bob", DefaultAlias: "BOB", Aliases: []string{"BB"}},
	}
	plans := PlanPlayers("http://vpin/", []VPinPlayer{
		{ID: "7", Name: "Ada L", Initials: "ADA"},
		{ID: "8", Name: "Robert", Initials: "BOB"},
		{ID: "9", Name: "Cy", Initials: "CY"},
	}, existing)

	require.Len(t, plans, 3)
	assert.Equal(t, PlanLinked, plans[0].Kind)
	assert.Equal(t, PlanLink, plans[1].Kind)
	assert.Equal(t, []string{"+ New VPin Player ID: 8", "+ Initials: BOB", "+ Name update: Robert"}, plans[1].Updates)
	assert.Equal(t, PlanAdd, plans[2].Kind)

	link := plans[1].Request("http://vpin/").(LinkRequest)
	assert.Equal(t, "11", link.Players[0].ArcadeScorePlayerID)
	add := plans[2].Request("http://vpin/").(ImportPlayerRequest)
	assert.Equal(t, []string{"CY"}, add.Aliases)
	assert.Nil(t, plans[0].Request("http://vpin/"))
}

type fakeAPI struct {
	fetched []string
	failURL string
	created []CreateRequest
	imports []ImportPlayerRequest
}

func (f *fakeAPI) FetchJSON(_ context.Context, target string, out any) error {
	f.fetched = append(f.fetched, target)
	if f.failURL != "" && target == f.failURL {
		return errors.New("connection refused")
	}
	var body string
	switch target {
	case "http://vpin/api/v1/system/startupTime":
		body = `"2024-01-01T00:00:00"`
	case "http://vpin/api/v1/players":
		body = `[{"id":5,"name":"Cy","initials":"CY"}]`
	case "http://vpin/api/v1/games":
		body = `[{"id":1,"gameDisplayName":"Medieval Madness","highscoreType":"NVRam"},{"id":2,"highscoreType":""}]`
	default:
		return errors.New("unexpected " + target)
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeAPI) CreateScoreboard(_ context.Context, req CreateRequest) error {
	f.created = append(f.created, req)
	return nil
}

func (f *fakeAPI) StylePresets(context.Context) ([]scoredto.StylePreset, error) {
	return []scoredto.StylePreset{{ID: "3", Name: "Neon"}}, nil
}

func (f *fakeAPI) Players(context.Context) ([]scoredto.Player, error) { return nil, nil }

func (f *fakeAPI) ImportVPinPlayer(_ context.Context, req ImportPlayerRequest) error {
	f.imports = append(f.imports, req)
	return nil
}

func (f *fakeAPI) LinkVPinPlayers(context.Context, LinkRequest) error { return nil }

type alerts struct{ msgs []string }

func (a *alerts) Alert(m string) { a.msgs = append(a.msgs, m) }

func TestWizardWithoutIntegrationSkipsImports(t *testing.T) {
	api := &fakeAPI{}
	al := &alerts{}
	w := New(api, false, al, nil, nil)
	ctx := context.Background()

	assert.Equal(t, "Create a New Scoreboard", w.Title())
	require.ErrorIs(t, w.Next(ctx), ErrNameRequired)
	assert.Equal(t, []string{"Please enter a name for the scoreboard."}, al.msgs)

	w.SetName(" Arcade Night ")
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepIntegrations, w.Step())
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepPreset, w.Step())
	assert.Equal(t, "Select Theme Preset", w.Title())

	require.ErrorIs(t, w.Next(ctx), ErrPresetRequired)
	w.SelectPreset("99")
	require.ErrorIs(t, w.Next(ctx), ErrPresetRequired)
	w.SelectPreset("3")
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepDone, w.Step())

	require.NoError(t, w.Finish(ctx))
	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "Arcade Night", req.ScoreboardName)
	assert.Nil(t, req.VPinAPIURL)
	assert.Equal(t, "3", req.PresetID)
	assert.Empty(t, api.fetched)

	w.Prev()
	assert.Equal(t, StepPreset, w.Step())
	w.Prev()
	assert.Equal(t, StepIntegrations, w.Step())
}

func TestWizardWithIntegration(t *testing.T) {
	api := &fakeAPI{}
	w := New(api, false, &alerts{}, nil, nil)
	ctx := context.Background()

	w.SetName("Pins")
	require.NoError(t, w.Next(ctx))
	w.SetVPin(true, "http://vpin")
	assert.False(t, w.CanAdvance())
	require.ErrorIs(t, w.Next(ctx), ErrVPinNotVerified)

	require.NoError(t, w.TestVPin(ctx))
	assert.True(t, w.CanAdvance())
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepPlayers, w.Step())
	require.Len(t, w.PlayerPlans(), 1)
	require.NoError(t, w.ApplyPlan(ctx, 0))
	assert.Equal(t, "http://vpin/", api.imports[0].VPinURL)
	assert.Equal(t, PlanLinked, w.PlayerPlans()[0].Kind)

	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepGames, w.Step())
	require.Len(t, w.Games(), 1)
	require.ErrorIs(t, w.Next(ctx), ErrGamesRequired)

	w.Toggle("1", true)
	w.Toggle("1", true)
	assert.True(t, w.AllSelected())
	assert.Len(t, w.Selected(), 1)
	require.NoError(t, w.Next(ctx))
	w.SelectPreset("3")
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Finish(ctx))

	req := api.created[0]
	require.NotNil(t, req.VPinAPIURL)
	assert.Equal(t, "http://vpin/", *req.VPinAPIURL)
	assert.Equal(t, "Medieval Madness", req.VPinGames[0].Name)
}

func TestVPinTestFailureLocksNext(t *testing.T) {
	api := &fakeAPI{failURL: "http://vpin/api/v1/system/startupTime"}
	al := &alerts{}
	w := New(api, false, al, nil, nil)
	w.SetName("x")
	require.NoError(t, w.Next(context.Background()))
	w.SetVPin(true, "http://vpin")
	require.Error(t, w.TestVPin(context.Background()))
	assert.False(t, w.CanAdvance())
	assert.Equal(t, "Could not reach VPin Studio at http://vpin/.", al.msgs[0])

	w.SetVPin(true, "")
	assert.ErrorIs(t, w.TestVPin(context.Background()), ErrVPinURLRequired)
}

func TestFinishOnlyFromLastStep(t *testing.T) {
	w := New(&fakeAPI{}, false, nil, nil, nil)
	assert.ErrorIs(t, w.Finish(context.Background()), ErrNotFinished)
}

func TestListing(t *testing.T) {
	doc := dom.MustParse(page.Skeleton)
	l := NewListing(doc, nil)

	require.True(t, l.Render(nil))
	assert.Equal(t, "No scoreboards available.", dom.Text(doc.ByID(page.ScoreboardListID)))

	l.Render([]scoredto.Scoreboard{
		{User: "ada", RoomName: "Ada's Arcade", NumGames: 4, NumScores: 20, GameColors: []string{"#f00", "#0f0"}},
		{User: "bob", RoomName: "Bob", GameColors: nil},
	})
	imgs := dom.FindAll(doc.ByID(page.ScoreboardListID), dom.Class("scoreboard-image"))
	require.Len(t, imgs, 2)
	assert.Equal(t, "background: linear-gradient(to right, #f00, #0f0);", dom.GetAttr(imgs[0], "style"))
	assert.Equal(t, "background: linear-gradient(to right, #444);", dom.GetAttr(imgs[1], "style"))
	assert.Equal(t, "Ada's Arcade", dom.Text(dom.Find(imgs[0], dom.Class("scoreboard-title"))))

	before := doc.Mutations()
	l.Render([]scoredto.Scoreboard{
		{User: "ada", RoomName: "Ada's Arcade", NumGames: 4, NumScores: 20, GameColors: []string{"#f00", "#0f0"}},
		{User: "bob", RoomName: "Bob"},
	})
	assert.Equal(t, before, doc.Mutations())
}

type failingLister struct{}

func (failingLister) Scoreboards(context.Context) ([]scoredto.Scoreboard, error) {
	return nil, errors.New("down")
}

func TestListingReloadFailure(t *testing.T) {
	doc := dom.MustParse(page.Skeleton)
	l := NewListing(doc, nil)
	require.Error(t, l.Reload(context.Background(), failingLister{}, page.Inline{}))
	assert.Equal(t, "Error loading scoreboards.", dom.Text(doc.ByID(page.ScoreboardListID)))
}
