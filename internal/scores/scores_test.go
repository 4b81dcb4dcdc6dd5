package scores

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		ts, format, want string
	}{
		{"2024-03-05 14:30", "DD/MM/YYYY", "05/03/2024"},
		{"2024-03-05 14:30", "MM/DD/YYYY HH:mm", "03/05/2024 14:30"},
		{"2024-03-05 14:30:59", "YYYY/MM/DD", "2024/03/05"},
		{"2024-03-05", "YYYY/DD/MM HH:mm", "2024/05/03 00:00"},
		{"2024-12-31 23:59", "", "12/31/2024"},
		{"2024-03-05 14:30", "weird", "03/05/2024"},
		{"yesterday", "DD/MM/YYYY", "yesterday"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDate(tc.ts, tc.format), "%s as %s", tc.ts, tc.format)
	}
}

func TestFormatDateNoTimezoneShift(t *testing.T) {
	// midnight must not roll back a day
	assert.Equal(t, "01/01/2024", FormatDate("2024-01-01 00:00", "DD/MM/YYYY"))
}

func decodeBlock(t *testing.T, raw string) scoredto.ScoreBlock {
	t.Helper()
	var b scoredto.ScoreBlock
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func TestRenderFiltersHiddenScores(t *testing.T) {
	block := decodeBlock(t, `{"gameID":"42","ScoreType":"","scores":[
		{"playerId":1,"player_name":"AAA","score":1200,"timestamp":"2024-03-05 14:30","event":"League","wins":2,"losses":1},
		{"playerId":2,"player_name":"BBB","score":900,"timestamp":"2024-03-04 10:00","hidden":true}
	]}`)
	out, err := Render(block, "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Contains(t, out, "AAA")
	assert.NotContains(t, out, "BBB")
	assert.Contains(t, out, "05/03/2024")
	assert.Contains(t, out, "League")
	assert.Contains(t, out, "2 Wins | 1 Losses")

	block.Scores[1].Hidden = false
	out, err = Render(block, "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Contains(t, out, "BBB")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "0 Wins | 0 Losses")
}

func TestRenderScoreTypeGating(t *testing.T) {
	base := `{"gameID":"1","ScoreType":%q,"scores":[{"playerId":"p","player_name":"P","score":1,"timestamp":"2024-01-01","event":"E","wins":1,"losses":0}]}`
	for scoreType, want := range map[string][2]bool{
		"":          {true, true},
		"hideWins":  {true, false},
		"hideEvent": {false, true},
		"other":     {false, false},
	} {
		block := decodeBlock(t, strings.Replace(base, "%q", `"`+scoreType+`"`, 1))
		out, err := Render(block, "")
		require.NoError(t, err)
		assert.Equal(t, want[0], strings.Contains(out, "score-event"), "event for %q", scoreType)
		assert.Equal(t, want[1], strings.Contains(out, "score-wins"), "wins for %q", scoreType)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	out, err := Render(scoredto.ScoreBlock{GameID: "42", CSSScoreCards: "color: red;"}, "")
	require.NoError(t, err)
	assert.Equal(t, `<div class="score-card no-scores-yet" style="color: red;">No scores yet.</div>`, out)
}

func TestRenderEscapesNames(t *testing.T) {
	block := decodeBlock(t, `{"gameID":"1","scores":[{"playerId":"p","player_name":"<b>x</b>","score":1,"timestamp":"2024-01-01"}]}`)
	out, err := Render(block, "")
	require.NoError(t, err)
	assert.NotContains(t, out, "<b>")
}

func TestApplyIsIdempotent(t *testing.T) {
	doc := dom.MustParse(`<html><body><div class="game-card" data-id="42"><span class="game-title">G</span><div class="score-container"></div></div></body></html>`)
	card := dom.Find(doc.Root(), dom.DataID("42"))
	block := decodeBlock(t, `{"gameID":"42","CSSScoreCards":"background: url(data:image/png;base64,AA);","scores":[{"playerId":"1","player_name":"AAA","score":10,"timestamp":"2024-03-05"}]}`)

	changed, err := Apply(doc, card, block, "")
	require.NoError(t, err)
	assert.True(t, changed)
	before := doc.Mutations()

	changed, err = Apply(doc, card, block, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, doc.Mutations())
	assert.Len(t, dom.FindAll(card, dom.Class("score-card")), 1)
}

func TestApplyWithoutContainer(t *testing.T) {
	doc := dom.MustParse(`<html><body><div class="game-card" data-id="1"></div></body></html>`)
	_, err := Apply(doc, dom.Find(doc.Root(), dom.DataID("1")), scoredto.ScoreBlock{GameID: "1"}, "")
	assert.Error(t, err)
}
