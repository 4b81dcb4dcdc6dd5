// Package scores renders a game's score block.
package scores

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"golang.org/x/net/html"
)

const NoScoresText = "No scores yet."

var blockTemplate = template.Must(template.New("scores").Parse(
	`{{range .Cards}}<div class="score-card" style="{{$.CardCSS}}" data-player-id="{{.PlayerID}}">` +
		`<div class="score-player-name" style="{{$.InitialsCSS}}">{{.Name}}</div>` +
		`<div class="score-score" style="{{$.ScoresCSS}}">{{.Score}}</div>` +
		`<div class="score-date">{{.Date}}</div>` +
		`{{if $.ShowEvent}}<div class="score-event">{{.Event}}</div>{{end}}` +
		`{{if $.ShowWins}}<div class="score-wins">{{.Wins}} Wins | {{.Losses}} Losses</div>{{end}}` +
		`</div>{{else}}<div class="score-card no-scores-yet" style="{{.CardCSS}}">` + NoScoresText + `</div>{{end}}`))

type card struct {
	PlayerID string
	Name     string
	Score    string
	Date     string
	Event    string
	Wins     int
	Losses   int
}

type view struct {
	Cards       []card
	CardCSS     template.CSS
	InitialsCSS template.CSS
	ScoresCSS   template.CSS
	ShowEvent   bool
	ShowWins    bool
}

// Fields reports which optional score fields a ScoreType shows.
func Fields(scoreType string) (event, wins bool) {
	switch scoreType {
	case scoredto.ScoreTypeAll:
		return true, true
	case scoredto.ScoreTypeHideWins:
		return true, false
	case scoredto.ScoreTypeHideEvent:
		return false, true
	default:
		return false, false
	}
}

// Render produces the score block markup. Hidden scores are dropped and
// server order is kept; an empty result is the placeholder card.
func Render(block scoredto.ScoreBlock, dateFormat string) (string, error) {
	v := view{
		CardCSS:     template.CSS(block.CSSScoreCards),
		InitialsCSS: template.CSS(block.CSSInitials),
		ScoresCSS:   template.CSS(block.CSSScores),
	}
	v.ShowEvent, v.ShowWins = Fields(block.ScoreType)
	for _, s := range block.Scores {
		if s.Hidden {
			continue
		}
		c := card{
			PlayerID: s.PlayerID.String(),
			Name:     s.PlayerName,
			Score:    s.Score.String(),
			Date:     FormatDate(s.Timestamp, dateFormat),
			Event:    s.Event,
		}
		if c.Event == "" {
			c.Event = "N/A"
		}
		if s.Wins != nil {
			c.Wins = *s.Wins
		}
		if s.Losses != nil {
			c.Losses = *s.Losses
		}
		v.Cards = append(v.Cards, c)
	}
	var b bytes.Buffer
	if err := blockTemplate.Execute(&b, v); err != nil {
		return "", fmt.Errorf("render scores: %w", err)
	}
	return b.String(), nil
}

// Apply swaps the score container of card for the rendered block. It
// reports whether the container changed.
func Apply(doc *dom.Document, gameCard *html.Node, block scoredto.ScoreBlock, dateFormat string) (bool, error) {
	container := dom.Find(gameCard, dom.Class("score-container"))
	if container == nil {
		return false, fmt.Errorf("game %s: score container missing", block.GameID)
	}
	markup, err := Render(block, dateFormat)
	if err != nil {
		return false, err
	}
	return doc.SetInnerHTML(container, markup)
}
