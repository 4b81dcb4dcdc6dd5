package wizard

import (
	"context"
	"html/template"
	"strings"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

const (
	emptyGradient    = "#444"
	noScoreboards    = `<p>No scoreboards available.</p>`
	scoreboardsError = `<p>Error loading scoreboards.</p>`
)

var listingTemplate = template.Must(template.New("scoreboards").Parse(
	`{{range .}}<div class="scoreboard-card" data-href="/{{.User}}">` +
		`<div class="scoreboard-image" style="{{.Style}}">` +
		`<div class="scoreboard-title">{{.RoomName}}</div>` +
		`<div class="scoreboard-info">` +
		`<p><strong>{{.NumGames}}</strong> Games</p>` +
		`<p><strong>{{.NumScores}}</strong> Scores</p>` +
		`</div></div></div>{{end}}`))

type listingRow struct {
	scoredto.Scoreboard
	Style template.CSS
}

// Gradient joins the games' colors into the card background.
func Gradient(colors []string) string {
	kept := make([]string, 0, len(colors))
	for _, c := range colors {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return emptyGradient
	}
	return strings.Join(kept, ", ")
}

// Listing renders #scoreboard-list. Its methods must run on the page loop.
type Listing struct {
	doc *dom.Document
	log *zap.Logger
}

func NewListing(doc *dom.Document, log *zap.Logger) *Listing {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listing{doc: doc, log: log}
}

func (l *Listing) Render(list []scoredto.Scoreboard) bool {
	el := l.doc.ByID(page.ScoreboardListID)
	if el == nil {
		l.log.Warn("scoreboard_list_missing")
		return false
	}
	markup := noScoreboards
	if len(list) > 0 {
		rows := make([]listingRow, 0, len(list))
		for _, sb := range list {
			css := dom.NormalizeStyle("background: linear-gradient(to right, " + Gradient(sb.GameColors) + ")")
			rows = append(rows, listingRow{Scoreboard: sb, Style: template.CSS(css)})
		}
		var b strings.Builder
		if err := listingTemplate.Execute(&b, rows); err != nil {
			l.log.Warn("scoreboard_list_render_failed", zap.Error(err))
			return false
		}
		markup = b.String()
	}
	changed, err := l.doc.SetInnerHTML(el, markup)
	if err != nil {
		l.log.Warn("scoreboard_list_render_failed", zap.Error(err))
	}
	return changed
}

// Failed shows the listing error line.
func (l *Listing) Failed() {
	if _, err := l.doc.SetInnerHTML(l.doc.ByID(page.ScoreboardListID), scoreboardsError); err != nil {
		l.log.Warn("scoreboard_list_render_failed", zap.Error(err))
	}
}

// Lister reads GET /api/v1/scoreboards.
type Lister interface {
	Scoreboards(ctx context.Context) ([]scoredto.Scoreboard, error)
}

// Reload fetches the listing off the loop and renders it on the loop.
func (l *Listing) Reload(ctx context.Context, src Lister, p page.Poster) error {
	list, err := src.Scoreboards(ctx)
	if err != nil {
		l.log.Error("scoreboards_fetch_failed", zap.Error(err))
		p.Post(l.Failed)
		return err
	}
	p.Post(func() { l.Render(list) })
	return nil
}
