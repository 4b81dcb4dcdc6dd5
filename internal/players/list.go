// Package players keeps the roster list current and submits the player
// form.
package players

import (
	"html/template"
	"strings"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

var listTemplate = template.Must(template.New("players").Parse(
	`{{range .}}<li class="player-list-card" data-id="{{.ID}}">` +
		`<span class="player-name">{{.FullName}}</span>` +
		`<span class="player-alias">({{.DefaultAlias}})</span>` +
		`</li>{{end}}`))

// List renders #player-list. Its methods must run on the page loop.
type List struct {
	doc    *dom.Document
	listID string
	log    *zap.Logger
}

func NewList(doc *dom.Document, log *zap.Logger) *List {
	if log == nil {
		log = zap.NewNop()
	}
	return &List{doc: doc, listID: page.PlayerListID, log: log}
}

// Refresh replaces the roster with players, skipping hidden ones. It
// reports whether the list changed.
func (l *List) Refresh(players []scoredto.Player) bool {
	ul := l.doc.ByID(l.listID)
	if ul == nil {
		l.log.Warn("player_list_missing", zap.String("id", l.listID))
		return false
	}
	visible := make([]scoredto.Player, 0, len(players))
	for _, p := range players {
		if p.Hidden {
			continue
		}
		visible = append(visible, p)
	}
	var b strings.Builder
	if err := listTemplate.Execute(&b, visible); err != nil {
		l.log.Warn("player_list_render_failed", zap.Error(err))
		return false
	}
	changed, err := l.doc.SetInnerHTML(ul, b.String())
	if err != nil {
		l.log.Warn("player_list_render_failed", zap.Error(err))
		return false
	}
	if changed {
		l.log.Debug("player_list_refreshed", zap.Int("players", len(visible)))
	}
	return changed
}

// IDs returns the listed player ids in order.
func (l *List) IDs() []scoredto.ID {
	var out []scoredto.ID
	for _, li := range dom.FindAll(l.doc.ByID(l.listID), dom.Class("player-list-card")) {
		out = append(out, scoredto.ID(dom.GetAttr(li, "data-id")))
	}
	return out
}
