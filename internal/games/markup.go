package games

import (
	"strconv"
	"strings"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"golang.org/x/net/html"
)

const defaultGameColor = "#FFFFFF"

var (
	cardMatcher = dom.Class("game-card")
	menuMatcher = dom.Class("game-list-card")
)

// ExpandCardTemplate substitutes a game's own fields into a css_card
// template.
func ExpandCardTemplate(tpl, background, color, image string) string {
	if color == "" {
		color = defaultGameColor
	}
	return strings.NewReplacer(
		"{GameBackground}", background,
		"{GameColor}", color,
		"{GameImage}", image,
	).Replace(tpl)
}

// CardStyle is the inline style of a game card: the expanded template
// with the sort key as CSS order, and display:none for hidden cards.
func CardStyle(tpl, background, color, image string, sort scoredto.SortKey, hidden bool) string {
	decls := []dom.Declaration{{Prop: "order", Value: sort.String()}}
	if hidden {
		decls = append(decls, dom.Declaration{Prop: "display", Value: "none"})
	}
	return dom.ComposeStyle(ExpandCardTemplate(tpl, background, color, image), decls...)
}

// ApplyCardTemplate restyles an existing card from tpl and the card's own
// stored dataset. Sort order and hidden state are preserved.
func ApplyCardTemplate(doc *dom.Document, card *html.Node, tpl string) bool {
	sort := scoredto.SortKey(atoi(dom.GetAttr(card, "data-game-sort")))
	hidden := strings.EqualFold(dom.GetAttr(card, "data-hidden"), scoredto.HiddenTrue)
	return doc.SetStyle(card, CardStyle(tpl,
		dom.GetAttr(card, "data-background"),
		dom.GetAttr(card, "data-color"),
		dom.GetAttr(card, "data-image"),
		sort, hidden))
}

func newCard(g *scoredto.Game) *html.Node {
	card := dom.Element("div", "class", "game-card", "data-id", g.GameID.String())
	title := dom.Element("span", "class", "game-title")
	card.AppendChild(title)
	card.AppendChild(dom.Element("div", "class", "score-container"))
	return card
}

func newMenuItem(g *scoredto.Game) *html.Node {
	li := dom.Element("li",
		"class", "game-list-card draggable",
		"draggable", "true",
		"data-id", g.GameID.String(),
	)
	li.AppendChild(dom.Element("span", "class", "game-list-card-title"))

	actions := dom.Element("div", "class", "game-list-card-actions")
	hide := dom.Element("button", "class", "hide-button", "title", "Toggle Visibility")
	hide.AppendChild(dom.Element("i", "class", "fas "+eyeIcon(g.IsHidden())))
	edit := dom.Element("button", "class", "edit-button")
	edit.AppendChild(dom.Element("i", "class", "fas fa-edit"))
	del := dom.Element("button", "class", "delete-button")
	del.AppendChild(dom.Element("i", "class", "fas fa-trash"))
	actions.AppendChild(hide)
	actions.AppendChild(edit)
	actions.AppendChild(del)
	li.AppendChild(actions)
	return li
}

func eyeIcon(hidden bool) string {
	if hidden {
		return "fa-eye-slash"
	}
	return "fa-eye"
}

// menuDataset lists the data attributes a menu item mirrors from its game.
func menuDataset(g *scoredto.Game) [][2]string {
	color := g.GameColor
	if color == "" {
		color = defaultGameColor
	}
	return [][2]string{
		{"data-css-score-cards", g.CSSScoreCards},
		{"data-css-initials", g.CSSInitials},
		{"data-css-scores", g.CSSScores},
		{"data-css-box", g.CSSBox},
		{"data-css-title", g.CSSTitle},
		{"data-score-type", g.ScoreType},
		{"data-sort-ascending", g.SortAscending},
		{"data-game-image", g.GameImage},
		{"data-game-background", g.GameBackground},
		{"data-tags", g.Tags},
		{"data-hidden", g.HiddenFlag()},
		{"data-game-color", color},
		{"data-game-sort", g.GameSort.String()},
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
