package wizard

import (
	"context"
	"net/url"
	"strings"

	"github.com/park285/arcadescore-live/pkg/scoredto"
)

const (
	vpinStartupPath = "api/v1/system/startupTime"
	vpinPlayersPath = "api/v1/players"
	vpinGamesPath   = "api/v1/games"
	proxyPath       = "/api/v1/proxy?url="
)

// VPinTarget is the URL used to reach an external-system endpoint. Pages
// served over HTTPS go through the backend proxy instead of calling the
// external system directly.
func VPinTarget(vpinURL, endpoint string, https bool) string {
	base := strings.TrimSpace(vpinURL)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	target := base + endpoint
	if https {
		return proxyPath + url.QueryEscape(target)
	}
	return target
}

// Fetcher GETs a JSON document. Relative targets resolve against the
// backend.
type Fetcher interface {
	FetchJSON(ctx context.Context, target string, out any) error
}

// VPinGame is a game row of the external system.
type VPinGame struct {
	ID                scoredto.ID `json:"id"`
	GameDisplayName   string      `json:"gameDisplayName"`
	GameFileName      string      `json:"gameFileName"`
	Rom               string      `json:"rom"`
	Version           string      `json:"version"`
	HighscoreType     string      `json:"highscoreType"`
	Disabled          bool        `json:"disabled"`
	ExtTableID        string      `json:"extTableId"`
	ExtTableVersionID string      `json:"extTableVersionId"`
}

// Importable keeps games that report a high-score type and are enabled.
func Importable(games []VPinGame) []VPinGame {
	out := make([]VPinGame, 0, len(games))
	for _, g := range games {
		if strings.TrimSpace(g.HighscoreType) == "" || g.Disabled {
			continue
		}
		out = append(out, g)
	}
	return out
}

// SelectedGame is a game picked for import, as the create request sends it.
type SelectedGame struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	File              string `json:"file"`
	Rom               string `json:"rom"`
	Version           string `json:"version"`
	ExtTableID        string `json:"extTableId"`
	ExtTableVersionID string `json:"extTableVersionId"`
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// Selection converts an external game into its import form.
func (g VPinGame) Selection() SelectedGame {
	return SelectedGame{
		ID:                g.ID.String(),
		Name:              orUnknown(g.GameDisplayName),
		File:              orUnknown(g.GameFileName),
		Rom:               orUnknown(g.Rom),
		Version:           orUnknown(g.Version),
		ExtTableID:        g.ExtTableID,
		ExtTableVersionID: g.ExtTableVersionID,
	}
}

// VPinPlayer is a player row of the external system.
type VPinPlayer struct {
	ID       scoredto.ID `json:"id"`
	Name     string      `json:"name"`
	Initials string      `json:"initials"`
}

type PlanKind string

const (
	PlanLinked PlanKind = "linked"
	PlanLink   PlanKind = "link"
	PlanAdd    PlanKind = "add"
)

// PlayerPlan says what importing one external player would do.
type PlayerPlan struct {
	Kind     PlanKind
	VPin     VPinPlayer
	Existing *scoredto.Player
	Updates  []string
}

// PlanPlayers matches external players to local ones by default alias.
// A local player already carrying the external id needs nothing.
func PlanPlayers(vpinURL string, vpin []VPinPlayer, existing []scoredto.Player) []PlayerPlan {
	byAlias := make(map[string]*scoredto.Player, len(existing))
	for i := range existing {
		if _, dup := byAlias[existing[i].DefaultAlias]; !dup {
			byAlias[existing[i].DefaultAlias] = &existing[i]
		}
	}
	plans := make([]PlayerPlan, 0, len(vpin))
	for _, vp := range vpin {
		ex := byAlias[vp.Initials]
		switch {
		case ex == nil:
			plans = append(plans, PlayerPlan{Kind: PlanAdd, VPin: vp, Updates: []string{
				"+ New Player Name: " + vp.Name,
				"+ New VPin Player ID: " + vp.ID.String(),
				"+ Initials: " + vp.Initials,
			}})
		case linked(ex, vpinURL, vp.ID):
			plans = append(plans, PlayerPlan{Kind: PlanLinked, VPin: vp, Existing: ex})
		default:
			ups := []string{"+ New VPin Player ID: " + vp.ID.String()}
			if !contains(ex.Aliases, vp.Initials) {
				ups = append(ups, "+ Initials: "+vp.Initials)
			}
			if ex.FullName != vp.Name {
				ups = append(ups, "+ Name update: "+vp.Name)
			}
			plans = append(plans, PlayerPlan{Kind: PlanLink, VPin: vp, Existing: ex, Updates: ups})
		}
	}
	return plans
}

func linked(p *scoredto.Player, vpinURL string, id scoredto.ID) bool {
	for server, ids := range p.VPinServers {
		if vpinURL != "" && strings.TrimRight(server, "/") != strings.TrimRight(vpinURL, "/") {
			continue
		}
		if contains(ids, id.String()) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ImportPlayerRequest is the POST /api/v1/players/vpin/import body.
type ImportPlayerRequest struct {
	FullName     string   `json:"full_name"`
	DefaultAlias string   `json:"default_alias"`
	Aliases      []string `json:"aliases"`
	VPinPlayerID string   `json:"vpin_player_id"`
	VPinURL      string   `json:"vpin_url"`
}

// LinkRequest is the POST /api/v1/players/vpin body.
type LinkRequest struct {
	ServerURL string       `json:"server_url"`
	Players   []LinkPlayer `json:"players"`
}

type LinkPlayer struct {
	VPinPlayerID        string   `json:"vpin_player_id"`
	ArcadeScorePlayerID string   `json:"arcadescore_player_id"`
	FullName            string   `json:"full_name"`
	Aliases             []string `json:"aliases"`
}

// Request builds the backend call that carries out a plan. Linked plans
// need none.
func (p PlayerPlan) Request(vpinURL string) any {
	switch p.Kind {
	case PlanAdd:
		return ImportPlayerRequest{
			FullName:     p.VPin.Name,
			DefaultAlias: p.VPin.Initials,
			Aliases:      []string{p.VPin.Initials},
			VPinPlayerID: p.VPin.ID.String(),
			VPinURL:      vpinURL,
		}
	case PlanLink:
		aliases := make([]string, 0, 1)
		for _, a := range strings.Split(p.VPin.Initials, ",") {
			aliases = append(aliases, strings.TrimSpace(a))
		}
		return LinkRequest{ServerURL: vpinURL, Players: []LinkPlayer{{
			VPinPlayerID:        p.VPin.ID.String(),
			ArcadeScorePlayerID: p.Existing.ID.String(),
			FullName:            p.VPin.Name,
			Aliases:             aliases,
		}}}
	}
	return nil
}
