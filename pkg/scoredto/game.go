package scoredto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an entity key as the backend sends it. Older endpoints emit numbers,
// newer ones strings; both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// SortKey is GameSort. It tolerates quoted integers.
type SortKey int

func (k *SortKey) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*k = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*k = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int(f)
	}
	*k = SortKey(n)
	return nil
}

func (k SortKey) String() string { return strconv.Itoa(int(k)) }

const (
	HiddenTrue  = "TRUE"
	HiddenFalse = "FALSE"
)

// Score types gate the optional score fields.
const (
	ScoreTypeAll       = ""
	ScoreTypeHideWins  = "hideWins"
	ScoreTypeHideEvent = "hideEvent"
)

// Game is a game record as consumed from REST and the push channel.
type Game struct {
	GameID         ID      `json:"gameID"`
	RoomID         ID      `json:"roomID,omitempty"`
	GameName       string  `json:"gameName"`
	GameSort       SortKey `json:"GameSort"`
	Hidden         string  `json:"Hidden"`
	GameImage      string  `json:"GameImage"`
	GameBackground string  `json:"GameBackground"`
	GameColor      string  `json:"GameColor"`
	CSSTitle       string  `json:"CSSTitle"`
	CSSBox         string  `json:"CSSBox"`
	CSSScoreCards  string  `json:"CSSScoreCards"`
	CSSInitials    string  `json:"CSSInitials"`
	CSSScores      string  `json:"CSSScores"`
	CSSCard        string  `json:"css_card"`
	ScoreType      string  `json:"ScoreType"`
	SortAscending  string  `json:"SortAscending,omitempty"`
	Tags           string  `json:"tags,omitempty"`
	Scores         []Score `json:"scores"`
}

// IsHidden reports the string flag; anything other than TRUE is visible.
func (g *Game) IsHidden() bool {
	return strings.EqualFold(strings.TrimSpace(g.Hidden), HiddenTrue)
}

// HiddenFlag normalizes Hidden to TRUE/FALSE.
func (g *Game) HiddenFlag() string {
	if g.IsHidden() {
		return HiddenTrue
	}
	return HiddenFalse
}

// ScoreBlock returns the subset of a game that drives score rendering.
func (g *Game) ScoreBlock() ScoreBlock {
	return ScoreBlock{
		GameID:        g.GameID,
		RoomID:        g.RoomID,
		Scores:        g.Scores,
		ScoreType:     g.ScoreType,
		CSSScoreCards: g.CSSScoreCards,
		CSSInitials:   g.CSSInitials,
		CSSScores:     g.CSSScores,
	}
}

// OrderEntry is one element of the reorder batch and of game_order_update.
type OrderEntry struct {
	GameID   ID      `json:"game_id"`
	GameSort SortKey `json:"game_sort"`
}

// GameDeleted is the game_deleted payload.
type GameDeleted struct {
	GameID ID `json:"gameID"`
	RoomID ID `json:"roomID,omitempty"`
}

// VisibilityToggled is the game_visibility_toggled payload.
type VisibilityToggled struct {
	GameID ID     `json:"gameID"`
	RoomID ID     `json:"roomID,omitempty"`
	Hidden string `json:"hidden"`
}

// IsHidden mirrors Game.IsHidden for the toggle payload.
func (v *VisibilityToggled) IsHidden() bool {
	return strings.EqualFold(strings.TrimSpace(v.Hidden), HiddenTrue)
}

// DecodeGames accepts a single object or an array.
func DecodeGames(raw json.RawMessage) ([]Game, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []Game
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return []Game{g}, nil
}
