package scoredto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag decodes booleans that may arrive as true/false or "TRUE"/"FALSE".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	switch s {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Score is one entry of a game's score list. Server order is authoritative.
type Score struct {
	PlayerID   ID          `json:"playerId"`
	PlayerName string      `json:"player_name"`
	Score      json.Number `json:"score"`
	Timestamp  string      `json:"timestamp"`
	Event      string      `json:"event,omitempty"`
	Wins       *int        `json:"wins,omitempty"`
	Losses     *int        `json:"losses,omitempty"`
	Hidden     Flag        `json:"hidden,omitempty"`
}

// UnmarshalJSON also accepts the camelCase playerName spelling used by the
// socket payloads.
func (s *Score) UnmarshalJSON(b []byte) error {
	type plain Score
	var aux struct {
		plain
		PlayerNameCamel string `json:"playerName"`
		PlayerIDSnake   ID     `json:"player_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = Score(aux.plain)
	if s.PlayerName == "" {
		s.PlayerName = aux.PlayerNameCamel
	}
	if s.PlayerID == "" {
		s.PlayerID = aux.PlayerIDSnake
	}
	return nil
}

// ScoreBlock is the game_score_update payload and the input of score rendering.
type ScoreBlock struct {
	GameID        ID      `json:"gameID"`
	RoomID        ID      `json:"roomID"`
	Scores        []Score `json:"scores"`
	ScoreType     string  `json:"ScoreType"`
	CSSScoreCards string  `json:"CSSScoreCards"`
	CSSInitials   string  `json:"CSSInitials"`
	CSSScores     string  `json:"CSSScores"`
}
