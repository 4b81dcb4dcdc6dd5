package scoredto

// Player as returned by /api/v1/players.
type Player struct {
	ID           ID                  `json:"id"`
	RoomID       ID                  `json:"roomID,omitempty"`
	FullName     string              `json:"full_name"`
	DefaultAlias string              `json:"default_alias"`
	Aliases      []string            `json:"aliases"`
	Icon         string              `json:"icon,omitempty"`
	VPinServers  map[string][]string `json:"vpin_servers,omitempty"`
	TotalWins    int                 `json:"total_wins"`
	TotalLosses  int                 `json:"total_losses"`
	Hidden       Flag                `json:"hidden,omitempty"`
	LongNames    string              `json:"long_names_enabled,omitempty"`
	Scores       []PlayerScore       `json:"scores,omitempty"`
}

// PlayerScore is a score row in the player detail view.
type PlayerScore struct {
	GameName  string `json:"game_name"`
	Score     string `json:"score"`
	Timestamp string `json:"timestamp"`
}

// PlayersUpdated is the players_updated payload.
type PlayersUpdated struct {
	Players []Player `json:"players"`
}
