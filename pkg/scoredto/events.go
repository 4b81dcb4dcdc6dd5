package scoredto

import "encoding/json"

// Push-channel event names.
const (
	EventGameUpdate        = "game_update"
	EventGameDeleted       = "game_deleted"
	EventVisibilityToggled = "game_visibility_toggled"
	EventGameOrderUpdate   = "game_order_update"
	EventGameScoreUpdate   = "game_score_update"
	EventStylesUpdated     = "styles_updated"
	EventPlayersUpdated    = "players_updated"
	EventProgressUpdate    = "progress_update"
	EventFileReady         = "file_ready"
)

// Envelope is one push-channel frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Progress is the progress_update payload. Progress -1 signals an error.
type Progress struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// FileReady is the file_ready payload.
type FileReady struct {
	SessionID string `json:"session_id"`
	FilePath  string `json:"file_path"`
}

// Scoreboard is a row of GET /api/v1/scoreboards.
type Scoreboard struct {
	User       string   `json:"user"`
	RoomID     ID       `json:"room_id,omitempty"`
	RoomName   string   `json:"room_name"`
	NumGames   int      `json:"num_games"`
	NumScores  int      `json:"num_scores"`
	GameColors []string `json:"game_colors"`
}
