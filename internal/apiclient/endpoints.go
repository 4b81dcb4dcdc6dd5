package apiclient

import (
	"context"
	"errors"
	"net/url"

	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/valyala/fasthttp"
)

var errNoUser = errors.New("apiclient: user not configured")

func esc(id scoredto.ID) string { return url.PathEscape(id.String()) }

// RoomGames reads the configured user's games with their scores.
func (c *Client) RoomGames(ctx context.Context) ([]scoredto.Game, error) {
	if c.user == "" {
		return nil, errNoUser
	}
	var out []scoredto.Game
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/"+url.PathEscape(c.user), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Games(ctx context.Context) ([]scoredto.Game, error) {
	var out []scoredto.Game
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/games", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Game(ctx context.Context, id scoredto.ID) (scoredto.Game, error) {
	var out scoredto.Game
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/games/"+esc(id), nil, &out)
	return out, err
}

// SaveGame creates a game when its id is empty and updates it otherwise.
func (c *Client) SaveGame(ctx context.Context, g scoredto.Game) error {
	if g.GameID.IsZero() {
		return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/games", g, nil)
	}
	return c.doJSON(ctx, fasthttp.MethodPut, "/api/v1/games/"+esc(g.GameID), g, nil)
}

func (c *Client) DeleteGame(ctx context.Context, id scoredto.ID) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/api/v1/games/"+esc(id), nil, nil)
}

// SetGameHidden flips a game's visibility; the backend answers with
// game_visibility_toggled on the push channel.
func (c *Client) SetGameHidden(ctx context.Context, id scoredto.ID, hidden bool) error {
	flag := scoredto.HiddenFalse
	if hidden {
		flag = scoredto.HiddenTrue
	}
	body := map[string]string{"Hidden": flag}
	return c.doJSON(ctx, fasthttp.MethodPut, "/api/v1/games/"+esc(id)+"/hide", body, nil)
}

func (c *Client) SaveGameOrder(ctx context.Context, order []scoredto.OrderEntry) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/games/update-game-order", order, nil)
}

func (c *Client) StylePresets(ctx context.Context) ([]scoredto.StylePreset, error) {
	var out []scoredto.StylePreset
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/style/presets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GlobalStyle(ctx context.Context) (scoredto.GlobalStyle, error) {
	var out scoredto.GlobalStyle
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/style/global", nil, &out)
	return out, err
}

// StyleAction posts body to /api/v1/style/{action}.
func (c *Client) StyleAction(ctx context.Context, action string, body any) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/style/"+url.PathEscape(action), body, nil)
}

func (c *Client) Scoreboards(ctx context.Context) ([]scoredto.Scoreboard, error) {
	var out []scoredto.Scoreboard
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/scoreboards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateScoreboard(ctx context.Context, req wizard.CreateRequest) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/scoreboards", req, nil)
}

func (c *Client) DeleteScoreboard(ctx context.Context, roomID string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/api/v1/scoreboards/"+url.PathEscape(roomID), nil, nil)
}

func (c *Client) SaveSettings(ctx context.Context, roomID string, s settings.Settings) error {
	return c.doJSON(ctx, fasthttp.MethodPut, "/api/v1/settings/"+url.PathEscape(roomID), s, nil)
}

func (c *Client) SetPassword(ctx context.Context, roomID, password string) error {
	body := map[string]string{"password": password}
	return c.doJSON(ctx, fasthttp.MethodPut, "/api/v1/settings/"+url.PathEscape(roomID)+"/password", body, nil)
}
