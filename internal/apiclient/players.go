package apiclient

import (
	"context"

	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/valyala/fasthttp"
)

const playerIconField = "player_icon_file"

func (c *Client) Players(ctx context.Context) ([]scoredto.Player, error) {
	var out []scoredto.Player
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/players", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Player(ctx context.Context, id scoredto.ID) (scoredto.Player, error) {
	var out scoredto.Player
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/v1/players/"+esc(id), nil, &out)
	return out, err
}

// SavePlayer sends the player form as multipart. An empty id creates.
func (c *Client) SavePlayer(ctx context.Context, id scoredto.ID, sub players.Submission) error {
	form := multipartForm{fields: sub.Fields}
	if sub.File != nil {
		form.file = &filePart{field: playerIconField, name: sub.File.Name, body: sub.File.Body}
	}
	method, path := fasthttp.MethodPost, "/api/v1/players"
	if !id.IsZero() {
		method, path = fasthttp.MethodPut, "/api/v1/players/"+esc(id)
	}
	return c.postMultipart(ctx, method, path, form, nil)
}

// UploadPlayerIcon replaces a player's icon.
func (c *Client) UploadPlayerIcon(ctx context.Context, id scoredto.ID, up players.Upload) error {
	form := multipartForm{file: &filePart{field: playerIconField, name: up.Name, body: up.Body}}
	return c.postMultipart(ctx, fasthttp.MethodPost, "/api/v1/players/"+esc(id)+"/icon", form, nil)
}

func (c *Client) HidePlayer(ctx context.Context, id scoredto.ID) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/players/"+esc(id)+"/hide", nil, nil)
}

func (c *Client) DeletePlayer(ctx context.Context, id scoredto.ID) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/api/v1/players/"+esc(id), nil, nil)
}

func (c *Client) ImportVPinPlayer(ctx context.Context, req wizard.ImportPlayerRequest) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/players/vpin/import", req, nil)
}

func (c *Client) LinkVPinPlayers(ctx context.Context, req wizard.LinkRequest) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/api/v1/players/vpin", req, nil)
}
