package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// Source is the REST surface a full page reload reads.
type Source interface {
	games.Source
	styles.Source
	wizard.Lister
	Players(ctx context.Context) ([]scoredto.Player, error)
}

// Reloader refetches page state from REST and posts it to the page. Nil
// targets are skipped.
type Reloader struct {
	Src     Source
	Poster  page.Poster
	Games   *games.Reconciler
	Styles  *styles.Handler
	Players *players.List
	Listing *wizard.Listing
	Log     *zap.Logger
}

func (r *Reloader) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// ReloadGames refreshes cards and menu entries, and the style tab's game
// selector from the same list.
func (r *Reloader) ReloadGames(ctx context.Context) error {
	if r.Games == nil {
		return nil
	}
	list, err := r.Src.RoomGames(ctx)
	if err != nil {
		r.logger().Error("game_refresh_failed", zap.Error(err))
		return fmt.Errorf("refresh games: %w", err)
	}
	r.Poster.Post(func() {
		r.Games.Refresh(list)
		if r.Styles != nil {
			r.Styles.FillGameSelector(list)
		}
	})
	return nil
}

func (r *Reloader) ReloadStyles(ctx context.Context) error {
	if r.Styles == nil {
		return nil
	}
	return r.Styles.Reload(ctx, r.Src, r.Poster)
}

func (r *Reloader) ReloadPlayers(ctx context.Context) error {
	if r.Players == nil {
		return nil
	}
	list, err := r.Src.Players(ctx)
	if err != nil {
		r.logger().Error("players_refresh_failed", zap.Error(err))
		return fmt.Errorf("refresh players: %w", err)
	}
	r.Poster.Post(func() { r.Players.Refresh(list) })
	return nil
}

func (r *Reloader) ReloadScoreboards(ctx context.Context) error {
	if r.Listing == nil {
		return nil
	}
	return r.Listing.Reload(ctx, r.Src, r.Poster)
}

// ReloadAll runs every reload. One failing source does not stop the rest.
func (r *Reloader) ReloadAll(ctx context.Context) error {
	return errors.Join(
		r.ReloadGames(ctx),
		r.ReloadStyles(ctx),
		r.ReloadPlayers(ctx),
		r.ReloadScoreboards(ctx),
	)
}
