// Package router dispatches push-channel events to the reconcilers.
package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/progress"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// Targets are the reconcilers events are routed to. Nil targets drop
// their events.
type Targets struct {
	Games    *games.Reconciler
	Styles   *styles.Handler
	Players  *players.List
	Progress *progress.Modal
	Exports  *progress.Exports
}

type Router struct {
	pc      page.Context
	poster  page.Poster
	t       Targets
	log     *zap.Logger
	timeout time.Duration

	handlers map[string]func(json.RawMessage) error
}

func New(pc page.Context, poster page.Poster, t Targets, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{pc: pc, poster: poster, t: t, log: log, timeout: 2 * time.Minute}
	r.handlers = map[string]func(json.RawMessage) error{
		scoredto.EventGameUpdate:        r.gameUpdate,
		scoredto.EventGameDeleted:       r.gameDeleted,
		scoredto.EventVisibilityToggled: r.visibilityToggled,
		scoredto.EventGameOrderUpdate:   r.orderUpdate,
		scoredto.EventGameScoreUpdate:   r.scoreUpdate,
		scoredto.EventStylesUpdated:     r.stylesUpdated,
		scoredto.EventPlayersUpdated:    r.playersUpdated,
		scoredto.EventProgressUpdate:    r.progressUpdate,
		scoredto.EventFileReady:         r.fileReady,
	}
	return r
}

// Events lists the event names the router handles.
func (r *Router) Events() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch decodes one envelope and posts the matching reconciler work.
// Malformed payloads and unknown events are logged and dropped.
func (r *Router) Dispatch(env scoredto.Envelope) {
	h, ok := r.handlers[env.Event]
	if !ok {
		r.log.Debug("push_event_unhandled", zap.String("event", env.Event))
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("push_event_panic", zap.String("event", env.Event), zap.Any("panic", p))
		}
	}()
	if err := h(env.Data); err != nil {
		r.log.Warn("push_event_decode_failed", zap.String("event", env.Event), zap.Error(err))
	}
}

// otherRoom reports whether a payload names a room other than this page's.
// Id-only events without a room id apply to the current room.
func (r *Router) otherRoom(id scoredto.ID) bool {
	return !id.IsZero() && !r.pc.SameRoom(id.String())
}

// ownRoom reports whether a full-record payload names this page's room.
// A record without a room id is never rendered.
func (r *Router) ownRoom(id scoredto.ID) bool {
	return !id.IsZero() && r.pc.SameRoom(id.String())
}

func (r *Router) post(event string, task func()) {
	if !r.poster.Post(task) {
		r.log.Debug("push_event_after_stop", zap.String("event", event))
	}
}

func (r *Router) gameUpdate(raw json.RawMessage) error {
	list, err := scoredto.DecodeGames(raw)
	if err != nil {
		return err
	}
	mine := list[:0]
	for _, g := range list {
		if !r.ownRoom(g.RoomID) {
			r.log.Debug("game_update_other_room", zap.String("room_id", g.RoomID.String()))
			continue
		}
		mine = append(mine, g)
	}
	if len(mine) == 0 || r.t.Games == nil {
		return nil
	}
	r.post(scoredto.EventGameUpdate, func() {
		for _, g := range mine {
			r.t.Games.Apply(g)
		}
	})
	return nil
}

func (r *Router) gameDeleted(raw json.RawMessage) error {
	var ev scoredto.GameDeleted
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	if r.otherRoom(ev.RoomID) || r.t.Games == nil {
		return nil
	}
	if ev.GameID.IsZero() {
		r.log.Warn("game_deleted_without_id")
		return nil
	}
	r.post(scoredto.EventGameDeleted, func() { r.t.Games.Remove(ev.GameID) })
	return nil
}

func (r *Router) visibilityToggled(raw json.RawMessage) error {
	var ev scoredto.VisibilityToggled
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	if r.otherRoom(ev.RoomID) || r.t.Games == nil {
		return nil
	}
	if ev.GameID.IsZero() {
		r.log.Warn("game_visibility_without_id")
		return nil
	}
	hidden := ev.IsHidden()
	r.post(scoredto.EventVisibilityToggled, func() { r.t.Games.ToggleVisibility(ev.GameID, hidden) })
	return nil
}

func (r *Router) orderUpdate(raw json.RawMessage) error {
	var order []scoredto.OrderEntry
	if err := json.Unmarshal(raw, &order); err != nil {
		return err
	}
	if len(order) == 0 || r.t.Games == nil {
		return nil
	}
	r.post(scoredto.EventGameOrderUpdate, func() { r.t.Games.ApplyOrder(order) })
	return nil
}

func (r *Router) scoreUpdate(raw json.RawMessage) error {
	var block scoredto.ScoreBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return err
	}
	if !r.ownRoom(block.RoomID) || r.t.Games == nil {
		return nil
	}
	r.post(scoredto.EventGameScoreUpdate, func() { _ = r.t.Games.UpdateScores(block) })
	return nil
}

func (r *Router) stylesUpdated(raw json.RawMessage) error {
	var u scoredto.StylesUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return err
	}
	if r.t.Styles == nil {
		return nil
	}
	// the handler gates the restyle itself; selectors refresh for every room
	r.post(scoredto.EventStylesUpdated, func() { r.t.Styles.Apply(u) })
	return nil
}

func (r *Router) playersUpdated(raw json.RawMessage) error {
	var u scoredto.PlayersUpdated
	if err := json.Unmarshal(raw, &u); err != nil {
		return err
	}
	if r.t.Players == nil {
		return nil
	}
	list := make([]scoredto.Player, 0, len(u.Players))
	for _, p := range u.Players {
		if r.otherRoom(p.RoomID) {
			continue
		}
		list = append(list, p)
	}
	r.post(scoredto.EventPlayersUpdated, func() { r.t.Players.Refresh(list) })
	return nil
}

func (r *Router) progressUpdate(raw json.RawMessage) error {
	var p scoredto.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if r.t.Progress == nil {
		return nil
	}
	r.post(scoredto.EventProgressUpdate, func() { r.t.Progress.Update(p) })
	return nil
}

// fileReady downloads off the page loop; Exports posts its own DOM work.
func (r *Router) fileReady(raw json.RawMessage) error {
	var fr scoredto.FileReady
	if err := json.Unmarshal(raw, &fr); err != nil {
		return err
	}
	if r.t.Exports == nil {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		_, _ = r.t.Exports.FileReady(ctx, fr)
	}()
	return nil
}
