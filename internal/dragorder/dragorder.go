// Package dragorder reorders the game menu by drag and drop and persists
// the resulting order.
package dragorder

import (
	"context"
	"math"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// OrderSaver persists a reorder batch.
type OrderSaver interface {
	SaveGameOrder(ctx context.Context, order []scoredto.OrderEntry) error
}

var draggable = dom.And(dom.Class("game-list-card"), dom.Class("draggable"))

// Controller tracks the one in-flight drag inside a container. All methods
// run on the page loop; persistence happens on its own goroutine.
type Controller struct {
	doc         *dom.Document
	containerID string
	saver       OrderSaver
	log         *zap.Logger
	timeout     time.Duration

	container *html.Node
	dragged   *html.Node
	binds     int
}

func New(doc *dom.Document, containerID string, saver OrderSaver, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{doc: doc, containerID: containerID, saver: saver, log: log, timeout: 10 * time.Second}
}

// Bind (re)attaches the controller to the container's current items. It
// replaces the previous binding, so calling it after every list rebuild
// never stacks handlers.
func (c *Controller) Bind() {
	c.container = c.doc.ByID(c.containerID)
	c.binds++
	if c.dragged != nil && c.dragged.Parent != c.container {
		c.dragged = nil
	}
	for _, item := range dom.Children(c.container, draggable) {
		c.doc.SetAttr(item, "draggable", "true")
	}
}

// Binds counts Bind calls.
func (c *Controller) Binds() int { return c.binds }

// Dragging returns the data-id of the dragged item, if any.
func (c *Controller) Dragging() string { return dom.GetAttr(c.dragged, "data-id") }

// DragStart records the item with data-id id as dragged and dims it.
func (c *Controller) DragStart(id string) bool {
	if c.container == nil {
		c.Bind()
	}
	item := dom.Find(c.container, dom.And(draggable, dom.DataID(id)))
	if item == nil {
		c.log.Warn("drag_item_missing", zap.String("game_id", id))
		return false
	}
	c.dragged = item
	c.doc.SetAttr(item, "data-effect-allowed", "move")
	c.doc.SetStyleProp(item, "opacity", "0.5")
	return true
}

// DragOver moves the dragged item before the first item whose vertical
// midpoint is still below y, or to the end when there is none. boxes
// holds the client layout of the items keyed by data-id.
func (c *Controller) DragOver(y float64, boxes map[string]ui.Rect) {
	if c.dragged == nil || c.container == nil {
		return
	}
	after := afterElement(dom.Children(c.container, draggable), boxes, y)
	switch {
	case after == nil:
		c.doc.AppendChild(c.container, c.dragged)
	case after != c.dragged:
		c.doc.InsertBefore(c.container, c.dragged, after)
	}
}

func afterElement(items []*html.Node, boxes map[string]ui.Rect, y float64) *html.Node {
	closest := math.Inf(-1)
	var found *html.Node
	for _, item := range items {
		box, ok := boxes[dom.GetAttr(item, "data-id")]
		if !ok {
			continue
		}
		offset := y - box.Top - box.Height/2
		if offset < 0 && offset > closest {
			closest = offset
			found = item
		}
	}
	return found
}

// Drop restores the dragged item and submits the current order.
func (c *Controller) Drop() []scoredto.OrderEntry {
	if c.dragged == nil {
		return nil
	}
	c.doc.SetStyleProp(c.dragged, "opacity", "1")
	return c.persist()
}

// DragEnd is Drop followed by clearing the drag.
func (c *Controller) DragEnd() []scoredto.OrderEntry {
	if c.dragged == nil {
		return nil
	}
	order := c.Drop()
	c.dragged = nil
	return order
}

// Order maps the items in DOM order to 1-based positions.
func (c *Controller) Order() []scoredto.OrderEntry {
	if c.container == nil {
		c.container = c.doc.ByID(c.containerID)
	}
	items := dom.Children(c.container, draggable)
	out := make([]scoredto.OrderEntry, 0, len(items))
	for i, item := range items {
		out = append(out, scoredto.OrderEntry{GameID: scoredto.ID(dom.GetAttr(item, "data-id")), GameSort: scoredto.SortKey(i + 1)})
	}
	return out
}

func (c *Controller) persist() []scoredto.OrderEntry {
	order := c.Order()
	if c.saver == nil || len(order) == 0 {
		return order
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.saver.SaveGameOrder(ctx, order); err != nil {
			c.log.Error("game_order_save_failed", zap.Error(err), zap.Int("games", len(order)))
			return
		}
		c.log.Debug("game_order_saved", zap.Int("games", len(order)))
	}()
	return order
}
