package page

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/arcadescore-live/internal/dom"
	"go.uber.org/zap"
)

// Context carries the identifiers the backend injects into a room page.
type Context struct {
	RoomID string
	UserID string
}

// SameRoom reports whether roomID names this page's room.
func (c Context) SameRoom(roomID string) bool {
	return strings.TrimSpace(roomID) == strings.TrimSpace(c.RoomID)
}

// Frame is one message pushed to display clients.
type Frame struct {
	Type      string `json:"type"`
	Version   uint64 `json:"version,omitempty"`
	HTML      string `json:"html,omitempty"`
	Message   string `json:"message,omitempty"`
	Target    string `json:"target,omitempty"`
	Top       *int   `json:"top,omitempty"`
	Selector  string `json:"selector,omitempty"`
	MultiLine bool   `json:"multi_line,omitempty"`
}

const (
	FrameSnapshot = "snapshot"
	FrameAlert    = "alert"
	FrameScroll   = "scroll"
	FrameTextFit  = "textfit"
	FrameError    = "error"
	FrameWizard   = "wizard"
)

// Poster runs work on the goroutine that owns the document.
type Poster interface {
	Post(task func()) bool
}

// Inline runs posted tasks immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(task func()) bool {
	task()
	return true
}

// Page owns the live document. Only tasks executed by Run may touch Doc();
// everything else goes through Post. After each task that changed the
// document the rendered view is republished to subscribers.
type Page struct {
	ctx Context
	doc *dom.Document
	log *zap.Logger

	inbox chan func()
	done  chan struct{}
	once  sync.Once

	mu      sync.RWMutex
	version uint64
	html    string
	seen    uint64
	subs    map[int]chan Frame
	nextSub int
}

// New builds a page from the default skeleton.
func New(pc Context, log *zap.Logger) *Page {
	p, err := NewWithMarkup(pc, Skeleton, log)
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithMarkup builds a page from the given full-document markup.
func NewWithMarkup(pc Context, markup string, log *zap.Logger) (*Page, error) {
	if log == nil {
		log = zap.NewNop()
	}
	doc, err := dom.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("page markup: %w", err)
	}
	if body := doc.Body(); body != nil {
		doc.SetAttr(body, "data-room-id", pc.RoomID)
		doc.SetAttr(body, "data-user-id", pc.UserID)
	}
	p := &Page{
		ctx:   pc,
		doc:   doc,
		log:   log,
		inbox: make(chan func(), 256),
		done:  make(chan struct{}),
		subs:  make(map[int]chan Frame),
	}
	p.version = 1
	p.seen = doc.Mutations()
	p.html = doc.Render()
	return p, nil
}

func (p *Page) Context() Context { return p.ctx }

// Doc is the live document. Callers must be running inside a posted task.
func (p *Page) Doc() *dom.Document { return p.doc }

// Post queues task for the page loop. It reports false once the loop has
// stopped.
func (p *Page) Post(task func()) bool {
	if task == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.inbox <- task:
		return true
	case <-p.done:
		return false
	}
}

// Run executes posted tasks one at a time until ctx is done.
func (p *Page) Run(ctx context.Context) error {
	defer p.once.Do(func() { close(p.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-p.inbox:
			p.exec(task)
			p.commit()
		}
	}
}

func (p *Page) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("page_task_panic", zap.Any("panic", r))
		}
	}()
	task()
}

// commit publishes a new snapshot when the last task mutated the document.
func (p *Page) commit() {
	m := p.doc.Mutations()
	p.mu.Lock()
	if m == p.seen {
		p.mu.Unlock()
		return
	}
	p.seen = m
	p.version++
	p.html = p.doc.Render()
	f := Frame{Type: FrameSnapshot, Version: p.version, HTML: p.html}
	subs := p.snapshotSubs()
	p.mu.Unlock()
	for _, ch := range subs {
		offer(ch, f)
	}
}

// Snapshot returns the last published version and markup.
func (p *Page) Snapshot() (uint64, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version, p.html
}

// Subscribe registers a frame receiver. The current snapshot is delivered
// first. The returned func unsubscribes.
func (p *Page) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 16)
	p.mu.Lock()
	p.nextSub++
	id := p.nextSub
	p.subs[id] = ch
	ch <- Frame{Type: FrameSnapshot, Version: p.version, HTML: p.html}
	p.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Broadcast sends a command frame to every subscriber.
func (p *Page) Broadcast(f Frame) {
	p.mu.RLock()
	subs := p.snapshotSubs()
	p.mu.RUnlock()
	for _, ch := range subs {
		offer(ch, f)
	}
}

func (p *Page) snapshotSubs() []chan Frame {
	out := make([]chan Frame, 0, len(p.subs))
	for _, ch := range p.subs {
		out = append(out, ch)
	}
	return out
}

// offer never blocks; a full receiver loses its oldest frame.
func offer(ch chan Frame, f Frame) {
	select {
	case ch <- f:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}
