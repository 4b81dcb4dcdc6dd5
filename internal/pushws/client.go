// Package pushws is the push-channel client. It keeps one websocket to the
// backend open, decodes event envelopes and redials after the connection
// drops.
package pushws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type (
	MessageCallback func(env scoredto.Envelope)
	StateCallback   func(state State)
	HeaderProvider  func() map[string]string
)

const maxReconnectDelay = 30 * time.Second

type callbackEntry[T any] struct {
	id int
	cb T
}

type Client struct {
	url     string
	headers HeaderProvider
	log     *zap.Logger

	maxReconnect   int
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialTimeout    time.Duration

	connM sync.Mutex
	conn  *websocket.Conn

	stateM sync.RWMutex
	state  State

	cbM      sync.RWMutex
	nextID   int
	msgCbs   []callbackEntry[MessageCallback]
	stateCbs []callbackEntry[StateCallback]

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type Option func(*Client)

// WithReconnect sets how often, and how soon, a dropped connection is
// redialed. max <= 0 disables reconnects.
func WithReconnect(max int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxReconnect = max
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:            url,
		log:            zap.NewNop(),
		maxReconnect:   5,
		reconnectDelay: time.Second,
		pingInterval:   30 * time.Second,
		dialTimeout:    10 * time.Second,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	return c
}

func (c *Client) State() State {
	c.stateM.RLock()
	defer c.stateM.RUnlock()
	return c.state
}

// Connect dials once. On failure a reconnect loop is started in the
// background and the dial error is returned.
func (c *Client) Connect(ctx context.Context) error {
	switch c.State() {
	case StateConnected, StateConnecting, StateReconnecting:
		return nil
	}
	c.setState(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.log.Warn("push_dial_failed", zap.String("url", c.url), zap.Error(err))
		c.setState(StateFailed)
		c.scheduleReconnect()
		return err
	}
	c.attach(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	return conn, err
}

func (c *Client) attach(conn *websocket.Conn) {
	c.connM.Lock()
	c.conn = conn
	c.connM.Unlock()
	c.setState(StateConnected)
	c.log.Info("push_connected", zap.String("url", c.url))

	c.wg.Add(2)
	go c.listen(conn)
	go c.pingLoop(conn)
}

func (c *Client) listen(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var env scoredto.Envelope
		if err := wsjson.Read(c.rootCtx, conn, &env); err != nil {
			if c.isStopping() {
				return
			}
			c.log.Warn("push_read_failed", zap.Error(err))
			c.drop(conn, "reconnect")
			return
		}
		if strings.TrimSpace(env.Event) == "" {
			c.log.Debug("push_frame_without_event")
			continue
		}

		c.cbM.RLock()
		callbacks := append([]callbackEntry[MessageCallback](nil), c.msgCbs...)
		c.cbM.RUnlock()
		for _, entry := range callbacks {
			entry.cb(env)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			if !c.current(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if c.isStopping() {
					return
				}
				c.drop(conn, "ping failure")
				return
			}
		}
	}
}

// drop closes conn if it is still the live connection and starts the
// reconnect loop.
func (c *Client) drop(conn *websocket.Conn, reason string) {
	c.connM.Lock()
	if c.conn != conn {
		c.connM.Unlock()
		return
	}
	c.conn = nil
	c.connM.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, reason)
	c.setState(StateDisconnected)
	c.scheduleReconnect()
}

func (c *Client) current(conn *websocket.Conn) bool {
	c.connM.Lock()
	defer c.connM.Unlock()
	return c.conn == conn
}

func (c *Client) scheduleReconnect() {
	if c.maxReconnect <= 0 || c.isStopping() {
		return
	}
	c.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= c.maxReconnect; attempt++ {
			select {
			case <-c.stopCh:
				return
			case <-time.After(c.backoff(attempt)):
			}
			conn, err := c.dial(c.rootCtx)
			if err != nil {
				c.log.Debug("push_redial_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if c.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			c.attach(conn)
			return
		}
		c.log.Error("push_reconnect_exhausted", zap.Int("attempts", c.maxReconnect))
		c.setState(StateFailed)
	}()
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.reconnectDelay
	for i := 1; i < attempt && d < maxReconnectDelay; i++ {
		d *= 2
	}
	if d > maxReconnectDelay {
		d = maxReconnectDelay
	}
	return d
}

func (c *Client) OnMessage(cb MessageCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextID++
	c.msgCbs = append(c.msgCbs, callbackEntry[MessageCallback]{id: c.nextID, cb: cb})
	return c.nextID
}

func (c *Client) RemoveMessageCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, e := range c.msgCbs {
		if e.id == id {
			c.msgCbs = append(c.msgCbs[:i], c.msgCbs[i+1:]...)
			return
		}
	}
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextID++
	c.stateCbs = append(c.stateCbs, callbackEntry[StateCallback]{id: c.nextID, cb: cb})
	return c.nextID
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, e := range c.stateCbs {
		if e.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			return
		}
	}
}

func (c *Client) setState(state State) {
	c.stateM.Lock()
	c.state = state
	c.stateM.Unlock()

	c.cbM.RLock()
	callbacks := append([]callbackEntry[StateCallback](nil), c.stateCbs...)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		entry.cb(state)
	}
}

// Close stops reconnecting, closes the connection and waits for the
// reader and pinger to exit.
func (c *Client) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.connM.Lock()
	conn := c.conn
	c.conn = nil
	c.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		c.rootCancel()
		c.setState(StateDisconnected)
		return nil
	}
}

func (c *Client) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
