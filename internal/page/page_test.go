package page

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPage(t *testing.T) (*Page, func()) {
	t.Helper()
	p := New(Context{RoomID: "7", UserID: "u1"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()
	return p, func() {
		cancel()
		<-done
	}
}

// drain waits until every task posted before it has run.
func drain(t *testing.T, p *Page) {
	t.Helper()
	ch := make(chan struct{})
	require.True(t, p.Post(func() { close(ch) }))
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("page loop stalled")
	}
}

func TestSkeletonCarriesPageContext(t *testing.T) {
	p := New(Context{RoomID: "7", UserID: "u1"}, nil)
	_, html := p.Snapshot()
	assert.Contains(t, html, `data-room-id="7"`)
	assert.Contains(t, html, `data-user-id="u1"`)
	assert.NotNil(t, p.Doc().ByID(GameContainerID))
	assert.True(t, p.Context().SameRoom(" 7"))
	assert.False(t, p.Context().SameRoom("8"))
}

func TestVersionAdvancesOnlyOnMutation(t *testing.T) {
	p, stop := runPage(t)
	defer stop()

	frames, unsubscribe := p.Subscribe()
	defer unsubscribe()
	first := <-frames
	assert.Equal(t, FrameSnapshot, first.Type)
	assert.Equal(t, uint64(1), first.Version)

	p.Post(func() {})
	drain(t, p)
	v, _ := p.Snapshot()
	assert.Equal(t, uint64(1), v)

	p.Post(func() {
		d := p.Doc()
		d.SetText(d.ByID(LoadingStatusID), "Working")
	})
	drain(t, p)
	v, html := p.Snapshot()
	assert.Equal(t, uint64(2), v)
	assert.True(t, strings.Contains(html, "Working"))

	select {
	case f := <-frames:
		assert.Equal(t, uint64(2), f.Version)
	case <-time.After(time.Second):
		t.Fatal("no snapshot frame")
	}
}

func TestPanickingTaskDoesNotStopLoop(t *testing.T) {
	p, stop := runPage(t)
	defer stop()

	p.Post(func() { panic("boom") })
	p.Post(func() {
		d := p.Doc()
		d.SetAttr(d.ByID(GameContainerID), "data-ok", "1")
	})
	drain(t, p)
	_, html := p.Snapshot()
	assert.Contains(t, html, `data-ok="1"`)
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	p := New(Context{RoomID: "1"}, nil)
	frames, unsubscribe := p.Subscribe()
	<-frames
	p.Broadcast(Frame{Type: FrameAlert, Message: "hi"})
	f := <-frames
	assert.Equal(t, "hi", f.Message)

	unsubscribe()
	p.Broadcast(Frame{Type: FrameAlert, Message: "gone"})
	select {
	case f := <-frames:
		t.Fatalf("unexpected frame after unsubscribe: %+v", f)
	default:
	}
}

func TestInlinePoster(t *testing.T) {
	d := dom.MustParse(Skeleton)
	var ran bool
	Inline{}.Post(func() { ran = d.ByID(GameListID) != nil })
	assert.True(t, ran)
}
