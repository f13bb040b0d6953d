package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-reader/internal/domain"
)

// frontend is a fake event consumer that answers requests.
type frontend struct {
	mu     sync.Mutex
	events []string
	answer func(event string, req Request) Reply
	bridge *Bridge
}

func (f *frontend) emit(_ context.Context, name string, data ...interface{}) {
	f.mu.Lock()
	f.events = append(f.events, name)
	f.mu.Unlock()

	if len(data) == 0 {
		return
	}
	req, ok := data[0].(Request)
	if !ok {
		return
	}
	reply := Reply{ID: req.ID}
	if f.answer != nil {
		reply = f.answer(name, req)
		reply.ID = req.ID
	}
	go f.bridge.Resolve(reply)
}

func (f *frontend) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func newBridge(t *testing.T, answer func(string, Request) Reply) (*Bridge, *frontend) {
	t.Helper()
	fe := &frontend{answer: answer}
	b := NewBridge(fe.emit, time.Second, nil)
	fe.bridge = b
	b.Attach(context.Background())
	return b, fe
}

// TestBridgeNotReady checks nothing is sent before Attach.
func TestBridgeNotReady(t *testing.T) {
	b := NewBridge(func(context.Context, string, ...interface{}) { t.Fatal("emitted before attach") }, time.Second, nil)
	_, err := b.Open(context.Background(), []byte("epub"))
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, b.ShowMedia(domain.MediaImage, "/a.png", true), ErrNotReady)
}

// TestBridgeOpenAndRender checks the request/reply round trip and cached state.
func TestBridgeOpenAndRender(t *testing.T) {
	toc := []domain.TOCItem{{Label: "One", Target: "ch1.xhtml", Children: []domain.TOCItem{{Label: "1.1", Target: "ch1.xhtml#a"}}}}
	b, fe := newBridge(t, func(event string, _ Request) Reply {
		if event == EventOpen {
			return Reply{Info: &domain.DocumentInfo{Title: "Dune", Author: "Frank Herbert"}, TOC: toc}
		}
		return Reply{}
	})
	ctx := context.Background()

	info, err := b.Open(ctx, []byte("epub"))
	require.NoError(t, err)
	assert.Equal(t, "Dune", info.Title)
	assert.Equal(t, toc, b.TableOfContents())

	assert.ErrorIs(t, b.RenderAt(ctx, "cfi"), ErrNoDocument)
	require.NoError(t, b.Create(ctx, domain.LayoutScrolled))
	require.NoError(t, b.SetTypography(ctx, domain.Appearance{FontSize: 18}))
	require.NoError(t, b.RenderAt(ctx, "cfi"))

	_, ok := b.CurrentResumeToken()
	assert.False(t, ok)
	b.ReportLocation("epubcfi(/6/2)", 0.25)
	token, ok := b.CurrentResumeToken()
	require.True(t, ok)
	assert.Equal(t, "epubcfi(/6/2)", token)

	require.NoError(t, b.Destroy(ctx))
	_, ok = b.CurrentResumeToken()
	assert.False(t, ok)
	require.NoError(t, b.Destroy(ctx))

	assert.Equal(t, []string{EventOpen, EventCreate, EventTypography, EventDisplay, EventDestroy}, fe.seen())
}

// TestBridgeErrorReply checks a frontend error becomes a Go error.
func TestBridgeErrorReply(t *testing.T) {
	b, _ := newBridge(t, func(event string, _ Request) Reply {
		if event == EventTrackPlay {
			return Reply{Error: "NotAllowedError: play() failed"}
		}
		return Reply{}
	})
	err := b.PlayTrack("/music/rain.mp3", 0.5, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotAllowedError")
}

// TestBridgeTimeout checks an unanswered request gives up.
func TestBridgeTimeout(t *testing.T) {
	b := NewBridge(func(context.Context, string, ...interface{}) {}, 20*time.Millisecond, nil)
	b.Attach(context.Background())

	_, err := b.Open(context.Background(), []byte("epub"))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Empty(t, b.pending)
}

// TestBridgeLocationCallback checks reports reach the registered callback only while open.
func TestBridgeLocationCallback(t *testing.T) {
	b, _ := newBridge(t, nil)
	var got []string
	b.OnLocation(func(token string, fraction float64) {
		got = append(got, token)
		assert.LessOrEqual(t, fraction, 1.0)
	})

	b.ReportLocation("ignored", 0.1)
	_, err := b.Open(context.Background(), []byte("epub"))
	require.NoError(t, err)
	b.ReportLocation("a", 3)
	require.NoError(t, b.Close(context.Background()))
	b.ReportLocation("after-close", 0.2)

	assert.Equal(t, []string{"a"}, got)
}

// TestBridgeSurfaceNotifications checks playback events are fire and forget.
func TestBridgeSurfaceNotifications(t *testing.T) {
	b, fe := newBridge(t, nil)
	require.NoError(t, b.ShowMedia(domain.MediaMotion, "/m/rain.webm", true))
	require.NoError(t, b.SetMediaMuted(false))
	require.NoError(t, b.SetTrackVolume(0.3))
	require.NoError(t, b.SetTrackMuted(true))
	require.NoError(t, b.StopTrack())
	require.NoError(t, b.HideMedia())

	assert.Equal(t, []string{EventMediaShow, EventMediaMuted, EventTrackVolume, EventTrackMuted, EventTrackStop, EventMediaHide}, fe.seen())
}
