package avatar

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameAt(t *testing.T) {
	f := FrameAt(0)
	assert.Equal(t, Frame{Step: 0, R: 0, G: 0.8, B: 0, Y: 0}, f)

	f = FrameAt(10)
	a := 0.5
	assert.InDelta(t, math.Abs(math.Sin(a)), f.R, 1e-12)
	assert.InDelta(t, 1-math.Abs(math.Cos(a)), f.B, 1e-12)
	assert.InDelta(t, 0.2*math.Sin(a), f.Y, 1e-12)
	assert.Equal(t, 0.8, f.G)
}

func TestFrameAt_Bounds(t *testing.T) {
	for step := 0; step < 500; step++ {
		f := FrameAt(step)
		for _, c := range []float64{f.R, f.G, f.B} {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
		assert.LessOrEqual(t, math.Abs(f.Y), 0.2)
	}
}

type collectSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (c *collectSink) Publish(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

func (c *collectSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRenderer_RunUntilCancelled(t *testing.T) {
	sink := &collectSink{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewRenderer(sink, 200).Run(ctx) }()

	require.Eventually(t, func() bool { return sink.len() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("renderer did not stop")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for i, f := range sink.frames {
		assert.Equal(t, i+1, f.Step)
	}
}

func dialHub(t *testing.T, srv *httptest.Server) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewServer("", hub, nil).Handler())
	defer srv.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Viewers() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(FrameAt(7))

	for _, conn := range []*ws.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		assert.Equal(t, FrameAt(7), f)
	}
}

func TestHub_ViewerLeaves(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Viewers() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Viewers() == 0 }, time.Second, 5*time.Millisecond)

	// Publishing with nobody connected is a no-op.
	hub.Publish(FrameAt(1))
}

func TestHub_SlowViewerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	_ = dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Viewers() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		hub.Publish(FrameAt(i))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestServer_Page(t *testing.T) {
	srv := httptest.NewServer(NewServer("", NewHub(), http.NotFoundHandler()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "3D Virtual Assistant")

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestServer_RunStops(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewHub(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
