package main

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/session"
)

func TestShutdownEndsOpenStreams(t *testing.T) {
	sessions := session.NewStore(time.Hour, zap.NewNop())
	s := sessions.Create(context.Background(), "page", func(ctx context.Context, view *gallery.View) *gallery.Controller {
		return gallery.New([]project.Project{{StartOn: "2020-01-01", Title: "A"}}, view)
	})

	// A stream that only ends when its session subscription is closed.
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		updates, cancel := s.Subscribe()
		defer cancel()
		w.Write([]byte("open\n"))
		w.(http.Flusher).Flush()
		for range updates {
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "open\n", line)

	start := time.Now()
	require.NoError(t, shutdown(srv, sessions, 5*time.Second))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 0, sessions.Len())

	// Closing twice is harmless.
	sessions.Close()
}
