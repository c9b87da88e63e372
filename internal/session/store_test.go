package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func factory(ctx context.Context, view *gallery.View) *gallery.Controller {
	return gallery.New([]project.Project{
		{StartOn: "2020-01-01", Title: "A"},
		{StartOn: "2021-01-01", Title: "B"},
	}, view)
}

func TestCreateAndGet(t *testing.T) {
	st := NewStore(time.Hour, zap.NewNop())
	defer st.Close()

	s := st.Create(context.Background(), "abc", factory)
	require.NotNil(t, s.Controller)
	assert.Len(t, s.View.Snapshot().Tiles, 1)

	got, err := st.Get("abc")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiry(t *testing.T) {
	st := NewStore(time.Minute, zap.NewNop())
	defer st.Close()

	now := time.Now()
	st.now = func() time.Time { return now }
	st.Create(context.Background(), "a", factory)

	now = now.Add(2 * time.Minute)
	_, err := st.Get("a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 0, st.Len())
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	st := NewStore(time.Hour, zap.NewNop())
	defer st.Close()

	s := st.Create(context.Background(), "a", factory)
	updates, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Controller.Click(1))

	select {
	case snap := <-updates:
		require.Len(t, snap.Tiles, 1)
		assert.Equal(t, "B", snap.Tiles[0].Title)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestSlowSubscriberKeepsLatest(t *testing.T) {
	st := NewStore(time.Hour, zap.NewNop())
	defer st.Close()

	s := st.Create(context.Background(), "a", factory)
	updates, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Controller.Click(1))
	require.NoError(t, s.Controller.Click(0))

	snap := <-updates
	assert.Equal(t, "A", snap.Tiles[0].Title)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	st := NewStore(time.Hour, zap.NewNop())
	s := st.Create(context.Background(), "a", factory)
	updates, cancel := s.Subscribe()

	st.Close()
	_, open := <-updates
	assert.False(t, open)
	cancel()
}

func TestJanitorStopsWithContext(t *testing.T) {
	st := NewStore(time.Millisecond, zap.NewNop())
	defer st.Close()
	st.Create(context.Background(), "a", factory)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Janitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
