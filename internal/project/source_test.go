package project

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{"projects":[{"start_on":"2020-05-01","title":"A"},{"start_on":"1970-01-01","created":"2022-03-01","title":"B"}]}`

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLocation)
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	ps, err := NewSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Load(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/allprojects.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleDocument)
	}))
	defer srv.Close()

	src := NewSource(srv.URL + "/allprojects.json")
	require.IsType(t, &HTTPSource{}, src)

	ps, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", ps[1].Title)

	_, err = NewSource(srv.URL + "/nope.json").Load(context.Background())
	assert.ErrorContains(t, err, "unexpected status 404")
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Projects</title>
  <item>
    <title>Feed One</title>
    <pubDate>Mon, 02 Mar 2020 10:00:00 GMT</pubDate>
    <enclosure url="https://img.example/one.jpg" length="100" type="image/jpeg"/>
  </item>
  <item>
    <title>Feed Two</title>
    <pubDate>Tue, 01 Jun 2021 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	ps, err := (&FeedSource{URL: srv.URL}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 2)

	assert.Equal(t, "Feed One", ps[0].Title)
	assert.Equal(t, "https://img.example/one.jpg", ps[0].HeroImageURL)
	assert.Equal(t, []int{2020, 2021}, Years(ps))
	assert.Empty(t, ps[1].HeroImageURL)
}

func TestMultiSource(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(a, []byte(sampleDocument), 0o644))

	ps, err := MultiSource{&FileSource{Path: a}, &FileSource{Path: a}}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 4)

	_, err = MultiSource{&FileSource{Path: a}, &FileSource{Path: filepath.Join(dir, "b.json")}}.Load(context.Background())
	assert.Error(t, err)
}

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingSource) Load(ctx context.Context) ([]Project, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return []Project{{StartOn: "2020-01-01", Title: "A"}}, nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{delay: 20 * time.Millisecond}
	cache := NewCachedSource(inner, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ps, err := cache.Load(context.Background())
			assert.NoError(t, err)
			assert.Len(t, ps, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{err: fmt.Errorf("boom")}
	cache := NewCachedSource(inner, time.Minute)

	_, err := cache.Load(context.Background())
	assert.Error(t, err)
	_, err = cache.Load(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

type gatedSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Load(ctx context.Context) ([]Project, error) {
	s.calls.Add(1)
	close(s.started)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
		return []Project{{StartOn: "2020-01-01", Title: "A"}}, nil
	}
}

func TestCachedSourceSurvivesCancelledCaller(t *testing.T) {
	inner := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	cache := NewCachedSource(inner, time.Minute)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Load(firstCtx)
		firstErr <- err
	}()
	<-inner.started

	type result struct {
		ps  []Project
		err error
	}
	second := make(chan result, 1)
	go func() {
		ps, err := cache.Load(context.Background())
		second <- result{ps, err}
	}()
	// Let the second caller join the flight before the first one leaves.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(inner.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.ps, 1)
	assert.Equal(t, int32(1), inner.calls.Load())

	ps, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 1)
	assert.Equal(t, int32(1), inner.calls.Load(), "completed load was cached")
}
