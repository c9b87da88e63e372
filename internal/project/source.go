package project

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/singleflight"
)

// DefaultLocation is the JSON asset read when nothing else is configured.
const DefaultLocation = "allprojects.json"

// Source loads the project list.
type Source interface {
	Load(ctx context.Context) ([]Project, error)
}

// NewSource picks an HTTP source for http(s) locations and a file source
// otherwise.
func NewSource(location string) Source {
	if location == "" {
		location = DefaultLocation
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Client: NewHTTPClient(30 * time.Second)}
	}
	return &FileSource{Path: location}
}

// NewHTTPClient returns a client honouring proxy settings from the
// environment.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: timeout,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

type FileSource struct {
	Path string
}

func (s *FileSource) Load(ctx context.Context) ([]Project, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer file.Close()
	return Decode(file)
}

// HTTPSource issues a single GET for the document. There is no retry.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Load(ctx context.Context) ([]Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.URL, resp.StatusCode)
	}
	return Decode(resp.Body)
}

// FeedSource turns the items of an RSS or Atom feed into projects.
type FeedSource struct {
	URL    string
	Client *http.Client
}

func (s *FeedSource) Load(ctx context.Context) ([]Project, error) {
	fp := gofeed.NewParser()
	if s.Client != nil {
		fp.Client = s.Client
	}

	feed, err := fp.ParseURLWithContext(s.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.URL, err)
	}

	projects := make([]Project, 0, len(feed.Items))
	for _, item := range feed.Items {
		projects = append(projects, FromFeedItem(item))
	}
	return projects, nil
}

// FromFeedItem maps a feed item onto a project. The publication date is the
// start date; the update date, when present, stands in for the creation date.
func FromFeedItem(item *gofeed.Item) Project {
	p := Project{Title: item.Title}
	if item.PublishedParsed != nil {
		p.StartOn = item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	switch {
	case item.UpdatedParsed != nil:
		p.Created = item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		p.Created = p.StartOn
	}
	if item.Image != nil && item.Image.URL != "" {
		p.HeroImageURL = item.Image.URL
		return p
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			p.HeroImageURL = enc.URL
			break
		}
	}
	return p
}

// MultiSource concatenates the projects of several sources in order.
type MultiSource []Source

func (m MultiSource) Load(ctx context.Context) ([]Project, error) {
	var all []Project
	for _, s := range m {
		ps, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, ps...)
	}
	return all, nil
}

// CachedSource keeps the last successful load for TTL. Concurrent misses
// share one underlying load, which outlives the caller that started it.
type CachedSource struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mutex     sync.RWMutex
	projects  []Project
	lastFetch time.Time
}

func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Load returns the cached projects or waits for a shared load. A caller
// whose ctx ends stops waiting without cancelling the load for the others.
func (c *CachedSource) Load(ctx context.Context) ([]Project, error) {
	c.mutex.RLock()
	projects, lastFetch := c.projects, c.lastFetch
	c.mutex.RUnlock()
	if !lastFetch.IsZero() && c.now().Sub(lastFetch) < c.ttl {
		return projects, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("projects", func() (interface{}, error) {
		ps, err := c.source.Load(shared)
		if err != nil {
			return nil, err
		}
		c.mutex.Lock()
		c.projects = ps
		c.lastFetch = c.now()
		c.mutex.Unlock()
		return ps, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Project), nil
	}
}
