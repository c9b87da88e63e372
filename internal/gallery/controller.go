// Package gallery holds the year selector and project grid state of one
// gallery page and renders it through a Sink.
package gallery

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/debounce"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
)

const (
	DefaultItemHeight = 48.0
	DefaultWheelWait  = 200 * time.Millisecond
)

var ErrIndexOutOfRange = errors.New("year index out of range")

type Option func(*Controller)

// WithItemHeight sets the height of the active year item in pixels.
func WithItemHeight(h float64) Option {
	return func(c *Controller) { c.itemHeight = h }
}

// WithWheelWait sets the quiet period of the wheel debounce.
func WithWheelWait(d time.Duration) Option {
	return func(c *Controller) { c.wheelWait = d }
}

// WithGray replaces the placeholder color source.
func WithGray(fn func() uint8) Option {
	return func(c *Controller) { c.gray = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func randomGray() uint8 {
	return uint8(rand.Intn(256))
}

// State is a snapshot of the selection.
type State struct {
	Years      []int
	Active     int
	ActiveYear int
	Projects   []project.Project
}

type Controller struct {
	sink       Sink
	logger     *zap.Logger
	itemHeight float64
	wheelWait  time.Duration
	gray       func() uint8
	wheel      *debounce.Func[float64]

	mu       sync.Mutex
	projects []project.Project
	years    []int
	active   int
}

// New renders the year list for projects and selects the earliest year.
func New(projects []project.Project, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		sink:       sink,
		logger:     zap.NewNop(),
		itemHeight: DefaultItemHeight,
		wheelWait:  DefaultWheelWait,
		gray:       randomGray,
		projects:   projects,
		years:      project.Years(projects),
		active:     -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.wheel = debounce.New(c.wheelWait, c.handleWheel)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sink.SetYears(c.years)
	if len(c.years) == 0 {
		c.logger.Info("📭 No years to show", zap.Int("projects", len(projects)))
		c.flush()
		return c
	}
	c.selectLocked(0, "init")
	return c
}

// Click selects the year item at index.
func (c *Controller) Click(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.years) {
		return fmt.Errorf("click %d of %d: %w", index, len(c.years), ErrIndexOutOfRange)
	}
	c.selectLocked(index, "click")
	return nil
}

// Wheel schedules a one-step move of the selection. Bursts of wheel input
// are collapsed and only the last delta counts.
func (c *Controller) Wheel(deltaY float64) {
	c.wheel.Call(deltaY)
}

// Close cancels pending wheel input.
func (c *Controller) Close() {
	c.wheel.Stop()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Years:  append([]int(nil), c.years...),
		Active: c.active,
	}
	if c.active >= 0 {
		s.ActiveYear = c.years[c.active]
		s.Projects = project.ForYear(c.projects, s.ActiveYear)
	}
	return s
}

func (c *Controller) handleWheel(deltaY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.years)
	if n == 0 {
		return
	}
	next := c.active
	if deltaY > 0 {
		next = min(n-1, c.active+1)
	} else {
		next = max(0, c.active-1)
	}
	if next == c.active {
		return
	}
	c.selectLocked(next, "wheel")
}

func (c *Controller) selectLocked(index int, trigger string) {
	c.active = index
	c.sink.SetActive(index)
	c.positionLocked()
	year := c.years[index]
	tiles := c.renderGridLocked(year)

	selections.WithLabelValues(trigger).Inc()
	c.logger.Debug("📅 Year selected",
		zap.Int("year", year),
		zap.Int("index", index),
		zap.Int("tiles", tiles),
		zap.String("trigger", trigger),
	)
	c.flush()
}

func (c *Controller) positionLocked() {
	center := c.centerOffset()
	for i := range c.years {
		c.sink.SetOffset(i, Offset{
			Y:      float64(i-c.active) * c.itemHeight,
			Center: center,
		})
	}
}

// centerOffset would center the active item in the list. The list height is
// never taken into account, so the active item stays on the first row.
func (c *Controller) centerOffset() float64 {
	return 0
}

func (c *Controller) renderGridLocked(year int) int {
	c.sink.ClearGrid()
	n := 0
	for _, p := range c.projects {
		if y, ok := project.DerivedYear(p); !ok || y != year {
			continue
		}
		tile := Tile{Title: p.Title, ImageURL: p.HeroImageURL}
		if !tile.HasImage() {
			tile.Gray = c.gray()
		}
		c.sink.AppendTile(tile)
		n++
	}
	tilesRendered.Add(float64(n))
	return n
}

func (c *Controller) flush() {
	if f, ok := c.sink.(Flusher); ok {
		f.Flush()
	}
}
