package gallery

import (
	"fmt"
	"strconv"
)

// Sink receives the render operations of a Controller.
type Sink interface {
	// SetYears replaces the year list with one item per year.
	SetYears(years []int)
	// SetActive marks the item at index active and every other item inactive.
	SetActive(index int)
	// SetOffset positions the item at index.
	SetOffset(index int, offset Offset)
	ClearGrid()
	AppendTile(tile Tile)
}

// Flusher is implemented by sinks that want to know when a transition is
// complete.
type Flusher interface {
	Flush()
}

// Offset is the vertical translation of a year item, in pixels.
type Offset struct {
	Y      float64
	Center float64
}

// Transform renders the offset as a CSS transform value.
func (o Offset) Transform() string {
	return fmt.Sprintf("translateY(%spx) translateY(%spx)", px(o.Y), px(o.Center))
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Tile is one project in the grid. Tiles without an image carry a flat gray
// background instead.
type Tile struct {
	Title    string
	ImageURL string
	Gray     uint8
}

func (t Tile) HasImage() bool {
	return t.ImageURL != ""
}

// Background is the CSS color of an image-less tile.
func (t Tile) Background() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", t.Gray, t.Gray, t.Gray)
}
