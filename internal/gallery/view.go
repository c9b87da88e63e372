package gallery

import "sync"

// YearItem is one entry of the rendered year list.
type YearItem struct {
	Year   int
	Active bool
	Offset Offset
}

// Snapshot is the rendered page at one point in time.
type Snapshot struct {
	Years []YearItem
	Tiles []Tile
}

// View is an in-memory Sink that keeps the last rendered page and reports
// every completed transition to onFlush.
type View struct {
	mu      sync.RWMutex
	years   []YearItem
	tiles   []Tile
	onFlush func(Snapshot)
}

func NewView(onFlush func(Snapshot)) *View {
	return &View{onFlush: onFlush}
}

func (v *View) SetYears(years []int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.years = make([]YearItem, len(years))
	for i, y := range years {
		v.years[i] = YearItem{Year: y}
	}
}

func (v *View) SetActive(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.years {
		v.years[i].Active = i == index
	}
}

func (v *View) SetOffset(index int, offset Offset) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index >= 0 && index < len(v.years) {
		v.years[index].Offset = offset
	}
}

func (v *View) ClearGrid() {
	v.mu.Lock()
	v.tiles = nil
	v.mu.Unlock()
}

func (v *View) AppendTile(tile Tile) {
	v.mu.Lock()
	v.tiles = append(v.tiles, tile)
	v.mu.Unlock()
}

func (v *View) Flush() {
	if v.onFlush != nil {
		v.onFlush(v.Snapshot())
	}
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return Snapshot{
		Years: append([]YearItem(nil), v.years...),
		Tiles: append([]Tile(nil), v.tiles...),
	}
}
