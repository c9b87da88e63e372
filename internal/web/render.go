package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
)

//go:embed templates/*.html
var templatesFS embed.FS

func mustParseTemplates() *template.Template {
	return template.Must(template.New("gallery").ParseFS(templatesFS, "templates/*.html"))
}

type yearView struct {
	Index     int
	Year      int
	Active    bool
	Transform template.CSS
}

type tileView struct {
	Title      string
	ImageURL   string
	Background template.CSS
}

type pageView struct {
	Years []yearView
	Tiles []tileView
}

type indexView struct {
	Page         pageView
	SessionToken string
}

// fragments is the payload pushed to the page after a transition.
type fragments struct {
	Years string `json:"years"`
	Grid  string `json:"grid"`
}

func newPageView(snap gallery.Snapshot) pageView {
	page := pageView{
		Years: make([]yearView, len(snap.Years)),
		Tiles: make([]tileView, len(snap.Tiles)),
	}
	for i, y := range snap.Years {
		page.Years[i] = yearView{
			Index:     i,
			Year:      y.Year,
			Active:    y.Active,
			Transform: template.CSS(y.Offset.Transform()),
		}
	}
	for i, t := range snap.Tiles {
		tv := tileView{Title: t.Title, ImageURL: t.ImageURL}
		if !t.HasImage() {
			tv.Background = template.CSS(t.Background())
		}
		page.Tiles[i] = tv
	}
	return page
}

func (h *handler) renderFragments(snap gallery.Snapshot) (fragments, error) {
	page := newPageView(snap)

	var years, grid bytes.Buffer
	if err := h.templates.ExecuteTemplate(&years, "years", page); err != nil {
		return fragments{}, fmt.Errorf("render years: %w", err)
	}
	if err := h.templates.ExecuteTemplate(&grid, "grid", page); err != nil {
		return fragments{}, fmt.Errorf("render grid: %w", err)
	}
	return fragments{Years: years.String(), Grid: grid.String()}, nil
}
