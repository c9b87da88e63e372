package gallery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	selections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gallery",
		Subsystem: "selector",
		Name:      "selections_total",
		Help:      "Year selections broken down by what triggered them.",
	}, []string{"trigger"})

	tilesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gallery",
		Subsystem: "grid",
		Name:      "tiles_rendered_total",
		Help:      "Project tiles rendered into the grid.",
	})
)
