package manager

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var inflightLoads = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "todotracker_loads_in_flight",
		Help: "Page loads waiting for the hosted service",
	},
	[]string{"page"},
)

// Spinner - индикатор загрузки; зависший запрос оставляет его видимым
type Spinner struct {
	page    string
	visible atomic.Bool
}

func NewSpinner(page string) *Spinner {
	return &Spinner{page: page}
}

func (s *Spinner) Show() {
	if !s.visible.Swap(true) {
		inflightLoads.WithLabelValues(s.page).Inc()
	}
}

func (s *Spinner) Hide() {
	if s.visible.Swap(false) {
		inflightLoads.WithLabelValues(s.page).Dec()
	}
}

func (s *Spinner) Visible() bool {
	return s.visible.Load()
}
