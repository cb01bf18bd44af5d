package chart

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var liveCharts = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "todotracker_charts_live",
	Help: "Number of rendered charts not yet destroyed",
})

const (
	barFill   = "rgba(79, 70, 229, 0.8)"
	barStroke = "rgba(79, 70, 229, 1)"
)

var svgTemplate = template.Must(template.New("bar").Parse(`<svg xmlns="http://www.w3.org/2000/svg" class="chart" viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="{{.Title}}">
{{- range .Ticks}}
<line class="grid" x1="{{$.PlotLeft}}" y1="{{.Y}}" x2="{{$.PlotRight}}" y2="{{.Y}}"/>
<text class="tick" x="{{$.TickX}}" y="{{.Y}}" text-anchor="end" dominant-baseline="middle">{{.Value}}</text>
{{- end}}
{{- range .Bars}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" rx="5" fill="{{$.Fill}}" stroke="{{$.Stroke}}" stroke-width="1"><title>{{.Label}}: {{.Value}}</title></rect>
<text class="label" x="{{.CenterX}}" y="{{$.LabelY}}" text-anchor="middle">{{.Label}}</text>
{{- end}}
</svg>`))

type svgBar struct {
	X, Y, W, H float64
	CenterX    float64
	Label      string
	Value      int
}

type svgTick struct {
	Y     float64
	Value int
}

type svgView struct {
	Title               string
	Width, Height       int
	PlotLeft, PlotRight float64
	TickX, LabelY       float64
	Fill, Stroke        string
	Bars                []svgBar
	Ticks               []svgTick
}

// SVGRenderer рисует столбчатую диаграмму с осью Y от нуля и шагом делений 1
type SVGRenderer struct {
	Title  string
	Width  int
	Height int
}

func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{Title: "Tasks Completed", Width: 640, Height: 320}
}

func (r *SVGRenderer) Render(d Data) (Chart, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	view := r.layout(d)
	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}

	liveCharts.Inc()
	return &svgChart{
		data: Data{
			Labels: append([]string(nil), d.Labels...),
			Values: append([]int(nil), d.Values...),
		},
		html: template.HTML(buf.String()),
	}, nil
}

func (r *SVGRenderer) layout(d Data) svgView {
	const (
		padLeft   = 36.0
		padRight  = 8.0
		padTop    = 12.0
		padBottom = 28.0
	)

	maxValue := 1
	for _, v := range d.Values {
		if v > maxValue {
			maxValue = v
		}
	}
	step := 1
	if maxValue > 10 {
		step = (maxValue + 9) / 10
	}
	top := ((maxValue + step - 1) / step) * step

	plotW := float64(r.Width) - padLeft - padRight
	plotH := float64(r.Height) - padTop - padBottom
	baseline := padTop + plotH

	view := svgView{
		Title:     r.Title,
		Width:     r.Width,
		Height:    r.Height,
		PlotLeft:  padLeft,
		PlotRight: float64(r.Width) - padRight,
		TickX:     padLeft - 6,
		LabelY:    float64(r.Height) - 8,
		Fill:      barFill,
		Stroke:    barStroke,
	}

	for v := 0; v <= top; v += step {
		view.Ticks = append(view.Ticks, svgTick{
			Y:     baseline - plotH*float64(v)/float64(top),
			Value: v,
		})
	}

	if len(d.Values) == 0 {
		return view
	}
	slot := plotW / float64(len(d.Values))
	for i, v := range d.Values {
		h := plotH * float64(v) / float64(top)
		x := padLeft + slot*float64(i) + slot*0.2
		view.Bars = append(view.Bars, svgBar{
			X:       x,
			Y:       baseline - h,
			W:       slot * 0.6,
			H:       h,
			CenterX: x + slot*0.3,
			Label:   d.Labels[i],
			Value:   v,
		})
	}
	return view
}

type svgChart struct {
	mu        sync.Mutex
	data      Data
	html      template.HTML
	destroyed bool
}

func (c *svgChart) HTML() template.HTML {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

func (c *svgChart) Data() Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Destroy идемпотентен: повторный вызов ничего не делает
func (c *svgChart) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.html = ""
	liveCharts.Dec()
}
