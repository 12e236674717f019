package widgets

import (
	"fmt"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	chartPadLeft   = 40
	chartPadRight  = 16
	chartPadTop    = 28
	chartPadBottom = 32
	markerRadius   = 3
)

var (
	chartBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	chartAxis       = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	chartSeries     = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	chartText       = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

type Point struct {
	X float64
	Y float64
}

// Chart plots a growing series as a line with point markers. The y axis is
// fixed to [YMin, YMax]; the x axis spans [0, XSpan] and widens if a point
// falls beyond it.
type Chart struct {
	widget.BaseWidget

	Title  string
	XLabel string
	YLabel string
	YMin   float64
	YMax   float64

	mu     sync.RWMutex
	points []Point
	xSpan  float64
}

func NewChart(title, xLabel, yLabel string, yMin, yMax float64) *Chart {
	c := &Chart{
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		YMin:   yMin,
		YMax:   yMax,
		points: make([]Point, 0),
		xSpan:  1,
	}
	c.ExtendBaseWidget(c)
	return c
}

func (c *Chart) Append(x, y float64) {
	c.mu.Lock()
	c.points = append(c.points, Point{X: x, Y: y})
	c.mu.Unlock()
	c.Refresh()
}

// Reset clears the plot and sets the expected x extent.
func (c *Chart) Reset(xSpan float64) {
	if xSpan <= 0 {
		xSpan = 1
	}
	c.mu.Lock()
	c.points = make([]Point, 0)
	c.xSpan = xSpan
	c.mu.Unlock()
	c.Refresh()
}

func (c *Chart) Points() []Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// XSpan returns the current x extent, including any widening.
func (c *Chart) XSpan() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.xSpanLocked()
}

func (c *Chart) xSpanLocked() float64 {
	span := c.xSpan
	for _, p := range c.points {
		if p.X > span {
			span = p.X
		}
	}
	return span
}

func (c *Chart) CreateRenderer() fyne.WidgetRenderer {
	r := &chartRenderer{
		chart:      c,
		background: canvas.NewRectangle(chartBackground),
		xAxis:      canvas.NewLine(chartAxis),
		yAxis:      canvas.NewLine(chartAxis),
		title:      canvas.NewText(c.Title, chartText),
		xLabel:     canvas.NewText(c.XLabel, chartText),
		yLabel:     canvas.NewText(c.YLabel, chartText),
		yMinLabel:  canvas.NewText("", chartText),
		yMaxLabel:  canvas.NewText("", chartText),
		xMaxLabel:  canvas.NewText("", chartText),
	}
	r.title.TextStyle = fyne.TextStyle{Bold: true}
	r.title.Alignment = fyne.TextAlignCenter
	r.xLabel.Alignment = fyne.TextAlignCenter
	for _, t := range []*canvas.Text{r.xLabel, r.yLabel, r.yMinLabel, r.yMaxLabel, r.xMaxLabel} {
		t.TextSize = 11
	}
	r.rebuild()
	return r
}

type chartRenderer struct {
	chart      *Chart
	background *canvas.Rectangle
	xAxis      *canvas.Line
	yAxis      *canvas.Line
	title      *canvas.Text
	xLabel     *canvas.Text
	yLabel     *canvas.Text
	yMinLabel  *canvas.Text
	yMaxLabel  *canvas.Text
	xMaxLabel  *canvas.Text
	segments   []*canvas.Line
	markers    []*canvas.Circle
	objects    []fyne.CanvasObject
	size       fyne.Size
}

func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(360, 220)
}

func (r *chartRenderer) Layout(size fyne.Size) {
	r.size = size
	r.layoutPlot()
}

func (r *chartRenderer) Refresh() {
	r.rebuild()
	r.layoutPlot()
	canvas.Refresh(r.chart)
}

func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *chartRenderer) Destroy() {}

// rebuild matches the number of line segments and markers to the points.
func (r *chartRenderer) rebuild() {
	n := len(r.chart.Points())

	for len(r.markers) < n {
		m := canvas.NewCircle(chartSeries)
		r.markers = append(r.markers, m)
	}
	r.markers = r.markers[:n]

	segs := n - 1
	if segs < 0 {
		segs = 0
	}
	for len(r.segments) < segs {
		l := canvas.NewLine(chartSeries)
		l.StrokeWidth = 2
		r.segments = append(r.segments, l)
	}
	r.segments = r.segments[:segs]

	objects := []fyne.CanvasObject{
		r.background, r.xAxis, r.yAxis,
		r.title, r.xLabel, r.yLabel, r.yMinLabel, r.yMaxLabel, r.xMaxLabel,
	}
	for _, s := range r.segments {
		objects = append(objects, s)
	}
	for _, m := range r.markers {
		objects = append(objects, m)
	}
	r.objects = objects
}

func (r *chartRenderer) layoutPlot() {
	c := r.chart
	size := r.size
	r.background.Resize(size)
	r.background.Move(fyne.NewPos(0, 0))

	left := float32(chartPadLeft)
	top := float32(chartPadTop)
	right := size.Width - chartPadRight
	bottom := size.Height - chartPadBottom
	width := right - left
	height := bottom - top
	if width <= 0 || height <= 0 {
		return
	}

	r.xAxis.Position1 = fyne.NewPos(left, bottom)
	r.xAxis.Position2 = fyne.NewPos(right, bottom)
	r.yAxis.Position1 = fyne.NewPos(left, top)
	r.yAxis.Position2 = fyne.NewPos(left, bottom)

	r.title.Text = c.Title
	r.title.Move(fyne.NewPos(0, 4))
	r.title.Resize(fyne.NewSize(size.Width, 20))

	r.xLabel.Text = c.XLabel
	r.xLabel.Move(fyne.NewPos(left, bottom+14))
	r.xLabel.Resize(fyne.NewSize(width, 16))
	r.yLabel.Text = c.YLabel
	r.yLabel.Move(fyne.NewPos(left+4, top-16))

	c.mu.RLock()
	points := make([]Point, len(c.points))
	copy(points, c.points)
	xSpan := c.xSpanLocked()
	c.mu.RUnlock()

	r.yMaxLabel.Text = fmt.Sprintf("%.0f", c.YMax)
	r.yMaxLabel.Move(fyne.NewPos(4, top-6))
	r.yMinLabel.Text = fmt.Sprintf("%.0f", c.YMin)
	r.yMinLabel.Move(fyne.NewPos(4, bottom-8))
	r.xMaxLabel.Text = fmt.Sprintf("%.1f", xSpan)
	r.xMaxLabel.Move(fyne.NewPos(right-24, bottom+2))

	yRange := c.YMax - c.YMin
	if yRange <= 0 {
		yRange = 1
	}
	project := func(p Point) fyne.Position {
		x := left + float32(p.X/xSpan)*width
		y := bottom - float32((p.Y-c.YMin)/yRange)*height
		return fyne.NewPos(x, y)
	}

	for i, p := range points {
		if i >= len(r.markers) {
			break
		}
		pos := project(p)
		r.markers[i].Position1 = fyne.NewPos(pos.X-markerRadius, pos.Y-markerRadius)
		r.markers[i].Position2 = fyne.NewPos(pos.X+markerRadius, pos.Y+markerRadius)
		if i > 0 && i-1 < len(r.segments) {
			r.segments[i-1].Position1 = project(points[i-1])
			r.segments[i-1].Position2 = pos
		}
	}
}
