package slideshow

import "math"

// MaxZoom bounds the zoom factor a viewer can reach.
const MaxZoom = 5.0

// Size is a width/height pair in display pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PanZoom is the transform applied to the displayed image.
type PanZoom struct {
	Zoom float64 `json:"zoom"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Frame holds the per-item display state: pan/zoom for images and the
// playing flag for videos.
type Frame struct {
	container Size
	media     Size
	pz        PanZoom

	dragging bool
	originX  float64
	originY  float64

	videoPlaying bool
}

func NewFrame() Frame {
	return Frame{pz: PanZoom{Zoom: 1}}
}

func (f *Frame) PanZoom() PanZoom   { return f.pz }
func (f *Frame) VideoPlaying() bool { return f.videoPlaying }

// Reset returns to the identity transform. Layout sizes are kept.
func (f *Frame) Reset() {
	f.pz = PanZoom{Zoom: 1}
	f.dragging = false
}

// SetLayout records the container and rendered media sizes reported by the
// display and re-clamps the offset.
func (f *Frame) SetLayout(container, media Size) {
	f.container = container
	f.media = media
	f.clamp()
}

func (f *Frame) SetZoom(z float64) {
	if math.IsNaN(z) || z < 1 {
		z = 1
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	f.pz.Zoom = z
	if z == 1 {
		f.dragging = false
	}
	f.clamp()
}

// BeginDrag starts a pan. It is a no-op at zoom 1.
func (f *Frame) BeginDrag(x, y float64) bool {
	if f.pz.Zoom <= 1 {
		return false
	}
	f.dragging = true
	f.originX = x - f.pz.X
	f.originY = y - f.pz.Y
	return true
}

func (f *Frame) DragTo(x, y float64) {
	if !f.dragging || f.pz.Zoom <= 1 {
		return
	}
	f.pz.X = x - f.originX
	f.pz.Y = y - f.originY
	f.clamp()
}

func (f *Frame) EndDrag() { f.dragging = false }

func (f *Frame) clamp() {
	if f.pz.Zoom <= 1 {
		f.pz.X, f.pz.Y = 0, 0
		return
	}
	f.pz.X = clampAxis(f.pz.X, f.media.W, f.container.W, f.pz.Zoom)
	f.pz.Y = clampAxis(f.pz.Y, f.media.H, f.container.H, f.pz.Zoom)
}

// clampAxis keeps |v| <= (media*zoom - container)/2, or 0 when the scaled
// media does not overflow the container.
func clampAxis(v, media, container, zoom float64) float64 {
	limit := (media*zoom - container) / 2
	if limit <= 0 {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}
