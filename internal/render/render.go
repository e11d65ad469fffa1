// Package render draws skeleton frames into images for the debug stream.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Default canvas size, matching the depth sensor resolution.
const (
	DefaultWidth  = 512
	DefaultHeight = 424
	// DefaultFocalLength is the depth camera focal length in pixels.
	DefaultFocalLength = 365.0
)

var (
	background   = gocv.NewScalar(24, 24, 24, 0)
	trackedColor = color.RGBA{R: 80, G: 220, B: 100, A: 255}
	// inferredColor marks joints the sensor guessed.
	inferredColor = color.RGBA{R: 230, G: 200, B: 60, A: 255}
	activeColor   = color.RGBA{R: 70, G: 170, B: 255, A: 255}
	textColor     = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// Options configures a Renderer.
type Options struct {
	Width       int
	Height      int
	FocalLength float64
}

// DefaultOptions returns Options sized like the depth sensor.
func DefaultOptions() Options {
	return Options{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		FocalLength: DefaultFocalLength,
	}
}

// Renderer draws frames with a fixed pinhole projection.
type Renderer struct {
	opts Options
}

// New creates a Renderer. Zero fields in opts take their defaults.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FocalLength <= 0 {
		opts.FocalLength = def.FocalLength
	}
	return &Renderer{opts: opts}
}

// Project maps a camera space point to pixel coordinates. Points at or behind
// the sensor plane are not visible.
func (r *Renderer) Project(p skeleton.Point3D) (image.Point, bool) {
	if p.Z <= 0 {
		return image.Point{}, false
	}
	u := float64(r.opts.Width)/2 + r.opts.FocalLength*p.X/p.Z
	v := float64(r.opts.Height)/2 - r.opts.FocalLength*p.Y/p.Z
	return image.Pt(int(u+0.5), int(v+0.5)), true
}

// Draw renders the tracked bodies of f. The body with activeID is highlighted.
// The caller owns the returned Mat and must Close it.
func (r *Renderer) Draw(f skeleton.Frame, activeID uint64) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(background, r.opts.Height, r.opts.Width, gocv.MatTypeCV8UC3)

	for _, b := range f.Bodies {
		if b == nil || !b.Tracked {
			continue
		}
		r.drawBody(&img, b, b.TrackingID != 0 && b.TrackingID == activeID)
	}

	label := fmt.Sprintf("frame %d  bodies %d", f.Sequence, f.TrackedCount())
	if activeID != 0 {
		label += fmt.Sprintf("  active %d", activeID)
	}
	gocv.PutText(&img, label, image.Pt(8, 18), gocv.FontHersheySimplex, 0.45, textColor, 1)

	return img
}

// EncodeJPEG renders f and encodes it as JPEG.
func (r *Renderer) EncodeJPEG(f skeleton.Frame, activeID uint64) ([]byte, error) {
	img := r.Draw(f, activeID)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The buffer is owned by OpenCV
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (r *Renderer) drawBody(img *gocv.Mat, b *skeleton.Body, active bool) {
	thickness := 2
	if active {
		thickness = 4
	}

	for _, bone := range skeleton.Bones {
		from, to := b.Joints[bone.From], b.Joints[bone.To]
		if from.State == skeleton.NotTracked || to.State == skeleton.NotTracked {
			continue
		}
		p1, ok1 := r.Project(from.Position)
		p2, ok2 := r.Project(to.Position)
		if !ok1 || !ok2 {
			continue
		}
		c := boneColor(from.State, to.State, active)
		gocv.Line(img, p1, p2, c, thickness)
	}

	for _, j := range b.Joints {
		if j.State == skeleton.NotTracked {
			continue
		}
		p, ok := r.Project(j.Position)
		if !ok {
			continue
		}
		gocv.Circle(img, p, 3, jointColor(j.State), -1)
	}
}

func boneColor(a, b skeleton.TrackingState, active bool) color.RGBA {
	if a == skeleton.Inferred || b == skeleton.Inferred {
		return inferredColor
	}
	if active {
		return activeColor
	}
	return trackedColor
}

func jointColor(s skeleton.TrackingState) color.RGBA {
	if s == skeleton.Inferred {
		return inferredColor
	}
	return trackedColor
}
