package welcomecard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	_ "golang.org/x/image/webp" // register WebP for embedded pictures

	log "github.com/activeshadow/libminimega/minilog"
)

// RenderOptions configures slide-to-image rendering.
type RenderOptions struct {
	// DPI is the pixel density slide geometry is converted at. Default: 96.
	DPI int
	// Typeface is the family used to measure and draw text. Default: "Arial".
	Typeface string
	// DrawSize is the size, in pixels, substituted text is drawn at. Default: 48.
	DrawSize float64
	// LineSpacing multiplies the measured line height. Default: 1.2.
	LineSpacing float64
	// FontDirs specifies additional directories to search for TrueType/OpenType fonts.
	// System font directories are always searched automatically.
	FontDirs []string
	// FontCache allows sharing a pre-configured FontCache across multiple renders.
	// If nil, a new FontCache is created using FontDirs.
	FontCache *FontCache
	// JPEGQuality is the JPEG quality (1-100) used by Process. Default: 95.
	JPEGQuality int
	// UnifiedLineMetrics measures line height with the bold face at DrawSize
	// instead of the regular face at the run's own size.
	UnifiedLineMetrics bool
	// Target is the run text to draw. Runs with other text are not drawn.
	Target string
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		DPI:         DefaultDPI,
		Typeface:    "Arial",
		DrawSize:    48,
		LineSpacing: 1.2,
		JPEGQuality: 95,
	}
}

// withDefaults returns a copy of o with zero fields set to their defaults.
func (o *RenderOptions) withDefaults() *RenderOptions {
	out := *DefaultRenderOptions()
	if o == nil {
		return &out
	}
	def := out
	out = *o
	if out.DPI <= 0 {
		out.DPI = def.DPI
	}
	if out.Typeface == "" {
		out.Typeface = def.Typeface
	}
	if out.DrawSize <= 0 {
		out.DrawSize = def.DrawSize
	}
	if out.LineSpacing <= 0 {
		out.LineSpacing = def.LineSpacing
	}
	if out.JPEGQuality <= 0 || out.JPEGQuality > 100 {
		out.JPEGQuality = def.JPEGQuality
	}
	return &out
}

// SlideToImage renders a single slide to an image.
//
// The canvas is the slide size converted at opts.DPI on a white background.
// Pictures are resized and copied opaquely at their converted position.
// In text frames only runs whose text equals opts.Target are drawn, bold
// and in AccentColor, centred horizontally in the shape. Everything else is
// skipped.
func (p *Presentation) SlideToImage(slideIndex int, opts *RenderOptions) (image.Image, error) {
	if slideIndex < 0 || slideIndex >= len(p.slides) {
		return nil, fmt.Errorf("slide index %d out of range (0-%d)", slideIndex, len(p.slides)-1)
	}
	if p.layout == nil {
		return nil, fmt.Errorf("presentation has no slide size")
	}
	opts = opts.withDefaults()

	imgW, imgH := p.layout.PixelSize(opts.DPI)
	if imgW <= 0 || imgH <= 0 {
		return nil, fmt.Errorf("slide size %dx%d EMU gives an empty %dx%d canvas", p.layout.CX, p.layout.CY, imgW, imgH)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	dc := gg.NewContextForRGBA(canvas)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	r := &renderer{
		canvas:    canvas,
		dc:        dc,
		opts:      opts,
		fontCache: opts.FontCache,
	}
	if r.fontCache == nil {
		r.fontCache = NewFontCache(opts.FontDirs...)
	}

	for i, shape := range p.slides[slideIndex].shapes {
		if shape == nil {
			continue
		}
		if err := r.renderShape(shape); err != nil {
			return nil, newSlideError(stageFor(err), slideIndex, fmt.Errorf("shape %d (%s): %w", i, shape.GetName(), err))
		}
	}
	return canvas, nil
}

// decodeError marks a picture that could not be decoded.
type decodeError struct{ err error }

func (e decodeError) Error() string { return "decoding picture: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func stageFor(err error) Stage {
	if _, ok := err.(decodeError); ok {
		return StageDecode
	}
	return StageRender
}

type renderer struct {
	canvas    *image.RGBA
	dc        *gg.Context
	opts      *RenderOptions
	fontCache *FontCache
}

func (r *renderer) px(emu int64) int {
	return EMUToPixel(emu, r.opts.DPI)
}

func (r *renderer) renderShape(shape Shape) error {
	switch s := shape.(type) {
	case *PictureShape:
		return r.renderPicture(s)
	case *TextShape:
		return r.renderText(s)
	default:
		log.Debug("skipping %s shape %q", shape.Kind(), shape.GetName())
		return nil
	}
}

func (r *renderer) renderPicture(s *PictureShape) error {
	if len(s.data) == 0 {
		log.Debug("picture %q has no embedded data, skipping", s.name)
		return nil
	}

	left, top := r.px(s.offsetX), r.px(s.offsetY)
	width, height := r.px(s.width), r.px(s.height)
	if width <= 0 || height <= 0 {
		log.Debug("picture %q has empty size %dx%d, skipping", s.name, width, height)
		return nil
	}

	src, err := imaging.Decode(bytes.NewReader(s.data))
	if err != nil {
		return decodeError{err}
	}

	resized := imaging.Resize(src, width, height, imaging.Lanczos)
	// Alpha is dropped, not composited: colour channels are kept as stored.
	opaque := imaging.AdjustFunc(resized, func(c color.NRGBA) color.NRGBA {
		c.A = 255
		return c
	})

	dst := image.Rect(left, top, left+width, top+height)
	draw.Draw(r.canvas, dst, opaque, image.Point{}, draw.Src)
	log.Debug("pasted picture %q at (%d,%d) size %dx%d", s.name, left, top, width, height)
	return nil
}

func (r *renderer) renderText(s *TextShape) error {
	target := r.opts.Target
	if target == "" || s.frame == nil {
		return nil
	}

	left, top := r.px(s.offsetX), r.px(s.offsetY)
	width, height := r.px(s.width), r.px(s.height)
	insetLeft := left + r.px(s.frame.MarginLeft)
	insetTop := top + r.px(s.frame.MarginTop)

	drawFace, err := r.fontCache.GetFace(r.opts.Typeface, r.opts.DrawSize, true)
	if err != nil {
		return err
	}

	for _, para := range s.frame.paragraphs {
		if para == nil {
			continue
		}

		lineHeight, err := r.lineHeight(para, drawFace)
		if err != nil {
			return err
		}

		y := float64(insetTop) + float64(height-lineHeight)/2
		for _, run := range para.runs {
			if run.Text != target {
				continue
			}
			inkWidth, _ := inkSize(drawFace, run.Text)
			x := float64(insetLeft) + float64(width-inkWidth)/2
			r.drawString(run.Text, drawFace, x, y)
			log.Debug("drew %q at (%.1f,%.1f)", run.Text, x, y)
			y += float64(lineHeight)
		}
	}
	return nil
}

// lineHeight measures the first run equal to the target. It is zero when no
// run matches.
func (r *renderer) lineHeight(para *Paragraph, drawFace font.Face) (int, error) {
	for _, run := range para.runs {
		if run.Text != r.opts.Target {
			continue
		}
		face := drawFace
		if !r.opts.UnifiedLineMetrics {
			size := math.Max(1, math.Trunc(run.EffectiveSize()))
			var err error
			face, err = r.fontCache.GetFace(r.opts.Typeface, size, false)
			if err != nil {
				return 0, err
			}
		}
		_, h := inkSize(face, run.Text)
		return int(float64(h) * r.opts.LineSpacing), nil
	}
	return 0, nil
}

// drawString draws text with its ascender line at y.
func (r *renderer) drawString(text string, face font.Face, x, y float64) {
	ascent := float64(face.Metrics().Ascent) / 64
	r.dc.SetFontFace(face)
	r.dc.SetColor(AccentColor.RGBA())
	r.dc.DrawString(text, x, y+ascent)
}

// inkSize returns the width and height of the inked area of text.
func inkSize(face font.Face, text string) (int, int) {
	b, _ := font.BoundString(face, text)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil()
}
