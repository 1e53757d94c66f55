// Package welcomecard fills a PowerPoint template (.pptx) with a piece of
// text and rasterizes every slide to a JPEG.
//
// The template is read into a small in-memory model (slides, shapes, text
// frames, runs). Runs whose text equals the search string are replaced,
// made bold and coloured with AccentColor; each slide is then drawn at 96
// DPI. Only pictures and the substituted text are drawn: this is a card
// generator, not a general slide renderer.
//
//	result, err := welcomecard.Process(welcomecard.Job{
//		Path:    "plantilla.pptx",
//		Find:    "Nombre",
//		Replace: "Ada Lovelace",
//	}, nil)
//	fmt.Println(welcomecard.Status(result, err))
package welcomecard

import "errors"

// Presentation represents an in-memory PowerPoint presentation.
type Presentation struct {
	slides []*Slide
	layout *DocumentLayout
}

// New creates an empty Presentation with the default 4:3 slide size.
func New() *Presentation {
	return &Presentation{
		slides: make([]*Slide, 0),
		layout: NewDocumentLayout(),
	}
}

// GetLayout returns the document layout.
func (p *Presentation) GetLayout() *DocumentLayout {
	return p.layout
}

// SetLayout sets the document layout.
func (p *Presentation) SetLayout(layout *DocumentLayout) {
	p.layout = layout
}

// CreateSlide creates a new slide and adds it to the presentation.
func (p *Presentation) CreateSlide() *Slide {
	slide := newSlide()
	p.slides = append(p.slides, slide)
	return slide
}

// GetSlide returns a slide by index.
func (p *Presentation) GetSlide(index int) (*Slide, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, errors.New("slide index out of range")
	}
	return p.slides[index], nil
}

// Slides returns all slides in presentation order.
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

// GetSlideCount returns the number of slides.
func (p *Presentation) GetSlideCount() int {
	return len(p.slides)
}

// Close releases resources held by the presentation.
// It clears internal references to allow garbage collection.
func (p *Presentation) Close() error {
	p.slides = nil
	p.layout = nil
	return nil
}

// ExtractText returns the text of every text frame, one paragraph per line.
func (p *Presentation) ExtractText() string {
	var parts []string
	for _, slide := range p.slides {
		if text := slide.ExtractText(); text != "" {
			parts = append(parts, text)
		}
	}
	return joinNonEmpty(parts, "\n")
}

// Slide is an ordered list of shapes.
type Slide struct {
	shapes []Shape
	// layoutPart is the zip path of the slide layout the slide was read with.
	layoutPart string
}

func newSlide() *Slide {
	return &Slide{shapes: make([]Shape, 0)}
}

// Shapes returns the slide's shapes in stored z-order.
func (s *Slide) Shapes() []Shape { return s.shapes }

// AddShape appends a shape on top of the existing ones.
func (s *Slide) AddShape(shape Shape) {
	s.shapes = append(s.shapes, shape)
}

// CreateTextShape adds an empty text shape.
func (s *Slide) CreateTextShape() *TextShape {
	ts := NewTextShape()
	s.shapes = append(s.shapes, ts)
	return ts
}

// CreatePictureShape adds a picture from encoded image bytes.
func (s *Slide) CreatePictureShape(data []byte, mimeType string) *PictureShape {
	ps := NewPictureShape(data, mimeType)
	s.shapes = append(s.shapes, ps)
	return ps
}

// ExtractText returns the text of the slide's text frames.
func (s *Slide) ExtractText() string {
	var parts []string
	for _, shape := range s.shapes {
		if ts, ok := shape.(*TextShape); ok {
			parts = append(parts, ts.frame.Text())
		}
	}
	return joinNonEmpty(parts, "\n")
}

// textShapes returns the slide's text shapes in order.
func (s *Slide) textShapes() []*TextShape {
	var out []*TextShape
	for _, shape := range s.shapes {
		if ts, ok := shape.(*TextShape); ok {
			out = append(out, ts)
		}
	}
	return out
}

func joinNonEmpty(parts []string, sep string) string {
	var out string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
