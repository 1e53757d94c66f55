package welcomecard

import (
	"fmt"
	"image/color"
	"strings"
)

// RGB is an opaque 24-bit colour.
type RGB struct {
	R, G, B uint8
}

// AccentColor is applied to every substituted run and to the text drawn on
// the rendered slide.
var AccentColor = RGB{R: 187, G: 207, B: 0}

// Predefined colors.
var (
	ColorBlack = RGB{}
	ColorWhite = RGB{R: 255, G: 255, B: 255}
)

// ParseRGB parses a 6-character hex string such as "BBCF00".
// A leading "#" is stripped automatically.
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q: want 6 hex digits", s)
	}
	var c RGB
	for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
		h := hexVal(s[2*i])
		l := hexVal(s[2*i+1])
		if h < 0 || l < 0 {
			return RGB{}, fmt.Errorf("invalid colour %q: bad hex digit", s)
		}
		*dst = uint8(h<<4 | l)
	}
	return c, nil
}

// Hex returns the upper-case hex form used by srgbClr, e.g. "BBCF00".
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA converts to a fully opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}

// DefaultFontSize is used for runs that carry no size of their own, in points.
const DefaultFontSize = 18

// TextRun is the smallest styled unit of text within a paragraph.
//
// It is a plain value: changing a run means building a new TextRun and
// storing it with Paragraph.SetRun.
type TextRun struct {
	Text string
	Bold bool
	// Color is nil when the run inherits its colour.
	Color *RGB
	// Size is in points; zero means inherited.
	Size float64
}

// EffectiveSize returns Size, or DefaultFontSize for inherited sizes.
func (r TextRun) EffectiveSize() float64 {
	if r.Size > 0 {
		return r.Size
	}
	return DefaultFontSize
}

// Paragraph is an ordered list of runs.
type Paragraph struct {
	runs []TextRun
}

// NewParagraph creates an empty paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{}
}

// Runs returns a copy of the paragraph's runs.
func (p *Paragraph) Runs() []TextRun {
	out := make([]TextRun, len(p.runs))
	copy(out, p.runs)
	return out
}

// Run returns the run at index i.
func (p *Paragraph) Run(i int) TextRun { return p.runs[i] }

// RunCount returns the number of runs.
func (p *Paragraph) RunCount() int { return len(p.runs) }

// SetRun replaces the run at index i.
func (p *Paragraph) SetRun(i int, r TextRun) error {
	if i < 0 || i >= len(p.runs) {
		return fmt.Errorf("run index %d out of range (0-%d)", i, len(p.runs)-1)
	}
	p.runs[i] = r
	return nil
}

// AddRun appends a run and returns its index.
func (p *Paragraph) AddRun(r TextRun) int {
	p.runs = append(p.runs, r)
	return len(p.runs) - 1
}

// CreateTextRun appends a run with default formatting.
func (p *Paragraph) CreateTextRun(text string) int {
	return p.AddRun(TextRun{Text: text})
}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Default text insets, in EMU.
const (
	DefaultInsetLeftRight = 91440
	DefaultInsetTopBottom = 45720
)

// TextFrame holds the paragraphs of a text shape and its insets (EMU).
type TextFrame struct {
	MarginLeft   int64
	MarginTop    int64
	MarginRight  int64
	MarginBottom int64
	paragraphs   []*Paragraph
	// insetsSet is true once insets came from XML rather than defaults.
	insetsSet bool
}

// NewTextFrame creates a text frame with the default insets and no paragraphs.
func NewTextFrame() *TextFrame {
	return &TextFrame{
		MarginLeft:   DefaultInsetLeftRight,
		MarginRight:  DefaultInsetLeftRight,
		MarginTop:    DefaultInsetTopBottom,
		MarginBottom: DefaultInsetTopBottom,
	}
}

// Paragraphs returns the paragraphs of the frame.
func (tf *TextFrame) Paragraphs() []*Paragraph { return tf.paragraphs }

// CreateParagraph appends a new empty paragraph.
func (tf *TextFrame) CreateParagraph() *Paragraph {
	p := NewParagraph()
	tf.paragraphs = append(tf.paragraphs, p)
	return p
}

// Text returns the paragraphs' text joined by newlines.
func (tf *TextFrame) Text() string {
	parts := make([]string, 0, len(tf.paragraphs))
	for _, p := range tf.paragraphs {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}
