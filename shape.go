package welcomecard

// Shape is the interface that all shapes implement.
type Shape interface {
	Kind() ShapeKind
	GetOffsetX() int64
	GetOffsetY() int64
	GetWidth() int64
	GetHeight() int64
	GetName() string
	// base returns the underlying BaseShape (unexported, internal use only).
	base() *BaseShape
}

// ShapeKind classifies a shape for substitution and rendering.
type ShapeKind int

const (
	// ShapeKindOther covers connectors, groups, tables, charts and anything
	// else that is neither drawn nor searched.
	ShapeKindOther ShapeKind = iota
	ShapeKindPicture
	ShapeKindTextFrame
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindPicture:
		return "picture"
	case ShapeKindTextFrame:
		return "text-frame"
	default:
		return "other"
	}
}

// BaseShape contains common shape properties.
type BaseShape struct {
	name    string
	offsetX int64 // in EMU
	offsetY int64 // in EMU
	width   int64 // in EMU
	height  int64 // in EMU

	// placeholder identity, used to inherit geometry from the layout
	phType  string
	phIdx   int
	hasXfrm bool
}

func (b *BaseShape) GetOffsetX() int64 { return b.offsetX }
func (b *BaseShape) GetOffsetY() int64 { return b.offsetY }
func (b *BaseShape) GetWidth() int64   { return b.width }
func (b *BaseShape) GetHeight() int64  { return b.height }
func (b *BaseShape) GetName() string   { return b.name }
func (b *BaseShape) base() *BaseShape  { return b }

func (b *BaseShape) SetName(n string) *BaseShape { b.name = n; return b }

// SetPosition sets both offset X and Y in EMU.
func (b *BaseShape) SetPosition(x, y int64) *BaseShape {
	b.offsetX = x
	b.offsetY = y
	b.hasXfrm = true
	return b
}

// SetSize sets both width and height in EMU.
func (b *BaseShape) SetSize(w, h int64) *BaseShape {
	b.width = w
	b.height = h
	b.hasXfrm = true
	return b
}

// IsPlaceholder reports whether the shape is a layout placeholder.
func (b *BaseShape) IsPlaceholder() bool {
	return b.phType != "" || b.phIdx > 0
}

// PictureShape is an embedded raster picture.
type PictureShape struct {
	BaseShape
	data     []byte
	mimeType string
}

// NewPictureShape creates a picture from encoded image bytes.
func NewPictureShape(data []byte, mimeType string) *PictureShape {
	return &PictureShape{data: data, mimeType: mimeType}
}

func (s *PictureShape) Kind() ShapeKind { return ShapeKindPicture }

// Data returns the encoded image bytes.
func (s *PictureShape) Data() []byte { return s.data }

// MimeType returns the MIME type of the encoded image.
func (s *PictureShape) MimeType() string { return s.mimeType }

// TextShape is a shape carrying a text frame.
type TextShape struct {
	BaseShape
	frame *TextFrame
}

// NewTextShape creates a text shape with an empty default text frame.
func NewTextShape() *TextShape {
	return &TextShape{frame: NewTextFrame()}
}

func (s *TextShape) Kind() ShapeKind { return ShapeKindTextFrame }

// TextFrame returns the shape's text frame.
func (s *TextShape) TextFrame() *TextFrame { return s.frame }

// OtherShape stands in for anything the renderer skips. Element is the
// local XML name it was read from (cxnSp, grpSp, graphicFrame, ...).
type OtherShape struct {
	BaseShape
	Element string
}

func (s *OtherShape) Kind() ShapeKind { return ShapeKindOther }
