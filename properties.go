package welcomecard

// DocumentLayout represents the slide dimensions.
type DocumentLayout struct {
	CX   int64 // width in EMU (English Metric Units)
	CY   int64 // height in EMU
	Name string
}

// Standard layout names.
const (
	LayoutScreen4x3  = "screen4x3"
	LayoutScreen16x9 = "screen16x9"
	LayoutCustom     = "custom"
)

// NewDocumentLayout creates a default 4:3 layout.
func NewDocumentLayout() *DocumentLayout {
	return &DocumentLayout{
		CX:   9144000, // 10 inches
		CY:   6858000, // 7.5 inches
		Name: LayoutScreen4x3,
	}
}

// SetLayout sets a predefined layout.
func (dl *DocumentLayout) SetLayout(name string) {
	dl.Name = name
	switch name {
	case LayoutScreen4x3:
		dl.CX = 9144000
		dl.CY = 6858000
	case LayoutScreen16x9:
		dl.CX = 12192000
		dl.CY = 6858000
	}
}

// SetCustomLayout sets custom dimensions in EMU.
func (dl *DocumentLayout) SetCustomLayout(cx, cy int64) {
	dl.CX = cx
	dl.CY = cy
	dl.Name = LayoutCustom
}

// PixelSize returns the canvas size of a slide at dpi.
func (dl *DocumentLayout) PixelSize(dpi int) (int, int) {
	return EMUToPixel(dl.CX, dpi), EMUToPixel(dl.CY, dpi)
}
