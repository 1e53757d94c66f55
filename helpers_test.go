package welcomecard

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// roundTrip writes the presentation and reads it back.
func roundTrip(t *testing.T, p *Presentation) *Presentation {
	t.Helper()
	var buf bytes.Buffer
	if err := p.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	p2, err := ReadFrom(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	return p2
}

// solidPNG encodes a w x h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// newCardDeck builds a two-slide deck: the first slide has a picture and a
// text box holding placeholder, the second only a text box.
func newCardDeck(t *testing.T, placeholder string) *Presentation {
	t.Helper()
	p := New()

	s1 := p.CreateSlide()
	pic := s1.CreatePictureShape(solidPNG(t, 8, 8, color.NRGBA{R: 255, A: 255}), "image/png")
	pic.SetName("Logo")
	pic.SetPosition(0, 0)
	pic.SetSize(Inch(1), Inch(1))

	box := s1.CreateTextShape()
	box.SetName("Name")
	box.SetPosition(Inch(1), Inch(3))
	box.SetSize(Inch(8), Inch(1.5))
	para := box.TextFrame().CreateParagraph()
	para.AddRun(TextRun{Text: "Welcome "})
	para.AddRun(TextRun{Text: placeholder, Size: 24})

	s2 := p.CreateSlide()
	footer := s2.CreateTextShape()
	footer.SetPosition(Inch(1), Inch(6))
	footer.SetSize(Inch(8), Inch(1))
	footer.TextFrame().CreateParagraph().CreateTextRun("See you soon")

	return p
}

// saveDeck writes p into dir and returns the file path.
func saveDeck(t *testing.T, dir string, p *Presentation) string {
	t.Helper()
	path := filepath.Join(dir, "template.pptx")
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

// countColor returns the number of pixels exactly equal to c and the
// bounding box they span.
func countColor(img image.Image, c RGB) (int, image.Rectangle) {
	want := c.RGBA()
	n := 0
	var box image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) == want {
				pt := image.Rect(x, y, x+1, y+1)
				if n == 0 {
					box = pt
				} else {
					box = box.Union(pt)
				}
				n++
			}
		}
	}
	return n, box
}

// near reports whether the pixel at (x, y) is within tol of c on every channel.
func near(img image.Image, x, y int, c color.RGBA, tol int) bool {
	got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	diff := func(a, b uint8) int {
		d := int(a) - int(b)
		if d < 0 {
			d = -d
		}
		return d
	}
	return diff(got.R, c.R) <= tol && diff(got.G, c.G) <= tol && diff(got.B, c.B) <= tol && got.A == 255
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
