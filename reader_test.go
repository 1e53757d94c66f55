package welcomecard

import (
	"archive/zip"
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFrom_RoundTrip(t *testing.T) {
	p := newCardDeck(t, "Nombre")
	p.GetLayout().SetLayout(LayoutScreen16x9)

	p2 := roundTrip(t, p)

	if p2.GetLayout().CX != 12192000 || p2.GetLayout().CY != 6858000 {
		t.Errorf("slide size = %dx%d", p2.GetLayout().CX, p2.GetLayout().CY)
	}
	if p2.GetSlideCount() != 2 {
		t.Fatalf("slide count = %d, want 2", p2.GetSlideCount())
	}

	shapes := p2.slides[0].Shapes()
	if len(shapes) != 2 {
		t.Fatalf("slide 1 has %d shapes, want 2", len(shapes))
	}

	pic, ok := shapes[0].(*PictureShape)
	if !ok {
		t.Fatalf("shape 0 is %T, want *PictureShape", shapes[0])
	}
	if pic.Kind() != ShapeKindPicture || pic.GetName() != "Logo" {
		t.Errorf("picture kind/name = %v/%q", pic.Kind(), pic.GetName())
	}
	if !bytes.Equal(pic.Data(), p.slides[0].shapes[0].(*PictureShape).Data()) {
		t.Error("picture bytes changed")
	}
	if pic.MimeType() != "image/png" {
		t.Errorf("mime = %q", pic.MimeType())
	}

	box, ok := shapes[1].(*TextShape)
	if !ok {
		t.Fatalf("shape 1 is %T, want *TextShape", shapes[1])
	}
	if box.GetOffsetX() != Inch(1) || box.GetOffsetY() != Inch(3) {
		t.Errorf("offset = %d,%d", box.GetOffsetX(), box.GetOffsetY())
	}
	if box.GetWidth() != Inch(8) || box.GetHeight() != Inch(1.5) {
		t.Errorf("size = %dx%d", box.GetWidth(), box.GetHeight())
	}
	tf := box.TextFrame()
	if tf.MarginLeft != DefaultInsetLeftRight || tf.MarginTop != DefaultInsetTopBottom {
		t.Errorf("insets = %d,%d", tf.MarginLeft, tf.MarginTop)
	}
	if tf.Text() != "Welcome Nombre" {
		t.Errorf("text = %q", tf.Text())
	}
	if got := tf.Paragraphs()[0].Run(1).Size; got != 24 {
		t.Errorf("run size = %v, want 24", got)
	}
	if got := tf.Paragraphs()[0].Run(0).Size; got != 0 {
		t.Errorf("inherited run size = %v, want 0", got)
	}

	if p2.slides[1].ExtractText() != "See you soon" {
		t.Errorf("slide 2 text = %q", p2.slides[1].ExtractText())
	}
}

func TestReadFrom_SharedPictureWrittenOnce(t *testing.T) {
	p := New()
	pic := NewPictureShape(solidPNG(t, 2, 2, color.White), "image/png")
	pic.SetSize(Inch(1), Inch(1))
	p.CreateSlide().AddShape(pic)
	p.CreateSlide().AddShape(pic)

	var buf bytes.Buffer
	if err := p.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	media := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			media++
		}
	}
	if media != 1 {
		t.Errorf("%d media parts, want 1", media)
	}

	p2 := roundTrip(t, p)
	for i, s := range p2.Slides() {
		if len(s.Shapes()) != 1 || len(s.Shapes()[0].(*PictureShape).Data()) == 0 {
			t.Errorf("slide %d lost its picture", i)
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pptx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestOpen_Directory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error for directory")
	}
}

func TestReadFrom_NotAZip(t *testing.T) {
	data := []byte("this is not a presentation")
	_, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadFrom_DamagedCompoundFile(t *testing.T) {
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 504)...)
	_, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err == nil || errors.Is(err, ErrLegacyFormat) {
		t.Errorf("expected a non-legacy format error, got %v", err)
	}
}

func TestReadFrom_EmptyInput(t *testing.T) {
	if _, err := ReadFrom(bytes.NewReader(nil), 0); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestReadFrom_ZipWithoutPresentation(t *testing.T) {
	data := buildZip(t, map[string]string{"hello.txt": "hi"})
	_, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err == nil || !strings.Contains(err.Error(), "not a presentation") {
		t.Errorf("expected not-a-presentation error, got %v", err)
	}
}

func TestReadFrom_ZeroSlideSize(t *testing.T) {
	files := minimalPackage(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="T"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/></p:sp>`)
	files["ppt/presentation.xml"] = strings.Replace(files["ppt/presentation.xml"], `cx="9144000"`, `cx="0"`, 1)
	data := buildZip(t, files)
	if _, err := ReadFrom(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("expected validation error for zero slide width")
	}
}

func TestReadFrom_DanglingSlideRelationship(t *testing.T) {
	files := minimalPackage(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="T"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/></p:sp>`)
	files["ppt/presentation.xml"] = strings.Replace(files["ppt/presentation.xml"],
		`<p:sldId id="256" r:id="rId7"/>`,
		`<p:sldId id="256" r:id="rId7"/><p:sldId id="257" r:id="rId9"/>`, 1)
	data := buildZip(t, files)
	_, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err == nil || !strings.Contains(err.Error(), "rId9") {
		t.Errorf("expected missing relationship error, got %v", err)
	}
}

func TestReadFrom_PlaceholderInheritance(t *testing.T) {
	tree := `
<p:sp>
  <p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
  <p:spPr/>
  <p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="es-CO"/><a:t>Nombre</a:t></a:r></a:p></p:txBody>
</p:sp>
<p:sp>
  <p:nvSpPr><p:cNvPr id="3" name="Body 2"/><p:cNvSpPr/><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>
  <p:spPr/>
  <p:txBody><a:bodyPr/><a:p><a:r><a:t>Cargo</a:t></a:r></a:p></p:txBody>
</p:sp>
<p:grpSp>
  <p:nvGrpSpPr><p:cNvPr id="4" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
  <p:grpSpPr><a:xfrm><a:off x="10" y="20"/><a:ext cx="30" cy="40"/><a:chOff x="0" y="0"/><a:chExt cx="30" cy="40"/></a:xfrm></p:grpSpPr>
  <p:sp>
    <p:nvSpPr><p:cNvPr id="5" name="Inner"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
    <p:spPr/>
    <p:txBody><a:bodyPr/><a:p><a:r><a:t>Nombre</a:t></a:r></a:p></p:txBody>
  </p:sp>
</p:grpSp>
<p:cxnSp>
  <p:nvCxnSpPr><p:cNvPr id="6" name="Line"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>
  <p:spPr><a:xfrm><a:off x="1" y="2"/><a:ext cx="3" cy="4"/></a:xfrm></p:spPr>
</p:cxnSp>`
	files := minimalPackage(tree)
	data := buildZip(t, files)

	p, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	shapes := p.slides[0].Shapes()
	if len(shapes) != 4 {
		t.Fatalf("got %d top-level shapes, want 4", len(shapes))
	}

	title := shapes[0].(*TextShape)
	// From the layout title.
	if title.GetOffsetX() != 457200 || title.GetOffsetY() != 274638 ||
		title.GetWidth() != 8229600 || title.GetHeight() != 1143000 {
		t.Errorf("title geometry = %d,%d %dx%d", title.GetOffsetX(), title.GetOffsetY(), title.GetWidth(), title.GetHeight())
	}
	if title.TextFrame().MarginLeft != 0 || title.TextFrame().MarginTop != 0 {
		t.Errorf("title insets = %d,%d, want layout's 0,0", title.TextFrame().MarginLeft, title.TextFrame().MarginTop)
	}
	if run := title.TextFrame().Paragraphs()[0].Run(0); run.Size != 0 || run.EffectiveSize() != DefaultFontSize {
		t.Errorf("inherited size = %v/%v", run.Size, run.EffectiveSize())
	}

	body := shapes[1].(*TextShape)
	// The layout has no idx 1, so geometry comes from the master body.
	if body.GetOffsetX() != 457200 || body.GetOffsetY() != 1600200 {
		t.Errorf("body offset = %d,%d", body.GetOffsetX(), body.GetOffsetY())
	}
	if body.TextFrame().MarginLeft != DefaultInsetLeftRight {
		t.Errorf("body left inset = %d", body.TextFrame().MarginLeft)
	}

	group, ok := shapes[2].(*OtherShape)
	if !ok || group.Kind() != ShapeKindOther || group.Element != "grpSp" {
		t.Fatalf("shape 2 = %#v", shapes[2])
	}
	if group.GetOffsetX() != 10 || group.GetWidth() != 30 {
		t.Errorf("group geometry = %d %d", group.GetOffsetX(), group.GetWidth())
	}
	if other := shapes[3].(*OtherShape); other.Element != "cxnSp" || other.GetHeight() != 4 {
		t.Errorf("connector = %#v", other)
	}

	// Text inside the group is not reachable.
	if n := ReplaceText(p, "Nombre", "Ada"); n != 1 {
		t.Errorf("replaced %d runs, want 1 (group children are not visited)", n)
	}
}

func TestReadFrom_MissingPictureData(t *testing.T) {
	tree := `
<p:pic>
  <p:nvPicPr><p:cNvPr id="2" name="Linked"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>
  <p:blipFill><a:blip r:embed="rId9"/></p:blipFill>
  <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="914400" cy="914400"/></a:xfrm></p:spPr>
</p:pic>`
	data := buildZip(t, minimalPackage(tree))
	p, err := ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	pic := p.slides[0].Shapes()[0].(*PictureShape)
	if len(pic.Data()) != 0 {
		t.Error("expected no data for a missing relationship")
	}
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"ppt/presentation.xml", "slides/slide1.xml", "ppt/slides/slide1.xml"},
		{"ppt/slides/slide1.xml", "../media/image1.png", "ppt/media/image1.png"},
		{"ppt/slides/slide1.xml", "/ppt/media/image1.png", "ppt/media/image1.png"},
		{"ppt/slides/slide1.xml", "../../../etc/passwd", ""},
	}
	for _, tt := range tests {
		if got := resolveRelativePath(tt.base, tt.target); got != tt.want {
			t.Errorf("resolveRelativePath(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}

// buildZip writes files into an in-memory zip archive.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const testNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

const testRelsNS = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`

// minimalPackage returns the parts of a one-slide package whose shape tree
// holds tree, with a layout defining a title and a master defining a title
// and a body placeholder.
func minimalPackage(tree string) map[string]string {
	return map[string]string{
		"ppt/presentation.xml": `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation ` + testNamespaces + `>
  <p:sldIdLst><p:sldId id="256" r:id="rId7"/></p:sldIdLst>
  <p:sldSz cx="9144000" cy="6858000"/>
</p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships ` + testRelsNS + `>
  <Relationship Id="rId7" Type="` + relTypeSlide + `" Target="slides/slide1.xml"/>
</Relationships>`,
		"ppt/slides/slide1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<p:sld ` + testNamespaces + `>
  <p:cSld><p:spTree>
    <p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
    <p:grpSpPr/>` + tree + `
  </p:spTree></p:cSld>
</p:sld>`,
		"ppt/slides/_rels/slide1.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships ` + testRelsNS + `>
  <Relationship Id="rId1" Type="` + relTypeSlideLayout + `" Target="../slideLayouts/slideLayout2.xml"/>
</Relationships>`,
		"ppt/slideLayouts/slideLayout2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<p:sldLayout ` + testNamespaces + `>
  <p:cSld><p:spTree>
    <p:sp>
      <p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
      <p:spPr><a:xfrm><a:off x="457200" y="274638"/><a:ext cx="8229600" cy="1143000"/></a:xfrm></p:spPr>
      <p:txBody><a:bodyPr lIns="0" tIns="0" rIns="0" bIns="0"/><a:p/></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sldLayout>`,
		"ppt/slideLayouts/_rels/slideLayout2.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships ` + testRelsNS + `>
  <Relationship Id="rId1" Type="` + relTypeSlideMaster + `" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>`,
		"ppt/slideMasters/slideMaster1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<p:sldMaster ` + testNamespaces + `>
  <p:cSld><p:spTree>
    <p:sp>
      <p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
      <p:spPr><a:xfrm><a:off x="1" y="1"/><a:ext cx="1" cy="1"/></a:xfrm></p:spPr>
    </p:sp>
    <p:sp>
      <p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>
      <p:spPr><a:xfrm><a:off x="457200" y="1600200"/><a:ext cx="8229600" cy="4525963"/></a:xfrm></p:spPr>
    </p:sp>
  </p:spTree></p:cSld>
</p:sldMaster>`,
	}
}
