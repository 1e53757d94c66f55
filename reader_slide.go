package welcomecard

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	log "github.com/activeshadow/libminimega/minilog"
)

// --- shape XML, decoded one top-level shape at a time ---

type xmlOffset struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type xmlExtent struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type xmlXfrm struct {
	Off *xmlOffset `xml:"off"`
	Ext *xmlExtent `xml:"ext"`
}

type xmlPlaceholder struct {
	Type string `xml:"type,attr"`
	Idx  int    `xml:"idx,attr"`
}

type xmlNonVisual struct {
	CNvPr struct {
		Name string `xml:"name,attr"`
	} `xml:"cNvPr"`
	NvPr struct {
		Ph *xmlPlaceholder `xml:"ph"`
	} `xml:"nvPr"`
}

type xmlShapeProps struct {
	Xfrm *xmlXfrm `xml:"xfrm"`
}

type xmlBodyPr struct {
	LIns *int64 `xml:"lIns,attr"`
	TIns *int64 `xml:"tIns,attr"`
	RIns *int64 `xml:"rIns,attr"`
	BIns *int64 `xml:"bIns,attr"`
}

type xmlRunProps struct {
	Sz        int    `xml:"sz,attr"`
	B         string `xml:"b,attr"`
	SolidFill *struct {
		SrgbClr *struct {
			Val string `xml:"val,attr"`
		} `xml:"srgbClr"`
	} `xml:"solidFill"`
}

type xmlRun struct {
	RPr *xmlRunProps `xml:"rPr"`
	T   string       `xml:"t"`
}

type xmlParagraph struct {
	Runs []xmlRun `xml:"r"`
}

type xmlTxBody struct {
	BodyPr     xmlBodyPr      `xml:"bodyPr"`
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlSp struct {
	NvSpPr xmlNonVisual  `xml:"nvSpPr"`
	SpPr   xmlShapeProps `xml:"spPr"`
	TxBody *xmlTxBody    `xml:"txBody"`
}

type xmlPic struct {
	NvPicPr  xmlNonVisual `xml:"nvPicPr"`
	BlipFill struct {
		Blip struct {
			Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr xmlShapeProps `xml:"spPr"`
}

type xmlOtherShape struct {
	XMLName xml.Name
	SpPr    xmlShapeProps `xml:"spPr"`
	GrpSpPr xmlShapeProps `xml:"grpSpPr"`
	Xfrm    *xmlXfrm      `xml:"xfrm"`
}

func parseBool(s string) bool {
	return s == "1" || s == "true" || s == "on"
}

func (b *BaseShape) applyXfrm(x *xmlXfrm) {
	if x == nil {
		return
	}
	if x.Off != nil {
		b.offsetX, b.offsetY = x.Off.X, x.Off.Y
		b.hasXfrm = true
	}
	if x.Ext != nil {
		b.width, b.height = x.Ext.CX, x.Ext.CY
		b.hasXfrm = true
	}
}

func (b *BaseShape) applyNonVisual(nv xmlNonVisual) {
	b.name = nv.CNvPr.Name
	if ph := nv.NvPr.Ph; ph != nil {
		b.phType = ph.Type
		if b.phType == "" {
			b.phType = "obj"
		}
		b.phIdx = ph.Idx
	}
}

func (bp xmlBodyPr) applyTo(tf *TextFrame) {
	if bp.LIns != nil {
		tf.MarginLeft = *bp.LIns
	}
	if bp.TIns != nil {
		tf.MarginTop = *bp.TIns
	}
	if bp.RIns != nil {
		tf.MarginRight = *bp.RIns
	}
	if bp.BIns != nil {
		tf.MarginBottom = *bp.BIns
	}
}

func (x xmlRun) toTextRun() TextRun {
	run := TextRun{Text: x.T}
	if x.RPr == nil {
		return run
	}
	run.Bold = parseBool(x.RPr.B)
	if x.RPr.Sz > 0 {
		run.Size = float64(x.RPr.Sz) / 100
	}
	if fill := x.RPr.SolidFill; fill != nil && fill.SrgbClr != nil {
		if c, err := ParseRGB(fill.SrgbClr.Val); err == nil {
			run.Color = &c
		}
	}
	return run
}

func (x *xmlSp) toShape() *TextShape {
	ts := NewTextShape()
	ts.applyNonVisual(x.NvSpPr)
	ts.applyXfrm(x.SpPr.Xfrm)
	if x.TxBody == nil {
		return ts
	}
	x.TxBody.BodyPr.applyTo(ts.frame)
	ts.frame.insetsSet = x.TxBody.BodyPr.hasInsets()
	for _, xp := range x.TxBody.Paragraphs {
		para := ts.frame.CreateParagraph()
		for _, xr := range xp.Runs {
			para.AddRun(xr.toTextRun())
		}
	}
	return ts
}

func (bp xmlBodyPr) hasInsets() bool {
	return bp.LIns != nil || bp.TIns != nil || bp.RIns != nil || bp.BIns != nil
}

// --- slide reading ---

// imageLoader returns the bytes and MIME type of an image relationship.
type imageLoader func(relID string) ([]byte, string)

func (r *PPTXReader) readSlide(pkg *pptxPackage, part string) (*Slide, error) {
	data, err := pkg.readFile(part)
	if err != nil {
		return nil, err
	}

	rels, err := pkg.readRelationships(relsPathFor(part))
	if err != nil {
		return nil, err
	}

	loadImage := func(relID string) ([]byte, string) {
		rel, ok := rels.byID(relID)
		if !ok || rel.TargetMode == "External" {
			return nil, ""
		}
		target := resolveRelativePath(part, rel.Target)
		img, err := pkg.readFile(target)
		if err != nil {
			log.Debug("%s: image %s: %v", part, target, err)
			return nil, ""
		}
		return img, guessMimeType(target)
	}

	slide := newSlide()
	slide.shapes, err = parseShapeTree(data, loadImage)
	if err != nil {
		return nil, err
	}

	if rel, ok := rels.byType(relTypeSlideLayout); ok {
		slide.layoutPart = resolveRelativePath(part, rel.Target)
	}
	r.applyLayoutInheritance(pkg, slide)

	return slide, nil
}

// parseShapeTree returns the direct children of <p:spTree> in document
// order. Group shapes become a single OtherShape; their children are not
// visited.
func parseShapeTree(data []byte, loadImage imageLoader) ([]Shape, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var shapes []Shape
	depth := 0
	treeDepth := -1

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse shape tree: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if treeDepth < 0 {
				if t.Name.Local == "spTree" {
					treeDepth = depth
				}
				continue
			}
			if depth != treeDepth+1 {
				continue
			}

			shape, err := decodeShape(decoder, t, loadImage)
			if err != nil {
				return nil, err
			}
			// DecodeElement consumed the end element.
			depth--
			if shape != nil {
				shapes = append(shapes, shape)
			}
		case xml.EndElement:
			if depth == treeDepth {
				treeDepth = -1
			}
			depth--
		}
	}

	return shapes, nil
}

func decodeShape(decoder *xml.Decoder, start xml.StartElement, loadImage imageLoader) (Shape, error) {
	switch start.Name.Local {
	case "sp":
		var x xmlSp
		if err := decoder.DecodeElement(&x, &start); err != nil {
			return nil, fmt.Errorf("failed to parse shape: %w", err)
		}
		return x.toShape(), nil

	case "pic":
		var x xmlPic
		if err := decoder.DecodeElement(&x, &start); err != nil {
			return nil, fmt.Errorf("failed to parse picture: %w", err)
		}
		var data []byte
		var mime string
		if loadImage != nil && x.BlipFill.Blip.Embed != "" {
			data, mime = loadImage(x.BlipFill.Blip.Embed)
		}
		pic := NewPictureShape(data, mime)
		pic.applyNonVisual(x.NvPicPr)
		pic.applyXfrm(x.SpPr.Xfrm)
		return pic, nil

	case "nvGrpSpPr", "grpSpPr", "extLst":
		// Properties of the tree itself, not shapes.
		return nil, decoder.Skip()

	default:
		var x xmlOtherShape
		if err := decoder.DecodeElement(&x, &start); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", start.Name.Local, err)
		}
		other := &OtherShape{Element: start.Name.Local}
		switch {
		case x.SpPr.Xfrm != nil:
			other.applyXfrm(x.SpPr.Xfrm)
		case x.GrpSpPr.Xfrm != nil:
			other.applyXfrm(x.GrpSpPr.Xfrm)
		default:
			other.applyXfrm(x.Xfrm)
		}
		return other, nil
	}
}

func guessMimeType(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(lower, ".tiff"), strings.HasSuffix(lower, ".tif"):
		return "image/tiff"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".wmf"):
		return "image/x-wmf"
	case strings.HasSuffix(lower, ".emf"):
		return "image/x-emf"
	case strings.HasSuffix(lower, ".svg"):
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// --- layout inheritance ---

// placeholderFrame is the geometry a layout or master gives a placeholder.
type placeholderFrame struct {
	phType  string
	phIdx   int
	xfrm    *xmlXfrm
	bodyPr  xmlBodyPr
	hasBody bool
}

// basePlaceholderType maps a layout placeholder type to the master
// placeholder it inherits from.
func basePlaceholderType(phType string) string {
	switch phType {
	case "ctrTitle":
		return "title"
	case "subTitle", "obj", "chart", "tbl", "pic", "clipArt", "dgm", "media":
		return "body"
	default:
		return phType
	}
}

// placeholderFrames parses (and caches) the placeholders of a layout or
// master part.
func (pkg *pptxPackage) placeholderFrames(part string) []placeholderFrame {
	if frames, ok := pkg.parts[part]; ok {
		return frames
	}
	pkg.parts[part] = nil

	data, err := pkg.readFile(part)
	if err != nil {
		log.Debug("placeholder source %s: %v", part, err)
		return nil
	}

	var doc struct {
		Shapes []xmlSp `xml:"cSld>spTree>sp"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		log.Debug("placeholder source %s: %v", part, err)
		return nil
	}

	var frames []placeholderFrame
	for _, sp := range doc.Shapes {
		ph := sp.NvSpPr.NvPr.Ph
		if ph == nil {
			continue
		}
		f := placeholderFrame{phType: ph.Type, phIdx: ph.Idx, xfrm: sp.SpPr.Xfrm}
		if f.phType == "" {
			f.phType = "obj"
		}
		if sp.TxBody != nil && sp.TxBody.BodyPr.hasInsets() {
			f.bodyPr = sp.TxBody.BodyPr
			f.hasBody = true
		}
		frames = append(frames, f)
	}
	pkg.parts[part] = frames
	return frames
}

func findByIdx(frames []placeholderFrame, idx int) (placeholderFrame, bool) {
	for _, f := range frames {
		if f.phIdx == idx {
			return f, true
		}
	}
	return placeholderFrame{}, false
}

func findByType(frames []placeholderFrame, phType string) (placeholderFrame, bool) {
	for _, f := range frames {
		if f.phType == phType {
			return f, true
		}
	}
	return placeholderFrame{}, false
}

// applyLayoutInheritance fills geometry and insets of placeholders that do
// not define them, first from the slide layout (matched by idx, then type)
// and then from the slide master (matched by base type).
func (r *PPTXReader) applyLayoutInheritance(pkg *pptxPackage, slide *Slide) {
	if slide.layoutPart == "" {
		return
	}
	layoutFrames := pkg.placeholderFrames(slide.layoutPart)

	var masterFrames []placeholderFrame
	layoutRels, err := pkg.readRelationships(relsPathFor(slide.layoutPart))
	if err == nil {
		if rel, ok := layoutRels.byType(relTypeSlideMaster); ok {
			masterFrames = pkg.placeholderFrames(resolveRelativePath(slide.layoutPart, rel.Target))
		}
	}

	for _, shape := range slide.shapes {
		b := shape.base()
		if !b.IsPlaceholder() {
			continue
		}

		var chain []placeholderFrame
		lf, ok := findByIdx(layoutFrames, b.phIdx)
		if !ok {
			lf, ok = findByType(layoutFrames, b.phType)
		}
		if ok {
			chain = append(chain, lf)
		}
		baseType := basePlaceholderType(b.phType)
		if ok {
			baseType = basePlaceholderType(lf.phType)
		}
		if mf, found := findByType(masterFrames, baseType); found {
			chain = append(chain, mf)
		}

		for _, f := range chain {
			if !b.hasXfrm && f.xfrm != nil {
				b.applyXfrm(f.xfrm)
			}
			if ts, isText := shape.(*TextShape); isText && !ts.frame.insetsSet && f.hasBody {
				f.bodyPr.applyTo(ts.frame)
				ts.frame.insetsSet = true
			}
		}
	}
}
