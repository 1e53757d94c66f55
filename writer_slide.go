package welcomecard

import (
	"archive/zip"
	"fmt"
	"strings"
)

// mediaIndex assigns every written picture its part in ppt/media.
type mediaIndex struct {
	parts map[*PictureShape]string
	order []*PictureShape
}

func (w *PPTXWriter) collectMedia() *mediaIndex {
	idx := &mediaIndex{parts: make(map[*PictureShape]string)}
	for _, slide := range w.presentation.slides {
		for _, shape := range slide.shapes {
			pic, ok := shape.(*PictureShape)
			if !ok || len(pic.data) == 0 {
				continue
			}
			if _, dup := idx.parts[pic]; dup {
				continue
			}
			idx.order = append(idx.order, pic)
			idx.parts[pic] = fmt.Sprintf("image%d.%s", len(idx.order), mediaExtension(pic.mimeType))
		}
	}
	return idx
}

func mediaExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

func mediaContentType(ext string) string {
	if ext == "jpeg" {
		return "image/jpeg"
	}
	return "image/" + ext
}

// slidePictures returns the pictures of a slide that have media, in the
// order their relationships are written (rId2, rId3, ...).
func slidePictures(slide *Slide, media *mediaIndex) []*PictureShape {
	var out []*PictureShape
	for _, shape := range slide.shapes {
		if pic, ok := shape.(*PictureShape); ok {
			if _, has := media.parts[pic]; has {
				out = append(out, pic)
			}
		}
	}
	return out
}

func (w *PPTXWriter) writeSlide(zw *zip.Writer, slide *Slide, slideNum int, media *mediaIndex) error {
	var shapesXML strings.Builder
	shapeID := 2 // 1 is reserved for the group shape
	picRel := 2  // rId1 is the layout

	for _, shape := range slide.shapes {
		switch s := shape.(type) {
		case *TextShape:
			shapesXML.WriteString(w.writeTextShapeXML(s, &shapeID))
		case *PictureShape:
			if _, ok := media.parts[s]; !ok {
				continue
			}
			shapesXML.WriteString(w.writePictureShapeXML(s, &shapeID, picRel))
			picRel++
		}
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
%s    </p:spTree>
  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:sld>`, nsDrawingML, nsOfficeDocRels, nsPresentationML, shapesXML.String())

	return writeRawXMLToZip(zw, fmt.Sprintf("ppt/slides/slide%d.xml", slideNum), content)
}

func (w *PPTXWriter) writeSlideRels(zw *zip.Writer, slide *Slide, slideNum int, media *mediaIndex) error {
	rels := xmlRelationships{
		Xmlns: nsRelationships,
		Relationships: []xmlRelationship{
			{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
		},
	}
	for i, pic := range slidePictures(slide, media) {
		rels.Relationships = append(rels.Relationships, xmlRelationship{
			ID:     fmt.Sprintf("rId%d", i+2),
			Type:   relTypeImage,
			Target: "../media/" + media.parts[pic],
		})
	}
	return writeXMLToZip(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum), rels)
}

func (w *PPTXWriter) writeTextShapeXML(s *TextShape, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.name
	if name == "" {
		name = fmt.Sprintf("TextBox %d", id)
	}

	tf := s.frame
	var paragraphsXML strings.Builder
	for _, para := range tf.paragraphs {
		paragraphsXML.WriteString(w.writeParagraphXML(para))
	}
	if len(tf.paragraphs) == 0 {
		// txBody requires at least one paragraph.
		paragraphsXML.WriteString("          <a:p/>\n")
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvSpPr txBox="1"/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
        </p:spPr>
        <p:txBody>
          <a:bodyPr wrap="square" lIns="%d" tIns="%d" rIns="%d" bIns="%d"/>
          <a:lstStyle/>
%s        </p:txBody>
      </p:sp>
`, id, xmlEscape(name),
		s.offsetX, s.offsetY, s.width, s.height,
		tf.MarginLeft, tf.MarginTop, tf.MarginRight, tf.MarginBottom,
		paragraphsXML.String())
}

func (w *PPTXWriter) writeParagraphXML(para *Paragraph) string {
	var sb strings.Builder
	sb.WriteString("          <a:p>\n")
	for _, run := range para.runs {
		sb.WriteString(w.writeTextRunXML(run))
	}
	sb.WriteString("          </a:p>\n")
	return sb.String()
}

func (w *PPTXWriter) writeTextRunXML(tr TextRun) string {
	attrs := ` lang="en-US" dirty="0"`
	if tr.Size > 0 {
		attrs += fmt.Sprintf(` sz="%d"`, int(tr.Size*100))
	}
	if tr.Bold {
		attrs += ` b="1"`
	}

	solidFill := ""
	if tr.Color != nil {
		solidFill = fmt.Sprintf(`
              <a:solidFill><a:srgbClr val="%s"/></a:solidFill>
            `, tr.Color.Hex())
	}

	return fmt.Sprintf(`            <a:r>
              <a:rPr%s>%s</a:rPr>
              <a:t>%s</a:t>
            </a:r>
`, attrs, solidFill, xmlEscape(tr.Text))
}

func (w *PPTXWriter) writePictureShapeXML(s *PictureShape, shapeID *int, relIdx int) string {
	id := *shapeID
	*shapeID++

	name := s.name
	if name == "" {
		name = fmt.Sprintf("Picture %d", id)
	}

	return fmt.Sprintf(`      <p:pic>
        <p:nvPicPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvPicPr>
            <a:picLocks noChangeAspect="1"/>
          </p:cNvPicPr>
          <p:nvPr/>
        </p:nvPicPr>
        <p:blipFill>
          <a:blip r:embed="rId%d"/>
          <a:stretch>
            <a:fillRect/>
          </a:stretch>
        </p:blipFill>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
        </p:spPr>
      </p:pic>
`, id, xmlEscape(name), relIdx,
		s.offsetX, s.offsetY, s.width, s.height)
}

func (w *PPTXWriter) writeMedia(zw *zip.Writer, media *mediaIndex) error {
	for _, pic := range media.order {
		fw, err := zw.Create("ppt/media/" + media.parts[pic])
		if err != nil {
			return fmt.Errorf("failed to create media %s: %w", media.parts[pic], err)
		}
		if _, err := fw.Write(pic.data); err != nil {
			return fmt.Errorf("failed to write media %s: %w", media.parts[pic], err)
		}
	}
	return nil
}
