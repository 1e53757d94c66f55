package welcomecard

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/richardlehane/mscfb"
)

// Reader is the interface for presentation readers.
type Reader interface {
	Read(path string) (*Presentation, error)
	ReadFromReader(r io.ReaderAt, size int64) (*Presentation, error)
}

// ReaderType represents the input format.
type ReaderType string

const (
	ReaderPowerPoint2007 ReaderType = "PowerPoint2007"
)

// NewReader creates a reader for the given format.
func NewReader(format ReaderType) (Reader, error) {
	switch format {
	case ReaderPowerPoint2007:
		return &PPTXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported reader format: %s", format)
	}
}

// Open reads a PPTX file from disk and returns a Presentation.
// This is a convenience wrapper around NewReader + Read.
func Open(path string) (*Presentation, error) {
	reader, err := NewReader(ReaderPowerPoint2007)
	if err != nil {
		return nil, err
	}
	return reader.Read(path)
}

// ReadFrom reads a PPTX from an io.ReaderAt with the given size.
func ReadFrom(r io.ReaderAt, size int64) (*Presentation, error) {
	reader, err := NewReader(ReaderPowerPoint2007)
	if err != nil {
		return nil, err
	}
	return reader.ReadFromReader(r, size)
}

// PPTXReader reads PPTX files.
type PPTXReader struct{}

// Read reads a presentation from a file path.
func (r *PPTXReader) Read(path string) (*Presentation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to read file: %s is a directory", path)
	}

	return r.ReadFromReader(f, info.Size())
}

// ReadFromReader reads a presentation from an io.ReaderAt.
func (r *PPTXReader) ReadFromReader(reader io.ReaderAt, size int64) (*Presentation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid reader size: %d", size)
	}
	if size > int64(maxZipTotalSize) {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize)
	}

	if err := sniffFormat(reader, size); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries)
	}

	pkg := &pptxPackage{zr: zr, files: zipIndex(zr), parts: make(map[string][]placeholderFrame)}
	pres := &Presentation{
		slides: make([]*Slide, 0),
		layout: NewDocumentLayout(),
	}

	slideIDs, err := r.readPresentation(pkg, pres)
	if err != nil {
		return nil, err
	}

	presRels, err := pkg.readRelationships("ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}

	for _, relID := range slideIDs {
		rel, ok := presRels.byID(relID)
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", relID)
		}
		target := resolveRelativePath("ppt/presentation.xml", rel.Target)

		slide, err := r.readSlide(pkg, target)
		if err != nil {
			return nil, fmt.Errorf("failed to read slide %s: %w", target, err)
		}
		pres.slides = append(pres.slides, slide)
	}

	if err := pres.Validate(); err != nil {
		return nil, err
	}
	return pres, nil
}

var (
	zipMagic = []byte("PK\x03\x04")
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sniffFormat rejects anything that is not a zip container. OLE compound
// files are inspected further so that old .ppt files get a precise error.
func sniffFormat(reader io.ReaderAt, size int64) error {
	head := make([]byte, 8)
	n, err := reader.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return nil
	case bytes.HasPrefix(head, cfbMagic):
		return sniffCompoundFile(io.NewSectionReader(reader, 0, size))
	default:
		return fmt.Errorf("%w: not a zip-based Office document", ErrUnsupportedFormat)
	}
}

func sniffCompoundFile(ra io.ReaderAt) error {
	doc, err := mscfb.New(ra)
	if err != nil {
		return fmt.Errorf("%w: damaged compound file: %v", ErrUnsupportedFormat, err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "PowerPoint Document" {
			return ErrLegacyFormat
		}
	}
	// Encrypted OOXML packages are also compound files.
	return fmt.Errorf("%w: compound file without a PowerPoint stream (encrypted or not a presentation)", ErrUnsupportedFormat)
}

// maxZipEntrySize is the maximum allowed size for a single file extracted from a ZIP.
// This prevents zip bomb attacks. 50 MB is generous for any legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the size limit for the whole input file.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// pptxPackage bundles the open zip with lookups shared by all slide reads.
type pptxPackage struct {
	zr    *zip.Reader
	files map[string]*zip.File
	// parts caches placeholder geometry of layouts and masters by part name.
	parts map[string][]placeholderFrame
}

// zipIndex builds a map from file name to *zip.File for O(1) lookups.
func zipIndex(zr *zip.Reader) map[string]*zip.File {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m[f.Name] = f
	}
	return m
}

func (pkg *pptxPackage) readFile(name string) ([]byte, error) {
	f, ok := pkg.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found in zip: %s", name)
	}
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
	}
	return data, nil
}

// --- presentation.xml ---

type xmlPresentationForRead struct {
	XMLName  xml.Name `xml:"presentation"`
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	SlideSize *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

// readPresentation fills the slide size and returns slide relationship IDs
// in presentation order.
func (r *PPTXReader) readPresentation(pkg *pptxPackage, pres *Presentation) ([]string, error) {
	data, err := pkg.readFile("ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("not a presentation: %w", err)
	}

	var doc xmlPresentationForRead
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse presentation.xml: %w", err)
	}

	if doc.SlideSize != nil {
		pres.layout.SetCustomLayout(doc.SlideSize.CX, doc.SlideSize.CY)
	}

	ids := make([]string, 0, len(doc.SlideIDs))
	for _, s := range doc.SlideIDs {
		ids = append(ids, s.RID)
	}
	return ids, nil
}

// --- Relationship reading ---

type xmlRelForRead struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type xmlRelsForRead struct {
	XMLName       xml.Name        `xml:"Relationships"`
	Relationships []xmlRelForRead `xml:"Relationship"`
}

type relationships []xmlRelForRead

func (rels relationships) byID(id string) (xmlRelForRead, bool) {
	for _, rel := range rels {
		if rel.ID == id {
			return rel, true
		}
	}
	return xmlRelForRead{}, false
}

func (rels relationships) byType(relType string) (xmlRelForRead, bool) {
	for _, rel := range rels {
		if rel.Type == relType {
			return rel, true
		}
	}
	return xmlRelForRead{}, false
}

func (pkg *pptxPackage) readRelationships(name string) (relationships, error) {
	if _, ok := pkg.files[name]; !ok {
		return nil, nil // relationships file may not exist
	}
	data, err := pkg.readFile(name)
	if err != nil {
		return nil, err
	}

	var rels xmlRelsForRead
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", name, err)
	}
	return rels.Relationships, nil
}

// relsPathFor returns the relationships part of a part, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveRelativePath resolves a relationship target against the part that
// owns the relationship. Targets that climb out of the package resolve to
// "" so that lookups simply miss.
func resolveRelativePath(base, target string) string {
	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		resolved = path.Join(path.Dir(base), target)
	}
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return ""
	}
	return resolved
}
