package welcomecard

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	log "github.com/activeshadow/libminimega/minilog"
)

// fontKey uniquely identifies a font face by name, size and weight.
type fontKey struct {
	name string
	size float64
	bold bool
}

// fallbackFamilies are tried, in order, when the requested typeface is not
// installed. They are metric-compatible or close to Arial.
var fallbackFamilies = []string{"liberation sans", "arimo", "helvetica", "dejavu sans"}

// FontCache manages TrueType font loading and face caching.
// It searches font directories for .ttf, .otf and .ttc files and caches
// parsed fonts and faces. When nothing matches it falls back to the embedded
// Go fonts, so a face is always available.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string                  // directories to search for fonts
	fonts   map[string]*opentype.Font // lowercase font name -> parsed font
	faces   map[fontKey]font.Face     // cached faces
	scanned bool

	embeddedRegular *opentype.Font
	embeddedBold    *opentype.Font
}

// NewFontCache creates a FontCache that searches the OS font directories
// plus the given ones.
func NewFontCache(extraDirs ...string) *FontCache {
	return newFontCache(append(systemFontDirs(), extraDirs...))
}

// NewIsolatedFontCache creates a FontCache that searches only dirs. With no
// dirs every lookup resolves to the embedded Go fonts.
func NewIsolatedFontCache(dirs ...string) *FontCache {
	return newFontCache(dirs)
}

func newFontCache(dirs []string) *FontCache {
	fc := &FontCache{
		dirs:  dirs,
		fonts: make(map[string]*opentype.Font),
		faces: make(map[fontKey]font.Face),
	}
	// The embedded fonts are known-good; a parse failure is a build defect.
	var err error
	if fc.embeddedRegular, err = opentype.Parse(goregular.TTF); err != nil {
		panic(fmt.Sprintf("parse embedded regular font: %v", err))
	}
	if fc.embeddedBold, err = opentype.Parse(gobold.TTF); err != nil {
		panic(fmt.Sprintf("parse embedded bold font: %v", err))
	}
	return fc
}

// GetFace returns a face for the given typeface at sizePt, with one point
// equal to one pixel (the caller converts sizes beforehand). It never
// returns nil: missing typefaces resolve to a fallback family and finally to
// the embedded Go fonts.
func (fc *FontCache) GetFace(name string, sizePt float64, bold bool) (font.Face, error) {
	fc.ensureScanned()

	key := fontKey{name: strings.ToLower(name), size: sizePt, bold: bold}

	fc.mu.RLock()
	if face, ok := fc.faces[key]; ok {
		fc.mu.RUnlock()
		return face, nil
	}
	fc.mu.RUnlock()

	f := fc.resolve(name, bold)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s face at %.1fpt: %w", name, sizePt, err)
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face, nil
}

// resolve finds the best font for name, walking the fallback chain.
func (fc *FontCache) resolve(name string, bold bool) *opentype.Font {
	if f := fc.findFont(name, bold); f != nil {
		return f
	}
	for _, family := range fallbackFamilies {
		if f := fc.findFont(family, bold); f != nil {
			log.Debug("font %q not found, using %q", name, family)
			return f
		}
	}
	log.Debug("font %q not found, using embedded Go font", name)
	if bold {
		return fc.embeddedBold
	}
	return fc.embeddedRegular
}

// findFont looks up a parsed font by name, trying bold variants first when
// bold is requested.
func (fc *FontCache) findFont(name string, bold bool) *opentype.Font {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	lower := strings.ToLower(name)

	// Windows names bold files "arialbd", fontconfig-style names use " bold".
	if bold {
		for _, suffix := range []string{" bold", "bd", "-bold", "b"} {
			if f, ok := fc.fonts[lower+suffix]; ok {
				return f
			}
		}
		// A bold request never silently gets the regular weight of a family.
		return nil
	}
	for _, suffix := range []string{"", " regular", "-regular"} {
		if f, ok := fc.fonts[lower+suffix]; ok {
			return f
		}
	}
	return nil
}

// LoadFont loads a TrueType/OpenType font file and registers it under name.
// Returns an error if the file exceeds maxFontFileSize.
func (fc *FontCache) LoadFont(name string, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxFontFileSize {
		return fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return fc.LoadFontData(name, data)
}

// LoadFontData registers a TrueType/OpenType font from raw bytes.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fc.mu.Lock()
	fc.fonts[strings.ToLower(name)] = f
	fc.registerByName(f)
	// Previously built faces may now resolve differently.
	fc.faces = make(map[fontKey]font.Face)
	fc.mu.Unlock()
	return nil
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true

	for _, dir := range fc.dirs {
		fc.scanDirDepth(dir, 0)
	}
	log.Debug("font cache: %d font names from %d directories", len(fc.fonts), len(fc.dirs))
}

// maxFontScanDepth limits recursive directory traversal when scanning for fonts.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func (fc *FontCache) scanDirDepth(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDirDepth(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		isTTC := strings.HasSuffix(lower, ".ttc") || strings.HasSuffix(lower, ".otc")
		isSingle := strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf")
		if !isTTC && !isSingle {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		baseName := strings.TrimSuffix(lower, filepath.Ext(lower))
		if isTTC {
			fc.loadCollection(data, baseName)
		} else {
			fc.loadSingleFont(data, baseName)
		}
	}
}

// loadSingleFont registers a TTF/OTF font by file name and internal names.
func (fc *FontCache) loadSingleFont(data []byte, baseName string) {
	f, err := opentype.Parse(data)
	if err != nil {
		return
	}
	fc.fonts[baseName] = f
	fc.registerByName(f)
}

// loadCollection registers every font of a TTC/OTC collection.
func (fc *FontCache) loadCollection(data []byte, baseName string) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		if i == 0 {
			fc.fonts[baseName] = f
		}
		fc.registerByName(f)
	}
}

// registerByName registers f under its full name ("Arial Bold") and, for
// the regular style only, under its family name ("Arial").
func (fc *FontCache) registerByName(f *opentype.Font) {
	if full, err := f.Name(nil, sfnt.NameIDFull); err == nil && full != "" {
		fc.fonts[strings.ToLower(full)] = f
	}
	family, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil || family == "" {
		return
	}
	sub, _ := f.Name(nil, sfnt.NameIDSubfamily)
	switch strings.ToLower(sub) {
	case "regular", "normal", "book", "roman", "":
		fc.fonts[strings.ToLower(family)] = f
	case "bold":
		fc.fonts[strings.ToLower(family)+" bold"] = f
	}
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default: // linux, freebsd, etc.
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs,
				filepath.Join(home, ".local", "share", "fonts"),
				filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
