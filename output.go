package welcomecard

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofrs/uuid"
)

// TimestampLayout formats the per-run timestamp embedded in file names.
const TimestampLayout = "20060102150405"

// SlideFileName returns the JPEG file name for slide index (0-based).
func SlideFileName(index int, timestamp time.Time, token string) string {
	return fmt.Sprintf("slide_%d_%s_%s.jpg", index, timestamp.Format(TimestampLayout), token)
}

// newRunToken returns 8 random hex digits that keep reruns within the same
// second from overwriting each other.
func newRunToken() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generating run token: %w", err)
	}
	return id.String()[:8], nil
}

// SaveJPEG encodes img as a JPEG at path with the given quality (1-100).
// The containing directory must exist.
func SaveJPEG(img image.Image, path string, quality int) error {
	if img == nil {
		return fmt.Errorf("no image to save")
	}
	if dir := filepath.Dir(path); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
