package welcomecard

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// MissingInputMessage is the status returned when any input is empty.
const MissingInputMessage = "Please specify the file path, the text to replace and the new text"

// Sanitize removes every ".." and every backslash from s.
//
// This is cosmetic filtering, not a sandbox: absolute paths, symlinks and
// forward-slash traversal are left untouched.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "..", "")
	return strings.ReplaceAll(s, `\`, "")
}

// ValidateInputs returns ErrMissingInput if path, find or replace is empty,
// either as given or once sanitized.
func ValidateInputs(path, find, replace string) error {
	for _, v := range []string{path, find, replace} {
		if v == "" || Sanitize(v) == "" {
			return ErrMissingInput
		}
	}
	return nil
}

// ResolvePath expands a leading "~" and makes p absolute.
func ResolvePath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", newStageError(StageResolve, fmt.Errorf("expanding %q: %w", p, err))
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", newStageError(StageResolve, fmt.Errorf("resolving %q: %w", expanded, err))
	}
	return abs, nil
}

// Validate checks the presentation for structural issues and returns an error
// describing all problems found, or nil if the presentation is valid.
func (p *Presentation) Validate() error {
	var errs []string

	if p.layout == nil {
		errs = append(errs, "document layout is nil")
	} else {
		if p.layout.CX <= 0 {
			errs = append(errs, "layout width (CX) must be positive")
		}
		if p.layout.CY <= 0 {
			errs = append(errs, "layout height (CY) must be positive")
		}
	}

	for i, slide := range p.slides {
		prefix := fmt.Sprintf("slide %d", i+1)
		if slide == nil {
			errs = append(errs, prefix+": slide is nil")
			continue
		}
		for _, e := range validateSlide(slide) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateSlide(s *Slide) []string {
	var errs []string
	for j, shape := range s.shapes {
		prefix := fmt.Sprintf("shape %d", j+1)
		if shape == nil {
			errs = append(errs, prefix+": shape is nil")
			continue
		}
		if shape.GetWidth() < 0 {
			errs = append(errs, prefix+": width is negative")
		}
		if shape.GetHeight() < 0 {
			errs = append(errs, prefix+": height is negative")
		}
		if ts, ok := shape.(*TextShape); ok {
			if ts.frame == nil {
				errs = append(errs, prefix+": text shape has no text frame")
				continue
			}
			for k, para := range ts.frame.paragraphs {
				if para == nil {
					errs = append(errs, fmt.Sprintf("%s: paragraph %d is nil", prefix, k+1))
				}
			}
		}
	}
	return errs
}
