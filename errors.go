package welcomecard

import (
	"errors"
	"fmt"
)

// ErrMissingInput indicates that the path, the search text or the
// replacement text is empty.
var ErrMissingInput = errors.New("missing required input")

// ErrLegacyFormat indicates a binary PowerPoint 97-2003 (.ppt) file.
var ErrLegacyFormat = errors.New("legacy binary PowerPoint format (.ppt) is not supported, save the file as .pptx")

// ErrUnsupportedFormat indicates a file that is neither PPTX nor legacy PPT.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Stage names the pipeline step a StageError happened in.
type Stage string

const (
	StageValidate Stage = "validate"
	StageResolve  Stage = "resolve"
	StageOpen     Stage = "open"
	StageDecode   Stage = "decode"
	StageRender   Stage = "render"
	StageSave     Stage = "save"
	StageExport   Stage = "export"
)

// StageError is returned by Process for every failure after input
// validation. Slide is the 0-based slide index, or -1 when the failure is
// not tied to a slide.
type StageError struct {
	Stage Stage
	Slide int
	Err   error
}

func (e *StageError) Error() string {
	if e.Slide >= 0 {
		return fmt.Sprintf("%s failed on slide %d: %v", e.Stage, e.Slide, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError creates a StageError not tied to a slide.
func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Slide: -1, Err: err}
}

// newSlideError creates a StageError for slide index.
func newSlideError(stage Stage, index int, err error) *StageError {
	return &StageError{Stage: stage, Slide: index, Err: err}
}

// StageOf returns the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
