package welcomecard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/activeshadow/libminimega/minilog"
)

// Job names the template and the substitution to apply to it.
type Job struct {
	Path    string
	Find    string
	Replace string
}

// Options configures Process.
type Options struct {
	// OutputDir receives the slide images. Empty means the working directory.
	OutputDir string
	// DeckOut, when set, is where the substituted deck is exported. It must
	// not resolve to the template itself.
	DeckOut string
	// Render configures rasterization. Nil means DefaultRenderOptions.
	Render *RenderOptions
	// Now returns the run timestamp. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options Run uses.
func DefaultOptions() *Options {
	return &Options{Render: DefaultRenderOptions()}
}

// Result describes a completed (or partially completed) run.
type Result struct {
	// Files lists the images written, in slide order.
	Files []string
	// Replaced is the number of runs substituted.
	Replaced int
	// Slides is the number of slides in the template.
	Slides int
	// OutputDir is the directory the images were written to.
	OutputDir string
	// Deck is the exported deck path, if any.
	Deck string
}

// Process validates the job, substitutes the text in the template and
// writes one JPEG per slide. The template file is never modified.
//
// The returned Result is never nil; on failure it lists the files written
// before the failing step. Errors are ErrMissingInput or a *StageError.
func Process(job Job, opts *Options) (res *Result, err error) {
	res = &Result{}
	defer func() {
		if r := recover(); r != nil {
			err = newStageError(StageRender, fmt.Errorf("unexpected panic: %v", r))
			log.Error("%v", err)
		}
	}()

	if opts == nil {
		opts = DefaultOptions()
	}

	log.Info("processing %q", job.Path)

	if err := ValidateInputs(job.Path, job.Find, job.Replace); err != nil {
		log.Warn("rejected job: %v", err)
		return res, err
	}
	path := Sanitize(job.Path)
	find := Sanitize(job.Find)
	replace := Sanitize(job.Replace)

	src, err := ResolvePath(path)
	if err != nil {
		log.Error("%v", err)
		return res, err
	}

	pres, err := Open(src)
	if err != nil {
		err = newStageError(StageOpen, err)
		log.Error("%v", err)
		return res, err
	}
	defer pres.Close()

	res.Slides = pres.GetSlideCount()
	log.Info("opened %s: %d slides", src, res.Slides)

	res.Replaced = ReplaceText(pres, find, replace)
	log.Info("replaced %d runs of %q", res.Replaced, find)

	ro := opts.Render.withDefaults()
	ro.Target = replace
	if ro.FontCache == nil {
		ro.FontCache = NewFontCache(ro.FontDirs...)
	}

	outDir, err := prepareOutputDir(opts.OutputDir)
	if err != nil {
		err = newStageError(StageSave, err)
		log.Error("%v", err)
		return res, err
	}
	res.OutputDir = outDir

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	timestamp := now()
	token, err := newRunToken()
	if err != nil {
		err = newStageError(StageSave, err)
		log.Error("%v", err)
		return res, err
	}

	for i := 0; i < res.Slides; i++ {
		img, err := pres.SlideToImage(i, ro)
		if err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				err = newSlideError(StageRender, i, err)
			}
			log.Error("%v", err)
			return res, err
		}

		file := filepath.Join(outDir, SlideFileName(i, timestamp, token))
		if err := SaveJPEG(img, file, ro.JPEGQuality); err != nil {
			err = newSlideError(StageSave, i, err)
			log.Error("%v", err)
			return res, err
		}
		res.Files = append(res.Files, file)
		log.Info("image saved to %s", file)
	}

	if opts.DeckOut != "" {
		deck, err := exportDeck(pres, src, opts.DeckOut)
		if err != nil {
			log.Error("%v", err)
			return res, err
		}
		res.Deck = deck
		log.Info("deck exported to %s", deck)
	}

	log.Info("completed: %d images in %s", len(res.Files), outDir)
	return res, nil
}

func prepareOutputDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	abs, err := ResolvePath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return abs, nil
}

func exportDeck(pres *Presentation, src, dest string) (string, error) {
	abs, err := ResolvePath(dest)
	if err != nil {
		return "", newStageError(StageExport, err)
	}
	if abs == src {
		return "", newStageError(StageExport, fmt.Errorf("refusing to overwrite the template %s", src))
	}
	if err := pres.Save(abs); err != nil {
		return "", newStageError(StageExport, err)
	}
	return abs, nil
}

// Run processes the job with DefaultOptions and returns the status line.
func Run(path, find, replace string) string {
	res, err := Process(Job{Path: path, Find: find, Replace: replace}, nil)
	return Status(res, err)
}

// Status turns the outcome of Process into a human-readable line.
func Status(res *Result, err error) string {
	if errors.Is(err, ErrMissingInput) {
		return MissingInputMessage
	}
	if err != nil {
		if stage, ok := StageOf(err); ok && stage == StageOpen {
			return fmt.Sprintf("Error reading the PowerPoint file: %v", errors.Unwrap(err))
		}
		return fmt.Sprintf("Error: %v", err)
	}
	if res == nil {
		return "Process completed"
	}
	return fmt.Sprintf("Process completed, %d images saved in %s", len(res.Files), res.OutputDir)
}
