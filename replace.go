package welcomecard

import (
	"strings"

	log "github.com/activeshadow/libminimega/minilog"
)

// ReplaceText substitutes every run whose text is exactly find.
//
// A matching run gets replace as its text and is made bold and coloured
// with AccentColor. Runs that merely contain find, or that are split across
// several runs, are left untouched. It returns the number of runs replaced.
func ReplaceText(p *Presentation, find, replace string) int {
	if p == nil || find == "" {
		return 0
	}

	count := 0
	for si, slide := range p.slides {
		for _, ts := range slide.textShapes() {
			if ts.frame == nil {
				continue
			}
			for _, para := range ts.frame.paragraphs {
				if para == nil {
					continue
				}
				for i, run := range para.runs {
					if run.Text != find {
						continue
					}
					run.Text = strings.ReplaceAll(run.Text, find, replace)
					run.Bold = true
					accent := AccentColor
					run.Color = &accent
					para.runs[i] = run
					count++
					log.Debug("slide %d: replaced run in %q", si, ts.name)
				}
			}
		}
	}
	return count
}
