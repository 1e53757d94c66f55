// Command welcomecard fills a PowerPoint template and saves every slide as
// a JPEG.
//
//	welcomecard plantilla.pptx Nombre "Ada Lovelace" -o cards/
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/VantageDataChat/welcomecard"
	log "github.com/activeshadow/libminimega/minilog"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	outputDir      string
	fontDirs       []string
	quality        int
	dpi            int
	saveDeck       string
	unifiedMetrics bool
	logLevel       string
	noColor        bool
)

// errFailed reports a run whose status line was already printed.
var errFailed = errors.New("processing failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "welcomecard <template.pptx> <find> <replace>",
		Short: "Fill a PowerPoint template and render its slides to JPEG",
		Long: `welcomecard replaces every text run equal to <find> with <replace>,
makes it bold in the accent colour and saves one JPEG per slide.
The template itself is never modified.`,
		Version:       welcomecard.Version,
		Args:          cobra.MaximumNArgs(3),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addFlags(rootCmd.Flags())
	return rootCmd
}

func addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&outputDir, "output-dir", "o", "", "Directory for the slide images (default: current directory)")
	flags.StringArrayVar(&fontDirs, "font-dir", nil, "Extra directory to search for fonts (repeatable)")
	flags.IntVar(&quality, "quality", 95, "JPEG quality (1-100)")
	flags.IntVar(&dpi, "dpi", welcomecard.DefaultDPI, "Rasterization density in dots per inch")
	flags.StringVar(&saveDeck, "save-deck", "", "Also export the substituted deck to this .pptx path")
	flags.BoolVar(&unifiedMetrics, "unified-metrics", false, "Measure line height with the drawing font")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

func run(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	if err := setupLogging(os.Stderr, logLevel, !color.NoColor); err != nil {
		return err
	}

	// Missing arguments are reported by Process like empty ones.
	job := welcomecard.Job{}
	for i, dst := range []*string{&job.Path, &job.Find, &job.Replace} {
		if i < len(args) {
			*dst = args[i]
		}
	}

	ro := welcomecard.DefaultRenderOptions()
	ro.DPI = dpi
	ro.JPEGQuality = quality
	ro.FontDirs = fontDirs
	ro.UnifiedLineMetrics = unifiedMetrics

	res, err := welcomecard.Process(job, &welcomecard.Options{
		OutputDir: outputDir,
		DeckOut:   saveDeck,
		Render:    ro,
	})

	out := cmd.OutOrStdout()
	status := welcomecard.Status(res, err)
	if err != nil {
		color.New(color.FgRed).Fprintln(out, status)
	} else {
		color.New(color.FgGreen).Fprintln(out, status)
	}
	if res != nil && len(res.Files) > 0 {
		printFiles(out, res.Files)
	}

	if err != nil {
		return errFailed
	}
	return nil
}

// setupLogging installs a stderr logger at the named level.
func setupLogging(w io.Writer, level string, useColor bool) error {
	switch strings.ToLower(level) {
	case "debug":
		log.AddLogger("stderr", w, log.DEBUG, useColor)
	case "info":
		log.AddLogger("stderr", w, log.INFO, useColor)
	case "warn":
		log.AddLogger("stderr", w, log.WARN, useColor)
	case "error":
		log.AddLogger("stderr", w, log.ERROR, useColor)
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// printFiles writes the saved images as an ASCII table.
func printFiles(w io.Writer, files []string) {
	table := tablewriter.NewWriter(w)

	table.SetHeader([]string{"Slide", "Image"})

	for i, f := range files {
		table.Append([]string{fmt.Sprintf("%d", i), f})
	}

	table.Render()
}
