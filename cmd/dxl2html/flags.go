package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across runs.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds HTML rendering flags.
type renderFlags struct {
	font     string
	linkBase string
}

// outputFlags holds output mode flags.
type outputFlags struct {
	markdown bool
	json     bool
	noJSON   bool
}

// convertFlags holds all flags for a conversion run.
type convertFlags struct {
	common     commonFlags
	output     string
	dbTitle    string
	bodyItem   string
	workers    int
	progress   string
	render     renderFlags
	outputs    outputFlags
	initConfig bool
	version    bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-document detail")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.font, "font", "", "body font family for rendered HTML")
	fs.StringVar(&f.linkBase, "link-base", "", "URL prefix for document links (empty = mark unresolved)")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.markdown, "markdown", false, "also write a Markdown rendition")
	fs.BoolVar(&f.json, "json", false, "also write the normalized document as JSON")
	fs.BoolVar(&f.noJSON, "no-json", false, "skip the JSON output")
}

// parseFlags parses command line flags and returns positional args.
func parseFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("dxl2html", flag.ContinueOnError)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output root directory")
	fs.StringVarP(&f.dbTitle, "db-title", "d", "", "source database title")
	fs.StringVar(&f.bodyItem, "body-item", "", "rich-text item to render as the body")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVar(&f.progress, "progress", "", "JSONL checkpoint file for resumable runs")
	fs.BoolVar(&f.initConfig, "init-config", false, "write a starter config file and exit")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addOutputFlags(fs, &f.outputs)

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: dxl2html [flags] <file-or-directory>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Converts DXL document exports (.xml, .dxl) to styled HTML pages")
	fmt.Fprintln(w, "with attachments extracted alongside.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DXL2HTML_CONFIG, DXL2HTML_INPUT_DIR, DXL2HTML_OUTPUT_DIR,")
	fmt.Fprintln(w, "  DXL2HTML_DB_TITLE, DXL2HTML_BODY_ITEM, DXL2HTML_FONT_FAMILY,")
	fmt.Fprintln(w, "  DXL2HTML_LINK_BASE, DXL2HTML_PROGRESS, DXL2HTML_WORKERS")
}
