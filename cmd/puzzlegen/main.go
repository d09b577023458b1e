// Command puzzlegen decomposes twisty puzzles into fragments and writes the
// puzzle files a runtime needs to render and simulate them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chazu/twisty/pkg/catalog"
	"github.com/chazu/twisty/pkg/config"
	"github.com/chazu/twisty/pkg/logs"
)

// listFlag collects a repeatable or comma separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("puzzlegen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var puzzles, scripts listFlag
	fs.Var(&puzzles, "puzzle", "Catalog puzzle to generate (repeatable)")
	fs.Var(&scripts, "script", "Puzzle script to generate (repeatable)")
	configFile := fs.String("config", "", "Path to a CUE config file (default: discover puzzlegen.cue)")
	outputDir := fs.String("out", "", "Output directory (default: puzzles)")
	list := fs.Bool("list", false, "List catalog puzzles and exit")
	validateFlag := fs.Bool("validate", false, "Validate generated puzzles")
	stl := fs.Bool("stl", false, "Also write an STL of the fragments")
	compress := fs.Bool("compress", false, "Gzip the puzzle files")
	workers := fs.Int("workers", 0, "Worker goroutines (default: NumCPU)")
	maxPasses := fs.Int("max-passes", 0, "Cut pass limit")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn or error")
	logFile := fs.String("log-file", "", "Also write JSON logs to this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, name := range catalog.Names() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	paths := []string{*configFile}
	if *configFile == "" {
		paths = config.Discover(nil)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		fmt.Fprintf(stderr, "puzzlegen: %v\n", err)
		return 1
	}
	cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		Puzzles:   puzzles,
		Scripts:   scripts,
		Compress:  *compress,
		Validate:  *validateFlag,
		STL:       *stl,
		Workers:   *workers,
		MaxPasses: *maxPasses,
		LogLevel:  *logLevel,
		LogFile:   *logFile,
	})

	level, err := logs.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "puzzlegen: %v\n", err)
		return 2
	}
	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := logs.Options{Writer: stderr, Level: lv}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "puzzlegen: %v\n", err)
			return 1
		}
		defer f.Close()
		opts.File = f
	}
	log := logs.New(opts)

	app := NewApp(cfg, log)
	var failed []error

	names := cfg.Puzzles
	if len(names) == 0 && len(cfg.Scripts) == 0 {
		names = catalog.Names()
	}
	for _, name := range names {
		p, err := catalog.Lookup(name)
		if err != nil {
			failed = append(failed, err)
			continue
		}
		rep, err := app.Generate(p)
		failed = report(stdout, failed, rep, err)
	}
	for _, path := range cfg.Scripts {
		rep, err := app.GenerateScript(path)
		failed = report(stdout, failed, rep, err)
	}

	if err := errors.Join(failed...); err != nil {
		log.Error("generation failed", "err", err)
		return 1
	}
	return 0
}

func report(w io.Writer, failed []error, rep Report, err error) []error {
	if rep.Path != "" {
		fmt.Fprintf(w, "%s\t%s\t%d fragments\t%d pieces\n", rep.Name, rep.Path, rep.Fragments, rep.Pieces)
	}
	if err != nil {
		failed = append(failed, err)
	}
	return failed
}
