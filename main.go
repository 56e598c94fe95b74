package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
)

func main() {
	configFile := flag.String("config", "", "Config file (default $XDG_CONFIG_HOME/cctally/config.yaml)")
	dir := flag.String("dir", "", "Claude Code projects directory (default ~/.claude/projects)")
	workers := flag.Int("workers", 0, "Number of file workers (default number of CPUs)")
	output := flag.String("output", "table", "Output format: table or json")
	flag.StringVar(output, "o", "table", "Output format (shorthand)")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	verbose := flag.Bool("v", false, "Log debug information to stderr")
	maxWidth := flag.Int("maxwidth", 0, "")
	cpuProfile := flag.String("cpuprofile", "", "Write CPU profile to file")
	memProfile := flag.String("memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Shows Claude Code token usage per model and day.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # table of ~/.claude/projects\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o json               # sorted entries as JSON\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -dir /tmp/projects -v # other directory, debug logs\n", os.Args[0])
	}

	flag.Parse()

	// Bootstrap logger until the config is known
	logger := newLogger(os.Stderr, slog.LevelWarn, true)

	path := *configFile
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			fatal(logger, "cannot locate config file", err)
		}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		fatal(logger, "cannot load config", err)
	}

	// Explicit flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.ProjectsDir = *dir
		case "workers":
			cfg.Workers = *workers
		case "output", "o":
			cfg.Output = *output
		case "no-color":
			cfg.NoColor = *noColor
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		case "maxwidth":
			cfg.MaxWidth = *maxWidth
		}
	})
	if err := cfg.validate(); err != nil {
		fatal(logger, "invalid options", err)
	}

	level, _ := parseLevel(cfg.LogLevel) // checked by validate
	logger = newLogger(os.Stderr, level, !cfg.NoColor)

	if cfg.ProjectsDir == "" {
		if cfg.ProjectsDir, err = DefaultProjectsDir(); err != nil {
			fatal(logger, "failed to get home directory", err)
		}
	}

	// CPU profiling
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fatal(logger, "could not create CPU profile", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fatal(logger, "could not start CPU profile", err)
		}
		defer pprof.StopCPUProfile()
	}

	processor := &Processor{
		Dir:     cfg.ProjectsDir,
		Workers: cfg.Workers,
		Logger:  logger,
	}
	entries := processor.Process()

	switch cfg.Output {
	case "json":
		err = renderJSON(os.Stdout, entries)
	default:
		err = renderTable(os.Stdout, entries, renderOptions{
			TermWidth: getTerminalWidth(),
			MaxWidth:  cfg.MaxWidth,
			Color:     !cfg.NoColor && isTerminal(os.Stdout),
		})
	}
	if err != nil {
		fatal(logger, "cannot write output", err)
	}

	// Memory profiling
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fatal(logger, "could not create memory profile", err)
		}
		defer f.Close()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fatal(logger, "could not write memory profile", err)
		}
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
