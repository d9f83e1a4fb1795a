package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/modcycle/modcycle/pkg/analysis"
	"github.com/modcycle/modcycle/pkg/cache"
	"github.com/modcycle/modcycle/pkg/config"
	"github.com/modcycle/modcycle/pkg/finder"
	"github.com/modcycle/modcycle/pkg/logging"
	"github.com/modcycle/modcycle/pkg/module"
	"github.com/modcycle/modcycle/pkg/output"
	"github.com/modcycle/modcycle/pkg/parse"
	"github.com/modcycle/modcycle/pkg/watcher"
	"github.com/modcycle/modcycle/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("modcycle", pflag.ContinueOnError)
	flags.String("workspace", ".", "Path to the workspace root")
	flags.String("entry", "", "Entry file to analyze (default: whole workspace)")
	flags.Int("max-depth", 10, "Maximum traversal depth")
	flags.Bool("unbounded", false, "Disable the traversal depth bound")
	flags.Bool("report-all", false, "Report every cycle instead of the first per entry")
	flags.Bool("barrel-exports", false, "Flatten barrel (re-export) files out of the graph")
	flags.Bool("type-imports", false, "Count type-only imports toward cycles")
	flags.StringSlice("ignore", nil, "Specifier patterns to ignore (glob, or /regexp/)")
	flags.String("fingerprint", "mtime", "Cache fingerprint strategy: mtime or content")
	flags.Int("cache-size", 0, "Bound the graph cache to N entries (0 = unbounded)")
	flags.Bool("web", false, "Serve results over HTTP instead of printing to console")
	flags.Int("port", 8080, "Port for the web server")
	flags.Bool("watch", false, "Re-analyze when workspace files change")
	flags.CountP("verbose", "v", "Increase log verbosity")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logging.SetLevel(logging.LevelFromVerbosity(cfg.VerboseCnt))

	workspace, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	analyzer, err := analysis.New(parse.NewScanner(), analysis.Options{
		WorkspaceRoot:      workspace,
		Aliases:            cfg.Aliases,
		MaxDepth:           cfg.MaxDepth,
		Unbounded:          cfg.Unbounded,
		ReportAllCycles:    cfg.ReportAllCycles,
		BarrelExports:      cfg.BarrelExports,
		IncludeTypeImports: cfg.TypeImports,
		IgnorePatterns:     cfg.Ignore,
		Fingerprint:        cache.Strategy(cfg.Fingerprint),
		CacheSize:          cfg.CacheSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	app := &app{
		cfg:       cfg,
		workspace: workspace,
		analyzer:  analyzer,
	}

	if cfg.WebMode || cfg.Watch {
		app.runLongLived()
		return
	}

	result, scanned, err := app.analyzeOnce()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	output.PrintCycleReport(workspace, scanned, result)
	if len(result.Cycles) > 0 {
		os.Exit(1)
	}
}

type app struct {
	cfg       *config.Config
	workspace string
	analyzer  *analysis.Analyzer
	server    *web.Server
}

// analyzeOnce runs a single analysis pass over the configured scope
func (a *app) analyzeOnce() (*module.Result, int, error) {
	if a.cfg.Entry != "" {
		result, err := a.analyzer.Analyze(a.cfg.Entry)
		return result, a.analyzer.Graph().Len(), err
	}

	entries, err := finder.FindSourceFiles(a.workspace)
	if err != nil {
		return nil, 0, fmt.Errorf("finding source files: %w", err)
	}

	result, err := a.analyzer.AnalyzeAll(entries)
	return result, len(entries), err
}

// runLongLived handles the web and watch modes, which keep the process alive
func (a *app) runLongLived() {
	ctx := context.Background()

	if a.cfg.WebMode {
		a.server = web.NewServer()
		go func() {
			if err := a.server.Start(a.cfg.Port); err != nil {
				logging.Fatal("web server failed", "error", err)
			}
		}()
		fmt.Printf("Serving analysis on http://localhost:%d\n", a.cfg.Port)
	}

	a.runAndPublish("initial analysis")

	if !a.cfg.Watch {
		// Web mode without watch: keep serving the one-shot result
		select {}
	}

	fw, err := watcher.NewFileWatcher(a.workspace)
	if err != nil {
		logging.Fatal("could not create watcher", "error", err)
	}
	if err := fw.Start(ctx); err != nil {
		logging.Fatal("could not start watcher", "error", err)
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		a.analyzer.Invalidate(event.Paths...)
		logging.Info("workspace changed", "files", len(event.Paths))
		a.runAndPublish("files changed")
	}
}

// runAndPublish runs one analysis pass and pushes the outcome to the web
// layer when it is active
func (a *app) runAndPublish(reason string) {
	if a.server != nil {
		a.server.PublishStatus("analyzing", reason, 0, 0)
	}

	result, scanned, err := a.analyzeOnce()
	if err != nil {
		logging.Error("analysis failed", "reason", reason, "error", err)
		if a.server != nil {
			a.server.PublishStatus("error", err.Error(), 0, 0)
		}
		return
	}

	logging.Info("analysis complete",
		"reason", reason, "scanned", scanned, "cycles", len(result.Cycles), "trimmed", result.Trimmed)

	if a.server != nil {
		a.server.SetGraph(a.analyzer.Graph())
		a.server.SetResult(result)
		a.server.PublishStatus("ready", "Analysis complete", a.analyzer.Graph().Len(), len(result.Cycles))
	} else {
		output.PrintCycleReport(a.workspace, scanned, result)
	}
}
