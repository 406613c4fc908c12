package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/texpack/internal/config"
	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/monitor"
	"git.home.luguber.info/inful/texpack/internal/pack"
	"github.com/alecthomas/kong"
)

type packArgs struct {
	Entry  string `arg:"" name:"entry" help:"Main tex file of the project."`
	Output string `arg:"" name:"output" help:"Filename of the output *.zip archive."`

	Compiler              string        `short:"c" help:"Compiler used to compile the project (pdflatex or lualatex)."`
	BibliographyProcessor string        `short:"b" help:"Program used to process the bibliography (bibtex or biber)."`
	Include               []string      `short:"i" help:"Include these files, whether the build opens them or not."`
	Root                  string        `short:"r" help:"Root directory of the project (default: parent of the main tex file)."`
	ShellEscape           bool          `help:"Enable shell escape for the LaTeX compiler."`
	DisableExternalize    bool          `help:"Strip tikz externalization directives from the sources."`
	RespectGitignore      bool          `help:"Skip gitignored files when copying the project."`
	Timeout               time.Duration `help:"Abort the run when the build exceeds this duration."`
	KeepWorkspace         bool          `help:"Keep the scratch workspace for inspection."`
}

var CLI struct {
	Config  string `help:"Configuration file path" default:"texpack.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Pack struct {
		packArgs
	} `cmd:"" help:"Compile the project and pack the files the build actually used into a minimal zip archive."`

	Watch struct {
		packArgs
		Debounce time.Duration `help:"Settle time before re-packing after a change." default:"2s"`
	} `cmd:"" help:"Re-pack the project whenever its sources change."`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	switch kctx.Command() {
	case "pack <entry> <output>":
		opts := buildOptions(CLI.Pack.packArgs, cfg)
		if err := pack.Run(context.Background(), opts); err != nil {
			slog.Error("Pack failed",
				slog.String("category", string(apperrors.GetCategory(err))),
				logfields.Error(err))
			os.Exit(1)
		}
	case "watch <entry> <output>":
		opts := buildOptions(CLI.Watch.packArgs, cfg)
		if err := runWatch(opts, CLI.Watch.Debounce); err != nil {
			slog.Error("Watch failed",
				slog.String("category", string(apperrors.GetCategory(err))),
				logfields.Error(err))
			os.Exit(1)
		}
	}
}

// buildOptions merges command-line flags over the configuration file and
// validates the merged tool choices.
func buildOptions(args packArgs, cfg *config.Config) pack.Options {
	opts := pack.Options{
		Entry:                 args.Entry,
		Output:                args.Output,
		Root:                  args.Root,
		Include:               args.Include,
		Compiler:              args.Compiler,
		BibliographyProcessor: args.BibliographyProcessor,
		ShellEscape:           args.ShellEscape,
		DisableExternalize:    args.DisableExternalize,
		RespectGitignore:      args.RespectGitignore,
		Timeout:               args.Timeout,
		KeepWorkspace:         args.KeepWorkspace,
	}
	opts.ApplyConfig(cfg)

	merged := *cfg
	merged.Compiler = opts.Compiler
	merged.BibliographyProcessor = opts.BibliographyProcessor
	merged.Timeout = config.Duration(opts.Timeout)
	if err := merged.Validate(); err != nil {
		slog.Error("Invalid options", logfields.Error(err))
		os.Exit(1)
	}
	return opts
}

// runWatch packs once immediately, then re-packs after every debounced burst
// of source changes until interrupted.
func runWatch(opts pack.Options, debounce time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := opts.Root
	if root == "" {
		entry, err := filepath.Abs(opts.Entry)
		if err != nil {
			return err
		}
		root = filepath.Dir(entry)
	}

	repack := func(ctx context.Context) error { return pack.Run(ctx, opts) }
	if err := repack(ctx); err != nil {
		slog.Error("Initial pack failed", logfields.Error(err))
	}

	// The archive we write must never count as a source change.
	archive := opts.Output
	if filepath.Ext(archive) != ".zip" {
		archive += ".zip"
	}
	m, err := monitor.New(root, debounce, archive)
	if err != nil {
		return err
	}
	return m.Run(ctx, repack)
}
