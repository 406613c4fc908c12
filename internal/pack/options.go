package pack

import (
	"time"

	"git.home.luguber.info/inful/texpack/internal/config"
)

// Options describes one packaging run. Zero-valued fields are filled from
// configuration by ApplyConfig.
type Options struct {
	Entry  string // main tex file of the project
	Output string // output zip archive path
	Root   string // project root; empty means the entry document's directory

	Include               []string // extra files to archive whether opened or not
	Compiler              string   // pdflatex or lualatex
	BibliographyProcessor string   // bibtex or biber
	ShellEscape           bool
	DisableExternalize    bool
	RespectGitignore      bool
	Timeout               time.Duration // zero means no bound on the run
	KeepWorkspace         bool
}

// ApplyConfig fills unset options from cfg. Boolean flags are OR-ed, so a
// flag given on the command line can enable but never silence a configured
// behavior.
func (o *Options) ApplyConfig(cfg *config.Config) {
	if o.Compiler == "" {
		o.Compiler = cfg.Compiler
	}
	if o.BibliographyProcessor == "" {
		o.BibliographyProcessor = cfg.BibliographyProcessor
	}
	if len(o.Include) == 0 {
		o.Include = cfg.Include
	}
	if o.Timeout == 0 {
		o.Timeout = time.Duration(cfg.Timeout)
	}
	o.ShellEscape = o.ShellEscape || cfg.ShellEscape
	o.DisableExternalize = o.DisableExternalize || cfg.DisableExternalize
	o.RespectGitignore = o.RespectGitignore || cfg.RespectGitignore
}
