package pack

import (
	"time"

	"git.home.luguber.info/inful/texpack/internal/deps"
	"git.home.luguber.info/inful/texpack/internal/util/sets"
	"git.home.luguber.info/inful/texpack/internal/workspace"
)

// State carries mutable state across stages of one run.
type State struct {
	Opts  Options
	RunID string

	Root     string   // resolved project root in the caller's tree
	EntryRel string   // entry document relative to Root
	Includes []string // scratch-side paths of explicitly included files

	WS           *workspace.Manager
	ScratchRoot  string // working copy of the project
	OutDir       string // compiler output tree
	CacheStage   string // pass-2 output staging (exists only between relocate and swap)
	ArchiveStage string // archive staging tree

	Required   sets.Set[string] // grows across passes, never shrinks
	SecondPass bool
	BibTargets []string

	Timings map[string]time.Duration
}

func (st *State) collector() *deps.Collector {
	return &deps.Collector{Runner: &deps.Runner{
		Compiler:    st.Opts.Compiler,
		ShellEscape: st.Opts.ShellEscape,
	}}
}
