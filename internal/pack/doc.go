// Package pack drives one packaging run end to end: scratch copy, comment
// stripping, watched compilation (one or two passes), bibliography closure
// and archive assembly. Execution is organized as an ordered list of stages,
// each timed and classified on failure; the first fatal stage aborts the run
// and the workspace is cleaned up on every exit path.
package pack
