// Package deps implements build-time dependency discovery: it runs the LaTeX
// compiler while observing file opens under the scratch project root and
// collapses the observed events into the set of files the build actually
// consumed.
//
// Ordering is the principal correctness hazard and is enforced here: the
// watch is fully established before the compiler is spawned, and it is torn
// down (with a drain of buffered events) only after the compiler has exited.
// Violating either side of that window silently loses dependencies.
//
// The Reconciler layers the two-pass protocol on top: when pass-1 sources
// declare tikz externalization caches, the cached artifacts are relocated
// into a fresh output tree and the collection is run once more, so that the
// compiler re-opens the cached renders instead of deferring them, which makes
// them observable. Reconciliation is capped at one extra pass.
package deps
