// Package facts implements the working memory rules reason over.
//
// A Facts store maps fact names to values. Names are unique: Add keeps the
// first value written under a name, Put overwrites it. Iteration follows
// insertion order so traces and test comparisons are deterministic.
//
// A store belongs to one evaluation session. It is mutated by the caller and
// by rule actions, and it is not safe for concurrent use.
package facts
