// Package decl declares atom classes.
//
// It provides one constructor per member flavor, each returning an
// *atom.Member with its default, validate and access modes filled in, and a
// Builder that assembles members into an *atom.Class, assigning slot
// indices in declaration order and wiring static dependencies and signals.
//
//	point, err := decl.Define("Point").
//		Add(decl.Int("x", 0), decl.Int("y", 0)).
//		Add(decl.Signal("moved")).
//		EmitOn("x", "moved").
//		Build()
package decl
