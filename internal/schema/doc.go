// Package schema loads atom class definitions from TOML or YAML documents.
//
// A document lists classes and their members:
//
//	[[class]]
//	name = "Point"
//
//	  [[class.member]]
//	  name = "x"
//	  kind = "int"
//	  default = 0
//
//	  [[class.member]]
//	  name = "moved"
//	  kind = "signal"
//
//	  [[class.member]]
//	  name = "y"
//	  kind = "int"
//	  emits = ["moved"]
//
// YAML documents use the same field names. Parse decodes a document,
// Build turns it into sealed classes, and LoadInto registers every class
// found in a set of files or directories.
package schema
