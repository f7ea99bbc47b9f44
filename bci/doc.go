// Package bci implements a tree-walking evaluator for a small Ruby-like
// object language. Source is parsed into parser-gem shaped nodes and
// evaluated directly. The language supports:
//   - String literals, nil and self.
//   - Local variables and instance variables.
//   - Class definitions with single inheritance and re-opening.
//   - Method definitions and message sends with positional arguments.
//   - Constant lookup, including Outer::Inner paths.
//   - The built-ins Class#new, Object#initialize and Object#puts.
//
// Comments beginning with `#` are ignored. Other literals (integers, symbols,
// booleans) parse but are rejected at evaluation time. Runaway recursion is
// stopped by a configurable binding stack limit.
package bci
