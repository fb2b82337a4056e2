// Package view provides the in-process document the console renders and the
// components mutate. Components never look nodes up by themselves: each one
// receives the handles it owns when it is constructed, so they can be
// exercised against a hand-built tree in tests and against the full console
// layout in production.
package view
