// Package ast defines the syntax tree produced by the parser.
//
// Nodes live in append-only arenas and are addressed by compact 1-based IDs,
// so a whole file parses into a handful of flat slices instead of a pointer
// graph. Index 0 of every arena is the null node; the No*ID constants make
// "absent" explicit at use sites.
//
// Each node kind stores a small fixed header (kind, span, payload index) and
// keeps its variable-size fields in a per-kind payload arena. Accessors such
// as Exprs.Binary return (payload, ok) and reject IDs of the wrong kind.
package ast
