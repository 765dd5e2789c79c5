// Package vdf parses and serializes Valve Data Format documents, the
// brace-delimited key/value text format Steam uses for libraryfolders.vdf
// and appmanifest_*.acf files.
//
// Documents parse into a [Node] tree that preserves child order, so a
// parse/serialize round trip of an unmodified document is stable and a
// targeted edit produces a minimal diff against the original file.
//
// All values are strings. The format has no numeric type; callers that
// need numbers parse them explicitly.
package vdf
