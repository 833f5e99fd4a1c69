// Package mmap maps dataset files read-only into memory.
//
// Rule and label files are parsed front to back exactly once, so mappings
// are advised for sequential access. A Mapping must not be read after Close.
package mmap
