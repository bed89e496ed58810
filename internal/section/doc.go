// Package section decomposes raw markdown into ordered, independently
// renderable sections and builds the skeleton markup painted before any
// heavy transform runs.
//
// Split cuts at ATX heading boundaries while tracking fenced regions so a
// marker inside an open fence is never treated as a boundary. Chunk is the
// size-based fallback for documents without structural boundaries. Both
// preserve the source exactly: concatenating the produced section texts in
// order yields the input byte-for-byte.
package section
