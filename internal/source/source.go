package source

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// File holds a source file and precomputed line offsets for diagnostics.
// The text is mutable: Apply replaces a byte range in place so that spans
// keep pointing at the same *File across edits.
type File struct {
	Name        string
	Input       string
	lineOffsets []int // 0-based byte offsets of each line start
}

func NewFile(name string, input string) *File {
	f := &File{Name: name}
	f.reset(input)
	return f
}

func (f *File) reset(input string) {
	f.Input = input
	f.lineOffsets = f.lineOffsets[:0]
	f.lineOffsets = append(f.lineOffsets, 0)
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
}

// Apply replaces Input[start:end] with text and returns the length delta.
func (f *File) Apply(start, end int, text string) (int, error) {
	if start < 0 || end < start || end > len(f.Input) {
		return 0, fmt.Errorf("edit range [%d,%d) outside of %s (length %d)", start, end, f.Name, len(f.Input))
	}
	f.reset(f.Input[:start] + text + f.Input[end:])
	return len(text) - (end - start), nil
}

// Slice returns Input[start:end] clamped to the file bounds.
func (f *File) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(f.Input) {
		end = len(f.Input)
	}
	if start >= end {
		return ""
	}
	return f.Input[start:end]
}

// LineCol returns 1-based line/column for a byte offset.
// Column is counted in runes (Unicode code points), not bytes.
func (f *File) LineCol(off int) (int, int) {
	if off < 0 {
		off = 0
	}
	if off > len(f.Input) {
		off = len(f.Input)
	}
	// lineOffsets is sorted.
	i := sort.Search(len(f.lineOffsets), func(i int) bool { return f.lineOffsets[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	lineStart := f.lineOffsets[i]
	col := 1
	pos := lineStart
	for pos < off {
		_, sz := utf8.DecodeRuneInString(f.Input[pos:])
		if sz <= 0 {
			sz = 1
		}
		// If the offset points into a rune's bytes, keep the previous column.
		if pos+sz > off {
			break
		}
		col++
		pos += sz
	}
	return i + 1, col
}

// Span is a byte range [Start, End) in a File.
type Span struct {
	File       *File
	Start, End int
}

func (s Span) LocStart() (filename string, line int, col int) {
	if s.File == nil {
		return "", 0, 0
	}
	line, col = s.File.LineCol(s.Start)
	return s.File.Name, line, col
}

func (s Span) IsValid() bool { return s.File != nil && s.Start <= s.End }

func (s Span) Len() int { return s.End - s.Start }

// Encloses reports whether o lies within s.
func (s Span) Encloses(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// EnvelopsRange reports whether [start, end) lies within s, touching the
// boundaries included.
func (s Span) EnvelopsRange(start, end int) bool { return s.Start <= start && end <= s.End }

// TouchesRange reports whether s overlaps or is adjacent to [start, end).
func (s Span) TouchesRange(start, end int) bool { return s.Start <= end && start <= s.End }

// Shifted returns s moved by delta bytes.
func (s Span) Shifted(delta int) Span {
	s.Start += delta
	s.End += delta
	return s
}

func (s Span) String() string {
	fn, line, col := s.LocStart()
	return fmt.Sprintf("%s:%d:%d", fn, line, col)
}

// Join returns the smallest span enclosing a and b.
func Join(a Span, b Span) Span {
	if a.File == nil {
		return b
	}
	if b.File == nil {
		return a
	}
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	return Span{File: a.File, Start: start, End: end}
}
