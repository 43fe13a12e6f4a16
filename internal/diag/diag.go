package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"ttcnlang/internal/source"
)

// Severity of a diagnostic. Ignore is a valid configured severity that
// drops the report without affecting the analysis that produced it.
type Severity int

const (
	Ignore Severity = iota
	Note
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Ignore:
		return "ignore"
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity accepts the configuration spelling of a severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "none", "off":
		return Ignore, nil
	case "note", "info":
		return Note, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Ignore, fmt.Errorf("unknown severity: %q", s)
}

type Item struct {
	Filename string
	Line     int
	Col      int
	Start    int
	End      int
	Severity Severity
	Msg      string
}

// Reporter is the diagnostics sink.
type Reporter interface {
	Report(sev Severity, at source.Span, msg string)
}

type Bag struct {
	Items []Item
}

func (b *Bag) Add(filename string, line int, col int, msg string) {
	b.Items = append(b.Items, Item{Filename: filename, Line: line, Col: col, Severity: Error, Msg: msg})
}

// Report records msg at the given span. Ignore drops it.
func (b *Bag) Report(sev Severity, at source.Span, msg string) {
	if sev == Ignore {
		return
	}
	fn, line, col := at.LocStart()
	b.Items = append(b.Items, Item{
		Filename: fn,
		Line:     line,
		Col:      col,
		Start:    at.Start,
		End:      at.End,
		Severity: sev,
		Msg:      msg,
	})
}

func (b *Bag) Errorf(at source.Span, format string, args ...interface{}) {
	b.Report(Error, at, fmt.Sprintf(format, args...))
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

// Count returns the number of items with the given severity.
func (b *Bag) Count(sev Severity) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, it := range b.Items {
		if it.Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) HasErrors() bool { return b.Count(Error) > 0 }

func (b *Bag) Reset() { b.Items = b.Items[:0] }

// Merge appends all items of o.
func (b *Bag) Merge(o *Bag) {
	if o == nil {
		return
	}
	b.Items = append(b.Items, o.Items...)
}

// Sorted returns a copy ordered by file, offset and message.
func (b *Bag) Sorted() []Item {
	if b == nil {
		return nil
	}
	items := make([]Item, 0, len(b.Items))
	items = append(items, b.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Filename != items[j].Filename {
			return items[i].Filename < items[j].Filename
		}
		if items[i].Start != items[j].Start {
			return items[i].Start < items[j].Start
		}
		if items[i].Line != items[j].Line {
			return items[i].Line < items[j].Line
		}
		return items[i].Col < items[j].Col
	})
	return items
}

func Print(w io.Writer, b *Bag) {
	if b == nil || len(b.Items) == 0 {
		return
	}
	for _, it := range b.Sorted() {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", it.Filename, it.Line, it.Col, it.Severity, it.Msg)
	}
}
