package message

import (
	"strings"
)

// HeaderWriter helps create headers, folding to the next line when it would
// become too large. Useful for address headers.
type HeaderWriter struct {
	b        *strings.Builder
	lineLen  int
	nonfirst bool
}

// Add adds texts, each separated by separator. Individual elements in text are
// not wrapped. When a text does not fit on the current line, the separator is
// replaced by a line break.
func (w *HeaderWriter) Add(separator string, texts ...string) {
	if w.b == nil {
		w.b = &strings.Builder{}
	}
	for _, text := range texts {
		n := len(text)
		if w.nonfirst && w.lineLen > 1 && w.lineLen+len(separator)+n > 78 {
			w.b.WriteString("\r\n\t")
			w.lineLen = 1
		} else if w.nonfirst && separator != "" {
			w.b.WriteString(separator)
			w.lineLen += len(separator)
		}
		w.b.WriteString(text)
		w.lineLen += len(text)
		w.nonfirst = true
	}
}

// String returns the header in string form, ending with \r\n.
func (w *HeaderWriter) String() string {
	if w.b == nil {
		return "\r\n"
	}
	return w.b.String() + "\r\n"
}
