// Package scanner blanks out comments in view templates while keeping every
// other byte, and every newline, exactly where it was.
package scanner

import (
	"strings"
)

type Kind int

const (
	TemplateComment Kind = iota // {{-- --}}
	MarkupComment               // <!-- -->
	BlockComment                // /* */
	LineComment                 // //
	HashComment                 // #
)

func (k Kind) String() string {
	switch k {
	case TemplateComment:
		return "template"
	case MarkupComment:
		return "markup"
	case BlockComment:
		return "block"
	case LineComment:
		return "line"
	case HashComment:
		return "hash"
	default:
		return "unknown"
	}
}

// Span is a comment located in the source, as byte offsets [Start, End).
// End includes the closing delimiter when there is one.
type Span struct {
	Kind       Kind
	Start      int
	End        int
	Terminated bool
}

type delimited struct {
	kind  Kind
	open  string
	close string
}

// order matters: the first opener that matches wins
var delimiters = []delimited{
	{kind: TemplateComment, open: "{{--", close: "--}}"},
	{kind: MarkupComment, open: "<!--", close: "-->"},
	{kind: BlockComment, open: "/*", close: "*/"},
}

// Spans returns the comment spans of text in source order. Quoted strings
// are skipped, so comment openers inside them are never reported.
func Spans(text string) []Span {
	var spans []Span
	var quote byte

	for i := 0; i < len(text); {
		c := text[i]

		if quote != 0 {
			if c == quote && !escaped(text, i) {
				quote = 0
			}
			i++
			continue
		}

		if c == '"' || c == '\'' {
			quote = c
			i++
			continue
		}

		if span, ok := commentAt(text, i); ok {
			spans = append(spans, span)
			i = span.End
			continue
		}

		i++
	}

	return spans
}

// Strip returns text with the body of every comment replaced by spaces. The
// result has the same length and the same newline offsets as text.
func Strip(text string) string {
	spans := Spans(text)
	if len(spans) == 0 {
		return text
	}

	out := []byte(text)
	for _, s := range spans {
		for j := s.Start; j < s.End; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
	}
	return string(out)
}

func commentAt(text string, i int) (Span, bool) {
	for _, d := range delimiters {
		if !strings.HasPrefix(text[i:], d.open) {
			continue
		}
		end := strings.Index(text[i+len(d.open):], d.close)
		if end == -1 {
			return Span{Kind: d.kind, Start: i, End: len(text)}, true
		}
		return Span{Kind: d.kind, Start: i, End: i + len(d.open) + end + len(d.close), Terminated: true}, true
	}

	if strings.HasPrefix(text[i:], "//") {
		return Span{Kind: LineComment, Start: i, End: lineEnd(text, i+2), Terminated: true}, true
	}

	// a hash only starts a comment at the start of input or after whitespace
	if text[i] == '#' && (i == 0 || isSpace(text[i-1])) {
		return Span{Kind: HashComment, Start: i, End: lineEnd(text, i+1), Terminated: true}, true
	}

	return Span{}, false
}

// lineEnd returns the offset of the next newline at or after from, or the end
// of text. The newline itself is not part of a line comment.
func lineEnd(text string, from int) int {
	if from > len(text) {
		return len(text)
	}
	if idx := strings.IndexByte(text[from:], '\n'); idx != -1 {
		return from + idx
	}
	return len(text)
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(text string, i int) bool {
	n := 0
	for k := i - 1; k >= 0 && text[k] == '\\'; k-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
