// Package directive turns comment-free template text into the structural
// events the balance checker works on: directive markers and component tags.
package directive

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/walteh/viewphp-lsp/pkg/position"
)

type Kind int

const (
	OpenConditional Kind = iota
	ElseConditional
	CloseConditional
	OpenLoop
	CloseLoop
	OpenSection
	CloseSection
	ExtendsMarker
	DoubleAtMarker
	OpenTag
	CloseTag
	SelfClosedTag
)

var kindNames = map[Kind]string{
	OpenConditional:  "open-conditional",
	ElseConditional:  "else-conditional",
	CloseConditional: "close-conditional",
	OpenLoop:         "open-loop",
	CloseLoop:        "close-loop",
	OpenSection:      "open-section",
	CloseSection:     "close-section",
	ExtendsMarker:    "extends",
	DoubleAtMarker:   "double-at",
	OpenTag:          "open-tag",
	CloseTag:         "close-tag",
	SelfClosedTag:    "self-closed-tag",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsTag reports whether the event is a component tag.
func (k Kind) IsTag() bool {
	return k == OpenTag || k == CloseTag || k == SelfClosedTag
}

// Event is one structural occurrence in the source. Name holds the directive
// keyword (with its @) or the component name (without the c- prefix).
type Event struct {
	Kind  Kind
	Name  string
	Range position.Range
}

// Line is the line the event starts on.
func (e Event) Line() int {
	return e.Range.Start.Line
}

// Tokenizer extracts structural events from text that has already had its
// comments blanked.
type Tokenizer interface {
	Tokenize(cleaned string) []Event
}

// NameCharset is the character class allowed in a component name. The
// component resolver matches tags with the same class.
const NameCharset = `[A-Za-z0-9_.\-]`

var (
	keywordRe  = regexp.MustCompile(`@(\w+)`)
	doubleAtRe = regexp.MustCompile(`@{2,}`)
	openTagRe  = regexp.MustCompile(`<c-(` + NameCharset + `+)(\s(?:"[^"]*"|'[^']*'|[^<>"'])*|/)?>`)
	closeTagRe = regexp.MustCompile(`</c-(` + NameCharset + `+)\s*>`)
)

var keywords = map[string]Kind{
	"if":         OpenConditional,
	"elseif":     ElseConditional,
	"endif":      CloseConditional,
	"foreach":    OpenLoop,
	"endforeach": CloseLoop,
	"section":    OpenSection,
	"endsection": CloseSection,
	"extends":    ExtendsMarker,
}

// Keywords lists the directive vocabulary of the dialect, including the
// directives that carry no structure.
func Keywords() []string {
	return []string{
		"@if", "@elseif", "@endif",
		"@foreach", "@endforeach",
		"@section", "@endsection",
		"@extends", "@yield", "@include",
	}
}

// rank orders events that start on the same line: extends markers first, then
// repeated markers, conditionals, loops, sections and finally tags.
func rank(k Kind) int {
	switch k {
	case ExtendsMarker:
		return 0
	case DoubleAtMarker:
		return 1
	case OpenConditional, ElseConditional, CloseConditional:
		return 2
	case OpenLoop, CloseLoop:
		return 3
	case OpenSection, CloseSection:
		return 4
	default:
		return 5
	}
}

// RegexpTokenizer is the default Tokenizer.
type RegexpTokenizer struct{}

func NewRegexpTokenizer() *RegexpTokenizer {
	return &RegexpTokenizer{}
}

// Tokenize returns the events of cleaned ordered by line, then by construct,
// then by column.
func (t *RegexpTokenizer) Tokenize(cleaned string) []Event {
	doc := position.NewDocument(cleaned)
	events := make([]Event, 0)

	at := func(kind Kind, name string, start, end int) {
		events = append(events, Event{
			Kind:  kind,
			Name:  name,
			Range: position.Range{Start: doc.PlaceAt(start), End: doc.PlaceAt(end)},
		})
	}

	for _, loc := range doubleAtRe.FindAllStringIndex(cleaned, -1) {
		at(DoubleAtMarker, cleaned[loc[0]:loc[1]], loc[0], loc[1])
	}

	for _, m := range keywordRe.FindAllStringSubmatchIndex(cleaned, -1) {
		// part of a repeated marker run like @@if
		if m[0] > 0 && cleaned[m[0]-1] == '@' {
			continue
		}
		kind, ok := keywords[cleaned[m[2]:m[3]]]
		if !ok {
			continue
		}
		at(kind, cleaned[m[0]:m[1]], m[0], m[1])
	}

	for _, m := range openTagRe.FindAllStringSubmatchIndex(cleaned, -1) {
		kind := OpenTag
		inner := strings.TrimRightFunc(cleaned[m[0]:m[1]-1], unicode.IsSpace)
		if strings.HasSuffix(inner, "/") {
			kind = SelfClosedTag
		}
		at(kind, cleaned[m[2]:m[3]], m[0], m[1])
	}

	for _, m := range closeTagRe.FindAllStringSubmatchIndex(cleaned, -1) {
		at(CloseTag, cleaned[m[2]:m[3]], m[0], m[1])
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Line() != b.Line() {
			return a.Line() < b.Line()
		}
		if rank(a.Kind) != rank(b.Kind) {
			return rank(a.Kind) < rank(b.Kind)
		}
		return a.Range.Start.Character < b.Range.Start.Character
	})

	return events
}

// Tokenize runs the default tokenizer.
func Tokenize(cleaned string) []Event {
	return NewRegexpTokenizer().Tokenize(cleaned)
}
