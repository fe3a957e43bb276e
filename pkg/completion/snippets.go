package completion

import (
	"regexp"

	"github.com/walteh/viewphp-lsp/pkg/position"
)

type snippet struct {
	label  string
	body   string
	detail string
	word   *regexp.Regexp
}

func newSnippet(label, body, detail string) snippet {
	return snippet{
		label:  label,
		body:   body,
		detail: detail,
		word:   regexp.MustCompile(`@?` + regexp.QuoteMeta(label)),
	}
}

var snippets = []snippet{
	newSnippet("if", "@if (${1:condition})\n\t$0\n@endif", "ViewPHP @if ... @endif"),
	newSnippet("foreach", "@foreach (${1:condition})\n\t$0\n@endforeach", "ViewPHP @foreach ... @endforeach"),
	newSnippet("section", "@section('${1:value}')\n\t$0\n@endsection", "ViewPHP @section ... @endsection"),
	newSnippet("yield", "@yield('${1:value}')", "ViewPHP @yield"),
	newSnippet("include", "@include('${1:value}')", "ViewPHP @include"),
	newSnippet("extends", "@extends('${1:value}')", "ViewPHP @extends"),
	newSnippet("c-", "<c-${1:component} ${2:attr}=\"${3:value}\">\n\t$0\n</c-${1:component}>", "ViewPHP component tag"),
	newSnippet("{{", "{{ ${1:expr} }}", "Interpolation"),
}

// Snippets returns every directive snippet. An item replaces the word under
// the cursor when that word is its label, with or without the leading @.
func Snippets(c *Context) []Item {
	items := make([]Item, 0, len(snippets))
	for _, s := range snippets {
		item := Item{
			Label:      s.label,
			Kind:       KindSnippet,
			Detail:     s.detail,
			InsertText: s.body,
			Snippet:    true,
		}
		if _, start, end, ok := position.WordAt(c.Text, c.Character, s.word); ok {
			rng := position.LineRange(c.Line, start, end)
			item.Range = &rng
		}
		items = append(items, item)
	}
	return items
}
