package diagnostic

import (
	"fmt"

	"github.com/walteh/viewphp-lsp/pkg/directive"
	"github.com/walteh/viewphp-lsp/pkg/position"
	"github.com/walteh/viewphp-lsp/pkg/scanner"
)

// UnclosedWindow is the widest range reported for an unclosed component.
const UnclosedWindow = 20

type family int

const (
	conditional family = iota
	loop
	section
)

var families = map[directive.Kind]family{
	directive.OpenConditional:  conditional,
	directive.ElseConditional:  conditional,
	directive.CloseConditional: conditional,
	directive.OpenLoop:         loop,
	directive.CloseLoop:        loop,
	directive.OpenSection:      section,
	directive.CloseSection:     section,
}

// Block is a directive pair that was opened and closed.
type Block struct {
	Name  string
	Open  position.Range
	Close position.Range
}

// Result holds everything one balance pass produced.
type Result struct {
	Diagnostics []Diagnostic
	Blocks      []Block
}

// Checker verifies that directive blocks and component tags are balanced.
type Checker struct {
	Tokenizer      directive.Tokenizer
	UnclosedWindow int
}

// NewChecker creates a Checker with the default tokenizer.
func NewChecker() *Checker {
	return &Checker{
		Tokenizer:      directive.NewRegexpTokenizer(),
		UnclosedWindow: UnclosedWindow,
	}
}

// Check returns the structural diagnostics of text. It never fails.
func (c *Checker) Check(text string) []Diagnostic {
	return c.Analyze(text).Diagnostics
}

// Analyze strips comments, tokenizes and runs the balance pass over text.
func (c *Checker) Analyze(text string) *Result {
	tok := c.Tokenizer
	if tok == nil {
		tok = directive.NewRegexpTokenizer()
	}
	window := c.UnclosedWindow
	if window <= 0 {
		window = UnclosedWindow
	}

	p := &pass{
		doc:    position.NewDocument(text),
		window: window,
		stacks: make(map[family][]pending),
		diags:  make([]Diagnostic, 0),
		blocks: make([]Block, 0),
	}

	for _, ev := range tok.Tokenize(scanner.Strip(text)) {
		p.apply(ev)
	}
	p.finish()

	sortDiagnostics(p.diags)

	return &Result{Diagnostics: p.diags, Blocks: p.blocks}
}

// Check runs a default Checker over text.
func Check(text string) []Diagnostic {
	return NewChecker().Check(text)
}

// Blocks returns the balanced directive pairs of text, in closing order.
func Blocks(text string) []Block {
	return NewChecker().Analyze(text).Blocks
}

// pending is an opener waiting for its closer. Directive openers remember
// the tag sequence at push time in mark; tags carry their own seq.
type pending struct {
	name string
	rng  position.Range
	seq  int
	mark int
}

type pass struct {
	doc     *position.Document
	window  int
	extends int
	stacks  map[family][]pending
	tags    []pending
	seq     int
	diags   []Diagnostic
	blocks  []Block
}

func (p *pass) report(rng position.Range, sev Severity, code Code, msg string) {
	p.diags = append(p.diags, Diagnostic{
		Range:    rng,
		Message:  msg,
		Severity: sev,
		Code:     code,
	})
}

func (p *pass) wholeLine(line int) position.Range {
	return position.LineRange(line, 0, len(p.doc.Line(line)))
}

func (p *pass) apply(ev directive.Event) {
	switch ev.Kind {
	case directive.ExtendsMarker:
		p.extends++
		if p.extends > 1 {
			p.report(p.wholeLine(ev.Line()), Error, CodeDuplicateExtends, "only one extends marker is allowed per document")
		}

	case directive.DoubleAtMarker:
		p.report(ev.Range, Error, CodeRepeatedMarker, "unexpected repeated marker")

	case directive.OpenConditional, directive.OpenLoop, directive.OpenSection:
		fam := families[ev.Kind]
		p.stacks[fam] = append(p.stacks[fam], pending{name: ev.Name, rng: ev.Range, mark: p.seq})

	case directive.ElseConditional:
		if len(p.stacks[conditional]) == 0 {
			p.unmatchedDirective(ev)
		}

	case directive.CloseConditional, directive.CloseLoop, directive.CloseSection:
		fam := families[ev.Kind]
		stack := p.stacks[fam]
		if len(stack) == 0 {
			p.unmatchedDirective(ev)
			return
		}
		open := stack[len(stack)-1]
		p.stacks[fam] = stack[:len(stack)-1]
		p.fence(open.mark)
		p.blocks = append(p.blocks, Block{Name: open.name, Open: open.rng, Close: ev.Range})

	case directive.OpenTag:
		p.seq++
		p.tags = append(p.tags, pending{name: ev.Name, rng: ev.Range, seq: p.seq})

	case directive.CloseTag:
		for i := len(p.tags) - 1; i >= 0; i-- {
			if p.tags[i].name == ev.Name {
				p.tags = append(p.tags[:i], p.tags[i+1:]...)
				return
			}
		}
		p.report(ev.Range, Warning, CodeUnmatchedTag, fmt.Sprintf("unmatched closing component </c-%s>", ev.Name))

	case directive.SelfClosedTag:
	}
}

func (p *pass) unmatchedDirective(ev directive.Event) {
	p.report(p.wholeLine(ev.Line()), Error, CodeUnmatchedDirective, "marker without matching opener: "+ev.Name)
}

// fence closes out every component opened after mark. A component opened
// inside a directive block has to be closed inside it.
func (p *pass) fence(mark int) {
	kept := p.tags[:0]
	for _, t := range p.tags {
		if t.seq > mark {
			p.unclosedTag(t)
			continue
		}
		kept = append(kept, t)
	}
	p.tags = kept
}

func (p *pass) unclosedTag(t pending) {
	start := t.rng.Start
	end := min(start.Character+p.window, len(p.doc.Line(start.Line)))
	p.report(position.LineRange(start.Line, start.Character, end), Warning, CodeUnclosedTag, fmt.Sprintf("unclosed component <c-%s>", t.name))
}

func (p *pass) finish() {
	for _, fam := range []family{conditional, loop, section} {
		for _, open := range p.stacks[fam] {
			p.report(p.wholeLine(open.rng.Start.Line), Warning, CodeUnclosedDirective, fmt.Sprintf("unclosed %s block", open.name))
		}
	}
	for _, t := range p.tags {
		p.unclosedTag(t)
	}
	p.tags = nil
}
