package position

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Place is a zero-based line and column. Columns are byte offsets into the
// line unless a function says otherwise.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before reports whether p sorts strictly before o.
func (p Place) Before(o Place) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

type Range struct {
	Start Place
	End   Place
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Contains reports whether p lies within r, end inclusive.
func (r Range) Contains(p Place) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// LineRange returns the range covering [start, end) on a single line.
func LineRange(line, start, end int) Range {
	return Range{
		Start: Place{Line: line, Character: start},
		End:   Place{Line: line, Character: end},
	}
}

// Document indexes the line starts of a text so that byte offsets and
// line/column places can be converted in both directions.
type Document struct {
	text       string
	lineStarts []int
}

func NewDocument(text string) *Document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{text: text, lineStarts: starts}
}

func (d *Document) Text() string {
	return d.text
}

func (d *Document) LineCount() int {
	return len(d.lineStarts)
}

// Line returns the content of line i without its line terminator. Out of
// range lines are empty.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lineStarts) {
		return ""
	}
	start := d.lineStarts[i]
	end := len(d.text)
	if i+1 < len(d.lineStarts) {
		end = d.lineStarts[i+1] - 1
	}
	return strings.TrimSuffix(d.text[start:end], "\r")
}

// Lines splits the text the same way Line does.
func (d *Document) Lines() []string {
	out := make([]string, d.LineCount())
	for i := range out {
		out[i] = d.Line(i)
	}
	return out
}

// Offset converts a byte-column place to a byte offset, clamping to the text.
func (d *Document) Offset(p Place) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	line := d.Line(p.Line)
	col := p.Character
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	return d.lineStarts[p.Line] + col
}

// PlaceAt converts a byte offset to a byte-column place.
func (d *Document) PlaceAt(offset int) Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	idx := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > offset }) - 1
	return Place{Line: idx, Character: offset - d.lineStarts[idx]}
}

// ToUTF16 converts a byte column on line into UTF-16 code units, the unit LSP
// clients count in.
func ToUTF16(line string, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	units := 0
	for off := 0; off < byteCol; {
		r, size := utf8.DecodeRuneInString(line[off:])
		if off+size > byteCol {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += size
	}
	return units
}

// FromUTF16 converts a UTF-16 column on line back to a byte column.
func FromUTF16(line string, col int) int {
	units := 0
	off := 0
	for off < len(line) && units < col {
		r, size := utf8.DecodeRuneInString(line[off:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > col {
			break
		}
		units += need
		off += size
	}
	return off
}

// ToUTF16Place converts a byte-column place of this document to UTF-16 columns.
func (d *Document) ToUTF16Place(p Place) Place {
	return Place{Line: p.Line, Character: ToUTF16(d.Line(p.Line), p.Character)}
}

// FromUTF16Place converts a UTF-16 place to byte columns.
func (d *Document) FromUTF16Place(p Place) Place {
	return Place{Line: p.Line, Character: FromUTF16(d.Line(p.Line), p.Character)}
}

func (d *Document) ToUTF16Range(r Range) Range {
	return Range{Start: d.ToUTF16Place(r.Start), End: d.ToUTF16Place(r.End)}
}

// WordAt finds the match of re on line that touches col, mirroring how
// editors resolve the "word" under the cursor.
func WordAt(line string, col int, re *regexp.Regexp) (word string, start, end int, ok bool) {
	for _, loc := range re.FindAllStringIndex(line, -1) {
		if loc[0] <= col && col <= loc[1] {
			return line[loc[0]:loc[1]], loc[0], loc[1], true
		}
		if loc[0] > col {
			break
		}
	}
	return "", 0, 0, false
}
