package position_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/viewphp-lsp/pkg/position"
)

func TestDocumentPlaceAt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   position.Place
	}{
		{
			name:   "empty text",
			text:   "",
			offset: 0,
			want:   position.Place{Line: 0, Character: 0},
		},
		{
			name:   "single line",
			text:   "Hello, World!",
			offset: 7,
			want:   position.Place{Line: 0, Character: 7},
		},
		{
			name:   "start of second line",
			text:   "Hello\nWorld",
			offset: 6,
			want:   position.Place{Line: 1, Character: 0},
		},
		{
			name:   "newline belongs to first line",
			text:   "Hello\nWorld",
			offset: 5,
			want:   position.Place{Line: 0, Character: 5},
		},
		{
			name:   "past the end clamps",
			text:   "ab\ncd",
			offset: 99,
			want:   position.Place{Line: 1, Character: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := position.NewDocument(tt.text)
			got := doc.PlaceAt(tt.offset)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, min(tt.offset, len(tt.text)), doc.Offset(got), "offset round trip")
		})
	}
}

func TestDocumentLines(t *testing.T) {
	doc := position.NewDocument("one\r\ntwo\n\nfour")

	require.Equal(t, 4, doc.LineCount())
	assert.Equal(t, []string{"one", "two", "", "four"}, doc.Lines())
	assert.Equal(t, "", doc.Line(-1))
	assert.Equal(t, "", doc.Line(4))
}

func TestUTF16Conversion(t *testing.T) {
	line := "a😀é<c-x>"

	// 'a' = 1 byte, emoji = 4 bytes / 2 units, 'é' = 2 bytes / 1 unit
	assert.Equal(t, 0, position.ToUTF16(line, 0))
	assert.Equal(t, 1, position.ToUTF16(line, 1))
	assert.Equal(t, 3, position.ToUTF16(line, 5))
	assert.Equal(t, 4, position.ToUTF16(line, 7))
	assert.Equal(t, 9, position.ToUTF16(line, len(line)))

	assert.Equal(t, 5, position.FromUTF16(line, 3))
	assert.Equal(t, 7, position.FromUTF16(line, 4))
	assert.Equal(t, len(line), position.FromUTF16(line, 100))

	doc := position.NewDocument("x\n" + line)
	got := doc.ToUTF16Range(position.LineRange(1, 7, 12))
	assert.Equal(t, position.LineRange(1, 4, 9), got)
	assert.Equal(t, position.Place{Line: 1, Character: 7}, doc.FromUTF16Place(position.Place{Line: 1, Character: 4}))
}

func TestWordAt(t *testing.T) {
	re := regexp.MustCompile(`c-[\w.\-]+`)

	tests := []struct {
		name      string
		line      string
		col       int
		wantWord  string
		wantStart int
		wantOK    bool
	}{
		{name: "inside", line: `<c-nav.item foo="x">`, col: 5, wantWord: "c-nav.item", wantStart: 1, wantOK: true},
		{name: "at end", line: `<c-nav>`, col: 6, wantWord: "c-nav", wantStart: 1, wantOK: true},
		{name: "second tag", line: `<c-a></c-b>`, col: 8, wantWord: "c-b", wantStart: 7, wantOK: true},
		{name: "miss", line: `<div class="x">`, col: 3, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end, ok := position.WordAt(tt.line, tt.col, re)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantWord, word)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantStart+len(tt.wantWord), end)
		})
	}
}

func TestRangeContains(t *testing.T) {
	r := position.Range{Start: position.Place{Line: 1, Character: 2}, End: position.Place{Line: 3, Character: 0}}

	assert.True(t, r.Contains(position.Place{Line: 1, Character: 2}))
	assert.True(t, r.Contains(position.Place{Line: 2, Character: 50}))
	assert.True(t, r.Contains(position.Place{Line: 3, Character: 0}))
	assert.False(t, r.Contains(position.Place{Line: 1, Character: 1}))
	assert.False(t, r.Contains(position.Place{Line: 3, Character: 1}))
}
