package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "fits", text: "short", limit: 10, want: []string{"short"}},
		{name: "hard cut", text: "xxxxxxxxxx", limit: 4, want: []string{"xxxx", "xxxx", "xx"}},
		{name: "space", text: "aaa bbb ccc", limit: 8, want: []string{"aaa bbb", "ccc"}},
		{name: "newline", text: "aaa\nbbb ccc", limit: 9, want: []string{"aaa\nbbb", "ccc"}},
		{name: "surrogate pairs", text: "😀😀😀", limit: 4, want: []string{"😀😀", "😀"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitMessage(tc.text, tc.limit))
		})
	}
}

func TestSplitMessageKeepsEverything(t *testing.T) {
	text := strings.Repeat("line of text\n", 400)
	chunks := splitMessage(text, maxMessageLen)

	assert.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf16Len(chunk), maxMessageLen)
	}
	assert.Equal(t, text, strings.Join(chunks, "\n"))
}
