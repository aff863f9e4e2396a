package messages

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

var md = goldmark.New()

// StripMarkdown renders markdown and returns only its text content, with
// ordered list items keeping their numbers. The input is returned as is when
// it cannot be rendered.
func StripMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return text
	}

	var (
		sb strings.Builder
		// next item number per open list, -1 for bullet lists
		lists []int
	)
	z := html.NewTokenizer(&buf)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "ol":
				lists = append(lists, listStart(z, hasAttr))
			case "ul":
				lists = append(lists, -1)
			case "li":
				if n := len(lists); n > 0 && lists[n-1] >= 0 {
					fmt.Fprintf(&sb, "%d. ", lists[n-1])
					lists[n-1]++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "ol", "ul":
				if len(lists) > 0 {
					lists = lists[:len(lists)-1]
				}
			}
		}
	}
}

func listStart(z *html.Tokenizer, hasAttr bool) int {
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "start" {
			if n, err := strconv.Atoi(string(val)); err == nil {
				return n
			}
		}
	}
	return 1
}
