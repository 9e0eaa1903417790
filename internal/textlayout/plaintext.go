package textlayout

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips caption markup. Line-level tags (<br>, </p>, </div>)
// become newlines, every other tag is dropped, entities are decoded and
// non-breaking spaces turn into plain spaces.
func PlainText(markup string) string {
	if markup == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(strings.ReplaceAll(b.String(), "\u00a0", " "))
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			switch name, _ := z.TagName(); string(name) {
			case "div", "p":
				b.WriteByte('\n')
			}
		}
	}
}
