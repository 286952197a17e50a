package report

import (
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

// Converter turns requirement descriptions, which are HTML fragments in the
// feed, into Markdown or plain text.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a description converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Markdown converts an HTML fragment to Markdown. Plain text passes through
// unchanged; on conversion failure the plain text of the fragment is returned.
func (c *Converter) Markdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	out, err := c.converter.ConvertString(fragment)
	if err != nil {
		return PlainText(fragment)
	}
	return strings.TrimSpace(out)
}

// PlainText returns the text content of an HTML fragment with whitespace
// collapsed. Script and style content is dropped.
func PlainText(fragment string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
			sb.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style"
}

// Excerpt returns at most limit runes of the plain text of fragment,
// cut at a word boundary and marked with an ellipsis when shortened.
func Excerpt(fragment string, limit int) string {
	text := PlainText(fragment)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

// tableCell makes s safe for a single Markdown table cell.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
