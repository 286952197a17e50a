package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>The IDP <b>MUST</b>\n  expire tokens.</p>", "The IDP MUST expire tokens."},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
		{"<style>p{}</style>text<script>alert(1)</script>", "text"},
		{"a &amp; b", "a & b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in), tt.in)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 20))
	assert.Equal(t, "The IDP MUST…", Excerpt("<p>The IDP MUST expire refresh tokens.</p>", 15))
	assert.Equal(t, "everything", Excerpt("everything", 0))
}

func TestConverterMarkdown(t *testing.T) {
	c := NewConverter()
	assert.Equal(t, "The IDP **MUST** expire.", c.Markdown("<p>The IDP <b>MUST</b> expire.</p>"))
	assert.Equal(t, "", c.Markdown("  "))
}

func TestTableCell(t *testing.T) {
	assert.Equal(t, `a \| b c`, tableCell("a | b\nc"))
}
