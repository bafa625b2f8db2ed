// ABOUTME: Markdown to WhatsApp markup conversion built on the goldmark parser
// ABOUTME: Walks the AST and emits WhatsApp bold, italic, strike and monospace markers

package format

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Converter turns markdown into WhatsApp markup. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter with strikethrough and autolink support.
func New() *Converter {
	return &Converter{
		md: goldmark.New(goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		)),
	}
}

// Convert renders markdown as WhatsApp markup. Input that renders to nothing
// (an HTML comment, say) is returned trimmed but otherwise untouched.
func (c *Converter) Convert(markdown string) string {
	src := []byte(markdown)
	doc := c.md.Parser().Parse(text.NewReader(src))

	r := &renderer{src: src}
	out := strings.TrimSpace(r.blocks(doc, "\n\n"))
	if out == "" {
		return strings.TrimSpace(markdown)
	}
	return out
}

var defaultConverter = New()

// ToWhatsApp converts markdown using a shared Converter.
func ToWhatsApp(markdown string) string {
	return defaultConverter.Convert(markdown)
}

type renderer struct {
	src []byte
}

// blocks renders the block children of parent joined by sep.
func (r *renderer) blocks(parent ast.Node, sep string) string {
	var parts []string
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if s := r.block(n); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func (r *renderer) block(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return r.inlines(n)
	case *ast.Heading:
		return wrap("*", strings.TrimSpace(r.inlines(n)))
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return "```\n" + strings.TrimRight(r.lines(n), "\n") + "\n```"
	case *ast.HTMLBlock:
		return strings.TrimSpace(r.lines(n))
	case *ast.List:
		return r.list(n)
	case *ast.Blockquote:
		inner := r.blocks(n, "\n\n")
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		return strings.Join(lines, "\n")
	case *ast.ThematicBreak:
		return "---"
	default:
		return r.blocks(n, "\n\n")
	}
}

func (r *renderer) list(l *ast.List) string {
	var items []string
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		body := r.blocks(item, "\n")
		indent := strings.Repeat(" ", len(marker))
		items = append(items, marker+strings.ReplaceAll(body, "\n", "\n"+indent))
	}

	sep := "\n"
	if !l.IsTight {
		sep = "\n\n"
	}
	return strings.Join(items, sep)
}

func (r *renderer) inlines(parent ast.Node) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.inline(&b, n)
	}
	return b.String()
}

func (r *renderer) inline(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(util.UnescapePunctuations(n.Segment.Value(r.src)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			b.WriteByte('\n')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		mark := "_"
		if n.Level >= 2 {
			mark = "*"
		}
		b.WriteString(wrap(mark, r.inlines(n)))
	case *east.Strikethrough:
		b.WriteString(wrap("~", r.inlines(n)))
	case *ast.CodeSpan:
		b.WriteString(wrap("```", r.code(n)))
	case *ast.Link:
		b.WriteString(labelled(r.inlines(n), string(n.Destination)))
	case *ast.Image:
		b.WriteString(labelled(r.inlines(n), string(n.Destination)))
	case *ast.AutoLink:
		b.Write(n.URL(r.src))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(r.src))
		}
	default:
		b.WriteString(r.inlines(n))
	}
}

// code returns the literal text of a code span, backslashes included.
func (r *renderer) code(n *ast.CodeSpan) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(r.src))
		case *ast.String:
			b.Write(c.Value)
		}
	}
	return b.String()
}

// lines concatenates the raw source lines of a block node.
func (r *renderer) lines(n ast.Node) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(r.src))
	}
	return b.String()
}

func wrap(mark, s string) string {
	if s == "" {
		return ""
	}
	return mark + s + mark
}

// labelled renders a link as "label (url)", or just the url when the label
// adds nothing.
func labelled(label, dest string) string {
	if label == "" || label == dest {
		return dest
	}
	return label + " (" + dest + ")"
}
