// Package htmltext converts message and description bodies between HTML, Markdown and plain text.
package htmltext

import (
	"bytes"
	stdhtml "html"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// mdWriter накапливает Markdown по мере обхода токенов.
type mdWriter struct {
	out   strings.Builder
	lists []atom.Atom // стек вложенных ul/ol
	inPre bool
}

func (w *mdWriter) start(a atom.Atom) {
	switch a {
	case atom.B, atom.Strong:
		w.out.WriteString("**")
	case atom.I, atom.Em:
		w.out.WriteString("*")
	case atom.Code:
		w.out.WriteString("`")
	case atom.Pre:
		w.inPre = true
		w.out.WriteString("\n```\n")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.out.WriteString("\n" + strings.Repeat("#", headingLevel(a)) + " ")
	case atom.Br:
		w.out.WriteString("\n")
	case atom.P:
		w.out.WriteString("\n\n")
	case atom.A:
		w.out.WriteString("[")
	case atom.Ul, atom.Ol:
		w.lists = append(w.lists, a)
		w.out.WriteString("\n")
	case atom.Li:
		depth := len(w.lists) - 1
		if depth < 0 {
			depth = 0
		}
		w.out.WriteString(strings.Repeat("  ", depth))
		if len(w.lists) > 0 && w.lists[len(w.lists)-1] == atom.Ul {
			w.out.WriteString("- ")
		} else {
			w.out.WriteString("1. ")
		}
	}
}

func (w *mdWriter) end(a atom.Atom) {
	switch a {
	case atom.B, atom.Strong:
		w.out.WriteString("**")
	case atom.I, atom.Em:
		w.out.WriteString("*")
	case atom.Code:
		w.out.WriteString("`")
	case atom.Pre:
		w.inPre = false
		w.out.WriteString("\n```\n")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.out.WriteString("\n")
	case atom.A:
		w.out.WriteString("]")
	case atom.Ul, atom.Ol:
		if len(w.lists) > 0 {
			w.lists = w.lists[:len(w.lists)-1]
		}
		w.out.WriteString("\n")
	case atom.Li:
		w.out.WriteString("\n")
	}
}

func (w *mdWriter) text(s string) {
	if w.inPre || strings.TrimSpace(s) != "" {
		w.out.WriteString(s)
	}
}

func headingLevel(a atom.Atom) int {
	return int(a.String()[1] - '0')
}

// ToMarkdown renders an HTML body as Markdown for the terminal.
// Links keep their text in brackets; the href is not carried over.
func ToMarkdown(body string) string {
	w := &mdWriter{}
	z := xhtml.NewTokenizer(strings.NewReader(stdhtml.UnescapeString(body)))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.TrimSpace(w.out.String())
		case xhtml.TextToken:
			w.text(string(z.Text()))
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			w.start(atom.Lookup(name))
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			w.end(atom.Lookup(name))
		case xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			w.start(a)
			w.end(a)
		}
	}
}

var (
	markdownOnce sync.Once
	markdownConv goldmark.Markdown
)

func converter() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownConv = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				extension.DefinitionList,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithUnsafe(),
			),
		)
	})
	return markdownConv
}

// ToHTML prepares text for a message body. Markdown is rendered to HTML; plain text is put
// into a single paragraph as is, without escaping.
func ToHTML(text string, markdown bool) (string, error) {
	if !markdown {
		return "<p>" + text + "</p>", nil
	}
	var buf bytes.Buffer
	if err := converter().Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
