// Package markdown renders post bodies to HTML as templ components.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/eringen/devlog/slug"
)

// wordsPerMinute is the reading speed used by ReadingTime.
const wordsPerMinute = 200

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
		renderer.WithNodeRenderers(util.Prioritized(codeBlockRenderer{}, 100)),
	),
)

// Markdown returns a templ.Component that renders src as HTML.
func Markdown(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderMarkdown(&buf, src); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render returns the HTML for src.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, src); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderMarkdown writes the HTML representation of src to buf. Heading IDs
// are slugs of the heading text, suffixed -1, -2... when repeated.
func RenderMarkdown(buf *bytes.Buffer, src string) error {
	source := []byte(src)
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))
	if err := md.Renderer().Render(buf, source, doc); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

// ReadingTime estimates minutes needed to read body. Non-empty bodies take
// at least one minute.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

type headingIDs struct {
	used map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]int)}
}

func (h *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := slug.Make(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	if n, ok := h.used[base]; ok {
		for {
			n++
			id = fmt.Sprintf("%s-%d", base, n)
			if _, taken := h.used[id]; !taken {
				break
			}
		}
		h.used[base] = n
	}
	h.used[id] = 0
	return []byte(id)
}

func (h *headingIDs) Put(value []byte) {
	if _, ok := h.used[string(value)]; !ok {
		h.used[string(value)] = 0
	}
}

// codeBlockRenderer wraps fenced code in a container carrying a language
// badge for the theme.
type codeBlockRenderer struct{}

func (codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, renderFencedCode)
}

func renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := string(n.Language(source))
	if lang != "" {
		esc := html.EscapeString(lang)
		_, _ = w.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + esc + `">` + esc + `</span>`)
		_, _ = w.WriteString(`<pre class="code-block"><code class="language-` + esc + `">`)
	} else {
		_, _ = w.WriteString(`<pre class="code-block"><code>`)
	}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.WriteString(html.EscapeString(string(seg.Value(source))))
	}
	_, _ = w.WriteString("</code></pre>")
	if lang != "" {
		_, _ = w.WriteString("</div>")
	}
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}
