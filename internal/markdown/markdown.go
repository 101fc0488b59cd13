package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts chapter markdown bodies to HTML.
//
// Raw HTML is allowed: chapters embed figures and math markup directly.
// Math delimiters ($...$, $$...$$) pass through untouched for client-side
// rendering.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer constructs the shared goldmark pipeline for chapter bodies.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(
					util.Prioritized(resolveTransformer{}, 500),
				),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Render converts a markdown body (frontmatter already removed) to HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	return r.RenderResolved(body, nil)
}

// RenderResolved converts a markdown body to HTML, rewriting link
// destinations through resolve first. A nil resolver leaves every
// destination as written.
func (r *Renderer) RenderResolved(body []byte, resolve LinkResolver) ([]byte, error) {
	var buf bytes.Buffer
	pc := parser.NewContext()
	if resolve != nil {
		pc.Set(linkResolverKey, resolve)
	}
	if err := r.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// LinkResolver maps a raw link destination to the form it should carry in
// the rendered page. ok=false leaves the destination untouched.
type LinkResolver func(dest string) (rewritten string, ok bool)

// linkResolverKey carries the per-render LinkResolver through the parser.
var linkResolverKey = parser.NewContextKey()

// resolveTransformer rewrites link destinations using the LinkResolver
// attached to the parse context, if any.
type resolveTransformer struct{}

func (resolveTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	v := pc.Get(linkResolverKey)
	if v == nil {
		return
	}
	resolve := v.(LinkResolver)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if out, ok := resolve(string(link.Destination)); ok {
				link.Destination = []byte(out)
			}
		}
		return ast.WalkContinue, nil
	})
}
