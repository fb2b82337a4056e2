// Package page renders the view document as an HTML page. The node tree is
// flattened into a linear token stream first, so the template is a single
// loop and never recurses.
package page

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/goliatone/go-consentform/pkg/view"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// DefaultTemplate is the page layout shipped with the package.
const DefaultTemplate = "page"

// Token kinds.
const (
	KindOpen  = "open"
	KindClose = "close"
	KindText  = "text"
)

// Attr is one HTML attribute. Boolean attributes render without a value.
type Attr struct {
	Name  string
	Value string
	Bool  bool
}

// Token is one step of the flattened document.
type Token struct {
	Kind  string
	Tag   string
	Text  string
	Attrs []Attr
}

// Decorator returns extra attributes for a node, such as form actions. The
// returned values override the node's own attributes.
type Decorator func(n *view.Node) map[string]string

var voidTags = map[string]bool{view.TagInput: true}

// Tokens flattens root into open, text and close tokens in document order.
func Tokens(root *view.Node, decorate Decorator) []Token {
	var out []Token
	appendTokens(&out, root, decorate)
	return out
}

func appendTokens(out *[]Token, n *view.Node, decorate Decorator) {
	if n == nil {
		return
	}
	*out = append(*out, Token{Kind: KindOpen, Tag: n.Tag, Attrs: attributes(n, decorate)})
	if voidTags[n.Tag] {
		return
	}

	switch n.Tag {
	case view.TagSelect:
		for _, opt := range n.Options() {
			attrs := []Attr{{Name: "value", Value: opt.Value}}
			if opt.Selected {
				attrs = append(attrs, Attr{Name: "selected", Bool: true})
			}
			*out = append(*out,
				Token{Kind: KindOpen, Tag: "option", Attrs: attrs},
				Token{Kind: KindText, Text: opt.Label},
				Token{Kind: KindClose, Tag: "option"},
			)
		}
	case view.TagTextArea:
		*out = append(*out, Token{Kind: KindText, Text: n.Value()})
	default:
		if text := n.Text(); text != "" {
			*out = append(*out, Token{Kind: KindText, Text: text})
		}
		for _, child := range n.Children() {
			appendTokens(out, child, decorate)
		}
	}
	*out = append(*out, Token{Kind: KindClose, Tag: n.Tag})
}

func attributes(n *view.Node, decorate Decorator) []Attr {
	values := map[string]string{}
	for _, kv := range n.Attrs() {
		values[kv[0]] = kv[1]
	}
	set := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	set("id", n.ID)
	set("class", n.Class)
	set("name", n.Name)
	set("type", n.Type)
	if n.Tag == view.TagInput {
		set("value", n.Value())
	}
	if decorate != nil {
		for key, value := range decorate(n) {
			values[key] = value
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Attr, 0, len(keys)+3)
	for _, key := range keys {
		out = append(out, Attr{Name: key, Value: values[key]})
	}

	if !n.Visible() {
		out = append(out, Attr{Name: "hidden", Bool: true})
	}
	if n.IsRequired() {
		out = append(out, Attr{Name: "required", Bool: true})
	}
	if n.Checked() {
		out = append(out, Attr{Name: "checked", Bool: true})
	}
	return out
}

// Document is everything one page shows.
type Document struct {
	Title   string
	Root    *view.Node
	Notices []view.Notice
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngine swaps the template engine, for custom layouts.
func WithEngine(engine *Engine) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithTemplate selects the layout template by name.
func WithTemplate(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.template = name
		}
	}
}

func WithDecorator(decorate Decorator) Option {
	return func(r *Renderer) {
		r.decorate = decorate
	}
}

// Renderer writes Documents as HTML.
type Renderer struct {
	engine   *Engine
	template string
	decorate Decorator
}

func NewRenderer(options ...Option) (*Renderer, error) {
	r := &Renderer{template: DefaultTemplate}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		engine, err := NewEngine()
		if err != nil {
			return nil, err
		}
		r.engine = engine
	}
	return r, nil
}

// Render writes doc to w. The caller must keep the document stable while
// the tokens are collected.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	if r == nil || r.engine == nil {
		return errors.New("page: renderer is nil")
	}
	if doc.Root == nil {
		return errors.New("page: document root is nil")
	}
	data := map[string]any{
		"title":   doc.Title,
		"tokens":  Tokens(doc.Root, r.decorate),
		"notices": doc.Notices,
	}
	if _, err := r.engine.RenderTemplate(r.template, data, w); err != nil {
		return fmt.Errorf("page: render %q: %w", r.template, err)
	}
	return nil
}
