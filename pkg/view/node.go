package view

import (
	"sort"
	"strings"
)

// Common element tags.
const (
	TagDiv      = "div"
	TagForm     = "form"
	TagSection  = "section"
	TagLabel    = "label"
	TagInput    = "input"
	TagTextArea = "textarea"
	TagSelect   = "select"
	TagButton   = "button"
	TagPre      = "pre"
	TagCode     = "code"
	TagP        = "p"
	TagStrong   = "strong"
	TagSpan     = "span"
	TagUL       = "ul"
	TagLI       = "li"
	TagH2       = "h2"
)

// SelectOption is one choice of a select element.
type SelectOption struct {
	Value    string
	Label    string
	Selected bool
}

// Node is an element of the view document. Every method is safe on a nil
// receiver: reads return zero values and writes are dropped, which lets
// presenters run against partially built layouts.
//
// Nodes are not synchronised; callers serialise access (the console holds
// one lock for the whole document).
type Node struct {
	Tag   string
	ID    string
	Class string
	Name  string
	Type  string

	attrs    map[string]string
	text     string
	value    string
	checked  bool
	hidden   bool
	required bool
	options  []SelectOption
	onClick  func()
	parent   *Node
	children []*Node
}

// Option configures a node at construction.
type Option func(*Node)

func WithID(id string) Option { return func(n *Node) { n.ID = id } }
func WithClass(class string) Option { return func(n *Node) { n.Class = class } }
func WithName(name string) Option { return func(n *Node) { n.Name = name } }
func WithType(typ string) Option { return func(n *Node) { n.Type = typ } }
func WithText(text string) Option { return func(n *Node) { n.text = text } }
func WithValue(value string) Option { return func(n *Node) { n.value = value } }
func Required() Option { return func(n *Node) { n.required = true } }
func Hidden() Option { return func(n *Node) { n.hidden = true } }
func OnClick(fn func()) Option { return func(n *Node) { n.onClick = fn } }
func WithChecked(checked bool) Option { return func(n *Node) { n.checked = checked } }
func WithAttr(key, value string) Option {
	return func(n *Node) { n.SetAttr(key, value) }
}

// WithOptions sets select options. The last option flagged Selected wins;
// when none is flagged the first option is selected.
func WithOptions(options ...SelectOption) Option {
	return func(n *Node) {
		n.options = append([]SelectOption(nil), options...)
		n.normaliseSelection()
	}
}

// New creates a detached element.
func New(tag string, options ...Option) *Node {
	n := &Node{Tag: strings.ToLower(strings.TrimSpace(tag))}
	for _, opt := range options {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Append attaches children in order, detaching them from any previous parent.
func (n *Node) Append(children ...*Node) *Node {
	if n == nil {
		return n
	}
	for _, child := range children {
		if child == nil || child == n {
			continue
		}
		child.Detach()
		child.parent = n
		n.children = append(n.children, child)
	}
	return n
}

// RemoveChild detaches child when it is a direct child of n.
func (n *Node) RemoveChild(child *Node) bool {
	if n == nil || child == nil {
		return false
	}
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent. Detaching a detached node is a no-op.
func (n *Node) Detach() bool {
	if n == nil || n.parent == nil {
		return false
	}
	return n.parent.RemoveChild(n)
}

// Clear removes every child.
func (n *Node) Clear() {
	if n == nil {
		return
	}
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return append([]*Node(nil), n.children...)
}

func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

func (n *Node) SetText(text string) {
	if n == nil {
		return
	}
	n.text = text
}

// Value returns the control value. For selects it is the selected option's
// value; for textareas and inputs it is the current value.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	if n.Tag == TagSelect {
		for _, opt := range n.options {
			if opt.Selected {
				return opt.Value
			}
		}
		return ""
	}
	return n.value
}

// SetValue writes the control value. Selects switch to the matching option
// and ignore unknown values.
func (n *Node) SetValue(value string) {
	if n == nil {
		return
	}
	if n.Tag == TagSelect {
		idx := -1
		for i, opt := range n.options {
			if opt.Value == value {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		for i := range n.options {
			n.options[i].Selected = i == idx
		}
		return
	}
	n.value = value
}

// Options returns a copy of the select options.
func (n *Node) Options() []SelectOption {
	if n == nil {
		return nil
	}
	return append([]SelectOption(nil), n.options...)
}

func (n *Node) Checked() bool {
	if n == nil {
		return false
	}
	return n.checked
}

func (n *Node) SetChecked(checked bool) {
	if n == nil {
		return
	}
	n.checked = checked
}

func (n *Node) Show() {
	if n == nil {
		return
	}
	n.hidden = false
}

func (n *Node) Hide() {
	if n == nil {
		return
	}
	n.hidden = true
}

// Visible reports whether the node itself is displayed.
func (n *Node) Visible() bool {
	return n != nil && !n.hidden
}

func (n *Node) IsRequired() bool {
	return n != nil && n.required
}

// Attr returns an extra attribute.
func (n *Node) Attr(key string) string {
	if n == nil || n.attrs == nil {
		return ""
	}
	return n.attrs[key]
}

func (n *Node) SetAttr(key, value string) {
	if n == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// Attrs returns the extra attributes sorted by key.
func (n *Node) Attrs() [][2]string {
	if n == nil || len(n.attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, n.attrs[k]})
	}
	return out
}

// Click runs the node's click handler, if any.
func (n *Node) Click() {
	if n == nil || n.onClick == nil {
		return
	}
	n.onClick()
}

// SetOnClick replaces the click handler.
func (n *Node) SetOnClick(fn func()) {
	if n == nil {
		return
	}
	n.onClick = fn
}

// Find returns the first descendant (or n itself) with the given id.
func (n *Node) Find(id string) *Node {
	if n == nil || id == "" {
		return nil
	}
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node (n included) matching pred, in document order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	if n == nil || pred == nil {
		return nil
	}
	var out []*Node
	n.Walk(func(node *Node) bool {
		if pred(node) {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants depth first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// TextContent concatenates the text of n and all descendants, like the DOM
// property of the same name.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.Walk(func(node *Node) bool {
		b.WriteString(node.text)
		return true
	})
	return b.String()
}

func (n *Node) normaliseSelection() {
	if len(n.options) == 0 {
		return
	}
	last := -1
	for i, opt := range n.options {
		if opt.Selected {
			last = i
		}
	}
	if last < 0 {
		last = 0
	}
	for i := range n.options {
		n.options[i].Selected = i == last
	}
}
