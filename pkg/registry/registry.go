package registry

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Field identifiers used to build control names. A control is named
// "<field>[<entry id>]" so a posted form binds to entries by id, not position.
const (
	FieldName        = "consentName"
	FieldTitle       = "consentTitle"
	FieldDescription = "consentDescription"
	FieldPurposes    = "consentPurposes"
	FieldDefault     = "consentDefault"
	FieldRequired    = "consentRequired"
)

// EntryClass is the class carried by every entry widget.
const EntryClass = "consent-option"

// RemoveClass marks remove buttons; EntryIDAttr carries the entry they
// belong to.
const (
	RemoveClass = "remove-consent-option"
	EntryIDAttr = "data-entry-id"
)

// Fields groups the input handles owned by one entry. They are created and
// destroyed together, which keeps every per-field collection in lock step.
type Fields struct {
	Name        *view.Node
	Title       *view.Node
	Description *view.Node
	Purposes    *view.Node
	Default     *view.Node
	Required    *view.Node
}

// Entry is one consent service widget.
type Entry struct {
	id       string
	widget   *view.Node
	fields   Fields
	remove   *view.Node
	registry *Registry
}

func (e *Entry) ID() string { return e.id }

// Widget is the entry's container node inside the registry container.
func (e *Entry) Widget() *view.Node { return e.widget }

func (e *Entry) Fields() Fields { return e.fields }

// RemoveControl is the entry's own remove button.
func (e *Entry) RemoveControl() *view.Node { return e.remove }

// Remove detaches this entry and no other. It reports false when the entry
// was already removed.
func (e *Entry) Remove() bool {
	if e == nil || e.registry == nil {
		return false
	}
	return e.registry.Remove(e.id)
}

// Fill writes entry values into the widget's controls.
func (e *Entry) Fill(entry consent.Entry) {
	if e == nil {
		return
	}
	e.fields.Name.SetValue(entry.Name)
	e.fields.Title.SetValue(entry.Title)
	e.fields.Description.SetValue(entry.Description)
	e.fields.Purposes.SetValue(consent.JoinPurposes(entry.Purposes))
	e.fields.Default.SetValue(strconv.FormatBool(entry.Default))
	e.fields.Required.SetValue(strconv.FormatBool(entry.Required))
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator overrides the UUID based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry is the ordered arena of entries rendered inside one container.
type Registry struct {
	container *view.Node
	order     []string
	entries   map[string]*Entry
	newID     func() string
	logger    *log.Logger
}

// New binds a registry to its container handle.
func New(container *view.Node, options ...Option) *Registry {
	r := &Registry{
		container: container,
		entries:   make(map[string]*Entry),
		newID:     uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Registry) Container() *view.Node { return r.container }

// Add appends a new entry widget with default and required preset to false.
func (r *Registry) Add() *Entry {
	id := r.newID()
	for id == "" || r.entries[id] != nil {
		id = uuid.NewString()
	}

	entry := &Entry{id: id, registry: r}
	entry.fields = Fields{
		Name:        view.New(view.TagInput, view.WithType("text"), view.WithName(ControlName(FieldName, id)), view.Required()),
		Title:       view.New(view.TagInput, view.WithType("text"), view.WithName(ControlName(FieldTitle, id)), view.Required()),
		Description: view.New(view.TagTextArea, view.WithName(ControlName(FieldDescription, id)), view.Required()),
		Purposes:    view.New(view.TagInput, view.WithType("text"), view.WithName(ControlName(FieldPurposes, id)), view.Required()),
		Default:     booleanSelect(ControlName(FieldDefault, id)),
		Required:    booleanSelect(ControlName(FieldRequired, id)),
	}
	entry.remove = view.New(view.TagButton,
		view.WithType("button"),
		view.WithClass(RemoveClass),
		view.WithText("Remove"),
		view.WithAttr(EntryIDAttr, id),
		view.OnClick(func() { entry.Remove() }),
	)

	entry.widget = view.New(view.TagDiv,
		view.WithID("consent-option-"+id),
		view.WithClass(EntryClass),
		view.WithAttr(EntryIDAttr, id),
	).Append(
		label("Name:"), entry.fields.Name,
		label("Title:"), entry.fields.Title,
		label("Description:"), entry.fields.Description,
		label("Purposes (comma-separated):"), entry.fields.Purposes,
		label("Default:"), entry.fields.Default,
		label("Required:"), entry.fields.Required,
		entry.remove,
	)

	r.container.Append(entry.widget)
	r.entries[id] = entry
	r.order = append(r.order, id)
	r.logger.Debug("consent entry added", log.String("entry", id), log.Int("entries", len(r.order)))
	return entry
}

// Remove detaches the entry with the given id. Unknown ids are ignored.
func (r *Registry) Remove(id string) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.widget.Detach()
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Debug("consent entry removed", log.String("entry", id), log.Int("entries", len(r.order)))
	return true
}

// Get returns the entry with the given id.
func (r *Registry) Get(id string) (*Entry, bool) {
	entry, ok := r.entries[id]
	return entry, ok
}

// Entries returns the live entries in user-visible order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Reset removes every entry.
func (r *Registry) Reset() {
	for _, id := range append([]string(nil), r.order...) {
		r.Remove(id)
	}
}

// ControlName returns the form control name for field of entry id.
func ControlName(field, id string) string {
	return fmt.Sprintf("%s[%s]", field, id)
}

func booleanSelect(name string) *view.Node {
	return view.New(view.TagSelect, view.WithName(name), view.WithOptions(
		view.SelectOption{Value: "true", Label: "true"},
		view.SelectOption{Value: "false", Label: "false", Selected: true},
	))
}

func label(text string) *view.Node {
	return view.New(view.TagLabel, view.WithText(text))
}
