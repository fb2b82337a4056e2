// Package assembler turns the current view state into request payloads. It
// only reads: no control is modified and no validation is applied, so rows
// that are malformed or partially filled are forwarded to the backend as-is.
package assembler

import (
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/registry"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Fields holds the top-level controls of the configuration form. A nil
// handle stands for a missing control and yields a null value.
type Fields struct {
	Language           *view.Node
	StorageMethod      *view.Node
	ConsentTitle       *view.Node
	ConsentDescription *view.Node
}

// Source lists the entries to assemble in user-visible order.
type Source interface {
	Entries() []*registry.Entry
}

// Assemble builds a fresh KlaroConfig from the form controls and the
// entries of src.
func Assemble(fields Fields, src Source) consent.KlaroConfig {
	cfg := consent.KlaroConfig{
		Language:           optional(fields.Language),
		StorageMethod:      optional(fields.StorageMethod),
		ConsentTitle:       optional(fields.ConsentTitle),
		ConsentDescription: optional(fields.ConsentDescription),
		Services:           []consent.Entry{},
	}
	if src == nil {
		return cfg
	}
	for _, entry := range src.Entries() {
		if entry == nil {
			continue
		}
		cfg.Services = append(cfg.Services, ReadEntry(entry.Fields()))
	}
	return cfg
}

// ReadEntry reads one entry's controls.
func ReadEntry(f registry.Fields) consent.Entry {
	return consent.Entry{
		Name:        f.Name.Value(),
		Title:       f.Title.Value(),
		Description: f.Description.Value(),
		Purposes:    consent.SplitPurposes(f.Purposes.Value()),
		Default:     f.Default.Value() == "true",
		Required:    f.Required.Value() == "true",
	}
}

// Checkbox binds a consent category to its checkbox control.
type Checkbox struct {
	Category string
	Control  *view.Node
}

// ReadChoices reads the checked state of every checkbox, in order.
func ReadChoices(boxes []Checkbox) consent.Choices {
	out := make(consent.Choices, 0, len(boxes))
	for _, box := range boxes {
		out = append(out, consent.Choice{Category: box.Category, Granted: box.Control.Checked()})
	}
	return out
}

func optional(n *view.Node) *string {
	if n == nil {
		return nil
	}
	value := n.Value()
	return &value
}
