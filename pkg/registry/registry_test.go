package registry

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/view"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func TestAdd_DefaultsAndNames(t *testing.T) {
	container := view.New(view.TagDiv)
	reg := New(container, WithIDGenerator(sequentialIDs()))

	entry := reg.Add()
	if entry.ID() != "e1" {
		t.Fatalf("unexpected id %q", entry.ID())
	}
	fields := entry.Fields()
	if fields.Default.Value() != "false" || fields.Required.Value() != "false" {
		t.Fatalf("default/required must be preselected false, got %q/%q", fields.Default.Value(), fields.Required.Value())
	}
	if fields.Name.Name != "consentName[e1]" {
		t.Fatalf("unexpected control name %q", fields.Name.Name)
	}
	if !fields.Name.IsRequired() || !fields.Description.IsRequired() {
		t.Fatalf("text controls must be required")
	}
	if len(container.Children()) != 1 || container.Children()[0] != entry.Widget() {
		t.Fatalf("widget not appended to container")
	}
}

func TestRemoveControl_DetachesOnlyItsEntry(t *testing.T) {
	container := view.New(view.TagDiv)
	reg := New(container, WithIDGenerator(sequentialIDs()))
	first := reg.Add()
	second := reg.Add()
	third := reg.Add()

	second.RemoveControl().Click()

	if reg.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", reg.Len())
	}
	got := []string{}
	for _, e := range reg.Entries() {
		got = append(got, e.ID())
	}
	if diff := cmp.Diff([]string{first.ID(), third.ID()}, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	children := container.Children()
	if len(children) != 2 || children[0] != first.Widget() || children[1] != third.Widget() {
		t.Fatalf("container does not match registry order")
	}

	// A second click on the detached control is a no-op.
	second.RemoveControl().Click()
	if reg.Remove(second.ID()) {
		t.Fatalf("removing an absent entry must report false")
	}
	if reg.Len() != 2 {
		t.Fatalf("no-op removal changed the registry")
	}
}

func TestInterleavedAddRemove_NetCount(t *testing.T) {
	reg := New(view.New(view.TagDiv))
	var live []*Entry
	for i := 0; i < 10; i++ {
		live = append(live, reg.Add())
		if i%3 == 2 {
			live[0].Remove()
			live = live[1:]
		}
	}
	if reg.Len() != len(live) {
		t.Fatalf("expected %d entries, got %d", len(live), reg.Len())
	}
	if got := len(reg.Container().Children()); got != len(live) {
		t.Fatalf("container has %d widgets, want %d", got, len(live))
	}
	reg.Reset()
	if reg.Len() != 0 || len(reg.Container().Children()) != 0 {
		t.Fatalf("reset should remove every entry")
	}
}

func TestFill_WritesControls(t *testing.T) {
	reg := New(view.New(view.TagDiv))
	entry := reg.Add()
	entry.Fill(consent.Entry{
		Name:        "analytics",
		Title:       "Analytics",
		Description: "Usage statistics",
		Purposes:    []string{"statistics", "performance"},
		Default:     true,
	})

	fields := entry.Fields()
	if fields.Purposes.Value() != "statistics, performance" {
		t.Fatalf("unexpected purposes %q", fields.Purposes.Value())
	}
	if fields.Default.Value() != "true" || fields.Required.Value() != "false" {
		t.Fatalf("unexpected booleans %q/%q", fields.Default.Value(), fields.Required.Value())
	}
}

func TestAdd_RegeneratesDuplicateIDs(t *testing.T) {
	reg := New(view.New(view.TagDiv), WithIDGenerator(func() string { return "same" }))
	a := reg.Add()
	b := reg.Add()
	if a.ID() == b.ID() {
		t.Fatalf("ids must be unique")
	}
}
