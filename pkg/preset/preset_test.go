package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-consentform/pkg/consent"
)

const sample = `
language: en
storageMethod: cookie
consentTitle: We value your privacy
consentDescription: Pick what we may use.
services:
  - name: ga
    title: Google Analytics
    description: Traffic statistics
    purposes: [analytics, "statistics"]
    default: true
  - name: ads
    title: Ads
    description: Personalised ads
    purposes: "marketing, ,retargeting"
    required: true
  - name: bare
    title: Bare
    description: No purposes
`

func TestParse(t *testing.T) {
	got, err := Parse([]byte(sample), "sample.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Preset{
		Language:           "en",
		StorageMethod:      "cookie",
		ConsentTitle:       "We value your privacy",
		ConsentDescription: "Pick what we may use.",
		Services: []consent.Entry{
			{Name: "ga", Title: "Google Analytics", Description: "Traffic statistics", Purposes: []string{"analytics", "statistics"}, Default: true},
			{Name: "ads", Title: "Ads", Description: "Personalised ads", Purposes: []string{"marketing", "", "retargeting"}, Required: true},
			{Name: "bare", Title: "Bare", Description: "No purposes"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("preset mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("expected valid preset, got %v", err)
	}
}

func TestParse_JSON(t *testing.T) {
	got, err := Parse([]byte(`{"language":"de","services":[{"name":"x","purposes":["a"]}]}`), "p.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Language != "de" || len(got.Services) != 1 || got.Services[0].Purposes[0] != "a" {
		t.Fatalf("unexpected preset %+v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("  \n"), "blank.yaml"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Parse([]byte("services: [{purposes: {a: b}}]"), "bad.yaml"); err == nil {
		t.Fatalf("expected error for mapping purposes")
	}
	if _, err := Parse([]byte("language: [unclosed"), "broken.yaml"); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestValidate(t *testing.T) {
	err := Preset{}.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"presets/basic.yaml": {Data: []byte(sample)}}
	got, err := Load(fsys, "presets/basic.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(got.Services))
	}
	if _, err := Load(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if got.StorageMethod != "cookie" {
		t.Fatalf("unexpected storage method %q", got.StorageMethod)
	}
}
