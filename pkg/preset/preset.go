// Package preset loads YAML or JSON files that prefill the consent form:
// top-level settings plus a list of services.
package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-consentform/pkg/consent"
)

// ErrEmpty is returned for blank preset documents.
var ErrEmpty = errors.New("preset: document is empty")

// Preset is a reusable starting point for the form. Empty settings leave
// the matching control untouched when applied.
type Preset struct {
	Language           string          `yaml:"language"`
	StorageMethod      string          `yaml:"storageMethod"`
	ConsentTitle       string          `yaml:"consentTitle"`
	ConsentDescription string          `yaml:"consentDescription"`
	Services           []consent.Entry `yaml:"services"`
}

type presetFile struct {
	Language           string         `yaml:"language"`
	StorageMethod      string         `yaml:"storageMethod"`
	ConsentTitle       string         `yaml:"consentTitle"`
	ConsentDescription string         `yaml:"consentDescription"`
	Services           []serviceEntry `yaml:"services"`
}

// serviceEntry accepts purposes either as a list or as the comma separated
// text an operator would type into the form.
type serviceEntry struct {
	Name        string    `yaml:"name"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Purposes    yaml.Node `yaml:"purposes"`
	Default     bool      `yaml:"default"`
	Required    bool      `yaml:"required"`
}

// Parse decodes a preset. source names the document in error messages.
func Parse(data []byte, source string) (Preset, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Preset{}, fmt.Errorf("%w: %s", ErrEmpty, source)
	}

	var raw presetFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Preset{}, fmt.Errorf("preset: parse %s: %w", source, err)
	}

	out := Preset{
		Language:           strings.TrimSpace(raw.Language),
		StorageMethod:      strings.TrimSpace(raw.StorageMethod),
		ConsentTitle:       raw.ConsentTitle,
		ConsentDescription: raw.ConsentDescription,
		Services:           make([]consent.Entry, 0, len(raw.Services)),
	}
	for i, svc := range raw.Services {
		purposes, err := decodePurposes(svc.Purposes)
		if err != nil {
			return Preset{}, fmt.Errorf("preset: %s service %d purposes: %w", source, i, err)
		}
		out.Services = append(out.Services, consent.Entry{
			Name:        svc.Name,
			Title:       svc.Title,
			Description: svc.Description,
			Purposes:    purposes,
			Default:     svc.Default,
			Required:    svc.Required,
		})
	}
	return out, nil
}

func decodePurposes(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return consent.SplitPurposes(node.Value), nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("expected a list or comma separated text at line %d", node.Line)
	}
}

// Load reads a preset from fsys.
func Load(fsys fs.FS, path string) (Preset, error) {
	if fsys == nil {
		return Preset{}, errors.New("preset: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFile reads a preset from the local filesystem.
func LoadFile(path string) (Preset, error) {
	clean := filepath.Clean(path)
	return Load(os.DirFS(filepath.Dir(clean)), filepath.Base(clean))
}

// Validate reports the problems the backend is known to reject: a missing
// language or an empty service list. It never blocks applying a preset.
func (p Preset) Validate() error {
	var errs []error
	if p.Language == "" {
		errs = append(errs, errors.New("preset: language is empty"))
	}
	if len(p.Services) == 0 {
		errs = append(errs, errors.New("preset: no services configured"))
	}
	return errors.Join(errs...)
}
