package consent

import (
	"bytes"
	"encoding/json"
)

// Entry is one consent service row of the dynamic form.
type Entry struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Purposes    []string `json:"purposes" yaml:"purposes"`
	Default     bool     `json:"default" yaml:"default"`
	Required    bool     `json:"required" yaml:"required"`
}

// KlaroConfig is the snapshot posted to the template generation endpoint.
// Top-level settings are nullable: a form without the matching control
// serialises the value as JSON null and the backend decides what to do.
type KlaroConfig struct {
	Language           *string `json:"language"`
	StorageMethod      *string `json:"storageMethod"`
	ConsentTitle       *string `json:"consentTitle"`
	ConsentDescription *string `json:"consentDescription"`
	Services           []Entry `json:"services"`
}

// MarshalJSON keeps services an array even when no entry is configured.
func (c KlaroConfig) MarshalJSON() ([]byte, error) {
	type alias KlaroConfig
	out := alias(c)
	if out.Services == nil {
		out.Services = []Entry{}
	}
	return json.Marshal(out)
}

// StringPtr is a convenience for building KlaroConfig values.
func StringPtr(v string) *string {
	return &v
}

// Choice is the state of a single consent category checkbox.
type Choice struct {
	Category string
	Granted  bool
}

// Choices is the ordered set of consent categories sent to the simulation
// endpoint. It serialises as a JSON object whose keys follow slice order.
type Choices []Choice

// Get reports the state of category and whether it is known.
func (c Choices) Get(category string) (granted bool, ok bool) {
	for _, choice := range c {
		if choice.Category == category {
			return choice.Granted, true
		}
	}
	return false, false
}

func (c Choices) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	seen := make(map[string]struct{}, len(c))
	for _, choice := range c {
		if _, dup := seen[choice.Category]; dup {
			continue
		}
		seen[choice.Category] = struct{}{}
		if written > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(choice.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if choice.Granted {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DefaultCategories lists the categories the debug form offers out of the box.
var DefaultCategories = []string{"analytics", "marketing"}
