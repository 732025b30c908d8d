package check

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"
)

// DefaultDescription labels checks configured without a description.
const DefaultDescription = "No description"

// LoadWarning describes a configuration entry that was not loaded.
type LoadWarning struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a Load call.
type LoadReport struct {
	// Changed is false when the text matched the previous load.
	Changed bool `json:"changed"`

	// Loaded is the number of records in the registry after the call.
	Loaded int `json:"loaded"`

	// Warnings lists entries skipped because of an unknown kind or
	// missing required parameters.
	Warnings []LoadWarning `json:"warnings,omitempty"`
}

// Registry is the ordered collection of check records.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Ordering: records keep configuration order.
//   - Errors: a failed Load leaves the previous records untouched.
type Registry struct {
	mu           sync.RWMutex
	records      []*Record
	lastText     string
	loaded       bool
	configStatus string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Load rebuilds the registry from configuration text.
func (r *Registry) Load(text string) (LoadReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded && text == r.lastText {
		return LoadReport{Changed: false, Loaded: len(r.records)}, nil
	}

	records, warnings, err := parseConfig(text)
	if err != nil {
		r.configStatus = "Invalid JSON. Please correct errors before saving."
		return LoadReport{Loaded: len(r.records)}, err
	}

	r.records = records
	r.lastText = text
	r.loaded = true
	r.configStatus = fmt.Sprintf("Loaded %d checks from configuration.", len(records))

	return LoadReport{Changed: true, Loaded: len(records), Warnings: warnings}, nil
}

// LoadFile reads path and loads it. YAML files (.yaml, .yml) are converted
// to JSON first.
func (r *Registry) LoadFile(path string) (LoadReport, error) {
	text, err := ReadConfigFile(path)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.configStatus = fmt.Sprintf("Error loading config: %v", err)
		return LoadReport{Loaded: len(r.records)}, err
	}
	return r.Load(text)
}

// ReadConfigFile returns the configuration text stored at path, as JSON.
func ReadConfigFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("check: read configuration: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		return string(converted), nil
	default:
		return string(data), nil
	}
}

// ValidateText parses text without touching any registry and reports what a
// Load would produce.
func ValidateText(text string) (LoadReport, error) {
	records, warnings, err := parseConfig(text)
	if err != nil {
		return LoadReport{}, err
	}
	return LoadReport{Changed: true, Loaded: len(records), Warnings: warnings}, nil
}

// ConfigStatus returns a human-readable message about the last load.
func (r *Registry) ConfigStatus() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configStatus
}

// Records returns the records in configuration order.
func (r *Registry) Records() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// At returns the record at index i.
func (r *Registry) At(i int) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i < 0 || i >= len(r.records) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return r.records[i], nil
}

// Snapshots copies the state of every record.
func (r *Registry) Snapshots() []Snapshot {
	records := r.Records()
	out := make([]Snapshot, len(records))
	for i, rec := range records {
		out[i] = rec.Snapshot()
	}
	return out
}

func parseConfig(text string) ([]*Record, []LoadWarning, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: unexpected data after top-level value", ErrConfigParse)
	}

	entries, ok := root.([]any)
	if !ok {
		return []*Record{}, nil, nil
	}

	records := make([]*Record, 0, len(entries))
	var warnings []LoadWarning

	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		typeName, ok := fields["sentry_type"].(string)
		if !ok {
			continue
		}

		kind := ParseKind(typeName)
		if kind == KindUnknown {
			warnings = append(warnings, LoadWarning{
				Index:  i,
				Type:   typeName,
				Reason: ErrUnknownKind.Error(),
			})
			continue
		}

		params, err := ParseParams(kind, fields)
		if err != nil {
			warnings = append(warnings, LoadWarning{
				Index:  i,
				Type:   typeName,
				Reason: err.Error(),
			})
			continue
		}

		description, _ := fields["description"].(string)
		if description == "" {
			description = DefaultDescription
		}

		records = append(records, NewRecord(typeName, description, params))
	}

	return records, warnings, nil
}
