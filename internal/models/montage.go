package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Channel describes one electrode in the montage file.
type Channel struct {
	Name       string `yaml:"name"`
	CARExclude bool   `yaml:"car_exclude,omitempty"`
}

// Montage holds the electrode layout for a session.
type Montage struct {
	Channels []Channel `yaml:"channels"`
}

// LoadMontage reads and parses the montage.yaml file.
func LoadMontage(path string) (*Montage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read montage file: %w", err)
	}

	var montage Montage
	if err := yaml.Unmarshal(data, &montage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal montage YAML: %w", err)
	}

	return &montage, nil
}

// CARExcluded returns the indices of channels excluded from the common
// average reference.
func (m *Montage) CARExcluded() []int {
	var excluded []int
	for i, ch := range m.Channels {
		if ch.CARExclude {
			excluded = append(excluded, i)
		}
	}
	return excluded
}

// Names returns the channel names in montage order.
func (m *Montage) Names() []string {
	names := make([]string, len(m.Channels))
	for i, ch := range m.Channels {
		names[i] = ch.Name
	}
	return names
}
