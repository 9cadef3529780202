package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed families.yaml
var familiesYAML []byte

// Family is a coarse pricing bucket with its own generic base price, used
// when no exact reference price matches the material.
type Family struct {
	Name      string   `yaml:"name"`
	BasePrice float64  `yaml:"base_price"`
	Keywords  []string `yaml:"keywords"`
}

// FamilyTable resolves a normalized material name to its pricing family.
type FamilyTable struct {
	families []Family
}

// LoadFamilyTable parses the embedded taxonomy. The keyword lists are ad hoc
// and do not claim to cover arbitrary leaf names; unmatched materials stay
// unpriced.
func LoadFamilyTable() (*FamilyTable, error) {
	var doc struct {
		Families []Family `yaml:"families"`
	}
	if err := yaml.Unmarshal(familiesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse families.yaml: %w", err)
	}
	if len(doc.Families) == 0 {
		return nil, fmt.Errorf("families.yaml defines no families")
	}
	for _, f := range doc.Families {
		if f.Name == "" || f.BasePrice <= 0 || len(f.Keywords) == 0 {
			return nil, fmt.Errorf("families.yaml: family %q is incomplete", f.Name)
		}
	}
	return &FamilyTable{families: doc.Families}, nil
}

// Match returns the first family with a keyword contained in the normalized
// material name.
func (t *FamilyTable) Match(normalized string) (Family, bool) {
	for _, f := range t.families {
		for _, kw := range f.Keywords {
			if strings.Contains(normalized, kw) {
				return f, true
			}
		}
	}
	return Family{}, false
}
