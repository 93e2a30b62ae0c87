package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
)

// Definition describes a composable graph in YAML: the root index, the
// sub-indices, and their documents. Placeholder documents reference another
// index by id and carry summary text that retrieval matches against.
type Definition struct {
	Root    string            `yaml:"root"`
	Indices []IndexDefinition `yaml:"indices"`
}

// IndexDefinition describes one sub-index.
type IndexDefinition struct {
	ID        string               `yaml:"id"`
	Kind      string               `yaml:"kind"`
	Documents []DocumentDefinition `yaml:"documents"`
}

// DocumentDefinition describes one document. Exactly one of Text and Ref
// must be set; Summary is only meaningful alongside Ref.
type DocumentDefinition struct {
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Ref     string `yaml:"ref"`
	Summary string `yaml:"summary"`
}

// LoadDefinition reads and validates a graph definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gqerrors.New(gqerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("graph definition not found: %s", path), err)
		}
		return nil, gqerrors.ConfigError(fmt.Sprintf("reading %s", path), err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, gqerrors.ConfigError(fmt.Sprintf("parsing %s", path), err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks structural invariants: a present root, unique index ids,
// known kinds, well-formed documents, and resolvable placeholder targets.
func (d *Definition) Validate() error {
	if len(d.Indices) == 0 {
		return gqerrors.New(gqerrors.ErrCodeEmptyGraph, "definition has no indices", nil)
	}
	if d.Root == "" {
		return gqerrors.ValidationError("definition root is required", nil)
	}

	ids := make(map[string]bool, len(d.Indices))
	for _, idx := range d.Indices {
		if idx.ID == "" {
			return gqerrors.ValidationError("index id is required", nil)
		}
		if ids[idx.ID] {
			return gqerrors.ValidationError(fmt.Sprintf("duplicate index id %q", idx.ID), nil)
		}
		ids[idx.ID] = true

		switch idx.Kind {
		case "vector", "keyword":
		default:
			return gqerrors.ValidationError(
				fmt.Sprintf("index %q: kind must be vector or keyword, got %q", idx.ID, idx.Kind), nil)
		}
	}

	if !ids[d.Root] {
		return gqerrors.ValidationError(fmt.Sprintf("root %q is not a defined index", d.Root), nil)
	}

	for _, idx := range d.Indices {
		for i, doc := range idx.Documents {
			hasText := doc.Text != ""
			hasRef := doc.Ref != ""
			if hasText == hasRef {
				return gqerrors.ValidationError(
					fmt.Sprintf("index %q document %d: exactly one of text and ref is required", idx.ID, i), nil)
			}
			if hasRef {
				if !ids[doc.Ref] {
					return gqerrors.UnknownIndexError(doc.Ref)
				}
				if doc.Summary == "" {
					return gqerrors.ValidationError(
						fmt.Sprintf("index %q document %d: ref requires a summary", idx.ID, i), nil)
				}
			}
		}
	}
	return nil
}
