// Package source decodes a declaration graph written by a language front-end
// into a model.Module. YAML and JSON are accepted.
//
// Declarations nest: classlikes list their members, and DRIs are derived from
// the package, the enclosing classlikes and, for callables, the parameter types.
package source

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// File is the on-disk form of a module.
type File struct {
	Module       string            `json:"module" yaml:"module"`
	SourceSets   []model.SourceSet `json:"source_sets" yaml:"source_sets"`
	Declarations []Declaration     `json:"declarations" yaml:"declarations"`
}

// Declaration is the on-disk form of a declaration.
type Declaration struct {
	Package  string         `json:"package,omitempty" yaml:"package,omitempty"`
	Name     string         `json:"name" yaml:"name"`
	Kind     model.Kind     `json:"kind" yaml:"kind"`
	Language model.Language `json:"language,omitempty" yaml:"language,omitempty"`

	// SourceSets defaults to the enclosing declaration's, or every module source set.
	SourceSets []model.SourceSetID `json:"source_sets,omitempty" yaml:"source_sets,omitempty"`

	// Doc applies to every source set; Docs overrides it per source set.
	Doc  string                       `json:"doc,omitempty" yaml:"doc,omitempty"`
	Docs map[model.SourceSetID]string `json:"docs,omitempty" yaml:"docs,omitempty"`

	// Supertypes apply to every source set; SupertypesIn overrides them per source set.
	Supertypes   []Supertype                       `json:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	SupertypesIn map[model.SourceSetID][]Supertype `json:"supertypes_in,omitempty" yaml:"supertypes_in,omitempty"`

	TypeParams []string          `json:"type_params,omitempty" yaml:"type_params,omitempty"`
	Params     []model.Parameter `json:"params,omitempty" yaml:"params,omitempty"`
	Primary    bool              `json:"primary,omitempty" yaml:"primary,omitempty"`
	Members    []Declaration     `json:"members,omitempty" yaml:"members,omitempty"`
}

// Supertype references a classlike, by default in the referencing package.
type Supertype struct {
	Package   string   `json:"package,omitempty" yaml:"package,omitempty"`
	Class     string   `json:"class" yaml:"class"`
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Format is the encoding of a declaration file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor picks the format from a file extension; anything but .json is YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads and converts a declaration file.
func LoadFile(path string) (*model.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInput, "failed to read declaration file").
			WithContext("path", path).
			Build()
	}
	m, err := Decode(bytes.NewReader(data), FormatFor(path))
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return m, nil
}

// Decode reads a declaration file from r and builds the module.
func Decode(r io.Reader, format Format) (*model.Module, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&f)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInput, "invalid declaration file").Build()
	}
	return f.Build()
}
