// Package record implements symbol record intake: it normalizes raw extracted
// symbol records into validated, uniquely identified records ready for model
// assembly. Malformed records are skipped and reported, never fatal.
package record

import "strings"

// Raw is one record as produced by a source-extraction collaborator. The YAML
// tags define the on-disk record-file contract consumed by intake/recordfile.
type Raw struct {
	QualifiedName string   `yaml:"qualified_name" json:"qualified_name"`
	Kind          string   `yaml:"kind" json:"kind"`
	Signature     string   `yaml:"signature,omitempty" json:"signature,omitempty"`
	Modifiers     []string `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Attributes    []string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	BaseTypes     []string `yaml:"base_types,omitempty" json:"base_types,omitempty"`
	Summary       string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Parent        string   `yaml:"parent,omitempty" json:"parent,omitempty"`
	DeclOrder     int      `yaml:"decl_order" json:"decl_order"`
	Origin        string   `yaml:"origin,omitempty" json:"origin,omitempty"`
}

// Validated is a record that passed intake: kind tag verified, id computed and
// unique within the run. SimpleName is the last segment of the qualified name;
// the assembler composes full display names from the ownership chain.
type Validated struct {
	ID            ID
	Kind          Kind
	QualifiedName string
	SimpleName    string
	Signature     string
	Modifiers     []string
	Attributes    []string
	BaseTypes     []string
	Summary       string
	ParentName    string
	ParentID      ID // zero when the record declares no parent
	DeclOrder     int
	Origin        string
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
