package db

import (
	"errors"
	"fmt"
	"strconv"
)

// FieldType is the FT schema type of an indexed hash field.
type FieldType string

// Field types used by the profile schema.
const (
	FieldNumeric FieldType = "NUMERIC"
	FieldTag     FieldType = "TAG"
	FieldText    FieldType = "TEXT"
)

func (t FieldType) valid() bool {
	return t == FieldNumeric || t == FieldTag || t == FieldText
}

// IndexField is one SCHEMA entry. Only numeric fields may be sortable.
type IndexField struct {
	Name     string
	Type     FieldType
	Sortable bool
}

// IndexDefinition describes an FT index over hashes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks names, types and duplicates.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !validName(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if !validName(f.Name) {
			return fmt.Errorf("field %q contains invalid characters", f.Name)
		}
		if !f.Type.valid() {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		if f.Sortable && f.Type != FieldNumeric {
			return fmt.Errorf("field %q: only numeric fields are sortable", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Args renders the FT.CREATE arguments after the command name.
func (idx *IndexDefinition) Args() []string {
	args := []string{idx.Name, "ON", "HASH"}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for _, f := range idx.Fields {
		args = append(args, f.Name, string(f.Type))
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args
}

// validName accepts [a-zA-Z0-9_:-]+, the characters index and field names use.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
