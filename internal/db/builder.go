package db

import "strings"

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts an index definition over hashes.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix limits the index to keys with the given prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds sortable numeric fields.
func (b *IndexBuilder) Numeric(names ...string) *IndexBuilder {
	return b.add(FieldNumeric, true, names)
}

// Tag adds exact-match tag fields.
func (b *IndexBuilder) Tag(names ...string) *IndexBuilder {
	return b.add(FieldTag, false, names)
}

// Text adds full-text fields.
func (b *IndexBuilder) Text(names ...string) *IndexBuilder {
	return b.add(FieldText, false, names)
}

func (b *IndexBuilder) add(t FieldType, sortable bool, names []string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, IndexField{Name: n, Type: t, Sortable: sortable})
	}
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// String renders the full FT.CREATE command.
func (idx *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(idx.Args(), " ")
}
