// Package schema defines the ordered feature layout shared by training and
// inference, and the encoder that turns raw field values into vectors.
//
// The position of a field in a Schema is its index in every Vector built from
// it. Artifacts persist the ordered names and rebuild the Schema with
// ForFeatures, so both code paths always encode identically.
package schema

import (
	"fmt"
	"strings"
)

// RawFields holds raw user or CSV values keyed by field name.
type RawFields map[string]string

// Vector is a fixed-order numeric encoding of one record.
type Vector []float64

// Schema is an immutable ordered list of fields.
type Schema struct {
	fields []Field
}

// New builds the schema of a predefined feature set.
func New(set FeatureSet) (*Schema, error) {
	names, err := FeatureNames(set)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, set)
	}
	return ForFeatures(names)
}

// Core returns the default six-field schema.
func Core() *Schema {
	s, err := New(FeatureSetCore)
	if err != nil {
		panic(err) // static table
	}
	return s
}

// ForFeatures builds a schema from an ordered list of catalog names.
func ForFeatures(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, ErrEmptySchema
	}
	seen := make(map[string]struct{}, len(names))
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFeature, name)
		}
		seen[name] = struct{}{}
		fields = append(fields, f)
	}
	return &Schema{fields: fields}, nil
}

// Len returns the vector length produced by this schema.
func (s *Schema) Len() int { return len(s.fields) }

// Names returns the ordered field names.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Matches reports whether names lists exactly this schema's fields, in order.
func (s *Schema) Matches(names []string) bool {
	if len(names) != len(s.fields) {
		return false
	}
	for i, f := range s.fields {
		if names[i] != f.Name {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	return "[" + strings.Join(s.Names(), ", ") + "]"
}

// Encode validates raw in schema order and returns its vector. It stops at
// the first invalid field and returns a *ValidationError for it.
func (s *Schema) Encode(raw RawFields) (Vector, error) {
	v := make(Vector, len(s.fields))
	for i, f := range s.fields {
		x, err := f.Parse(raw[f.Name])
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

// EncodeCells encodes one training row. Empty cells are reported in missing
// and left as zero for the caller to impute. Categorical cells may carry the
// numeric code instead of the label.
func (s *Schema) EncodeCells(cells map[string]string) (v Vector, missing []bool, err error) {
	v = make(Vector, len(s.fields))
	missing = make([]bool, len(s.fields))
	for i, f := range s.fields {
		cell := strings.TrimSpace(cells[f.Name])
		if cell == "" {
			missing[i] = true
			continue
		}
		x, err := f.parse(cell, true)
		if err != nil {
			return nil, nil, err
		}
		v[i] = x
	}
	return v, missing, nil
}
