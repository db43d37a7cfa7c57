// Package model contains the entity types persisted by the service.
// Struct tags drive JSON/BSON encoding, validation and the published schema.
// A `jsonschema:"required"` field must be present and non-null; `validate`
// tags only constrain values that are present.
package model

// Record is a stored document as returned to callers. The store's native
// identifier has been replaced by a string "id" field.
type Record map[string]any

// ID returns the record's identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter restricts queries to documents whose fields equal the given values.
// An empty Filter matches every document.
type Filter map[string]any

// Defaulter is implemented by entities that fill in default values after decoding.
type Defaulter interface {
	ApplyDefaults()
}
