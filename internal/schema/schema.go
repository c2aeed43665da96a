// Package schema derives JSON Schemas for protocol records from Go types.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// DraftURL is the $schema of generated documents.
const DraftURL = "https://json-schema.org/draft/2020-12/schema"

// Object is the schema of one record type.
type Object struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Required    []string       `json:"required,omitempty"`
}

// Generate produces the schema of a Go struct type T.
// It uses struct tags (json, jsonschema) to derive the JSON Schema. Nested
// structs are inlined rather than referenced.
func Generate[T any]() Object {
	var zero T
	r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	root := r.Reflect(&zero)

	return Object{
		Type:        "object",
		Description: root.Description,
		Properties:  schemaProperties(root),
		Required:    root.Required,
	}
}

// schemaProperties converts an ordered map of properties into a plain map.
func schemaProperties(s *jsonschema.Schema) map[string]any {
	if s.Properties == nil {
		return nil
	}
	props := make(map[string]any)
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = propertySchema(pair.Value)
	}
	return props
}

// propertySchema converts a single property schema to a serializable map.
func propertySchema(s *jsonschema.Schema) map[string]any {
	m := make(map[string]any)

	if s.Type != "" {
		m["type"] = s.Type
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.Default != nil {
		m["default"] = s.Default
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}

	// Handle pointer types: invopop/jsonschema uses anyOf for nullable types
	if len(s.AnyOf) > 0 {
		for _, sub := range s.AnyOf {
			if sub.Type != "null" && sub.Type != "" {
				m["type"] = sub.Type
				break
			}
		}
	}

	// Nested object properties
	if s.Properties != nil && s.Properties.Len() > 0 {
		m["type"] = "object"
		m["properties"] = schemaProperties(s)
		if len(s.Required) > 0 {
			m["required"] = s.Required
		}
	}

	// Array items
	if s.Items != nil {
		m["items"] = propertySchema(s.Items)
	}

	return m
}

// Document bundles named record schemas into one JSON Schema document.
func Document(title string, defs map[string]Object) ([]byte, error) {
	doc := map[string]any{
		"$schema": DraftURL,
		"title":   title,
		"$defs":   defs,
	}
	return json.MarshalIndent(doc, "", "  ")
}
