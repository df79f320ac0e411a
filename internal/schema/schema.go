// Package schema is the structured-output validator used by the outline
// generation call. It does the minimal real check the outline actually
// needs (required keys present, expected JSON kind per property), since the
// generation workflow depends on the validation outcome.
package schema

import "fmt"

// Validator validates a decoded JSON value against a schema.
type Validator interface {
	Validate(data interface{}) error
	JSONSchema() map[string]interface{}
}

// Schema exposes a Validator for a structured-output request.
type Schema interface {
	Validator() Validator
}

// JSONSchemaValidator validates a narrow but practically useful subset of
// JSON Schema: object "required" and per-property "type".
type JSONSchemaValidator struct {
	schema map[string]interface{}
}

// NewJSONSchema wraps a JSON Schema document.
func NewJSONSchema(schema map[string]interface{}) *JSONSchemaValidator {
	return &JSONSchemaValidator{schema: schema}
}

func (v *JSONSchemaValidator) JSONSchema() map[string]interface{} { return v.schema }

// Validator satisfies the Schema interface: a JSONSchemaValidator validates
// itself.
func (v *JSONSchemaValidator) Validator() Validator { return v }

// Validate checks data against the schema's "required" and "properties"
// entries. It does not implement the full JSON Schema spec (no nested
// $ref resolution, no pattern/format keywords) -- only what the outline and
// chapter schemas in internal/workflow actually use.
func (v *JSONSchemaValidator) Validate(data interface{}) error {
	obj, ok := data.(map[string]interface{})
	if !ok {
		if v.schemaType() == "object" {
			return fmt.Errorf("expected a JSON object, got %T", data)
		}
		return nil
	}

	for _, key := range v.required() {
		if _, present := obj[key]; !present {
			return fmt.Errorf("missing required field %q", key)
		}
	}

	props, _ := v.schema["properties"].(map[string]interface{})
	for key, propSchema := range props {
		val, present := obj[key]
		if !present {
			continue
		}
		propMap, ok := propSchema.(map[string]interface{})
		if !ok {
			continue
		}
		wantType, _ := propMap["type"].(string)
		if wantType == "" {
			continue
		}
		if err := checkType(key, wantType, val); err != nil {
			return err
		}
	}

	return nil
}

func (v *JSONSchemaValidator) schemaType() string {
	t, _ := v.schema["type"].(string)
	return t
}

func (v *JSONSchemaValidator) required() []string {
	raw, _ := v.schema["required"].([]string)
	if raw != nil {
		return raw
	}
	rawAny, _ := v.schema["required"].([]interface{})
	out := make([]string, 0, len(rawAny))
	for _, r := range rawAny {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func checkType(field, want string, val interface{}) error {
	switch want {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("field %q: expected string, got %T", field, val)
		}
	case "number", "integer":
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("field %q: expected number, got %T", field, val)
		}
	case "array":
		if _, ok := val.([]interface{}); !ok {
			return fmt.Errorf("field %q: expected array, got %T", field, val)
		}
	case "object":
		if _, ok := val.(map[string]interface{}); !ok {
			return fmt.Errorf("field %q: expected object, got %T", field, val)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("field %q: expected boolean, got %T", field, val)
		}
	}
	return nil
}

// SimpleJSONSchema is the common Schema implementation backed by a raw JSON
// Schema document.
type SimpleJSONSchema struct {
	validator *JSONSchemaValidator
}

// NewSimpleJSONSchema wraps a raw JSON Schema document as a Schema.
func NewSimpleJSONSchema(doc map[string]interface{}) *SimpleJSONSchema {
	return &SimpleJSONSchema{validator: NewJSONSchema(doc)}
}

func (s *SimpleJSONSchema) Validator() Validator { return s.validator }
