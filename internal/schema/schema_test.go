package schema

import "testing"

func TestValidateRequiredField(t *testing.T) {
	t.Parallel()
	s := NewSimpleJSONSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"title_cn"},
		"properties": map[string]interface{}{
			"title_cn": map[string]interface{}{"type": "string"},
		},
	})

	if err := s.Validator().Validate(map[string]interface{}{}); err == nil {
		t.Fatal("expected missing required field error")
	}

	if err := s.Validator().Validate(map[string]interface{}{"title_cn": "标题"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateWrongType(t *testing.T) {
	t.Parallel()
	s := NewSimpleJSONSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "number"},
		},
	})

	if err := s.Validator().Validate(map[string]interface{}{"id": "not-a-number"}); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
