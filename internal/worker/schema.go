package worker

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema — JobSchema на основе JSON Schema.
//
// Job проверяется в JSON-представлении: структуры и map сначала
// сериализуются, затем валидируются как документ.
type JSONSchema struct {
	schema *jsonschema.Schema
}

// CompileJSONSchema компилирует схему из исходного текста.
func CompileJSONSchema(name, source string) (*JSONSchema, error) {
	schema, err := jsonschema.CompileString(name, source)
	if err != nil {
		return nil, fmt.Errorf("compile job schema %s: %w", name, err)
	}
	return &JSONSchema{schema: schema}, nil
}

// MustCompileJSONSchema — CompileJSONSchema с panic при ошибке.
func MustCompileJSONSchema(name, source string) *JSONSchema {
	s, err := CompileJSONSchema(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Compiled сообщает, что схема скомпилирована. Пустой JSONSchema{} не принимается New().
func (s *JSONSchema) Compiled() bool {
	return s != nil && s.schema != nil
}

// Validate реализует JobSchema.
func (s *JSONSchema) Validate(job any) error {
	doc, err := jsonDocument(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return s.schema.Validate(doc)
}

// jsonDocument приводит значение к виду, который ожидает валидатор:
// map[string]any, []any, json.Number, string, bool, nil.
func jsonDocument(v any) (any, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
