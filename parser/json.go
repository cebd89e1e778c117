// parser/json.go
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sammcj/promptlab/types"
)

const jsonInstructions = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```\n%s\n```"

// JSONParser extracts a JSON value from model text and checks it against an optional schema
type JSONParser struct {
	Schema *Schema
}

// NewJSONParser builds a parser whose schema is derived from v. A nil v disables validation.
func NewJSONParser(v interface{}) *JSONParser {
	if v == nil {
		return &JSONParser{}
	}
	s := SchemaFor(v)
	return &JSONParser{Schema: &s}
}

// Parse returns map[string]interface{} for objects and []interface{} for arrays
func (p *JSONParser) Parse(text string) (interface{}, error) {
	result, err := p.extract(text)
	if err != nil {
		return nil, err
	}
	return result.Value(), nil
}

// ParseInto decodes the validated JSON into dst
func (p *JSONParser) ParseInto(text string, dst interface{}) error {
	result, err := p.extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(result.Raw), dst); err != nil {
		return &types.ParseError{Raw: text, Message: "decode failed", Err: err}
	}
	return nil
}

func (p *JSONParser) FormatInstructions() string {
	if p.Schema == nil {
		return "Return a JSON object."
	}
	return fmt.Sprintf(jsonInstructions, p.Schema.String())
}

func (p *JSONParser) extract(text string) (gjson.Result, error) {
	raw, sawBracket := extractJSON(stripCodeFence(text))
	if raw == "" {
		if sawBracket {
			return gjson.Result{}, &types.ParseError{Raw: text, Message: "invalid JSON"}
		}
		return gjson.Result{}, &types.ParseError{Raw: text, Message: "no JSON found"}
	}
	if !gjson.Valid(raw) {
		return gjson.Result{}, &types.ParseError{Raw: text, Message: "invalid JSON"}
	}

	result := gjson.Parse(raw)
	if p.Schema == nil {
		return result, nil
	}

	if result.IsArray() {
		for i, item := range result.Array() {
			if err := p.validate(item); err != nil {
				return gjson.Result{}, &types.ParseError{Raw: text, Message: fmt.Sprintf("item %d", i), Err: err}
			}
		}
		return result, nil
	}
	if err := p.validate(result); err != nil {
		return gjson.Result{}, &types.ParseError{Raw: text, Message: "schema mismatch", Err: err}
	}
	return result, nil
}

func (p *JSONParser) validate(obj gjson.Result) error {
	if !obj.IsObject() {
		return fmt.Errorf("expected object, got %s", obj.Type)
	}
	fields := obj.Map()
	for _, f := range p.Schema.Fields {
		v, ok := fields[f.Name]
		if !ok || v.Type == gjson.Null {
			if f.Required {
				return fmt.Errorf("missing required field %q", f.Name)
			}
			continue
		}
		if !matchesType(v, f.Type) {
			return fmt.Errorf("field %q should be %s", f.Name, f.Type)
		}
	}
	return nil
}

func matchesType(v gjson.Result, want string) bool {
	switch want {
	case "string":
		return v.Type == gjson.String
	case "boolean":
		return v.IsBool()
	case "number":
		return v.Type == gjson.Number
	case "integer":
		return v.Type == gjson.Number && v.Float() == float64(v.Int())
	case "array":
		return v.IsArray()
	case "object":
		return v.IsObject()
	default:
		return true
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	// drop the language tag line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// extractJSON returns the first complete object or array in s. Each opening bracket
// is tried in turn, so brackets in surrounding prose are skipped. sawBracket reports
// whether any candidate start existed.
func extractJSON(s string) (raw string, sawBracket bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		sawBracket = true
		var v json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&v); err == nil {
			return string(v), true
		}
	}
	return "", sawBracket
}
