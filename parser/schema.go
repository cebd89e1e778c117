// parser/schema.go
package parser

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Field describes one key of the expected JSON object
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Schema is the expected shape of a structured model answer
type Schema struct {
	Name   string
	Fields []Field
}

// SchemaFor derives a schema from a struct's json and description tags.
// Fields tagged omitempty are optional.
func SchemaFor(v interface{}) Schema {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Schema{}
	}

	s := Schema{Name: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := f.Name
		required := true
		if tag, ok := f.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					required = false
				}
			}
		}

		s.Fields = append(s.Fields, Field{
			Name:        name,
			Type:        jsonType(f.Type),
			Description: f.Tag.Get("description"),
			Required:    required,
		})
	}
	return s
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

// JSONSchema renders the schema as a JSON-Schema object
func (s Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		prop := map[string]interface{}{"type": f.Type}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	out := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if s.Name != "" {
		out["title"] = s.Name
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func (s Schema) String() string {
	data, _ := json.Marshal(s.JSONSchema())
	return string(data)
}
