package schema

import (
	"fmt"

	"github.com/jackrun/bdicore/ident"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Field describes one named, typed slot in a Definition.
type Field struct {
	Name     string
	Kind     Kind
	ElemKind Kind        // meaningful only when Kind == KindVector
	Nested   ident.Ident // meaningful only when Kind == KindMessage: the nested schema name
	Required bool
}

// Definition describes the typed field dictionary for one schema name,
// compiled to a JSON Schema document for verification (spec §3, §4.7).
type Definition struct {
	Name   ident.Ident
	Fields []Field
}

// Registry holds committed schema Definitions and their compiled JSON Schema
// validators, keyed by schema name. A zero-value Registry is ready to use.
type Registry struct {
	defs      map[ident.Ident]Definition
	compiled  map[ident.Ident]*jsonschema.Schema
}

// NewRegistry constructs an empty schema Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[ident.Ident]Definition),
		compiled: make(map[ident.Ident]*jsonschema.Schema),
	}
}

// Commit compiles def to a JSON Schema document and registers it under
// def.Name, overwriting any prior definition with the same name (engine
// commitMessageSchema, spec §4.1).
func (r *Registry) Commit(def Definition) error {
	doc := def.jsonSchemaDocument()
	url := "mem://schema/" + string(def.Name)

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("schema: compile %s: %w", def.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("schema: compile %s: %w", def.Name, err)
	}

	r.defs[def.Name] = def
	r.compiled[def.Name] = compiled
	return nil
}

// Lookup returns the Definition committed under name, if any.
func (r *Registry) Lookup(name ident.Ident) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Verify validates msg's field values against the compiled JSON Schema
// registered for msg.SchemaName. Returns an error identifying the schema
// name and the first violation if validation fails, and an error if no
// schema has been committed under that name.
func (r *Registry) Verify(msg *Message) error {
	compiled, ok := r.compiled[msg.SchemaName]
	if !ok {
		return fmt.Errorf("schema: no definition committed for %q", msg.SchemaName)
	}
	if err := compiled.Validate(msg.ToMap()); err != nil {
		return fmt.Errorf("schema: message violates %q: %w", msg.SchemaName, err)
	}
	return nil
}

// jsonSchemaDocument renders def as a JSON Schema document (as a generic
// map, the shape jsonschema.Compiler.AddResource accepts directly).
func (d Definition) jsonSchemaDocument() map[string]any {
	properties := make(map[string]any, len(d.Fields))
	var required []any
	for _, f := range d.Fields {
		properties[f.Name] = fieldJSONSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldJSONSchema(f Field) map[string]any {
	switch f.Kind {
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return map[string]any{"type": "integer"}
	case KindFloat32, KindFloat64:
		return map[string]any{"type": "number"}
	case KindVec2:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"x": map[string]any{"type": "number"},
				"y": map[string]any{"type": "number"},
			},
			"required": []any{"x", "y"},
		}
	case KindString:
		return map[string]any{"type": "string"}
	case KindVector:
		return map[string]any{
			"type":  "array",
			"items": fieldJSONSchema(Field{Kind: f.ElemKind}),
		}
	case KindMessage:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{}
	}
}
