package graphql

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// introType is a __Type: either a named definition or a LIST/NON_NULL
// wrapper around another type.
type introType struct {
	def    *ast.Definition
	kind   string
	ofType *introType
}

// introSchema is the __Schema object.
type introSchema struct{}

// introInput is an __InputValue: a field argument or an input object field.
type introInput struct {
	name         string
	description  string
	typ          *ast.Type
	defaultValue *ast.Value
}

func namedType(def *ast.Definition) *introType {
	if def == nil {
		return nil
	}
	return &introType{def: def, kind: string(def.Kind)}
}

func typeRef(s *ast.Schema, t *ast.Type) *introType {
	if t == nil {
		return nil
	}
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &introType{kind: "NON_NULL", ofType: typeRef(s, &inner)}
	}
	if t.Elem != nil {
		return &introType{kind: "LIST", ofType: typeRef(s, t.Elem)}
	}
	return namedType(s.Types[t.NamedType])
}

// on adapts a resolver over a typed introspection source.
func on[T any](get func(s *ast.Schema, src T, args map[string]any) any) ResolverFunc {
	return func(p Params) (any, error) {
		src, ok := p.Source.(T)
		if !ok {
			return nil, nil
		}
		return get(p.Schema, src, p.Args), nil
	}
}

func constant(v any) ResolverFunc {
	return func(Params) (any, error) { return v, nil }
}

func deprecation(dirs ast.DirectiveList) (bool, any) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, "No longer supported"
}

func includeDeprecated(args map[string]any) bool {
	v, _ := args["includeDeprecated"].(bool)
	return v
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func argsOf(list ast.ArgumentDefinitionList) []introInput {
	out := make([]introInput, 0, len(list))
	for _, a := range list {
		out = append(out, introInput{name: a.Name, description: a.Description, typ: a.Type, defaultValue: a.DefaultValue})
	}
	return out
}

func hasFields(t *introType) bool {
	return t.def != nil && (t.def.Kind == ast.Object || t.def.Kind == ast.Interface)
}

// introspectionResolvers answer __schema, __type and the introspection
// object types. They are not gated; the /graphql route is.
var introspectionResolvers = map[string]ResolverFunc{
	"Query.__schema": constant(introSchema{}),
	"Query.__type": func(p Params) (any, error) {
		name, _ := p.Args["name"].(string)
		return namedType(p.Schema.Types[name]), nil
	},

	"__Schema.description": constant(nil),
	"__Schema.types": on(func(s *ast.Schema, _ introSchema, _ map[string]any) any {
		out := make([]*introType, 0, len(s.Types))
		for _, name := range sortedKeys(s.Types) {
			out = append(out, namedType(s.Types[name]))
		}
		return out
	}),
	"__Schema.queryType": on(func(s *ast.Schema, _ introSchema, _ map[string]any) any {
		return namedType(s.Query)
	}),
	"__Schema.mutationType": on(func(s *ast.Schema, _ introSchema, _ map[string]any) any {
		return namedType(s.Mutation)
	}),
	"__Schema.subscriptionType": on(func(s *ast.Schema, _ introSchema, _ map[string]any) any {
		return namedType(s.Subscription)
	}),
	"__Schema.directives": on(func(s *ast.Schema, _ introSchema, _ map[string]any) any {
		out := make([]*ast.DirectiveDefinition, 0, len(s.Directives))
		for _, name := range sortedKeys(s.Directives) {
			out = append(out, s.Directives[name])
		}
		return out
	}),

	"__Type.kind": on(func(_ *ast.Schema, t *introType, _ map[string]any) any { return t.kind }),
	"__Type.name": on(func(_ *ast.Schema, t *introType, _ map[string]any) any {
		if t.def == nil {
			return nil
		}
		return t.def.Name
	}),
	"__Type.description": on(func(_ *ast.Schema, t *introType, _ map[string]any) any {
		if t.def == nil {
			return nil
		}
		return optional(t.def.Description)
	}),
	"__Type.specifiedByURL": constant(nil),
	"__Type.fields": on(func(_ *ast.Schema, t *introType, args map[string]any) any {
		if !hasFields(t) {
			return nil
		}
		out := make([]*ast.FieldDefinition, 0, len(t.def.Fields))
		for _, f := range t.def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			if dep, _ := deprecation(f.Directives); dep && !includeDeprecated(args) {
				continue
			}
			out = append(out, f)
		}
		return out
	}),
	"__Type.interfaces": on(func(s *ast.Schema, t *introType, _ map[string]any) any {
		if !hasFields(t) {
			return nil
		}
		out := make([]*introType, 0, len(t.def.Interfaces))
		for _, name := range t.def.Interfaces {
			out = append(out, namedType(s.Types[name]))
		}
		return out
	}),
	"__Type.possibleTypes": on(func(s *ast.Schema, t *introType, _ map[string]any) any {
		if t.def == nil || (t.def.Kind != ast.Interface && t.def.Kind != ast.Union) {
			return nil
		}
		out := make([]*introType, 0)
		for _, def := range s.GetPossibleTypes(t.def) {
			out = append(out, namedType(def))
		}
		return out
	}),
	"__Type.enumValues": on(func(_ *ast.Schema, t *introType, args map[string]any) any {
		if t.def == nil || t.def.Kind != ast.Enum {
			return nil
		}
		out := make([]*ast.EnumValueDefinition, 0, len(t.def.EnumValues))
		for _, v := range t.def.EnumValues {
			if dep, _ := deprecation(v.Directives); dep && !includeDeprecated(args) {
				continue
			}
			out = append(out, v)
		}
		return out
	}),
	"__Type.inputFields": on(func(_ *ast.Schema, t *introType, _ map[string]any) any {
		if t.def == nil || t.def.Kind != ast.InputObject {
			return nil
		}
		out := make([]introInput, 0, len(t.def.Fields))
		for _, f := range t.def.Fields {
			out = append(out, introInput{name: f.Name, description: f.Description, typ: f.Type, defaultValue: f.DefaultValue})
		}
		return out
	}),
	"__Type.ofType": on(func(_ *ast.Schema, t *introType, _ map[string]any) any {
		if t.ofType == nil {
			return nil
		}
		return t.ofType
	}),

	"__Field.name": on(func(_ *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any { return f.Name }),
	"__Field.description": on(func(_ *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any {
		return optional(f.Description)
	}),
	"__Field.args": on(func(_ *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any {
		return argsOf(f.Arguments)
	}),
	"__Field.type": on(func(s *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any {
		return typeRef(s, f.Type)
	}),
	"__Field.isDeprecated": on(func(_ *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any {
		dep, _ := deprecation(f.Directives)
		return dep
	}),
	"__Field.deprecationReason": on(func(_ *ast.Schema, f *ast.FieldDefinition, _ map[string]any) any {
		_, reason := deprecation(f.Directives)
		return reason
	}),

	"__InputValue.name": on(func(_ *ast.Schema, in introInput, _ map[string]any) any { return in.name }),
	"__InputValue.description": on(func(_ *ast.Schema, in introInput, _ map[string]any) any {
		return optional(in.description)
	}),
	"__InputValue.type": on(func(s *ast.Schema, in introInput, _ map[string]any) any {
		return typeRef(s, in.typ)
	}),
	"__InputValue.defaultValue": on(func(_ *ast.Schema, in introInput, _ map[string]any) any {
		if in.defaultValue == nil {
			return nil
		}
		return in.defaultValue.String()
	}),
	"__InputValue.isDeprecated":      constant(false),
	"__InputValue.deprecationReason": constant(nil),

	"__EnumValue.name": on(func(_ *ast.Schema, v *ast.EnumValueDefinition, _ map[string]any) any { return v.Name }),
	"__EnumValue.description": on(func(_ *ast.Schema, v *ast.EnumValueDefinition, _ map[string]any) any {
		return optional(v.Description)
	}),
	"__EnumValue.isDeprecated": on(func(_ *ast.Schema, v *ast.EnumValueDefinition, _ map[string]any) any {
		dep, _ := deprecation(v.Directives)
		return dep
	}),
	"__EnumValue.deprecationReason": on(func(_ *ast.Schema, v *ast.EnumValueDefinition, _ map[string]any) any {
		_, reason := deprecation(v.Directives)
		return reason
	}),

	"__Directive.name": on(func(_ *ast.Schema, d *ast.DirectiveDefinition, _ map[string]any) any { return d.Name }),
	"__Directive.description": on(func(_ *ast.Schema, d *ast.DirectiveDefinition, _ map[string]any) any {
		return optional(d.Description)
	}),
	"__Directive.locations": on(func(_ *ast.Schema, d *ast.DirectiveDefinition, _ map[string]any) any {
		out := make([]string, 0, len(d.Locations))
		for _, l := range d.Locations {
			out = append(out, string(l))
		}
		return out
	}),
	"__Directive.args": on(func(_ *ast.Schema, d *ast.DirectiveDefinition, _ map[string]any) any {
		return argsOf(d.Arguments)
	}),
	"__Directive.isRepeatable": on(func(_ *ast.Schema, d *ast.DirectiveDefinition, _ map[string]any) any {
		return d.IsRepeatable
	}),
}
