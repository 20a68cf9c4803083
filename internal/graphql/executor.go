package graphql

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/nerrad567/local-api-gateway/internal/host"
)

// Request is one GraphQL operation. Optional fields are nil when the
// client did not send them.
type Request struct {
	Query         string
	OperationName *string
	Variables     map[string]any
	Extensions    map[string]any
}

// Response is the result envelope. Data is omitted when execution never
// started (parse or validation failure); otherwise it holds whatever
// resolved, with errors for the rest.
type Response struct {
	Data   any          `json:"data,omitempty"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

// Params is what a field resolver sees.
type Params struct {
	Ctx    context.Context
	Host   host.Host
	Schema *ast.Schema
	Source any
	Args   map[string]any
	Path   ast.Path
	// Extensions holds the request's extensions, nil when absent.
	Extensions map[string]any
}

// ResolverFunc resolves one field.
type ResolverFunc func(p Params) (any, error)

// Executor runs operations against the schema. Safe for concurrent use.
type Executor struct {
	schema    *ast.Schema
	resolvers map[string]ResolverFunc
	hosts     host.Executor
}

// ErrEmptyQuery is returned for a request without a query.
var ErrEmptyQuery = errors.New("graphql: query is required")

// NewExecutor creates an Executor. Each operation runs as a single call
// through hosts, so a query sees one consistent host snapshot.
func NewExecutor(schema *ast.Schema, resolvers map[string]ResolverFunc, hosts host.Executor) *Executor {
	all := make(map[string]ResolverFunc, len(resolvers)+len(introspectionResolvers))
	for k, v := range introspectionResolvers {
		all[k] = v
	}
	for k, v := range resolvers {
		all[k] = v
	}
	return &Executor{schema: schema, resolvers: all, hosts: hosts}
}

// Schema returns the executable schema.
func (e *Executor) Schema() *ast.Schema {
	return e.schema
}

// Execute parses, validates and runs req.
func (e *Executor) Execute(ctx context.Context, req Request) *Response {
	if req.Query == "" {
		return errorResponse(gqlerror.Errorf("%s", ErrEmptyQuery.Error()))
	}

	doc, errs := gqlparser.LoadQuery(e.schema, req.Query)
	if len(errs) > 0 {
		return &Response{Errors: errs}
	}

	opName := ""
	if req.OperationName != nil {
		opName = *req.OperationName
	}
	op := doc.Operations.ForName(opName)
	if op == nil {
		if opName == "" {
			return errorResponse(gqlerror.Errorf("operation name is required when the document has more than one operation"))
		}
		return errorResponse(gqlerror.Errorf("operation %q not found", opName))
	}

	var root *ast.Definition
	switch op.Operation {
	case ast.Query:
		root = e.schema.Query
	case ast.Mutation:
		root = e.schema.Mutation
	default:
		return errorResponse(gqlerror.Errorf("%s operations are not supported", op.Operation))
	}
	if root == nil {
		return errorResponse(gqlerror.Errorf("schema does not support %s operations", op.Operation))
	}

	vars, verr := validator.VariableValues(e.schema, op, req.Variables)
	if verr != nil {
		return errorResponse(toGQLError(verr, nil))
	}

	run := &execution{
		Executor:   e,
		ctx:        ctx,
		doc:        doc,
		vars:       vars,
		extensions: req.Extensions,
	}

	var data *OrderedMap
	err := e.hosts.Do(ctx, func(h host.Host) error {
		run.host = h
		data, _ = run.selectionSet(root, root.Name, op.SelectionSet, nil, nil)
		return nil
	})
	if err != nil {
		return errorResponse(toGQLError(err, nil))
	}

	resp := &Response{Errors: run.errs}
	if data != nil {
		resp.Data = data
	} else {
		resp.Data = nullData{}
	}
	return resp
}

// nullData marshals as null so a fully bubbled result still reports
// "data": null rather than dropping the key.
type nullData struct{}

func (nullData) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func errorResponse(err *gqlerror.Error) *Response {
	return &Response{Errors: gqlerror.List{err}}
}

// execution is the state of one running operation. It is confined to the
// host thread while it runs.
type execution struct {
	*Executor
	ctx        context.Context
	host       host.Host
	doc        *ast.QueryDocument
	vars       map[string]any
	extensions map[string]any
	errs       gqlerror.List
}

func (x *execution) addError(err error, path ast.Path, field *ast.Field) {
	ge := toGQLError(err, path)
	if field != nil && field.Position != nil && len(ge.Locations) == 0 {
		ge.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	x.errs = append(x.errs, ge)
}

// selectionSet resolves set against source. bubble reports that a
// non-null field came back null, so the object itself must be null.
func (x *execution) selectionSet(def *ast.Definition, typeName string, set ast.SelectionSet, source any, path ast.Path) (out *OrderedMap, bubble bool) {
	keys, grouped := x.collectFields(typeName, set, nil, nil, map[string]bool{})
	out = newOrderedMap(len(keys))

	for _, key := range keys {
		fields := grouped[key]
		fieldPath := append(append(ast.Path(nil), path...), ast.PathName(key))
		v, b := x.field(def, fields, source, fieldPath)
		if b {
			return nil, true
		}
		out.Set(key, v)
	}
	return out, false
}

// collectFields flattens fragments and applies @skip/@include, grouping
// fields by response key in selection order.
func (x *execution) collectFields(typeName string, set ast.SelectionSet, keys []string, grouped map[string][]*ast.Field, visited map[string]bool) ([]string, map[string][]*ast.Field) {
	if grouped == nil {
		grouped = make(map[string][]*ast.Field)
	}
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if !x.included(s.Directives) {
				continue
			}
			key := s.Alias
			if key == "" {
				key = s.Name
			}
			if _, ok := grouped[key]; !ok {
				keys = append(keys, key)
			}
			grouped[key] = append(grouped[key], s)
		case *ast.InlineFragment:
			if !x.included(s.Directives) {
				continue
			}
			if s.TypeCondition != "" && s.TypeCondition != typeName {
				continue
			}
			keys, grouped = x.collectFields(typeName, s.SelectionSet, keys, grouped, visited)
		case *ast.FragmentSpread:
			if !x.included(s.Directives) || visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			frag := x.doc.Fragments.ForName(s.Name)
			if frag == nil || frag.TypeCondition != typeName {
				continue
			}
			keys, grouped = x.collectFields(typeName, frag.SelectionSet, keys, grouped, visited)
		}
	}
	return keys, grouped
}

func (x *execution) included(dirs ast.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil {
		if v, _ := d.ArgumentMap(x.vars)["if"].(bool); v {
			return false
		}
	}
	if d := dirs.ForName("include"); d != nil {
		if v, _ := d.ArgumentMap(x.vars)["if"].(bool); !v {
			return false
		}
	}
	return true
}

// field resolves one response key. Resolver errors and panics are
// recorded against the field's path and the field becomes null; siblings
// keep resolving.
func (x *execution) field(parent *ast.Definition, fields []*ast.Field, source any, path ast.Path) (any, bool) {
	f := fields[0]
	if f.Name == "__typename" {
		return parent.Name, false
	}

	fieldDef := f.Definition
	if fieldDef == nil {
		fieldDef = parent.Fields.ForName(f.Name)
	}
	if fieldDef == nil {
		x.addError(fmt.Errorf("cannot query field %q on type %q", f.Name, parent.Name), path, f)
		return nil, false
	}

	resolve, ok := x.resolvers[parent.Name+"."+f.Name]
	if !ok {
		resolve = defaultResolver(f.Name)
	}

	before := len(x.errs)
	v, err := x.call(resolve, Params{
		Ctx:        x.ctx,
		Host:       x.host,
		Schema:     x.schema,
		Source:     source,
		Args:       f.ArgumentMap(x.vars),
		Path:       path,
		Extensions: x.extensions,
	})
	if err != nil {
		x.addError(err, path, f)
		v = nil
	}

	return x.complete(fieldDef.Type, fields, v, path, before)
}

func (x *execution) call(resolve ResolverFunc, p Params) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &internalError{cause: fmt.Errorf("resolver panic: %v", r)}
		}
	}()
	return resolve(p)
}

// complete coerces a resolved value to t. errsBefore is the error count
// before the field resolved, used to avoid reporting a null twice.
func (x *execution) complete(t *ast.Type, fields []*ast.Field, v any, path ast.Path, errsBefore int) (any, bool) {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		out, _ := x.complete(&inner, fields, v, path, errsBefore)
		if out == nil {
			if len(x.errs) == errsBefore {
				x.addError(fmt.Errorf("must not be null"), path, fields[0])
			}
			return nil, true
		}
		return out, false
	}

	if isNil(v) {
		return nil, false
	}

	if t.Elem != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			x.addError(fmt.Errorf("expected a list, got %T", v), path, fields[0])
			return nil, false
		}
		items := make([]any, rv.Len())
		for i := range items {
			itemPath := append(append(ast.Path(nil), path...), ast.PathIndex(i))
			item, bubble := x.complete(t.Elem, fields, rv.Index(i).Interface(), itemPath, len(x.errs))
			if bubble {
				return nil, false
			}
			items[i] = item
		}
		return items, false
	}

	def := x.schema.Types[t.NamedType]
	if def == nil {
		x.addError(fmt.Errorf("unknown type %q", t.NamedType), path, fields[0])
		return nil, false
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return v, false
	case ast.Object:
		var set ast.SelectionSet
		for _, f := range fields {
			set = append(set, f.SelectionSet...)
		}
		obj, bubble := x.selectionSet(def, def.Name, set, v, path)
		if bubble {
			return nil, false
		}
		return obj, false
	default:
		x.addError(fmt.Errorf("abstract type %q is not supported", def.Name), path, fields[0])
		return nil, false
	}
}

// defaultResolver reads name from a map source.
func defaultResolver(name string) ResolverFunc {
	return func(p Params) (any, error) {
		if m, ok := p.Source.(map[string]any); ok {
			return m[name], nil
		}
		return nil, nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
