// Package fieldset prunes API responses to the fields a client asks for.
//
// A Schema lists named output fields in declaration order. Fields are either
// terminal attributes or nested schemas (a single related object or a
// collection of them). Clients select fields with comma-separated query
// parameters: "fields" applies to the root schema, and each schema may map
// further parameter names to paths of nested fields, e.g.
//
//	?fields=id,name&category_fields=name
//
// Schemas are mutable and must be built fresh for every response.
package fieldset

// RootParam is the query parameter selecting fields of the root schema.
const RootParam = "fields"

// Field is one named output field of a Schema.
type Field struct {
	name string

	// value extracts a terminal attribute.
	value func(obj any) any

	// nested is the schema of a related object, or of each collection item.
	nested *Schema
	one    func(obj any) (any, bool)
	many   func(obj any) []any
}

// Name returns the field's output name.
func (f *Field) Name() string { return f.name }

// Nested returns the schema of the related object or collection item,
// or nil for a terminal attribute.
func (f *Field) Nested() *Schema { return f.nested }

// Attr declares a terminal attribute read from T.
func Attr[T any](name string, get func(T) any) *Field {
	return &Field{
		name:  name,
		value: func(obj any) any { return get(obj.(T)) },
	}
}

// One declares a single related object rendered with schema.
// get reports false when the relation is empty; the field then renders as null.
func One[T, R any](name string, schema *Schema, get func(T) (R, bool)) *Field {
	return &Field{
		name:   name,
		nested: schema,
		one: func(obj any) (any, bool) {
			return get(obj.(T))
		},
	}
}

// Many declares a one-to-many collection whose items are rendered with schema.
func Many[T, R any](name string, schema *Schema, get func(T) []R) *Field {
	return &Field{
		name:   name,
		nested: schema,
		many: func(obj any) []any {
			items := get(obj.(T))
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = item
			}
			return out
		},
	}
}

// Mapping routes a query parameter to the schema at the end of Path.
type Mapping struct {
	Param string
	Path  []string
}

// Schema is an ordered set of output fields plus nested selector mappings.
type Schema struct {
	fields   []*Field
	mappings []Mapping
}

// New creates a schema exposing fields in the given order.
func New(fields ...*Field) *Schema {
	return &Schema{fields: fields}
}

// Nest maps a query parameter to a nested schema reachable by path.
// Mappings are applied in the order they are declared.
func (s *Schema) Nest(param string, path ...string) *Schema {
	s.mappings = append(s.mappings, Mapping{Param: param, Path: path})
	return s
}

// Mappings returns the declared nested selector mappings.
func (s *Schema) Mappings() []Mapping {
	out := make([]Mapping, len(s.mappings))
	copy(out, s.mappings)
	return out
}

// Params lists the query parameters this schema honors: RootParam followed
// by every mapped parameter, without duplicates.
func (s *Schema) Params() []string {
	params := []string{RootParam}
	seen := map[string]bool{RootParam: true}
	for _, m := range s.mappings {
		if !seen[m.Param] {
			seen[m.Param] = true
			params = append(params, m.Param)
		}
	}
	return params
}

// Fields returns the names of the currently exposed fields in order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// Field looks up an exposed field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// Select reduces the schema to the requested fields that it declares,
// keeping declaration order. A nil request leaves the schema unchanged;
// unknown names are ignored.
func (s *Schema) Select(requested []string) {
	if requested == nil {
		return
	}
	keep := Intersect(s.Fields(), requested)
	fields := make([]*Field, 0, len(keep))
	for _, name := range keep {
		f, _ := s.Field(name)
		fields = append(fields, f)
	}
	s.fields = fields
}

// Intersect returns the names in declared that also appear in requested,
// in declared order.
func Intersect(declared, requested []string) []string {
	allowed := make(map[string]bool, len(requested))
	for _, name := range requested {
		allowed[name] = true
	}
	out := make([]string, 0, len(declared))
	for _, name := range declared {
		if allowed[name] {
			out = append(out, name)
		}
	}
	return out
}

// Configure applies a request's field selection: RootParam selects on this
// schema, then every declared mapping whose parameter is present selects on
// the nested schema at the end of its path. A supplied nested selector keeps
// the fields along its path even when an enclosing selection omits them.
func (s *Schema) Configure(params Params) {
	if requested, ok := params[RootParam]; ok {
		s.Select(s.withPaths(requested, nil, params))
	}
	s.Propagate(params)
}

// Propagate applies the nested selector mappings. A mapping whose path does
// not lead to a nested schema is skipped.
func (s *Schema) Propagate(params Params) {
	for _, m := range s.mappings {
		requested, ok := params[m.Param]
		if !ok {
			continue
		}
		if target := s.Lookup(m.Path...); target != nil {
			target.Select(s.withPaths(requested, m.Path, params))
		}
	}
}

// withPaths adds to requested the next path segment of every supplied
// mapping that descends below prefix.
func (s *Schema) withPaths(requested, prefix []string, params Params) []string {
	out := make([]string, len(requested), len(requested)+len(s.mappings))
	copy(out, requested)
	for _, m := range s.mappings {
		if _, ok := params[m.Param]; !ok || len(m.Path) <= len(prefix) || !hasPrefix(m.Path, prefix) {
			continue
		}
		out = append(out, m.Path[len(prefix)])
	}
	return out
}

func hasPrefix(path, prefix []string) bool {
	for i, name := range prefix {
		if path[i] != name {
			return false
		}
	}
	return true
}

// Lookup walks path from this schema through nested fields, stepping into
// the item schema of collections. It returns nil if any segment is missing
// or names a terminal attribute.
func (s *Schema) Lookup(path ...string) *Schema {
	if len(path) == 0 {
		return nil
	}
	cur := s
	for _, name := range path {
		f, ok := cur.Field(name)
		if !ok || f.nested == nil {
			return nil
		}
		cur = f.nested
	}
	return cur
}
