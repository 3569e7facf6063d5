package fieldset

import (
	"bytes"
	"encoding/json"
)

// Object is a rendered JSON object that keeps its keys in schema order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set appends key (or overwrites it in place if already present).
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// MarshalJSON writes the keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Render builds the output object for obj from the exposed fields.
func (s *Schema) Render(obj any) *Object {
	out := NewObject()
	for _, f := range s.fields {
		switch {
		case f.many != nil:
			items := f.many(obj)
			rendered := make([]*Object, len(items))
			for i, item := range items {
				rendered[i] = f.nested.Render(item)
			}
			out.Set(f.name, rendered)
		case f.one != nil:
			related, ok := f.one(obj)
			if !ok {
				out.Set(f.name, nil)
				continue
			}
			out.Set(f.name, f.nested.Render(related))
		default:
			out.Set(f.name, f.value(obj))
		}
	}
	return out
}

// RenderAll renders each element of objs with the same schema.
func RenderAll[T any](s *Schema, objs []T) []*Object {
	out := make([]*Object, len(objs))
	for i, obj := range objs {
		out[i] = s.Render(obj)
	}
	return out
}
