// Package mapping converts between domain structs and document bodies
// using the metadata parsed by the schema package. Encoding walks the
// mapped fields so wire names and date formats follow the `es` tags;
// decoding reads a _source body field by field, ignoring anything the
// struct does not map.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/ncobase/esodm/schema"
)

var (
	ErrNotPointer = errors.New("mapping: destination must be a non-nil pointer")
	ErrNoIDField  = errors.New("mapping: type has no id field")
)

// Encode renders an entity as a document body keyed by wire names.
// Fields tagged `ignore` and nil pointers are left out.
func Encode(entity any) (map[string]any, error) {
	m, err := schema.For(entity)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNotPointer
		}
		rv = rv.Elem()
	}
	return encodeStruct(rv, m)
}

func encodeStruct(rv reflect.Value, m *schema.Metadata) (map[string]any, error) {
	doc := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		if f.Ignore {
			continue
		}
		fv, ok := fieldValue(rv, f.Path)
		if !ok {
			continue
		}
		v, err := encodeValue(fv, f)
		if err != nil {
			return nil, fmt.Errorf("mapping: field %s: %w", f.Name, err)
		}
		doc[f.Wire] = v
	}
	return doc, nil
}

func encodeValue(fv reflect.Value, f *schema.Field) (any, error) {
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}

	if t, ok := fv.Interface().(time.Time); ok {
		return encodeTime(t, f.Format), nil
	}

	switch fv.Kind() {
	case reflect.Struct:
		if f.Object != nil && fv.Type() == f.Object.Type {
			return encodeStruct(fv, f.Object)
		}
	case reflect.Slice, reflect.Array:
		if f.Object != nil && fv.Type().Elem() == f.Object.Type {
			out := make([]any, fv.Len())
			for i := 0; i < fv.Len(); i++ {
				v, err := encodeStruct(fv.Index(i), f.Object)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
	}
	return fv.Interface(), nil
}

func encodeTime(t time.Time, format string) any {
	switch format {
	case "epoch_millis":
		return t.UnixMilli()
	case "epoch_second":
		return t.Unix()
	case "":
		return t.Format(time.RFC3339Nano)
	default:
		// Formats beyond the epoch variants are passed through as
		// RFC 3339; the index-side format handles parsing.
		return t.Format(time.RFC3339Nano)
	}
}

// Decode fills dest (a pointer to struct) from a raw _source body.
func Decode(source []byte, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	m, err := schema.Parse(rv.Type())
	if err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(source, &raw); err != nil {
		return fmt.Errorf("mapping: decode source: %w", err)
	}
	return decodeStruct(raw, rv.Elem(), m)
}

func decodeStruct(raw map[string]json.RawMessage, rv reflect.Value, m *schema.Metadata) error {
	for _, f := range m.Fields {
		data, ok := raw[f.Wire]
		if !ok || string(data) == "null" {
			continue
		}
		fv, err := ensureField(rv, f.Path)
		if err != nil {
			return err
		}
		if err := decodeValue(data, fv, f); err != nil {
			return fmt.Errorf("mapping: field %s: %w", f.Name, err)
		}
	}
	return nil
}

func decodeValue(data json.RawMessage, fv reflect.Value, f *schema.Field) error {
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}

	if fv.Type() == reflect.TypeOf(time.Time{}) {
		t, err := decodeTime(data, f.Format)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}

	switch {
	case f.Object != nil && fv.Kind() == reflect.Struct && fv.Type() == f.Object.Type:
		var sub map[string]json.RawMessage
		if err := json.Unmarshal(data, &sub); err != nil {
			return err
		}
		return decodeStruct(sub, fv, f.Object)
	case f.Object != nil && fv.Kind() == reflect.Slice && fv.Type().Elem() == f.Object.Type:
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := reflect.MakeSlice(fv.Type(), len(items), len(items))
		for i, item := range items {
			if err := decodeStruct(item, out.Index(i), f.Object); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil
	}

	return json.Unmarshal(data, fv.Addr().Interface())
}

func decodeTime(data json.RawMessage, format string) (time.Time, error) {
	switch format {
	case "epoch_millis":
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case "epoch_second":
		var s int64
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}, err
		}
		return time.Unix(s, 0).UTC(), nil
	default:
		var t time.Time
		if err := json.Unmarshal(data, &t); err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
}

// fieldValue walks a reflect path, failing on nil intermediates.
func fieldValue(rv reflect.Value, path []int) (reflect.Value, bool) {
	for _, i := range path {
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv, true
}

// ensureField walks a reflect path, allocating nil intermediates so the
// leaf is settable.
func ensureField(rv reflect.Value, path []int) (reflect.Value, error) {
	for _, i := range path {
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				if !rv.CanSet() {
					return reflect.Value{}, ErrNotPointer
				}
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv, nil
}
