// Package schema derives index metadata from struct tags. A domain type
// declares its document layout with `es` tags and the rest of the module
// (mapping, repository, index administration) works from the parsed
// Metadata instead of touching reflection directly.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// TagKey is the struct tag consumed by Parse.
const TagKey = "es"

var (
	ErrNotStruct     = errors.New("schema: target is not a struct")
	ErrNoSuchField   = errors.New("schema: no such field")
	ErrBadIDField    = errors.New("schema: id field must be a string")
	ErrBadVersion    = errors.New("schema: version field must be an integer")
	ErrUnsupported   = errors.New("schema: unsupported field kind")
	ErrDuplicateName = errors.New("schema: duplicate document field name")
)

// Field describes one document field of a mapped struct.
type Field struct {
	Name           string // Go struct field name
	Wire           string // document field name
	Path           []int  // reflect index path from the root struct
	Type           FieldType
	Analyzer       string
	SearchAnalyzer string
	Format         string
	CopyTo         string
	Dims           int
	Index          bool // false disables inverted indexing
	Store          bool
	IsID           bool
	IsVersion      bool
	IsRouting      bool
	Ignore         bool      // excluded from the document body
	Object         *Metadata // element metadata for object/nested fields
}

// Metadata is the parsed description of a mapped struct.
type Metadata struct {
	Type   reflect.Type
	Index  string
	Fields []*Field

	byWire  map[string]*Field
	id      *Field
	version *Field
	routing *Field
}

// IDField returns the field tagged as document id, or nil.
func (m *Metadata) IDField() *Field { return m.id }

// VersionField returns the field tagged as version, or nil.
func (m *Metadata) VersionField() *Field { return m.version }

// RoutingField returns the field tagged as routing, or nil.
func (m *Metadata) RoutingField() *Field { return m.routing }

// FieldByWire looks a field up by its document name.
func (m *Metadata) FieldByWire(name string) (*Field, bool) {
	f, ok := m.byWire[name]
	return f, ok
}

var (
	cache   = make(map[reflect.Type]*Metadata)
	cacheMu sync.RWMutex
)

// Parse returns the metadata for a struct type, caching results per type.
func Parse(t reflect.Type) (*Metadata, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	cacheMu.RLock()
	m, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return m, nil
	}

	// seen carries in-progress metadata so self-referential types
	// (a nested field whose element is an enclosing struct) resolve
	// to the partial entry instead of recursing without bound.
	seen := make(map[reflect.Type]*Metadata)
	m, err := parseStruct(t, seen)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	for st, sm := range seen {
		if _, ok := cache[st]; !ok {
			cache[st] = sm
		}
	}
	cacheMu.Unlock()
	return m, nil
}

// For parses the metadata for a value's type.
func For(v any) (*Metadata, error) {
	return Parse(reflect.TypeOf(v))
}

// IndexNameOf resolves the index name for an entity: the Indexed
// interface wins, otherwise the snake-cased type name is used.
func IndexNameOf(v any) (string, error) {
	if idx, ok := v.(Indexed); ok {
		if name := idx.IndexName(); name != "" {
			return name, nil
		}
	}
	m, err := For(v)
	if err != nil {
		return "", err
	}
	return m.Index, nil
}

func parseStruct(t reflect.Type, seen map[reflect.Type]*Metadata) (*Metadata, error) {
	if m, ok := seen[t]; ok {
		return m, nil
	}
	cacheMu.RLock()
	m, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return m, nil
	}

	m = &Metadata{
		Type:   t,
		Index:  toSnake(t.Name()),
		byWire: make(map[string]*Field),
	}
	seen[t] = m
	if err := collectFields(t, nil, m, seen); err != nil {
		return nil, err
	}
	return m, nil
}

func collectFields(t reflect.Type, path []int, m *Metadata, seen map[reflect.Type]*Metadata) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		fieldPath := append(append([]int(nil), path...), i)

		// Anonymous embedded structs flatten into the parent document.
		if sf.Anonymous && sf.Tag.Get(TagKey) == "" {
			et := sf.Type
			for et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && et != reflect.TypeOf(time.Time{}) {
				if err := collectFields(et, fieldPath, m, seen); err != nil {
					return err
				}
				continue
			}
		}

		f, err := parseField(sf, fieldPath, seen)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}

		if f.IsID {
			if sf.Type.Kind() != reflect.String {
				return fmt.Errorf("%w: %s.%s", ErrBadIDField, t.Name(), sf.Name)
			}
			m.id = f
		}
		if f.IsVersion {
			switch sf.Type.Kind() {
			case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
			default:
				return fmt.Errorf("%w: %s.%s", ErrBadVersion, t.Name(), sf.Name)
			}
			m.version = f
		}
		if f.IsRouting {
			m.routing = f
		}

		if _, dup := m.byWire[f.Wire]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, f.Wire)
		}
		m.byWire[f.Wire] = f
		m.Fields = append(m.Fields, f)
	}
	return nil
}

func parseField(sf reflect.StructField, path []int, seen map[reflect.Type]*Metadata) (*Field, error) {
	tag := sf.Tag.Get(TagKey)
	if tag == "-" {
		return nil, nil
	}

	f := &Field{
		Name:  sf.Name,
		Path:  path,
		Index: true,
	}

	parts := strings.Split(tag, ",")
	if tag != "" && parts[0] != "" && !strings.Contains(parts[0], ":") {
		f.Wire = parts[0]
		parts = parts[1:]
	}
	if f.Wire == "" {
		f.Wire = wireNameFromJSON(sf)
	}

	for _, p := range parts {
		if p == "" {
			continue
		}
		key, value, _ := strings.Cut(p, ":")
		switch key {
		case "type":
			ft := FieldType(value)
			if !validTypes[ft] {
				return nil, fmt.Errorf("schema: unknown field type %q on %s", value, sf.Name)
			}
			f.Type = ft
		case "analyzer":
			f.Analyzer = value
		case "search_analyzer":
			f.SearchAnalyzer = value
		case "format":
			f.Format = value
		case "copy_to":
			f.CopyTo = value
		case "dims":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("schema: invalid dims %q on %s", value, sf.Name)
			}
			f.Dims = n
		case "index":
			f.Index = value != "false"
		case "store":
			f.Store = true
		case "id":
			f.IsID = true
		case "version":
			f.IsVersion = true
		case "routing":
			f.IsRouting = true
		case "ignore":
			f.Ignore = true
		default:
			return nil, fmt.Errorf("schema: unknown tag option %q on %s", key, sf.Name)
		}
	}

	if f.Type == "" {
		ft, err := inferType(sf.Type, f)
		if err != nil {
			return nil, fmt.Errorf("%w (%s %s)", err, sf.Name, sf.Type)
		}
		f.Type = ft
	}

	if f.Type == TypeObject || f.Type == TypeNested {
		et := elemStruct(sf.Type)
		if et != nil {
			sub, err := parseStruct(et, seen)
			if err != nil {
				return nil, err
			}
			f.Object = sub
		}
	}

	return f, nil
}

// inferType maps Go kinds onto mapping types when the tag does not
// spell one out.
func inferType(t reflect.Type, f *Field) (FieldType, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return TypeDate, nil
	}
	switch t.Kind() {
	case reflect.String:
		if f.Analyzer != "" {
			return TypeText, nil
		}
		return TypeKeyword, nil
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return TypeLong, nil
	case reflect.Int32, reflect.Uint32:
		return TypeInteger, nil
	case reflect.Int16, reflect.Uint16:
		return TypeShort, nil
	case reflect.Int8, reflect.Uint8:
		return TypeByte, nil
	case reflect.Float32:
		return TypeFloat, nil
	case reflect.Float64:
		return TypeDouble, nil
	case reflect.Slice, reflect.Array:
		if f.Dims > 0 {
			return TypeDenseVector, nil
		}
		// Arrays are implicit; map the element type.
		return inferType(t.Elem(), f)
	case reflect.Map, reflect.Struct:
		return TypeObject, nil
	default:
		return "", ErrUnsupported
	}
}

func elemStruct(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) {
		return t
	}
	return nil
}

func wireNameFromJSON(sf reflect.StructField) string {
	if jt := sf.Tag.Get("json"); jt != "" {
		name, _, _ := strings.Cut(jt, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return toSnake(sf.Name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
