package mapping

import (
	"fmt"
	"reflect"

	"github.com/ncobase/esodm/schema"
)

// ID reads the document id from an entity's id-tagged field.
func ID(entity any) (string, error) {
	m, err := schema.For(entity)
	if err != nil {
		return "", err
	}
	f := m.IDField()
	if f == nil {
		return "", fmt.Errorf("%w: %s", ErrNoIDField, m.Type)
	}
	rv, ok := fieldValue(deref(reflect.ValueOf(entity)), f.Path)
	if !ok {
		return "", nil
	}
	return rv.String(), nil
}

// SetID writes the document id into an entity. The entity must be a
// pointer for the write to stick.
func SetID(entity any, id string) error {
	m, err := schema.For(entity)
	if err != nil {
		return err
	}
	f := m.IDField()
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNoIDField, m.Type)
	}
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	fv, err := ensureField(rv.Elem(), f.Path)
	if err != nil {
		return err
	}
	fv.SetString(id)
	return nil
}

// Version reads the optimistic-concurrency version from an entity.
// The second return is false when the type maps no version field.
func Version(entity any) (int64, bool) {
	m, err := schema.For(entity)
	if err != nil || m.VersionField() == nil {
		return 0, false
	}
	rv, ok := fieldValue(deref(reflect.ValueOf(entity)), m.VersionField().Path)
	if !ok {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	default:
		return rv.Int(), true
	}
}

// SetVersion writes the version field, if the type maps one.
func SetVersion(entity any, version int64) {
	m, err := schema.For(entity)
	if err != nil || m.VersionField() == nil {
		return
	}
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	fv, err := ensureField(rv.Elem(), m.VersionField().Path)
	if err != nil {
		return
	}
	switch fv.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(version))
	default:
		fv.SetInt(version)
	}
}

// Routing reads the routing value from an entity, if mapped.
func Routing(entity any) string {
	m, err := schema.For(entity)
	if err != nil || m.RoutingField() == nil {
		return ""
	}
	rv, ok := fieldValue(deref(reflect.ValueOf(entity)), m.RoutingField().Path)
	if !ok {
		return ""
	}
	return rv.String()
}

func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}
