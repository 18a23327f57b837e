package schema

// FieldType represents an index mapping field type.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeKeyword     FieldType = "keyword"
	TypeLong        FieldType = "long"
	TypeInteger     FieldType = "integer"
	TypeShort       FieldType = "short"
	TypeByte        FieldType = "byte"
	TypeDouble      FieldType = "double"
	TypeFloat       FieldType = "float"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeObject      FieldType = "object"
	TypeNested      FieldType = "nested"
	TypeIP          FieldType = "ip"
	TypeGeoPoint    FieldType = "geo_point"
	TypeDenseVector FieldType = "dense_vector"
)

var validTypes = map[FieldType]bool{
	TypeText: true, TypeKeyword: true, TypeLong: true, TypeInteger: true,
	TypeShort: true, TypeByte: true, TypeDouble: true, TypeFloat: true,
	TypeBoolean: true, TypeDate: true, TypeObject: true, TypeNested: true,
	TypeIP: true, TypeGeoPoint: true, TypeDenseVector: true,
}

// Indexed lets a domain type choose its own index name.
type Indexed interface {
	IndexName() string
}
