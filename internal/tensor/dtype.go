// Package tensor provides the core tensor types and operations for the grad library.
package tensor

// DType constrains the element types a tensor can carry.
// Compile-time type safety comes from Go generics; runtime type
// information is carried separately as a DataType.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// DataType is the runtime type tag for tensors.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
)

// dtypeTable indexes element size and display name by tag value.
var dtypeTable = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
	Int32:   {"int32", 4},
	Int64:   {"int64", 8},
	Uint8:   {"uint8", 1},
}

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	if dt < 0 || int(dt) >= len(dtypeTable) {
		panic("unknown data type")
	}
	return dtypeTable[dt].size
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dtypeTable) {
		return "unknown"
	}
	return dtypeTable[dt].name
}

// inferDataType maps a generic element type to its runtime tag.
func inferDataType[T DType](zero T) DataType {
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
