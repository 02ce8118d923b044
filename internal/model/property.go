package model

// Property ids read from a building's exemplar.
const (
	PropertyBudgetItemDepartment uint32 = 0xEA54D283
	PropertyBudgetItemLine       uint32 = 0xEA54D284
	PropertyBudgetItemPurpose    uint32 = 0xEA54D285
	PropertyBudgetItemCost       uint32 = 0xEA54D286

	PropertyDepartmentBudgetGroup uint32 = 0x90222B81
	PropertyDepartmentNameKey     uint32 = 0x4252085F
	PropertyLineItemAlgorithm     uint32 = 0x9EE1240F
)

// Wealth tier demand ids.
const (
	DemandResidentialLowWealth    uint32 = 0x1010
	DemandResidentialMediumWealth uint32 = 0x1020
	DemandResidentialHighWealth   uint32 = 0x1030
)

// WealthTiers lists the tier demand ids in summation order.
var WealthTiers = [3]uint32{
	DemandResidentialLowWealth,
	DemandResidentialMediumWealth,
	DemandResidentialHighWealth,
}

// OccupantTypeBuilding is the occupant type of buildings.
const OccupantTypeBuilding uint32 = 0x278128A0

// PropertyKind is the variant type of a property value.
type PropertyKind uint16

// Property value kinds used by the engine.
const (
	KindUnknown PropertyKind = iota
	KindUint32
	KindUint32Array
	KindSint64
	KindSint64Array
	KindFloat32
	KindFloat32Array
)

func (k PropertyKind) String() string {
	switch k {
	case KindUint32:
		return "uint32"
	case KindUint32Array:
		return "uint32[]"
	case KindSint64:
		return "sint64"
	case KindSint64Array:
		return "sint64[]"
	case KindFloat32:
		return "float32"
	case KindFloat32Array:
		return "float32[]"
	default:
		return "unknown"
	}
}

// PropertyValue is a typed property variant. Scalar kinds store their
// single value in the first element of the matching slice.
type PropertyValue struct {
	Uint32s  []uint32
	Sint64s  []int64
	Float32s []float32
	Kind     PropertyKind
}

// Count returns the number of elements held by the value.
func (v PropertyValue) Count() int {
	switch v.Kind {
	case KindUint32, KindUint32Array:
		return len(v.Uint32s)
	case KindSint64, KindSint64Array:
		return len(v.Sint64s)
	case KindFloat32, KindFloat32Array:
		return len(v.Float32s)
	default:
		return 0
	}
}

// Uint32Array builds a uint32 array value.
func Uint32Array(values ...uint32) PropertyValue {
	return PropertyValue{Kind: KindUint32Array, Uint32s: values}
}

// Sint64Array builds a sint64 array value.
func Sint64Array(values ...int64) PropertyValue {
	return PropertyValue{Kind: KindSint64Array, Sint64s: values}
}

// Float32Array builds a float32 array value.
func Float32Array(values ...float32) PropertyValue {
	return PropertyValue{Kind: KindFloat32Array, Float32s: values}
}

// Float32 builds a scalar float32 value.
func Float32(value float32) PropertyValue {
	return PropertyValue{Kind: KindFloat32, Float32s: []float32{value}}
}
