package engine

import (
	"fmt"
	"math"
	"math/big"
)

// ValueType tags the variant held by a Value.
type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeBigInt
	TypeString
	TypeSymbol
	TypeObject

	// typeEmpty is the completion-record "empty" marker. It never escapes
	// into script-visible storage.
	typeEmpty
)

// String returns the ECMAScript type name used in diagnostics.
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case typeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("<unknown type %d>", vt)
	}
}

// Value is an ECMAScript language value. The zero Value is undefined.
//
// Numbers and booleans live in num, strings in str, and the reference
// variants (*big.Int, *Symbol, *Object) in ref.
type Value struct {
	typ ValueType
	num float64
	str string
	ref any
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, num: 1}
	False     = Value{typ: TypeBoolean}
	NaN       = Value{typ: TypeNumber, num: math.NaN()}
	Empty     = Value{typ: typeEmpty}
)

// Number wraps a float64.
func Number(f float64) Value {
	return Value{typ: TypeNumber, num: f}
}

// Int is a convenience for integral numbers.
func Int(i int64) Value {
	return Value{typ: TypeNumber, num: float64(i)}
}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// String wraps a Go string. Strings are stored as UTF-8; code unit
// semantics are computed on demand.
func String(s string) Value {
	return Value{typ: TypeString, str: s}
}

// BigInt wraps an arbitrary precision integer. The caller must not mutate b
// afterwards.
func BigInt(b *big.Int) Value {
	return Value{typ: TypeBigInt, ref: b}
}

func SymbolValue(s *Symbol) Value {
	return Value{typ: TypeSymbol, ref: s}
}

// ObjectValue wraps o; a nil o yields null, which matches how prototypes are
// surfaced to script.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{typ: TypeObject, ref: o}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNullish() bool   { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsBigInt() bool    { return v.typ == TypeBigInt }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsSymbol() bool    { return v.typ == TypeSymbol }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsEmpty() bool     { return v.typ == typeEmpty }

// IsNumeric reports whether v is a Number or a BigInt.
func (v Value) IsNumeric() bool { return v.typ == TypeNumber || v.typ == TypeBigInt }

func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsBool() bool      { return v.num != 0 }
func (v Value) AsString() string  { return v.str }

func (v Value) AsBigInt() *big.Int {
	b, _ := v.ref.(*big.Int)
	return b
}

func (v Value) AsSymbol() *Symbol {
	s, _ := v.ref.(*Symbol)
	return s
}

// AsObject returns the object or nil when v is not an object.
func (v Value) AsObject() *Object {
	if v.typ != TypeObject {
		return nil
	}
	return v.ref.(*Object)
}

// String renders v for Go-side diagnostics. It never calls into script.
func (v Value) String() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return NumberToString(v.num)
	case TypeBigInt:
		return v.AsBigInt().String() + "n"
	case TypeString:
		return v.str
	case TypeSymbol:
		return v.AsSymbol().DescriptiveString()
	case TypeObject:
		return v.AsObject().describe()
	case typeEmpty:
		return "<empty>"
	}
	return fmt.Sprintf("<unknown type %d>", v.typ)
}

// Symbol is a unique, immutable identity with an optional description.
type Symbol struct {
	description Value // String or Undefined
}

// NewSymbol creates a fresh symbol. desc must be a String or Undefined.
func NewSymbol(desc Value) *Symbol {
	return &Symbol{description: desc}
}

func (s *Symbol) Description() Value { return s.description }

// DescriptiveString implements SymbolDescriptiveString.
func (s *Symbol) DescriptiveString() string {
	if s.description.IsUndefined() {
		return "Symbol()"
	}
	return "Symbol(" + s.description.str + ")"
}

// Well-known symbols are shared by every realm of every agent.
var (
	SymbolAsyncIterator      = wellKnown("Symbol.asyncIterator")
	SymbolHasInstance        = wellKnown("Symbol.hasInstance")
	SymbolIsConcatSpreadable = wellKnown("Symbol.isConcatSpreadable")
	SymbolIterator           = wellKnown("Symbol.iterator")
	SymbolMatch              = wellKnown("Symbol.match")
	SymbolMatchAll           = wellKnown("Symbol.matchAll")
	SymbolReplace            = wellKnown("Symbol.replace")
	SymbolSearch             = wellKnown("Symbol.search")
	SymbolSpecies            = wellKnown("Symbol.species")
	SymbolSplit              = wellKnown("Symbol.split")
	SymbolToPrimitive        = wellKnown("Symbol.toPrimitive")
	SymbolToStringTag        = wellKnown("Symbol.toStringTag")
	SymbolUnscopables        = wellKnown("Symbol.unscopables")
)

func wellKnown(name string) *Symbol {
	return &Symbol{description: String(name)}
}

// WellKnownSymbols lists the well-known symbols by their property name on the
// Symbol constructor.
func WellKnownSymbols() map[string]*Symbol {
	return map[string]*Symbol{
		"asyncIterator":      SymbolAsyncIterator,
		"hasInstance":        SymbolHasInstance,
		"isConcatSpreadable": SymbolIsConcatSpreadable,
		"iterator":           SymbolIterator,
		"match":              SymbolMatch,
		"matchAll":           SymbolMatchAll,
		"replace":            SymbolReplace,
		"search":             SymbolSearch,
		"species":            SymbolSpecies,
		"split":              SymbolSplit,
		"toPrimitive":        SymbolToPrimitive,
		"toStringTag":        SymbolToStringTag,
		"unscopables":        SymbolUnscopables,
	}
}

// TypeOf implements the typeof operator.
func TypeOf(v Value) string {
	switch v.typ {
	case TypeObject:
		if IsCallable(v) {
			return "function"
		}
		return "object"
	case TypeNull:
		return "object"
	default:
		return v.typ.String()
	}
}

// SameValue implements SameValue: NaN equals NaN, +0 differs from -0.
func SameValue(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	if x.typ == TypeNumber {
		if math.IsNaN(x.num) && math.IsNaN(y.num) {
			return true
		}
		if x.num == 0 && y.num == 0 {
			return math.Signbit(x.num) == math.Signbit(y.num)
		}
		return x.num == y.num
	}
	return sameValueNonNumber(x, y)
}

// SameValueZero is SameValue except that +0 and -0 are equal.
func SameValueZero(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	if x.typ == TypeNumber {
		if math.IsNaN(x.num) && math.IsNaN(y.num) {
			return true
		}
		return x.num == y.num
	}
	return sameValueNonNumber(x, y)
}

// IsStrictlyEqual implements ===.
func IsStrictlyEqual(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	if x.typ == TypeNumber {
		return x.num == y.num
	}
	return sameValueNonNumber(x, y)
}

func sameValueNonNumber(x, y Value) bool {
	switch x.typ {
	case TypeUndefined, TypeNull, typeEmpty:
		return true
	case TypeBigInt:
		return x.AsBigInt().Cmp(y.AsBigInt()) == 0
	case TypeString:
		return x.str == y.str
	case TypeBoolean:
		return x.num == y.num
	case TypeSymbol, TypeObject:
		return x.ref == y.ref
	}
	return false
}
