package engine

import (
	"math"
	"math/big"
)

// PreferredType is the hint passed to ToPrimitive.
type PreferredType uint8

const (
	HintDefault PreferredType = iota
	HintString
	HintNumber
)

func (h PreferredType) String() string {
	switch h {
	case HintString:
		return "string"
	case HintNumber:
		return "number"
	}
	return "default"
}

// ToPrimitive implements ToPrimitive.
func ToPrimitive(a *Agent, v Value, hint PreferredType) (Value, *Completion) {
	o := v.AsObject()
	if o == nil {
		return v, nil
	}
	exoticToPrim, ab := GetMethod(a, v, SymbolKey(SymbolToPrimitive))
	if ab != nil {
		return Undefined, ab
	}
	if !exoticToPrim.IsUndefined() {
		result, ab := Call(a, exoticToPrim, v, []Value{String(hint.String())})
		if ab != nil {
			return Undefined, ab
		}
		if result.IsObject() {
			return Undefined, a.Throw(TypeError, MsgToPrimitiveObject)
		}
		return result, nil
	}
	if hint == HintDefault {
		hint = HintNumber
	}
	return OrdinaryToPrimitive(a, o, hint)
}

// OrdinaryToPrimitive tries toString/valueOf in hint order.
func OrdinaryToPrimitive(a *Agent, o *Object, hint PreferredType) (Value, *Completion) {
	names := [2]string{"valueOf", "toString"}
	if hint == HintString {
		names = [2]string{"toString", "valueOf"}
	}
	for _, name := range names {
		method, ab := o.Get(a, StringKey(name), ObjectValue(o))
		if ab != nil {
			return Undefined, ab
		}
		if IsCallable(method) {
			result, ab := Call(a, method, ObjectValue(o), nil)
			if ab != nil {
				return Undefined, ab
			}
			if !result.IsObject() {
				return result, nil
			}
		}
	}
	return Undefined, a.Throw(TypeError, MsgToPrimitiveObject)
}

// ToBoolean implements ToBoolean.
func ToBoolean(v Value) bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.AsBool()
	case TypeNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TypeString:
		return v.str != ""
	case TypeBigInt:
		return v.AsBigInt().Sign() != 0
	}
	return true
}

// ToNumeric returns a Number or a BigInt.
func ToNumeric(a *Agent, v Value) (Value, *Completion) {
	prim, ab := ToPrimitive(a, v, HintNumber)
	if ab != nil {
		return Undefined, ab
	}
	if prim.IsBigInt() {
		return prim, nil
	}
	n, ab := ToNumber(a, prim)
	if ab != nil {
		return Undefined, ab
	}
	return Number(n), nil
}

// ToNumber implements ToNumber.
func ToNumber(a *Agent, v Value) (float64, *Completion) {
	switch v.typ {
	case TypeNumber:
		return v.num, nil
	case TypeUndefined:
		return math.NaN(), nil
	case TypeNull:
		return 0, nil
	case TypeBoolean:
		return v.num, nil
	case TypeString:
		return StringToNumber(v.str), nil
	case TypeSymbol:
		return 0, a.Throw(TypeError, MsgSymbolConversion, "number")
	case TypeBigInt:
		return 0, a.Throw(TypeError, MsgBigIntConversion, "number")
	}
	prim, ab := ToPrimitive(a, v, HintNumber)
	if ab != nil {
		return 0, ab
	}
	return ToNumber(a, prim)
}

// ToIntegerOrInfinity implements ToIntegerOrInfinity.
func ToIntegerOrInfinity(a *Agent, v Value) (float64, *Completion) {
	n, ab := ToNumber(a, v)
	if ab != nil {
		return 0, ab
	}
	return toIntegerOrInfinity(n), nil
}

func ToInt32(a *Agent, v Value) (int32, *Completion) {
	n, ab := ToNumber(a, v)
	if ab != nil {
		return 0, ab
	}
	return toInt32(n), nil
}

func ToUint32(a *Agent, v Value) (uint32, *Completion) {
	n, ab := ToNumber(a, v)
	if ab != nil {
		return 0, ab
	}
	return toUint32(n), nil
}

// ToLength clamps to [0, 2^53-1].
func ToLength(a *Agent, v Value) (int64, *Completion) {
	n, ab := ToIntegerOrInfinity(a, v)
	if ab != nil {
		return 0, ab
	}
	if n <= 0 {
		return 0, nil
	}
	return int64(math.Min(n, maxSafeInteger)), nil
}

// ToIndex implements ToIndex for buffer offsets and lengths.
func ToIndex(a *Agent, v Value) (int64, *Completion) {
	if v.IsUndefined() {
		return 0, nil
	}
	n, ab := ToIntegerOrInfinity(a, v)
	if ab != nil {
		return 0, ab
	}
	if n < 0 || n > maxSafeInteger {
		return 0, a.Throw(RangeError, MsgInvalidIndex)
	}
	return int64(n), nil
}

const maxSafeInteger = 9007199254740991

// ToBigInt implements ToBigInt.
func ToBigInt(a *Agent, v Value) (*big.Int, *Completion) {
	prim, ab := ToPrimitive(a, v, HintNumber)
	if ab != nil {
		return nil, ab
	}
	switch prim.typ {
	case TypeUndefined, TypeNull:
		return nil, a.Throw(TypeError, MsgCannotConvertToBigInt, prim.String())
	case TypeBoolean:
		if prim.AsBool() {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case TypeBigInt:
		return prim.AsBigInt(), nil
	case TypeNumber:
		return nil, a.Throw(TypeError, MsgCannotConvertToBigInt, prim.String())
	case TypeString:
		b, ok := StringToBigInt(prim.str)
		if !ok {
			return nil, a.Throw(SyntaxError, MsgCannotConvertToBigInt, prim.str)
		}
		return b, nil
	case TypeSymbol:
		return nil, a.Throw(TypeError, MsgSymbolConversion, "bigint")
	}
	return nil, a.Throw(TypeError, MsgCannotConvertToBigInt, prim.String())
}

// NumberToBigInt converts an integral Number.
func NumberToBigInt(a *Agent, n float64) (*big.Int, *Completion) {
	if !IsIntegralNumber(n) {
		return nil, a.Throw(RangeError, MsgNumberToBigInt, NumberToString(n))
	}
	b, _ := new(big.Float).SetFloat64(n).Int(nil)
	return b, nil
}

// BigIntToNumber rounds a BigInt to the nearest double.
func BigIntToNumber(b *big.Int) float64 {
	f, _ := new(big.Float).SetInt(b).Float64()
	return f
}

// ToString implements ToString.
func ToString(a *Agent, v Value) (string, *Completion) {
	switch v.typ {
	case TypeString:
		return v.str, nil
	case TypeSymbol:
		return "", a.Throw(TypeError, MsgSymbolConversion, "string")
	case TypeObject:
		prim, ab := ToPrimitive(a, v, HintString)
		if ab != nil {
			return "", ab
		}
		return ToString(a, prim)
	case TypeBigInt:
		return v.AsBigInt().String(), nil
	}
	return v.String(), nil
}

// ToStringValue is ToString returning a language value.
func ToStringValue(a *Agent, v Value) (Value, *Completion) {
	if v.IsString() {
		return v, nil
	}
	s, ab := ToString(a, v)
	if ab != nil {
		return Undefined, ab
	}
	return String(s), nil
}

// ToObject implements ToObject using the running realm's prototypes.
func ToObject(a *Agent, v Value) (*Object, *Completion) {
	realm := a.CurrentRealm()
	switch v.typ {
	case TypeObject:
		return v.AsObject(), nil
	case TypeUndefined, TypeNull:
		return nil, a.Throw(TypeError, MsgCannotConvertToObject, v.String())
	case TypeBoolean:
		return newObjectWithSlots(KindBooleanWrapper, realm.Intrinsic("%Boolean.prototype%"), v), nil
	case TypeNumber:
		return newObjectWithSlots(KindNumberWrapper, realm.Intrinsic("%Number.prototype%"), v), nil
	case TypeString:
		return StringCreate(v.str, realm.Intrinsic("%String.prototype%")), nil
	case TypeSymbol:
		return newObjectWithSlots(KindSymbolWrapper, realm.Intrinsic("%Symbol.prototype%"), v), nil
	case TypeBigInt:
		return newObjectWithSlots(KindBigIntWrapper, realm.Intrinsic("%BigInt.prototype%"), v), nil
	}
	return nil, a.Throw(TypeError, MsgCannotConvertToObject, v.String())
}

// PrimitiveData returns the [[StringData]]/[[NumberData]]/... slot of a
// wrapper object.
func PrimitiveData(o *Object, kind ObjectKind) (Value, bool) {
	if o == nil || o.kind != kind {
		return Undefined, false
	}
	v, ok := o.slots.(Value)
	return v, ok
}

// ToPropertyKey implements ToPropertyKey.
func ToPropertyKey(a *Agent, v Value) (PropertyKey, *Completion) {
	switch v.typ {
	case TypeString:
		return StringKey(v.str), nil
	case TypeSymbol:
		return SymbolKey(v.AsSymbol()), nil
	case TypeNumber:
		return StringKey(NumberToString(v.num)), nil
	}
	key, ab := ToPrimitive(a, v, HintString)
	if ab != nil {
		return PropertyKey{}, ab
	}
	if key.IsSymbol() {
		return SymbolKey(key.AsSymbol()), nil
	}
	s, ab := ToString(a, key)
	if ab != nil {
		return PropertyKey{}, ab
	}
	return StringKey(s), nil
}

// CanonicalNumericIndexString returns the numeric value of a canonical
// numeric string, or false.
func CanonicalNumericIndexString(s string) (float64, bool) {
	if s == "-0" {
		return math.Copysign(0, -1), true
	}
	n := StringToNumber(s)
	if NumberToString(n) != s {
		return 0, false
	}
	return n, true
}
