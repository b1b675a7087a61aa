package engine

import (
	"encoding/binary"
	"math"
	"math/big"
)

// ArrayBufferSlots are the slots of an ArrayBuffer.
type ArrayBufferSlots struct {
	Data      []byte
	Detached  bool
	DetachKey Value
}

// AllocateArrayBuffer implements AllocateArrayBuffer.
func AllocateArrayBuffer(a *Agent, ctor *Object, byteLength int64) (*Object, *Completion) {
	proto, ab := GetPrototypeFromConstructor(a, ctor, "%ArrayBuffer.prototype%")
	if ab != nil {
		return nil, ab
	}
	if byteLength > maxSafeInteger || byteLength > 1<<32 {
		return nil, a.Throw(RangeError, MsgInvalidTypedArrayLen, Int(byteLength).String())
	}
	slots := &ArrayBufferSlots{Data: make([]byte, byteLength), DetachKey: Undefined}
	return newObjectWithSlots(KindArrayBuffer, proto, slots), nil
}

// IsDetachedBuffer implements IsDetachedBuffer.
func IsDetachedBuffer(buf *Object) bool {
	return buf.slots.(*ArrayBufferSlots).Detached
}

// DetachArrayBuffer implements DetachArrayBuffer.
func DetachArrayBuffer(a *Agent, buf *Object, key Value) *Completion {
	s, ok := buf.slots.(*ArrayBufferSlots)
	if !ok {
		return a.Throw(TypeError, MsgIncompatibleReceiver, "DetachArrayBuffer", buf.describe())
	}
	if !SameValue(s.DetachKey, key) {
		return a.Throw(TypeError, MsgGeneric, "ArrayBuffer detach key mismatch")
	}
	s.Data = nil
	s.Detached = true
	return nil
}

// ElementType is a TypedArray element type.
type ElementType uint8

const (
	ElementInt8 ElementType = iota
	ElementUint8
	ElementUint8Clamped
	ElementInt16
	ElementUint16
	ElementInt32
	ElementUint32
	ElementFloat32
	ElementFloat64
	ElementBigInt64
	ElementBigUint64
)

type elementInfo struct {
	name   string
	size   int
	bigint bool
}

var elementTypes = [...]elementInfo{
	ElementInt8:         {"Int8Array", 1, false},
	ElementUint8:        {"Uint8Array", 1, false},
	ElementUint8Clamped: {"Uint8ClampedArray", 1, false},
	ElementInt16:        {"Int16Array", 2, false},
	ElementUint16:       {"Uint16Array", 2, false},
	ElementInt32:        {"Int32Array", 4, false},
	ElementUint32:       {"Uint32Array", 4, false},
	ElementFloat32:      {"Float32Array", 4, false},
	ElementFloat64:      {"Float64Array", 8, false},
	ElementBigInt64:     {"BigInt64Array", 8, true},
	ElementBigUint64:    {"BigUint64Array", 8, true},
}

// TypedArrayName is the [[TypedArrayName]] of an element type.
func (t ElementType) TypedArrayName() string { return elementTypes[t].name }

// ElementSize is the byte size of one element.
func (t ElementType) ElementSize() int { return elementTypes[t].size }

// IsBigInt reports whether the [[ContentType]] is BigInt.
func (t ElementType) IsBigInt() bool { return elementTypes[t].bigint }

// ElementTypes lists the element types in table order.
func ElementTypes() []ElementType {
	out := make([]ElementType, len(elementTypes))
	for i := range out {
		out[i] = ElementType(i)
	}
	return out
}

// TypedArraySlots are the slots of a TypedArray.
type TypedArraySlots struct {
	Type        ElementType
	Buffer      *Object
	ByteOffset  int64
	ArrayLength int64
}

// ByteLength is [[ByteLength]].
func (s *TypedArraySlots) ByteLength() int64 {
	return s.ArrayLength * int64(s.Type.ElementSize())
}

// AllocateTypedArray implements AllocateTypedArray with a fresh buffer of
// length elements.
func AllocateTypedArray(a *Agent, t ElementType, newTarget *Object, length int64) (*Object, *Completion) {
	proto, ab := GetPrototypeFromConstructor(a, newTarget, "%"+t.TypedArrayName()+".prototype%")
	if ab != nil {
		return nil, ab
	}
	buf, ab := AllocateArrayBuffer(a, a.CurrentRealm().Intrinsic("%ArrayBuffer%"), length*int64(t.ElementSize()))
	if ab != nil {
		return nil, ab
	}
	return TypedArrayCreate(t, proto, buf, 0, length), nil
}

// TypedArrayCreate wraps an existing buffer range.
func TypedArrayCreate(t ElementType, proto *Object, buf *Object, byteOffset, length int64) *Object {
	slots := &TypedArraySlots{Type: t, Buffer: buf, ByteOffset: byteOffset, ArrayLength: length}
	return MakeBasicObject(KindTypedArray, typedArrayMethods, proto, slots)
}

// TypedArrayLength returns the element count, zero when detached.
func TypedArrayLength(o *Object) int64 {
	s := o.slots.(*TypedArraySlots)
	if IsDetachedBuffer(s.Buffer) {
		return 0
	}
	return s.ArrayLength
}

// IsValidIntegerIndex implements IsValidIntegerIndex.
func IsValidIntegerIndex(o *Object, index float64) bool {
	s := o.slots.(*TypedArraySlots)
	if IsDetachedBuffer(s.Buffer) {
		return false
	}
	if !IsIntegralNumber(index) {
		return false
	}
	if index == 0 && math.Signbit(index) {
		return false
	}
	return index >= 0 && index < float64(s.ArrayLength)
}

// TypedArrayGetElement implements TypedArrayGetElement.
func (a *Agent) TypedArrayGetElement(o *Object, index float64) Value {
	if !IsValidIntegerIndex(o, index) {
		return Undefined
	}
	s := o.slots.(*TypedArraySlots)
	offset := s.ByteOffset + int64(index)*int64(s.Type.ElementSize())
	return a.getValueFromBuffer(s.Buffer, offset, s.Type)
}

// TypedArraySetElement implements TypedArraySetElement.
func (a *Agent) TypedArraySetElement(o *Object, index float64, v Value) *Completion {
	s := o.slots.(*TypedArraySlots)
	var num Value
	if s.Type.IsBigInt() {
		b, ab := ToBigInt(a, v)
		if ab != nil {
			return ab
		}
		num = BigInt(b)
	} else {
		n, ab := ToNumber(a, v)
		if ab != nil {
			return ab
		}
		num = Number(n)
	}
	if IsValidIntegerIndex(o, index) {
		offset := s.ByteOffset + int64(index)*int64(s.Type.ElementSize())
		a.setValueInBuffer(s.Buffer, offset, s.Type, num)
	}
	return nil
}

func (a *Agent) byteOrder() binary.ByteOrder {
	if a.IsLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

func (a *Agent) getValueFromBuffer(buf *Object, offset int64, t ElementType) Value {
	data := buf.slots.(*ArrayBufferSlots).Data[offset:]
	order := a.byteOrder()
	switch t {
	case ElementInt8:
		return Int(int64(int8(data[0])))
	case ElementUint8, ElementUint8Clamped:
		return Int(int64(data[0]))
	case ElementInt16:
		return Int(int64(int16(order.Uint16(data))))
	case ElementUint16:
		return Int(int64(order.Uint16(data)))
	case ElementInt32:
		return Int(int64(int32(order.Uint32(data))))
	case ElementUint32:
		return Int(int64(order.Uint32(data)))
	case ElementFloat32:
		return Number(float64(math.Float32frombits(order.Uint32(data))))
	case ElementFloat64:
		return Number(math.Float64frombits(order.Uint64(data)))
	case ElementBigInt64:
		return BigInt(big.NewInt(int64(order.Uint64(data))))
	case ElementBigUint64:
		return BigInt(new(big.Int).SetUint64(order.Uint64(data)))
	}
	panic(assertionf("unknown element type %d", t))
}

func (a *Agent) setValueInBuffer(buf *Object, offset int64, t ElementType, v Value) {
	data := buf.slots.(*ArrayBufferSlots).Data[offset:]
	order := a.byteOrder()
	switch t {
	case ElementInt8, ElementUint8:
		data[0] = byte(toInt32(v.num))
	case ElementUint8Clamped:
		data[0] = toUint8Clamp(v.num)
	case ElementInt16, ElementUint16:
		order.PutUint16(data, toUint16(v.num))
	case ElementInt32, ElementUint32:
		order.PutUint32(data, toUint32(v.num))
	case ElementFloat32:
		order.PutUint32(data, math.Float32bits(float32(v.num)))
	case ElementFloat64:
		order.PutUint64(data, math.Float64bits(v.num))
	case ElementBigInt64, ElementBigUint64:
		m := new(big.Int).Mod(v.AsBigInt(), two64)
		order.PutUint64(data, m.Uint64())
	}
}

// toUint8Clamp implements ToUint8Clamp on an already converted number.
func toUint8Clamp(f float64) byte {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return byte(math.RoundToEven(f))
}

// typedArrayIndex returns the canonical numeric index of a string key.
func typedArrayIndex(k PropertyKey) (float64, bool) {
	if k.IsSymbol() {
		return 0, false
	}
	return CanonicalNumericIndexString(k.name)
}

func typedArrayGetOwnProperty(a *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	if index, ok := typedArrayIndex(k); ok {
		v := a.TypedArrayGetElement(o, index)
		if v.IsUndefined() {
			return nil, nil
		}
		d := DataDescriptor(v, true, true, true)
		return &d, nil
	}
	return OrdinaryGetOwnProperty(o, k), nil
}

func typedArrayHasProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	if index, ok := typedArrayIndex(k); ok {
		return IsValidIntegerIndex(o, index), nil
	}
	return OrdinaryHasProperty(a, o, k)
}

func typedArrayDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	index, ok := typedArrayIndex(k)
	if !ok {
		return OrdinaryDefineOwnProperty(a, o, k, desc)
	}
	if !IsValidIntegerIndex(o, index) {
		return false, nil
	}
	if desc.HasConfigurable && !desc.Configurable {
		return false, nil
	}
	if desc.HasEnumerable && !desc.Enumerable {
		return false, nil
	}
	if desc.IsAccessorDescriptor() {
		return false, nil
	}
	if desc.HasWritable && !desc.Writable {
		return false, nil
	}
	if desc.HasValue {
		if ab := a.TypedArraySetElement(o, index, desc.Value); ab != nil {
			return false, ab
		}
	}
	return true, nil
}

func typedArrayGet(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion) {
	if index, ok := typedArrayIndex(k); ok {
		return a.TypedArrayGetElement(o, index), nil
	}
	return OrdinaryGet(a, o, k, receiver)
}

func typedArraySet(a *Agent, o *Object, k PropertyKey, v Value, receiver Value) (bool, *Completion) {
	if index, ok := typedArrayIndex(k); ok {
		if receiver.AsObject() == o {
			if ab := a.TypedArraySetElement(o, index, v); ab != nil {
				return false, ab
			}
			return true, nil
		}
		if !IsValidIntegerIndex(o, index) {
			return true, nil
		}
	}
	return OrdinarySet(a, o, k, v, receiver)
}

func typedArrayDelete(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	if index, ok := typedArrayIndex(k); ok {
		return !IsValidIntegerIndex(o, index), nil
	}
	return OrdinaryDelete(a, o, k)
}

func typedArrayOwnPropertyKeys(_ *Agent, o *Object) ([]PropertyKey, *Completion) {
	n := TypedArrayLength(o)
	own := o.props.keys()
	keys := make([]PropertyKey, 0, int(n)+len(own))
	for i := int64(0); i < n; i++ {
		keys = append(keys, IndexKey(i))
	}
	return append(keys, own...), nil
}
