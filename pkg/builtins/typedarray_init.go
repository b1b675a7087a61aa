package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type TypedArrayInitializer struct{}

func (t *TypedArrayInitializer) Name() string  { return "TypedArray" }
func (t *TypedArrayInitializer) Priority() int { return PriorityTyped }

func (t *TypedArrayInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := b.Object()
	ctor := b.Constructor("TypedArray", 0, func(a *Agent, _ Value, _ []Value, _ *Object) (Value, *Completion) {
		return undefined, a.Throw(engine.TypeError, engine.MsgAbstractConstructor, "TypedArray")
	}, proto, nil)
	defineSpecies(b, ctor)

	b.Getter(proto, engine.StringKey("buffer"), typedArrayGetter("buffer", func(s *engine.TypedArraySlots) Value {
		return engine.ObjectValue(s.Buffer)
	}))
	b.Getter(proto, engine.StringKey("byteLength"), typedArrayGetter("byteLength", func(s *engine.TypedArraySlots) Value {
		if engine.IsDetachedBuffer(s.Buffer) {
			return engine.Int(0)
		}
		return engine.Int(s.ByteLength())
	}))
	b.Getter(proto, engine.StringKey("byteOffset"), typedArrayGetter("byteOffset", func(s *engine.TypedArraySlots) Value {
		if engine.IsDetachedBuffer(s.Buffer) {
			return engine.Int(0)
		}
		return engine.Int(s.ByteOffset)
	}))
	b.Getter(proto, engine.StringKey("length"), typedArrayGetter("length", func(s *engine.TypedArraySlots) Value {
		if engine.IsDetachedBuffer(s.Buffer) {
			return engine.Int(0)
		}
		return engine.Int(s.ArrayLength)
	}))
	b.Getter(proto, engine.SymbolKey(engine.SymbolToStringTag), func(_ *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		if o := this.AsObject(); o != nil {
			if s, ok := o.Slots().(*engine.TypedArraySlots); ok {
				return engine.String(s.Type.TypedArrayName()), nil
			}
		}
		return undefined, nil
	})
	b.Method(proto, "entries", 0, typedArrayIterator(engine.EnumerateEntries))
	b.Method(proto, "fill", 1, typedArrayFill)
	b.Method(proto, "join", 1, func(a *Agent, this Value, args []Value, f *Object) (Value, *Completion) {
		if _, ab := validateTypedArray(a, this, "join"); ab != nil {
			return undefined, ab
		}
		return arrayJoin(a, this, args, f)
	})
	b.Method(proto, "keys", 0, typedArrayIterator(engine.EnumerateKeys))
	b.Method(proto, "subarray", 2, typedArraySubarray)
	values := b.Method(proto, "values", 0, typedArrayIterator(engine.EnumerateValues))
	proto.DefineDirect(engine.SymbolKey(engine.SymbolIterator), engine.ObjectValue(values), true, false, true)

	for _, et := range engine.ElementTypes() {
		name := et.TypedArrayName()
		p := engine.OrdinaryObjectCreate(proto)
		c := b.Constructor(name, 3, typedArrayConstructor(et), p, ctor)
		size := engine.Int(int64(et.ElementSize()))
		b.Constant(c, "BYTES_PER_ELEMENT", size)
		b.Constant(p, "BYTES_PER_ELEMENT", size)
	}
	return nil
}

// validateTypedArray implements ValidateTypedArray.
func validateTypedArray(a *Agent, v Value, method string) (*engine.TypedArraySlots, *Completion) {
	s, ab := slotsOf[*engine.TypedArraySlots](a, v, "%TypedArray%.prototype."+method)
	if ab != nil {
		return nil, ab
	}
	if engine.IsDetachedBuffer(s.Buffer) {
		return nil, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, method)
	}
	return s, nil
}

func typedArrayGetter(name string, get func(*engine.TypedArraySlots) Value) engine.NativeFunction {
	return func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		s, ab := slotsOf[*engine.TypedArraySlots](a, this, "get %TypedArray%.prototype."+name)
		if ab != nil {
			return undefined, ab
		}
		return get(s), nil
	}
}

func typedArrayIterator(kind engine.EnumerableKind) engine.NativeFunction {
	return func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		if _, ab := validateTypedArray(a, this, "values"); ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(a.CreateArrayIterator(this.AsObject(), kind)), nil
	}
}

// typedArrayConstructor implements the concrete TypedArray constructors
// for each argument shape: nothing, a length, another typed array, a
// buffer with offset and length, or an iterable or array-like object.
func typedArrayConstructor(t engine.ElementType) engine.NativeFunction {
	name := t.TypedArrayName()
	return func(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
		if newTarget == nil {
			return undefined, a.Throw(engine.TypeError, engine.MsgConstructorRequired, name)
		}
		first := arg(args, 0)
		src := first.AsObject()
		if src == nil {
			length, ab := engine.ToIndex(a, first)
			if ab != nil {
				return undefined, ab
			}
			o, ab := engine.AllocateTypedArray(a, t, newTarget, length)
			if ab != nil {
				return undefined, ab
			}
			return engine.ObjectValue(o), nil
		}
		switch s := src.Slots().(type) {
		case *engine.ArrayBufferSlots:
			return typedArrayFromBuffer(a, t, newTarget, src, s, arg(args, 1), arg(args, 2))
		case *engine.TypedArraySlots:
			if engine.IsDetachedBuffer(s.Buffer) {
				return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, "construct "+name)
			}
			if s.Type.IsBigInt() != t.IsBigInt() {
				return undefined, a.Throw(engine.TypeError, engine.MsgGeneric, "Content types of "+s.Type.TypedArrayName()+" and "+name+" differ")
			}
			values := make([]Value, s.ArrayLength)
			for i := range values {
				values[i] = a.TypedArrayGetElement(src, float64(i))
			}
			return typedArrayFromList(a, t, newTarget, values)
		}
		using, ab := engine.GetMethod(a, first, engine.SymbolKey(engine.SymbolIterator))
		if ab != nil {
			return undefined, ab
		}
		var values []Value
		if !using.IsUndefined() {
			rec, ab := engine.GetIteratorFromMethod(a, first, using)
			if ab != nil {
				return undefined, ab
			}
			if values, ab = engine.IteratorToList(a, rec); ab != nil {
				return undefined, ab
			}
		} else {
			length, ab := engine.LengthOfArrayLike(a, src)
			if ab != nil {
				return undefined, ab
			}
			values = make([]Value, length)
			for k := range values {
				if values[k], ab = engine.Get(a, src, engine.IndexKey(int64(k))); ab != nil {
					return undefined, ab
				}
			}
		}
		return typedArrayFromList(a, t, newTarget, values)
	}
}

func typedArrayFromList(a *Agent, t engine.ElementType, newTarget *Object, values []Value) (Value, *Completion) {
	o, ab := engine.AllocateTypedArray(a, t, newTarget, int64(len(values)))
	if ab != nil {
		return undefined, ab
	}
	for k, v := range values {
		if ab := engine.Set(a, o, engine.IndexKey(int64(k)), v, true); ab != nil {
			return undefined, ab
		}
	}
	return engine.ObjectValue(o), nil
}

// typedArrayFromBuffer implements InitializeTypedArrayFromArrayBuffer.
func typedArrayFromBuffer(a *Agent, t engine.ElementType, newTarget, buf *Object, s *engine.ArrayBufferSlots, byteOffset, length Value) (Value, *Completion) {
	size := int64(t.ElementSize())
	offset, ab := engine.ToIndex(a, byteOffset)
	if ab != nil {
		return undefined, ab
	}
	if offset%size != 0 {
		return undefined, a.Throw(engine.RangeError, engine.MsgTypedArrayOffset, engine.Int(offset).String())
	}
	var newLength int64
	if !length.IsUndefined() {
		if newLength, ab = engine.ToIndex(a, length); ab != nil {
			return undefined, ab
		}
	}
	if s.Detached {
		return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, "construct "+t.TypedArrayName())
	}
	bufLen := int64(len(s.Data))
	var byteLength int64
	if length.IsUndefined() {
		if bufLen%size != 0 {
			return undefined, a.Throw(engine.RangeError, engine.MsgInvalidTypedArrayLen, engine.Int(bufLen).String())
		}
		byteLength = bufLen - offset
		if byteLength < 0 {
			return undefined, a.Throw(engine.RangeError, engine.MsgTypedArrayOffset, engine.Int(offset).String())
		}
	} else {
		byteLength = newLength * size
		if offset+byteLength > bufLen {
			return undefined, a.Throw(engine.RangeError, engine.MsgInvalidTypedArrayLen, engine.Int(newLength).String())
		}
	}
	proto, ab := engine.GetPrototypeFromConstructor(a, newTarget, "%"+t.TypedArrayName()+".prototype%")
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(engine.TypedArrayCreate(t, proto, buf, offset, byteLength/size)), nil
}

func typedArrayFill(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := validateTypedArray(a, this, "fill")
	if ab != nil {
		return undefined, ab
	}
	o := this.AsObject()
	var v Value
	if s.Type.IsBigInt() {
		n, ab := engine.ToBigInt(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		v = engine.BigInt(n)
	} else {
		n, ab := engine.ToNumber(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		v = engine.Number(n)
	}
	length := s.ArrayLength
	k, ab := relativeIndex(a, arg(args, 1), length, 0)
	if ab != nil {
		return undefined, ab
	}
	final, ab := relativeIndex(a, arg(args, 2), length, length)
	if ab != nil {
		return undefined, ab
	}
	if engine.IsDetachedBuffer(s.Buffer) {
		return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, "fill")
	}
	for ; k < final; k++ {
		if ab := a.TypedArraySetElement(o, float64(k), v); ab != nil {
			return undefined, ab
		}
	}
	return this, nil
}

func typedArraySubarray(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := slotsOf[*engine.TypedArraySlots](a, this, "%TypedArray%.prototype.subarray")
	if ab != nil {
		return undefined, ab
	}
	length := engine.TypedArrayLength(this.AsObject())
	begin, ab := relativeIndex(a, arg(args, 0), length, 0)
	if ab != nil {
		return undefined, ab
	}
	end, ab := relativeIndex(a, arg(args, 1), length, length)
	if ab != nil {
		return undefined, ab
	}
	newLength := max(end-begin, 0)
	size := int64(s.Type.ElementSize())
	ctor, ab := engine.SpeciesConstructor(a, this.AsObject(), a.CurrentRealm().Intrinsic("%"+s.Type.TypedArrayName()+"%"))
	if ab != nil {
		return undefined, ab
	}
	created, ab := engine.Construct(a, ctor, []Value{
		engine.ObjectValue(s.Buffer),
		engine.Int(s.ByteOffset + begin*size),
		engine.Int(newLength),
	}, nil)
	if ab != nil {
		return undefined, ab
	}
	if _, ab := validateTypedArray(a, created, "subarray"); ab != nil {
		return undefined, ab
	}
	return created, nil
}
