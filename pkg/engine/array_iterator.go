package engine

// arrayIteratorSlots are the slots of an Array Iterator. iterated is nil once
// the iterator is exhausted.
type arrayIteratorSlots struct {
	iterated *Object
	next     int64
	kind     EnumerableKind
}

// CreateArrayIterator implements CreateArrayIterator.
func (a *Agent) CreateArrayIterator(array *Object, kind EnumerableKind) *Object {
	proto := a.CurrentRealm().Intrinsic("%ArrayIteratorPrototype%")
	return newObjectWithSlots(KindIterator, proto, &arrayIteratorSlots{iterated: array, kind: kind})
}

// arrayIteratorNext implements %ArrayIteratorPrototype%.next.
func arrayIteratorNext(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o := this.AsObject()
	var s *arrayIteratorSlots
	if o != nil {
		s, _ = o.slots.(*arrayIteratorSlots)
	}
	if s == nil {
		return Undefined, a.Throw(TypeError, MsgIncompatibleReceiver, "Array Iterator.prototype.next", this.String())
	}
	if s.iterated == nil {
		return ObjectValue(CreateIterResultObject(a, Undefined, true)), nil
	}
	var length int64
	if ta, ok := s.iterated.slots.(*TypedArraySlots); ok {
		if IsDetachedBuffer(ta.Buffer) {
			return Undefined, a.Throw(TypeError, MsgDetachedBuffer, "Array Iterator.prototype.next")
		}
		length = TypedArrayLength(s.iterated)
	} else {
		n, ab := LengthOfArrayLike(a, s.iterated)
		if ab != nil {
			return Undefined, ab
		}
		length = n
	}
	if s.next >= length {
		s.iterated = nil
		return ObjectValue(CreateIterResultObject(a, Undefined, true)), nil
	}
	index := s.next
	s.next++
	if s.kind == EnumerateKeys {
		return ObjectValue(CreateIterResultObject(a, Int(index), false)), nil
	}
	v, ab := Get(a, s.iterated, IndexKey(index))
	if ab != nil {
		return Undefined, ab
	}
	if s.kind == EnumerateEntries {
		v = ObjectValue(CreateArrayFromList(a, []Value{Int(index), v}))
	}
	return ObjectValue(CreateIterResultObject(a, v, false)), nil
}

// arrayPrototypeValues implements Array.prototype.values, which is also
// Array.prototype[@@iterator].
func arrayPrototypeValues(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := ToObject(a, this)
	if ab != nil {
		return Undefined, ab
	}
	return ObjectValue(a.CreateArrayIterator(o, EnumerateValues)), nil
}
