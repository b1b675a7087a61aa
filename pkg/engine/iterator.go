package engine

// IteratorRecord is an Iterator Record.
type IteratorRecord struct {
	Iterator   *Object
	NextMethod Value
	Done       bool
}

// GetIteratorFromMethod implements GetIteratorFromMethod.
func GetIteratorFromMethod(a *Agent, obj Value, method Value) (*IteratorRecord, *Completion) {
	iterator, ab := Call(a, method, obj, nil)
	if ab != nil {
		return nil, ab
	}
	it := iterator.AsObject()
	if it == nil {
		return nil, a.Throw(TypeError, MsgNotObject, "Result of the Symbol.iterator method")
	}
	next, ab := Get(a, it, StringKey("next"))
	if ab != nil {
		return nil, ab
	}
	return &IteratorRecord{Iterator: it, NextMethod: next}, nil
}

// GetIterator implements GetIterator with kind sync or async.
func GetIterator(a *Agent, obj Value, async bool) (*IteratorRecord, *Completion) {
	if async {
		method, ab := GetMethod(a, obj, SymbolKey(SymbolAsyncIterator))
		if ab != nil {
			return nil, ab
		}
		if method.IsUndefined() {
			syncMethod, ab := GetMethod(a, obj, SymbolKey(SymbolIterator))
			if ab != nil {
				return nil, ab
			}
			if syncMethod.IsUndefined() {
				return nil, a.Throw(TypeError, MsgNotAsyncIterable, describeValue(obj))
			}
			syncRecord, ab := GetIteratorFromMethod(a, obj, syncMethod)
			if ab != nil {
				return nil, ab
			}
			return a.CreateAsyncFromSyncIterator(syncRecord), nil
		}
		return GetIteratorFromMethod(a, obj, method)
	}
	method, ab := GetMethod(a, obj, SymbolKey(SymbolIterator))
	if ab != nil {
		return nil, ab
	}
	if method.IsUndefined() {
		return nil, a.Throw(TypeError, MsgNotIterable, describeValue(obj))
	}
	return GetIteratorFromMethod(a, obj, method)
}

// IteratorNext implements IteratorNext. At most one argument is passed on.
func IteratorNext(a *Agent, rec *IteratorRecord, value ...Value) (*Object, *Completion) {
	result, ab := Call(a, rec.NextMethod, ObjectValue(rec.Iterator), value)
	if ab != nil {
		rec.Done = true
		return nil, ab
	}
	o := result.AsObject()
	if o == nil {
		rec.Done = true
		return nil, a.Throw(TypeError, MsgIteratorResultNotObj, result.String())
	}
	return o, nil
}

// IteratorComplete implements IteratorComplete.
func IteratorComplete(a *Agent, result *Object) (bool, *Completion) {
	v, ab := Get(a, result, StringKey("done"))
	if ab != nil {
		return false, ab
	}
	return ToBoolean(v), nil
}

// IteratorValue implements IteratorValue.
func IteratorValue(a *Agent, result *Object) (Value, *Completion) {
	return Get(a, result, StringKey("value"))
}

// IteratorStep implements IteratorStep: nil means the iterator is done.
func IteratorStep(a *Agent, rec *IteratorRecord) (*Object, *Completion) {
	result, ab := IteratorNext(a, rec)
	if ab != nil {
		return nil, ab
	}
	done, ab := IteratorComplete(a, result)
	if ab != nil {
		rec.Done = true
		return nil, ab
	}
	if done {
		rec.Done = true
		return nil, nil
	}
	return result, nil
}

// IteratorStepValue implements IteratorStepValue.
func IteratorStepValue(a *Agent, rec *IteratorRecord) (v Value, done bool, ab *Completion) {
	result, ab := IteratorStep(a, rec)
	if ab != nil {
		return Undefined, true, ab
	}
	if result == nil {
		return Undefined, true, nil
	}
	v, ab = IteratorValue(a, result)
	if ab != nil {
		rec.Done = true
		return Undefined, true, ab
	}
	return v, false, nil
}

// IteratorClose implements IteratorClose. ab is the completion being
// propagated; nil stands for a normal completion.
func IteratorClose(a *Agent, rec *IteratorRecord, ab *Completion) *Completion {
	iterator := ObjectValue(rec.Iterator)
	returnMethod, inner := GetMethod(a, iterator, StringKey("return"))
	var innerResult Value
	if inner == nil {
		if returnMethod.IsUndefined() {
			return ab
		}
		innerResult, inner = Call(a, returnMethod, iterator, nil)
	}
	if ab != nil && ab.Type == CompletionThrow {
		return ab
	}
	if inner != nil {
		return inner
	}
	if !innerResult.IsObject() {
		return a.Throw(TypeError, MsgIteratorResultNotObj, innerResult.String())
	}
	return ab
}

// AsyncIteratorClose implements AsyncIteratorClose. It awaits, so it may
// only run inside an async body.
func AsyncIteratorClose(a *Agent, rec *IteratorRecord, ab *Completion) *Completion {
	iterator := ObjectValue(rec.Iterator)
	returnMethod, inner := GetMethod(a, iterator, StringKey("return"))
	var innerResult Value
	if inner == nil {
		if returnMethod.IsUndefined() {
			return ab
		}
		innerResult, inner = Call(a, returnMethod, iterator, nil)
		if inner == nil {
			innerResult, inner = a.Await(innerResult)
		}
	}
	if ab != nil && ab.Type == CompletionThrow {
		return ab
	}
	if inner != nil {
		return inner
	}
	if !innerResult.IsObject() {
		return a.Throw(TypeError, MsgIteratorResultNotObj, innerResult.String())
	}
	return ab
}

// CreateIterResultObject implements CreateIterResultObject.
func CreateIterResultObject(a *Agent, v Value, done bool) *Object {
	o := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	o.DefineDirect(StringKey("value"), v, true, true, true)
	o.DefineDirect(StringKey("done"), Bool(done), true, true, true)
	return o
}

// IteratorToList implements IteratorToList.
func IteratorToList(a *Agent, rec *IteratorRecord) ([]Value, *Completion) {
	var values []Value
	for {
		v, done, ab := IteratorStepValue(a, rec)
		if ab != nil {
			return nil, ab
		}
		if done {
			return values, nil
		}
		values = append(values, v)
	}
}

// describeValue renders v for "is not iterable" style messages.
func describeValue(v Value) string {
	if v.IsObject() {
		return "object"
	}
	if v.IsString() {
		return `"` + v.str + `"`
	}
	return v.String()
}

// --- %AsyncFromSyncIteratorPrototype% ---

// asyncFromSyncSlots is [[SyncIteratorRecord]].
type asyncFromSyncSlots struct {
	sync *IteratorRecord
}

// CreateAsyncFromSyncIterator implements CreateAsyncFromSyncIterator.
func (a *Agent) CreateAsyncFromSyncIterator(syncRecord *IteratorRecord) *IteratorRecord {
	proto := a.CurrentRealm().Intrinsic("%AsyncFromSyncIteratorPrototype%")
	obj := newObjectWithSlots(KindIterator, proto, &asyncFromSyncSlots{sync: syncRecord})
	next := Must(Get(a, obj, StringKey("next")))
	return &IteratorRecord{Iterator: obj, NextMethod: next}
}

func asyncFromSyncNext(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s := this.AsObject().slots.(*asyncFromSyncSlots)
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	var result *Object
	var ab *Completion
	if len(args) > 0 {
		result, ab = IteratorNext(a, s.sync, args[0])
	} else {
		result, ab = IteratorNext(a, s.sync)
	}
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	return asyncFromSyncIteratorContinuation(a, result, capability, s.sync, true)
}

func asyncFromSyncReturn(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s := this.AsObject().slots.(*asyncFromSyncSlots)
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	syncIterator := ObjectValue(s.sync.Iterator)
	ret, ab := GetMethod(a, syncIterator, StringKey("return"))
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	if ret.IsUndefined() {
		v := Undefined
		if len(args) > 0 {
			v = args[0]
		}
		iterResult := CreateIterResultObject(a, v, true)
		MustOK(second(Call(a, ObjectValue(capability.Resolve), Undefined, []Value{ObjectValue(iterResult)})))
		return ObjectValue(capability.Promise), nil
	}
	result, ab := Call(a, ret, syncIterator, args[:min(len(args), 1)])
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	if !result.IsObject() {
		return capability.rejectWith(a, a.Throw(TypeError, MsgIteratorResultNotObj, result.String()))
	}
	return asyncFromSyncIteratorContinuation(a, result.AsObject(), capability, s.sync, false)
}

func asyncFromSyncThrow(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s := this.AsObject().slots.(*asyncFromSyncSlots)
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	syncIterator := ObjectValue(s.sync.Iterator)
	throw, ab := GetMethod(a, syncIterator, StringKey("throw"))
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	if throw.IsUndefined() {
		// Close the sync iterator before reporting the protocol violation.
		s.sync.Done = true
		if ab := IteratorClose(a, s.sync, nil); ab != nil {
			return capability.rejectWith(a, ab)
		}
		return capability.rejectWith(a, a.Throw(TypeError, MsgAsyncFromSyncNoThrow))
	}
	result, ab := Call(a, throw, syncIterator, args[:min(len(args), 1)])
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	if !result.IsObject() {
		return capability.rejectWith(a, a.Throw(TypeError, MsgIteratorResultNotObj, result.String()))
	}
	return asyncFromSyncIteratorContinuation(a, result.AsObject(), capability, s.sync, true)
}

// asyncFromSyncIteratorContinuation implements AsyncFromSyncIteratorContinuation.
func asyncFromSyncIteratorContinuation(a *Agent, result *Object, capability *PromiseCapability, syncRecord *IteratorRecord, closeOnRejection bool) (Value, *Completion) {
	done, ab := IteratorComplete(a, result)
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	value, ab := IteratorValue(a, result)
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	valueWrapper, ab := PromiseResolve(a, a.CurrentRealm().Intrinsic("%Promise%"), value)
	if ab != nil {
		if !done && closeOnRejection {
			ab = IteratorClose(a, syncRecord, ab)
		}
		return capability.rejectWith(a, ab)
	}
	realm := a.CurrentRealm()
	onFulfilled := anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		return ObjectValue(CreateIterResultObject(a, argOrUndefined(args, 0), done)), nil
	})
	var onRejected *Object
	if !done && closeOnRejection {
		onRejected = anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
			return Undefined, IteratorClose(a, syncRecord, ThrowCompletion(argOrUndefined(args, 0)))
		})
	}
	PerformPromiseThen(a, valueWrapper, ObjectValue(onFulfilled), ObjectValue(onRejected), capability)
	return ObjectValue(capability.Promise), nil
}

// argOrUndefined returns args[i] or undefined when it is missing.
func argOrUndefined(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
