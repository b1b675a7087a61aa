package engine

// IntrinsicBuilder wraps the helpers bootstrap uses to define built-in
// properties directly, without going through [[DefineOwnProperty]].
type IntrinsicBuilder struct {
	a *Agent
	r *Realm
}

// NewIntrinsicBuilder returns a builder for r. Library initializers use it
// from InitRealm.
func (a *Agent) NewIntrinsicBuilder(r *Realm) *IntrinsicBuilder {
	return &IntrinsicBuilder{a: a, r: r}
}

// Method defines a writable, non-enumerable, configurable built-in method.
func (b *IntrinsicBuilder) Method(o *Object, name string, length int, fn NativeFunction) *Object {
	f := NewNativeFunction(b.r, name, length, fn)
	o.DefineDirect(StringKey(name), ObjectValue(f), true, false, true)
	return f
}

// SymbolMethod defines a method keyed by a well-known symbol.
func (b *IntrinsicBuilder) SymbolMethod(o *Object, sym *Symbol, length int, fn NativeFunction) *Object {
	f := CreateBuiltinFunction(b.r, fn, length, SymbolKey(sym), "", nil, false)
	o.DefineDirect(SymbolKey(sym), ObjectValue(f), true, false, true)
	return f
}

// Getter defines a configurable accessor with only a getter.
func (b *IntrinsicBuilder) Getter(o *Object, key PropertyKey, fn NativeFunction) *Object {
	f := CreateBuiltinFunction(b.r, fn, 0, key, "get", nil, false)
	o.DefineAccessorDirect(key, f, nil, false, true)
	return f
}

// Value defines a writable, non-enumerable, configurable data property.
func (b *IntrinsicBuilder) Value(o *Object, name string, v Value) {
	o.DefineDirect(StringKey(name), v, true, false, true)
}

// Constant defines a non-writable, non-enumerable, non-configurable data
// property.
func (b *IntrinsicBuilder) Constant(o *Object, name string, v Value) {
	o.DefineDirect(StringKey(name), v, false, false, false)
}

// ToStringTag defines o[@@toStringTag].
func (b *IntrinsicBuilder) ToStringTag(o *Object, tag string) {
	o.DefineDirect(SymbolKey(SymbolToStringTag), String(tag), false, false, true)
}

// Constructor creates a built-in constructor linked both ways with proto and
// publishes both as %name% and %name.prototype%. A nil parent means
// %Function.prototype%.
func (b *IntrinsicBuilder) Constructor(name string, length int, fn NativeFunction, proto, parent *Object) *Object {
	c := CreateBuiltinFunction(b.r, fn, length, StringKey(name), "", parent, true)
	if proto != nil {
		c.DefineDirect(StringKey("prototype"), ObjectValue(proto), false, false, false)
		proto.DefineDirect(StringKey("constructor"), ObjectValue(c), true, false, true)
		b.r.SetIntrinsic("%"+name+".prototype%", proto)
	}
	b.r.SetIntrinsic("%"+name+"%", c)
	return c
}

// Namespace creates an ordinary namespace object such as Math and publishes
// it as %name%.
func (b *IntrinsicBuilder) Namespace(name string) *Object {
	o := OrdinaryObjectCreate(b.r.Intrinsic("%Object.prototype%"))
	b.ToStringTag(o, name)
	b.r.SetIntrinsic("%"+name+"%", o)
	return o
}

// Object creates an ordinary object inheriting from %Object.prototype%.
func (b *IntrinsicBuilder) Object() *Object {
	return OrdinaryObjectCreate(b.r.Intrinsic("%Object.prototype%"))
}

// Realm is the realm being initialized.
func (b *IntrinsicBuilder) Realm() *Realm { return b.r }

// createCoreIntrinsics builds the objects the evaluator itself depends on,
// in dependency order. Everything else comes from library initializers.
func createCoreIntrinsics(a *Agent, r *Realm) {
	b := a.NewIntrinsicBuilder(r)

	objectProto := MakeBasicObject(KindImmutablePrototype, immutableProtoMethods, nil, nil)
	r.SetIntrinsic("%Object.prototype%", objectProto)

	funcProto := CreateBuiltinFunction(r, func(*Agent, Value, []Value, *Object) (Value, *Completion) {
		return Undefined, nil
	}, 0, StringKey(""), "", objectProto, false)
	r.SetIntrinsic("%Function.prototype%", funcProto)

	throwTypeError := anonymousNative(r, 0, func(a *Agent, _ Value, _ []Value, _ *Object) (Value, *Completion) {
		return Undefined, a.Throw(TypeError, MsgRestrictedProperty)
	})
	throwTypeError.DefineDirect(StringKey("length"), Int(0), false, false, false)
	throwTypeError.DefineDirect(StringKey("name"), String(""), false, false, false)
	throwTypeError.extensible = false
	r.SetIntrinsic("%ThrowTypeError%", throwTypeError)

	b.createIteratorPrototypes()
	b.createArray()
	b.createFunctionFamily()
	b.createErrors()
	b.createPromise()
	b.createWrapperPrototypes()
}

func returnThis(_ *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	return this, nil
}

func (b *IntrinsicBuilder) createIteratorPrototypes() {
	r := b.r
	iterProto := b.Object()
	b.SymbolMethod(iterProto, SymbolIterator, 0, returnThis)
	r.SetIntrinsic("%Iterator.prototype%", iterProto)

	asyncIterProto := b.Object()
	b.SymbolMethod(asyncIterProto, SymbolAsyncIterator, 0, returnThis)
	r.SetIntrinsic("%AsyncIteratorPrototype%", asyncIterProto)

	arrayIterProto := OrdinaryObjectCreate(iterProto)
	b.Method(arrayIterProto, "next", 0, arrayIteratorNext)
	b.ToStringTag(arrayIterProto, "Array Iterator")
	r.SetIntrinsic("%ArrayIteratorPrototype%", arrayIterProto)

	fromSync := OrdinaryObjectCreate(asyncIterProto)
	b.Method(fromSync, "next", 1, asyncFromSyncNext)
	b.Method(fromSync, "return", 1, asyncFromSyncReturn)
	b.Method(fromSync, "throw", 1, asyncFromSyncThrow)
	r.SetIntrinsic("%AsyncFromSyncIteratorPrototype%", fromSync)
}

func (b *IntrinsicBuilder) createArray() {
	r := b.r
	proto := MakeBasicObject(KindArray, arrayMethods, r.Intrinsic("%Object.prototype%"), nil)
	proto.props.set(lengthKey, &property{value: Int(0), writable: true})
	values := b.Method(proto, "values", 0, arrayPrototypeValues)
	proto.DefineDirect(SymbolKey(SymbolIterator), ObjectValue(values), true, false, true)
	r.SetIntrinsic("%Array.prototype.values%", values)
	b.Constructor("Array", 1, arrayConstructor, proto, nil)
}

// arrayConstructor implements the Array constructor.
func arrayConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil {
		newTarget = a.ActiveFunction()
	}
	proto, ab := GetPrototypeFromConstructor(a, newTarget, "%Array.prototype%")
	if ab != nil {
		return Undefined, ab
	}
	switch len(args) {
	case 0:
		arr, ab := ArrayCreate(a, 0, proto)
		return ObjectValue(arr), ab
	case 1:
		length := args[0]
		if !length.IsNumber() {
			arr := Must(ArrayCreate(a, 0, proto))
			MustOK(CreateDataPropertyOrThrow(a, arr, IndexKey(0), length))
			return ObjectValue(arr), nil
		}
		n := length.AsNumber()
		if float64(toUint32(n)) != n {
			return Undefined, a.Throw(RangeError, MsgInvalidArrayLength)
		}
		arr, ab := ArrayCreate(a, uint64(n), proto)
		return ObjectValue(arr), ab
	}
	arr, ab := ArrayCreate(a, uint64(len(args)), proto)
	if ab != nil {
		return Undefined, ab
	}
	for i, v := range args {
		MustOK(CreateDataPropertyOrThrow(a, arr, IndexKey(int64(i)), v))
	}
	return ObjectValue(arr), nil
}

// createFunctionFamily builds Function and the generator and async function
// constructors with their prototype chains.
func (b *IntrinsicBuilder) createFunctionFamily() {
	r := b.r
	funcProto := r.Intrinsic("%Function.prototype%")
	function := b.Constructor("Function", 1, dynamicFunctionConstructor(FunctionNormal), nil, nil)
	function.DefineDirect(StringKey("prototype"), ObjectValue(funcProto), false, false, false)
	funcProto.DefineDirect(StringKey("constructor"), ObjectValue(function), true, false, true)

	family := []struct {
		name      string
		kind      FunctionKind
		instProto *Object // nil for async functions, which have no instances prototype
		tag       string
	}{
		{"GeneratorFunction", FunctionGenerator, r.Intrinsic("%Iterator.prototype%"), "Generator"},
		{"AsyncGeneratorFunction", FunctionAsyncGenerator, r.Intrinsic("%AsyncIteratorPrototype%"), "AsyncGenerator"},
		{"AsyncFunction", FunctionAsync, nil, ""},
	}
	for _, f := range family {
		proto := OrdinaryObjectCreate(funcProto)
		b.ToStringTag(proto, f.name)
		ctor := CreateBuiltinFunction(r, dynamicFunctionConstructor(f.kind), 1, StringKey(f.name), "", function, true)
		ctor.DefineDirect(StringKey("prototype"), ObjectValue(proto), false, false, false)
		proto.DefineDirect(StringKey("constructor"), ObjectValue(ctor), false, false, true)
		r.SetIntrinsic("%"+f.name+"%", ctor)
		r.SetIntrinsic("%"+f.name+".prototype%", proto)
		if f.instProto == nil {
			continue
		}
		inst := OrdinaryObjectCreate(f.instProto)
		inst.DefineDirect(StringKey("constructor"), ObjectValue(proto), false, false, true)
		proto.DefineDirect(StringKey("prototype"), ObjectValue(inst), false, false, true)
		b.ToStringTag(inst, f.tag)
		if f.kind == FunctionGenerator {
			b.Method(inst, "next", 1, generatorNext)
			b.Method(inst, "return", 1, generatorReturn)
			b.Method(inst, "throw", 1, generatorThrow)
		} else {
			b.Method(inst, "next", 1, asyncGeneratorNext)
			b.Method(inst, "return", 1, asyncGeneratorReturn)
			b.Method(inst, "throw", 1, asyncGeneratorThrow)
		}
		r.SetIntrinsic("%"+f.name+".prototype.prototype%", inst)
	}
}

func dynamicFunctionConstructor(kind FunctionKind) NativeFunction {
	return func(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
		return a.CreateDynamicFunction(a.ActiveFunction(), newTarget, kind, args)
	}
}

func (b *IntrinsicBuilder) createErrors() {
	errorProto := b.Object()
	b.Value(errorProto, "name", String("Error"))
	b.Value(errorProto, "message", String(""))
	errorCtor := b.Constructor(string(Error), 1, errorConstructor(Error), errorProto, nil)
	for _, kind := range NativeErrorKinds {
		proto := OrdinaryObjectCreate(errorProto)
		b.Value(proto, "name", String(string(kind)))
		b.Value(proto, "message", String(""))
		b.Constructor(string(kind), 1, errorConstructor(kind), proto, errorCtor)
	}
	aggProto := OrdinaryObjectCreate(errorProto)
	b.Value(aggProto, "name", String("AggregateError"))
	b.Value(aggProto, "message", String(""))
	b.Constructor("AggregateError", 2, aggregateErrorConstructor, aggProto, errorCtor)
}

// errorConstructor implements Error and the NativeError constructors.
func errorConstructor(kind ErrorKind) NativeFunction {
	return func(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
		o, ab := newErrorFromConstructor(a, newTarget, "%"+string(kind)+".prototype%", argOrUndefined(args, 0), argOrUndefined(args, 1))
		if ab != nil {
			return Undefined, ab
		}
		return ObjectValue(o), nil
	}
}

func newErrorFromConstructor(a *Agent, newTarget *Object, fallback string, message, options Value) (*Object, *Completion) {
	if newTarget == nil {
		newTarget = a.ActiveFunction()
	}
	o, ab := OrdinaryCreateFromConstructor(a, newTarget, fallback, KindError, &ErrorData{})
	if ab != nil {
		return nil, ab
	}
	if !message.IsUndefined() {
		msg, ab := ToString(a, message)
		if ab != nil {
			return nil, ab
		}
		o.DefineDirect(StringKey("message"), String(msg), true, false, true)
	}
	if ab := installErrorCause(a, o, options); ab != nil {
		return nil, ab
	}
	return o, nil
}

// installErrorCause implements InstallErrorCause.
func installErrorCause(a *Agent, o *Object, options Value) *Completion {
	opts := options.AsObject()
	if opts == nil {
		return nil
	}
	has, ab := HasProperty(a, opts, StringKey("cause"))
	if ab != nil || !has {
		return ab
	}
	cause, ab := Get(a, opts, StringKey("cause"))
	if ab != nil {
		return ab
	}
	o.DefineDirect(StringKey("cause"), cause, true, false, true)
	return nil
}

func aggregateErrorConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	o, ab := newErrorFromConstructor(a, newTarget, "%AggregateError.prototype%", argOrUndefined(args, 1), argOrUndefined(args, 2))
	if ab != nil {
		return Undefined, ab
	}
	rec, ab := GetIterator(a, argOrUndefined(args, 0), false)
	if ab != nil {
		return Undefined, ab
	}
	errs, ab := IteratorToList(a, rec)
	if ab != nil {
		return Undefined, ab
	}
	o.slots.(*ErrorData).Errors = errs
	o.DefineDirect(StringKey("errors"), ObjectValue(CreateArrayFromList(a, errs)), true, false, true)
	return ObjectValue(o), nil
}

func (b *IntrinsicBuilder) createPromise() {
	proto := b.Object()
	b.Method(proto, "then", 2, promiseThen)
	b.ToStringTag(proto, "Promise")
	b.Constructor("Promise", 1, promiseConstructor, proto, nil)
}

// createWrapperPrototypes builds the prototypes ToObject wraps primitives
// with. Their constructors come from the library.
func (b *IntrinsicBuilder) createWrapperPrototypes() {
	r := b.r
	objectProto := r.Intrinsic("%Object.prototype%")
	r.SetIntrinsic("%String.prototype%", StringCreate("", objectProto))
	r.SetIntrinsic("%Number.prototype%", MakeBasicObject(KindNumberWrapper, ordinaryMethods, objectProto, Int(0)))
	r.SetIntrinsic("%Boolean.prototype%", MakeBasicObject(KindBooleanWrapper, ordinaryMethods, objectProto, Bool(false)))
	r.SetIntrinsic("%Symbol.prototype%", b.Object())
	r.SetIntrinsic("%BigInt.prototype%", b.Object())
}
