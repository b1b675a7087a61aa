package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string  { return "Object" }
func (o *ObjectInitializer) Priority() int { return PriorityObject }

func (o *ObjectInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Object.prototype%")
	ctor := b.Constructor("Object", 1, objectConstructor, proto, nil)

	// Object.prototype
	b.Method(proto, "hasOwnProperty", 1, objectHasOwnProperty)
	b.Method(proto, "isPrototypeOf", 1, objectIsPrototypeOf)
	b.Method(proto, "propertyIsEnumerable", 1, objectPropertyIsEnumerable)
	b.Method(proto, "toLocaleString", 0, objectToLocaleString)
	r.SetIntrinsic("%Object.prototype.toString%", b.Method(proto, "toString", 0, objectToString))
	b.Method(proto, "valueOf", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		o, ab := engine.ToObject(a, this)
		return engine.ObjectValue(o), ab
	})

	// Object statics
	b.Method(ctor, "assign", 2, objectAssign)
	b.Method(ctor, "create", 2, objectCreate)
	b.Method(ctor, "defineProperties", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o, ab := requireObject(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(o), objectDefineProperties(a, o, arg(args, 1))
	})
	b.Method(ctor, "defineProperty", 3, objectDefineProperty)
	b.Method(ctor, "entries", 1, enumerableOwn(engine.EnumerateEntries))
	b.Method(ctor, "freeze", 1, integrity(engine.IntegrityFrozen))
	b.Method(ctor, "fromEntries", 1, objectFromEntries)
	b.Method(ctor, "getOwnPropertyDescriptor", 2, objectGetOwnPropertyDescriptor)
	b.Method(ctor, "getOwnPropertyDescriptors", 1, objectGetOwnPropertyDescriptors)
	b.Method(ctor, "getOwnPropertyNames", 1, ownKeys(false))
	b.Method(ctor, "getOwnPropertySymbols", 1, ownKeys(true))
	b.Method(ctor, "getPrototypeOf", 1, objectGetPrototypeOf)
	b.Method(ctor, "hasOwn", 2, objectHasOwn)
	b.Method(ctor, "is", 2, func(_ *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		return engine.Bool(engine.SameValue(arg(args, 0), arg(args, 1))), nil
	})
	b.Method(ctor, "isExtensible", 1, objectIsExtensible)
	b.Method(ctor, "isFrozen", 1, testIntegrity(engine.IntegrityFrozen))
	b.Method(ctor, "isSealed", 1, testIntegrity(engine.IntegritySealed))
	b.Method(ctor, "keys", 1, enumerableOwn(engine.EnumerateKeys))
	b.Method(ctor, "preventExtensions", 1, objectPreventExtensions)
	b.Method(ctor, "seal", 1, integrity(engine.IntegritySealed))
	b.Method(ctor, "setPrototypeOf", 2, objectSetPrototypeOf)
	b.Method(ctor, "values", 1, enumerableOwn(engine.EnumerateValues))
	return nil
}

func objectConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget != nil && newTarget != a.ActiveFunction() {
		o, ab := engine.OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%", engine.KindOrdinary, nil)
		return engine.ObjectValue(o), ab
	}
	v := arg(args, 0)
	if v.IsNullish() {
		return engine.ObjectValue(engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))), nil
	}
	o, ab := engine.ToObject(a, v)
	return engine.ObjectValue(o), ab
}

func objectHasOwnProperty(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	key, ab := engine.ToPropertyKey(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	has, ab := engine.HasOwnProperty(a, o, key)
	return engine.Bool(has), ab
}

func objectHasOwn(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	key, ab := engine.ToPropertyKey(a, arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	has, ab := engine.HasOwnProperty(a, o, key)
	return engine.Bool(has), ab
}

func objectIsPrototypeOf(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	v := arg(args, 0).AsObject()
	if v == nil {
		return engine.Bool(false), nil
	}
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	for {
		p, ab := v.GetPrototypeOf(a)
		if ab != nil {
			return undefined, ab
		}
		if p == nil {
			return engine.Bool(false), nil
		}
		if p == o {
			return engine.Bool(true), nil
		}
		v = p
	}
}

func objectPropertyIsEnumerable(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	key, ab := engine.ToPropertyKey(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	desc, ab := o.GetOwnProperty(a, key)
	if ab != nil {
		return undefined, ab
	}
	return engine.Bool(desc != nil && desc.Enumerable), nil
}

func objectToLocaleString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	return engine.Invoke(a, this, engine.StringKey("toString"), nil)
}

// objectToString implements Object.prototype.toString.
func objectToString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	switch {
	case this.IsUndefined():
		return engine.String("[object Undefined]"), nil
	case this.IsNull():
		return engine.String("[object Null]"), nil
	}
	o := engine.Must(engine.ToObject(a, this))
	isArray, ab := engine.IsArray(a, engine.ObjectValue(o))
	if ab != nil {
		return undefined, ab
	}
	builtinTag := "Object"
	switch {
	case isArray:
		builtinTag = "Array"
	case o.Kind() == engine.KindArguments:
		builtinTag = "Arguments"
	case engine.IsCallable(engine.ObjectValue(o)):
		builtinTag = "Function"
	default:
		switch o.Kind() {
		case engine.KindError:
			builtinTag = "Error"
		case engine.KindBooleanWrapper:
			builtinTag = "Boolean"
		case engine.KindNumberWrapper:
			builtinTag = "Number"
		case engine.KindStringWrapper:
			builtinTag = "String"
		case engine.KindRegExp:
			builtinTag = "RegExp"
		}
	}
	tag, ab := engine.Get(a, o, engine.SymbolKey(engine.SymbolToStringTag))
	if ab != nil {
		return undefined, ab
	}
	if tag.IsString() {
		builtinTag = tag.AsString()
	}
	return engine.String("[object " + builtinTag + "]"), nil
}

func objectAssign(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	to, ab := engine.ToObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	for _, src := range args[min(1, len(args)):] {
		if src.IsNullish() {
			continue
		}
		from := engine.Must(engine.ToObject(a, src))
		keys, ab := from.OwnPropertyKeys(a)
		if ab != nil {
			return undefined, ab
		}
		for _, k := range keys {
			desc, ab := from.GetOwnProperty(a, k)
			if ab != nil {
				return undefined, ab
			}
			if desc == nil || !desc.Enumerable {
				continue
			}
			v, ab := engine.Get(a, from, k)
			if ab != nil {
				return undefined, ab
			}
			if ab := engine.Set(a, to, k, v, true); ab != nil {
				return undefined, ab
			}
		}
	}
	return engine.ObjectValue(to), nil
}

func objectCreate(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	p := arg(args, 0)
	if !p.IsObject() && !p.IsNull() {
		return undefined, a.Throw(engine.TypeError, engine.MsgPrototypeNotObject, "Object.create")
	}
	o := engine.OrdinaryObjectCreate(p.AsObject())
	if props := arg(args, 1); !props.IsUndefined() {
		if ab := objectDefineProperties(a, o, props); ab != nil {
			return undefined, ab
		}
	}
	return engine.ObjectValue(o), nil
}

// objectDefineProperties implements ObjectDefineProperties. All descriptors
// are read before any is applied.
func objectDefineProperties(a *Agent, o *Object, properties Value) *Completion {
	props, ab := engine.ToObject(a, properties)
	if ab != nil {
		return ab
	}
	keys, ab := props.OwnPropertyKeys(a)
	if ab != nil {
		return ab
	}
	type pending struct {
		key  engine.PropertyKey
		desc engine.PropertyDescriptor
	}
	var descriptors []pending
	for _, k := range keys {
		pd, ab := props.GetOwnProperty(a, k)
		if ab != nil {
			return ab
		}
		if pd == nil || !pd.Enumerable {
			continue
		}
		descObj, ab := engine.Get(a, props, k)
		if ab != nil {
			return ab
		}
		desc, ab := engine.ToPropertyDescriptor(a, descObj)
		if ab != nil {
			return ab
		}
		descriptors = append(descriptors, pending{k, desc})
	}
	for _, p := range descriptors {
		if ab := engine.DefinePropertyOrThrow(a, o, p.key, p.desc); ab != nil {
			return ab
		}
	}
	return nil
}

func objectDefineProperty(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := requireObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	key, ab := engine.ToPropertyKey(a, arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	desc, ab := engine.ToPropertyDescriptor(a, arg(args, 2))
	if ab != nil {
		return undefined, ab
	}
	if ab := engine.DefinePropertyOrThrow(a, o, key, desc); ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(o), nil
}

func enumerableOwn(kind engine.EnumerableKind) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o, ab := engine.ToObject(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		list, ab := engine.EnumerableOwnProperties(a, o, kind)
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(engine.CreateArrayFromList(a, list)), nil
	}
}

func integrity(level engine.IntegrityLevel) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		v := arg(args, 0)
		o := v.AsObject()
		if o == nil {
			return v, nil
		}
		ok, ab := engine.SetIntegrityLevel(a, o, level)
		if ab != nil {
			return undefined, ab
		}
		if !ok {
			return undefined, a.Throw(engine.TypeError, engine.MsgPreventExtFailed)
		}
		return v, nil
	}
}

func testIntegrity(level engine.IntegrityLevel) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o := arg(args, 0).AsObject()
		if o == nil {
			return engine.Bool(true), nil
		}
		ok, ab := engine.TestIntegrityLevel(a, o, level)
		return engine.Bool(ok), ab
	}
}

func objectFromEntries(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	iterable := arg(args, 0)
	if iterable.IsNullish() {
		return undefined, a.Throw(engine.TypeError, engine.MsgNotIterable, iterable.String())
	}
	o := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	rec, ab := engine.GetIterator(a, iterable, false)
	if ab != nil {
		return undefined, ab
	}
	for {
		next, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			return engine.ObjectValue(o), nil
		}
		entry := next.AsObject()
		if entry == nil {
			ab := a.Throw(engine.TypeError, engine.MsgNotObject, next.String())
			return undefined, engine.IteratorClose(a, rec, ab)
		}
		k, ab := engine.Get(a, entry, engine.IndexKey(0))
		if ab != nil {
			return undefined, engine.IteratorClose(a, rec, ab)
		}
		v, ab := engine.Get(a, entry, engine.IndexKey(1))
		if ab != nil {
			return undefined, engine.IteratorClose(a, rec, ab)
		}
		key, ab := engine.ToPropertyKey(a, k)
		if ab != nil {
			return undefined, engine.IteratorClose(a, rec, ab)
		}
		engine.MustOK(engine.CreateDataPropertyOrThrow(a, o, key, v))
	}
}

func objectGetOwnPropertyDescriptor(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	key, ab := engine.ToPropertyKey(a, arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	desc, ab := o.GetOwnProperty(a, key)
	if ab != nil {
		return undefined, ab
	}
	return engine.FromPropertyDescriptor(a, desc), nil
}

func objectGetOwnPropertyDescriptors(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	keys, ab := o.OwnPropertyKeys(a)
	if ab != nil {
		return undefined, ab
	}
	out := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	for _, k := range keys {
		desc, ab := o.GetOwnProperty(a, k)
		if ab != nil {
			return undefined, ab
		}
		if desc != nil {
			engine.MustOK(engine.CreateDataPropertyOrThrow(a, out, k, engine.FromPropertyDescriptor(a, desc)))
		}
	}
	return engine.ObjectValue(out), nil
}

// ownKeys implements GetOwnPropertyKeys for string or symbol keys.
func ownKeys(symbols bool) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o, ab := engine.ToObject(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		keys, ab := o.OwnPropertyKeys(a)
		if ab != nil {
			return undefined, ab
		}
		var list []engine.PropertyKey
		for _, k := range keys {
			if k.IsSymbol() == symbols {
				list = append(list, k)
			}
		}
		return engine.ObjectValue(engine.CreateArrayFromList(a, keyValues(list))), nil
	}
}

func objectGetPrototypeOf(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	p, ab := o.GetPrototypeOf(a)
	return engine.ObjectValue(p), ab
}

func objectSetPrototypeOf(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	v, proto := arg(args, 0), arg(args, 1)
	if v.IsNullish() {
		return undefined, a.Throw(engine.TypeError, engine.MsgCannotConvertToObject, v.String())
	}
	if !proto.IsObject() && !proto.IsNull() {
		return undefined, a.Throw(engine.TypeError, engine.MsgPrototypeNotObject, "Object.setPrototypeOf")
	}
	o := v.AsObject()
	if o == nil {
		return v, nil
	}
	ok, ab := o.SetPrototypeOf(a, proto.AsObject())
	if ab != nil {
		return undefined, ab
	}
	if !ok {
		return undefined, a.Throw(engine.TypeError, engine.MsgSetPrototypeFailed, v.String())
	}
	return v, nil
}

func objectIsExtensible(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	o := arg(args, 0).AsObject()
	if o == nil {
		return engine.Bool(false), nil
	}
	ok, ab := o.IsExtensible(a)
	return engine.Bool(ok), ab
}

func objectPreventExtensions(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	v := arg(args, 0)
	o := v.AsObject()
	if o == nil {
		return v, nil
	}
	ok, ab := o.PreventExtensions(a)
	if ab != nil {
		return undefined, ab
	}
	if !ok {
		return undefined, a.Throw(engine.TypeError, engine.MsgPreventExtFailed)
	}
	return v, nil
}
