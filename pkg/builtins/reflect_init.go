package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type ReflectInitializer struct{}

func (r *ReflectInitializer) Name() string  { return "Reflect" }
func (r *ReflectInitializer) Priority() int { return PriorityReflect }

func (ri *ReflectInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	reflect := b.Namespace("Reflect")

	b.Method(reflect, "apply", 3, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		target := arg(args, 0)
		if ab := requireCallable(a, target); ab != nil {
			return undefined, ab
		}
		list, ab := engine.CreateListFromArrayLike(a, arg(args, 2), false)
		if ab != nil {
			return undefined, ab
		}
		return engine.Call(a, target, arg(args, 1), list)
	})
	b.Method(reflect, "construct", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		target := arg(args, 0)
		if !engine.IsConstructor(target) {
			return undefined, a.Throw(engine.TypeError, engine.MsgNotConstructor, target.String())
		}
		newTarget := target
		if len(args) > 2 {
			newTarget = args[2]
			if !engine.IsConstructor(newTarget) {
				return undefined, a.Throw(engine.TypeError, engine.MsgNotConstructor, newTarget.String())
			}
		}
		list, ab := engine.CreateListFromArrayLike(a, arg(args, 1), false)
		if ab != nil {
			return undefined, ab
		}
		return engine.Construct(a, target.AsObject(), list, newTarget.AsObject())
	})
	b.Method(reflect, "defineProperty", 3, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, args []Value) (Value, *Completion) {
		desc, ab := engine.ToPropertyDescriptor(a, arg(args, 2))
		if ab != nil {
			return undefined, ab
		}
		ok, ab := o.DefineOwnProperty(a, k, desc)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "deleteProperty", 2, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, _ []Value) (Value, *Completion) {
		ok, ab := o.Delete(a, k)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "get", 2, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, args []Value) (Value, *Completion) {
		receiver := engine.ObjectValue(o)
		if len(args) > 2 {
			receiver = args[2]
		}
		return o.Get(a, k, receiver)
	}))
	b.Method(reflect, "getOwnPropertyDescriptor", 2, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, _ []Value) (Value, *Completion) {
		desc, ab := o.GetOwnProperty(a, k)
		if ab != nil {
			return undefined, ab
		}
		return engine.FromPropertyDescriptor(a, desc), nil
	}))
	b.Method(reflect, "getPrototypeOf", 1, reflectOnTarget(func(a *Agent, o *Object, _ []Value) (Value, *Completion) {
		proto, ab := o.GetPrototypeOf(a)
		return engine.ObjectValue(proto), ab
	}))
	b.Method(reflect, "has", 2, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, _ []Value) (Value, *Completion) {
		ok, ab := o.HasProperty(a, k)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "isExtensible", 1, reflectOnTarget(func(a *Agent, o *Object, _ []Value) (Value, *Completion) {
		ok, ab := o.IsExtensible(a)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "ownKeys", 1, reflectOnTarget(func(a *Agent, o *Object, _ []Value) (Value, *Completion) {
		keys, ab := o.OwnPropertyKeys(a)
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(engine.CreateArrayFromList(a, keyValues(keys))), nil
	}))
	b.Method(reflect, "preventExtensions", 1, reflectOnTarget(func(a *Agent, o *Object, _ []Value) (Value, *Completion) {
		ok, ab := o.PreventExtensions(a)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "set", 3, reflectWithKey(func(a *Agent, o *Object, k engine.PropertyKey, args []Value) (Value, *Completion) {
		receiver := engine.ObjectValue(o)
		if len(args) > 3 {
			receiver = args[3]
		}
		ok, ab := o.Set(a, k, arg(args, 2), receiver)
		return engine.Bool(ok), ab
	}))
	b.Method(reflect, "setPrototypeOf", 2, reflectOnTarget(func(a *Agent, o *Object, args []Value) (Value, *Completion) {
		proto := arg(args, 1)
		if !proto.IsObject() && !proto.IsNull() {
			return undefined, a.Throw(engine.TypeError, engine.MsgPrototypeNotObject, "Reflect.setPrototypeOf")
		}
		ok, ab := o.SetPrototypeOf(a, proto.AsObject())
		return engine.Bool(ok), ab
	}))
	return nil
}

// reflectOnTarget wraps a Reflect function whose first argument must be an
// object.
func reflectOnTarget(fn func(a *Agent, o *Object, args []Value) (Value, *Completion)) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o, ab := requireObject(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return fn(a, o, args)
	}
}

// reflectWithKey is reflectOnTarget plus ToPropertyKey of the second
// argument.
func reflectWithKey(fn func(a *Agent, o *Object, k engine.PropertyKey, args []Value) (Value, *Completion)) engine.NativeFunction {
	return reflectOnTarget(func(a *Agent, o *Object, args []Value) (Value, *Completion) {
		k, ab := engine.ToPropertyKey(a, arg(args, 1))
		if ab != nil {
			return undefined, ab
		}
		return fn(a, o, k, args)
	})
}
