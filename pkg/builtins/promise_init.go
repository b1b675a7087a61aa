package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type PromiseInitializer struct{}

func (p *PromiseInitializer) Name() string  { return "Promise" }
func (p *PromiseInitializer) Priority() int { return PriorityPromise }

func (p *PromiseInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	ctor := r.Intrinsic("%Promise%")
	proto := r.Intrinsic("%Promise.prototype%")

	b.Method(ctor, "all", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return promiseCombinator(a, this, arg(args, 0), performPromiseAll)
	})
	b.Method(ctor, "race", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return promiseCombinator(a, this, arg(args, 0), performPromiseRace)
	})
	b.Method(ctor, "reject", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		capability, ab := engine.NewPromiseCapability(a, this)
		if ab != nil {
			return undefined, ab
		}
		if _, ab := engine.Call(a, engine.ObjectValue(capability.Reject), undefined, []Value{arg(args, 0)}); ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(capability.Promise), nil
	})
	b.Method(ctor, "resolve", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		c, ab := requireObject(a, this)
		if ab != nil {
			return undefined, ab
		}
		p, ab := engine.PromiseResolve(a, c, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(p), nil
	})
	defineSpecies(b, ctor)

	b.Method(proto, "catch", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return engine.Invoke(a, this, engine.StringKey("then"), []Value{undefined, arg(args, 0)})
	})
	b.Method(proto, "finally", 1, promiseFinally)
	return nil
}

// rejectAbrupt implements IfAbruptRejectPromise.
func rejectAbrupt(a *Agent, capability *engine.PromiseCapability, ab *Completion) (Value, *Completion) {
	if _, inner := engine.Call(a, engine.ObjectValue(capability.Reject), undefined, []Value{ab.Value}); inner != nil {
		return undefined, inner
	}
	return engine.ObjectValue(capability.Promise), nil
}

// promiseFinally implements Promise.prototype.finally: the callback runs
// on either outcome and the original settlement passes through.
func promiseFinally(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	promise, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	c, ab := engine.SpeciesConstructor(a, promise, a.CurrentRealm().Intrinsic("%Promise%"))
	if ab != nil {
		return undefined, ab
	}
	onFinally := arg(args, 0)
	if !engine.IsCallable(onFinally) {
		return engine.Invoke(a, this, engine.StringKey("then"), []Value{onFinally, onFinally})
	}
	realm := a.CurrentRealm()
	settle := func(pass func(v Value) (Value, *Completion)) *Object {
		return engine.NewNativeFunction(realm, "", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
			outcome := arg(args, 0)
			result, ab := engine.Call(a, onFinally, undefined, nil)
			if ab != nil {
				return undefined, ab
			}
			p, ab := engine.PromiseResolve(a, c, result)
			if ab != nil {
				return undefined, ab
			}
			thunk := engine.NewNativeFunction(realm, "", 0, func(*Agent, Value, []Value, *Object) (Value, *Completion) {
				return pass(outcome)
			})
			return engine.Invoke(a, engine.ObjectValue(p), engine.StringKey("then"), []Value{engine.ObjectValue(thunk)})
		})
	}
	thenFinally := settle(func(v Value) (Value, *Completion) { return v, nil })
	catchFinally := settle(func(v Value) (Value, *Completion) { return undefined, engine.ThrowCompletion(v) })
	return engine.Invoke(a, this, engine.StringKey("then"), []Value{engine.ObjectValue(thenFinally), engine.ObjectValue(catchFinally)})
}

type combinator func(a *Agent, rec *engine.IteratorRecord, c *Object, capability *engine.PromiseCapability, resolve Value) (Value, *Completion)

// promiseCombinator holds the steps shared by Promise.all and Promise.race:
// capability, GetPromiseResolve, iteration and closing on failure.
func promiseCombinator(a *Agent, this Value, iterable Value, perform combinator) (Value, *Completion) {
	capability, ab := engine.NewPromiseCapability(a, this)
	if ab != nil {
		return undefined, ab
	}
	c := this.AsObject()
	resolve, ab := engine.Get(a, c, engine.StringKey("resolve"))
	if ab == nil && !engine.IsCallable(resolve) {
		ab = a.Throw(engine.TypeError, engine.MsgNotCallable, resolve.String())
	}
	if ab != nil {
		return rejectAbrupt(a, capability, ab)
	}
	rec, ab := engine.GetIterator(a, iterable, false)
	if ab != nil {
		return rejectAbrupt(a, capability, ab)
	}
	result, ab := perform(a, rec, c, capability, resolve)
	if ab != nil {
		if !rec.Done {
			ab = engine.IteratorClose(a, rec, ab)
		}
		return rejectAbrupt(a, capability, ab)
	}
	return result, nil
}

func performPromiseAll(a *Agent, rec *engine.IteratorRecord, c *Object, capability *engine.PromiseCapability, resolve Value) (Value, *Completion) {
	var values []Value
	remaining := 1
	realm := a.CurrentRealm()
	finish := func() *Completion {
		remaining--
		if remaining > 0 {
			return nil
		}
		arr := engine.CreateArrayFromList(a, values)
		_, ab := engine.Call(a, engine.ObjectValue(capability.Resolve), undefined, []Value{engine.ObjectValue(arr)})
		return ab
	}
	for index := 0; ; index++ {
		next, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			if ab := finish(); ab != nil {
				return undefined, ab
			}
			return engine.ObjectValue(capability.Promise), nil
		}
		values = append(values, undefined)
		nextPromise, ab := engine.Call(a, resolve, engine.ObjectValue(c), []Value{next})
		if ab != nil {
			return undefined, ab
		}
		alreadyCalled := false
		onFulfilled := engine.NewNativeFunction(realm, "", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
			if alreadyCalled {
				return undefined, nil
			}
			alreadyCalled = true
			values[index] = arg(args, 0)
			return undefined, finish()
		})
		remaining++
		if _, ab := engine.Invoke(a, nextPromise, engine.StringKey("then"), []Value{engine.ObjectValue(onFulfilled), engine.ObjectValue(capability.Reject)}); ab != nil {
			return undefined, ab
		}
	}
}

func performPromiseRace(a *Agent, rec *engine.IteratorRecord, c *Object, capability *engine.PromiseCapability, resolve Value) (Value, *Completion) {
	for {
		next, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			return engine.ObjectValue(capability.Promise), nil
		}
		nextPromise, ab := engine.Call(a, resolve, engine.ObjectValue(c), []Value{next})
		if ab != nil {
			return undefined, ab
		}
		if _, ab := engine.Invoke(a, nextPromise, engine.StringKey("then"), []Value{engine.ObjectValue(capability.Resolve), engine.ObjectValue(capability.Reject)}); ab != nil {
			return undefined, ab
		}
	}
}
