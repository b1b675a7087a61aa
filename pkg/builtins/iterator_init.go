package builtins

import (
	"math"

	"github.com/nooga/specjs/pkg/engine"
)

// helperBrand is the [[GeneratorBrand]] shared by every iterator helper.
const helperBrand = "Iterator Helper"

type IteratorInitializer struct{}

func (i *IteratorInitializer) Name() string  { return "Iterator" }
func (i *IteratorInitializer) Priority() int { return PriorityIterator }

func (i *IteratorInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Iterator.prototype%")
	b.Constructor("Iterator", 0, iteratorConstructor, proto, nil)
	b.ToStringTag(proto, "Iterator")

	helperProto := engine.OrdinaryObjectCreate(proto)
	b.Method(helperProto, "next", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		return engine.GeneratorResume(a, this, undefined, helperBrand)
	})
	b.Method(helperProto, "return", 0, iteratorHelperReturn)
	b.ToStringTag(helperProto, helperBrand)
	r.SetIntrinsic("%IteratorHelperPrototype%", helperProto)

	b.Method(proto, "map", 1, iteratorMap)
	b.Method(proto, "filter", 1, iteratorFilter)
	b.Method(proto, "take", 1, iteratorTake)
	b.Method(proto, "drop", 1, iteratorDrop)
	b.Method(proto, "flatMap", 1, iteratorFlatMap)
	b.Method(proto, "reduce", 1, iteratorReduce)
	b.Method(proto, "toArray", 0, iteratorToArray)
	b.Method(proto, "forEach", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		_, ab := iteratorSearch(a, this, arg(args, 0), func(Value, Value) (bool, Value) { return false, undefined })
		return undefined, ab
	})
	b.Method(proto, "some", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return iteratorSearch(a, this, arg(args, 0), func(_, r Value) (bool, Value) {
			return engine.ToBoolean(r), engine.True
		}, engine.False)
	})
	b.Method(proto, "every", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return iteratorSearch(a, this, arg(args, 0), func(_, r Value) (bool, Value) {
			return !engine.ToBoolean(r), engine.False
		}, engine.True)
	})
	b.Method(proto, "find", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return iteratorSearch(a, this, arg(args, 0), func(v, r Value) (bool, Value) {
			return engine.ToBoolean(r), v
		})
	})
	return nil
}

func iteratorConstructor(a *Agent, _ Value, _ []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil || newTarget == a.ActiveFunction() {
		return undefined, a.Throw(engine.TypeError, engine.MsgAbstractConstructor, "Iterator")
	}
	o, ab := engine.OrdinaryCreateFromConstructor(a, newTarget, "%Iterator.prototype%", engine.KindOrdinary, nil)
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(o), nil
}

// iteratorHelperReturn implements %IteratorHelperPrototype%.return. A
// helper that never started still owes its underlying iterator a close.
func iteratorHelperReturn(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	s, ab := engine.GeneratorValidate(a, this, helperBrand)
	if ab != nil {
		return undefined, ab
	}
	if s.State == engine.GeneratorSuspendedStart {
		if _, ab := engine.GeneratorResumeAbrupt(a, this, engine.ReturnCompletion(undefined), helperBrand); ab != nil {
			return undefined, ab
		}
		if ab := engine.IteratorClose(a, s.Underlying, nil); ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(engine.CreateIterResultObject(a, undefined, true)), nil
	}
	return engine.GeneratorResumeAbrupt(a, this, engine.ReturnCompletion(undefined), helperBrand)
}

// getIteratorDirect implements GetIteratorDirect.
func getIteratorDirect(a *Agent, o *Object) (*engine.IteratorRecord, *Completion) {
	next, ab := engine.Get(a, o, engine.StringKey("next"))
	if ab != nil {
		return nil, ab
	}
	return &engine.IteratorRecord{Iterator: o, NextMethod: next}, nil
}

// iteratorThis checks the receiver of a prototype method and, when check
// fails, closes it before throwing. The record is built after the check.
func iteratorThis(a *Agent, this Value, check func() *Completion) (*engine.IteratorRecord, *Completion) {
	o, ab := requireObject(a, this)
	if ab != nil {
		return nil, ab
	}
	if ab := check(); ab != nil {
		return nil, engine.IteratorClose(a, &engine.IteratorRecord{Iterator: o}, ab)
	}
	return getIteratorDirect(a, o)
}

func callableCheck(a *Agent, fn Value) func() *Completion {
	return func() *Completion { return requireCallable(a, fn) }
}

// newIteratorHelper wraps closure as an iterator helper over rec.
func newIteratorHelper(a *Agent, rec *engine.IteratorRecord, closure func(a *Agent, yield func(Value) Completion) Completion) Value {
	proto := a.CurrentRealm().Intrinsic("%IteratorHelperPrototype%")
	g := a.CreateIteratorFromClosure(closure, helperBrand, proto)
	g.Slots().(*engine.GeneratorSlots).Underlying = rec
	return engine.ObjectValue(g)
}

// yieldOrClose yields v and, if the consumer resumes abruptly, closes rec
// with that completion.
func yieldOrClose(a *Agent, rec *engine.IteratorRecord, yield func(Value) Completion, v Value) *Completion {
	c := yield(v)
	if c.Type == engine.CompletionNormal {
		return nil
	}
	if ab := engine.IteratorClose(a, rec, &c); ab != nil {
		return ab
	}
	return &c
}

func iteratorMap(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	mapper := arg(args, 0)
	rec, ab := iteratorThis(a, this, callableCheck(a, mapper))
	if ab != nil {
		return undefined, ab
	}
	return newIteratorHelper(a, rec, func(a *Agent, yield func(Value) Completion) Completion {
		for counter := int64(0); ; counter++ {
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
			mapped, ab := engine.Call(a, mapper, undefined, []Value{v, engine.Int(counter)})
			if ab != nil {
				return *engine.IteratorClose(a, rec, ab)
			}
			if ab := yieldOrClose(a, rec, yield, mapped); ab != nil {
				return *ab
			}
		}
	}), nil
}

func iteratorFilter(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	predicate := arg(args, 0)
	rec, ab := iteratorThis(a, this, callableCheck(a, predicate))
	if ab != nil {
		return undefined, ab
	}
	return newIteratorHelper(a, rec, func(a *Agent, yield func(Value) Completion) Completion {
		for counter := int64(0); ; counter++ {
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
			selected, ab := engine.Call(a, predicate, undefined, []Value{v, engine.Int(counter)})
			if ab != nil {
				return *engine.IteratorClose(a, rec, ab)
			}
			if !engine.ToBoolean(selected) {
				continue
			}
			if ab := yieldOrClose(a, rec, yield, v); ab != nil {
				return *ab
			}
		}
	}), nil
}

// iteratorLimit validates the numeric argument of take and drop.
func iteratorLimit(a *Agent, v Value, method string, out *float64) func() *Completion {
	return func() *Completion {
		n, ab := engine.ToNumber(a, v)
		if ab != nil {
			return ab
		}
		if math.IsNaN(n) {
			return a.Throw(engine.RangeError, engine.MsgNegativeLimit, method+" limit")
		}
		limit, _ := engine.ToIntegerOrInfinity(a, engine.Number(n))
		if limit < 0 {
			return a.Throw(engine.RangeError, engine.MsgNegativeLimit, method+" limit")
		}
		*out = limit
		return nil
	}
}

func iteratorTake(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	var limit float64
	rec, ab := iteratorThis(a, this, iteratorLimit(a, arg(args, 0), "take", &limit))
	if ab != nil {
		return undefined, ab
	}
	return newIteratorHelper(a, rec, func(a *Agent, yield func(Value) Completion) Completion {
		for remaining := limit; ; remaining-- {
			if remaining == 0 {
				if ab := engine.IteratorClose(a, rec, engine.ReturnCompletion(undefined)); ab != nil && ab.Type == engine.CompletionThrow {
					return *ab
				}
				return engine.NormalCompletion(undefined)
			}
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
			if ab := yieldOrClose(a, rec, yield, v); ab != nil {
				return *ab
			}
		}
	}), nil
}

func iteratorDrop(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	var limit float64
	rec, ab := iteratorThis(a, this, iteratorLimit(a, arg(args, 0), "drop", &limit))
	if ab != nil {
		return undefined, ab
	}
	return newIteratorHelper(a, rec, func(a *Agent, yield func(Value) Completion) Completion {
		for remaining := limit; remaining > 0; remaining-- {
			_, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
		}
		for {
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
			if ab := yieldOrClose(a, rec, yield, v); ab != nil {
				return *ab
			}
		}
	}), nil
}

// getIteratorFlattenable implements GetIteratorFlattenable with
// reject-primitives.
func getIteratorFlattenable(a *Agent, v Value) (*engine.IteratorRecord, *Completion) {
	o, ab := requireObject(a, v)
	if ab != nil {
		return nil, ab
	}
	method, ab := engine.GetMethod(a, v, engine.SymbolKey(engine.SymbolIterator))
	if ab != nil {
		return nil, ab
	}
	if method.IsUndefined() {
		return getIteratorDirect(a, o)
	}
	it, ab := engine.Call(a, method, v, nil)
	if ab != nil {
		return nil, ab
	}
	itObj, ab := requireObject(a, it)
	if ab != nil {
		return nil, ab
	}
	return getIteratorDirect(a, itObj)
}

func iteratorFlatMap(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	mapper := arg(args, 0)
	rec, ab := iteratorThis(a, this, callableCheck(a, mapper))
	if ab != nil {
		return undefined, ab
	}
	return newIteratorHelper(a, rec, func(a *Agent, yield func(Value) Completion) Completion {
		for counter := int64(0); ; counter++ {
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return *ab
			}
			if done {
				return engine.NormalCompletion(undefined)
			}
			mapped, ab := engine.Call(a, mapper, undefined, []Value{v, engine.Int(counter)})
			if ab != nil {
				return *engine.IteratorClose(a, rec, ab)
			}
			inner, ab := getIteratorFlattenable(a, mapped)
			if ab != nil {
				return *engine.IteratorClose(a, rec, ab)
			}
			for {
				iv, done, ab := engine.IteratorStepValue(a, inner)
				if ab != nil {
					return *engine.IteratorClose(a, rec, ab)
				}
				if done {
					break
				}
				c := yield(iv)
				if c.Type == engine.CompletionNormal {
					continue
				}
				if ab := engine.IteratorClose(a, inner, &c); ab != nil && ab != &c {
					return *engine.IteratorClose(a, rec, ab)
				}
				if ab := engine.IteratorClose(a, rec, &c); ab != nil {
					return *ab
				}
				return c
			}
		}
	}), nil
}

func iteratorReduce(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	reducer := arg(args, 0)
	rec, ab := iteratorThis(a, this, callableCheck(a, reducer))
	if ab != nil {
		return undefined, ab
	}
	var acc Value
	counter := int64(0)
	if len(args) > 1 {
		acc = args[1]
	} else {
		v, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			return undefined, a.Throw(engine.TypeError, engine.MsgReduceEmpty)
		}
		acc, counter = v, 1
	}
	for ; ; counter++ {
		v, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			return acc, nil
		}
		acc, ab = engine.Call(a, reducer, undefined, []Value{acc, v, engine.Int(counter)})
		if ab != nil {
			return undefined, engine.IteratorClose(a, rec, ab)
		}
	}
}

func iteratorToArray(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	rec, ab := iteratorThis(a, this, func() *Completion { return nil })
	if ab != nil {
		return undefined, ab
	}
	items, ab := engine.IteratorToList(a, rec)
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(engine.CreateArrayFromList(a, items)), nil
}

// iteratorSearch drives forEach, some, every and find: fn is called per
// value and stop reports whether to close the iterator early with the
// given result. notFound is the result when the iterator runs out.
func iteratorSearch(a *Agent, this Value, fn Value, stop func(v, r Value) (bool, Value), notFound ...Value) (Value, *Completion) {
	rec, ab := iteratorThis(a, this, callableCheck(a, fn))
	if ab != nil {
		return undefined, ab
	}
	for counter := int64(0); ; counter++ {
		v, done, ab := engine.IteratorStepValue(a, rec)
		if ab != nil {
			return undefined, ab
		}
		if done {
			if len(notFound) > 0 {
				return notFound[0], nil
			}
			return undefined, nil
		}
		r, ab := engine.Call(a, fn, undefined, []Value{v, engine.Int(counter)})
		if ab != nil {
			return undefined, engine.IteratorClose(a, rec, ab)
		}
		if ok, result := stop(v, r); ok {
			return result, engine.IteratorClose(a, rec, nil)
		}
	}
}
