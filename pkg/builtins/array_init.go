package builtins

import (
	"math"
	"strings"

	"github.com/nooga/specjs/pkg/engine"
)

// maxSafeLength is 2^53 - 1, the largest length an array-like may have.
const maxSafeLength = 1<<53 - 1

type ArrayInitializer struct{}

func (ai *ArrayInitializer) Name() string  { return "Array" }
func (ai *ArrayInitializer) Priority() int { return PriorityArray }

func (ai *ArrayInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	ctor := r.Intrinsic("%Array%")
	proto := r.Intrinsic("%Array.prototype%")

	b.Method(ctor, "isArray", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		ok, ab := engine.IsArray(a, arg(args, 0))
		return engine.Bool(ok), ab
	})
	b.Method(ctor, "of", 0, arrayOf)
	b.Method(ctor, "from", 1, arrayFrom)
	defineSpecies(b, ctor)

	b.Method(proto, "concat", 1, arrayConcat)
	b.Method(proto, "entries", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		o, ab := engine.ToObject(a, this)
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(a.CreateArrayIterator(o, engine.EnumerateEntries)), nil
	})
	b.Method(proto, "every", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return arraySearch(a, this, args, "every", func(_, r Value, _ int64) (bool, Value) {
			return !engine.ToBoolean(r), engine.False
		}, engine.True)
	})
	b.Method(proto, "filter", 1, arrayFilter)
	b.Method(proto, "find", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return arraySearch(a, this, args, "find", func(v, r Value, _ int64) (bool, Value) {
			return engine.ToBoolean(r), v
		}, undefined)
	})
	b.Method(proto, "findIndex", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return arraySearch(a, this, args, "findIndex", func(_, r Value, k int64) (bool, Value) {
			return engine.ToBoolean(r), engine.Int(k)
		}, engine.Int(-1))
	})
	b.Method(proto, "forEach", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		_, ab := arraySearch(a, this, args, "forEach", func(Value, Value, int64) (bool, Value) {
			return false, undefined
		}, undefined)
		return undefined, ab
	})
	b.Method(proto, "includes", 1, arrayIncludes)
	b.Method(proto, "indexOf", 1, arrayIndexOf)
	b.Method(proto, "join", 1, arrayJoin)
	b.Method(proto, "keys", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		o, ab := engine.ToObject(a, this)
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(a.CreateArrayIterator(o, engine.EnumerateKeys)), nil
	})
	b.Method(proto, "map", 1, arrayMap)
	b.Method(proto, "pop", 0, arrayPop)
	b.Method(proto, "push", 1, arrayPush)
	b.Method(proto, "reduce", 1, arrayReduce)
	b.Method(proto, "reverse", 0, arrayReverse)
	b.Method(proto, "slice", 2, arraySlice)
	b.Method(proto, "some", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return arraySearch(a, this, args, "some", func(_, r Value, _ int64) (bool, Value) {
			return engine.ToBoolean(r), engine.True
		}, engine.False)
	})
	b.Method(proto, "toString", 0, arrayToString)

	unscopables := engine.OrdinaryObjectCreate(nil)
	for _, name := range []string{"entries", "find", "findIndex", "includes", "keys", "values"} {
		unscopables.DefineDirect(engine.StringKey(name), engine.True, true, true, true)
	}
	proto.DefineDirect(engine.SymbolKey(engine.SymbolUnscopables), engine.ObjectValue(unscopables), false, false, true)
	return nil
}

// arrayLikeThis converts the receiver to an object and reads its length.
func arrayLikeThis(a *Agent, this Value) (*Object, int64, *Completion) {
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return nil, 0, ab
	}
	n, ab := engine.LengthOfArrayLike(a, o)
	return o, n, ab
}

// relativeIndex resolves a relative start or end argument against length.
func relativeIndex(a *Agent, v Value, length int64, dflt int64) (int64, *Completion) {
	if v.IsUndefined() {
		return dflt, nil
	}
	rel, ab := engine.ToIntegerOrInfinity(a, v)
	if ab != nil {
		return 0, ab
	}
	switch {
	case math.IsInf(rel, -1):
		return 0, nil
	case rel < 0:
		return max(0, length+int64(rel)), nil
	default:
		return int64(min(rel, float64(length))), nil
	}
}

func arrayOf(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	arr, ab := constructArrayLike(a, this, int64(len(args)), true)
	if ab != nil {
		return undefined, ab
	}
	for k, v := range args {
		if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(int64(k)), v); ab != nil {
			return undefined, ab
		}
	}
	if ab := engine.Set(a, arr, engine.StringKey("length"), engine.Int(int64(len(args))), true); ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(arr), nil
}

// constructArrayLike builds the result of Array.of and Array.from: a new C
// when the receiver is a constructor, a plain array otherwise.
func constructArrayLike(a *Agent, c Value, length int64, withLength bool) (*Object, *Completion) {
	if !engine.IsConstructor(c) {
		return engine.ArrayCreate(a, uint64(max(length, 0)), nil)
	}
	var args []Value
	if withLength {
		args = []Value{engine.Int(length)}
	}
	v, ab := engine.Construct(a, c.AsObject(), args, nil)
	if ab != nil {
		return nil, ab
	}
	return requireObject(a, v)
}

func arrayFrom(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	items, mapFn, thisArg := arg(args, 0), arg(args, 1), arg(args, 2)
	mapping := !mapFn.IsUndefined()
	if mapping {
		if ab := requireCallable(a, mapFn); ab != nil {
			return undefined, ab
		}
	}
	using, ab := engine.GetMethod(a, items, engine.SymbolKey(engine.SymbolIterator))
	if ab != nil {
		return undefined, ab
	}
	if !using.IsUndefined() {
		arr, ab := constructArrayLike(a, this, 0, false)
		if ab != nil {
			return undefined, ab
		}
		rec, ab := engine.GetIteratorFromMethod(a, items, using)
		if ab != nil {
			return undefined, ab
		}
		for k := int64(0); ; k++ {
			v, done, ab := engine.IteratorStepValue(a, rec)
			if ab != nil {
				return undefined, ab
			}
			if done {
				if ab := engine.Set(a, arr, engine.StringKey("length"), engine.Int(k), true); ab != nil {
					return undefined, ab
				}
				return engine.ObjectValue(arr), nil
			}
			if mapping {
				v, ab = engine.Call(a, mapFn, thisArg, []Value{v, engine.Int(k)})
				if ab != nil {
					return undefined, engine.IteratorClose(a, rec, ab)
				}
			}
			if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(k), v); ab != nil {
				return undefined, engine.IteratorClose(a, rec, ab)
			}
		}
	}
	arrayLike, length, ab := arrayLikeThis(a, items)
	if ab != nil {
		return undefined, ab
	}
	arr, ab := constructArrayLike(a, this, length, true)
	if ab != nil {
		return undefined, ab
	}
	for k := int64(0); k < length; k++ {
		v, ab := engine.Get(a, arrayLike, engine.IndexKey(k))
		if ab != nil {
			return undefined, ab
		}
		if mapping {
			if v, ab = engine.Call(a, mapFn, thisArg, []Value{v, engine.Int(k)}); ab != nil {
				return undefined, ab
			}
		}
		if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(k), v); ab != nil {
			return undefined, ab
		}
	}
	if ab := engine.Set(a, arr, engine.StringKey("length"), engine.Int(length), true); ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(arr), nil
}

// isConcatSpreadable implements IsConcatSpreadable.
func isConcatSpreadable(a *Agent, v Value) (bool, *Completion) {
	o := v.AsObject()
	if o == nil {
		return false, nil
	}
	spreadable, ab := engine.Get(a, o, engine.SymbolKey(engine.SymbolIsConcatSpreadable))
	if ab != nil {
		return false, ab
	}
	if !spreadable.IsUndefined() {
		return engine.ToBoolean(spreadable), nil
	}
	return engine.IsArray(a, v)
}

func arrayConcat(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	arr, ab := engine.ArraySpeciesCreate(a, o, 0)
	if ab != nil {
		return undefined, ab
	}
	n := int64(0)
	for _, item := range append([]Value{engine.ObjectValue(o)}, args...) {
		spreadable, ab := isConcatSpreadable(a, item)
		if ab != nil {
			return undefined, ab
		}
		if !spreadable {
			if n >= maxSafeLength {
				return undefined, a.Throw(engine.TypeError, engine.MsgInvalidArrayLength)
			}
			if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(n), item); ab != nil {
				return undefined, ab
			}
			n++
			continue
		}
		e := item.AsObject()
		length, ab := engine.LengthOfArrayLike(a, e)
		if ab != nil {
			return undefined, ab
		}
		if n+length > maxSafeLength {
			return undefined, a.Throw(engine.TypeError, engine.MsgInvalidArrayLength)
		}
		for k := int64(0); k < length; k, n = k+1, n+1 {
			exists, ab := engine.HasProperty(a, e, engine.IndexKey(k))
			if ab != nil {
				return undefined, ab
			}
			if !exists {
				continue
			}
			v, ab := engine.Get(a, e, engine.IndexKey(k))
			if ab != nil {
				return undefined, ab
			}
			if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(n), v); ab != nil {
				return undefined, ab
			}
		}
	}
	if ab := engine.Set(a, arr, engine.StringKey("length"), engine.Int(n), true); ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(arr), nil
}

// arraySearch drives the callback methods that visit present elements in
// order: stop decides whether to finish early and with what result.
func arraySearch(a *Agent, this Value, args []Value, method string, stop func(v, r Value, k int64) (bool, Value), notFound Value) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	fn, thisArg := arg(args, 0), arg(args, 1)
	if ab := requireCallable(a, fn); ab != nil {
		return undefined, ab
	}
	// find and findIndex visit holes; the others skip them.
	visitHoles := method == "find" || method == "findIndex"
	for k := int64(0); k < length; k++ {
		key := engine.IndexKey(k)
		if !visitHoles {
			exists, ab := engine.HasProperty(a, o, key)
			if ab != nil {
				return undefined, ab
			}
			if !exists {
				continue
			}
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		r, ab := engine.Call(a, fn, thisArg, []Value{v, engine.Int(k), engine.ObjectValue(o)})
		if ab != nil {
			return undefined, ab
		}
		if ok, result := stop(v, r, k); ok {
			return result, nil
		}
	}
	return notFound, nil
}

func arrayMap(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	fn, thisArg := arg(args, 0), arg(args, 1)
	if ab := requireCallable(a, fn); ab != nil {
		return undefined, ab
	}
	arr, ab := engine.ArraySpeciesCreate(a, o, uint64(length))
	if ab != nil {
		return undefined, ab
	}
	for k := int64(0); k < length; k++ {
		key := engine.IndexKey(k)
		exists, ab := engine.HasProperty(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if !exists {
			continue
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		mapped, ab := engine.Call(a, fn, thisArg, []Value{v, engine.Int(k), engine.ObjectValue(o)})
		if ab != nil {
			return undefined, ab
		}
		if ab := engine.CreateDataPropertyOrThrow(a, arr, key, mapped); ab != nil {
			return undefined, ab
		}
	}
	return engine.ObjectValue(arr), nil
}

func arrayFilter(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	fn, thisArg := arg(args, 0), arg(args, 1)
	if ab := requireCallable(a, fn); ab != nil {
		return undefined, ab
	}
	arr, ab := engine.ArraySpeciesCreate(a, o, 0)
	if ab != nil {
		return undefined, ab
	}
	to := int64(0)
	for k := int64(0); k < length; k++ {
		key := engine.IndexKey(k)
		exists, ab := engine.HasProperty(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if !exists {
			continue
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		selected, ab := engine.Call(a, fn, thisArg, []Value{v, engine.Int(k), engine.ObjectValue(o)})
		if ab != nil {
			return undefined, ab
		}
		if engine.ToBoolean(selected) {
			if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(to), v); ab != nil {
				return undefined, ab
			}
			to++
		}
	}
	return engine.ObjectValue(arr), nil
}

func arrayReduce(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	fn := arg(args, 0)
	if ab := requireCallable(a, fn); ab != nil {
		return undefined, ab
	}
	k := int64(0)
	var acc Value
	if len(args) > 1 {
		acc = args[1]
	} else {
		found := false
		for ; k < length && !found; k++ {
			exists, ab := engine.HasProperty(a, o, engine.IndexKey(k))
			if ab != nil {
				return undefined, ab
			}
			if exists {
				if acc, ab = engine.Get(a, o, engine.IndexKey(k)); ab != nil {
					return undefined, ab
				}
				found = true
			}
		}
		if !found {
			return undefined, a.Throw(engine.TypeError, engine.MsgGeneric, "Reduce of empty array with no initial value")
		}
	}
	for ; k < length; k++ {
		key := engine.IndexKey(k)
		exists, ab := engine.HasProperty(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if !exists {
			continue
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if acc, ab = engine.Call(a, fn, undefined, []Value{acc, v, engine.Int(k), engine.ObjectValue(o)}); ab != nil {
			return undefined, ab
		}
	}
	return acc, nil
}

func arrayIncludes(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil || length == 0 {
		return engine.False, ab
	}
	k, ab := relativeIndex(a, arg(args, 1), length, 0)
	if ab != nil {
		return undefined, ab
	}
	target := arg(args, 0)
	for ; k < length; k++ {
		v, ab := engine.Get(a, o, engine.IndexKey(k))
		if ab != nil {
			return undefined, ab
		}
		if engine.SameValueZero(target, v) {
			return engine.True, nil
		}
	}
	return engine.False, nil
}

func arrayIndexOf(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil || length == 0 {
		return engine.Int(-1), ab
	}
	k, ab := relativeIndex(a, arg(args, 1), length, 0)
	if ab != nil {
		return undefined, ab
	}
	target := arg(args, 0)
	for ; k < length; k++ {
		key := engine.IndexKey(k)
		exists, ab := engine.HasProperty(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if !exists {
			continue
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if engine.IsStrictlyEqual(target, v) {
			return engine.Int(k), nil
		}
	}
	return engine.Int(-1), nil
}

func arrayJoin(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	sep := ","
	if s := arg(args, 0); !s.IsUndefined() {
		if sep, ab = engine.ToString(a, s); ab != nil {
			return undefined, ab
		}
	}
	var sb strings.Builder
	for k := int64(0); k < length; k++ {
		if k > 0 {
			sb.WriteString(sep)
		}
		v, ab := engine.Get(a, o, engine.IndexKey(k))
		if ab != nil {
			return undefined, ab
		}
		if v.IsNullish() {
			continue
		}
		s, ab := engine.ToString(a, v)
		if ab != nil {
			return undefined, ab
		}
		sb.WriteString(s)
	}
	return engine.String(sb.String()), nil
}

func arrayToString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := engine.ToObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	join, ab := engine.Get(a, o, engine.StringKey("join"))
	if ab != nil {
		return undefined, ab
	}
	if !engine.IsCallable(join) {
		join = engine.ObjectValue(a.CurrentRealm().Intrinsic("%Object.prototype.toString%"))
	}
	return engine.Call(a, join, engine.ObjectValue(o), nil)
}

func arrayPop(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	if length == 0 {
		return undefined, engine.Set(a, o, engine.StringKey("length"), engine.Int(0), true)
	}
	key := engine.IndexKey(length - 1)
	v, ab := engine.Get(a, o, key)
	if ab != nil {
		return undefined, ab
	}
	if ab := engine.DeletePropertyOrThrow(a, o, key); ab != nil {
		return undefined, ab
	}
	return v, engine.Set(a, o, engine.StringKey("length"), engine.Int(length-1), true)
}

func arrayPush(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	if length+int64(len(args)) > maxSafeLength {
		return undefined, a.Throw(engine.TypeError, engine.MsgInvalidArrayLength)
	}
	for _, v := range args {
		if ab := engine.Set(a, o, engine.IndexKey(length), v, true); ab != nil {
			return undefined, ab
		}
		length++
	}
	return engine.Int(length), engine.Set(a, o, engine.StringKey("length"), engine.Int(length), true)
}

func arrayReverse(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	for lower := int64(0); lower < length/2; lower++ {
		upper := length - lower - 1
		lk, uk := engine.IndexKey(lower), engine.IndexKey(upper)
		lowerExists, ab := engine.HasProperty(a, o, lk)
		if ab != nil {
			return undefined, ab
		}
		var lv, uv Value
		if lowerExists {
			if lv, ab = engine.Get(a, o, lk); ab != nil {
				return undefined, ab
			}
		}
		upperExists, ab := engine.HasProperty(a, o, uk)
		if ab != nil {
			return undefined, ab
		}
		if upperExists {
			if uv, ab = engine.Get(a, o, uk); ab != nil {
				return undefined, ab
			}
		}
		steps := []struct {
			key    engine.PropertyKey
			v      Value
			exists bool
		}{{lk, uv, upperExists}, {uk, lv, lowerExists}}
		for _, st := range steps {
			if st.exists {
				ab = engine.Set(a, o, st.key, st.v, true)
			} else {
				ab = engine.DeletePropertyOrThrow(a, o, st.key)
			}
			if ab != nil {
				return undefined, ab
			}
		}
	}
	return engine.ObjectValue(o), nil
}

func arraySlice(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	o, length, ab := arrayLikeThis(a, this)
	if ab != nil {
		return undefined, ab
	}
	k, ab := relativeIndex(a, arg(args, 0), length, 0)
	if ab != nil {
		return undefined, ab
	}
	final, ab := relativeIndex(a, arg(args, 1), length, length)
	if ab != nil {
		return undefined, ab
	}
	count := max(final-k, 0)
	arr, ab := engine.ArraySpeciesCreate(a, o, uint64(count))
	if ab != nil {
		return undefined, ab
	}
	n := int64(0)
	for ; k < final; k, n = k+1, n+1 {
		key := engine.IndexKey(k)
		exists, ab := engine.HasProperty(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if !exists {
			continue
		}
		v, ab := engine.Get(a, o, key)
		if ab != nil {
			return undefined, ab
		}
		if ab := engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(n), v); ab != nil {
			return undefined, ab
		}
	}
	if ab := engine.Set(a, arr, engine.StringKey("length"), engine.Int(n), true); ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(arr), nil
}
