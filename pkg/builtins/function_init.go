package builtins

import (
	"math"

	"github.com/nooga/specjs/pkg/engine"
)

type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string  { return "Function" }
func (f *FunctionInitializer) Priority() int { return PriorityFunction }

func (f *FunctionInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Function.prototype%")
	b.Method(proto, "apply", 2, functionApply)
	b.Method(proto, "bind", 1, functionBind)
	b.Method(proto, "call", 1, functionCall)
	b.Method(proto, "toString", 0, functionToString)
	hasInstance := b.SymbolMethod(proto, engine.SymbolHasInstance, 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		ok, ab := engine.OrdinaryHasInstance(a, this, arg(args, 0))
		return engine.Bool(ok), ab
	})
	// Function.prototype[@@hasInstance] is the one non-writable,
	// non-configurable built-in method.
	proto.DefineDirect(engine.SymbolKey(engine.SymbolHasInstance), engine.ObjectValue(hasInstance), false, false, false)

	// Strict functions and class bodies poison caller and arguments here.
	thrower := r.Intrinsic("%ThrowTypeError%")
	proto.DefineAccessorDirect(engine.StringKey("caller"), thrower, thrower, false, true)
	proto.DefineAccessorDirect(engine.StringKey("arguments"), thrower, thrower, false, true)
	return nil
}

func functionApply(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	if ab := requireCallable(a, this); ab != nil {
		return undefined, ab
	}
	thisArg, argArray := arg(args, 0), arg(args, 1)
	if argArray.IsNullish() {
		return engine.Call(a, this, thisArg, nil)
	}
	list, ab := engine.CreateListFromArrayLike(a, argArray, false)
	if ab != nil {
		return undefined, ab
	}
	return engine.Call(a, this, thisArg, list)
}

func functionCall(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	if ab := requireCallable(a, this); ab != nil {
		return undefined, ab
	}
	var rest []Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return engine.Call(a, this, arg(args, 0), rest)
}

// functionBind implements Function.prototype.bind, including the length and
// name copied from the target.
func functionBind(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	target := this.AsObject()
	if !engine.IsCallable(this) {
		return undefined, a.Throw(engine.TypeError, engine.MsgNotCallable, this.String())
	}
	var boundArgs []Value
	if len(args) > 1 {
		boundArgs = args[1:]
	}
	f, ab := engine.BoundFunctionCreate(a, target, arg(args, 0), boundArgs)
	if ab != nil {
		return undefined, ab
	}
	length := 0.0
	hasLength, ab := engine.HasOwnProperty(a, target, engine.StringKey("length"))
	if ab != nil {
		return undefined, ab
	}
	if hasLength {
		l, ab := engine.Get(a, target, engine.StringKey("length"))
		if ab != nil {
			return undefined, ab
		}
		if l.IsNumber() {
			switch n := l.AsNumber(); {
			case math.IsInf(n, 1):
				length = n
			case !math.IsInf(n, -1):
				n, _ = engine.ToIntegerOrInfinity(a, l)
				length = max(0, n-float64(len(boundArgs)))
			}
		}
	}
	f.DefineDirect(engine.StringKey("length"), engine.Number(length), false, false, true)
	name, ab := engine.Get(a, target, engine.StringKey("name"))
	if ab != nil {
		return undefined, ab
	}
	if !name.IsString() {
		name = engine.String("")
	}
	engine.SetFunctionName(f, engine.StringKey(name.AsString()), "bound")
	return engine.ObjectValue(f), nil
}

// functionToString implements Function.prototype.toString. Functions with
// source text return it; everything else callable renders as native code.
func functionToString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o := this.AsObject()
	if o != nil {
		if fs, ok := o.Slots().(*engine.FunctionSlots); ok {
			if fs.SourceText != "" {
				return engine.String(fs.SourceText), nil
			}
			name := ""
			if fs.InitialName.IsString() {
				name = fs.InitialName.AsString()
			}
			return engine.String("function " + name + "() { [native code] }"), nil
		}
		if engine.IsCallable(this) {
			return engine.String("function () { [native code] }"), nil
		}
	}
	return undefined, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, "Function.prototype.toString", this.String())
}
