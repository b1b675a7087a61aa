package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

// Shorthands for the engine types every initializer touches.
type (
	Value      = engine.Value
	Object     = engine.Object
	Completion = engine.Completion
	Agent      = engine.Agent
)

var (
	undefined = engine.Undefined
	null      = engine.Null
)

// arg returns args[i], or undefined when the caller passed fewer arguments.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return undefined
}

// requireObject throws a TypeError unless v is an object.
func requireObject(a *Agent, v Value) (*Object, *Completion) {
	if o := v.AsObject(); o != nil {
		return o, nil
	}
	return nil, a.Throw(engine.TypeError, engine.MsgNotObject, v.String())
}

// requireCallable throws a TypeError unless v is callable.
func requireCallable(a *Agent, v Value) *Completion {
	if engine.IsCallable(v) {
		return nil
	}
	return a.Throw(engine.TypeError, engine.MsgNotCallable, v.String())
}

// slotsOf returns this's slot payload when it has type T, or throws the
// incompatible receiver TypeError naming method.
func slotsOf[T any](a *Agent, this Value, method string) (T, *Completion) {
	var zero T
	if o := this.AsObject(); o != nil {
		if s, ok := o.Slots().(T); ok {
			return s, nil
		}
	}
	return zero, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, this.String())
}

// keyValues wraps a Go list of keys as language values.
func keyValues(keys []engine.PropertyKey) []Value {
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = k.Value()
	}
	return out
}

func speciesGetter(_ *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	return this, nil
}

// defineSpecies installs the get [Symbol.species] accessor on a constructor.
func defineSpecies(b *engine.IntrinsicBuilder, ctor *Object) {
	b.Getter(ctor, engine.SymbolKey(engine.SymbolSpecies), speciesGetter)
}
