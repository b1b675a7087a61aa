package builtins

import (
	"maps"
	"slices"

	"github.com/nooga/specjs/pkg/engine"
)

type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string  { return "Symbol" }
func (s *SymbolInitializer) Priority() int { return PrioritySymbol }

func (s *SymbolInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Symbol.prototype%")
	ctor := b.Constructor("Symbol", 0, symbolConstructor, proto, nil)

	wellKnown := engine.WellKnownSymbols()
	for _, name := range slices.Sorted(maps.Keys(wellKnown)) {
		b.Constant(ctor, name, engine.SymbolValue(wellKnown[name]))
	}
	b.Method(ctor, "for", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		key, ab := engine.ToString(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.SymbolValue(a.SymbolFor(key)), nil
	})
	b.Method(ctor, "keyFor", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		v := arg(args, 0)
		if !v.IsSymbol() {
			return undefined, a.Throw(engine.TypeError, engine.MsgGeneric, v.String()+" is not a symbol")
		}
		if key, ok := a.SymbolKeyFor(v.AsSymbol()); ok {
			return engine.String(key), nil
		}
		return undefined, nil
	})

	b.Method(proto, "toString", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		sym, ab := thisSymbolValue(a, this, "Symbol.prototype.toString")
		if ab != nil {
			return undefined, ab
		}
		return engine.String(sym.DescriptiveString()), nil
	})
	b.Method(proto, "valueOf", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		sym, ab := thisSymbolValue(a, this, "Symbol.prototype.valueOf")
		return engine.SymbolValue(sym), ab
	})
	b.Getter(proto, engine.StringKey("description"), func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		sym, ab := thisSymbolValue(a, this, "Symbol.prototype.description")
		if ab != nil {
			return undefined, ab
		}
		return sym.Description(), nil
	})
	toPrimitive := b.SymbolMethod(proto, engine.SymbolToPrimitive, 1, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		sym, ab := thisSymbolValue(a, this, "Symbol.prototype [ @@toPrimitive ]")
		return engine.SymbolValue(sym), ab
	})
	proto.DefineDirect(engine.SymbolKey(engine.SymbolToPrimitive), engine.ObjectValue(toPrimitive), false, false, true)
	b.ToStringTag(proto, "Symbol")
	return nil
}

func symbolConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget != nil {
		return undefined, a.Throw(engine.TypeError, engine.MsgSymbolNew)
	}
	desc := arg(args, 0)
	if !desc.IsUndefined() {
		s, ab := engine.ToString(a, desc)
		if ab != nil {
			return undefined, ab
		}
		desc = engine.String(s)
	}
	return engine.SymbolValue(engine.NewSymbol(desc)), nil
}

// thisSymbolValue implements ThisSymbolValue.
func thisSymbolValue(a *Agent, v Value, method string) (*engine.Symbol, *Completion) {
	if v.IsSymbol() {
		return v.AsSymbol(), nil
	}
	if data, ok := engine.PrimitiveData(v.AsObject(), engine.KindSymbolWrapper); ok {
		return data.AsSymbol(), nil
	}
	return nil, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, v.String())
}
