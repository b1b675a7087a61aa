package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type BooleanInitializer struct{}

func (bi *BooleanInitializer) Name() string  { return "Boolean" }
func (bi *BooleanInitializer) Priority() int { return PriorityBoolean }

func (bi *BooleanInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Boolean.prototype%")
	b.Constructor("Boolean", 1, func(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
		v := engine.Bool(engine.ToBoolean(arg(args, 0)))
		if newTarget == nil {
			return v, nil
		}
		o, ab := engine.OrdinaryCreateFromConstructor(a, newTarget, "%Boolean.prototype%", engine.KindBooleanWrapper, v)
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(o), nil
	}, proto, nil)
	b.Method(proto, "toString", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		v, ab := thisBooleanValue(a, this, "Boolean.prototype.toString")
		if ab != nil {
			return undefined, ab
		}
		return engine.String(v.String()), nil
	})
	b.Method(proto, "valueOf", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		return thisBooleanValue(a, this, "Boolean.prototype.valueOf")
	})
	return nil
}

// thisBooleanValue implements ThisBooleanValue.
func thisBooleanValue(a *Agent, v Value, method string) (Value, *Completion) {
	if v.IsBoolean() {
		return v, nil
	}
	if data, ok := engine.PrimitiveData(v.AsObject(), engine.KindBooleanWrapper); ok {
		return data, nil
	}
	return undefined, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, v.String())
}
