package main

import (
	"github.com/nooga/specjs/pkg/driver"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/source"
)

// install262 defines the $262 host object on realm's global object.
func install262(a *engine.Agent, realm *engine.Realm) *engine.Completion {
	b := a.NewIntrinsicBuilder(realm)
	obj := b.Object()

	b.Method(obj, "createRealm", 0, func(a *engine.Agent, _ engine.Value, _ []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		r, err := a.NewRealm()
		if err != nil {
			return engine.Undefined, a.Throw(engine.Error, engine.MsgGeneric, err.Error())
		}
		ctx := &engine.ExecutionContext{Realm: r}
		a.PushContext(ctx)
		defer a.PopContext(ctx)
		if ab := driver.InstallHostGlobals(a, r); ab != nil {
			return engine.Undefined, ab
		}
		if ab := install262(a, r); ab != nil {
			return engine.Undefined, ab
		}
		return engine.Get(a, r.GlobalObject, engine.StringKey("$262"))
	})
	b.Method(obj, "evalScript", 1, func(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		code, ab := engine.ToString(a, argAt(args, 0))
		if ab != nil {
			return engine.Undefined, ab
		}
		return a.EvaluateScript(realm, source.NewEvalSource(code))
	})
	b.Method(obj, "detachArrayBuffer", 1, func(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		buf := argAt(args, 0).AsObject()
		if buf == nil {
			return engine.Undefined, a.Throw(engine.TypeError, engine.MsgGeneric, "detachArrayBuffer requires an ArrayBuffer")
		}
		return engine.Null, engine.DetachArrayBuffer(a, buf, engine.Undefined)
	})
	b.Method(obj, "gc", 0, func(*engine.Agent, engine.Value, []engine.Value, *engine.Object) (engine.Value, *engine.Completion) {
		return engine.Undefined, nil
	})
	obj.DefineDirect(engine.StringKey("global"), engine.ObjectValue(realm.GlobalObject), true, false, true)

	desc := engine.DataDescriptor(engine.ObjectValue(obj), true, false, true)
	return engine.DefinePropertyOrThrow(a, realm.GlobalObject, engine.StringKey("$262"), desc)
}

func argAt(args []engine.Value, i int) engine.Value {
	if i < len(args) {
		return args[i]
	}
	return engine.Undefined
}
