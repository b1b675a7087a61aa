package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string  { return "Error" }
func (e *ErrorInitializer) Priority() int { return PriorityError }

func (e *ErrorInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	b.Method(r.Intrinsic("%Error.prototype%"), "toString", 0, errorToString)
	return nil
}

// errorToString implements Error.prototype.toString.
func errorToString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	part := func(key, dflt string) (string, *Completion) {
		v, ab := engine.Get(a, o, engine.StringKey(key))
		if ab != nil || v.IsUndefined() {
			return dflt, ab
		}
		return engine.ToString(a, v)
	}
	name, ab := part("name", "Error")
	if ab != nil {
		return undefined, ab
	}
	msg, ab := part("message", "")
	if ab != nil {
		return undefined, ab
	}
	switch {
	case name == "":
		return engine.String(msg), nil
	case msg == "":
		return engine.String(name), nil
	}
	return engine.String(name + ": " + msg), nil
}
