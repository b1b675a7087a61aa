package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type ProxyInitializer struct{}

func (p *ProxyInitializer) Name() string  { return "Proxy" }
func (p *ProxyInitializer) Priority() int { return PriorityProxy }

func (p *ProxyInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	// Proxy has no prototype property.
	ctor := b.Constructor("Proxy", 2, func(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
		if newTarget == nil {
			return undefined, a.Throw(engine.TypeError, engine.MsgConstructorRequired, "Proxy")
		}
		proxy, ab := engine.ProxyCreate(a, arg(args, 0), arg(args, 1))
		if ab != nil {
			return undefined, ab
		}
		return engine.ObjectValue(proxy), nil
	}, nil, nil)
	b.Method(ctor, "revocable", 2, proxyRevocable)
	return nil
}

// proxyRevocable implements Proxy.revocable: the revoke function drops its
// reference to the proxy after the first call.
func proxyRevocable(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	proxy, ab := engine.ProxyCreate(a, arg(args, 0), arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	revoke := engine.NewNativeFunction(a.CurrentRealm(), "", 0, func(*Agent, Value, []Value, *Object) (Value, *Completion) {
		if proxy != nil {
			engine.RevokeProxy(proxy)
			proxy = nil
		}
		return undefined, nil
	})
	result := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	engine.MustOK(engine.CreateDataPropertyOrThrow(a, result, engine.StringKey("proxy"), engine.ObjectValue(proxy)))
	engine.MustOK(engine.CreateDataPropertyOrThrow(a, result, engine.StringKey("revoke"), engine.ObjectValue(revoke)))
	return engine.ObjectValue(result), nil
}
