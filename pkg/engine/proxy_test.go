package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyGetInvariant(t *testing.T) {
	h := newHost(t)
	assert.Equal(t, "TypeError", h.throws(t, `
		var target = {};
		Object.defineProperty(target, "x", { value: 1, writable: false, configurable: false });
		var p = new Proxy(target, { get() { return 2; } });
		p.x`))
	got := h.eval(t, `
		var target = {};
		Object.defineProperty(target, "x", { value: 1, writable: false, configurable: false });
		new Proxy(target, { get() { return 1; } }).x`)
	assert.Equal(t, 1.0, got.AsNumber())
}

func TestProxyTrapsForwardAndObserve(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var log = [];
		var handler = new Proxy({}, { get(t, trap) { log.push(trap); return undefined; } });
		var p = new Proxy({ a: 1 }, handler);
		p.a; p.b = 2; "a" in p; delete p.a; Object.keys(p);
		log.join()`)
	assert.Equal(t, "get,set,getOwnPropertyDescriptor,defineProperty,has,deleteProperty,ownKeys,getOwnPropertyDescriptor", got)
}

func TestProxyOwnKeysInvariants(t *testing.T) {
	h := newHost(t)
	assert.Equal(t, "TypeError", h.throws(t, `
		var target = {};
		Object.defineProperty(target, "fixed", { value: 1, configurable: false });
		Reflect.ownKeys(new Proxy(target, { ownKeys() { return []; } }))`), "must report non-configurable keys")
	assert.Equal(t, "TypeError", h.throws(t, `
		Reflect.ownKeys(new Proxy(Object.preventExtensions({ a: 1 }), { ownKeys() { return ["a", "extra"]; } }))`),
		"non-extensible target cannot gain keys")
	assert.Equal(t, "TypeError", h.throws(t, `
		Reflect.ownKeys(new Proxy({}, { ownKeys() { return ["a", "a"]; } }))`), "duplicates")
	assert.Equal(t, "TypeError", h.throws(t, `
		Reflect.ownKeys(new Proxy({}, { ownKeys() { return [1]; } }))`), "non-property-key entries")
	got := h.evalString(t, `Reflect.ownKeys(new Proxy({}, { ownKeys() { return ["b", "a"]; } })).join()`)
	assert.Equal(t, "b,a", got)
}

func TestRevokedProxy(t *testing.T) {
	h := newHost(t)
	assert.Equal(t, "TypeError", h.throws(t, `
		var r = Proxy.revocable({}, {});
		r.revoke();
		r.proxy.x`))
	assert.Equal(t, "TypeError", h.throws(t, `
		var r = Proxy.revocable(function () {}, {});
		r.revoke();
		r.proxy()`))
	got := h.evalString(t, `
		var r = Proxy.revocable({}, {});
		r.revoke();
		r.revoke();
		typeof r.proxy`)
	assert.Equal(t, "object", got)
	assert.Equal(t, "TypeError", h.throws(t, `
		var r = Proxy.revocable([], {});
		r.revoke();
		Array.isArray(r.proxy)`))
}

func TestProxyCallableAndConstructible(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function F(x) { this.x = x; }
		var p = new Proxy(F, {
			apply(t, thisArg, args) { return "called " + args.length; },
			construct(t, args, nt) { return { x: args[0] * 2 }; }
		});
		[typeof p, p(1, 2), new p(21).x, Array.isArray(new Proxy([], {}))].join()`)
	assert.Equal(t, "function,called 2,42,true", got)
	assert.Equal(t, "TypeError", h.throws(t, `new (new Proxy(function () {}, { construct() { return 1; } }))()`))
}

func TestProxyTrapInvariants(t *testing.T) {
	// fixed() makes a target whose "x" is a non-configurable, non-writable
	// data property and whose "y" is a non-configurable getter-only accessor.
	const prelude = `
		function fixed() {
			var t = {};
			Object.defineProperty(t, "x", { value: 1, writable: false, configurable: false });
			Object.defineProperty(t, "y", { get: undefined, set: undefined, configurable: false });
			return t;
		}
		function sealedWithX() { return Object.preventExtensions({ x: 1 }); }
	`
	violations := map[string]string{
		"getOwnPropertyDescriptor hides non-configurable": `
			Object.getOwnPropertyDescriptor(new Proxy(fixed(), { getOwnPropertyDescriptor() { return undefined; } }), "x")`,
		"getOwnPropertyDescriptor hides property of non-extensible target": `
			Object.getOwnPropertyDescriptor(new Proxy(sealedWithX(), { getOwnPropertyDescriptor() { return undefined; } }), "x")`,
		"getOwnPropertyDescriptor reports non-configurable for configurable": `
			Object.getOwnPropertyDescriptor(new Proxy({ x: 1 }, {
				getOwnPropertyDescriptor() { return { value: 1, writable: true, enumerable: true, configurable: false }; }
			}), "x")`,
		"getOwnPropertyDescriptor reports missing property as non-configurable": `
			Object.getOwnPropertyDescriptor(new Proxy({}, {
				getOwnPropertyDescriptor() { return { value: 1, configurable: false }; }
			}), "x")`,
		"getOwnPropertyDescriptor returns a primitive": `
			Object.getOwnPropertyDescriptor(new Proxy({}, { getOwnPropertyDescriptor() { return 1; } }), "x")`,
		"getOwnPropertyDescriptor incompatible value": `
			Object.getOwnPropertyDescriptor(new Proxy(fixed(), {
				getOwnPropertyDescriptor() { return { value: 2, writable: false, configurable: false }; }
			}), "x")`,
		"defineProperty adds to non-extensible target": `
			Reflect.defineProperty(new Proxy(Object.preventExtensions({}), { defineProperty() { return true; } }), "x", { value: 1 })`,
		"defineProperty non-configurable on missing property": `
			Reflect.defineProperty(new Proxy({}, { defineProperty() { return true; } }), "x", { value: 1, configurable: false })`,
		"defineProperty non-configurable on configurable property": `
			Reflect.defineProperty(new Proxy({ x: 1 }, { defineProperty() { return true; } }), "x", { configurable: false })`,
		"defineProperty non-writable over writable non-configurable": `
			var t = {};
			Object.defineProperty(t, "x", { value: 1, writable: true, configurable: false });
			Reflect.defineProperty(new Proxy(t, { defineProperty() { return true; } }), "x", { value: 1, writable: false, configurable: false })`,
		"defineProperty incompatible with target": `
			Reflect.defineProperty(new Proxy(fixed(), { defineProperty() { return true; } }), "x", { value: 2 })`,
		"has hides non-configurable": `
			"x" in new Proxy(fixed(), { has() { return false; } })`,
		"has hides property of non-extensible target": `
			"x" in new Proxy(sealedWithX(), { has() { return false; } })`,
		"deleteProperty removes non-configurable": `
			Reflect.deleteProperty(new Proxy(fixed(), { deleteProperty() { return true; } }), "x")`,
		"deleteProperty on non-extensible target": `
			Reflect.deleteProperty(new Proxy(sealedWithX(), { deleteProperty() { return true; } }), "x")`,
		"getPrototypeOf lies for non-extensible target": `
			Object.getPrototypeOf(new Proxy(Object.preventExtensions({}), { getPrototypeOf() { return Array.prototype; } }))`,
		"getPrototypeOf returns a primitive": `
			Object.getPrototypeOf(new Proxy({}, { getPrototypeOf() { return 1; } }))`,
		"setPrototypeOf changes non-extensible target": `
			Reflect.setPrototypeOf(new Proxy(Object.preventExtensions({}), { setPrototypeOf() { return true; } }), Array.prototype)`,
		"isExtensible disagrees with target": `
			Object.isExtensible(new Proxy({}, { isExtensible() { return false; } }))`,
		"preventExtensions leaves target extensible": `
			Reflect.preventExtensions(new Proxy({}, { preventExtensions() { return true; } }))`,
		"set changes non-writable value": `
			Reflect.set(new Proxy(fixed(), { set() { return true; } }), "x", 2)`,
		"set through accessor without setter": `
			Reflect.set(new Proxy(fixed(), { set() { return true; } }), "y", 2)`,
		"get reveals value of getter-less accessor": `
			new Proxy(fixed(), { get() { return 1; } }).y`,
		"trap is not callable": `
			new Proxy({}, { get: 1 }).x`,
	}
	for name, code := range violations {
		t.Run(name, func(t *testing.T) {
			h := newHost(t)
			assert.Equal(t, "TypeError", h.throws(t, prelude+code))
		})
	}

	allowed := map[string]struct{ code, want string }{
		"getOwnPropertyDescriptor matches target": {`
			var d = Object.getOwnPropertyDescriptor(new Proxy(fixed(), {
				getOwnPropertyDescriptor(t, k) { return Reflect.getOwnPropertyDescriptor(t, k); }
			}), "x");
			[d.value, d.writable, d.configurable].join()`, "1,false,false"},
		"getOwnPropertyDescriptor hides configurable": {`
			String(Object.getOwnPropertyDescriptor(new Proxy({ x: 1 }, { getOwnPropertyDescriptor() {} }), "x"))`, "undefined"},
		"defineProperty trap refuses": {`
			String(Reflect.defineProperty(new Proxy({}, { defineProperty() { return false; } }), "x", { value: 1 }))`, "false"},
		"has hides configurable on extensible target": {`
			String("x" in new Proxy({ x: 1 }, { has() { return false; } }))`, "false"},
		"set same value on non-writable": {`
			String(Reflect.set(new Proxy(fixed(), { set() { return true; } }), "x", 1))`, "true"},
		"get same value on non-writable": {`
			String(new Proxy(fixed(), { get() { return 1; } }).x)`, "1"},
		"null trap falls through to target": {`
			String(new Proxy({ x: 5 }, { get: null }).x)`, "5"},
		"isExtensible agrees with target": {`
			String(Object.isExtensible(new Proxy(Object.preventExtensions({}), { isExtensible() { return false; } })))`, "false"},
	}
	for name, tc := range allowed {
		t.Run(name, func(t *testing.T) {
			h := newHost(t)
			assert.Equal(t, tc.want, h.evalString(t, prelude+tc.code))
		})
	}
}
