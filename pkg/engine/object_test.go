package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/engine"
)

func TestStoredDescriptorIsDataXorAccessor(t *testing.T) {
	h := newHost(t)
	a := h.agent
	ctx := &engine.ExecutionContext{Realm: h.realm}
	a.PushContext(ctx)
	defer a.PopContext(ctx)

	o := engine.OrdinaryObjectCreate(h.realm.Intrinsic("%Object.prototype%"))
	k := engine.StringKey("p")
	getter := engine.NewNativeFunction(h.realm, "get", 0, func(*engine.Agent, engine.Value, []engine.Value, *engine.Object) (engine.Value, *engine.Completion) {
		return engine.Number(1), nil
	})

	// a generic descriptor creates a data property with defaults
	ok, ab := o.DefineOwnProperty(a, k, engine.PropertyDescriptor{Enumerable: true, HasEnumerable: true, Configurable: true, HasConfigurable: true})
	require.Nil(t, ab)
	require.True(t, ok)
	desc := engine.OrdinaryGetOwnProperty(o, k)
	require.NotNil(t, desc)
	assert.True(t, desc.IsDataDescriptor())
	assert.False(t, desc.IsAccessorDescriptor())
	assert.True(t, desc.Value.IsUndefined())
	assert.False(t, desc.Writable)

	// converting to an accessor drops the data fields
	ok, ab = o.DefineOwnProperty(a, k, engine.AccessorDescriptor(getter, nil, true, true))
	require.Nil(t, ab)
	require.True(t, ok)
	desc = engine.OrdinaryGetOwnProperty(o, k)
	assert.True(t, desc.IsAccessorDescriptor())
	assert.False(t, desc.IsDataDescriptor())
	assert.True(t, desc.Set.IsUndefined())

	// and back
	ok, ab = o.DefineOwnProperty(a, k, engine.DataDescriptor(engine.Number(2), true, true, false))
	require.Nil(t, ab)
	require.True(t, ok)
	desc = engine.OrdinaryGetOwnProperty(o, k)
	assert.True(t, desc.IsDataDescriptor())
	assert.False(t, desc.IsAccessorDescriptor())

	// non-configurable now: no redefinition as accessor
	ok, ab = o.DefineOwnProperty(a, k, engine.AccessorDescriptor(getter, nil, true, true))
	require.Nil(t, ab)
	assert.False(t, ok)
}

func TestDefinePropertyValidationFromScript(t *testing.T) {
	h := newHost(t)
	assert.Equal(t, "TypeError", h.throws(t, `Object.defineProperty({}, "x", { get() {}, value: 1 })`))
	got := h.evalString(t, `
		var o = {};
		Object.defineProperty(o, "x", { value: 1 });
		var d = Object.getOwnPropertyDescriptor(o, "x");
		[d.value, d.writable, d.enumerable, d.configurable, "get" in d].join()`)
	assert.Equal(t, "1,false,false,false,false", got)
	assert.Equal(t, "TypeError", h.throws(t, `
		var f = Object.freeze({ a: 1 });
		Object.defineProperty(f, "a", { value: 2 })`))
}

func TestArrayLengthSemantics(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var arr = [1, 2, 3, 4];
		arr.length = 2;
		var r = [arr.length, arr[2]];
		arr[9] = "x";
		r.push(arr.length);
		Object.defineProperty(arr, "length", { writable: false });
		var ok = Reflect.set(arr, 20, 1);
		r.push(ok, arr.length);
		r.join()`)
	assert.Equal(t, "2,,10,false,10", got)
	assert.Equal(t, "RangeError", h.throws(t, `[].length = -1`))
	assert.Equal(t, "RangeError", h.throws(t, `new Array(1.5)`))
}

func TestArrayLengthStopsAtNonConfigurable(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var arr = [0, 1, 2, 3];
		Object.defineProperty(arr, 1, { value: 1, configurable: false });
		var ok = Reflect.defineProperty(arr, "length", { value: 0 });
		[ok, arr.length].join()`)
	assert.Equal(t, "false,2", got)
}

func TestOwnKeysOrder(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var s = Symbol("s");
		var o = { b: 1, 2: 1, a: 1, [s]: 1, 1: 1, "-1": 1 };
		Reflect.ownKeys(o).map(String).join()`)
	assert.Equal(t, "1,2,b,a,-1,Symbol(s)", got)
}

func TestMappedArgumentsAliasing(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function sloppy(a, b) { arguments[0] = 10; b = 20; return [a, arguments[1]].join(); }
		function strict(a) { "use strict"; arguments[0] = 10; return String(a); }
		function unmapped(a = 0) { arguments[0] = 10; return String(a); }
		[sloppy(1, 2), strict(1), unmapped(1)].join("|")`)
	assert.Equal(t, "10,20|1|1", got)
	assert.Equal(t, "TypeError", h.throws(t, `(function () { "use strict"; return arguments.callee; })()`))
}

func TestStringExoticIndices(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var s = new String("ab");
		s[0] = "z";
		[s[0], s.length, Object.keys(s).join(""), 1 in s, 2 in s].join()`)
	assert.Equal(t, "a,2,01,true,false", got)
}
