package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardOrder(t *testing.T) {
	inits := Standard()
	require.NotEmpty(t, inits)
	for i := 1; i < len(inits); i++ {
		assert.LessOrEqual(t, inits[i-1].Priority(), inits[i].Priority(),
			"%s before %s", inits[i-1].Name(), inits[i].Name())
	}
	assert.Equal(t, "Object", inits[0].Name())
}

func TestObjectInitializerIntrinsics(t *testing.T) {
	_, r := newTestRealm(t)
	for _, name := range []string{"%Object%", "%Object.prototype%", "%Reflect%", "%JSON%", "%Math%", "%parseInt%"} {
		_, ok := r.LookupIntrinsic(name)
		assert.True(t, ok, name)
	}
}

func TestObjectStatics(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"assign", `
			var src = { a: 1 }; Object.defineProperty(src, "hidden", { value: 2 });
			JSON.stringify(Object.assign({ z: 0 }, src, null, "xy"))`, `{"0":"x","1":"y","z":0,"a":1}`},
		{"create with properties", `
			var o = Object.create({ inherited: 1 }, { own: { value: 2, enumerable: true } });
			[o.inherited, o.own, Object.keys(o).join()].join()`, "1,2,own"},
		{"entries and fromEntries", `
			JSON.stringify(Object.fromEntries(Object.entries({ a: 1, b: 2 }).map(([k, v]) => [k + k, v * 10])))`, `{"aa":10,"bb":20}`},
		{"freeze and seal", `
			var f = Object.freeze({ a: 1 }), s = Object.seal({ b: 1 });
			s.b = 2; s.c = 3;
			[Object.isFrozen(f), Object.isSealed(s), Object.isFrozen(s), s.b, "c" in s, Object.isExtensible(s)].join()`, "true,true,false,2,false,false"},
		{"getOwnPropertyNames and symbols", `
			var sym = Symbol("k"); var o = { [sym]: 1, x: 2 };
			Object.getOwnPropertyNames(o).join() + "|" + Object.getOwnPropertySymbols(o).map(String).join()`, "x|Symbol(k)"},
		{"getOwnPropertyDescriptors", `
			var d = Object.getOwnPropertyDescriptors({ get g() { return 1; }, v: 2 });
			[typeof d.g.get, d.g.set, d.v.value, d.v.writable].join()`, "function,,2,true"},
		{"is", `[Object.is(NaN, NaN), Object.is(0, -0), Object.is("a", "a")].join()`, "true,false,true"},
		{"hasOwn and prototype helpers", `
			var proto = {}; var o = Object.create(proto); o.own = 1;
			[Object.hasOwn(o, "own"), o.hasOwnProperty("toString"), proto.isPrototypeOf(o), o.propertyIsEnumerable("own")].join()`, "true,false,true,true"},
		{"setPrototypeOf", `
			var o = Object.setPrototypeOf({}, null);
			[Object.getPrototypeOf(o), Object.setPrototypeOf(1, null)].join()`, ",1"},
		{"toString tags", `
			[Object.prototype.toString.call(null), Object.prototype.toString.call([]),
			 Object.prototype.toString.call(function () {}), Object.prototype.toString.call(Math),
			 String({ [Symbol.toStringTag]: "Custom" })].join()`,
			"[object Null],[object Array],[object Function],[object Math],[object Custom]"},
		{"values", `Object.values("ab").join()`, "a,b"},
	})
}

func TestObjectStaticErrors(t *testing.T) {
	assert.Equal(t, "TypeError", thrownName(t, `Object.create(1)`))
	assert.Equal(t, "TypeError", thrownName(t, `Object.defineProperty(1, "x", {})`))
	assert.Equal(t, "TypeError", thrownName(t, `Object.setPrototypeOf({}, 1)`))
	assert.Equal(t, "TypeError", thrownName(t, `var a = {}, b = Object.create(a); Object.setPrototypeOf(a, b)`))
	assert.Equal(t, "TypeError", thrownName(t, `Object.keys(undefined)`))
}
