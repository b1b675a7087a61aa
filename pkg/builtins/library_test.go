package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"parse keeps member order", `Object.keys(JSON.parse('{"b":1,"a":2,"1":3}')).join()`, "1,b,a"},
		{"parse nested values", `
			var v = JSON.parse(' {"a":[1,2.5,-3e2,true,null,"s\\u0041"]} ');
			v.a.map(String).join("|")`, "1|2.5|-300|true|null|sA"},
		{"reviver", `
			JSON.stringify(JSON.parse('{"a":1,"b":{"c":2},"drop":0}', function (k, v) {
				if (k === "drop") return undefined;
				return typeof v === "number" ? v * 10 : v;
			}))`, `{"a":10,"b":{"c":20}}`},
		{"stringify primitives", `[JSON.stringify("a\"\n"), JSON.stringify(NaN), JSON.stringify(undefined), JSON.stringify(-0)].join("|")`, `"a\"\n"|null||0`},
		{"stringify skips functions and symbols", `JSON.stringify({ f() {}, s: Symbol(), u: undefined, a: [undefined, function () {}] })`, `{"a":[null,null]}`},
		{"toJSON", `JSON.stringify({ d: { toJSON(key) { return "key:" + key; } } })`, `{"d":"key:d"}`},
		{"replacer function", `JSON.stringify({ a: 1, b: "x" }, (k, v) => typeof v === "number" ? v + 1 : v)`, `{"a":2,"b":"x"}`},
		{"replacer list", `JSON.stringify({ a: 1, b: 2, c: 3, 1: 4 }, ["c", 1, "a", "c"])`, `{"c":3,"1":4,"a":1}`},
		{"gap number", `JSON.stringify({ a: [1], b: {} }, null, 2)`, "{\n  \"a\": [\n    1\n  ],\n  \"b\": {}\n}"},
		{"gap string clamps", `JSON.stringify([1], null, "--------------")`, "[\n----------1\n]"},
		{"wrappers unwrap", `JSON.stringify([new Number(1), new String("s"), new Boolean(false)])`, `[1,"s",false]`},
	})
	assert.Equal(t, "TypeError", thrownName(t, `var o = {}; o.self = o; JSON.stringify(o)`))
	assert.Equal(t, "TypeError", thrownName(t, `JSON.stringify(1n)`))
	assert.Equal(t, "SyntaxError", thrownName(t, `JSON.parse("[1] x")`))
	assert.Equal(t, "SyntaxError", thrownName(t, `JSON.parse("")`))
}

func TestMath(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"max and min", `[Math.max(), Math.min(), Math.max(1, NaN, 3), Object.is(Math.max(-0, 0), 0), Object.is(Math.min(0, -0), -0)].join()`,
			"-Infinity,Infinity,NaN,true,true"},
		{"round", `[Math.round(2.5), Math.round(-2.5), Object.is(Math.round(-0.2), -0), Math.round(0.49999999999999994)].join()`, "3,-2,true,0"},
		{"integer ops", `[Math.imul(0xffffffff, 5), Math.clz32(1), Math.clz32(0), Math.trunc(-4.7), Math.sign(-3)].join()`, "-5,31,32,-4,-1"},
		{"hypot", `[Math.hypot(3, 4), Math.hypot(NaN, Infinity), Math.hypot()].join()`, "5,Infinity,0"},
		{"pow follows the exponent operator", `[Math.pow(2, 10), Math.pow(1, Infinity), Math.pow(NaN, 0)].join()`, "1024,NaN,1"},
		{"fround", `String(Math.fround(5.5) === 5.5 && Math.fround(5.05) !== 5.05)`, "true"},
		{"constants are frozen", `
			var d = Object.getOwnPropertyDescriptor(Math, "PI");
			[d.writable, d.configurable, Math.PI === 3.141592653589793].join()`, "false,false,true"},
		{"random range", `var r = Math.random(); String(r >= 0 && r < 1)`, "true"},
	})
	assert.Equal(t, "TypeError", thrownName(t, `Math.abs(1n)`))
}

func TestGlobalFunctions(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"parseInt", `[parseInt("  42px"), parseInt("0x1F"), parseInt("-0x10"), parseInt("z", 36), parseInt("12", 1), parseInt(""), parseInt("0b11")].join()`,
			"42,31,-16,35,NaN,NaN,0"},
		{"parseInt big radix values", `String(parseInt("ffffffffffffffff", 16))`, "18446744073709552000"},
		{"parseFloat", `[parseFloat("3.14abc"), parseFloat("  -.5e1x"), parseFloat("Infinityx"), parseFloat("e5"), parseFloat("1e")].join()`,
			"3.14,-5,Infinity,NaN,1"},
		{"isNaN and isFinite coerce", `[isNaN("x"), isFinite("12"), Number.isNaN("x"), isFinite(Infinity)].join()`, "true,true,false,false"},
		{"Number aliases", `[Number.parseInt === parseInt, Number.parseFloat === parseFloat].join()`, "true,true"},
	})
}

func TestReflect(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"apply and construct", `
			function F(a, b) { this.sum = a + b; }
			function G() {}
			var o = Reflect.construct(F, [1, 2], G);
			[Reflect.apply(Math.max, null, [1, 3, 2]), o.sum, Object.getPrototypeOf(o) === G.prototype].join()`, "3,3,true"},
		{"property operations", `
			var o = {};
			var r = [Reflect.defineProperty(o, "x", { value: 1 }), Reflect.set(o, "x", 2), Reflect.get(o, "x"),
				Reflect.has(o, "x"), Reflect.deleteProperty(o, "x"), Reflect.ownKeys(o).length];
			r.join()`, "true,false,1,true,false,1"},
		{"receiver for accessors", `
			var o = { get who() { return this.name; } };
			Reflect.get(o, "who", { name: "receiver" })`, "receiver"},
		{"extensibility and prototypes", `
			var o = {};
			[Reflect.isExtensible(o), Reflect.preventExtensions(o), Reflect.isExtensible(o),
			 Reflect.setPrototypeOf(o, null), Reflect.getPrototypeOf({}) === Object.prototype].join()`, "true,true,false,false,true"},
		{"getOwnPropertyDescriptor", `JSON.stringify(Reflect.getOwnPropertyDescriptor({ a: 1 }, "a"))`,
			`{"value":1,"writable":true,"enumerable":true,"configurable":true}`},
	})
	assert.Equal(t, "TypeError", thrownName(t, `Reflect.get(1, "x")`))
	assert.Equal(t, "TypeError", thrownName(t, `Reflect.construct(() => {}, [])`))
	assert.Equal(t, "TypeError", thrownName(t, `Reflect.apply(1, null, [])`))
	assert.Equal(t, "TypeError", thrownName(t, `Reflect.setPrototypeOf({}, 1)`))
}

func TestArrayAndIterators(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"array methods", `
			var a = [3, 1, 2];
			[a.map(x => x * 2).join("-"), a.filter(x => x > 1).length, a.reduce((s, x) => s + x),
			 a.indexOf(2), a.includes(NaN), [NaN].includes(NaN), a.slice(-2).join(""), a.concat([4], 5).length].join()`,
			"6-2-4,2,6,2,false,true,12,5"},
		{"Array.from and of", `[Array.from("abc").join("|"), Array.from({ length: 2 }, (_, i) => i * 3).join(), Array.of(7).length].join(";")`, "a|b|c;0,3;1"},
		{"species", `
			class MyArray extends Array {}
			var m = new MyArray(1, 2, 3).map(x => x);
			[m instanceof MyArray, m.length].join()`, "true,3"},
		{"array iterators", `[...[5, 6].keys()].join() + "|" + [...["a"].entries()][0].join()`, "0,1|0,a"},
		{"drop and reduce", `
			function* upTo(n) { for (var i = 0; i < n; i++) yield i; }
			upTo(3).drop(1).reduce((a, b) => a + b, 10).toString()`, "13"},
		{"flatMap and some", `[[1, 2].values().flatMap(x => [x, x]).toArray().join(), [1, 2].values().some(x => x > 1)].join("|")`, "1,1,2,2|true"},
	})
}

func TestStringsNumbersSymbols(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"string methods", `
			["abc".at(-1), "abc".padStart(5, "-"), " x ".trim() + "|", "a,b".split(","), "abc".slice(1),
			 "aBc".toUpperCase(), "abc".codePointAt(1), String.fromCodePoint(0x1F600).length, "na".repeat(2)].join()`,
			"c,--abc,x|,a,b,bc,ABC,98,2,nana"},
		{"normalize", `["é".normalize("NFC").length, "é".normalize("NFD").length].join()`, "1,2"},
		{"number formatting", `[(255).toString(16), (0.5).toString(2), (1.005).toFixed(2), (123.456).toPrecision(4), (1e21).toFixed(2)].join()`,
			"ff,0.1,1.00,123.5,1e+21"},
		{"number statics", `[Number.isInteger(5.0), Number.isSafeInteger(2 ** 53), Number.MAX_SAFE_INTEGER, Number("  12  "), Number("1_0")].join()`,
			"true,false,9007199254740991,12,NaN"},
		{"symbol registry", `
			var s = Symbol.for("app");
			[s === Symbol.for("app"), Symbol.keyFor(s), Symbol.keyFor(Symbol.iterator), Symbol("d").description].join()`,
			"true,app,,d"},
		{"bigint", `[BigInt.asIntN(8, 255n), BigInt.asUintN(8, -1n), BigInt("0x10"), (255n).toString(16), typeof BigInt(1)].join()`,
			"-1,255,16,ff,bigint"},
		{"boolean", `[new Boolean(false) ? "truthy" : "falsy", Boolean.prototype.valueOf.call(true)].join()`, "truthy,true"},
	})
	assert.Equal(t, "TypeError", thrownName(t, `new Symbol()`))
	assert.Equal(t, "RangeError", thrownName(t, `"a".repeat(-1)`))
	assert.Equal(t, "SyntaxError", thrownName(t, `BigInt("1.5")`))
	assert.Equal(t, "RangeError", thrownName(t, `(1).toString(1)`))
}

func TestFunctionsErrorsRegExp(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"bind", `
			function f(a, b) { return this.k + a + b; }
			var g = f.bind({ k: "k" }, "a");
			[g("b"), g.name, g.length].join()`, "kab,bound f,1"},
		{"call and apply", `[Math.max.apply(null, [1, 5]), Array.prototype.join.call("abc", "-")].join()`, "5,a-b-c"},
		{"function toString", `typeof Function.prototype.toString.call(Math.max)`, "string"},
		{"errors", `
			var e = new RangeError("r", { cause: 1 });
			[e.name, e.message, e.cause, String(e), e instanceof Error, new AggregateError([1], "agg").errors.length].join()`,
			"RangeError,r,1,RangeError: r,true,1"},
		{"regexp exec and lastIndex", `
			var re = /o/g; var r = [];
			while (re.exec("foo")) r.push(re.lastIndex);
			r.join()`, "2,3"},
		{"regexp named groups", `"2024-05".replace(/(?<y>\d+)-(?<m>\d+)/, "$<m>/$<y>")`, "05/2024"},
		{"regexp split and match", `["a1b22c".split(/\d+/).join("|"), "x1y2".match(/\d/g).join(), "abc".search(/c/)].join()`, "a|b|c,1,2,2"},
		{"regexp flags and source", `var re = new RegExp("a/b", "imsy"); [re.source, re.flags, re.sticky].join()`, "a\\/b,imsy,true"},
	})
	assert.Equal(t, "SyntaxError", thrownName(t, `new RegExp("(")`))
	assert.Equal(t, "SyntaxError", thrownName(t, `new RegExp("a", "gg")`))
	assert.Equal(t, "TypeError", thrownName(t, `Function.prototype.call.call(1)`))
}

func TestBinaryData(t *testing.T) {
	runScriptCases(t, []scriptCase{
		{"typed array views", `
			var buf = new ArrayBuffer(8);
			var u8 = new Uint8Array(buf), i32 = new Int32Array(buf);
			i32[0] = -1;
			[u8[0], u8[3], u8.length, i32.length, buf.byteLength, Uint8Array.BYTES_PER_ELEMENT].join()`, "255,255,8,2,8,1"},
		{"conversions on store", `
			var u = new Uint8Array(3); u[0] = 257; u[1] = -1; u[2] = 1.9;
			var f = new Float64Array([0.5]); var i = new Int8Array([200]);
			[u.join(), f[0], i[0]].join("|")`, "1,255,1|0.5|-56"},
		{"out of range reads", `var u = new Uint8Array(2); [u[5], u["-0"], 5 in u, u.length].join()`, ",,false,2"},
		{"subarray shares", `var a = new Uint8Array([1, 2, 3, 4]); var s = a.subarray(1, 3); s[0] = 9; [a.join(), s.length].join("|")`, "1,9,3,4|2"},
		{"slice copies", `var b = new ArrayBuffer(4); new Uint8Array(b)[0] = 7; var c = b.slice(0, 2); new Uint8Array(c)[0] = 1; [new Uint8Array(b)[0], c.byteLength].join()`, "7,2"},
		{"fill and iterate", `[...new Int32Array(3).fill(4).values()].join()`, "4,4,4"},
	})
	assert.Equal(t, "TypeError", thrownName(t, `Uint8Array(2)`))
	assert.Equal(t, "RangeError", thrownName(t, `new Int32Array(new ArrayBuffer(3))`))
}
