package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatorScripts(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{"closures", `
			function counter() { var n = 0; return () => ++n; }
			var c = counter(); c(); c();
			String(c())`, "3"},
		{"let per-iteration bindings", `
			var fs = [];
			for (let i = 0; i < 3; i++) fs.push(() => i);
			fs.map(f => f()).join()`, "0,1,2"},
		{"labelled continue", `
			var out = [];
			outer: for (var i = 0; i < 3; i++) {
				for (var j = 0; j < 3; j++) { if (j === 1) continue outer; out.push(i + "" + j); }
			}
			out.join()`, "00,10,20"},
		{"switch fallthrough", `
			function s(x) { var r = ""; switch (x) { case 1: r += "one"; case 2: r += "two"; break; default: r += "other"; } return r; }
			[s(1), s(2), s(3)].join()`, "onetwo,two,other"},
		{"completion value of loops", `var k = 0; eval_like: { "x"; }`, "x"},
		{"destructuring defaults and rest", `
			var { a, b: { c = 5 } = {}, ...rest } = { a: 1, d: 4, e: 5 };
			var [x, , y = 9, ...zs] = [1, 2, undefined, 4, 5];
			[a, c, Object.keys(rest).join("+"), x, y, zs.join("+")].join()`, "1,5,d+e,1,9,4+5"},
		{"classes", `
			class A {
				#secret = 41;
				static kind = "A";
				constructor(x) { this.x = x; }
				get secret() { return this.#secret + 1; }
				static make() { return new this(1); }
			}
			class B extends A {
				constructor() { super(2); }
				describe() { return super.constructor.kind + this.x + this.secret; }
			}
			new B().describe() + "," + (A.make() instanceof A)`, "A242,true"},
		{"private brand check", `
			class P { #p; static has(o) { return #p in o; } }
			[P.has(new P()), P.has({})].join()`, "true,false"},
		{"private brand check on member operand", `
			class Q { #q = 1; static has(o) { return #q in o.inner && !(#q in o); } }
			[Q.has({ inner: new Q() }), Q.has({ inner: {} })].join()`, "true,false"},
		{"new.target", `
			function F() { return new.target === F; }
			[new F() instanceof F, F()].join()`, "true,false"},
		{"tagged template caching", `
			function tag(s) { return s; }
			function get() { return tag` + "`a${1}b`" + `; }
			[get() === get(), get().raw.join("|"), Object.isFrozen(get())].join()`, "true,a|b,true"},
		{"optional chaining", `
			var o = { f() { return this.v; }, v: 7 };
			[o?.f(), o.g?.(), null?.x.y.z, o?.["v"]].join()`, "7,,,7"},
		{"nullish and logical assignment", `
			var a = null, b = 0, c = 1;
			a ??= "x"; b ||= "y"; c &&= "z";
			[a, b, c, 0 ?? 1].join()`, "x,y,z,0"},
		{"typeof and delete", `
			var o = { p: 1 };
			[typeof undeclared, typeof null, typeof (() => 1), delete o.p, "p" in o].join()`, "undefined,object,function,true,false"},
		{"exponent and bigint", `
			[2 ** 10, (-2) ** 3, String(2n ** 64n), typeof 1n, 5n / 2n].join()`, "1024,-8,18446744073709551616,bigint,2"},
		{"try finally overrides", `
			function f() { try { return "try"; } finally { return "finally"; } }
			function g() { try { throw 1; } catch { return "caught"; } finally { } }
			f() + g()`, "finallycaught"},
		{"for-in skips shadowed and symbols", `
			var proto = { inherited: 1, shadowed: 1 };
			var o = Object.create(proto);
			o.own = 1; o.shadowed = 2; o[Symbol()] = 3;
			var keys = []; for (var k in o) keys.push(k);
			keys.join()`, "own,shadowed,inherited"},
		{"for-of over string code points", `
			var out = []; for (var ch of "a\u{1F600}b") out.push(ch.length);
			out.join()`, "1,2,1"},
		{"getters and setters in literals", `
			var o = { _v: 1, get v() { return this._v; }, set v(x) { this._v = x * 2; } };
			o.v = 5; String(o.v)`, "10"},
		{"spread calls and arrays", `
			function sum(...xs) { return xs.reduce((a, b) => a + b, 0); }
			String(sum(...[1, 2], 3, ...[]))`, "6"},
		{"with statement", `
			var scope = { w: "from with" };
			var r; with (scope) { r = w; }
			r`, "from with"},
		{"hoisting and TDZ", `
			var r = typeof hoisted;
			function hoisted() {}
			var tdz;
			try { tdz = late; } catch (e) { tdz = e.name; }
			let late = 1;
			r + "," + tdz`, "function,ReferenceError"},
		{"function name inference", `
			var f = function () {}; let g = () => {}; var o = { m() {}, ["c" + "k"]: function () {} };
			[f.name, g.name, o.m.name, o.ck.name].join()`, "f,g,m,ck"},
		{"instanceof with Symbol.hasInstance", `
			var Even = { [Symbol.hasInstance](n) { return n % 2 === 0; } };
			[2 instanceof Even, 3 instanceof Even].join()`, "true,false"},
		{"string concatenation via ToPrimitive", `
			var o = { [Symbol.toPrimitive](hint) { return hint; } };
			[o + "", ` + "`${o}`" + `, +{ valueOf() { return 4; } }].join()`, "default,string,4"},
		{"Function constructor", `
			var add = new Function("a", "b", "return a + b");
			String(add(2, 3)) + "," + add.name`, "5,anonymous"},
		{"regexp literals", `
			var m = /(\d+)-(\d+)/.exec("call 555-1234 now");
			[m[1], m[2], m.index, /a/gi.flags, "aAa".replace(/a/g, "b")].join()`, "555,1234,5,gi,bAb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHost(t)
			assert.Equal(t, tc.want, h.evalString(t, tc.code))
		})
	}
}

func TestEarlyAndRuntimeErrors(t *testing.T) {
	cases := map[string]string{
		`undeclaredVariable`:                      "ReferenceError",
		`"use strict"; undeclaredAssign = 1`:      "ReferenceError",
		`const c = 1; c = 2`:                      "TypeError",
		`(void 0)()`:                              "TypeError",
		`new (() => {})()`:                        "TypeError",
		`class C {} C()`:                          "TypeError",
		`Symbol() + ""`:                           "TypeError",
		`1n + 1`:                                  "TypeError",
		`"use strict"; Object.freeze([]).push(1)`: "TypeError",
		`new Array(-1)`:                           "RangeError",
		`JSON.parse("{bad")`:                      "SyntaxError",
		`throw new URIError("u")`:                 "URIError",
		`class D extends Object { constructor() { this.x = 1; } } new D()`: "ReferenceError",
		`class E { #e; static has(o) { return #e in o; } } E.has(1)`:       "TypeError",
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			h := newHost(t)
			assert.Equal(t, want, h.throws(t, code))
		})
	}
}
