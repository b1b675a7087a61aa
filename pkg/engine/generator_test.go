package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletedGeneratorStaysDone(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function* g() { yield 1; }
		var it = g();
		var r = [];
		for (var i = 0; i < 4; i++) { var s = it.next(); r.push(s.value + ":" + s.done); }
		r.join()`)
	assert.Equal(t, "1:false,undefined:true,undefined:true,undefined:true", got)
}

func TestGeneratorReturnRunsFinallyOnce(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var log = [];
		function* g() { try { yield 1; yield 2; } finally { log.push("finally"); } }
		var it = g();
		it.next();
		var r = it.return(5);
		var after = it.next();
		[r.value, r.done, after.value, after.done, log.join("+")].join()`)
	assert.Equal(t, "5,true,,true,finally", got)
}

func TestFinallyThatYieldsResuspends(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function* g() { try { yield 1; } finally { yield "cleanup"; } }
		var it = g();
		it.next();
		var a = it.return(7);
		var b = it.next();
		var c = it.next();
		[a.value, a.done, b.value, b.done, c.done].join()`)
	assert.Equal(t, "cleanup,false,7,true,true", got)
}

func TestReentrantGeneratorNextThrows(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var it;
		function* g() {
			try { it.next(); } catch (e) { yield e.constructor.name; }
		}
		it = g();
		it.next().value`)
	assert.Equal(t, "TypeError", got)
}

func TestGeneratorThrowAndDelegation(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function* inner() { try { yield "a"; } catch (e) { yield "caught " + e; } }
		function* outer() { yield* inner(); yield "b"; }
		var it = outer();
		[it.next().value, it.throw("x").value, it.next().value, it.next().done].join()`)
	assert.Equal(t, "a,caught x,b,true", got)
}

func TestGeneratorNotStartedReturn(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var ran = false;
		function* g() { ran = true; yield 1; }
		var it = g();
		var r = it.return(3);
		[r.value, r.done, ran, it.next().done].join()`)
	assert.Equal(t, "3,true,false,true", got)
}

func TestSpreadAndDestructuringDriveIterators(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var closed = 0;
		var iterable = {
			[Symbol.iterator]() {
				var i = 0;
				return { next() { return { value: i++, done: i > 5 }; }, return() { closed++; return {}; } };
			}
		};
		var [x, y] = iterable;
		var all = [...iterable];
		[x, y, all.join(""), closed].join()`)
	assert.Equal(t, "0,1,01234,1", got)
}

func TestIteratorHelpersOverGenerators(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		function* nat() { var n = 0; while (true) yield n++; }
		nat().filter(n => n % 2).map(n => n * n).take(3).toArray().join()`)
	assert.Equal(t, "1,9,25", got)
}
