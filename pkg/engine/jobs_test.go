package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/builtins"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

func TestPromiseJobsRunFIFO(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var log = [];
		var p = Promise.resolve();
		p.then(() => log.push("a1")).then(() => log.push("a2")).then(() => log.push("a3"));
		p.then(() => log.push("b1")).then(() => log.push("b2"));
		log.push("sync");`)
	assert.Equal(t, "sync,a1,b1,a2,b2,a3", h.evalString(t, `log.join()`))
}

func TestThenableAdoptionTakesExtraTicks(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var log = [];
		var thenable = { then(resolve) { log.push("then called"); resolve("T"); } };
		Promise.resolve(thenable).then(v => log.push(v));
		Promise.resolve().then(() => log.push("x")).then(() => log.push("y"));`)
	assert.Equal(t, "then called,x,T,y", h.evalString(t, `log.join()`))
}

func TestAsyncFunctionOrdering(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var log = [];
		async function f() { log.push("f start"); await undefined; log.push("f resumed"); return "done"; }
		f().then(v => log.push(v));
		Promise.resolve().then(() => log.push("tick"));
		log.push("sync");`)
	assert.Equal(t, "f start,sync,f resumed,tick,done", h.evalString(t, `log.join()`))
}

func TestAsyncAwaitRejectionIsCatchable(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var result;
		(async () => {
			try { await Promise.reject(new TypeError("no")); }
			catch (e) { result = e.name + ":" + e.message; }
		})();`)
	assert.Equal(t, "TypeError:no", h.evalString(t, `result`))
	assert.Empty(t, h.reported)
}

func TestAsyncGeneratorQueue(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var log = [];
		async function* g() { yield 1; yield await Promise.resolve(2); }
		var it = g();
		it.next().then(r => log.push(r.value));
		it.next().then(r => log.push(r.value));
		it.next().then(r => log.push(r.done));`)
	assert.Equal(t, "1,2,true", h.evalString(t, `log.join()`))
}

func TestPromiseCombinators(t *testing.T) {
	h := newHost(t)
	h.eval(t, `
		var out = [];
		Promise.all([1, Promise.resolve(2), { then(r) { r(3); } }]).then(v => out.push(v.join("+")));
		Promise.race([new Promise(() => {}), Promise.resolve("fast")]).then(v => out.push(v));
		Promise.reject(1).finally(() => out.push("finally")).catch(e => out.push("caught " + e));`)
	assert.ElementsMatch(t, []string{"1+2+3", "fast", "finally", "caught 1"},
		splitComma(h.evalString(t, `out.join()`)))
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := range len(s) {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func TestUnhandledRejectionReportedAfterDrain(t *testing.T) {
	h := newHost(t)
	h.eval(t, `var p = Promise.reject(new RangeError("lost")); Promise.reject(2).catch(() => {});`)
	require.Len(t, h.reported, 1)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, h.reported[0], &rerr)
	assert.True(t, rerr.Unhandled)
	assert.Equal(t, "RangeError", rerr.Name)
}

func TestRejectionHandledLaterIsNotReported(t *testing.T) {
	h := newHost(t)
	// the handler is attached in the same synchronous run, before the drain
	h.eval(t, `var p = Promise.reject(1); p.catch(() => {});`)
	assert.Empty(t, h.reported)
}

func TestRejectionTrackerHook(t *testing.T) {
	var ops []string
	a := engine.NewAgent(engine.AgentOptions{
		Initializers: builtins.Standard(),
		Hooks: engine.HostHooks{
			PromiseRejectionTracker: func(_ *engine.Object, op string) { ops = append(ops, op) },
		},
	})
	defer a.Close()
	r, err := a.NewRealm()
	require.NoError(t, err)
	_, ab := a.EvaluateScript(r, source.NewEvalSource(`var p = Promise.reject(1); p.catch(() => {});`))
	require.Nil(t, ab)
	assert.Equal(t, []string{"reject", "handle"}, ops)
}

func TestRunJobsLimitAndCancel(t *testing.T) {
	h := newHost(t)
	_, ab := h.agent.EvaluateScript(h.realm, source.NewEvalSource(`(function loop() { Promise.resolve().then(loop); })()`))
	require.Nil(t, ab)
	err := h.agent.RunJobs(context.Background(), 10)
	require.ErrorIs(t, err, engine.ErrJobLimit)
	assert.Positive(t, h.agent.PendingJobs())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, h.agent.RunJobs(ctx, 0), context.Canceled)
}
