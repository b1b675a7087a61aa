package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/builtins"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

func TestRealmIsolation(t *testing.T) {
	h := newHost(t)
	other, err := h.agent.NewRealm()
	require.NoError(t, err)

	assert.NotSame(t, h.realm.Intrinsic("%Object.prototype%"), other.Intrinsic("%Object.prototype%"))
	assert.NotSame(t, h.realm.GlobalObject, other.GlobalObject)
	assert.NotEqual(t, h.realm.ID, other.ID)

	h.eval(t, `Object.prototype.polluted = true; var onlyHere = 1;`)
	v, ab := h.agent.EvaluateScript(other, source.NewEvalSource(`typeof ({}).polluted + "," + typeof onlyHere`))
	require.Nil(t, ab)
	assert.Equal(t, "undefined,undefined", v.AsString())
	assert.Len(t, h.agent.Realms(), 2)
}

func TestErrorsCarryTheirRealm(t *testing.T) {
	h := newHost(t)
	other, err := h.agent.NewRealm()
	require.NoError(t, err)
	_, ab := h.agent.EvaluateScript(other, source.NewEvalSource(`null.x`))
	require.NotNil(t, ab)
	proto, pab := ab.Value.AsObject().GetPrototypeOf(h.agent)
	require.Nil(t, pab)
	assert.Same(t, other.Intrinsic("%TypeError.prototype%"), proto)
}

func TestGlobalBindings(t *testing.T) {
	h := newHost(t)
	got := h.evalString(t, `
		var d = Object.getOwnPropertyDescriptor(globalThis, "NaN");
		var m = Object.getOwnPropertyDescriptor(globalThis, "Math");
		[d.writable, d.configurable, m.writable, m.enumerable, m.configurable, globalThis === this].join()`)
	assert.Equal(t, "false,false,true,false,true,true", got)
}

func TestIntrinsicBeforeDefinitionPanics(t *testing.T) {
	h := newHost(t)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*errors.AssertionError)
		assert.True(t, ok, "panic value %T", r)
	}()
	h.realm.Intrinsic("%NotYetDefined%")
}

type failingInit struct{}

func (failingInit) Name() string  { return "failing" }
func (failingInit) Priority() int { return 1000 }
func (failingInit) InitRealm(*engine.Agent, *engine.Realm) error {
	return assert.AnError
}

// dropIntrinsic removes an intrinsic after the core skeleton is built.
type dropIntrinsic string

func (d dropIntrinsic) Name() string  { return "drop " + string(d) }
func (d dropIntrinsic) Priority() int { return 1000 }
func (d dropIntrinsic) InitRealm(_ *engine.Agent, r *engine.Realm) error {
	delete(r.Intrinsics, string(d))
	return nil
}

func TestGlobalBindingsWithoutLibrary(t *testing.T) {
	a := engine.NewAgent(engine.AgentOptions{})
	defer a.Close()
	realm, err := a.NewRealm()
	require.NoError(t, err)
	v, ab := a.EvaluateScript(realm, source.NewEvalSource(
		`typeof Array + "," + typeof Promise + "," + typeof TypeError + "," + typeof JSON + "," + typeof Object`))
	require.Nil(t, ab)
	assert.Equal(t, "function,function,function,undefined,undefined", v.AsString())
}

func TestMissingCoreConstructorPanics(t *testing.T) {
	a := engine.NewAgent(engine.AgentOptions{Initializers: append(builtins.Standard(), dropIntrinsic("%Promise%"))})
	defer a.Close()
	defer func() {
		r := recover()
		require.NotNil(t, r, "realm built without %Promise%")
		aerr, ok := r.(*errors.AssertionError)
		require.True(t, ok, "panic value %T", r)
		assert.Contains(t, aerr.Msg, "%Promise%")
	}()
	a.NewRealm()
}

func TestMissingLibraryGlobalIsSkipped(t *testing.T) {
	a := engine.NewAgent(engine.AgentOptions{Initializers: append(builtins.Standard(), dropIntrinsic("%Reflect%"))})
	defer a.Close()
	realm, err := a.NewRealm()
	require.NoError(t, err)
	v, ab := a.EvaluateScript(realm, source.NewEvalSource(`typeof Reflect + "," + typeof Proxy`))
	require.Nil(t, ab)
	assert.Equal(t, "undefined,function", v.AsString())
}

func TestInitializerErrorAbortsRealm(t *testing.T) {
	a := engine.NewAgent(engine.AgentOptions{Initializers: append(builtins.Standard(), failingInit{})})
	defer a.Close()
	_, err := a.NewRealm()
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "initializing failing")
	assert.Zero(t, a.ContextDepth())
}

func TestContextStackBalance(t *testing.T) {
	h := newHost(t)
	scripts := []string{
		`1`,
		`function f() { return g(); } function g() { throw new Error("deep"); } f()`,
		`Promise.resolve().then(() => { throw 1; })`,
		`async function a() { await null; throw 2; } a()`,
		`function* gen() { yield 1; } var it = gen(); it.next();`,
	}
	for _, code := range scripts {
		h.agent.EvaluateScript(h.realm, source.NewEvalSource(code))
		assert.Zero(t, h.agent.ContextDepth(), "after %q", code)
		require.NoError(t, h.agent.RunJobs(t.Context(), 0))
		assert.Zero(t, h.agent.ContextDepth(), "after jobs of %q", code)
	}
}

func TestCallDepthLimit(t *testing.T) {
	a := engine.NewAgent(engine.AgentOptions{Initializers: builtins.Standard(), MaxCallDepth: 100})
	defer a.Close()
	r, err := a.NewRealm()
	require.NoError(t, err)
	v, ab := a.EvaluateScript(r, source.NewEvalSource(`
		function down(n) { return down(n + 1); }
		try { down(0); } catch (e) { e.constructor.name }`))
	require.Nil(t, ab)
	assert.Equal(t, "RangeError", v.AsString())
	assert.Zero(t, a.ContextDepth())
}

func TestMarkRootsReachesGlobals(t *testing.T) {
	h := newHost(t)
	h.eval(t, `var pending = new Promise(() => {});`)
	global := engine.ObjectValue(h.realm.GlobalObject)
	objectProto := engine.ObjectValue(h.realm.Intrinsic("%Object.prototype%"))

	var sawGlobal, sawProto bool
	h.agent.MarkRoots(func(v engine.Value) {
		sawGlobal = sawGlobal || engine.SameValue(v, global)
		sawProto = sawProto || engine.SameValue(v, objectProto)
	})
	assert.True(t, sawGlobal)
	assert.True(t, sawProto)
	assert.Contains(t, h.realm.String(), h.realm.ID.String())
}

func TestSeededRandom(t *testing.T) {
	h1, h2 := newHost(t), newHost(t)
	assert.Equal(t, h1.eval(t, "Math.random()").AsNumber(), h2.eval(t, "Math.random()").AsNumber())
}
