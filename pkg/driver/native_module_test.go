package driver

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/engine"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := NewSessionWithOptions(nil, SessionOptions{Stdout: &out, Argv: []string{"specjs", "test.js"}})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, &out
}

func run(t *testing.T, s *Session, code string) engine.Value {
	t.Helper()
	v, errs := s.RunString(code)
	require.Empty(t, errs, "running %q", code)
	return v
}

type point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	hidden int
	Label  string `json:"-"`
}

func TestNativeModuleExports(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("math-utils", func(m *ModuleBuilder) {
		m.Const("PI_SQUARED", math.Pi*math.Pi)
		m.Function("square", func(x float64) float64 { return x * x })
		m.Function("add", func(a, b float64) float64 { return a + b })
		m.Function("divmod", func(a, b float64) map[string]float64 {
			return map[string]float64{"quotient": math.Floor(a / b), "remainder": math.Mod(a, b)}
		})
		m.Default("utils")
	})

	v := run(t, s, `var mu = process.binding("math-utils"); mu.square(5) + mu.add(10, 20)`)
	assert.Equal(t, float64(55), v.AsNumber())

	v = run(t, s, `var d = mu.divmod(17, 5); d.quotient + ":" + d.remainder + ":" + Object.keys(d).join()`)
	assert.Equal(t, "3:2:quotient,remainder", v.AsString())

	v = run(t, s, `mu.default + " " + (mu.PI_SQUARED > 9.86)`)
	assert.Equal(t, "utils true", v.AsString())
}

func TestNativeModuleNamespaceIsFrozenView(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("consts", func(m *ModuleBuilder) {
		m.Const("answer", 42)
	})
	v := run(t, s, `
		"use strict";
		var ns = process.binding("consts");
		var threw = false;
		try { ns.answer = 1; } catch (e) { threw = e instanceof TypeError; }
		threw + " " + ns.answer + " " + Object.prototype.toString.call(ns)`)
	assert.Equal(t, "true 42 [object Module]", v.AsString())
}

func TestNativeModuleNamespaceBuilder(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("geo", func(m *ModuleBuilder) {
		m.Namespace("shapes", func(ns *NamespaceBuilder) {
			ns.Const("origin", point{X: 1, Y: 2, hidden: 3, Label: "o"})
			ns.Function("scale", func(p []float64, k float64) []float64 {
				out := make([]float64, len(p))
				for i, x := range p {
					out[i] = x * k
				}
				return out
			})
		})
	})
	v := run(t, s, `
		var shapes = process.binding("geo").shapes;
		JSON.stringify(shapes.origin) + " " + shapes.scale([1, 2, 3], 2).join()`)
	assert.Equal(t, `{"x":1,"y":2} 2,4,6`, v.AsString())
}

func TestNativeModuleErrorResultThrows(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("fallible", func(m *ModuleBuilder) {
		m.Function("fail", func(msg string) (int, error) {
			if msg != "" {
				return 0, errors.New(msg)
			}
			return 1, nil
		})
	})
	v := run(t, s, `
		var f = process.binding("fallible");
		var caught;
		try { f.fail("boom"); } catch (e) { caught = e.message; }
		caught + " " + f.fail("")`)
	assert.Equal(t, "boom 1", v.AsString())
}

func TestNativeModuleArgumentConversionPropagatesAbrupt(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("num", func(m *ModuleBuilder) {
		m.Function("twice", func(x int) int { return 2 * x })
	})
	v := run(t, s, `
		var num = process.binding("num");
		var r = num.twice("21");
		try { num.twice({ valueOf() { throw new RangeError("no"); } }); } catch (e) { r += ":" + e.name; }
		r`)
	assert.Equal(t, "42:RangeError", v.AsString())
}

func TestNativeFunctionPassthrough(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("raw", func(m *ModuleBuilder) {
		m.Function("self", engine.NativeFunction(func(a *engine.Agent, this engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
			return engine.Number(float64(len(args))), nil
		}))
	})
	v := run(t, s, `process.binding("raw").self(1, 2, 3)`)
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestImportFromHost(t *testing.T) {
	s, _ := newTestSession(t)
	s.DeclareModule("host", func(m *ModuleBuilder) {
		m.Const("name", "specjs")
	})
	ns, err := s.Import("host")
	require.NoError(t, err)
	got, ab := engine.Get(s.Agent(), ns, engine.StringKey("name"))
	require.Nil(t, ab)
	assert.Equal(t, "specjs", got.AsString())

	_, err = s.Import("missing")
	require.Error(t, err)
}

func TestMissingModuleThrows(t *testing.T) {
	s, _ := newTestSession(t)
	v := run(t, s, `
		var msg;
		try { process.binding("nope"); } catch (e) { msg = e.name; }
		msg`)
	assert.Equal(t, "TypeError", v.AsString())
}

func TestBuiltinModules(t *testing.T) {
	s, _ := newTestSession(t)
	v := run(t, s, `
		var uuid = process.binding("specjs/uuid");
		var id = uuid.v4();
		[id.length, uuid.validate(id), uuid.validate("nope"), uuid.NIL].join()`)
	assert.Equal(t, "36,true,false,00000000-0000-0000-0000-000000000000", v.AsString())

	v = run(t, s, `
		var h = process.binding("specjs/humanize");
		[h.bytes(82854982), h.comma(1234567), h.ordinal(3), h.plural(2, "job", "")].join("|")`)
	assert.Equal(t, "83 MB|1,234,567|3rd|2 jobs", v.AsString())
}
