package engine_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nooga/specjs/pkg/engine"
)

func TestSameValueCorners(t *testing.T) {
	nan := engine.Number(math.NaN())
	pos, neg := engine.Number(0), engine.Number(math.Copysign(0, -1))
	sym := engine.SymbolValue(engine.NewSymbol(engine.String("s")))

	cases := []struct {
		name                      string
		x, y                      engine.Value
		sameValue, zero, strictEq bool
	}{
		{"NaN", nan, nan, true, true, false},
		{"signed zeros", pos, neg, false, true, true},
		{"equal numbers", engine.Number(1.5), engine.Number(1.5), true, true, true},
		{"number vs string", engine.Number(1), engine.String("1"), false, false, false},
		{"strings", engine.String("ab"), engine.String("ab"), true, true, true},
		{"bigints by value", engine.BigInt(big.NewInt(7)), engine.BigInt(big.NewInt(7)), true, true, true},
		{"undefined vs null", engine.Undefined, engine.Null, false, false, false},
		{"symbol identity", sym, sym, true, true, true},
		{"distinct symbols", sym, engine.SymbolValue(engine.NewSymbol(engine.String("s"))), false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.sameValue, engine.SameValue(tc.x, tc.y), "SameValue")
			assert.Equal(t, tc.zero, engine.SameValueZero(tc.x, tc.y), "SameValueZero")
			assert.Equal(t, tc.strictEq, engine.IsStrictlyEqual(tc.x, tc.y), "IsStrictlyEqual")
		})
	}
}

func TestObjectIdentity(t *testing.T) {
	o1 := engine.OrdinaryObjectCreate(nil)
	o2 := engine.OrdinaryObjectCreate(nil)
	assert.True(t, engine.SameValue(engine.ObjectValue(o1), engine.ObjectValue(o1)))
	assert.False(t, engine.SameValue(engine.ObjectValue(o1), engine.ObjectValue(o2)))
}

func TestNumberToString(t *testing.T) {
	cases := map[float64]string{
		0:                     "0",
		math.Copysign(0, -1):  "0",
		1e21:                  "1e+21",
		123456789012345680000: "123456789012345680000",
		0.000001:              "0.000001",
		1e-7:                  "1e-7",
		-1.5:                  "-1.5",
		math.Inf(-1):          "-Infinity",
	}
	for n, want := range cases {
		assert.Equal(t, want, engine.NumberToString(n), "%v", n)
	}
	assert.Equal(t, "NaN", engine.NumberToString(math.NaN()))
}

func TestStringToNumber(t *testing.T) {
	assert.Equal(t, 255.0, engine.StringToNumber("  0xff \n"))
	assert.Equal(t, 0.0, engine.StringToNumber(""))
	assert.Equal(t, math.Inf(-1), engine.StringToNumber("-Infinity"))
	assert.True(t, math.IsNaN(engine.StringToNumber("12px")))
	assert.Equal(t, 5.0, engine.StringToNumber("0b101"))
}

func TestCompletionHelpers(t *testing.T) {
	var normal *engine.Completion
	assert.False(t, normal.IsAbrupt())

	thrown := engine.ThrowCompletion(engine.Number(1))
	assert.True(t, thrown.IsAbrupt())
	assert.True(t, thrown.IsThrow())
	assert.False(t, engine.BreakCompletion("outer").IsThrow())

	c := engine.UpdateEmpty(engine.NormalCompletion(engine.Empty), engine.Number(3))
	assert.Equal(t, 3.0, c.Value.AsNumber())
	c = engine.UpdateEmpty(engine.NormalCompletion(engine.Number(1)), engine.Number(3))
	assert.Equal(t, 1.0, c.Value.AsNumber())
}

func TestMustPanicsWithAssertion(t *testing.T) {
	assert.Equal(t, 2, engine.Must(2, nil))
	assert.PanicsWithError(t, "Assertion failed: expected normal completion, got throw(1)", func() {
		engine.Must(0, engine.ThrowCompletion(engine.Number(1)))
	})
	assert.Panics(t, func() { engine.MustOK(engine.ThrowCompletion(engine.Undefined)) })
}
