package builtins

import (
	"math"
	"math/bits"

	"github.com/nooga/specjs/pkg/engine"
)

type MathInitializer struct{}

func (m *MathInitializer) Name() string  { return "Math" }
func (m *MathInitializer) Priority() int { return PriorityMath }

var mathUnary = []struct {
	name string
	fn   func(float64) float64
}{
	{"abs", math.Abs},
	{"acos", math.Acos},
	{"acosh", math.Acosh},
	{"asin", math.Asin},
	{"asinh", math.Asinh},
	{"atan", math.Atan},
	{"atanh", math.Atanh},
	{"cbrt", math.Cbrt},
	{"ceil", math.Ceil},
	{"cos", math.Cos},
	{"cosh", math.Cosh},
	{"exp", math.Exp},
	{"expm1", math.Expm1},
	{"floor", math.Floor},
	{"fround", func(x float64) float64 { return float64(float32(x)) }},
	{"log", math.Log},
	{"log1p", math.Log1p},
	{"log10", math.Log10},
	{"log2", math.Log2},
	{"round", mathRound},
	{"sign", mathSign},
	{"sin", math.Sin},
	{"sinh", math.Sinh},
	{"sqrt", math.Sqrt},
	{"tan", math.Tan},
	{"tanh", math.Tanh},
	{"trunc", math.Trunc},
}

func (m *MathInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	ns := b.Namespace("Math")

	b.Constant(ns, "E", engine.Number(math.E))
	b.Constant(ns, "LN10", engine.Number(math.Ln10))
	b.Constant(ns, "LN2", engine.Number(math.Ln2))
	b.Constant(ns, "LOG10E", engine.Number(math.Log10E))
	b.Constant(ns, "LOG2E", engine.Number(math.Log2E))
	b.Constant(ns, "PI", engine.Number(math.Pi))
	b.Constant(ns, "SQRT1_2", engine.Number(math.Sqrt2/2))
	b.Constant(ns, "SQRT2", engine.Number(math.Sqrt2))

	for _, u := range mathUnary {
		b.Method(ns, u.name, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
			x, ab := engine.ToNumber(a, arg(args, 0))
			if ab != nil {
				return undefined, ab
			}
			return engine.Number(u.fn(x)), nil
		})
	}
	b.Method(ns, "atan2", 2, mathBinary(math.Atan2))
	b.Method(ns, "pow", 2, mathBinary(engine.NumberExponentiate))
	b.Method(ns, "imul", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		x, ab := engine.ToUint32(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		y, ab := engine.ToUint32(a, arg(args, 1))
		if ab != nil {
			return undefined, ab
		}
		return engine.Number(float64(int32(x * y))), nil
	})
	b.Method(ns, "clz32", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		n, ab := engine.ToUint32(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.Int(int64(bits.LeadingZeros32(n))), nil
	})
	b.Method(ns, "hypot", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		coerced, ab := mathCoerceAll(a, args)
		if ab != nil {
			return undefined, ab
		}
		inf, nan := false, false
		sum := 0.0
		for _, x := range coerced {
			switch {
			case math.IsInf(x, 0):
				inf = true
			case math.IsNaN(x):
				nan = true
			default:
				sum = math.Hypot(sum, x)
			}
		}
		if inf {
			return engine.Number(math.Inf(1)), nil
		}
		if nan {
			return engine.Number(math.NaN()), nil
		}
		return engine.Number(sum), nil
	})
	b.Method(ns, "max", 2, mathExtremum(math.Inf(-1), func(x, best float64) bool {
		return x > best || (x == 0 && best == 0 && !math.Signbit(x))
	}))
	b.Method(ns, "min", 2, mathExtremum(math.Inf(1), func(x, best float64) bool {
		return x < best || (x == 0 && best == 0 && math.Signbit(x))
	}))
	b.Method(ns, "random", 0, func(a *Agent, _ Value, _ []Value, _ *Object) (Value, *Completion) {
		return engine.Number(a.CurrentRealm().Rand.Float64()), nil
	})
	return nil
}

func mathBinary(fn func(x, y float64) float64) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		x, ab := engine.ToNumber(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		y, ab := engine.ToNumber(a, arg(args, 1))
		if ab != nil {
			return undefined, ab
		}
		return engine.Number(fn(x, y)), nil
	}
}

// mathCoerceAll converts every argument before any is inspected, so all
// valueOf side effects happen even when an early argument is NaN.
func mathCoerceAll(a *Agent, args []Value) ([]float64, *Completion) {
	out := make([]float64, len(args))
	for i, v := range args {
		n, ab := engine.ToNumber(a, v)
		if ab != nil {
			return nil, ab
		}
		out[i] = n
	}
	return out, nil
}

func mathExtremum(start float64, better func(x, best float64) bool) engine.NativeFunction {
	return func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		coerced, ab := mathCoerceAll(a, args)
		if ab != nil {
			return undefined, ab
		}
		best := start
		for _, x := range coerced {
			if math.IsNaN(x) {
				return engine.Number(math.NaN()), nil
			}
			if better(x, best) {
				best = x
			}
		}
		return engine.Number(best), nil
	}
}

func mathRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 || math.Abs(x) >= 1<<52 {
		return x
	}
	if x > 0 && x < 0.5 {
		return 0
	}
	if x < 0 && x >= -0.5 {
		return math.Copysign(0, -1)
	}
	return math.Floor(x + 0.5)
}

func mathSign(x float64) float64 {
	switch {
	case math.IsNaN(x) || x == 0:
		return x
	case x > 0:
		return 1
	}
	return -1
}
