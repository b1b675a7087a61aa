package builtins

import (
	"math"
	"strconv"

	"github.com/nooga/specjs/pkg/engine"
)

type NumberInitializer struct{}

func (n *NumberInitializer) Name() string  { return "Number" }
func (n *NumberInitializer) Priority() int { return PriorityNumber }

func (n *NumberInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%Number.prototype%")
	ctor := b.Constructor("Number", 1, numberConstructor, proto, nil)

	constants := []struct {
		name  string
		value float64
	}{
		{"EPSILON", math.Nextafter(1, 2) - 1},
		{"MAX_SAFE_INTEGER", maxSafeLength},
		{"MAX_VALUE", math.MaxFloat64},
		{"MIN_SAFE_INTEGER", -maxSafeLength},
		{"MIN_VALUE", math.SmallestNonzeroFloat64},
		{"NaN", math.NaN()},
		{"NEGATIVE_INFINITY", math.Inf(-1)},
		{"POSITIVE_INFINITY", math.Inf(1)},
	}
	for _, c := range constants {
		b.Constant(ctor, c.name, engine.Number(c.value))
	}
	b.Method(ctor, "isFinite", 1, numberPredicate(func(f float64) bool {
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}))
	b.Method(ctor, "isInteger", 1, numberPredicate(engine.IsIntegralNumber))
	b.Method(ctor, "isNaN", 1, numberPredicate(math.IsNaN))
	b.Method(ctor, "isSafeInteger", 1, numberPredicate(func(f float64) bool {
		return engine.IsIntegralNumber(f) && math.Abs(f) <= maxSafeLength
	}))

	b.Method(proto, "toFixed", 1, numberToFixed)
	b.Method(proto, "toLocaleString", 0, numberToString)
	b.Method(proto, "toPrecision", 1, numberToPrecision)
	b.Method(proto, "toString", 1, numberToString)
	b.Method(proto, "valueOf", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		f, ab := thisNumberValue(a, this, "Number.prototype.valueOf")
		return engine.Number(f), ab
	})
	return nil
}

func numberConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	n := 0.0
	if len(args) > 0 {
		prim, ab := engine.ToNumeric(a, args[0])
		if ab != nil {
			return undefined, ab
		}
		if prim.IsBigInt() {
			n = engine.BigIntToNumber(prim.AsBigInt())
		} else {
			n = prim.AsNumber()
		}
	}
	if newTarget == nil {
		return engine.Number(n), nil
	}
	o, ab := engine.OrdinaryCreateFromConstructor(a, newTarget, "%Number.prototype%", engine.KindNumberWrapper, engine.Number(n))
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(o), nil
}

// numberPredicate builds a Number static that is false for non-numbers.
func numberPredicate(test func(float64) bool) engine.NativeFunction {
	return func(_ *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		v := arg(args, 0)
		return engine.Bool(v.IsNumber() && test(v.AsNumber())), nil
	}
}

// thisNumberValue implements ThisNumberValue.
func thisNumberValue(a *Agent, v Value, method string) (float64, *Completion) {
	if v.IsNumber() {
		return v.AsNumber(), nil
	}
	if data, ok := engine.PrimitiveData(v.AsObject(), engine.KindNumberWrapper); ok {
		return data.AsNumber(), nil
	}
	return 0, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, v.String())
}

func numberToString(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	x, ab := thisNumberValue(a, this, "Number.prototype.toString")
	if ab != nil {
		return undefined, ab
	}
	radix := 10.0
	if r := arg(args, 0); !r.IsUndefined() {
		if radix, ab = engine.ToIntegerOrInfinity(a, r); ab != nil {
			return undefined, ab
		}
	}
	if radix < 2 || radix > 36 {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidRadix)
	}
	if radix == 10 {
		return engine.String(engine.NumberToString(x)), nil
	}
	return engine.String(engine.NumberToStringRadix(x, int(radix))), nil
}

func numberToFixed(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	x, ab := thisNumberValue(a, this, "Number.prototype.toFixed")
	if ab != nil {
		return undefined, ab
	}
	f, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	if f < 0 || f > 100 {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidPrecision, "toFixed() digits")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1e21 {
		return engine.String(engine.NumberToString(x)), nil
	}
	return engine.String(strconv.FormatFloat(x, 'f', int(f), 64)), nil
}

func numberToPrecision(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	x, ab := thisNumberValue(a, this, "Number.prototype.toPrecision")
	if ab != nil {
		return undefined, ab
	}
	pv := arg(args, 0)
	if pv.IsUndefined() {
		return engine.String(engine.NumberToString(x)), nil
	}
	p, ab := engine.ToIntegerOrInfinity(a, pv)
	if ab != nil {
		return undefined, ab
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return engine.String(engine.NumberToString(x)), nil
	}
	if p < 1 || p > 100 {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidPrecision, "toPrecision()")
	}
	if x == 0 {
		return engine.String(strconv.FormatFloat(0, 'f', int(p)-1, 64)), nil
	}
	e := int(math.Floor(math.Log10(math.Abs(x))))
	if e < -6 || e >= int(p) {
		s := strconv.FormatFloat(x, 'e', int(p)-1, 64)
		// Go pads the exponent to two digits; the language does not.
		mant, exp, _ := cutExponent(s)
		return engine.String(mant + "e" + exp), nil
	}
	return engine.String(strconv.FormatFloat(x, 'f', max(0, int(p)-1-e), 64)), nil
}

// cutExponent splits Go's e-notation and normalizes the exponent to the
// language's shape: an explicit sign and no leading zeros.
func cutExponent(s string) (mant, exp string, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != 'e' {
			continue
		}
		mant, exp = s[:i], s[i+1:]
		sign := exp[:1]
		digits := exp[1:]
		for len(digits) > 1 && digits[0] == '0' {
			digits = digits[1:]
		}
		return mant, sign + digits, true
	}
	return s, "", false
}
