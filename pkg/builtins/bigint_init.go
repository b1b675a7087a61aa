package builtins

import (
	"math/big"

	"github.com/nooga/specjs/pkg/engine"
)

type BigIntInitializer struct{}

func (bi *BigIntInitializer) Name() string  { return "BigInt" }
func (bi *BigIntInitializer) Priority() int { return PriorityBigInt }

func (bi *BigIntInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%BigInt.prototype%")
	ctor := b.Constructor("BigInt", 1, bigIntConstructor, proto, nil)
	b.Method(ctor, "asIntN", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		return bigIntAsN(a, args, true)
	})
	b.Method(ctor, "asUintN", 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		return bigIntAsN(a, args, false)
	})

	b.Method(proto, "toLocaleString", 0, bigIntToString)
	b.Method(proto, "toString", 0, bigIntToString)
	b.Method(proto, "valueOf", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		n, ab := thisBigIntValue(a, this, "BigInt.prototype.valueOf")
		if ab != nil {
			return undefined, ab
		}
		return engine.BigInt(n), nil
	})
	b.ToStringTag(proto, "BigInt")
	return nil
}

func bigIntConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget != nil {
		return undefined, a.Throw(engine.TypeError, engine.MsgNotConstructor, "BigInt")
	}
	prim, ab := engine.ToPrimitive(a, arg(args, 0), engine.HintNumber)
	if ab != nil {
		return undefined, ab
	}
	if prim.IsNumber() {
		n, ab := engine.NumberToBigInt(a, prim.AsNumber())
		if ab != nil {
			return undefined, ab
		}
		return engine.BigInt(n), nil
	}
	n, ab := engine.ToBigInt(a, prim)
	if ab != nil {
		return undefined, ab
	}
	return engine.BigInt(n), nil
}

// bigIntAsN implements BigInt.asIntN and BigInt.asUintN.
func bigIntAsN(a *Agent, args []Value, signed bool) (Value, *Completion) {
	bits, ab := engine.ToIndex(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	n, ab := engine.ToBigInt(a, arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	if bits > 1<<20 {
		return undefined, a.Throw(engine.RangeError, engine.MsgBigIntTooLarge)
	}
	modulus := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	mod := new(big.Int).Mod(n, modulus)
	if signed && bits > 0 {
		half := new(big.Int).Rsh(modulus, 1)
		if mod.Cmp(half) >= 0 {
			mod.Sub(mod, modulus)
		}
	}
	return engine.BigInt(mod), nil
}

// thisBigIntValue implements ThisBigIntValue.
func thisBigIntValue(a *Agent, v Value, method string) (*big.Int, *Completion) {
	if v.IsBigInt() {
		return v.AsBigInt(), nil
	}
	if data, ok := engine.PrimitiveData(v.AsObject(), engine.KindBigIntWrapper); ok {
		return data.AsBigInt(), nil
	}
	return nil, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, v.String())
}

func bigIntToString(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	n, ab := thisBigIntValue(a, this, "BigInt.prototype.toString")
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
	return engine.String(n.Text(int(radix))), nil
}
