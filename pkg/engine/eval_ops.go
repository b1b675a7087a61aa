package engine

import (
	"math/big"

	"github.com/dop251/goja/token"
)

// maxBigIntBits bounds the results of BigInt exponentiation and left shift.
const maxBigIntBits = 1 << 24

// ApplyStringOrNumericBinaryOperator implements
// ApplyStringOrNumericBinaryOperator for the arithmetic, shift and bitwise
// operators.
func ApplyStringOrNumericBinaryOperator(a *Agent, lval Value, op token.Token, rval Value) (Value, *Completion) {
	if op == token.PLUS {
		lprim, ab := ToPrimitive(a, lval, HintDefault)
		if ab != nil {
			return Undefined, ab
		}
		rprim, ab := ToPrimitive(a, rval, HintDefault)
		if ab != nil {
			return Undefined, ab
		}
		if lprim.IsString() || rprim.IsString() {
			ls, ab := ToString(a, lprim)
			if ab != nil {
				return Undefined, ab
			}
			rs, ab := ToString(a, rprim)
			if ab != nil {
				return Undefined, ab
			}
			return String(ls + rs), nil
		}
		lval, rval = lprim, rprim
	}
	lnum, ab := ToNumeric(a, lval)
	if ab != nil {
		return Undefined, ab
	}
	rnum, ab := ToNumeric(a, rval)
	if ab != nil {
		return Undefined, ab
	}
	if lnum.typ != rnum.typ {
		return Undefined, a.Throw(TypeError, MsgBigIntMix)
	}
	if lnum.IsBigInt() {
		return bigIntBinary(a, lnum.AsBigInt(), op, rnum.AsBigInt())
	}
	return Number(numberBinary(lnum.num, op, rnum.num)), nil
}

func numberBinary(x float64, op token.Token, y float64) float64 {
	switch op {
	case token.PLUS:
		return x + y
	case token.MINUS:
		return x - y
	case token.MULTIPLY:
		return x * y
	case token.SLASH:
		return x / y
	case token.REMAINDER:
		return numberRemainder(x, y)
	case token.EXPONENT:
		return numberExponentiate(x, y)
	case token.SHIFT_LEFT:
		return float64(toInt32(x) << (toUint32(y) & 31))
	case token.SHIFT_RIGHT:
		return float64(toInt32(x) >> (toUint32(y) & 31))
	case token.UNSIGNED_SHIFT_RIGHT:
		return float64(toUint32(x) >> (toUint32(y) & 31))
	case token.AND:
		return float64(toInt32(x) & toInt32(y))
	case token.OR:
		return float64(toInt32(x) | toInt32(y))
	case token.EXCLUSIVE_OR:
		return float64(toInt32(x) ^ toInt32(y))
	}
	panic(assertionf("numeric operator %s", op))
}

func bigIntBinary(a *Agent, x *big.Int, op token.Token, y *big.Int) (Value, *Completion) {
	r := new(big.Int)
	switch op {
	case token.PLUS:
		r.Add(x, y)
	case token.MINUS:
		r.Sub(x, y)
	case token.MULTIPLY:
		r.Mul(x, y)
	case token.SLASH:
		if y.Sign() == 0 {
			return Undefined, a.Throw(RangeError, MsgBigIntDivideByZero)
		}
		r.Quo(x, y)
	case token.REMAINDER:
		if y.Sign() == 0 {
			return Undefined, a.Throw(RangeError, MsgBigIntDivideByZero)
		}
		r.Rem(x, y)
	case token.EXPONENT:
		if y.Sign() < 0 {
			return Undefined, a.Throw(RangeError, MsgBigIntNegativeExponent)
		}
		if x.BitLen() > 1 && (!y.IsInt64() || int64(x.BitLen())*y.Int64() > maxBigIntBits) {
			return Undefined, a.Throw(RangeError, MsgBigIntTooLarge)
		}
		r.Exp(x, y, nil)
	case token.SHIFT_LEFT, token.SHIFT_RIGHT:
		shift := y
		if op == token.SHIFT_RIGHT {
			shift = new(big.Int).Neg(y)
		}
		if !shift.IsInt64() || shift.Int64() > maxBigIntBits {
			if shift.Sign() > 0 {
				return Undefined, a.Throw(RangeError, MsgBigIntTooLarge)
			}
			if x.Sign() < 0 {
				return BigInt(big.NewInt(-1)), nil
			}
			return BigInt(new(big.Int)), nil
		}
		if n := shift.Int64(); n >= 0 {
			r.Lsh(x, uint(n))
		} else {
			// Rsh rounds toward negative infinity, as BigInt::signedRightShift requires.
			r.Rsh(x, uint(-n))
		}
	case token.UNSIGNED_SHIFT_RIGHT:
		return Undefined, a.Throw(TypeError, MsgBigIntUnsignedShift)
	case token.AND:
		r.And(x, y)
	case token.OR:
		r.Or(x, y)
	case token.EXCLUSIVE_OR:
		r.Xor(x, y)
	default:
		panic(assertionf("bigint operator %s", op))
	}
	return BigInt(r), nil
}

// unaryMinus implements the unary - operator on a numeric value.
func unaryMinus(v Value) Value {
	if v.IsBigInt() {
		return BigInt(new(big.Int).Neg(v.AsBigInt()))
	}
	return Number(-v.num)
}

// bitwiseNot implements the ~ operator on a numeric value.
func bitwiseNot(v Value) Value {
	if v.IsBigInt() {
		return BigInt(new(big.Int).Not(v.AsBigInt()))
	}
	return Number(float64(^toInt32(v.num)))
}

// numericIncrement adds delta (1 or -1) to a numeric value.
func numericIncrement(v Value, delta int64) Value {
	if v.IsBigInt() {
		return BigInt(new(big.Int).Add(v.AsBigInt(), big.NewInt(delta)))
	}
	return Number(v.num + float64(delta))
}

// evaluateRelational implements the <, >, <=, >=, instanceof and in
// operators.
func (a *Agent) evaluateRelational(op token.Token, lval, rval Value) (Value, *Completion) {
	switch op {
	case token.LESS:
		r, defined, ab := IsLessThan(a, lval, rval, true)
		return Bool(defined && r), ab
	case token.GREATER:
		r, defined, ab := IsLessThan(a, rval, lval, false)
		return Bool(defined && r), ab
	case token.LESS_OR_EQUAL:
		r, defined, ab := IsLessThan(a, rval, lval, false)
		return Bool(defined && !r), ab
	case token.GREATER_OR_EQUAL:
		r, defined, ab := IsLessThan(a, lval, rval, true)
		return Bool(defined && !r), ab
	case token.INSTANCEOF:
		r, ab := InstanceofOperator(a, lval, rval)
		return Bool(r), ab
	case token.IN:
		o := rval.AsObject()
		if o == nil {
			return Undefined, a.Throw(TypeError, MsgInNotObject, lval.String(), rval.String())
		}
		k, ab := ToPropertyKey(a, lval)
		if ab != nil {
			return Undefined, ab
		}
		r, ab := o.HasProperty(a, k)
		return Bool(r), ab
	}
	panic(assertionf("relational operator %s", op))
}

// evaluateBinary applies any non-logical binary operator to two evaluated
// operands.
func (a *Agent) evaluateBinary(op token.Token, lval, rval Value) (Value, *Completion) {
	switch op {
	case token.EQUAL, token.NOT_EQUAL:
		r, ab := IsLooselyEqual(a, lval, rval)
		if ab != nil {
			return Undefined, ab
		}
		return Bool(r == (op == token.EQUAL)), nil
	case token.STRICT_EQUAL:
		return Bool(IsStrictlyEqual(lval, rval)), nil
	case token.STRICT_NOT_EQUAL:
		return Bool(!IsStrictlyEqual(lval, rval)), nil
	case token.LESS, token.GREATER, token.LESS_OR_EQUAL, token.GREATER_OR_EQUAL, token.INSTANCEOF, token.IN:
		return a.evaluateRelational(op, lval, rval)
	}
	return ApplyStringOrNumericBinaryOperator(a, lval, op, rval)
}
