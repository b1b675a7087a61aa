package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nooga/specjs/pkg/engine"
)

// GlobalsInitializer installs the global function properties. They are
// published as intrinsics and bound on the global object by
// SetDefaultGlobalBindings.
type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string  { return "Globals" }
func (g *GlobalsInitializer) Priority() int { return PriorityGlobals }

func (g *GlobalsInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	publish := func(name string, length int, fn engine.NativeFunction) *Object {
		f := engine.NewNativeFunction(r, name, length, fn)
		r.SetIntrinsic("%"+name+"%", f)
		return f
	}
	publish("isFinite", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		n, ab := engine.ToNumber(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})
	publish("isNaN", 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		n, ab := engine.ToNumber(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.Bool(math.IsNaN(n)), nil
	})
	parseFloat := publish("parseFloat", 1, globalParseFloat)
	parseInt := publish("parseInt", 2, globalParseInt)

	// Number.parseFloat and Number.parseInt are the same function objects.
	b := a.NewIntrinsicBuilder(r)
	number := r.Intrinsic("%Number%")
	b.Value(number, "parseFloat", engine.ObjectValue(parseFloat))
	b.Value(number, "parseInt", engine.ObjectValue(parseInt))
	return nil
}

func globalParseFloat(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := engine.ToString(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	s = strings.TrimLeftFunc(s, engine.IsStrWhiteSpace)
	prefix := strDecimalPrefix(s)
	switch strings.TrimLeft(prefix, "+-") {
	case "":
		return engine.Number(math.NaN()), nil
	case "Infinity":
		if prefix[0] == '-' {
			return engine.Number(math.Inf(-1)), nil
		}
		return engine.Number(math.Inf(1)), nil
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil && !isRangeErr(err) {
		return engine.Number(math.NaN()), nil
	}
	return engine.Number(f), nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// strDecimalPrefix returns the longest prefix of s that is a
// StrDecimalLiteral, or "" when there is none.
func strDecimalPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i+len("Infinity")]
	}
	digits := func() int {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}
	n := digits()
	if i < len(s) && s[i] == '.' {
		i++
		n += digits()
		if n == 0 {
			return ""
		}
	}
	if n == 0 {
		return ""
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() > 0 {
			end = i
		}
	}
	return s[:end]
}

func globalParseInt(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := engine.ToString(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	r, ab := engine.ToInt32(a, arg(args, 1))
	if ab != nil {
		return undefined, ab
	}
	s = strings.TrimLeftFunc(s, engine.IsStrWhiteSpace)
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	radix := int(r)
	stripPrefix := true
	if radix != 0 {
		if radix < 2 || radix > 36 {
			return engine.Number(math.NaN()), nil
		}
		if radix != 16 {
			stripPrefix = false
		}
	} else {
		radix = 10
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}
	end := 0
	for end < len(s) && digitIn(s[end], radix) {
		end++
	}
	if end == 0 {
		return engine.Number(math.NaN()), nil
	}
	digits := s[:end]
	if radix == 10 {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil && !isRangeErr(err) {
			return engine.Number(math.NaN()), nil
		}
		return engine.Number(sign * f), nil
	}
	n, _ := new(big.Int).SetString(strings.ToLower(digits), radix)
	return engine.Number(sign * engine.BigIntToNumber(n)), nil
}

func digitIn(c byte, radix int) bool {
	var d int
	switch {
	case c >= '0' && c <= '9':
		d = int(c - '0')
	case c >= 'a' && c <= 'z':
		d = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int(c-'A') + 10
	default:
		return false
	}
	return d < radix
}
