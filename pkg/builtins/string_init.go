package builtins

import (
	"math"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/nooga/specjs/pkg/engine"
)

const stringIteratorBrand = "%StringIteratorPrototype%"

type StringInitializer struct{}

func (s *StringInitializer) Name() string  { return "String" }
func (s *StringInitializer) Priority() int { return PriorityString }

func (s *StringInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := r.Intrinsic("%String.prototype%")
	ctor := b.Constructor("String", 1, stringConstructor, proto, nil)
	b.Method(ctor, "fromCharCode", 1, stringFromCharCode)
	b.Method(ctor, "fromCodePoint", 1, stringFromCodePoint)

	b.Method(proto, "at", 1, stringAt)
	b.Method(proto, "charAt", 1, stringCharAt)
	b.Method(proto, "charCodeAt", 1, stringCharCodeAt)
	b.Method(proto, "codePointAt", 1, stringCodePointAt)
	b.Method(proto, "concat", 1, stringConcat)
	b.Method(proto, "endsWith", 1, stringEndsWith)
	b.Method(proto, "includes", 1, stringIncludes)
	b.Method(proto, "indexOf", 1, stringIndexOf)
	b.Method(proto, "normalize", 0, stringNormalize)
	b.Method(proto, "padEnd", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return stringPad(a, this, args, false)
	})
	b.Method(proto, "padStart", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		return stringPad(a, this, args, true)
	})
	b.Method(proto, "repeat", 1, stringRepeat)
	b.Method(proto, "slice", 2, stringSlice)
	b.Method(proto, "split", 2, stringSplit)
	b.Method(proto, "startsWith", 1, stringStartsWith)
	b.Method(proto, "substring", 2, stringSubstring)
	b.Method(proto, "toLowerCase", 0, stringMapper(strings.ToLower))
	b.Method(proto, "toUpperCase", 0, stringMapper(strings.ToUpper))
	b.Method(proto, "toString", 0, thisStringMethod("String.prototype.toString"))
	b.Method(proto, "trim", 0, stringMapper(engine.TrimStrWhiteSpace))
	b.Method(proto, "trimEnd", 0, stringMapper(func(s string) string {
		return strings.TrimRightFunc(s, engine.IsStrWhiteSpace)
	}))
	b.Method(proto, "trimStart", 0, stringMapper(func(s string) string {
		return strings.TrimLeftFunc(s, engine.IsStrWhiteSpace)
	}))
	b.Method(proto, "valueOf", 0, thisStringMethod("String.prototype.valueOf"))
	b.SymbolMethod(proto, engine.SymbolIterator, 0, stringIterator)

	iterProto := engine.OrdinaryObjectCreate(r.Intrinsic("%Iterator.prototype%"))
	b.Method(iterProto, "next", 0, func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		return engine.GeneratorResume(a, this, undefined, stringIteratorBrand)
	})
	b.ToStringTag(iterProto, "String Iterator")
	r.SetIntrinsic("%StringIteratorPrototype%", iterProto)
	return nil
}

func stringConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	s := ""
	if len(args) > 0 {
		v := args[0]
		if newTarget == nil && v.IsSymbol() {
			return engine.String(v.AsSymbol().DescriptiveString()), nil
		}
		var ab *Completion
		if s, ab = engine.ToString(a, v); ab != nil {
			return undefined, ab
		}
	}
	if newTarget == nil {
		return engine.String(s), nil
	}
	proto, ab := engine.GetPrototypeFromConstructor(a, newTarget, "%String.prototype%")
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(engine.StringCreate(s, proto)), nil
}

// thisStringValue implements ThisStringValue.
func thisStringValue(a *Agent, v Value, method string) (string, *Completion) {
	if v.IsString() {
		return v.AsString(), nil
	}
	if data, ok := engine.PrimitiveData(v.AsObject(), engine.KindStringWrapper); ok {
		return data.AsString(), nil
	}
	return "", a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, method, v.String())
}

func thisStringMethod(method string) engine.NativeFunction {
	return func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		s, ab := thisStringValue(a, this, method)
		return engine.String(s), ab
	}
}

// coercibleString is RequireObjectCoercible(this) followed by ToString.
func coercibleString(a *Agent, this Value) (string, *Completion) {
	if this.IsNullish() {
		return "", a.Throw(engine.TypeError, engine.MsgCannotConvertToObject, this.String())
	}
	return engine.ToString(a, this)
}

func stringMapper(fn func(string) string) engine.NativeFunction {
	return func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		s, ab := coercibleString(a, this)
		if ab != nil {
			return undefined, ab
		}
		return engine.String(fn(s)), nil
	}
}

func stringFromCharCode(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	units := make([]uint16, len(args))
	for i, v := range args {
		n, ab := engine.ToNumber(a, v)
		if ab != nil {
			return undefined, ab
		}
		u, _ := engine.ToUint32(a, engine.Number(n))
		units[i] = uint16(u)
	}
	return engine.String(engine.StringFromUTF16(units)), nil
}

func stringFromCodePoint(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	var sb strings.Builder
	for _, v := range args {
		n, ab := engine.ToNumber(a, v)
		if ab != nil {
			return undefined, ab
		}
		if !engine.IsIntegralNumber(n) || n < 0 || n > 0x10FFFF {
			return undefined, a.Throw(engine.RangeError, engine.MsgInvalidCodePoint, engine.NumberToString(n))
		}
		sb.WriteRune(rune(n))
	}
	return engine.String(sb.String()), nil
}

// stringPosition reads an integer position argument, clamped to [0, size].
func stringPosition(a *Agent, v Value, size int) (int, *Completion) {
	pos, ab := engine.ToIntegerOrInfinity(a, v)
	if ab != nil {
		return 0, ab
	}
	return int(max(0, min(pos, float64(size)))), nil
}

func stringAt(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	rel, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	k := rel
	if rel < 0 {
		k = float64(len(units)) + rel
	}
	if k < 0 || k >= float64(len(units)) {
		return undefined, nil
	}
	return engine.String(engine.StringFromUTF16(units[int(k) : int(k)+1])), nil
}

func stringCharAt(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	pos, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	if pos < 0 || pos >= float64(len(units)) {
		return engine.String(""), nil
	}
	return engine.String(engine.StringFromUTF16(units[int(pos) : int(pos)+1])), nil
}

func stringCharCodeAt(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	pos, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	if pos < 0 || math.IsInf(pos, 0) {
		return engine.Number(math.NaN()), nil
	}
	u, ok := engine.CodeUnitAt(s, int(pos))
	if !ok {
		return engine.Number(math.NaN()), nil
	}
	return engine.Int(int64(u)), nil
}

func stringCodePointAt(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	pos, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	if pos < 0 || pos >= float64(len(units)) {
		return undefined, nil
	}
	i := int(pos)
	if utf16.IsSurrogate(rune(units[i])) && i+1 < len(units) {
		if r := utf16.DecodeRune(rune(units[i]), rune(units[i+1])); r != '\uFFFD' {
			return engine.Int(int64(r)), nil
		}
	}
	return engine.Int(int64(units[i])), nil
}

func stringConcat(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	var sb strings.Builder
	sb.WriteString(s)
	for _, v := range args {
		next, ab := engine.ToString(a, v)
		if ab != nil {
			return undefined, ab
		}
		sb.WriteString(next)
	}
	return engine.String(sb.String()), nil
}

// searchArgument converts the search string of includes, startsWith and
// endsWith, which refuse regular expressions.
func searchArgument(a *Agent, v Value, method string) (string, *Completion) {
	if o := v.AsObject(); o != nil {
		matcher, ab := engine.Get(a, o, engine.SymbolKey(engine.SymbolMatch))
		if ab != nil {
			return "", ab
		}
		isRegExp := o.Kind() == engine.KindRegExp
		if !matcher.IsUndefined() {
			isRegExp = engine.ToBoolean(matcher)
		}
		if isRegExp {
			return "", a.Throw(engine.TypeError, engine.MsgGeneric, "First argument to String.prototype."+method+" must not be a regular expression")
		}
	}
	return engine.ToString(a, v)
}

func stringIncludes(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	search, ab := searchArgument(a, arg(args, 0), "includes")
	if ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	start, ab := stringPosition(a, arg(args, 1), len(units))
	if ab != nil {
		return undefined, ab
	}
	return engine.Bool(indexOfUnits(units, engine.StringToUTF16(search), start) >= 0), nil
}

func stringStartsWith(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	search, ab := searchArgument(a, arg(args, 0), "startsWith")
	if ab != nil {
		return undefined, ab
	}
	units, sub := engine.StringToUTF16(s), engine.StringToUTF16(search)
	start, ab := stringPosition(a, arg(args, 1), len(units))
	if ab != nil {
		return undefined, ab
	}
	if start+len(sub) > len(units) {
		return engine.False, nil
	}
	return engine.Bool(equalUnits(units[start:start+len(sub)], sub)), nil
}

func stringEndsWith(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	search, ab := searchArgument(a, arg(args, 0), "endsWith")
	if ab != nil {
		return undefined, ab
	}
	units, sub := engine.StringToUTF16(s), engine.StringToUTF16(search)
	end := len(units)
	if pos := arg(args, 1); !pos.IsUndefined() {
		if end, ab = stringPosition(a, pos, len(units)); ab != nil {
			return undefined, ab
		}
	}
	start := end - len(sub)
	if start < 0 {
		return engine.False, nil
	}
	return engine.Bool(equalUnits(units[start:end], sub)), nil
}

func stringIndexOf(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	search, ab := engine.ToString(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	start, ab := stringPosition(a, arg(args, 1), len(units))
	if ab != nil {
		return undefined, ab
	}
	return engine.Int(int64(indexOfUnits(units, engine.StringToUTF16(search), start))), nil
}

func equalUnits(x, y []uint16) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// indexOfUnits implements StringIndexOf over code units.
func indexOfUnits(units, search []uint16, from int) int {
	for i := from; i+len(search) <= len(units); i++ {
		if equalUnits(units[i:i+len(search)], search) {
			return i
		}
	}
	return -1
}

func stringNormalize(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	form := "NFC"
	if f := arg(args, 0); !f.IsUndefined() {
		if form, ab = engine.ToString(a, f); ab != nil {
			return undefined, ab
		}
	}
	forms := map[string]norm.Form{"NFC": norm.NFC, "NFD": norm.NFD, "NFKC": norm.NFKC, "NFKD": norm.NFKD}
	f, ok := forms[form]
	if !ok {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidNormalization)
	}
	return engine.String(f.String(s)), nil
}

func stringPad(a *Agent, this Value, args []Value, atStart bool) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	maxLength, ab := engine.ToLength(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	size := int64(engine.StringLength(s))
	if maxLength <= size {
		return engine.String(s), nil
	}
	filler := " "
	if f := arg(args, 1); !f.IsUndefined() {
		if filler, ab = engine.ToString(a, f); ab != nil {
			return undefined, ab
		}
	}
	if filler == "" {
		return engine.String(s), nil
	}
	if maxLength > 1<<30 {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidStringLength)
	}
	fillLen := int(maxLength - size)
	fillUnits := engine.StringToUTF16(filler)
	pad := make([]uint16, 0, fillLen)
	for len(pad) < fillLen {
		pad = append(pad, fillUnits[:min(len(fillUnits), fillLen-len(pad))]...)
	}
	if atStart {
		return engine.String(engine.StringFromUTF16(pad) + s), nil
	}
	return engine.String(s + engine.StringFromUTF16(pad)), nil
}

func stringRepeat(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	n, ab := engine.ToIntegerOrInfinity(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	if n < 0 || math.IsInf(n, 1) {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidCount, engine.NumberToString(n))
	}
	if s == "" || n == 0 {
		return engine.String(""), nil
	}
	if n*float64(len(s)) > 1<<30 {
		return undefined, a.Throw(engine.RangeError, engine.MsgInvalidStringLength)
	}
	return engine.String(strings.Repeat(s, int(n))), nil
}

func stringSlice(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	size := int64(engine.StringLength(s))
	from, ab := relativeIndex(a, arg(args, 0), size, 0)
	if ab != nil {
		return undefined, ab
	}
	to, ab := relativeIndex(a, arg(args, 1), size, size)
	if ab != nil {
		return undefined, ab
	}
	if from >= to {
		return engine.String(""), nil
	}
	return engine.String(engine.SubstringUTF16(s, int(from), int(to))), nil
}

func stringSubstring(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	size := engine.StringLength(s)
	start, ab := stringPosition(a, arg(args, 0), size)
	if ab != nil {
		return undefined, ab
	}
	end := size
	if e := arg(args, 1); !e.IsUndefined() {
		if end, ab = stringPosition(a, e, size); ab != nil {
			return undefined, ab
		}
	}
	return engine.String(engine.SubstringUTF16(s, min(start, end), max(start, end))), nil
}

// stringSplit implements String.prototype.split. A separator with a
// @@split method (RegExp) takes over.
func stringSplit(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	if this.IsNullish() {
		return undefined, a.Throw(engine.TypeError, engine.MsgCannotConvertToObject, this.String())
	}
	separator, limit := arg(args, 0), arg(args, 1)
	if !separator.IsNullish() {
		splitter, ab := engine.GetMethod(a, separator, engine.SymbolKey(engine.SymbolSplit))
		if ab != nil {
			return undefined, ab
		}
		if !splitter.IsUndefined() {
			return engine.Call(a, splitter, separator, []Value{this, limit})
		}
	}
	s, ab := engine.ToString(a, this)
	if ab != nil {
		return undefined, ab
	}
	lim := uint32(math.MaxUint32)
	if !limit.IsUndefined() {
		if lim, ab = engine.ToUint32(a, limit); ab != nil {
			return undefined, ab
		}
	}
	sep, ab := engine.ToString(a, separator)
	if ab != nil {
		return undefined, ab
	}
	if lim == 0 {
		return engine.ObjectValue(engine.CreateArrayFromList(a, nil)), nil
	}
	if separator.IsUndefined() {
		return engine.ObjectValue(engine.CreateArrayFromList(a, []Value{engine.String(s)})), nil
	}
	units, sepUnits := engine.StringToUTF16(s), engine.StringToUTF16(sep)
	var parts []Value
	if len(sepUnits) == 0 {
		for i := 0; i < len(units) && uint32(len(parts)) < lim; i++ {
			parts = append(parts, engine.String(engine.StringFromUTF16(units[i:i+1])))
		}
		return engine.ObjectValue(engine.CreateArrayFromList(a, parts)), nil
	}
	if len(units) == 0 {
		return engine.ObjectValue(engine.CreateArrayFromList(a, []Value{engine.String(s)})), nil
	}
	p := 0
	for q := indexOfUnits(units, sepUnits, 0); q >= 0; q = indexOfUnits(units, sepUnits, p) {
		parts = append(parts, engine.String(engine.StringFromUTF16(units[p:q])))
		if uint32(len(parts)) == lim {
			return engine.ObjectValue(engine.CreateArrayFromList(a, parts)), nil
		}
		p = q + len(sepUnits)
	}
	parts = append(parts, engine.String(engine.StringFromUTF16(units[p:])))
	return engine.ObjectValue(engine.CreateArrayFromList(a, parts)), nil
}

// stringIterator implements String.prototype[@@iterator]: one string per
// code point.
func stringIterator(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	s, ab := coercibleString(a, this)
	if ab != nil {
		return undefined, ab
	}
	proto := a.CurrentRealm().Intrinsic("%StringIteratorPrototype%")
	it := a.CreateIteratorFromClosure(func(a *Agent, yield func(Value) Completion) Completion {
		for _, r := range s {
			if c := yield(engine.String(string(r))); c.Type != engine.CompletionNormal {
				return c
			}
		}
		return engine.NormalCompletion(undefined)
	}, stringIteratorBrand, proto)
	return engine.ObjectValue(it), nil
}
