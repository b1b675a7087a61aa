package builtins

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/nooga/specjs/pkg/engine"
)

// regexpFlagGetters maps each flag accessor to its flag character, in the
// order the flags getter concatenates them.
var regexpFlagGetters = []struct {
	name string
	flag byte
}{
	{"hasIndices", 'd'},
	{"global", 'g'},
	{"ignoreCase", 'i'},
	{"multiline", 'm'},
	{"dotAll", 's'},
	{"unicode", 'u'},
	{"unicodeSets", 'v'},
	{"sticky", 'y'},
}

type RegExpInitializer struct{}

func (ri *RegExpInitializer) Name() string  { return "RegExp" }
func (ri *RegExpInitializer) Priority() int { return PriorityRegExp }

func (ri *RegExpInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := b.Object()
	ctor := b.Constructor("RegExp", 2, regexpConstructor, proto, nil)
	defineSpecies(b, ctor)

	b.Method(proto, "exec", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		if _, ab := slotsOf[*engine.RegExpSlots](a, this, "RegExp.prototype.exec"); ab != nil {
			return undefined, ab
		}
		s, ab := engine.ToString(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		return engine.RegExpBuiltinExec(a, this.AsObject(), s)
	})
	b.Method(proto, "test", 1, func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		rx, ab := requireObject(a, this)
		if ab != nil {
			return undefined, ab
		}
		s, ab := engine.ToString(a, arg(args, 0))
		if ab != nil {
			return undefined, ab
		}
		m, ab := engine.RegExpExec(a, rx, s)
		return engine.Bool(!m.IsNull()), ab
	})
	b.Method(proto, "toString", 0, regexpToString)
	b.Getter(proto, engine.StringKey("flags"), regexpFlags)
	b.Getter(proto, engine.StringKey("source"), regexpSource)
	for _, g := range regexpFlagGetters {
		b.Getter(proto, engine.StringKey(g.name), regexpFlagGetter(g.name, g.flag))
	}
	b.SymbolMethod(proto, engine.SymbolMatch, 1, regexpMatch)
	b.SymbolMethod(proto, engine.SymbolReplace, 2, regexpReplace)
	b.SymbolMethod(proto, engine.SymbolSearch, 1, regexpSearch)
	b.SymbolMethod(proto, engine.SymbolSplit, 2, regexpSplit)

	// The String methods that delegate to a RegExp live here so that they
	// exist only when RegExp does.
	strProto := r.Intrinsic("%String.prototype%")
	b.Method(strProto, "match", 1, stringDelegate(engine.SymbolMatch))
	b.Method(strProto, "search", 1, stringDelegate(engine.SymbolSearch))
	b.Method(strProto, "replace", 2, stringReplace)
	return nil
}

// isRegExp implements IsRegExp.
func isRegExp(a *Agent, v Value) (bool, *Completion) {
	o := v.AsObject()
	if o == nil {
		return false, nil
	}
	matcher, ab := engine.Get(a, o, engine.SymbolKey(engine.SymbolMatch))
	if ab != nil {
		return false, ab
	}
	if !matcher.IsUndefined() {
		return engine.ToBoolean(matcher), nil
	}
	return o.Kind() == engine.KindRegExp, nil
}

func regexpConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	pattern, flags := arg(args, 0), arg(args, 1)
	patternIsRegExp, ab := isRegExp(a, pattern)
	if ab != nil {
		return undefined, ab
	}
	if newTarget == nil {
		newTarget = a.ActiveFunction()
		if patternIsRegExp && flags.IsUndefined() {
			pc, ab := engine.Get(a, pattern.AsObject(), engine.StringKey("constructor"))
			if ab != nil {
				return undefined, ab
			}
			if engine.SameValue(engine.ObjectValue(newTarget), pc) {
				return pattern, nil
			}
		}
	}
	p, f := pattern, flags
	var slots *engine.RegExpSlots
	if o := pattern.AsObject(); o != nil {
		slots, _ = o.Slots().(*engine.RegExpSlots)
	}
	if slots != nil {
		p = engine.String(slots.Source)
		if flags.IsUndefined() {
			f = engine.String(slots.Flags)
		}
	} else if patternIsRegExp {
		src := pattern.AsObject()
		if p, ab = engine.Get(a, src, engine.StringKey("source")); ab != nil {
			return undefined, ab
		}
		if flags.IsUndefined() {
			if f, ab = engine.Get(a, src, engine.StringKey("flags")); ab != nil {
				return undefined, ab
			}
		}
	}
	o, ab := engine.RegExpAlloc(a, newTarget)
	if ab != nil {
		return undefined, ab
	}
	o, ab = engine.RegExpInitialize(a, o, p, f)
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(o), nil
}

func regexpFlagGetter(name string, flag byte) engine.NativeFunction {
	return func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		o, ab := requireObject(a, this)
		if ab != nil {
			return undefined, ab
		}
		if s, ok := o.Slots().(*engine.RegExpSlots); ok {
			return engine.Bool(s.HasFlag(flag)), nil
		}
		if o == a.CurrentRealm().Intrinsic("%RegExp.prototype%") {
			return undefined, nil
		}
		return undefined, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, "RegExp.prototype."+name, this.String())
	}
}

func regexpFlags(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	var sb strings.Builder
	for _, g := range regexpFlagGetters {
		v, ab := engine.Get(a, o, engine.StringKey(g.name))
		if ab != nil {
			return undefined, ab
		}
		if engine.ToBoolean(v) {
			sb.WriteByte(g.flag)
		}
	}
	return engine.String(sb.String()), nil
}

func regexpSource(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	if s, ok := o.Slots().(*engine.RegExpSlots); ok {
		return engine.String(escapeRegExpPattern(s.Source)), nil
	}
	if o == a.CurrentRealm().Intrinsic("%RegExp.prototype%") {
		return engine.String("(?:)"), nil
	}
	return undefined, a.Throw(engine.TypeError, engine.MsgIncompatibleReceiver, "RegExp.prototype.source", this.String())
}

// escapeRegExpPattern implements EscapeRegExpPattern: the result parses
// back to the same pattern inside a literal.
func escapeRegExpPattern(src string) string {
	if src == "" {
		return "(?:)"
	}
	var sb strings.Builder
	inClass, escaped := false, false
	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case r == '/' && !inClass:
			sb.WriteString(`\/`)
			continue
		}
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func regexpToString(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
	o, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	parts := make([]string, 2)
	for i, key := range []string{"source", "flags"} {
		v, ab := engine.Get(a, o, engine.StringKey(key))
		if ab != nil {
			return undefined, ab
		}
		if parts[i], ab = engine.ToString(a, v); ab != nil {
			return undefined, ab
		}
	}
	return engine.String("/" + parts[0] + "/" + parts[1]), nil
}

// advanceStringIndex implements AdvanceStringIndex over code units.
func advanceStringIndex(units []uint16, index int64, unicode bool) int64 {
	if !unicode || index+1 >= int64(len(units)) {
		return index + 1
	}
	if utf16.IsSurrogate(rune(units[index])) && utf16.DecodeRune(rune(units[index]), rune(units[index+1])) != '\uFFFD' {
		return index + 2
	}
	return index + 1
}

// regexpPrelude reads the receiver, the subject string and the flags of
// the @@match, @@replace and @@split protocols.
func regexpPrelude(a *Agent, this Value, subject Value) (*Object, string, string, *Completion) {
	rx, ab := requireObject(a, this)
	if ab != nil {
		return nil, "", "", ab
	}
	s, ab := engine.ToString(a, subject)
	if ab != nil {
		return nil, "", "", ab
	}
	fv, ab := engine.Get(a, rx, engine.StringKey("flags"))
	if ab != nil {
		return nil, "", "", ab
	}
	flags, ab := engine.ToString(a, fv)
	return rx, s, flags, ab
}

func fullUnicode(flags string) bool {
	return strings.ContainsAny(flags, "uv")
}

// advanceAfterEmptyMatch bumps lastIndex past an empty match so global
// iteration terminates.
func advanceAfterEmptyMatch(a *Agent, rx *Object, result Value, units []uint16, unicode bool) *Completion {
	m, ab := engine.Get(a, result.AsObject(), engine.IndexKey(0))
	if ab != nil {
		return ab
	}
	matched, ab := engine.ToString(a, m)
	if ab != nil || matched != "" {
		return ab
	}
	li, ab := engine.Get(a, rx, engine.StringKey("lastIndex"))
	if ab != nil {
		return ab
	}
	thisIndex, ab := engine.ToLength(a, li)
	if ab != nil {
		return ab
	}
	return engine.Set(a, rx, engine.StringKey("lastIndex"), engine.Int(advanceStringIndex(units, thisIndex, unicode)), true)
}

func regexpMatch(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	rx, s, flags, ab := regexpPrelude(a, this, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	if !strings.Contains(flags, "g") {
		return engine.RegExpExec(a, rx, s)
	}
	if ab := engine.Set(a, rx, engine.StringKey("lastIndex"), engine.Int(0), true); ab != nil {
		return undefined, ab
	}
	units := engine.StringToUTF16(s)
	var matches []Value
	for {
		result, ab := engine.RegExpExec(a, rx, s)
		if ab != nil {
			return undefined, ab
		}
		if result.IsNull() {
			if len(matches) == 0 {
				return null, nil
			}
			return engine.ObjectValue(engine.CreateArrayFromList(a, matches)), nil
		}
		m, ab := engine.Get(a, result.AsObject(), engine.IndexKey(0))
		if ab != nil {
			return undefined, ab
		}
		matched, ab := engine.ToString(a, m)
		if ab != nil {
			return undefined, ab
		}
		matches = append(matches, engine.String(matched))
		if matched == "" {
			if ab := advanceAfterEmptyMatch(a, rx, result, units, fullUnicode(flags)); ab != nil {
				return undefined, ab
			}
		}
	}
}

func regexpSearch(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	rx, ab := requireObject(a, this)
	if ab != nil {
		return undefined, ab
	}
	s, ab := engine.ToString(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	lastIndex := engine.StringKey("lastIndex")
	previous, ab := engine.Get(a, rx, lastIndex)
	if ab != nil {
		return undefined, ab
	}
	if !engine.SameValue(previous, engine.Int(0)) {
		if ab := engine.Set(a, rx, lastIndex, engine.Int(0), true); ab != nil {
			return undefined, ab
		}
	}
	result, ab := engine.RegExpExec(a, rx, s)
	if ab != nil {
		return undefined, ab
	}
	current, ab := engine.Get(a, rx, lastIndex)
	if ab != nil {
		return undefined, ab
	}
	if !engine.SameValue(current, previous) {
		if ab := engine.Set(a, rx, lastIndex, previous, true); ab != nil {
			return undefined, ab
		}
	}
	if result.IsNull() {
		return engine.Int(-1), nil
	}
	return engine.Get(a, result.AsObject(), engine.StringKey("index"))
}

func regexpReplace(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	rx, s, flags, ab := regexpPrelude(a, this, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	replaceValue := arg(args, 1)
	functional := engine.IsCallable(replaceValue)
	replaceTemplate := ""
	if !functional {
		if replaceTemplate, ab = engine.ToString(a, replaceValue); ab != nil {
			return undefined, ab
		}
	}
	units := engine.StringToUTF16(s)
	global := strings.Contains(flags, "g")
	if global {
		if ab := engine.Set(a, rx, engine.StringKey("lastIndex"), engine.Int(0), true); ab != nil {
			return undefined, ab
		}
	}
	var results []*Object
	for {
		result, ab := engine.RegExpExec(a, rx, s)
		if ab != nil {
			return undefined, ab
		}
		if result.IsNull() {
			break
		}
		results = append(results, result.AsObject())
		if !global {
			break
		}
		if ab := advanceAfterEmptyMatch(a, rx, result, units, fullUnicode(flags)); ab != nil {
			return undefined, ab
		}
	}

	var acc strings.Builder
	nextSource := 0
	for _, result := range results {
		n, ab := engine.LengthOfArrayLike(a, result)
		if ab != nil {
			return undefined, ab
		}
		m, ab := engine.Get(a, result, engine.IndexKey(0))
		if ab != nil {
			return undefined, ab
		}
		matched, ab := engine.ToString(a, m)
		if ab != nil {
			return undefined, ab
		}
		iv, ab := engine.Get(a, result, engine.StringKey("index"))
		if ab != nil {
			return undefined, ab
		}
		pos, ab := engine.ToIntegerOrInfinity(a, iv)
		if ab != nil {
			return undefined, ab
		}
		position := int(max(0, min(pos, float64(len(units)))))
		var captures []Value
		for i := int64(1); i < n; i++ {
			c, ab := engine.Get(a, result, engine.IndexKey(i))
			if ab != nil {
				return undefined, ab
			}
			if !c.IsUndefined() {
				if c, ab = engine.ToStringValue(a, c); ab != nil {
					return undefined, ab
				}
			}
			captures = append(captures, c)
		}
		named, ab := engine.Get(a, result, engine.StringKey("groups"))
		if ab != nil {
			return undefined, ab
		}
		var replacement string
		if functional {
			callArgs := append([]Value{engine.String(matched)}, captures...)
			callArgs = append(callArgs, engine.Int(int64(position)), engine.String(s))
			if !named.IsUndefined() {
				callArgs = append(callArgs, named)
			}
			rv, ab := engine.Call(a, replaceValue, undefined, callArgs)
			if ab != nil {
				return undefined, ab
			}
			if replacement, ab = engine.ToString(a, rv); ab != nil {
				return undefined, ab
			}
		} else {
			if !named.IsUndefined() {
				no, ab := engine.ToObject(a, named)
				if ab != nil {
					return undefined, ab
				}
				named = engine.ObjectValue(no)
			}
			if replacement, ab = getSubstitution(a, matched, units, position, captures, named, replaceTemplate); ab != nil {
				return undefined, ab
			}
		}
		if position >= nextSource {
			acc.WriteString(engine.StringFromUTF16(units[nextSource:position]))
			acc.WriteString(replacement)
			nextSource = position + engine.StringLength(matched)
		}
	}
	if nextSource < len(units) {
		acc.WriteString(engine.StringFromUTF16(units[nextSource:]))
	}
	return engine.String(acc.String()), nil
}

// getSubstitution implements GetSubstitution: it expands the $ patterns of
// a replacement template. Positions are in code units of str.
func getSubstitution(a *Agent, matched string, str []uint16, position int, captures []Value, named Value, template string) (string, *Completion) {
	var result strings.Builder
	tailPos := min(position+engine.StringLength(matched), len(str))
	m := len(captures)
	for i := 0; i < len(template); {
		if template[i] != '$' || i+1 >= len(template) {
			result.WriteByte(template[i])
			i++
			continue
		}
		switch c := template[i+1]; {
		case c == '$':
			result.WriteByte('$')
			i += 2
		case c == '&':
			result.WriteString(matched)
			i += 2
		case c == '`':
			result.WriteString(engine.StringFromUTF16(str[:min(position, len(str))]))
			i += 2
		case c == '\'':
			result.WriteString(engine.StringFromUTF16(str[tailPos:]))
			i += 2
		case c >= '0' && c <= '9':
			digits := 1
			num, _ := strconv.Atoi(template[i+1 : i+2])
			if i+2 < len(template) && template[i+2] >= '0' && template[i+2] <= '9' {
				if two, _ := strconv.Atoi(template[i+1 : i+3]); two >= 1 && two <= m {
					num, digits = two, 2
				}
			}
			if num < 1 || num > m {
				result.WriteString(template[i : i+1+digits])
			} else if v := captures[num-1]; !v.IsUndefined() {
				result.WriteString(v.AsString())
			}
			i += 1 + digits
		case c == '<':
			end := strings.IndexByte(template[i+2:], '>')
			if named.IsUndefined() || end < 0 {
				result.WriteString("$<")
				i += 2
				continue
			}
			name := template[i+2 : i+2+end]
			v, ab := engine.Get(a, named.AsObject(), engine.StringKey(name))
			if ab != nil {
				return "", ab
			}
			if !v.IsUndefined() {
				s, ab := engine.ToString(a, v)
				if ab != nil {
					return "", ab
				}
				result.WriteString(s)
			}
			i += 3 + end
		default:
			result.WriteByte('$')
			i++
		}
	}
	return result.String(), nil
}

func regexpSplit(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	rx, s, flags, ab := regexpPrelude(a, this, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	c, ab := engine.SpeciesConstructor(a, rx, a.CurrentRealm().Intrinsic("%RegExp%"))
	if ab != nil {
		return undefined, ab
	}
	unicode := fullUnicode(flags)
	newFlags := flags
	if !strings.Contains(flags, "y") {
		newFlags += "y"
	}
	sv, ab := engine.Construct(a, c, []Value{engine.ObjectValue(rx), engine.String(newFlags)}, nil)
	if ab != nil {
		return undefined, ab
	}
	splitter := sv.AsObject()
	lim := uint32(1<<32 - 1)
	if l := arg(args, 1); !l.IsUndefined() {
		if lim, ab = engine.ToUint32(a, l); ab != nil {
			return undefined, ab
		}
	}
	var parts []Value
	done := func() (Value, *Completion) {
		return engine.ObjectValue(engine.CreateArrayFromList(a, parts)), nil
	}
	if lim == 0 {
		return done()
	}
	units := engine.StringToUTF16(s)
	size := int64(len(units))
	if size == 0 {
		z, ab := engine.RegExpExec(a, splitter, s)
		if ab != nil {
			return undefined, ab
		}
		if z.IsNull() {
			parts = append(parts, engine.String(s))
		}
		return done()
	}
	p := int64(0)
	for q := p; q < size; {
		if ab := engine.Set(a, splitter, engine.StringKey("lastIndex"), engine.Int(q), true); ab != nil {
			return undefined, ab
		}
		z, ab := engine.RegExpExec(a, splitter, s)
		if ab != nil {
			return undefined, ab
		}
		if z.IsNull() {
			q = advanceStringIndex(units, q, unicode)
			continue
		}
		li, ab := engine.Get(a, splitter, engine.StringKey("lastIndex"))
		if ab != nil {
			return undefined, ab
		}
		e, ab := engine.ToLength(a, li)
		if ab != nil {
			return undefined, ab
		}
		e = min(e, size)
		if e == p {
			q = advanceStringIndex(units, q, unicode)
			continue
		}
		parts = append(parts, engine.String(engine.StringFromUTF16(units[p:q])))
		if uint32(len(parts)) == lim {
			return done()
		}
		p = e
		n, ab := engine.LengthOfArrayLike(a, z.AsObject())
		if ab != nil {
			return undefined, ab
		}
		for i := int64(1); i < n; i++ {
			capture, ab := engine.Get(a, z.AsObject(), engine.IndexKey(i))
			if ab != nil {
				return undefined, ab
			}
			parts = append(parts, capture)
			if uint32(len(parts)) == lim {
				return done()
			}
		}
		q = p
	}
	parts = append(parts, engine.String(engine.StringFromUTF16(units[p:])))
	return done()
}

// stringDelegate implements String.prototype.match and search: a matcher
// on the argument wins, otherwise a fresh RegExp handles the call.
func stringDelegate(sym *engine.Symbol) engine.NativeFunction {
	return func(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
		if this.IsNullish() {
			return undefined, a.Throw(engine.TypeError, engine.MsgCannotConvertToObject, this.String())
		}
		regexp := arg(args, 0)
		if !regexp.IsNullish() {
			method, ab := engine.GetMethod(a, regexp, engine.SymbolKey(sym))
			if ab != nil {
				return undefined, ab
			}
			if !method.IsUndefined() {
				return engine.Call(a, method, regexp, []Value{this})
			}
		}
		s, ab := engine.ToString(a, this)
		if ab != nil {
			return undefined, ab
		}
		rx, ab := engine.RegExpCreate(a, regexp, undefined)
		if ab != nil {
			return undefined, ab
		}
		return engine.Invoke(a, engine.ObjectValue(rx), engine.SymbolKey(sym), []Value{engine.String(s)})
	}
}

func stringReplace(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	if this.IsNullish() {
		return undefined, a.Throw(engine.TypeError, engine.MsgCannotConvertToObject, this.String())
	}
	search, replaceValue := arg(args, 0), arg(args, 1)
	if !search.IsNullish() {
		replacer, ab := engine.GetMethod(a, search, engine.SymbolKey(engine.SymbolReplace))
		if ab != nil {
			return undefined, ab
		}
		if !replacer.IsUndefined() {
			return engine.Call(a, replacer, search, []Value{this, replaceValue})
		}
	}
	s, ab := engine.ToString(a, this)
	if ab != nil {
		return undefined, ab
	}
	searchString, ab := engine.ToString(a, search)
	if ab != nil {
		return undefined, ab
	}
	functional := engine.IsCallable(replaceValue)
	template := ""
	if !functional {
		if template, ab = engine.ToString(a, replaceValue); ab != nil {
			return undefined, ab
		}
	}
	units := engine.StringToUTF16(s)
	searchUnits := engine.StringToUTF16(searchString)
	position := indexOfUnits(units, searchUnits, 0)
	if position < 0 {
		return engine.String(s), nil
	}
	var replacement string
	if functional {
		rv, ab := engine.Call(a, replaceValue, undefined, []Value{engine.String(searchString), engine.Int(int64(position)), engine.String(s)})
		if ab != nil {
			return undefined, ab
		}
		if replacement, ab = engine.ToString(a, rv); ab != nil {
			return undefined, ab
		}
	} else if replacement, ab = getSubstitution(a, searchString, units, position, nil, undefined, template); ab != nil {
		return undefined, ab
	}
	return engine.String(engine.StringFromUTF16(units[:position]) + replacement + engine.StringFromUTF16(units[position+len(searchUnits):])), nil
}
