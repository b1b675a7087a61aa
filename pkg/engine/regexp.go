package engine

import (
	"strings"
	"unicode/utf16"

	"github.com/dlclark/regexp2"
)

// RegExpSlots are [[OriginalSource]], [[OriginalFlags]] and [[RegExpMatcher]].
type RegExpSlots struct {
	Source  string
	Flags   string
	Matcher *regexp2.Regexp
}

// HasFlag reports whether flag is among the original flags.
func (s *RegExpSlots) HasFlag(flag byte) bool {
	return strings.IndexByte(s.Flags, flag) >= 0
}

// compileRegExp validates flags and builds a matcher for pattern.
func compileRegExp(pattern, flags string) (*regexp2.Regexp, string, bool) {
	var opts regexp2.RegexOptions = regexp2.ECMAScript
	seen := 0
	for i := 0; i < len(flags); i++ {
		bit := strings.IndexByte("dgimsuvy", flags[i])
		if bit < 0 || seen&(1<<bit) != 0 {
			return nil, "", false
		}
		seen |= 1 << bit
		switch flags[i] {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u', 'v':
			opts |= regexp2.Unicode
		}
	}
	if strings.Contains(flags, "u") && strings.Contains(flags, "v") {
		return nil, "", false
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err.Error(), true
	}
	return re, "", true
}

// RegExpAlloc implements RegExpAlloc.
func RegExpAlloc(a *Agent, newTarget *Object) (*Object, *Completion) {
	obj, ab := OrdinaryCreateFromConstructor(a, newTarget, "%RegExp.prototype%", KindRegExp, &RegExpSlots{})
	if ab != nil {
		return nil, ab
	}
	obj.DefineDirect(StringKey("lastIndex"), Undefined, true, false, false)
	return obj, nil
}

// RegExpInitialize implements RegExpInitialize.
func RegExpInitialize(a *Agent, obj *Object, pattern, flags Value) (*Object, *Completion) {
	p, f := "", ""
	var ab *Completion
	if !pattern.IsUndefined() {
		if p, ab = ToString(a, pattern); ab != nil {
			return nil, ab
		}
	}
	if !flags.IsUndefined() {
		if f, ab = ToString(a, flags); ab != nil {
			return nil, ab
		}
	}
	matcher, problem, flagsOK := compileRegExp(p, f)
	if !flagsOK {
		return nil, a.Throw(SyntaxError, MsgInvalidRegExpFlags, f)
	}
	if matcher == nil {
		return nil, a.Throw(SyntaxError, MsgInvalidRegExp, p, problem)
	}
	s := obj.slots.(*RegExpSlots)
	s.Source, s.Flags, s.Matcher = p, f, matcher
	if ab := Set(a, obj, StringKey("lastIndex"), Int(0), true); ab != nil {
		return nil, ab
	}
	return obj, nil
}

// RegExpCreate implements RegExpCreate.
func RegExpCreate(a *Agent, pattern, flags Value) (*Object, *Completion) {
	obj, ab := RegExpAlloc(a, a.CurrentRealm().Intrinsic("%RegExp%"))
	if ab != nil {
		return nil, ab
	}
	return RegExpInitialize(a, obj, pattern, flags)
}

// RegExpCreateLiteral evaluates a regular expression literal. Realms built
// without the RegExp library reject literals instead of asserting.
func (a *Agent) RegExpCreateLiteral(pattern, flags string) (*Object, *Completion) {
	if _, ok := a.CurrentRealm().LookupIntrinsic("%RegExp%"); !ok {
		return nil, a.Throw(SyntaxError, MsgUnsupportedSyntax, "regular expression literal")
	}
	return RegExpCreate(a, String(pattern), String(flags))
}

// RegExpExec implements RegExpExec: a user-visible exec method wins over
// the built-in matcher.
func RegExpExec(a *Agent, r *Object, s string) (Value, *Completion) {
	exec, ab := Get(a, r, StringKey("exec"))
	if ab != nil {
		return Undefined, ab
	}
	if IsCallable(exec) {
		result, ab := Call(a, exec, ObjectValue(r), []Value{String(s)})
		if ab != nil {
			return Undefined, ab
		}
		if !result.IsObject() && !result.IsNull() {
			return Undefined, a.Throw(TypeError, MsgNotObject, result.String())
		}
		return result, nil
	}
	if _, ok := r.slots.(*RegExpSlots); !ok {
		return Undefined, a.Throw(TypeError, MsgIncompatibleReceiver, "RegExp.prototype.exec", ObjectValue(r).String())
	}
	return RegExpBuiltinExec(a, r, s)
}

// RegExpBuiltinExec implements RegExpBuiltinExec. Indices exposed to script
// count UTF-16 code units; the matcher works on runes.
func RegExpBuiltinExec(a *Agent, r *Object, s string) (Value, *Completion) {
	slots := r.slots.(*RegExpSlots)
	li, ab := Get(a, r, StringKey("lastIndex"))
	if ab != nil {
		return Undefined, ab
	}
	lastIndex, ab := ToLength(a, li)
	if ab != nil {
		return Undefined, ab
	}
	global, sticky := slots.HasFlag('g'), slots.HasFlag('y')
	if !global && !sticky {
		lastIndex = 0
	}
	resetLastIndex := func() *Completion {
		if global || sticky {
			return Set(a, r, StringKey("lastIndex"), Int(0), true)
		}
		return nil
	}
	runes := []rune(s)
	units := utf16Offsets(runes)
	if lastIndex > int64(units[len(runes)]) {
		return Null, resetLastIndex()
	}
	start := runeIndexAt(units, int(lastIndex))
	m, err := slots.Matcher.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return Undefined, a.Throw(SyntaxError, MsgInvalidRegExp, slots.Source, err.Error())
	}
	if m == nil || (sticky && m.Index != start) {
		return Null, resetLastIndex()
	}
	end := units[m.Index+m.Length]
	if global || sticky {
		if ab := Set(a, r, StringKey("lastIndex"), Int(int64(end)), true); ab != nil {
			return Undefined, ab
		}
	}
	n := m.GroupCount()
	arr := Must(ArrayCreate(a, uint64(n), nil))
	MustOK(CreateDataPropertyOrThrow(a, arr, StringKey("index"), Int(int64(units[m.Index]))))
	MustOK(CreateDataPropertyOrThrow(a, arr, StringKey("input"), String(s)))
	var indices []Value
	hasIndices := slots.HasFlag('d')
	for i := 0; i < n; i++ {
		g := m.GroupByNumber(i)
		v, pair := Undefined, Undefined
		if g != nil && len(g.Captures) > 0 {
			v = String(g.String())
			pair = ObjectValue(CreateArrayFromList(a, []Value{Int(int64(units[g.Index])), Int(int64(units[g.Index+g.Length]))}))
		}
		MustOK(CreateDataPropertyOrThrow(a, arr, IndexKey(int64(i)), v))
		indices = append(indices, pair)
	}
	groups, groupIndices := Undefined, Undefined
	if names := namedGroups(slots.Matcher); len(names) > 0 {
		g := OrdinaryObjectCreate(nil)
		gi := OrdinaryObjectCreate(nil)
		for _, name := range names {
			num := slots.Matcher.GroupNumberFromName(name)
			v := Must(Get(a, arr, IndexKey(int64(num))))
			MustOK(CreateDataPropertyOrThrow(a, g, StringKey(name), v))
			MustOK(CreateDataPropertyOrThrow(a, gi, StringKey(name), indices[num]))
		}
		groups, groupIndices = ObjectValue(g), ObjectValue(gi)
	}
	MustOK(CreateDataPropertyOrThrow(a, arr, StringKey("groups"), groups))
	if hasIndices {
		ia := CreateArrayFromList(a, indices)
		MustOK(CreateDataPropertyOrThrow(a, ia, StringKey("groups"), groupIndices))
		MustOK(CreateDataPropertyOrThrow(a, arr, StringKey("indices"), ObjectValue(ia)))
	}
	return ObjectValue(arr), nil
}

// namedGroups lists the non-numeric capture group names in pattern order.
func namedGroups(re *regexp2.Regexp) []string {
	var out []string
	for _, name := range re.GetGroupNames() {
		if strings.Trim(name, "0123456789") != "" {
			out = append(out, name)
		}
	}
	return out
}

// utf16Offsets maps each rune index (and the end) to its UTF-16 offset.
func utf16Offsets(runes []rune) []int {
	out := make([]int, len(runes)+1)
	for i, r := range runes {
		n := 1
		if utf16.RuneLen(r) == 2 {
			n = 2
		}
		out[i+1] = out[i] + n
	}
	return out
}

// runeIndexAt finds the first rune starting at or after UTF-16 offset u.
func runeIndexAt(offsets []int, u int) int {
	for i, off := range offsets {
		if off >= u {
			return i
		}
	}
	return len(offsets) - 1
}
