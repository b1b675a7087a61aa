package builtins

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/nooga/specjs/pkg/engine"
)

type JSONInitializer struct{}

func (j *JSONInitializer) Name() string  { return "JSON" }
func (j *JSONInitializer) Priority() int { return PriorityJSON }

func (j *JSONInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	ns := b.Namespace("JSON")
	b.Method(ns, "parse", 2, jsonParse)
	b.Method(ns, "stringify", 3, jsonStringify)
	return nil
}

var errJSONTrailing = errors.New("unexpected non-whitespace character after JSON data")

func jsonParse(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	text, ab := engine.ToString(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := jsonDecodeValue(a, dec)
	if err == nil {
		if _, tail := dec.Token(); tail != io.EOF {
			err = errJSONTrailing
		}
	}
	if err != nil {
		return undefined, a.Throw(engine.SyntaxError, engine.MsgParse, "JSON.parse: "+err.Error())
	}
	reviver := arg(args, 1)
	if !engine.IsCallable(reviver) {
		return v, nil
	}
	root := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	engine.MustOK(engine.CreateDataPropertyOrThrow(a, root, engine.StringKey(""), v))
	return jsonInternalize(a, root, engine.StringKey(""), reviver)
}

// jsonDecodeValue builds a value from the decoder's token stream so object
// members keep their source order.
func jsonDecodeValue(a *Agent, dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return undefined, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return undefined, err
				}
				key, _ := kt.(string)
				v, err := jsonDecodeValue(a, dec)
				if err != nil {
					return undefined, err
				}
				engine.Must(engine.CreateDataProperty(a, o, engine.StringKey(key), v))
			}
			if _, err := dec.Token(); err != nil {
				return undefined, err
			}
			return engine.ObjectValue(o), nil
		case '[':
			var items []Value
			for dec.More() {
				v, err := jsonDecodeValue(a, dec)
				if err != nil {
					return undefined, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return undefined, err
			}
			return engine.ObjectValue(engine.CreateArrayFromList(a, items)), nil
		}
		return undefined, fmt.Errorf("unexpected %q", rune(t))
	case string:
		return engine.String(t), nil
	case json.Number:
		return engine.Number(engine.StringToNumber(string(t))), nil
	case bool:
		return engine.Bool(t), nil
	case nil:
		return null, nil
	}
	return undefined, fmt.Errorf("unexpected token %v", tok)
}

// jsonInternalize implements InternalizeJSONProperty.
func jsonInternalize(a *Agent, holder *Object, name engine.PropertyKey, reviver Value) (Value, *Completion) {
	val, ab := engine.Get(a, holder, name)
	if ab != nil {
		return undefined, ab
	}
	if o := val.AsObject(); o != nil {
		isArray, ab := engine.IsArray(a, val)
		if ab != nil {
			return undefined, ab
		}
		var keys []engine.PropertyKey
		if isArray {
			length, ab := engine.LengthOfArrayLike(a, o)
			if ab != nil {
				return undefined, ab
			}
			for i := range length {
				keys = append(keys, engine.IndexKey(i))
			}
		} else {
			names, ab := engine.EnumerableOwnProperties(a, o, engine.EnumerateKeys)
			if ab != nil {
				return undefined, ab
			}
			for _, n := range names {
				keys = append(keys, engine.StringKey(n.AsString()))
			}
		}
		for _, k := range keys {
			revived, ab := jsonInternalize(a, o, k, reviver)
			if ab != nil {
				return undefined, ab
			}
			if revived.IsUndefined() {
				_, ab = o.Delete(a, k)
			} else {
				_, ab = engine.CreateDataProperty(a, o, k, revived)
			}
			if ab != nil {
				return undefined, ab
			}
		}
	}
	return engine.Call(a, reviver, engine.ObjectValue(holder), []Value{name.Value(), val})
}

type jsonSerializer struct {
	replacer     Value
	propertyList []engine.PropertyKey
	stack        []*Object
	indent       string
	gap          string
}

func jsonStringify(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
	s := &jsonSerializer{replacer: undefined}
	if err := s.setReplacer(a, arg(args, 1)); err != nil {
		return undefined, err
	}
	if err := s.setGap(a, arg(args, 2)); err != nil {
		return undefined, err
	}
	wrapper := engine.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	engine.MustOK(engine.CreateDataPropertyOrThrow(a, wrapper, engine.StringKey(""), arg(args, 0)))
	out, ok, ab := s.property(a, engine.StringKey(""), wrapper)
	if ab != nil || !ok {
		return undefined, ab
	}
	return engine.String(out), nil
}

func (s *jsonSerializer) setReplacer(a *Agent, replacer Value) *Completion {
	o := replacer.AsObject()
	if o == nil {
		return nil
	}
	if engine.IsCallable(replacer) {
		s.replacer = replacer
		return nil
	}
	isArray, ab := engine.IsArray(a, replacer)
	if ab != nil || !isArray {
		return ab
	}
	length, ab := engine.LengthOfArrayLike(a, o)
	if ab != nil {
		return ab
	}
	s.propertyList = []engine.PropertyKey{}
	seen := map[string]bool{}
	for k := range length {
		v, ab := engine.Get(a, o, engine.IndexKey(k))
		if ab != nil {
			return ab
		}
		item, ok := "", false
		switch {
		case v.IsString():
			item, ok = v.AsString(), true
		case v.IsNumber():
			item, ok = engine.NumberToString(v.AsNumber()), true
		case v.IsObject():
			if v.AsObject().Kind() == engine.KindStringWrapper || v.AsObject().Kind() == engine.KindNumberWrapper {
				if item, ab = engine.ToString(a, v); ab != nil {
					return ab
				}
				ok = true
			}
		}
		if ok && !seen[item] {
			seen[item] = true
			s.propertyList = append(s.propertyList, engine.StringKey(item))
		}
	}
	return nil
}

func (s *jsonSerializer) setGap(a *Agent, space Value) *Completion {
	if o := space.AsObject(); o != nil {
		var ab *Completion
		switch o.Kind() {
		case engine.KindNumberWrapper:
			var n float64
			n, ab = engine.ToNumber(a, space)
			space = engine.Number(n)
		case engine.KindStringWrapper:
			space, ab = engine.ToStringValue(a, space)
		}
		if ab != nil {
			return ab
		}
	}
	switch {
	case space.IsNumber():
		n := math.Min(10, math.Trunc(space.AsNumber()))
		if n >= 1 {
			s.gap = strings.Repeat(" ", int(n))
		}
	case space.IsString():
		str := space.AsString()
		s.gap = engine.SubstringUTF16(str, 0, min(10, engine.StringLength(str)))
	}
	return nil
}

// property implements SerializeJSONProperty. ok is false when the value
// has no JSON representation and the member is skipped.
func (s *jsonSerializer) property(a *Agent, key engine.PropertyKey, holder *Object) (string, bool, *Completion) {
	value, ab := engine.Get(a, holder, key)
	if ab != nil {
		return "", false, ab
	}
	if value.IsObject() || value.IsBigInt() {
		toJSON, ab := engine.GetV(a, value, engine.StringKey("toJSON"))
		if ab != nil {
			return "", false, ab
		}
		if engine.IsCallable(toJSON) {
			if value, ab = engine.Call(a, toJSON, value, []Value{key.Value()}); ab != nil {
				return "", false, ab
			}
		}
	}
	if !s.replacer.IsUndefined() {
		if value, ab = engine.Call(a, s.replacer, engine.ObjectValue(holder), []Value{key.Value(), value}); ab != nil {
			return "", false, ab
		}
	}
	if o := value.AsObject(); o != nil {
		switch o.Kind() {
		case engine.KindNumberWrapper:
			n, ab := engine.ToNumber(a, value)
			if ab != nil {
				return "", false, ab
			}
			value = engine.Number(n)
		case engine.KindStringWrapper:
			if value, ab = engine.ToStringValue(a, value); ab != nil {
				return "", false, ab
			}
		case engine.KindBooleanWrapper:
			value, _ = engine.PrimitiveData(o, engine.KindBooleanWrapper)
		case engine.KindBigIntWrapper:
			value, _ = engine.PrimitiveData(o, engine.KindBigIntWrapper)
		}
	}
	switch {
	case value.IsNull():
		return "null", true, nil
	case value.IsBoolean():
		if value.AsBool() {
			return "true", true, nil
		}
		return "false", true, nil
	case value.IsString():
		return quoteJSONString(value.AsString()), true, nil
	case value.IsNumber():
		n := value.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "null", true, nil
		}
		return engine.NumberToString(n), true, nil
	case value.IsBigInt():
		return "", false, a.Throw(engine.TypeError, engine.MsgBigIntConversion, "JSON string")
	case value.IsObject() && !engine.IsCallable(value):
		isArray, ab := engine.IsArray(a, value)
		if ab != nil {
			return "", false, ab
		}
		if isArray {
			out, ab := s.array(a, value.AsObject())
			return out, ab == nil, ab
		}
		out, ab := s.object(a, value.AsObject())
		return out, ab == nil, ab
	}
	return "", false, nil
}

func (s *jsonSerializer) enter(a *Agent, o *Object) (string, *Completion) {
	if slices.Contains(s.stack, o) {
		return "", a.Throw(engine.TypeError, engine.MsgCyclicStructure)
	}
	s.stack = append(s.stack, o)
	stepback := s.indent
	s.indent += s.gap
	return stepback, nil
}

func (s *jsonSerializer) leave(stepback string) {
	s.stack = s.stack[:len(s.stack)-1]
	s.indent = stepback
}

func (s *jsonSerializer) wrap(open, close string, partial []string, stepback string) string {
	if len(partial) == 0 {
		return open + close
	}
	if s.gap == "" {
		return open + strings.Join(partial, ",") + close
	}
	sep := ",\n" + s.indent
	return open + "\n" + s.indent + strings.Join(partial, sep) + "\n" + stepback + close
}

// object implements SerializeJSONObject.
func (s *jsonSerializer) object(a *Agent, o *Object) (string, *Completion) {
	stepback, ab := s.enter(a, o)
	if ab != nil {
		return "", ab
	}
	defer s.leave(stepback)
	keys := s.propertyList
	if keys == nil {
		names, ab := engine.EnumerableOwnProperties(a, o, engine.EnumerateKeys)
		if ab != nil {
			return "", ab
		}
		for _, n := range names {
			keys = append(keys, engine.StringKey(n.AsString()))
		}
	}
	var partial []string
	for _, k := range keys {
		str, ok, ab := s.property(a, k, o)
		if ab != nil {
			return "", ab
		}
		if !ok {
			continue
		}
		member := quoteJSONString(k.Name()) + ":"
		if s.gap != "" {
			member += " "
		}
		partial = append(partial, member+str)
	}
	return s.wrap("{", "}", partial, stepback), nil
}

// array implements SerializeJSONArray.
func (s *jsonSerializer) array(a *Agent, o *Object) (string, *Completion) {
	stepback, ab := s.enter(a, o)
	if ab != nil {
		return "", ab
	}
	defer s.leave(stepback)
	length, ab := engine.LengthOfArrayLike(a, o)
	if ab != nil {
		return "", ab
	}
	partial := make([]string, 0, length)
	for i := range length {
		str, ok, ab := s.property(a, engine.IndexKey(i), o)
		if ab != nil {
			return "", ab
		}
		if !ok {
			str = "null"
		}
		partial = append(partial, str)
	}
	return s.wrap("[", "]", partial, stepback), nil
}

// quoteJSONString implements QuoteJSONString.
func quoteJSONString(str string) string {
	var sb strings.Builder
	sb.Grow(len(str) + 2)
	sb.WriteByte('"')
	for _, r := range str {
		switch r {
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
