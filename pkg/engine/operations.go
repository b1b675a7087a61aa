package engine

import (
	"math"
	"math/big"
)

// IsCallable reports whether v has a [[Call]] internal method.
func IsCallable(v Value) bool {
	o := v.AsObject()
	return o != nil && o.methods.Call != nil
}

// IsConstructor reports whether v has a [[Construct]] internal method.
func IsConstructor(v Value) bool {
	o := v.AsObject()
	return o != nil && o.methods.Construct != nil
}

// IsArray implements IsArray, looking through proxies.
func IsArray(a *Agent, v Value) (bool, *Completion) {
	o := v.AsObject()
	if o == nil {
		return false, nil
	}
	if o.kind == KindArray {
		return true, nil
	}
	if o.kind == KindProxy {
		ps := o.slots.(*ProxySlots)
		if ps.Handler == nil {
			return false, a.Throw(TypeError, MsgProxyRevoked, "IsArray")
		}
		return IsArray(a, ObjectValue(ps.Target))
	}
	return false, nil
}

func IsExtensible(a *Agent, o *Object) (bool, *Completion) {
	return o.IsExtensible(a)
}

// Get implements Get(O, P).
func Get(a *Agent, o *Object, k PropertyKey) (Value, *Completion) {
	return o.Get(a, k, ObjectValue(o))
}

// GetV implements GetV(V, P) for possibly primitive V.
func GetV(a *Agent, v Value, k PropertyKey) (Value, *Completion) {
	o, ab := ToObject(a, v)
	if ab != nil {
		return Undefined, ab
	}
	return o.Get(a, k, v)
}

// Set implements Set(O, P, V, Throw).
func Set(a *Agent, o *Object, k PropertyKey, v Value, throw bool) *Completion {
	ok, ab := o.Set(a, k, v, ObjectValue(o))
	if ab != nil {
		return ab
	}
	if !ok && throw {
		return a.Throw(TypeError, MsgCannotAssignReadOnly, k.String(), o.describe())
	}
	return nil
}

// CreateDataProperty implements CreateDataProperty.
func CreateDataProperty(a *Agent, o *Object, k PropertyKey, v Value) (bool, *Completion) {
	return o.DefineOwnProperty(a, k, DataDescriptor(v, true, true, true))
}

// CreateDataPropertyOrThrow implements CreateDataPropertyOrThrow.
func CreateDataPropertyOrThrow(a *Agent, o *Object, k PropertyKey, v Value) *Completion {
	ok, ab := CreateDataProperty(a, o, k, v)
	if ab != nil {
		return ab
	}
	if !ok {
		return a.Throw(TypeError, MsgCannotDefineProperty, k.String())
	}
	return nil
}

// CreateMethodProperty defines a non-enumerable writable configurable
// property.
func CreateMethodProperty(a *Agent, o *Object, k PropertyKey, v Value) {
	Must(o.DefineOwnProperty(a, k, DataDescriptor(v, true, false, true)))
}

// DefinePropertyOrThrow implements DefinePropertyOrThrow.
func DefinePropertyOrThrow(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) *Completion {
	ok, ab := o.DefineOwnProperty(a, k, desc)
	if ab != nil {
		return ab
	}
	if !ok {
		return a.Throw(TypeError, MsgCannotRedefineProperty, k.String())
	}
	return nil
}

// DeletePropertyOrThrow implements DeletePropertyOrThrow.
func DeletePropertyOrThrow(a *Agent, o *Object, k PropertyKey) *Completion {
	ok, ab := o.Delete(a, k)
	if ab != nil {
		return ab
	}
	if !ok {
		return a.Throw(TypeError, MsgCannotDeleteProperty, k.String(), o.describe())
	}
	return nil
}

// GetMethod returns undefined for a nullish property and throws when the
// property is not callable.
func GetMethod(a *Agent, v Value, k PropertyKey) (Value, *Completion) {
	f, ab := GetV(a, v, k)
	if ab != nil {
		return Undefined, ab
	}
	if f.IsNullish() {
		return Undefined, nil
	}
	if !IsCallable(f) {
		return Undefined, a.Throw(TypeError, MsgNotCallable, k.String())
	}
	return f, nil
}

func HasProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	return o.HasProperty(a, k)
}

func HasOwnProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	desc, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	return desc != nil, nil
}

// Call implements Call(F, V, argumentsList).
func Call(a *Agent, f Value, this Value, args []Value) (Value, *Completion) {
	o := f.AsObject()
	if o == nil || o.methods.Call == nil {
		return Undefined, a.Throw(TypeError, MsgNotCallable, describeCallee(f))
	}
	return o.methods.Call(a, o, this, args)
}

func describeCallee(f Value) string {
	if f.IsString() {
		return "\"" + f.str + "\""
	}
	return f.String()
}

// Construct implements Construct(F, argumentsList, newTarget). A nil
// newTarget defaults to f.
func Construct(a *Agent, f *Object, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil {
		newTarget = f
	}
	if f.methods.Construct == nil {
		return Undefined, a.Throw(TypeError, MsgNotConstructor, f.describe())
	}
	return f.methods.Construct(a, f, args, newTarget)
}

// IntegrityLevel is the level argument of SetIntegrityLevel.
type IntegrityLevel uint8

const (
	IntegritySealed IntegrityLevel = iota
	IntegrityFrozen
)

// SetIntegrityLevel implements SetIntegrityLevel.
func SetIntegrityLevel(a *Agent, o *Object, level IntegrityLevel) (bool, *Completion) {
	status, ab := o.PreventExtensions(a)
	if ab != nil || !status {
		return false, ab
	}
	keys, ab := o.OwnPropertyKeys(a)
	if ab != nil {
		return false, ab
	}
	for _, k := range keys {
		desc := PropertyDescriptor{Configurable: false, HasConfigurable: true}
		if level == IntegrityFrozen {
			current, ab := o.GetOwnProperty(a, k)
			if ab != nil {
				return false, ab
			}
			if current == nil {
				continue
			}
			if !current.IsAccessorDescriptor() {
				desc.Writable, desc.HasWritable = false, true
			}
		}
		if ab := DefinePropertyOrThrow(a, o, k, desc); ab != nil {
			return false, ab
		}
	}
	return true, nil
}

// TestIntegrityLevel implements TestIntegrityLevel.
func TestIntegrityLevel(a *Agent, o *Object, level IntegrityLevel) (bool, *Completion) {
	extensible, ab := o.IsExtensible(a)
	if ab != nil || extensible {
		return false, ab
	}
	keys, ab := o.OwnPropertyKeys(a)
	if ab != nil {
		return false, ab
	}
	for _, k := range keys {
		current, ab := o.GetOwnProperty(a, k)
		if ab != nil {
			return false, ab
		}
		if current == nil {
			continue
		}
		if current.Configurable {
			return false, nil
		}
		if level == IntegrityFrozen && current.IsDataDescriptor() && current.Writable {
			return false, nil
		}
	}
	return true, nil
}

// CreateArrayFromList implements CreateArrayFromList.
func CreateArrayFromList(a *Agent, elements []Value) *Object {
	arr := Must(ArrayCreate(a, 0, nil))
	for i, v := range elements {
		arr.props.set(IndexKey(int64(i)), &property{value: v, writable: true, enumerable: true, configurable: true})
	}
	arraySetLengthDirect(arr, uint32(len(elements)))
	return arr
}

// LengthOfArrayLike implements LengthOfArrayLike.
func LengthOfArrayLike(a *Agent, o *Object) (int64, *Completion) {
	v, ab := Get(a, o, StringKey("length"))
	if ab != nil {
		return 0, ab
	}
	return ToLength(a, v)
}

// CreateListFromArrayLike implements CreateListFromArrayLike. When
// propertyKeysOnly is set, elements must be strings or symbols.
func CreateListFromArrayLike(a *Agent, v Value, propertyKeysOnly bool) ([]Value, *Completion) {
	o := v.AsObject()
	if o == nil {
		return nil, a.Throw(TypeError, MsgNotObject, "CreateListFromArrayLike argument")
	}
	n, ab := LengthOfArrayLike(a, o)
	if ab != nil {
		return nil, ab
	}
	list := make([]Value, 0, min(n, 1<<16))
	for i := int64(0); i < n; i++ {
		next, ab := Get(a, o, IndexKey(i))
		if ab != nil {
			return nil, ab
		}
		if propertyKeysOnly && !next.IsString() && !next.IsSymbol() {
			return nil, a.Throw(TypeError, MsgInvalidPropertyKey, next.String())
		}
		list = append(list, next)
	}
	return list, nil
}

// Invoke implements Invoke(V, P, args).
func Invoke(a *Agent, v Value, k PropertyKey, args []Value) (Value, *Completion) {
	f, ab := GetV(a, v, k)
	if ab != nil {
		return Undefined, ab
	}
	return Call(a, f, v, args)
}

// OrdinaryHasInstance implements OrdinaryHasInstance.
func OrdinaryHasInstance(a *Agent, c Value, o Value) (bool, *Completion) {
	if !IsCallable(c) {
		return false, nil
	}
	co := c.AsObject()
	if co.kind == KindBoundFunction {
		bs := co.slots.(*BoundFunctionSlots)
		return InstanceofOperator(a, o, ObjectValue(bs.TargetFunction))
	}
	obj := o.AsObject()
	if obj == nil {
		return false, nil
	}
	p, ab := Get(a, co, StringKey("prototype"))
	if ab != nil {
		return false, ab
	}
	proto := p.AsObject()
	if proto == nil {
		return false, a.Throw(TypeError, MsgPrototypeNotObject, "instanceof")
	}
	for {
		obj, ab = obj.GetPrototypeOf(a)
		if ab != nil {
			return false, ab
		}
		if obj == nil {
			return false, nil
		}
		if obj == proto {
			return true, nil
		}
	}
}

// InstanceofOperator implements InstanceofOperator(V, target).
func InstanceofOperator(a *Agent, v Value, target Value) (bool, *Completion) {
	if !target.IsObject() {
		return false, a.Throw(TypeError, MsgInstanceofNotObject)
	}
	instOfHandler, ab := GetMethod(a, target, SymbolKey(SymbolHasInstance))
	if ab != nil {
		return false, ab
	}
	if !instOfHandler.IsUndefined() {
		r, ab := Call(a, instOfHandler, target, []Value{v})
		if ab != nil {
			return false, ab
		}
		return ToBoolean(r), nil
	}
	if !IsCallable(target) {
		return false, a.Throw(TypeError, MsgInstanceofNotCallable)
	}
	return OrdinaryHasInstance(a, target, v)
}

// SpeciesConstructor implements SpeciesConstructor.
func SpeciesConstructor(a *Agent, o *Object, defaultCtor *Object) (*Object, *Completion) {
	c, ab := Get(a, o, StringKey("constructor"))
	if ab != nil {
		return nil, ab
	}
	if c.IsUndefined() {
		return defaultCtor, nil
	}
	co := c.AsObject()
	if co == nil {
		return nil, a.Throw(TypeError, MsgNotObject, "constructor")
	}
	s, ab := Get(a, co, SymbolKey(SymbolSpecies))
	if ab != nil {
		return nil, ab
	}
	if s.IsNullish() {
		return defaultCtor, nil
	}
	if IsConstructor(s) {
		return s.AsObject(), nil
	}
	return nil, a.Throw(TypeError, MsgNotConstructor, "species")
}

// EnumerableKind selects the output of EnumerableOwnProperties.
type EnumerableKind uint8

const (
	EnumerateKeys EnumerableKind = iota
	EnumerateValues
	EnumerateEntries
)

// EnumerableOwnProperties implements EnumerableOwnProperties.
func EnumerableOwnProperties(a *Agent, o *Object, kind EnumerableKind) ([]Value, *Completion) {
	keys, ab := o.OwnPropertyKeys(a)
	if ab != nil {
		return nil, ab
	}
	var out []Value
	for _, k := range keys {
		if k.IsSymbol() {
			continue
		}
		desc, ab := o.GetOwnProperty(a, k)
		if ab != nil {
			return nil, ab
		}
		if desc == nil || !desc.Enumerable {
			continue
		}
		if kind == EnumerateKeys {
			out = append(out, k.Value())
			continue
		}
		v, ab := Get(a, o, k)
		if ab != nil {
			return nil, ab
		}
		if kind == EnumerateValues {
			out = append(out, v)
		} else {
			out = append(out, ObjectValue(CreateArrayFromList(a, []Value{k.Value(), v})))
		}
	}
	return out, nil
}

// GetPrototypeFromConstructor reads constructor.prototype, falling back to
// the named intrinsic of the constructor's realm.
func GetPrototypeFromConstructor(a *Agent, ctor *Object, intrinsicDefault string) (*Object, *Completion) {
	p, ab := Get(a, ctor, StringKey("prototype"))
	if ab != nil {
		return nil, ab
	}
	if po := p.AsObject(); po != nil {
		return po, nil
	}
	realm, ab := GetFunctionRealm(a, ctor)
	if ab != nil {
		return nil, ab
	}
	return realm.Intrinsic(intrinsicDefault), nil
}

// OrdinaryCreateFromConstructor creates an object whose prototype comes from
// ctor, with the given kind and slots.
func OrdinaryCreateFromConstructor(a *Agent, ctor *Object, intrinsicDefault string, kind ObjectKind, slots any) (*Object, *Completion) {
	proto, ab := GetPrototypeFromConstructor(a, ctor, intrinsicDefault)
	if ab != nil {
		return nil, ab
	}
	return newObjectWithSlots(kind, proto, slots), nil
}

// GetFunctionRealm implements GetFunctionRealm.
func GetFunctionRealm(a *Agent, o *Object) (*Realm, *Completion) {
	switch s := o.slots.(type) {
	case *FunctionSlots:
		if s.Realm != nil {
			return s.Realm, nil
		}
	case *BoundFunctionSlots:
		return GetFunctionRealm(a, s.TargetFunction)
	case *ProxySlots:
		if s.Handler == nil {
			return nil, a.Throw(TypeError, MsgProxyRevoked, "GetFunctionRealm")
		}
		return GetFunctionRealm(a, s.Target)
	}
	return a.CurrentRealm(), nil
}

// FromPropertyDescriptor converts a descriptor to an ordinary object; nil
// converts to undefined.
func FromPropertyDescriptor(a *Agent, d *PropertyDescriptor) Value {
	if d == nil {
		return Undefined
	}
	o := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	set := func(name string, v Value) {
		Must(CreateDataProperty(a, o, StringKey(name), v))
	}
	if d.HasValue {
		set("value", d.Value)
	}
	if d.HasWritable {
		set("writable", Bool(d.Writable))
	}
	if d.HasGet {
		set("get", d.Get)
	}
	if d.HasSet {
		set("set", d.Set)
	}
	if d.HasEnumerable {
		set("enumerable", Bool(d.Enumerable))
	}
	if d.HasConfigurable {
		set("configurable", Bool(d.Configurable))
	}
	return ObjectValue(o)
}

// ToPropertyDescriptor implements ToPropertyDescriptor. A descriptor that
// mixes accessor and data fields is rejected with a TypeError.
func ToPropertyDescriptor(a *Agent, v Value) (PropertyDescriptor, *Completion) {
	var d PropertyDescriptor
	o := v.AsObject()
	if o == nil {
		return d, a.Throw(TypeError, MsgDescriptorNotObject, v.String())
	}
	field := func(name string) (Value, bool, *Completion) {
		has, ab := o.HasProperty(a, StringKey(name))
		if ab != nil || !has {
			return Undefined, false, ab
		}
		val, ab := Get(a, o, StringKey(name))
		return val, true, ab
	}
	if val, has, ab := field("enumerable"); ab != nil {
		return d, ab
	} else if has {
		d.Enumerable, d.HasEnumerable = ToBoolean(val), true
	}
	if val, has, ab := field("configurable"); ab != nil {
		return d, ab
	} else if has {
		d.Configurable, d.HasConfigurable = ToBoolean(val), true
	}
	if val, has, ab := field("value"); ab != nil {
		return d, ab
	} else if has {
		d.Value, d.HasValue = val, true
	}
	if val, has, ab := field("writable"); ab != nil {
		return d, ab
	} else if has {
		d.Writable, d.HasWritable = ToBoolean(val), true
	}
	if val, has, ab := field("get"); ab != nil {
		return d, ab
	} else if has {
		if !val.IsUndefined() && !IsCallable(val) {
			return d, a.Throw(TypeError, MsgGetterNotCallable, val.String())
		}
		d.Get, d.HasGet = val, true
	}
	if val, has, ab := field("set"); ab != nil {
		return d, ab
	} else if has {
		if !val.IsUndefined() && !IsCallable(val) {
			return d, a.Throw(TypeError, MsgSetterNotCallable, val.String())
		}
		d.Set, d.HasSet = val, true
	}
	if (d.HasGet || d.HasSet) && (d.HasValue || d.HasWritable) {
		return d, a.Throw(TypeError, MsgInvalidDescriptor)
	}
	return d, nil
}

// CopyDataProperties implements CopyDataProperties for object spread and
// rest patterns.
func CopyDataProperties(a *Agent, target *Object, source Value, excluded []PropertyKey) *Completion {
	if source.IsNullish() {
		return nil
	}
	from := Must(ToObject(a, source))
	keys, ab := from.OwnPropertyKeys(a)
	if ab != nil {
		return ab
	}
outer:
	for _, k := range keys {
		for _, e := range excluded {
			if e == k {
				continue outer
			}
		}
		desc, ab := from.GetOwnProperty(a, k)
		if ab != nil {
			return ab
		}
		if desc == nil || !desc.Enumerable {
			continue
		}
		v, ab := Get(a, from, k)
		if ab != nil {
			return ab
		}
		Must(CreateDataProperty(a, target, k, v))
	}
	return nil
}

// IsLooselyEqual implements ==.
func IsLooselyEqual(a *Agent, x, y Value) (bool, *Completion) {
	if x.typ == y.typ {
		return IsStrictlyEqual(x, y), nil
	}
	if x.IsNullish() && y.IsNullish() {
		return true, nil
	}
	switch {
	case x.IsNumber() && y.IsString():
		return x.num == StringToNumber(y.str), nil
	case x.IsString() && y.IsNumber():
		return StringToNumber(x.str) == y.num, nil
	case x.IsBigInt() && y.IsString():
		n, ok := StringToBigInt(y.str)
		if !ok {
			return false, nil
		}
		return x.AsBigInt().Cmp(n) == 0, nil
	case x.IsString() && y.IsBigInt():
		return IsLooselyEqual(a, y, x)
	case x.IsBoolean():
		return IsLooselyEqual(a, Number(x.num), y)
	case y.IsBoolean():
		return IsLooselyEqual(a, x, Number(y.num))
	case (x.IsString() || x.IsNumeric() || x.IsSymbol()) && y.IsObject():
		py, ab := ToPrimitive(a, y, HintDefault)
		if ab != nil {
			return false, ab
		}
		return IsLooselyEqual(a, x, py)
	case x.IsObject() && (y.IsString() || y.IsNumeric() || y.IsSymbol()):
		px, ab := ToPrimitive(a, x, HintDefault)
		if ab != nil {
			return false, ab
		}
		return IsLooselyEqual(a, px, y)
	case x.IsBigInt() && y.IsNumber():
		return bigIntEqualsNumber(x.AsBigInt(), y.num), nil
	case x.IsNumber() && y.IsBigInt():
		return bigIntEqualsNumber(y.AsBigInt(), x.num), nil
	}
	return false, nil
}

func bigIntEqualsNumber(b *big.Int, n float64) bool {
	if !IsIntegralNumber(n) {
		return false
	}
	return compareBigIntNumber(b, n) == 0
}

// compareBigIntNumber returns -1, 0, 1 comparing b with finite or infinite
// n. n must not be NaN.
func compareBigIntNumber(b *big.Int, n float64) int {
	if math.IsInf(n, 1) {
		return -1
	}
	if math.IsInf(n, -1) {
		return 1
	}
	bf := new(big.Float).SetInt(b)
	return bf.Cmp(big.NewFloat(n))
}

// IsLessThan implements IsLessThan. The second result is false when the
// comparison is undefined (a NaN was involved).
func IsLessThan(a *Agent, x, y Value, leftFirst bool) (bool, bool, *Completion) {
	var px, py Value
	var ab *Completion
	if leftFirst {
		if px, ab = ToPrimitive(a, x, HintNumber); ab != nil {
			return false, false, ab
		}
		if py, ab = ToPrimitive(a, y, HintNumber); ab != nil {
			return false, false, ab
		}
	} else {
		if py, ab = ToPrimitive(a, y, HintNumber); ab != nil {
			return false, false, ab
		}
		if px, ab = ToPrimitive(a, x, HintNumber); ab != nil {
			return false, false, ab
		}
	}
	if px.IsString() && py.IsString() {
		return compareUTF16(px.str, py.str) < 0, true, nil
	}
	if px.IsBigInt() && py.IsString() {
		ny, ok := StringToBigInt(py.str)
		if !ok {
			return false, false, nil
		}
		return px.AsBigInt().Cmp(ny) < 0, true, nil
	}
	if px.IsString() && py.IsBigInt() {
		nx, ok := StringToBigInt(px.str)
		if !ok {
			return false, false, nil
		}
		return nx.Cmp(py.AsBigInt()) < 0, true, nil
	}
	nx, ab := ToNumeric(a, px)
	if ab != nil {
		return false, false, ab
	}
	ny, ab := ToNumeric(a, py)
	if ab != nil {
		return false, false, ab
	}
	switch {
	case nx.IsNumber() && ny.IsNumber():
		if math.IsNaN(nx.num) || math.IsNaN(ny.num) {
			return false, false, nil
		}
		return nx.num < ny.num, true, nil
	case nx.IsBigInt() && ny.IsBigInt():
		return nx.AsBigInt().Cmp(ny.AsBigInt()) < 0, true, nil
	case nx.IsBigInt():
		if math.IsNaN(ny.num) {
			return false, false, nil
		}
		return compareBigIntNumber(nx.AsBigInt(), ny.num) < 0, true, nil
	default:
		if math.IsNaN(nx.num) {
			return false, false, nil
		}
		return compareBigIntNumber(ny.AsBigInt(), nx.num) > 0, true, nil
	}
}

// compareUTF16 orders strings by UTF-16 code units.
func compareUTF16(x, y string) int {
	ux, uy := toUTF16(x), toUTF16(y)
	for i := 0; i < len(ux) && i < len(uy); i++ {
		if ux[i] != uy[i] {
			if ux[i] < uy[i] {
				return -1
			}
			return 1
		}
	}
	return len(ux) - len(uy)
}
