package engine

import "math"

var lengthKey = StringKey("length")

// ArrayCreate implements ArrayCreate. A nil proto picks the running realm's
// %Array.prototype%.
func ArrayCreate(a *Agent, length uint64, proto *Object) (*Object, *Completion) {
	if length > math.MaxUint32 {
		return nil, a.Throw(RangeError, MsgInvalidArrayLength)
	}
	if proto == nil {
		proto = a.CurrentRealm().Intrinsic("%Array.prototype%")
	}
	arr := MakeBasicObject(KindArray, arrayMethods, proto, nil)
	arr.props.set(lengthKey, &property{value: Number(float64(length)), writable: true})
	return arr, nil
}

// ArraySpeciesCreate implements ArraySpeciesCreate.
func ArraySpeciesCreate(a *Agent, original *Object, length uint64) (*Object, *Completion) {
	isArray, ab := IsArray(a, ObjectValue(original))
	if ab != nil {
		return nil, ab
	}
	if !isArray {
		return ArrayCreate(a, length, nil)
	}
	c, ab := Get(a, original, StringKey("constructor"))
	if ab != nil {
		return nil, ab
	}
	if IsConstructor(c) {
		thisRealm := a.CurrentRealm()
		realmC, ab := GetFunctionRealm(a, c.AsObject())
		if ab != nil {
			return nil, ab
		}
		if thisRealm != realmC && c.AsObject() == realmC.Intrinsic("%Array%") {
			c = Undefined
		}
	}
	if co := c.AsObject(); co != nil {
		c, ab = Get(a, co, SymbolKey(SymbolSpecies))
		if ab != nil {
			return nil, ab
		}
		if c.IsNull() {
			c = Undefined
		}
	}
	if c.IsUndefined() {
		return ArrayCreate(a, length, nil)
	}
	if !IsConstructor(c) {
		return nil, a.Throw(TypeError, MsgNotConstructor, c.String())
	}
	v, ab := Construct(a, c.AsObject(), []Value{Number(float64(length))}, nil)
	if ab != nil {
		return nil, ab
	}
	return v.AsObject(), nil
}

// arrayLength reads the stored length of an Array exotic object.
func arrayLength(arr *Object) uint32 {
	p, _ := arr.props.get(lengthKey)
	return uint32(p.value.num)
}

// arraySetLengthDirect overwrites the stored length of an array the engine
// just built.
func arraySetLengthDirect(arr *Object, length uint32) {
	p, _ := arr.props.get(lengthKey)
	p.value = Number(float64(length))
}

func arrayDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	if !k.IsSymbol() && k.name == "length" {
		return ArraySetLength(a, o, desc)
	}
	index, ok := k.ArrayIndex()
	if !ok {
		return OrdinaryDefineOwnProperty(a, o, k, desc)
	}
	lengthProp, _ := o.props.get(lengthKey)
	length := uint32(lengthProp.value.num)
	if index >= length && !lengthProp.writable {
		return false, nil
	}
	succeeded := Must(OrdinaryDefineOwnProperty(a, o, k, desc))
	if !succeeded {
		return false, nil
	}
	if index >= length {
		lengthProp.value = Number(float64(index) + 1)
	}
	return true, nil
}

// ArraySetLength implements ArraySetLength.
func ArraySetLength(a *Agent, arr *Object, desc PropertyDescriptor) (bool, *Completion) {
	if !desc.HasValue {
		return OrdinaryDefineOwnProperty(a, arr, lengthKey, desc)
	}
	newLenDesc := desc
	newLen, ab := ToUint32(a, desc.Value)
	if ab != nil {
		return false, ab
	}
	numberLen, ab := ToNumber(a, desc.Value)
	if ab != nil {
		return false, ab
	}
	if float64(newLen) != numberLen {
		return false, a.Throw(RangeError, MsgInvalidArrayLength)
	}
	newLenDesc.Value = Number(float64(newLen))
	oldLenDesc := OrdinaryGetOwnProperty(arr, lengthKey)
	oldLen := uint32(oldLenDesc.Value.num)
	if newLen >= oldLen {
		return OrdinaryDefineOwnProperty(a, arr, lengthKey, newLenDesc)
	}
	if !oldLenDesc.Writable {
		return false, nil
	}
	newWritable := true
	if newLenDesc.HasWritable && !newLenDesc.Writable {
		newWritable = false
		newLenDesc.Writable = true
	}
	if ok := Must(OrdinaryDefineOwnProperty(a, arr, lengthKey, newLenDesc)); !ok {
		return false, nil
	}
	keys := arr.props.keys()
	for i := len(keys) - 1; i >= 0; i-- {
		index, ok := keys[i].ArrayIndex()
		if !ok || index < newLen {
			continue
		}
		if deleted := Must(arr.Delete(a, keys[i])); !deleted {
			newLenDesc.Value = Number(float64(index) + 1)
			if !newWritable {
				newLenDesc.Writable = false
			}
			Must(OrdinaryDefineOwnProperty(a, arr, lengthKey, newLenDesc))
			return false, nil
		}
	}
	if !newWritable {
		Must(OrdinaryDefineOwnProperty(a, arr, lengthKey, PropertyDescriptor{Writable: false, HasWritable: true}))
	}
	return true, nil
}
