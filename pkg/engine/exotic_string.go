package engine

import "math"

// StringCreate implements StringCreate.
func StringCreate(value string, proto *Object) *Object {
	s := MakeBasicObject(KindStringWrapper, stringMethods, proto, String(value))
	s.props.set(lengthKey, &property{value: Number(float64(StringLength(value)))})
	return s
}

// stringGetOwnPropertyIndex implements StringGetOwnProperty: the read-only
// index properties of a String exotic object.
func stringGetOwnPropertyIndex(o *Object, k PropertyKey) *PropertyDescriptor {
	if k.IsSymbol() {
		return nil
	}
	index, ok := CanonicalNumericIndexString(k.name)
	if !ok || !IsIntegralNumber(index) || (index == 0 && math.Signbit(index)) {
		return nil
	}
	str := o.slots.(Value).str
	unit, ok := CodeUnitAt(str, int(index))
	if !ok || index < 0 {
		return nil
	}
	d := DataDescriptor(String(fromUTF16([]uint16{unit})), false, true, false)
	return &d
}

func stringGetOwnProperty(_ *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	if desc := OrdinaryGetOwnProperty(o, k); desc != nil {
		return desc, nil
	}
	return stringGetOwnPropertyIndex(o, k), nil
}

func stringDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	if current := stringGetOwnPropertyIndex(o, k); current != nil {
		return IsCompatiblePropertyDescriptor(o.extensible, desc, current), nil
	}
	return OrdinaryDefineOwnProperty(a, o, k, desc)
}

func stringOwnPropertyKeys(_ *Agent, o *Object) ([]PropertyKey, *Completion) {
	n := StringLength(o.slots.(Value).str)
	own := o.props.keys()
	keys := make([]PropertyKey, 0, n+len(own))
	for i := 0; i < n; i++ {
		keys = append(keys, IndexKey(int64(i)))
	}
	return append(keys, own...), nil
}
