package engine

import (
	"sort"
	"strconv"
)

// PropertyKey is a String or a Symbol. The zero value is the empty string
// key.
type PropertyKey struct {
	name string
	sym  *Symbol
}

func StringKey(s string) PropertyKey { return PropertyKey{name: s} }

func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{sym: s} }

// IndexKey builds the canonical key for an integer index.
func IndexKey(i int64) PropertyKey {
	return PropertyKey{name: strconv.FormatInt(i, 10)}
}

func (k PropertyKey) IsSymbol() bool { return k.sym != nil }

// Name is the string form of a string key; it is empty for symbols.
func (k PropertyKey) Name() string { return k.name }

func (k PropertyKey) Symbol() *Symbol { return k.sym }

// Value converts the key back to a language value.
func (k PropertyKey) Value() Value {
	if k.sym != nil {
		return SymbolValue(k.sym)
	}
	return String(k.name)
}

func (k PropertyKey) String() string {
	if k.sym != nil {
		return k.sym.DescriptiveString()
	}
	return k.name
}

// ArrayIndex reports whether k is an array index: a canonical numeric string
// for an integer in [0, 2^32-2].
func (k PropertyKey) ArrayIndex() (uint32, bool) {
	if k.sym != nil {
		return 0, false
	}
	return parseArrayIndex(k.name)
}

func parseArrayIndex(s string) (uint32, bool) {
	n := len(s)
	if n == 0 || n > 10 {
		return 0, false
	}
	if s[0] == '0' {
		return 0, n == 1
	}
	var v uint64
	for i := 0; i < n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	if v >= 4294967295 {
		return 0, false
	}
	return uint32(v), true
}

// PropertyDescriptor is the partial record used as input to
// [[DefineOwnProperty]] and as output of [[GetOwnProperty]]. Each field has a
// matching Has flag; absent fields are ignored.
type PropertyDescriptor struct {
	Value        Value
	Get          Value // Undefined or a callable Object
	Set          Value
	Writable     bool
	Enumerable   bool
	Configurable bool

	HasValue        bool
	HasGet          bool
	HasSet          bool
	HasWritable     bool
	HasEnumerable   bool
	HasConfigurable bool
}

// DataDescriptor is a complete data property descriptor.
func DataDescriptor(v Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Value: v, Writable: writable, Enumerable: enumerable, Configurable: configurable,
		HasValue: true, HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	}
}

// AccessorDescriptor is a complete accessor property descriptor. nil getter
// or setter stands for undefined.
func AccessorDescriptor(get, set *Object, enumerable, configurable bool) PropertyDescriptor {
	d := PropertyDescriptor{
		Get: Undefined, Set: Undefined, Enumerable: enumerable, Configurable: configurable,
		HasGet: true, HasSet: true, HasEnumerable: true, HasConfigurable: true,
	}
	if get != nil {
		d.Get = ObjectValue(get)
	}
	if set != nil {
		d.Set = ObjectValue(set)
	}
	return d
}

func (d *PropertyDescriptor) IsAccessorDescriptor() bool {
	return d != nil && (d.HasGet || d.HasSet)
}

func (d *PropertyDescriptor) IsDataDescriptor() bool {
	return d != nil && (d.HasValue || d.HasWritable)
}

func (d *PropertyDescriptor) IsGenericDescriptor() bool {
	return d != nil && !d.IsAccessorDescriptor() && !d.IsDataDescriptor()
}

// CompletePropertyDescriptor fills absent fields with their defaults.
func (d *PropertyDescriptor) Complete() {
	if d.IsGenericDescriptor() || d.IsDataDescriptor() {
		if !d.HasValue {
			d.Value, d.HasValue = Undefined, true
		}
		if !d.HasWritable {
			d.Writable, d.HasWritable = false, true
		}
	} else {
		if !d.HasGet {
			d.Get, d.HasGet = Undefined, true
		}
		if !d.HasSet {
			d.Set, d.HasSet = Undefined, true
		}
	}
	if !d.HasEnumerable {
		d.Enumerable, d.HasEnumerable = false, true
	}
	if !d.HasConfigurable {
		d.Configurable, d.HasConfigurable = false, true
	}
}

// property is a stored own property. It is a data property or an accessor
// property, never both: accessor selects which half is meaningful.
type property struct {
	accessor     bool
	value        Value
	getter       *Object
	setter       *Object
	writable     bool
	enumerable   bool
	configurable bool
}

func (p *property) descriptor() *PropertyDescriptor {
	if p.accessor {
		d := AccessorDescriptor(p.getter, p.setter, p.enumerable, p.configurable)
		return &d
	}
	d := DataDescriptor(p.value, p.writable, p.enumerable, p.configurable)
	return &d
}

// propertyMap keeps own properties and their creation order.
type propertyMap struct {
	index map[PropertyKey]*property
	order []PropertyKey
}

func (m *propertyMap) get(k PropertyKey) (*property, bool) {
	p, ok := m.index[k]
	return p, ok
}

func (m *propertyMap) set(k PropertyKey, p *property) {
	if m.index == nil {
		m.index = make(map[PropertyKey]*property)
	}
	if _, exists := m.index[k]; !exists {
		m.order = append(m.order, k)
	}
	m.index[k] = p
}

func (m *propertyMap) delete(k PropertyKey) {
	if _, ok := m.index[k]; !ok {
		return
	}
	delete(m.index, k)
	for i, key := range m.order {
		if key == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *propertyMap) len() int { return len(m.order) }

// keys returns own keys in OrdinaryOwnPropertyKeys order: array indices
// ascending, then strings in creation order, then symbols in creation order.
func (m *propertyMap) keys() []PropertyKey {
	type indexed struct {
		idx uint32
		key PropertyKey
	}
	var indices []indexed
	var strs, syms []PropertyKey
	for _, k := range m.order {
		if k.sym != nil {
			syms = append(syms, k)
		} else if i, ok := k.ArrayIndex(); ok {
			indices = append(indices, indexed{i, k})
		} else {
			strs = append(strs, k)
		}
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a].idx < indices[b].idx })
	out := make([]PropertyKey, 0, len(m.order))
	for _, ik := range indices {
		out = append(out, ik.key)
	}
	out = append(out, strs...)
	return append(out, syms...)
}
