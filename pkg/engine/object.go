package engine

import "fmt"

// ObjectKind is the closed tag selecting an object's internal slots and its
// internal-method table.
type ObjectKind uint8

const (
	KindOrdinary ObjectKind = iota
	KindImmutablePrototype
	KindFunction
	KindBoundFunction
	KindArray
	KindArguments
	KindStringWrapper
	KindNumberWrapper
	KindBooleanWrapper
	KindSymbolWrapper
	KindBigIntWrapper
	KindError
	KindArrayBuffer
	KindTypedArray
	KindModuleNamespace
	KindProxy
	KindPromise
	KindGenerator
	KindAsyncGenerator
	KindRegExp
	KindIterator
)

var kindNames = [...]string{
	KindOrdinary:           "Object",
	KindImmutablePrototype: "Object",
	KindFunction:           "Function",
	KindBoundFunction:      "BoundFunction",
	KindArray:              "Array",
	KindArguments:          "Arguments",
	KindStringWrapper:      "String",
	KindNumberWrapper:      "Number",
	KindBooleanWrapper:     "Boolean",
	KindSymbolWrapper:      "Symbol",
	KindBigIntWrapper:      "BigInt",
	KindError:              "Error",
	KindArrayBuffer:        "ArrayBuffer",
	KindTypedArray:         "TypedArray",
	KindModuleNamespace:    "Module",
	KindProxy:              "Proxy",
	KindPromise:            "Promise",
	KindGenerator:          "Generator",
	KindAsyncGenerator:     "AsyncGenerator",
	KindRegExp:             "RegExp",
	KindIterator:           "Iterator",
}

func (k ObjectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// InternalMethods is the essential internal-method table. Every kind starts
// from the ordinary table and overrides a subset. Call and Construct are nil
// for objects that are not callable or not constructors.
type InternalMethods struct {
	GetPrototypeOf    func(a *Agent, o *Object) (*Object, *Completion)
	SetPrototypeOf    func(a *Agent, o *Object, proto *Object) (bool, *Completion)
	IsExtensible      func(a *Agent, o *Object) (bool, *Completion)
	PreventExtensions func(a *Agent, o *Object) (bool, *Completion)
	GetOwnProperty    func(a *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion)
	DefineOwnProperty func(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion)
	HasProperty       func(a *Agent, o *Object, k PropertyKey) (bool, *Completion)
	Get               func(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion)
	Set               func(a *Agent, o *Object, k PropertyKey, v Value, receiver Value) (bool, *Completion)
	Delete            func(a *Agent, o *Object, k PropertyKey) (bool, *Completion)
	OwnPropertyKeys   func(a *Agent, o *Object) ([]PropertyKey, *Completion)
	Call              func(a *Agent, o *Object, this Value, args []Value) (Value, *Completion)
	Construct         func(a *Agent, o *Object, args []Value, newTarget *Object) (Value, *Completion)

	// storedOwn is set when GetOwnProperty reads plain storage, and
	// ordinaryProto when GetPrototypeOf is the ordinary one.
	storedOwn     bool
	ordinaryProto bool
}

func ordinaryMethodTable() InternalMethods {
	return InternalMethods{
		GetPrototypeOf:    ordinaryGetPrototypeOfMethod,
		SetPrototypeOf:    ordinarySetPrototypeOfMethod,
		IsExtensible:      ordinaryIsExtensibleMethod,
		PreventExtensions: ordinaryPreventExtensionsMethod,
		GetOwnProperty:    ordinaryGetOwnPropertyMethod,
		DefineOwnProperty: ordinaryDefineOwnPropertyMethod,
		HasProperty:       OrdinaryHasProperty,
		Get:               OrdinaryGet,
		Set:               OrdinarySet,
		Delete:            OrdinaryDelete,
		OwnPropertyKeys:   ordinaryOwnPropertyKeysMethod,
		storedOwn:         true,
		ordinaryProto:     true,
	}
}

// derive copies the ordinary table and applies overrides.
func derive(overrides func(m *InternalMethods)) *InternalMethods {
	m := ordinaryMethodTable()
	if overrides != nil {
		overrides(&m)
	}
	return &m
}

// The tables are built in init so that their function values may reach any
// part of the engine without forming a package initialization cycle.
var (
	ordinaryMethods         *InternalMethods
	immutableProtoMethods   *InternalMethods
	functionMethods         *InternalMethods
	constructorMethods      *InternalMethods
	boundFunctionMethods    *InternalMethods
	boundConstructorMethods *InternalMethods
	arrayMethods            *InternalMethods
	argumentsMethods        *InternalMethods
	stringMethods           *InternalMethods
	typedArrayMethods       *InternalMethods
	namespaceMethods        *InternalMethods
	proxyMethods            *InternalMethods
	proxyCallableMethods    *InternalMethods
	proxyConstructorMethods *InternalMethods
)

func init() {
	ordinaryMethods = derive(nil)
	immutableProtoMethods = derive(func(m *InternalMethods) {
		m.SetPrototypeOf = immutablePrototypeSetPrototypeOf
	})
	functionMethods = derive(func(m *InternalMethods) {
		m.Call = functionCall
	})
	constructorMethods = derive(func(m *InternalMethods) {
		m.Call = functionCall
		m.Construct = functionConstruct
	})
	boundFunctionMethods = derive(func(m *InternalMethods) {
		m.Call = boundFunctionCall
	})
	boundConstructorMethods = derive(func(m *InternalMethods) {
		m.Call = boundFunctionCall
		m.Construct = boundFunctionConstruct
	})
	arrayMethods = derive(func(m *InternalMethods) {
		m.DefineOwnProperty = arrayDefineOwnProperty
	})
	argumentsMethods = derive(func(m *InternalMethods) {
		m.GetOwnProperty = argumentsGetOwnProperty
		m.storedOwn = false
		m.DefineOwnProperty = argumentsDefineOwnProperty
		m.Get = argumentsGet
		m.Set = argumentsSet
		m.Delete = argumentsDelete
	})
	stringMethods = derive(func(m *InternalMethods) {
		m.GetOwnProperty = stringGetOwnProperty
		m.storedOwn = false
		m.DefineOwnProperty = stringDefineOwnProperty
		m.OwnPropertyKeys = stringOwnPropertyKeys
	})
	typedArrayMethods = derive(func(m *InternalMethods) {
		m.GetOwnProperty = typedArrayGetOwnProperty
		m.storedOwn = false
		m.HasProperty = typedArrayHasProperty
		m.DefineOwnProperty = typedArrayDefineOwnProperty
		m.Get = typedArrayGet
		m.Set = typedArraySet
		m.Delete = typedArrayDelete
		m.OwnPropertyKeys = typedArrayOwnPropertyKeys
	})
	namespaceMethods = &InternalMethods{
		GetPrototypeOf:    namespaceGetPrototypeOf,
		SetPrototypeOf:    namespaceSetPrototypeOf,
		IsExtensible:      namespaceIsExtensible,
		PreventExtensions: namespacePreventExtensions,
		GetOwnProperty:    namespaceGetOwnProperty,
		DefineOwnProperty: namespaceDefineOwnProperty,
		HasProperty:       namespaceHasProperty,
		Get:               namespaceGet,
		Set:               namespaceSet,
		Delete:            namespaceDelete,
		OwnPropertyKeys:   namespaceOwnPropertyKeys,
	}
	proxyMethods = &InternalMethods{
		GetPrototypeOf:    proxyGetPrototypeOf,
		SetPrototypeOf:    proxySetPrototypeOf,
		IsExtensible:      proxyIsExtensible,
		PreventExtensions: proxyPreventExtensions,
		GetOwnProperty:    proxyGetOwnProperty,
		DefineOwnProperty: proxyDefineOwnProperty,
		HasProperty:       proxyHasProperty,
		Get:               proxyGet,
		Set:               proxySet,
		Delete:            proxyDelete,
		OwnPropertyKeys:   proxyOwnPropertyKeys,
	}
	callable := *proxyMethods
	callable.Call = proxyCall
	proxyCallableMethods = &callable
	constructor := callable
	constructor.Construct = proxyConstruct
	proxyConstructorMethods = &constructor
}

// Object is an ECMAScript object: ordered own properties, a prototype, the
// extensible flag, a kind tag and its slot payload.
type Object struct {
	kind       ObjectKind
	methods    *InternalMethods
	proto      *Object
	extensible bool
	props      propertyMap
	slots      any
	private    []*PrivateElement
}

// MakeBasicObject allocates an extensible object with the given table.
func MakeBasicObject(kind ObjectKind, methods *InternalMethods, proto *Object, slots any) *Object {
	if methods == nil {
		methods = ordinaryMethods
	}
	return &Object{kind: kind, methods: methods, proto: proto, extensible: true, slots: slots}
}

// OrdinaryObjectCreate creates an ordinary object with the given prototype;
// nil means null.
func OrdinaryObjectCreate(proto *Object) *Object {
	return MakeBasicObject(KindOrdinary, ordinaryMethods, proto, nil)
}

// newObjectWithSlots creates an object that uses the ordinary methods but
// carries a slot payload (errors, promises, generators, ...).
func newObjectWithSlots(kind ObjectKind, proto *Object, slots any) *Object {
	return MakeBasicObject(kind, ordinaryMethods, proto, slots)
}

func (o *Object) Kind() ObjectKind          { return o.kind }
func (o *Object) Slots() any                { return o.slots }
func (o *Object) Methods() *InternalMethods { return o.methods }

// Value wraps o as a language value.
func (o *Object) Value() Value { return ObjectValue(o) }

func (o *Object) describe() string {
	if o.kind == KindFunction {
		if fs, ok := o.slots.(*FunctionSlots); ok && fs.InitialName.IsString() {
			return "function " + fs.InitialName.str
		}
		return "function"
	}
	if o.kind == KindProxy {
		return "[object Proxy]"
	}
	return "[object " + o.kind.String() + "]"
}

// --- internal method dispatch ---

func (o *Object) GetPrototypeOf(a *Agent) (*Object, *Completion) {
	return o.methods.GetPrototypeOf(a, o)
}

func (o *Object) SetPrototypeOf(a *Agent, proto *Object) (bool, *Completion) {
	return o.methods.SetPrototypeOf(a, o, proto)
}

func (o *Object) IsExtensible(a *Agent) (bool, *Completion) {
	return o.methods.IsExtensible(a, o)
}

func (o *Object) PreventExtensions(a *Agent) (bool, *Completion) {
	return o.methods.PreventExtensions(a, o)
}

func (o *Object) GetOwnProperty(a *Agent, k PropertyKey) (*PropertyDescriptor, *Completion) {
	return o.methods.GetOwnProperty(a, o, k)
}

func (o *Object) DefineOwnProperty(a *Agent, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	return o.methods.DefineOwnProperty(a, o, k, desc)
}

func (o *Object) HasProperty(a *Agent, k PropertyKey) (bool, *Completion) {
	return o.methods.HasProperty(a, o, k)
}

func (o *Object) Get(a *Agent, k PropertyKey, receiver Value) (Value, *Completion) {
	return o.methods.Get(a, o, k, receiver)
}

func (o *Object) Set(a *Agent, k PropertyKey, v Value, receiver Value) (bool, *Completion) {
	return o.methods.Set(a, o, k, v, receiver)
}

func (o *Object) Delete(a *Agent, k PropertyKey) (bool, *Completion) {
	return o.methods.Delete(a, o, k)
}

func (o *Object) OwnPropertyKeys(a *Agent) ([]PropertyKey, *Completion) {
	return o.methods.OwnPropertyKeys(a, o)
}

// --- ordinary internal methods ---

func ordinaryGetPrototypeOfMethod(_ *Agent, o *Object) (*Object, *Completion) {
	return o.proto, nil
}

func ordinarySetPrototypeOfMethod(a *Agent, o *Object, proto *Object) (bool, *Completion) {
	return OrdinarySetPrototypeOf(a, o, proto), nil
}

func ordinaryIsExtensibleMethod(_ *Agent, o *Object) (bool, *Completion) {
	return o.extensible, nil
}

func ordinaryPreventExtensionsMethod(_ *Agent, o *Object) (bool, *Completion) {
	o.extensible = false
	return true, nil
}

func ordinaryGetOwnPropertyMethod(_ *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	return OrdinaryGetOwnProperty(o, k), nil
}

func ordinaryDefineOwnPropertyMethod(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	return OrdinaryDefineOwnProperty(a, o, k, desc)
}

func ordinaryOwnPropertyKeysMethod(_ *Agent, o *Object) ([]PropertyKey, *Completion) {
	return o.props.keys(), nil
}

// OrdinarySetPrototypeOf implements the ordinary [[SetPrototypeOf]],
// including the cycle check that stops at exotic [[GetPrototypeOf]].
func OrdinarySetPrototypeOf(a *Agent, o *Object, v *Object) bool {
	if v == o.proto {
		return true
	}
	if !o.extensible {
		return false
	}
	for p := v; p != nil; {
		if p == o {
			return false
		}
		if !p.methods.ordinaryProto {
			break
		}
		p = p.proto
	}
	a.beforeMutation(o, PropertyKey{})
	o.proto = v
	return true
}

// OrdinaryGetOwnProperty returns a copy of the stored property or nil.
func OrdinaryGetOwnProperty(o *Object, k PropertyKey) *PropertyDescriptor {
	p, ok := o.props.get(k)
	if !ok {
		return nil
	}
	return p.descriptor()
}

// OrdinaryDefineOwnProperty implements the ordinary [[DefineOwnProperty]].
func OrdinaryDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	current, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	extensible, ab := o.IsExtensible(a)
	if ab != nil {
		return false, ab
	}
	a.beforeMutation(o, k)
	return ValidateAndApplyPropertyDescriptor(o, k, extensible, desc, current), nil
}

// IsCompatiblePropertyDescriptor validates desc against current without
// applying it.
func IsCompatiblePropertyDescriptor(extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	return ValidateAndApplyPropertyDescriptor(nil, PropertyKey{}, extensible, desc, current)
}

// ValidateAndApplyPropertyDescriptor checks that desc may be applied on top of
// current and, when o is non-nil, writes the result into o's storage.
func ValidateAndApplyPropertyDescriptor(o *Object, k PropertyKey, extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	if current == nil {
		if !extensible {
			return false
		}
		if o == nil {
			return true
		}
		p := &property{enumerable: desc.HasEnumerable && desc.Enumerable, configurable: desc.HasConfigurable && desc.Configurable}
		if desc.IsAccessorDescriptor() {
			p.accessor = true
			if desc.HasGet {
				p.getter = desc.Get.AsObject()
			}
			if desc.HasSet {
				p.setter = desc.Set.AsObject()
			}
		} else {
			p.value = Undefined
			if desc.HasValue {
				p.value = desc.Value
			}
			p.writable = desc.HasWritable && desc.Writable
		}
		o.props.set(k, p)
		return true
	}

	if !current.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return false
		}
		if desc.HasEnumerable && desc.Enumerable != current.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessorDescriptor() != current.IsAccessorDescriptor() {
			return false
		}
		if current.IsAccessorDescriptor() {
			if desc.HasGet && !SameValue(desc.Get, current.Get) {
				return false
			}
			if desc.HasSet && !SameValue(desc.Set, current.Set) {
				return false
			}
		} else if !current.Writable {
			if desc.HasWritable && desc.Writable {
				return false
			}
			if desc.HasValue && !SameValue(desc.Value, current.Value) {
				return false
			}
		}
	}

	if o == nil {
		return true
	}
	p, ok := o.props.get(k)
	if !ok {
		// The current descriptor came from an exotic view; materialize it.
		p = &property{}
		*p = *propertyFromDescriptor(current)
		o.props.set(k, p)
	}
	switch {
	case current.IsDataDescriptor() && desc.IsAccessorDescriptor():
		p.accessor = true
		p.value = Undefined
		p.writable = false
		p.getter, p.setter = nil, nil
		if desc.HasGet {
			p.getter = desc.Get.AsObject()
		}
		if desc.HasSet {
			p.setter = desc.Set.AsObject()
		}
	case current.IsAccessorDescriptor() && desc.IsDataDescriptor():
		p.accessor = false
		p.getter, p.setter = nil, nil
		p.value = Undefined
		if desc.HasValue {
			p.value = desc.Value
		}
		p.writable = desc.HasWritable && desc.Writable
	default:
		if desc.HasValue {
			p.value = desc.Value
		}
		if desc.HasWritable {
			p.writable = desc.Writable
		}
		if desc.HasGet {
			p.getter = desc.Get.AsObject()
		}
		if desc.HasSet {
			p.setter = desc.Set.AsObject()
		}
	}
	if desc.HasEnumerable {
		p.enumerable = desc.Enumerable
	}
	if desc.HasConfigurable {
		p.configurable = desc.Configurable
	}
	return true
}

func propertyFromDescriptor(d *PropertyDescriptor) *property {
	p := &property{enumerable: d.Enumerable, configurable: d.Configurable}
	if d.IsAccessorDescriptor() {
		p.accessor = true
		p.getter = d.Get.AsObject()
		p.setter = d.Set.AsObject()
	} else {
		p.value = d.Value
		p.writable = d.Writable
	}
	return p
}

// OrdinaryHasProperty implements the ordinary [[HasProperty]].
func OrdinaryHasProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	desc, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	if desc != nil {
		return true, nil
	}
	parent, ab := o.GetPrototypeOf(a)
	if ab != nil {
		return false, ab
	}
	if parent == nil {
		return false, nil
	}
	return parent.HasProperty(a, k)
}

// OrdinaryGet implements the ordinary [[Get]].
func OrdinaryGet(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion) {
	var desc *PropertyDescriptor
	if o.methods.storedOwn {
		if p, ok := o.props.get(k); ok {
			if !p.accessor {
				return p.value, nil
			}
			if p.getter == nil {
				return Undefined, nil
			}
			return Call(a, ObjectValue(p.getter), receiver, nil)
		}
	} else {
		var ab *Completion
		desc, ab = o.GetOwnProperty(a, k)
		if ab != nil {
			return Undefined, ab
		}
	}
	if desc == nil {
		parent, ab := o.GetPrototypeOf(a)
		if ab != nil {
			return Undefined, ab
		}
		if parent == nil {
			return Undefined, nil
		}
		return parent.Get(a, k, receiver)
	}
	if desc.IsDataDescriptor() {
		return desc.Value, nil
	}
	if desc.Get.IsUndefined() {
		return Undefined, nil
	}
	return Call(a, desc.Get, receiver, nil)
}

// OrdinarySet implements the ordinary [[Set]].
func OrdinarySet(a *Agent, o *Object, k PropertyKey, v Value, receiver Value) (bool, *Completion) {
	ownDesc, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	return OrdinarySetWithOwnDescriptor(a, o, k, v, receiver, ownDesc)
}

// OrdinarySetWithOwnDescriptor implements the shared tail of [[Set]].
func OrdinarySetWithOwnDescriptor(a *Agent, o *Object, k PropertyKey, v Value, receiver Value, ownDesc *PropertyDescriptor) (bool, *Completion) {
	if ownDesc == nil {
		parent, ab := o.GetPrototypeOf(a)
		if ab != nil {
			return false, ab
		}
		if parent != nil {
			return parent.Set(a, k, v, receiver)
		}
		d := DataDescriptor(Undefined, true, true, true)
		ownDesc = &d
	}
	if ownDesc.IsDataDescriptor() {
		if !ownDesc.Writable {
			return false, nil
		}
		recv := receiver.AsObject()
		if recv == nil {
			return false, nil
		}
		existing, ab := recv.GetOwnProperty(a, k)
		if ab != nil {
			return false, ab
		}
		if existing != nil {
			if existing.IsAccessorDescriptor() {
				return false, nil
			}
			if !existing.Writable {
				return false, nil
			}
			return recv.DefineOwnProperty(a, k, PropertyDescriptor{Value: v, HasValue: true})
		}
		return CreateDataProperty(a, recv, k, v)
	}
	if ownDesc.Set.IsUndefined() {
		return false, nil
	}
	if _, ab := Call(a, ownDesc.Set, receiver, []Value{v}); ab != nil {
		return false, ab
	}
	return true, nil
}

// OrdinaryDelete implements the ordinary [[Delete]].
func OrdinaryDelete(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	desc, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	if desc == nil {
		return true, nil
	}
	if desc.Configurable {
		a.beforeMutation(o, k)
		o.props.delete(k)
		return true, nil
	}
	return false, nil
}

// immutablePrototypeSetPrototypeOf backs %Object.prototype%: the prototype
// may only be "set" to its current value.
func immutablePrototypeSetPrototypeOf(a *Agent, o *Object, v *Object) (bool, *Completion) {
	current, ab := o.GetPrototypeOf(a)
	if ab != nil {
		return false, ab
	}
	return current == v, nil
}

// DefineDirect installs a data property on an object under construction
// without going through [[DefineOwnProperty]]. Only for bootstrapping
// objects the engine itself just created.
func (o *Object) DefineDirect(k PropertyKey, v Value, writable, enumerable, configurable bool) {
	o.props.set(k, &property{value: v, writable: writable, enumerable: enumerable, configurable: configurable})
}

// DefineAccessorDirect is DefineDirect for accessor properties.
func (o *Object) DefineAccessorDirect(k PropertyKey, get, set *Object, enumerable, configurable bool) {
	o.props.set(k, &property{accessor: true, getter: get, setter: set, enumerable: enumerable, configurable: configurable})
}
