package engine

import (
	"slices"
)

// ModuleRecord is a Synthetic Module Record: a fixed set of export names
// whose values the host sets.
type ModuleRecord struct {
	Realm       *Realm
	Specifier   string
	ExportNames []string
	HostDefined any

	env       *DeclarativeEnvironment
	namespace *Object
}

// CreateSyntheticModule creates a module whose exports start uninitialized.
// Reading an export before SetSyntheticModuleExport is a ReferenceError,
// like reading a binding in its temporal dead zone.
func CreateSyntheticModule(a *Agent, realm *Realm, specifier string, exportNames []string) *ModuleRecord {
	m := &ModuleRecord{Realm: realm, Specifier: specifier, env: NewDeclarativeEnvironment(nil)}
	for _, name := range exportNames {
		if slices.Contains(m.ExportNames, name) {
			continue
		}
		m.ExportNames = append(m.ExportNames, name)
		MustOK(m.env.CreateMutableBinding(a, name, false))
	}
	return m
}

// SetSyntheticModuleExport implements SetSyntheticModuleExport.
func (m *ModuleRecord) SetSyntheticModuleExport(a *Agent, name string, v Value) {
	Assert(slices.Contains(m.ExportNames, name), "module %s has no export %q", m.Specifier, name)
	if m.env.initialized(name) {
		MustOK(m.env.SetMutableBinding(a, name, v, true))
		return
	}
	MustOK(m.env.InitializeBinding(a, name, v))
}

// Namespace returns the module's namespace object, creating it on first use.
func (m *ModuleRecord) Namespace() *Object {
	if m.namespace == nil {
		m.namespace = ModuleNamespaceCreate(m, m.ExportNames)
	}
	return m.namespace
}

// namespaceSlots are the slots of a module namespace exotic object.
type namespaceSlots struct {
	module  *ModuleRecord
	exports []string
}

// ModuleNamespaceCreate implements ModuleNamespaceCreate. Exports are
// sorted by code unit order.
func ModuleNamespaceCreate(m *ModuleRecord, exports []string) *Object {
	sorted := slices.Clone(exports)
	slices.SortFunc(sorted, compareUTF16)
	ns := MakeBasicObject(KindModuleNamespace, namespaceMethods, nil, &namespaceSlots{module: m, exports: sorted})
	ns.extensible = false
	ns.DefineDirect(SymbolKey(SymbolToStringTag), String("Module"), false, false, false)
	return ns
}

// GetModuleNamespace loads a module through the host hook, caches it on
// the realm and returns its namespace object.
func (a *Agent) GetModuleNamespace(realm *Realm, specifier string) (*Object, *Completion) {
	if m, ok := realm.LoadedModules[specifier]; ok {
		return m.Namespace(), nil
	}
	if a.Hooks.LoadModule == nil {
		return nil, a.Throw(TypeError, MsgModuleNotFound, specifier)
	}
	m, err := a.Hooks.LoadModule(a, realm, specifier)
	if err != nil || m == nil {
		return nil, a.Throw(TypeError, MsgModuleNotFound, specifier)
	}
	realm.LoadedModules[specifier] = m
	return m.Namespace(), nil
}

func (s *namespaceSlots) has(k PropertyKey) bool {
	if k.IsSymbol() {
		return false
	}
	_, found := slices.BinarySearchFunc(s.exports, k.name, compareUTF16)
	return found
}

func namespaceGetPrototypeOf(*Agent, *Object) (*Object, *Completion) {
	return nil, nil
}

func namespaceSetPrototypeOf(_ *Agent, _ *Object, proto *Object) (bool, *Completion) {
	return proto == nil, nil
}

func namespaceIsExtensible(*Agent, *Object) (bool, *Completion) {
	return false, nil
}

func namespacePreventExtensions(*Agent, *Object) (bool, *Completion) {
	return true, nil
}

func namespaceGetOwnProperty(a *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	if k.IsSymbol() {
		return OrdinaryGetOwnProperty(o, k), nil
	}
	s := o.slots.(*namespaceSlots)
	if !s.has(k) {
		return nil, nil
	}
	v, ab := namespaceGet(a, o, k, ObjectValue(o))
	if ab != nil {
		return nil, ab
	}
	d := DataDescriptor(v, true, true, false)
	return &d, nil
}

func namespaceDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	if k.IsSymbol() {
		return OrdinaryDefineOwnProperty(a, o, k, desc)
	}
	current, ab := o.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	switch {
	case current == nil:
		return false, nil
	case desc.HasConfigurable && desc.Configurable:
		return false, nil
	case desc.HasEnumerable && !desc.Enumerable:
		return false, nil
	case desc.IsAccessorDescriptor():
		return false, nil
	case desc.HasWritable && !desc.Writable:
		return false, nil
	case desc.HasValue:
		return SameValue(desc.Value, current.Value), nil
	}
	return true, nil
}

func namespaceHasProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	if k.IsSymbol() {
		return OrdinaryHasProperty(a, o, k)
	}
	return o.slots.(*namespaceSlots).has(k), nil
}

func namespaceGet(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion) {
	if k.IsSymbol() {
		return OrdinaryGet(a, o, k, receiver)
	}
	s := o.slots.(*namespaceSlots)
	if !s.has(k) {
		return Undefined, nil
	}
	return s.module.env.GetBindingValue(a, k.name, true)
}

func namespaceSet(*Agent, *Object, PropertyKey, Value, Value) (bool, *Completion) {
	return false, nil
}

func namespaceDelete(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	if k.IsSymbol() {
		return OrdinaryDelete(a, o, k)
	}
	return !o.slots.(*namespaceSlots).has(k), nil
}

func namespaceOwnPropertyKeys(_ *Agent, o *Object) ([]PropertyKey, *Completion) {
	s := o.slots.(*namespaceSlots)
	keys := make([]PropertyKey, 0, len(s.exports)+1)
	for _, name := range s.exports {
		keys = append(keys, StringKey(name))
	}
	for _, k := range o.props.keys() {
		if k.IsSymbol() {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
