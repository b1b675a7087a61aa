package engine

// ArgumentsSlots backs an arguments object. mapped is nil for unmapped
// arguments objects; for mapped ones it aliases indices to parameter
// bindings in env.
type ArgumentsSlots struct {
	env    Environment
	mapped map[PropertyKey]string
}

// CreateUnmappedArgumentsObject implements CreateUnmappedArgumentsObject.
func (a *Agent) CreateUnmappedArgumentsObject(args []Value) *Object {
	realm := a.CurrentRealm()
	obj := newObjectWithSlots(KindArguments, realm.Intrinsic("%Object.prototype%"), &ArgumentsSlots{})
	obj.DefineDirect(lengthKey, Number(float64(len(args))), true, false, true)
	for i, v := range args {
		obj.DefineDirect(IndexKey(int64(i)), v, true, true, true)
	}
	obj.DefineDirect(SymbolKey(SymbolIterator), ObjectValue(realm.Intrinsic("%Array.prototype.values%")), true, false, true)
	thrower := realm.Intrinsic("%ThrowTypeError%")
	obj.DefineAccessorDirect(StringKey("callee"), thrower, thrower, false, false)
	return obj
}

// CreateMappedArgumentsObject implements CreateMappedArgumentsObject.
func (a *Agent) CreateMappedArgumentsObject(f *Object, formals []string, args []Value, env Environment) *Object {
	realm := a.CurrentRealm()
	slots := &ArgumentsSlots{env: env, mapped: make(map[PropertyKey]string)}
	obj := MakeBasicObject(KindArguments, argumentsMethods, realm.Intrinsic("%Object.prototype%"), slots)
	for i, v := range args {
		obj.DefineDirect(IndexKey(int64(i)), v, true, true, true)
	}
	obj.DefineDirect(lengthKey, Number(float64(len(args))), true, false, true)
	seen := make(map[string]bool)
	for index := len(formals) - 1; index >= 0; index-- {
		name := formals[index]
		if seen[name] {
			continue
		}
		seen[name] = true
		if index < len(args) {
			slots.mapped[IndexKey(int64(index))] = name
		}
	}
	obj.DefineDirect(SymbolKey(SymbolIterator), ObjectValue(realm.Intrinsic("%Array.prototype.values%")), true, false, true)
	obj.DefineDirect(StringKey("callee"), ObjectValue(f), true, false, true)
	return obj
}

func (s *ArgumentsSlots) lookup(k PropertyKey) (string, bool) {
	if s.mapped == nil {
		return "", false
	}
	name, ok := s.mapped[k]
	return name, ok
}

func argumentsGetOwnProperty(a *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	desc := OrdinaryGetOwnProperty(o, k)
	if desc == nil {
		return nil, nil
	}
	s := o.slots.(*ArgumentsSlots)
	if name, ok := s.lookup(k); ok {
		desc.Value = Must(s.env.GetBindingValue(a, name, false))
	}
	return desc, nil
}

func argumentsDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	s := o.slots.(*ArgumentsSlots)
	name, isMapped := s.lookup(k)
	newArgDesc := desc
	if isMapped && desc.IsDataDescriptor() && !desc.HasValue && desc.HasWritable && !desc.Writable {
		newArgDesc.Value = Must(s.env.GetBindingValue(a, name, false))
		newArgDesc.HasValue = true
	}
	allowed := Must(OrdinaryDefineOwnProperty(a, o, k, newArgDesc))
	if !allowed {
		return false, nil
	}
	if isMapped {
		if desc.IsAccessorDescriptor() {
			delete(s.mapped, k)
		} else {
			if desc.HasValue {
				MustOK(s.env.SetMutableBinding(a, name, desc.Value, false))
			}
			if desc.HasWritable && !desc.Writable {
				delete(s.mapped, k)
			}
		}
	}
	return true, nil
}

func argumentsGet(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion) {
	s := o.slots.(*ArgumentsSlots)
	if name, ok := s.lookup(k); ok {
		return Must(s.env.GetBindingValue(a, name, false)), nil
	}
	return OrdinaryGet(a, o, k, receiver)
}

func argumentsSet(a *Agent, o *Object, k PropertyKey, v Value, receiver Value) (bool, *Completion) {
	s := o.slots.(*ArgumentsSlots)
	if receiver.AsObject() == o {
		if name, ok := s.lookup(k); ok {
			MustOK(s.env.SetMutableBinding(a, name, v, false))
		}
	}
	return OrdinarySet(a, o, k, v, receiver)
}

func argumentsDelete(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	s := o.slots.(*ArgumentsSlots)
	result, ab := OrdinaryDelete(a, o, k)
	if ab != nil {
		return false, ab
	}
	if result {
		if _, ok := s.lookup(k); ok {
			delete(s.mapped, k)
		}
	}
	return result, nil
}
