package engine

import "fmt"

// ProxySlots are [[ProxyTarget]] and [[ProxyHandler]]. A revoked proxy has
// both set to nil.
type ProxySlots struct {
	Target  *Object
	Handler *Object
}

// ProxyCreate implements ProxyCreate.
func ProxyCreate(a *Agent, target, handler Value) (*Object, *Completion) {
	t, h := target.AsObject(), handler.AsObject()
	if t == nil || h == nil {
		return nil, a.Throw(TypeError, MsgProxyTargetNotObject)
	}
	methods := proxyMethods
	if t.methods.Call != nil {
		methods = proxyCallableMethods
		if t.methods.Construct != nil {
			methods = proxyConstructorMethods
		}
	}
	return MakeBasicObject(KindProxy, methods, nil, &ProxySlots{Target: t, Handler: h}), nil
}

// RevokeProxy clears the proxy's target and handler.
func RevokeProxy(p *Object) {
	ps := p.slots.(*ProxySlots)
	ps.Target = nil
	ps.Handler = nil
}

// proxyTrap validates the handler and looks up a trap. A nil trap means
// the operation forwards to the target.
func (a *Agent) proxyTrap(o *Object, name string) (target, handler *Object, trap Value, ab *Completion) {
	ps := o.slots.(*ProxySlots)
	if ps.Handler == nil {
		return nil, nil, Undefined, a.Throw(TypeError, MsgProxyRevoked, name)
	}
	handler, target = ps.Handler, ps.Target
	trap, ab = GetMethod(a, ObjectValue(handler), StringKey(name))
	return target, handler, trap, ab
}

func (a *Agent) proxyViolation(trap, format string, args ...any) *Completion {
	return a.Throw(TypeError, MsgProxyInvariant, trap, fmt.Sprintf(format, args...))
}

func proxyGetPrototypeOf(a *Agent, o *Object) (*Object, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "getPrototypeOf")
	if ab != nil {
		return nil, ab
	}
	if trap.IsUndefined() {
		return target.GetPrototypeOf(a)
	}
	handlerProto, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target)})
	if ab != nil {
		return nil, ab
	}
	if !handlerProto.IsObject() && !handlerProto.IsNull() {
		return nil, a.proxyViolation("getPrototypeOf", "trap returned neither object nor null")
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return nil, ab
	}
	if extensible {
		return handlerProto.AsObject(), nil
	}
	targetProto, ab := target.GetPrototypeOf(a)
	if ab != nil {
		return nil, ab
	}
	if handlerProto.AsObject() != targetProto {
		return nil, a.proxyViolation("getPrototypeOf", "proxy target is non-extensible but the trap did not return its actual prototype")
	}
	return targetProto, nil
}

func proxySetPrototypeOf(a *Agent, o *Object, v *Object) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "setPrototypeOf")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.SetPrototypeOf(a, v)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), ObjectValue(v)})
	if ab != nil {
		return false, ab
	}
	if !ToBoolean(result) {
		return false, nil
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return false, ab
	}
	if extensible {
		return true, nil
	}
	targetProto, ab := target.GetPrototypeOf(a)
	if ab != nil {
		return false, ab
	}
	if targetProto != v {
		return false, a.proxyViolation("setPrototypeOf", "trap returned truish for setting a new prototype on the non-extensible proxy target")
	}
	return true, nil
}

func proxyIsExtensible(a *Agent, o *Object) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "isExtensible")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return IsExtensible(a, target)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target)})
	if ab != nil {
		return false, ab
	}
	targetResult, ab := IsExtensible(a, target)
	if ab != nil {
		return false, ab
	}
	if ToBoolean(result) != targetResult {
		return false, a.proxyViolation("isExtensible", "trap result does not reflect extensibility of proxy target (which is '%v')", targetResult)
	}
	return targetResult, nil
}

func proxyPreventExtensions(a *Agent, o *Object) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "preventExtensions")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.PreventExtensions(a)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target)})
	if ab != nil {
		return false, ab
	}
	ok := ToBoolean(result)
	if ok {
		extensible, ab := IsExtensible(a, target)
		if ab != nil {
			return false, ab
		}
		if extensible {
			return false, a.proxyViolation("preventExtensions", "trap returned truish but the proxy target is extensible")
		}
	}
	return ok, nil
}

func proxyGetOwnProperty(a *Agent, o *Object, k PropertyKey) (*PropertyDescriptor, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "getOwnPropertyDescriptor")
	if ab != nil {
		return nil, ab
	}
	if trap.IsUndefined() {
		return target.GetOwnProperty(a, k)
	}
	trapResultObj, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value()})
	if ab != nil {
		return nil, ab
	}
	if !trapResultObj.IsObject() && !trapResultObj.IsUndefined() {
		return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap returned neither object nor undefined for property '%s'", k)
	}
	targetDesc, ab := target.GetOwnProperty(a, k)
	if ab != nil {
		return nil, ab
	}
	if trapResultObj.IsUndefined() {
		if targetDesc == nil {
			return nil, nil
		}
		if !targetDesc.Configurable {
			return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap returned undefined for property '%s' which is non-configurable in the proxy target", k)
		}
		extensible, ab := IsExtensible(a, target)
		if ab != nil {
			return nil, ab
		}
		if !extensible {
			return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap returned undefined for property '%s' which exists in the non-extensible proxy target", k)
		}
		return nil, nil
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return nil, ab
	}
	resultDesc, ab := ToPropertyDescriptor(a, trapResultObj)
	if ab != nil {
		return nil, ab
	}
	resultDesc.Complete()
	if !IsCompatiblePropertyDescriptor(extensible, resultDesc, targetDesc) {
		return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap returned descriptor for property '%s' that is incompatible with the existing property in the proxy target", k)
	}
	if !resultDesc.Configurable {
		if targetDesc == nil || targetDesc.Configurable {
			return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap reported non-configurability for property '%s' which is either non-existent or configurable in the proxy target", k)
		}
		if resultDesc.HasWritable && !resultDesc.Writable && targetDesc.Writable {
			return nil, a.proxyViolation("getOwnPropertyDescriptor", "trap reported non-configurable and writable for property '%s' which is non-configurable, non-writable in the proxy target", k)
		}
	}
	return &resultDesc, nil
}

func proxyDefineOwnProperty(a *Agent, o *Object, k PropertyKey, desc PropertyDescriptor) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "defineProperty")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.DefineOwnProperty(a, k, desc)
	}
	descObj := FromPropertyDescriptor(a, &desc)
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value(), descObj})
	if ab != nil {
		return false, ab
	}
	if !ToBoolean(result) {
		return false, nil
	}
	targetDesc, ab := target.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return false, ab
	}
	settingConfigFalse := desc.HasConfigurable && !desc.Configurable
	if targetDesc == nil {
		if !extensible {
			return false, a.proxyViolation("defineProperty", "trap returned truish for adding property '%s' to the non-extensible proxy target", k)
		}
		if settingConfigFalse {
			return false, a.proxyViolation("defineProperty", "trap returned truish for defining non-configurable property '%s' which is non-existent in the proxy target", k)
		}
		return true, nil
	}
	if !IsCompatiblePropertyDescriptor(extensible, desc, targetDesc) {
		return false, a.proxyViolation("defineProperty", "trap returned truish for adding property '%s' that is incompatible with the existing property in the proxy target", k)
	}
	if settingConfigFalse && targetDesc.Configurable {
		return false, a.proxyViolation("defineProperty", "trap returned truish for defining non-configurable property '%s' which is configurable in the proxy target", k)
	}
	if targetDesc.IsDataDescriptor() && !targetDesc.Configurable && targetDesc.Writable {
		if desc.HasWritable && !desc.Writable {
			return false, a.proxyViolation("defineProperty", "trap returned truish for defining non-configurable property '%s' which cannot be non-writable, unless there exists a corresponding non-configurable, non-writable own property of the target object", k)
		}
	}
	return true, nil
}

func proxyHasProperty(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "has")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.HasProperty(a, k)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value()})
	if ab != nil {
		return false, ab
	}
	found := ToBoolean(result)
	if !found {
		targetDesc, ab := target.GetOwnProperty(a, k)
		if ab != nil {
			return false, ab
		}
		if targetDesc != nil {
			if !targetDesc.Configurable {
				return false, a.proxyViolation("has", "trap returned falsish for property '%s' which exists in the proxy target as non-configurable", k)
			}
			extensible, ab := IsExtensible(a, target)
			if ab != nil {
				return false, ab
			}
			if !extensible {
				return false, a.proxyViolation("has", "trap returned falsish for property '%s' but the proxy target is not extensible", k)
			}
		}
	}
	return found, nil
}

func proxyGet(a *Agent, o *Object, k PropertyKey, receiver Value) (Value, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "get")
	if ab != nil {
		return Undefined, ab
	}
	if trap.IsUndefined() {
		return target.Get(a, k, receiver)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value(), receiver})
	if ab != nil {
		return Undefined, ab
	}
	targetDesc, ab := target.GetOwnProperty(a, k)
	if ab != nil {
		return Undefined, ab
	}
	if targetDesc != nil && !targetDesc.Configurable {
		if targetDesc.IsDataDescriptor() && !targetDesc.Writable && !SameValue(result, targetDesc.Value) {
			return Undefined, a.proxyViolation("get", "property '%s' is a read-only and non-configurable data property on the proxy target but the proxy did not return its actual value", k)
		}
		if targetDesc.IsAccessorDescriptor() && targetDesc.Get.IsUndefined() && !result.IsUndefined() {
			return Undefined, a.proxyViolation("get", "property '%s' is a non-configurable accessor property on the proxy target and does not have a getter function, but the trap did not return 'undefined'", k)
		}
	}
	return result, nil
}

func proxySet(a *Agent, o *Object, k PropertyKey, v Value, receiver Value) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "set")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.Set(a, k, v, receiver)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value(), v, receiver})
	if ab != nil {
		return false, ab
	}
	if !ToBoolean(result) {
		return false, nil
	}
	targetDesc, ab := target.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	if targetDesc != nil && !targetDesc.Configurable {
		if targetDesc.IsDataDescriptor() && !targetDesc.Writable && !SameValue(v, targetDesc.Value) {
			return false, a.proxyViolation("set", "trap returned truish for property '%s' which exists in the proxy target as a non-configurable and non-writable data property with a different value", k)
		}
		if targetDesc.IsAccessorDescriptor() && targetDesc.Set.IsUndefined() {
			return false, a.proxyViolation("set", "trap returned truish for property '%s' which exists in the proxy target as a non-configurable and non-writable accessor property without a setter", k)
		}
	}
	return true, nil
}

func proxyDelete(a *Agent, o *Object, k PropertyKey) (bool, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "deleteProperty")
	if ab != nil {
		return false, ab
	}
	if trap.IsUndefined() {
		return target.Delete(a, k)
	}
	result, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), k.Value()})
	if ab != nil {
		return false, ab
	}
	if !ToBoolean(result) {
		return false, nil
	}
	targetDesc, ab := target.GetOwnProperty(a, k)
	if ab != nil {
		return false, ab
	}
	if targetDesc == nil {
		return true, nil
	}
	if !targetDesc.Configurable {
		return false, a.proxyViolation("deleteProperty", "trap returned truish for property '%s' which is non-configurable in the proxy target", k)
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return false, ab
	}
	if !extensible {
		return false, a.proxyViolation("deleteProperty", "trap returned truish for property '%s' but the proxy target is non-extensible", k)
	}
	return true, nil
}

func proxyOwnPropertyKeys(a *Agent, o *Object) ([]PropertyKey, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "ownKeys")
	if ab != nil {
		return nil, ab
	}
	if trap.IsUndefined() {
		return target.OwnPropertyKeys(a)
	}
	trapResultArray, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target)})
	if ab != nil {
		return nil, ab
	}
	list, ab := CreateListFromArrayLike(a, trapResultArray, true)
	if ab != nil {
		return nil, ab
	}
	trapResult := make([]PropertyKey, len(list))
	seen := make(map[PropertyKey]bool, len(list))
	for i, v := range list {
		k := Must(ToPropertyKey(a, v))
		if seen[k] {
			return nil, a.proxyViolation("ownKeys", "trap returned duplicate entries")
		}
		seen[k] = true
		trapResult[i] = k
	}
	extensible, ab := IsExtensible(a, target)
	if ab != nil {
		return nil, ab
	}
	targetKeys, ab := target.OwnPropertyKeys(a)
	if ab != nil {
		return nil, ab
	}
	var configurable, nonconfigurable []PropertyKey
	for _, k := range targetKeys {
		desc, ab := target.GetOwnProperty(a, k)
		if ab != nil {
			return nil, ab
		}
		if desc != nil && !desc.Configurable {
			nonconfigurable = append(nonconfigurable, k)
		} else {
			configurable = append(configurable, k)
		}
	}
	if extensible && len(nonconfigurable) == 0 {
		return trapResult, nil
	}
	unchecked := seen
	for _, k := range nonconfigurable {
		if !unchecked[k] {
			return nil, a.proxyViolation("ownKeys", "trap result did not include '%s'", k)
		}
		delete(unchecked, k)
	}
	if extensible {
		return trapResult, nil
	}
	for _, k := range configurable {
		if !unchecked[k] {
			return nil, a.proxyViolation("ownKeys", "trap result did not include '%s'", k)
		}
		delete(unchecked, k)
	}
	if len(unchecked) != 0 {
		return nil, a.proxyViolation("ownKeys", "trap returned extra keys but proxy target is non-extensible")
	}
	return trapResult, nil
}

func proxyCall(a *Agent, o *Object, this Value, args []Value) (Value, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "apply")
	if ab != nil {
		return Undefined, ab
	}
	if trap.IsUndefined() {
		return Call(a, ObjectValue(target), this, args)
	}
	argArray := CreateArrayFromList(a, args)
	return Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), this, ObjectValue(argArray)})
}

func proxyConstruct(a *Agent, o *Object, args []Value, newTarget *Object) (Value, *Completion) {
	target, handler, trap, ab := a.proxyTrap(o, "construct")
	if ab != nil {
		return Undefined, ab
	}
	if trap.IsUndefined() {
		return Construct(a, target, args, newTarget)
	}
	argArray := CreateArrayFromList(a, args)
	newObj, ab := Call(a, trap, ObjectValue(handler), []Value{ObjectValue(target), ObjectValue(argArray), ObjectValue(newTarget)})
	if ab != nil {
		return Undefined, ab
	}
	if !newObj.IsObject() {
		return Undefined, a.proxyViolation("construct", "trap returned non-object ('%s')", newObj.String())
	}
	return newObj, nil
}
