package engine

// Reference is a Reference Record. Exactly one of env, base (property
// reference) or unresolvable describes the base; private is set for private
// references.
type Reference struct {
	env          Environment
	base         Value
	unresolvable bool
	name         PropertyKey
	private      *PrivateName
	strict       bool
	thisValue    Value
	hasThis      bool
}

// NewPropertyReference builds a property reference on base.
func NewPropertyReference(base Value, name PropertyKey, strict bool) *Reference {
	return &Reference{base: base, name: name, strict: strict}
}

// IsPropertyReference reports whether the base is a value.
func (r *Reference) IsPropertyReference() bool {
	return !r.unresolvable && r.env == nil
}

func (r *Reference) IsUnresolvable() bool { return r.unresolvable }
func (r *Reference) IsSuper() bool        { return r.hasThis }
func (r *Reference) IsPrivate() bool      { return r.private != nil }
func (r *Reference) Name() PropertyKey    { return r.name }
func (r *Reference) Base() Value          { return r.base }

// GetValue implements GetValue.
func (a *Agent) GetValue(r *Reference) (Value, *Completion) {
	if r.unresolvable {
		return Undefined, a.Throw(ReferenceError, MsgNotDefined, r.name.name)
	}
	if r.IsPropertyReference() {
		if r.private != nil {
			baseObj, ab := ToObject(a, r.base)
			if ab != nil {
				return Undefined, ab
			}
			return PrivateGet(a, baseObj, r.private)
		}
		if o := r.base.AsObject(); o != nil {
			return o.Get(a, r.name, a.referenceThis(r))
		}
		baseObj, ab := ToObject(a, r.base)
		if ab != nil {
			return Undefined, ab
		}
		return baseObj.Get(a, r.name, a.referenceThis(r))
	}
	return r.env.GetBindingValue(a, r.name.name, r.strict)
}

// PutValue implements PutValue.
func (a *Agent) PutValue(r *Reference, w Value) *Completion {
	if r.unresolvable {
		if r.strict {
			return a.Throw(ReferenceError, MsgNotDefined, r.name.name)
		}
		global := a.GetGlobalObject()
		return Set(a, global, r.name, w, false)
	}
	if r.IsPropertyReference() {
		baseObj, ab := ToObject(a, r.base)
		if ab != nil {
			return ab
		}
		if r.private != nil {
			return PrivateSet(a, baseObj, r.private, w)
		}
		ok, ab := baseObj.Set(a, r.name, w, a.referenceThis(r))
		if ab != nil {
			return ab
		}
		if !ok && r.strict {
			return a.Throw(TypeError, MsgCannotAssignReadOnly, r.name.String(), baseObj.describe())
		}
		return nil
	}
	return r.env.SetMutableBinding(a, r.name.name, w, r.strict)
}

func (a *Agent) referenceThis(r *Reference) Value {
	if r.hasThis {
		return r.thisValue
	}
	return r.base
}

// GetThisValue returns the this value for a property reference.
func (r *Reference) GetThisValue() Value {
	if r.hasThis {
		return r.thisValue
	}
	return r.base
}

// InitializeReferencedBinding implements InitializeReferencedBinding.
func (a *Agent) InitializeReferencedBinding(r *Reference, w Value) *Completion {
	Assert(!r.unresolvable && r.env != nil, "initializing a non-binding reference")
	return r.env.InitializeBinding(a, r.name.name, w)
}
