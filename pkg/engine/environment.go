package engine

// Environment is an Environment Record.
type Environment interface {
	HasBinding(a *Agent, name string) (bool, *Completion)
	CreateMutableBinding(a *Agent, name string, deletable bool) *Completion
	CreateImmutableBinding(a *Agent, name string, strict bool) *Completion
	InitializeBinding(a *Agent, name string, v Value) *Completion
	SetMutableBinding(a *Agent, name string, v Value, strict bool) *Completion
	GetBindingValue(a *Agent, name string, strict bool) (Value, *Completion)
	DeleteBinding(a *Agent, name string) (bool, *Completion)
	HasThisBinding() bool
	HasSuperBinding() bool
	WithBaseObject() Value
	GetThisBinding(a *Agent) (Value, *Completion)
	Outer() Environment
}

type binding struct {
	value       Value
	initialized bool
	mutable     bool
	deletable   bool
	strict      bool
}

// DeclarativeEnvironment is a Declarative Environment Record.
type DeclarativeEnvironment struct {
	outer    Environment
	bindings map[string]*binding
}

// NewDeclarativeEnvironment implements NewDeclarativeEnvironment.
func NewDeclarativeEnvironment(outer Environment) *DeclarativeEnvironment {
	return &DeclarativeEnvironment{outer: outer, bindings: make(map[string]*binding)}
}

func (e *DeclarativeEnvironment) Outer() Environment { return e.outer }

func (e *DeclarativeEnvironment) HasBinding(_ *Agent, name string) (bool, *Completion) {
	_, ok := e.bindings[name]
	return ok, nil
}

func (e *DeclarativeEnvironment) CreateMutableBinding(_ *Agent, name string, deletable bool) *Completion {
	Assert(e.bindings[name] == nil, "binding %q already exists", name)
	e.bindings[name] = &binding{mutable: true, deletable: deletable}
	return nil
}

func (e *DeclarativeEnvironment) CreateImmutableBinding(_ *Agent, name string, strict bool) *Completion {
	Assert(e.bindings[name] == nil, "binding %q already exists", name)
	e.bindings[name] = &binding{strict: strict}
	return nil
}

func (e *DeclarativeEnvironment) InitializeBinding(_ *Agent, name string, v Value) *Completion {
	b := e.bindings[name]
	Assert(b != nil && !b.initialized, "binding %q missing or already initialized", name)
	b.value = v
	b.initialized = true
	return nil
}

func (e *DeclarativeEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) *Completion {
	b := e.bindings[name]
	if b == nil {
		if strict {
			return a.Throw(ReferenceError, MsgNotDefined, name)
		}
		MustOK(e.CreateMutableBinding(a, name, true))
		return e.InitializeBinding(a, name, v)
	}
	if b.strict {
		strict = true
	}
	switch {
	case !b.initialized:
		return a.Throw(ReferenceError, MsgUninitialized, name)
	case b.mutable:
		b.value = v
	case strict:
		return a.Throw(TypeError, MsgConstAssign, name)
	}
	return nil
}

func (e *DeclarativeEnvironment) GetBindingValue(a *Agent, name string, _ bool) (Value, *Completion) {
	b := e.bindings[name]
	Assert(b != nil, "binding %q missing", name)
	if !b.initialized {
		return Undefined, a.Throw(ReferenceError, MsgUninitialized, name)
	}
	return b.value, nil
}

func (e *DeclarativeEnvironment) DeleteBinding(_ *Agent, name string) (bool, *Completion) {
	b := e.bindings[name]
	Assert(b != nil, "binding %q missing", name)
	if !b.deletable {
		return false, nil
	}
	delete(e.bindings, name)
	return true, nil
}

func (e *DeclarativeEnvironment) HasThisBinding() bool  { return false }
func (e *DeclarativeEnvironment) HasSuperBinding() bool { return false }
func (e *DeclarativeEnvironment) WithBaseObject() Value { return Undefined }

func (e *DeclarativeEnvironment) GetThisBinding(*Agent) (Value, *Completion) {
	panic(assertionf("declarative environment has no this binding"))
}

// initialized reports whether name exists and is initialized; used by
// hoisting to avoid clobbering parameters.
func (e *DeclarativeEnvironment) initialized(name string) bool {
	b := e.bindings[name]
	return b != nil && b.initialized
}

// ThisBindingStatus is the [[ThisBindingStatus]] of a function environment.
type ThisBindingStatus uint8

const (
	ThisLexical ThisBindingStatus = iota
	ThisInitialized
	ThisUninitialized
)

// FunctionEnvironment is a Function Environment Record.
type FunctionEnvironment struct {
	DeclarativeEnvironment
	ThisValue         Value
	ThisBindingStatus ThisBindingStatus
	FunctionObject    *Object
	NewTarget         *Object
}

// NewFunctionEnvironment implements NewFunctionEnvironment.
func NewFunctionEnvironment(f *Object, newTarget *Object) *FunctionEnvironment {
	fs := f.slots.(*FunctionSlots)
	env := &FunctionEnvironment{
		DeclarativeEnvironment: DeclarativeEnvironment{outer: fs.Environment, bindings: make(map[string]*binding)},
		FunctionObject:         f,
		NewTarget:              newTarget,
		ThisValue:              Undefined,
	}
	if fs.ThisMode == ThisModeLexical {
		env.ThisBindingStatus = ThisLexical
	} else {
		env.ThisBindingStatus = ThisUninitialized
	}
	return env
}

func (e *FunctionEnvironment) HasThisBinding() bool {
	return e.ThisBindingStatus != ThisLexical
}

func (e *FunctionEnvironment) HasSuperBinding() bool {
	if e.ThisBindingStatus == ThisLexical {
		return false
	}
	return e.FunctionObject.slots.(*FunctionSlots).HomeObject != nil
}

// BindThisValue implements BindThisValue.
func (e *FunctionEnvironment) BindThisValue(a *Agent, v Value) *Completion {
	Assert(e.ThisBindingStatus != ThisLexical, "binding this in a lexical-this environment")
	if e.ThisBindingStatus == ThisInitialized {
		return a.Throw(ReferenceError, MsgSuperAlreadyCalled)
	}
	e.ThisValue = v
	e.ThisBindingStatus = ThisInitialized
	return nil
}

func (e *FunctionEnvironment) GetThisBinding(a *Agent) (Value, *Completion) {
	Assert(e.ThisBindingStatus != ThisLexical, "reading this of a lexical-this environment")
	if e.ThisBindingStatus == ThisUninitialized {
		return Undefined, a.Throw(ReferenceError, MsgSuperNotCalled)
	}
	return e.ThisValue, nil
}

// GetSuperBase returns the prototype of the home object.
func (e *FunctionEnvironment) GetSuperBase(a *Agent) (Value, *Completion) {
	home := e.FunctionObject.slots.(*FunctionSlots).HomeObject
	if home == nil {
		return Undefined, nil
	}
	p, ab := home.GetPrototypeOf(a)
	if ab != nil {
		return Undefined, ab
	}
	return ObjectValue(p), nil
}

// ObjectEnvironment is an Object Environment Record, used for the global
// object and for with statements.
type ObjectEnvironment struct {
	BindingObject     *Object
	IsWithEnvironment bool
	outer             Environment
}

// NewObjectEnvironment implements NewObjectEnvironment.
func NewObjectEnvironment(o *Object, isWith bool, outer Environment) *ObjectEnvironment {
	return &ObjectEnvironment{BindingObject: o, IsWithEnvironment: isWith, outer: outer}
}

func (e *ObjectEnvironment) Outer() Environment { return e.outer }

func (e *ObjectEnvironment) HasBinding(a *Agent, name string) (bool, *Completion) {
	k := StringKey(name)
	found, ab := e.BindingObject.HasProperty(a, k)
	if ab != nil || !found {
		return false, ab
	}
	if !e.IsWithEnvironment {
		return true, nil
	}
	unscopables, ab := Get(a, e.BindingObject, SymbolKey(SymbolUnscopables))
	if ab != nil {
		return false, ab
	}
	if uo := unscopables.AsObject(); uo != nil {
		blocked, ab := Get(a, uo, k)
		if ab != nil {
			return false, ab
		}
		if ToBoolean(blocked) {
			return false, nil
		}
	}
	return true, nil
}

func (e *ObjectEnvironment) CreateMutableBinding(a *Agent, name string, deletable bool) *Completion {
	return DefinePropertyOrThrow(a, e.BindingObject, StringKey(name), DataDescriptor(Undefined, true, true, deletable))
}

func (e *ObjectEnvironment) CreateImmutableBinding(*Agent, string, bool) *Completion {
	panic(assertionf("object environments have no immutable bindings"))
}

func (e *ObjectEnvironment) InitializeBinding(a *Agent, name string, v Value) *Completion {
	return e.SetMutableBinding(a, name, v, false)
}

func (e *ObjectEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) *Completion {
	k := StringKey(name)
	stillExists, ab := e.BindingObject.HasProperty(a, k)
	if ab != nil {
		return ab
	}
	if !stillExists && strict {
		return a.Throw(ReferenceError, MsgNotDefined, name)
	}
	return Set(a, e.BindingObject, k, v, strict)
}

func (e *ObjectEnvironment) GetBindingValue(a *Agent, name string, strict bool) (Value, *Completion) {
	k := StringKey(name)
	value, ab := e.BindingObject.HasProperty(a, k)
	if ab != nil {
		return Undefined, ab
	}
	if !value {
		if strict {
			return Undefined, a.Throw(ReferenceError, MsgNotDefined, name)
		}
		return Undefined, nil
	}
	return Get(a, e.BindingObject, k)
}

func (e *ObjectEnvironment) DeleteBinding(a *Agent, name string) (bool, *Completion) {
	return e.BindingObject.Delete(a, StringKey(name))
}

func (e *ObjectEnvironment) HasThisBinding() bool  { return false }
func (e *ObjectEnvironment) HasSuperBinding() bool { return false }

func (e *ObjectEnvironment) WithBaseObject() Value {
	if e.IsWithEnvironment {
		return ObjectValue(e.BindingObject)
	}
	return Undefined
}

func (e *ObjectEnvironment) GetThisBinding(*Agent) (Value, *Completion) {
	panic(assertionf("object environment has no this binding"))
}

// GlobalEnvironment is a Global Environment Record.
type GlobalEnvironment struct {
	ObjectRecord      *ObjectEnvironment
	GlobalThisValue   *Object
	DeclarativeRecord *DeclarativeEnvironment
	VarNames          map[string]struct{}
}

// NewGlobalEnvironment implements NewGlobalEnvironment.
func NewGlobalEnvironment(g *Object, thisValue *Object) *GlobalEnvironment {
	return &GlobalEnvironment{
		ObjectRecord:      NewObjectEnvironment(g, false, nil),
		GlobalThisValue:   thisValue,
		DeclarativeRecord: NewDeclarativeEnvironment(nil),
		VarNames:          make(map[string]struct{}),
	}
}

func (e *GlobalEnvironment) Outer() Environment { return nil }

func (e *GlobalEnvironment) HasBinding(a *Agent, name string) (bool, *Completion) {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return true, nil
	}
	return e.ObjectRecord.HasBinding(a, name)
}

func (e *GlobalEnvironment) CreateMutableBinding(a *Agent, name string, deletable bool) *Completion {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return a.Throw(SyntaxError, MsgAlreadyDeclared, name)
	}
	return e.DeclarativeRecord.CreateMutableBinding(a, name, deletable)
}

func (e *GlobalEnvironment) CreateImmutableBinding(a *Agent, name string, strict bool) *Completion {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return a.Throw(SyntaxError, MsgAlreadyDeclared, name)
	}
	return e.DeclarativeRecord.CreateImmutableBinding(a, name, strict)
}

func (e *GlobalEnvironment) InitializeBinding(a *Agent, name string, v Value) *Completion {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return e.DeclarativeRecord.InitializeBinding(a, name, v)
	}
	return e.ObjectRecord.InitializeBinding(a, name, v)
}

func (e *GlobalEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) *Completion {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return e.DeclarativeRecord.SetMutableBinding(a, name, v, strict)
	}
	return e.ObjectRecord.SetMutableBinding(a, name, v, strict)
}

func (e *GlobalEnvironment) GetBindingValue(a *Agent, name string, strict bool) (Value, *Completion) {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return e.DeclarativeRecord.GetBindingValue(a, name, strict)
	}
	return e.ObjectRecord.GetBindingValue(a, name, strict)
}

func (e *GlobalEnvironment) DeleteBinding(a *Agent, name string) (bool, *Completion) {
	if ok, _ := e.DeclarativeRecord.HasBinding(a, name); ok {
		return e.DeclarativeRecord.DeleteBinding(a, name)
	}
	global := e.ObjectRecord.BindingObject
	existing, ab := HasOwnProperty(a, global, StringKey(name))
	if ab != nil {
		return false, ab
	}
	if existing {
		status, ab := e.ObjectRecord.DeleteBinding(a, name)
		if ab != nil {
			return false, ab
		}
		if status {
			delete(e.VarNames, name)
		}
		return status, nil
	}
	return true, nil
}

func (e *GlobalEnvironment) HasThisBinding() bool  { return true }
func (e *GlobalEnvironment) HasSuperBinding() bool { return false }
func (e *GlobalEnvironment) WithBaseObject() Value { return Undefined }

func (e *GlobalEnvironment) GetThisBinding(*Agent) (Value, *Completion) {
	return ObjectValue(e.GlobalThisValue), nil
}

func (e *GlobalEnvironment) HasVarDeclaration(name string) bool {
	_, ok := e.VarNames[name]
	return ok
}

func (e *GlobalEnvironment) HasLexicalDeclaration(name string) bool {
	_, ok := e.DeclarativeRecord.bindings[name]
	return ok
}

// HasRestrictedGlobalProperty reports a non-configurable own property of
// the global object.
func (e *GlobalEnvironment) HasRestrictedGlobalProperty(a *Agent, name string) (bool, *Completion) {
	desc, ab := e.ObjectRecord.BindingObject.GetOwnProperty(a, StringKey(name))
	if ab != nil || desc == nil {
		return false, ab
	}
	return !desc.Configurable, nil
}

func (e *GlobalEnvironment) CanDeclareGlobalVar(a *Agent, name string) (bool, *Completion) {
	global := e.ObjectRecord.BindingObject
	has, ab := HasOwnProperty(a, global, StringKey(name))
	if ab != nil || has {
		return has, ab
	}
	return IsExtensible(a, global)
}

func (e *GlobalEnvironment) CanDeclareGlobalFunction(a *Agent, name string) (bool, *Completion) {
	global := e.ObjectRecord.BindingObject
	existing, ab := global.GetOwnProperty(a, StringKey(name))
	if ab != nil {
		return false, ab
	}
	if existing == nil {
		return IsExtensible(a, global)
	}
	if existing.Configurable {
		return true, nil
	}
	return existing.IsDataDescriptor() && existing.Writable && existing.Enumerable, nil
}

func (e *GlobalEnvironment) CreateGlobalVarBinding(a *Agent, name string, deletable bool) *Completion {
	global := e.ObjectRecord.BindingObject
	hasOwn, ab := HasOwnProperty(a, global, StringKey(name))
	if ab != nil {
		return ab
	}
	extensible, ab := IsExtensible(a, global)
	if ab != nil {
		return ab
	}
	if !hasOwn && extensible {
		if ab := e.ObjectRecord.CreateMutableBinding(a, name, deletable); ab != nil {
			return ab
		}
		if ab := e.ObjectRecord.InitializeBinding(a, name, Undefined); ab != nil {
			return ab
		}
	}
	e.VarNames[name] = struct{}{}
	return nil
}

func (e *GlobalEnvironment) CreateGlobalFunctionBinding(a *Agent, name string, v Value, deletable bool) *Completion {
	global := e.ObjectRecord.BindingObject
	k := StringKey(name)
	existing, ab := global.GetOwnProperty(a, k)
	if ab != nil {
		return ab
	}
	var desc PropertyDescriptor
	if existing == nil || existing.Configurable {
		desc = DataDescriptor(v, true, true, deletable)
	} else {
		desc = PropertyDescriptor{Value: v, HasValue: true}
	}
	if ab := DefinePropertyOrThrow(a, global, k, desc); ab != nil {
		return ab
	}
	if ab := Set(a, global, k, v, false); ab != nil {
		return ab
	}
	e.VarNames[name] = struct{}{}
	return nil
}

// thisBindingOf reads the this binding of an environment that has one.
func thisBindingOf(a *Agent, env Environment) (Value, *Completion) {
	return env.GetThisBinding(a)
}

// GetIdentifierReference implements GetIdentifierReference.
func GetIdentifierReference(a *Agent, env Environment, name string, strict bool) (*Reference, *Completion) {
	for ; env != nil; env = env.Outer() {
		exists, ab := env.HasBinding(a, name)
		if ab != nil {
			return nil, ab
		}
		if exists {
			return &Reference{env: env, name: StringKey(name), strict: strict}, nil
		}
	}
	return &Reference{unresolvable: true, name: StringKey(name), strict: strict}, nil
}

func markEnvironment(env Environment, mark func(Value)) {
	switch e := env.(type) {
	case *DeclarativeEnvironment:
		for _, b := range e.bindings {
			mark(b.value)
		}
	case *FunctionEnvironment:
		for _, b := range e.bindings {
			mark(b.value)
		}
		mark(e.ThisValue)
		mark(ObjectValue(e.FunctionObject))
	case *ObjectEnvironment:
		mark(ObjectValue(e.BindingObject))
	case *GlobalEnvironment:
		mark(ObjectValue(e.ObjectRecord.BindingObject))
		for _, b := range e.DeclarativeRecord.bindings {
			mark(b.value)
		}
	}
}

// PrivateName is a Private Name: an identity with a description.
type PrivateName struct {
	Description string
}

// PrivateEnvironment is a PrivateEnvironment Record.
type PrivateEnvironment struct {
	Outer *PrivateEnvironment
	Names map[string]*PrivateName
}

// NewPrivateEnvironment implements NewPrivateEnvironment.
func NewPrivateEnvironment(outer *PrivateEnvironment) *PrivateEnvironment {
	return &PrivateEnvironment{Outer: outer, Names: make(map[string]*PrivateName)}
}

// ResolvePrivateIdentifier implements ResolvePrivateIdentifier.
func (p *PrivateEnvironment) ResolvePrivateIdentifier(identifier string) *PrivateName {
	for env := p; env != nil; env = env.Outer {
		if pn, ok := env.Names[identifier]; ok {
			return pn
		}
	}
	panic(assertionf("unresolvable private name #%s", identifier))
}
