package engine

import (
	"github.com/dop251/goja/ast"
)

// PrivateElementKind is the [[Kind]] of a PrivateElement.
type PrivateElementKind uint8

const (
	PrivateField PrivateElementKind = iota
	PrivateMethod
	PrivateAccessor
)

// PrivateElement is a PrivateElement Record. Value is used by fields and
// methods, Get and Set by accessors.
type PrivateElement struct {
	Key   *PrivateName
	Kind  PrivateElementKind
	Value Value
	Get   *Object
	Set   *Object
}

// ClassElementName is a property key or a Private Name.
type ClassElementName struct {
	Key     PropertyKey
	Private *PrivateName
}

// functionName is the name given to anonymous functions assigned to the
// element.
func (n *ClassElementName) functionName() PropertyKey {
	if n.Private != nil {
		return StringKey(n.Private.Description)
	}
	return n.Key
}

// ClassFieldDefinition is a ClassFieldDefinition Record.
type ClassFieldDefinition struct {
	Name        ClassElementName
	Initializer *Object
}

// classStaticElement is a static field or a static block, kept in source
// order.
type classStaticElement struct {
	field *ClassFieldDefinition
	block *Object
}

// PrivateElementFind implements PrivateElementFind.
func PrivateElementFind(o *Object, pn *PrivateName) *PrivateElement {
	for _, e := range o.private {
		if e.Key == pn {
			return e
		}
	}
	return nil
}

// PrivateFieldAdd implements PrivateFieldAdd.
func PrivateFieldAdd(a *Agent, o *Object, pn *PrivateName, v Value) *Completion {
	if PrivateElementFind(o, pn) != nil {
		return a.Throw(TypeError, MsgPrivateAlreadyDefined, pn.Description)
	}
	o.private = append(o.private, &PrivateElement{Key: pn, Kind: PrivateField, Value: v})
	return nil
}

// PrivateMethodOrAccessorAdd implements PrivateMethodOrAccessorAdd.
func PrivateMethodOrAccessorAdd(a *Agent, o *Object, method *PrivateElement) *Completion {
	if PrivateElementFind(o, method.Key) != nil {
		return a.Throw(TypeError, MsgPrivateAlreadyDefined, method.Key.Description)
	}
	o.private = append(o.private, method)
	return nil
}

// PrivateGet implements PrivateGet.
func PrivateGet(a *Agent, o *Object, pn *PrivateName) (Value, *Completion) {
	entry := PrivateElementFind(o, pn)
	if entry == nil {
		return Undefined, a.Throw(TypeError, MsgPrivateNotFound, pn.Description)
	}
	if entry.Kind != PrivateAccessor {
		return entry.Value, nil
	}
	if entry.Get == nil {
		return Undefined, a.Throw(TypeError, MsgPrivateNoGetter, pn.Description)
	}
	return Call(a, ObjectValue(entry.Get), ObjectValue(o), nil)
}

// PrivateSet implements PrivateSet.
func PrivateSet(a *Agent, o *Object, pn *PrivateName, v Value) *Completion {
	entry := PrivateElementFind(o, pn)
	if entry == nil {
		return a.Throw(TypeError, MsgPrivateNotFound, pn.Description)
	}
	switch entry.Kind {
	case PrivateField:
		entry.Value = v
		return nil
	case PrivateMethod:
		return a.Throw(TypeError, MsgPrivateMethodWrite, pn.Description)
	}
	if entry.Set == nil {
		return a.Throw(TypeError, MsgPrivateNoSetter, pn.Description)
	}
	_, ab := Call(a, ObjectValue(entry.Set), ObjectValue(o), []Value{v})
	return ab
}

// DefineField implements DefineField.
func DefineField(a *Agent, receiver *Object, field *ClassFieldDefinition) *Completion {
	initValue := Undefined
	if field.Initializer != nil {
		var ab *Completion
		initValue, ab = Call(a, ObjectValue(field.Initializer), ObjectValue(receiver), nil)
		if ab != nil {
			return ab
		}
	}
	if field.Name.Private != nil {
		return PrivateFieldAdd(a, receiver, field.Name.Private, initValue)
	}
	return CreateDataPropertyOrThrow(a, receiver, field.Name.Key, initValue)
}

// InitializeInstanceElements implements InitializeInstanceElements.
func InitializeInstanceElements(a *Agent, o *Object, ctor *Object) *Completion {
	fs := ctor.slots.(*FunctionSlots)
	for _, m := range fs.PrivateMethods {
		if ab := PrivateMethodOrAccessorAdd(a, o, m); ab != nil {
			return ab
		}
	}
	for _, f := range fs.Fields {
		if ab := DefineField(a, o, f); ab != nil {
			return ab
		}
	}
	return nil
}

// evalPropertyKey evaluates a literal or computed property name of an
// object literal or class element.
func (a *Agent) evalPropertyKey(key ast.Expression, computed bool) (PropertyKey, *Completion) {
	if computed {
		v, ab := a.evalExpressionValue(key)
		if ab != nil {
			return PropertyKey{}, ab
		}
		return ToPropertyKey(a, v)
	}
	switch k := key.(type) {
	case *ast.StringLiteral:
		return StringKey(k.Value.String()), nil
	case *ast.NumberLiteral:
		if v := numericLiteral(k); v.IsBigInt() {
			return StringKey(v.AsBigInt().String()), nil
		}
		return StringKey(NumberToString(numberLiteralValue(k))), nil
	case *ast.Identifier:
		return StringKey(k.Name.String()), nil
	}
	panic(assertionf("property key of type %T", key))
}

// evalClassElementName implements ClassElementName evaluation.
func (a *Agent) evalClassElementName(key ast.Expression, computed bool) (ClassElementName, *Completion) {
	if pid, ok := key.(*ast.PrivateIdentifier); ok {
		pn := a.RunningContext().PrivateEnvironment.ResolvePrivateIdentifier(pid.Name.String())
		return ClassElementName{Private: pn}, nil
	}
	k, ab := a.evalPropertyKey(key, computed)
	return ClassElementName{Key: k}, ab
}

// methodFunction creates the closure of a method definition with the
// prototype its kind calls for. Ordinary methods are not constructors.
func (a *Agent) methodFunction(lit *ast.FunctionLiteral, homeObject *Object, name PropertyKey, prefix string) *Object {
	ctx := a.RunningContext()
	realm := ctx.Realm
	var proto, instanceProto *Object
	switch {
	case lit.Async && lit.Generator:
		proto = realm.Intrinsic("%AsyncGeneratorFunction.prototype%")
		instanceProto = realm.Intrinsic("%AsyncGeneratorFunction.prototype.prototype%")
	case lit.Generator:
		proto = realm.Intrinsic("%GeneratorFunction.prototype%")
		instanceProto = realm.Intrinsic("%GeneratorFunction.prototype.prototype%")
	case lit.Async:
		proto = realm.Intrinsic("%AsyncFunction.prototype%")
	default:
		proto = realm.Intrinsic("%Function.prototype%")
	}
	f := a.OrdinaryFunctionCreate(proto, lit, ctx.LexicalEnvironment, ctx.PrivateEnvironment)
	MakeMethod(f, homeObject)
	SetFunctionName(f, name, prefix)
	if instanceProto != nil {
		f.DefineDirect(StringKey("prototype"), ObjectValue(OrdinaryObjectCreate(instanceProto)), true, false, false)
	}
	return f
}

// defineMethodElement evaluates a method, getter or setter definition
// against homeObject. Private methods are returned instead of defined.
func (a *Agent) defineMethodElement(md *ast.MethodDefinition, homeObject *Object, enumerable bool) (*PrivateElement, *Completion) {
	name, ab := a.evalClassElementName(md.Key, md.Computed)
	if ab != nil {
		return nil, ab
	}
	fnName := name.functionName()
	switch md.Kind {
	case ast.PropertyKindGet, ast.PropertyKindSet:
		prefix := string(md.Kind)
		closure := a.methodFunction(md.Body, homeObject, fnName, prefix)
		if name.Private != nil {
			pe := &PrivateElement{Key: name.Private, Kind: PrivateAccessor}
			if md.Kind == ast.PropertyKindGet {
				pe.Get = closure
			} else {
				pe.Set = closure
			}
			return pe, nil
		}
		desc := PropertyDescriptor{HasEnumerable: true, Enumerable: enumerable, HasConfigurable: true, Configurable: true}
		if md.Kind == ast.PropertyKindGet {
			desc.Get, desc.HasGet = ObjectValue(closure), true
		} else {
			desc.Set, desc.HasSet = ObjectValue(closure), true
		}
		return nil, DefinePropertyOrThrow(a, homeObject, name.Key, desc)
	}
	closure := a.methodFunction(md.Body, homeObject, fnName, "")
	if name.Private != nil {
		return &PrivateElement{Key: name.Private, Kind: PrivateMethod, Value: ObjectValue(closure)}, nil
	}
	return nil, DefinePropertyOrThrow(a, homeObject, name.Key, DataDescriptor(ObjectValue(closure), true, enumerable, true))
}

// addPrivateMethod appends a private method, merging a getter with its
// setter.
func addPrivateMethod(container []*PrivateElement, pe *PrivateElement) []*PrivateElement {
	for i, existing := range container {
		if existing.Key != pe.Key {
			continue
		}
		combined := *existing
		if pe.Get != nil {
			combined.Get = pe.Get
		}
		if pe.Set != nil {
			combined.Set = pe.Set
		}
		container[i] = &combined
		return container
	}
	return append(container, pe)
}

func isClassConstructorMethod(e ast.ClassElement) (*ast.MethodDefinition, bool) {
	md, ok := e.(*ast.MethodDefinition)
	if !ok || md.Static || md.Computed || md.Kind != ast.PropertyKindMethod {
		return nil, false
	}
	key, ok := md.Key.(*ast.StringLiteral)
	return md, ok && key.Value == "constructor"
}

// ClassDefinitionEvaluation implements ClassDefinitionEvaluation. An empty
// classBinding creates no inner binding.
func (a *Agent) ClassDefinitionEvaluation(classBinding string, className PropertyKey, cls *ast.ClassLiteral) (*Object, *Completion) {
	ctx := a.RunningContext()
	realm := ctx.Realm
	env := ctx.LexicalEnvironment
	outerPrivateEnv := ctx.PrivateEnvironment
	outerStrict := ctx.strict
	ctx.strict = true
	restore := func() {
		ctx.LexicalEnvironment = env
		ctx.PrivateEnvironment = outerPrivateEnv
		ctx.strict = outerStrict
	}

	classEnv := NewDeclarativeEnvironment(env)
	if classBinding != "" {
		MustOK(classEnv.CreateImmutableBinding(a, classBinding, true))
	}
	classPrivateEnv := NewPrivateEnvironment(outerPrivateEnv)
	for _, e := range cls.Body {
		var key ast.Expression
		switch e := e.(type) {
		case *ast.MethodDefinition:
			key = e.Key
		case *ast.FieldDefinition:
			key = e.Key
		}
		if pid, ok := key.(*ast.PrivateIdentifier); ok {
			name := pid.Name.String()
			if _, exists := classPrivateEnv.Names[name]; !exists {
				classPrivateEnv.Names[name] = &PrivateName{Description: "#" + name}
			}
		}
	}

	protoParent := realm.Intrinsic("%Object.prototype%")
	constructorParent := realm.Intrinsic("%Function.prototype%")
	if cls.SuperClass != nil {
		ctx.LexicalEnvironment = classEnv
		superclass, ab := a.evalExpressionValue(cls.SuperClass)
		ctx.LexicalEnvironment = env
		if ab != nil {
			restore()
			return nil, ab
		}
		switch {
		case superclass.IsNull():
			protoParent = nil
		case !IsConstructor(superclass):
			restore()
			return nil, a.Throw(TypeError, MsgClassExtendsInvalid, superclass.String())
		default:
			pp, ab := Get(a, superclass.AsObject(), StringKey("prototype"))
			if ab != nil {
				restore()
				return nil, ab
			}
			if !pp.IsObject() && !pp.IsNull() {
				restore()
				return nil, a.Throw(TypeError, MsgPrototypeNotObject, "class extends")
			}
			protoParent = pp.AsObject()
			constructorParent = superclass.AsObject()
		}
	}
	proto := OrdinaryObjectCreate(protoParent)

	var ctorDef *ast.MethodDefinition
	for _, e := range cls.Body {
		if md, ok := isClassConstructorMethod(e); ok {
			ctorDef = md
		}
	}

	ctx.LexicalEnvironment = classEnv
	ctx.PrivateEnvironment = classPrivateEnv

	var F *Object
	if ctorDef == nil {
		F = CreateBuiltinFunction(realm, defaultClassConstructor, 0, className, "", constructorParent, false)
	} else {
		F = a.OrdinaryFunctionCreate(constructorParent, ctorDef.Body, classEnv, classPrivateEnv)
		MakeMethod(F, proto)
		SetFunctionName(F, className, "")
	}
	fs := F.slots.(*FunctionSlots)
	fs.SourceText = cls.Source
	MakeClassConstructor(F)
	MakeConstructor(a, F, false, proto)
	if cls.SuperClass != nil {
		fs.ConstructorKind = ConstructorDerived
	}
	CreateMethodProperty(a, proto, StringKey("constructor"), ObjectValue(F))

	var instancePrivateMethods, staticPrivateMethods []*PrivateElement
	var instanceFields []*ClassFieldDefinition
	var staticElements []classStaticElement
	for _, e := range cls.Body {
		if e == ast.ClassElement(ctorDef) {
			continue
		}
		switch e := e.(type) {
		case *ast.MethodDefinition:
			home := proto
			if e.Static {
				home = F
			}
			pe, ab := a.defineMethodElement(e, home, false)
			if ab != nil {
				restore()
				return nil, ab
			}
			if pe != nil {
				if e.Static {
					staticPrivateMethods = addPrivateMethod(staticPrivateMethods, pe)
				} else {
					instancePrivateMethods = addPrivateMethod(instancePrivateMethods, pe)
				}
			}
		case *ast.FieldDefinition:
			home := proto
			if e.Static {
				home = F
			}
			name, ab := a.evalClassElementName(e.Key, e.Computed)
			if ab != nil {
				restore()
				return nil, ab
			}
			field := &ClassFieldDefinition{Name: name}
			if e.Initializer != nil {
				init := a.OrdinaryFunctionCreate(realm.Intrinsic("%Function.prototype%"), e, classEnv, classPrivateEnv)
				MakeMethod(init, home)
				init.slots.(*FunctionSlots).ClassFieldInitializerName = &field.Name
				field.Initializer = init
			}
			if e.Static {
				staticElements = append(staticElements, classStaticElement{field: field})
			} else {
				instanceFields = append(instanceFields, field)
			}
		case *ast.ClassStaticBlock:
			body := a.OrdinaryFunctionCreate(realm.Intrinsic("%Function.prototype%"), e, classEnv, classPrivateEnv)
			MakeMethod(body, F)
			staticElements = append(staticElements, classStaticElement{block: body})
		}
	}

	ctx.LexicalEnvironment = env
	if classBinding != "" {
		MustOK(classEnv.InitializeBinding(a, classBinding, ObjectValue(F)))
	}
	fs.PrivateMethods = instancePrivateMethods
	fs.Fields = instanceFields
	for _, m := range staticPrivateMethods {
		if ab := PrivateMethodOrAccessorAdd(a, F, m); ab != nil {
			restore()
			return nil, ab
		}
	}
	for _, el := range staticElements {
		var ab *Completion
		if el.field != nil {
			ab = DefineField(a, F, el.field)
		} else {
			_, ab = Call(a, ObjectValue(el.block), ObjectValue(F), nil)
		}
		if ab != nil {
			restore()
			return nil, ab
		}
	}
	restore()
	return F, nil
}

// defaultClassConstructor is the behaviour of a class without an explicit
// constructor.
func defaultClassConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil {
		return Undefined, a.Throw(TypeError, MsgConstructorRequired, "class")
	}
	F := a.ActiveFunction()
	var result *Object
	if F.slots.(*FunctionSlots).ConstructorKind == ConstructorDerived {
		parent, ab := F.GetPrototypeOf(a)
		if ab != nil {
			return Undefined, ab
		}
		if !IsConstructor(ObjectValue(parent)) {
			return Undefined, a.Throw(TypeError, MsgSuperNotConstructor, ObjectValue(parent).String())
		}
		v, ab := Construct(a, parent, args, newTarget)
		if ab != nil {
			return Undefined, ab
		}
		result = v.AsObject()
	} else {
		var ab *Completion
		result, ab = OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%", KindOrdinary, nil)
		if ab != nil {
			return Undefined, ab
		}
	}
	if ab := InitializeInstanceElements(a, result, F); ab != nil {
		return Undefined, ab
	}
	return ObjectValue(result), nil
}
