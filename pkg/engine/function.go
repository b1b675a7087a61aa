package engine

import (
	"github.com/dop251/goja/ast"
)

// FunctionKind is the [[ECMAScriptCode]] flavour of a function.
type FunctionKind uint8

const (
	FunctionNormal FunctionKind = iota
	FunctionGenerator
	FunctionAsync
	FunctionAsyncGenerator
)

func (k FunctionKind) String() string {
	switch k {
	case FunctionGenerator:
		return "generator"
	case FunctionAsync:
		return "async"
	case FunctionAsyncGenerator:
		return "async generator"
	}
	return "normal"
}

// ConstructorKind is [[ConstructorKind]].
type ConstructorKind uint8

const (
	ConstructorBase ConstructorKind = iota
	ConstructorDerived
)

// ThisMode is [[ThisMode]].
type ThisMode uint8

const (
	ThisModeGlobal ThisMode = iota
	ThisModeStrict
	ThisModeLexical
)

// NativeFunction is the behaviour of a built-in function. newTarget is nil
// for [[Call]]. The running execution context is the built-in's own.
type NativeFunction func(a *Agent, this Value, args []Value, newTarget *Object) (Value, *Completion)

// FunctionSlots holds the internal slots shared by ECMAScript function
// objects and built-in function objects (Native set).
type FunctionSlots struct {
	Realm              *Realm
	ScriptOrModule     *Script
	Environment        Environment
	PrivateEnvironment *PrivateEnvironment
	Node               ast.Node
	Kind               FunctionKind
	ConstructorKind    ConstructorKind
	ThisMode           ThisMode
	Strict             bool
	HomeObject         *Object
	SourceText         string
	Fields             []*ClassFieldDefinition
	PrivateMethods     []*PrivateElement
	IsClassConstructor bool
	InitialName        Value

	// ClassFieldInitializerName names the field whose initializer this
	// function evaluates.
	ClassFieldInitializerName *ClassElementName

	Native NativeFunction

	info *functionInfo
}

// CreateBuiltinFunction implements CreateBuiltinFunction. A nil proto picks
// the realm's %Function.prototype%.
func CreateBuiltinFunction(realm *Realm, behavior NativeFunction, length int, name PropertyKey, prefix string, proto *Object, constructor bool) *Object {
	if proto == nil {
		proto = realm.Intrinsic("%Function.prototype%")
	}
	fs := &FunctionSlots{Realm: realm, Native: behavior, Strict: true, ThisMode: ThisModeStrict, InitialName: Undefined}
	methods := functionMethods
	if constructor {
		methods = constructorMethods
	}
	f := MakeBasicObject(KindFunction, methods, proto, fs)
	SetFunctionLength(f, length)
	SetFunctionName(f, name, prefix)
	return f
}

// NewNativeFunction is the common case of CreateBuiltinFunction: a plain
// non-constructor named by a string.
func NewNativeFunction(realm *Realm, name string, length int, behavior NativeFunction) *Object {
	return CreateBuiltinFunction(realm, behavior, length, StringKey(name), "", nil, false)
}

// anonymousNative creates an unnamed built-in closure such as a promise
// resolving function.
func anonymousNative(realm *Realm, length int, behavior NativeFunction) *Object {
	return CreateBuiltinFunction(realm, behavior, length, StringKey(""), "", nil, false)
}

// SetFunctionName implements SetFunctionName. Private names are passed as
// their "#name" description.
func SetFunctionName(f *Object, name PropertyKey, prefix string) {
	var s string
	if name.IsSymbol() {
		desc := name.Symbol().Description()
		if !desc.IsUndefined() {
			s = "[" + desc.AsString() + "]"
		}
	} else {
		s = name.Name()
	}
	if fs, ok := f.slots.(*FunctionSlots); ok {
		fs.InitialName = String(s)
	}
	if prefix != "" {
		s = prefix + " " + s
		if fs, ok := f.slots.(*FunctionSlots); ok && fs.Native != nil {
			fs.InitialName = String(s)
		}
	}
	f.DefineDirect(StringKey("name"), String(s), false, false, true)
}

// SetFunctionLength implements SetFunctionLength.
func SetFunctionLength(f *Object, length int) {
	f.DefineDirect(StringKey("length"), Number(float64(length)), false, false, true)
}

// MakeConstructor implements MakeConstructor. A nil prototype creates a
// fresh one whose constructor points back at f.
func MakeConstructor(a *Agent, f *Object, writablePrototype bool, prototype *Object) {
	switch f.methods {
	case functionMethods:
		f.methods = constructorMethods
	case boundFunctionMethods:
		f.methods = boundConstructorMethods
	}
	if fs, ok := f.slots.(*FunctionSlots); ok {
		fs.ConstructorKind = ConstructorBase
	}
	if prototype == nil {
		prototype = OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
		prototype.DefineDirect(StringKey("constructor"), ObjectValue(f), writablePrototype, false, true)
	}
	f.DefineDirect(StringKey("prototype"), ObjectValue(prototype), writablePrototype, false, false)
}

// MakeMethod implements MakeMethod.
func MakeMethod(f *Object, homeObject *Object) {
	f.slots.(*FunctionSlots).HomeObject = homeObject
}

// MakeClassConstructor implements MakeClassConstructor.
func MakeClassConstructor(f *Object) {
	f.slots.(*FunctionSlots).IsClassConstructor = true
}

// OrdinaryFunctionCreate implements OrdinaryFunctionCreate for a function
// literal, arrow function, method body, static block or field initializer
// node.
func (a *Agent) OrdinaryFunctionCreate(proto *Object, node ast.Node, env Environment, privateEnv *PrivateEnvironment) *Object {
	info := a.analyzeFunction(node)
	fs := &FunctionSlots{
		Realm:              a.CurrentRealm(),
		ScriptOrModule:     a.GetActiveScriptOrModule(),
		Environment:        env,
		PrivateEnvironment: privateEnv,
		Node:               node,
		Kind:               info.kind,
		Strict:             a.isStrict() || info.directiveStrict,
		SourceText:         info.source,
		InitialName:        Undefined,
		info:               info,
	}
	switch {
	case info.arrow:
		fs.ThisMode = ThisModeLexical
	case fs.Strict:
		fs.ThisMode = ThisModeStrict
	default:
		fs.ThisMode = ThisModeGlobal
	}
	f := MakeBasicObject(KindFunction, functionMethods, proto, fs)
	SetFunctionLength(f, info.expectedArgs)
	return f
}

// instantiateFunction creates the function object for a function literal
// with the prototype and "prototype" property its kind calls for. It backs
// InstantiateFunctionObject and the function expression forms.
func (a *Agent) instantiateFunction(lit *ast.FunctionLiteral, env Environment, privateEnv *PrivateEnvironment, name PropertyKey) *Object {
	realm := a.CurrentRealm()
	switch {
	case lit.Async && lit.Generator:
		f := a.OrdinaryFunctionCreate(realm.Intrinsic("%AsyncGeneratorFunction.prototype%"), lit, env, privateEnv)
		SetFunctionName(f, name, "")
		proto := OrdinaryObjectCreate(realm.Intrinsic("%AsyncGeneratorFunction.prototype.prototype%"))
		f.DefineDirect(StringKey("prototype"), ObjectValue(proto), true, false, false)
		return f
	case lit.Generator:
		f := a.OrdinaryFunctionCreate(realm.Intrinsic("%GeneratorFunction.prototype%"), lit, env, privateEnv)
		SetFunctionName(f, name, "")
		proto := OrdinaryObjectCreate(realm.Intrinsic("%GeneratorFunction.prototype.prototype%"))
		f.DefineDirect(StringKey("prototype"), ObjectValue(proto), true, false, false)
		return f
	case lit.Async:
		f := a.OrdinaryFunctionCreate(realm.Intrinsic("%AsyncFunction.prototype%"), lit, env, privateEnv)
		SetFunctionName(f, name, "")
		return f
	}
	f := a.OrdinaryFunctionCreate(realm.Intrinsic("%Function.prototype%"), lit, env, privateEnv)
	SetFunctionName(f, name, "")
	MakeConstructor(a, f, true, nil)
	return f
}

// --- [[Call]] and [[Construct]] ---

func functionCall(a *Agent, f *Object, this Value, args []Value) (Value, *Completion) {
	fs := f.slots.(*FunctionSlots)
	if ab := a.checkCallDepth(); ab != nil {
		return Undefined, ab
	}
	if fs.Native != nil {
		return a.builtinCallOrConstruct(f, fs, this, args, nil)
	}
	calleeContext, _ := a.prepareForOrdinaryCall(f, fs, nil)
	if fs.IsClassConstructor {
		ab := a.Throw(TypeError, MsgClassCallWithoutNew, fs.InitialName.String())
		a.PopContext(calleeContext)
		return Undefined, ab
	}
	a.ordinaryCallBindThis(fs, calleeContext, this)
	result := a.ordinaryCallEvaluateBody(f, fs, args)
	a.PopContext(calleeContext)
	switch result.Type {
	case CompletionReturn:
		return result.Value, nil
	case CompletionNormal:
		return Undefined, nil
	}
	return Undefined, result.abrupt()
}

func functionConstruct(a *Agent, f *Object, args []Value, newTarget *Object) (Value, *Completion) {
	fs := f.slots.(*FunctionSlots)
	if ab := a.checkCallDepth(); ab != nil {
		return Undefined, ab
	}
	if fs.Native != nil {
		return a.builtinCallOrConstruct(f, fs, Undefined, args, newTarget)
	}
	var thisArgument *Object
	if fs.ConstructorKind == ConstructorBase {
		var ab *Completion
		thisArgument, ab = OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%", KindOrdinary, nil)
		if ab != nil {
			return Undefined, ab
		}
	}
	calleeContext, constructorEnv := a.prepareForOrdinaryCall(f, fs, newTarget)
	if fs.ConstructorKind == ConstructorBase {
		a.ordinaryCallBindThis(fs, calleeContext, ObjectValue(thisArgument))
		if ab := InitializeInstanceElements(a, thisArgument, f); ab != nil {
			a.PopContext(calleeContext)
			return Undefined, ab
		}
	}
	result := a.ordinaryCallEvaluateBody(f, fs, args)
	a.PopContext(calleeContext)
	if result.Type == CompletionReturn {
		if result.Value.IsObject() {
			return result.Value, nil
		}
		if fs.ConstructorKind == ConstructorBase {
			return ObjectValue(thisArgument), nil
		}
		if !result.Value.IsUndefined() {
			return Undefined, a.Throw(TypeError, MsgDerivedReturn)
		}
	} else if result.Type != CompletionNormal {
		return Undefined, result.abrupt()
	}
	return constructorEnv.GetThisBinding(a)
}

// builtinCallOrConstruct runs a built-in function in its own execution
// context.
func (a *Agent) builtinCallOrConstruct(f *Object, fs *FunctionSlots, this Value, args []Value, newTarget *Object) (Value, *Completion) {
	calleeContext := &ExecutionContext{Function: f, Realm: fs.Realm, strict: true}
	a.PushContext(calleeContext)
	if fs.IsClassConstructor && newTarget == nil {
		ab := a.Throw(TypeError, MsgClassCallWithoutNew, fs.InitialName.String())
		a.PopContext(calleeContext)
		return Undefined, ab
	}
	v, ab := fs.Native(a, this, args, newTarget)
	a.PopContext(calleeContext)
	return v, ab
}

// prepareForOrdinaryCall implements PrepareForOrdinaryCall; the new context
// is pushed and returned with its function environment.
func (a *Agent) prepareForOrdinaryCall(f *Object, fs *FunctionSlots, newTarget *Object) (*ExecutionContext, *FunctionEnvironment) {
	env := NewFunctionEnvironment(f, newTarget)
	calleeContext := &ExecutionContext{
		Function:            f,
		Realm:               fs.Realm,
		ScriptOrModule:      fs.ScriptOrModule,
		LexicalEnvironment:  env,
		VariableEnvironment: env,
		PrivateEnvironment:  fs.PrivateEnvironment,
		strict:              fs.Strict,
	}
	a.PushContext(calleeContext)
	return calleeContext, env
}

// ordinaryCallBindThis implements OrdinaryCallBindThis.
func (a *Agent) ordinaryCallBindThis(fs *FunctionSlots, calleeContext *ExecutionContext, this Value) {
	if fs.ThisMode == ThisModeLexical {
		return
	}
	thisValue := this
	if fs.ThisMode == ThisModeGlobal {
		if this.IsNullish() {
			thisValue = ObjectValue(fs.Realm.GlobalEnv.GlobalThisValue)
		} else {
			thisValue = ObjectValue(Must(ToObject(a, this)))
		}
	}
	env := calleeContext.LexicalEnvironment.(*FunctionEnvironment)
	MustOK(env.BindThisValue(a, thisValue))
}

// ordinaryCallEvaluateBody implements OrdinaryCallEvaluateBody, dispatching
// on the function kind the way EvaluateBody does.
func (a *Agent) ordinaryCallEvaluateBody(f *Object, fs *FunctionSlots, args []Value) Completion {
	switch fs.Kind {
	case FunctionGenerator:
		if ab := a.FunctionDeclarationInstantiation(f, args); ab != nil {
			return *ab
		}
		g, ab := OrdinaryCreateFromConstructor(a, f, "%GeneratorFunction.prototype.prototype%", KindGenerator, nil)
		if ab != nil {
			return *ab
		}
		a.GeneratorStart(g, func(a *Agent) Completion { return a.evaluateFunctionCode(fs) })
		return *ReturnCompletion(ObjectValue(g))

	case FunctionAsyncGenerator:
		if ab := a.FunctionDeclarationInstantiation(f, args); ab != nil {
			return *ab
		}
		g, ab := OrdinaryCreateFromConstructor(a, f, "%AsyncGeneratorFunction.prototype.prototype%", KindAsyncGenerator, nil)
		if ab != nil {
			return *ab
		}
		a.AsyncGeneratorStart(g, func(a *Agent) Completion { return a.evaluateFunctionCode(fs) })
		return *ReturnCompletion(ObjectValue(g))

	case FunctionAsync:
		capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
		if ab := a.FunctionDeclarationInstantiation(f, args); ab != nil {
			MustOK(second(Call(a, ObjectValue(capability.Reject), Undefined, []Value{ab.Value})))
		} else {
			a.AsyncFunctionStart(capability, func(a *Agent) Completion { return a.evaluateFunctionCode(fs) })
		}
		return *ReturnCompletion(ObjectValue(capability.Promise))
	}
	if ab := a.FunctionDeclarationInstantiation(f, args); ab != nil {
		return *ab
	}
	return a.evaluateFunctionCode(fs)
}

// evaluateFunctionCode evaluates the statements or concise expression of a
// function body. Expression bodies complete with a return.
func (a *Agent) evaluateFunctionCode(fs *FunctionSlots) Completion {
	info := fs.info
	switch body := info.body.(type) {
	case *ast.BlockStatement:
		return a.evalStatementList(body.List)
	case *ast.ExpressionBody:
		var v Value
		var ab *Completion
		if fs.ClassFieldInitializerName != nil && isAnonymousFunctionDefinition(body.Expression) {
			v, ab = a.namedEvaluation(body.Expression, fs.ClassFieldInitializerName.functionName())
		} else {
			v, ab = a.evalExpressionValue(body.Expression)
		}
		if ab != nil {
			return *ab
		}
		return *ReturnCompletion(v)
	}
	panic(assertionf("function body of type %T", info.body))
}

// second discards the value half of an operation result.
func second[T any](_ T, ab *Completion) *Completion { return ab }

// --- bound functions ---

// BoundFunctionSlots are the slots of a bound function exotic object.
type BoundFunctionSlots struct {
	TargetFunction *Object
	BoundThis      Value
	BoundArguments []Value
}

// BoundFunctionCreate implements BoundFunctionCreate.
func BoundFunctionCreate(a *Agent, target *Object, boundThis Value, boundArgs []Value) (*Object, *Completion) {
	proto, ab := target.GetPrototypeOf(a)
	if ab != nil {
		return nil, ab
	}
	methods := boundFunctionMethods
	if target.methods.Construct != nil {
		methods = boundConstructorMethods
	}
	slots := &BoundFunctionSlots{TargetFunction: target, BoundThis: boundThis, BoundArguments: append([]Value(nil), boundArgs...)}
	return MakeBasicObject(KindBoundFunction, methods, proto, slots), nil
}

func boundFunctionCall(a *Agent, f *Object, _ Value, args []Value) (Value, *Completion) {
	bs := f.slots.(*BoundFunctionSlots)
	full := make([]Value, 0, len(bs.BoundArguments)+len(args))
	full = append(append(full, bs.BoundArguments...), args...)
	return Call(a, ObjectValue(bs.TargetFunction), bs.BoundThis, full)
}

func boundFunctionConstruct(a *Agent, f *Object, args []Value, newTarget *Object) (Value, *Completion) {
	bs := f.slots.(*BoundFunctionSlots)
	full := make([]Value, 0, len(bs.BoundArguments)+len(args))
	full = append(append(full, bs.BoundArguments...), args...)
	if newTarget == f {
		newTarget = bs.TargetFunction
	}
	return Construct(a, bs.TargetFunction, full, newTarget)
}
