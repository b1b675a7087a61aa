package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// optionalShortCircuit unwinds an optional chain whose base is nullish. It
// never escapes the enclosing *ast.OptionalChain.
var optionalShortCircuit = &Completion{Type: CompletionBreak, Value: Empty, Target: "?."}

// completionValue splits a statement-style completion into the operation
// form.
func completionValue(c Completion) (Value, *Completion) {
	if c.Type == CompletionNormal {
		return c.Value, nil
	}
	return Undefined, c.abrupt()
}

// evalExpressionValue evaluates an expression and applies GetValue.
func (a *Agent) evalExpressionValue(e ast.Expression) (Value, *Completion) {
	switch e := e.(type) {
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		ref, ab := a.evalReference(e)
		if ab != nil {
			return Undefined, ab
		}
		return a.GetValue(ref)

	case *ast.NullLiteral:
		return Null, nil
	case *ast.BooleanLiteral:
		return Bool(e.Value), nil
	case *ast.NumberLiteral:
		return numericLiteral(e), nil
	case *ast.StringLiteral:
		return String(e.Value.String()), nil
	case *ast.TemplateLiteral:
		return a.evalTemplate(e)
	case *ast.RegExpLiteral:
		re, ab := a.RegExpCreateLiteral(e.Pattern, e.Flags)
		return ObjectValue(re), ab

	case *ast.ThisExpression:
		return a.ResolveThisBinding()
	case *ast.ArrayLiteral:
		return a.evalArrayLiteral(e)
	case *ast.ObjectLiteral:
		return a.evalObjectLiteral(e)
	case *ast.FunctionLiteral:
		return ObjectValue(a.functionExpression(e, StringKey(""))), nil
	case *ast.ArrowFunctionLiteral:
		return ObjectValue(a.arrowFunction(e, StringKey(""))), nil
	case *ast.ClassLiteral:
		return a.classExpression(e, StringKey(""))

	case *ast.CallExpression:
		return a.evalCall(e)
	case *ast.NewExpression:
		return a.evalNew(e)
	case *ast.OptionalChain:
		v, ab := a.evalExpressionValue(e.Expression)
		if ab == optionalShortCircuit {
			return Undefined, nil
		}
		return v, ab
	case *ast.Optional:
		v, ab := a.evalExpressionValue(e.Expression)
		if ab != nil {
			return Undefined, ab
		}
		if v.IsNullish() {
			return Undefined, optionalShortCircuit
		}
		return v, nil

	case *ast.UnaryExpression:
		return a.evalUnary(e)
	case *ast.BinaryExpression:
		return a.evalBinary(e)
	case *ast.ConditionalExpression:
		test, ab := a.evalExpressionValue(e.Test)
		if ab != nil {
			return Undefined, ab
		}
		if ToBoolean(test) {
			return a.evalExpressionValue(e.Consequent)
		}
		return a.evalExpressionValue(e.Alternate)
	case *ast.AssignExpression:
		return a.evalAssign(e)
	case *ast.SequenceExpression:
		v := Undefined
		for _, sub := range e.Sequence {
			var ab *Completion
			if v, ab = a.evalExpressionValue(sub); ab != nil {
				return Undefined, ab
			}
		}
		return v, nil

	case *ast.YieldExpression:
		if e.Delegate {
			return a.evalYieldDelegate(e.Argument)
		}
		v := Undefined
		if e.Argument != nil {
			var ab *Completion
			if v, ab = a.evalExpressionValue(e.Argument); ab != nil {
				return Undefined, ab
			}
		}
		return completionValue(a.yieldValue(v))
	case *ast.AwaitExpression:
		v, ab := a.evalExpressionValue(e.Argument)
		if ab != nil {
			return Undefined, ab
		}
		return a.Await(v)

	case *ast.MetaProperty:
		if e.Meta.Name == "new" && e.Property.Name == "target" {
			return a.GetNewTarget(), nil
		}
		return Undefined, a.Throw(SyntaxError, MsgUnsupportedSyntax, string(e.Meta.Name)+"."+string(e.Property.Name))
	case *ast.BadExpression:
		return Undefined, a.Throw(SyntaxError, MsgUnsupportedSyntax, "malformed expression")
	}
	return Undefined, a.Throw(SyntaxError, MsgUnsupportedSyntax, nodeName(e))
}

// nodeName names an AST node type for diagnostics.
func nodeName(n ast.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
}

// evalReference evaluates an expression that produces a Reference Record.
func (a *Agent) evalReference(e ast.Expression) (*Reference, *Completion) {
	strict := a.isStrict()
	switch e := e.(type) {
	case *ast.Identifier:
		return a.ResolveBinding(e.Name.String(), nil)

	case *ast.DotExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			return a.makeSuperPropertyReference(StringKey(e.Identifier.Name.String()), strict)
		}
		base, ab := a.evalExpressionValue(e.Left)
		if ab != nil {
			return nil, ab
		}
		return NewPropertyReference(base, StringKey(e.Identifier.Name.String()), strict), nil

	case *ast.BracketExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			env := a.GetThisEnvironment()
			if _, ab := env.GetThisBinding(a); ab != nil {
				return nil, ab
			}
			kv, ab := a.evalExpressionValue(e.Member)
			if ab != nil {
				return nil, ab
			}
			key, ab := ToPropertyKey(a, kv)
			if ab != nil {
				return nil, ab
			}
			return a.makeSuperPropertyReference(key, strict)
		}
		base, ab := a.evalExpressionValue(e.Left)
		if ab != nil {
			return nil, ab
		}
		kv, ab := a.evalExpressionValue(e.Member)
		if ab != nil {
			return nil, ab
		}
		if base.IsNullish() {
			return nil, a.Throw(TypeError, MsgCannotConvertToObject, base.String())
		}
		key, ab := ToPropertyKey(a, kv)
		if ab != nil {
			return nil, ab
		}
		return NewPropertyReference(base, key, strict), nil

	case *ast.PrivateDotExpression:
		base, ab := a.evalExpressionValue(e.Left)
		if ab != nil {
			return nil, ab
		}
		name := e.Identifier.Name.String()
		pn := a.RunningContext().PrivateEnvironment.ResolvePrivateIdentifier(name)
		return &Reference{base: base, name: StringKey(pn.Description), private: pn, strict: true}, nil
	}
	return nil, a.Throw(ReferenceError, MsgInvalidAssignTarget)
}

// makeSuperPropertyReference implements MakeSuperPropertyReference.
func (a *Agent) makeSuperPropertyReference(key PropertyKey, strict bool) (*Reference, *Completion) {
	env, ok := a.GetThisEnvironment().(*FunctionEnvironment)
	Assert(ok && env.HasSuperBinding(), "super property outside of a method")
	actualThis, ab := env.GetThisBinding(a)
	if ab != nil {
		return nil, ab
	}
	base, ab := env.GetSuperBase(a)
	if ab != nil {
		return nil, ab
	}
	return &Reference{base: base, name: key, strict: strict, thisValue: actualThis, hasThis: true}, nil
}

// --- literals ---

// numericLiteral returns the Number or BigInt value of a numeric literal.
func numericLiteral(n *ast.NumberLiteral) Value {
	switch v := n.Value.(type) {
	case int64:
		return Number(float64(v))
	case float64:
		return Number(v)
	case *big.Int:
		return BigInt(v)
	}
	panic(assertionf("numeric literal %q of type %T", n.Literal, n.Value))
}

// numberLiteralValue is the float value of a non-BigInt numeric literal.
func numberLiteralValue(n *ast.NumberLiteral) float64 {
	v := numericLiteral(n)
	if v.IsBigInt() {
		return BigIntToNumber(v.AsBigInt())
	}
	return v.num
}

func (a *Agent) evalArrayLiteral(e *ast.ArrayLiteral) (Value, *Completion) {
	arr := Must(ArrayCreate(a, 0, nil))
	var next int64
	for _, el := range e.Value {
		switch el := el.(type) {
		case nil:
			next++
			continue
		case *ast.SpreadElement:
			v, ab := a.evalExpressionValue(el.Expression)
			if ab != nil {
				return Undefined, ab
			}
			rec, ab := GetIterator(a, v, false)
			if ab != nil {
				return Undefined, ab
			}
			for {
				item, done, ab := IteratorStepValue(a, rec)
				if ab != nil {
					return Undefined, ab
				}
				if done {
					break
				}
				MustOK(CreateDataPropertyOrThrow(a, arr, IndexKey(next), item))
				next++
			}
			continue
		}
		v, ab := a.evalExpressionValue(el)
		if ab != nil {
			return Undefined, ab
		}
		MustOK(CreateDataPropertyOrThrow(a, arr, IndexKey(next), v))
		next++
	}
	MustOK(Set(a, arr, lengthKey, Number(float64(next)), true))
	return ObjectValue(arr), nil
}

func (a *Agent) evalObjectLiteral(e *ast.ObjectLiteral) (Value, *Completion) {
	obj := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	for _, p := range e.Value {
		switch p := p.(type) {
		case *ast.PropertyShort:
			v, ab := a.evalExpressionValue(&p.Name)
			if ab != nil {
				return Undefined, ab
			}
			MustOK(CreateDataPropertyOrThrow(a, obj, StringKey(p.Name.Name.String()), v))

		case *ast.SpreadElement:
			v, ab := a.evalExpressionValue(p.Expression)
			if ab != nil {
				return Undefined, ab
			}
			if ab := CopyDataProperties(a, obj, v, nil); ab != nil {
				return Undefined, ab
			}

		case *ast.PropertyKeyed:
			if ab := a.evalPropertyDefinition(obj, p); ab != nil {
				return Undefined, ab
			}
		}
	}
	return ObjectValue(obj), nil
}

// evalPropertyDefinition implements PropertyDefinitionEvaluation for a
// keyed property of an object literal.
func (a *Agent) evalPropertyDefinition(obj *Object, p *ast.PropertyKeyed) *Completion {
	if p.Kind == ast.PropertyKindValue && !p.Computed {
		if s, ok := p.Key.(*ast.StringLiteral); ok && s.Value == "__proto__" {
			v, ab := a.evalExpressionValue(p.Value)
			if ab != nil {
				return ab
			}
			if v.IsObject() || v.IsNull() {
				OrdinarySetPrototypeOf(a, obj, v.AsObject())
			}
			return nil
		}
	}
	key, ab := a.evalPropertyKey(p.Key, p.Computed)
	if ab != nil {
		return ab
	}
	switch p.Kind {
	case ast.PropertyKindValue:
		var v Value
		if isAnonymousFunctionDefinition(p.Value) {
			v, ab = a.namedEvaluation(p.Value, key)
		} else {
			v, ab = a.evalExpressionValue(p.Value)
		}
		if ab != nil {
			return ab
		}
		MustOK(CreateDataPropertyOrThrow(a, obj, key, v))
		return nil
	case ast.PropertyKindMethod:
		closure := a.methodFunction(p.Value.(*ast.FunctionLiteral), obj, key, "")
		return DefinePropertyOrThrow(a, obj, key, DataDescriptor(ObjectValue(closure), true, true, true))
	}
	closure := a.methodFunction(p.Value.(*ast.FunctionLiteral), obj, key, string(p.Kind))
	desc := PropertyDescriptor{HasEnumerable: true, Enumerable: true, HasConfigurable: true, Configurable: true}
	if p.Kind == ast.PropertyKindGet {
		desc.Get, desc.HasGet = ObjectValue(closure), true
	} else {
		desc.Set, desc.HasSet = ObjectValue(closure), true
	}
	return DefinePropertyOrThrow(a, obj, key, desc)
}

// --- templates ---

func (a *Agent) evalTemplate(e *ast.TemplateLiteral) (Value, *Completion) {
	if e.Tag != nil {
		fn, this, ab := a.evalCallee(e.Tag)
		if ab != nil {
			return Undefined, ab
		}
		args := []Value{ObjectValue(a.GetTemplateObject(e))}
		for _, sub := range e.Expressions {
			v, ab := a.evalExpressionValue(sub)
			if ab != nil {
				return Undefined, ab
			}
			args = append(args, v)
		}
		if !IsCallable(fn) {
			return Undefined, a.Throw(TypeError, MsgNotCallable, calleeName(e.Tag, fn))
		}
		return Call(a, fn, this, args)
	}
	var sb strings.Builder
	for i, el := range e.Elements {
		if !el.Valid {
			return Undefined, a.Throw(SyntaxError, MsgInvalidTemplate)
		}
		sb.WriteString(el.Parsed.String())
		if i < len(e.Expressions) {
			v, ab := a.evalExpressionValue(e.Expressions[i])
			if ab != nil {
				return Undefined, ab
			}
			s, ab := ToString(a, v)
			if ab != nil {
				return Undefined, ab
			}
			sb.WriteString(s)
		}
	}
	return String(sb.String()), nil
}

// templateRaw implements TRV: line terminators are normalized to LF.
func templateRaw(literal string) string {
	literal = strings.ReplaceAll(literal, "\r\n", "\n")
	return strings.ReplaceAll(literal, "\r", "\n")
}

// GetTemplateObject implements GetTemplateObject; template objects are
// cached per realm and site.
func (a *Agent) GetTemplateObject(site *ast.TemplateLiteral) *Object {
	realm := a.CurrentRealm()
	if t, ok := realm.TemplateMap[site]; ok {
		return t
	}
	n := uint64(len(site.Elements))
	template := Must(ArrayCreate(a, n, nil))
	raw := Must(ArrayCreate(a, n, nil))
	for i, el := range site.Elements {
		cooked := Undefined
		if el.Valid {
			cooked = String(el.Parsed.String())
		}
		template.DefineDirect(IndexKey(int64(i)), cooked, false, true, false)
		raw.DefineDirect(IndexKey(int64(i)), String(templateRaw(el.Literal)), false, true, false)
	}
	Must(SetIntegrityLevel(a, raw, IntegrityFrozen))
	template.DefineDirect(StringKey("raw"), ObjectValue(raw), false, false, false)
	Must(SetIntegrityLevel(a, template, IntegrityFrozen))
	realm.TemplateMap[site] = template
	return template
}

// --- functions and classes ---

func isAnonymousFunctionDefinition(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.FunctionLiteral:
		return e.Name == nil
	case *ast.ClassLiteral:
		return e.Name == nil
	case *ast.ArrowFunctionLiteral:
		return true
	}
	return false
}

// namedEvaluation implements NamedEvaluation; other expressions are simply
// evaluated.
func (a *Agent) namedEvaluation(e ast.Expression, name PropertyKey) (Value, *Completion) {
	switch e := e.(type) {
	case *ast.FunctionLiteral:
		return ObjectValue(a.functionExpression(e, name)), nil
	case *ast.ArrowFunctionLiteral:
		return ObjectValue(a.arrowFunction(e, name)), nil
	case *ast.ClassLiteral:
		return a.classExpression(e, name)
	}
	return a.evalExpressionValue(e)
}

// functionExpression evaluates a function expression of any kind. Named
// expressions get an environment binding their own name.
func (a *Agent) functionExpression(lit *ast.FunctionLiteral, name PropertyKey) *Object {
	ctx := a.RunningContext()
	if lit.Name == nil {
		return a.instantiateFunction(lit, ctx.LexicalEnvironment, ctx.PrivateEnvironment, name)
	}
	n := lit.Name.Name.String()
	funcEnv := NewDeclarativeEnvironment(ctx.LexicalEnvironment)
	MustOK(funcEnv.CreateImmutableBinding(a, n, false))
	closure := a.instantiateFunction(lit, funcEnv, ctx.PrivateEnvironment, StringKey(n))
	MustOK(funcEnv.InitializeBinding(a, n, ObjectValue(closure)))
	return closure
}

func (a *Agent) arrowFunction(lit *ast.ArrowFunctionLiteral, name PropertyKey) *Object {
	ctx := a.RunningContext()
	proto := "%Function.prototype%"
	if lit.Async {
		proto = "%AsyncFunction.prototype%"
	}
	f := a.OrdinaryFunctionCreate(ctx.Realm.Intrinsic(proto), lit, ctx.LexicalEnvironment, ctx.PrivateEnvironment)
	SetFunctionName(f, name, "")
	return f
}

func (a *Agent) classExpression(cls *ast.ClassLiteral, name PropertyKey) (Value, *Completion) {
	binding := ""
	if cls.Name != nil {
		binding = cls.Name.Name.String()
		name = StringKey(binding)
	}
	F, ab := a.ClassDefinitionEvaluation(binding, name, cls)
	if ab != nil {
		return Undefined, ab
	}
	return ObjectValue(F), nil
}

// --- calls ---

// evalCallee evaluates the callee of a call and the this value it implies.
func (a *Agent) evalCallee(e ast.Expression) (fn, this Value, ab *Completion) {
	switch e := e.(type) {
	case *ast.Optional:
		fn, this, ab = a.evalCallee(e.Expression)
		if ab != nil {
			return Undefined, Undefined, ab
		}
		if fn.IsNullish() {
			return Undefined, Undefined, optionalShortCircuit
		}
		return fn, this, nil
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		ref, ab := a.evalReference(e)
		if ab != nil {
			return Undefined, Undefined, ab
		}
		fn, ab = a.GetValue(ref)
		if ab != nil {
			return Undefined, Undefined, ab
		}
		switch {
		case ref.IsPropertyReference():
			this = ref.GetThisValue()
		case ref.env != nil:
			this = ref.env.WithBaseObject()
		default:
			this = Undefined
		}
		return fn, this, nil
	}
	fn, ab = a.evalExpressionValue(e)
	return fn, Undefined, ab
}

// calleeName renders the callee expression for "is not a function" errors.
func calleeName(e ast.Expression, fn Value) string {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Name.String()
	case *ast.DotExpression:
		if left := calleeName(e.Left, Undefined); left != "" {
			return left + "." + e.Identifier.Name.String()
		}
	case *ast.ThisExpression:
		return "this"
	case *ast.SuperExpression:
		return "super"
	case *ast.Optional:
		return calleeName(e.Expression, fn)
	}
	if fn.IsUndefined() {
		return ""
	}
	return describeCallee(fn)
}

// evalArguments implements ArgumentListEvaluation, spreading iterables.
func (a *Agent) evalArguments(list []ast.Expression) ([]Value, *Completion) {
	args := make([]Value, 0, len(list))
	for _, e := range list {
		sp, ok := e.(*ast.SpreadElement)
		if !ok {
			v, ab := a.evalExpressionValue(e)
			if ab != nil {
				return nil, ab
			}
			args = append(args, v)
			continue
		}
		v, ab := a.evalExpressionValue(sp.Expression)
		if ab != nil {
			return nil, ab
		}
		rec, ab := GetIterator(a, v, false)
		if ab != nil {
			return nil, ab
		}
		rest, ab := IteratorToList(a, rec)
		if ab != nil {
			return nil, ab
		}
		args = append(args, rest...)
	}
	return args, nil
}

func (a *Agent) evalCall(e *ast.CallExpression) (Value, *Completion) {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		return a.evalSuperCall(e.ArgumentList)
	}
	fn, this, ab := a.evalCallee(e.Callee)
	if ab != nil {
		return Undefined, ab
	}
	args, ab := a.evalArguments(e.ArgumentList)
	if ab != nil {
		return Undefined, ab
	}
	if !IsCallable(fn) {
		name := calleeName(e.Callee, fn)
		if name == "" {
			name = describeCallee(fn)
		}
		return Undefined, a.Throw(TypeError, MsgNotCallable, name)
	}
	return Call(a, fn, this, args)
}

func (a *Agent) evalNew(e *ast.NewExpression) (Value, *Completion) {
	ctor, ab := a.evalExpressionValue(e.Callee)
	if ab != nil {
		return Undefined, ab
	}
	args, ab := a.evalArguments(e.ArgumentList)
	if ab != nil {
		return Undefined, ab
	}
	if !IsConstructor(ctor) {
		name := calleeName(e.Callee, ctor)
		if name == "" {
			name = describeCallee(ctor)
		}
		return Undefined, a.Throw(TypeError, MsgNotConstructor, name)
	}
	return Construct(a, ctor.AsObject(), args, nil)
}

// evalSuperCall implements the SuperCall evaluation: construct the parent
// with the current new.target, bind this and run field initializers.
func (a *Agent) evalSuperCall(list []ast.Expression) (Value, *Completion) {
	newTarget := a.GetNewTarget()
	Assert(newTarget.IsObject(), "super call without new.target")
	thisEnv, ok := a.GetThisEnvironment().(*FunctionEnvironment)
	Assert(ok, "super call outside of a function environment")
	activeFunction := thisEnv.FunctionObject
	superConstructor, ab := activeFunction.GetPrototypeOf(a)
	if ab != nil {
		return Undefined, ab
	}
	args, ab := a.evalArguments(list)
	if ab != nil {
		return Undefined, ab
	}
	if !IsConstructor(ObjectValue(superConstructor)) {
		return Undefined, a.Throw(TypeError, MsgSuperNotConstructor, ObjectValue(superConstructor).String())
	}
	result, ab := Construct(a, superConstructor, args, newTarget.AsObject())
	if ab != nil {
		return Undefined, ab
	}
	if ab := thisEnv.BindThisValue(a, result); ab != nil {
		return Undefined, ab
	}
	if ab := InitializeInstanceElements(a, result.AsObject(), activeFunction); ab != nil {
		return Undefined, ab
	}
	return result, nil
}

// --- operators ---

func (a *Agent) evalUnary(e *ast.UnaryExpression) (Value, *Completion) {
	switch e.Operator {
	case token.DELETE:
		return a.evalDelete(e.Operand)
	case token.TYPEOF:
		if id, ok := e.Operand.(*ast.Identifier); ok {
			ref, ab := a.ResolveBinding(id.Name.String(), nil)
			if ab != nil {
				return Undefined, ab
			}
			if ref.IsUnresolvable() {
				return String("undefined"), nil
			}
			v, ab := a.GetValue(ref)
			if ab != nil {
				return Undefined, ab
			}
			return String(TypeOf(v)), nil
		}
		v, ab := a.evalExpressionValue(e.Operand)
		if ab != nil {
			return Undefined, ab
		}
		return String(TypeOf(v)), nil
	case token.INCREMENT, token.DECREMENT:
		return a.evalUpdate(e)
	}
	v, ab := a.evalExpressionValue(e.Operand)
	if ab != nil {
		return Undefined, ab
	}
	switch e.Operator {
	case token.VOID:
		return Undefined, nil
	case token.NOT:
		return Bool(!ToBoolean(v)), nil
	case token.PLUS:
		n, ab := ToNumber(a, v)
		return Number(n), ab
	case token.MINUS:
		n, ab := ToNumeric(a, v)
		if ab != nil {
			return Undefined, ab
		}
		return unaryMinus(n), nil
	case token.BITWISE_NOT:
		n, ab := ToNumeric(a, v)
		if ab != nil {
			return Undefined, ab
		}
		return bitwiseNot(n), nil
	}
	panic(assertionf("unary operator %s", e.Operator))
}

func (a *Agent) evalDelete(operand ast.Expression) (Value, *Completion) {
	if oc, ok := operand.(*ast.OptionalChain); ok {
		ref, ab := a.evalReference(oc.Expression)
		if ab == optionalShortCircuit {
			return True, nil
		}
		if ab != nil {
			return Undefined, ab
		}
		return a.deleteReference(ref)
	}
	switch operand.(type) {
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression:
	default:
		if _, ab := a.evalExpressionValue(operand); ab != nil {
			return Undefined, ab
		}
		return True, nil
	}
	ref, ab := a.evalReference(operand)
	if ab != nil {
		return Undefined, ab
	}
	return a.deleteReference(ref)
}

func (a *Agent) deleteReference(ref *Reference) (Value, *Completion) {
	if ref.IsUnresolvable() {
		return True, nil
	}
	if !ref.IsPropertyReference() {
		ok, ab := ref.env.DeleteBinding(a, ref.name.name)
		return Bool(ok), ab
	}
	if ref.IsSuper() {
		return Undefined, a.Throw(ReferenceError, MsgUnsupportedSyntax, "delete of a super property")
	}
	base, ab := ToObject(a, ref.base)
	if ab != nil {
		return Undefined, ab
	}
	ok, ab := base.Delete(a, ref.name)
	if ab != nil {
		return Undefined, ab
	}
	if !ok && ref.strict {
		return Undefined, a.Throw(TypeError, MsgCannotDeleteProperty, ref.name.String(), base.describe())
	}
	return Bool(ok), nil
}

func (a *Agent) evalUpdate(e *ast.UnaryExpression) (Value, *Completion) {
	ref, ab := a.evalReference(e.Operand)
	if ab != nil {
		return Undefined, ab
	}
	old, ab := a.GetValue(ref)
	if ab != nil {
		return Undefined, ab
	}
	oldNum, ab := ToNumeric(a, old)
	if ab != nil {
		return Undefined, ab
	}
	delta := int64(1)
	if e.Operator == token.DECREMENT {
		delta = -1
	}
	newValue := numericIncrement(oldNum, delta)
	if ab := a.PutValue(ref, newValue); ab != nil {
		return Undefined, ab
	}
	if e.Postfix {
		return oldNum, nil
	}
	return newValue, nil
}

func (a *Agent) evalBinary(e *ast.BinaryExpression) (Value, *Completion) {
	// The parser only yields a private identifier on the left of `in`, and
	// records the token following `in` as the operator, so match on the
	// operand instead.
	if pid, ok := e.Left.(*ast.PrivateIdentifier); ok {
		rval, ab := a.evalExpressionValue(e.Right)
		if ab != nil {
			return Undefined, ab
		}
		o := rval.AsObject()
		if o == nil {
			return Undefined, a.Throw(TypeError, MsgInNotObject, "#"+pid.Name.String(), rval.String())
		}
		pn := a.RunningContext().PrivateEnvironment.ResolvePrivateIdentifier(pid.Name.String())
		return Bool(PrivateElementFind(o, pn) != nil), nil
	}
	switch e.Operator {
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		lval, ab := a.evalExpressionValue(e.Left)
		if ab != nil {
			return Undefined, ab
		}
		if shortCircuits(e.Operator, lval) {
			return lval, nil
		}
		return a.evalExpressionValue(e.Right)
	}
	lval, ab := a.evalExpressionValue(e.Left)
	if ab != nil {
		return Undefined, ab
	}
	rval, ab := a.evalExpressionValue(e.Right)
	if ab != nil {
		return Undefined, ab
	}
	return a.evaluateBinary(e.Operator, lval, rval)
}

// shortCircuits reports whether a logical operator returns its left operand.
func shortCircuits(op token.Token, lval Value) bool {
	switch op {
	case token.LOGICAL_AND:
		return !ToBoolean(lval)
	case token.LOGICAL_OR:
		return ToBoolean(lval)
	}
	return !lval.IsNullish()
}

func (a *Agent) evalAssign(e *ast.AssignExpression) (Value, *Completion) {
	if e.Operator == token.ASSIGN {
		switch e.Left.(type) {
		case *ast.ArrayPattern, *ast.ObjectPattern:
			rval, ab := a.evalExpressionValue(e.Right)
			if ab != nil {
				return Undefined, ab
			}
			if ab := a.BindingInitialization(e.Left, rval, nil); ab != nil {
				return Undefined, ab
			}
			return rval, nil
		}
	}
	lref, ab := a.evalReference(e.Left)
	if ab != nil {
		return Undefined, ab
	}
	var rval Value
	switch e.Operator {
	case token.ASSIGN:
		rval, ab = a.evalNamedRHS(e.Left, e.Right)
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		lval, ab := a.GetValue(lref)
		if ab != nil {
			return Undefined, ab
		}
		if shortCircuits(e.Operator, lval) {
			return lval, nil
		}
		rval, ab = a.evalNamedRHS(e.Left, e.Right)
		if ab != nil {
			return Undefined, ab
		}
	default:
		lval, ab := a.GetValue(lref)
		if ab != nil {
			return Undefined, ab
		}
		r, ab := a.evalExpressionValue(e.Right)
		if ab != nil {
			return Undefined, ab
		}
		if rval, ab = ApplyStringOrNumericBinaryOperator(a, lval, e.Operator, r); ab != nil {
			return Undefined, ab
		}
	}
	if ab != nil {
		return Undefined, ab
	}
	if ab := a.PutValue(lref, rval); ab != nil {
		return Undefined, ab
	}
	return rval, nil
}

// evalNamedRHS evaluates the right side of an assignment to an identifier,
// naming anonymous functions after it.
func (a *Agent) evalNamedRHS(left, right ast.Expression) (Value, *Completion) {
	if id, ok := left.(*ast.Identifier); ok && isAnonymousFunctionDefinition(right) {
		return a.namedEvaluation(right, StringKey(id.Name.String()))
	}
	return a.evalExpressionValue(right)
}

// --- generators ---

// evalYieldDelegate implements yield* for sync and async generators.
func (a *Agent) evalYieldDelegate(arg ast.Expression) (Value, *Completion) {
	async := a.generatorKind() == FunctionAsyncGenerator
	value, ab := a.evalExpressionValue(arg)
	if ab != nil {
		return Undefined, ab
	}
	rec, ab := GetIterator(a, value, async)
	if ab != nil {
		return Undefined, ab
	}
	iterator := ObjectValue(rec.Iterator)
	received := NormalCompletion(Undefined)
	for {
		var innerResult Value
		var ab *Completion
		switch received.Type {
		case CompletionNormal:
			innerResult, ab = Call(a, rec.NextMethod, iterator, []Value{received.Value})
		case CompletionThrow:
			var throwMethod Value
			if throwMethod, ab = GetMethod(a, iterator, StringKey("throw")); ab != nil {
				return Undefined, ab
			}
			if throwMethod.IsUndefined() {
				var closeAb *Completion
				if async {
					closeAb = AsyncIteratorClose(a, rec, nil)
				} else {
					closeAb = IteratorClose(a, rec, nil)
				}
				if closeAb != nil {
					return Undefined, closeAb
				}
				return Undefined, a.Throw(TypeError, MsgIteratorNoThrow)
			}
			innerResult, ab = Call(a, throwMethod, iterator, []Value{received.Value})
		default:
			var returnMethod Value
			if returnMethod, ab = GetMethod(a, iterator, StringKey("return")); ab != nil {
				return Undefined, ab
			}
			if returnMethod.IsUndefined() {
				v := received.Value
				if async {
					if v, ab = a.Await(v); ab != nil {
						return Undefined, ab
					}
				}
				return Undefined, ReturnCompletion(v)
			}
			innerResult, ab = Call(a, returnMethod, iterator, []Value{received.Value})
		}
		if ab != nil {
			return Undefined, ab
		}
		if async {
			if innerResult, ab = a.Await(innerResult); ab != nil {
				return Undefined, ab
			}
		}
		resultObj := innerResult.AsObject()
		if resultObj == nil {
			return Undefined, a.Throw(TypeError, MsgIteratorResultNotObj, innerResult.String())
		}
		done, ab := IteratorComplete(a, resultObj)
		if ab != nil {
			return Undefined, ab
		}
		if done {
			v, ab := IteratorValue(a, resultObj)
			if ab != nil {
				return Undefined, ab
			}
			if received.Type != CompletionReturn {
				return v, nil
			}
			if async {
				if v, ab = a.Await(v); ab != nil {
					return Undefined, ab
				}
			}
			return Undefined, ReturnCompletion(v)
		}
		if async {
			v, ab := IteratorValue(a, resultObj)
			if ab != nil {
				return Undefined, ab
			}
			received = a.AsyncGeneratorYield(v)
		} else {
			received = a.GeneratorYield(resultObj)
		}
	}
}
