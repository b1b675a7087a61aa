package engine

import (
	"slices"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// lexicalDeclaration is one entry of LexicallyScopedDeclarations.
type lexicalDeclaration struct {
	names    []string
	isConst  bool
	function *ast.FunctionLiteral
}

// declarationInfo is the static scope analysis of a script or function body:
// what gets hoisted where.
type declarationInfo struct {
	varNames      []string // VarDeclaredNames, functions included
	varDeclNames  []string // names from var declarations only
	functions     []*ast.FunctionLiteral
	functionNames map[string]bool
	lexDecls      []lexicalDeclaration
	lexicalNames  map[string]bool
}

// functionInfo caches the analysis of one function node.
type functionInfo struct {
	declarationInfo

	node            ast.Node
	params          *ast.ParameterList
	body            ast.ConciseBody
	kind            FunctionKind
	arrow           bool
	noArguments     bool
	directiveStrict bool
	source          string

	paramNames          []string
	hasDuplicates       bool
	simpleParams        bool
	hasParamExpressions bool
	expectedArgs        int
}

var emptyParams = &ast.ParameterList{}

// analyzeFunction returns the cached analysis for a function-like node.
func (a *Agent) analyzeFunction(node ast.Node) *functionInfo {
	if info, ok := a.functionInfo[node]; ok {
		return info
	}
	info := &functionInfo{node: node, params: emptyParams}
	var decls []*ast.VariableDeclaration
	switch n := node.(type) {
	case *ast.FunctionLiteral:
		info.params = n.ParameterList
		info.body = n.Body
		info.source = n.Source
		decls = n.DeclarationList
		switch {
		case n.Async && n.Generator:
			info.kind = FunctionAsyncGenerator
		case n.Async:
			info.kind = FunctionAsync
		case n.Generator:
			info.kind = FunctionGenerator
		}
	case *ast.ArrowFunctionLiteral:
		info.params = n.ParameterList
		info.body = n.Body
		info.source = n.Source
		info.arrow = true
		decls = n.DeclarationList
		if n.Async {
			info.kind = FunctionAsync
		}
	case *ast.ClassStaticBlock:
		info.body = n.Block
		info.source = n.Source
		info.noArguments = true
		decls = n.DeclarationList
	case *ast.FieldDefinition:
		info.body = &ast.ExpressionBody{Expression: n.Initializer}
		info.noArguments = true
	default:
		panic(assertionf("cannot create a function from %T", node))
	}
	if info.params == nil {
		info.params = emptyParams
	}
	var stmts []ast.Statement
	if block, ok := info.body.(*ast.BlockStatement); ok {
		stmts = block.List
		info.directiveStrict = hasUseStrictDirective(stmts)
	}
	info.declarationInfo = analyzeDeclarations(stmts, decls, true)
	info.analyzeParams()
	a.functionInfo[node] = info
	return info
}

func (info *functionInfo) analyzeParams() {
	p := info.params
	info.simpleParams = p.Rest == nil
	info.expectedArgs = -1
	seen := make(map[string]bool)
	for i, b := range p.List {
		if _, ok := b.Target.(*ast.Identifier); !ok || b.Initializer != nil {
			info.simpleParams = false
		}
		if b.Initializer != nil || containsExpression(b.Target) {
			info.hasParamExpressions = true
		}
		if b.Initializer != nil && info.expectedArgs < 0 {
			info.expectedArgs = i
		}
		info.paramNames = BoundNames(b.Target, info.paramNames)
	}
	if p.Rest != nil {
		if containsExpression(p.Rest) {
			info.hasParamExpressions = true
		}
		info.paramNames = BoundNames(p.Rest, info.paramNames)
	}
	if info.expectedArgs < 0 {
		info.expectedArgs = len(p.List)
	}
	for _, n := range info.paramNames {
		if seen[n] {
			info.hasDuplicates = true
		}
		seen[n] = true
	}
}

// analyzeDeclarations computes the var/function/lexical split of a body.
// At function and script top level, function declarations are var scoped.
func analyzeDeclarations(stmts []ast.Statement, decls []*ast.VariableDeclaration, topLevel bool) declarationInfo {
	info := declarationInfo{functionNames: make(map[string]bool), lexicalNames: make(map[string]bool)}
	seenVar := make(map[string]bool)
	for _, d := range decls {
		for _, b := range d.List {
			for _, n := range BoundNames(b.Target, nil) {
				if !seenVar[n] {
					seenVar[n] = true
					info.varDeclNames = append(info.varDeclNames, n)
				}
			}
		}
	}
	var fns []*ast.FunctionLiteral
	for _, s := range stmts {
		if topLevel {
			if fn := hoistableFunction(s); fn != nil {
				fns = append(fns, fn)
				continue
			}
		}
		if d, ok := lexicalDeclarationOf(s); ok {
			info.lexDecls = append(info.lexDecls, d)
			for _, n := range d.names {
				info.lexicalNames[n] = true
			}
		}
	}
	// The last declaration of a name wins; initialization follows the order
	// of those last declarations.
	for i := len(fns) - 1; i >= 0; i-- {
		name := fns[i].Name.Name.String()
		if info.functionNames[name] {
			continue
		}
		info.functionNames[name] = true
		info.functions = append(info.functions, fns[i])
	}
	slices.Reverse(info.functions)
	seen := make(map[string]bool)
	for _, fn := range fns {
		n := fn.Name.Name.String()
		if !seen[n] {
			seen[n] = true
			info.varNames = append(info.varNames, n)
		}
	}
	for _, n := range info.varDeclNames {
		if !seen[n] {
			seen[n] = true
			info.varNames = append(info.varNames, n)
		}
	}
	return info
}

// hoistableFunction returns the function declared by a top-level statement,
// looking through labels.
func hoistableFunction(s ast.Statement) *ast.FunctionLiteral {
	for {
		switch st := s.(type) {
		case *ast.FunctionDeclaration:
			return st.Function
		case *ast.LabelledStatement:
			s = st.Statement
		default:
			return nil
		}
	}
}

// lexicalDeclarationOf reports the lexical declaration made by a statement
// inside a block, switch or at the top of a body.
func lexicalDeclarationOf(s ast.Statement) (lexicalDeclaration, bool) {
	switch st := s.(type) {
	case *ast.LexicalDeclaration:
		d := lexicalDeclaration{isConst: st.Token == token.CONST}
		for _, b := range st.List {
			d.names = BoundNames(b.Target, d.names)
		}
		return d, true
	case *ast.ClassDeclaration:
		return lexicalDeclaration{names: []string{st.Class.Name.Name.String()}}, true
	case *ast.FunctionDeclaration:
		return lexicalDeclaration{names: []string{st.Function.Name.Name.String()}, function: st.Function}, true
	case *ast.LabelledStatement:
		if fn := hoistableFunction(st); fn != nil {
			return lexicalDeclaration{names: []string{fn.Name.Name.String()}, function: fn}, true
		}
	}
	return lexicalDeclaration{}, false
}

// hasUseStrictDirective scans a directive prologue.
func hasUseStrictDirective(stmts []ast.Statement) bool {
	for _, s := range stmts {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			return false
		}
		lit, ok := es.Expression.(*ast.StringLiteral)
		if !ok {
			return false
		}
		if lit.Literal == `"use strict"` || lit.Literal == `'use strict'` {
			return true
		}
	}
	return false
}

// BoundNames appends the identifiers bound by a binding target or pattern.
func BoundNames(target ast.Expression, out []string) []string {
	switch t := target.(type) {
	case *ast.Identifier:
		out = append(out, t.Name.String())
	case *ast.Binding:
		out = BoundNames(t.Target, out)
	case *ast.AssignExpression:
		out = BoundNames(t.Left, out)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				out = BoundNames(el, out)
			}
		}
		if t.Rest != nil {
			out = BoundNames(t.Rest, out)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch p := p.(type) {
			case *ast.PropertyShort:
				out = append(out, p.Name.Name.String())
			case *ast.PropertyKeyed:
				out = BoundNames(p.Value, out)
			}
		}
		if t.Rest != nil {
			out = BoundNames(t.Rest, out)
		}
	}
	return out
}

// containsExpression implements ContainsExpression for binding patterns.
func containsExpression(target ast.Expression) bool {
	switch t := target.(type) {
	case *ast.AssignExpression:
		return true
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil && containsExpression(el) {
				return true
			}
		}
		return t.Rest != nil && containsExpression(t.Rest)
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch p := p.(type) {
			case *ast.PropertyShort:
				if p.Initializer != nil {
					return true
				}
			case *ast.PropertyKeyed:
				if p.Computed || containsExpression(p.Value) {
					return true
				}
			}
		}
		return t.Rest != nil && containsExpression(t.Rest)
	}
	return false
}

// FunctionDeclarationInstantiation implements FunctionDeclarationInstantiation
// for the running callee context of f.
func (a *Agent) FunctionDeclarationInstantiation(f *Object, args []Value) *Completion {
	calleeContext := a.RunningContext()
	fs := f.slots.(*FunctionSlots)
	info := fs.info
	strict := fs.Strict

	argumentsNeeded := fs.ThisMode != ThisModeLexical && !info.noArguments
	switch {
	case !argumentsNeeded:
	case slices.Contains(info.paramNames, "arguments"):
		argumentsNeeded = false
	case !info.hasParamExpressions && (info.functionNames["arguments"] || info.lexicalNames["arguments"]):
		argumentsNeeded = false
	}

	env := calleeContext.LexicalEnvironment
	if !strict && info.hasParamExpressions {
		env = NewDeclarativeEnvironment(env)
		calleeContext.LexicalEnvironment = env
	}
	for _, name := range info.paramNames {
		if has, _ := env.HasBinding(a, name); has {
			continue
		}
		MustOK(env.CreateMutableBinding(a, name, false))
		if info.hasDuplicates {
			MustOK(env.InitializeBinding(a, name, Undefined))
		}
	}

	parameterBindings := info.paramNames
	if argumentsNeeded {
		var ao *Object
		if strict || !info.simpleParams {
			ao = a.CreateUnmappedArgumentsObject(args)
		} else {
			ao = a.CreateMappedArgumentsObject(f, info.paramNames, args, env)
		}
		if strict {
			MustOK(env.CreateImmutableBinding(a, "arguments", false))
		} else {
			MustOK(env.CreateMutableBinding(a, "arguments", false))
		}
		MustOK(env.InitializeBinding(a, "arguments", ObjectValue(ao)))
		parameterBindings = append(slices.Clip(parameterBindings), "arguments")
	}

	bindEnv := env
	if info.hasDuplicates {
		bindEnv = nil
	}
	if ab := a.bindParameters(info.params, args, bindEnv); ab != nil {
		return ab
	}

	var varEnv Environment
	instantiated := make(map[string]bool, len(parameterBindings)+len(info.varNames))
	for _, n := range parameterBindings {
		instantiated[n] = true
	}
	if !info.hasParamExpressions {
		for _, n := range info.varNames {
			if instantiated[n] {
				continue
			}
			instantiated[n] = true
			MustOK(env.CreateMutableBinding(a, n, false))
			MustOK(env.InitializeBinding(a, n, Undefined))
		}
		varEnv = env
	} else {
		varEnv = NewDeclarativeEnvironment(env)
		calleeContext.VariableEnvironment = varEnv
		for _, n := range info.varNames {
			if instantiated[n] {
				continue
			}
			instantiated[n] = true
			MustOK(varEnv.CreateMutableBinding(a, n, false))
			initial := Undefined
			if slices.Contains(parameterBindings, n) && !info.functionNames[n] {
				initial = Must(env.GetBindingValue(a, n, false))
			}
			MustOK(varEnv.InitializeBinding(a, n, initial))
		}
	}

	lexEnv := varEnv
	if !strict {
		lexEnv = NewDeclarativeEnvironment(varEnv)
	}
	calleeContext.LexicalEnvironment = lexEnv
	for _, d := range info.lexDecls {
		for _, dn := range d.names {
			if d.isConst {
				MustOK(lexEnv.CreateImmutableBinding(a, dn, true))
			} else {
				MustOK(lexEnv.CreateMutableBinding(a, dn, false))
			}
		}
	}
	privateEnv := calleeContext.PrivateEnvironment
	for _, fn := range info.functions {
		name := fn.Name.Name.String()
		fo := a.InstantiateFunctionObject(fn, lexEnv, privateEnv)
		MustOK(varEnv.SetMutableBinding(a, name, ObjectValue(fo), false))
	}
	return nil
}

// bindParameters performs IteratorBindingInitialization of the formals over
// the argument list. The list iterator is not observable, so elements are
// read directly.
func (a *Agent) bindParameters(params *ast.ParameterList, args []Value, env Environment) *Completion {
	for i, b := range params.List {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		if b.Initializer != nil && v.IsUndefined() {
			var ab *Completion
			if id, ok := b.Target.(*ast.Identifier); ok && isAnonymousFunctionDefinition(b.Initializer) {
				v, ab = a.namedEvaluation(b.Initializer, StringKey(id.Name.String()))
			} else {
				v, ab = a.evalExpressionValue(b.Initializer)
			}
			if ab != nil {
				return ab
			}
		}
		if ab := a.BindingInitialization(b.Target, v, env); ab != nil {
			return ab
		}
	}
	if params.Rest != nil {
		var rest []Value
		if len(args) > len(params.List) {
			rest = args[len(params.List):]
		}
		if ab := a.BindingInitialization(params.Rest, ObjectValue(CreateArrayFromList(a, rest)), env); ab != nil {
			return ab
		}
	}
	return nil
}

// InstantiateFunctionObject implements InstantiateFunctionObject for every
// function declaration flavour.
func (a *Agent) InstantiateFunctionObject(fn *ast.FunctionLiteral, env Environment, privateEnv *PrivateEnvironment) *Object {
	return a.instantiateFunction(fn, env, privateEnv, StringKey(fn.Name.Name.String()))
}

// GlobalDeclarationInstantiation implements GlobalDeclarationInstantiation.
func (a *Agent) GlobalDeclarationInstantiation(program *ast.Program, env *GlobalEnvironment) *Completion {
	info := analyzeDeclarations(program.Body, program.DeclarationList, true)
	for _, d := range info.lexDecls {
		for _, name := range d.names {
			if env.HasVarDeclaration(name) || env.HasLexicalDeclaration(name) {
				return a.Throw(SyntaxError, MsgAlreadyDeclared, name)
			}
			restricted, ab := env.HasRestrictedGlobalProperty(a, name)
			if ab != nil {
				return ab
			}
			if restricted {
				return a.Throw(SyntaxError, MsgAlreadyDeclared, name)
			}
		}
	}
	for _, name := range info.varNames {
		if env.HasLexicalDeclaration(name) {
			return a.Throw(SyntaxError, MsgAlreadyDeclared, name)
		}
	}
	for _, fn := range info.functions {
		name := fn.Name.Name.String()
		definable, ab := env.CanDeclareGlobalFunction(a, name)
		if ab != nil {
			return ab
		}
		if !definable {
			return a.Throw(TypeError, MsgCannotDeclareGlobal, name)
		}
	}
	var declaredVarNames []string
	for _, name := range info.varDeclNames {
		if info.functionNames[name] {
			continue
		}
		definable, ab := env.CanDeclareGlobalVar(a, name)
		if ab != nil {
			return ab
		}
		if !definable {
			return a.Throw(TypeError, MsgCannotDeclareGlobal, name)
		}
		declaredVarNames = append(declaredVarNames, name)
	}
	for _, d := range info.lexDecls {
		for _, name := range d.names {
			var ab *Completion
			if d.isConst {
				ab = env.CreateImmutableBinding(a, name, true)
			} else {
				ab = env.CreateMutableBinding(a, name, false)
			}
			if ab != nil {
				return ab
			}
		}
	}
	for _, fn := range info.functions {
		fo := a.InstantiateFunctionObject(fn, env, nil)
		if ab := env.CreateGlobalFunctionBinding(a, fn.Name.Name.String(), ObjectValue(fo), false); ab != nil {
			return ab
		}
	}
	for _, name := range declaredVarNames {
		if ab := env.CreateGlobalVarBinding(a, name, false); ab != nil {
			return ab
		}
	}
	return nil
}

// BlockDeclarationInstantiation implements BlockDeclarationInstantiation for
// a statement list evaluated in env.
func (a *Agent) BlockDeclarationInstantiation(stmts []ast.Statement, env *DeclarativeEnvironment) {
	privateEnv := a.RunningContext().PrivateEnvironment
	for _, s := range stmts {
		d, ok := lexicalDeclarationOf(s)
		if !ok {
			continue
		}
		for _, dn := range d.names {
			if _, exists := env.bindings[dn]; exists {
				// Sloppy-mode duplicate block functions; the last one wins.
				continue
			}
			if d.isConst {
				MustOK(env.CreateImmutableBinding(a, dn, true))
			} else {
				MustOK(env.CreateMutableBinding(a, dn, false))
			}
		}
		if d.function != nil {
			fo := a.InstantiateFunctionObject(d.function, env, privateEnv)
			name := d.function.Name.Name.String()
			if env.initialized(name) {
				env.bindings[name].value = ObjectValue(fo)
			} else {
				MustOK(env.InitializeBinding(a, name, ObjectValue(fo)))
			}
		}
	}
}

// hasLexicalDeclarations reports whether a statement list needs its own
// declarative environment.
func hasLexicalDeclarations(stmts []ast.Statement) bool {
	for _, s := range stmts {
		if _, ok := lexicalDeclarationOf(s); ok {
			return true
		}
	}
	return false
}
