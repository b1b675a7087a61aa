package engine

import (
	"slices"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// evalStatementList evaluates statements in order. The completion value is
// the last non-empty statement value.
func (a *Agent) evalStatementList(list []ast.Statement) Completion {
	v := Empty
	for _, s := range list {
		c := a.evalStatement(s)
		if c.Type != CompletionNormal {
			return UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
	}
	return NormalCompletion(v)
}

// evalBlock evaluates a block, giving it a declarative environment when it
// declares anything lexically.
func (a *Agent) evalBlock(list []ast.Statement) Completion {
	if !hasLexicalDeclarations(list) {
		return a.evalStatementList(list)
	}
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	blockEnv := NewDeclarativeEnvironment(oldEnv)
	a.BlockDeclarationInstantiation(list, blockEnv)
	ctx.LexicalEnvironment = blockEnv
	c := a.evalStatementList(list)
	ctx.LexicalEnvironment = oldEnv
	return c
}

func (a *Agent) evalStatement(s ast.Statement) Completion {
	switch st := s.(type) {
	case *ast.ExpressionStatement:
		v, ab := a.evalExpressionValue(st.Expression)
		if ab != nil {
			return *ab
		}
		return NormalCompletion(v)
	case *ast.BlockStatement:
		return a.evalBlock(st.List)
	case *ast.EmptyStatement, *ast.FunctionDeclaration:
		return NormalCompletion(Empty)
	case *ast.VariableStatement:
		if ab := a.evalVariableDeclarations(st.List); ab != nil {
			return *ab
		}
		return NormalCompletion(Empty)
	case *ast.LexicalDeclaration:
		if ab := a.evalLexicalDeclaration(st); ab != nil {
			return *ab
		}
		return NormalCompletion(Empty)
	case *ast.ClassDeclaration:
		name := st.Class.Name.Name.String()
		F, ab := a.ClassDefinitionEvaluation(name, StringKey(name), st.Class)
		if ab != nil {
			return *ab
		}
		env := a.RunningContext().LexicalEnvironment
		if ab := env.InitializeBinding(a, name, ObjectValue(F)); ab != nil {
			return *ab
		}
		return NormalCompletion(Empty)
	case *ast.IfStatement:
		return a.evalIf(st)
	case *ast.ReturnStatement:
		return a.evalReturn(st)
	case *ast.ThrowStatement:
		v, ab := a.evalExpressionValue(st.Argument)
		if ab != nil {
			return *ab
		}
		return *ThrowCompletion(v)
	case *ast.BranchStatement:
		label := ""
		if st.Label != nil {
			label = st.Label.Name.String()
		}
		if st.Token == token.BREAK {
			return *BreakCompletion(label)
		}
		return *ContinueCompletion(label)
	case *ast.TryStatement:
		return a.evalTry(st)
	case *ast.WithStatement:
		return a.evalWith(st)
	case *ast.DebuggerStatement:
		if a.Hooks.OnDebugger != nil {
			a.Hooks.OnDebugger(a)
		}
		return NormalCompletion(Empty)
	case *ast.LabelledStatement, *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement,
		*ast.WhileStatement, *ast.DoWhileStatement, *ast.SwitchStatement:
		return a.labelledEvaluation(s, nil)
	case *ast.BadStatement:
		return *a.Throw(SyntaxError, MsgUnsupportedSyntax, "invalid statement")
	}
	return *a.Throw(SyntaxError, MsgUnsupportedSyntax, nodeName(s))
}

// evalVariableDeclarations evaluates the initializers of var declarations.
func (a *Agent) evalVariableDeclarations(list []*ast.Binding) *Completion {
	for _, b := range list {
		if b.Initializer == nil {
			continue
		}
		if id, ok := b.Target.(*ast.Identifier); ok {
			lhs, ab := a.ResolveBinding(id.Name.String(), nil)
			if ab != nil {
				return ab
			}
			v, ab := a.evalNamedRHS(id, b.Initializer)
			if ab != nil {
				return ab
			}
			if ab := a.PutValue(lhs, v); ab != nil {
				return ab
			}
			continue
		}
		rval, ab := a.evalExpressionValue(b.Initializer)
		if ab != nil {
			return ab
		}
		if ab := a.BindingInitialization(b.Target, rval, nil); ab != nil {
			return ab
		}
	}
	return nil
}

// evalLexicalDeclaration initializes let and const bindings; a let without
// an initializer becomes undefined.
func (a *Agent) evalLexicalDeclaration(decl *ast.LexicalDeclaration) *Completion {
	for _, b := range decl.List {
		if id, ok := b.Target.(*ast.Identifier); ok {
			lhs, ab := a.ResolveBinding(id.Name.String(), nil)
			if ab != nil {
				return ab
			}
			v := Undefined
			if b.Initializer != nil {
				if v, ab = a.evalNamedRHS(id, b.Initializer); ab != nil {
					return ab
				}
			}
			if ab := a.InitializeReferencedBinding(lhs, v); ab != nil {
				return ab
			}
			continue
		}
		rval, ab := a.evalExpressionValue(b.Initializer)
		if ab != nil {
			return ab
		}
		env := a.RunningContext().LexicalEnvironment
		if ab := a.BindingInitialization(b.Target, rval, env); ab != nil {
			return ab
		}
	}
	return nil
}

func (a *Agent) evalIf(st *ast.IfStatement) Completion {
	test, ab := a.evalExpressionValue(st.Test)
	if ab != nil {
		return *ab
	}
	var c Completion
	switch {
	case ToBoolean(test):
		c = a.evalStatement(st.Consequent)
	case st.Alternate != nil:
		c = a.evalStatement(st.Alternate)
	default:
		return NormalCompletion(Undefined)
	}
	return UpdateEmpty(c, Undefined)
}

func (a *Agent) evalReturn(st *ast.ReturnStatement) Completion {
	if st.Argument == nil {
		return *ReturnCompletion(Undefined)
	}
	v, ab := a.evalExpressionValue(st.Argument)
	if ab != nil {
		return *ab
	}
	if a.generatorKind() == FunctionAsyncGenerator {
		if v, ab = a.Await(v); ab != nil {
			return *ab
		}
	}
	return *ReturnCompletion(v)
}

func (a *Agent) evalTry(st *ast.TryStatement) Completion {
	c := a.evalBlock(st.Body.List)
	if st.Catch != nil && c.Type == CompletionThrow {
		c = a.evalCatch(st.Catch, c.Value)
	}
	if st.Finally != nil {
		if f := a.evalBlock(st.Finally.List); f.Type != CompletionNormal {
			c = f
		}
	}
	return UpdateEmpty(c, Undefined)
}

// evalCatch implements CatchClauseEvaluation.
func (a *Agent) evalCatch(cs *ast.CatchStatement, thrown Value) Completion {
	if cs.Parameter == nil {
		return a.evalBlock(cs.Body.List)
	}
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	catchEnv := NewDeclarativeEnvironment(oldEnv)
	for _, name := range BoundNames(cs.Parameter, nil) {
		MustOK(catchEnv.CreateMutableBinding(a, name, false))
	}
	ctx.LexicalEnvironment = catchEnv
	defer func() { ctx.LexicalEnvironment = oldEnv }()
	if ab := a.BindingInitialization(cs.Parameter, thrown, catchEnv); ab != nil {
		return *ab
	}
	return a.evalBlock(cs.Body.List)
}

func (a *Agent) evalWith(st *ast.WithStatement) Completion {
	if a.isStrict() {
		return *a.Throw(SyntaxError, MsgWithNotAllowed)
	}
	v, ab := a.evalExpressionValue(st.Object)
	if ab != nil {
		return *ab
	}
	obj, ab := ToObject(a, v)
	if ab != nil {
		return *ab
	}
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	ctx.LexicalEnvironment = NewObjectEnvironment(obj, true, oldEnv)
	c := a.evalStatement(st.Body)
	ctx.LexicalEnvironment = oldEnv
	return UpdateEmpty(c, Undefined)
}

// --- labels, loops and switch ---

// labelledEvaluation implements LabelledEvaluation. labels is the label set
// of the statement; breakable statements consume unlabelled breaks.
func (a *Agent) labelledEvaluation(s ast.Statement, labels []string) Completion {
	var c Completion
	switch st := s.(type) {
	case *ast.LabelledStatement:
		label := st.Label.Name.String()
		c = a.labelledEvaluation(st.Statement, append(slices.Clip(labels), label))
		if c.Type == CompletionBreak && c.Target == label {
			c = NormalCompletion(c.Value)
		}
		return c
	case *ast.ForStatement:
		c = a.evalFor(st, labels)
	case *ast.ForInStatement:
		c = a.evalForIn(st, labels)
	case *ast.ForOfStatement:
		c = a.evalForOf(st, labels)
	case *ast.WhileStatement:
		c = a.evalWhile(st, labels)
	case *ast.DoWhileStatement:
		c = a.evalDoWhile(st, labels)
	case *ast.SwitchStatement:
		c = a.evalSwitch(st)
	default:
		return a.evalStatement(s)
	}
	if c.Type == CompletionBreak && c.Target == "" {
		c = NormalCompletion(UpdateEmpty(c, Undefined).Value)
	}
	return c
}

// loopContinues implements LoopContinues.
func loopContinues(c Completion, labels []string) bool {
	switch c.Type {
	case CompletionNormal:
		return true
	case CompletionContinue:
		return c.Target == "" || slices.Contains(labels, c.Target)
	}
	return false
}

func (a *Agent) evalWhile(st *ast.WhileStatement, labels []string) Completion {
	v := Undefined
	for {
		test, ab := a.evalExpressionValue(st.Test)
		if ab != nil {
			return *ab
		}
		if !ToBoolean(test) {
			return NormalCompletion(v)
		}
		c := a.evalStatement(st.Body)
		if !loopContinues(c, labels) {
			return UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
	}
}

func (a *Agent) evalDoWhile(st *ast.DoWhileStatement, labels []string) Completion {
	v := Undefined
	for {
		c := a.evalStatement(st.Body)
		if !loopContinues(c, labels) {
			return UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
		test, ab := a.evalExpressionValue(st.Test)
		if ab != nil {
			return *ab
		}
		if !ToBoolean(test) {
			return NormalCompletion(v)
		}
	}
}

func (a *Agent) evalFor(st *ast.ForStatement, labels []string) Completion {
	switch init := st.Initializer.(type) {
	case *ast.ForLoopInitializerExpression:
		if _, ab := a.evalExpressionValue(init.Expression); ab != nil {
			return *ab
		}
	case *ast.ForLoopInitializerVarDeclList:
		if ab := a.evalVariableDeclarations(init.List); ab != nil {
			return *ab
		}
	case *ast.ForLoopInitializerLexicalDecl:
		decl := &init.LexicalDeclaration
		ctx := a.RunningContext()
		oldEnv := ctx.LexicalEnvironment
		loopEnv := NewDeclarativeEnvironment(oldEnv)
		isConst := decl.Token == token.CONST
		var names []string
		for _, b := range decl.List {
			names = BoundNames(b.Target, names)
		}
		for _, name := range names {
			if isConst {
				MustOK(loopEnv.CreateImmutableBinding(a, name, true))
			} else {
				MustOK(loopEnv.CreateMutableBinding(a, name, false))
			}
		}
		ctx.LexicalEnvironment = loopEnv
		defer func() { ctx.LexicalEnvironment = oldEnv }()
		if ab := a.evalLexicalDeclaration(decl); ab != nil {
			return *ab
		}
		if isConst {
			names = nil
		}
		return a.forBodyEvaluation(st, names, labels)
	}
	return a.forBodyEvaluation(st, nil, labels)
}

// forBodyEvaluation implements ForBodyEvaluation. perIteration lists the
// let bindings copied into a fresh environment for every iteration.
func (a *Agent) forBodyEvaluation(st *ast.ForStatement, perIteration []string, labels []string) Completion {
	v := Undefined
	a.createPerIterationEnvironment(perIteration)
	for {
		if st.Test != nil {
			test, ab := a.evalExpressionValue(st.Test)
			if ab != nil {
				return *ab
			}
			if !ToBoolean(test) {
				return NormalCompletion(v)
			}
		}
		c := a.evalStatement(st.Body)
		if !loopContinues(c, labels) {
			return UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
		a.createPerIterationEnvironment(perIteration)
		if st.Update != nil {
			if _, ab := a.evalExpressionValue(st.Update); ab != nil {
				return *ab
			}
		}
	}
}

func (a *Agent) createPerIterationEnvironment(names []string) {
	if len(names) == 0 {
		return
	}
	ctx := a.RunningContext()
	last := ctx.LexicalEnvironment
	thisIteration := NewDeclarativeEnvironment(last.Outer())
	for _, name := range names {
		MustOK(thisIteration.CreateMutableBinding(a, name, false))
		v := Must(last.GetBindingValue(a, name, true))
		MustOK(thisIteration.InitializeBinding(a, name, v))
	}
	ctx.LexicalEnvironment = thisIteration
}

// forInIterator walks enumerable string keys up the prototype chain the way
// %ForInIteratorPrototype%.next does, skipping keys already visited or
// deleted before they are reached.
type forInIterator struct {
	object  *Object
	visited bool
	seen    map[PropertyKey]struct{}
	pending []PropertyKey
}

func (it *forInIterator) next(a *Agent) (Value, bool, *Completion) {
	for it.object != nil {
		if !it.visited {
			keys, ab := it.object.OwnPropertyKeys(a)
			if ab != nil {
				return Undefined, true, ab
			}
			for _, k := range keys {
				if !k.IsSymbol() {
					it.pending = append(it.pending, k)
				}
			}
			it.visited = true
		}
		for len(it.pending) > 0 {
			k := it.pending[0]
			it.pending = it.pending[1:]
			if _, ok := it.seen[k]; ok {
				continue
			}
			desc, ab := it.object.GetOwnProperty(a, k)
			if ab != nil {
				return Undefined, true, ab
			}
			if desc == nil {
				continue
			}
			it.seen[k] = struct{}{}
			if desc.Enumerable {
				return String(k.Name()), false, nil
			}
		}
		proto, ab := it.object.GetPrototypeOf(a)
		if ab != nil {
			return Undefined, true, ab
		}
		it.object, it.visited = proto, false
	}
	return Undefined, true, nil
}

// forHeadEvaluation implements ForIn/OfHeadEvaluation up to obtaining the
// source value. Lexical heads see their own bindings in TDZ.
func (a *Agent) forHeadEvaluation(into ast.ForInto, source ast.Expression) (Value, *Completion) {
	decl, ok := into.(*ast.ForDeclaration)
	if !ok {
		return a.evalExpressionValue(source)
	}
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	tdz := NewDeclarativeEnvironment(oldEnv)
	for _, name := range BoundNames(decl.Target, nil) {
		MustOK(tdz.CreateMutableBinding(a, name, false))
	}
	ctx.LexicalEnvironment = tdz
	v, ab := a.evalExpressionValue(source)
	ctx.LexicalEnvironment = oldEnv
	return v, ab
}

func (a *Agent) evalForIn(st *ast.ForInStatement, labels []string) Completion {
	v, ab := a.forHeadEvaluation(st.Into, st.Source)
	if ab != nil {
		return *ab
	}
	if v.IsNullish() {
		return *BreakCompletion("")
	}
	obj := Must(ToObject(a, v))
	it := &forInIterator{object: obj, seen: map[PropertyKey]struct{}{}}
	return a.forInOfBodyEvaluation(st.Into, st.Body, it.next, nil, labels)
}

func (a *Agent) evalForOf(st *ast.ForOfStatement, labels []string) Completion {
	v, ab := a.forHeadEvaluation(st.Into, st.Source)
	if ab != nil {
		return *ab
	}
	rec, ab := GetIterator(a, v, false)
	if ab != nil {
		return *ab
	}
	return a.forInOfBodyEvaluation(st.Into, st.Body, func(a *Agent) (Value, bool, *Completion) {
		return IteratorStepValue(a, rec)
	}, rec, labels)
}

// forInOfBodyEvaluation implements ForIn/OfBodyEvaluation. rec is nil for
// for-in, whose iterator is never closed.
func (a *Agent) forInOfBodyEvaluation(into ast.ForInto, body ast.Statement, next func(*Agent) (Value, bool, *Completion), rec *IteratorRecord, labels []string) Completion {
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	closeWith := func(c Completion) Completion {
		if rec == nil {
			return c
		}
		return *IteratorClose(a, rec, &c)
	}
	v := Undefined
	for {
		nextValue, done, ab := next(a)
		if ab != nil {
			return *ab
		}
		if done {
			return NormalCompletion(v)
		}
		if ab := a.bindForTarget(into, nextValue); ab != nil {
			ctx.LexicalEnvironment = oldEnv
			return closeWith(*ab)
		}
		c := a.evalStatement(body)
		ctx.LexicalEnvironment = oldEnv
		if !loopContinues(c, labels) {
			return closeWith(UpdateEmpty(c, v))
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
	}
}

// bindForTarget binds one iteration value to the head of a for-in or for-of
// statement. Lexical heads get a fresh environment per iteration.
func (a *Agent) bindForTarget(into ast.ForInto, v Value) *Completion {
	switch in := into.(type) {
	case *ast.ForIntoExpression:
		if isPattern(in.Expression) {
			return a.BindingInitialization(in.Expression, v, nil)
		}
		ref, ab := a.evalReference(in.Expression)
		if ab != nil {
			return ab
		}
		return a.PutValue(ref, v)
	case *ast.ForIntoVar:
		return a.BindingInitialization(in.Binding.Target, v, nil)
	case *ast.ForDeclaration:
		ctx := a.RunningContext()
		iterationEnv := NewDeclarativeEnvironment(ctx.LexicalEnvironment)
		for _, name := range BoundNames(in.Target, nil) {
			if in.IsConst {
				MustOK(iterationEnv.CreateImmutableBinding(a, name, true))
			} else {
				MustOK(iterationEnv.CreateMutableBinding(a, name, false))
			}
		}
		ctx.LexicalEnvironment = iterationEnv
		return a.BindingInitialization(in.Target, v, iterationEnv)
	}
	return a.Throw(SyntaxError, MsgUnsupportedSyntax, nodeName(into))
}

func (a *Agent) evalSwitch(st *ast.SwitchStatement) Completion {
	input, ab := a.evalExpressionValue(st.Discriminant)
	if ab != nil {
		return *ab
	}
	var all []ast.Statement
	for _, cc := range st.Body {
		all = append(all, cc.Consequent...)
	}
	ctx := a.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	if hasLexicalDeclarations(all) {
		blockEnv := NewDeclarativeEnvironment(oldEnv)
		a.BlockDeclarationInstantiation(all, blockEnv)
		ctx.LexicalEnvironment = blockEnv
		defer func() { ctx.LexicalEnvironment = oldEnv }()
	}
	return a.caseBlockEvaluation(st, input)
}

// caseBlockEvaluation implements CaseBlockEvaluation. Case tests run in
// source order, skipping the default clause, and execution falls through
// from the selected clause.
func (a *Agent) caseBlockEvaluation(st *ast.SwitchStatement, input Value) Completion {
	start := -1
	for i, cc := range st.Body {
		if cc.Test == nil {
			continue
		}
		selector, ab := a.evalExpressionValue(cc.Test)
		if ab != nil {
			return *ab
		}
		if IsStrictlyEqual(input, selector) {
			start = i
			break
		}
	}
	if start < 0 {
		start = st.Default
	}
	v := Undefined
	if start < 0 {
		return NormalCompletion(v)
	}
	for _, cc := range st.Body[start:] {
		c := a.evalStatementList(cc.Consequent)
		if !c.Value.IsEmpty() {
			v = c.Value
		}
		if c.Type != CompletionNormal {
			return UpdateEmpty(c, v)
		}
	}
	return NormalCompletion(v)
}
