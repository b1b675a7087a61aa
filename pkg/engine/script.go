package engine

import (
	stderrors "errors"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

// ParseScript implements ParseScript. Early errors come back as a
// *errors.SyntaxError positioned in src.
func (a *Agent) ParseScript(src *source.SourceFile, realm *Realm, hostDefined any) (*Script, error) {
	program, err := parser.ParseFile(nil, src.Name, src.Content, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, syntaxErrorFrom(src, err)
	}
	src.Attach(program.File)
	return &Script{Realm: realm, Program: program, Source: src, HostDefined: hostDefined}, nil
}

func syntaxErrorFrom(src *source.SourceFile, err error) *errors.SyntaxError {
	var list parser.ErrorList
	if stderrors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return (&errors.SyntaxError{
			Position: errors.Position{Line: first.Position.Line, Column: first.Position.Column, Source: src},
			Msg:      first.Message,
		}).CausedBy(err)
	}
	return (&errors.SyntaxError{Position: errors.Position{Source: src}, Msg: err.Error()}).CausedBy(err)
}

// ScriptEvaluation implements ScriptEvaluation. The result is the script's
// completion value, or the abrupt completion that escaped it. The context
// stack is restored to its depth on entry either way.
func (a *Agent) ScriptEvaluation(script *Script) (Value, *Completion) {
	realm := script.Realm
	Assert(realm.GlobalEnv != nil, "%s has no global environment", realm)
	depth := a.ContextDepth()
	scriptContext := &ExecutionContext{
		Realm:               realm,
		ScriptOrModule:      script,
		LexicalEnvironment:  realm.GlobalEnv,
		VariableEnvironment: realm.GlobalEnv,
		strict:              hasUseStrictDirective(script.Program.Body),
	}
	a.PushContext(scriptContext)
	result := a.evaluateScriptBody(script.Program)
	a.PopContext(scriptContext)
	Assert(a.ContextDepth() == depth, "context stack unbalanced after script %s", script.Source.DisplayPath())
	if result.Type != CompletionNormal {
		return Undefined, &result
	}
	if result.Value.IsEmpty() {
		return Undefined, nil
	}
	return result.Value, nil
}

func (a *Agent) evaluateScriptBody(program *ast.Program) Completion {
	env := a.RunningContext().VariableEnvironment.(*GlobalEnvironment)
	if ab := a.GlobalDeclarationInstantiation(program, env); ab != nil {
		return *ab
	}
	return a.evalStatementList(program.Body)
}

// EvaluateScript parses and evaluates source text in realm. Parse failures
// are thrown as SyntaxError objects of that realm, which is how
// $262.evalScript reports them.
func (a *Agent) EvaluateScript(realm *Realm, src *source.SourceFile) (Value, *Completion) {
	script, err := a.ParseScript(src, realm, nil)
	if err != nil {
		return Undefined, a.throwIn(realm, SyntaxError, MsgParse, err.(*errors.SyntaxError).Msg)
	}
	return a.ScriptEvaluation(script)
}

// throwIn throws an error built from realm's intrinsics rather than the
// running realm's.
func (a *Agent) throwIn(realm *Realm, kind ErrorKind, key Msg, args ...any) *Completion {
	ctx := &ExecutionContext{Realm: realm}
	a.PushContext(ctx)
	ab := a.Throw(kind, key, args...)
	a.PopContext(ctx)
	return ab
}

// dynamicFunctionForms describes the source prefix and the intrinsic
// prototype for each kind CreateDynamicFunction can build.
var dynamicFunctionForms = map[FunctionKind]struct {
	prefix   string
	fallback string
}{
	FunctionNormal:         {"function", "%Function.prototype%"},
	FunctionGenerator:      {"function*", "%GeneratorFunction.prototype%"},
	FunctionAsync:          {"async function", "%AsyncFunction.prototype%"},
	FunctionAsyncGenerator: {"async function*", "%AsyncGeneratorFunction.prototype%"},
}

// CreateDynamicFunction implements CreateDynamicFunction for the Function,
// GeneratorFunction, AsyncFunction and AsyncGeneratorFunction constructors.
// The function closes over the global environment of the running realm.
func (a *Agent) CreateDynamicFunction(constructor, newTarget *Object, kind FunctionKind, args []Value) (Value, *Completion) {
	if newTarget == nil {
		newTarget = constructor
	}
	form := dynamicFunctionForms[kind]
	params := make([]string, 0, len(args))
	body := ""
	for i, arg := range args {
		s, ab := ToString(a, arg)
		if ab != nil {
			return Undefined, ab
		}
		if i == len(args)-1 {
			body = s
		} else {
			params = append(params, s)
		}
	}
	text := form.prefix + " anonymous(" + strings.Join(params, ",") + "\n) {\n" + body + "\n}"
	lit, err := parseFunctionSource(text)
	if err != nil {
		return Undefined, a.Throw(SyntaxError, MsgParse, err.Error())
	}
	proto, ab := GetPrototypeFromConstructor(a, newTarget, form.fallback)
	if ab != nil {
		return Undefined, ab
	}
	realm := a.CurrentRealm()
	// Dynamic functions never inherit the strictness of their caller.
	ctx := &ExecutionContext{Realm: realm, LexicalEnvironment: realm.GlobalEnv, VariableEnvironment: realm.GlobalEnv}
	a.PushContext(ctx)
	f := a.OrdinaryFunctionCreate(proto, lit, realm.GlobalEnv, nil)
	a.PopContext(ctx)
	fs := f.slots.(*FunctionSlots)
	fs.SourceText = text
	SetFunctionName(f, StringKey("anonymous"), "")
	switch kind {
	case FunctionGenerator:
		p := OrdinaryObjectCreate(realm.Intrinsic("%GeneratorFunction.prototype.prototype%"))
		f.DefineDirect(StringKey("prototype"), ObjectValue(p), true, false, false)
	case FunctionAsyncGenerator:
		p := OrdinaryObjectCreate(realm.Intrinsic("%AsyncGeneratorFunction.prototype.prototype%"))
		f.DefineDirect(StringKey("prototype"), ObjectValue(p), true, false, false)
	case FunctionNormal:
		MakeConstructor(a, f, true, nil)
	}
	return ObjectValue(f), nil
}

// parseFunctionSource parses the text of a single function expression. The
// whole text must be that one function, so a body cannot close it early and
// smuggle in other code.
func parseFunctionSource(text string) (*ast.FunctionLiteral, error) {
	program, err := parser.ParseFile(nil, "anonymous", "("+text+"\n)", 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, err
	}
	if len(program.Body) == 1 {
		if es, ok := program.Body[0].(*ast.ExpressionStatement); ok {
			if lit, ok := es.Expression.(*ast.FunctionLiteral); ok {
				return lit, nil
			}
		}
	}
	return nil, stderrors.New("function body closes its own function")
}
