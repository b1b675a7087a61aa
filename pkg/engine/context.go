package engine

import (
	"github.com/dop251/goja/ast"

	"github.com/nooga/specjs/pkg/source"
)

// ExecutionContext tracks the evaluation state of one piece of running code.
// The agent's context stack owns these; a suspended generator keeps its own.
type ExecutionContext struct {
	Function            *Object // nil for scripts and jobs
	Realm               *Realm
	ScriptOrModule      *Script
	LexicalEnvironment  Environment
	VariableEnvironment Environment
	PrivateEnvironment  *PrivateEnvironment
	Generator           *Object

	// co is the coroutine evaluating this context's code when it can
	// suspend (generator, async function, async generator bodies).
	co *coroutine

	// strict is set while evaluating strict mode code.
	strict bool
}

// Script is a Script Record.
type Script struct {
	Realm       *Realm
	Program     *ast.Program
	Source      *source.SourceFile
	HostDefined any
}

// PushContext makes ctx the running execution context.
func (a *Agent) PushContext(ctx *ExecutionContext) {
	Assert(ctx != nil, "pushing nil execution context")
	a.stack = append(a.stack, ctx)
	if debugEnabled(agentLog) {
		agentLog.Debugf("push context depth=%d", len(a.stack))
	}
}

// PopContext removes ctx, which must be the running execution context.
func (a *Agent) PopContext(ctx *ExecutionContext) {
	n := len(a.stack)
	Assert(n > 0, "popping from an empty execution context stack")
	Assert(a.stack[n-1] == ctx, "popped execution context is not the running one (depth %d)", n)
	a.stack[n-1] = nil
	a.stack = a.stack[:n-1]
	if debugEnabled(agentLog) {
		agentLog.Debugf("pop context depth=%d", n-1)
	}
}

// RunningContext returns the top of the stack, or nil when idle.
func (a *Agent) RunningContext() *ExecutionContext {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// ContextDepth reports the size of the execution context stack.
func (a *Agent) ContextDepth() int { return len(a.stack) }

// CurrentRealm is the Realm of the running execution context.
func (a *Agent) CurrentRealm() *Realm {
	ctx := a.RunningContext()
	Assert(ctx != nil, "no running execution context")
	return ctx.Realm
}

// ActiveFunction is the Function of the running execution context.
func (a *Agent) ActiveFunction() *Object {
	if ctx := a.RunningContext(); ctx != nil {
		return ctx.Function
	}
	return nil
}

// GetActiveScriptOrModule returns the innermost context's script, if any.
func (a *Agent) GetActiveScriptOrModule() *Script {
	for i := len(a.stack) - 1; i >= 0; i-- {
		if s := a.stack[i].ScriptOrModule; s != nil {
			return s
		}
	}
	return nil
}

// ResolveBinding resolves name against env, or the running lexical
// environment when env is nil.
func (a *Agent) ResolveBinding(name string, env Environment) (*Reference, *Completion) {
	if env == nil {
		env = a.RunningContext().LexicalEnvironment
	}
	strict := a.isStrict()
	return GetIdentifierReference(a, env, name, strict)
}

// GetThisEnvironment finds the nearest environment with a this binding.
func (a *Agent) GetThisEnvironment() Environment {
	env := a.RunningContext().LexicalEnvironment
	for {
		if env.HasThisBinding() {
			return env
		}
		env = env.Outer()
		Assert(env != nil, "no this environment")
	}
}

// ResolveThisBinding implements ResolveThisBinding.
func (a *Agent) ResolveThisBinding() (Value, *Completion) {
	return thisBindingOf(a, a.GetThisEnvironment())
}

// GetNewTarget implements GetNewTarget.
func (a *Agent) GetNewTarget() Value {
	env := a.GetThisEnvironment()
	if fe, ok := env.(*FunctionEnvironment); ok {
		if fe.NewTarget == nil {
			return Undefined
		}
		return ObjectValue(fe.NewTarget)
	}
	return Undefined
}

// GetGlobalObject returns the current realm's global object.
func (a *Agent) GetGlobalObject() *Object {
	return a.CurrentRealm().GlobalObject
}

// isStrict reports whether the running code is strict mode code.
func (a *Agent) isStrict() bool {
	ctx := a.RunningContext()
	return ctx != nil && ctx.strict
}
