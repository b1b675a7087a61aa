package engine

// GeneratorState is [[GeneratorState]].
type GeneratorState uint8

const (
	GeneratorSuspendedStart GeneratorState = iota
	GeneratorSuspendedYield
	GeneratorExecuting
	GeneratorCompleted
)

func (s GeneratorState) String() string {
	switch s {
	case GeneratorSuspendedStart:
		return "suspended-start"
	case GeneratorSuspendedYield:
		return "suspended-yield"
	case GeneratorExecuting:
		return "executing"
	}
	return "completed"
}

// GeneratorSlots are the internal slots of a generator instance. Brand is
// empty for generators created by generator functions.
type GeneratorSlots struct {
	State GeneratorState
	Brand string
	// Underlying is [[UnderlyingIterator]] of an iterator helper.
	Underlying *IteratorRecord
	context    *ExecutionContext
	co         *coroutine
}

// GeneratorStart implements GeneratorStart for a generator function call:
// the running callee context becomes the generator's context.
func (a *Agent) GeneratorStart(g *Object, body func(a *Agent) Completion) {
	a.generatorStart(g, a.RunningContext(), "", body)
}

func (a *Agent) generatorStart(g *Object, genCtx *ExecutionContext, brand string, body func(a *Agent) Completion) {
	s := &GeneratorSlots{State: GeneratorSuspendedStart, Brand: brand, context: genCtx}
	g.slots = s
	genCtx.Generator = g
	s.co = a.newCoroutine(genCtx, func(Completion) Completion {
		result := body(a)
		s.State = GeneratorCompleted
		switch result.Type {
		case CompletionNormal:
			return NormalCompletion(ObjectValue(CreateIterResultObject(a, Undefined, true)))
		case CompletionReturn:
			return NormalCompletion(ObjectValue(CreateIterResultObject(a, result.Value, true)))
		}
		return result
	})
	genCtx.co = s.co
}

// GeneratorValidate implements GeneratorValidate.
func GeneratorValidate(a *Agent, generator Value, brand string) (*GeneratorSlots, *Completion) {
	o := generator.AsObject()
	var s *GeneratorSlots
	if o != nil {
		s, _ = o.slots.(*GeneratorSlots)
	}
	if s == nil || s.Brand != brand {
		return nil, a.Throw(TypeError, MsgIncompatibleReceiver, "next", generator.String())
	}
	if s.State == GeneratorExecuting {
		return nil, a.Throw(TypeError, MsgGeneratorRunning)
	}
	return s, nil
}

// GeneratorResume implements GeneratorResume.
func GeneratorResume(a *Agent, generator Value, value Value, brand string) (Value, *Completion) {
	s, ab := GeneratorValidate(a, generator, brand)
	if ab != nil {
		return Undefined, ab
	}
	if s.State == GeneratorCompleted {
		return ObjectValue(CreateIterResultObject(a, Undefined, true)), nil
	}
	return a.resumeGenerator(s, NormalCompletion(value))
}

// GeneratorResumeAbrupt implements GeneratorResumeAbrupt for a return or
// throw completion.
func GeneratorResumeAbrupt(a *Agent, generator Value, abrupt *Completion, brand string) (Value, *Completion) {
	s, ab := GeneratorValidate(a, generator, brand)
	if ab != nil {
		return Undefined, ab
	}
	if s.State == GeneratorSuspendedStart {
		s.State = GeneratorCompleted
		s.co.discard()
		s.context = nil
	}
	if s.State == GeneratorCompleted {
		if abrupt.Type == CompletionReturn {
			return ObjectValue(CreateIterResultObject(a, abrupt.Value, true)), nil
		}
		return Undefined, abrupt
	}
	Assert(s.State == GeneratorSuspendedYield, "resuming generator in state %s", s.State)
	return a.resumeGenerator(s, *abrupt)
}

func (a *Agent) resumeGenerator(s *GeneratorSlots, in Completion) (Value, *Completion) {
	genCtx := s.context
	s.State = GeneratorExecuting
	a.PushContext(genCtx)
	c, done := s.co.Resume(in)
	a.PopContext(genCtx)
	if done {
		s.context = nil
	}
	if c.Type == CompletionThrow {
		return Undefined, &c
	}
	return c.Value, nil
}

// GeneratorYield implements GeneratorYield: it suspends the running
// generator with an iterator result and returns the resumption completion.
func (a *Agent) GeneratorYield(iterNextObj *Object) Completion {
	genCtx := a.RunningContext()
	s := genCtx.Generator.slots.(*GeneratorSlots)
	s.State = GeneratorSuspendedYield
	return genCtx.co.Yield(NormalCompletion(ObjectValue(iterNextObj)))
}

// yieldValue implements Yield for the running generator of either kind.
func (a *Agent) yieldValue(v Value) Completion {
	ctx := a.RunningContext()
	if _, ok := ctx.Generator.slots.(*AsyncGeneratorSlots); ok {
		awaited, ab := a.Await(v)
		if ab != nil {
			return *ab
		}
		return a.AsyncGeneratorYield(awaited)
	}
	return a.GeneratorYield(CreateIterResultObject(a, v, false))
}

// generatorKind reports the kind of the running generator body, if any.
func (a *Agent) generatorKind() FunctionKind {
	ctx := a.RunningContext()
	if ctx.Generator == nil {
		return FunctionNormal
	}
	if _, ok := ctx.Generator.slots.(*AsyncGeneratorSlots); ok {
		return FunctionAsyncGenerator
	}
	return FunctionGenerator
}

// CreateIteratorFromClosure implements CreateIteratorFromClosure. The
// closure yields through the function it is given.
func (a *Agent) CreateIteratorFromClosure(closure func(a *Agent, yield func(Value) Completion) Completion, brand string, proto *Object) *Object {
	running := a.RunningContext()
	g := OrdinaryObjectCreate(proto)
	g.kind = KindGenerator
	calleeContext := &ExecutionContext{
		Realm:          running.Realm,
		ScriptOrModule: running.ScriptOrModule,
		strict:         true,
	}
	a.generatorStart(g, calleeContext, brand, func(a *Agent) Completion {
		return closure(a, func(v Value) Completion {
			return a.GeneratorYield(CreateIterResultObject(a, v, false))
		})
	})
	return g
}

// --- %GeneratorFunction.prototype.prototype% methods ---

func generatorNext(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	return GeneratorResume(a, this, argOrUndefined(args, 0), "")
}

func generatorReturn(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	return GeneratorResumeAbrupt(a, this, ReturnCompletion(argOrUndefined(args, 0)), "")
}

func generatorThrow(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	return GeneratorResumeAbrupt(a, this, ThrowCompletion(argOrUndefined(args, 0)), "")
}
