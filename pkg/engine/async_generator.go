package engine

// AsyncGeneratorState is [[AsyncGeneratorState]].
type AsyncGeneratorState uint8

const (
	AsyncGeneratorSuspendedStart AsyncGeneratorState = iota
	AsyncGeneratorSuspendedYield
	AsyncGeneratorExecuting
	AsyncGeneratorDrainingQueue
	AsyncGeneratorCompleted
)

// AsyncGeneratorRequest is an AsyncGeneratorRequest Record.
type AsyncGeneratorRequest struct {
	Completion Completion
	Capability *PromiseCapability
}

// AsyncGeneratorSlots are the internal slots of an async generator.
type AsyncGeneratorSlots struct {
	State   AsyncGeneratorState
	Queue   []*AsyncGeneratorRequest
	Brand   string
	context *ExecutionContext
	co      *coroutine
}

// AsyncGeneratorStart implements AsyncGeneratorStart.
func (a *Agent) AsyncGeneratorStart(g *Object, body func(a *Agent) Completion) {
	genCtx := a.RunningContext()
	s := &AsyncGeneratorSlots{State: AsyncGeneratorSuspendedStart, context: genCtx}
	g.slots = s
	genCtx.Generator = g
	s.co = a.newCoroutine(genCtx, func(Completion) Completion {
		result := body(a)
		s.State = AsyncGeneratorDrainingQueue
		switch result.Type {
		case CompletionNormal:
			result = NormalCompletion(Undefined)
		case CompletionReturn:
			result = NormalCompletion(result.Value)
		}
		a.asyncGeneratorCompleteStep(g, result, true, nil)
		a.asyncGeneratorDrainQueue(g)
		return NormalCompletion(Undefined)
	})
	genCtx.co = s.co
}

// AsyncGeneratorValidate implements AsyncGeneratorValidate.
func AsyncGeneratorValidate(a *Agent, generator Value, brand string) (*AsyncGeneratorSlots, *Completion) {
	o := generator.AsObject()
	var s *AsyncGeneratorSlots
	if o != nil {
		s, _ = o.slots.(*AsyncGeneratorSlots)
	}
	if s == nil || s.Brand != brand {
		return nil, a.Throw(TypeError, MsgIncompatibleReceiver, "AsyncGenerator method", generator.String())
	}
	return s, nil
}

// asyncGeneratorCompleteStep implements AsyncGeneratorCompleteStep. A
// non-nil realm is used to create the iterator result.
func (a *Agent) asyncGeneratorCompleteStep(g *Object, completion Completion, done bool, realm *Realm) {
	s := g.slots.(*AsyncGeneratorSlots)
	Assert(len(s.Queue) > 0, "async generator completing a step with an empty queue")
	next := s.Queue[0]
	s.Queue[0] = nil
	s.Queue = s.Queue[1:]
	capability := next.Capability
	if completion.Type == CompletionThrow {
		MustOK(second(Call(a, ObjectValue(capability.Reject), Undefined, []Value{completion.Value})))
		return
	}
	var iteratorResult *Object
	if realm != nil {
		ctx := a.RunningContext()
		oldRealm := ctx.Realm
		ctx.Realm = realm
		iteratorResult = CreateIterResultObject(a, completion.Value, done)
		ctx.Realm = oldRealm
	} else {
		iteratorResult = CreateIterResultObject(a, completion.Value, done)
	}
	MustOK(second(Call(a, ObjectValue(capability.Resolve), Undefined, []Value{ObjectValue(iteratorResult)})))
}

// asyncGeneratorResume implements AsyncGeneratorResume.
func (a *Agent) asyncGeneratorResume(g *Object, completion Completion) {
	s := g.slots.(*AsyncGeneratorSlots)
	Assert(s.State == AsyncGeneratorSuspendedStart || s.State == AsyncGeneratorSuspendedYield, "resuming async generator in state %d", s.State)
	genCtx := s.context
	s.State = AsyncGeneratorExecuting
	a.PushContext(genCtx)
	s.co.Resume(completion)
	a.PopContext(genCtx)
}

// asyncGeneratorUnwrapYieldResumption implements
// AsyncGeneratorUnwrapYieldResumption.
func (a *Agent) asyncGeneratorUnwrapYieldResumption(resumption Completion) Completion {
	if resumption.Type != CompletionReturn {
		return resumption
	}
	awaited, ab := a.Await(resumption.Value)
	if ab != nil {
		return *ab
	}
	return *ReturnCompletion(awaited)
}

// AsyncGeneratorYield implements AsyncGeneratorYield. When requests are
// already queued the body continues without suspending.
func (a *Agent) AsyncGeneratorYield(v Value) Completion {
	genCtx := a.RunningContext()
	g := genCtx.Generator
	s := g.slots.(*AsyncGeneratorSlots)
	var previousRealm *Realm
	if n := len(a.stack); n >= 2 {
		previousRealm = a.stack[n-2].Realm
	}
	a.asyncGeneratorCompleteStep(g, NormalCompletion(v), false, previousRealm)
	if len(s.Queue) > 0 {
		return a.asyncGeneratorUnwrapYieldResumption(s.Queue[0].Completion)
	}
	s.State = AsyncGeneratorSuspendedYield
	resumption := genCtx.co.Yield(NormalCompletion(Undefined))
	return a.asyncGeneratorUnwrapYieldResumption(resumption)
}

// asyncGeneratorAwaitReturn implements AsyncGeneratorAwaitReturn.
func (a *Agent) asyncGeneratorAwaitReturn(g *Object) {
	s := g.slots.(*AsyncGeneratorSlots)
	Assert(s.State == AsyncGeneratorDrainingQueue, "awaiting return in state %d", s.State)
	Assert(len(s.Queue) > 0, "awaiting return with an empty queue")
	completion := s.Queue[0].Completion
	Assert(completion.Type == CompletionReturn, "awaiting return of a %s completion", completion.Type)
	realm := a.CurrentRealm()
	promise, ab := PromiseResolve(a, realm.Intrinsic("%Promise%"), completion.Value)
	if ab != nil {
		a.asyncGeneratorCompleteStep(g, *ab, true, nil)
		a.asyncGeneratorDrainQueue(g)
		return
	}
	onFulfilled := anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		Assert(s.State == AsyncGeneratorDrainingQueue, "return settled in state %d", s.State)
		a.asyncGeneratorCompleteStep(g, NormalCompletion(argOrUndefined(args, 0)), true, nil)
		a.asyncGeneratorDrainQueue(g)
		return Undefined, nil
	})
	onRejected := anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		Assert(s.State == AsyncGeneratorDrainingQueue, "return settled in state %d", s.State)
		a.asyncGeneratorCompleteStep(g, *ThrowCompletion(argOrUndefined(args, 0)), true, nil)
		a.asyncGeneratorDrainQueue(g)
		return Undefined, nil
	})
	PerformPromiseThen(a, promise, ObjectValue(onFulfilled), ObjectValue(onRejected), nil)
}

// asyncGeneratorDrainQueue implements AsyncGeneratorDrainQueue.
func (a *Agent) asyncGeneratorDrainQueue(g *Object) {
	s := g.slots.(*AsyncGeneratorSlots)
	Assert(s.State == AsyncGeneratorDrainingQueue, "draining queue in state %d", s.State)
	if len(s.Queue) == 0 {
		s.State = AsyncGeneratorCompleted
		s.context = nil
		return
	}
	for {
		completion := s.Queue[0].Completion
		if completion.Type == CompletionReturn {
			a.asyncGeneratorAwaitReturn(g)
			return
		}
		if completion.Type == CompletionNormal {
			completion = NormalCompletion(Undefined)
		}
		a.asyncGeneratorCompleteStep(g, completion, true, nil)
		if len(s.Queue) == 0 {
			s.State = AsyncGeneratorCompleted
			s.context = nil
			return
		}
	}
}

// --- %AsyncGeneratorFunction.prototype.prototype% methods ---

func asyncGeneratorNext(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	s, ab := AsyncGeneratorValidate(a, this, "")
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	if s.State == AsyncGeneratorCompleted {
		iteratorResult := CreateIterResultObject(a, Undefined, true)
		MustOK(second(Call(a, ObjectValue(capability.Resolve), Undefined, []Value{ObjectValue(iteratorResult)})))
		return ObjectValue(capability.Promise), nil
	}
	completion := NormalCompletion(argOrUndefined(args, 0))
	state := s.State
	s.Queue = append(s.Queue, &AsyncGeneratorRequest{Completion: completion, Capability: capability})
	if state == AsyncGeneratorSuspendedStart || state == AsyncGeneratorSuspendedYield {
		a.asyncGeneratorResume(this.AsObject(), completion)
	}
	return ObjectValue(capability.Promise), nil
}

func asyncGeneratorReturn(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	s, ab := AsyncGeneratorValidate(a, this, "")
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	completion := *ReturnCompletion(argOrUndefined(args, 0))
	s.Queue = append(s.Queue, &AsyncGeneratorRequest{Completion: completion, Capability: capability})
	switch s.State {
	case AsyncGeneratorSuspendedStart, AsyncGeneratorCompleted:
		if s.State == AsyncGeneratorSuspendedStart {
			s.co.discard()
		}
		s.State = AsyncGeneratorDrainingQueue
		a.asyncGeneratorAwaitReturn(this.AsObject())
	case AsyncGeneratorSuspendedYield:
		a.asyncGeneratorResume(this.AsObject(), completion)
	}
	return ObjectValue(capability.Promise), nil
}

func asyncGeneratorThrow(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	capability := Must(NewPromiseCapability(a, ObjectValue(a.CurrentRealm().Intrinsic("%Promise%"))))
	s, ab := AsyncGeneratorValidate(a, this, "")
	if ab != nil {
		return capability.rejectWith(a, ab)
	}
	exception := argOrUndefined(args, 0)
	if s.State == AsyncGeneratorSuspendedStart {
		s.co.discard()
		s.State = AsyncGeneratorCompleted
		s.context = nil
	}
	if s.State == AsyncGeneratorCompleted {
		MustOK(second(Call(a, ObjectValue(capability.Reject), Undefined, []Value{exception})))
		return ObjectValue(capability.Promise), nil
	}
	completion := *ThrowCompletion(exception)
	s.Queue = append(s.Queue, &AsyncGeneratorRequest{Completion: completion, Capability: capability})
	if s.State == AsyncGeneratorSuspendedYield {
		a.asyncGeneratorResume(this.AsObject(), completion)
	}
	return ObjectValue(capability.Promise), nil
}
